package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Interviewer struct {
	ID            primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name          string             `json:"name" bson:"name"`
	Company       primitive.ObjectID `json:"company" bson:"company"`
	Position      string             `json:"position" bson:"position"`
	Email         string             `json:"email,omitempty" bson:"email,omitempty"`
	Phone         string             `json:"phone,omitempty" bson:"phone,omitempty"`
	LinkedIn      string             `json:"linkedin,omitempty" bson:"linkedin,omitempty"`
	Ratings       []Rating           `json:"ratings" bson:"ratings"`
	Rating        float64            `json:"rating" bson:"rating"`
	CustomAnswers []string           `json:"customAnswers" bson:"customAnswers"`
	CreatedAt     time.Time          `json:"createdAt" bson:"createdAt"`
}

// Rating is one user's review of an interviewer, embedded in the interviewer document.
type Rating struct {
	ID         primitive.ObjectID   `json:"id" bson:"_id"`
	Rating     int                  `json:"rating" bson:"rating"`
	ReviewText string               `json:"reviewText" bson:"reviewText"`
	User       primitive.ObjectID   `json:"user" bson:"user"`
	Likes      []primitive.ObjectID `json:"likes" bson:"likes"`
	Dislikes   []primitive.ObjectID `json:"dislikes" bson:"dislikes"`
	CreatedAt  time.Time            `json:"createdAt" bson:"createdAt"`
	UpdatedAt  time.Time            `json:"updatedAt" bson:"updatedAt"`
}

// Scores returns the raw values of every embedded rating.
func (i *Interviewer) Scores() []float64 {
	out := make([]float64, 0, len(i.Ratings))
	for _, r := range i.Ratings {
		out = append(out, float64(r.Rating))
	}
	return out
}

type InterviewerRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Company  string `json:"company" validate:"required,objectid"`
	Position string `json:"position" validate:"required,max=100"`
	Email    string `json:"email,omitempty" validate:"omitempty,email"`
	Phone    string `json:"phone,omitempty" validate:"omitempty,max=30"`
	LinkedIn string `json:"linkedin,omitempty" validate:"omitempty,url"`
}

type RatingRequest struct {
	Rating     int    `json:"rating" validate:"required,min=1,max=5"`
	ReviewText string `json:"reviewText" validate:"max=5000"`
}

// ReviewRequest is RatingRequest addressed through /api/reviews.
type ReviewRequest struct {
	Interviewer string `json:"interviewerId" validate:"required,objectid"`
	Rating      int    `json:"rating" validate:"required,min=1,max=5"`
	ReviewText  string `json:"reviewText" validate:"max=5000"`
}

type AnswerRequest struct {
	Answer string `json:"answer" validate:"required,max=1000"`
}

// InterviewerSummary is the listing shape; ratings are replaced by counts.
type InterviewerSummary struct {
	ID             primitive.ObjectID `json:"id"`
	Name           string             `json:"name"`
	Company        primitive.ObjectID `json:"company"`
	Position       string             `json:"position"`
	Rating         float64            `json:"rating"`
	WeightedRating float64            `json:"weightedRating"`
	RatingCount    int                `json:"ratingCount"`
}

// InterviewerReview is a Rating flattened with its interviewer, as served by /api/reviews.
type InterviewerReview struct {
	Rating
	Interviewer     primitive.ObjectID `json:"interviewer"`
	InterviewerName string             `json:"interviewerName"`
}
