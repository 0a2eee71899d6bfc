package models

import (
	"encoding/json"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Manager struct {
	ID            primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	Name          string               `json:"name" bson:"name"`
	Department    primitive.ObjectID   `json:"department" bson:"department"`
	Company       *primitive.ObjectID  `json:"company,omitempty" bson:"company,omitempty"`
	Position      string               `json:"position" bson:"position"`
	Bio           string               `json:"bio" bson:"bio"`
	AverageRating float64              `json:"averageRating" bson:"averageRating"`
	Reviews       []primitive.ObjectID `json:"reviews" bson:"reviews"`
	Flags         []Flag               `json:"-" bson:"flags"`
	FlagCount     int                  `json:"flagCount" bson:"flagCount"`
	CreatedAt     time.Time            `json:"createdAt" bson:"createdAt"`
}

// Flag records one user reporting a manager or a review.
type Flag struct {
	User      primitive.ObjectID `json:"user" bson:"user"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
}

type ManagerReview struct {
	ID            primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	User          primitive.ObjectID   `json:"user" bson:"user"`
	Manager       primitive.ObjectID   `json:"manager" bson:"manager"`
	Rating        float64              `json:"rating" bson:"rating"`
	Leadership    int                  `json:"leadership" bson:"leadership"`
	Communication int                  `json:"communication" bson:"communication"`
	Teamwork      int                  `json:"teamwork" bson:"teamwork"`
	Empathy       int                  `json:"empathy" bson:"empathy"`
	Fairness      int                  `json:"fairness" bson:"fairness"`
	ReviewText    string               `json:"reviewText" bson:"reviewText"`
	Anonymous     bool                 `json:"anonymous" bson:"anonymous"`
	Likes         []primitive.ObjectID `json:"likes" bson:"likes"`
	Dislikes      []primitive.ObjectID `json:"dislikes" bson:"dislikes"`
	Flags         []Flag               `json:"-" bson:"flags"`
	FlagCount     int                  `json:"flagCount" bson:"flagCount"`
	LastFlagTime  *time.Time           `json:"lastFlagTime,omitempty" bson:"lastFlagTime,omitempty"`
	CreatedAt     time.Time            `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time            `json:"updatedAt" bson:"updatedAt"`
}

// Redacted hides the author of an anonymous review from everyone but the author.
func (r ManagerReview) Redacted(viewer primitive.ObjectID) ManagerReview {
	if r.Anonymous && r.User != viewer {
		r.User = primitive.NilObjectID
	}
	return r
}

// MarshalJSON leaves the author out when Redacted cleared it.
func (r ManagerReview) MarshalJSON() ([]byte, error) {
	type review ManagerReview
	return json.Marshal(struct {
		review
		User *primitive.ObjectID `json:"user,omitempty"`
	}{review(r), optionalID(r.User)})
}

type ManagerRequest struct {
	Name       string `json:"name" validate:"required,max=100"`
	Department string `json:"department" validate:"required,objectid"`
	Company    string `json:"company,omitempty" validate:"omitempty,objectid"`
	Position   string `json:"position" validate:"required,max=100"`
	Bio        string `json:"bio" validate:"max=2000"`
}

type ManagerReviewRequest struct {
	Manager       string  `json:"managerId" validate:"required,objectid"`
	Rating        float64 `json:"rating" validate:"required,min=1,max=5"`
	Leadership    int     `json:"leadership" validate:"omitempty,min=1,max=5"`
	Communication int     `json:"communication" validate:"omitempty,min=1,max=5"`
	Teamwork      int     `json:"teamwork" validate:"omitempty,min=1,max=5"`
	Empathy       int     `json:"empathy" validate:"omitempty,min=1,max=5"`
	Fairness      int     `json:"fairness" validate:"omitempty,min=1,max=5"`
	ReviewText    string  `json:"reviewText" validate:"max=5000"`
	Anonymous     bool    `json:"anonymous"`
}

// ManagerReviewUpdate edits an existing review; the manager cannot change.
type ManagerReviewUpdate struct {
	Rating        float64 `json:"rating" validate:"required,min=1,max=5"`
	Leadership    int     `json:"leadership" validate:"omitempty,min=1,max=5"`
	Communication int     `json:"communication" validate:"omitempty,min=1,max=5"`
	Teamwork      int     `json:"teamwork" validate:"omitempty,min=1,max=5"`
	Empathy       int     `json:"empathy" validate:"omitempty,min=1,max=5"`
	Fairness      int     `json:"fairness" validate:"omitempty,min=1,max=5"`
	ReviewText    string  `json:"reviewText" validate:"max=5000"`
	Anonymous     bool    `json:"anonymous"`
}

// Update converts the submission into its editable fields.
func (r ManagerReviewRequest) Update() ManagerReviewUpdate {
	return ManagerReviewUpdate{
		Rating:        r.Rating,
		Leadership:    r.Leadership,
		Communication: r.Communication,
		Teamwork:      r.Teamwork,
		Empathy:       r.Empathy,
		Fairness:      r.Fairness,
		ReviewText:    r.ReviewText,
		Anonymous:     r.Anonymous,
	}
}

type ManagerSummary struct {
	ID             primitive.ObjectID `json:"id"`
	Name           string             `json:"name"`
	Department     primitive.ObjectID `json:"department"`
	Position       string             `json:"position"`
	AverageRating  float64            `json:"averageRating"`
	WeightedRating float64            `json:"weightedRating"`
	ReviewCount    int                `json:"reviewCount"`
}

// Reactions is the answer to a like or dislike toggle.
type Reactions struct {
	Likes    int `json:"likes"`
	Dislikes int `json:"dislikes"`
}
