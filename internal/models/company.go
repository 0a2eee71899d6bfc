package models

import (
	"encoding/json"
	"time"

	"github.com/developia-II/ratemy-backend/internal/rating"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Company struct {
	ID           primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	Name         string               `json:"name" bson:"name"`
	Description  string               `json:"description" bson:"description"`
	Interviewers []primitive.ObjectID `json:"interviewers" bson:"interviewers"`
	Branches     []primitive.ObjectID `json:"branches" bson:"branches"`
	CreatedAt    time.Time            `json:"createdAt" bson:"createdAt"`
}

type CompanyRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description" validate:"max=5000"`
}

// CompanyReview is unique per (reviewer, company, period).
type CompanyReview struct {
	ID              primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Company         primitive.ObjectID `json:"company" bson:"company"`
	Reviewer        primitive.ObjectID `json:"reviewer" bson:"reviewer"`
	WorkLifeBalance int                `json:"workLifeBalance" bson:"workLifeBalance"`
	Compensation    int                `json:"compensation" bson:"compensation"`
	Culture         int                `json:"culture" bson:"culture"`
	CareerGrowth    int                `json:"careerGrowth" bson:"careerGrowth"`
	Management      int                `json:"management" bson:"management"`
	Title           string             `json:"title" bson:"title"`
	Pros            string             `json:"pros" bson:"pros"`
	Cons            string             `json:"cons" bson:"cons"`
	Advice          string             `json:"advice" bson:"advice"`
	JobTitle        string             `json:"jobTitle" bson:"jobTitle"`
	Location        string             `json:"location" bson:"location"`
	Anonymous       bool               `json:"anonymous" bson:"anonymous"`
	Period          string             `json:"period" bson:"period"`
	CreatedAt       time.Time          `json:"createdAt" bson:"createdAt"`
}

func (r CompanyReview) Redacted(viewer primitive.ObjectID) CompanyReview {
	if r.Anonymous && r.Reviewer != viewer {
		r.Reviewer = primitive.NilObjectID
	}
	return r
}

func (r CompanyReview) MarshalJSON() ([]byte, error) {
	type review CompanyReview
	return json.Marshal(struct {
		review
		Reviewer *primitive.ObjectID `json:"reviewer,omitempty"`
	}{review(r), optionalID(r.Reviewer)})
}

type CompanyReviewRequest struct {
	Company         string `json:"companyId" validate:"required,objectid"`
	WorkLifeBalance int    `json:"workLifeBalance" validate:"required,min=1,max=5"`
	Compensation    int    `json:"compensation" validate:"required,min=1,max=5"`
	Culture         int    `json:"culture" validate:"required,min=1,max=5"`
	CareerGrowth    int    `json:"careerGrowth" validate:"required,min=1,max=5"`
	Management      int    `json:"management" validate:"required,min=1,max=5"`
	Title           string `json:"title" validate:"required,max=200"`
	Pros            string `json:"pros" validate:"max=5000"`
	Cons            string `json:"cons" validate:"max=5000"`
	Advice          string `json:"advice" validate:"max=5000"`
	JobTitle        string `json:"jobTitle" validate:"max=200"`
	Location        string `json:"location" validate:"max=200"`
	Anonymous       bool   `json:"anonymous"`
	Period          string `json:"period,omitempty" validate:"omitempty,period"`
}

// CompanyRatings is the per-dimension mean over every review of a company.
type CompanyRatings struct {
	Count           int     `json:"count"`
	WorkLifeBalance float64 `json:"workLifeBalance"`
	Compensation    float64 `json:"compensation"`
	Culture         float64 `json:"culture"`
	CareerGrowth    float64 `json:"careerGrowth"`
	Management      float64 `json:"management"`
	Overall         float64 `json:"overall"`
	WeightedOverall float64 `json:"weightedOverall"`
}

// Overall is the mean of the five dimension scores.
func (r CompanyReview) Overall() float64 {
	return rating.Mean([]float64{
		float64(r.WorkLifeBalance),
		float64(r.Compensation),
		float64(r.Culture),
		float64(r.CareerGrowth),
		float64(r.Management),
	})
}

// SummarizeCompanyReviews averages every dimension across reviews.
func SummarizeCompanyReviews(reviews []CompanyReview) CompanyRatings {
	n := len(reviews)
	wlb := make([]float64, 0, n)
	comp := make([]float64, 0, n)
	cult := make([]float64, 0, n)
	growth := make([]float64, 0, n)
	mgmt := make([]float64, 0, n)
	overall := make([]float64, 0, n)
	for _, r := range reviews {
		wlb = append(wlb, float64(r.WorkLifeBalance))
		comp = append(comp, float64(r.Compensation))
		cult = append(cult, float64(r.Culture))
		growth = append(growth, float64(r.CareerGrowth))
		mgmt = append(mgmt, float64(r.Management))
		overall = append(overall, r.Overall())
	}
	return CompanyRatings{
		Count:           n,
		WorkLifeBalance: rating.Round2(rating.Mean(wlb)),
		Compensation:    rating.Round2(rating.Mean(comp)),
		Culture:         rating.Round2(rating.Mean(cult)),
		CareerGrowth:    rating.Round2(rating.Mean(growth)),
		Management:      rating.Round2(rating.Mean(mgmt)),
		Overall:         rating.Round2(rating.Mean(overall)),
		WeightedOverall: rating.Round2(rating.Shrunk(overall)),
	}
}
