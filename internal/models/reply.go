package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	ReviewTypeInterviewer = "interviewer"
	ReviewTypeManager     = "manager"
)

type Reply struct {
	ID         primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Review     primitive.ObjectID `json:"review" bson:"review"`
	ReviewType string             `json:"reviewType" bson:"reviewType"`
	User       primitive.ObjectID `json:"user" bson:"user"`
	UserName   string             `json:"userName" bson:"userName"`
	Text       string             `json:"text" bson:"text"`
	CreatedAt  time.Time          `json:"createdAt" bson:"createdAt"`
}

type ReplyRequest struct {
	Review     string `json:"reviewId" validate:"required,objectid"`
	ReviewType string `json:"reviewType" validate:"required,oneof=interviewer manager"`
	Text       string `json:"text" validate:"required,max=2000"`
}
