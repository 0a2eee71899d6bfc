package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type User struct {
	ID                primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	Name              string               `json:"name" bson:"name"`
	Email             string               `json:"email" bson:"email"`
	Password          string               `json:"-" bson:"password"`
	IsVerified        bool                 `json:"isVerified" bson:"isVerified"`
	VerificationToken string               `json:"-" bson:"verificationToken,omitempty"`
	SavedInterviewers []primitive.ObjectID `json:"savedInterviewers" bson:"savedInterviewers"`
	SavedManagers     []primitive.ObjectID `json:"savedManagers" bson:"savedManagers"`
	CreatedAt         time.Time            `json:"createdAt" bson:"createdAt"`
}

// PublicUser is what other users and the login response see.
type PublicUser struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	IsVerified bool      `json:"isVerified"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (u *User) Public() PublicUser {
	return PublicUser{
		ID:         u.ID.Hex(),
		Name:       u.Name,
		Email:      u.Email,
		IsVerified: u.IsVerified,
		CreatedAt:  u.CreatedAt,
	}
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type AuthResponse struct {
	Token string     `json:"token"`
	User  PublicUser `json:"user"`
}
