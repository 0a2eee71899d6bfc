package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/developia-II/ratemy-backend/internal/database"
	"github.com/developia-II/ratemy-backend/internal/logging"
	"github.com/developia-II/ratemy-backend/internal/models"
	"github.com/developia-II/ratemy-backend/utils"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	msgUserExists         = "User already exists"
	msgInvalidCredentials = "Invalid credentials"
	msgUserNotFound       = "User not found"
	msgBadVerification    = "Invalid or expired verification token"
)

// Mailer delivers the verification link after registration.
type Mailer interface {
	SendVerification(ctx context.Context, to, name, link string) error
}

type AuthService struct {
	db       *database.DB
	mail     Mailer
	secret   []byte
	ttl      time.Duration
	verifyAt string
	now      Clock
}

// NewAuthService signs tokens with secret. appURL is the public base the verification link points at.
func NewAuthService(db *database.DB, mail Mailer, secret string, ttl time.Duration, appURL string, now Clock) *AuthService {
	return &AuthService{
		db:       db,
		mail:     mail,
		secret:   []byte(secret),
		ttl:      ttl,
		verifyAt: appURL + "/api/auth/verify/",
		now:      now,
	}
}

func (s *AuthService) users() *mongo.Collection {
	return s.db.Collection(database.Users)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) issue(u *models.User) (*models.AuthResponse, error) {
	token, err := utils.GenerateJWT(u.ID.Hex(), s.secret, s.ttl)
	if err != nil {
		return nil, storeErr("sign token", err)
	}
	return &models.AuthResponse{Token: token, User: u.Public()}, nil
}

// Register creates an unverified account and mails its verification link.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, storeErr("hash password", err)
	}

	u := models.User{
		ID:                primitive.NewObjectID(),
		Name:              strings.TrimSpace(req.Name),
		Email:             normalizeEmail(req.Email),
		Password:          string(hashed),
		VerificationToken: uuid.NewString(),
		SavedInterviewers: []primitive.ObjectID{},
		SavedManagers:     []primitive.ObjectID{},
		CreatedAt:         s.now(),
	}
	_, err = s.users().InsertOne(ctx, u)
	if database.IsDuplicateKey(err) {
		return nil, utils.Conflict(msgUserExists)
	}
	if err != nil {
		return nil, storeErr("insert user", err)
	}

	if err := s.mail.SendVerification(ctx, u.Email, u.Name, s.verifyAt+u.VerificationToken); err != nil {
		logging.L().Warn("verification mail failed", zap.String("user_id", u.ID.Hex()), zap.Error(err))
	}
	return s.issue(&u)
}

func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	var u models.User
	err := s.users().FindOne(ctx, bson.M{"email": normalizeEmail(req.Email)}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.Unauthenticated(msgInvalidCredentials)
	}
	if err != nil {
		return nil, storeErr("find user", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(req.Password)); err != nil {
		return nil, utils.Unauthenticated(msgInvalidCredentials)
	}
	return s.issue(&u)
}

// Verify marks the account holding token as verified. Tokens are single use.
func (s *AuthService) Verify(ctx context.Context, token string) (*models.PublicUser, error) {
	if token == "" {
		return nil, utils.NotFound(msgBadVerification)
	}
	var u models.User
	err := s.users().FindOneAndUpdate(ctx,
		bson.M{"verificationToken": token},
		bson.M{
			"$set":   bson.M{"isVerified": true},
			"$unset": bson.M{"verificationToken": ""},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.NotFound(msgBadVerification)
	}
	if err != nil {
		return nil, storeErr("verify user", err)
	}
	pub := u.Public()
	return &pub, nil
}
