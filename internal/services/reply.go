package services

import (
	"context"

	"github.com/developia-II/ratemy-backend/internal/database"
	"github.com/developia-II/ratemy-backend/internal/models"
	"github.com/developia-II/ratemy-backend/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ReplyService struct {
	db           *database.DB
	interviewers *InterviewerService
	users        *UserService
	now          Clock
}

func NewReplyService(db *database.DB, interviewers *InterviewerService, users *UserService, now Clock) *ReplyService {
	return &ReplyService{db: db, interviewers: interviewers, users: users, now: now}
}

func (s *ReplyService) targetExists(ctx context.Context, reviewType string, id primitive.ObjectID) (bool, error) {
	if reviewType == models.ReviewTypeManager {
		return exists(ctx, s.db.Collection(database.ManagerReviews), bson.M{"_id": id})
	}
	return s.interviewers.ratingExists(ctx, id)
}

// Create attaches a reply by uid to an interviewer rating or a manager review.
func (s *ReplyService) Create(ctx context.Context, uid primitive.ObjectID, req models.ReplyRequest) (*models.Reply, error) {
	reviewID, err := primitive.ObjectIDFromHex(req.Review)
	if err != nil {
		return nil, utils.BadRequest("Invalid review id")
	}
	ok, err := s.targetExists(ctx, req.ReviewType, reviewID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, utils.NotFound(msgReviewNotFound)
	}
	u, err := s.users.Get(ctx, uid)
	if err != nil {
		return nil, err
	}

	r := models.Reply{
		ID:         primitive.NewObjectID(),
		Review:     reviewID,
		ReviewType: req.ReviewType,
		User:       uid,
		UserName:   u.Name,
		Text:       req.Text,
		CreatedAt:  s.now(),
	}
	if _, err := s.db.Collection(database.Replies).InsertOne(ctx, r); err != nil {
		return nil, storeErr("insert reply", err)
	}
	return &r, nil
}

// List returns the replies to one review in the order they were written.
func (s *ReplyService) List(ctx context.Context, reviewID primitive.ObjectID) ([]models.Reply, error) {
	return findAll[models.Reply](ctx, s.db.Collection(database.Replies), bson.M{"review": reviewID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
}
