package services

import (
	"context"

	"github.com/developia-II/ratemy-backend/internal/database"
	"github.com/developia-II/ratemy-backend/internal/models"
	"github.com/developia-II/ratemy-backend/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// SavedKind selects which favourites list of a user is addressed.
type SavedKind string

const (
	SavedInterviewers SavedKind = "savedInterviewers"
	SavedManagers     SavedKind = "savedManagers"
)

type UserService struct {
	db           *database.DB
	interviewers *InterviewerService
	managers     *ManagerService
	companies    *CompanyService
}

func NewUserService(db *database.DB, interviewers *InterviewerService, managers *ManagerService, companies *CompanyService) *UserService {
	return &UserService{db: db, interviewers: interviewers, managers: managers, companies: companies}
}

func (s *UserService) coll() *mongo.Collection {
	return s.db.Collection(database.Users)
}

func (s *UserService) Get(ctx context.Context, uid primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := findOne(ctx, s.coll(), bson.M{"_id": uid}, &u, msgUserNotFound); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *UserService) Profile(ctx context.Context, uid primitive.ObjectID) (*models.PublicUser, error) {
	u, err := s.Get(ctx, uid)
	if err != nil {
		return nil, err
	}
	pub := u.Public()
	return &pub, nil
}

type MyReviews struct {
	InterviewerReviews []models.InterviewerReview `json:"interviewerReviews"`
	ManagerReviews     []models.ManagerReview     `json:"managerReviews"`
	CompanyReviews     []models.CompanyReview     `json:"companyReviews"`
}

// MyReviews gathers everything uid has written across the three review kinds.
func (s *UserService) MyReviews(ctx context.Context, uid primitive.ObjectID) (*MyReviews, error) {
	ir, err := s.interviewers.ReviewsBy(ctx, uid)
	if err != nil {
		return nil, err
	}
	mr, err := s.managers.ReviewsBy(ctx, uid)
	if err != nil {
		return nil, err
	}
	cr, err := s.companies.ReviewsBy(ctx, uid)
	if err != nil {
		return nil, err
	}
	return &MyReviews{InterviewerReviews: ir, ManagerReviews: mr, CompanyReviews: cr}, nil
}

type Saved struct {
	Interviewers []models.InterviewerSummary `json:"interviewers"`
	Managers     []models.ManagerSummary     `json:"managers"`
}

// Saved resolves the user's favourites. Entries whose target was deleted are skipped.
func (s *UserService) Saved(ctx context.Context, uid primitive.ObjectID) (*Saved, error) {
	u, err := s.Get(ctx, uid)
	if err != nil {
		return nil, err
	}
	is, err := s.interviewers.ByIDs(ctx, u.SavedInterviewers)
	if err != nil {
		return nil, err
	}
	ms, err := s.managers.ByIDs(ctx, u.SavedManagers)
	if err != nil {
		return nil, err
	}
	return &Saved{Interviewers: is, Managers: ms}, nil
}

// ToggleSaved adds target to the list when absent and removes it when present.
// It reports whether the target is saved afterwards.
func (s *UserService) ToggleSaved(ctx context.Context, uid primitive.ObjectID, kind SavedKind, target primitive.ObjectID) (bool, error) {
	coll, msg := s.db.Collection(database.Interviewers), msgInterviewerNotFound
	if kind == SavedManagers {
		coll, msg = s.db.Collection(database.Managers), msgManagerNotFound
	}
	ok, err := exists(ctx, coll, bson.M{"_id": target})
	if err != nil {
		return false, err
	}
	if !ok {
		return false, utils.NotFound(msg)
	}

	field := string(kind)
	res, err := s.coll().UpdateOne(ctx,
		bson.M{"_id": uid, field: target},
		bson.M{"$pull": bson.M{field: target}},
	)
	if err != nil {
		return false, storeErr("unsave", err)
	}
	if res.MatchedCount > 0 {
		return false, nil
	}

	res, err = s.coll().UpdateOne(ctx,
		bson.M{"_id": uid},
		bson.M{"$addToSet": bson.M{field: target}},
	)
	if err != nil {
		return false, storeErr("save", err)
	}
	if res.MatchedCount == 0 {
		return false, utils.NotFound(msgUserNotFound)
	}
	return true, nil
}
