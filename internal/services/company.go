package services

import (
	"context"
	"errors"

	"github.com/developia-II/ratemy-backend/internal/database"
	"github.com/developia-II/ratemy-backend/internal/models"
	"github.com/developia-II/ratemy-backend/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PeriodLayout formats the month a company review belongs to.
const PeriodLayout = "2006-01"

const (
	msgCompanyExists   = "A company with this name already exists"
	msgCompanyReviewed = "You have already reviewed this company for this period"
)

type CompanyService struct {
	db  *database.DB
	now Clock
}

func NewCompanyService(db *database.DB, now Clock) *CompanyService {
	return &CompanyService{db: db, now: now}
}

func (s *CompanyService) coll() *mongo.Collection {
	return s.db.Collection(database.Companies)
}

func (s *CompanyService) reviews() *mongo.Collection {
	return s.db.Collection(database.CompanyReviews)
}

func (s *CompanyService) List(ctx context.Context, q string, p Page) (*Paged[models.Company], error) {
	filter := searchFilter(q, "name")
	total, err := s.coll().CountDocuments(ctx, filter)
	if err != nil {
		return nil, storeErr("count companies", err)
	}
	list, err := findAll[models.Company](ctx, s.coll(), filter, p.findOptions().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	return newPaged(list, p, total), nil
}

func (s *CompanyService) Get(ctx context.Context, id primitive.ObjectID) (*models.Company, error) {
	var c models.Company
	if err := findOne(ctx, s.coll(), bson.M{"_id": id}, &c, msgCompanyNotFound); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *CompanyService) Create(ctx context.Context, req models.CompanyRequest) (*models.Company, error) {
	c := models.Company{
		ID:           primitive.NewObjectID(),
		Name:         req.Name,
		Description:  req.Description,
		Interviewers: []primitive.ObjectID{},
		Branches:     []primitive.ObjectID{},
		CreatedAt:    s.now(),
	}
	_, err := s.coll().InsertOne(ctx, c)
	if database.IsDuplicateKey(err) {
		return nil, utils.Conflict(msgCompanyExists)
	}
	if err != nil {
		return nil, storeErr("insert company", err)
	}
	return &c, nil
}

func (s *CompanyService) Update(ctx context.Context, id primitive.ObjectID, req models.CompanyRequest) (*models.Company, error) {
	var c models.Company
	err := s.coll().FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"name": req.Name, "description": req.Description}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&c)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return nil, utils.NotFound(msgCompanyNotFound)
	case database.IsDuplicateKey(err):
		return nil, utils.Conflict(msgCompanyExists)
	case err != nil:
		return nil, storeErr("update company", err)
	}
	return &c, nil
}

// Delete removes the company and its company reviews. Interviewers and branches keep
// their dangling reference, matching how the listings already tolerate unknown companies.
func (s *CompanyService) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.coll().DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return storeErr("delete company", err)
	}
	if res.DeletedCount == 0 {
		return utils.NotFound(msgCompanyNotFound)
	}
	if _, err := s.reviews().DeleteMany(ctx, bson.M{"company": id}); err != nil {
		return storeErr("delete company reviews", err)
	}
	return nil
}

// SubmitReview stores uid's review of a company for one period, defaulting to the current month.
func (s *CompanyService) SubmitReview(ctx context.Context, uid primitive.ObjectID, req models.CompanyReviewRequest) (*models.CompanyReview, error) {
	companyID, err := primitive.ObjectIDFromHex(req.Company)
	if err != nil {
		return nil, utils.BadRequest("Invalid company id")
	}
	ok, err := exists(ctx, s.coll(), bson.M{"_id": companyID})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, utils.NotFound(msgCompanyNotFound)
	}

	now := s.now()
	period := req.Period
	if period == "" {
		period = now.UTC().Format(PeriodLayout)
	}

	r := models.CompanyReview{
		ID:              primitive.NewObjectID(),
		Company:         companyID,
		Reviewer:        uid,
		WorkLifeBalance: req.WorkLifeBalance,
		Compensation:    req.Compensation,
		Culture:         req.Culture,
		CareerGrowth:    req.CareerGrowth,
		Management:      req.Management,
		Title:           req.Title,
		Pros:            req.Pros,
		Cons:            req.Cons,
		Advice:          req.Advice,
		JobTitle:        req.JobTitle,
		Location:        req.Location,
		Anonymous:       req.Anonymous,
		Period:          period,
		CreatedAt:       now,
	}
	_, err = s.reviews().InsertOne(ctx, r)
	if database.IsDuplicateKey(err) {
		return nil, utils.Conflict(msgCompanyReviewed)
	}
	if err != nil {
		return nil, storeErr("insert company review", err)
	}
	return &r, nil
}

// Reviews lists a company's reviews, newest first, hiding anonymous reviewers from viewer.
func (s *CompanyService) Reviews(ctx context.Context, id, viewer primitive.ObjectID) ([]models.CompanyReview, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	list, err := findAll[models.CompanyReview](ctx, s.reviews(), bson.M{"company": id},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	for i := range list {
		list[i] = list[i].Redacted(viewer)
	}
	return list, nil
}

func (s *CompanyService) ReviewsBy(ctx context.Context, uid primitive.ObjectID) ([]models.CompanyReview, error) {
	return findAll[models.CompanyReview](ctx, s.reviews(), bson.M{"reviewer": uid},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
}

func (s *CompanyService) DeleteReview(ctx context.Context, id, uid primitive.ObjectID) error {
	var r models.CompanyReview
	if err := findOne(ctx, s.reviews(), bson.M{"_id": id}, &r, msgReviewNotFound); err != nil {
		return err
	}
	if r.Reviewer != uid {
		return utils.Forbidden(msgNotAuthor)
	}
	if _, err := s.reviews().DeleteOne(ctx, bson.M{"_id": id, "reviewer": uid}); err != nil {
		return storeErr("delete company review", err)
	}
	return nil
}

// Ratings averages every dimension over the company's reviews.
func (s *CompanyService) Ratings(ctx context.Context, id primitive.ObjectID) (*models.CompanyRatings, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	list, err := findAll[models.CompanyReview](ctx, s.reviews(), bson.M{"company": id})
	if err != nil {
		return nil, err
	}
	summary := models.SummarizeCompanyReviews(list)
	return &summary, nil
}
