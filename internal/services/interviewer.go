package services

import (
	"context"
	"errors"
	"sort"

	"github.com/developia-II/ratemy-backend/internal/database"
	"github.com/developia-II/ratemy-backend/internal/models"
	"github.com/developia-II/ratemy-backend/internal/rating"
	"github.com/developia-II/ratemy-backend/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	msgInterviewerNotFound = "Interviewer not found"
	msgReviewNotFound      = "Review not found"
	msgCompanyNotFound     = "Company not found"
)

type InterviewerService struct {
	db  *database.DB
	now Clock
}

func NewInterviewerService(db *database.DB, now Clock) *InterviewerService {
	return &InterviewerService{db: db, now: now}
}

func (s *InterviewerService) coll() *mongo.Collection {
	return s.db.Collection(database.Interviewers)
}

func summarizeInterviewer(i *models.Interviewer) models.InterviewerSummary {
	scores := i.Scores()
	return models.InterviewerSummary{
		ID:             i.ID,
		Name:           i.Name,
		Company:        i.Company,
		Position:       i.Position,
		Rating:         rating.Round2(i.Rating),
		WeightedRating: rating.Round2(rating.Shrunk(scores)),
		RatingCount:    len(scores),
	}
}

func summarizeInterviewers(list []models.Interviewer) []models.InterviewerSummary {
	out := make([]models.InterviewerSummary, 0, len(list))
	for i := range list {
		out = append(out, summarizeInterviewer(&list[i]))
	}
	return out
}

// List searches interviewers by name or position, optionally within one company.
func (s *InterviewerService) List(ctx context.Context, q string, company primitive.ObjectID, p Page) (*Paged[models.InterviewerSummary], error) {
	filter := searchFilter(q, "name", "position")
	if !company.IsZero() {
		filter["company"] = company
	}

	total, err := s.coll().CountDocuments(ctx, filter)
	if err != nil {
		return nil, storeErr("count interviewers", err)
	}
	list, err := findAll[models.Interviewer](ctx, s.coll(), filter, p.findOptions().SetSort(bson.D{{Key: "rating", Value: -1}, {Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	return newPaged(summarizeInterviewers(list), p, total), nil
}

func (s *InterviewerService) Get(ctx context.Context, id primitive.ObjectID) (*models.Interviewer, error) {
	var i models.Interviewer
	if err := findOne(ctx, s.coll(), bson.M{"_id": id}, &i, msgInterviewerNotFound); err != nil {
		return nil, err
	}
	return &i, nil
}

// ByCompany lists every interviewer of a company.
func (s *InterviewerService) ByCompany(ctx context.Context, company primitive.ObjectID) ([]models.InterviewerSummary, error) {
	list, err := findAll[models.Interviewer](ctx, s.coll(), bson.M{"company": company}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	return summarizeInterviewers(list), nil
}

func (s *InterviewerService) ByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.InterviewerSummary, error) {
	if len(ids) == 0 {
		return []models.InterviewerSummary{}, nil
	}
	list, err := findAll[models.Interviewer](ctx, s.coll(), bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	return summarizeInterviewers(list), nil
}

func (s *InterviewerService) companyExists(ctx context.Context, id primitive.ObjectID) error {
	ok, err := exists(ctx, s.db.Collection(database.Companies), bson.M{"_id": id})
	if err != nil {
		return err
	}
	if !ok {
		return utils.NotFound(msgCompanyNotFound)
	}
	return nil
}

// Create inserts the interviewer and appends it to its company.
func (s *InterviewerService) Create(ctx context.Context, req models.InterviewerRequest) (*models.Interviewer, error) {
	companyID, err := primitive.ObjectIDFromHex(req.Company)
	if err != nil {
		return nil, utils.BadRequest("Invalid company id")
	}
	if err := s.companyExists(ctx, companyID); err != nil {
		return nil, err
	}

	i := models.Interviewer{
		ID:            primitive.NewObjectID(),
		Name:          req.Name,
		Company:       companyID,
		Position:      req.Position,
		Email:         req.Email,
		Phone:         req.Phone,
		LinkedIn:      req.LinkedIn,
		Ratings:       []models.Rating{},
		CustomAnswers: []string{},
		CreatedAt:     s.now(),
	}
	if _, err := s.coll().InsertOne(ctx, i); err != nil {
		return nil, storeErr("insert interviewer", err)
	}

	_, err = s.db.Collection(database.Companies).UpdateOne(ctx,
		bson.M{"_id": companyID},
		bson.M{"$addToSet": bson.M{"interviewers": i.ID}},
	)
	if err != nil {
		return nil, storeErr("link interviewer to company", err)
	}
	return &i, nil
}

// Update overwrites the editable fields and moves the interviewer between companies if needed.
func (s *InterviewerService) Update(ctx context.Context, id primitive.ObjectID, req models.InterviewerRequest) (*models.Interviewer, error) {
	companyID, err := primitive.ObjectIDFromHex(req.Company)
	if err != nil {
		return nil, utils.BadRequest("Invalid company id")
	}
	if err := s.companyExists(ctx, companyID); err != nil {
		return nil, err
	}

	var before models.Interviewer
	err = s.coll().FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"name":     req.Name,
			"company":  companyID,
			"position": req.Position,
			"email":    req.Email,
			"phone":    req.Phone,
			"linkedin": req.LinkedIn,
		}},
	).Decode(&before)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.NotFound(msgInterviewerNotFound)
	}
	if err != nil {
		return nil, storeErr("update interviewer", err)
	}

	if before.Company != companyID {
		companies := s.db.Collection(database.Companies)
		if _, err := companies.UpdateOne(ctx, bson.M{"_id": before.Company}, bson.M{"$pull": bson.M{"interviewers": id}}); err != nil {
			return nil, storeErr("unlink interviewer", err)
		}
		if _, err := companies.UpdateOne(ctx, bson.M{"_id": companyID}, bson.M{"$addToSet": bson.M{"interviewers": id}}); err != nil {
			return nil, storeErr("link interviewer", err)
		}
	}
	return s.Get(ctx, id)
}

// Delete removes the interviewer and every reference to it.
func (s *InterviewerService) Delete(ctx context.Context, id primitive.ObjectID) error {
	var gone models.Interviewer
	err := s.coll().FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&gone)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return utils.NotFound(msgInterviewerNotFound)
	}
	if err != nil {
		return storeErr("delete interviewer", err)
	}

	if _, err := s.db.Collection(database.Companies).UpdateOne(ctx,
		bson.M{"_id": gone.Company},
		bson.M{"$pull": bson.M{"interviewers": id}},
	); err != nil {
		return storeErr("unlink interviewer", err)
	}
	if _, err := s.db.Collection(database.Users).UpdateMany(ctx,
		bson.M{"savedInterviewers": id},
		bson.M{"$pull": bson.M{"savedInterviewers": id}},
	); err != nil {
		return storeErr("unsave interviewer", err)
	}

	ratingIDs := make([]primitive.ObjectID, 0, len(gone.Ratings))
	for _, r := range gone.Ratings {
		ratingIDs = append(ratingIDs, r.ID)
	}
	if len(ratingIDs) > 0 {
		if _, err := s.db.Collection(database.Replies).DeleteMany(ctx, bson.M{"review": bson.M{"$in": ratingIDs}}); err != nil {
			return storeErr("delete replies", err)
		}
	}
	return nil
}

// Rate records uid's rating of the interviewer. A second rating by the same user edits the
// first in place. The cached aggregate is recomputed either way.
func (s *InterviewerService) Rate(ctx context.Context, id, uid primitive.ObjectID, req models.RatingRequest) (*models.Interviewer, *models.Rating, bool, error) {
	now := s.now()

	created := false
	for attempt := 0; attempt < 2 && !created; attempt++ {
		res, err := s.coll().UpdateOne(ctx,
			bson.M{"_id": id, "ratings.user": uid},
			bson.M{"$set": bson.M{
				"ratings.$.rating":     req.Rating,
				"ratings.$.reviewText": req.ReviewText,
				"ratings.$.updatedAt":  now,
			}},
		)
		if err != nil {
			return nil, nil, false, storeErr("update rating", err)
		}
		if res.MatchedCount > 0 {
			break
		}

		r := models.Rating{
			ID:         primitive.NewObjectID(),
			Rating:     req.Rating,
			ReviewText: req.ReviewText,
			User:       uid,
			Likes:      []primitive.ObjectID{},
			Dislikes:   []primitive.ObjectID{},
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		res, err = s.coll().UpdateOne(ctx,
			bson.M{"_id": id, "ratings.user": bson.M{"$ne": uid}},
			bson.M{"$push": bson.M{"ratings": r}},
		)
		if err != nil {
			return nil, nil, false, storeErr("push rating", err)
		}
		if res.MatchedCount > 0 {
			created = true
			break
		}

		// Either the interviewer is gone or a concurrent request inserted uid's rating first.
		ok, err := exists(ctx, s.coll(), bson.M{"_id": id})
		if err != nil {
			return nil, nil, false, err
		}
		if !ok {
			return nil, nil, false, utils.NotFound(msgInterviewerNotFound)
		}
	}

	i, err := s.recompute(ctx, id)
	if err != nil {
		return nil, nil, false, err
	}
	for k := range i.Ratings {
		if i.Ratings[k].User == uid {
			return i, &i.Ratings[k], created, nil
		}
	}
	return nil, nil, false, utils.NotFound(msgReviewNotFound)
}

// recompute refreshes the cached Logistic score from the embedded ratings.
func (s *InterviewerService) recompute(ctx context.Context, id primitive.ObjectID) (*models.Interviewer, error) {
	i, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	i.Rating = rating.Logistic(i.Scores())
	if _, err := s.coll().UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"rating": i.Rating}}); err != nil {
		return nil, storeErr("store interviewer rating", err)
	}
	return i, nil
}

// React toggles uid's like or dislike on one embedded rating.
func (s *InterviewerService) React(ctx context.Context, id, ratingID, uid primitive.ObjectID, kind Reaction) (*models.Reactions, error) {
	target := reactionTarget{
		filter: bson.M{"_id": id},
		array:  "ratings",
		elem:   bson.M{"_id": ratingID},
	}
	found, err := target.toggle(ctx, s.coll(), kind, uid)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, utils.NotFound(msgReviewNotFound)
	}

	i, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, r := range i.Ratings {
		if r.ID == ratingID {
			return &models.Reactions{Likes: len(r.Likes), Dislikes: len(r.Dislikes)}, nil
		}
	}
	return nil, utils.NotFound(msgReviewNotFound)
}

func (s *InterviewerService) AddAnswer(ctx context.Context, id primitive.ObjectID, answer string) (*models.Interviewer, error) {
	res, err := s.coll().UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$push": bson.M{"customAnswers": answer}})
	if err != nil {
		return nil, storeErr("add answer", err)
	}
	if res.MatchedCount == 0 {
		return nil, utils.NotFound(msgInterviewerNotFound)
	}
	return s.Get(ctx, id)
}

// Reviews returns the ratings of one interviewer, newest first.
func (s *InterviewerService) Reviews(ctx context.Context, id primitive.ObjectID) ([]models.InterviewerReview, error) {
	i, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	out := make([]models.InterviewerReview, 0, len(i.Ratings))
	for _, r := range i.Ratings {
		out = append(out, models.InterviewerReview{Rating: r, Interviewer: i.ID, InterviewerName: i.Name})
	}
	sortNewestFirst(out)
	return out, nil
}

// ReviewsBy returns every interviewer rating written by uid.
func (s *InterviewerService) ReviewsBy(ctx context.Context, uid primitive.ObjectID) ([]models.InterviewerReview, error) {
	list, err := findAll[models.Interviewer](ctx, s.coll(), bson.M{"ratings.user": uid})
	if err != nil {
		return nil, err
	}
	out := []models.InterviewerReview{}
	for _, i := range list {
		for _, r := range i.Ratings {
			if r.User == uid {
				out = append(out, models.InterviewerReview{Rating: r, Interviewer: i.ID, InterviewerName: i.Name})
			}
		}
	}
	sortNewestFirst(out)
	return out, nil
}

// ReviewTexts collects the non-empty review texts of an interviewer.
func (s *InterviewerService) ReviewTexts(ctx context.Context, id primitive.ObjectID) (string, []string, error) {
	i, err := s.Get(ctx, id)
	if err != nil {
		return "", nil, err
	}
	texts := []string{}
	for _, r := range i.Ratings {
		if r.ReviewText != "" {
			texts = append(texts, r.ReviewText)
		}
	}
	return i.Name, texts, nil
}

func (s *InterviewerService) ratingExists(ctx context.Context, ratingID primitive.ObjectID) (bool, error) {
	return exists(ctx, s.coll(), bson.M{"ratings._id": ratingID})
}

func sortNewestFirst(list []models.InterviewerReview) {
	sort.SliceStable(list, func(a, b int) bool {
		return list[a].CreatedAt.After(list[b].CreatedAt)
	})
}
