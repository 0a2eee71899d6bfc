package services

import (
	"context"
	"errors"
	"time"

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
	msgManagerNotFound    = "Manager not found"
	msgDepartmentNotFound = "Department not found"
	msgMustReview         = "You must review this manager before flagging"
	msgFlagWindow         = "You can only flag once every 24 hours"
	msgNotAuthor          = "You can only modify your own review"
)

type ManagerService struct {
	db  *database.DB
	now Clock
}

func NewManagerService(db *database.DB, now Clock) *ManagerService {
	return &ManagerService{db: db, now: now}
}

func (s *ManagerService) coll() *mongo.Collection {
	return s.db.Collection(database.Managers)
}

func (s *ManagerService) reviews() *mongo.Collection {
	return s.db.Collection(database.ManagerReviews)
}

func summarizeManagers(list []models.Manager) []models.ManagerSummary {
	out := make([]models.ManagerSummary, 0, len(list))
	for _, m := range list {
		out = append(out, models.ManagerSummary{
			ID:             m.ID,
			Name:           m.Name,
			Department:     m.Department,
			Position:       m.Position,
			AverageRating:  rating.Round2(m.AverageRating),
			WeightedRating: rating.Round2(rating.ShrunkFrom(m.AverageRating, len(m.Reviews))),
			ReviewCount:    len(m.Reviews),
		})
	}
	return out
}

type ManagerFilter struct {
	Query      string
	Department primitive.ObjectID
	Company    primitive.ObjectID
}

func (s *ManagerService) List(ctx context.Context, f ManagerFilter, p Page) (*Paged[models.ManagerSummary], error) {
	filter := searchFilter(f.Query, "name", "position")
	if !f.Department.IsZero() {
		filter["department"] = f.Department
	}
	if !f.Company.IsZero() {
		filter["company"] = f.Company
	}

	total, err := s.coll().CountDocuments(ctx, filter)
	if err != nil {
		return nil, storeErr("count managers", err)
	}
	list, err := findAll[models.Manager](ctx, s.coll(), filter, p.findOptions().SetSort(bson.D{{Key: "averageRating", Value: -1}, {Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	return newPaged(summarizeManagers(list), p, total), nil
}

func (s *ManagerService) Get(ctx context.Context, id primitive.ObjectID) (*models.Manager, error) {
	var m models.Manager
	if err := findOne(ctx, s.coll(), bson.M{"_id": id}, &m, msgManagerNotFound); err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *ManagerService) ByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.ManagerSummary, error) {
	if len(ids) == 0 {
		return []models.ManagerSummary{}, nil
	}
	list, err := findAll[models.Manager](ctx, s.coll(), bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	return summarizeManagers(list), nil
}

func (s *ManagerService) resolveRefs(ctx context.Context, req models.ManagerRequest) (dept, company primitive.ObjectID, err error) {
	dept, err = primitive.ObjectIDFromHex(req.Department)
	if err != nil {
		return dept, company, utils.BadRequest("Invalid department id")
	}
	ok, err := exists(ctx, s.db.Collection(database.Departments), bson.M{"_id": dept})
	if err != nil {
		return dept, company, err
	}
	if !ok {
		return dept, company, utils.NotFound(msgDepartmentNotFound)
	}

	if req.Company != "" {
		company, err = primitive.ObjectIDFromHex(req.Company)
		if err != nil {
			return dept, company, utils.BadRequest("Invalid company id")
		}
		ok, err := exists(ctx, s.db.Collection(database.Companies), bson.M{"_id": company})
		if err != nil {
			return dept, company, err
		}
		if !ok {
			return dept, company, utils.NotFound(msgCompanyNotFound)
		}
	}
	return dept, company, nil
}

func (s *ManagerService) Create(ctx context.Context, req models.ManagerRequest) (*models.Manager, error) {
	dept, company, err := s.resolveRefs(ctx, req)
	if err != nil {
		return nil, err
	}

	m := models.Manager{
		ID:         primitive.NewObjectID(),
		Name:       req.Name,
		Department: dept,
		Position:   req.Position,
		Bio:        req.Bio,
		Reviews:    []primitive.ObjectID{},
		Flags:      []models.Flag{},
		CreatedAt:  s.now(),
	}
	if !company.IsZero() {
		m.Company = &company
	}
	if _, err := s.coll().InsertOne(ctx, m); err != nil {
		return nil, storeErr("insert manager", err)
	}
	return &m, nil
}

func (s *ManagerService) Update(ctx context.Context, id primitive.ObjectID, req models.ManagerRequest) (*models.Manager, error) {
	dept, company, err := s.resolveRefs(ctx, req)
	if err != nil {
		return nil, err
	}

	set := bson.M{
		"name":       req.Name,
		"department": dept,
		"position":   req.Position,
		"bio":        req.Bio,
	}
	update := bson.M{"$set": set}
	if company.IsZero() {
		update["$unset"] = bson.M{"company": ""}
	} else {
		set["company"] = company
	}

	var m models.Manager
	err = s.coll().FindOneAndUpdate(ctx, bson.M{"_id": id}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.NotFound(msgManagerNotFound)
	}
	if err != nil {
		return nil, storeErr("update manager", err)
	}
	return &m, nil
}

// Delete removes the manager together with its reviews and their replies.
func (s *ManagerService) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.coll().DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return storeErr("delete manager", err)
	}
	if res.DeletedCount == 0 {
		return utils.NotFound(msgManagerNotFound)
	}

	reviews, err := findAll[models.ManagerReview](ctx, s.reviews(), bson.M{"manager": id},
		options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return err
	}
	if len(reviews) > 0 {
		ids := make([]primitive.ObjectID, 0, len(reviews))
		for _, r := range reviews {
			ids = append(ids, r.ID)
		}
		if _, err := s.db.Collection(database.Replies).DeleteMany(ctx, bson.M{"review": bson.M{"$in": ids}}); err != nil {
			return storeErr("delete replies", err)
		}
		if _, err := s.reviews().DeleteMany(ctx, bson.M{"manager": id}); err != nil {
			return storeErr("delete manager reviews", err)
		}
	}

	if _, err := s.db.Collection(database.Users).UpdateMany(ctx,
		bson.M{"savedManagers": id},
		bson.M{"$pull": bson.M{"savedManagers": id}},
	); err != nil {
		return storeErr("unsave manager", err)
	}
	return nil
}

// Reviews lists a manager's reviews, newest first, with anonymous authors hidden from viewer.
func (s *ManagerService) Reviews(ctx context.Context, id, viewer primitive.ObjectID) ([]models.ManagerReview, error) {
	ok, err := exists(ctx, s.coll(), bson.M{"_id": id})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, utils.NotFound(msgManagerNotFound)
	}

	list, err := findAll[models.ManagerReview](ctx, s.reviews(), bson.M{"manager": id},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	for i := range list {
		list[i] = list[i].Redacted(viewer)
	}
	return list, nil
}

func (s *ManagerService) ReviewsBy(ctx context.Context, uid primitive.ObjectID) ([]models.ManagerReview, error) {
	return findAll[models.ManagerReview](ctx, s.reviews(), bson.M{"user": uid},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
}

func (s *ManagerService) GetReview(ctx context.Context, id primitive.ObjectID) (*models.ManagerReview, error) {
	var r models.ManagerReview
	if err := findOne(ctx, s.reviews(), bson.M{"_id": id}, &r, msgReviewNotFound); err != nil {
		return nil, err
	}
	return &r, nil
}

func reviewFields(u models.ManagerReviewUpdate, now time.Time) bson.M {
	return bson.M{
		"rating":        u.Rating,
		"leadership":    u.Leadership,
		"communication": u.Communication,
		"teamwork":      u.Teamwork,
		"empathy":       u.Empathy,
		"fairness":      u.Fairness,
		"reviewText":    u.ReviewText,
		"anonymous":     u.Anonymous,
		"updatedAt":     now,
	}
}

// Submit creates uid's review of the manager, or overwrites it when one exists.
func (s *ManagerService) Submit(ctx context.Context, uid primitive.ObjectID, req models.ManagerReviewRequest) (*models.ManagerReview, *models.Manager, bool, error) {
	managerID, err := primitive.ObjectIDFromHex(req.Manager)
	if err != nil {
		return nil, nil, false, utils.BadRequest("Invalid manager id")
	}
	ok, err := exists(ctx, s.coll(), bson.M{"_id": managerID})
	if err != nil {
		return nil, nil, false, err
	}
	if !ok {
		return nil, nil, false, utils.NotFound(msgManagerNotFound)
	}

	now := s.now()
	filter := bson.M{"user": uid, "manager": managerID}
	update := bson.M{
		"$set": reviewFields(req.Update(), now),
		"$setOnInsert": bson.M{
			"likes":     []primitive.ObjectID{},
			"dislikes":  []primitive.ObjectID{},
			"flags":     []models.Flag{},
			"flagCount": 0,
			"createdAt": now,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.Before)

	created := false
	for attempt := 0; ; attempt++ {
		var before models.ManagerReview
		err = s.reviews().FindOneAndUpdate(ctx, filter, update, opts).Decode(&before)
		if errors.Is(err, mongo.ErrNoDocuments) {
			created = true
			break
		}
		// Two concurrent upserts can both miss; the loser hits the unique index and retries as an update.
		if database.IsDuplicateKey(err) && attempt == 0 {
			continue
		}
		if err != nil {
			return nil, nil, false, storeErr("upsert manager review", err)
		}
		break
	}

	var review models.ManagerReview
	if err := findOne(ctx, s.reviews(), filter, &review, msgReviewNotFound); err != nil {
		return nil, nil, false, err
	}
	if _, err := s.coll().UpdateOne(ctx, bson.M{"_id": managerID}, bson.M{"$addToSet": bson.M{"reviews": review.ID}}); err != nil {
		return nil, nil, false, storeErr("link manager review", err)
	}
	m, err := s.recompute(ctx, managerID)
	if err != nil {
		return nil, nil, false, err
	}
	return &review, m, created, nil
}

func (s *ManagerService) ownReview(ctx context.Context, id, uid primitive.ObjectID) (*models.ManagerReview, error) {
	r, err := s.GetReview(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.User != uid {
		return nil, utils.Forbidden(msgNotAuthor)
	}
	return r, nil
}

func (s *ManagerService) UpdateReview(ctx context.Context, id, uid primitive.ObjectID, u models.ManagerReviewUpdate) (*models.ManagerReview, *models.Manager, error) {
	r, err := s.ownReview(ctx, id, uid)
	if err != nil {
		return nil, nil, err
	}

	var updated models.ManagerReview
	err = s.reviews().FindOneAndUpdate(ctx,
		bson.M{"_id": id, "user": uid},
		bson.M{"$set": reviewFields(u, s.now())},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil, utils.NotFound(msgReviewNotFound)
	}
	if err != nil {
		return nil, nil, storeErr("update manager review", err)
	}

	m, err := s.recompute(ctx, r.Manager)
	if err != nil {
		return nil, nil, err
	}
	return &updated, m, nil
}

func (s *ManagerService) DeleteReview(ctx context.Context, id, uid primitive.ObjectID) (*models.Manager, error) {
	r, err := s.ownReview(ctx, id, uid)
	if err != nil {
		return nil, err
	}

	res, err := s.reviews().DeleteOne(ctx, bson.M{"_id": id, "user": uid})
	if err != nil {
		return nil, storeErr("delete manager review", err)
	}
	if res.DeletedCount == 0 {
		return nil, utils.NotFound(msgReviewNotFound)
	}
	if _, err := s.coll().UpdateOne(ctx, bson.M{"_id": r.Manager}, bson.M{"$pull": bson.M{"reviews": id}}); err != nil {
		return nil, storeErr("unlink manager review", err)
	}
	if _, err := s.db.Collection(database.Replies).DeleteMany(ctx, bson.M{"review": id}); err != nil {
		return nil, storeErr("delete replies", err)
	}
	return s.recompute(ctx, r.Manager)
}

// recompute stores the plain mean of the manager's review ratings.
func (s *ManagerService) recompute(ctx context.Context, id primitive.ObjectID) (*models.Manager, error) {
	list, err := findAll[models.ManagerReview](ctx, s.reviews(), bson.M{"manager": id},
		options.Find().SetProjection(bson.M{"rating": 1}))
	if err != nil {
		return nil, err
	}
	scores := make([]float64, 0, len(list))
	for _, r := range list {
		scores = append(scores, r.Rating)
	}

	var m models.Manager
	err = s.coll().FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"averageRating": rating.Mean(scores)}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.NotFound(msgManagerNotFound)
	}
	if err != nil {
		return nil, storeErr("store manager rating", err)
	}
	return &m, nil
}

func (s *ManagerService) ReactReview(ctx context.Context, id, uid primitive.ObjectID, kind Reaction) (*models.Reactions, error) {
	found, err := reactionTarget{filter: bson.M{"_id": id}}.toggle(ctx, s.reviews(), kind, uid)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, utils.NotFound(msgReviewNotFound)
	}
	r, err := s.GetReview(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.Reactions{Likes: len(r.Likes), Dislikes: len(r.Dislikes)}, nil
}

func (s *ManagerService) requireReviewed(ctx context.Context, uid, managerID primitive.ObjectID) error {
	ok, err := exists(ctx, s.reviews(), bson.M{"user": uid, "manager": managerID})
	if err != nil {
		return err
	}
	if !ok {
		return utils.Forbidden(msgMustReview)
	}
	return nil
}

// Flag reports a manager. Only reviewers of the manager may flag, once per FlagWindow.
func (s *ManagerService) Flag(ctx context.Context, id, uid primitive.ObjectID) (int, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return 0, err
	}
	if err := s.requireReviewed(ctx, uid, id); err != nil {
		return 0, err
	}

	now := s.now()
	filter := flagGuard(uid, now.Add(-FlagWindow))
	filter["_id"] = id

	var m models.Manager
	err := s.coll().FindOneAndUpdate(ctx, filter,
		bson.M{
			"$push": bson.M{"flags": models.Flag{User: uid, CreatedAt: now}},
			"$inc":  bson.M{"flagCount": 1},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, s.flagMiss(ctx, s.coll(), id, msgManagerNotFound)
	}
	if err != nil {
		return 0, storeErr("flag manager", err)
	}
	return m.FlagCount, nil
}

// FlagReview reports a manager review under the same rules as Flag.
func (s *ManagerService) FlagReview(ctx context.Context, id, uid primitive.ObjectID) (int, error) {
	r, err := s.GetReview(ctx, id)
	if err != nil {
		return 0, err
	}
	if err := s.requireReviewed(ctx, uid, r.Manager); err != nil {
		return 0, err
	}

	now := s.now()
	filter := flagGuard(uid, now.Add(-FlagWindow))
	filter["_id"] = id

	var flagged models.ManagerReview
	err = s.reviews().FindOneAndUpdate(ctx, filter,
		bson.M{
			"$push": bson.M{"flags": models.Flag{User: uid, CreatedAt: now}},
			"$inc":  bson.M{"flagCount": 1},
			"$set":  bson.M{"lastFlagTime": now},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&flagged)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, s.flagMiss(ctx, s.reviews(), id, msgReviewNotFound)
	}
	if err != nil {
		return 0, storeErr("flag manager review", err)
	}
	return flagged.FlagCount, nil
}

// flagMiss explains why a guarded flag push matched nothing.
func (s *ManagerService) flagMiss(ctx context.Context, coll *mongo.Collection, id primitive.ObjectID, notFound string) error {
	ok, err := exists(ctx, coll, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if !ok {
		return utils.NotFound(notFound)
	}
	return utils.RateLimited(msgFlagWindow)
}

// ReviewTexts collects the non-empty review texts of a manager.
func (s *ManagerService) ReviewTexts(ctx context.Context, id primitive.ObjectID) (string, []string, error) {
	m, err := s.Get(ctx, id)
	if err != nil {
		return "", nil, err
	}
	list, err := findAll[models.ManagerReview](ctx, s.reviews(), bson.M{"manager": id, "reviewText": bson.M{"$ne": ""}},
		options.Find().SetProjection(bson.M{"reviewText": 1}))
	if err != nil {
		return "", nil, err
	}
	texts := make([]string, 0, len(list))
	for _, r := range list {
		texts = append(texts, r.ReviewText)
	}
	return m.Name, texts, nil
}
