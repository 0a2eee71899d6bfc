package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/developia-II/ratemy-backend/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// FlagWindow is how long a user must wait before flagging the same target again.
const FlagWindow = 24 * time.Hour

const (
	defaultLimit = 20
	maxLimit     = 100
)

type Clock func() time.Time

// Page selects a window of a listing. Page is 1-based.
type Page struct {
	Page  int
	Limit int
}

// ParsePage reads page/limit query values, falling back to 1 and 20.
func ParsePage(pageStr, limitStr string) Page {
	page, err := strconv.Atoi(pageStr)
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit < 1 || limit > maxLimit {
		limit = defaultLimit
	}
	return Page{Page: page, Limit: limit}
}

func (p Page) normalized() Page {
	return ParsePage(strconv.Itoa(p.Page), strconv.Itoa(p.Limit))
}

func (p Page) findOptions() *options.FindOptions {
	p = p.normalized()
	return options.Find().
		SetSkip(int64((p.Page - 1) * p.Limit)).
		SetLimit(int64(p.Limit))
}

type Paged[T any] struct {
	Items      []T   `json:"items"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"totalPages"`
}

func newPaged[T any](items []T, p Page, total int64) *Paged[T] {
	p = p.normalized()
	if items == nil {
		items = []T{}
	}
	return &Paged[T]{
		Items:      items,
		Page:       p.Page,
		Limit:      p.Limit,
		Total:      total,
		TotalPages: (total + int64(p.Limit) - 1) / int64(p.Limit),
	}
}

// searchFilter matches q case-insensitively as a literal substring of any of fields.
func searchFilter(q string, fields ...string) bson.M {
	if q == "" {
		return bson.M{}
	}
	pattern := regexp.QuoteMeta(q)
	or := make([]bson.M, 0, len(fields))
	for _, f := range fields {
		or = append(or, bson.M{f: bson.M{"$regex": pattern, "$options": "i"}})
	}
	return bson.M{"$or": or}
}

// findOne decodes the single document matching filter, mapping "no documents" to NotFound(msg).
func findOne(ctx context.Context, coll *mongo.Collection, filter interface{}, out interface{}, msg string, opts ...*options.FindOneOptions) error {
	err := coll.FindOne(ctx, filter, opts...).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return utils.NotFound(msg)
	}
	if err != nil {
		return utils.Internal(fmt.Errorf("find in %s: %w", coll.Name(), err))
	}
	return nil
}

func findAll[T any](ctx context.Context, coll *mongo.Collection, filter interface{}, opts ...*options.FindOptions) ([]T, error) {
	cursor, err := coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, utils.Internal(fmt.Errorf("find in %s: %w", coll.Name(), err))
	}
	defer cursor.Close(ctx)

	out := []T{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, utils.Internal(fmt.Errorf("decode %s: %w", coll.Name(), err))
	}
	return out, nil
}

func exists(ctx context.Context, coll *mongo.Collection, filter interface{}) (bool, error) {
	n, err := coll.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, utils.Internal(fmt.Errorf("count in %s: %w", coll.Name(), err))
	}
	return n > 0, nil
}

func storeErr(op string, err error) error {
	return utils.Internal(fmt.Errorf("%s: %w", op, err))
}

// Reaction names the reference list a like or dislike lands in.
type Reaction string

const (
	Like    Reaction = "likes"
	Dislike Reaction = "dislikes"
)

func (r Reaction) opposite() Reaction {
	if r == Like {
		return Dislike
	}
	return Like
}

// reactionTarget locates the likes/dislikes lists to toggle: either on the document matched
// by filter, or on the element of array matched by elem.
type reactionTarget struct {
	filter bson.M
	array  string
	elem   bson.M
}

type reactionPlan struct {
	undoFilter  bson.M
	undoUpdate  bson.M
	applyFilter bson.M
	applyUpdate bson.M
}

// plan builds the two conditional updates of a toggle: undo removes uid when it already
// reacted that way, apply adds it and clears the opposite reaction.
func (t reactionTarget) plan(kind Reaction, uid primitive.ObjectID) reactionPlan {
	field, other := string(kind), string(kind.opposite())

	undoFilter := copyM(t.filter)
	applyFilter := copyM(t.filter)
	prefix := ""
	if t.array == "" {
		undoFilter[field] = uid
	} else {
		prefix = t.array + ".$."
		match := copyM(t.elem)
		match[field] = uid
		undoFilter[t.array] = bson.M{"$elemMatch": match}
		applyFilter[t.array] = bson.M{"$elemMatch": copyM(t.elem)}
	}

	return reactionPlan{
		undoFilter:  undoFilter,
		undoUpdate:  bson.M{"$pull": bson.M{prefix + field: uid}},
		applyFilter: applyFilter,
		applyUpdate: bson.M{
			"$addToSet": bson.M{prefix + field: uid},
			"$pull":     bson.M{prefix + other: uid},
		},
	}
}

// toggle runs the plan. It returns false when the target does not exist.
func (t reactionTarget) toggle(ctx context.Context, coll *mongo.Collection, kind Reaction, uid primitive.ObjectID) (bool, error) {
	p := t.plan(kind, uid)

	res, err := coll.UpdateOne(ctx, p.undoFilter, p.undoUpdate)
	if err != nil {
		return false, storeErr("undo reaction", err)
	}
	if res.MatchedCount > 0 {
		return true, nil
	}

	res, err = coll.UpdateOne(ctx, p.applyFilter, p.applyUpdate)
	if err != nil {
		return false, storeErr("apply reaction", err)
	}
	return res.MatchedCount > 0, nil
}

// flagGuard matches documents uid has not flagged since cutoff.
func flagGuard(uid primitive.ObjectID, cutoff time.Time) bson.M {
	return bson.M{"flags": bson.M{"$not": bson.M{"$elemMatch": bson.M{
		"user":      uid,
		"createdAt": bson.M{"$gt": cutoff},
	}}}}
}

func copyM(m bson.M) bson.M {
	out := make(bson.M, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}
