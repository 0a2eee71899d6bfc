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
)

// Hook runs around a write of doc. An error from a hook that runs before the write aborts it.
type Hook[P any] func(ctx context.Context, db *database.DB, doc P) error

// UpdateHook sees the stored document next to its replacement.
type UpdateHook[P any] func(ctx context.Context, db *database.DB, existing, doc P) error

// Hooks are the optional steps around the writes of a ResourceStore.
type Hooks[P any] struct {
	// Check runs before both insert and replace.
	Check        Hook[P]
	BeforeCreate Hook[P]
	AfterCreate  Hook[P]
	BeforeUpdate UpdateHook[P]
	AfterUpdate  UpdateHook[P]
	AfterDelete  Hook[P]
}

// ResourceStore is plain CRUD over one collection of secondary documents. When P also
// implements models.Owned, only the owner may update or delete a document.
type ResourceStore[T any, P interface {
	*T
	models.Resource
}] struct {
	db       *database.DB
	now      Clock
	coll     string
	notFound string
	filters  []string
	search   []string
	hooks    Hooks[P]
}

type StoreOption[T any, P interface {
	*T
	models.Resource
}] func(*ResourceStore[T, P])

// WithFilters whitelists reference fields that List accepts as ObjectID query filters.
func WithFilters[T any, P interface {
	*T
	models.Resource
}](fields ...string) StoreOption[T, P] {
	return func(s *ResourceStore[T, P]) { s.filters = fields }
}

// WithSearch names the fields the q parameter matches.
func WithSearch[T any, P interface {
	*T
	models.Resource
}](fields ...string) StoreOption[T, P] {
	return func(s *ResourceStore[T, P]) { s.search = fields }
}

func WithHooks[T any, P interface {
	*T
	models.Resource
}](h Hooks[P]) StoreOption[T, P] {
	return func(s *ResourceStore[T, P]) { s.hooks = h }
}

func NewResourceStore[T any, P interface {
	*T
	models.Resource
}](db *database.DB, now Clock, coll, notFound string, opts ...StoreOption[T, P]) *ResourceStore[T, P] {
	s := &ResourceStore[T, P]{db: db, now: now, coll: coll, notFound: notFound}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *ResourceStore[T, P]) collection() *mongo.Collection {
	return s.db.Collection(s.coll)
}

// Filters reports the query parameters List understands besides q, page and limit.
func (s *ResourceStore[T, P]) Filters() []string {
	return s.filters
}

// List returns a page of documents, newest first. query holds raw values of whitelisted filters.
func (s *ResourceStore[T, P]) List(ctx context.Context, q string, query map[string]string, p Page) (*Paged[T], error) {
	filter := searchFilter(q, s.search...)
	for _, f := range s.filters {
		raw, ok := query[f]
		if !ok || raw == "" {
			continue
		}
		id, err := utils.ObjectID(raw, f)
		if err != nil {
			return nil, err
		}
		filter[f] = id
	}

	total, err := s.collection().CountDocuments(ctx, filter)
	if err != nil {
		return nil, storeErr("count "+s.coll, err)
	}
	list, err := findAll[T](ctx, s.collection(), filter, p.findOptions().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	return newPaged(list, p, total), nil
}

func (s *ResourceStore[T, P]) Get(ctx context.Context, id primitive.ObjectID) (P, error) {
	doc := P(new(T))
	if err := findOne(ctx, s.collection(), bson.M{"_id": id}, doc, s.notFound); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *ResourceStore[T, P]) Create(ctx context.Context, uid primitive.ObjectID, doc P) (P, error) {
	doc.SetID(primitive.NewObjectID())
	doc.SetCreatedAt(s.now())
	if owned, ok := any(doc).(models.Owned); ok {
		owned.SetOwner(uid)
	}
	if err := runHook(ctx, s.db, s.hooks.BeforeCreate, doc); err != nil {
		return nil, err
	}
	if err := runHook(ctx, s.db, s.hooks.Check, doc); err != nil {
		return nil, err
	}

	_, err := s.collection().InsertOne(ctx, doc)
	if database.IsDuplicateKey(err) {
		return nil, utils.Conflict("Already exists")
	}
	if err != nil {
		return nil, storeErr("insert into "+s.coll, err)
	}

	if err := runHook(ctx, s.db, s.hooks.AfterCreate, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// authorize loads the document and, for owned resources, checks uid owns it.
func (s *ResourceStore[T, P]) authorize(ctx context.Context, uid, id primitive.ObjectID) (P, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if owned, ok := any(existing).(models.Owned); ok && owned.OwnerID() != uid {
		return nil, utils.Forbidden("Not authorized to modify this resource")
	}
	return existing, nil
}

// Update replaces every editable field of the document. Id, creation time and owner are kept.
func (s *ResourceStore[T, P]) Update(ctx context.Context, uid, id primitive.ObjectID, doc P) (P, error) {
	existing, err := s.authorize(ctx, uid, id)
	if err != nil {
		return nil, err
	}
	doc.SetID(id)
	doc.SetCreatedAt(existing.GetCreatedAt())
	if owned, ok := any(existing).(models.Owned); ok {
		any(doc).(models.Owned).SetOwner(owned.OwnerID())
	}
	if h := s.hooks.BeforeUpdate; h != nil {
		if err := h(ctx, s.db, existing, doc); err != nil {
			return nil, err
		}
	}
	if err := runHook(ctx, s.db, s.hooks.Check, doc); err != nil {
		return nil, err
	}

	res, err := s.collection().ReplaceOne(ctx, bson.M{"_id": id}, doc)
	if database.IsDuplicateKey(err) {
		return nil, utils.Conflict("Already exists")
	}
	if err != nil {
		return nil, storeErr("replace in "+s.coll, err)
	}
	if res.MatchedCount == 0 {
		return nil, utils.NotFound(s.notFound)
	}
	if h := s.hooks.AfterUpdate; h != nil {
		if err := h(ctx, s.db, existing, doc); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

func (s *ResourceStore[T, P]) Delete(ctx context.Context, uid, id primitive.ObjectID) error {
	existing, err := s.authorize(ctx, uid, id)
	if err != nil {
		return err
	}
	var gone T
	err = s.collection().FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&gone)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return utils.NotFound(s.notFound)
	}
	if err != nil {
		return storeErr("delete from "+s.coll, err)
	}
	return runHook(ctx, s.db, s.hooks.AfterDelete, existing)
}

func runHook[P any](ctx context.Context, db *database.DB, h Hook[P], doc P) error {
	if h == nil {
		return nil
	}
	return h(ctx, db, doc)
}

// requireRef fails with NotFound(msg) unless a document with id exists in coll.
func requireRef(ctx context.Context, db *database.DB, coll string, id primitive.ObjectID, msg string) error {
	if id.IsZero() {
		return nil
	}
	ok, err := exists(ctx, db.Collection(coll), bson.M{"_id": id})
	if err != nil {
		return err
	}
	if !ok {
		return utils.NotFound(msg)
	}
	return nil
}

func optionalRef(ctx context.Context, db *database.DB, coll string, id *primitive.ObjectID, msg string) error {
	if id == nil {
		return nil
	}
	return requireRef(ctx, db, coll, *id, msg)
}

// linkBranch moves branch id from one company's branch list to another's. Zero ids are skipped.
func linkBranch(ctx context.Context, db *database.DB, id, from, to primitive.ObjectID) error {
	companies := db.Collection(database.Companies)
	if !from.IsZero() {
		if _, err := companies.UpdateOne(ctx, bson.M{"_id": from}, bson.M{"$pull": bson.M{"branches": id}}); err != nil {
			return storeErr("unlink branch", err)
		}
	}
	if !to.IsZero() {
		if _, err := companies.UpdateOne(ctx, bson.M{"_id": to}, bson.M{"$addToSet": bson.M{"branches": id}}); err != nil {
			return storeErr("link branch", err)
		}
	}
	return nil
}

// Resources bundles the stores behind the secondary CRUD routes.
type Resources struct {
	Branches         *ResourceStore[models.Branch, *models.Branch]
	Departments      *ResourceStore[models.Department, *models.Department]
	JobPostings      *ResourceStore[models.JobPosting, *models.JobPosting]
	JobApplications  *ResourceStore[models.JobApplication, *models.JobApplication]
	JobTypes         *ResourceStore[models.Lookup, *models.Lookup]
	ExperienceLevels *ResourceStore[models.Lookup, *models.Lookup]
	Skills           *ResourceStore[models.Lookup, *models.Lookup]
	States           *ResourceStore[models.Lookup, *models.Lookup]
	Resumes          *ResourceStore[models.Resume, *models.Resume]
	Hosts            *ResourceStore[models.Host, *models.Host]
	PendingHosts     *ResourceStore[models.PendingHost, *models.PendingHost]
}

func lookupStore(db *database.DB, now Clock, coll, notFound string) *ResourceStore[models.Lookup, *models.Lookup] {
	return NewResourceStore(db, now, coll, notFound, WithSearch[models.Lookup, *models.Lookup]("name"))
}

func NewResources(db *database.DB, now Clock) *Resources {
	return &Resources{
		Branches: NewResourceStore(db, now, database.Branches, "Branch not found",
			WithFilters[models.Branch, *models.Branch]("company", "state"),
			WithSearch[models.Branch, *models.Branch]("name", "city"),
			WithHooks[models.Branch](Hooks[*models.Branch]{
				Check: func(ctx context.Context, db *database.DB, b *models.Branch) error {
					if err := requireRef(ctx, db, database.Companies, b.Company, msgCompanyNotFound); err != nil {
						return err
					}
					return optionalRef(ctx, db, database.States, b.State, "State not found")
				},
				AfterCreate: func(ctx context.Context, db *database.DB, b *models.Branch) error {
					return linkBranch(ctx, db, b.ID, primitive.NilObjectID, b.Company)
				},
				AfterUpdate: func(ctx context.Context, db *database.DB, old, b *models.Branch) error {
					if old.Company == b.Company {
						return nil
					}
					return linkBranch(ctx, db, b.ID, old.Company, b.Company)
				},
				AfterDelete: func(ctx context.Context, db *database.DB, b *models.Branch) error {
					return linkBranch(ctx, db, b.ID, b.Company, primitive.NilObjectID)
				},
			}),
		),
		Departments: NewResourceStore(db, now, database.Departments, msgDepartmentNotFound,
			WithFilters[models.Department, *models.Department]("company", "branch"),
			WithSearch[models.Department, *models.Department]("name"),
			WithHooks[models.Department](Hooks[*models.Department]{
				Check: func(ctx context.Context, db *database.DB, d *models.Department) error {
					if err := optionalRef(ctx, db, database.Companies, d.Company, msgCompanyNotFound); err != nil {
						return err
					}
					return optionalRef(ctx, db, database.Branches, d.Branch, "Branch not found")
				},
			}),
		),
		JobPostings: NewResourceStore(db, now, database.JobPostings, "Job posting not found",
			WithFilters[models.JobPosting, *models.JobPosting]("company", "jobType", "experienceLevel", "state"),
			WithSearch[models.JobPosting, *models.JobPosting]("title", "description"),
			WithHooks[models.JobPosting](Hooks[*models.JobPosting]{
				Check: func(ctx context.Context, db *database.DB, j *models.JobPosting) error {
					return requireRef(ctx, db, database.Companies, j.Company, msgCompanyNotFound)
				},
			}),
		),
		JobApplications: NewResourceStore(db, now, database.JobApplications, "Job application not found",
			WithFilters[models.JobApplication, *models.JobApplication]("job", "applicant"),
			WithHooks[models.JobApplication](Hooks[*models.JobApplication]{
				Check: func(ctx context.Context, db *database.DB, a *models.JobApplication) error {
					if err := requireRef(ctx, db, database.JobPostings, a.Job, "Job posting not found"); err != nil {
						return err
					}
					return optionalRef(ctx, db, database.Resumes, a.Resume, "Resume not found")
				},
				// the applicant owns the document but not its status
				BeforeCreate: func(_ context.Context, _ *database.DB, a *models.JobApplication) error {
					a.Status = models.ApplicationSubmitted
					return nil
				},
				BeforeUpdate: func(_ context.Context, _ *database.DB, old, a *models.JobApplication) error {
					a.Status = old.Status
					return nil
				},
			}),
		),
		JobTypes:         lookupStore(db, now, database.JobTypes, "Job type not found"),
		ExperienceLevels: lookupStore(db, now, database.ExperienceLevels, "Experience level not found"),
		Skills:           lookupStore(db, now, database.Skills, "Skill not found"),
		States:           lookupStore(db, now, database.States, "State not found"),
		Resumes: NewResourceStore(db, now, database.Resumes, "Resume not found",
			WithFilters[models.Resume, *models.Resume]("user"),
			WithSearch[models.Resume, *models.Resume]("title"),
		),
		Hosts: NewResourceStore(db, now, database.Hosts, "Host not found",
			WithFilters[models.Host, *models.Host]("company", "user"),
			WithHooks[models.Host](Hooks[*models.Host]{
				Check: func(ctx context.Context, db *database.DB, h *models.Host) error {
					return requireRef(ctx, db, database.Companies, h.Company, msgCompanyNotFound)
				},
			}),
		),
		PendingHosts: NewResourceStore(db, now, database.PendingHosts, "Pending host not found",
			WithFilters[models.PendingHost, *models.PendingHost]("company", "user"),
			WithHooks[models.PendingHost](Hooks[*models.PendingHost]{
				Check: func(ctx context.Context, db *database.DB, h *models.PendingHost) error {
					return requireRef(ctx, db, database.Companies, h.Company, msgCompanyNotFound)
				},
			}),
		),
	}
}
