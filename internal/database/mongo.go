package database

import (
	"context"
	"fmt"
	"time"

	"github.com/developia-II/ratemy-backend/internal/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names.
const (
	Users            = "users"
	Interviewers     = "interviewers"
	Managers         = "managers"
	ManagerReviews   = "manager_reviews"
	Companies        = "companies"
	CompanyReviews   = "company_reviews"
	Replies          = "replies"
	Branches         = "branches"
	Departments      = "departments"
	JobPostings      = "job_postings"
	JobApplications  = "job_applications"
	JobTypes         = "job_types"
	ExperienceLevels = "experience_levels"
	Skills           = "skills"
	States           = "states"
	Resumes          = "resumes"
	Hosts            = "hosts"
	PendingHosts     = "pending_hosts"
)

type DB struct {
	Client *mongo.Client
	DB     *mongo.Database
}

func Connect(ctx context.Context, cfg config.MongoConfig) (*DB, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	return &DB{Client: client, DB: client.Database(cfg.Database)}, nil
}

func (d *DB) Disconnect() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return d.Client.Disconnect(ctx)
}

func (d *DB) Ping(ctx context.Context) error {
	return d.Client.Ping(ctx, nil)
}

func (d *DB) Collection(name string) *mongo.Collection {
	return d.DB.Collection(name)
}

var indexes = map[string][]mongo.IndexModel{
	Users: {
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "verificationToken", Value: 1}}, Options: options.Index().SetSparse(true)},
	},
	Companies: {
		{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetUnique(true)},
	},
	Interviewers: {
		{Keys: bson.D{{Key: "company", Value: 1}}},
		{Keys: bson.D{{Key: "ratings.user", Value: 1}}},
	},
	Managers: {
		{Keys: bson.D{{Key: "department", Value: 1}}},
	},
	ManagerReviews: {
		{Keys: bson.D{{Key: "user", Value: 1}, {Key: "manager", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "manager", Value: 1}, {Key: "createdAt", Value: -1}}},
	},
	CompanyReviews: {
		{
			Keys:    bson.D{{Key: "reviewer", Value: 1}, {Key: "company", Value: 1}, {Key: "period", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "company", Value: 1}, {Key: "createdAt", Value: -1}}},
	},
	Replies: {
		{Keys: bson.D{{Key: "review", Value: 1}, {Key: "createdAt", Value: 1}}},
	},
}

// EnsureIndexes creates the indexes every uniqueness rule relies on. It is idempotent.
func (d *DB) EnsureIndexes(ctx context.Context) error {
	for coll, models := range indexes {
		if _, err := d.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll, err)
		}
	}
	return nil
}

// IsDuplicateKey reports whether err is a unique index violation.
func IsDuplicateKey(err error) bool {
	return mongo.IsDuplicateKeyError(err)
}
