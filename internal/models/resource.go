package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Resource is a reference or secondary document served by the generic CRUD routes.
// Request bodies decode straight into the document type.
type Resource interface {
	GetID() primitive.ObjectID
	SetID(id primitive.ObjectID)
	GetCreatedAt() time.Time
	SetCreatedAt(t time.Time)
}

// Owned resources record the authenticated user that created them.
type Owned interface {
	OwnerID() primitive.ObjectID
	SetOwner(id primitive.ObjectID)
}

type Base struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
}

func (b *Base) GetID() primitive.ObjectID { return b.ID }
func (b *Base) SetID(id primitive.ObjectID) { b.ID = id }
func (b *Base) GetCreatedAt() time.Time { return b.CreatedAt }
func (b *Base) SetCreatedAt(t time.Time) { b.CreatedAt = t }

// optionalID maps the zero id to nil so JSON omitempty drops it.
func optionalID(id primitive.ObjectID) *primitive.ObjectID {
	if id.IsZero() {
		return nil
	}
	return &id
}

// Lookup is a named reference value: job types, experience levels, skills and states.
type Lookup struct {
	Base `bson:",inline"`
	Name string `json:"name" bson:"name" validate:"required,max=100"`
}

type Branch struct {
	Base    `bson:",inline"`
	Company primitive.ObjectID  `json:"company" bson:"company" validate:"required"`
	Name    string              `json:"name" bson:"name" validate:"required,max=200"`
	City    string              `json:"city" bson:"city" validate:"max=100"`
	State   *primitive.ObjectID `json:"state,omitempty" bson:"state,omitempty"`
}

type Department struct {
	Base    `bson:",inline"`
	Name    string              `json:"name" bson:"name" validate:"required,max=200"`
	Company *primitive.ObjectID `json:"company,omitempty" bson:"company,omitempty"`
	Branch  *primitive.ObjectID `json:"branch,omitempty" bson:"branch,omitempty"`
}

type JobPosting struct {
	Base            `bson:",inline"`
	Company         primitive.ObjectID   `json:"company" bson:"company" validate:"required"`
	Title           string               `json:"title" bson:"title" validate:"required,max=200"`
	Description     string               `json:"description" bson:"description" validate:"max=10000"`
	JobType         *primitive.ObjectID  `json:"jobType,omitempty" bson:"jobType,omitempty"`
	ExperienceLevel *primitive.ObjectID  `json:"experienceLevel,omitempty" bson:"experienceLevel,omitempty"`
	Skills          []primitive.ObjectID `json:"skills" bson:"skills"`
	State           *primitive.ObjectID  `json:"state,omitempty" bson:"state,omitempty"`
	SalaryMin       int                  `json:"salaryMin" bson:"salaryMin" validate:"min=0"`
	SalaryMax       int                  `json:"salaryMax" bson:"salaryMax" validate:"min=0,gtefield=SalaryMin"`
	PostedBy        primitive.ObjectID   `json:"postedBy" bson:"postedBy"`
}

func (j *JobPosting) OwnerID() primitive.ObjectID { return j.PostedBy }
func (j *JobPosting) SetOwner(id primitive.ObjectID) { j.PostedBy = id }

// JobApplication status is set by the store: "submitted" on create, unchanged by the applicant's edits.
type JobApplication struct {
	Base        `bson:",inline"`
	Job         primitive.ObjectID  `json:"job" bson:"job" validate:"required"`
	Applicant   primitive.ObjectID  `json:"applicant" bson:"applicant"`
	Resume      *primitive.ObjectID `json:"resume,omitempty" bson:"resume,omitempty"`
	CoverLetter string              `json:"coverLetter" bson:"coverLetter" validate:"max=10000"`
	Status      string              `json:"status" bson:"status" validate:"omitempty,oneof=submitted reviewing rejected accepted"`
}

const ApplicationSubmitted = "submitted"

func (a *JobApplication) OwnerID() primitive.ObjectID { return a.Applicant }
func (a *JobApplication) SetOwner(id primitive.ObjectID) { a.Applicant = id }

type Resume struct {
	Base    `bson:",inline"`
	User    primitive.ObjectID `json:"user" bson:"user"`
	Title   string             `json:"title" bson:"title" validate:"required,max=200"`
	Summary string             `json:"summary" bson:"summary" validate:"max=5000"`
	URL     string             `json:"url" bson:"url" validate:"omitempty,url"`
}

func (r *Resume) OwnerID() primitive.ObjectID { return r.User }
func (r *Resume) SetOwner(id primitive.ObjectID) { r.User = id }

// Host is a verified company representative.
type Host struct {
	Base    `bson:",inline"`
	User    primitive.ObjectID `json:"user" bson:"user"`
	Company primitive.ObjectID `json:"company" bson:"company" validate:"required"`
	Title   string             `json:"title" bson:"title" validate:"max=200"`
}

func (h *Host) OwnerID() primitive.ObjectID { return h.User }
func (h *Host) SetOwner(id primitive.ObjectID) { h.User = id }

// PendingHost is a host application awaiting approval.
type PendingHost struct {
	Base    `bson:",inline"`
	User    primitive.ObjectID `json:"user" bson:"user"`
	Company primitive.ObjectID `json:"company" bson:"company" validate:"required"`
	Title   string             `json:"title" bson:"title" validate:"max=200"`
	Message string             `json:"message" bson:"message" validate:"max=2000"`
}

func (h *PendingHost) OwnerID() primitive.ObjectID { return h.User }
func (h *PendingHost) SetOwner(id primitive.ObjectID) { h.User = id }
