package services

import (
	"context"
	"testing"
	"time"

	"github.com/developia-II/ratemy-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestApplicationStatusIsNotClientControlled(t *testing.T) {
	hooks := NewResources(nil, time.Now).JobApplications.hooks
	ctx := context.Background()

	created := &models.JobApplication{Status: "accepted"}
	require.NoError(t, hooks.BeforeCreate(ctx, nil, created))
	assert.Equal(t, models.ApplicationSubmitted, created.Status)

	stored := &models.JobApplication{Status: "reviewing"}
	edit := &models.JobApplication{Status: "accepted", CoverLetter: "updated"}
	require.NoError(t, hooks.BeforeUpdate(ctx, nil, stored, edit))
	assert.Equal(t, "reviewing", edit.Status)
	assert.Equal(t, "updated", edit.CoverLetter)
}

func TestBranchUpdateHookIgnoresSameCompany(t *testing.T) {
	hooks := NewResources(nil, time.Now).Branches.hooks
	require.NotNil(t, hooks.AfterUpdate)

	company := primitive.NewObjectID()
	// a nil database would panic if the hook tried to relink
	err := hooks.AfterUpdate(context.Background(), nil,
		&models.Branch{Company: company, Name: "Lagos"},
		&models.Branch{Company: company, Name: "Lagos Island"})
	assert.NoError(t, err)
}

func TestOptionalRefSkipsAbsentIDs(t *testing.T) {
	assert.NoError(t, optionalRef(context.Background(), nil, "states", nil, "State not found"))
	zero := primitive.NilObjectID
	assert.NoError(t, optionalRef(context.Background(), nil, "states", &zero, "State not found"))
}
