package services

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/developia-II/ratemy-backend/internal/config"
	"github.com/developia-II/ratemy-backend/internal/database"
	"github.com/developia-II/ratemy-backend/internal/models"
	"github.com/developia-II/ratemy-backend/internal/rating"
	"github.com/developia-II/ratemy-backend/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingMailer struct {
	links []string
}

func (m *recordingMailer) SendVerification(_ context.Context, _, _, link string) error {
	m.links = append(m.links, link)
	return nil
}

type env struct {
	ctx          context.Context
	db           *database.DB
	clock        *testClock
	mail         *recordingMailer
	auth         *AuthService
	users        *UserService
	interviewers *InterviewerService
	managers     *ManagerService
	companies    *CompanyService
	replies      *ReplyService
	stats        *StatsService
	resources    *Resources
}

// newEnv connects to MONGODB_TEST_URI and gives the test its own throwaway database.
func newEnv(t *testing.T) *env {
	t.Helper()
	uri := os.Getenv("MONGODB_TEST_URI")
	if uri == "" {
		t.Skip("MONGODB_TEST_URI not set")
	}

	ctx := context.Background()
	name := fmt.Sprintf("ratemy_test_%s", primitive.NewObjectID().Hex())
	db, err := database.Connect(ctx, config.MongoConfig{URI: uri, Database: name})
	require.NoError(t, err)
	require.NoError(t, db.EnsureIndexes(ctx))
	t.Cleanup(func() {
		_ = db.DB.Drop(context.Background())
		_ = db.Disconnect()
	})

	clock := &testClock{now: time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)}
	now := Clock(clock.Now)
	mail := &recordingMailer{}

	e := &env{
		ctx:          ctx,
		db:           db,
		clock:        clock,
		mail:         mail,
		auth:         NewAuthService(db, mail, "integration-secret", time.Hour, "http://localhost:8080", now),
		interviewers: NewInterviewerService(db, now),
		managers:     NewManagerService(db, now),
		companies:    NewCompanyService(db, now),
		stats:        NewStatsService(db),
		resources:    NewResources(db, now),
	}
	e.users = NewUserService(db, e.interviewers, e.managers, e.companies)
	e.replies = NewReplyService(db, e.interviewers, e.users, now)
	return e
}

func (e *env) user(t *testing.T, name string) primitive.ObjectID {
	t.Helper()
	resp, err := e.auth.Register(e.ctx, models.RegisterRequest{
		Name:     name,
		Email:    name + "@example.com",
		Password: "secret123",
	})
	require.NoError(t, err)
	id, err := primitive.ObjectIDFromHex(resp.User.ID)
	require.NoError(t, err)
	return id
}

func (e *env) company(t *testing.T, name string) *models.Company {
	t.Helper()
	c, err := e.companies.Create(e.ctx, models.CompanyRequest{Name: name})
	require.NoError(t, err)
	return c
}

func (e *env) manager(t *testing.T) *models.Manager {
	t.Helper()
	dept, err := e.resources.Departments.Create(e.ctx, primitive.NilObjectID, &models.Department{Name: "Engineering"})
	require.NoError(t, err)
	m, err := e.managers.Create(e.ctx, models.ManagerRequest{
		Name:       "Grace",
		Department: dept.ID.Hex(),
		Position:   "Director",
	})
	require.NoError(t, err)
	return m
}

func (e *env) review(t *testing.T, uid primitive.ObjectID, m *models.Manager, score float64) *models.ManagerReview {
	t.Helper()
	r, _, _, err := e.managers.Submit(e.ctx, uid, models.ManagerReviewRequest{Manager: m.ID.Hex(), Rating: score})
	require.NoError(t, err)
	return r
}

func assertStatus(t *testing.T, err error, status int, msg string) {
	t.Helper()
	require.Error(t, err)
	gotStatus, gotMsg := utils.StatusOf(err)
	assert.Equal(t, status, gotStatus)
	if msg != "" {
		assert.Equal(t, msg, gotMsg)
	}
}

func TestInterviewerRatingIsEditedInPlace(t *testing.T) {
	e := newEnv(t)
	uid := e.user(t, "ada")
	c := e.company(t, "Acme")
	i, err := e.interviewers.Create(e.ctx, models.InterviewerRequest{Name: "Alan", Company: c.ID.Hex(), Position: "Staff"})
	require.NoError(t, err)

	_, r1, created, err := e.interviewers.Rate(e.ctx, i.ID, uid, models.RatingRequest{Rating: 5, ReviewText: "great"})
	require.NoError(t, err)
	assert.True(t, created)

	got, r2, created, err := e.interviewers.Rate(e.ctx, i.ID, uid, models.RatingRequest{Rating: 2, ReviewText: "changed my mind"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, r1.ID, r2.ID)
	require.Len(t, got.Ratings, 1)
	assert.Equal(t, 2, got.Ratings[0].Rating)
	assert.Equal(t, "changed my mind", got.Ratings[0].ReviewText)
	assert.InDelta(t, rating.Logistic([]float64{2}), got.Rating, 1e-9)

	company, err := e.companies.Get(e.ctx, c.ID)
	require.NoError(t, err)
	assert.Contains(t, company.Interviewers, i.ID)
}

func TestConcurrentFirstRatingsStayUnique(t *testing.T) {
	e := newEnv(t)
	uid := e.user(t, "ada")
	c := e.company(t, "Acme")
	i, err := e.interviewers.Create(e.ctx, models.InterviewerRequest{Name: "Alan", Company: c.ID.Hex(), Position: "Staff"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for n := 1; n <= 5; n++ {
		wg.Add(1)
		go func(score int) {
			defer wg.Done()
			_, _, _, err := e.interviewers.Rate(e.ctx, i.ID, uid, models.RatingRequest{Rating: score})
			assert.NoError(t, err)
		}(n)
	}
	wg.Wait()

	got, err := e.interviewers.Get(e.ctx, i.ID)
	require.NoError(t, err)
	assert.Len(t, got.Ratings, 1)
}

func TestRateUnknownInterviewer(t *testing.T) {
	e := newEnv(t)
	uid := e.user(t, "ada")
	_, _, _, err := e.interviewers.Rate(e.ctx, primitive.NewObjectID(), uid, models.RatingRequest{Rating: 3})
	assertStatus(t, err, 404, "Interviewer not found")
}

func TestInterviewerRatingReactions(t *testing.T) {
	e := newEnv(t)
	author, reader := e.user(t, "ada"), e.user(t, "bob")
	c := e.company(t, "Acme")
	i, err := e.interviewers.Create(e.ctx, models.InterviewerRequest{Name: "Alan", Company: c.ID.Hex(), Position: "Staff"})
	require.NoError(t, err)
	_, r, _, err := e.interviewers.Rate(e.ctx, i.ID, author, models.RatingRequest{Rating: 4})
	require.NoError(t, err)

	counts, err := e.interviewers.React(e.ctx, i.ID, r.ID, reader, Like)
	require.NoError(t, err)
	assert.Equal(t, models.Reactions{Likes: 1}, *counts)

	counts, err = e.interviewers.React(e.ctx, i.ID, r.ID, reader, Dislike)
	require.NoError(t, err)
	assert.Equal(t, models.Reactions{Dislikes: 1}, *counts)

	counts, err = e.interviewers.React(e.ctx, i.ID, r.ID, reader, Dislike)
	require.NoError(t, err)
	assert.Equal(t, models.Reactions{}, *counts)

	_, err = e.interviewers.React(e.ctx, i.ID, primitive.NewObjectID(), reader, Like)
	assertStatus(t, err, 404, "Review not found")
}

func TestManagerReviewToggleAndFlags(t *testing.T) {
	e := newEnv(t)
	author, reader, stranger := e.user(t, "ada"), e.user(t, "bob"), e.user(t, "eve")
	m := e.manager(t)
	r := e.review(t, author, m, 4)
	e.review(t, reader, m, 3)

	counts, err := e.managers.ReactReview(e.ctx, r.ID, reader, Like)
	require.NoError(t, err)
	assert.Equal(t, models.Reactions{Likes: 1}, *counts)
	counts, err = e.managers.ReactReview(e.ctx, r.ID, reader, Like)
	require.NoError(t, err)
	assert.Equal(t, models.Reactions{}, *counts)
	counts, err = e.managers.ReactReview(e.ctx, r.ID, reader, Dislike)
	require.NoError(t, err)
	assert.Equal(t, models.Reactions{Dislikes: 1}, *counts)

	_, err = e.managers.FlagReview(e.ctx, r.ID, stranger)
	assertStatus(t, err, 403, "You must review this manager before flagging")

	n, err := e.managers.FlagReview(e.ctx, r.ID, reader)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	e.clock.Advance(23 * time.Hour)
	_, err = e.managers.FlagReview(e.ctx, r.ID, reader)
	assertStatus(t, err, 429, "You can only flag once every 24 hours")

	e.clock.Advance(2 * time.Hour)
	n, err = e.managers.FlagReview(e.ctx, r.ID, reader)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	flagged, err := e.managers.GetReview(e.ctx, r.ID)
	require.NoError(t, err)
	require.NotNil(t, flagged.LastFlagTime)
	assert.True(t, flagged.LastFlagTime.Equal(e.clock.Now()))

	_, err = e.managers.FlagReview(e.ctx, primitive.NewObjectID(), reader)
	assertStatus(t, err, 404, "Review not found")
}

func TestFlagManager(t *testing.T) {
	e := newEnv(t)
	uid, stranger := e.user(t, "ada"), e.user(t, "eve")
	m := e.manager(t)
	e.review(t, uid, m, 5)

	_, err := e.managers.Flag(e.ctx, m.ID, stranger)
	assertStatus(t, err, 403, "")

	n, err := e.managers.Flag(e.ctx, m.ID, uid)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = e.managers.Flag(e.ctx, m.ID, uid)
	assertStatus(t, err, 429, "")

	_, err = e.managers.Flag(e.ctx, primitive.NewObjectID(), uid)
	assertStatus(t, err, 404, "Manager not found")
}

func TestManagerAverageRating(t *testing.T) {
	e := newEnv(t)
	a, b := e.user(t, "ada"), e.user(t, "bob")
	m := e.manager(t)

	_, got, created, err := e.managers.Submit(e.ctx, a, models.ManagerReviewRequest{Manager: m.ID.Hex(), Rating: 4})
	require.NoError(t, err)
	assert.True(t, created)
	assert.InDelta(t, 4.0, got.AverageRating, 1e-9)

	_, got, _, err = e.managers.Submit(e.ctx, b, models.ManagerReviewRequest{Manager: m.ID.Hex(), Rating: 2})
	require.NoError(t, err)
	assert.InDelta(t, 3.0, got.AverageRating, 1e-9)
	assert.Len(t, got.Reviews, 2)

	// resubmitting overwrites instead of adding a second review
	r, got, created, err := e.managers.Submit(e.ctx, a, models.ManagerReviewRequest{Manager: m.ID.Hex(), Rating: 2})
	require.NoError(t, err)
	assert.False(t, created)
	assert.InDelta(t, 2.0, got.AverageRating, 1e-9)
	assert.Len(t, got.Reviews, 2)

	_, _, err = e.managers.UpdateReview(e.ctx, r.ID, b, models.ManagerReviewUpdate{Rating: 5})
	assertStatus(t, err, 403, "")

	got, err = e.managers.DeleteReview(e.ctx, r.ID, a)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, got.AverageRating, 1e-9)
	assert.Len(t, got.Reviews, 1)
}

func TestAnonymousManagerReviewHidesAuthor(t *testing.T) {
	e := newEnv(t)
	a, b := e.user(t, "ada"), e.user(t, "bob")
	m := e.manager(t)
	_, _, _, err := e.managers.Submit(e.ctx, a, models.ManagerReviewRequest{Manager: m.ID.Hex(), Rating: 3, Anonymous: true})
	require.NoError(t, err)

	seenByOther, err := e.managers.Reviews(e.ctx, m.ID, b)
	require.NoError(t, err)
	require.Len(t, seenByOther, 1)
	assert.True(t, seenByOther[0].User.IsZero())

	seenByAuthor, err := e.managers.Reviews(e.ctx, m.ID, a)
	require.NoError(t, err)
	assert.Equal(t, a, seenByAuthor[0].User)
}

func TestUnknownManager(t *testing.T) {
	e := newEnv(t)
	_, err := e.managers.Get(e.ctx, primitive.NewObjectID())
	assertStatus(t, err, 404, "Manager not found")
}

func TestCompanyReviewPeriods(t *testing.T) {
	e := newEnv(t)
	uid := e.user(t, "ada")
	c := e.company(t, "Acme")
	req := models.CompanyReviewRequest{
		Company:         c.ID.Hex(),
		WorkLifeBalance: 4,
		Compensation:    3,
		Culture:         5,
		CareerGrowth:    2,
		Management:      4,
		Title:           "Solid",
	}

	r, err := e.companies.SubmitReview(e.ctx, uid, req)
	require.NoError(t, err)
	assert.Equal(t, "2024-03", r.Period)

	_, err = e.companies.SubmitReview(e.ctx, uid, req)
	assertStatus(t, err, 409, "You have already reviewed this company for this period")

	req.Period = "2024-04"
	_, err = e.companies.SubmitReview(e.ctx, uid, req)
	require.NoError(t, err)

	ratings, err := e.companies.Ratings(e.ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, ratings.Count)
	assert.InDelta(t, 3.6, ratings.Overall, 1e-9)

	_, err = e.companies.Create(e.ctx, models.CompanyRequest{Name: "Acme"})
	assertStatus(t, err, 409, "")
}

func TestRegisterLoginVerify(t *testing.T) {
	e := newEnv(t)
	e.user(t, "ada")
	require.Len(t, e.mail.links, 1)

	_, err := e.auth.Register(e.ctx, models.RegisterRequest{Name: "Ada", Email: "ADA@example.com", Password: "another1"})
	assertStatus(t, err, 409, "User already exists")

	_, err = e.auth.Login(e.ctx, models.LoginRequest{Email: "ada@example.com", Password: "wrong-password"})
	assertStatus(t, err, 401, "Invalid credentials")

	resp, err := e.auth.Login(e.ctx, models.LoginRequest{Email: "ada@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.False(t, resp.User.IsVerified)

	token := e.mail.links[0][len("http://localhost:8080/api/auth/verify/"):]
	user, err := e.auth.Verify(e.ctx, token)
	require.NoError(t, err)
	assert.True(t, user.IsVerified)

	_, err = e.auth.Verify(e.ctx, token)
	assertStatus(t, err, 404, "")
}

func TestToggleSaved(t *testing.T) {
	e := newEnv(t)
	uid := e.user(t, "ada")
	m := e.manager(t)

	saved, err := e.users.ToggleSaved(e.ctx, uid, SavedManagers, m.ID)
	require.NoError(t, err)
	assert.True(t, saved)

	list, err := e.users.Saved(e.ctx, uid)
	require.NoError(t, err)
	require.Len(t, list.Managers, 1)
	assert.Equal(t, m.ID, list.Managers[0].ID)

	saved, err = e.users.ToggleSaved(e.ctx, uid, SavedManagers, m.ID)
	require.NoError(t, err)
	assert.False(t, saved)

	_, err = e.users.ToggleSaved(e.ctx, uid, SavedInterviewers, primitive.NewObjectID())
	assertStatus(t, err, 404, "Interviewer not found")
}

func TestRepliesAndStats(t *testing.T) {
	e := newEnv(t)
	uid := e.user(t, "ada")
	m := e.manager(t)
	r := e.review(t, uid, m, 4)

	reply, err := e.replies.Create(e.ctx, uid, models.ReplyRequest{Review: r.ID.Hex(), ReviewType: models.ReviewTypeManager, Text: "thanks"})
	require.NoError(t, err)
	assert.Equal(t, "ada", reply.UserName)

	_, err = e.replies.Create(e.ctx, uid, models.ReplyRequest{Review: primitive.NewObjectID().Hex(), ReviewType: models.ReviewTypeInterviewer, Text: "?"})
	assertStatus(t, err, 404, "Review not found")

	list, err := e.replies.List(e.ctx, r.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	stats, err := e.stats.Stats(e.ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Users)
	assert.Equal(t, int64(1), stats.ManagerReviews)
	assert.InDelta(t, 4.0, stats.AverageManagerRating, 1e-9)
	assert.Zero(t, stats.InterviewerRatings)
}

func TestBranchesMaintainCompany(t *testing.T) {
	e := newEnv(t)
	uid := e.user(t, "ada")
	c := e.company(t, "Acme")

	_, err := e.resources.Branches.Create(e.ctx, uid, &models.Branch{Company: primitive.NewObjectID(), Name: "Nowhere"})
	assertStatus(t, err, 404, "Company not found")

	b, err := e.resources.Branches.Create(e.ctx, uid, &models.Branch{Company: c.ID, Name: "Lagos"})
	require.NoError(t, err)
	got, err := e.companies.Get(e.ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, []primitive.ObjectID{b.ID}, got.Branches)

	page, err := e.resources.Branches.List(e.ctx, "", map[string]string{"company": c.ID.Hex()}, Page{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)

	// moving the branch relinks it from the old company to the new one
	other := e.company(t, "Globex")
	_, err = e.resources.Branches.Update(e.ctx, uid, b.ID, &models.Branch{Company: other.ID, Name: "Lagos"})
	require.NoError(t, err)
	got, err = e.companies.Get(e.ctx, c.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Branches)
	moved, err := e.companies.Get(e.ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, []primitive.ObjectID{b.ID}, moved.Branches)

	require.NoError(t, e.resources.Branches.Delete(e.ctx, uid, b.ID))
	for _, id := range []primitive.ObjectID{c.ID, other.ID} {
		got, err = e.companies.Get(e.ctx, id)
		require.NoError(t, err)
		assert.Empty(t, got.Branches)
	}
}

func TestApplicantCannotSetStatus(t *testing.T) {
	e := newEnv(t)
	applicant := e.user(t, "ada")
	c := e.company(t, "Acme")
	job, err := e.resources.JobPostings.Create(e.ctx, applicant, &models.JobPosting{Company: c.ID, Title: "Engineer"})
	require.NoError(t, err)

	app, err := e.resources.JobApplications.Create(e.ctx, applicant, &models.JobApplication{Job: job.ID, Status: "accepted"})
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationSubmitted, app.Status)

	updated, err := e.resources.JobApplications.Update(e.ctx, applicant, app.ID,
		&models.JobApplication{Job: job.ID, CoverLetter: "hire me", Status: "accepted"})
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationSubmitted, updated.Status)
	assert.Equal(t, "hire me", updated.CoverLetter)

	stored, err := e.resources.JobApplications.Get(e.ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationSubmitted, stored.Status)
}

func TestManagerWithoutCompanyOmitsIt(t *testing.T) {
	e := newEnv(t)
	m := e.manager(t)
	assert.Nil(t, m.Company)

	got, err := e.managers.Get(e.ctx, m.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Company)

	c := e.company(t, "Acme")
	updated, err := e.managers.Update(e.ctx, m.ID, models.ManagerRequest{
		Name: "Grace", Department: m.Department.Hex(), Company: c.ID.Hex(), Position: "VP",
	})
	require.NoError(t, err)
	require.NotNil(t, updated.Company)
	assert.Equal(t, c.ID, *updated.Company)
}

func TestOwnedResourcesRejectOthers(t *testing.T) {
	e := newEnv(t)
	owner, other := e.user(t, "ada"), e.user(t, "bob")

	resume, err := e.resources.Resumes.Create(e.ctx, owner, &models.Resume{Title: "CV"})
	require.NoError(t, err)
	assert.Equal(t, owner, resume.User)

	_, err = e.resources.Resumes.Update(e.ctx, other, resume.ID, &models.Resume{Title: "mine now"})
	assertStatus(t, err, 403, "")
	assertStatus(t, e.resources.Resumes.Delete(e.ctx, other, resume.ID), 403, "")

	updated, err := e.resources.Resumes.Update(e.ctx, owner, resume.ID, &models.Resume{Title: "CV 2"})
	require.NoError(t, err)
	assert.Equal(t, owner, updated.User)
	assert.Equal(t, "CV 2", updated.Title)
}
