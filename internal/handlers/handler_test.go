package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/developia-II/ratemy-backend/internal/config"
	"github.com/developia-II/ratemy-backend/internal/services"
	"github.com/developia-II/ratemy-backend/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const testSecret = "handler-test-secret"

// newTestApp wires the routes without storage; every request exercised here must fail
// before a service touches the database.
func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	app := fiber.New(fiber.Config{
		ErrorHandler: ErrorHandler,
		JSONDecoder:  utils.StrictJSONDecoder,
	})
	h := &Handler{
		Summaries: services.NewSummaryService(config.GroqConfig{}),
		Resources: services.NewResources(nil, time.Now),
		Secret:    testSecret,
	}
	h.Routes(app)
	return app
}

func token(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func validToken(t *testing.T) string {
	t.Helper()
	signed, err := utils.GenerateJWT(primitive.NewObjectID().Hex(), []byte(testSecret), time.Hour)
	require.NoError(t, err)
	return signed
}

type result struct {
	status  int
	message string
}

func do(t *testing.T, app *fiber.App, method, path, bearer, body string) result {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if bearer != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+bearer)
	}

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var payload struct {
		Message string `json:"message"`
	}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	_ = json.Unmarshal(raw, &payload)
	return result{status: resp.StatusCode, message: payload.Message}
}

func TestAuthMiddleware(t *testing.T) {
	app := newTestApp(t)
	path := "/api/interviewers/" + primitive.NewObjectID().Hex() + "/rating"
	body := `{"rating":4}`

	t.Run("missing token", func(t *testing.T) {
		got := do(t, app, http.MethodPost, path, "", body)
		assert.Equal(t, result{http.StatusUnauthorized, "No token, authorization denied"}, got)
	})

	t.Run("garbage token", func(t *testing.T) {
		got := do(t, app, http.MethodPost, path, "not.a.jwt", body)
		assert.Equal(t, result{http.StatusUnauthorized, "Invalid token"}, got)
	})

	t.Run("expired token", func(t *testing.T) {
		expired := token(t, jwt.MapClaims{
			"userId": primitive.NewObjectID().Hex(),
			"exp":    time.Now().Add(-time.Minute).Unix(),
		})
		got := do(t, app, http.MethodPost, path, expired, body)
		assert.Equal(t, result{http.StatusUnauthorized, "Invalid token"}, got)
	})

	t.Run("token without user id", func(t *testing.T) {
		anon := token(t, jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()})
		got := do(t, app, http.MethodPost, path, anon, body)
		assert.Equal(t, result{http.StatusUnauthorized, "Malformed token"}, got)
	})

	t.Run("user id is not an object id", func(t *testing.T) {
		bad := token(t, jwt.MapClaims{"userId": "42", "exp": time.Now().Add(time.Hour).Unix()})
		got := do(t, app, http.MethodPost, path, bad, body)
		assert.Equal(t, result{http.StatusUnauthorized, "Malformed token"}, got)
	})

	t.Run("non bearer scheme", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
		req.Header.Set(fiber.HeaderAuthorization, "Basic dXNlcjpwYXNz")
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestRatingValidation(t *testing.T) {
	app := newTestApp(t)
	bearer := validToken(t)
	path := "/api/interviewers/" + primitive.NewObjectID().Hex() + "/rating"

	cases := []struct {
		name string
		body string
		want result
	}{
		{"too high", `{"rating":6}`, result{http.StatusBadRequest, "rating must be at most 5"}},
		{"too low", `{"rating":-1}`, result{http.StatusBadRequest, "rating must be at least 1"}},
		{"missing", `{"reviewText":"great"}`, result{http.StatusBadRequest, "rating is required"}},
		{"unknown field", `{"rating":4,"stars":5}`, result{http.StatusBadRequest, `unknown field "stars"`}},
		{"not json", `{"rating":`, result{http.StatusBadRequest, "Invalid request body"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, do(t, app, http.MethodPost, path, bearer, tc.body))
		})
	}
}

func TestInvalidPathIDs(t *testing.T) {
	app := newTestApp(t)
	bearer := validToken(t)

	cases := []struct {
		method, path, body string
		want               string
	}{
		{http.MethodGet, "/api/interviewers/nope", "", "Invalid interviewer id"},
		{http.MethodGet, "/api/managers/nope", "", "Invalid manager id"},
		{http.MethodGet, "/api/companies/nope/ratings", "", "Invalid company id"},
		{http.MethodPost, "/api/manager-reviews/nope/flag", "", "Invalid review id"},
		{http.MethodPost, "/api/user/saved/managers/nope", "", "Invalid manager id"},
		{http.MethodGet, "/api/reviews", "", "Invalid interviewer id"},
		{http.MethodGet, "/api/branches/nope", "", "Invalid branch id"},
		{http.MethodGet, "/api/branches?company=nope", "", "Invalid company id"},
	}
	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			got := do(t, app, tc.method, tc.path, bearer, tc.body)
			assert.Equal(t, result{http.StatusBadRequest, tc.want}, got)
		})
	}
}

func TestRequestBodyValidation(t *testing.T) {
	app := newTestApp(t)
	bearer := validToken(t)
	company := primitive.NewObjectID().Hex()

	cases := []struct {
		name, path, body, want string
	}{
		{
			"company review period",
			"/api/company-reviews",
			`{"companyId":"` + company + `","workLifeBalance":3,"compensation":3,"culture":3,"careerGrowth":3,"management":3,"title":"ok","period":"2024-13"}`,
			"period must look like YYYY-MM",
		},
		{
			"company review dimension",
			"/api/company-reviews",
			`{"companyId":"` + company + `","workLifeBalance":9,"compensation":3,"culture":3,"careerGrowth":3,"management":3,"title":"ok"}`,
			"workLifeBalance must be at most 5",
		},
		{
			"manager review rating",
			"/api/manager-reviews",
			`{"managerId":"` + company + `","rating":0.5}`,
			"rating must be at least 1",
		},
		{
			"reply type",
			"/api/replies",
			`{"reviewId":"` + company + `","reviewType":"company","text":"hi"}`,
			"reviewType must be one of: interviewer manager",
		},
		{
			"lookup name",
			"/api/skills",
			`{}`,
			"name is required",
		},
		{
			"register password",
			"/api/auth/register",
			`{"name":"Ada","email":"ada@example.com","password":"123"}`,
			"password must be at least 6",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := do(t, app, http.MethodPost, tc.path, bearer, tc.body)
			assert.Equal(t, result{http.StatusBadRequest, tc.want}, got)
		})
	}
}

func TestErrorHandler(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Get("/missing", func(c *fiber.Ctx) error { return utils.NotFound("Manager not found") })
	app.Get("/boom", func(c *fiber.Ctx) error { return errors.New("connection reset by peer") })
	app.Get("/limited", func(c *fiber.Ctx) error { return utils.RateLimited("You can only flag once every 24 hours") })

	assert.Equal(t, result{http.StatusNotFound, "Manager not found"}, do(t, app, http.MethodGet, "/missing", "", ""))
	assert.Equal(t, result{http.StatusInternalServerError, "Internal server error"}, do(t, app, http.MethodGet, "/boom", "", ""))
	assert.Equal(t, result{http.StatusTooManyRequests, "You can only flag once every 24 hours"}, do(t, app, http.MethodGet, "/limited", "", ""))
	assert.Equal(t, http.StatusNotFound, do(t, app, http.MethodGet, "/nowhere", "", "").status)
}

func TestOptionalAuthNeverRejects(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Get("/", OptionalAuth(testSecret), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": viewer(c).Hex()})
	})

	anon := do(t, app, http.MethodGet, "/", "", "")
	assert.Equal(t, http.StatusOK, anon.status)
	assert.Equal(t, primitive.NilObjectID.Hex(), anon.message)

	bad := do(t, app, http.MethodGet, "/", "garbage", "")
	assert.Equal(t, http.StatusOK, bad.status)
	assert.Equal(t, primitive.NilObjectID.Hex(), bad.message)

	id := primitive.NewObjectID()
	signed, err := utils.GenerateJWT(id.Hex(), []byte(testSecret), time.Hour)
	require.NoError(t, err)
	ok := do(t, app, http.MethodGet, "/", signed, "")
	assert.Equal(t, id.Hex(), ok.message)
}
