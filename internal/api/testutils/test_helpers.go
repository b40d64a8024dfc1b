package testutils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/krishmajumdar12/Leaps-sub000/internal/api"
	"github.com/krishmajumdar12/Leaps-sub000/internal/models"
	"github.com/krishmajumdar12/Leaps-sub000/internal/service"
	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"
)

const testJWTSecret = "test-secret-key"

// TestContext holds all dependencies for tests
type TestContext struct {
	Router  *gin.Engine
	Repo    *FakeRepository
	Service service.Service

	// A creator and a second member, registered up front.
	CreatorID   string
	CreatorJWT  string
	MemberID    string
	MemberJWT   string
	OutsiderID  string
	OutsiderJWT string
}

// SetupTestContext creates a router backed by an in-memory repository
// with three registered users: a trip creator, a second member and a
// user who belongs to nothing.
func SetupTestContext(t *testing.T) *TestContext {
	t.Helper()

	repo := NewFakeRepository()
	svc := service.NewDefaultService(repo, testJWTSecret)
	handler := api.NewHandler(svc)

	gin.SetMode(gin.TestMode)
	router := gin.New()

	// Add middleware for JWT secret
	router.Use(func(c *gin.Context) {
		c.Set("jwtSecret", []byte(testJWTSecret))
		c.Next()
	})

	handler.SetupRoutes(router)

	creatorID, creatorJWT := CreateTestUser(t, repo, "creator@example.com", "Casey Creator")
	memberID, memberJWT := CreateTestUser(t, repo, "member@example.com", "Morgan Member")
	outsiderID, outsiderJWT := CreateTestUser(t, repo, "outsider@example.com", "Ollie Outsider")

	return &TestContext{
		Router:      router,
		Repo:        repo,
		Service:     svc,
		CreatorID:   creatorID,
		CreatorJWT:  creatorJWT,
		MemberID:    memberID,
		MemberJWT:   memberJWT,
		OutsiderID:  outsiderID,
		OutsiderJWT: outsiderJWT,
	}
}

// CreateTestUser registers a user directly in the repository and
// returns their id and a signed JWT.
func CreateTestUser(t *testing.T, repo *FakeRepository, email, name string) (string, string) {
	t.Helper()

	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("testpassword"), bcrypt.DefaultCost)

	user := &models.User{
		ID:       uuid.New().String(),
		Email:    email,
		Name:     name,
		Password: string(hashedPassword),
	}

	err := repo.CreateUser(context.Background(), user)
	assert.NoError(t, err, "Failed to create test user")

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": user.ID,
		"exp": time.Now().Add(24 * time.Hour).Unix(),
		"iat": time.Now().Unix(),
	})

	tokenString, err := token.SignedString([]byte(testJWTSecret))
	assert.NoError(t, err, "Failed to generate JWT token")

	return user.ID, tokenString
}

// CreateTestTrip creates a trip owned by the context's creator with the
// second user added as an edit member, and returns the trip id.
func (tc *TestContext) CreateTestTrip(t *testing.T) string {
	t.Helper()

	w := PerformRequest(tc.Router, http.MethodPost, "/api/trips", models.CreateTripRequest{
		Name:        "Test Trip",
		Description: "A trip for unit testing",
		Destination: "Lisbon",
		StartDate:   "2026-09-01",
		EndDate:     "2026-09-08",
	}, AuthHeaders(tc.CreatorJWT))
	assert.Equal(t, http.StatusCreated, w.Code)

	var resp models.TripResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err)
	assert.NotEmpty(t, resp.Trip.ID)

	w = PerformRequest(tc.Router, http.MethodPost, "/api/trips/add-member", models.AddMemberRequest{
		TripID: resp.Trip.ID,
		Email:  "member@example.com",
		Role:   models.RoleEdit,
	}, AuthHeaders(tc.CreatorJWT))
	assert.Equal(t, http.StatusCreated, w.Code)

	return resp.Trip.ID
}

// AddTestItem attaches an item with the given price to a trip as the
// creator and returns the item id.
func (tc *TestContext) AddTestItem(t *testing.T, tripID string, price float64) string {
	t.Helper()

	w := PerformRequest(tc.Router, http.MethodPost, "/api/trips/add-item", models.AddItemRequest{
		TripID:   tripID,
		ItemType: "event",
		ItemID:   uuid.New().String(),
		Price:    &price,
	}, AuthHeaders(tc.CreatorJWT))
	assert.Equal(t, http.StatusCreated, w.Code)

	var resp models.AddItemResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err)
	assert.NotEmpty(t, resp.Item.ID)

	return resp.Item.ID
}

// PerformRequest executes an HTTP request against the router
func PerformRequest(r http.Handler, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer

	if body != nil {
		jsonBody, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBody)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// AuthHeaders returns headers with Authorization token
func AuthHeaders(token string) map[string]string {
	return map[string]string{
		"Authorization": fmt.Sprintf("Bearer %s", token),
	}
}
