package tests

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/krishmajumdar12/Leaps-sub000/internal/api/testutils"
	"github.com/krishmajumdar12/Leaps-sub000/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignUpAndLogin(t *testing.T) {
	tc := testutils.SetupTestContext(t)

	w := testutils.PerformRequest(tc.Router, http.MethodPost, "/api/auth/signup", models.SignUpRequest{
		Email:    "newuser@example.com",
		Password: "password123",
		Name:     "New User",
	}, nil)
	assert.Equal(t, http.StatusCreated, w.Code)

	var signup models.AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &signup))
	assert.Equal(t, "success", signup.Status)
	assert.NotEmpty(t, signup.UserID)
	assert.Equal(t, "newuser@example.com", signup.Email)
	assert.Empty(t, signup.Token, "signup does not issue a token; login does")

	w = testutils.PerformRequest(tc.Router, http.MethodPost, "/api/auth/login", models.LoginRequest{
		Email:    "newuser@example.com",
		Password: "password123",
	}, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var login models.AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))
	assert.NotEmpty(t, login.Token)
	assert.Equal(t, signup.UserID, login.UserID)
}

func TestSignUpDuplicateEmail(t *testing.T) {
	tc := testutils.SetupTestContext(t)

	req := models.SignUpRequest{
		Email:    "dup@example.com",
		Password: "password123",
		Name:     "First",
	}

	w := testutils.PerformRequest(tc.Router, http.MethodPost, "/api/auth/signup", req, nil)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = testutils.PerformRequest(tc.Router, http.MethodPost, "/api/auth/signup", req, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestLoginWrongPassword(t *testing.T) {
	tc := testutils.SetupTestContext(t)

	w := testutils.PerformRequest(tc.Router, http.MethodPost, "/api/auth/login", models.LoginRequest{
		Email:    "creator@example.com",
		Password: "not-the-password",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = testutils.PerformRequest(tc.Router, http.MethodPost, "/api/auth/login", models.LoginRequest{
		Email:    "nobody@example.com",
		Password: "testpassword",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	tc := testutils.SetupTestContext(t)

	w := testutils.PerformRequest(tc.Router, http.MethodGet, "/api/trips", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = testutils.PerformRequest(tc.Router, http.MethodGet, "/api/trips", nil, testutils.AuthHeaders("garbage-token"))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
