package api_test

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/bricks-admin/dashboard/internal/api/testutils"
	"github.com/bricks-admin/dashboard/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogin(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	defer testutils.CleanupTestContext(testCtx)

	// Test case 1: Successful login
	loginReq := models.LoginRequest{
		Email:    "user@example.com",
		Password: testutils.TestPassword,
	}

	w := testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/auth/login", loginReq, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)

	// the credential encodes id, name and role
	claims := &models.Claims{}
	_, _, err := jwt.NewParser().ParseUnverified(resp.Token, claims)
	require.NoError(t, err)
	assert.Equal(t, testCtx.User.User.ID, claims.ID)
	assert.Equal(t, "Uma User", claims.Name)
	assert.Equal(t, models.RoleUser, claims.Role)

	// Test case 2: Invalid credentials
	w = testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/auth/login", models.LoginRequest{
		Email:    "user@example.com",
		Password: "wrongpassword",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Test case 3: User not found
	w = testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/auth/login", models.LoginRequest{
		Email:    "nonexistent@example.com",
		Password: testutils.TestPassword,
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Test case 4: Missing fields
	w = testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/auth/login", models.LoginRequest{
		Email: "user@example.com",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoginInactiveAccount(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	defer testutils.CleanupTestContext(testCtx)

	inactive := false
	w := testutils.PerformRequest(
		testCtx.Router,
		http.MethodPut,
		"/api/users/update/"+itoa(testCtx.User.User.ID),
		models.UpdateUserRequest{IsActive: &inactive},
		testutils.AuthHeaders(testCtx.Admin.JWT),
	)
	require.Equal(t, http.StatusOK, w.Code)

	w = testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/auth/login", models.LoginRequest{
		Email:    "user@example.com",
		Password: testutils.TestPassword,
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	defer testutils.CleanupTestContext(testCtx)

	path := "/api/token/all/" + itoa(testCtx.User.User.ID)

	// Test case 1: No header
	w := testutils.PerformRequest(testCtx.Router, http.MethodGet, path, nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Test case 2: Wrong scheme
	w = testutils.PerformRequest(testCtx.Router, http.MethodGet, path, nil, map[string]string{
		"Authorization": "Token " + testCtx.User.JWT,
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Test case 3: Expired credential
	expired := testutils.SignJWT(t, testCtx.JWTSecret, testCtx.User.User, -time.Minute)
	w = testutils.PerformRequest(testCtx.Router, http.MethodGet, path, nil, testutils.AuthHeaders(expired))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Test case 4: Signed with another secret
	forged := testutils.SignJWT(t, []byte("another-secret"), testCtx.User.User, time.Hour)
	w = testutils.PerformRequest(testCtx.Router, http.MethodGet, path, nil, testutils.AuthHeaders(forged))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Test case 5: Valid
	w = testutils.PerformRequest(testCtx.Router, http.MethodGet, path, nil, testutils.AuthHeaders(testCtx.User.JWT))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRegister(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	defer testutils.CleanupTestContext(testCtx)

	newUser := models.RegisterRequest{
		Name:     "New User",
		Email:    "newuser@example.com",
		Password: "Password123",
		Role:     models.RoleUser,
	}

	// Test case 1: Admin creates a user account
	w := testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/auth/register", newUser,
		testutils.AuthHeaders(testCtx.Admin.JWT))
	require.Equal(t, http.StatusCreated, w.Code)

	created := testutils.DecodeEnvelope[models.User](t, w)
	assert.Equal(t, "newuser@example.com", created.Data.Email)
	assert.True(t, created.Data.IsActive)
	require.NotNil(t, created.Data.CreatedBy)
	assert.Equal(t, testCtx.Admin.User.ID, *created.Data.CreatedBy)
	assert.NotContains(t, w.Body.String(), "password")

	// Test case 2: Duplicate email
	w = testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/auth/register", newUser,
		testutils.AuthHeaders(testCtx.Admin.JWT))
	assert.Equal(t, http.StatusConflict, w.Code)

	// Test case 3: Admin cannot create an admin
	newAdmin := models.RegisterRequest{
		Name:     "New Admin",
		Email:    "newadmin@example.com",
		Password: "Password123",
		Role:     models.RoleAdmin,
	}
	w = testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/auth/register", newAdmin,
		testutils.AuthHeaders(testCtx.Admin.JWT))
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Test case 4: Superadmin can
	w = testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/auth/register", newAdmin,
		testutils.AuthHeaders(testCtx.SuperAdmin.JWT))
	assert.Equal(t, http.StatusCreated, w.Code)

	// Test case 5: Plain users cannot register anyone
	w = testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/auth/register", models.RegisterRequest{
		Name:     "Someone",
		Email:    "someone@example.com",
		Password: "Password123",
		Role:     models.RoleUser,
	}, testutils.AuthHeaders(testCtx.User.JWT))
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Test case 6: Invalid request (missing password, unknown role)
	w = testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/auth/register", map[string]string{
		"name":  "Broken",
		"email": "broken@example.com",
		"role":  "owner",
	}, testutils.AuthHeaders(testCtx.SuperAdmin.JWT))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogout(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	defer testutils.CleanupTestContext(testCtx)

	w := testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/auth/logout", nil,
		testutils.AuthHeaders(testCtx.User.JWT))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Logged out")
}
