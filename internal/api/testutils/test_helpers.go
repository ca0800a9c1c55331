package testutils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/bricks-admin/dashboard/internal/api"
	"github.com/bricks-admin/dashboard/internal/config"
	"github.com/bricks-admin/dashboard/internal/models"
	"github.com/bricks-admin/dashboard/internal/repository"
	"github.com/bricks-admin/dashboard/internal/service"
	"github.com/bricks-admin/dashboard/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// TestPassword is the password of every seeded account
const TestPassword = "testpassword"

// TestAccount is a seeded account and its bearer credential
type TestAccount struct {
	User models.User
	JWT  string
}

// TestContext holds all dependencies for tests
type TestContext struct {
	Router     *gin.Engine
	Repository repository.Repository
	Service    service.Service
	JWTSecret  []byte
	DB         *sqlx.DB

	SuperAdmin TestAccount
	Admin      TestAccount
	User       TestAccount
	OtherUser  TestAccount
}

// SetupTestContext creates a new test context with initialized dependencies.
// It runs on the in-memory repository unless TEST_DATABASE=postgres.
func SetupTestContext(t *testing.T) *TestContext {
	// Load configuration from environment
	cfg := config.LoadConfig()

	// Use a test JWT secret
	cfg.Auth.JWTSecret = "test-secret-key"

	var (
		repo repository.Repository
		db   *sqlx.DB
	)
	if os.Getenv("TEST_DATABASE") == "postgres" {
		cfg.Database.DBName = cfg.Database.TestDBName
		var err error
		db, err = config.SetupDatabase(cfg)
		require.NoError(t, err, "Failed to set up test database")
		repo = repository.NewPostgresRepository(db)
		cleanupTestDatabase(t, repo)
	} else {
		repo = repository.NewMemoryRepository()
	}

	logger := utils.Discard()
	svc := service.NewDefaultService(repo, cfg.Auth.JWTSecret, time.Hour, logger)
	handler := api.NewHandler(svc, logger)

	// Set up Gin router
	gin.SetMode(gin.TestMode)
	router := gin.New()

	// Add middleware for JWT secret
	router.Use(func(c *gin.Context) {
		c.Set("jwtSecret", []byte(cfg.Auth.JWTSecret))
		c.Next()
	})
	handler.SetupRoutes(router, nil)

	tc := &TestContext{
		Router:     router,
		Repository: repo,
		Service:    svc,
		JWTSecret:  []byte(cfg.Auth.JWTSecret),
		DB:         db,
	}
	tc.SuperAdmin = tc.CreateAccount(t, "Root", "root@example.com", models.RoleSuperAdmin)
	tc.Admin = tc.CreateAccount(t, "Anna Admin", "admin@example.com", models.RoleAdmin)
	tc.User = tc.CreateAccount(t, "Uma User", "user@example.com", models.RoleUser)
	tc.OtherUser = tc.CreateAccount(t, "Omar User", "other@example.com", models.RoleUser)
	return tc
}

// CleanupTestContext cleans up test resources
func CleanupTestContext(tc *TestContext) {
	if tc.DB != nil {
		cleanupTestDatabase(nil, tc.Repository)
		tc.DB.Close()
	}
}

// cleanupTestDatabase removes every row the tests may have written
func cleanupTestDatabase(t *testing.T, repo repository.Repository) {
	pgRepo, ok := repo.(*repository.PostgresRepository)
	if !ok {
		return
	}
	for _, table := range []string{"bedash_items", "tokens", "transactions", "users"} {
		if _, err := pgRepo.GetDB().Exec("DELETE FROM " + table); err != nil && t != nil {
			t.Logf("Warning: Failed to clean %s: %v", table, err)
		}
	}
}

// CreateAccount stores an active account with TestPassword and signs a bearer credential for it
func (tc *TestContext) CreateAccount(t *testing.T, name, email string, role models.Role) TestAccount {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	require.NoError(t, err)

	user := &models.User{
		Name:     name,
		Email:    email,
		Password: string(hashedPassword),
		Role:     role,
		IsActive: true,
	}
	require.NoError(t, tc.Repository.CreateUser(context.Background(), user), "Failed to create test user")

	return TestAccount{User: *user, JWT: SignJWT(t, tc.JWTSecret, *user, time.Hour)}
}

// SignJWT issues a bearer credential for user valid for ttl; a negative ttl yields an expired one
func SignJWT(t *testing.T, secret []byte, user models.User, ttl time.Duration) string {
	now := time.Now()
	claims := models.Claims{
		ID:   user.ID,
		Name: user.Name,
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	require.NoError(t, err, "Failed to generate JWT token")
	return tokenString
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

// DecodeEnvelope unmarshals a {msg, data, total} response body
func DecodeEnvelope[T any](t *testing.T, w *httptest.ResponseRecorder) models.Envelope[T] {
	var env models.Envelope[T]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}
