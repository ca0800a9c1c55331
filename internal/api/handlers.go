package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/bricks-admin/dashboard/internal/models"
	"github.com/bricks-admin/dashboard/internal/service"
	"github.com/bricks-admin/dashboard/internal/utils"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Handler serves the dashboard REST API
type Handler struct {
	svc    service.Service
	logger *utils.Logger
}

// NewHandler creates a new Handler
func NewHandler(svc service.Service, logger *utils.Logger) *Handler {
	if logger == nil {
		logger = utils.Discard()
	}
	return &Handler{svc: svc, logger: logger}
}

// SetupRoutes registers every endpoint under /api. An empty allowedOrigins
// list allows any origin.
func (h *Handler) SetupRoutes(router *gin.Engine, allowedOrigins []string) {
	corsConfig := cors.DefaultConfig()
	if len(allowedOrigins) == 0 {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = allowedOrigins
		corsConfig.AllowCredentials = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "PUT", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("Origin", "Content-Type", "Authorization", RequestIDHeader, "Idempotency-Key")
	corsConfig.AddExposeHeaders("Content-Length", RequestIDHeader)
	router.Use(cors.New(corsConfig))
	router.Use(RequestLogger(h.logger))

	api := router.Group("/api")

	auth := api.Group("/auth")
	auth.POST("/login", h.Login)
	auth.POST("/logout", AuthMiddleware(), h.Logout)
	auth.POST("/register", AuthMiddleware(), RequireStaff(), h.Register)

	protected := api.Group("")
	protected.Use(AuthMiddleware())

	users := protected.Group("/users", RequireStaff())
	users.GET("/users", h.ListUsers)
	users.PUT("/update/:userId", h.UpdateUser)
	users.DELETE("/delete/:userId", h.DeleteUser)

	protected.GET("/getBalance/:userId", h.GetBalance)
	balance := protected.Group("/balance", RequireStaff())
	balance.POST("/add", h.AddBalance)
	balance.PUT("/edit/:transactionId", h.EditBalance)
	balance.DELETE("/delete/:transactionId", h.DeleteBalance)
	balance.GET("/admin", h.AdminBalance)

	tokens := protected.Group("/token")
	tokens.GET("/all/:userId", h.ListTokens)
	tokens.GET("/admin/all", RequireStaff(), h.ListAllTokens)
	tokens.POST("/create", RequireStaff(), h.CreateToken)
	tokens.PUT("/update", RequireStaff(), h.UpdateToken)
	tokens.PUT("/confirm", RequireStaff(), h.ConfirmToken)
	tokens.DELETE("/delete/:tokenId", RequireStaff(), h.DeleteToken)

	messages := protected.Group("/message")
	messages.GET("/all", h.ListBedash)
	messages.POST("/add", RequireStaff(), h.AddBedash)
	messages.PUT("/confirm/:id", h.ConfirmBedash)
}

var errorCodes = []struct {
	err    error
	status int
	code   string
}{
	{service.ErrValidation, http.StatusBadRequest, "VALIDATION_ERROR"},
	{service.ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
	{service.ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
	{service.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
	{service.ErrConflict, http.StatusConflict, "CONFLICT"},
	{service.ErrInvalidTransition, http.StatusConflict, "INVALID_TRANSITION"},
}

// respondError maps a service error onto its HTTP status. Unknown errors are
// logged and reported as 500 without their text.
func (h *Handler) respondError(c *gin.Context, funcName string, err error) {
	for _, e := range errorCodes {
		if errors.Is(err, e.err) {
			message := strings.TrimSuffix(err.Error(), ": "+e.err.Error())
			c.JSON(e.status, models.ErrorResponse{Status: "error", Code: e.code, Message: message, Msg: message})
			return
		}
	}
	h.logger.LogError("api", funcName, c.Request.Method+" "+c.FullPath(), c.GetString(requestIDKey), err)
	c.JSON(http.StatusInternalServerError, models.ErrorResponse{
		Status:  "error",
		Code:    "INTERNAL_ERROR",
		Message: "Internal server error",
		Msg:     "Internal server error",
	})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Status:  "error",
		Code:    "INVALID_REQUEST",
		Message: message,
		Msg:     message,
	})
}

// pathID reads a positive integer path parameter, answering 400 when it is not one
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "Invalid "+name)
		return 0, false
	}
	return id, true
}

func list[T any](c *gin.Context, msg string, items []T) {
	total := len(items)
	c.JSON(http.StatusOK, models.Envelope[[]T]{Msg: msg, Data: items, Total: &total})
}

func respond[T any](c *gin.Context, status int, msg string, data T) {
	c.JSON(status, models.Envelope[T]{Msg: msg, Data: data})
}
