package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

// UserHandler serves accounts and subscriptions
type UserHandler struct {
	auth     service.IAuthService
	users    service.IUserService
	pageSize int
	log      *zap.Logger
}

// NewUserHandler creates a new UserHandler instance
func NewUserHandler(auth service.IAuthService, users service.IUserService, pageSize int, log *zap.Logger) *UserHandler {
	return &UserHandler{auth: auth, users: users, pageSize: pageSize, log: log}
}

// RegisterRoutes registers the user routes
func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup, guards Guards) {
	users := router.Group("/users")
	{
		users.POST("", h.Register)
		users.GET("", guards.Optional, h.ListUsers)
		users.GET("/me", guards.Required, h.Me)
		users.GET("/subscriptions", guards.Required, h.Subscriptions)
		users.POST("/set_password", guards.Required, h.SetPassword)
		users.GET("/:id", guards.Optional, h.GetUser)
		users.POST("/:id/subscribe", guards.Required, h.Subscribe)
		users.DELETE("/:id/subscribe", guards.Required, h.Unsubscribe)
	}
}

// Register creates an account
func (h *UserHandler) Register(c *gin.Context) {
	var req types.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, err := h.auth.Register(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, types.NewUserResponse(user, false))
}

// ListUsers returns a page of users
func (h *UserHandler) ListUsers(c *gin.Context) {
	page, ok := parsePage(c, h.pageSize)
	if !ok {
		return
	}

	result, err := h.users.ListUsers(c.Request.Context(), middleware.UserID(c), page)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, paginate(c, page, result))
}

// GetUser returns a user profile
func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	user, err := h.users.GetUser(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// Me returns the profile of the caller
func (h *UserHandler) Me(c *gin.Context) {
	userID := middleware.UserID(c)
	user, err := h.users.GetUser(c.Request.Context(), userID, userID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// SetPassword changes the password of the caller
func (h *UserHandler) SetPassword(c *gin.Context) {
	var req types.SetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.auth.SetPassword(c.Request.Context(), middleware.UserID(c), req.CurrentPassword, req.NewPassword); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Subscriptions returns the authors the caller follows
func (h *UserHandler) Subscriptions(c *gin.Context) {
	page, ok := parsePage(c, h.pageSize)
	if !ok {
		return
	}
	recipesLimit, ok := parseRecipesLimit(c)
	if !ok {
		return
	}

	result, err := h.users.Subscriptions(c.Request.Context(), middleware.UserID(c), page, recipesLimit)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, paginate(c, page, result))
}

// Subscribe follows an author
func (h *UserHandler) Subscribe(c *gin.Context) {
	authorID, ok := parseID(c, "id")
	if !ok {
		return
	}
	recipesLimit, ok := parseRecipesLimit(c)
	if !ok {
		return
	}

	sub, err := h.users.Subscribe(c.Request.Context(), middleware.UserID(c), authorID, recipesLimit)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, sub)
}

// Unsubscribe stops following an author
func (h *UserHandler) Unsubscribe(c *gin.Context) {
	authorID, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.users.Unsubscribe(c.Request.Context(), middleware.UserID(c), authorID); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
