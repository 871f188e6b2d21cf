package router

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/api"
	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/service"
)

// Dependencies are the services and settings the routes are built from
type Dependencies struct {
	DB      *gorm.DB
	Auth    service.IAuthService
	Users   service.IUserService
	Catalog service.ICatalogService
	Recipes service.IRecipeService

	// RecipeLimiter limits recipe creation; nil disables the limit
	RecipeLimiter middleware.Limiter

	CORSOrigins []string
	// MediaDir is served under MediaURL when images are stored locally
	MediaDir string
	MediaURL string
	PageSize int
	Log      *zap.Logger
}

// SetupRouter configures the application routes
func SetupRouter(deps Dependencies) (*gin.Engine, error) {
	if err := api.RegisterBindingValidators(); err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}

	router := gin.New()
	router.Use(
		middleware.Recovery(deps.Log),
		middleware.RequestLogger(deps.Log),
		middleware.CORS(deps.CORSOrigins),
	)

	router.GET("/health", api.HealthCheck(deps.DB))
	if deps.MediaDir != "" && deps.MediaURL != "" {
		router.Static(deps.MediaURL, deps.MediaDir)
	}

	guards := api.Guards{
		Required: middleware.AuthMiddleware(deps.Auth),
		Optional: middleware.OptionalAuth(deps.Auth),
	}
	if deps.RecipeLimiter != nil {
		guards.RecipeCreate = middleware.RateLimit(deps.RecipeLimiter, deps.Log)
	}

	routes := router.Group("/api")
	api.NewAuthHandler(deps.Auth, deps.Log).RegisterRoutes(routes, guards)
	api.NewUserHandler(deps.Auth, deps.Users, deps.PageSize, deps.Log).RegisterRoutes(routes, guards)
	api.NewCatalogHandler(deps.Catalog, deps.Log).RegisterRoutes(routes)
	api.NewRecipeHandler(deps.Recipes, deps.PageSize, deps.Log).RegisterRoutes(routes, guards)

	return router, nil
}
