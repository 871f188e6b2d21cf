package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

type RecipeHandler struct {
	recipes  service.IRecipeService
	pageSize int
	log      *zap.Logger
}

func NewRecipeHandler(recipes service.IRecipeService, pageSize int, log *zap.Logger) *RecipeHandler {
	return &RecipeHandler{
		recipes:  recipes,
		pageSize: pageSize,
		log:      log,
	}
}

func (h *RecipeHandler) RegisterRoutes(router *gin.RouterGroup, guards Guards) {
	create := []gin.HandlerFunc{guards.Required}
	if guards.RecipeCreate != nil {
		create = append(create, guards.RecipeCreate)
	}

	recipes := router.Group("/recipes")
	{
		recipes.GET("", guards.Optional, h.ListRecipes)
		recipes.POST("", append(create, h.CreateRecipe)...)
		recipes.GET("/download_shopping_cart", guards.Required, h.DownloadShoppingCart)
		recipes.GET("/:id", guards.Optional, h.GetRecipe)
		recipes.PATCH("/:id", guards.Required, h.UpdateRecipe)
		recipes.DELETE("/:id", guards.Required, h.DeleteRecipe)
		recipes.POST("/:id/favorite", guards.Required, h.FavoriteRecipe)
		recipes.DELETE("/:id/favorite", guards.Required, h.UnfavoriteRecipe)
		recipes.POST("/:id/shopping_cart", guards.Required, h.AddToShoppingCart)
		recipes.DELETE("/:id/shopping_cart", guards.Required, h.RemoveFromShoppingCart)
	}
}

// ListRecipes supports the author, tags, is_favorited and
// is_in_shopping_cart filters
func (h *RecipeHandler) ListRecipes(c *gin.Context) {
	page, ok := parsePage(c, h.pageSize)
	if !ok {
		return
	}

	filter := types.RecipeFilter{
		TagSlugs:         c.QueryArray("tags"),
		IsFavorited:      queryFlag(c, "is_favorited"),
		IsInShoppingCart: queryFlag(c, "is_in_shopping_cart"),
		Page:             page,
	}
	if raw := c.Query("author"); raw != "" {
		author, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid author"})
			return
		}
		filter.AuthorID = uint(author)
	}

	result, err := h.recipes.ListRecipes(c.Request.Context(), middleware.UserID(c), filter)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, paginate(c, page, result))
}

func (h *RecipeHandler) GetRecipe(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	recipe, err := h.recipes.GetRecipe(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

func (h *RecipeHandler) CreateRecipe(c *gin.Context) {
	var req types.RecipeWriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	recipe, err := h.recipes.CreateRecipe(c.Request.Context(), middleware.UserID(c), &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, recipe)
}

func (h *RecipeHandler) UpdateRecipe(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req types.RecipeWriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	recipe, err := h.recipes.UpdateRecipe(c.Request.Context(), middleware.UserID(c), id, &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

func (h *RecipeHandler) DeleteRecipe(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.recipes.DeleteRecipe(c.Request.Context(), middleware.UserID(c), id); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RecipeHandler) FavoriteRecipe(c *gin.Context) {
	h.addToList(c, h.recipes.AddFavorite)
}

func (h *RecipeHandler) UnfavoriteRecipe(c *gin.Context) {
	h.removeFromList(c, h.recipes.RemoveFavorite)
}

func (h *RecipeHandler) AddToShoppingCart(c *gin.Context) {
	h.addToList(c, h.recipes.AddToShoppingCart)
}

func (h *RecipeHandler) RemoveFromShoppingCart(c *gin.Context) {
	h.removeFromList(c, h.recipes.RemoveFromShoppingCart)
}

// DownloadShoppingCart sends the aggregated shopping list as text, or as a
// PDF with ?format=pdf
func (h *RecipeHandler) DownloadShoppingCart(c *gin.Context) {
	items, err := h.recipes.ShoppingList(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	if c.Query("format") == "pdf" {
		body, err := service.RenderShoppingListPDF(items)
		if err != nil {
			respondError(c, h.log, err)
			return
		}
		c.Header("Content-Disposition", "attachment; filename=groceries_list.pdf")
		c.Data(http.StatusOK, "application/pdf", body)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=groceries_list.txt")
	c.Data(http.StatusOK, "text/plain; charset=utf-8", service.RenderShoppingList(items))
}

func (h *RecipeHandler) addToList(c *gin.Context, add func(ctx context.Context, userID, recipeID uint) (*types.ShortRecipe, error)) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	short, err := add(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, short)
}

func (h *RecipeHandler) removeFromList(c *gin.Context, remove func(ctx context.Context, userID, recipeID uint) error) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := remove(c.Request.Context(), middleware.UserID(c), id); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
