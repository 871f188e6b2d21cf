package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
)

// AddFavorite bookmarks a recipe for userID
func (s *RecipeService) AddFavorite(ctx context.Context, userID, recipeID uint) (*types.ShortRecipe, error) {
	return s.addRelation(ctx, &models.Favorite{UserID: userID, RecipeID: recipeID}, recipeID, "favorites")
}

// RemoveFavorite removes a bookmark of userID
func (s *RecipeService) RemoveFavorite(ctx context.Context, userID, recipeID uint) error {
	return s.removeRelation(ctx, &models.Favorite{}, userID, recipeID, "favorites")
}

// AddToShoppingCart puts a recipe into the shopping cart of userID
func (s *RecipeService) AddToShoppingCart(ctx context.Context, userID, recipeID uint) (*types.ShortRecipe, error) {
	return s.addRelation(ctx, &models.ShoppingCart{UserID: userID, RecipeID: recipeID}, recipeID, "shopping cart")
}

// RemoveFromShoppingCart takes a recipe out of the shopping cart of userID
func (s *RecipeService) RemoveFromShoppingCart(ctx context.Context, userID, recipeID uint) error {
	return s.removeRelation(ctx, &models.ShoppingCart{}, userID, recipeID, "shopping cart")
}

// addRelation inserts a (user, recipe) join row. Duplicates are rejected by
// the unique index on the pair.
func (s *RecipeService) addRelation(ctx context.Context, row interface{}, recipeID uint, list string) (*types.ShortRecipe, error) {
	db := s.db.WithContext(ctx)

	recipe, err := findRecipe(db, recipeID)
	if err != nil {
		return nil, err
	}

	if err := db.Omit("User", "Recipe").Create(row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("recipe is already in %s: %w", list, ErrConflict)
		}
		return nil, fmt.Errorf("failed to add recipe to %s: %w", list, err)
	}

	s.log.Debug("added recipe", zap.String("list", list), zap.Uint("recipe_id", recipeID))
	short := types.NewShortRecipe(recipe)
	return &short, nil
}

func (s *RecipeService) removeRelation(ctx context.Context, model interface{}, userID, recipeID uint, list string) error {
	db := s.db.WithContext(ctx)

	if _, err := findRecipe(db, recipeID); err != nil {
		return err
	}

	res := db.Where("user_id = ? AND recipe_id = ?", userID, recipeID).Delete(model)
	if res.Error != nil {
		return fmt.Errorf("failed to remove recipe from %s: %w", list, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("recipe is not in %s: %w", list, ErrNotFound)
	}
	return nil
}
