package testhelpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/models"
)

func TestNewTestDB(t *testing.T) {
	db := NewTestDB(t)
	assertSchema(t, db)
}

func TestPostgresMigrations(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container-based test in short mode")
	}
	db := SetupPostgresDB(t)
	assertSchema(t, db)
}

func assertSchema(t *testing.T, db *gorm.DB) {
	t.Helper()

	author := CreateTestUser(t, db, "author")
	follower := CreateTestUser(t, db, "follower")
	tag := CreateTestTag(t, db, "breakfast")
	flour := CreateTestIngredient(t, db, "flour", "g")

	recipe := CreateTestRecipe(t, db, author, "pancakes", []*models.Tag{tag}, map[*models.Ingredient]int{flour: 200})
	assert.NotZero(t, recipe.ID)

	var loaded models.Recipe
	require.NoError(t, db.Preload("Tags").Preload("Ingredients").First(&loaded, recipe.ID).Error)
	assert.Len(t, loaded.Tags, 1)
	require.Len(t, loaded.Ingredients, 1)
	assert.Equal(t, 200, loaded.Ingredients[0].Amount)

	// Unique pairs are enforced by the storage layer.
	require.NoError(t, db.Create(&models.Favorite{UserID: follower.ID, RecipeID: recipe.ID}).Error)
	err := db.Create(&models.Favorite{UserID: follower.ID, RecipeID: recipe.ID}).Error
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	// Self-follow violates the check constraint.
	assert.Error(t, db.Create(&models.Follow{UserID: author.ID, AuthorID: author.ID}).Error)

	// Deleting the author cascades to recipes, join rows and favorites.
	require.NoError(t, db.Delete(&models.User{}, author.ID).Error)
	var count int64
	require.NoError(t, db.Model(&models.Recipe{}).Count(&count).Error)
	assert.Zero(t, count)
	require.NoError(t, db.Model(&models.RecipeIngredient{}).Count(&count).Error)
	assert.Zero(t, count)
	require.NoError(t, db.Model(&models.Favorite{}).Count(&count).Error)
	assert.Zero(t, count)
	require.NoError(t, db.Table("recipe_tags").Count(&count).Error)
	assert.Zero(t, count)
}
