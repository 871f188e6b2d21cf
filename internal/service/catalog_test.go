package service_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
)

func TestImportIngredients(t *testing.T) {
	db := testhelpers.NewTestDB(t)
	catalog := service.NewCatalogService(db, zap.NewNop())
	ctx := context.Background()

	csv := "flour,g\nmilk,ml\n\"salt, coarse\",g\n"
	created, err := catalog.ImportIngredients(ctx, strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, 3, created)

	// Importing again only creates what is missing.
	created, err = catalog.ImportIngredients(ctx, strings.NewReader(csv+"flour,kg\n"))
	require.NoError(t, err)
	assert.Equal(t, 1, created)

	all, err := catalog.ListIngredients(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestImportIngredientsCountsCharacters(t *testing.T) {
	db := testhelpers.NewTestDB(t)
	catalog := service.NewCatalogService(db, zap.NewNop())
	ctx := context.Background()

	long := strings.Repeat("ж", 150)
	created, err := catalog.ImportIngredients(ctx, strings.NewReader(long+",г\n"))
	require.NoError(t, err)
	assert.Equal(t, 1, created)

	_, err = catalog.ImportIngredients(ctx, strings.NewReader(strings.Repeat("ж", 201)+",г\n"))
	assert.Error(t, err)

	all, err := catalog.ListIngredients(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, long, all[0].Name)
	assert.Equal(t, "г", all[0].MeasurementUnit)
}

func TestImportIngredientsRejectsMalformedRows(t *testing.T) {
	db := testhelpers.NewTestDB(t)
	catalog := service.NewCatalogService(db, zap.NewNop())
	ctx := context.Background()

	_, err := catalog.ImportIngredients(ctx, strings.NewReader("flour,g\nmilk\n"))
	assert.Error(t, err)

	_, err = catalog.ImportIngredients(ctx, strings.NewReader("flour,g\n,ml\n"))
	assert.Error(t, err)

	// A failed import leaves nothing behind.
	all, err := catalog.ListIngredients(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestImportTags(t *testing.T) {
	db := testhelpers.NewTestDB(t)
	catalog := service.NewCatalogService(db, zap.NewNop())
	ctx := context.Background()

	created, err := catalog.ImportTags(ctx, strings.NewReader("Breakfast,#E26C2D,breakfast\nLunch,#49B64E,lunch\n"))
	require.NoError(t, err)
	assert.Equal(t, 2, created)

	created, err = catalog.ImportTags(ctx, strings.NewReader("Breakfast,#E26C2D,breakfast\nDinner,#abc,dinner\n"))
	require.NoError(t, err)
	assert.Equal(t, 1, created)

	_, err = catalog.ImportTags(ctx, strings.NewReader("Brunch,#ABCD,brunch\n"))
	assert.Error(t, err)

	tags, err := catalog.ListTags(ctx)
	require.NoError(t, err)
	require.Len(t, tags, 3)
	assert.Equal(t, "Breakfast", tags[0].Name)

	tag, err := catalog.GetTag(ctx, tags[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "breakfast", tag.Slug)

	_, err = catalog.GetTag(ctx, 9999)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestListIngredientsByPrefix(t *testing.T) {
	db := testhelpers.NewTestDB(t)
	catalog := service.NewCatalogService(db, zap.NewNop())
	ctx := context.Background()

	names := []string{"Sugar", "sugar syrup", "brown sugar", "salt", "100% juice", "Сахар", "сахарная пудра"}
	for _, name := range names {
		testhelpers.CreateTestIngredient(t, db, name, "g")
	}

	found, err := catalog.ListIngredients(ctx, "sug")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "sugar syrup", found[0].Name)

	found, err = catalog.ListIngredients(ctx, "Sug")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Sugar", found[0].Name)

	found, err = catalog.ListIngredients(ctx, "SUG")
	require.NoError(t, err)
	assert.Empty(t, found)

	found, err = catalog.ListIngredients(ctx, "сах")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "сахарная пудра", found[0].Name)

	found, err = catalog.ListIngredients(ctx, "Сах")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Сахар", found[0].Name)

	found, err = catalog.ListIngredients(ctx, "1%")
	require.NoError(t, err)
	assert.Empty(t, found)

	found, err = catalog.ListIngredients(ctx, "100%")
	require.NoError(t, err)
	assert.Len(t, found, 1)

	ingredient, err := catalog.GetIngredient(ctx, found[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "100% juice", ingredient.Name)

	_, err = catalog.GetIngredient(ctx, 9999)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestValidTagColor(t *testing.T) {
	for _, color := range []string{"#fff", "#FFFFFF", "#49b64e"} {
		assert.True(t, service.ValidTagColor(color), color)
	}
	for _, color := range []string{"fff", "#ffff", "#GGGGGG", "#1234567", ""} {
		assert.False(t, service.ValidTagColor(color), color)
	}
}
