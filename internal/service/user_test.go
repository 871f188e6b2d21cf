package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
	"github.com/pageza/foodgram/backend/internal/types"
)

func TestSubscribe(t *testing.T) {
	db := testhelpers.NewTestDB(t)
	users := service.NewUserService(db, zap.NewNop())
	ctx := context.Background()

	author := testhelpers.CreateTestUser(t, db, "author")
	follower := testhelpers.CreateTestUser(t, db, "follower")
	tag := testhelpers.CreateTestTag(t, db, "soup")
	water := testhelpers.CreateTestIngredient(t, db, "water", "ml")
	for _, name := range []string{"first", "second", "third"} {
		testhelpers.CreateTestRecipe(t, db, author, name, []*models.Tag{tag}, map[*models.Ingredient]int{water: 100})
	}

	sub, err := users.Subscribe(ctx, follower.ID, author.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, author.ID, sub.ID)
	assert.True(t, sub.IsSubscribed)
	assert.Equal(t, int64(3), sub.RecipesCount)
	require.Len(t, sub.Recipes, 2)
	assert.Equal(t, "third", sub.Recipes[0].Name)

	_, err = users.Subscribe(ctx, follower.ID, author.ID, 0)
	assert.ErrorIs(t, err, service.ErrConflict)

	viewed, err := users.GetUser(ctx, follower.ID, author.ID)
	require.NoError(t, err)
	assert.True(t, viewed.IsSubscribed)

	viewed, err = users.GetUser(ctx, 0, author.ID)
	require.NoError(t, err)
	assert.False(t, viewed.IsSubscribed)
}

func TestSubscribeRejectsSelf(t *testing.T) {
	db := testhelpers.NewTestDB(t)
	users := service.NewUserService(db, zap.NewNop())
	user := testhelpers.CreateTestUser(t, db, "narcissus")

	_, err := users.Subscribe(context.Background(), user.ID, user.ID, 0)
	assert.ErrorIs(t, err, service.ErrSelfFollow)
}

func TestSubscribeUnknownAuthor(t *testing.T) {
	db := testhelpers.NewTestDB(t)
	users := service.NewUserService(db, zap.NewNop())
	user := testhelpers.CreateTestUser(t, db, "follower")

	_, err := users.Subscribe(context.Background(), user.ID, 9999, 0)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestUnsubscribe(t *testing.T) {
	db := testhelpers.NewTestDB(t)
	users := service.NewUserService(db, zap.NewNop())
	ctx := context.Background()
	author := testhelpers.CreateTestUser(t, db, "author")
	follower := testhelpers.CreateTestUser(t, db, "follower")

	err := users.Unsubscribe(ctx, follower.ID, author.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)

	_, err = users.Subscribe(ctx, follower.ID, author.ID, 0)
	require.NoError(t, err)
	require.NoError(t, users.Unsubscribe(ctx, follower.ID, author.ID))

	viewed, err := users.GetUser(ctx, follower.ID, author.ID)
	require.NoError(t, err)
	assert.False(t, viewed.IsSubscribed)
}

func TestSubscriptions(t *testing.T) {
	db := testhelpers.NewTestDB(t)
	users := service.NewUserService(db, zap.NewNop())
	ctx := context.Background()

	follower := testhelpers.CreateTestUser(t, db, "follower")
	a := testhelpers.CreateTestUser(t, db, "alice")
	b := testhelpers.CreateTestUser(t, db, "bob")
	testhelpers.CreateTestUser(t, db, "carol")
	tag := testhelpers.CreateTestTag(t, db, "salad")
	leaf := testhelpers.CreateTestIngredient(t, db, "lettuce", "g")
	testhelpers.CreateTestRecipe(t, db, a, "caesar", []*models.Tag{tag}, map[*models.Ingredient]int{leaf: 100})

	for _, author := range []*models.User{a, b} {
		_, err := users.Subscribe(ctx, follower.ID, author.ID, 0)
		require.NoError(t, err)
	}

	result, err := users.Subscriptions(ctx, follower.ID, types.Page{Number: 1, Size: 10}, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.Count)
	require.Len(t, result.Items, 2)
	assert.Equal(t, "alice", result.Items[0].Username)
	assert.Equal(t, int64(1), result.Items[0].RecipesCount)
	assert.Len(t, result.Items[0].Recipes, 1)
	assert.Equal(t, "bob", result.Items[1].Username)
	assert.Empty(t, result.Items[1].Recipes)

	result, err = users.Subscriptions(ctx, follower.ID, types.Page{Number: 2, Size: 1}, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.Count)
	require.Len(t, result.Items, 1)
	assert.Equal(t, "bob", result.Items[0].Username)
}

func TestListUsers(t *testing.T) {
	db := testhelpers.NewTestDB(t)
	users := service.NewUserService(db, zap.NewNop())
	ctx := context.Background()

	viewer := testhelpers.CreateTestUser(t, db, "viewer")
	followed := testhelpers.CreateTestUser(t, db, "followed")
	testhelpers.CreateTestUser(t, db, "stranger")
	_, err := users.Subscribe(ctx, viewer.ID, followed.ID, 0)
	require.NoError(t, err)

	result, err := users.ListUsers(ctx, viewer.ID, types.Page{Number: 1, Size: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), result.Count)
	require.Len(t, result.Items, 2)
	assert.False(t, result.Items[0].IsSubscribed)
	assert.True(t, result.Items[1].IsSubscribed)

	_, err = users.GetUser(ctx, 0, 9999)
	assert.ErrorIs(t, err, service.ErrNotFound)
}
