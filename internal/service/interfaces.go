package service

import (
	"context"
	"io"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
)

// IAuthService defines the interface for authentication operations
type IAuthService interface {
	Register(ctx context.Context, req *types.RegisterRequest) (*models.User, error)
	Login(ctx context.Context, email, password string) (string, error)
	ValidateToken(ctx context.Context, token string) (*types.TokenClaims, error)
	Logout(ctx context.Context, claims *types.TokenClaims) error
	SetPassword(ctx context.Context, userID uint, current, next string) error
}

// IUserService defines the interface for user and subscription operations
type IUserService interface {
	ListUsers(ctx context.Context, viewerID uint, page types.Page) (*types.PageResult[types.UserResponse], error)
	GetUser(ctx context.Context, viewerID, id uint) (*types.UserResponse, error)
	Subscribe(ctx context.Context, userID, authorID uint, recipesLimit int) (*types.SubscriptionResponse, error)
	Unsubscribe(ctx context.Context, userID, authorID uint) error
	Subscriptions(ctx context.Context, userID uint, page types.Page, recipesLimit int) (*types.PageResult[types.SubscriptionResponse], error)
}

// ICatalogService defines the interface for tag and ingredient operations
type ICatalogService interface {
	ListTags(ctx context.Context) ([]models.Tag, error)
	GetTag(ctx context.Context, id uint) (*models.Tag, error)
	ListIngredients(ctx context.Context, prefix string) ([]models.Ingredient, error)
	GetIngredient(ctx context.Context, id uint) (*models.Ingredient, error)
	ImportIngredients(ctx context.Context, r io.Reader) (int, error)
	ImportTags(ctx context.Context, r io.Reader) (int, error)
}

// IRecipeService defines the interface for recipe operations
type IRecipeService interface {
	CreateRecipe(ctx context.Context, authorID uint, req *types.RecipeWriteRequest) (*types.RecipeResponse, error)
	UpdateRecipe(ctx context.Context, userID, recipeID uint, req *types.RecipeWriteRequest) (*types.RecipeResponse, error)
	DeleteRecipe(ctx context.Context, userID, recipeID uint) error
	GetRecipe(ctx context.Context, viewerID, recipeID uint) (*types.RecipeResponse, error)
	ListRecipes(ctx context.Context, viewerID uint, filter types.RecipeFilter) (*types.PageResult[types.RecipeResponse], error)
	AddFavorite(ctx context.Context, userID, recipeID uint) (*types.ShortRecipe, error)
	RemoveFavorite(ctx context.Context, userID, recipeID uint) error
	AddToShoppingCart(ctx context.Context, userID, recipeID uint) (*types.ShortRecipe, error)
	RemoveFromShoppingCart(ctx context.Context, userID, recipeID uint) error
	ShoppingList(ctx context.Context, userID uint) ([]types.ShoppingListItem, error)
}

var (
	_ IAuthService    = (*AuthService)(nil)
	_ IUserService    = (*UserService)(nil)
	_ ICatalogService = (*CatalogService)(nil)
	_ IRecipeService  = (*RecipeService)(nil)
	_ ImageStore      = (*S3Store)(nil)
	_ ImageStore      = (*LocalStore)(nil)
	_ TokenStore      = (*RedisTokenStore)(nil)
)
