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

// UserService handles user listing and subscriptions
type UserService struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewUserService creates a new UserService instance
func NewUserService(db *gorm.DB, log *zap.Logger) *UserService {
	return &UserService{db: db, log: log}
}

// ListUsers returns a page of users annotated for viewerID (0 for anonymous)
func (s *UserService) ListUsers(ctx context.Context, viewerID uint, page types.Page) (*types.PageResult[types.UserResponse], error) {
	db := s.db.WithContext(ctx)

	var count int64
	if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	var users []models.User
	if err := db.Order("id").Offset(page.Offset()).Limit(page.Size).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	ids := make([]uint, len(users))
	for i := range users {
		ids[i] = users[i].ID
	}
	subscribed, err := subscribedTo(db, viewerID, ids)
	if err != nil {
		return nil, err
	}

	result := &types.PageResult[types.UserResponse]{Count: count, Items: make([]types.UserResponse, len(users))}
	for i := range users {
		result.Items[i] = types.NewUserResponse(&users[i], subscribed[users[i].ID])
	}
	return result, nil
}

// GetUser returns a single user annotated for viewerID
func (s *UserService) GetUser(ctx context.Context, viewerID, id uint) (*types.UserResponse, error) {
	db := s.db.WithContext(ctx)

	user, err := findUser(db, id)
	if err != nil {
		return nil, err
	}

	subscribed, err := subscribedTo(db, viewerID, []uint{id})
	if err != nil {
		return nil, err
	}

	resp := types.NewUserResponse(user, subscribed[id])
	return &resp, nil
}

// Subscribe makes userID follow authorID
func (s *UserService) Subscribe(ctx context.Context, userID, authorID uint, recipesLimit int) (*types.SubscriptionResponse, error) {
	if userID == authorID {
		return nil, ErrSelfFollow
	}

	db := s.db.WithContext(ctx)
	author, err := findUser(db, authorID)
	if err != nil {
		return nil, err
	}

	if err := db.Create(&models.Follow{UserID: userID, AuthorID: authorID}).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("subscription: %w", ErrConflict)
		}
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}

	s.log.Debug("subscribed", zap.Uint("user_id", userID), zap.Uint("author_id", authorID))
	return s.subscription(db, author, recipesLimit)
}

// Unsubscribe removes the subscription of userID to authorID
func (s *UserService) Unsubscribe(ctx context.Context, userID, authorID uint) error {
	db := s.db.WithContext(ctx)
	if _, err := findUser(db, authorID); err != nil {
		return err
	}

	res := db.Where("user_id = ? AND author_id = ?", userID, authorID).Delete(&models.Follow{})
	if res.Error != nil {
		return fmt.Errorf("failed to unsubscribe: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("subscription: %w", ErrNotFound)
	}
	return nil
}

// Subscriptions returns a page of the authors userID follows, each with up
// to recipesLimit of their newest recipes (all when recipesLimit <= 0)
func (s *UserService) Subscriptions(ctx context.Context, userID uint, page types.Page, recipesLimit int) (*types.PageResult[types.SubscriptionResponse], error) {
	db := s.db.WithContext(ctx)
	followed := db.Model(&models.Follow{}).Select("author_id").Where("user_id = ?", userID)

	var count int64
	if err := db.Model(&models.User{}).Where("id IN (?)", followed).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to count subscriptions: %w", err)
	}

	var authors []models.User
	if err := db.Where("id IN (?)", followed).Order("id").Offset(page.Offset()).Limit(page.Size).Find(&authors).Error; err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}

	result := &types.PageResult[types.SubscriptionResponse]{Count: count, Items: make([]types.SubscriptionResponse, 0, len(authors))}
	for i := range authors {
		sub, err := s.subscription(db, &authors[i], recipesLimit)
		if err != nil {
			return nil, err
		}
		result.Items = append(result.Items, *sub)
	}
	return result, nil
}

func (s *UserService) subscription(db *gorm.DB, author *models.User, recipesLimit int) (*types.SubscriptionResponse, error) {
	var count int64
	if err := db.Model(&models.Recipe{}).Where("author_id = ?", author.ID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to count recipes: %w", err)
	}

	query := db.Where("author_id = ?", author.ID).Order("created_at DESC, id DESC")
	if recipesLimit > 0 {
		query = query.Limit(recipesLimit)
	}
	var recipes []models.Recipe
	if err := query.Find(&recipes).Error; err != nil {
		return nil, fmt.Errorf("failed to list author recipes: %w", err)
	}

	sub := &types.SubscriptionResponse{
		UserResponse: types.NewUserResponse(author, true),
		Recipes:      make([]types.ShortRecipe, len(recipes)),
		RecipesCount: count,
	}
	for i := range recipes {
		sub.Recipes[i] = types.NewShortRecipe(&recipes[i])
	}
	return sub, nil
}

func findUser(db *gorm.DB, id uint) (*models.User, error) {
	var user models.User
	if err := db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &user, nil
}

// subscribedTo returns which of authorIDs viewerID follows
func subscribedTo(db *gorm.DB, viewerID uint, authorIDs []uint) (map[uint]bool, error) {
	out := make(map[uint]bool, len(authorIDs))
	if viewerID == 0 || len(authorIDs) == 0 {
		return out, nil
	}

	var followed []uint
	if err := db.Model(&models.Follow{}).
		Where("user_id = ? AND author_id IN ?", viewerID, authorIDs).
		Pluck("author_id", &followed).Error; err != nil {
		return nil, fmt.Errorf("failed to load subscriptions: %w", err)
	}
	for _, id := range followed {
		out[id] = true
	}
	return out, nil
}
