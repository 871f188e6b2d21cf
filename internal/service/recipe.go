package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
)

// RecipeService handles recipe operations
type RecipeService struct {
	db     *gorm.DB
	images *ImageService
	log    *zap.Logger
}

// NewRecipeService creates a new RecipeService instance
func NewRecipeService(db *gorm.DB, images *ImageService, log *zap.Logger) *RecipeService {
	return &RecipeService{
		db:     db,
		images: images,
		log:    log,
	}
}

// recipeInput is a validated write request with its references resolved
type recipeInput struct {
	req         *types.RecipeWriteRequest
	tags        []models.Tag
	ingredients []models.RecipeIngredient
	imageKind   imageKind
}

// validateRecipe checks a write request and loads the tags it references.
// Every problem found is reported in the returned error.
func (s *RecipeService) validateRecipe(ctx context.Context, req *types.RecipeWriteRequest, creating bool) (*recipeInput, error) {
	verr := &ValidationError{}
	in := &recipeInput{req: req}

	req.Name = strings.TrimSpace(req.Name)
	switch {
	case req.Name == "":
		verr.Add("name", "This field is required.")
	case len([]rune(req.Name)) > maxNameLength:
		verr.Add("name", fmt.Sprintf("Ensure this field has no more than %d characters.", maxNameLength))
	}

	if strings.TrimSpace(req.Text) == "" {
		verr.Add("text", "This field is required.")
	}

	if req.CookingTime < 1 {
		verr.Add("cooking_time", "Cooking time must be at least 1 minute.")
	}

	switch {
	case req.Image != "":
		kind, msg := classifyImage(req.Image)
		if kind == imageInvalid {
			verr.Add("image", msg)
		}
		in.imageKind = kind
	case creating:
		verr.Add("image", "This field is required.")
	}

	db := s.db.WithContext(ctx)

	if err := s.validateTags(db, req.Tags, in, verr); err != nil {
		return nil, err
	}
	if err := s.validateIngredients(db, req.Ingredients, in, verr); err != nil {
		return nil, err
	}

	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	return in, nil
}

func (s *RecipeService) validateTags(db *gorm.DB, ids []uint, in *recipeInput, verr *ValidationError) error {
	if len(ids) == 0 {
		verr.Add("tags", "At least one tag is required.")
		return nil
	}

	seen := make(map[uint]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			verr.Add("tags", fmt.Sprintf("Tag %d is listed more than once.", id))
			return nil
		}
		seen[id] = true
	}

	if err := db.Where("id IN ?", ids).Order("name, id").Find(&in.tags).Error; err != nil {
		return fmt.Errorf("failed to load tags: %w", err)
	}
	found := make(map[uint]bool, len(in.tags))
	for _, tag := range in.tags {
		found[tag.ID] = true
	}
	for _, id := range ids {
		if !found[id] {
			verr.Add("tags", fmt.Sprintf("Tag %d does not exist.", id))
		}
	}
	return nil
}

func (s *RecipeService) validateIngredients(db *gorm.DB, items []types.RecipeIngredientInput, in *recipeInput, verr *ValidationError) error {
	if len(items) == 0 {
		verr.Add("ingredients", "At least one ingredient is required.")
		return nil
	}

	seen := make(map[uint]bool, len(items))
	ids := make([]uint, 0, len(items))
	for _, item := range items {
		if seen[item.ID] {
			verr.Add("ingredients", fmt.Sprintf("Ingredient %d is listed more than once.", item.ID))
			return nil
		}
		seen[item.ID] = true
		ids = append(ids, item.ID)

		if item.Amount < 1 {
			verr.Add("ingredients", fmt.Sprintf("Amount of ingredient %d must be at least 1.", item.ID))
		}
	}

	var existing []uint
	if err := db.Model(&models.Ingredient{}).Where("id IN ?", ids).Pluck("id", &existing).Error; err != nil {
		return fmt.Errorf("failed to load ingredients: %w", err)
	}
	found := make(map[uint]bool, len(existing))
	for _, id := range existing {
		found[id] = true
	}
	for _, item := range items {
		if !found[item.ID] {
			verr.Add("ingredients", fmt.Sprintf("Ingredient %d does not exist.", item.ID))
		}
	}

	in.ingredients = make([]models.RecipeIngredient, len(items))
	for i, item := range items {
		in.ingredients[i] = models.RecipeIngredient{IngredientID: item.ID, Amount: item.Amount}
	}
	return nil
}

// storeImage saves an uploaded data URI. A plain filename is kept as is.
func (s *RecipeService) storeImage(ctx context.Context, in *recipeInput) (*StoredImage, error) {
	if in.imageKind != imageDataURI {
		return nil, nil
	}
	if s.images == nil {
		return nil, NewValidationError("image", "Image uploads are not available.")
	}
	stored, err := s.images.SaveDataURI(ctx, in.req.Image)
	if err != nil {
		return nil, err
	}
	in.req.Image = stored.URL
	return stored, nil
}

// replaceAssociations swaps the full ingredient and tag sets of recipe
func replaceAssociations(tx *gorm.DB, recipe *models.Recipe, in *recipeInput) error {
	if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&models.RecipeIngredient{}).Error; err != nil {
		return fmt.Errorf("failed to clear ingredients: %w", err)
	}

	rows := make([]models.RecipeIngredient, len(in.ingredients))
	for i, ri := range in.ingredients {
		rows[i] = models.RecipeIngredient{RecipeID: recipe.ID, IngredientID: ri.IngredientID, Amount: ri.Amount}
	}
	if err := tx.Omit("Ingredient").Create(&rows).Error; err != nil {
		return fmt.Errorf("failed to save ingredients: %w", err)
	}

	if err := tx.Model(recipe).Association("Tags").Replace(in.tags); err != nil {
		return fmt.Errorf("failed to save tags: %w", err)
	}
	return nil
}

// CreateRecipe validates and stores a new recipe by authorID
func (s *RecipeService) CreateRecipe(ctx context.Context, authorID uint, req *types.RecipeWriteRequest) (*types.RecipeResponse, error) {
	in, err := s.validateRecipe(ctx, req, true)
	if err != nil {
		return nil, err
	}

	stored, err := s.storeImage(ctx, in)
	if err != nil {
		return nil, err
	}

	recipe := models.Recipe{
		AuthorID:    authorID,
		Name:        req.Name,
		Text:        req.Text,
		Image:       req.Image,
		CookingTime: req.CookingTime,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(&recipe).Error; err != nil {
			return fmt.Errorf("failed to create recipe: %w", err)
		}
		return replaceAssociations(tx, &recipe, in)
	})
	if err != nil {
		s.images.Discard(ctx, stored)
		return nil, err
	}

	s.log.Info("created recipe", zap.Uint("recipe_id", recipe.ID), zap.Uint("author_id", authorID))
	return s.GetRecipe(ctx, authorID, recipe.ID)
}

// UpdateRecipe replaces a recipe's fields, ingredients and tags. Only the
// author may update; an omitted image keeps the current one.
func (s *RecipeService) UpdateRecipe(ctx context.Context, userID, recipeID uint, req *types.RecipeWriteRequest) (*types.RecipeResponse, error) {
	recipe, err := s.ownedRecipe(ctx, userID, recipeID)
	if err != nil {
		return nil, err
	}

	in, err := s.validateRecipe(ctx, req, false)
	if err != nil {
		return nil, err
	}

	stored, err := s.storeImage(ctx, in)
	if err != nil {
		return nil, err
	}
	if req.Image == "" {
		req.Image = recipe.Image
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(recipe).Omit(clause.Associations).Updates(map[string]interface{}{
			"name":         req.Name,
			"text":         req.Text,
			"image":        req.Image,
			"cooking_time": req.CookingTime,
		}).Error; err != nil {
			return fmt.Errorf("failed to update recipe: %w", err)
		}
		return replaceAssociations(tx, recipe, in)
	})
	if err != nil {
		s.images.Discard(ctx, stored)
		return nil, err
	}

	s.log.Info("updated recipe", zap.Uint("recipe_id", recipe.ID))
	return s.GetRecipe(ctx, userID, recipe.ID)
}

// DeleteRecipe removes a recipe owned by userID together with its join rows
func (s *RecipeService) DeleteRecipe(ctx context.Context, userID, recipeID uint) error {
	recipe, err := s.ownedRecipe(ctx, userID, recipeID)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Delete(recipe).Error; err != nil {
		return fmt.Errorf("failed to delete recipe: %w", err)
	}

	s.log.Info("deleted recipe", zap.Uint("recipe_id", recipeID))
	return nil
}

// GetRecipe returns a recipe annotated for viewerID (0 for anonymous)
func (s *RecipeService) GetRecipe(ctx context.Context, viewerID, recipeID uint) (*types.RecipeResponse, error) {
	db := s.db.WithContext(ctx)

	var recipe models.Recipe
	if err := withDetails(db).First(&recipe, recipeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("recipe: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load recipe: %w", err)
	}

	responses, err := s.annotate(db, viewerID, []models.Recipe{recipe})
	if err != nil {
		return nil, err
	}
	return &responses[0], nil
}

// ListRecipes returns a page of recipes, newest first, matching filter
func (s *RecipeService) ListRecipes(ctx context.Context, viewerID uint, filter types.RecipeFilter) (*types.PageResult[types.RecipeResponse], error) {
	db := s.db.WithContext(ctx)

	query := db.Model(&models.Recipe{})
	if filter.AuthorID != 0 {
		query = query.Where("author_id = ?", filter.AuthorID)
	}
	if len(filter.TagSlugs) > 0 {
		tagged := db.Table("recipe_tags").
			Select("recipe_tags.recipe_id").
			Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
			Where("tags.slug IN ?", filter.TagSlugs)
		query = query.Where("id IN (?)", tagged)
	}
	if viewerID != 0 && filter.IsFavorited {
		query = query.Where("id IN (?)", db.Model(&models.Favorite{}).Select("recipe_id").Where("user_id = ?", viewerID))
	}
	if viewerID != 0 && filter.IsInShoppingCart {
		query = query.Where("id IN (?)", db.Model(&models.ShoppingCart{}).Select("recipe_id").Where("user_id = ?", viewerID))
	}
	query = query.Session(&gorm.Session{})

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to count recipes: %w", err)
	}

	var recipes []models.Recipe
	if err := withDetails(query).
		Order("created_at DESC, id DESC").
		Offset(filter.Page.Offset()).
		Limit(filter.Page.Size).
		Find(&recipes).Error; err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}

	items, err := s.annotate(db, viewerID, recipes)
	if err != nil {
		return nil, err
	}
	return &types.PageResult[types.RecipeResponse]{Items: items, Count: count}, nil
}

func (s *RecipeService) ownedRecipe(ctx context.Context, userID, recipeID uint) (*models.Recipe, error) {
	recipe, err := findRecipe(s.db.WithContext(ctx), recipeID)
	if err != nil {
		return nil, err
	}
	if recipe.AuthorID != userID {
		return nil, fmt.Errorf("only the author may change this recipe: %w", ErrForbidden)
	}
	return recipe, nil
}

func findRecipe(db *gorm.DB, id uint) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := db.First(&recipe, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("recipe: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load recipe: %w", err)
	}
	return &recipe, nil
}

func withDetails(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Author").
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("name, id") }).
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Ingredients.Ingredient")
}

// annotate builds read representations, marking favorites, cart entries and
// author subscriptions of viewerID with one keyed query each.
func (s *RecipeService) annotate(db *gorm.DB, viewerID uint, recipes []models.Recipe) ([]types.RecipeResponse, error) {
	ids := make([]uint, len(recipes))
	authorIDs := make([]uint, len(recipes))
	for i := range recipes {
		ids[i] = recipes[i].ID
		authorIDs[i] = recipes[i].AuthorID
	}

	favorited, err := relatedRecipes(db, &models.Favorite{}, viewerID, ids)
	if err != nil {
		return nil, err
	}
	inCart, err := relatedRecipes(db, &models.ShoppingCart{}, viewerID, ids)
	if err != nil {
		return nil, err
	}
	subscribed, err := subscribedTo(db, viewerID, authorIDs)
	if err != nil {
		return nil, err
	}

	out := make([]types.RecipeResponse, len(recipes))
	for i := range recipes {
		r := &recipes[i]
		ingredients := make([]types.IngredientAmount, len(r.Ingredients))
		for j, ri := range r.Ingredients {
			ingredients[j] = types.IngredientAmount{
				ID:              ri.IngredientID,
				Name:            ri.Ingredient.Name,
				MeasurementUnit: ri.Ingredient.MeasurementUnit,
				Amount:          ri.Amount,
			}
		}
		tags := r.Tags
		if tags == nil {
			tags = []models.Tag{}
		}

		out[i] = types.RecipeResponse{
			ID:               r.ID,
			Tags:             tags,
			Author:           types.NewUserResponse(&r.Author, subscribed[r.AuthorID]),
			Ingredients:      ingredients,
			IsFavorited:      favorited[r.ID],
			IsInShoppingCart: inCart[r.ID],
			Name:             r.Name,
			Image:            r.Image,
			Text:             r.Text,
			CookingTime:      r.CookingTime,
			PubDate:          r.CreatedAt,
		}
	}
	return out, nil
}

// relatedRecipes returns which of recipeIDs userID has a row for in model
func relatedRecipes(db *gorm.DB, model interface{}, userID uint, recipeIDs []uint) (map[uint]bool, error) {
	out := make(map[uint]bool, len(recipeIDs))
	if userID == 0 || len(recipeIDs) == 0 {
		return out, nil
	}

	var matched []uint
	if err := db.Model(model).
		Where("user_id = ? AND recipe_id IN ?", userID, recipeIDs).
		Pluck("recipe_id", &matched).Error; err != nil {
		return nil, fmt.Errorf("failed to annotate recipes: %w", err)
	}
	for _, id := range matched {
		out[id] = true
	}
	return out, nil
}
