package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
)

// CatalogService serves the tag and ingredient catalogues
type CatalogService struct {
	db       *gorm.DB
	validate *validator.Validate
	log      *zap.Logger
}

// NewCatalogService creates a new CatalogService instance
func NewCatalogService(db *gorm.DB, log *zap.Logger) *CatalogService {
	return &CatalogService{db: db, validate: NewValidator(), log: log}
}

// ListTags returns every tag ordered by name
func (s *CatalogService) ListTags(ctx context.Context) ([]models.Tag, error) {
	var tags []models.Tag
	if err := s.db.WithContext(ctx).Order("name, id").Find(&tags).Error; err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	return tags, nil
}

// GetTag returns a tag by id
func (s *CatalogService) GetTag(ctx context.Context, id uint) (*models.Tag, error) {
	var tag models.Tag
	if err := s.db.WithContext(ctx).First(&tag, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("tag: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load tag: %w", err)
	}
	return &tag, nil
}

// ListIngredients returns ingredients whose name starts with prefix. The
// match is case-sensitive. An empty prefix returns all of them.
func (s *CatalogService) ListIngredients(ctx context.Context, prefix string) ([]models.Ingredient, error) {
	query := s.db.WithContext(ctx).Order("name, id")
	if prefix = strings.TrimSpace(prefix); prefix != "" {
		query = query.Where("SUBSTR(name, 1, ?) = ?", utf8.RuneCountInString(prefix), prefix)
	}

	var ingredients []models.Ingredient
	if err := query.Find(&ingredients).Error; err != nil {
		return nil, fmt.Errorf("failed to list ingredients: %w", err)
	}
	return ingredients, nil
}

// GetIngredient returns an ingredient by id
func (s *CatalogService) GetIngredient(ctx context.Context, id uint) (*models.Ingredient, error) {
	var ingredient models.Ingredient
	if err := s.db.WithContext(ctx).First(&ingredient, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("ingredient: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load ingredient: %w", err)
	}
	return &ingredient, nil
}

// ImportIngredients reads "name,unit" rows and creates the ingredients that
// do not exist yet. It returns the number of rows created.
func (s *CatalogService) ImportIngredients(ctx context.Context, r io.Reader) (int, error) {
	rows, err := readCSV(r, 2)
	if err != nil {
		return 0, err
	}

	created := 0
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, row := range rows {
			name, unit := strings.TrimSpace(row[0]), strings.TrimSpace(row[1])
			if name == "" || unit == "" || utf8.RuneCountInString(name) > maxNameLength || utf8.RuneCountInString(unit) > maxNameLength {
				return fmt.Errorf("line %d: invalid ingredient %q", i+1, strings.Join(row, ","))
			}

			ingredient := models.Ingredient{Name: name, MeasurementUnit: unit}
			res := tx.Where(&ingredient).FirstOrCreate(&ingredient)
			if res.Error != nil {
				return fmt.Errorf("line %d: failed to import ingredient: %w", i+1, res.Error)
			}
			created += int(res.RowsAffected)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.log.Info("imported ingredients", zap.Int("rows", len(rows)), zap.Int("created", created))
	return created, nil
}

// ImportTags reads "name,color,slug" rows and creates the tags whose slug
// does not exist yet. It returns the number of rows created.
func (s *CatalogService) ImportTags(ctx context.Context, r io.Reader) (int, error) {
	rows, err := readCSV(r, 3)
	if err != nil {
		return 0, err
	}

	created := 0
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, row := range rows {
			in := types.TagImport{
				Name:  strings.TrimSpace(row[0]),
				Color: strings.TrimSpace(row[1]),
				Slug:  strings.TrimSpace(row[2]),
			}
			if err := s.validate.Struct(in); err != nil {
				return fmt.Errorf("line %d: invalid tag: %w", i+1, err)
			}

			tag := models.Tag{Name: in.Name, Color: in.Color, Slug: in.Slug}
			res := tx.Where(models.Tag{Slug: in.Slug}).Attrs(tag).FirstOrCreate(&tag)
			if res.Error != nil {
				return fmt.Errorf("line %d: failed to import tag: %w", i+1, res.Error)
			}
			created += int(res.RowsAffected)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.log.Info("imported tags", zap.Int("rows", len(rows)), zap.Int("created", created))
	return created, nil
}

func readCSV(r io.Reader, fields int) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = fields
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	return rows, nil
}
