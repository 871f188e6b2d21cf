package service

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/phpdave11/gofpdf"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/pageza/foodgram/backend/internal/types"
)

// ShoppingListHeader is the first line of a rendered shopping list
const ShoppingListHeader = "Shopping list:"

// ShoppingList sums the ingredient amounts of every recipe in the shopping
// cart of userID, grouped by ingredient name and measurement unit.
func (s *RecipeService) ShoppingList(ctx context.Context, userID uint) ([]types.ShoppingListItem, error) {
	query, args, err := sq.
		Select(
			"ingredients.name AS name",
			"ingredients.measurement_unit AS measurement_unit",
			"SUM(recipe_ingredients.amount) AS amount",
		).
		From("recipe_ingredients").
		Join("ingredients ON ingredients.id = recipe_ingredients.ingredient_id").
		Join("shopping_carts ON shopping_carts.recipe_id = recipe_ingredients.recipe_id").
		Where(sq.Eq{"shopping_carts.user_id": userID}).
		GroupBy("ingredients.name", "ingredients.measurement_unit").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build shopping list query: %w", err)
	}

	var items []types.ShoppingListItem
	if err := s.db.WithContext(ctx).Raw(query, args...).Scan(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to aggregate shopping list: %w", err)
	}

	sortShoppingList(items)
	return items, nil
}

// sortShoppingList orders items by name with a locale-aware collator, then by unit.
func sortShoppingList(items []types.ShoppingListItem) {
	col := collate.New(language.Und, collate.IgnoreCase)
	sort.SliceStable(items, func(i, j int) bool {
		if c := col.CompareString(items[i].Name, items[j].Name); c != 0 {
			return c < 0
		}
		return items[i].MeasurementUnit < items[j].MeasurementUnit
	})
}

// RenderShoppingList formats items as the downloadable text list
func RenderShoppingList(items []types.ShoppingListItem) []byte {
	var b strings.Builder
	b.WriteString(ShoppingListHeader)
	for _, item := range items {
		fmt.Fprintf(&b, "\n%s - %d%s", item.Name, item.Amount, item.MeasurementUnit)
	}
	return []byte(b.String())
}

// RenderShoppingListPDF formats items as a single-column PDF document
func RenderShoppingListPDF(items []types.ShoppingListItem) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Shopping list", true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, tr(ShoppingListHeader), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 12)
	for _, item := range items {
		line := fmt.Sprintf("%s - %d%s", item.Name, item.Amount, item.MeasurementUnit)
		pdf.CellFormat(0, 8, tr(line), "", 1, "L", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render shopping list pdf: %w", err)
	}
	return buf.Bytes(), nil
}
