package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/fridays-bar/api/internal/database"
)

// Errors returned by the menu catalog.
var (
	ErrItemExists        = errors.New("item already exists")
	ErrItemReferenced    = errors.New("item is referenced by unserved orders")
	ErrEmptyRecipe       = errors.New("materials are required")
	ErrNegativePrice     = errors.New("price must be >= 0")
	ErrNegativeCost      = errors.New("costs must be >= 0")
	ErrRecipeQuantity    = errors.New("recipe quantity must be > 0")
	ErrUnknownMaterial   = errors.New("recipe references an unknown material")
	ErrDuplicateMaterial = errors.New("recipe lists a material twice")
)

// MenuStore defines the DB methods needed by the menu catalog.
// Satisfied by *database.Queries (and its WithTx variant).
type MenuStore interface {
	GetItem(ctx context.Context, name string) (database.Item, error)
	ListItems(ctx context.Context) ([]database.Item, error)
	CreateItem(ctx context.Context, arg database.CreateItemParams) (database.Item, error)
	UpdateItem(ctx context.Context, arg database.UpdateItemParams) (database.Item, error)
	DeleteItem(ctx context.Context, name string) (string, error)
	AddItemMaterial(ctx context.Context, arg database.AddItemMaterialParams) (database.ItemMaterial, error)
	ListItemMaterials(ctx context.Context, itemName string) ([]database.ItemMaterial, error)
	DeleteItemMaterials(ctx context.Context, itemName string) error
	GetMaterial(ctx context.Context, name string) (database.Material, error)
	CountUnservedOrdersReferencingItem(ctx context.Context, name string) (int64, error)
}

// NewMenuStore creates a MenuStore from a DBTX (pool or tx).
type NewMenuStore func(db database.DBTX) MenuStore

// RecipeLine is one (material, per-unit quantity) pair of an item.
type RecipeLine struct {
	MaterialName string
	Quantity     decimal.Decimal
}

// ItemRequest carries the writable fields of a menu item. Gross profit
// and margin are always derived here, never accepted from callers.
type ItemRequest struct {
	Name        string
	BaseSpirit  string
	Price       decimal.Decimal
	AlcoholCost decimal.Decimal
	OtherCost   decimal.Decimal
	Notes       string
	Materials   []RecipeLine
}

// ItemResult is an item together with its recipe.
type ItemResult struct {
	Item   database.Item
	Recipe []database.ItemMaterial
}

// MenuService owns menu items and their recipes.
type MenuService struct {
	pool     TxBeginner
	store    MenuStore
	newStore NewMenuStore
}

func NewMenuService(pool TxBeginner, store MenuStore, newStore NewMenuStore) *MenuService {
	return &MenuService{pool: pool, store: store, newStore: newStore}
}

// Resolve returns the item with its recipe, or ErrItemNotFound.
func (s *MenuService) Resolve(ctx context.Context, name string) (*ItemResult, error) {
	item, err := s.store.GetItem(ctx, name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("get item: %w", err)
	}
	recipe, err := s.store.ListItemMaterials(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("list recipe: %w", err)
	}
	return &ItemResult{Item: item, Recipe: recipe}, nil
}

// MaterialsConsumedPerUnit returns what one unit of the item requires.
func (s *MenuService) MaterialsConsumedPerUnit(ctx context.Context, name string) ([]RecipeLine, error) {
	result, err := s.Resolve(ctx, name)
	if err != nil {
		return nil, err
	}
	lines := make([]RecipeLine, 0, len(result.Recipe))
	for _, rm := range result.Recipe {
		lines = append(lines, RecipeLine{
			MaterialName: rm.MaterialName,
			Quantity:     numericToDecimal(rm.Quantity),
		})
	}
	return lines, nil
}

// ListItems returns the full catalog with recipes.
func (s *MenuService) ListItems(ctx context.Context) ([]ItemResult, error) {
	items, err := s.store.ListItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	results := make([]ItemResult, 0, len(items))
	for _, item := range items {
		recipe, err := s.store.ListItemMaterials(ctx, item.Name)
		if err != nil {
			return nil, fmt.Errorf("list recipe: %w", err)
		}
		results = append(results, ItemResult{Item: item, Recipe: recipe})
	}
	return results, nil
}

// CreateItem validates the recipe against the ledger, derives gross
// profit, and writes item + recipe atomically.
func (s *MenuService) CreateItem(ctx context.Context, req ItemRequest) (*ItemResult, error) {
	if err := validateItemRequest(req); err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)
	if err := checkRecipeMaterials(ctx, store, req.Materials); err != nil {
		return nil, err
	}

	gp, margin := grossProfit(req.Price, req.AlcoholCost, req.OtherCost)
	item, err := store.CreateItem(ctx, database.CreateItemParams{
		Name:              req.Name,
		BaseSpirit:        req.BaseSpirit,
		Price:             decimalToNumeric(req.Price),
		AlcoholCost:       decimalToNumeric(req.AlcoholCost),
		OtherCost:         decimalToNumeric(req.OtherCost),
		GrossProfit:       decimalToNumeric(gp),
		GrossProfitMargin: decimalToNumeric(margin),
		Notes:             textOrNull(req.Notes),
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrItemExists
		}
		return nil, fmt.Errorf("create item: %w", err)
	}

	recipe, err := writeRecipe(ctx, store, item.Name, req.Materials)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &ItemResult{Item: item, Recipe: recipe}, nil
}

// UpdateItem rewrites the item's fields and replaces its recipe. Orders
// already recorded keep their own price snapshots and are unaffected.
func (s *MenuService) UpdateItem(ctx context.Context, req ItemRequest) (*ItemResult, error) {
	if err := validateItemRequest(req); err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)
	if err := checkRecipeMaterials(ctx, store, req.Materials); err != nil {
		return nil, err
	}

	gp, margin := grossProfit(req.Price, req.AlcoholCost, req.OtherCost)
	item, err := store.UpdateItem(ctx, database.UpdateItemParams{
		Name:              req.Name,
		BaseSpirit:        req.BaseSpirit,
		Price:             decimalToNumeric(req.Price),
		AlcoholCost:       decimalToNumeric(req.AlcoholCost),
		OtherCost:         decimalToNumeric(req.OtherCost),
		GrossProfit:       decimalToNumeric(gp),
		GrossProfitMargin: decimalToNumeric(margin),
		Notes:             textOrNull(req.Notes),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("update item: %w", err)
	}

	if err := store.DeleteItemMaterials(ctx, item.Name); err != nil {
		return nil, fmt.Errorf("clear recipe: %w", err)
	}
	recipe, err := writeRecipe(ctx, store, item.Name, req.Materials)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &ItemResult{Item: item, Recipe: recipe}, nil
}

// DeleteItem removes an item unless an unserved order still references it.
func (s *MenuService) DeleteItem(ctx context.Context, name string) error {
	_, err := s.store.DeleteItem(ctx, name)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("delete item: %w", err)
	}

	if _, getErr := s.store.GetItem(ctx, name); getErr != nil {
		if errors.Is(getErr, pgx.ErrNoRows) {
			return ErrItemNotFound
		}
		return fmt.Errorf("get item: %w", getErr)
	}
	n, err := s.store.CountUnservedOrdersReferencingItem(ctx, name)
	if err != nil {
		return fmt.Errorf("count references: %w", err)
	}
	return fmt.Errorf("%w (%d)", ErrItemReferenced, n)
}

// --- Helpers ---

func validateItemRequest(req ItemRequest) error {
	if req.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidAmount)
	}
	if req.Price.IsNegative() {
		return ErrNegativePrice
	}
	if req.AlcoholCost.IsNegative() || req.OtherCost.IsNegative() {
		return ErrNegativeCost
	}
	if len(req.Materials) == 0 {
		return ErrEmptyRecipe
	}
	seen := make(map[string]struct{}, len(req.Materials))
	for i, line := range req.Materials {
		if line.MaterialName == "" {
			return fmt.Errorf("materials[%d]: %w", i, ErrUnknownMaterial)
		}
		if _, dup := seen[line.MaterialName]; dup {
			return fmt.Errorf("materials[%d] %q: %w", i, line.MaterialName, ErrDuplicateMaterial)
		}
		seen[line.MaterialName] = struct{}{}
		if !line.Quantity.IsPositive() {
			return fmt.Errorf("materials[%d]: %w", i, ErrRecipeQuantity)
		}
	}
	return nil
}

func checkRecipeMaterials(ctx context.Context, store MenuStore, lines []RecipeLine) error {
	for i, line := range lines {
		if _, err := store.GetMaterial(ctx, line.MaterialName); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("materials[%d] %q: %w", i, line.MaterialName, ErrUnknownMaterial)
			}
			return fmt.Errorf("get material: %w", err)
		}
	}
	return nil
}

func writeRecipe(ctx context.Context, store MenuStore, itemName string, lines []RecipeLine) ([]database.ItemMaterial, error) {
	recipe := make([]database.ItemMaterial, 0, len(lines))
	for i, line := range lines {
		rm, err := store.AddItemMaterial(ctx, database.AddItemMaterialParams{
			ItemName:     itemName,
			MaterialName: line.MaterialName,
			Quantity:     decimalToNumeric(line.Quantity),
			Position:     int32(i),
		})
		if err != nil {
			return nil, fmt.Errorf("add recipe line: %w", err)
		}
		recipe = append(recipe, rm)
	}
	return recipe, nil
}

// grossProfit derives profit and margin from price and costs. Margin is
// zero when the price is zero.
func grossProfit(price, alcoholCost, otherCost decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	gp := price.Sub(alcoholCost).Sub(otherCost)
	if price.IsZero() {
		return gp, decimal.Zero
	}
	return gp, gp.Div(price).Round(4)
}
