package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/fridays-bar/api/internal/database"
	"github.com/fridays-bar/api/internal/enum"
)

// Errors returned by the material ledger.
var (
	ErrMaterialNotFound   = errors.New("material not found")
	ErrMaterialExists     = errors.New("material already exists")
	ErrMaterialReferenced = errors.New("material is referenced by a menu item")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidStockAction = errors.New("invalid stock action")
	ErrInsufficientStock  = errors.New("insufficient stock")
)

// InventoryStore defines the DB methods needed by the material ledger.
// Satisfied by *database.Queries (and its WithTx variant).
type InventoryStore interface {
	GetMaterial(ctx context.Context, name string) (database.Material, error)
	ListMaterials(ctx context.Context) ([]database.Material, error)
	CreateMaterial(ctx context.Context, arg database.CreateMaterialParams) (database.Material, error)
	DeleteMaterial(ctx context.Context, name string) (string, error)
	AddStock(ctx context.Context, arg database.AdjustStockParams) (database.Material, error)
	DeductStock(ctx context.Context, arg database.AdjustStockParams) (database.Material, error)
	SetStock(ctx context.Context, arg database.AdjustStockParams) (database.Material, error)
	ListLowStock(ctx context.Context) ([]database.LowStockRow, error)
	CountItemsReferencingMaterial(ctx context.Context, name string) (int64, error)
	RecordStockMovement(ctx context.Context, arg database.RecordStockMovementParams) (database.StockMovement, error)
	ListStockMovements(ctx context.Context, materialName string) ([]database.StockMovement, error)
}

// NewInventoryStore creates an InventoryStore from a DBTX (pool or tx).
type NewInventoryStore func(db database.DBTX) InventoryStore

// MaterialDelta is one entry of an order's aggregate consumption.
type MaterialDelta struct {
	Name     string
	Quantity decimal.Decimal
}

// LowStockAlert pairs a material below its minimum with the shortage.
type LowStockAlert struct {
	Material database.Material
	Shortage decimal.Decimal
}

// CreateMaterialRequest is the validated input for creating a material.
type CreateMaterialRequest struct {
	Name         string
	CurrentStock decimal.Decimal
	MinStock     decimal.Decimal
	Unit         string
	Category     string
	CostPerUnit  *decimal.Decimal
}

// InventoryService is the material ledger: it owns every stock mutation
// and guarantees current stock never goes negative.
type InventoryService struct {
	pool     TxBeginner
	store    InventoryStore
	newStore NewInventoryStore
}

func NewInventoryService(pool TxBeginner, store InventoryStore, newStore NewInventoryStore) *InventoryService {
	return &InventoryService{pool: pool, store: store, newStore: newStore}
}

func (s *InventoryService) GetMaterial(ctx context.Context, name string) (database.Material, error) {
	m, err := s.store.GetMaterial(ctx, name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Material{}, ErrMaterialNotFound
		}
		return database.Material{}, fmt.Errorf("get material: %w", err)
	}
	return m, nil
}

func (s *InventoryService) ListMaterials(ctx context.Context) ([]database.Material, error) {
	return s.store.ListMaterials(ctx)
}

func (s *InventoryService) CreateMaterial(ctx context.Context, req CreateMaterialRequest) (database.Material, error) {
	if req.Name == "" || req.Unit == "" {
		return database.Material{}, fmt.Errorf("%w: name and unit are required", ErrInvalidAmount)
	}
	if req.CurrentStock.IsNegative() || req.MinStock.IsNegative() {
		return database.Material{}, fmt.Errorf("%w: stock levels must be >= 0", ErrInvalidAmount)
	}

	cost := nullNumeric()
	if req.CostPerUnit != nil {
		if req.CostPerUnit.IsNegative() {
			return database.Material{}, fmt.Errorf("%w: cost_per_unit must be >= 0", ErrInvalidAmount)
		}
		cost = decimalToNumeric(*req.CostPerUnit)
	}

	m, err := s.store.CreateMaterial(ctx, database.CreateMaterialParams{
		Name:         req.Name,
		CurrentStock: decimalToNumeric(req.CurrentStock),
		MinStock:     decimalToNumeric(req.MinStock),
		Unit:         req.Unit,
		Category:     req.Category,
		CostPerUnit:  cost,
	})
	if err != nil {
		if isUniqueViolation(err) {
			return database.Material{}, ErrMaterialExists
		}
		return database.Material{}, fmt.Errorf("create material: %w", err)
	}
	return m, nil
}

// DeleteMaterial removes a material unless a menu item still consumes it.
func (s *InventoryService) DeleteMaterial(ctx context.Context, name string) error {
	_, err := s.store.DeleteMaterial(ctx, name)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("delete material: %w", err)
	}

	// Guarded delete matched nothing: absent, or still referenced.
	if _, err := s.store.GetMaterial(ctx, name); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrMaterialNotFound
		}
		return fmt.Errorf("get material: %w", err)
	}
	n, err := s.store.CountItemsReferencingMaterial(ctx, name)
	if err != nil {
		return fmt.Errorf("count references: %w", err)
	}
	return fmt.Errorf("%w (%d)", ErrMaterialReferenced, n)
}

// ApplyStockAction mutates one material's stock and journals the
// movement in the same transaction. All three actions stamp last_updated
// and leave state untouched on failure.
func (s *InventoryService) ApplyStockAction(ctx context.Context, name, action string, amount decimal.Decimal, reason string) (database.Material, error) {
	switch action {
	case enum.StockActionAdd, enum.StockActionUse:
		if !amount.IsPositive() {
			return database.Material{}, fmt.Errorf("%w: amount must be > 0", ErrInvalidAmount)
		}
	case enum.StockActionSet:
		if amount.IsNegative() {
			return database.Material{}, fmt.Errorf("%w: amount must be >= 0", ErrInvalidAmount)
		}
	default:
		return database.Material{}, fmt.Errorf("%w: %q", ErrInvalidStockAction, action)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return database.Material{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck
	store := s.newStore(tx)

	params := database.AdjustStockParams{Name: name, Amount: decimalToNumeric(amount)}
	var (
		m         database.Material
		adjErr    error
		deduction bool
	)
	switch action {
	case enum.StockActionAdd:
		m, adjErr = store.AddStock(ctx, params)
	case enum.StockActionUse:
		m, adjErr = store.DeductStock(ctx, params)
		deduction = true
	case enum.StockActionSet:
		m, adjErr = store.SetStock(ctx, params)
	}
	m, err = classifyAdjustResult(ctx, store, name, m, adjErr, deduction)
	if err != nil {
		return database.Material{}, err
	}

	if _, err := store.RecordStockMovement(ctx, database.RecordStockMovementParams{
		MaterialName: name,
		Action:       action,
		Amount:       decimalToNumeric(amount),
		Reason:       textOrNull(reason),
	}); err != nil {
		return database.Material{}, fmt.Errorf("record movement: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return database.Material{}, fmt.Errorf("commit tx: %w", err)
	}
	return m, nil
}

// classifyAdjustResult turns a zero-row guarded update into the right
// sentinel. Deductions can lose either because the material is absent or
// because stock is short; the others only because it is absent.
func classifyAdjustResult(ctx context.Context, store InventoryStore, name string, m database.Material, err error, deduction bool) (database.Material, error) {
	if err == nil {
		return m, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return database.Material{}, fmt.Errorf("adjust stock: %w", err)
	}
	if !deduction {
		return database.Material{}, ErrMaterialNotFound
	}
	if _, getErr := store.GetMaterial(ctx, name); getErr != nil {
		if errors.Is(getErr, pgx.ErrNoRows) {
			return database.Material{}, ErrMaterialNotFound
		}
		return database.Material{}, fmt.Errorf("get material: %w", getErr)
	}
	return database.Material{}, fmt.Errorf("%q: %w", name, ErrInsufficientStock)
}

// ListMovements returns one material's journal, newest first.
func (s *InventoryService) ListMovements(ctx context.Context, name string) ([]database.StockMovement, error) {
	if _, err := s.store.GetMaterial(ctx, name); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMaterialNotFound
		}
		return nil, fmt.Errorf("get material: %w", err)
	}
	movements, err := s.store.ListStockMovements(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	return movements, nil
}

// ListLowStock reports every material under its minimum with the
// shortage amount. Read-only.
func (s *InventoryService) ListLowStock(ctx context.Context) ([]LowStockAlert, error) {
	rows, err := s.store.ListLowStock(ctx)
	if err != nil {
		return nil, fmt.Errorf("list low stock: %w", err)
	}
	alerts := make([]LowStockAlert, 0, len(rows))
	for _, r := range rows {
		alerts = append(alerts, LowStockAlert{
			Material: r.Material,
			Shortage: numericToDecimal(r.Shortage),
		})
	}
	return alerts, nil
}

// ConsumeForOrder applies a set of deductions as one all-or-nothing
// transaction, journaling each under the given reason. Any single
// shortfall rolls back every deduction already applied; a partially
// fulfilled order must never leak into the ledger.
func (s *InventoryService) ConsumeForOrder(ctx context.Context, deltas []MaterialDelta, reason string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := consumeMaterials(ctx, s.newStore(tx), deltas, reason); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// materialDeductor is the slice of the store both ledger and order
// service use for serve-time consumption.
type materialDeductor interface {
	GetMaterial(ctx context.Context, name string) (database.Material, error)
	DeductStock(ctx context.Context, arg database.AdjustStockParams) (database.Material, error)
	RecordStockMovement(ctx context.Context, arg database.RecordStockMovementParams) (database.StockMovement, error)
}

// consumeMaterials applies deltas through guarded deductions. Callers
// run it inside a transaction; returning an error aborts the whole set.
func consumeMaterials(ctx context.Context, store materialDeductor, deltas []MaterialDelta, reason string) error {
	for _, d := range deltas {
		if !d.Quantity.IsPositive() {
			continue
		}
		_, err := store.DeductStock(ctx, database.AdjustStockParams{
			Name:   d.Name,
			Amount: decimalToNumeric(d.Quantity),
		})
		if err == nil {
			if _, err := store.RecordStockMovement(ctx, database.RecordStockMovementParams{
				MaterialName: d.Name,
				Action:       enum.StockActionUse,
				Amount:       decimalToNumeric(d.Quantity),
				Reason:       textOrNull(reason),
			}); err != nil {
				return fmt.Errorf("record movement: %w", err)
			}
			continue
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("deduct %q: %w", d.Name, err)
		}
		if _, getErr := store.GetMaterial(ctx, d.Name); getErr != nil {
			if errors.Is(getErr, pgx.ErrNoRows) {
				return fmt.Errorf("%q: %w", d.Name, ErrMaterialNotFound)
			}
			return fmt.Errorf("get material: %w", getErr)
		}
		return fmt.Errorf("%q: %w", d.Name, ErrInsufficientStock)
	}
	return nil
}
