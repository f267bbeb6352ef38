package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/fridays-bar/api/internal/database"
	"github.com/fridays-bar/api/internal/enum"
)

// Errors returned by the order service.
var (
	ErrEmptyItems        = errors.New("items are required")
	ErrBlankTableNumber  = errors.New("table_number is required")
	ErrBlankOrdererName  = errors.New("orderer_name is required")
	ErrBlankBartender    = errors.New("bartender is required")
	ErrInvalidQuantity   = errors.New("quantity must be > 0")
	ErrItemNotFound      = errors.New("item not found")
	ErrOrderNotFound     = errors.New("order not found")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// OrderStore defines the DB methods needed by the order lifecycle.
// Satisfied by *database.Queries (and its WithTx variant).
type OrderStore interface {
	GetItem(ctx context.Context, name string) (database.Item, error)
	ListItemMaterials(ctx context.Context, itemName string) ([]database.ItemMaterial, error)
	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error)
	GetOrder(ctx context.Context, id int64) (database.Order, error)
	ListOrderItems(ctx context.Context, orderID int64) ([]database.OrderItem, error)
	ListOrders(ctx context.Context, arg database.ListOrdersParams) ([]database.Order, error)
	ListActiveOrders(ctx context.Context) ([]database.Order, error)
	ClaimOrder(ctx context.Context, arg database.ClaimOrderParams) (database.Order, error)
	MarkOrderServed(ctx context.Context, arg database.MarkOrderServedParams) (database.Order, error)
	GetMaterial(ctx context.Context, name string) (database.Material, error)
	DeductStock(ctx context.Context, arg database.AdjustStockParams) (database.Material, error)
	RecordStockMovement(ctx context.Context, arg database.RecordStockMovementParams) (database.StockMovement, error)
}

// NewOrderStore creates an OrderStore from a DBTX (pool or tx), so the
// service can bind store instances to transactions.
type NewOrderStore func(db database.DBTX) OrderStore

// CreateOrderRequest is the validated input for creating an order.
type CreateOrderRequest struct {
	TableNumber string
	OrdererName string
	Notes       string
	Items       []CreateOrderLine
}

// CreateOrderLine is a single (item, quantity) pair in the cart.
type CreateOrderLine struct {
	ItemName string
	Quantity int32
}

// OrderResult is an order together with its snapshotted lines.
type OrderResult struct {
	Order database.Order
	Items []database.OrderItem
}

// OrderService owns the pending → claimed → served state machine.
type OrderService struct {
	pool     TxBeginner
	store    OrderStore
	newStore NewOrderStore
}

// NewOrderService creates a new OrderService. store is the pool-bound
// store used for single-statement operations; newStore binds stores to
// transactions for the multi-step ones.
func NewOrderService(pool TxBeginner, store OrderStore, newStore NewOrderStore) *OrderService {
	return &OrderService{pool: pool, store: store, newStore: newStore}
}

// CreateOrder resolves every cart line against the menu, snapshots unit
// prices, computes the total, and records the order as pending. Stock is
// deliberately not touched here: materials are reserved at serve time so
// pending orders never lock inventory.
func (s *OrderService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*OrderResult, error) {
	if req.TableNumber == "" {
		return nil, ErrBlankTableNumber
	}
	if req.OrdererName == "" {
		return nil, ErrBlankOrdererName
	}
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}
	for i, line := range req.Items {
		if line.Quantity <= 0 {
			return nil, fmt.Errorf("items[%d]: %w", i, ErrInvalidQuantity)
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	// Resolve items and snapshot prices.
	total := decimal.Zero
	prices := make([]decimal.Decimal, len(req.Items))
	for i, line := range req.Items {
		item, err := store.GetItem(ctx, line.ItemName)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("items[%d] %q: %w", i, line.ItemName, ErrItemNotFound)
			}
			return nil, fmt.Errorf("items[%d]: get item: %w", i, err)
		}
		prices[i] = numericToDecimal(item.Price)
		total = total.Add(prices[i].Mul(decimal.NewFromInt32(line.Quantity)))
	}

	notes := textOrNull(req.Notes)
	order, err := store.CreateOrder(ctx, database.CreateOrderParams{
		TableNumber: req.TableNumber,
		OrdererName: req.OrdererName,
		TotalPrice:  decimalToNumeric(total),
		Notes:       notes,
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	lines := make([]database.OrderItem, 0, len(req.Items))
	for i, line := range req.Items {
		oi, err := store.CreateOrderItem(ctx, database.CreateOrderItemParams{
			OrderID:  order.ID,
			ItemName: line.ItemName,
			Quantity: line.Quantity,
			Price:    decimalToNumeric(prices[i]),
			Position: int32(i),
		})
		if err != nil {
			return nil, fmt.Errorf("create order item: %w", err)
		}
		lines = append(lines, oi)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &OrderResult{Order: order, Items: lines}, nil
}

// ClaimOrder transitions pending → claimed and records the bartender.
// The transition is a compare-and-set on status, so of N concurrent
// claims exactly one succeeds; the rest observe InvalidTransition.
func (s *OrderService) ClaimOrder(ctx context.Context, id int64, bartender string) (*OrderResult, error) {
	if bartender == "" {
		return nil, ErrBlankBartender
	}

	order, err := s.store.ClaimOrder(ctx, database.ClaimOrderParams{ID: id, Bartender: bartender})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, s.classifyLostTransition(ctx, id)
		}
		return nil, fmt.Errorf("claim order: %w", err)
	}

	items, err := s.store.ListOrderItems(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	return &OrderResult{Order: order, Items: items}, nil
}

// ServeOrder transitions claimed → served and deducts the order's
// aggregate material consumption from the ledger in the same
// transaction. A stock shortfall aborts the whole thing: the order stays
// claimed and no material is touched.
func (s *OrderService) ServeOrder(ctx context.Context, id int64) (*OrderResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := store.GetOrder(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order.Status != enum.OrderStatusClaimed {
		return nil, ErrInvalidTransition
	}

	items, err := store.ListOrderItems(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}

	deltas, err := aggregateConsumption(ctx, store, items)
	if err != nil {
		return nil, err
	}

	if err := consumeMaterials(ctx, store, deltas, fmt.Sprintf("order #%d", order.ID)); err != nil {
		return nil, err
	}

	served, err := store.MarkOrderServed(ctx, database.MarkOrderServedParams{
		ID:       order.ID,
		ServedAt: time.Now(),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Status moved between our read and write.
			return nil, ErrInvalidTransition
		}
		return nil, fmt.Errorf("mark order served: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &OrderResult{Order: served, Items: items}, nil
}

// OrderFilters narrows ListOrders. Zero values mean no filter.
type OrderFilters struct {
	Status      string
	TableNumber string
	StartDate   time.Time
	EndDate     time.Time
}

// ListOrders returns orders matching the filters, creation time ascending.
func (s *OrderService) ListOrders(ctx context.Context, f OrderFilters) ([]OrderResult, error) {
	params := database.ListOrdersParams{
		Status:      textOrNull(f.Status),
		TableNumber: textOrNull(f.TableNumber),
	}
	if !f.StartDate.IsZero() {
		params.CreatedFrom.Time = f.StartDate
		params.CreatedFrom.Valid = true
	}
	if !f.EndDate.IsZero() {
		params.CreatedTo.Time = f.EndDate
		params.CreatedTo.Valid = true
	}

	orders, err := s.store.ListOrders(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	results := make([]OrderResult, 0, len(orders))
	for _, o := range orders {
		items, err := s.store.ListOrderItems(ctx, o.ID)
		if err != nil {
			return nil, fmt.Errorf("list order items: %w", err)
		}
		results = append(results, OrderResult{Order: o, Items: items})
	}
	return results, nil
}

// ListTodayOrders is the front-of-house view: every order created during
// the current calendar day in the bar's timezone.
func (s *OrderService) ListTodayOrders(ctx context.Context, now time.Time) ([]OrderResult, error) {
	local := now.In(taipeiLocation)
	dayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, taipeiLocation)
	return s.ListOrders(ctx, OrderFilters{
		StartDate: dayStart,
		EndDate:   dayStart.AddDate(0, 0, 1),
	})
}

// ListActiveOrders is the bar view: pending and claimed orders, oldest
// first, so bartenders work the queue in arrival order.
func (s *OrderService) ListActiveOrders(ctx context.Context) ([]OrderResult, error) {
	orders, err := s.store.ListActiveOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active orders: %w", err)
	}
	results := make([]OrderResult, 0, len(orders))
	for _, o := range orders {
		items, err := s.store.ListOrderItems(ctx, o.ID)
		if err != nil {
			return nil, fmt.Errorf("list order items: %w", err)
		}
		results = append(results, OrderResult{Order: o, Items: items})
	}
	return results, nil
}

// GetOrder returns a single order with its lines.
func (s *OrderService) GetOrder(ctx context.Context, id int64) (*OrderResult, error) {
	order, err := s.store.GetOrder(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	items, err := s.store.ListOrderItems(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	return &OrderResult{Order: order, Items: items}, nil
}

// classifyLostTransition decides whether a zero-row compare-and-set lost
// because the order is absent or because its status already moved on.
func (s *OrderService) classifyLostTransition(ctx context.Context, id int64) error {
	_, err := s.store.GetOrder(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrOrderNotFound
	}
	if err != nil {
		return fmt.Errorf("get order: %w", err)
	}
	return ErrInvalidTransition
}

// aggregateConsumption sums quantity × per-unit recipe across all lines
// into one delta per material, first-seen order preserved.
func aggregateConsumption(ctx context.Context, store OrderStore, items []database.OrderItem) ([]MaterialDelta, error) {
	index := make(map[string]int)
	var deltas []MaterialDelta

	for _, line := range items {
		recipe, err := store.ListItemMaterials(ctx, line.ItemName)
		if err != nil {
			return nil, fmt.Errorf("list recipe for %q: %w", line.ItemName, err)
		}
		qty := decimal.NewFromInt32(line.Quantity)
		for _, rm := range recipe {
			consumed := numericToDecimal(rm.Quantity).Mul(qty)
			if i, ok := index[rm.MaterialName]; ok {
				deltas[i].Quantity = deltas[i].Quantity.Add(consumed)
				continue
			}
			index[rm.MaterialName] = len(deltas)
			deltas = append(deltas, MaterialDelta{Name: rm.MaterialName, Quantity: consumed})
		}
	}
	return deltas, nil
}
