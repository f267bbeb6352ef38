package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// Material is a stock-tracked ingredient, keyed by name.
type Material struct {
	Name         string
	CurrentStock pgtype.Numeric
	MinStock     pgtype.Numeric
	Unit         string
	Category     string
	CostPerUnit  pgtype.Numeric
	LastUpdated  pgtype.Timestamptz
}

// StockMovement is one journal entry of the ledger: who moved how much
// of which material, and why. Insert-only.
type StockMovement struct {
	ID           int64
	MaterialName string
	Action       string
	Amount       pgtype.Numeric
	Reason       pgtype.Text
	CreatedAt    time.Time
}

// Item is a sellable menu entry, keyed by name. Gross profit fields are
// derived from price and costs at write time and stored alongside them.
type Item struct {
	Name              string
	BaseSpirit        string
	Price             pgtype.Numeric
	AlcoholCost       pgtype.Numeric
	OtherCost         pgtype.Numeric
	GrossProfit       pgtype.Numeric
	GrossProfitMargin pgtype.Numeric
	Notes             pgtype.Text
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// ItemMaterial is one recipe line: the quantity of a material one unit
// of the item consumes. Position preserves recipe order.
type ItemMaterial struct {
	ItemName     string
	MaterialName string
	Quantity     pgtype.Numeric
	Position     int32
}

// Order is a customer request. IDs come from a sequence and are never reused.
type Order struct {
	ID          int64
	TableNumber string
	OrdererName string
	TotalPrice  pgtype.Numeric
	Status      string
	Notes       pgtype.Text
	Bartender   pgtype.Text
	CreatedAt   time.Time
	ServedAt    pgtype.Timestamptz
}

// OrderItem is one order line with the price snapshotted at creation time.
type OrderItem struct {
	OrderID  int64
	ItemName string
	Quantity int32
	Price    pgtype.Numeric
	Position int32
}

// Staff is a named actor. Role is a trusted preference, not a permission.
type Staff struct {
	ID             uuid.UUID
	Name           string
	Role           string
	HashedPassword string
	CreatedAt      time.Time
}
