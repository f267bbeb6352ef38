package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/fridays-bar/api/internal/database"
)

var taipeiLocation *time.Location

func init() {
	loc, err := time.LoadLocation("Asia/Taipei")
	if err != nil {
		loc = time.FixedZone("CST", 8*60*60)
	}
	taipeiLocation = loc
}

// StatsStore defines the DB methods needed by the dashboard reducer.
type StatsStore interface {
	SumRevenueBetween(ctx context.Context, arg database.TodayOrderStatsParams) (pgtype.Numeric, error)
	CountPendingOrders(ctx context.Context) (int64, error)
	CountLowStockMaterials(ctx context.Context) (int64, error)
}

// Presence reports how many staff sessions are currently connected.
// Satisfied by the websocket hub.
type Presence interface {
	OnlineCount() int
}

// DashboardStats is a derived projection, recomputed on every read.
type DashboardStats struct {
	TodayRevenue  decimal.Decimal
	PendingOrders int64
	LowStockCount int64
	OnlineUsers   int
}

// StatsService reduces over order and material state; it holds none of
// its own.
type StatsService struct {
	store    StatsStore
	presence Presence
}

func NewStatsService(store StatsStore, presence Presence) *StatsService {
	return &StatsService{store: store, presence: presence}
}

// ComputeDashboard derives stats for the calendar day of now in the
// bar's timezone. Empty order and material sets yield zeroed stats.
func (s *StatsService) ComputeDashboard(ctx context.Context, now time.Time) (DashboardStats, error) {
	local := now.In(taipeiLocation)
	dayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, taipeiLocation)
	dayEnd := dayStart.AddDate(0, 0, 1)

	revenue, err := s.store.SumRevenueBetween(ctx, database.TodayOrderStatsParams{
		DayStart: dayStart,
		DayEnd:   dayEnd,
	})
	if err != nil {
		return DashboardStats{}, fmt.Errorf("sum revenue: %w", err)
	}

	pending, err := s.store.CountPendingOrders(ctx)
	if err != nil {
		return DashboardStats{}, fmt.Errorf("count pending orders: %w", err)
	}

	lowStock, err := s.store.CountLowStockMaterials(ctx)
	if err != nil {
		return DashboardStats{}, fmt.Errorf("count low stock: %w", err)
	}

	return DashboardStats{
		TodayRevenue:  numericToDecimal(revenue),
		PendingOrders: pending,
		LowStockCount: lowStock,
		OnlineUsers:   s.presence.OnlineCount(),
	}, nil
}
