package handler_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/fridays-bar/api/internal/handler"
	"github.com/fridays-bar/api/internal/service"
)

type stubStatsService struct {
	fn func(ctx context.Context, now time.Time) (service.DashboardStats, error)
}

func (s *stubStatsService) ComputeDashboard(ctx context.Context, now time.Time) (service.DashboardStats, error) {
	return s.fn(ctx, now)
}

func setupStatsRouter(svc *stubStatsService) *chi.Mux {
	h := handler.NewStatsHandler(svc)
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func TestDashboard_Basic(t *testing.T) {
	svc := &stubStatsService{
		fn: func(ctx context.Context, now time.Time) (service.DashboardStats, error) {
			return service.DashboardStats{
				TodayRevenue:  decimal.RequireFromString("1120.00"),
				PendingOrders: 2,
				LowStockCount: 1,
				OnlineUsers:   3,
			}, nil
		},
	}
	r := setupStatsRouter(svc)

	rr := doJSON(t, r, http.MethodGet, "/stats/dashboard", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	resp := decodeBody(t, rr)
	if resp["today_revenue"] != "1120.00" {
		t.Errorf("today_revenue: %v", resp["today_revenue"])
	}
	if resp["pending_orders"] != float64(2) || resp["low_stock_count"] != float64(1) || resp["online_users"] != float64(3) {
		t.Errorf("unexpected body: %+v", resp)
	}
}

func TestDashboard_StoreError(t *testing.T) {
	svc := &stubStatsService{
		fn: func(ctx context.Context, now time.Time) (service.DashboardStats, error) {
			return service.DashboardStats{}, errors.New("boom")
		},
	}
	r := setupStatsRouter(svc)

	rr := doJSON(t, r, http.MethodGet, "/stats/dashboard", nil)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
}
