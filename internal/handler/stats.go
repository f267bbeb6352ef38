package handler

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fridays-bar/api/internal/service"
)

// StatsServicer defines the service methods needed by the dashboard
// handler. Satisfied by *service.StatsService.
type StatsServicer interface {
	ComputeDashboard(ctx context.Context, now time.Time) (service.DashboardStats, error)
}

// StatsHandler handles the dashboard endpoint.
type StatsHandler struct {
	svc StatsServicer
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(svc StatsServicer) *StatsHandler {
	return &StatsHandler{svc: svc}
}

// RegisterRoutes registers stats endpoints on the given Chi router.
func (h *StatsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/stats/dashboard", h.Dashboard)
}

type dashboardResponse struct {
	TodayRevenue  string `json:"today_revenue"`
	PendingOrders int64  `json:"pending_orders"`
	LowStockCount int64  `json:"low_stock_count"`
	OnlineUsers   int    `json:"online_users"`
}

// Dashboard handles GET /stats/dashboard. Always recomputed; nothing is
// cached server-side.
func (h *StatsHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.ComputeDashboard(r.Context(), time.Now())
	if err != nil {
		log.Printf("ERROR: compute dashboard: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, dashboardResponse{
		TodayRevenue:  stats.TodayRevenue.StringFixed(2),
		PendingOrders: stats.PendingOrders,
		LowStockCount: stats.LowStockCount,
		OnlineUsers:   stats.OnlineUsers,
	})
}
