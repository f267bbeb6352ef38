package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/fridays-bar/api/internal/database"
	"github.com/fridays-bar/api/internal/service"
)

// InventoryServicer defines the service methods needed by material
// handlers. Satisfied by *service.InventoryService.
type InventoryServicer interface {
	GetMaterial(ctx context.Context, name string) (database.Material, error)
	ListMaterials(ctx context.Context) ([]database.Material, error)
	CreateMaterial(ctx context.Context, req service.CreateMaterialRequest) (database.Material, error)
	DeleteMaterial(ctx context.Context, name string) error
	ApplyStockAction(ctx context.Context, name, action string, amount decimal.Decimal, reason string) (database.Material, error)
	ListLowStock(ctx context.Context) ([]service.LowStockAlert, error)
	ListMovements(ctx context.Context, name string) ([]database.StockMovement, error)
}

// MaterialHandler handles material ledger endpoints.
type MaterialHandler struct {
	svc InventoryServicer
}

// NewMaterialHandler creates a new MaterialHandler.
func NewMaterialHandler(svc InventoryServicer) *MaterialHandler {
	return &MaterialHandler{svc: svc}
}

// RegisterRoutes registers material endpoints on the given Chi router.
func (h *MaterialHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/alerts/low-stock", h.LowStock)
	r.Get("/{name}", h.Get)
	r.Delete("/{name}", h.Delete)
	r.Put("/{name}/stock", h.StockAction)
	r.Get("/{name}/movements", h.Movements)
}

// --- Request / Response types ---

type createMaterialRequest struct {
	Name         string  `json:"name"`
	CurrentStock string  `json:"current_stock"`
	MinStock     string  `json:"min_stock"`
	Unit         string  `json:"unit"`
	Category     string  `json:"category"`
	CostPerUnit  *string `json:"cost_per_unit"`
}

type stockActionRequest struct {
	Action string `json:"action"`
	Amount string `json:"amount"`
	Reason string `json:"reason"`
}

type materialResponse struct {
	Name         string     `json:"name"`
	CurrentStock string     `json:"current_stock"`
	MinStock     string     `json:"min_stock"`
	Unit         string     `json:"unit"`
	Category     string     `json:"category"`
	CostPerUnit  *string    `json:"cost_per_unit"`
	LastUpdated  *time.Time `json:"last_updated"`
}

type lowStockResponse struct {
	materialResponse
	Shortage string `json:"shortage"`
}

type movementResponse struct {
	ID        int64     `json:"id"`
	Action    string    `json:"action"`
	Amount    string    `json:"amount"`
	Reason    *string   `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}

// --- Handlers ---

// List handles GET /materials.
func (h *MaterialHandler) List(w http.ResponseWriter, r *http.Request) {
	materials, err := h.svc.ListMaterials(r.Context())
	if err != nil {
		log.Printf("ERROR: list materials: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]materialResponse, len(materials))
	for i, m := range materials {
		resp[i] = toMaterialResponse(m)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /materials/{name}.
func (h *MaterialHandler) Get(w http.ResponseWriter, r *http.Request) {
	m, err := h.svc.GetMaterial(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeMaterialError(w, "get material", err)
		return
	}
	writeJSON(w, http.StatusOK, toMaterialResponse(m))
}

// Create handles POST /materials.
func (h *MaterialHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createMaterialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	current, err := parseAmount(req.CurrentStock, decimal.Zero)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid current_stock"})
		return
	}
	min, err := parseAmount(req.MinStock, decimal.Zero)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid min_stock"})
		return
	}

	svcReq := service.CreateMaterialRequest{
		Name:         req.Name,
		CurrentStock: current,
		MinStock:     min,
		Unit:         req.Unit,
		Category:     req.Category,
	}
	if req.CostPerUnit != nil {
		cost, err := decimal.NewFromString(*req.CostPerUnit)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid cost_per_unit"})
			return
		}
		svcReq.CostPerUnit = &cost
	}

	m, err := h.svc.CreateMaterial(r.Context(), svcReq)
	if err != nil {
		writeMaterialError(w, "create material", err)
		return
	}
	writeJSON(w, http.StatusCreated, toMaterialResponse(m))
}

// Delete handles DELETE /materials/{name}.
func (h *MaterialHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteMaterial(r.Context(), chi.URLParam(r, "name")); err != nil {
		writeMaterialError(w, "delete material", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// StockAction handles PUT /materials/{name}/stock.
func (h *MaterialHandler) StockAction(w http.ResponseWriter, r *http.Request) {
	var req stockActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid amount"})
		return
	}

	m, err := h.svc.ApplyStockAction(r.Context(), chi.URLParam(r, "name"), req.Action, amount, req.Reason)
	if err != nil {
		writeMaterialError(w, "stock action", err)
		return
	}
	writeJSON(w, http.StatusOK, toMaterialResponse(m))
}

// Movements handles GET /materials/{name}/movements.
func (h *MaterialHandler) Movements(w http.ResponseWriter, r *http.Request) {
	movements, err := h.svc.ListMovements(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeMaterialError(w, "list movements", err)
		return
	}

	resp := make([]movementResponse, len(movements))
	for i, m := range movements {
		resp[i] = toMovementResponse(m)
	}
	writeJSON(w, http.StatusOK, resp)
}

// LowStock handles GET /materials/alerts/low-stock.
func (h *MaterialHandler) LowStock(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.svc.ListLowStock(r.Context())
	if err != nil {
		log.Printf("ERROR: list low stock: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]lowStockResponse, len(alerts))
	for i, a := range alerts {
		resp[i] = lowStockResponse{
			materialResponse: toMaterialResponse(a.Material),
			Shortage:         a.Shortage.StringFixed(2),
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- Helpers ---

// writeMaterialError maps ledger errors onto HTTP statuses.
func writeMaterialError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, service.ErrMaterialNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrInvalidStockAction):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrMaterialExists),
		errors.Is(err, service.ErrMaterialReferenced),
		errors.Is(err, service.ErrInsufficientStock):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		log.Printf("ERROR: %s: %v", op, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

// parseAmount parses an optional decimal string, using def when empty.
func parseAmount(s string, def decimal.Decimal) (decimal.Decimal, error) {
	if s == "" {
		return def, nil
	}
	return decimal.NewFromString(s)
}

func toMaterialResponse(m database.Material) materialResponse {
	resp := materialResponse{
		Name:         m.Name,
		CurrentStock: numericToString(m.CurrentStock),
		MinStock:     numericToString(m.MinStock),
		Unit:         m.Unit,
		Category:     m.Category,
	}
	if m.CostPerUnit.Valid {
		s := numericToString(m.CostPerUnit)
		resp.CostPerUnit = &s
	}
	if m.LastUpdated.Valid {
		resp.LastUpdated = &m.LastUpdated.Time
	}
	return resp
}

func toMovementResponse(m database.StockMovement) movementResponse {
	resp := movementResponse{
		ID:        m.ID,
		Action:    m.Action,
		Amount:    numericToString(m.Amount),
		CreatedAt: m.CreatedAt,
	}
	if m.Reason.Valid {
		resp.Reason = &m.Reason.String
	}
	return resp
}
