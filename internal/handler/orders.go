package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/fridays-bar/api/internal/middleware"
	"github.com/fridays-bar/api/internal/service"
)

// OrderServicer defines the service methods needed by order handlers.
// Satisfied by *service.OrderService; narrow interface for testability.
type OrderServicer interface {
	CreateOrder(ctx context.Context, req service.CreateOrderRequest) (*service.OrderResult, error)
	GetOrder(ctx context.Context, id int64) (*service.OrderResult, error)
	ListOrders(ctx context.Context, f service.OrderFilters) ([]service.OrderResult, error)
	ListTodayOrders(ctx context.Context, now time.Time) ([]service.OrderResult, error)
	ListActiveOrders(ctx context.Context) ([]service.OrderResult, error)
	ClaimOrder(ctx context.Context, id int64, bartender string) (*service.OrderResult, error)
	ServeOrder(ctx context.Context, id int64) (*service.OrderResult, error)
}

// OrderHandler handles order lifecycle endpoints.
type OrderHandler struct {
	svc OrderServicer
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(svc OrderServicer) *OrderHandler {
	return &OrderHandler{svc: svc}
}

// RegisterRoutes registers order endpoints on the given Chi router.
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/front", h.Front)
	r.Get("/bar", h.Bar)
	r.Get("/{id}", h.Get)
	r.Put("/{id}/claim", h.Claim)
	r.Put("/{id}/served", h.Serve)
}

// --- Request / Response types ---

type createOrderRequest struct {
	TableNumber string                   `json:"table_number"`
	OrdererName string                   `json:"orderer_name"`
	Notes       string                   `json:"notes"`
	Items       []createOrderLineRequest `json:"items"`
}

type createOrderLineRequest struct {
	ItemName string `json:"item_name"`
	Quantity int32  `json:"quantity"`
}

type claimOrderRequest struct {
	Bartender string `json:"bartender"`
}

type orderResponse struct {
	ID          int64               `json:"id"`
	TableNumber string              `json:"table_number"`
	OrdererName string              `json:"orderer_name"`
	TotalPrice  string              `json:"total_price"`
	Status      string              `json:"status"`
	Notes       *string             `json:"notes"`
	Bartender   *string             `json:"bartender"`
	CreatedAt   time.Time           `json:"created_at"`
	ServedAt    *time.Time          `json:"served_at"`
	Items       []orderLineResponse `json:"items"`
}

type orderLineResponse struct {
	ItemName string `json:"item_name"`
	Quantity int32  `json:"quantity"`
	Price    string `json:"price"`
}

// --- Handlers ---

// Create handles POST /orders.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	lines := make([]service.CreateOrderLine, len(req.Items))
	for i, line := range req.Items {
		lines[i] = service.CreateOrderLine{ItemName: line.ItemName, Quantity: line.Quantity}
	}

	result, err := h.svc.CreateOrder(r.Context(), service.CreateOrderRequest{
		TableNumber: req.TableNumber,
		OrdererName: req.OrdererName,
		Notes:       req.Notes,
		Items:       lines,
	})
	if err != nil {
		writeOrderError(w, "create order", err)
		return
	}

	writeJSON(w, http.StatusCreated, toOrderResponse(result))
}

// List handles GET /orders with status / table_number / date-range filters.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	filters := service.OrderFilters{
		Status:      r.URL.Query().Get("status"),
		TableNumber: r.URL.Query().Get("table_number"),
	}
	if s := r.URL.Query().Get("start_date"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid start_date format, use YYYY-MM-DD"})
			return
		}
		filters.StartDate = t
	}
	if s := r.URL.Query().Get("end_date"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid end_date format, use YYYY-MM-DD"})
			return
		}
		filters.EndDate = t
	}

	results, err := h.svc.ListOrders(r.Context(), filters)
	writeOrderList(w, results, err)
}

// Front handles GET /orders/front: today's orders for the front desk.
func (h *OrderHandler) Front(w http.ResponseWriter, r *http.Request) {
	results, err := h.svc.ListTodayOrders(r.Context(), time.Now())
	writeOrderList(w, results, err)
}

// Bar handles GET /orders/bar: the pending + claimed work queue.
func (h *OrderHandler) Bar(w http.ResponseWriter, r *http.Request) {
	results, err := h.svc.ListActiveOrders(r.Context())
	writeOrderList(w, results, err)
}

func writeOrderList(w http.ResponseWriter, results []service.OrderResult, err error) {
	if err != nil {
		log.Printf("ERROR: list orders: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	resp := make([]orderResponse, len(results))
	for i := range results {
		resp[i] = toOrderResponse(&results[i])
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /orders/{id}.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := orderIDParam(w, r)
	if !ok {
		return
	}

	result, err := h.svc.GetOrder(r.Context(), id)
	if err != nil {
		writeOrderError(w, "get order", err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(result))
}

// Claim handles PUT /orders/{id}/claim. The bartender comes from the
// request body, falling back to the session identity.
func (h *OrderHandler) Claim(w http.ResponseWriter, r *http.Request) {
	id, ok := orderIDParam(w, r)
	if !ok {
		return
	}

	var req claimOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Bartender == "" {
		if claims := middleware.ClaimsFromContext(r.Context()); claims != nil {
			req.Bartender = claims.Name
		}
	}

	result, err := h.svc.ClaimOrder(r.Context(), id, req.Bartender)
	if err != nil {
		writeOrderError(w, "claim order", err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(result))
}

// Serve handles PUT /orders/{id}/served.
func (h *OrderHandler) Serve(w http.ResponseWriter, r *http.Request) {
	id, ok := orderIDParam(w, r)
	if !ok {
		return
	}

	result, err := h.svc.ServeOrder(r.Context(), id)
	if err != nil {
		writeOrderError(w, "serve order", err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(result))
}

// --- Helpers ---

func orderIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return 0, false
	}
	return id, true
}

// writeOrderError maps order service errors onto HTTP statuses: absent
// things are 404, bad input 400, lost transitions and shortfalls 409.
func writeOrderError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, service.ErrOrderNotFound),
		errors.Is(err, service.ErrItemNotFound),
		errors.Is(err, service.ErrMaterialNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrEmptyItems),
		errors.Is(err, service.ErrBlankTableNumber),
		errors.Is(err, service.ErrBlankOrdererName),
		errors.Is(err, service.ErrBlankBartender),
		errors.Is(err, service.ErrInvalidQuantity):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrInsufficientStock):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		log.Printf("ERROR: %s: %v", op, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

func toOrderResponse(result *service.OrderResult) orderResponse {
	o := result.Order
	resp := orderResponse{
		ID:          o.ID,
		TableNumber: o.TableNumber,
		OrdererName: o.OrdererName,
		TotalPrice:  numericToString(o.TotalPrice),
		Status:      o.Status,
		CreatedAt:   o.CreatedAt,
	}

	if o.Notes.Valid {
		resp.Notes = &o.Notes.String
	}
	if o.Bartender.Valid {
		resp.Bartender = &o.Bartender.String
	}
	if o.ServedAt.Valid {
		resp.ServedAt = &o.ServedAt.Time
	}

	resp.Items = make([]orderLineResponse, len(result.Items))
	for i, line := range result.Items {
		resp.Items[i] = orderLineResponse{
			ItemName: line.ItemName,
			Quantity: line.Quantity,
			Price:    numericToString(line.Price),
		}
	}
	return resp
}

func numericToString(n pgtype.Numeric) string {
	if !n.Valid {
		return "0.00"
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return "0.00"
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return "0.00"
	}
	return d.StringFixed(2)
}
