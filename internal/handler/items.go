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

	"github.com/fridays-bar/api/internal/service"
)

// MenuServicer defines the service methods needed by item handlers.
// Satisfied by *service.MenuService.
type MenuServicer interface {
	ListItems(ctx context.Context) ([]service.ItemResult, error)
	Resolve(ctx context.Context, name string) (*service.ItemResult, error)
	CreateItem(ctx context.Context, req service.ItemRequest) (*service.ItemResult, error)
	UpdateItem(ctx context.Context, req service.ItemRequest) (*service.ItemResult, error)
	DeleteItem(ctx context.Context, name string) error
}

// ItemHandler handles menu catalog endpoints.
type ItemHandler struct {
	svc MenuServicer
}

// NewItemHandler creates a new ItemHandler.
func NewItemHandler(svc MenuServicer) *ItemHandler {
	return &ItemHandler{svc: svc}
}

// RegisterRoutes registers item endpoints on the given Chi router.
func (h *ItemHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{name}", h.Get)
	r.Put("/{name}", h.Update)
	r.Delete("/{name}", h.Delete)
}

// --- Request / Response types ---

type itemRequest struct {
	Name        string              `json:"name"`
	BaseSpirit  string              `json:"base_spirit"`
	Price       string              `json:"price"`
	AlcoholCost string              `json:"alcohol_cost"`
	OtherCost   string              `json:"other_cost"`
	Notes       string              `json:"notes"`
	Materials   []recipeLineRequest `json:"materials"`
}

type recipeLineRequest struct {
	MaterialName string `json:"material_name"`
	Quantity     string `json:"quantity"`
}

type itemResponse struct {
	Name              string               `json:"name"`
	BaseSpirit        string               `json:"base_spirit"`
	Price             string               `json:"price"`
	AlcoholCost       string               `json:"alcohol_cost"`
	OtherCost         string               `json:"other_cost"`
	GrossProfit       string               `json:"gross_profit"`
	GrossProfitMargin string               `json:"gross_profit_margin"`
	Notes             *string              `json:"notes"`
	CreatedAt         time.Time            `json:"created_at"`
	UpdatedAt         time.Time            `json:"updated_at"`
	Materials         []recipeLineResponse `json:"materials"`
}

type recipeLineResponse struct {
	MaterialName string `json:"material_name"`
	Quantity     string `json:"quantity"`
}

// --- Handlers ---

// List handles GET /items.
func (h *ItemHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.ListItems(r.Context())
	if err != nil {
		log.Printf("ERROR: list items: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]itemResponse, len(items))
	for i := range items {
		resp[i] = toItemResponse(&items[i])
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /items/{name}.
func (h *ItemHandler) Get(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.Resolve(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeItemError(w, "get item", err)
		return
	}
	writeJSON(w, http.StatusOK, toItemResponse(result))
}

// Create handles POST /items.
func (h *ItemHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeItemRequest(w, r, "")
	if !ok {
		return
	}

	result, err := h.svc.CreateItem(r.Context(), req)
	if err != nil {
		writeItemError(w, "create item", err)
		return
	}
	writeJSON(w, http.StatusCreated, toItemResponse(result))
}

// Update handles PUT /items/{name}. The path name wins over any name in
// the body.
func (h *ItemHandler) Update(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeItemRequest(w, r, chi.URLParam(r, "name"))
	if !ok {
		return
	}

	result, err := h.svc.UpdateItem(r.Context(), req)
	if err != nil {
		writeItemError(w, "update item", err)
		return
	}
	writeJSON(w, http.StatusOK, toItemResponse(result))
}

// Delete handles DELETE /items/{name}.
func (h *ItemHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteItem(r.Context(), chi.URLParam(r, "name")); err != nil {
		writeItemError(w, "delete item", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Helpers ---

// decodeItemRequest parses and converts the shared create/update body.
// A non-empty nameOverride pins the item name to the URL path.
func decodeItemRequest(w http.ResponseWriter, r *http.Request, nameOverride string) (service.ItemRequest, bool) {
	var req itemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return service.ItemRequest{}, false
	}
	if nameOverride != "" {
		req.Name = nameOverride
	}

	price, err := parseAmount(req.Price, decimal.Zero)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid price"})
		return service.ItemRequest{}, false
	}
	alcoholCost, err := parseAmount(req.AlcoholCost, decimal.Zero)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid alcohol_cost"})
		return service.ItemRequest{}, false
	}
	otherCost, err := parseAmount(req.OtherCost, decimal.Zero)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid other_cost"})
		return service.ItemRequest{}, false
	}

	lines := make([]service.RecipeLine, len(req.Materials))
	for i, line := range req.Materials {
		// Recipe quantity defaults to 1 per unit sold.
		qty, err := parseAmount(line.Quantity, decimal.NewFromInt(1))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid recipe quantity"})
			return service.ItemRequest{}, false
		}
		lines[i] = service.RecipeLine{MaterialName: line.MaterialName, Quantity: qty}
	}

	return service.ItemRequest{
		Name:        req.Name,
		BaseSpirit:  req.BaseSpirit,
		Price:       price,
		AlcoholCost: alcoholCost,
		OtherCost:   otherCost,
		Notes:       req.Notes,
		Materials:   lines,
	}, true
}

// writeItemError maps catalog errors onto HTTP statuses.
func writeItemError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, service.ErrItemNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrEmptyRecipe),
		errors.Is(err, service.ErrNegativePrice),
		errors.Is(err, service.ErrNegativeCost),
		errors.Is(err, service.ErrRecipeQuantity),
		errors.Is(err, service.ErrUnknownMaterial),
		errors.Is(err, service.ErrDuplicateMaterial),
		errors.Is(err, service.ErrInvalidAmount):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrItemExists),
		errors.Is(err, service.ErrItemReferenced):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		log.Printf("ERROR: %s: %v", op, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

func toItemResponse(result *service.ItemResult) itemResponse {
	item := result.Item
	resp := itemResponse{
		Name:              item.Name,
		BaseSpirit:        item.BaseSpirit,
		Price:             numericToString(item.Price),
		AlcoholCost:       numericToString(item.AlcoholCost),
		OtherCost:         numericToString(item.OtherCost),
		GrossProfit:       numericToString(item.GrossProfit),
		GrossProfitMargin: numericToString(item.GrossProfitMargin),
		CreatedAt:         item.CreatedAt,
		UpdatedAt:         item.UpdatedAt,
	}
	if item.Notes.Valid {
		resp.Notes = &item.Notes.String
	}

	resp.Materials = make([]recipeLineResponse, len(result.Recipe))
	for i, rm := range result.Recipe {
		resp.Materials[i] = recipeLineResponse{
			MaterialName: rm.MaterialName,
			Quantity:     numericToString(rm.Quantity),
		}
	}
	return resp
}
