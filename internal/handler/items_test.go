package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/fridays-bar/api/internal/database"
	"github.com/fridays-bar/api/internal/enum"
	"github.com/fridays-bar/api/internal/handler"
	"github.com/fridays-bar/api/internal/service"
)

// --- Stub service ---

type stubMenuService struct {
	listFn    func(ctx context.Context) ([]service.ItemResult, error)
	resolveFn func(ctx context.Context, name string) (*service.ItemResult, error)
	createFn  func(ctx context.Context, req service.ItemRequest) (*service.ItemResult, error)
	updateFn  func(ctx context.Context, req service.ItemRequest) (*service.ItemResult, error)
	deleteFn  func(ctx context.Context, name string) error
}

func (s *stubMenuService) ListItems(ctx context.Context) ([]service.ItemResult, error) {
	return s.listFn(ctx)
}
func (s *stubMenuService) Resolve(ctx context.Context, name string) (*service.ItemResult, error) {
	return s.resolveFn(ctx, name)
}
func (s *stubMenuService) CreateItem(ctx context.Context, req service.ItemRequest) (*service.ItemResult, error) {
	return s.createFn(ctx, req)
}
func (s *stubMenuService) UpdateItem(ctx context.Context, req service.ItemRequest) (*service.ItemResult, error) {
	return s.updateFn(ctx, req)
}
func (s *stubMenuService) DeleteItem(ctx context.Context, name string) error {
	return s.deleteFn(ctx, name)
}

func setupItemRouter(svc *stubMenuService) *chi.Mux {
	h := handler.NewItemHandler(svc)
	r := chi.NewRouter()
	r.Route("/items", h.RegisterRoutes)
	return r
}

func sampleItemResult() *service.ItemResult {
	return &service.ItemResult{
		Item: database.Item{
			Name:              "威士忌可樂",
			BaseSpirit:        enum.BaseSpiritWhisky,
			Price:             makeNumeric("280.00"),
			AlcoholCost:       makeNumeric("45.00"),
			OtherCost:         makeNumeric("5.00"),
			GrossProfit:       makeNumeric("230.00"),
			GrossProfitMargin: makeNumeric("0.8214"),
			CreatedAt:         time.Now(),
			UpdatedAt:         time.Now(),
		},
		Recipe: []database.ItemMaterial{
			{ItemName: "威士忌可樂", MaterialName: "威士忌", Quantity: makeNumeric("0.1"), Position: 0},
			{ItemName: "威士忌可樂", MaterialName: "可樂", Quantity: makeNumeric("1"), Position: 1},
		},
	}
}

func itemPayload() map[string]any {
	return map[string]any{
		"name":         "威士忌可樂",
		"base_spirit":  "whisky",
		"price":        "280.00",
		"alcohol_cost": "45.00",
		"other_cost":   "5.00",
		"materials": []map[string]any{
			{"material_name": "威士忌", "quantity": "0.1"},
			{"material_name": "可樂"},
		},
	}
}

// --- Tests ---

func TestItemList_Basic(t *testing.T) {
	svc := &stubMenuService{
		listFn: func(ctx context.Context) ([]service.ItemResult, error) {
			return []service.ItemResult{*sampleItemResult()}, nil
		},
	}
	r := setupItemRouter(svc)

	rr := doJSON(t, r, http.MethodGet, "/items", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var resp []map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp) != 1 || resp[0]["gross_profit"] != "230.00" {
		t.Errorf("unexpected body: %+v", resp)
	}
	materials := resp[0]["materials"].([]interface{})
	if len(materials) != 2 {
		t.Fatalf("expected 2 recipe lines, got %d", len(materials))
	}
}

func TestItemCreate_Valid(t *testing.T) {
	svc := &stubMenuService{
		createFn: func(ctx context.Context, req service.ItemRequest) (*service.ItemResult, error) {
			if !req.Price.Equal(decimal.RequireFromString("280.00")) {
				t.Errorf("price: %v", req.Price)
			}
			// Omitted recipe quantity defaults to 1.
			if len(req.Materials) != 2 || !req.Materials[1].Quantity.Equal(decimal.NewFromInt(1)) {
				t.Errorf("materials: %+v", req.Materials)
			}
			return sampleItemResult(), nil
		},
	}
	r := setupItemRouter(svc)

	rr := doJSON(t, r, http.MethodPost, "/items", itemPayload())
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestItemCreate_Duplicate(t *testing.T) {
	svc := &stubMenuService{
		createFn: func(ctx context.Context, req service.ItemRequest) (*service.ItemResult, error) {
			return nil, service.ErrItemExists
		},
	}
	r := setupItemRouter(svc)

	rr := doJSON(t, r, http.MethodPost, "/items", itemPayload())
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rr.Code)
	}
}

func TestItemCreate_UnknownMaterial(t *testing.T) {
	svc := &stubMenuService{
		createFn: func(ctx context.Context, req service.ItemRequest) (*service.ItemResult, error) {
			return nil, service.ErrUnknownMaterial
		},
	}
	r := setupItemRouter(svc)

	rr := doJSON(t, r, http.MethodPost, "/items", itemPayload())
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestItemCreate_BadPrice(t *testing.T) {
	r := setupItemRouter(&stubMenuService{})

	payload := itemPayload()
	payload["price"] = "expensive"
	rr := doJSON(t, r, http.MethodPost, "/items", payload)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestItemUpdate_UsesPathName(t *testing.T) {
	svc := &stubMenuService{
		updateFn: func(ctx context.Context, req service.ItemRequest) (*service.ItemResult, error) {
			if req.Name != "伏特加通寧" {
				t.Errorf("path name not applied: %q", req.Name)
			}
			return sampleItemResult(), nil
		},
	}
	r := setupItemRouter(svc)

	rr := doJSON(t, r, http.MethodPut, "/items/伏特加通寧", itemPayload())
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestItemUpdate_NotFound(t *testing.T) {
	svc := &stubMenuService{
		updateFn: func(ctx context.Context, req service.ItemRequest) (*service.ItemResult, error) {
			return nil, service.ErrItemNotFound
		},
	}
	r := setupItemRouter(svc)

	rr := doJSON(t, r, http.MethodPut, "/items/長島冰茶", itemPayload())
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestItemDelete_Basic(t *testing.T) {
	svc := &stubMenuService{
		deleteFn: func(ctx context.Context, name string) error { return nil },
	}
	r := setupItemRouter(svc)

	rr := doJSON(t, r, http.MethodDelete, "/items/威士忌可樂", nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}
}

func TestItemDelete_Referenced(t *testing.T) {
	svc := &stubMenuService{
		deleteFn: func(ctx context.Context, name string) error { return service.ErrItemReferenced },
	}
	r := setupItemRouter(svc)

	rr := doJSON(t, r, http.MethodDelete, "/items/威士忌可樂", nil)
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rr.Code)
	}
}

func TestItemGet_NotFound(t *testing.T) {
	svc := &stubMenuService{
		resolveFn: func(ctx context.Context, name string) (*service.ItemResult, error) {
			return nil, service.ErrItemNotFound
		},
	}
	r := setupItemRouter(svc)

	rr := doJSON(t, r, http.MethodGet, "/items/長島冰茶", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}
