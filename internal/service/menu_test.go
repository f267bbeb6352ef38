package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/fridays-bar/api/internal/database"
	"github.com/fridays-bar/api/internal/enum"
)

func newTestMenuService(store *memStore) *MenuService {
	pool := &memPool{store: store}
	return NewMenuService(pool, store, func(db database.DBTX) MenuStore { return store })
}

func vodkaTonicRequest() ItemRequest {
	return ItemRequest{
		Name:        "伏特加通寧",
		BaseSpirit:  enum.BaseSpiritVodka,
		Price:       dec("260.00"),
		AlcoholCost: dec("38.00"),
		OtherCost:   dec("5.00"),
		Materials: []RecipeLine{
			{MaterialName: "威士忌", Quantity: dec("0.1")},
			{MaterialName: "可樂", Quantity: dec("1")},
		},
	}
}

func TestCreateItem_DerivesGrossProfit(t *testing.T) {
	store := seedBarStore()
	svc := newTestMenuService(store)

	result, err := svc.CreateItem(context.Background(), vodkaTonicRequest())
	if err != nil {
		t.Fatalf("create item: %v", err)
	}
	if !numericEquals(result.Item.GrossProfit, "217.00") {
		t.Errorf("gross profit: %v", numericToDecimal(result.Item.GrossProfit))
	}
	if !numericEquals(result.Item.GrossProfitMargin, "0.8346") {
		t.Errorf("margin: %v", numericToDecimal(result.Item.GrossProfitMargin))
	}
	if len(result.Recipe) != 2 {
		t.Fatalf("expected 2 recipe lines, got %d", len(result.Recipe))
	}
}

func TestCreateItem_ZeroPriceZeroMargin(t *testing.T) {
	store := seedBarStore()
	svc := newTestMenuService(store)

	req := vodkaTonicRequest()
	req.Price = dec("0")
	req.AlcoholCost = dec("0")
	req.OtherCost = dec("0")
	result, err := svc.CreateItem(context.Background(), req)
	if err != nil {
		t.Fatalf("create item: %v", err)
	}
	if !numericEquals(result.Item.GrossProfitMargin, "0") {
		t.Errorf("expected zero margin, got %v", numericToDecimal(result.Item.GrossProfitMargin))
	}
}

func TestCreateItem_Duplicate(t *testing.T) {
	store := seedBarStore()
	svc := newTestMenuService(store)

	req := vodkaTonicRequest()
	req.Name = "威士忌可樂"
	if _, err := svc.CreateItem(context.Background(), req); !errors.Is(err, ErrItemExists) {
		t.Fatalf("expected ErrItemExists, got: %v", err)
	}
}

func TestCreateItem_EmptyRecipe(t *testing.T) {
	svc := newTestMenuService(seedBarStore())

	req := vodkaTonicRequest()
	req.Materials = nil
	if _, err := svc.CreateItem(context.Background(), req); !errors.Is(err, ErrEmptyRecipe) {
		t.Fatalf("expected ErrEmptyRecipe, got: %v", err)
	}
}

func TestCreateItem_NegativePrice(t *testing.T) {
	svc := newTestMenuService(seedBarStore())

	req := vodkaTonicRequest()
	req.Price = dec("-1")
	if _, err := svc.CreateItem(context.Background(), req); !errors.Is(err, ErrNegativePrice) {
		t.Fatalf("expected ErrNegativePrice, got: %v", err)
	}
}

func TestCreateItem_UnknownRecipeMaterial(t *testing.T) {
	store := seedBarStore()
	svc := newTestMenuService(store)

	req := vodkaTonicRequest()
	req.Materials = []RecipeLine{{MaterialName: "伏特加", Quantity: dec("0.1")}}
	if _, err := svc.CreateItem(context.Background(), req); !errors.Is(err, ErrUnknownMaterial) {
		t.Fatalf("expected ErrUnknownMaterial, got: %v", err)
	}
	// The rejected item must not exist.
	if _, ok := store.items["伏特加通寧"]; ok {
		t.Error("item created despite unknown material")
	}
}

func TestCreateItem_DuplicateRecipeMaterial(t *testing.T) {
	store := seedBarStore()
	svc := newTestMenuService(store)

	req := vodkaTonicRequest()
	req.Materials = append(req.Materials, RecipeLine{MaterialName: req.Materials[0].MaterialName, Quantity: dec("1")})
	if _, err := svc.CreateItem(context.Background(), req); !errors.Is(err, ErrDuplicateMaterial) {
		t.Fatalf("expected ErrDuplicateMaterial, got: %v", err)
	}
	if _, ok := store.items["伏特加通寧"]; ok {
		t.Error("item created despite duplicate recipe line")
	}
}

func TestCreateItem_ZeroRecipeQuantity(t *testing.T) {
	svc := newTestMenuService(seedBarStore())

	req := vodkaTonicRequest()
	req.Materials[0].Quantity = dec("0")
	if _, err := svc.CreateItem(context.Background(), req); !errors.Is(err, ErrRecipeQuantity) {
		t.Fatalf("expected ErrRecipeQuantity, got: %v", err)
	}
}

func TestUpdateItem_ReplacesRecipe(t *testing.T) {
	store := seedBarStore()
	svc := newTestMenuService(store)

	req := vodkaTonicRequest()
	req.Name = "威士忌可樂"
	req.Price = dec("300.00")
	req.Materials = []RecipeLine{{MaterialName: "威士忌", Quantity: dec("0.15")}}

	result, err := svc.UpdateItem(context.Background(), req)
	if err != nil {
		t.Fatalf("update item: %v", err)
	}
	if !numericEquals(result.Item.Price, "300.00") {
		t.Errorf("price: %v", numericToDecimal(result.Item.Price))
	}
	if len(result.Recipe) != 1 || result.Recipe[0].MaterialName != "威士忌" {
		t.Fatalf("recipe not replaced: %+v", result.Recipe)
	}
}

func TestUpdateItem_NotFound(t *testing.T) {
	svc := newTestMenuService(seedBarStore())

	req := vodkaTonicRequest()
	req.Name = "長島冰茶"
	if _, err := svc.UpdateItem(context.Background(), req); !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got: %v", err)
	}
}

func TestDeleteItem_Basic(t *testing.T) {
	store := seedBarStore()
	svc := newTestMenuService(store)

	if err := svc.DeleteItem(context.Background(), "威士忌可樂"); err != nil {
		t.Fatalf("delete item: %v", err)
	}
	if _, ok := store.items["威士忌可樂"]; ok {
		t.Error("item still present after delete")
	}
}

func TestDeleteItem_ReferencedByUnservedOrder(t *testing.T) {
	store := seedBarStore()
	menuSvc := newTestMenuService(store)
	orderSvc := newTestOrderService(store)

	mustCreateOrder(t, orderSvc, barOrderRequest())

	err := menuSvc.DeleteItem(context.Background(), "威士忌可樂")
	if !errors.Is(err, ErrItemReferenced) {
		t.Fatalf("expected ErrItemReferenced, got: %v", err)
	}
	if !strings.Contains(err.Error(), "(1)") {
		t.Errorf("error should carry the referencing order count, got: %v", err)
	}
}

func TestDeleteItem_ServedOrderDoesNotBlock(t *testing.T) {
	store := seedBarStore()
	menuSvc := newTestMenuService(store)
	orderSvc := newTestOrderService(store)

	created := mustCreateOrder(t, orderSvc, barOrderRequest())
	if _, err := orderSvc.ClaimOrder(context.Background(), created.Order.ID, "小李"); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if _, err := orderSvc.ServeOrder(context.Background(), created.Order.ID); err != nil {
		t.Fatalf("serve: %v", err)
	}

	if err := menuSvc.DeleteItem(context.Background(), "威士忌可樂"); err != nil {
		t.Fatalf("delete after serve: %v", err)
	}
}

func TestMaterialsConsumedPerUnit(t *testing.T) {
	svc := newTestMenuService(seedBarStore())

	lines, err := svc.MaterialsConsumedPerUnit(context.Background(), "威士忌可樂")
	if err != nil {
		t.Fatalf("materials consumed: %v", err)
	}
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0].MaterialName != "威士忌" || !lines[0].Quantity.Equal(dec("0.1")) {
		t.Errorf("first line: %+v", lines[0])
	}
}

func TestResolve_NotFound(t *testing.T) {
	svc := newTestMenuService(seedBarStore())

	if _, err := svc.Resolve(context.Background(), "長島冰茶"); !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got: %v", err)
	}
}
