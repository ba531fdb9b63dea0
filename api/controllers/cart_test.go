package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/mesaviva/mesaviva-backend/api/middleware"
	"github.com/mesaviva/mesaviva-backend/internal/cart"
	"github.com/mesaviva/mesaviva-backend/internal/menu"
	"github.com/mesaviva/mesaviva-backend/internal/pricing"
	"github.com/mesaviva/mesaviva-backend/pkg/config"
	"github.com/mesaviva/mesaviva-backend/pkg/enums"
	pkgerrors "github.com/mesaviva/mesaviva-backend/pkg/errors"
	"github.com/mesaviva/mesaviva-backend/pkg/types"
)

type memoryStores struct {
	limits cart.Limits
	carts  map[uuid.UUID]*cart.Store
}

func newMemoryStores() *memoryStores {
	return &memoryStores{
		limits: cart.Limits{MaxQtyRegular: 20, MaxQtyPremium: 10},
		carts:  map[uuid.UUID]*cart.Store{},
	}
}

func (m *memoryStores) Load(_ context.Context, sessionID uuid.UUID) (*cart.Store, error) {
	if store, ok := m.carts[sessionID]; ok {
		return store, nil
	}
	return cart.NewStore(m.limits), nil
}

func (m *memoryStores) Update(ctx context.Context, sessionID uuid.UUID, fn func(*cart.Store) error) (*cart.Store, error) {
	store, _ := m.Load(ctx, sessionID)
	if err := fn(store); err != nil {
		return nil, err
	}
	m.carts[sessionID] = store
	return store, nil
}

func (m *memoryStores) Clear(_ context.Context, sessionID uuid.UUID) error {
	delete(m.carts, sessionID)
	return nil
}

type stubMenu struct {
	item *menu.ResolvedItem
}

func (s *stubMenu) GetCurrentWeek(context.Context) (*menu.WeekDTO, error) { return nil, nil }
func (s *stubMenu) GetWeek(context.Context, uuid.UUID) (*menu.WeekDTO, error) {
	return nil, nil
}

func (s *stubMenu) ResolveItem(_ context.Context, sel menu.Selection) (*menu.ResolvedItem, error) {
	if s.item == nil || !strings.EqualFold(sel.ItemName, s.item.Name) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "menu item not found")
	}
	resolved := *s.item
	resolved.WeekID = sel.WeekID
	resolved.DayIndex = sel.DayIndex
	resolved.Tier = sel.Tier
	if resolved.Tier == "" {
		resolved.Tier = enums.PriceTierRegular
	}
	return &resolved, nil
}

func testEngine(t *testing.T) *pricing.Engine {
	t.Helper()
	schedule, err := pricing.ScheduleFromConfig(config.PricingConfig{
		TaxRate:                    "0.0875",
		GratuityRate:               "0",
		DeliveryFeeCents:           500,
		FreeDeliveryThresholdCents: 7500,
		PrepBaseMinutes:            20,
	})
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	engine, err := pricing.NewEngine(schedule)
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	return engine
}

func sessionRequest(method, target, body string, sessionID uuid.UUID) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	return req.WithContext(middleware.WithSessionID(req.Context(), sessionID))
}

func decodeCart(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var envelope types.SuccessEnvelope
	if err := json.NewDecoder(w.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	data, ok := envelope.Data.(map[string]any)
	if !ok {
		t.Fatalf("unexpected payload %T", envelope.Data)
	}
	return data
}

func TestCartAddItemCreatesLine(t *testing.T) {
	stores := newMemoryStores()
	menuSvc := &stubMenu{item: &menu.ResolvedItem{
		Name:           "Chiles Rellenos",
		MealType:       enums.MealTypeLunch,
		UnitPriceCents: 1450,
		PrepMinutes:    25,
	}}
	handler := CartAddItem(stores, menuSvc, testEngine(t), nil)

	sessionID := uuid.New()
	body := `{"week_id":"` + uuid.NewString() + `","day_index":1,"meal_type":"lunch","item_name":"Chiles Rellenos","delta":2}`
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, sessionRequest(http.MethodPost, "/api/v1/cart/items", body, sessionID))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	data := decodeCart(t, w)
	lines := data["lines"].([]any)
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	line := lines[0].(map[string]any)
	if line["quantity"].(float64) != 2 {
		t.Fatalf("expected quantity 2, got %v", line["quantity"])
	}
	quote := data["quote"].(map[string]any)
	if quote["subtotal_cents"].(float64) != 2900 {
		t.Fatalf("expected subtotal 2900, got %v", quote["subtotal_cents"])
	}
}

func TestCartAddItemUnknownDish(t *testing.T) {
	stores := newMemoryStores()
	handler := CartAddItem(stores, &stubMenu{}, testEngine(t), nil)

	body := `{"week_id":"` + uuid.NewString() + `","day_index":1,"meal_type":"dinner","item_name":"Nope"}`
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, sessionRequest(http.MethodPost, "/api/v1/cart/items", body, uuid.New()))

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestCartAddItemRejectsBadMealType(t *testing.T) {
	stores := newMemoryStores()
	handler := CartAddItem(stores, &stubMenu{}, testEngine(t), nil)

	body := `{"week_id":"` + uuid.NewString() + `","day_index":1,"meal_type":"breakfast","item_name":"Eggs"}`
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, sessionRequest(http.MethodPost, "/api/v1/cart/items", body, uuid.New()))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestCartSetQuantityZeroRemovesLine(t *testing.T) {
	stores := newMemoryStores()
	item := &menu.ResolvedItem{
		Name:           "Sopa de Tortilla",
		MealType:       enums.MealTypeDinner,
		UnitPriceCents: 950,
	}
	menuSvc := &stubMenu{item: item}
	weekID := uuid.NewString()
	sessionID := uuid.New()
	engine := testEngine(t)

	addBody := `{"week_id":"` + weekID + `","day_index":3,"meal_type":"dinner","item_name":"Sopa de Tortilla"}`
	w := httptest.NewRecorder()
	CartAddItem(stores, menuSvc, engine, nil).ServeHTTP(w, sessionRequest(http.MethodPost, "/api/v1/cart/items", addBody, sessionID))
	if w.Code != http.StatusOK {
		t.Fatalf("seed add failed: %d", w.Code)
	}

	setBody := `{"week_id":"` + weekID + `","day_index":3,"meal_type":"dinner","item_name":"Sopa de Tortilla","quantity":0}`
	w = httptest.NewRecorder()
	CartSetQuantity(stores, engine, nil).ServeHTTP(w, sessionRequest(http.MethodPut, "/api/v1/cart/items", setBody, sessionID))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	data := decodeCart(t, w)
	if lines, ok := data["lines"].([]any); ok && len(lines) != 0 {
		t.Fatalf("expected empty cart, got %d lines", len(lines))
	}
}

func TestCartSetDetailsMergesPatch(t *testing.T) {
	stores := newMemoryStores()
	engine := testEngine(t)
	sessionID := uuid.New()

	body := `{"customer_name":"Ana Torres","customer_phone":"+52 55 1234 5678"}`
	w := httptest.NewRecorder()
	CartSetDetails(stores, engine, nil).ServeHTTP(w, sessionRequest(http.MethodPatch, "/api/v1/cart/details", body, sessionID))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	data := decodeCart(t, w)
	details := data["details"].(map[string]any)
	if details["customer_name"] != "Ana Torres" {
		t.Fatalf("expected merged name, got %v", details["customer_name"])
	}
}
