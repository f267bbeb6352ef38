package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"

	"github.com/fridays-bar/api/internal/database"
	"github.com/fridays-bar/api/internal/handler"
)

// --- Mock store ---

type mockStaffStore struct {
	staff map[string]database.Staff
}

func newMockStaffStore() *mockStaffStore {
	return &mockStaffStore{staff: make(map[string]database.Staff)}
}

func (m *mockStaffStore) CreateStaff(_ context.Context, arg database.CreateStaffParams) (database.Staff, error) {
	if _, ok := m.staff[arg.Name]; ok {
		return database.Staff{}, &pgconn.PgError{Code: "23505"}
	}
	s := database.Staff{
		ID:             uuid.New(),
		Name:           arg.Name,
		Role:           arg.Role,
		HashedPassword: arg.HashedPassword,
		CreatedAt:      time.Now(),
	}
	m.staff[arg.Name] = s
	return s, nil
}

func (m *mockStaffStore) ListStaff(_ context.Context) ([]database.Staff, error) {
	var out []database.Staff
	for _, s := range m.staff {
		out = append(out, s)
	}
	return out, nil
}

func setupStaffRouter(store *mockStaffStore) *chi.Mux {
	h := handler.NewStaffHandler(store)
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

// --- Tests ---

func TestStaffCreate_Valid(t *testing.T) {
	store := newMockStaffStore()
	r := setupStaffRouter(store)

	rr := doJSON(t, r, http.MethodPost, "/staff", map[string]any{
		"name":     "小李",
		"role":     "bar",
		"password": "secret123",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}

	resp := decodeBody(t, rr)
	if resp["name"] != "小李" || resp["role"] != "bar" {
		t.Errorf("unexpected body: %+v", resp)
	}
	if _, ok := resp["password"]; ok {
		t.Error("password echoed in response")
	}

	// Stored hash must verify, and must not be the plaintext.
	stored := store.staff["小李"]
	if stored.HashedPassword == "secret123" {
		t.Error("password stored in plaintext")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored.HashedPassword), []byte("secret123")); err != nil {
		t.Errorf("stored hash does not verify: %v", err)
	}
}

func TestStaffCreate_Duplicate(t *testing.T) {
	store := newMockStaffStore()
	r := setupStaffRouter(store)

	payload := map[string]any{"name": "小李", "role": "bar", "password": "secret123"}
	doJSON(t, r, http.MethodPost, "/staff", payload)
	rr := doJSON(t, r, http.MethodPost, "/staff", payload)
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rr.Code)
	}
}

func TestStaffCreate_InvalidRole(t *testing.T) {
	r := setupStaffRouter(newMockStaffStore())

	rr := doJSON(t, r, http.MethodPost, "/staff", map[string]any{
		"name":     "小李",
		"role":     "kitchen",
		"password": "secret123",
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestStaffCreate_MissingPassword(t *testing.T) {
	r := setupStaffRouter(newMockStaffStore())

	rr := doJSON(t, r, http.MethodPost, "/staff", map[string]any{"name": "小李", "role": "bar"})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestStaffList_Basic(t *testing.T) {
	store := newMockStaffStore()
	r := setupStaffRouter(store)

	doJSON(t, r, http.MethodPost, "/staff", map[string]any{"name": "小李", "role": "bar", "password": "x1"})
	doJSON(t, r, http.MethodPost, "/staff", map[string]any{"name": "小王", "role": "front", "password": "x2"})

	rr := doJSON(t, r, http.MethodGet, "/staff", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var resp []map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp) != 2 {
		t.Fatalf("expected 2 staff, got %d", len(resp))
	}
}
