package routes

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mesaviva/mesaviva-backend/pkg/config"
	"github.com/mesaviva/mesaviva-backend/pkg/logger"
	"github.com/mesaviva/mesaviva-backend/pkg/session"
	"github.com/mesaviva/mesaviva-backend/pkg/types"
)

func testRouter(t *testing.T) http.Handler {
	t.Helper()
	manager, err := session.NewManager(config.SessionConfig{
		Secret:     "router-test-secret",
		Issuer:     "mesaviva",
		TTL:        time.Hour,
		HeaderName: "X-Session-Token",
	})
	if err != nil {
		t.Fatalf("session manager: %v", err)
	}
	cfg := &config.Config{}
	cfg.App.Env = "test"
	cfg.Session.HeaderName = "X-Session-Token"
	return NewRouter(Deps{
		Config:   cfg,
		Logger:   logger.New(logger.Options{ServiceName: "router-test"}),
		Sessions: manager,
	})
}

func TestHealthLive(t *testing.T) {
	router := testRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if env := w.Header().Get("X-MesaViva-Env"); env != "test" {
		t.Fatalf("unexpected env header %q", env)
	}
}

func TestSessionCreateIssuesToken(t *testing.T) {
	router := testRouter(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", w.Code)
	}
	var envelope types.SuccessEnvelope
	if err := json.NewDecoder(w.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	data, ok := envelope.Data.(map[string]any)
	if !ok {
		t.Fatalf("unexpected payload %T", envelope.Data)
	}
	if data["token"] == "" || data["session_id"] == "" {
		t.Fatalf("expected token and session_id, got %v", data)
	}
}

func TestCartRequiresSession(t *testing.T) {
	router := testRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestMetricsEndpointExposed(t *testing.T) {
	router := testRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}
