package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/hawker-app/hawker/internal/catalog"
	"github.com/hawker-app/hawker/internal/dedup"
	"github.com/hawker-app/hawker/internal/dom"
	"github.com/hawker-app/hawker/internal/health"
	"github.com/hawker-app/hawker/internal/pipeline"
)

type nopPublisher struct{}

func (nopPublisher) Publish(string, any) error { return nil }

type fakeLoader struct {
	products []catalog.Product
	err      error
}

func (f *fakeLoader) Load() ([]catalog.Product, error) { return f.products, f.err }

func testServer(t *testing.T, loader CatalogLoader) *Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cache, err := dedup.New(100)
	if err != nil {
		t.Fatalf("dedup cache: %v", err)
	}

	products := []catalog.Product{{
		ID:    uuid.MustParse("11111111-1111-1111-1111-111111111111"),
		Title: "Premium Black Hoodie",
		SKU:   "SK-BH-001",
	}}
	matcher := catalog.NewMatcher(catalog.NewIndex(products), catalog.DefaultMatcherConfig(), logger)

	session := pipeline.NewSession(
		"merchant-1",
		dom.NewEngine(dom.WhatsAppSelectors(), logger),
		cache,
		matcher,
		health.NewMachine(3),
		nopPublisher{},
		"",
		logger,
	)

	return NewServer(8760, session, matcher, loader, logger)
}

func TestHealthEndpoint(t *testing.T) {
	srv := testServer(t, &fakeLoader{})

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}

	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("expected status ok, got %q", body["status"])
	}
}

func TestStatusEndpoint(t *testing.T) {
	srv := testServer(t, &fakeLoader{})

	req := httptest.NewRequest("GET", "/api/v1/hawker/status", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}

	var body map[string]any
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["agent"] != "hawker" {
		t.Errorf("expected agent hawker, got %q", body["agent"])
	}
	if body["state"] != "idle" {
		t.Errorf("fresh session should report idle, got %q", body["state"])
	}
}

func TestIngestSnapshotEndpoint(t *testing.T) {
	srv := testServer(t, &fakeLoader{})

	payload := `{
		"platform": "whatsapp",
		"conversation_id": "conv-1",
		"html": "<html><body><div id=\"main\"><div class=\"copyable-area\"><div role=\"row\"><div class=\"message-in\"><div data-pre-plain-text=\"[14:03, 26/08/2026] Dana: \">I want the black hoodie for $49.99</div></div></div></div></div></body></html>"
	}`

	req := httptest.NewRequest("POST", "/api/v1/snapshots", strings.NewReader(payload))
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var summary pipeline.Summary
	if err := json.NewDecoder(w.Body).Decode(&summary); err != nil {
		t.Fatalf("failed to decode summary: %v", err)
	}
	if summary.Messages != 1 {
		t.Errorf("expected 1 message processed, got %d", summary.Messages)
	}
	if summary.Matches != 1 {
		t.Errorf("expected 1 match, got %d", summary.Matches)
	}
}

func TestIngestSnapshotRejectsEmptyHTML(t *testing.T) {
	srv := testServer(t, &fakeLoader{})

	req := httptest.NewRequest("POST", "/api/v1/snapshots", strings.NewReader(`{"platform":"whatsapp"}`))
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for missing html, got %d", w.Code)
	}
}

func TestAdhocMatchEndpoint(t *testing.T) {
	srv := testServer(t, &fakeLoader{})

	req := httptest.NewRequest("POST", "/api/v1/match", strings.NewReader(`{"candidate":"black hoodie"}`))
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var result catalog.MatchResult
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode match result: %v", err)
	}
	if result.Product == nil {
		t.Fatalf("expected a product match")
	}
	if result.Product.SKU != "SK-BH-001" {
		t.Errorf("expected hoodie, got %s", result.Product.Title)
	}
}

func TestReloadCatalogEndpoint(t *testing.T) {
	loader := &fakeLoader{products: []catalog.Product{
		{ID: uuid.MustParse("22222222-2222-2222-2222-222222222222"), Title: "Canvas Tote Bag"},
		{ID: uuid.MustParse("33333333-3333-3333-3333-333333333333"), Title: "Ceramic Coffee Mug"},
	}}
	srv := testServer(t, loader)

	req := httptest.NewRequest("POST", "/api/v1/catalog/reload", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body map[string]int
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["products"] != 2 {
		t.Errorf("expected 2 products reloaded, got %d", body["products"])
	}
}

func TestReloadCatalogLoaderFailure(t *testing.T) {
	srv := testServer(t, &fakeLoader{err: errors.New("connection refused")})

	req := httptest.NewRequest("POST", "/api/v1/catalog/reload", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusBadGateway {
		t.Errorf("expected 502 on loader failure, got %d", w.Code)
	}
}

func TestNotFoundEndpoint(t *testing.T) {
	srv := testServer(t, &fakeLoader{})

	req := httptest.NewRequest("GET", "/nonexistent", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}
