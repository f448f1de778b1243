package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/modelmatrix/ava-console/internal/model/agent"
	sessionService "github.com/modelmatrix/ava-console/internal/service/session"
	"github.com/modelmatrix/ava-console/internal/store"
)

type stubModels struct {
	models []string
	err    error
}

func (s stubModels) ListModels(context.Context) ([]string, error) {
	return s.models, s.err
}

func setupRouter(models stubModels) http.Handler {
	return NewRouter(Deps{
		Sessions: sessionService.NewService(store.NewMemory(), nil),
		Agents:   agent.NewMemoryStore(agent.Seed()),
		Models:   models,
	})
}

func TestModelsRoute(t *testing.T) {
	r := setupRouter(stubModels{models: []string{"llama-3.3-70b", "qwen/qwen3-32b"}})
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/models", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var payload struct {
		Models []string `json:"models"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(payload.Models) != 2 || payload.Models[1] != "qwen/qwen3-32b" {
		t.Fatalf("unexpected models: %v", payload.Models)
	}
}

func TestModelsRouteUpstreamError(t *testing.T) {
	r := setupRouter(stubModels{err: errors.New("provider down")})
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/models", nil))
	if resp.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", resp.Code)
	}
}

func TestAgentsRoutes(t *testing.T) {
	r := setupRouter(stubModels{})

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/agents", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", resp.Code)
	}
	var catalog []agent.Agent
	if err := json.Unmarshal(resp.Body.Bytes(), &catalog); err != nil {
		t.Fatalf("decode catalog: %v", err)
	}
	if len(catalog) == 0 {
		t.Fatal("expected seeded agents")
	}

	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/agents/BillingAgent", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("lookup: expected 200, got %d", resp.Code)
	}
	var found agent.Agent
	if err := json.Unmarshal(resp.Body.Bytes(), &found); err != nil {
		t.Fatalf("decode agent: %v", err)
	}
	if found.Name != "BillingAgent" {
		t.Fatalf("unexpected agent: %+v", found)
	}

	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/agents/NoSuchAgent", nil))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("missing agent: expected 404, got %d", resp.Code)
	}
}
