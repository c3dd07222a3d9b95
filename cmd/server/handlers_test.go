package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aonescu/torii/internal/engine"
	"github.com/aonescu/torii/internal/schema"
	"github.com/aonescu/torii/internal/schema/kinds"
	"github.com/aonescu/torii/internal/session"
)

func newTestServer(t *testing.T) *APIServer {
	t.Helper()

	registry := schema.NewRegistry()
	if err := kinds.RegisterBuiltin(registry); err != nil {
		t.Fatalf("RegisterBuiltin() failed: %v", err)
	}
	eng := engine.New(registry)
	return NewAPIServer(registry, eng, session.NewStore(), session.NewHandoffSlot())
}

func postJSON(t *testing.T, api *APIServer, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("Failed to marshal request: %v", err)
	}
	req := httptest.NewRequest("POST", path, bytes.NewReader(payload))
	w := httptest.NewRecorder()
	api.mux.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var response map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return response
}

func TestAPIServer_HandleHealth(t *testing.T) {
	api := newTestServer(t)

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	api.handleHealth(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	response := decode(t, w)
	if response["status"] != "healthy" {
		t.Errorf("Expected status 'healthy', got '%v'", response["status"])
	}
}

func TestAPIServer_HandleReady(t *testing.T) {
	api := newTestServer(t)

	req := httptest.NewRequest("GET", "/ready", nil)
	w := httptest.NewRecorder()

	api.handleReady(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	response := decode(t, w)
	if !response["ready"].(bool) {
		t.Error("Expected ready to be true")
	}
	if !response["kinds_loaded"].(bool) {
		t.Error("Expected kinds_loaded to be true")
	}
}

func TestAPIServer_HandleKinds(t *testing.T) {
	api := newTestServer(t)

	req := httptest.NewRequest("GET", "/api/v1/kinds", nil)
	w := httptest.NewRecorder()

	api.handleKinds(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var kindList []schema.Kind
	if err := json.NewDecoder(w.Body).Decode(&kindList); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(kindList) != 1 || kindList[0].ID != kinds.CoreUIKind {
		t.Errorf("Expected the CoreUI kind, got %v", kindList)
	}
}

func TestAPIServer_FormSessionFlow(t *testing.T) {
	api := newTestServer(t)

	w := postJSON(t, api, "/api/v1/sessions", map[string]interface{}{
		"kind": kinds.CoreUIKind,
		"mode": "form",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("Create session: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	sessionID := decode(t, w)["session_id"].(string)
	if sessionID == "" {
		t.Fatal("Expected a session id")
	}

	w = postJSON(t, api, "/api/v1/sessions/fields", map[string]interface{}{
		"session_id": sessionID,
		"fields": map[string]interface{}{
			"metadata.name": "demo",
			"spec.image":    "nginx:1.0",
			"spec.replicas": "2",
		},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("Apply fields: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = postJSON(t, api, "/api/v1/sessions/validate", map[string]interface{}{
		"session_id": sessionID,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("Validate: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	response := decode(t, w)
	if response["accepted"] != true {
		t.Fatalf("Expected acceptance, got %v", response)
	}
	manifest := response["manifest"].(string)
	if manifest == "" {
		t.Fatal("Expected a serialized manifest")
	}

	// Accepted manifests stay fetchable.
	req := httptest.NewRequest("GET", "/api/v1/sessions/manifest?session_id="+sessionID, nil)
	w2 := httptest.NewRecorder()
	api.mux.ServeHTTP(w2, req)
	if w2.Code != http.StatusOK {
		t.Fatalf("Manifest: expected 200, got %d: %s", w2.Code, w2.Body.String())
	}
}

func TestAPIServer_RejectedValidation(t *testing.T) {
	api := newTestServer(t)

	w := postJSON(t, api, "/api/v1/sessions", map[string]interface{}{
		"kind": kinds.CoreUIKind,
		"mode": "form",
	})
	sessionID := decode(t, w)["session_id"].(string)

	postJSON(t, api, "/api/v1/sessions/fields", map[string]interface{}{
		"session_id": sessionID,
		"fields": map[string]interface{}{
			"spec.image":        "nginx:1.0",
			"spec.service.port": "70000",
		},
	})

	w = postJSON(t, api, "/api/v1/sessions/validate", map[string]interface{}{
		"session_id": sessionID,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("Validate: expected 200, got %d", w.Code)
	}
	response := decode(t, w)
	if response["accepted"] != false {
		t.Fatalf("Expected rejection, got %v", response)
	}

	violations := response["violations"].([]interface{})
	if len(violations) != 2 {
		t.Errorf("Expected 2 violations (missing name, port out of range), got %v", violations)
	}
	if response["explanations"] == nil || response["summary"] == nil {
		t.Error("Expected explanations and summary alongside violations")
	}
}

func TestAPIServer_TextSessionSyntaxError(t *testing.T) {
	api := newTestServer(t)

	w := postJSON(t, api, "/api/v1/sessions", map[string]interface{}{
		"kind": kinds.CoreUIKind,
		"mode": "text",
	})
	sessionID := decode(t, w)["session_id"].(string)

	postJSON(t, api, "/api/v1/sessions/text", map[string]interface{}{
		"session_id": sessionID,
		"text":       "not: [valid, yaml",
	})

	w = postJSON(t, api, "/api/v1/sessions/validate", map[string]interface{}{
		"session_id": sessionID,
	})
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("Expected 422, got %d: %s", w.Code, w.Body.String())
	}
	response := decode(t, w)
	if response["syntax_error"] == nil {
		t.Fatal("Expected a syntax_error payload")
	}
}

func TestAPIServer_UnknownKindOnCreate(t *testing.T) {
	api := newTestServer(t)

	w := postJSON(t, api, "/api/v1/sessions", map[string]interface{}{
		"kind": "Mystery",
		"mode": "form",
	})
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown kind, got %d", w.Code)
	}
}

func TestAPIServer_TemplateSlot(t *testing.T) {
	api := newTestServer(t)

	w := postJSON(t, api, "/api/v1/template-slot", map[string]interface{}{
		"document": "kind: CoreUI",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("Put template: expected 200, got %d", w.Code)
	}

	w = postJSON(t, api, "/api/v1/template-slot/consume", map[string]interface{}{})
	if w.Code != http.StatusOK {
		t.Fatalf("Consume: expected 200, got %d", w.Code)
	}
	response := decode(t, w)
	if response["document"] != "kind: CoreUI" {
		t.Errorf("Expected the pending template back, got %v", response)
	}

	// Exactly-once consume: a second take finds nothing.
	w = postJSON(t, api, "/api/v1/template-slot/consume", map[string]interface{}{})
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 on second consume, got %d", w.Code)
	}
}

func TestAPIServer_MethodNotAllowed(t *testing.T) {
	api := newTestServer(t)

	req := httptest.NewRequest("GET", "/api/v1/sessions", nil)
	w := httptest.NewRecorder()
	api.mux.ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405, got %d", w.Code)
	}
}
