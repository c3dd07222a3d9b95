package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/aonescu/torii/internal/formatting"
	"github.com/aonescu/torii/internal/parse"
	"github.com/aonescu/torii/internal/render"
	"github.com/aonescu/torii/internal/schema"
	"github.com/aonescu/torii/internal/session"
)

// GET /api/v1/kinds
func (api *APIServer) handleKinds(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	kinds := make([]schema.Kind, 0)
	for _, id := range api.registry.Kinds() {
		kind, err := api.registry.Lookup(id)
		if err != nil {
			continue
		}
		kinds = append(kinds, kind.Kind)
	}
	api.respondJSON(w, kinds)
}

// POST /api/v1/sessions
// Body: {"kind": "CoreUI", "mode": "form"}
func (api *APIServer) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Kind string `json:"kind"`
		Mode string `json:"mode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	mode := session.Mode(req.Mode)
	if mode != session.FormMode && mode != session.TextMode {
		http.Error(w, "mode must be form or text", http.StatusBadRequest)
		return
	}

	kind, err := api.registry.Lookup(req.Kind)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	s := api.sessions.Create(kind, mode)
	api.respondJSON(w, map[string]interface{}{
		"session_id": s.ID(),
		"kind":       s.KindID(),
		"mode":       s.Mode(),
		"state":      s.State(),
	})
}

// POST /api/v1/sessions/fields
// Body: {"session_id": "...", "fields": {"metadata.name": "demo", ...}}
func (api *APIServer) handleSessionFields(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		SessionID string                 `json:"session_id"`
		Fields    map[string]interface{} `json:"fields"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	s, err := api.sessions.Get(req.SessionID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	if err := s.ApplyFields(req.Fields); err != nil {
		api.respondSessionError(w, err)
		return
	}

	api.respondJSON(w, map[string]interface{}{
		"session_id": s.ID(),
		"state":      s.State(),
	})
}

// POST /api/v1/sessions/text
// Body: {"session_id": "...", "text": "apiVersion: ..."}
func (api *APIServer) handleSessionText(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		SessionID string `json:"session_id"`
		Text      string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	s, err := api.sessions.Get(req.SessionID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	if err := s.SetText(req.Text); err != nil {
		api.respondSessionError(w, err)
		return
	}

	api.respondJSON(w, map[string]interface{}{
		"session_id": s.ID(),
		"state":      s.State(),
	})
}

// POST /api/v1/sessions/validate
// Body: {"session_id": "..."}
func (api *APIServer) handleSessionValidate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		SessionID string `json:"session_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	s, err := api.sessions.Get(req.SessionID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	result, err := s.Validate(api.engine)
	if err != nil {
		var syntaxErr *parse.SyntaxError
		if errors.As(err, &syntaxErr) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnprocessableEntity)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"session_id":   s.ID(),
				"state":        s.State(),
				"syntax_error": syntaxErr,
			})
			return
		}
		api.respondSessionError(w, err)
		return
	}

	if !result.IsAccepted() {
		api.respondJSON(w, map[string]interface{}{
			"session_id":   s.ID(),
			"state":        s.State(),
			"accepted":     false,
			"violations":   result.Violations,
			"explanations": formatting.FormatViolations(result.Violations),
			"summary":      formatting.GenerateSummary(result.Violations),
		})
		return
	}

	kind, err := api.registry.Lookup(s.KindID())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	manifest, err := render.Serialize(result.Canonical, kind)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	document, err := render.Document(result.Canonical, kind)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	api.respondJSON(w, map[string]interface{}{
		"session_id": s.ID(),
		"state":      s.State(),
		"accepted":   true,
		"manifest":   manifest,
		"document":   document,
	})
}

// GET /api/v1/sessions/manifest?session_id=...
func (api *APIServer) handleSessionManifest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := r.URL.Query().Get("session_id")
	if id == "" {
		http.Error(w, "session_id is required", http.StatusBadRequest)
		return
	}

	s, err := api.sessions.Get(id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	rec, err := s.Canonical()
	if err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	kind, err := api.registry.Lookup(s.KindID())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	manifest, err := render.Serialize(rec, kind)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	api.respondJSON(w, map[string]interface{}{
		"session_id": s.ID(),
		"manifest":   manifest,
	})
}

// POST /api/v1/template-slot
// Body: {"document": "apiVersion: ..."}
func (api *APIServer) handlePutTemplate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost && r.Method != http.MethodPut {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Document string `json:"document"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Document == "" {
		http.Error(w, "document is required", http.StatusBadRequest)
		return
	}

	api.slot.Put(req.Document)
	api.respondJSON(w, map[string]interface{}{"pending": true})
}

// POST /api/v1/template-slot/consume
func (api *APIServer) handleConsumeTemplate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	doc, ok := api.slot.Take()
	if !ok {
		http.Error(w, "no pending template", http.StatusNotFound)
		return
	}
	api.respondJSON(w, map[string]interface{}{"document": doc})
}

// GET /health
func (api *APIServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	api.respondJSON(w, map[string]interface{}{
		"status": "healthy",
		"time":   time.Now(),
	})
}

// GET /ready
func (api *APIServer) handleReady(w http.ResponseWriter, r *http.Request) {
	api.respondJSON(w, map[string]interface{}{
		"ready":        true,
		"kinds_loaded": len(api.registry.Kinds()) > 0,
	})
}

// GET /api/v1/stats
func (api *APIServer) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	stats := api.engine.Stats()
	stats["open_sessions"] = api.sessions.Len()
	api.respondJSON(w, stats)
}

func (api *APIServer) respondSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrSessionFinalized):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, session.ErrWrongMode), errors.Is(err, session.ErrNothingToCheck):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, schema.ErrUnknownKind):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (api *APIServer) respondJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func (api *APIServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log.Printf("[%s] %s %s", r.Method, r.URL.Path, r.RemoteAddr)
		next.ServeHTTP(w, r)
		log.Printf("[%s] %s completed in %v", r.Method, r.URL.Path, time.Since(start))
	})
}

func (api *APIServer) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
