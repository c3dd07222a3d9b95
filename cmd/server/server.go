package server

import (
	"log"
	"net/http"

	"github.com/aonescu/torii/internal/engine"
	"github.com/aonescu/torii/internal/schema"
	"github.com/aonescu/torii/internal/session"
)

type APIServer struct {
	registry *schema.Registry
	engine   *engine.Engine
	sessions *session.Store
	slot     *session.HandoffSlot
	mux      *http.ServeMux
}

func NewAPIServer(registry *schema.Registry, eng *engine.Engine, sessions *session.Store, slot *session.HandoffSlot) *APIServer {
	api := &APIServer{
		registry: registry,
		engine:   eng,
		sessions: sessions,
		slot:     slot,
		mux:      http.NewServeMux(),
	}
	api.registerRoutes()
	return api
}

func (api *APIServer) registerRoutes() {
	// Kind discovery
	api.mux.HandleFunc("/api/v1/kinds", api.handleKinds)

	// Edit sessions
	api.mux.HandleFunc("/api/v1/sessions", api.handleCreateSession)
	api.mux.HandleFunc("/api/v1/sessions/fields", api.handleSessionFields)
	api.mux.HandleFunc("/api/v1/sessions/text", api.handleSessionText)
	api.mux.HandleFunc("/api/v1/sessions/validate", api.handleSessionValidate)
	api.mux.HandleFunc("/api/v1/sessions/manifest", api.handleSessionManifest)

	// Template hand-off slot
	api.mux.HandleFunc("/api/v1/template-slot", api.handlePutTemplate)
	api.mux.HandleFunc("/api/v1/template-slot/consume", api.handleConsumeTemplate)

	// Health check
	api.mux.HandleFunc("/health", api.handleHealth)
	api.mux.HandleFunc("/ready", api.handleReady)

	// Metrics/stats
	api.mux.HandleFunc("/api/v1/stats", api.handleStats)
}

func (api *APIServer) Handler() http.Handler {
	return api.corsMiddleware(api.loggingMiddleware(api.mux))
}

func (api *APIServer) Start(addr string) error {
	log.Printf("Starting API server on %s", addr)
	return http.ListenAndServe(addr, api.Handler())
}
