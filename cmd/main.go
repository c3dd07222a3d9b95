package main

import (
	"fmt"
	"log"
	"os"

	"github.com/aonescu/torii/cmd/server"
	"github.com/aonescu/torii/internal/engine"
	"github.com/aonescu/torii/internal/schema"
	"github.com/aonescu/torii/internal/schema/kinds"
	"github.com/aonescu/torii/internal/session"
)

func main() {
	fmt.Println("Torii - Resource Admission & Normalization API")

	apiAddr := os.Getenv("API_ADDRESS")
	if apiAddr == "" {
		apiAddr = ":8080"
	}

	registry := schema.NewRegistry()
	if err := kinds.RegisterBuiltin(registry); err != nil {
		log.Fatalf("Failed to register built-in kinds: %v", err)
	}
	log.Printf("Registered %d kind(s): %v", len(registry.Kinds()), registry.Kinds())

	eng := engine.New(registry)
	sessions := session.NewStore()
	slot := session.NewHandoffSlot()

	apiServer := server.NewAPIServer(registry, eng, sessions, slot)

	log.Println("\nAPI Endpoints:")
	printAPIEndpoints(apiAddr)
	log.Println("\nPress Ctrl+C to exit")

	if err := apiServer.Start(apiAddr); err != nil {
		log.Fatalf("API server failed: %v", err)
	}
}

func printAPIEndpoints(addr string) {
	baseURL := "http://localhost" + addr
	endpoints := []string{
		"GET  " + baseURL + "/health",
		"GET  " + baseURL + "/ready",
		"GET  " + baseURL + "/api/v1/kinds",
		"POST " + baseURL + "/api/v1/sessions",
		"POST " + baseURL + "/api/v1/sessions/fields",
		"POST " + baseURL + "/api/v1/sessions/text",
		"POST " + baseURL + "/api/v1/sessions/validate",
		"GET  " + baseURL + "/api/v1/sessions/manifest?session_id=...",
		"POST " + baseURL + "/api/v1/template-slot",
		"POST " + baseURL + "/api/v1/template-slot/consume",
		"GET  " + baseURL + "/api/v1/stats",
	}

	for _, endpoint := range endpoints {
		log.Println("  ", endpoint)
	}
}
