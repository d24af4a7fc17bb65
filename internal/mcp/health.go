package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// HealthResponse represents the JSON response from the health check endpoint.
type HealthResponse struct {
	Status    string `json:"status"`
	Qdrant    string `json:"qdrant"`
	Postgres  string `json:"postgres"`
	Timestamp string `json:"timestamp"`
}

// HealthChecker reports whether a backing service is reachable. Both the
// vector store and the catalog implement this via their Health() methods.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// NewHealthHandler creates an HTTP handler for the /health endpoint. The
// server is healthy only when both backing services respond.
func NewHealthHandler(vectors, catalog HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		response := HealthResponse{
			Status:    "healthy",
			Qdrant:    "connected",
			Postgres:  "connected",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}

		if err := vectors.Health(ctx); err != nil {
			response.Status = "unhealthy"
			response.Qdrant = "disconnected"
		}
		if err := catalog.Health(ctx); err != nil {
			response.Status = "unhealthy"
			response.Postgres = "disconnected"
		}

		w.Header().Set("Content-Type", "application/json")
		if response.Status != "healthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		} else {
			w.WriteHeader(http.StatusOK)
		}
		json.NewEncoder(w).Encode(response)
	}
}
