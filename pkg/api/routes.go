package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

// SetupRoutes registers the API on router. metrics may be nil.
func SetupRoutes(router *mux.Router, handlers *Handlers, metrics http.Handler) {
	// API version prefix
	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/health", handlers.HealthCheck).Methods("GET")
	api.HandleFunc("/objectives", handlers.ListObjectives).Methods("GET")
	api.HandleFunc("/cluster", handlers.Cluster).Methods("POST")
	api.HandleFunc("/evaluate", handlers.Evaluate).Methods("POST")

	if metrics != nil {
		router.Handle("/metrics", metrics).Methods("GET")
	}
}
