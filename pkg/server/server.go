// Package server exposes the store, aggregator and CSV pipelines over
// HTTP/JSON. Routing and error translation only; the packages underneath
// hold the actual behavior.
package server

import (
	"net/http"

	"github.com/gorilla/mux"
)

// NewRouter configures every route of the API surface. The CORS middleware
// wraps the router from outside so preflight OPTIONS requests are answered
// even when no route matches the method.
func NewRouter(h *Handler) http.Handler {
	r := mux.NewRouter()

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/metrics", h.HandleListMetrics).Methods(http.MethodGet)
	api.HandleFunc("/metrics", h.HandleCreateMetric).Methods(http.MethodPost)
	api.HandleFunc("/metrics/{id}", h.HandleUpdateMetric).Methods(http.MethodPut)
	api.HandleFunc("/metrics/{id}", h.HandleDeleteMetric).Methods(http.MethodDelete)
	api.HandleFunc("/dashboard", h.HandleDashboard).Methods(http.MethodGet)
	api.HandleFunc("/dashboard/ws", h.HandleDashboardWS).Methods(http.MethodGet)
	api.HandleFunc("/import/csv", h.HandleImportCSV).Methods(http.MethodPost)
	api.HandleFunc("/export/csv", h.HandleExportCSV).Methods(http.MethodGet)
	api.HandleFunc("/users", h.HandleListUsers).Methods(http.MethodGet)

	r.HandleFunc("/health", h.HandleHealth).Methods(http.MethodGet)

	return corsMiddleware(r)
}

// corsMiddleware lets a browser client on another origin consume the API.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
