package sandbox

import (
	"net/http"

	"github.com/gorilla/mux"
)

// SetupRouter creates and configures the HTTP router
func (s *Server) SetupRouter() *mux.Router {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(NotFoundHandler)

	// Apply global middleware
	r.Use(s.RecoveryMiddleware)
	r.Use(s.LoggingMiddleware)

	r.HandleFunc("/health", s.HealthCheck).Methods("GET")

	api := r.PathPrefix("/v1").Subrouter()
	api.Use(RequestIDMiddleware)

	// Handshake (authenticated by installation or device token)
	api.HandleFunc("/installation", s.Installation).Methods("POST")
	api.HandleFunc("/device-server", s.DeviceServer).Methods("POST")
	api.HandleFunc("/session-server", s.SessionServer).Methods("POST")

	// Protected routes
	user := api.PathPrefix("/user/{userID:[0-9]+}").Subrouter()
	user.Use(s.AuthMiddleware)

	user.HandleFunc("/monetary-account", s.ListAccounts).Methods("GET")
	user.HandleFunc("/monetary-account/{accountID:[0-9]+}/payment", s.ListPayments).Methods("GET")

	return r
}

// NotFoundHandler handles 404 errors
func NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	respondError(w, http.StatusNotFound, "Route not found.")
}
