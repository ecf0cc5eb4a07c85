// Package api implements the HTTP/JSON front end: a gorilla/mux router
// translating REST-ish requests into calls on a collection manager.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/latticedb/lattice/manager"
)

// Server is the HTTP front end over one collection manager.
type Server struct {
	mgr        *manager.Manager
	router     *mux.Router
	httpServer *http.Server
	config     ServerConfig
}

// ServerConfig holds the HTTP server's listen address and timeouts.
type ServerConfig struct {
	Host            string        `json:"host"`
	Port            int           `json:"port"`
	ReadTimeout     time.Duration `json:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout"`
	IdleTimeout     time.Duration `json:"idle_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
}

// DefaultServerConfig returns the timeouts the host process uses unless
// overridden.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:            "0.0.0.0",
		Port:            50052,
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    15 * time.Second,
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

// NewServer builds an HTTP server over mgr and wires its routes.
func NewServer(mgr *manager.Manager, config ServerConfig) *Server {
	s := &Server{mgr: mgr, config: config}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router = mux.NewRouter()
	s.router.Use(loggingMiddleware)
	s.router.Use(jsonContentTypeMiddleware)

	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	s.router.HandleFunc("/collections", s.handleListCollections).Methods("GET")
	s.router.HandleFunc("/collections", s.handleCreateCollection).Methods("POST")
	s.router.HandleFunc("/collections/{collection}", s.handleGetCollectionStats).Methods("GET")
	s.router.HandleFunc("/collections/{collection}", s.handleDeleteCollection).Methods("DELETE")

	s.router.HandleFunc("/collections/{collection}/vectors", s.handleInsert).Methods("POST")
	s.router.HandleFunc("/collections/{collection}/vectors/batch", s.handleBatchInsert).Methods("POST")
	s.router.HandleFunc("/collections/{collection}/vectors/{id}", s.handleGetVector).Methods("GET")
	s.router.HandleFunc("/collections/{collection}/vectors/{id}", s.handleDeleteVector).Methods("DELETE")

	s.router.HandleFunc("/collections/{collection}/search", s.handleSearch).Methods("POST")
	s.router.HandleFunc("/collections/{collection}/search/batch", s.handleBatchSearch).Methods("POST")

	s.router.HandleFunc("/stats", s.handleStats).Methods("GET")
	s.router.HandleFunc("/collections/{collection}/stats", s.handleGetCollectionStats).Methods("GET")
}

// Start blocks serving HTTP until Shutdown is called or an
// unrecoverable listener error occurs.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains in-flight requests before returning.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP lets Server be used directly with httptest.NewServer.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		fmt.Printf("[%s] %s %s %v\n", time.Now().Format(time.RFC3339), r.Method, r.URL.Path, time.Since(start))
	})
}

func jsonContentTypeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

func (s *Server) respondWithError(w http.ResponseWriter, code int, message string) {
	s.respondWithJSON(w, code, map[string]string{"error": message})
}

func (s *Server) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "failed to marshal response"}`))
		return
	}
	w.WriteHeader(code)
	w.Write(body)
}
