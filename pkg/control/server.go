// Package control exposes the supervisor's command surface over a local
// HTTP API. The overlay UI polls GET /v1/state on a fixed interval and
// posts commands in response to user actions.
package control

import (
	"context"
	goerrors "errors"
	"net/http"
	"time"

	"github.com/awim-deck/awimd/pkg/logging"
	"github.com/awim-deck/awimd/pkg/supervisor"

	"github.com/gorilla/mux"
)

const apiVersion = "v1"

// ServerOptions configures the control server. Timeouts are conservative
// defaults for a local control-plane server.
type ServerOptions struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// Server hosts the HTTP command surface.
type Server struct {
	http    *http.Server
	options ServerOptions
	logger  logging.Logger
}

func NewServer(sup *supervisor.Supervisor, options ServerOptions, logger logging.Logger) *Server {
	if options.Addr == "" {
		options.Addr = "127.0.0.1:8787"
	}
	if options.ReadTimeout == 0 {
		options.ReadTimeout = 5 * time.Second
	}
	if options.WriteTimeout == 0 {
		// SetEnabled(false) may wait for a full graceful timeout.
		options.WriteTimeout = 15 * time.Second
	}
	if options.IdleTimeout == 0 {
		options.IdleTimeout = 60 * time.Second
	}
	if options.ShutdownTimeout == 0 {
		options.ShutdownTimeout = 5 * time.Second
	}

	handler := NewHandler(sup, logger)
	router := NewRouter(handler)

	return &Server{
		options: options,
		logger:  logger,
		http: &http.Server{
			Addr:         options.Addr,
			Handler:      router,
			ReadTimeout:  options.ReadTimeout,
			WriteTimeout: options.WriteTimeout,
			IdleTimeout:  options.IdleTimeout,
		},
	}
}

// NewRouter builds the versioned route table for a handler.
func NewRouter(handler *Handler) *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/healthz", handler.Healthz).Methods(http.MethodGet)

	api := router.PathPrefix("/" + apiVersion).Subrouter()
	api.HandleFunc("/state", handler.GetState).Methods(http.MethodGet)
	api.HandleFunc("/validate/address", handler.ValidateAddress).Methods(http.MethodPost)
	api.HandleFunc("/validate/port", handler.ValidatePort).Methods(http.MethodPost)
	api.HandleFunc("/config", handler.UpdateConfig).Methods(http.MethodPost)
	api.HandleFunc("/tcp-mode", handler.SetTCPMode).Methods(http.MethodPost)
	api.HandleFunc("/enabled", handler.SetEnabled).Methods(http.MethodPost)

	return router
}

// Start begins serving in a background goroutine and returns immediately.
func (s *Server) Start() {
	go func() {
		s.logger.Infof("Control API listening on %s", s.http.Addr)
		if err := s.http.ListenAndServe(); !goerrors.Is(err, http.ErrServerClosed) {
			s.logger.Errorf("Control API serve failed: %v", err)
		}
	}()
}

// Stop gracefully shuts the server down, waiting up to ShutdownTimeout.
func (s *Server) Stop(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.options.ShutdownTimeout)
	defer cancel()
	return s.http.Shutdown(ctx)
}
