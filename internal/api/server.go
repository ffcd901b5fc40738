// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vitrina Contributors

// Package api exposes the auth and catalog services over HTTP/JSON.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/samber/oops"

	"github.com/vitrina/vitrina/internal/auth"
	"github.com/vitrina/vitrina/internal/catalog"
)

const (
	readHeaderTimeout = 5 * time.Second
	maxUploadBytes    = 10 << 20 // 10 MiB
)

// Server serves the HTTP API.
type Server struct {
	auth    *auth.Service
	catalog *catalog.Service
	logger  *slog.Logger
	httpSrv *http.Server
}

// NewServer creates an API server listening on addr.
func NewServer(addr string, authService *auth.Service, catalogService *catalog.Service, logger *slog.Logger) (*Server, error) {
	if authService == nil {
		return nil, oops.Code("API_SERVER_INVALID").Errorf("auth service is required")
	}
	if catalogService == nil {
		return nil, oops.Code("API_SERVER_INVALID").Errorf("catalog service is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		auth:    authService,
		catalog: catalogService,
		logger:  logger,
	}
	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           s.router(),
		ReadHeaderTimeout: readHeaderTimeout,
	}
	return s, nil
}

func (s *Server) router() *mux.Router {
	r := mux.NewRouter()

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/register", s.handleRegister).Methods(http.MethodPost)
	v1.HandleFunc("/login", s.handleLogin).Methods(http.MethodPost)
	v1.HandleFunc("/logout", s.handleLogout).Methods(http.MethodPost)
	v1.HandleFunc("/session", s.handleSession).Methods(http.MethodGet)

	v1.HandleFunc("/items", s.handleListItems).Methods(http.MethodGet)
	v1.HandleFunc("/items", s.handleCreateItem).Methods(http.MethodPost)
	v1.HandleFunc("/items/{id}", s.handleUpdateItem).Methods(http.MethodPut)
	v1.HandleFunc("/items/{id}", s.handleDeleteItem).Methods(http.MethodDelete)

	v1.HandleFunc("/accounts", s.handleListAccounts).Methods(http.MethodGet)
	v1.HandleFunc("/accounts/{id}/role", s.handleSetRole).Methods(http.MethodPut)

	return r
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}

// Start begins serving in a background goroutine. The returned channel
// receives at most one error.
func (s *Server) Start() <-chan error {
	errChan := make(chan error, 1)
	go func() {
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- oops.Code("API_SERVER_FAILED").Wrap(err)
		}
		close(errChan)
	}()
	return errChan
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	if err := s.httpSrv.Shutdown(ctx); err != nil {
		return oops.Code("API_SHUTDOWN_FAILED").Wrap(err)
	}
	return nil
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.httpSrv.Addr
}

// identity returns the authenticated identity, or nil for anonymous
// requests.
func (s *Server) identity() *auth.Identity {
	session := s.auth.CurrentSession()
	if session == nil {
		return nil
	}
	identity := session.Identity
	return &identity
}
