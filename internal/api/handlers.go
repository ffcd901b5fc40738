// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vitrina Contributors

package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/oklog/ulid/v2"

	"github.com/vitrina/vitrina/internal/auth"
	"github.com/vitrina/vitrina/internal/catalog"
	"github.com/vitrina/vitrina/pkg/errutil"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

type roleRequest struct {
	Role string `json:"role"`
}

type sessionResponse struct {
	Identity  auth.Identity `json:"identity"`
	ExpiresAt string        `json:"expires_at"`
}

type accountResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	CreatedAt string `json:"created_at"`
}

type itemResponse struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Price      string  `json:"price"`
	PhotoURL   *string `json:"photo_url,omitempty"`
	OwnerID    string  `json:"owner_id"`
	OwnerEmail string  `json:"owner_email"`
	CreatedAt  string  `json:"created_at"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := s.auth.Register(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, newSessionResponse(session))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := s.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newSessionResponse(session))
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.auth.Logout(r.Context()); err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSession(w http.ResponseWriter, _ *http.Request) {
	session := s.auth.CurrentSession()
	if session == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	s.writeJSON(w, http.StatusOK, newSessionResponse(session))
}

func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	items, err := s.catalog.List(r.Context(), s.identity())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	out := make([]itemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, newItemResponse(item))
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	input, err := s.readItemInput(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	item, err := s.catalog.Create(r.Context(), s.identity(), input)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, newItemResponse(item))
}

func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	input, err := s.readItemInput(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	item, err := s.catalog.Update(r.Context(), s.identity(), id, input)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newItemResponse(item))
}

func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}

	if err := s.catalog.Delete(r.Context(), s.identity(), id); err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	identity := s.identity()
	if identity == nil {
		s.writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	accounts, err := s.auth.ListAccounts(r.Context(), *identity)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	out := make([]accountResponse, 0, len(accounts))
	for _, account := range accounts {
		out = append(out, accountResponse{
			ID:        account.ID.String(),
			Email:     account.Email,
			Name:      account.Name,
			Role:      string(account.Role),
			CreatedAt: account.CreatedAt.Format(time.RFC3339),
		})
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSetRole(w http.ResponseWriter, r *http.Request) {
	identity := s.identity()
	if identity == nil {
		s.writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}

	var req roleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	role, err := auth.ParseRole(req.Role)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "unknown role")
		return
	}

	if err := s.auth.SetRole(r.Context(), *identity, id, role); err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// readItemInput accepts multipart form submissions (with an optional photo
// part) and plain JSON bodies.
func (s *Server) readItemInput(r *http.Request) (catalog.ItemInput, error) {
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			return catalog.ItemInput{}, errors.New("invalid multipart form")
		}
		input := catalog.ItemInput{
			Name:  r.FormValue("name"),
			Price: r.FormValue("price"),
		}
		file, header, err := r.FormFile("photo")
		if err == nil {
			input.Photo = &catalog.PhotoUpload{
				Filename:    header.Filename,
				ContentType: header.Header.Get("Content-Type"),
				Body:        file,
			}
		} else if !errors.Is(err, http.ErrMissingFile) {
			return catalog.ItemInput{}, errors.New("invalid photo upload")
		}
		return input, nil
	}

	var req struct {
		Name  string `json:"name"`
		Price string `json:"price"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return catalog.ItemInput{}, errors.New("invalid request body")
	}
	return catalog.ItemInput{Name: req.Name, Price: req.Price}, nil
}

func (s *Server) pathID(w http.ResponseWriter, r *http.Request) (ulid.ULID, bool) {
	id, err := ulid.Parse(mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid id")
		return ulid.ULID{}, false
	}
	return id, true
}

// writeServiceError maps service errors onto HTTP statuses. Messages stay
// generic; diagnostics go to the log, not the client.
func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	var (
		vErr      *auth.ValidationError
		throttled *auth.ThrottledError
	)
	switch {
	case errors.As(err, &throttled):
		s.writeJSON(w, http.StatusTooManyRequests, map[string]any{
			"error":        throttled.Error(),
			"wait_minutes": throttled.WaitMinutes(),
		})
	case errors.As(err, &vErr):
		s.writeError(w, http.StatusBadRequest, vErr.Error())
	case errors.Is(err, auth.ErrInvalidCredentials):
		s.writeError(w, http.StatusUnauthorized, auth.ErrInvalidCredentials.Error())
	case errors.Is(err, auth.ErrDuplicateEmail):
		s.writeError(w, http.StatusConflict, auth.ErrDuplicateEmail.Error())
	case errors.Is(err, auth.ErrPermissionDenied):
		s.writeError(w, http.StatusForbidden, auth.ErrPermissionDenied.Error())
	case errors.Is(err, auth.ErrNotFound):
		s.writeError(w, http.StatusNotFound, "not found")
	default:
		errutil.LogError(s.logger, "request failed", err)
		s.writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Debug("response encode failed", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func newSessionResponse(session *auth.Session) sessionResponse {
	return sessionResponse{
		Identity:  session.Identity,
		ExpiresAt: session.ExpiresAt.Format(time.RFC3339),
	}
}

func newItemResponse(item *catalog.Item) itemResponse {
	return itemResponse{
		ID:         item.ID.String(),
		Name:       item.Name,
		Price:      item.Price.String(),
		PhotoURL:   item.PhotoURL,
		OwnerID:    item.OwnerID.String(),
		OwnerEmail: item.OwnerEmail,
		CreatedAt:  item.CreatedAt.Format(time.RFC3339),
	}
}
