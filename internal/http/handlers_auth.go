package http

import (
	"net/http"
	"time"

	"banko/internal/core"
	"banko/internal/services"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	CreatedAt string `json:"createdAt"`
}

type sessionResponse struct {
	User  userResponse `json:"user"`
	Token string       `json:"token"`
}

func toUserResponse(u core.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toSessionResponse(sess services.Session) sessionResponse {
	return sessionResponse{User: toUserResponse(sess.User), Token: sess.Token}
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "register", "malformed request body")
		return
	}

	sess, err := s.authService.Register(r.Context(), sanitizeInput(req.Name), sanitizeInput(req.Email), req.Password)
	if err != nil {
		respondDomainError(w, r, "register", err)
		return
	}
	respondJSON(w, http.StatusCreated, toSessionResponse(sess))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "login", "malformed request body")
		return
	}

	sess, err := s.authService.Login(r.Context(), sanitizeInput(req.Email), req.Password)
	if err != nil {
		respondDomainError(w, r, "login", err)
		return
	}
	respondJSON(w, http.StatusOK, toSessionResponse(sess))
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	u, err := s.authService.UserByID(r.Context(), UserID(r.Context()))
	if err != nil {
		respondDomainError(w, r, "me", err)
		return
	}
	respondJSON(w, http.StatusOK, toUserResponse(u))
}
