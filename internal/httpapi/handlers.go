package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/middleware"
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

type loginResponse struct {
	UserID       string `json:"userId"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type refreshResponse struct {
	AccessToken string `json:"accessToken"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type healthResponse struct {
	Status    string `json:"status"`
	Redis     string `json:"redis"`
	Database  string `json:"database"`
	Timestamp string `json:"timestamp"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	profile, err := s.engine.Register(r.Context(), goSession.RegisterRequest{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, profile)
	case errors.Is(err, goSession.ErrInvalidRegistration):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, goSession.ErrAccountExists):
		writeError(w, http.StatusConflict, "email already registered")
	default:
		s.internalError(w, r, err)
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	res, err := s.engine.Login(r.Context(), req.Email, req.Password)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, loginResponse{
			UserID:       res.UserID,
			AccessToken:  res.AccessToken,
			RefreshToken: res.RefreshToken,
		})
	case errors.Is(err, goSession.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid email or password")
	case errors.Is(err, goSession.ErrLoginRateLimited):
		window := s.engine.Config().Security.LoginCooldownDuration
		w.Header().Set("Retry-After", strconv.Itoa(int(window/time.Second)))
		writeError(w, http.StatusTooManyRequests, "too many login attempts")
	default:
		s.internalError(w, r, err)
	}
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(w, r, &req); err != nil || req.RefreshToken == "" {
		writeUnauthorized(w)
		return
	}

	access, err := s.engine.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, goSession.ErrStoreUnavailable) {
			s.logger.Error().Err(err).Msg("refresh failed")
		}
		writeUnauthorized(w)
		return
	}
	writeJSON(w, http.StatusOK, refreshResponse{AccessToken: access})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	auth, ok := middleware.AuthResultFromContext(r.Context())
	if !ok {
		writeUnauthorized(w)
		return
	}

	if err := s.engine.Logout(r.Context(), auth.UserID, goSession.LogoutAll); err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "logged out"})
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	auth, ok := middleware.AuthResultFromContext(r.Context())
	if !ok {
		writeUnauthorized(w)
		return
	}

	profile, err := s.engine.Profile(r.Context(), auth.UserID)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, profile)
	case errors.Is(err, goSession.ErrUserNotFound):
		writeUnauthorized(w)
	default:
		s.internalError(w, r, err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := s.engine.Health(r.Context())

	resp := healthResponse{
		Status:    "ok",
		Redis:     connected(status.Redis),
		Database:  connected(status.Database),
		Timestamp: status.CheckedAt.Format(time.RFC3339),
	}
	code := http.StatusOK
	if !status.Healthy() {
		resp.Status = "degraded"
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, resp)
}

func connected(ok bool) string {
	if ok {
		return "connected"
	}
	return "disconnected"
}

// internalError answers backend outages with 503 and anything else with 500.
func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	if errors.Is(err, goSession.ErrStoreUnavailable) || errors.Is(err, goSession.ErrCredentialStoreUnavailable) {
		writeError(w, http.StatusServiceUnavailable, "service unavailable")
		return
	}
	writeError(w, http.StatusInternalServerError, "internal server error")
}
