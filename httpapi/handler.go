package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/clinichub/authcore"
)

// Handler wires the engine's operations to HTTP endpoints.
type Handler struct {
	logger    *slog.Logger
	engine    *authcore.Engine
	validator *validator.Validate
	metrics   *Metrics
}

// NewHandler constructs a Handler. logger and metrics may be nil.
func NewHandler(logger *slog.Logger, engine *authcore.Engine, metrics *Metrics) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:    logger,
		engine:    engine,
		validator: validator.New(),
		metrics:   metrics,
	}
}

// MountRoutes registers the authentication endpoints on r.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/auth/register", h.handleRegister)
	r.Post("/auth/login", h.handleLogin)
	r.Post("/auth/refresh", h.handleRefresh)
	r.Post("/auth/logout", h.handleLogout)
}

type registerRequest struct {
	Name          string `json:"name" validate:"required"`
	Email         string `json:"email" validate:"required,email"`
	Password      string `json:"password" validate:"required,min=8"`
	Role          string `json:"role" validate:"required"`
	BirthDate     string `json:"birth_date,omitempty"`
	LicenseNumber string `json:"license_number,omitempty"`
	Department    string `json:"department,omitempty"`
}

type registerResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		h.metrics.observe("register", err)
		respondProblem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		h.metrics.observe("register", err)
		respondProblem(w, http.StatusBadRequest, "Validation Failed", validationDetail(err))
		return
	}

	role, err := authcore.ParseRole(req.Role)
	if err != nil {
		h.metrics.observe("register", err)
		respondError(w, err)
		return
	}

	p, err := h.engine.Register(h.requestContext(r), authcore.RegisterInput{
		Name:   req.Name,
		Email:  req.Email,
		Secret: req.Password,
		Role:   role,
		Profile: authcore.Profile{
			BirthDate:     req.BirthDate,
			LicenseNumber: req.LicenseNumber,
			Department:    req.Department,
		},
	})
	h.metrics.observe("register", err)
	if err != nil {
		h.logger.Info("register rejected", slog.String("error", err.Error()))
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, registerResponse{
		ID:    p.ID,
		Name:  p.Name,
		Email: p.Email,
		Role:  string(p.Role),
	})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.metrics.observe("login", err)
		respondProblem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		// Shape failures and credential failures look the same to callers.
		h.metrics.observe("login", err)
		respondError(w, authcore.ErrInvalidCredentials)
		return
	}

	_, access, refresh, err := h.engine.Authenticate(h.requestContext(r), req.Email, req.Password)
	h.metrics.observe("login", err)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, h.tokenPair(access, refresh))
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil {
		h.metrics.observe("refresh", err)
		respondProblem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		h.metrics.observe("refresh", err)
		respondError(w, authcore.ErrInvalidRefreshToken)
		return
	}

	access, refresh, err := h.engine.Refresh(h.requestContext(r), req.RefreshToken)
	h.metrics.observe("refresh", err)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, h.tokenPair(access, refresh))
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	tok := bearerToken(r.Header.Get("Authorization"))
	err := h.engine.Logout(h.requestContext(r), tok)
	h.metrics.observe("logout", err)
	if err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) tokenPair(access, refresh string) tokenResponse {
	return tokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int(h.engine.AccessTTL().Seconds()),
	}
}

// requestContext attaches the client IP so audit events and per-IP throttling
// see where the request came from.
func (h *Handler) requestContext(r *http.Request) context.Context {
	return authcore.WithClientIP(r.Context(), clientIP(r))
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if first, _, ok := strings.Cut(fwd, ","); ok {
			return strings.TrimSpace(first)
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func bearerToken(value string) string {
	const prefix = "Bearer "
	if len(value) > len(prefix) && strings.EqualFold(value[:len(prefix)], prefix) {
		return value[len(prefix):]
	}
	return ""
}

func validationDetail(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "invalid request"
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, strings.ToLower(fe.Field()))
	}
	return "invalid fields: " + strings.Join(fields, ", ")
}
