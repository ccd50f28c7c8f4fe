package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/fleetops/fleetops/internal/api"
	"github.com/fleetops/fleetops/internal/middleware"
)

// AuthHandler issues and checks operator session tokens. There is a single
// operator account, configured through the environment.
type AuthHandler struct {
	sessions *middleware.JWTAuthMiddleware
}

// NewAuthHandler creates the session endpoints backed by the auth middleware
func NewAuthHandler(sessions *middleware.JWTAuthMiddleware) *AuthHandler {
	return &AuthHandler{sessions: sessions}
}

// LoginRequest carries the operator credentials
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is the session token the dashboard stores
type LoginResponse struct {
	Token     string `json:"token"`
	Username  string `json:"username"`
	ExpiresIn int    `json:"expires_in"` // seconds
}

// SetupRoutes registers the session routes
func (h *AuthHandler) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /auth/login", h.handleLogin)
	mux.HandleFunc("GET /auth/verify", h.handleVerify)
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Username == "" || req.Password == "" {
		api.RespondError(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	if !h.sessions.ValidateCredentials(req.Username, req.Password) {
		log.Printf("AuthHandler: rejected login for %q from %s", req.Username, r.RemoteAddr)
		api.RespondError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	token, expiresAt, err := h.sessions.IssueToken(req.Username)
	if err != nil {
		log.Printf("AuthHandler: could not issue session token for %q: %v", req.Username, err)
		api.RespondError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	log.Printf("AuthHandler: operator %q logged in from %s", req.Username, r.RemoteAddr)

	api.RespondJSON(w, http.StatusOK, LoginResponse{
		Token:     token,
		Username:  req.Username,
		ExpiresIn: int(time.Until(expiresAt).Seconds()),
	})
}

// handleVerify lets the dashboard check a stored token before rendering
func (h *AuthHandler) handleVerify(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == "" {
		api.RespondError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	api.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"valid":    true,
		"username": user,
	})
}
