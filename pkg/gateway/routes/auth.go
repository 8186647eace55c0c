package routes

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/synaptica-ai/medtriage/pkg/common/logger"
	"github.com/synaptica-ai/medtriage/pkg/common/models"
	gatewayauth "github.com/synaptica-ai/medtriage/pkg/gateway/auth"
	"github.com/synaptica-ai/medtriage/pkg/gateway/middleware"
	"github.com/synaptica-ai/medtriage/pkg/identity"
)

const oidcStateCookie = "medtriage_oidc_state"

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token     string           `json:"token"`
	ExpiresIn int64            `json:"expires_in"`
	Clinician models.Clinician `json:"clinician"`
}

type AuthHandler struct {
	service     *identity.Service
	tokenSigner *gatewayauth.JWTManager
	oidc        *gatewayauth.OIDCAuthenticator
}

// NewAuthHandler wires login routes. oidc may be nil, in which case the
// OIDC routes answer 404.
func NewAuthHandler(service *identity.Service, tokenSigner *gatewayauth.JWTManager, oidc *gatewayauth.OIDCAuthenticator) *AuthHandler {
	return &AuthHandler{service: service, tokenSigner: tokenSigner, oidc: oidc}
}

func (h *AuthHandler) Register(r *mux.Router) {
	r.HandleFunc("/login", h.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/oidc/login", h.handleOIDCLogin).Methods(http.MethodGet)
	r.HandleFunc("/oidc/callback", h.handleOIDCCallback).Methods(http.MethodGet)

	protected := r.NewRoute().Subrouter()
	protected.Use(middleware.Authenticate(h.tokenSigner))
	protected.HandleFunc("/me", h.handleMe).Methods(http.MethodGet)
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	clinician, err := h.service.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) {
			logger.Log.WithField("username", req.Username).Warn("authentication failed")
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		}
		logger.Log.WithError(err).Error("authentication error")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	h.respondWithToken(w, clinician)
}

func (h *AuthHandler) handleOIDCLogin(w http.ResponseWriter, r *http.Request) {
	if h.oidc == nil {
		http.NotFound(w, r)
		return
	}
	state := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     oidcStateCookie,
		Value:    state,
		Path:     "/auth/oidc",
		MaxAge:   int((10 * time.Minute).Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.oidc.AuthCodeURL(state), http.StatusFound)
}

func (h *AuthHandler) handleOIDCCallback(w http.ResponseWriter, r *http.Request) {
	if h.oidc == nil {
		http.NotFound(w, r)
		return
	}
	cookie, err := r.Cookie(oidcStateCookie)
	if err != nil || cookie.Value == "" || cookie.Value != r.URL.Query().Get("state") {
		http.Error(w, "invalid state", http.StatusBadRequest)
		return
	}
	http.SetCookie(w, &http.Cookie{Name: oidcStateCookie, Path: "/auth/oidc", MaxAge: -1})

	info, err := h.oidc.Exchange(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		logger.Log.WithError(err).Warn("OIDC exchange failed")
		http.Error(w, "login failed", http.StatusUnauthorized)
		return
	}

	clinician, err := h.service.ResolveExternal(r.Context(), info.Username(), info.Name, info.Email)
	if err != nil {
		logger.Log.WithError(err).Error("failed to resolve OIDC clinician")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	h.respondWithToken(w, clinician)
}

func (h *AuthHandler) handleMe(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClinicianFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	clinician, err := h.service.GetClinician(r.Context(), claims.ClinicianID)
	if err != nil {
		logger.Log.WithError(err).Warn("failed to fetch clinician in /me")
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	respondJSON(w, http.StatusOK, clinician)
}

func (h *AuthHandler) respondWithToken(w http.ResponseWriter, clinician models.Clinician) {
	token, err := h.tokenSigner.IssueToken(clinician)
	if err != nil {
		logger.Log.WithError(err).Error("failed issuing token")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, AuthResponse{
		Token:     token,
		ExpiresIn: int64(h.tokenSigner.TTL().Seconds()),
		Clinician: clinician,
	})
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
