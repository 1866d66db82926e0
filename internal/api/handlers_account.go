package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	apperrors "github.com/crypto-dashboard/internal/errors"
	"github.com/crypto-dashboard/internal/models"
	"github.com/crypto-dashboard/internal/service"
	"github.com/crypto-dashboard/internal/session"
	"github.com/crypto-dashboard/internal/types"
)

// SessionResponse is the body of a successful login
type SessionResponse struct {
	Token       string    `json:"token"`
	Email       string    `json:"email"`
	ExpiresAt   time.Time `json:"expires_at"`
	Initialized bool      `json:"initialized"`
}

// WatchlistQuotesResponse is the watchlist joined with market data
type WatchlistQuotesResponse struct {
	Source types.DataSource         `json:"source"`
	Items  []service.WatchlistQuote `json:"items"`
}

// handleCreateSession handles POST /api/session - log in and seed the demo data
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var creds session.Credentials
	if err := parseJSONBody(r, &creds); err != nil {
		respondInvalidBody(w, err)
		return
	}

	identity, err := s.auth.Authenticate(r.Context(), creds)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	token, sess, err := s.tokens.Issue(identity)
	if err != nil {
		respondServiceError(w, r, apperrors.NewInternalError("failed to issue session", err))
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   s.config.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	ctx := session.WithSession(r.Context(), sess)
	initialized := s.accounts.InitializeUserData(ctx)

	respondJSON(w, http.StatusCreated, SessionResponse{
		Token:       token,
		Email:       sess.Email,
		ExpiresAt:   sess.ExpiresAt,
		Initialized: initialized,
	})
}

// handleGetProfile handles GET /api/profile
func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	user, err := s.accounts.GetUser(r.Context())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	if user == nil {
		respondServiceError(w, r, service.ErrUserNotFound)
		return
	}

	respondJSON(w, http.StatusOK, user)
}

// handleSaveProfile handles PUT /api/profile
func (s *Server) handleSaveProfile(w http.ResponseWriter, r *http.Request) {
	var fields models.UserFields
	if err := parseJSONBody(r, &fields); err != nil {
		respondInvalidBody(w, err)
		return
	}

	user, err := s.accounts.CreateOrUpdateUser(r.Context(), fields)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, user)
}

// handleGetSettings handles GET /api/settings
func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.accounts.GetUserSettings(r.Context())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	if settings == nil {
		respondServiceError(w, r, apperrors.NewNotFoundError("settings", ""))
		return
	}

	respondJSON(w, http.StatusOK, settings)
}

// handleSaveSettings handles PUT /api/settings
func (s *Server) handleSaveSettings(w http.ResponseWriter, r *http.Request) {
	var fields models.SettingsFields
	if err := parseJSONBody(r, &fields); err != nil {
		respondInvalidBody(w, err)
		return
	}

	settings, err := s.accounts.SaveUserSettings(r.Context(), fields)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, settings)
}

// handleGetPaymentMethods handles GET /api/payment-methods
func (s *Server) handleGetPaymentMethods(w http.ResponseWriter, r *http.Request) {
	methods, err := s.accounts.GetPaymentMethods(r.Context())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, methods)
}

// handleSavePaymentMethods handles PUT /api/payment-methods - replace the whole set
func (s *Server) handleSavePaymentMethods(w http.ResponseWriter, r *http.Request) {
	var methods []models.PaymentMethod
	if err := parseJSONBody(r, &methods); err != nil {
		respondInvalidBody(w, err)
		return
	}

	saved, err := s.accounts.SavePaymentMethods(r.Context(), methods)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, saved)
}

// handleGetWatchlist handles GET /api/watchlist
func (s *Server) handleGetWatchlist(w http.ResponseWriter, r *http.Request) {
	items, err := s.accounts.GetWatchlist(r.Context())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, items)
}

// handleGetWatchlistQuotes handles GET /api/watchlist/quotes
func (s *Server) handleGetWatchlistQuotes(w http.ResponseWriter, r *http.Request) {
	items, source, err := s.accounts.WatchlistQuotes(r.Context())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	w.Header().Set(DataSourceHeader, string(source))
	respondJSON(w, http.StatusOK, WatchlistQuotesResponse{Source: source, Items: items})
}

// handleAddWatchlistItem handles POST /api/watchlist/{symbol}
func (s *Server) handleAddWatchlistItem(w http.ResponseWriter, r *http.Request) {
	item, err := s.accounts.SaveWatchlistItem(r.Context(), mux.Vars(r)["symbol"])
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, item)
}

// handleRemoveWatchlistItem handles DELETE /api/watchlist/{symbol}
func (s *Server) handleRemoveWatchlistItem(w http.ResponseWriter, r *http.Request) {
	if err := s.accounts.RemoveWatchlistItem(r.Context(), mux.Vars(r)["symbol"]); err != nil {
		respondServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleInitialize handles POST /api/init - seed the demo data of the session user
func (s *Server) handleInitialize(w http.ResponseWriter, r *http.Request) {
	if _, err := session.Require(r.Context()); err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{
		"initialized": s.accounts.InitializeUserData(r.Context()),
	})
}

// handleLayoutProfile handles GET /api/layout/profile - the header avatar
func (s *Server) handleLayoutProfile(w http.ResponseWriter, r *http.Request) {
	header, err := s.header.Load(r.Context())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, header)
}
