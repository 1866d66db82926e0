// Package api provides the HTTP API server implementation.
package api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/crypto-dashboard/internal/controller"
	"github.com/crypto-dashboard/internal/marketdata"
	"github.com/crypto-dashboard/internal/models"
	"github.com/crypto-dashboard/internal/service"
	"github.com/crypto-dashboard/internal/session"
	"github.com/crypto-dashboard/internal/types"
	"github.com/crypto-dashboard/internal/worker"
)

// Service interfaces for dependency injection and testing

// AccountServiceInterface defines the account operations the API exposes
type AccountServiceInterface interface {
	GetUser(ctx context.Context) (*models.User, error)
	CreateOrUpdateUser(ctx context.Context, fields models.UserFields) (*models.User, error)
	GetUserSettings(ctx context.Context) (*models.UserSettings, error)
	SaveUserSettings(ctx context.Context, fields models.SettingsFields) (*models.UserSettings, error)
	GetPaymentMethods(ctx context.Context) ([]*models.PaymentMethod, error)
	SavePaymentMethods(ctx context.Context, methods []models.PaymentMethod) ([]*models.PaymentMethod, error)
	GetWatchlist(ctx context.Context) ([]*models.WatchlistItem, error)
	SaveWatchlistItem(ctx context.Context, symbol string) (*models.WatchlistItem, error)
	RemoveWatchlistItem(ctx context.Context, symbol string) error
	WatchlistQuotes(ctx context.Context) ([]service.WatchlistQuote, types.DataSource, error)
	InitializeUserData(ctx context.Context) bool
}

// MarketProxyInterface answers market-data proxy requests
type MarketProxyInterface interface {
	Fetch(ctx context.Context, req marketdata.Request) marketdata.Result
}

// WidgetSource serves the latest data of each polled widget
type WidgetSource interface {
	Get(widget string) (worker.WidgetData, bool)
}

// Server represents the HTTP API server.
type Server struct {
	router      *mux.Router
	handler     http.Handler
	httpServer  *http.Server
	accounts    AccountServiceInterface
	settings    *controller.Registry
	header      *controller.ProfileHeaderController
	proxy       MarketProxyInterface
	widgets     WidgetSource
	tokens      *session.TokenManager
	auth        session.Authenticator
	rateLimiter *RateLimiter
	config      *ServerConfig
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	RateLimitRPS    int // Requests per second per client
	RateLimitBurst  int
	SecureCookies   bool
}

// Dependencies are the components the handlers call into
type Dependencies struct {
	Accounts      AccountServiceInterface
	Settings      *controller.Registry
	ProfileHeader *controller.ProfileHeaderController
	Proxy         MarketProxyInterface
	Widgets       WidgetSource
	Tokens        *session.TokenManager
	Authenticator session.Authenticator
}

// NewServer creates a new API server instance.
func NewServer(config *ServerConfig, deps Dependencies) *Server {
	s := &Server{
		router:   mux.NewRouter(),
		accounts: deps.Accounts,
		settings: deps.Settings,
		header:   deps.ProfileHeader,
		proxy:    deps.Proxy,
		widgets:  deps.Widgets,
		tokens:   deps.Tokens,
		auth:     deps.Authenticator,
		config:   config,
	}

	s.setupRouter()

	return s
}

// setupRouter configures the router with middleware and routes
func (s *Server) setupRouter() {
	s.rateLimiter = NewRateLimiter(s.config.RateLimitRPS, s.config.RateLimitBurst)

	// Set up middleware (order matters!)
	s.router.Use(LoggingMiddleware)
	s.router.Use(RecoveryMiddleware)
	s.router.Use(SessionMiddleware(s.tokens))
	s.router.Use(RateLimitMiddleware(s.rateLimiter)) // keyed by session user when present
	s.router.Use(CompressionMiddleware)

	s.setupRoutes()

	// CORS wraps the router so preflights of any route are answered
	s.handler = CORSMiddleware(s.router)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%s", s.config.Host, s.config.Port),
		Handler:      s.handler,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	// Health check endpoint
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	api := s.router.PathPrefix("/api").Subrouter()

	// Market data endpoints (public)
	api.HandleFunc("/crypto", s.handleCrypto).Methods("GET")
	api.HandleFunc("/widgets/{name}", s.handleWidget).Methods("GET")

	// Session
	api.HandleFunc("/session", s.handleCreateSession).Methods("POST")

	// Account endpoints
	api.HandleFunc("/profile", s.handleGetProfile).Methods("GET")
	api.HandleFunc("/profile", s.handleSaveProfile).Methods("PUT")
	api.HandleFunc("/settings", s.handleGetSettings).Methods("GET")
	api.HandleFunc("/settings", s.handleSaveSettings).Methods("PUT")
	api.HandleFunc("/payment-methods", s.handleGetPaymentMethods).Methods("GET")
	api.HandleFunc("/payment-methods", s.handleSavePaymentMethods).Methods("PUT")
	api.HandleFunc("/watchlist", s.handleGetWatchlist).Methods("GET")
	api.HandleFunc("/watchlist/quotes", s.handleGetWatchlistQuotes).Methods("GET")
	api.HandleFunc("/watchlist/{symbol}", s.handleAddWatchlistItem).Methods("POST")
	api.HandleFunc("/watchlist/{symbol}", s.handleRemoveWatchlistItem).Methods("DELETE")
	api.HandleFunc("/init", s.handleInitialize).Methods("POST")
	api.HandleFunc("/layout/profile", s.handleLayoutProfile).Methods("GET")

	// Settings page endpoints
	form := api.PathPrefix("/settings/form").Subrouter()
	form.HandleFunc("", s.handleLoadForm).Methods("GET")
	form.HandleFunc("", s.handleReplaceForm).Methods("PUT")
	form.HandleFunc("/profile", s.handleUpdateFormProfile).Methods("PATCH")
	form.HandleFunc("/notifications", s.handleUpdateFormNotifications).Methods("PATCH")
	form.HandleFunc("/security", s.handleUpdateFormSecurity).Methods("PATCH")
	form.HandleFunc("/preferences", s.handleUpdateFormPreferences).Methods("PATCH")
	form.HandleFunc("/payment-methods", s.handleAddFormPaymentMethod).Methods("POST")
	form.HandleFunc("/payment-methods/{id}", s.handleRemoveFormPaymentMethod).Methods("DELETE")
	form.HandleFunc("/payment-methods/{id}/default", s.handleSetDefaultFormPaymentMethod).Methods("POST")
	form.HandleFunc("/save", s.handleSaveForm).Methods("POST")
	form.HandleFunc("/status", s.handleFormStatus).Methods("GET")
}

// Handler returns the routed handler with all middleware applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// handleHealth handles health check requests.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "crypto-dashboard",
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	log.Printf("Starting API server on %s", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Shutting down API server...")
	return s.httpServer.Shutdown(ctx)
}
