// Package api provides the HTTP server: auth, predictions, payments, and
// the public crystal catalog.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/pzyt/crystal-healing/internal/app/prediction"
	"github.com/pzyt/crystal-healing/internal/config"
	"github.com/pzyt/crystal-healing/internal/domain"
	"github.com/pzyt/crystal-healing/internal/infra/alipay"
	"github.com/pzyt/crystal-healing/internal/infra/auth"
	"github.com/pzyt/crystal-healing/internal/infra/sqlite"
)

// Server is the crystal-healing HTTP API server.
type Server struct {
	store       *sqlite.DB
	predictions *prediction.Service
	tokens      *auth.TokenIssuer
	alipay      *alipay.Client
	payments    config.PaymentsConfig
	origins     []string
	limiter     *userLimiter
	log         *zap.Logger
}

// NewServer wires the API server.
func NewServer(store *sqlite.DB, predictions *prediction.Service, tokens *auth.TokenIssuer, alipayClient *alipay.Client, cfg config.Config, log *zap.Logger) *Server {
	return &Server{
		store:       store,
		predictions: predictions,
		tokens:      tokens,
		alipay:      alipayClient,
		payments:    cfg.Payments,
		origins:     cfg.Server.AllowedOrigins,
		limiter:     newUserLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst),
		log:         log,
	}
}

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(s.corsMiddleware)
	r.Use(s.requestLogger)
	r.Use(metricsMiddleware)

	r.Get("/api/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", s.handleRegister)
		r.Post("/login", s.handleLogin)
		r.With(s.authenticate).Get("/me", s.handleMe)
		r.With(s.authenticate).Post("/verify", s.handleVerify)
	})

	r.Route("/api/users", func(r chi.Router) {
		r.Use(s.authenticate)
		r.Get("/profile", s.handleGetProfile)
		r.Put("/profile", s.handleUpdateProfile)
	})

	r.Route("/api/predictions", func(r chi.Router) {
		r.Use(s.authenticate)
		r.With(s.rateLimit).Post("/", s.handleCreatePrediction)
		r.Get("/", s.handleListPredictions)
		r.Get("/{id}", s.handleGetPrediction)
	})

	r.Route("/api/payments", func(r chi.Router) {
		// The gateway calls the notify endpoint without a bearer token;
		// its authentication is the RSA2 signature.
		r.Post("/alipay/notify", s.handleAlipayNotify)

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)
			r.Post("/", s.handleCreatePayment)
			r.Post("/mock/success", s.handleMockPaymentSuccess)
			r.Get("/", s.handleListPayments)
			r.Get("/{id}", s.handleGetPayment)
		})
	})

	r.Route("/api/crystals", func(r chi.Router) {
		r.Get("/", s.handleListCrystals)
		r.Get("/search", s.handleSearchCrystals)
		r.Get("/stats", s.handleCrystalStats)
		r.Get("/element/{element}", s.handleCrystalsByElement)
		r.Get("/healing/{property}", s.handleCrystalsByHealing)
		r.Get("/{id}", s.handleGetCrystal)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(); err != nil {
		writeError(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ─── Response helpers ───────────────────────────────────────────────────────

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"message": msg,
			"type":    "error",
		},
	})
}

// writeDomainError maps the sentinel errors onto HTTP statuses.
func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	var derivation *domain.ChartDerivationError
	switch {
	case errors.Is(err, domain.ErrInsufficientCredits):
		writeJSON(w, http.StatusPaymentRequired, map[string]interface{}{
			"error": map[string]interface{}{
				"message":      "测算次数不足，请购买后再试",
				"type":         "insufficient_credits",
				"need_payment": true,
			},
		})
	case errors.As(err, &derivation):
		writeError(w, http.StatusBadRequest, derivation.Error())
	case errors.Is(err, domain.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid email or password")
	case errors.Is(err, domain.ErrEmailTaken):
		writeError(w, http.StatusConflict, "email already registered")
	case errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrPredictionNotFound),
		errors.Is(err, domain.ErrPaymentNotFound),
		errors.Is(err, domain.ErrCrystalNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrPaymentSettled):
		writeError(w, http.StatusConflict, "payment already settled")
	default:
		s.log.Error("internal error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// corsMiddleware allows the configured frontend origins.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && s.originAllowed(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) originAllowed(origin string) bool {
	for _, allowed := range s.origins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}
