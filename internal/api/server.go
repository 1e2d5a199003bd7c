// Package api provides the HTTP API server and request handlers.
// @title Landlord API
// @version 1.0
// @description HTTP API for the rental-contract negotiation and execution engine
// @basePath /v1
// @schemes http https
// @consumes application/json
// @produces application/json
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/jaxxstorm/landlord/internal/apiversion"
	"github.com/jaxxstorm/landlord/internal/auth"
	"github.com/jaxxstorm/landlord/internal/config"
	"github.com/jaxxstorm/landlord/internal/contract"
	"github.com/jaxxstorm/landlord/internal/database"
	"github.com/jaxxstorm/landlord/internal/invitation"
	"github.com/jaxxstorm/landlord/internal/logger"
	"github.com/jaxxstorm/landlord/internal/matching"
	"github.com/jaxxstorm/landlord/internal/notification"
	"github.com/jaxxstorm/landlord/internal/objection"
	"github.com/jaxxstorm/landlord/internal/ratelimit"
	"github.com/jaxxstorm/landlord/internal/render"
	"github.com/jaxxstorm/landlord/internal/signing"
)

// Server wires the HTTP transport to the C1-C9 domain services. It holds
// no business logic of its own: every handler validates the request,
// delegates to a service, and translates the result or error to the
// wire format in internal/api/apierror.
type Server struct {
	router *chi.Mux
	server *http.Server

	provider database.Provider

	contracts     *contract.Service
	contractRepo  contract.Repository
	invitations   *invitation.Service
	objections    *objection.Service
	objectionRepo objection.Repository
	signing       *signing.Service
	matching      *matching.Service
	matchingRepo  matching.Repository
	notifications *notification.Service
	notifRepo     notification.Repository
	renderer      render.Renderer
	limiter       *ratelimit.Limiter
	verifier      *auth.Verifier

	logger *zap.Logger
}

// Services aggregates the constructed domain services and their
// repositories (§9 Design Notes' "Services aggregate"), built once at
// startup and passed into New.
type Services struct {
	Contracts     *contract.Service
	ContractRepo  contract.Repository
	Invitations   *invitation.Service
	Objections    *objection.Service
	ObjectionRepo objection.Repository
	Signing       *signing.Service
	Matching      *matching.Service
	MatchingRepo  matching.Repository
	Notifications *notification.Service
	NotifRepo     notification.Repository
	Renderer      render.Renderer
}

// New creates a new HTTP API server.
func New(cfg *config.HTTPConfig, dbProvider database.Provider, svcs Services, limiter *ratelimit.Limiter, verifier *auth.Verifier, log *zap.Logger) *Server {
	log = log.With(zap.String("component", "api"))

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logger.HTTPMiddleware(log))
	r.Use(logger.CorrelationIDMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(auth.Middleware(verifier))

	srv := &Server{
		router:        r,
		provider:      dbProvider,
		contracts:     svcs.Contracts,
		contractRepo:  svcs.ContractRepo,
		invitations:   svcs.Invitations,
		objections:    svcs.Objections,
		objectionRepo: svcs.ObjectionRepo,
		signing:       svcs.Signing,
		matching:      svcs.Matching,
		matchingRepo:  svcs.MatchingRepo,
		notifications: svcs.Notifications,
		notifRepo:     svcs.NotifRepo,
		renderer:      svcs.Renderer,
		limiter:       limiter,
		verifier:      verifier,
		logger:        log,
		server: &http.Server{
			Addr:         cfg.Address(),
			Handler:      r,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
	}

	srv.registerRoutes()

	return srv
}

// registerRoutes registers all HTTP routes.
func (s *Server) registerRoutes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Get("/ready", s.handleReady)

	s.router.Route("/"+apiversion.Current, func(r chi.Router) {
		r.Use(s.rateLimitMiddleware(ratelimit.BucketAPI))

		r.Route("/contracts", func(r chi.Router) {
			r.Post("/", s.handleCreateDraft)
			r.Get("/", s.handleListContracts)
			r.Get("/stats", s.handleContractStats)
			r.Get("/{id}", s.handleGetContract)
			r.Get("/{id}/history", s.handleContractHistory)
			r.Post("/{id}/landlord-data", s.handleCompleteLandlordData)
			r.Post("/{id}/tenant-data", s.handleCompleteTenantData)
			r.Post("/{id}/approve", s.handleApproveContract)
			r.Post("/{id}/cancel", s.handleCancelContract)
			r.Post("/{id}/guarantee", s.handleAddGuarantee)
			r.Get("/{id}/pdf", s.handleGeneratePDF)

			r.Post("/{id}/invitations", s.handleSendInvitation)
			r.Post("/{id}/invitations/resend", s.handleResendInvitation)

			r.Post("/{id}/objections", s.handleSubmitObjection)
			r.Get("/{id}/objections", s.handleListObjections)

			r.Post("/{id}/sign", s.handleSignContract)
			r.Post("/{id}/publish", s.handlePublishContract)
		})

		r.Route("/objections", func(r chi.Router) {
			r.Post("/{id}/respond", s.handleRespondObjection)
		})

		r.Route("/invitations", func(r chi.Router) {
			r.Post("/accept", s.handleAcceptInvitation)
			r.Get("/verify", s.handleVerifyInvitation)
		})

		r.Route("/matches", func(r chi.Router) {
			r.Post("/", s.handleSubmitMatch)
			r.Get("/", s.handleListMatches)
			r.Get("/recommendations", s.handleMatchRecommendations)
			r.Post("/{id}/accept", s.handleAcceptMatch)
			r.Post("/{id}/reject", s.handleRejectMatch)
			r.Post("/{id}/cancel", s.handleCancelMatch)
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", s.handleListNotifications)
			r.Get("/unread-count", s.handleUnreadCount)
			r.Post("/{id}/read", s.handleMarkRead)
			r.Post("/read-all", s.handleMarkAllRead)
			r.Post("/digests", s.handleCreateDigest)
		})
	})

	s.router.Route("/api", func(r chi.Router) {
		r.Handle("/", http.HandlerFunc(s.handleVersionRequired))
		r.Handle("/*", http.HandlerFunc(s.handleVersionRequired))
	})

	s.router.Route("/v{version}", func(r chi.Router) {
		r.Handle("/", http.HandlerFunc(s.handleUnsupportedVersion))
		r.Handle("/*", http.HandlerFunc(s.handleUnsupportedVersion))
	})
}

// rateLimitMiddleware enforces the limiter's per-bucket fixed-window limits
// (each counter resets when its window expires), keying on the caller's IP
// and, when authenticated, their user id. It applies only the counter: the
// blocked-IP and scanner-UA checks of ratelimit.Middleware are not run here.
func (s *Server) rateLimitMiddleware(bucket ratelimit.Bucket) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := ""
			if principal, ok := auth.FromContext(r.Context()); ok {
				userID = principal.UserID.String()
			}
			result := s.limiter.Check(bucket, ratelimit.ClientIP(r), userID)
			if !result.Allowed {
				writeJSON(w, http.StatusTooManyRequests, map[string]interface{}{
					"code":                "rate_limited",
					"message":             "rate limit exceeded",
					"retry_after_seconds": int(result.RetryAfter.Seconds()),
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// handleHealth is the liveness check endpoint.
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// handleReady is the readiness check endpoint.
// @Summary Readiness check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /ready [get]
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	checks := make(map[string]string)

	if s.provider != nil {
		if err := s.provider.Health(ctx); err != nil {
			s.logger.Warn("readiness check failed: database unhealthy", zap.Error(err))
			checks["database"] = "unhealthy"
			writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
				"status": "unavailable",
				"checks": checks,
				"error":  err.Error(),
			})
			return
		}
		checks["database"] = "healthy"
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ready",
		"checks": checks,
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("address", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	if err := s.server.Shutdown(ctx); err != nil {
		s.logger.Error("server shutdown failed", zap.Error(err))
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.logger.Info("HTTP server shut down successfully")
	return nil
}
