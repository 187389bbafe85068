package app

import (
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tradevault/platform/internal/anomaly"
	"github.com/tradevault/platform/internal/auth"
	"github.com/tradevault/platform/internal/elevated"
	"github.com/tradevault/platform/internal/guard"
	"github.com/tradevault/platform/internal/handler"
	"github.com/tradevault/platform/internal/infra"
	"github.com/tradevault/platform/internal/netrisk"
	"github.com/tradevault/platform/internal/pin"
	"github.com/tradevault/platform/internal/repository"
	"github.com/tradevault/platform/internal/risk"
	"github.com/tradevault/platform/internal/service"
)

// RouterDeps holds all dependencies needed by NewRouter.
type RouterDeps struct {
	Pool   *pgxpool.Pool
	Config *infra.Config
	JWTMgr *auth.JWTManager
	Logger *slog.Logger
}

// NewRouter assembles the chi.Router with all routes and middleware.
func NewRouter(deps RouterDeps) chi.Router {
	pool := deps.Pool
	cfg := deps.Config
	jwtMgr := deps.JWTMgr
	logger := deps.Logger

	// Repositories
	userRepo := repository.NewUserRepository()
	sessionRepo := repository.NewSessionRepository()
	anomalyRepo := repository.NewAnomalyRepository()
	deviceRepo := repository.NewDeviceRepository()
	credentialRepo := repository.NewCredentialRepository()
	outboxRepo := repository.NewOutboxRepository()

	// Network risk providers: primary first, fallback second.
	lookupTimeout, err := time.ParseDuration(cfg.LookupTimeout)
	if err != nil || lookupTimeout <= 0 {
		lookupTimeout = netrisk.DefaultTimeout
	}
	providers := []netrisk.Provider{
		netrisk.NewVPNAPIProvider(cfg.VPNAPIBaseURL, cfg.VPNAPIKey, lookupTimeout),
		netrisk.NewIPAPIProvider(cfg.IPAPIBaseURL, lookupTimeout),
	}
	assessor := netrisk.NewAssessor(providers, lookupTimeout, cfg.HostingPatterns, logger)

	// Pipeline components
	scorer := risk.NewScorer(nil)
	detector := anomaly.NewDetector()
	nonces := guard.NewPgNonceStore(pool)
	gate := pin.NewGate(pin.NewPBKDF2Hasher(), pin.NewMemoryStore(), logger)

	// Elevated session manager
	elevatedDuration := parseDurationOr(cfg.ElevatedDuration, elevated.DefaultDuration)
	warnLead := parseDurationOr(cfg.ElevatedWarnLead, elevated.DefaultWarnLead)
	throttle := parseDurationOr(cfg.ElevatedThrottle, elevated.DefaultThrottle)
	elevatedMgr := elevated.NewManager(elevatedDuration, warnLead, throttle, logger)

	// Services
	authSvc := service.NewAuthService(pool, userRepo, outboxRepo, jwtMgr)
	securitySvc := service.NewSecurityService(service.SecurityServiceParams{
		Pool:           pool,
		Sessions:       sessionRepo,
		Anomalies:      anomalyRepo,
		Devices:        deviceRepo,
		Outbox:         outboxRepo,
		Assessor:       assessor,
		Scorer:         scorer,
		Detector:       detector,
		Nonces:         nonces,
		Logger:         logger,
		HistoryLimit:   cfg.SessionHistoryLimit,
		AutoTrustLimit: cfg.AutoTrustDeviceLimit,
	})
	deviceSvc := service.NewDeviceService(pool, deviceRepo, outboxRepo, nonces, logger)
	pinSvc := service.NewPinService(pool, credentialRepo, outboxRepo, gate, cfg.PinLength, cfg.PinMaxAttempts, logger)

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc)
	securityHandler := handler.NewSecurityHandler(securitySvc, elevatedMgr)
	deviceHandler := handler.NewDeviceHandler(deviceSvc)
	pinHandler := handler.NewPinHandler(pinSvc)
	elevatedHandler := handler.NewElevatedHandler(elevatedMgr)
	adminSecurity := handler.NewAdminSecurityHandler(securitySvc)

	// Rate limiters for the hot security endpoints
	trackLimiter := guard.NewRateLimiter(60, time.Minute)
	pinLimiter := guard.NewRateLimiter(10, time.Minute)

	// Router
	r := chi.NewRouter()

	// Global middleware (order matters)
	r.Use(handler.Recovery(logger))
	r.Use(handler.RequestID)
	r.Use(handler.RequestLogger(logger))
	r.Use(handler.CORS)
	r.Use(handler.JSONContentType)

	// Health (no auth)
	r.Get("/health", handler.HealthHandler(pool))

	// Auth routes (no auth)
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
	})

	r.Route("/security", func(r chi.Router) {
		// Tracking events arrive from both realms; an elevated admin on a
		// masked connection lands in the stricter policy branch.
		r.With(auth.Authenticate(jwtMgr), handler.RateLimit(trackLimiter)).
			Post("/sessions/track", securityHandler.TrackSession)

		// Everything else on /security is trader-facing.
		r.Group(func(r chi.Router) {
			r.Use(auth.AuthenticateUser(jwtMgr))

			r.Get("/anomalies", securityHandler.ListAnomalies)
			r.Post("/anomalies/{id}/resolve", securityHandler.ResolveAnomaly)

			r.Get("/devices", deviceHandler.List)
			r.Post("/devices/trust", deviceHandler.Trust)
			r.Post("/devices/{id}/untrust", deviceHandler.Untrust)

			r.Get("/nonce", securityHandler.IssueNonce)

			r.Route("/pin", func(r chi.Router) {
				r.Post("/", pinHandler.Setup)
				r.With(handler.RateLimit(pinLimiter)).
					Post("/verify", pinHandler.Verify)
				r.Delete("/", pinHandler.Disable)
				r.Patch("/settings", pinHandler.UpdateSettings)
			})
		})
	})

	// Admin-authenticated routes
	r.Route("/admin", func(r chi.Router) {
		r.Use(auth.AuthenticateAdmin(jwtMgr))

		r.Route("/elevated", func(r chi.Router) {
			r.Post("/enter", elevatedHandler.Enter)
			r.Post("/activity", elevatedHandler.Activity)
			r.Post("/exit", elevatedHandler.Exit)
			r.Get("/status", elevatedHandler.Status)
		})

		r.Route("/security", func(r chi.Router) {
			r.Get("/sessions/{userId}", adminSecurity.ListSessions)
			r.Get("/anomalies", adminSecurity.ListAnomalies)
		})
	})

	return r
}

func parseDurationOr(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
