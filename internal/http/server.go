package http

import (
	"context"
	"net/http"
	"time"

	"myfinances/internal/auth/apple"
	"myfinances/internal/auth/google"
	"myfinances/internal/core"
	"myfinances/internal/ledger"
	"myfinances/internal/log"
	"myfinances/internal/middleware/ratelimit"
	"myfinances/internal/middleware/security"
	"myfinances/internal/session"
	"myfinances/internal/storage"
)

// Deps are the collaborators the server dispatches to. Apple may be nil,
// which disables the Apple sign-in route.
type Deps struct {
	Sessions *session.Manager
	Ledger   *ledger.Aggregator
	Google   google.Redeemer
	Apple    *apple.Verifier
	// Store backs the readiness probe; nil reports ready unconditionally.
	Store   storage.Store
	Logger  *log.Logger
	Limiter *ratelimit.Limiter
}

// Server wraps http.Server with the session and ledger handlers.
type Server struct {
	http.Server

	sessions *session.Manager
	ledger   *ledger.Aggregator
	google   google.Redeemer
	apple    *apple.Verifier
	store    storage.Store
	logger   *log.Logger
	limiter  *ratelimit.Limiter

	today func() core.Date
}

func NewServer(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = log.Discard()
	}
	limiter := deps.Limiter
	if limiter == nil {
		limiter = ratelimit.NewLimiter(ratelimit.DefaultConfig())
	}

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		sessions: deps.Sessions,
		ledger:   deps.Ledger,
		google:   deps.Google,
		apple:    deps.Apple,
		store:    deps.Store,
		logger:   logger.WithComponent(log.ComponentHTTP),
		limiter:  limiter,
		today:    core.Today,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/session", s.handleGetSession)
	mux.HandleFunc("POST /api/session/google", s.handleGoogleSignIn)
	mux.HandleFunc("POST /api/session/apple", s.handleAppleSignIn)
	mux.HandleFunc("DELETE /api/session", s.handleSignOut)

	mux.HandleFunc("GET /api/summary", s.handleSummary)
	mux.HandleFunc("POST /api/transactions", s.handleCreateTransaction)
	mux.HandleFunc("GET /api/categories", handleCategories)

	var h http.Handler = mux
	h = s.limiter.Middleware(extractClientIP, func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusTooManyRequests, kindRateLimited, "rate limit exceeded, try again later").Write(w)
	})(h)
	h = security.Headers(security.DefaultHeadersConfig())(h)
	h = log.Middleware(s.logger, requestID)(h)
	s.Handler = h

	return s
}

// Shutdown stops accepting requests, waits for in-flight ones and stops
// the rate limiter's cleanup loop.
func (s *Server) Shutdown(ctx context.Context) error {
	defer s.limiter.Stop()
	s.logger.Info("Shutting down HTTP server", log.FieldOperation, log.OpShutdown)
	return s.Server.Shutdown(ctx)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	NewResponse().JSON(map[string]string{"status": "ok"}).Write(w)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if _, _, err := s.store.Get(ctx, storage.SessionKey); err != nil {
			log.FromContext(ctx).Warn("Readiness check failed", log.FieldError, err.Error())
			ErrorResponse(http.StatusServiceUnavailable, core.KindStorageUnavailable, "storage not reachable").Write(w)
			return
		}
	}
	NewResponse().JSON(map[string]string{"status": "ready"}).Write(w)
}
