package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/classtask/classtask-core/internal/auth"
	"github.com/classtask/classtask-core/internal/infrastructure/config"
	"github.com/classtask/classtask-core/internal/infrastructure/logging"
	"github.com/classtask/classtask-core/internal/task"
)

// gracefulShutdownTimeout bounds how long Close waits for in-flight
// requests.
const gracefulShutdownTimeout = 10 * time.Second

// Deps collects everything the HTTP layer needs. All fields except Version
// are required.
type Deps struct {
	Config   *config.Config
	Logger   *logging.Logger
	Auth     *auth.Service
	Tasks    task.Repository
	Resolver *task.Resolver
	Version  string
}

// Server owns the HTTP listener, router, and login rate limiter. Build one
// with New and bring it up with Start.
type Server struct {
	cfg      *config.Config
	logger   *logging.Logger
	auth     *auth.Service
	tasks    task.Repository
	resolver *task.Resolver
	version  string
	server   *http.Server
	limiter  *loginLimiter
	cancel   context.CancelFunc // cancels background goroutines on Close()
}

// New validates the dependencies and prepares a server. Nothing listens
// until Start is called.
func New(deps Deps) (*Server, error) {
	if deps.Config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Auth == nil {
		return nil, fmt.Errorf("auth service is required")
	}
	if deps.Tasks == nil {
		return nil, fmt.Errorf("task repository is required")
	}
	if deps.Resolver == nil {
		return nil, fmt.Errorf("visibility resolver is required")
	}

	s := &Server{
		cfg:      deps.Config,
		logger:   deps.Logger,
		auth:     deps.Auth,
		tasks:    deps.Tasks,
		resolver: deps.Resolver,
		version:  deps.Version,
	}

	rl := deps.Config.Security.RateLimit
	if rl.Enabled {
		s.limiter = newLoginLimiter(rl.LoginAttempts, deps.Config.GetRateLimitWindow())
	}

	return s, nil
}

// Start builds the router and launches the listener in a background
// goroutine, along with the limiter cleanup loop when rate limiting is on.
func (s *Server) Start(ctx context.Context) error {
	// Close cancels this context to stop background goroutines even when
	// the parent context outlives the server.
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	if s.limiter != nil {
		go s.limiter.cleanLoop(srvCtx)
	}

	router := s.buildRouter()

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.API.Host, s.cfg.API.Port),
		Handler:           router,
		ReadTimeout:       s.cfg.GetReadTimeout(),
		ReadHeaderTimeout: s.cfg.GetReadTimeout(),
		WriteTimeout:      s.cfg.GetWriteTimeout(),
		IdleTimeout:       s.cfg.GetIdleTimeout(),
	}

	go func() {
		s.logger.Info("API server starting", "address", s.server.Addr)
		err := s.server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close drains in-flight requests, closing whatever remains once the
// shutdown timeout elapses.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck reports whether the listener has been started.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}

	return nil
}
