// Package server exposes the checker, the rule catalog, the agent, and the
// check history over HTTP. Handlers are thin: they validate, call the same
// internals the CLI uses, and shape JSON.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rulekit/rulecheck/internal/agent"
	"github.com/rulekit/rulecheck/internal/check"
	"github.com/rulekit/rulecheck/internal/history"
	"github.com/rulekit/rulecheck/internal/logger"
	"github.com/rulekit/rulecheck/internal/rules"
)

// Shutdown and I/O deadlines. The write timeout leaves room for a full
// agent turn, which can take its whole execution budget.
const (
	readHeaderTimeout = 10 * time.Second
	readTimeout       = 30 * time.Second
	writeTimeout      = 90 * time.Second
	shutdownTimeout   = 10 * time.Second
)

// Config holds the listen address and the default check options applied
// when a request leaves them unset.
type Config struct {
	Host  string
	Port  int
	Check check.Options
}

// Server routes HTTP requests to the rule store, the checker, the agent,
// and the history log.
type Server struct {
	cfg       Config
	store     rules.Store
	assistant agent.Assistant
	history   *history.Store
	log       *logger.Logger
	engine    *gin.Engine
}

// New builds the router. assistant may be nil when no language model is
// configured; /agent then answers 503. hist may be nil when history is
// disabled; /check still works and the /history endpoints answer 503.
func New(cfg Config, store rules.Store, assistant agent.Assistant, hist *history.Store) *Server {
	s := &Server{
		cfg:       cfg,
		store:     store,
		assistant: assistant,
		history:   hist,
		log:       logger.Default().WithPrefix("HTTP"),
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), requestID(), requestLogger(s.log))

	engine.GET("/health", s.handleHealth)
	engine.GET("/rules", s.handleGetRules)
	engine.POST("/rules", s.handleAddRule)
	engine.POST("/check", s.handleCheck)
	engine.POST("/agent", s.handleAgent)
	engine.GET("/history", s.handleHistory)
	engine.GET("/history/stats", s.handleHistoryStats)

	s.engine = engine
	return s
}

// Handler returns the underlying handler, mainly for tests.
func (s *Server) Handler() http.Handler { return s.engine }

// Addr returns the configured listen address.
func (s *Server) Addr() string { return fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port) }

// Run serves until the context is canceled, then drains in-flight requests
// before returning.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.Addr(),
		Handler:           s.engine,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("Listening on http://%s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
		s.log.Info("Shutting down")
		shutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}
