package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/rulekit/rulecheck/internal/agent"
	"github.com/rulekit/rulecheck/internal/history"
	"github.com/rulekit/rulecheck/internal/llm"
	"github.com/rulekit/rulecheck/internal/logger"
	"github.com/rulekit/rulecheck/internal/rules"
	"github.com/rulekit/rulecheck/internal/search"
	"github.com/rulekit/rulecheck/internal/server"
	"github.com/rulekit/rulecheck/internal/session"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the HTTP API for rule management, code checks, and the agent.

Endpoints:
  GET  /health         Liveness probe
  GET  /rules          Full rule catalog
  POST /rules          Add a rule
  POST /check          Check a code snippet
  POST /agent          One agent conversation turn
  GET  /history        Recorded check runs
  GET  /history/stats  Aggregated check statistics

Without LLM provider credentials the server still runs; only /agent
answers 503.

Examples:
  # Serve on the configured address (default 127.0.0.1:8000)
  rulecheck serve

  # Override the listen address
  rulecheck serve --host 0.0.0.0 --port 9000`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("host", "", "Listen address (overrides config)")
	serveCmd.Flags().Int("port", 0, "Listen port (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logger.Default().WithPrefix("SERVE")

	if !isVerbose() {
		gin.SetMode(gin.ReleaseMode)
	}

	host := appConfig.Server.Host
	if h, _ := cmd.Flags().GetString("host"); h != "" {
		host = h
	}
	port := appConfig.Server.Port
	if p, _ := cmd.Flags().GetInt("port"); p > 0 {
		port = p
	}

	store, err := openRuleStore()
	if err != nil {
		return err
	}
	defer store.Close()

	index := search.NewIndex()
	if list, err := store.List(); err == nil {
		index.Rebuild(list)
	} else {
		log.Warn("Could not build search index: %v", err)
	}

	var hist *history.Store
	if appConfig.History.Enabled {
		h, err := history.NewStore(history.StoreConfig{Path: historyStorePath()})
		if err != nil {
			log.Warn("History disabled: %v", err)
		} else {
			defer h.Close()
			hist = h
		}
	}

	assistant := buildAssistant(store, index, hist, log)

	srv := server.New(server.Config{
		Host:  host,
		Port:  port,
		Check: configCheckOptions(),
	}, store, assistant, hist)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if !isQuiet() {
		fmt.Fprintf(os.Stderr, "Serving on http://%s\n", srv.Addr())
	}
	return srv.Run(ctx)
}

// buildAssistant wires the agent when a model can be built. Without
// provider credentials it returns nil and the server runs degraded.
func buildAssistant(store rules.Store, index search.Searcher, hist *history.Store, log *logger.Logger) agent.Assistant {
	model, err := llm.New(appConfig.Agent)
	if err != nil {
		log.Warn("Agent disabled: %v", err)
		return nil
	}

	sessions, err := openSessionStore()
	if err != nil {
		log.Warn("Agent running without session persistence: %v", err)
		sessions = nil
	}

	return agent.New(model, store, index, sessions, hist, agent.Config{
		MaxIterations:    appConfig.Agent.MaxIterations,
		MaxExecutionTime: appConfig.Agent.MaxExecutionTime,
		Temperature:      appConfig.Agent.Temperature,
		LineLength:       appConfig.Check.LineLength,
	})
}

// openSessionStore opens the configured conversation store.
func openSessionStore() (session.Store, error) {
	opts := session.Options{
		Dir:         appConfig.Sessions.Dir,
		MaxSessions: appConfig.Sessions.MaxSessions,
		TTL:         appConfig.Sessions.TTL,
		GCInterval:  appConfig.Sessions.GCInterval,
	}
	if appConfig.Sessions.Backend == session.BackendBadger {
		opts.Dir = appConfig.Sessions.BadgerPath
	}
	return session.Open(appConfig.Sessions.Backend, opts)
}
