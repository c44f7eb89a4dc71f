package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rulekit/rulecheck/internal/history"
	"github.com/rulekit/rulecheck/internal/mcp"
	"github.com/rulekit/rulecheck/internal/search"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp-serve",
	Short: "Start rulecheck as an MCP (Model Context Protocol) server",
	Long: `Start rulecheck as an MCP server for integration with MCP clients.

The server communicates over stdin/stdout using JSON-RPC 2.0.

Available tools:
  - check_code    Check a Python snippet against the team rules
  - list_rules    List the registered rules
  - search_rules  Find rules similar to a query

Configure your MCP client with:

  {
    "mcpServers": {
      "rulecheck": {
        "type": "stdio",
        "command": "rulecheck",
        "args": ["mcp-serve"]
      }
    }
  }

Examples:
  # Start server (used by MCP clients, not directly)
  rulecheck mcp-serve

  # Test with manual JSON-RPC input
  echo '{"jsonrpc":"2.0","id":1,"method":"initialize"}' | rulecheck mcp-serve`,
	Args: cobra.NoArgs,
	RunE: runMCPServe,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, args []string) error {
	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	store, err := openRuleStore()
	if err != nil {
		return err
	}
	defer store.Close()

	index := search.NewIndex()
	if list, err := store.List(); err == nil {
		index.Rebuild(list)
	}

	var hist *history.Store
	if appConfig.History.Enabled {
		if h, err := history.NewStore(history.StoreConfig{Path: historyStorePath()}); err == nil {
			defer h.Close()
			hist = h
		}
	}

	server := mcp.NewServer(os.Stdin, os.Stdout)
	mcp.RegisterRuleTools(server, store, index, configCheckOptions(), hist)

	// Log to stderr (stdout is for MCP protocol)
	fmt.Fprintln(os.Stderr, "rulecheck MCP server starting...")

	if err := server.Serve(ctx); err != nil {
		if ctx.Err() != nil {
			// Context cancelled, normal shutdown
			fmt.Fprintln(os.Stderr, "rulecheck MCP server stopped")
			return nil
		}
		return fmt.Errorf("MCP server error: %w", err)
	}

	fmt.Fprintln(os.Stderr, "rulecheck MCP server stopped")
	return nil
}
