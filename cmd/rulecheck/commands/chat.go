package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rulekit/rulecheck/internal/agent"
	"github.com/rulekit/rulecheck/internal/history"
	"github.com/rulekit/rulecheck/internal/llm"
	"github.com/rulekit/rulecheck/internal/logger"
	"github.com/rulekit/rulecheck/internal/search"
	"github.com/rulekit/rulecheck/internal/session"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the rule assistant",
	Long: `Start an interactive conversation with the rule assistant.

The assistant answers questions about the team rules, checks code you
paste, and records new rules. Type "exit" or "quit" to leave; the session
id printed on exit resumes the conversation later.

Examples:
  # Start a new conversation
  rulecheck chat

  # Resume a previous session
  rulecheck chat --session 4f7c1e02-...

  # Show the tool calls behind each answer
  rulecheck chat --debug`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().String("session", "", "Session id to resume")
	chatCmd.Flags().Bool("debug", false, "Show the tool calls behind each answer")
}

func runChat(cmd *cobra.Command, args []string) error {
	model, err := llm.New(appConfig.Agent)
	if err != nil {
		return fmt.Errorf("agent unavailable: %w", err)
	}

	store, err := openRuleStore()
	if err != nil {
		return err
	}
	defer store.Close()

	index := search.NewIndex()
	if list, err := store.List(); err == nil {
		index.Rebuild(list)
	}

	sessions, err := openSessionStore()
	if err != nil {
		return fmt.Errorf("opening session store: %w", err)
	}
	defer sessions.Close()

	var hist *history.Store
	if appConfig.History.Enabled {
		if h, err := history.NewStore(history.StoreConfig{Path: historyStorePath()}); err != nil {
			logger.Default().Warn("Not recording history: %v", err)
		} else {
			defer h.Close()
			hist = h
		}
	}

	assistant := agent.New(model, store, index, sessions, hist, agent.Config{
		MaxIterations:    appConfig.Agent.MaxIterations,
		MaxExecutionTime: appConfig.Agent.MaxExecutionTime,
		Temperature:      appConfig.Agent.Temperature,
		LineLength:       appConfig.Check.LineLength,
	})

	sessionID, _ := cmd.Flags().GetString("session")
	debug, _ := cmd.Flags().GetBool("debug")
	resumed := sessionID != ""
	if sessionID == "" {
		sessionID = session.NewSessionID()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if resumed {
		fmt.Printf("Resuming session %s. Type \"exit\" to leave.\n", sessionID)
	} else {
		fmt.Printf("New session %s. Type \"exit\" to leave.\n", sessionID)
	}

	return chatLoop(ctx, assistant, sessionID, debug, os.Stdin, os.Stdout)
}

// chatLoop reads user turns until exit, EOF, or cancellation. A final line
// without a trailing newline is still sent.
func chatLoop(ctx context.Context, assistant agent.Assistant, sessionID string, debug bool, in io.Reader, out io.Writer) error {
	reader := bufio.NewReader(in)
	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(out)
			sayGoodbye(out, sessionID)
			return nil
		default:
		}

		fmt.Fprint(out, "You> ")
		line, readErr := reader.ReadString('\n')
		if readErr != nil && readErr != io.EOF {
			return fmt.Errorf("reading input: %w", readErr)
		}

		input := strings.TrimSpace(line)
		switch {
		case input == "":
			// nothing to send
		case isExitCommand(input):
			sayGoodbye(out, sessionID)
			return nil
		default:
			resp, err := assistant.Invoke(ctx, agent.Request{
				SessionID: sessionID,
				Input:     input,
				Debug:     debug,
			})
			if err != nil {
				if ctx.Err() != nil {
					fmt.Fprintln(out)
					sayGoodbye(out, sessionID)
					return nil
				}
				// Non-fatal: display and keep the conversation going
				fmt.Fprintf(out, "Error: %v\n", err)
				continue
			}
			printResponse(out, resp, debug)
		}

		if readErr == io.EOF {
			fmt.Fprintln(out)
			sayGoodbye(out, sessionID)
			return nil
		}
	}
}

func printResponse(out io.Writer, resp *agent.Response, debug bool) {
	fmt.Fprintf(out, "AI> %s\n", resp.Output)
	if debug {
		for _, call := range resp.ToolSummary {
			fmt.Fprintf(out, "  [tool] %s(%s) -> %s\n", call.Tool, call.ToolInput, call.ObservationPreview)
		}
	}
}

func sayGoodbye(out io.Writer, sessionID string) {
	fmt.Fprintf(out, "Bye. Resume this conversation with: rulecheck chat --session %s\n", sessionID)
}

// isExitCommand reports whether input ends the conversation.
func isExitCommand(input string) bool {
	switch strings.ToLower(input) {
	case "exit", "quit", "/q", "/quit":
		return true
	}
	return false
}
