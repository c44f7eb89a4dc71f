// Package agent drives the tool-calling conversation loop. The language
// model decides which of the registered tools to call; the loop executes
// them, feeds the observations back, and stops when the model produces a
// plain answer or the budget runs out. Conversation history is replayed
// from and appended to a session store so follow-up questions keep their
// context.
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"

	"github.com/rulekit/rulecheck/internal/history"
	"github.com/rulekit/rulecheck/internal/logger"
	"github.com/rulekit/rulecheck/internal/rules"
	"github.com/rulekit/rulecheck/internal/search"
	"github.com/rulekit/rulecheck/internal/session"
)

// Defaults for the loop budget.
const (
	DefaultMaxIterations    = 8
	DefaultMaxExecutionTime = 25 * time.Second
)

// stoppedOutput is returned as the answer when the iteration or time budget
// runs out before the model settles on one.
const stoppedOutput = "Agent stopped due to iteration limit or time limit."

const systemPrompt = `You are the team's AI code rule checker.
Your goal is to remember the team's coding rules, explain them on request, and find and fix rule violations in code you are given.

How to use your tools:
1. When the user asks what rules exist or what a rule means, use list_rules or search_rules.
2. When the user provides code, or asks you to check or fix code, use check_code.
3. When the user asks to add a new rule, use add_rule, and call rebuild_rules_index afterwards if search should find it.

Write your answers for people. When there are violations, name the affected line ranges, include each suggestion, and show the diff when one is available.
Ground every statement in tool output. Never invent rules, violations, or fixes.`

// Request is one user turn. SessionID selects the conversation history to
// replay; an empty id runs the turn without persistence. Debug asks for the
// per-tool-call trace in the response.
type Request struct {
	SessionID string
	Input     string
	Debug     bool
}

// ToolCallSummary is one executed tool call, for debugging agent behavior.
// The observation is truncated so traces stay readable.
type ToolCallSummary struct {
	Tool               string `json:"tool"`
	ToolInput          string `json:"tool_input"`
	ObservationPreview string `json:"observation_preview"`
}

// Response is the agent's answer to one turn.
type Response struct {
	Output      string            `json:"output"`
	ToolSummary []ToolCallSummary `json:"tool_summary,omitempty"`
}

// Assistant is the surface the HTTP server and the chat REPL consume.
type Assistant interface {
	Invoke(ctx context.Context, req Request) (*Response, error)
}

// Config bounds a single Invoke call. Zero values fall back to the package
// defaults; LineLength zero means the checker's default limit.
type Config struct {
	MaxIterations    int
	MaxExecutionTime time.Duration
	Temperature      float64
	LineLength       int
}

// Agent wires a language model to the rule tools.
type Agent struct {
	model    llms.Model
	tb       *toolbox
	sessions session.Store
	cfg      Config
	log      *logger.Logger
}

var _ Assistant = (*Agent)(nil)

// New builds an agent over the given model and stores. sessions may be nil
// when no conversation history should be kept; hist may be nil when check
// runs should not be recorded.
func New(model llms.Model, store rules.Store, index search.Searcher, sessions session.Store, hist *history.Store, cfg Config) *Agent {
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = DefaultMaxIterations
	}
	if cfg.MaxExecutionTime <= 0 {
		cfg.MaxExecutionTime = DefaultMaxExecutionTime
	}
	return &Agent{
		model:    model,
		tb:       newToolbox(store, index, cfg.LineLength, hist),
		sessions: sessions,
		cfg:      cfg,
		log:      logger.Default().WithPrefix("AGENT"),
	}
}

// The session id travels to tools through the context so recorded checks
// can be tied back to the conversation that triggered them.
type sessionIDKey struct{}

func withSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDKey{}, id)
}

func sessionIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(sessionIDKey{}).(string)
	return id
}

// Invoke runs one conversation turn to completion.
func (a *Agent) Invoke(parent context.Context, req Request) (*Response, error) {
	if strings.TrimSpace(req.Input) == "" {
		return nil, fmt.Errorf("empty input")
	}

	ctx, cancel := context.WithTimeout(parent, a.cfg.MaxExecutionTime)
	defer cancel()
	ctx = withSessionID(ctx, req.SessionID)

	messages, err := a.buildMessages(ctx, req)
	if err != nil {
		return nil, err
	}

	var summary []ToolCallSummary
	start := time.Now()

	for iter := 0; iter < a.cfg.MaxIterations; iter++ {
		resp, err := a.model.GenerateContent(ctx, messages,
			llms.WithTools(a.tb.specs),
			llms.WithTemperature(a.cfg.Temperature),
		)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) && parent.Err() == nil {
				return a.finish(parent, req, stoppedOutput, summary)
			}
			return nil, fmt.Errorf("llm call failed: %w", err)
		}
		if len(resp.Choices) == 0 {
			return nil, fmt.Errorf("llm returned no choices")
		}
		choice := resp.Choices[0]

		if len(choice.ToolCalls) == 0 {
			a.log.Debug("Turn done: %d tool call(s) in %v", len(summary), time.Since(start).Round(time.Millisecond))
			return a.finish(parent, req, choice.Content, summary)
		}

		assistant := llms.MessageContent{Role: llms.ChatMessageTypeAI}
		if choice.Content != "" {
			assistant.Parts = append(assistant.Parts, llms.TextPart(choice.Content))
		}
		for _, tc := range choice.ToolCalls {
			assistant.Parts = append(assistant.Parts, tc)
		}
		messages = append(messages, assistant)

		for _, tc := range choice.ToolCalls {
			name, obs := a.dispatch(ctx, tc)
			summary = append(summary, ToolCallSummary{
				Tool:               name,
				ToolInput:          toolArguments(tc),
				ObservationPreview: preview(obs, 300),
			})
			messages = append(messages, llms.MessageContent{
				Role: llms.ChatMessageTypeTool,
				Parts: []llms.ContentPart{llms.ToolCallResponse{
					ToolCallID: tc.ID,
					Name:       name,
					Content:    obs,
				}},
			})
		}
	}

	a.log.Warn("Iteration budget exhausted after %d steps", a.cfg.MaxIterations)
	return a.finish(parent, req, stoppedOutput, summary)
}

// buildMessages assembles system prompt, replayed history, and the new user
// input.
func (a *Agent) buildMessages(ctx context.Context, req Request) ([]llms.MessageContent, error) {
	var history []session.Message
	if a.sessions != nil && req.SessionID != "" {
		var err error
		history, err = a.sessions.History(ctx, req.SessionID)
		if err != nil {
			return nil, fmt.Errorf("loading session %s: %w", req.SessionID, err)
		}
	}
	messages := make([]llms.MessageContent, 0, len(history)+2)
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt))
	for _, m := range history {
		role := llms.ChatMessageTypeHuman
		if m.Role == session.RoleAssistant {
			role = llms.ChatMessageTypeAI
		}
		messages = append(messages, llms.TextParts(role, m.Content))
	}
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, req.Input))
	return messages, nil
}

// dispatch executes one tool call. Tool failures become observations rather
// than loop errors so the model can correct its input and retry.
func (a *Agent) dispatch(ctx context.Context, tc llms.ToolCall) (name, observation string) {
	if tc.FunctionCall == nil {
		return "", "invalid tool call: no function"
	}
	name = tc.FunctionCall.Name
	tool, ok := a.tb.byName[name]
	if !ok {
		a.log.Warn("Model requested unknown tool %q", name)
		return name, fmt.Sprintf("unknown tool: %s", name)
	}
	a.log.Debug("Tool call: %s(%s)", name, tc.FunctionCall.Arguments)
	out, err := tool.Call(ctx, tc.FunctionCall.Arguments)
	if err != nil {
		a.log.Warn("Tool %s failed: %v", name, err)
		return name, fmt.Sprintf("tool error: %v", err)
	}
	return name, out
}

// finish persists the turn and shapes the response. Persistence failures
// are logged, not returned; the answer is already computed.
func (a *Agent) finish(parent context.Context, req Request, output string, summary []ToolCallSummary) (*Response, error) {
	if a.sessions != nil && req.SessionID != "" {
		now := time.Now().UTC()
		err := a.sessions.Append(context.WithoutCancel(parent), req.SessionID,
			session.Message{Role: session.RoleUser, Content: req.Input, CreatedAt: now},
			session.Message{Role: session.RoleAssistant, Content: output, CreatedAt: now},
		)
		if err != nil {
			a.log.Warn("Saving session %s failed: %v", req.SessionID, err)
		}
	}
	resp := &Response{Output: output}
	if req.Debug {
		resp.ToolSummary = summary
	}
	return resp, nil
}

func toolArguments(tc llms.ToolCall) string {
	if tc.FunctionCall == nil {
		return ""
	}
	return tc.FunctionCall.Arguments
}

// preview truncates an observation to at most n runes.
func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
