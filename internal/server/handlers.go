package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/rulekit/rulecheck/internal/agent"
	"github.com/rulekit/rulecheck/internal/check"
	"github.com/rulekit/rulecheck/internal/history"
	"github.com/rulekit/rulecheck/internal/rules"
)

// Notes attached to /check reports at this boundary.
const (
	notesOnlyPython    = "Only Python is checked in this build."
	notesDeterministic = "Deterministic checkers only."
)

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) handleGetRules(c *gin.Context) {
	doc, err := s.store.Load()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, doc)
}

type addRuleRequest struct {
	Language    string `json:"language"`
	Title       string `json:"title"`
	Description string `json:"description"`
	AutoFix     bool   `json:"auto_fix"`
}

func (s *Server) handleAddRule(c *gin.Context) {
	var req addRuleRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title is required"})
		return
	}
	if strings.TrimSpace(req.Description) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "description is required"})
		return
	}
	lang := strings.ToLower(strings.TrimSpace(req.Language))
	if lang == "" {
		lang = "python"
	}

	rule := rules.Rule{
		ID:          rules.NewRuleID(rules.IDPrefix(lang), req.Title),
		Language:    lang,
		Title:       req.Title,
		Description: req.Description,
		AutoFix:     req.AutoFix,
	}
	if err := s.store.Add(rule); err != nil {
		if errors.Is(err, rules.ErrDuplicateRule) {
			c.JSON(http.StatusConflict, gin.H{"error": "rule already exists: " + rule.ID})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"added": true, "rule": rule})
}

type checkRequest struct {
	SessionID   string `json:"session_id"`
	Language    string `json:"language"`
	Code        string `json:"code"`
	AutoFix     *bool  `json:"auto_fix"`
	IncludeDiff *bool  `json:"include_diff"`
}

func (s *Server) handleCheck(c *gin.Context) {
	var req checkRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "code is required"})
		return
	}

	lang := strings.ToLower(strings.TrimSpace(req.Language))
	if lang == "" {
		lang = "python"
	}
	if lang != "python" {
		c.JSON(http.StatusOK, check.Report{
			OK:         true,
			Summary:    "MVP supports python only.",
			Violations: []check.Violation{},
			Notes:      notesOnlyPython,
		})
		return
	}

	opts := s.cfg.Check
	if req.AutoFix != nil {
		opts.AutoFix = *req.AutoFix
	}
	if req.IncludeDiff != nil {
		opts.IncludeDiff = *req.IncludeDiff
	}

	rep := check.Run(req.Code, opts)
	rep.Notes = notesDeterministic
	if rep.Violations == nil {
		rep.Violations = []check.Violation{}
	}

	s.recordCheck(c, req.SessionID, lang, rep)
	c.JSON(http.StatusOK, rep)
}

// recordCheck appends a history row. Failures are logged, never surfaced:
// the check result is already computed and history is an audit trail, not
// part of the contract.
func (s *Server) recordCheck(c *gin.Context, sessionID, lang string, rep check.Report) {
	if s.history == nil {
		return
	}
	rec := history.FromReport(sessionID, lang, history.SourceHTTP, rep)
	if err := s.history.Record(c.Request.Context(), rec); err != nil {
		s.log.Warn("Recording check failed: %v", err)
	}
}

type agentRequest struct {
	SessionID string `json:"session_id"`
	Input     string `json:"input"`
	Debug     bool   `json:"debug"`
}

func (s *Server) handleAgent(c *gin.Context) {
	if s.assistant == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "agent is not configured; set an llm provider and api key"})
		return
	}
	var req agentRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if strings.TrimSpace(req.Input) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "input is required"})
		return
	}

	resp, err := s.assistant.Invoke(c.Request.Context(), agent.Request{
		SessionID: req.SessionID,
		Input:     req.Input,
		Debug:     req.Debug,
	})
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleHistory(c *gin.Context) {
	if s.history == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "history is disabled"})
		return
	}

	q := history.Query{
		SessionID: c.Query("session_id"),
		RuleID:    c.Query("rule_id"),
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		q.Limit = limit
	}

	records, err := s.history.List(c.Request.Context(), q)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"checks": records, "count": len(records)})
}

func (s *Server) handleHistoryStats(c *gin.Context) {
	if s.history == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "history is disabled"})
		return
	}
	stats, err := s.history.GetStats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}
