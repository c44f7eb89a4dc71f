// Package history provides SQLite-based storage for past check runs, feeding
// the `rulecheck history` command and the /history API endpoints.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Store provides SQLite-based check history storage.
type Store struct {
	db *sql.DB
}

// StoreConfig configures the history store.
type StoreConfig struct {
	// Path is the SQLite database file path
	Path string
}

// NewStore creates a new history store.
func NewStore(cfg StoreConfig) (*Store, error) {
	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}

	store := &Store{db: db}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return store, nil
}

// migrate runs database migrations.
func (s *Store) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS checks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			language TEXT NOT NULL,
			source TEXT NOT NULL,
			ok BOOLEAN NOT NULL,
			violation_count INTEGER NOT NULL,
			fixed BOOLEAN NOT NULL DEFAULT FALSE,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS check_violations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			check_id INTEGER NOT NULL REFERENCES checks(id) ON DELETE CASCADE,
			rule_id TEXT NOT NULL,
			severity TEXT NOT NULL,
			message TEXT NOT NULL,
			start_line INTEGER,
			end_line INTEGER
		)`,

		`CREATE INDEX IF NOT EXISTS idx_checks_session ON checks(session_id)`,
		`CREATE INDEX IF NOT EXISTS idx_checks_created ON checks(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_violations_check ON check_violations(check_id)`,
		`CREATE INDEX IF NOT EXISTS idx_violations_rule ON check_violations(rule_id)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}

// Record saves a check run and its violations.
func (s *Store) Record(ctx context.Context, rec *CheckRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx, `INSERT INTO checks (
		session_id, language, source, ok, violation_count, fixed, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.SessionID, rec.Language, rec.Source, rec.OK,
		rec.ViolationCount, rec.Fixed, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting check: %w", err)
	}

	id, _ := result.LastInsertId()
	rec.ID = id

	if len(rec.Violations) > 0 {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO check_violations (
			check_id, rule_id, severity, message, start_line, end_line
		) VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("preparing statement: %w", err)
		}
		defer stmt.Close()

		for _, v := range rec.Violations {
			if _, err := stmt.ExecContext(ctx,
				id, v.RuleID, v.Severity, v.Message, v.StartLine, v.EndLine,
			); err != nil {
				return fmt.Errorf("inserting violation: %w", err)
			}
		}
	}

	return tx.Commit()
}

// List returns recorded checks, newest first.
func (s *Store) List(ctx context.Context, q Query) ([]CheckRecord, error) {
	var args []interface{}
	var conditions []string

	if q.SessionID != "" {
		conditions = append(conditions, "c.session_id = ?")
		args = append(args, q.SessionID)
	}
	if q.RuleID != "" {
		conditions = append(conditions,
			"EXISTS (SELECT 1 FROM check_violations v WHERE v.check_id = c.id AND v.rule_id = ?)")
		args = append(args, q.RuleID)
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 50
	}

	//nolint:gosec // Query built with parameterized args
	selectQuery := `
		SELECT id, session_id, language, source, ok, violation_count, fixed, created_at
		FROM checks c
		` + whereClause + `
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, selectQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("querying checks: %w", err)
	}
	defer rows.Close()

	records := make([]CheckRecord, 0)
	for rows.Next() {
		var r CheckRecord
		if err := rows.Scan(
			&r.ID, &r.SessionID, &r.Language, &r.Source,
			&r.OK, &r.ViolationCount, &r.Fixed, &r.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning check: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading checks: %w", err)
	}

	if err := s.attachViolations(ctx, records); err != nil {
		return nil, err
	}
	return records, nil
}

func (s *Store) attachViolations(ctx context.Context, records []CheckRecord) error {
	if len(records) == 0 {
		return nil
	}

	byID := make(map[int64]*CheckRecord, len(records))
	placeholders := make([]string, 0, len(records))
	args := make([]interface{}, 0, len(records))
	for i := range records {
		byID[records[i].ID] = &records[i]
		placeholders = append(placeholders, "?")
		args = append(args, records[i].ID)
	}

	//nolint:gosec // Placeholder list only, all values parameterized
	query := `
		SELECT check_id, rule_id, severity, message, start_line, end_line
		FROM check_violations
		WHERE check_id IN (` + strings.Join(placeholders, ", ") + `)
		ORDER BY id
	`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("querying violations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var checkID int64
		var v RecordedViolation
		var startLine, endLine sql.NullInt64

		if err := rows.Scan(&checkID, &v.RuleID, &v.Severity, &v.Message, &startLine, &endLine); err != nil {
			return fmt.Errorf("scanning violation: %w", err)
		}
		if startLine.Valid {
			v.StartLine = int(startLine.Int64)
		}
		if endLine.Valid {
			v.EndLine = int(endLine.Int64)
		}

		if rec, ok := byID[checkID]; ok {
			rec.Violations = append(rec.Violations, v)
		}
	}
	return rows.Err()
}

// GetStats returns aggregate statistics over all recorded checks.
func (s *Store) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{
		ByRule:     make(map[string]int64),
		BySeverity: make(map[string]int64),
	}

	var okChecks, fixedChecks, totalViolations sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       SUM(CASE WHEN ok THEN 1 ELSE 0 END),
		       SUM(CASE WHEN fixed THEN 1 ELSE 0 END),
		       SUM(violation_count)
		FROM checks
	`).Scan(&stats.TotalChecks, &okChecks, &fixedChecks, &totalViolations); err != nil {
		return nil, fmt.Errorf("querying stats: %w", err)
	}
	stats.OKChecks = okChecks.Int64
	stats.FixedChecks = fixedChecks.Int64
	stats.TotalViolations = totalViolations.Int64

	rows, err := s.db.QueryContext(ctx,
		`SELECT rule_id, COUNT(*) FROM check_violations GROUP BY rule_id`)
	if err != nil {
		return nil, fmt.Errorf("querying rule breakdown: %w", err)
	}
	for rows.Next() {
		var ruleID string
		var count int64
		if err := rows.Scan(&ruleID, &count); err == nil {
			stats.ByRule[ruleID] = count
		}
	}
	rows.Close()

	rows, err = s.db.QueryContext(ctx,
		`SELECT severity, COUNT(*) FROM check_violations GROUP BY severity`)
	if err != nil {
		return nil, fmt.Errorf("querying severity breakdown: %w", err)
	}
	for rows.Next() {
		var severity string
		var count int64
		if err := rows.Scan(&severity, &count); err == nil {
			stats.BySeverity[severity] = count
		}
	}
	rows.Close()

	return stats, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
