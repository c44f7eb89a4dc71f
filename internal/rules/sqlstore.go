package rules

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// SQLStore keeps the catalog in a SQLite database. Rule order follows
// insertion order.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore opens (and if needed creates) a SQLite-backed store.
func NewSQLStore(path string) (*SQLStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating rules directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening rules database: %w", err)
	}

	// WAL keeps concurrent readers out of the writers' way
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}

	store := &SQLStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return store, nil
}

// Compile-time interface check.
var _ Store = (*SQLStore)(nil)

func (s *SQLStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS team (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			team_name TEXT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS members (
			name TEXT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS rules (
			id TEXT PRIMARY KEY,
			language TEXT NOT NULL,
			title TEXT NOT NULL,
			description TEXT NOT NULL,
			auto_fix BOOLEAN NOT NULL DEFAULT FALSE
		)`,

		`CREATE INDEX IF NOT EXISTS idx_rules_language ON rules(language)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

func (s *SQLStore) Load() (*Document, error) {
	doc := EmptyDocument()

	var team string
	err := s.db.QueryRow(`SELECT team_name FROM team WHERE id = 1`).Scan(&team)
	switch {
	case err == nil:
		doc.TeamName = team
	case errors.Is(err, sql.ErrNoRows):
		// keep default
	default:
		return nil, fmt.Errorf("querying team: %w", err)
	}

	rows, err := s.db.Query(`SELECT name FROM members ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("querying members: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning member: %w", err)
		}
		doc.Members = append(doc.Members, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading members: %w", err)
	}

	ruleRows, err := s.db.Query(
		`SELECT id, language, title, description, auto_fix FROM rules ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("querying rules: %w", err)
	}
	defer ruleRows.Close()
	for ruleRows.Next() {
		var r Rule
		if err := ruleRows.Scan(&r.ID, &r.Language, &r.Title, &r.Description, &r.AutoFix); err != nil {
			return nil, fmt.Errorf("scanning rule: %w", err)
		}
		doc.Rules = append(doc.Rules, r)
	}
	if err := ruleRows.Err(); err != nil {
		return nil, fmt.Errorf("reading rules: %w", err)
	}

	return doc, nil
}

func (s *SQLStore) Save(doc *Document) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range []string{`DELETE FROM team`, `DELETE FROM members`, `DELETE FROM rules`} {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("clearing catalog: %w", err)
		}
	}

	if _, err := tx.Exec(`INSERT INTO team (id, team_name) VALUES (1, ?)`, doc.TeamName); err != nil {
		return fmt.Errorf("inserting team: %w", err)
	}
	for _, m := range doc.Members {
		if _, err := tx.Exec(`INSERT INTO members (name) VALUES (?)`, m); err != nil {
			return fmt.Errorf("inserting member: %w", err)
		}
	}
	for _, r := range doc.Rules {
		if _, err := tx.Exec(
			`INSERT INTO rules (id, language, title, description, auto_fix) VALUES (?, ?, ?, ?, ?)`,
			r.ID, r.Language, r.Title, r.Description, r.AutoFix,
		); err != nil {
			return fmt.Errorf("inserting rule: %w", err)
		}
	}

	return tx.Commit()
}

func (s *SQLStore) TeamName() (string, error) {
	var team string
	err := s.db.QueryRow(`SELECT team_name FROM team WHERE id = 1`).Scan(&team)
	if errors.Is(err, sql.ErrNoRows) {
		return "unknown", nil
	}
	if err != nil {
		return "", fmt.Errorf("querying team: %w", err)
	}
	return team, nil
}

func (s *SQLStore) Members() ([]string, error) {
	doc, err := s.Load()
	if err != nil {
		return nil, err
	}
	return doc.Members, nil
}

func (s *SQLStore) List() ([]Rule, error) {
	doc, err := s.Load()
	if err != nil {
		return nil, err
	}
	return doc.Rules, nil
}

func (s *SQLStore) Get(id string) (*Rule, error) {
	var r Rule
	err := s.db.QueryRow(
		`SELECT id, language, title, description, auto_fix FROM rules WHERE id = ?`, id,
	).Scan(&r.ID, &r.Language, &r.Title, &r.Description, &r.AutoFix)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRuleNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying rule: %w", err)
	}
	return &r, nil
}

func (s *SQLStore) Add(rule Rule) error {
	_, err := s.db.Exec(
		`INSERT INTO rules (id, language, title, description, auto_fix) VALUES (?, ?, ?, ?, ?)`,
		rule.ID, rule.Language, rule.Title, rule.Description, rule.AutoFix,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("%w: %s", ErrDuplicateRule, rule.ID)
		}
		return fmt.Errorf("inserting rule: %w", err)
	}
	return nil
}

func (s *SQLStore) Update(id string, patch Patch) error {
	rule, err := s.Get(id)
	if err != nil {
		return err
	}
	patch.Apply(rule)

	_, err = s.db.Exec(
		`UPDATE rules SET language = ?, title = ?, description = ?, auto_fix = ? WHERE id = ?`,
		rule.Language, rule.Title, rule.Description, rule.AutoFix, id,
	)
	if err != nil {
		return fmt.Errorf("updating rule: %w", err)
	}
	return nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}
