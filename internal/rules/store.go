package rules

import (
	"errors"
	"fmt"
)

// Store errors callers branch on.
var (
	// ErrDuplicateRule is returned by Add when the rule id already exists.
	ErrDuplicateRule = errors.New("rule id already exists")

	// ErrRuleNotFound is returned by Get and Update for unknown ids.
	ErrRuleNotFound = errors.New("rule not found")
)

// Store is the typed repository for the team rule catalog. Implementations
// own their persistence format; callers never see backend details beyond the
// errors above.
type Store interface {
	// Load returns the whole catalog document. A store with no persisted
	// data loads the empty document, not an error.
	Load() (*Document, error)

	// Save replaces the whole catalog document.
	Save(doc *Document) error

	TeamName() (string, error)
	Members() ([]string, error)

	// List returns the rules in catalog order.
	List() ([]Rule, error)

	// Get returns the rule with the given id, or ErrRuleNotFound.
	Get(id string) (*Rule, error)

	// Add appends a rule. Returns ErrDuplicateRule when the id is taken.
	Add(rule Rule) error

	// Update patches the rule with the given id, or ErrRuleNotFound.
	Update(id string, patch Patch) error

	Close() error
}

// Backends supported by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Open creates a store for the configured backend.
func Open(backend, path string) (Store, error) {
	switch backend {
	case BackendFile, "":
		return NewFileStore(path), nil
	case BackendSQLite:
		return NewSQLStore(path)
	default:
		return nil, fmt.Errorf("unknown rules backend: %s", backend)
	}
}
