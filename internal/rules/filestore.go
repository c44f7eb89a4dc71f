package rules

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStore keeps the catalog in a single pretty-printed JSON file. A missing
// file reads as the empty document, so first use needs no setup step.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a file-backed store at path. The file is created on
// first Save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Compile-time interface check.
var _ Store = (*FileStore)(nil)

func (s *FileStore) Load() (*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

func (s *FileStore) loadLocked() (*Document, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return EmptyDocument(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading rules file: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing rules file: %w", err)
	}
	return &doc, nil
}

func (s *FileStore) Save(doc *Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(doc)
}

func (s *FileStore) saveLocked(doc *Document) error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating rules directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling rules: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("writing rules file: %w", err)
	}
	return nil
}

func (s *FileStore) TeamName() (string, error) {
	doc, err := s.Load()
	if err != nil {
		return "", err
	}
	return doc.TeamName, nil
}

func (s *FileStore) Members() ([]string, error) {
	doc, err := s.Load()
	if err != nil {
		return nil, err
	}
	return doc.Members, nil
}

func (s *FileStore) List() ([]Rule, error) {
	doc, err := s.Load()
	if err != nil {
		return nil, err
	}
	return doc.Rules, nil
}

func (s *FileStore) Get(id string) (*Rule, error) {
	doc, err := s.Load()
	if err != nil {
		return nil, err
	}
	for i := range doc.Rules {
		if doc.Rules[i].ID == id {
			r := doc.Rules[i]
			return &r, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrRuleNotFound, id)
}

func (s *FileStore) Add(rule Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.loadLocked()
	if err != nil {
		return err
	}
	for _, r := range doc.Rules {
		if r.ID == rule.ID {
			return fmt.Errorf("%w: %s", ErrDuplicateRule, rule.ID)
		}
	}
	doc.Rules = append(doc.Rules, rule)
	return s.saveLocked(doc)
}

func (s *FileStore) Update(id string, patch Patch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.loadLocked()
	if err != nil {
		return err
	}
	for i := range doc.Rules {
		if doc.Rules[i].ID == id {
			patch.Apply(&doc.Rules[i])
			return s.saveLocked(doc)
		}
	}
	return fmt.Errorf("%w: %s", ErrRuleNotFound, id)
}

func (s *FileStore) Close() error { return nil }
