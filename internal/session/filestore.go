package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// FileStore keeps one JSON file per session. Filenames are hashes of the
// session id because ids are caller supplied and must not reach the
// filesystem as paths.
type FileStore struct {
	dir         string
	maxSessions int
	ttl         time.Duration

	mu sync.Mutex
}

type sessionFile struct {
	ID        string    `json:"id"`
	UpdatedAt time.Time `json:"updated_at"`
	Messages  []Message `json:"messages"`
}

// NewFileStore creates a file-backed store. Expired and surplus sessions are
// cleaned up on open.
func NewFileStore(opts Options) (*FileStore, error) {
	if err := os.MkdirAll(opts.Dir, 0700); err != nil {
		return nil, fmt.Errorf("creating sessions directory: %w", err)
	}

	s := &FileStore{
		dir:         opts.Dir,
		maxSessions: opts.MaxSessions,
		ttl:         opts.TTL,
	}

	// Best effort; a failed cleanup never blocks opening the store.
	_ = s.cleanOldSessions()

	return s, nil
}

// Compile-time interface check.
var _ Store = (*FileStore)(nil)

func (s *FileStore) Append(ctx context.Context, sessionID string, msgs ...Message) error {
	if len(msgs) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sf, err := s.readLocked(sessionID)
	if err != nil {
		return err
	}

	now := time.Now()
	for _, m := range msgs {
		if m.CreatedAt.IsZero() {
			m.CreatedAt = now
		}
		sf.Messages = append(sf.Messages, m)
	}
	sf.UpdatedAt = now

	return s.writeLocked(sessionID, sf)
}

func (s *FileStore) History(ctx context.Context, sessionID string) ([]Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sf, err := s.readLocked(sessionID)
	if err != nil {
		return nil, err
	}
	return sf.Messages, nil
}

func (s *FileStore) Clear(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.sessionPath(sessionID))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (s *FileStore) List(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading sessions directory: %w", err)
	}

	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			continue
		}
		var sf sessionFile
		if err := json.Unmarshal(data, &sf); err != nil || sf.ID == "" {
			continue
		}
		ids = append(ids, sf.ID)
	}

	sort.Strings(ids)
	return ids, nil
}

func (s *FileStore) Close() error { return nil }

func (s *FileStore) sessionPath(sessionID string) string {
	sum := sha256.Sum256([]byte(sessionID))
	return filepath.Join(s.dir, hex.EncodeToString(sum[:])+".json")
}

func (s *FileStore) readLocked(sessionID string) (*sessionFile, error) {
	data, err := os.ReadFile(s.sessionPath(sessionID))
	if os.IsNotExist(err) {
		return &sessionFile{ID: sessionID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading session: %w", err)
	}

	var sf sessionFile
	if err := json.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("parsing session: %w", err)
	}
	return &sf, nil
}

func (s *FileStore) writeLocked(sessionID string, sf *sessionFile) error {
	data, err := json.MarshalIndent(sf, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling session: %w", err)
	}

	if err := os.WriteFile(s.sessionPath(sessionID), data, 0600); err != nil {
		return fmt.Errorf("writing session: %w", err)
	}
	return nil
}

func (s *FileStore) cleanOldSessions() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return err
	}

	type fileInfo struct {
		path    string
		modTime time.Time
	}

	infos := make([]fileInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		stat, err := entry.Info()
		if err != nil {
			continue
		}

		path := filepath.Join(s.dir, entry.Name())
		if s.ttl > 0 && time.Since(stat.ModTime()) > s.ttl {
			_ = os.Remove(path)
			continue
		}
		infos = append(infos, fileInfo{path: path, modTime: stat.ModTime()})
	}

	if s.maxSessions <= 0 || len(infos) <= s.maxSessions {
		return nil
	}

	// Oldest first
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].modTime.Before(infos[j].modTime)
	})

	for i := 0; i < len(infos)-s.maxSessions; i++ {
		_ = os.Remove(infos[i].path)
	}
	return nil
}
