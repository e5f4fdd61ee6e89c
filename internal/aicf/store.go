package aicf

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// FileExt is the extension for persisted record files.
const FileExt = ".aicf"

// Store persists records as flat files under a session directory, one
// file per (UTC date, session id) pair. A file accumulates every record
// written for that session on that date, separated by blank lines.
//
// The store itself does no locking: the loop that owns a session is the
// only writer of that session's file, and files for distinct sessions
// never collide.
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir. The directory is created on
// first write.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the session directory the store writes under.
func (s *Store) Dir() string {
	return s.dir
}

// SessionPath returns the file path for the given date and session id.
func (s *Store) SessionPath(date time.Time, sessionID string) string {
	name := date.UTC().Format("2006-01-02") + "_" + sessionID + FileExt
	return filepath.Join(s.dir, name)
}

// Append writes the record to its session file, creating the file when
// it does not exist yet and appending a blank-line-separated record when
// it does. The date in the filename comes from the record's own
// timestamp. Returns the path written.
func (s *Store) Append(rec *Record) (string, error) {
	if rec.ConversationID == "" {
		return "", fmt.Errorf("record has no conversation id")
	}
	ts, err := time.Parse(time.RFC3339, rec.Timestamp)
	if err != nil {
		return "", fmt.Errorf("parse record timestamp: %w", err)
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", fmt.Errorf("create session directory: %w", err)
	}

	path := s.SessionPath(ts, rec.ConversationID)

	// One existence check per write decides append versus create.
	_, statErr := os.Stat(path)
	exists := statErr == nil

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return "", fmt.Errorf("open session file: %w", err)
	}
	defer f.Close()

	text := Encode(rec)
	if exists {
		text = "\n\n" + text
	}
	if _, err := f.WriteString(text); err != nil {
		return "", fmt.Errorf("write session file: %w", err)
	}

	return path, nil
}

// Read loads every record for the given date and session id.
func (s *Store) Read(date time.Time, sessionID string) ([]*Record, error) {
	return s.ReadFile(s.SessionPath(date, sessionID))
}

// ReadFile loads every record from a session file. The file is a
// sequence of records separated by a blank line; each record decodes
// independently.
func (s *Store) ReadFile(path string) ([]*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read session file: %w", err)
	}

	var records []*Record
	for i, chunk := range strings.Split(string(data), "\n\n") {
		if strings.TrimSpace(chunk) == "" {
			continue
		}
		rec, err := Decode(chunk)
		if err != nil {
			return nil, fmt.Errorf("record %d in %s: %w", i, filepath.Base(path), err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// ListFiles returns the session file names in the store, newest first.
// The date prefix in the names makes lexicographic order chronological.
func (s *Store) ListFiles() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read session directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), FileExt) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	return names, nil
}
