// Package inbox appends messages to the host's per-context inbox files.
//
// The host owns the format: one JSON object per line in
// <contexts>/<name>/inbox.jsonl, guarded by an exclusive flock on
// <contexts>/<name>/.inbox.lock. Every writer, the host included, takes
// that lock before touching the file.
package inbox

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/tinyland-inc/chibi-xmpp/pkg/identity"
	"github.com/tinyland-inc/chibi-xmpp/pkg/logger"
)

const (
	inboxFileName = "inbox.jsonl"
	lockFileName  = ".inbox.lock"

	lockPollInterval = 20 * time.Millisecond
)

// ErrBusy is returned when the inbox lock could not be acquired in time.
var ErrBusy = errors.New("inbox is busy")

// Entry is one inbox record.
type Entry struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"timestamp"`
	From      string `json:"from"`
	To        string `json:"to"`
	Content   string `json:"content"`
}

// NewEntry stamps a fresh id and the current time.
func NewEntry(from, to, content string) Entry {
	return Entry{
		ID:        uuid.New().String(),
		Timestamp: time.Now().Unix(),
		From:      from,
		To:        to,
		Content:   content,
	}
}

type Store struct {
	dir         string
	lockTimeout time.Duration
}

// NewStore returns a store rooted at the host's contexts directory.
func NewStore(contextsDir string, lockTimeout time.Duration) *Store {
	return &Store{dir: contextsDir, lockTimeout: lockTimeout}
}

// Path returns the inbox file for a context.
func (s *Store) Path(contextName string) string {
	return filepath.Join(s.dir, contextName, inboxFileName)
}

// Append writes entry to the context's inbox under the inbox lock. The
// lock wait is bounded by the store's timeout and by ctx; running out of
// either yields ErrBusy.
func (s *Store) Append(ctx context.Context, contextName string, entry Entry) error {
	// Names reaching this point come from identity.Sanitize or a validated
	// mapping; anything else is a programming error.
	if !identity.IsSafe(contextName) {
		panic(fmt.Sprintf("inbox: unsafe context name %q", contextName))
	}

	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encoding inbox entry: %w", err)
	}
	line = append(line, '\n')

	ctxDir := filepath.Join(s.dir, contextName)
	if err := os.MkdirAll(ctxDir, 0o755); err != nil {
		return fmt.Errorf("creating context directory: %w", err)
	}

	lockCtx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	defer cancel()

	lock, err := acquire(lockCtx, filepath.Join(ctxDir, lockFileName))
	if err != nil {
		return err
	}
	defer func() {
		if err := lock.release(); err != nil {
			logger.WarnCF("inbox", "Failed to release inbox lock", map[string]any{
				"context": contextName,
				"error":   err.Error(),
			})
		}
	}()

	f, err := os.OpenFile(s.Path(contextName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening inbox: %w", err)
	}

	if _, err := f.Write(line); err != nil {
		f.Close()
		return fmt.Errorf("writing inbox: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("syncing inbox: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing inbox: %w", err)
	}

	logger.DebugCF("inbox", "Appended inbox entry", map[string]any{
		"context": contextName,
		"id":      entry.ID,
	})
	return nil
}

// ReadAll returns every entry in a context's inbox, oldest first.
func (s *Store) ReadAll(contextName string) ([]Entry, error) {
	data, err := os.ReadFile(s.Path(contextName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var entries []Entry
	dec := json.NewDecoder(bytes.NewReader(data))
	for dec.More() {
		var e Entry
		if err := dec.Decode(&e); err != nil {
			return entries, fmt.Errorf("decoding inbox entry %d: %w", len(entries), err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
