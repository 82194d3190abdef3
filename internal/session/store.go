// Package session keeps the in-memory order sessions, one per user.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/m3rciful/printbot/core/logger"
	"github.com/m3rciful/printbot/internal/order"
)

// ErrStoreClosed is returned by every operation after Close.
var ErrStoreClosed = errors.New("session: store closed")

type entry struct {
	mu   sync.Mutex
	sess order.Session
}

// Store is a concurrency-safe order.Store. The map is guarded by an RWMutex and
// each session by its own mutex, so slow work for one user (downloads, uploads)
// never blocks another.
type Store struct {
	mu       sync.RWMutex
	sessions map[int64]*entry
	closed   bool
}

var _ order.Store = (*Store)(nil)

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{sessions: make(map[int64]*entry)}
}

// Create starts a fresh session for userID, replacing any previous one.
func (s *Store) Create(userID, chatID int64, username string) order.Session {
	sess := order.NewSession(userID, chatID, username)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return sess
	}
	if _, ok := s.sessions[userID]; ok {
		logger.Debug(context.Background(), "session", "session.replace", slog.Int64("user_id", userID))
	}
	s.sessions[userID] = &entry{sess: sess}
	return sess.Clone()
}

// Get returns a copy of the user's session.
func (s *Store) Get(userID int64) (order.Session, error) {
	e, err := s.lookup(userID)
	if err != nil {
		return order.Session{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sess.Clone(), nil
}

// Mutate runs fn on the user's session while holding that session's lock.
// Changes made by fn are kept even when fn returns an error. A session that fn
// leaves in order.StateTerminal is removed, unless a newer session has replaced it
// in the meantime.
func (s *Store) Mutate(ctx context.Context, userID int64, fn func(*order.Session) error) error {
	e, err := s.lookup(userID)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	// The entry may have been finished by a concurrent call while we waited.
	if e.sess.State == order.StateTerminal {
		return order.ErrSessionNotFound
	}

	fnErr := fn(&e.sess)
	if e.sess.State == order.StateTerminal {
		s.remove(userID, e)
	}
	return fnErr
}

// Delete drops the user's session.
func (s *Store) Delete(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
}

// Len returns the number of sessions in progress.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Close drops all sessions and rejects further use.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	logger.Info(context.Background(), "session", "session.close", slog.Int("dropped", len(s.sessions)))
	s.closed = true
	s.sessions = nil
}

func (s *Store) lookup(userID int64) (*entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrStoreClosed
	}
	e, ok := s.sessions[userID]
	if !ok {
		return nil, order.ErrSessionNotFound
	}
	return e, nil
}

// remove deletes userID only while it still maps to e.
func (s *Store) remove(userID int64, e *entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.sessions[userID]; ok && cur == e {
		delete(s.sessions, userID)
	}
}
