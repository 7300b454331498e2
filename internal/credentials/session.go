// Package credentials resolves the API key used for an analysis from an
// ordered chain of sources: a manual key held in a browser session, then
// ambient process configuration.
package credentials

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// SessionStore keeps manually entered API keys in memory, keyed by session
// id. Entries expire after an idle TTL and are never written to disk.
type SessionStore struct {
	mu    sync.Mutex
	items map[string]sessionItem
	ttl   time.Duration
	now   func() time.Time
	stop  chan struct{}
	once  sync.Once
}

type sessionItem struct {
	key        string
	expiration time.Time
}

// NewSessionStore creates a store and starts its cleanup goroutine
func NewSessionStore(ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = 8 * time.Hour
	}
	s := &SessionStore{
		items: make(map[string]sessionItem),
		ttl:   ttl,
		now:   time.Now,
		stop:  make(chan struct{}),
	}

	go s.cleanup(cleanupInterval(ttl))

	return s
}

// NewSessionID returns a fresh random session id
func NewSessionID() string {
	return uuid.NewString()
}

// ValidSessionID reports whether id looks like an id from NewSessionID
func ValidSessionID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// Get returns the key stored for a session and extends its idle TTL
func (s *SessionStore) Get(sessionID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, exists := s.items[sessionID]
	if !exists {
		return "", false
	}

	now := s.now()
	if now.After(item.expiration) {
		delete(s.items, sessionID)
		return "", false
	}

	item.expiration = now.Add(s.ttl)
	s.items[sessionID] = item
	return item.key, true
}

// Set stores a key for a session. A blank key deletes the entry.
func (s *SessionStore) Set(sessionID, key string) {
	key = strings.TrimSpace(key)
	if key == "" {
		s.Delete(sessionID)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.items[sessionID] = sessionItem{
		key:        key,
		expiration: s.now().Add(s.ttl),
	}
}

// Delete removes a session's key
func (s *SessionStore) Delete(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.items, sessionID)
}

// Len returns the number of stored sessions, expired or not
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Close stops the cleanup goroutine
func (s *SessionStore) Close() {
	s.once.Do(func() { close(s.stop) })
}

// cleanup periodically removes expired items
func (s *SessionStore) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *SessionStore) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, item := range s.items {
		if now.After(item.expiration) {
			delete(s.items, id)
		}
	}
}

func cleanupInterval(ttl time.Duration) time.Duration {
	if ttl < 10*time.Minute {
		return ttl
	}
	return 5 * time.Minute
}
