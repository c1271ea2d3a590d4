package session

import (
	"time"

	"github.com/google/uuid"

	"kalkyle/internal/cache"
	"kalkyle/internal/calc"
	applog "kalkyle/internal/log"
)

// Store keeps live sessions in memory. Idle sessions expire after the TTL
// and the least recently used go first when the store is full. Nothing is
// persisted.
type Store struct {
	sessions *cache.LRUCache[*Session]
	engine   *calc.Engine
	listener Listener
	logger   *applog.Logger
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithListener reports every recomputation of every session.
func WithListener(l Listener) StoreOption {
	return func(s *Store) { s.listener = l }
}

// WithLogger sets the logger sessions log through.
func WithLogger(l *applog.Logger) StoreOption {
	return func(s *Store) { s.logger = l }
}

// NewStore creates a store of at most maxSessions sessions.
func NewStore(engine *calc.Engine, maxSessions int, ttl time.Duration, opts ...StoreOption) *Store {
	st := &Store{engine: engine}
	for _, opt := range opts {
		opt(st)
	}
	if st.logger == nil {
		st.logger = applog.Default(applog.ComponentSession)
	}
	st.sessions = cache.NewLRUCache[*Session](maxSessions, ttl,
		cache.WithSlidingExpiry[*Session](),
		cache.WithEvictHook(func(id string, _ *Session) {
			st.logger.Debug("Session evicted", applog.FieldSessionID, id)
		}),
	)
	return st
}

// Get returns a live session.
func (st *Store) Get(id string) (*Session, bool) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, false
	}
	return st.sessions.Get(id)
}

// Create starts a new session with a fresh id.
func (st *Store) Create() *Session {
	s := New(uuid.NewString(), st.engine, st.listener, st.logger)
	st.sessions.Set(s.ID(), s)
	return s
}

// GetOrCreate returns the session for id, or a new one with a fresh id when
// id is unknown, expired or malformed. Client-chosen ids are never adopted.
func (st *Store) GetOrCreate(id string) (s *Session, created bool) {
	if s, ok := st.Get(id); ok {
		return s, false
	}
	return st.Create(), true
}

// Delete ends a session.
func (st *Store) Delete(id string) {
	st.sessions.Delete(id)
}

// Len returns the number of stored sessions.
func (st *Store) Len() int {
	return st.sessions.Size()
}

// Cleaner exposes the backing cache for periodic expiry.
func (st *Store) Cleaner() cache.Cleaner {
	return st.sessions
}
