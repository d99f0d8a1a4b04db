package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultTimeout is how long an idle session survives before the sweeper
// removes it.
const DefaultTimeout = 24 * time.Hour

const sweepInterval = 10 * time.Minute

// Store is an in-memory session store. Sessions are keyed by a random
// opaque ID and expire after a period without access.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	timeout  time.Duration
	ticker   *time.Ticker
	done     chan struct{}
	logger   *slog.Logger
	onExpire func(sessionID string)
}

// NewStore creates a session store with the default timeout.
func NewStore(logger *slog.Logger) *Store {
	return NewStoreWithTimeout(DefaultTimeout, logger)
}

// NewStoreWithTimeout creates a session store with a custom idle timeout
// and starts the expiry sweeper.
func NewStoreWithTimeout(timeout time.Duration, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Store{
		sessions: make(map[string]*Session),
		timeout:  timeout,
		ticker:   time.NewTicker(sweepInterval),
		done:     make(chan struct{}),
		logger:   logger,
	}

	go s.sweepLoop()

	return s
}

// Create registers a new session around the deposited credentials and
// returns it with a freshly assigned ID.
func (s *Store) Create(userID, accessToken, refreshToken string, expiry time.Time) *Session {
	now := time.Now()
	sess := &Session{
		ID:           uuid.NewString(),
		UserID:       userID,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Expiry:       expiry,
		CreatedAt:    now,
		lastAccess:   now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
	return sess
}

// Get returns the session for an ID and refreshes its last-access time.
func (s *Store) Get(id string) (*Session, bool) {
	if id == "" {
		return nil, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	sess.lastAccess = time.Now()
	return sess, true
}

// Delete removes a session. Deleting an unknown ID is a no-op.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// OnExpire registers fn to be called with the ID of every session the
// sweeper removes. The server hooks per-session caches here so an
// expired session does not leave cached state behind. Explicit Delete
// does not fire the hook; that path cleans up in the handler.
func (s *Store) OnExpire(fn func(sessionID string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onExpire = fn
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Stop stops the expiry sweeper.
func (s *Store) Stop() {
	s.ticker.Stop()
	close(s.done)
}

func (s *Store) sweepLoop() {
	for {
		select {
		case <-s.ticker.C:
			if n := s.Expire(time.Now()); n > 0 {
				s.logger.Info("cleaned up expired sessions", "count", n)
			}
		case <-s.done:
			return
		}
	}
}

// Expire removes sessions idle longer than the timeout as of now,
// notifies the OnExpire hook for each, and returns how many were
// dropped. The sweeper calls this periodically.
func (s *Store) Expire(now time.Time) int {
	s.mu.Lock()
	var expired []string
	for id, sess := range s.sessions {
		if now.Sub(sess.lastAccess) > s.timeout {
			delete(s.sessions, id)
			expired = append(expired, id)
		}
	}
	fn := s.onExpire
	s.mu.Unlock()

	// The hook runs outside the lock so it may call back into the store.
	if fn != nil {
		for _, id := range expired {
			fn(id)
		}
	}
	return len(expired)
}
