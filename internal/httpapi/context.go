package httpapi

import (
	"context"
	"fmt"
	"sync"

	"calview/internal/calendar"
	"calview/internal/session"
)

// ClientFactory builds a calendar client for an access token. The server
// uses calendar.NewClient in production; tests substitute a factory that
// returns an in-memory implementation.
type ClientFactory func(ctx context.Context, accessToken string) (calendar.Service, error)

// ServerContext holds the shared state of the API server: the session
// store and a cache of calendar clients keyed by session ID.
type ServerContext struct {
	ctx      context.Context
	cancel   context.CancelFunc
	sessions *session.Store
	factory  ClientFactory
	clients  map[string]calendar.Service
	mu       sync.RWMutex
	shutdown bool
}

// NewServerContext creates a new server context.
func NewServerContext(ctx context.Context, sessions *session.Store, factory ClientFactory) (*ServerContext, error) {
	if sessions == nil {
		return nil, fmt.Errorf("session store is required")
	}
	if factory == nil {
		return nil, fmt.Errorf("client factory is required")
	}

	shutdownCtx, cancel := context.WithCancel(ctx)

	return &ServerContext{
		ctx:      shutdownCtx,
		cancel:   cancel,
		sessions: sessions,
		factory:  factory,
		clients:  make(map[string]calendar.Service),
	}, nil
}

// Context returns the server context.
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Sessions returns the session store.
func (sc *ServerContext) Sessions() *session.Store {
	return sc.sessions
}

// ClientForSession returns the calendar client for a session, creating
// and caching it on first use. The cache is keyed by session ID, so a
// re-authenticated browser with a new session gets a fresh client.
func (sc *ServerContext) ClientForSession(sess *session.Session) (calendar.Service, error) {
	if !sess.Authenticated() {
		return nil, calendar.ErrMissingCredential
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()

	if client, ok := sc.clients[sess.ID]; ok {
		return client, nil
	}

	client, err := sc.factory(sc.ctx, sess.AccessToken)
	if err != nil {
		return nil, err
	}

	sc.clients[sess.ID] = client
	return client, nil
}

// DropClient evicts the cached client for a session ID. Called when a
// session is closed or expired.
func (sc *ServerContext) DropClient(sessionID string) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	delete(sc.clients, sessionID)
}

// Shutdown marks the context as shutting down and cancels it.
func (sc *ServerContext) Shutdown() {
	sc.mu.Lock()
	sc.shutdown = true
	sc.mu.Unlock()
	sc.cancel()
}

// IsShutdown reports whether Shutdown has been called.
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}
