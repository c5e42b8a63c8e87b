package server

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/text/language"

	"github.com/loom-ui/loom/pkg/component"
	"github.com/loom-ui/loom/pkg/protocol"
	"github.com/loom-ui/loom/pkg/render"
)

// Registry holds the live sessions and evicts the ones whose clients
// stopped talking. One registry serves one Server.
type Registry struct {
	sessions map[string]*Session
	mu       sync.RWMutex

	config      *SessionConfig
	renderer    *render.Renderer
	maxSessions int

	cleanupInterval time.Duration
	cleanupTicker   *time.Ticker
	cleanupMu       sync.Mutex
	done            chan struct{}
	cleanupDone     chan struct{}

	totalCreated atomic.Uint64
	totalClosed  atomic.Uint64
	peak         int

	logger  *slog.Logger
	metrics *metrics
}

// RegistryStats is a snapshot of session counts.
type RegistryStats struct {
	Active       int
	TotalCreated uint64
	TotalClosed  uint64
	Peak         int
}

// NewRegistry creates a registry and starts its eviction loop.
func NewRegistry(config *SessionConfig, renderer *render.Renderer, maxSessions int, cleanupInterval time.Duration, logger *slog.Logger) *Registry {
	if config == nil {
		config = DefaultSessionConfig()
	}
	if cleanupInterval <= 0 {
		cleanupInterval = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry{
		sessions:        make(map[string]*Session),
		config:          config,
		renderer:        renderer,
		maxSessions:     maxSessions,
		cleanupInterval: cleanupInterval,
		done:            make(chan struct{}),
		cleanupDone:     make(chan struct{}),
		logger:          logger.With("component", "registry"),
	}
	go r.cleanupLoop()
	return r
}

// Create builds a session around root and registers it. It fails when
// the session limit is reached.
func (r *Registry) Create(root component.Component, locale language.Tag) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.maxSessions > 0 && len(r.sessions) >= r.maxSessions {
		return nil, ErrMaxSessionsReached
	}

	sess := newSession(root, locale, r.renderer, r.config, r.logger, r.metrics)
	r.sessions[sess.ID] = sess
	r.totalCreated.Add(1)
	if len(r.sessions) > r.peak {
		r.peak = len(r.sessions)
	}
	r.metrics.SessionOpened()

	r.logger.Info("session created",
		"session_id", sess.ID,
		"page", sess.PageID(),
		"active", len(r.sessions))
	return sess, nil
}

// Get returns the session with the given id, or ErrSessionNotFound.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sess, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// Close removes the session from the registry and detaches it.
func (r *Registry) Close(id string) error {
	r.mu.Lock()
	sess, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	r.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}

	sess.Close()
	r.teardown(sess)
	r.totalClosed.Add(1)
	r.metrics.SessionClosed()
	return nil
}

// Count returns the number of registered sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// ForEach calls fn for every registered session. fn must not call
// back into the registry.
func (r *Registry) ForEach(fn func(*Session)) {
	r.mu.RLock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.mu.RUnlock()
	for _, s := range sessions {
		fn(s)
	}
}

// Stats returns a snapshot of session counts.
func (r *Registry) Stats() RegistryStats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return RegistryStats{
		Active:       len(r.sessions),
		TotalCreated: r.totalCreated.Load(),
		TotalClosed:  r.totalClosed.Load(),
		Peak:         r.peak,
	}
}

func (r *Registry) cleanupLoop() {
	defer close(r.cleanupDone)
	r.cleanupTicker = time.NewTicker(r.cleanupInterval)
	defer r.cleanupTicker.Stop()

	for {
		select {
		case <-r.cleanupTicker.C:
			r.cleanupExpired()
		case <-r.done:
			return
		}
	}
}

// cleanupExpired evicts sessions idle past the configured timeout.
// Detached sessions stay resumable until they cross it.
func (r *Registry) cleanupExpired() {
	r.cleanupMu.Lock()
	defer r.cleanupMu.Unlock()

	now := time.Now()
	var expired []*Session

	r.mu.Lock()
	for id, sess := range r.sessions {
		if now.Sub(sess.LastActive()) > r.config.IdleTimeout {
			delete(r.sessions, id)
			expired = append(expired, sess)
		}
	}
	r.mu.Unlock()

	for _, sess := range expired {
		sess.SendClose(protocol.CloseSessionExpired, "session expired")
		r.teardown(sess)
		r.totalClosed.Add(1)
		r.metrics.SessionClosed()
		r.logger.Info("session expired",
			"session_id", sess.ID,
			"idle", now.Sub(sess.LastActive()).Round(time.Second).String())
	}
}

// teardown removes the session's page tree from service so components
// release what they hold.
func (r *Registry) teardown(sess *Session) {
	if err := component.Teardown(sess.Root()); err != nil {
		r.logger.Warn("page teardown failed", "session_id", sess.ID, "error", err)
	}
}

// Shutdown stops the eviction loop and closes every session, telling
// connected clients the server is going away.
func (r *Registry) Shutdown(ctx context.Context) error {
	select {
	case <-r.done:
		return nil
	default:
		close(r.done)
	}

	select {
	case <-r.cleanupDone:
	case <-ctx.Done():
		return ctx.Err()
	}

	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, sess := range sessions {
		sess.SendClose(protocol.CloseServerShutdown, "server shutting down")
		r.teardown(sess)
		r.totalClosed.Add(1)
		r.metrics.SessionClosed()
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}

	r.logger.Info("registry shut down", "closed", len(sessions))
	return nil
}
