package server

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/text/language"

	"github.com/loom-ui/loom/pkg/basic"
	"github.com/loom-ui/loom/pkg/component"
)

func newTestRegistry(t *testing.T, maxSessions int) *Registry {
	t.Helper()
	r := NewRegistry(DefaultSessionConfig(), nil, maxSessions, time.Minute, testLogger())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		r.Shutdown(ctx)
	})
	return r
}

func TestRegistryCreateAndGet(t *testing.T) {
	r := newTestRegistry(t, 0)

	sess, err := r.Create(basic.NewContainer("home"), language.Und)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if sess.ID == "" {
		t.Error("Create() returned a session without an id")
	}
	if sess.PageID() != "home" {
		t.Errorf("PageID() = %q, want %q", sess.PageID(), "home")
	}

	got, err := r.Get(sess.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != sess {
		t.Error("Get() returned a different session")
	}

	if _, err := r.Get("nope"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Get(unknown) error = %v, want ErrSessionNotFound", err)
	}
	if got := r.Count(); got != 1 {
		t.Errorf("Count() = %d, want 1", got)
	}
}

func TestRegistryMaxSessions(t *testing.T) {
	r := newTestRegistry(t, 1)

	if _, err := r.Create(basic.NewContainer("a"), language.Und); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := r.Create(basic.NewContainer("b"), language.Und); !errors.Is(err, ErrMaxSessionsReached) {
		t.Fatalf("Create() error = %v, want ErrMaxSessionsReached", err)
	}
}

func TestRegistryClose(t *testing.T) {
	r := newTestRegistry(t, 0)

	root := basic.NewContainer("home")
	sess, err := r.Create(root, language.Und)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := r.Close(sess.ID); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if got := r.Count(); got != 0 {
		t.Errorf("Count() after Close = %d, want 0", got)
	}
	if !sess.IsClosed() {
		t.Error("session still open after Close")
	}
	if got := root.State(); got != component.StateRemoved {
		t.Errorf("root state after Close = %v, want Removed", got)
	}

	if err := r.Close(sess.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("second Close() error = %v, want ErrSessionNotFound", err)
	}
}

func TestRegistryCleanupExpired(t *testing.T) {
	r := newTestRegistry(t, 0)

	stale, err := r.Create(basic.NewContainer("stale"), language.Und)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	fresh, err := r.Create(basic.NewContainer("fresh"), language.Und)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	stale.lastActive.Store(time.Now().Add(-time.Hour).UnixNano())
	r.cleanupExpired()

	if _, err := r.Get(stale.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("stale session still registered, Get error = %v", err)
	}
	if _, err := r.Get(fresh.ID); err != nil {
		t.Errorf("fresh session evicted, Get error = %v", err)
	}
	if !stale.IsClosed() {
		t.Error("stale session not closed by cleanup")
	}
}

func TestRegistryStats(t *testing.T) {
	r := newTestRegistry(t, 0)

	a, _ := r.Create(basic.NewContainer("a"), language.Und)
	if _, err := r.Create(basic.NewContainer("b"), language.Und); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := r.Close(a.ID); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	stats := r.Stats()
	want := RegistryStats{Active: 1, TotalCreated: 2, TotalClosed: 1, Peak: 2}
	if stats != want {
		t.Errorf("Stats() = %+v, want %+v", stats, want)
	}
}

func TestRegistryForEach(t *testing.T) {
	r := newTestRegistry(t, 0)
	r.Create(basic.NewContainer("a"), language.Und)
	r.Create(basic.NewContainer("b"), language.Und)

	seen := map[string]bool{}
	r.ForEach(func(s *Session) { seen[s.PageID()] = true })
	if !seen["a"] || !seen["b"] {
		t.Errorf("ForEach visited %v, want both sessions", seen)
	}
}

func TestRegistryShutdown(t *testing.T) {
	r := NewRegistry(DefaultSessionConfig(), nil, 0, time.Minute, testLogger())

	sess, err := r.Create(basic.NewContainer("home"), language.Und)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := r.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if got := r.Count(); got != 0 {
		t.Errorf("Count() after Shutdown = %d, want 0", got)
	}
	if !sess.IsClosed() {
		t.Error("session still open after Shutdown")
	}
	if err := r.Shutdown(ctx); err != nil {
		t.Errorf("second Shutdown() error = %v", err)
	}
}
