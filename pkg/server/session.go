package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/valyala/bytebufferpool"
	"golang.org/x/text/language"

	"github.com/loom-ui/loom/pkg/component"
	"github.com/loom-ui/loom/pkg/protocol"
	"github.com/loom-ui/loom/pkg/render"
)

// fragmentBudget is the largest rendered fragment shipped in one update
// frame: the frame payload cap minus headroom for the sequence numbers
// and the component path. Larger fragments turn into a reload
// directive instead.
const fragmentBudget = protocol.MaxPayloadSize - 256

// Session owns one page tree between its full render and expiry. The
// tree is built and rendered on the HTTP goroutine first; once a live
// connection attaches, the event loop goroutine is the only code that
// touches it. Detach and resume swap the connection without touching
// the tree.
type Session struct {
	// Identity
	ID        string
	CreatedAt time.Time

	// Connection. mu protects conn writes and swaps.
	conn   *websocket.Conn
	mu     sync.Mutex
	closed atomic.Bool

	lastActive atomic.Int64 // unix nanoseconds, read by the cleanup loop

	// Sequence numbers for reliable delivery
	sendSeq atomic.Uint64 // last update sequence sent
	recvSeq atomic.Uint64 // last event sequence received
	ackSeq  atomic.Uint64 // last update acknowledged by the client

	// Page tree
	root   component.Component
	locale language.Tag

	renderer *render.Renderer
	history  *UpdateHistory

	// Channels. Attach stops the running loops, waits for them via
	// loopWG and remakes the whole set; mu guards the swap.
	events     chan *protocol.EventMessage
	dispatchCh chan func()
	renderCh   chan struct{}
	done       chan struct{}
	loopWG     sync.WaitGroup

	// attachMu serializes Attach..Start handshake sequences so two
	// reconnects cannot interleave their loop teardown and startup.
	attachMu sync.Mutex

	config  *SessionConfig
	logger  *slog.Logger
	metrics *metrics
}

// generateSessionID generates a cryptographically random session id.
func generateSessionID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		// Weak ids are worse than no server.
		panic(fmt.Sprintf("crypto/rand failed: %v", err))
	}
	return hex.EncodeToString(b)
}

// newSession creates a session owning root. The connection attaches
// later, after the page response reaches the client.
func newSession(root component.Component, locale language.Tag, renderer *render.Renderer, config *SessionConfig, logger *slog.Logger, m *metrics) *Session {
	now := time.Now()
	id := generateSessionID()

	s := &Session{
		ID:         id,
		CreatedAt:  now,
		root:       root,
		locale:     locale,
		renderer:   renderer,
		history:    NewUpdateHistory(config.MaxUpdateHistory),
		events:     make(chan *protocol.EventMessage, config.MaxEventQueue),
		dispatchCh: make(chan func(), config.MaxEventQueue),
		renderCh:   make(chan struct{}, 1),
		done:       make(chan struct{}),
		config:     config,
		logger:     logger.With("session_id", id),
		metrics:    m,
	}
	s.lastActive.Store(now.UnixNano())
	return s
}

// Root returns the session's page tree root.
func (s *Session) Root() component.Component { return s.root }

// PageID returns the id of the page the session serves.
func (s *Session) PageID() string { return s.root.ID() }

// Locale returns the locale the session renders with.
func (s *Session) Locale() language.Tag { return s.locale }

// LastActive returns the time of the last client activity.
func (s *Session) LastActive() time.Time {
	return time.Unix(0, s.lastActive.Load())
}

// touch records client activity for idle eviction.
func (s *Session) touch() {
	s.lastActive.Store(time.Now().UnixNano())
}

// IsClosed reports whether the session is detached from its
// connection. A closed session stays resumable until the registry
// evicts it.
func (s *Session) IsClosed() bool {
	return s.closed.Load()
}

// RenderPage runs the full render pass over the session's page tree
// and writes the document. It is called by the HTTP handler that
// created the session, before the live connection attaches.
func (s *Session) RenderPage(ctx context.Context, w io.Writer) error {
	return s.renderer.Page(ctx, w, s.root, s.locale)
}

// Close detaches the session from its connection and stops the loops.
// The session stays in the registry, resumable, until it idles out.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeLocked()
}

// closeConn is the Close variant used by loops bound to a particular
// connection: a loop left over from a replaced connection must not
// tear down the session that took over.
func (s *Session) closeConn(conn *websocket.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != conn {
		return
	}
	s.closeLocked()
}

func (s *Session) closeLocked() {
	if s.closed.Swap(true) {
		return
	}
	select {
	case <-s.done:
	default:
		close(s.done)
	}
	if s.conn != nil {
		s.conn.Close()
	}
	s.logger.Info("session detached",
		"events", s.recvSeq.Load(),
		"updates", s.sendSeq.Load())
}

// handleEvent dispatches one client event into the page tree and
// flushes the refresh marks it left behind. Dirty state is flushed
// even when the dispatch failed: a listener may have mutated the tree
// before erroring out.
func (s *Session) handleEvent(ev *protocol.EventMessage) {
	s.recvSeq.Store(ev.Seq)
	start := time.Now()

	err := s.dispatch(ev)
	switch {
	case err == nil:
		s.metrics.Event(outcomeOK, time.Since(start))
	case errors.As(err, new(*ListenerPanicError)):
		s.metrics.Event(outcomePanic, time.Since(start))
		s.sendEventError(ev.Seq, protocol.CodeInternal, "internal error")
	default:
		s.metrics.Event(outcomeRejected, time.Since(start))
		s.sendEventError(ev.Seq, eventErrorCode(err), err.Error())
	}

	s.flushDirty(ev.Seq)
}

// dispatch routes the event through the component tree, converting a
// listener panic into an error so one bad handler cannot take the
// session down.
func (s *Session) dispatch(ev *protocol.EventMessage) (err error) {
	defer func() {
		if r := recover(); r != nil {
			stack := debug.Stack()
			s.logger.Error("listener panic",
				"path", ev.Path,
				"event", ev.Name,
				"panic", r,
				"stack", string(stack))
			err = &ListenerPanicError{
				SessionID: s.ID,
				Path:      ev.Path,
				Event:     ev.Name,
				Panic:     r,
				Stack:     stack,
			}
		}
	}()
	return component.Dispatch(s.root, ev.Path, ev.Name, ev.Args)
}

// eventErrorCode maps a dispatch rejection to its wire code.
func eventErrorCode(err error) protocol.ErrorCode {
	switch {
	case errors.Is(err, component.ErrNoEventTarget):
		return protocol.CodeNoTarget
	case errors.Is(err, component.ErrTargetHidden),
		errors.Is(err, component.ErrTargetDisabled),
		errors.Is(err, component.ErrNotListener):
		return protocol.CodeTargetRejected
	default:
		return protocol.CodeHandlerFailed
	}
}

// dirtyTracker is satisfied by every component embedding a Base.
type dirtyTracker interface {
	TakeDirty() []component.Component
}

// flushDirty re-renders the components marked with Refresh since the
// last flush and ships them as update frames, one directive per frame,
// the last one flagged final. A dirty root, a render failure or an
// oversized fragment all degrade to a single reload directive.
func (s *Session) flushDirty(eventSeq uint64) {
	tracker, ok := s.root.(dirtyTracker)
	if !ok {
		return
	}
	dirty := pruneDirty(s.root, tracker.TakeDirty())
	if len(dirty) == 0 {
		return
	}

	ctx := context.Background()
	directives := make([]protocol.Directive, 0, len(dirty))
	for _, c := range dirty {
		if c == s.root {
			s.sendReload(eventSeq)
			return
		}
		if !c.Visible() && !c.OutputPlaceholder() {
			directives = append(directives, protocol.RemoveDirective(c.Path()))
			continue
		}
		buf := bytebufferpool.Get()
		err := s.renderer.Component(ctx, buf, c, s.locale)
		html, path := buf.String(), c.Path()
		bytebufferpool.Put(buf)
		if err != nil {
			s.logger.Error("partial render failed", "path", path, "error", err)
			s.sendEventError(eventSeq, protocol.CodeRenderFailed, "render failed")
			s.sendReload(eventSeq)
			return
		}
		if len(html)+len(path) > fragmentBudget {
			s.logger.Warn("fragment exceeds frame budget, reloading",
				"path", path,
				"bytes", len(html))
			s.sendReload(eventSeq)
			return
		}
		directives = append(directives, protocol.ReplaceDirective(path, html))
	}
	s.sendUpdates(eventSeq, directives)
}

// pruneDirty drops refresh marks that no longer need their own frame:
// components detached from this tree since they were marked, and
// components whose subtree is already covered by a dirty ancestor. A
// dirty root makes everything else redundant.
func pruneDirty(root component.Component, dirty []component.Component) []component.Component {
	if len(dirty) == 0 {
		return nil
	}
	marked := make(map[component.Component]bool, len(dirty))
	for _, c := range dirty {
		marked[c] = true
	}
	if marked[root] {
		return []component.Component{root}
	}

	out := dirty[:0]
	for _, c := range dirty {
		if c.State() == component.StateRemoved {
			continue
		}
		covered := false
		top := c
		for p := c.Parent(); p != nil; p = p.Parent() {
			if marked[p] {
				covered = true
				break
			}
			top = p
		}
		if covered || top != root {
			continue
		}
		out = append(out, c)
	}
	return out
}

// sendUpdates ships one update frame per directive under a single
// lock hold, recording each in the history for resync. The last frame
// carries FlagFinal so the client applies the batch atomically.
func (s *Session) sendUpdates(eventSeq uint64, directives []protocol.Directive) {
	if len(directives) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed.Load() || s.conn == nil {
		return
	}

	for i, d := range directives {
		seq := s.sendSeq.Add(1)
		payload := protocol.EncodeUpdate(&protocol.UpdateMessage{
			Seq:        seq,
			EventSeq:   eventSeq,
			Directives: []protocol.Directive{d},
		})
		var flags protocol.FrameFlags
		if i == len(directives)-1 {
			flags = protocol.FlagFinal
		}
		if !s.writeFrameLocked(protocol.NewFrameWithFlags(protocol.FrameUpdate, flags, payload), seq) {
			return
		}
	}
}

// sendReload ships a single reload directive, telling the client to
// refetch the page over HTTP.
func (s *Session) sendReload(eventSeq uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sendReloadLocked(eventSeq)
}

func (s *Session) sendReloadLocked(eventSeq uint64) {
	if s.closed.Load() || s.conn == nil {
		return
	}
	seq := s.sendSeq.Add(1)
	payload := protocol.EncodeUpdate(&protocol.UpdateMessage{
		Seq:        seq,
		EventSeq:   eventSeq,
		Directives: []protocol.Directive{protocol.ReloadDirective()},
	})
	if s.writeFrameLocked(protocol.NewFrameWithFlags(protocol.FrameUpdate, protocol.FlagFinal, payload), seq) {
		s.metrics.ReloadSent()
	}
}

// writeFrameLocked encodes and writes one update frame, recording it
// in the history. The caller holds mu. A write failure detaches the
// session; false means stop sending.
func (s *Session) writeFrameLocked(frame *protocol.Frame, seq uint64) bool {
	data := frame.Encode()
	s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	if err := s.conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
		s.logger.Error("update write failed", "seq", seq, "error", err)
		s.metrics.ProtocolError("write")
		s.closeLocked()
		return false
	}
	s.history.Add(seq, data)
	s.metrics.UpdateSent(len(data))
	return true
}

// sendEventError reports a failed or rejected event to the client.
func (s *Session) sendEventError(eventSeq uint64, code protocol.ErrorCode, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed.Load() || s.conn == nil {
		return
	}
	payload := protocol.EncodeErrorMessage(&protocol.ErrorMessage{
		Code:     code,
		EventSeq: eventSeq,
		Message:  msg,
	})
	frame := protocol.NewFrame(protocol.FrameError, payload)
	s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	if err := s.conn.WriteMessage(websocket.BinaryMessage, frame.Encode()); err != nil {
		s.logger.Error("error write failed", "error", err)
		s.closeLocked()
	}
}

// Resync replays the update frames the client missed after lastSeq,
// or ships a reload directive when the history no longer covers the
// gap. Safe to call from the handshake before the loops start.
func (s *Session) Resync(lastSeq uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed.Load() || s.conn == nil {
		return
	}
	if lastSeq >= s.sendSeq.Load() {
		return
	}
	frames := s.history.Since(lastSeq)
	if frames == nil {
		s.logger.Info("resync gap, reloading", "last_seq", lastSeq, "min_seq", s.history.MinSeq())
		s.sendReloadLocked(0)
		return
	}
	for _, data := range frames {
		s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
		if err := s.conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
			s.logger.Error("resync write failed", "error", err)
			s.metrics.ProtocolError("write")
			s.closeLocked()
			return
		}
	}
	s.logger.Debug("resync replayed", "frames", len(frames), "last_seq", lastSeq)
}
