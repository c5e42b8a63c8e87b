package server

import (
	"time"

	"github.com/gorilla/websocket"

	"github.com/loom-ui/loom/pkg/protocol"
)

// Attach binds a live connection to the session, replacing any
// previous connection. Running loops are stopped and waited for
// before the channel set is remade, so at most one event loop ever
// touches the page tree. The caller holds attachMu across
// Attach..Start and follows up with Resync for the frames after
// lastSeq.
func (s *Session) Attach(conn *websocket.Conn, lastSeq uint64) {
	s.mu.Lock()
	if s.conn != nil && s.conn != conn {
		s.conn.Close()
	}
	s.conn = nil
	select {
	case <-s.done:
	default:
		close(s.done)
	}
	s.mu.Unlock()

	// The old read loop exits on its dead connection, the others on
	// done. Their deferred closes no-op against the nil conn.
	s.loopWG.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn = conn
	s.touch()
	s.closed.Store(false)
	s.done = make(chan struct{})
	s.events = make(chan *protocol.EventMessage, s.config.MaxEventQueue)
	s.dispatchCh = make(chan func(), s.config.MaxEventQueue)
	s.renderCh = make(chan struct{}, 1)
	s.recvSeq.Store(lastSeq)
}

// Start launches the session's goroutines: the read loop feeding the
// event loop, and the write loop keeping the connection alive.
func (s *Session) Start() {
	s.loopWG.Add(3)
	go s.readLoop()
	go s.eventLoop()
	go s.writeLoop()
}

// readLoop reads frames from the connection until it fails or the
// session detaches. It is bound to the connection current at entry:
// if a reconnect swaps the connection out underneath it, its deferred
// close is a no-op and the loop exits on the dead connection's read
// error without touching the session.
func (s *Session) readLoop() {
	defer s.loopWG.Done()
	s.mu.Lock()
	conn := s.conn
	done := s.done
	events := s.events
	s.mu.Unlock()
	if conn == nil {
		return
	}
	defer s.closeConn(conn)

	for {
		conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("read failed", "error", err)
			}
			return
		}
		s.touch()

		frame, err := protocol.DecodeFrame(data)
		if err != nil {
			s.logger.Warn("bad frame", "error", err)
			s.metrics.ProtocolError("frame")
			s.sendEventError(0, protocol.CodeInvalidFrame, "malformed frame")
			continue
		}

		switch frame.Type {
		case protocol.FrameEvent:
			s.handleEventFrame(frame.Payload, done, events)
		case protocol.FrameControl:
			s.handleControlFrame(frame.Payload)
		case protocol.FrameAck:
			s.handleAckFrame(frame.Payload)
		default:
			s.logger.Warn("unexpected frame type", "type", frame.Type)
			s.metrics.ProtocolError("frame_type")
		}
	}
}

// handleEventFrame decodes an event and queues it for the event loop.
// A full queue rejects the event instead of blocking the read loop.
func (s *Session) handleEventFrame(payload []byte, done chan struct{}, events chan *protocol.EventMessage) {
	ev, err := protocol.DecodeEvent(payload)
	if err != nil {
		s.logger.Warn("bad event", "error", err)
		s.metrics.ProtocolError("event")
		s.sendEventError(0, protocol.CodeInvalidEvent, "malformed event")
		return
	}
	select {
	case events <- ev:
	case <-done:
	default:
		s.logger.Warn("event queue full, dropping", "seq", ev.Seq, "path", ev.Path)
		s.metrics.Event(outcomeRejected, 0)
		s.sendEventError(ev.Seq, protocol.CodeRateLimited, ErrEventQueueFull.Error())
	}
}

// handleControlFrame answers pings, replays history on resync and
// honors a client-initiated close.
func (s *Session) handleControlFrame(payload []byte) {
	ct, msg, err := protocol.DecodeControl(payload)
	if err != nil {
		s.logger.Warn("bad control frame", "error", err)
		s.metrics.ProtocolError("control")
		return
	}
	switch ct {
	case protocol.ControlPing:
		if pp, ok := msg.(*protocol.PingPong); ok {
			s.sendPong(pp.Timestamp)
		}
	case protocol.ControlPong:
		s.logger.Debug("pong received")
	case protocol.ControlResync:
		if rr, ok := msg.(*protocol.ResyncRequest); ok {
			s.Resync(rr.LastSeq)
		}
	case protocol.ControlClose:
		if cm, ok := msg.(*protocol.CloseMessage); ok {
			s.logger.Info("client closed", "reason", cm.Reason, "message", cm.Message)
		}
		s.Close()
	}
}

// handleAckFrame advances the acknowledged-update watermark.
func (s *Session) handleAckFrame(payload []byte) {
	ack, err := protocol.DecodeAck(payload)
	if err != nil {
		s.logger.Warn("bad ack frame", "error", err)
		s.metrics.ProtocolError("ack")
		return
	}
	s.ackSeq.Store(ack.LastSeq)
}

// eventLoop is the single goroutine that touches the page tree once
// the session is live. Client events, server-side Do calls and
// refresh requests are all serialized here.
func (s *Session) eventLoop() {
	defer s.loopWG.Done()
	s.mu.Lock()
	done := s.done
	events := s.events
	dispatchCh := s.dispatchCh
	renderCh := s.renderCh
	s.mu.Unlock()

	for {
		select {
		case ev := <-events:
			s.handleEvent(ev)
		case fn := <-dispatchCh:
			s.runDispatched(fn)
			s.flushDirty(0)
		case <-renderCh:
			s.flushDirty(0)
		case <-done:
			return
		}
	}
}

// runDispatched runs a server-side mutation with the same panic
// protection event listeners get.
func (s *Session) runDispatched(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("dispatched call panic", "panic", r)
		}
	}()
	fn()
}

// writeLoop keeps the connection alive with heartbeat pings. A failed
// ping detaches the session.
func (s *Session) writeLoop() {
	defer s.loopWG.Done()
	s.mu.Lock()
	conn := s.conn
	done := s.done
	s.mu.Unlock()

	ticker := time.NewTicker(s.config.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.sendPing(); err != nil {
				s.closeConn(conn)
				return
			}
		case <-done:
			return
		}
	}
}

func (s *Session) sendPing() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed.Load() || s.conn == nil {
		return ErrNoConnection
	}
	payload := protocol.EncodeControl(protocol.ControlPing, &protocol.PingPong{
		Timestamp: uint64(time.Now().UnixMilli()),
	})
	frame := protocol.NewFrame(protocol.FrameControl, payload)
	s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	return s.conn.WriteMessage(websocket.BinaryMessage, frame.Encode())
}

func (s *Session) sendPong(timestamp uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed.Load() || s.conn == nil {
		return
	}
	payload := protocol.EncodeControl(protocol.ControlPong, &protocol.PingPong{Timestamp: timestamp})
	frame := protocol.NewFrame(protocol.FrameControl, payload)
	s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	if err := s.conn.WriteMessage(websocket.BinaryMessage, frame.Encode()); err != nil {
		s.logger.Error("pong write failed", "error", err)
		s.closeLocked()
	}
}

// Do runs fn on the session's event loop, serialized with event
// dispatch, and flushes any refresh marks fn leaves behind. It is the
// only safe way to mutate a live session's tree from outside a
// listener.
func (s *Session) Do(fn func()) error {
	s.mu.Lock()
	dispatchCh := s.dispatchCh
	done := s.done
	s.mu.Unlock()

	select {
	case <-done:
		return ErrSessionClosed
	default:
	}
	select {
	case dispatchCh <- fn:
		return nil
	case <-done:
		return ErrSessionClosed
	}
}

// RequestRender asks the event loop to flush dirty components without
// running any mutation. Coalesces when a flush is already pending.
func (s *Session) RequestRender() {
	s.mu.Lock()
	renderCh := s.renderCh
	s.mu.Unlock()
	select {
	case renderCh <- struct{}{}:
	default:
	}
}

// SendClose tells the client the session is going away, best effort,
// then detaches.
func (s *Session) SendClose(reason protocol.CloseReason, message string) {
	s.mu.Lock()
	if !s.closed.Load() && s.conn != nil {
		payload := protocol.EncodeControl(protocol.ControlClose, &protocol.CloseMessage{
			Reason:  reason,
			Message: message,
		})
		frame := protocol.NewFrame(protocol.FrameControl, payload)
		s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
		s.conn.WriteMessage(websocket.BinaryMessage, frame.Encode())
	}
	s.mu.Unlock()
	s.Close()
}
