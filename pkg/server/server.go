package server

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/text/language"

	"github.com/loom-ui/loom/pkg/component"
	"github.com/loom-ui/loom/pkg/protocol"
	"github.com/loom-ui/loom/pkg/render"
)

// CSRFCookieName is the cookie carrying the CSRF double-submit value.
const CSRFCookieName = "__loom_csrf"

const (
	csrfNonceLen = 16
	csrfTokenLen = csrfNonceLen + sha256.Size
)

// Server owns the live websocket endpoint and the session registry
// behind it. It does not listen on its own: the application mounts
// it on a route and calls OpenSession while rendering pages.
type Server struct {
	registry *Registry
	renderer *render.Renderer
	config   *Config
	upgrader websocket.Upgrader
	tokens   *protocol.TokenCodec

	csrfSecret []byte

	logger  *slog.Logger
	metrics *metrics
}

// New creates a server rendering live updates with renderer. A nil
// config uses DefaultConfig.
func New(config *Config, renderer *render.Renderer) *Server {
	if config == nil {
		config = DefaultConfig()
	} else {
		config = config.Clone()
	}
	if config.Session == nil {
		config.Session = DefaultSessionConfig()
	}
	if config.CheckOrigin == nil {
		config.CheckOrigin = SameOriginCheck
	}

	base := config.Logger
	if base == nil {
		base = slog.Default()
	}
	logger := base.With("component", "server")

	if len(config.CSRFSecret) == 0 {
		logger.Warn("no CSRF secret configured, tokens are unsigned")
	}
	sessionSecret := config.SessionSecret
	if len(sessionSecret) == 0 {
		sessionSecret = make([]byte, 32)
		if _, err := rand.Read(sessionSecret); err != nil {
			panic(fmt.Sprintf("crypto/rand failed: %v", err))
		}
		logger.Warn("no session secret configured, sessions will not survive a restart")
	}

	m := newMetrics(config.MetricsRegistry)
	reg := NewRegistry(config.Session, renderer, config.MaxSessions, config.CleanupInterval, base)
	reg.metrics = m

	return &Server{
		registry: reg,
		renderer: renderer,
		config:   config,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		tokens:     protocol.NewTokenCodec(sessionSecret),
		csrfSecret: config.CSRFSecret,
		logger:     logger,
		metrics:    m,
	}
}

// Sessions returns the session registry.
func (s *Server) Sessions() *Registry { return s.registry }

// OpenSession creates a session for root and returns it with the
// signed token the page bootstrap hands to the client.
func (s *Server) OpenSession(root component.Component, locale language.Tag) (*Session, string, error) {
	sess, err := s.registry.Create(root, locale)
	if err != nil {
		return nil, "", err
	}
	token, err := s.tokens.Sign(&protocol.SessionClaims{
		SID:    sess.ID,
		Issued: time.Now().Unix(),
	})
	if err != nil {
		s.registry.Close(sess.ID)
		return nil, "", NewSessionError(sess.ID, "sign token", err)
	}
	return sess, token, nil
}

// ServeHTTP upgrades the request to a websocket and runs the live
// protocol handshake.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.HandleWebSocket(w, r)
}

// HandleWebSocket upgrades the connection and performs the handshake:
// the first binary message must be a Handshake frame whose ClientHello
// carries a valid CSRF token and a signed session token minted by
// OpenSession. On success the connection attaches to the session,
// missed updates are replayed and the session loops start.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err, "remote", r.RemoteAddr)
		return
	}

	cfg := s.config.Session
	conn.SetReadLimit(cfg.MaxMessageSize)
	conn.SetReadDeadline(time.Now().Add(cfg.HandshakeTimeout))

	_, data, err := conn.ReadMessage()
	if err != nil {
		s.logger.Warn("handshake read failed", "error", err, "remote", r.RemoteAddr)
		conn.Close()
		return
	}

	hello, err := decodeHandshakeFrame(data)
	if err != nil {
		s.logger.Warn("handshake rejected", "error", err, "remote", r.RemoteAddr)
		s.metrics.ProtocolError("handshake")
		conn.Close()
		return
	}

	if hello.Version.Major != protocol.CurrentVersion.Major {
		s.logger.Warn("protocol version mismatch",
			"client", fmt.Sprintf("%d.%d", hello.Version.Major, hello.Version.Minor))
		s.refuse(conn, protocol.HandshakeVersionMismatch)
		return
	}
	if !s.validateCSRF(r, hello.CSRFToken) {
		s.logger.Warn("CSRF validation failed", "remote", r.RemoteAddr)
		s.metrics.ProtocolError("csrf")
		s.refuse(conn, protocol.HandshakeInvalidCSRF)
		return
	}

	sess, status := s.resolveSession(hello)
	if status != protocol.HandshakeOK {
		s.refuse(conn, status)
		return
	}

	token, err := s.tokens.Sign(&protocol.SessionClaims{
		SID:    sess.ID,
		Issued: time.Now().Unix(),
	})
	if err != nil {
		s.logger.Error("session token sign failed", "error", err)
		s.refuse(conn, protocol.HandshakeInternalError)
		return
	}

	sess.attachMu.Lock()
	defer sess.attachMu.Unlock()

	sess.Attach(conn, hello.LastSeq)
	s.metrics.Attached()

	if err := s.sendServerHello(conn, sess, token); err != nil {
		s.logger.Warn("server hello write failed", "error", err)
		sess.Close()
		return
	}
	sess.Resync(hello.LastSeq)
	sess.Start()

	s.logger.Info("session attached",
		"session_id", sess.ID,
		"page", sess.PageID(),
		"last_seq", hello.LastSeq,
		"remote", r.RemoteAddr)
}

// decodeHandshakeFrame unwraps the first client frame into its
// ClientHello.
func decodeHandshakeFrame(data []byte) (*protocol.ClientHello, error) {
	ft, _, length, err := protocol.DecodeFrameHeader(data)
	if err != nil {
		return nil, err
	}
	if ft != protocol.FrameHandshake {
		return nil, fmt.Errorf("expected handshake frame, got %s", ft)
	}
	if len(data) < protocol.FrameHeaderSize+length {
		return nil, fmt.Errorf("truncated handshake frame")
	}
	return protocol.DecodeClientHello(data[protocol.FrameHeaderSize : protocol.FrameHeaderSize+length])
}

// resolveSession verifies the hello's session token and looks the
// session up, mapping each failure to its handshake status.
func (s *Server) resolveSession(hello *protocol.ClientHello) (*Session, protocol.HandshakeStatus) {
	if hello.SessionToken == "" {
		return nil, protocol.HandshakeSessionExpired
	}
	var claims protocol.SessionClaims
	if err := s.tokens.Verify(hello.SessionToken, &claims); err != nil {
		s.logger.Warn("session token rejected", "error", err)
		return nil, protocol.HandshakeSessionExpired
	}
	sess, err := s.registry.Get(claims.SID)
	if err != nil {
		return nil, protocol.HandshakeSessionExpired
	}
	if hello.PageID != "" && hello.PageID != sess.PageID() {
		s.logger.Warn("page mismatch",
			"session_id", sess.ID,
			"want", sess.PageID(),
			"got", hello.PageID)
		return nil, protocol.HandshakeUnknownPage
	}
	return sess, protocol.HandshakeOK
}

// refuse answers the handshake with a failure status and closes the
// connection.
func (s *Server) refuse(conn *websocket.Conn, status protocol.HandshakeStatus) {
	payload := protocol.EncodeServerHello(&protocol.ServerHello{
		Status:     status,
		ServerTime: uint64(time.Now().UnixMilli()),
	})
	frame := protocol.NewFrame(protocol.FrameHandshake, payload)
	conn.SetWriteDeadline(time.Now().Add(s.config.Session.WriteTimeout))
	conn.WriteMessage(websocket.BinaryMessage, frame.Encode())
	conn.Close()
}

// sendServerHello confirms the handshake on a freshly attached
// connection. It writes directly: the session loops are not running
// yet and attachMu keeps it that way.
func (s *Server) sendServerHello(conn *websocket.Conn, sess *Session, token string) error {
	payload := protocol.EncodeServerHello(&protocol.ServerHello{
		Status:       protocol.HandshakeOK,
		SessionToken: token,
		NextSeq:      sess.sendSeq.Load() + 1,
		ServerTime:   uint64(time.Now().UnixMilli()),
	})
	frame := protocol.NewFrame(protocol.FrameHandshake, payload)
	conn.SetWriteDeadline(time.Now().Add(s.config.Session.WriteTimeout))
	return conn.WriteMessage(websocket.BinaryMessage, frame.Encode())
}

// GenerateCSRFToken returns a fresh CSRF token: a random nonce,
// HMAC-signed when a CSRF secret is configured.
func (s *Server) GenerateCSRFToken() string {
	nonce := make([]byte, csrfNonceLen)
	if _, err := rand.Read(nonce); err != nil {
		panic(fmt.Sprintf("crypto/rand failed: %v", err))
	}
	if len(s.csrfSecret) == 0 {
		return base64.URLEncoding.EncodeToString(nonce)
	}
	mac := hmac.New(sha256.New, s.csrfSecret)
	mac.Write(nonce)
	return base64.URLEncoding.EncodeToString(mac.Sum(nonce))
}

// validateCSRF checks the double-submit pair: the token presented in
// the hello must match the cookie, and when a secret is configured
// the token's signature must verify.
func (s *Server) validateCSRF(r *http.Request, token string) bool {
	cookie, err := r.Cookie(CSRFCookieName)
	if err != nil {
		return false
	}
	if cookie.Value == "" || token == "" {
		return false
	}
	if !hmac.Equal([]byte(cookie.Value), []byte(token)) {
		return false
	}
	if len(s.csrfSecret) == 0 {
		return true
	}
	raw, err := base64.URLEncoding.DecodeString(token)
	if err != nil || len(raw) != csrfTokenLen {
		return false
	}
	mac := hmac.New(sha256.New, s.csrfSecret)
	mac.Write(raw[:csrfNonceLen])
	return hmac.Equal(raw[csrfNonceLen:], mac.Sum(nil))
}

// SetCSRFCookie sets the double-submit cookie for token on the page
// response.
func (s *Server) SetCSRFCookie(w http.ResponseWriter, r *http.Request, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CSRFCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

// Shutdown closes every session and stops the registry.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server shutting down", "sessions", s.registry.Count())
	return s.registry.Shutdown(ctx)
}
