package server

import (
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SessionConfig holds per-session configuration.
type SessionConfig struct {
	// Timeouts

	// ReadTimeout is the maximum time to wait for a message from the
	// client. Default: 60 seconds.
	ReadTimeout time.Duration

	// WriteTimeout is the maximum time to wait when sending a message.
	// Default: 10 seconds.
	WriteTimeout time.Duration

	// IdleTimeout is the time after which an inactive session is
	// evicted from the registry. A detached session stays resumable
	// until it passes. Default: 5 minutes.
	IdleTimeout time.Duration

	// HandshakeTimeout is the maximum time between the websocket
	// upgrade and the handshake frame. Default: 10 seconds.
	HandshakeTimeout time.Duration

	// HeartbeatInterval is the time between heartbeat pings.
	// Default: 30 seconds.
	HeartbeatInterval time.Duration

	// Limits

	// MaxMessageSize is the maximum size of an incoming websocket
	// message. Default: 64KB.
	MaxMessageSize int64

	// MaxUpdateHistory is the number of sent update frames kept for
	// resync after a reconnect. Default: 100.
	MaxUpdateHistory int

	// MaxEventQueue is the size of the event channel buffer.
	// Default: 256.
	MaxEventQueue int
}

// DefaultSessionConfig returns a SessionConfig with sensible defaults.
func DefaultSessionConfig() *SessionConfig {
	return &SessionConfig{
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       5 * time.Minute,
		HandshakeTimeout:  10 * time.Second,
		HeartbeatInterval: 30 * time.Second,
		MaxMessageSize:    64 * 1024,
		MaxUpdateHistory:  100,
		MaxEventQueue:     256,
	}
}

// Clone returns a copy of the SessionConfig.
func (c *SessionConfig) Clone() *SessionConfig {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}

// Config holds configuration for the live server.
type Config struct {
	// Websocket buffer sizes

	// ReadBufferSize is the websocket read buffer size.
	// Default: 4096.
	ReadBufferSize int

	// WriteBufferSize is the websocket write buffer size.
	// Default: 4096.
	WriteBufferSize int

	// CheckOrigin is called to validate the request origin.
	// Default: SameOriginCheck.
	CheckOrigin func(r *http.Request) bool

	// Session is the configuration for individual sessions.
	// Default: DefaultSessionConfig().
	Session *SessionConfig

	// Limits

	// MaxSessions is the maximum number of concurrent sessions.
	// 0 means no limit. Default: 0.
	MaxSessions int

	// Security

	// CSRFSecret is the key for CSRF token signatures. With no secret
	// only the double-submit cookie comparison runs; a warning is
	// logged at construction.
	CSRFSecret []byte

	// SessionSecret is the key for signed session tokens. When nil a
	// random key is generated, and outstanding tokens stop verifying
	// after a restart. In-memory sessions do not survive a restart
	// either way.
	SessionSecret []byte

	// Cleanup

	// CleanupInterval is the interval for the session cleanup loop.
	// Default: 30 seconds.
	CleanupInterval time.Duration

	// Observability

	// MetricsRegistry receives the server's prometheus collectors.
	// When nil no metrics are recorded.
	MetricsRegistry prometheus.Registerer

	// Logger overrides the server logger. Default: slog.Default().
	Logger *slog.Logger
}

// DefaultConfig returns a Config with sensible defaults. CheckOrigin
// enforces same-origin to keep cross-site websocket connects out.
func DefaultConfig() *Config {
	return &Config{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     SameOriginCheck,
		Session:         DefaultSessionConfig(),
		MaxSessions:     0,
		CleanupInterval: 30 * time.Second,
	}
}

// Clone returns a copy of the Config.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	clone := *c
	if c.Session != nil {
		clone.Session = c.Session.Clone()
	}
	if c.CSRFSecret != nil {
		clone.CSRFSecret = append([]byte(nil), c.CSRFSecret...)
	}
	if c.SessionSecret != nil {
		clone.SessionSecret = append([]byte(nil), c.SessionSecret...)
	}
	return &clone
}

// SameOriginCheck validates that the websocket request origin matches
// the host. It is the default CheckOrigin.
func SameOriginCheck(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		// No Origin header (same-origin request or non-browser client).
		return true
	}
	originURL, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if r.Host == "" {
		return false
	}
	return originURL.Host == r.Host
}
