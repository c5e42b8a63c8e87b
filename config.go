package loom

import (
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/text/language"

	"github.com/loom-ui/loom/pkg/resource"
	"github.com/loom-ui/loom/pkg/server"
)

// =============================================================================
// Configuration Types
// =============================================================================

// Config is the main application configuration.
// This is the user-friendly entry point for configuring a Loom app.
type Config struct {
	// Server configures the HTTP listener used by Run.
	Server ServerConfig

	// Resources configures where templates and localized strings are
	// loaded from.
	Resources ResourceConfig

	// Session tunes live session behavior (timeouts, queues, limits).
	Session SessionConfig

	// Security configures security features (CSRF, origin checking).
	Security SecurityConfig

	// Static configures static file serving.
	Static StaticConfig

	// Locales lists the BCP 47 language tags the application serves,
	// most preferred first. The first entry is the fallback when
	// content negotiation fails. Empty disables negotiation: every
	// page renders with the und locale and unlocalized templates.
	Locales []string

	// DevMode enables development mode.
	// SECURITY: NEVER use in production - this disables origin
	// checking on the live websocket (allows all origins).
	// It also watches template folders and reparses markup on change.
	DevMode bool

	// Logger is the structured logger for the application.
	// If nil, slog.Default() is used.
	Logger *slog.Logger

	// Metrics receives live-session metrics when set.
	// If nil, metrics are not collected.
	Metrics prometheus.Registerer
}

// ServerConfig configures the HTTP listener used by Run.
// Apps mounting App.Handler into their own server can ignore it.
type ServerConfig struct {
	// Addr is the address to listen on.
	// Default: ":8080".
	Addr string

	// ReadTimeout bounds reading a request, including the body.
	// Live connections are exempt: the websocket upgrade clears
	// the deadline.
	// Default: 15 seconds.
	ReadTimeout time.Duration

	// WriteTimeout bounds writing a response.
	// Default: 30 seconds.
	WriteTimeout time.Duration

	// ShutdownTimeout bounds the graceful drain when Run stops.
	// Default: 10 seconds.
	ShutdownTimeout time.Duration
}

// ResourceConfig configures template and string bundle loading.
type ResourceConfig struct {
	// TemplateFolders are searched in order for component markup.
	// Ignored when Finder is set.
	// Default: ["templates"].
	TemplateFolders []string

	// Finder overrides folder lookup entirely. Use resource.NewFSFinder
	// for embedded templates or resource.NewS3Finder for remote ones.
	Finder resource.Finder

	// Bundles is the filesystem holding YAML string bundles, loaded
	// once at startup.
	Bundles fs.FS

	// BundleNames are the bundle base names loaded from Bundles,
	// e.g. "app" for app.yaml and app.de.yaml.
	// Default: ["app"] when Bundles is set.
	BundleNames []string

	// CacheDuration is how long located resources are trusted before
	// modification checks run again. It also drives the max-age of
	// non-fingerprinted responses under CacheControlProduction.
	// Default: 1 hour.
	CacheDuration time.Duration

	// PreloadWorkers is the parallelism of template preloading.
	// Default: 4.
	PreloadWorkers int

	// Preload lists template names parsed eagerly at startup, warming
	// the cache before the first request.
	Preload []string

	// WatchDebounce coalesces bursts of file changes while DevMode
	// template watching is active.
	// Default: 100 milliseconds.
	WatchDebounce time.Duration

	// DisableCompression turns off gzip encoding of page, client
	// script, and static responses.
	// Default: false.
	DisableCompression bool
}

// SessionConfig tunes live sessions. Zero values fall back to the
// live server's defaults.
type SessionConfig struct {
	// IdleTimeout is how long a session survives without client
	// activity before it is closed and its tree torn down.
	// Default: 5 minutes.
	IdleTimeout time.Duration

	// HeartbeatInterval is the spacing of keepalive pings on a live
	// connection.
	// Default: 30 seconds.
	HeartbeatInterval time.Duration

	// MaxSessions caps concurrent sessions. Page loads beyond the cap
	// are answered with 503. 0 means no limit.
	// Default: 0.
	MaxSessions int

	// MaxUpdateHistory is how many outgoing updates are kept per
	// session for replay after a reconnect.
	// Default: 100.
	MaxUpdateHistory int

	// MaxEventQueue is how many client events may queue per session
	// before new ones are rejected.
	// Default: 256.
	MaxEventQueue int
}

// SecurityConfig configures security features.
type SecurityConfig struct {
	// CSRFSecret is the key for CSRF token signatures.
	// If nil, tokens are unsigned random nonces.
	// Required for production: generate with crypto/rand and store
	// securely.
	CSRFSecret []byte

	// SessionSecret is the key for signed session tokens.
	// If nil, an ephemeral key is generated at startup and live
	// sessions cannot reattach across restarts.
	SessionSecret []byte

	// AllowedOrigins lists origins allowed for websocket connections
	// in addition to same-origin requests.
	// Example: []string{"https://myapp.com", "https://www.myapp.com"}
	AllowedOrigins []string
}

// StaticConfig configures static file serving.
type StaticConfig struct {
	// Dir is the directory containing static files (e.g., "public").
	// Empty disables static serving.
	Dir string

	// Prefix is the URL path prefix for static files (e.g., "/").
	// A file at public/styles.css with Prefix="/" is served at
	// /styles.css. Registered routes always win over static files.
	// Default: "/".
	Prefix string

	// CacheControl determines caching behavior for static files.
	// Default: CacheControlNone (no caching headers).
	CacheControl CacheControlStrategy

	// Headers are custom headers to add to all static file responses.
	Headers map[string]string
}

// CacheControlStrategy determines caching behavior for static files.
type CacheControlStrategy int

const (
	// CacheControlNone adds no caching headers.
	// Use in development for instant updates.
	CacheControlNone CacheControlStrategy = iota

	// CacheControlProduction uses appropriate caching:
	//   - Fingerprinted files (*.abc123.css): immutable, 1 year max-age
	//   - Other files: Resources.CacheDuration max-age with revalidation
	CacheControlProduction
)

// =============================================================================
// Default Configurations
// =============================================================================

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Server:    DefaultServerConfig(),
		Resources: DefaultResourceConfig(),
		Session:   DefaultSessionConfig(),
		Static:    DefaultStaticConfig(),
	}
}

// DefaultServerConfig returns a ServerConfig with sensible defaults.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:            ":8080",
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

// DefaultResourceConfig returns a ResourceConfig with sensible defaults.
func DefaultResourceConfig() ResourceConfig {
	return ResourceConfig{
		TemplateFolders: []string{"templates"},
		CacheDuration:   time.Hour,
		PreloadWorkers:  4,
		WatchDebounce:   100 * time.Millisecond,
	}
}

// DefaultSessionConfig returns a SessionConfig matching the live
// server's defaults.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		IdleTimeout:       5 * time.Minute,
		HeartbeatInterval: 30 * time.Second,
		MaxUpdateHistory:  100,
		MaxEventQueue:     256,
	}
}

// DefaultStaticConfig returns a StaticConfig with sensible defaults.
func DefaultStaticConfig() StaticConfig {
	return StaticConfig{
		Prefix:       "/",
		CacheControl: CacheControlNone,
	}
}

// Validate reports configuration mistakes that would otherwise
// surface as confusing runtime failures. New calls it after applying
// defaults.
func (c *Config) Validate() error {
	for _, l := range c.Locales {
		if _, err := language.Parse(l); err != nil {
			return fmt.Errorf("invalid locale %q: %w", l, err)
		}
	}
	if p := c.Static.Prefix; p != "" && !strings.HasPrefix(p, "/") {
		return fmt.Errorf("static prefix %q must start with /", p)
	}
	if c.Resources.PreloadWorkers < 0 {
		return fmt.Errorf("preload workers must not be negative")
	}
	if len(c.Resources.BundleNames) > 0 && c.Resources.Bundles == nil {
		return fmt.Errorf("bundle names configured without a bundle filesystem")
	}
	return nil
}

// =============================================================================
// Config to Live Server Translation
// =============================================================================

// buildLiveConfig converts the user-facing loom.Config into the live
// server's configuration. Zero-value fields keep the server defaults.
func buildLiveConfig(cfg Config) *server.Config {
	liveCfg := server.DefaultConfig()

	// Session settings
	if cfg.Session.IdleTimeout > 0 {
		liveCfg.Session.IdleTimeout = cfg.Session.IdleTimeout
	}
	if cfg.Session.HeartbeatInterval > 0 {
		liveCfg.Session.HeartbeatInterval = cfg.Session.HeartbeatInterval
	}
	if cfg.Session.MaxUpdateHistory > 0 {
		liveCfg.Session.MaxUpdateHistory = cfg.Session.MaxUpdateHistory
	}
	if cfg.Session.MaxEventQueue > 0 {
		liveCfg.Session.MaxEventQueue = cfg.Session.MaxEventQueue
	}
	if cfg.Session.MaxSessions > 0 {
		liveCfg.MaxSessions = cfg.Session.MaxSessions
	}

	// Security settings
	if cfg.Security.CSRFSecret != nil {
		liveCfg.CSRFSecret = cfg.Security.CSRFSecret
	}
	if cfg.Security.SessionSecret != nil {
		liveCfg.SessionSecret = cfg.Security.SessionSecret
	}
	switch {
	case cfg.DevMode:
		liveCfg.CheckOrigin = func(*http.Request) bool { return true }
	case len(cfg.Security.AllowedOrigins) > 0:
		origins := make(map[string]bool, len(cfg.Security.AllowedOrigins))
		for _, o := range cfg.Security.AllowedOrigins {
			origins[o] = true
		}
		liveCfg.CheckOrigin = func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true // No origin header (same-origin or non-browser)
			}
			return origins[origin] || server.SameOriginCheck(r)
		}
	}

	if cfg.Metrics != nil {
		liveCfg.MetricsRegistry = cfg.Metrics
	}
	if cfg.Logger != nil {
		liveCfg.Logger = cfg.Logger
	}
	return liveCfg
}
