package loom

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Server.Addr != ":8080" {
		t.Errorf("Server.Addr = %q, want %q", cfg.Server.Addr, ":8080")
	}
	if got := cfg.Resources.TemplateFolders; len(got) != 1 || got[0] != "templates" {
		t.Errorf("Resources.TemplateFolders = %v, want [templates]", got)
	}
	if cfg.Resources.CacheDuration != time.Hour {
		t.Errorf("Resources.CacheDuration = %v, want %v", cfg.Resources.CacheDuration, time.Hour)
	}
	if cfg.Static.Prefix != "/" {
		t.Errorf("Static.Prefix = %q, want %q", cfg.Static.Prefix, "/")
	}
	if cfg.Static.CacheControl != CacheControlNone {
		t.Errorf("Static.CacheControl = %v, want CacheControlNone", cfg.Static.CacheControl)
	}
	if cfg.Session.IdleTimeout != 5*time.Minute {
		t.Errorf("Session.IdleTimeout = %v, want %v", cfg.Session.IdleTimeout, 5*time.Minute)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"valid locales", func(c *Config) { c.Locales = []string{"en", "de-AT"} }, false},
		{"bad locale", func(c *Config) { c.Locales = []string{"not a locale"} }, true},
		{"bad static prefix", func(c *Config) { c.Static.Prefix = "static/" }, true},
		{"negative preload workers", func(c *Config) { c.Resources.PreloadWorkers = -1 }, true},
		{"bundle names without fs", func(c *Config) { c.Resources.BundleNames = []string{"app"} }, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestBuildLiveConfig_SessionOverlay(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Session.IdleTimeout = 2 * time.Minute
	cfg.Session.MaxEventQueue = 7
	cfg.Session.MaxSessions = 3
	cfg.Session.HeartbeatInterval = 0 // keep the server default

	liveCfg := buildLiveConfig(cfg)

	if liveCfg.Session.IdleTimeout != 2*time.Minute {
		t.Errorf("IdleTimeout = %v, want %v", liveCfg.Session.IdleTimeout, 2*time.Minute)
	}
	if liveCfg.Session.MaxEventQueue != 7 {
		t.Errorf("MaxEventQueue = %d, want 7", liveCfg.Session.MaxEventQueue)
	}
	if liveCfg.MaxSessions != 3 {
		t.Errorf("MaxSessions = %d, want 3", liveCfg.MaxSessions)
	}
	if liveCfg.Session.HeartbeatInterval != 30*time.Second {
		t.Errorf("HeartbeatInterval = %v, want server default %v", liveCfg.Session.HeartbeatInterval, 30*time.Second)
	}
}

func TestBuildLiveConfig_Secrets(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Security.CSRFSecret = []byte("csrf-secret")
	cfg.Security.SessionSecret = []byte("session-secret")

	liveCfg := buildLiveConfig(cfg)

	if !bytes.Equal(liveCfg.CSRFSecret, []byte("csrf-secret")) {
		t.Error("CSRFSecret not carried over")
	}
	if !bytes.Equal(liveCfg.SessionSecret, []byte("session-secret")) {
		t.Error("SessionSecret not carried over")
	}
}

func TestBuildLiveConfig_AllowedOrigins(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Security.AllowedOrigins = []string{"https://allowed.example.com"}

	liveCfg := buildLiveConfig(cfg)
	if liveCfg.CheckOrigin == nil {
		t.Fatal("expected CheckOrigin to be configured")
	}

	req := httptest.NewRequest(http.MethodGet, "http://example.com/_loom/live", nil)
	req.Host = "example.com"

	req.Header.Set("Origin", "https://allowed.example.com")
	if !liveCfg.CheckOrigin(req) {
		t.Error("expected listed origin to pass")
	}

	req.Header.Set("Origin", "https://evil.example.com")
	if liveCfg.CheckOrigin(req) {
		t.Error("expected unlisted origin to fail")
	}

	// Same-origin requests stay allowed alongside the explicit list.
	req.Header.Set("Origin", "https://example.com")
	if !liveCfg.CheckOrigin(req) {
		t.Error("expected same-origin request to pass")
	}

	req.Header.Del("Origin")
	if !liveCfg.CheckOrigin(req) {
		t.Error("expected request without Origin to pass")
	}
}

func TestBuildLiveConfig_DevModeAllowsAllOrigins(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DevMode = true
	cfg.Security.AllowedOrigins = []string{"https://allowed.example.com"}

	liveCfg := buildLiveConfig(cfg)

	req := httptest.NewRequest(http.MethodGet, "http://example.com/_loom/live", nil)
	req.Header.Set("Origin", "https://anything.example.com")
	if !liveCfg.CheckOrigin(req) {
		t.Error("expected DevMode to allow any origin")
	}
}
