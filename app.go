package loom

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/valyala/bytebufferpool"
	"golang.org/x/text/language"

	"github.com/loom-ui/loom/pkg/component"
	"github.com/loom-ui/loom/pkg/markup"
	"github.com/loom-ui/loom/pkg/render"
	"github.com/loom-ui/loom/pkg/resource"
	"github.com/loom-ui/loom/pkg/server"
)

// LiveEndpoint is the path the thin client connects its websocket to.
const LiveEndpoint = "/_loom/live"

// =============================================================================
// App Type
// =============================================================================

// PageFactory builds the root component for one page load. It is
// called once per GET request and the returned component becomes the
// root of a fresh session.
type PageFactory func(r *http.Request) (component.Component, error)

// App is the main Loom application entry point.
// It wraps markup loading, server-side rendering, the live session
// server and static file serving into a single http.Handler.
//
// Create an App with loom.New():
//
//	app, err := loom.New(loom.Config{
//	    Resources: loom.ResourceConfig{TemplateFolders: []string{"templates"}},
//	    Static:    loom.StaticConfig{Dir: "public", Prefix: "/"},
//	    DevMode:   os.Getenv("ENV") != "production",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	app.Page("/", func(r *http.Request) (component.Component, error) {
//	    return pages.NewHome(), nil
//	})
//	app.Run()
type App struct {
	// Internal components
	settings *resource.Settings
	cache    *markup.Cache
	watcher  *markup.Watcher
	renderer *render.Renderer
	live     *server.Server

	// Locale negotiation
	matcher language.Matcher
	locales []language.Tag

	// Route registration, consumed by buildRouter
	middlewares []func(http.Handler) http.Handler
	pages       []pageRoute
	buildOnce   sync.Once
	built       atomic.Bool
	router      chi.Router

	// Configuration
	config Config
	logger *slog.Logger

	// Run state
	mu         sync.Mutex
	httpServer *http.Server
	closeOnce  sync.Once
	closeErr   error
}

type pageRoute struct {
	pattern string
	factory PageFactory
}

// New creates a Loom application with the given configuration.
func New(cfg Config) (*App, error) {
	// Apply defaults
	if cfg.Server.Addr == "" {
		cfg.Server = fillServerDefaults(cfg.Server)
	}
	if len(cfg.Resources.TemplateFolders) == 0 {
		cfg.Resources.TemplateFolders = DefaultResourceConfig().TemplateFolders
	}
	if cfg.Resources.CacheDuration == 0 {
		cfg.Resources.CacheDuration = DefaultResourceConfig().CacheDuration
	}
	if cfg.Resources.WatchDebounce == 0 {
		cfg.Resources.WatchDebounce = DefaultResourceConfig().WatchDebounce
	}
	if cfg.Resources.Bundles != nil && len(cfg.Resources.BundleNames) == 0 {
		cfg.Resources.BundleNames = []string{"app"}
	}
	if cfg.Static.Prefix == "" {
		cfg.Static.Prefix = "/"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Resource settings: finder, cache policy, localized strings
	settings := resource.DefaultSettings()
	settings.DefaultCacheDuration = cfg.Resources.CacheDuration
	settings.DisableCompression = cfg.Resources.DisableCompression
	if cfg.DevMode {
		settings.PollFrequency = cfg.Resources.WatchDebounce
	}
	if cfg.Resources.Finder != nil {
		settings.Finder = cfg.Resources.Finder
	} else {
		settings.Finder = resource.NewPathFinder(cfg.Resources.TemplateFolders...)
	}
	loaders := make([]resource.StringLoader, 0, len(cfg.Resources.BundleNames))
	for _, name := range cfg.Resources.BundleNames {
		bundle, err := resource.LoadBundle(cfg.Resources.Bundles, name)
		if err != nil {
			return nil, fmt.Errorf("load bundle %q: %w", name, err)
		}
		loaders = append(loaders, bundle)
	}
	settings.Localizer = resource.NewLocalizer(settings, loaders...)

	// Markup pipeline
	markupCfg := markup.DefaultCacheConfig()
	if cfg.Resources.PreloadWorkers > 0 {
		markupCfg.PreloadWorkers = cfg.Resources.PreloadWorkers
	}
	markupCfg.Logger = cfg.Logger
	cache, err := markup.NewCache(markup.NewLocator(settings), markupCfg)
	if err != nil {
		return nil, fmt.Errorf("markup cache: %w", err)
	}
	renderer := render.NewRenderer(cache)

	app := &App{
		settings: settings,
		cache:    cache,
		renderer: renderer,
		live:     server.New(buildLiveConfig(cfg), renderer),
		config:   cfg,
		logger:   cfg.Logger,
	}

	if len(cfg.Locales) > 0 {
		app.locales = make([]language.Tag, len(cfg.Locales))
		for i, l := range cfg.Locales {
			app.locales[i] = language.MustParse(l)
		}
		app.matcher = language.NewMatcher(app.locales)
	}

	if len(cfg.Resources.Preload) > 0 {
		cache.Preload(context.Background(), app.fallbackLocale(), cfg.Resources.Preload...)
	}

	// Template watching only works with folder-backed lookup.
	if settings.PollFrequency > 0 && cfg.Resources.Finder == nil {
		watcher, err := markup.NewWatcher(cache, cfg.Resources.TemplateFolders, settings.PollFrequency)
		if err != nil {
			cfg.Logger.Warn("template watching unavailable", "error", err)
		} else {
			app.watcher = watcher
		}
	}

	return app, nil
}

// fillServerDefaults overlays listener defaults onto zero fields.
func fillServerDefaults(sc ServerConfig) ServerConfig {
	def := DefaultServerConfig()
	if sc.Addr == "" {
		sc.Addr = def.Addr
	}
	if sc.ReadTimeout == 0 {
		sc.ReadTimeout = def.ReadTimeout
	}
	if sc.WriteTimeout == 0 {
		sc.WriteTimeout = def.WriteTimeout
	}
	if sc.ShutdownTimeout == 0 {
		sc.ShutdownTimeout = def.ShutdownTimeout
	}
	return sc
}

// =============================================================================
// Route Registration
// =============================================================================

// Page registers a page route. The factory runs once per GET request
// and its component becomes the root of a new session, rendered to
// HTML and kept alive over the websocket afterwards.
//
// Patterns use chi syntax, so route parameters work as usual:
//
//	app.Page("/projects/{id}", func(r *http.Request) (component.Component, error) {
//	    return pages.NewProject(chi.URLParam(r, "id")), nil
//	})
func (a *App) Page(pattern string, factory PageFactory) {
	a.mustNotBeServing("Page")
	a.pages = append(a.pages, pageRoute{pattern: pattern, factory: factory})
}

// Use adds middleware wrapped around every route, in registration
// order. Standard func(http.Handler) http.Handler middleware works,
// including chi's and Loom's own middleware package.
//
//	app.Use(middleware.Prometheus(), middleware.OpenTelemetry())
func (a *App) Use(mw ...func(http.Handler) http.Handler) {
	a.mustNotBeServing("Use")
	a.middlewares = append(a.middlewares, mw...)
}

// mustNotBeServing guards registration: the router is assembled once,
// on first serve, and cannot change afterwards.
func (a *App) mustNotBeServing(op string) {
	if a.built.Load() {
		panic("loom: " + op + " called after the app started serving")
	}
}

// =============================================================================
// http.Handler Implementation
// =============================================================================

// Handler returns the application's http.Handler for mounting into an
// existing server or router. The first call assembles the route table;
// Page and Use panic after that.
func (a *App) Handler() http.Handler {
	a.buildOnce.Do(a.buildRouter)
	return a.router
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.Handler().ServeHTTP(w, r)
}

// buildRouter assembles the chi router from the registered routes:
// global middleware, the live endpoints, page routes, and the static
// catch-all last so registered routes always win.
func (a *App) buildRouter() {
	a.built.Store(true)
	r := chi.NewRouter()
	r.Use(a.middlewares...)

	// The websocket route stays outside the compression group; the
	// upgrade needs the raw connection.
	r.Get(LiveEndpoint, a.live.HandleWebSocket)

	r.Group(func(r chi.Router) {
		if !a.settings.DisableCompression {
			r.Use(chimiddleware.Compress(5))
		}

		r.Get(render.DefaultClientScript, a.serveClientScript)

		for _, p := range a.pages {
			r.Get(p.pattern, a.pageHandler(p.factory))
		}

		if a.config.Static.Dir != "" {
			pattern := strings.TrimSuffix(a.config.Static.Prefix, "/") + "/*"
			r.Handle(pattern, http.HandlerFunc(a.serveStatic))
		}
	})

	a.router = r
}

// pageHandler runs the full page pipeline: build the root component,
// open a session for it, render the initial HTML and inject the
// bootstrap that connects the live channel.
func (a *App) pageHandler(factory PageFactory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		root, err := factory(r)
		if err != nil || root == nil {
			a.logger.Error("page factory failed", "path", r.URL.Path, "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		sess, token, err := a.live.OpenSession(root, a.localeFor(r))
		if err != nil {
			if errors.Is(err, server.ErrMaxSessionsReached) {
				http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
				return
			}
			a.logger.Error("session open failed", "path", r.URL.Path, "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		csrf := a.live.GenerateCSRFToken()
		a.live.SetCSRFCookie(w, r, csrf)

		buf := bytebufferpool.Get()
		defer bytebufferpool.Put(buf)
		if err := sess.RenderPage(r.Context(), buf); err != nil {
			a.live.Sessions().Close(sess.ID)
			a.logger.Error("page render failed", "path", r.URL.Path, "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		bootstrap := render.Bootstrap{SessionID: token, CSRFToken: csrf}
		if err := bootstrap.Inject(w, buf.Bytes()); err != nil {
			a.logger.Warn("page write failed", "path", r.URL.Path, "error", err)
		}
	}
}

// localeFor negotiates the page locale from the Accept-Language
// header against the configured locales.
func (a *App) localeFor(r *http.Request) language.Tag {
	if a.matcher == nil {
		return language.Und
	}
	_, index, _ := language.MatchStrings(a.matcher, r.Header.Get("Accept-Language"))
	return a.locales[index]
}

// fallbackLocale is the first configured locale, or und.
func (a *App) fallbackLocale() language.Tag {
	if len(a.locales) > 0 {
		return a.locales[0]
	}
	return language.Und
}

// =============================================================================
// Component Access
// =============================================================================

// Server returns the live session server for advanced use: opening
// sessions by hand, walking the registry, server-initiated updates.
// Most apps won't need it.
func (a *App) Server() *server.Server {
	return a.live
}

// Settings returns the resource settings, including the localizer.
func (a *App) Settings() *resource.Settings {
	return a.settings
}

// Config returns the app configuration with defaults applied.
func (a *App) Config() Config {
	return a.config
}

// =============================================================================
// Lifecycle
// =============================================================================

// Run starts the HTTP server on Config.Server.Addr and blocks until
// the listener fails or the process receives SIGINT or SIGTERM, then
// shuts down gracefully within Config.Server.ShutdownTimeout.
func (a *App) Run() error {
	handler := a.Handler()

	srv := &http.Server{
		Addr:         a.config.Server.Addr,
		Handler:      handler,
		ReadTimeout:  a.config.Server.ReadTimeout,
		WriteTimeout: a.config.Server.WriteTimeout,
	}
	a.mu.Lock()
	a.httpServer = srv
	a.mu.Unlock()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		a.Close()
		return err
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.config.Server.ShutdownTimeout)
	defer cancel()
	err := a.Shutdown(shutdownCtx)
	<-errCh
	return err
}

// Shutdown gracefully stops the application: live sessions get a
// close frame, in-flight requests drain and background machinery is
// released. Safe to call whether or not Run is in flight.
func (a *App) Shutdown(ctx context.Context) error {
	err := a.live.Shutdown(ctx)

	a.mu.Lock()
	srv := a.httpServer
	a.mu.Unlock()
	if srv != nil {
		if herr := srv.Shutdown(ctx); err == nil {
			err = herr
		}
	}

	if cerr := a.Close(); err == nil {
		err = cerr
	}
	return err
}

// Close releases background resources (template watcher, markup
// cache workers) without draining anything. Shutdown calls it; call
// it directly when the app only ever served through Handler.
func (a *App) Close() error {
	a.closeOnce.Do(func() {
		if a.watcher != nil {
			a.closeErr = a.watcher.Close()
		}
		a.cache.Close()
	})
	return a.closeErr
}
