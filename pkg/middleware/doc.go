// Package middleware provides production-grade HTTP middleware for Loom
// applications.
//
// This package includes:
//   - OpenTelemetry distributed tracing middleware
//   - Prometheus metrics middleware
//
// Both return standard func(http.Handler) http.Handler middleware, so
// they compose with chi and any other net/http router.
//
// # OpenTelemetry Middleware
//
// The OpenTelemetry middleware traces every HTTP request. Spans are
// named after the chi route pattern that served the request and carry
// the method, target, status code and response size.
//
//	r := chi.NewRouter()
//	r.Use(middleware.OpenTelemetry())
//
// Configure with options:
//
//	middleware.OpenTelemetry(
//	    middleware.WithTracerName("my-app"),
//	    middleware.WithIncludeClientIP(true),
//	    middleware.WithRequestFilter(func(r *http.Request) bool {
//	        return r.URL.Path != "/healthz"
//	    }),
//	)
//
// # Prometheus Metrics
//
// The Prometheus middleware collects metrics about the HTTP surface:
//   - loom_http_requests_total: Requests by route, method and status code
//   - loom_http_request_duration_seconds: Request duration histogram
//   - loom_http_requests_in_flight: Requests currently being served
//   - loom_http_response_bytes_total: Response bytes by route
//
//	r := chi.NewRouter()
//	r.Use(middleware.Prometheus())
//
// Then expose metrics on a separate port:
//
//	http.Handle("/metrics", promhttp.Handler())
//	go http.ListenAndServe(":9090", nil)
//
// Route labels use chi route patterns rather than raw URL paths, so
// cardinality stays bounded regardless of client input. Sessions and
// live-update traffic are measured separately by the server package;
// this package only covers the request/response surface.
//
// # Context Propagation
//
// The tracing middleware stores its span in the request context, so
// database drivers and HTTP clients inherit the trace:
//
//	func MyHandler(w http.ResponseWriter, r *http.Request) {
//	    // Database call inherits trace context
//	    row := db.QueryRowContext(r.Context(), "SELECT ...")
//
//	    // HTTP call inherits trace context
//	    req, _ := http.NewRequestWithContext(r.Context(), "GET", url, nil)
//	}
package middleware
