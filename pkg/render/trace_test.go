package render

import (
	"bytes"
	"context"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/text/language"
)

// captureTracer records spans started through it so tests can inspect
// names, attributes and status without pulling in the SDK.
type captureTracer struct {
	noop.Tracer
	spans []*captureSpan
}

func (tr *captureTracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	cfg := trace.NewSpanStartConfig(opts...)
	span := &captureSpan{name: name, attrs: cfg.Attributes()}
	tr.spans = append(tr.spans, span)
	return trace.ContextWithSpan(ctx, span), span
}

type captureSpan struct {
	noop.Span
	name   string
	attrs  []attribute.KeyValue
	status codes.Code
	ended  bool
}

func (s *captureSpan) End(...trace.SpanEndOption)             { s.ended = true }
func (s *captureSpan) SetAttributes(kv ...attribute.KeyValue) { s.attrs = append(s.attrs, kv...) }
func (s *captureSpan) SetStatus(code codes.Code, _ string)    { s.status = code }

type captureProvider struct {
	noop.TracerProvider
	tracer *captureTracer
}

func (p *captureProvider) Tracer(string, ...trace.TracerOption) trace.Tracer { return p.tracer }

// installCaptureTracer swaps the global tracer provider. NewRenderer
// resolves its tracer at construction time, so this must run before
// testRenderer.
func installCaptureTracer() *captureTracer {
	tr := &captureTracer{}
	otel.SetTracerProvider(&captureProvider{tracer: tr})
	return tr
}

func spanAttr(span *captureSpan, key attribute.Key) (attribute.Value, bool) {
	for _, kv := range span.attrs {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestRenderer_PageSpan(t *testing.T) {
	tr := installCaptureTracer()
	r := testRenderer(t, map[string]string{
		"home.html": `<div data-lid="msg">x</div>`,
	})

	root := newBox("home")
	root.Add(newLabel("msg", "hi"))
	renderPage(t, r, root)

	if len(tr.spans) != 1 {
		t.Fatalf("started %d spans, want 1", len(tr.spans))
	}
	span := tr.spans[0]
	if span.name != "render.page" {
		t.Errorf("span name = %q, want %q", span.name, "render.page")
	}
	if !span.ended {
		t.Error("expected span to be ended")
	}
	if span.status != codes.Ok {
		t.Errorf("span status = %v, want %v", span.status, codes.Ok)
	}
	if v, ok := spanAttr(span, "loom.page"); !ok || v.AsString() != "home" {
		t.Errorf("loom.page = %v, want home", v.Emit())
	}
}

func TestRenderer_PartialSpanRecordsError(t *testing.T) {
	tr := installCaptureTracer()
	r := testRenderer(t, map[string]string{})

	// A detached component has no region to bind to.
	var buf bytes.Buffer
	err := r.Component(context.Background(), &buf, newLabel("lost", "x"), language.Und)
	if err == nil {
		t.Fatal("Component() error = nil, want a binding failure")
	}

	if len(tr.spans) != 1 {
		t.Fatalf("started %d spans, want 1", len(tr.spans))
	}
	span := tr.spans[0]
	if span.name != "render.partial" {
		t.Errorf("span name = %q, want %q", span.name, "render.partial")
	}
	if span.status != codes.Error {
		t.Errorf("span status = %v, want %v", span.status, codes.Error)
	}
	if v, ok := spanAttr(span, "loom.component"); !ok || v.AsString() != "" {
		t.Errorf("loom.component = %v, want the root path", v.Emit())
	}
}
