package render

import (
	"context"
	"errors"
	"io"

	"github.com/valyala/bytebufferpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/language"

	"github.com/loom-ui/loom/pkg/component"
	"github.com/loom-ui/loom/pkg/markup"
)

// PathAttribute carries the page-relative component path on rendered
// tags. The thin client addresses events and partial updates with it.
const PathAttribute = "data-loom"

// Renderer executes render passes over component trees. It is
// stateless apart from the template cache and safe for concurrent use
// across requests; a single tree must only render on one goroutine at
// a time.
type Renderer struct {
	cache  *markup.Cache
	tracer trace.Tracer
}

// NewRenderer returns a Renderer drawing templates from cache. The
// tracer comes from the global OpenTelemetry provider, so providers
// installed later still receive the render spans.
func NewRenderer(cache *markup.Cache) *Renderer {
	return &Renderer{cache: cache, tracer: otel.Tracer(tracerName)}
}

// Page runs a full render pass over root and writes the resulting
// document. The page template is named by the root's MarkupName, or
// its id when the root does not own markup. An invisible root
// produces an empty response.
func (r *Renderer) Page(ctx context.Context, w io.Writer, root component.Component, locale language.Tag) (err error) {
	ctx, span := r.startPass(ctx, "render.page",
		attribute.String("loom.page", markupName(root)),
		attribute.String("loom.locale", locale.String()))
	defer func() { endPass(span, err) }()

	if err := component.Prepare(root); err != nil {
		return err
	}
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	if root.Visible() {
		m, err := r.cache.Get(ctx, markupName(root), locale)
		if err != nil {
			return err
		}
		if err := r.segments(ctx, buf, root, m.Segments, locale, nil); err != nil {
			return err
		}
	}
	if err := component.Finalize(root); err != nil {
		return err
	}
	_, err = w.Write(buf.Bytes())
	return err
}

// Component re-renders a single component subtree for a partial
// update. The component's region is located in the markup of its
// nearest enclosing owner, it runs through the same prepare, output,
// finish phases as a full pass, and the fragment is written whole.
func (r *Renderer) Component(ctx context.Context, w io.Writer, c component.Component, locale language.Tag) (err error) {
	ctx, span := r.startPass(ctx, "render.partial",
		attribute.String("loom.component", c.Path()),
		attribute.String("loom.locale", locale.String()))
	defer func() { endPass(span, err) }()

	if err := component.Prepare(c); err != nil {
		return err
	}
	bd, err := r.bindingFor(ctx, c, locale)
	if err != nil {
		return err
	}
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	if err := r.bound(ctx, buf, c, bd.region, locale, bd.slot); err != nil {
		return err
	}
	if err := component.Finalize(c); err != nil {
		return err
	}
	_, err = w.Write(buf.Bytes())
	return err
}

// segments streams one segment list: raw runs verbatim, regions
// through their bound components. slot carries the enclosing body
// content while walking a border's own template.
func (r *Renderer) segments(ctx context.Context, buf *bytebufferpool.ByteBuffer, owner component.Component, segs []markup.Segment, locale language.Tag, slot []markup.Segment) error {
	for _, seg := range segs {
		switch s := seg.(type) {
		case markup.Raw:
			buf.Write(s.Bytes)
		case *markup.Region:
			if err := r.region(ctx, buf, owner, s, locale, slot); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *Renderer) region(ctx context.Context, buf *bytebufferpool.ByteBuffer, owner component.Component, reg *markup.Region, locale language.Tag, slot []markup.Segment) error {
	if reg.LID == markup.SlotID {
		if slot == nil {
			return &PassError{LID: reg.LID, Err: ErrNoSlot}
		}
		return r.segments(ctx, buf, owner, slot, locale, nil)
	}
	child := owner.Child(reg.LID)
	if child == nil {
		return &PassError{Path: joinPath(owner, reg.LID), LID: reg.LID, Err: ErrNoComponent}
	}
	return r.bound(ctx, buf, child, reg, locale, slot)
}

// bound renders a component into its region, honoring visibility and
// repeating the region for repeaters.
func (r *Renderer) bound(ctx context.Context, buf *bytebufferpool.ByteBuffer, c component.Component, reg *markup.Region, locale language.Tag, slot []markup.Segment) error {
	if !c.Visible() {
		if c.OutputPlaceholder() {
			writePlaceholder(buf, c.Path(), reg)
		}
		return nil
	}
	if rep, ok := c.(component.Repeater); ok {
		for _, row := range rep.Rows() {
			if !row.Visible() {
				if row.OutputPlaceholder() {
					writePlaceholder(buf, row.Path(), reg)
				}
				continue
			}
			if err := r.renderOne(ctx, buf, row, reg, locale, slot); err != nil {
				return err
			}
		}
		return nil
	}
	return r.renderOne(ctx, buf, c, reg, locale, slot)
}

func (r *Renderer) renderOne(ctx context.Context, buf *bytebufferpool.ByteBuffer, c component.Component, reg *markup.Region, locale language.Tag, slot []markup.Segment) error {
	tag := component.NewTag(reg.Elem, reg.Attrs)
	tag.Set(PathAttribute, c.Path())
	if err := component.BuildTag(c, tag); err != nil {
		return err
	}
	writeTag(buf, tag)
	if reg.Void {
		return nil
	}

	body := &bodyWriter{r: r, ctx: ctx, buf: buf, owner: c, locale: locale}
	if mo, ok := c.(component.MarkupOwner); ok {
		own, err := r.cache.Get(ctx, mo.MarkupName(), locale)
		if err != nil {
			return err
		}
		body.segs = own.Segments
		body.slot = reg.Body
	} else {
		body.segs = reg.Body
		body.slot = slot
	}
	if err := c.OnBody(body); err != nil {
		var pe *PassError
		if errors.As(err, &pe) {
			return err
		}
		return &PassError{Path: c.Path(), Err: err}
	}
	writeClose(buf, tag.Name())
	return nil
}

// bodyWriter implements component.Body over the pass buffer.
type bodyWriter struct {
	r      *Renderer
	ctx    context.Context
	buf    *bytebufferpool.ByteBuffer
	owner  component.Component
	segs   []markup.Segment
	slot   []markup.Segment
	locale language.Tag
}

func (b *bodyWriter) Write(p []byte) (int, error) {
	return b.buf.Write(p)
}

func (b *bodyWriter) WriteString(s string) (int, error) {
	return b.buf.WriteString(s)
}

func (b *bodyWriter) RenderBody() error {
	return b.r.segments(b.ctx, b.buf, b.owner, b.segs, b.locale, b.slot)
}

// binding locates a component's region for partial rendering.
type binding struct {
	region *markup.Region
	slot   []markup.Segment
}

func (r *Renderer) bindingFor(ctx context.Context, c component.Component, locale language.Tag) (binding, error) {
	parent := c.Parent()
	if parent == nil {
		return binding{}, &PassError{Path: c.Path(), Err: ErrNoRegion}
	}
	// Repeater rows render their repeater's own region.
	if _, ok := parent.(component.Repeater); ok {
		return r.bindingFor(ctx, parent, locale)
	}
	segs, slot, err := r.bodySegments(ctx, parent, locale)
	if err != nil {
		return binding{}, err
	}
	if reg := markup.Find(segs, c.ID()); reg != nil {
		return binding{region: reg, slot: slot}, nil
	}
	// Border children can bind inside the enclosing body content.
	if reg := markup.Find(slot, c.ID()); reg != nil {
		return binding{region: reg}, nil
	}
	return binding{}, &PassError{Path: c.Path(), Err: ErrNoRegion}
}

// bodySegments returns the segment list a component's children bind
// into, plus the slot content available while rendering it.
func (r *Renderer) bodySegments(ctx context.Context, c component.Component, locale language.Tag) ([]markup.Segment, []markup.Segment, error) {
	if c.Parent() == nil {
		m, err := r.cache.Get(ctx, markupName(c), locale)
		if err != nil {
			return nil, nil, err
		}
		return m.Segments, nil, nil
	}
	if mo, ok := c.(component.MarkupOwner); ok {
		m, err := r.cache.Get(ctx, mo.MarkupName(), locale)
		if err != nil {
			return nil, nil, err
		}
		var slot []markup.Segment
		if hasSlot(m.Segments) {
			bd, err := r.bindingFor(ctx, c, locale)
			if err != nil {
				return nil, nil, err
			}
			slot = bd.region.Body
		}
		return m.Segments, slot, nil
	}
	bd, err := r.bindingFor(ctx, c, locale)
	if err != nil {
		return nil, nil, err
	}
	return bd.region.Body, bd.slot, nil
}

func hasSlot(segs []markup.Segment) bool {
	for _, s := range segs {
		if reg, ok := s.(*markup.Region); ok {
			if reg.LID == markup.SlotID || hasSlot(reg.Body) {
				return true
			}
		}
	}
	return false
}

func markupName(c component.Component) string {
	if mo, ok := c.(component.MarkupOwner); ok {
		return mo.MarkupName()
	}
	return c.ID()
}

func joinPath(owner component.Component, id string) string {
	if p := owner.Path(); p != "" {
		return p + component.PathSeparator + id
	}
	return id
}
