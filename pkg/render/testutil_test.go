package render

import (
	"bytes"
	"context"
	"strconv"
	"testing"

	"golang.org/x/text/language"

	"github.com/loom-ui/loom/pkg/component"
	"github.com/loom-ui/loom/pkg/markup"
	"github.com/loom-ui/loom/pkg/resource"
)

func testRenderer(t *testing.T, templates map[string]string) *Renderer {
	t.Helper()
	finder := resource.NewMapFinder()
	for name, src := range templates {
		finder.Put(name, src)
	}
	cache, err := markup.NewCache(markup.NewLocator(finder), markup.DefaultCacheConfig())
	if err != nil {
		t.Fatalf("NewCache() error = %v", err)
	}
	t.Cleanup(cache.Close)
	return NewRenderer(cache)
}

func renderPage(t *testing.T, r *Renderer, root component.Component) string {
	t.Helper()
	var buf bytes.Buffer
	if err := r.Page(context.Background(), &buf, root, language.Und); err != nil {
		t.Fatalf("Page() error = %v", err)
	}
	return buf.String()
}

// page is a tree root with an associated template.
type page struct {
	component.Base
	markup string
}

func newPage(id, markupName string) *page {
	return &page{Base: component.NewBase(id), markup: markupName}
}

func (p *page) MarkupName() string { return p.markup }

// box is a plain container.
type box struct{ component.Base }

func newBox(id string) *box {
	return &box{Base: component.NewBase(id)}
}

// label substitutes its body with escaped text.
type label struct {
	component.Base
	text string
}

func newLabel(id, text string) *label {
	return &label{Base: component.NewBase(id), text: text}
}

func (l *label) OnBody(body component.Body) error {
	_, err := body.WriteString(EscapeHTML(l.text))
	return err
}

// panel owns its markup; the inline body in the enclosing template is
// replaced by the panel template.
type panel struct {
	component.Base
	markup string
}

func newPanel(id, markupName string) *panel {
	return &panel{Base: component.NewBase(id), markup: markupName}
}

func (p *panel) MarkupName() string { return p.markup }

// repeater rebuilds one row per item during the structure phase.
type repeater struct {
	component.Base
	items []string
	rows  []component.Component
	build func(row *box, item string)
}

func newRepeater(id string, items []string, build func(row *box, item string)) *repeater {
	return &repeater{Base: component.NewBase(id), items: items, build: build}
}

func (r *repeater) OnBeforeRender() {
	_ = r.RemoveAll()
	r.rows = r.rows[:0]
	for i, item := range r.items {
		row := newBox(strconv.Itoa(i))
		r.build(row, item)
		r.Add(row)
		r.rows = append(r.rows, row)
	}
	r.Base.OnBeforeRender()
}

func (r *repeater) Rows() []component.Component { return r.rows }
