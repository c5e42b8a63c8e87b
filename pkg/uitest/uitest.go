package uitest

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"golang.org/x/text/language"

	"github.com/loom-ui/loom/pkg/component"
	"github.com/loom-ui/loom/pkg/markup"
	"github.com/loom-ui/loom/pkg/render"
	"github.com/loom-ui/loom/pkg/resource"
)

// Tester drives a page tree through full and partial render passes.
// Markup comes from an in-memory finder fed through AddMarkup; events
// dispatch synchronously on the caller's goroutine.
type Tester struct {
	t        *testing.T
	finder   *resource.MapFinder
	cache    *markup.Cache
	renderer *render.Renderer
	locale   language.Tag
	root     component.Component
	html     string
	updates  map[string]string
}

// New returns a tester bound to t. The markup cache is released when
// the test finishes.
func New(t *testing.T) *Tester {
	t.Helper()
	finder := resource.NewMapFinder()
	cache, err := markup.NewCache(markup.NewLocator(finder), markup.DefaultCacheConfig())
	if err != nil {
		t.Fatalf("uitest: markup cache: %v", err)
	}
	t.Cleanup(cache.Close)
	return &Tester{
		t:        t,
		finder:   finder,
		cache:    cache,
		renderer: render.NewRenderer(cache),
		locale:   language.Und,
		updates:  map[string]string{},
	}
}

// AddMarkup registers a template under the given logical name.
func (ts *Tester) AddMarkup(name, html string) {
	ts.finder.Put(name+".html", html)
}

// Finder exposes the backing markup source for tests that need locale
// or style variants beyond AddMarkup.
func (ts *Tester) Finder() *resource.MapFinder { return ts.finder }

// SetLocale sets the locale used for markup lookup in later renders.
func (ts *Tester) SetLocale(tag language.Tag) { ts.locale = tag }

// StartPage renders root as a full page and returns the HTML. Render
// failures fail the test; use the render package directly to assert on
// them.
func (ts *Tester) StartPage(root component.Component) string {
	ts.t.Helper()
	ts.root = root
	return ts.Render()
}

// Render runs another full render pass over the started page.
func (ts *Tester) Render() string {
	ts.t.Helper()
	if ts.root == nil {
		ts.t.Fatal("uitest: StartPage not called")
	}
	var buf bytes.Buffer
	if err := ts.renderer.Page(context.Background(), &buf, ts.root, ts.locale); err != nil {
		ts.t.Fatalf("uitest: render: %v", err)
	}
	ts.html = buf.String()
	return ts.html
}

// HTML returns the output of the last full render.
func (ts *Tester) HTML() string { return ts.html }

// Root returns the started page root.
func (ts *Tester) Root() component.Component { return ts.root }

// Event dispatches a client event to the component at path, then
// re-renders every component the handler marked with Refresh. The
// fragments are retrievable through Update. Dispatch rejections are
// returned; render failures after a successful dispatch fail the test.
func (ts *Tester) Event(path, event string, args map[string]any) error {
	ts.t.Helper()
	if ts.root == nil {
		ts.t.Fatal("uitest: StartPage not called")
	}
	if err := component.Dispatch(ts.root, path, event, args); err != nil {
		return err
	}
	ts.updates = map[string]string{}
	for _, c := range ts.takeDirty() {
		if c == ts.root {
			ts.updates[""] = ts.Render()
			continue
		}
		var buf bytes.Buffer
		if err := ts.renderer.Component(context.Background(), &buf, c, ts.locale); err != nil {
			ts.t.Fatalf("uitest: partial render %q: %v", c.Path(), err)
		}
		ts.updates[c.Path()] = buf.String()
	}
	return nil
}

// Click dispatches a click event to path and fails the test on
// rejection.
func (ts *Tester) Click(path string) {
	ts.t.Helper()
	if err := ts.Event(path, "click", nil); err != nil {
		ts.t.Fatalf("uitest: click %q: %v", path, err)
	}
}

// Update returns the re-rendered fragment for path from the last
// event, if the component at path was refreshed. A full page re-render
// caused by refreshing the root is stored under the empty path.
func (ts *Tester) Update(path string) (string, bool) {
	s, ok := ts.updates[path]
	return s, ok
}

// Updates returns every fragment from the last event, keyed by
// component path.
func (ts *Tester) Updates() map[string]string { return ts.updates }

// ExpectComponent asserts a component exists at path and returns it.
func (ts *Tester) ExpectComponent(path string) component.Component {
	ts.t.Helper()
	c := ts.find(path)
	if c == nil {
		ts.t.Fatalf("expected a component at %q", path)
	}
	return c
}

// ExpectState asserts the lifecycle state of the component at path.
func (ts *Tester) ExpectState(path string, want component.State) {
	ts.t.Helper()
	c := ts.ExpectComponent(path)
	if c.State() != want {
		ts.t.Errorf("component %q state = %v, want %v", path, c.State(), want)
	}
}

// ExpectVisible asserts the visibility flag of the component at path.
func (ts *Tester) ExpectVisible(path string, want bool) {
	ts.t.Helper()
	c := ts.ExpectComponent(path)
	if c.Visible() != want {
		ts.t.Errorf("component %q visible = %v, want %v", path, c.Visible(), want)
	}
}

// ExpectContains asserts the last full render contains the substring.
func (ts *Tester) ExpectContains(want string) {
	ts.t.Helper()
	if !strings.Contains(ts.html, want) {
		ts.t.Errorf("expected rendered page to contain %q, got:\n%s", want, truncate(ts.html, 500))
	}
}

// ExpectNotContains asserts the last full render does not contain the
// substring.
func (ts *Tester) ExpectNotContains(unwanted string) {
	ts.t.Helper()
	if strings.Contains(ts.html, unwanted) {
		ts.t.Errorf("expected rendered page to NOT contain %q, got:\n%s", unwanted, truncate(ts.html, 500))
	}
}

// ExpectTagAttribute asserts the rendered tag of the component at path
// carries the attribute value in the last full render.
func (ts *Tester) ExpectTagAttribute(path, attr, value string) {
	ts.t.Helper()
	tag, ok := ts.renderedTag(path)
	if !ok {
		ts.t.Errorf("expected rendered output to contain a tag for %q, got:\n%s", path, truncate(ts.html, 500))
		return
	}
	needle := attr + `="` + value + `"`
	if !strings.Contains(tag, needle) {
		ts.t.Errorf("expected tag for %q to carry %s, got: %s", path, needle, tag)
	}
}

// renderedTag extracts the opening tag carrying the path attribute for
// path from the last full render.
func (ts *Tester) renderedTag(path string) (string, bool) {
	marker := render.PathAttribute + `="` + path + `"`
	idx := strings.Index(ts.html, marker)
	if idx < 0 {
		return "", false
	}
	start := strings.LastIndex(ts.html[:idx], "<")
	end := strings.Index(ts.html[idx:], ">")
	if start < 0 || end < 0 {
		return "", false
	}
	return ts.html[start : idx+end+1], true
}

func (ts *Tester) find(path string) component.Component {
	if ts.root == nil {
		ts.t.Fatal("uitest: StartPage not called")
	}
	if path == "" {
		return ts.root
	}
	cur := ts.root
	for _, seg := range strings.Split(path, component.PathSeparator) {
		cur = cur.Child(seg)
		if cur == nil {
			return nil
		}
	}
	return cur
}

// dirtyTracker is satisfied by every component embedding a Base.
type dirtyTracker interface {
	TakeDirty() []component.Component
}

func (ts *Tester) takeDirty() []component.Component {
	if d, ok := ts.root.(dirtyTracker); ok {
		return d.TakeDirty()
	}
	return nil
}

// truncate shortens long HTML in failure messages.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
