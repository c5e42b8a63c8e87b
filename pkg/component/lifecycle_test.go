package component

import (
	"errors"
	"strings"
	"testing"
)

// hookLog records hook invocations as "id.Hook" entries so tests can
// assert exact ordering across a tree.
type hookLog struct {
	calls []string
}

func (l *hookLog) add(id, hook string) {
	l.calls = append(l.calls, id+"."+hook)
}

func (l *hookLog) count(entry string) int {
	n := 0
	for _, c := range l.calls {
		if c == entry {
			n++
		}
	}
	return n
}

func (l *hookLog) contains(entry string) bool {
	return l.count(entry) > 0
}

func (l *hookLog) containsPrefix(prefix string) bool {
	for _, c := range l.calls {
		if strings.HasPrefix(c, prefix) {
			return true
		}
	}
	return false
}

// probe is a component that logs every hook and can skip exactly one
// base call to provoke contract violations.
type probe struct {
	Base

	log      *hookLog
	skipBase string

	configure func(p *probe)
	prepare   func(p *probe)
}

func newProbe(id string, log *hookLog) *probe {
	return &probe{Base: NewBase(id), log: log}
}

func (p *probe) OnInitialize() {
	p.log.add(p.ID(), "OnInitialize")
	if p.skipBase != "OnInitialize" {
		p.Base.OnInitialize()
	}
}

func (p *probe) OnConfigure() {
	p.log.add(p.ID(), "OnConfigure")
	if p.configure != nil {
		p.configure(p)
	}
	if p.skipBase != "OnConfigure" {
		p.Base.OnConfigure()
	}
}

func (p *probe) OnBeforeRender() {
	p.log.add(p.ID(), "OnBeforeRender")
	if p.prepare != nil {
		p.prepare(p)
	}
	if p.skipBase != "OnBeforeRender" {
		p.Base.OnBeforeRender()
	}
}

func (p *probe) OnTag(tag *Tag) {
	p.log.add(p.ID(), "OnTag")
	if p.skipBase != "OnTag" {
		p.Base.OnTag(tag)
	}
}

func (p *probe) OnBody(body Body) error {
	p.log.add(p.ID(), "OnBody")
	return p.Base.OnBody(body)
}

func (p *probe) OnAfterRender() {
	p.log.add(p.ID(), "OnAfterRender")
	if p.skipBase != "OnAfterRender" {
		p.Base.OnAfterRender()
	}
}

func (p *probe) OnRemove() {
	p.log.add(p.ID(), "OnRemove")
	if p.skipBase != "OnRemove" {
		p.Base.OnRemove()
	}
}

// discardBody satisfies Body for structure-level tests; RenderBody
// streams nothing.
type discardBody struct {
	strings.Builder
}

func (*discardBody) RenderBody() error { return nil }

// renderPass drives a minimal full pass at the component level:
// structure, a flat output walk over visible children (tag then body),
// then finalize.
func renderPass(t *testing.T, root Component) error {
	t.Helper()
	if err := Prepare(root); err != nil {
		return err
	}
	for _, c := range root.Children() {
		if !c.Visible() {
			continue
		}
		tag := NewTag("span", nil)
		if err := BuildTag(c, tag); err != nil {
			return err
		}
		if err := c.OnBody(&discardBody{}); err != nil {
			return err
		}
	}
	return Finalize(root)
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateConstructed, "Constructed"},
		{StateInitialized, "Initialized"},
		{StateConfigured, "Configured"},
		{StateRenderPrepared, "RenderPrepared"},
		{StateRendered, "Rendered"},
		{StateRemoved, "Removed"},
		{State(42), "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.state.String(); got != tt.want {
				t.Errorf("State.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestInitializeRunsOnce(t *testing.T) {
	log := &hookLog{}
	root := newProbe("r", log)
	child := newProbe("a", log)
	root.Add(child)

	for pass := 0; pass < 3; pass++ {
		if err := renderPass(t, root); err != nil {
			t.Fatalf("pass %d: %v", pass, err)
		}
	}

	if got := log.count("r.OnInitialize"); got != 1 {
		t.Errorf("root OnInitialize ran %d times, want 1", got)
	}
	if got := log.count("a.OnInitialize"); got != 1 {
		t.Errorf("child OnInitialize ran %d times, want 1", got)
	}
	if got := log.count("a.OnConfigure"); got != 3 {
		t.Errorf("child OnConfigure ran %d times, want 3", got)
	}
}

func TestInvisibleGetsConfigureOnly(t *testing.T) {
	log := &hookLog{}
	root := newProbe("r", log)
	hidden := newProbe("b", log)
	hidden.SetVisible(false)
	root.Add(hidden)

	if err := renderPass(t, root); err != nil {
		t.Fatalf("renderPass() error = %v", err)
	}

	if !log.contains("b.OnConfigure") {
		t.Error("invisible component did not get OnConfigure")
	}
	for _, hook := range []string{"OnBeforeRender", "OnTag", "OnBody"} {
		if log.contains("b." + hook) {
			t.Errorf("invisible component got %s", hook)
		}
	}
	if got := hidden.State(); got != StateConfigured {
		t.Errorf("invisible component state = %v, want %v", got, StateConfigured)
	}
}

func TestFullPassHookOrder(t *testing.T) {
	log := &hookLog{}
	root := newProbe("r", log)
	a := newProbe("a", log)
	b := newProbe("b", log)
	b.SetVisible(false)
	root.Add(a, b)

	if err := renderPass(t, root); err != nil {
		t.Fatalf("renderPass() error = %v", err)
	}

	want := []string{
		"r.OnInitialize",
		"r.OnConfigure",
		"r.OnBeforeRender",
		"a.OnInitialize",
		"a.OnConfigure",
		"a.OnBeforeRender",
		"b.OnInitialize",
		"b.OnConfigure",
		"a.OnTag",
		"a.OnBody",
		"a.OnAfterRender",
		"r.OnAfterRender",
	}
	if len(log.calls) != len(want) {
		t.Fatalf("hook calls = %v, want %v", log.calls, want)
	}
	for i := range want {
		if log.calls[i] != want[i] {
			t.Fatalf("hook call %d = %v, want %v (full: %v)", i, log.calls[i], want[i], log.calls)
		}
	}
}

func TestMissingBaseCall(t *testing.T) {
	tests := []struct {
		hook string
	}{
		{"OnInitialize"},
		{"OnConfigure"},
		{"OnBeforeRender"},
		{"OnAfterRender"},
	}

	for _, tt := range tests {
		t.Run(tt.hook, func(t *testing.T) {
			log := &hookLog{}
			root := newProbe("r", log)
			bad := newProbe("bad", log)
			bad.skipBase = tt.hook
			root.Add(bad)

			err := renderPass(t, root)
			if err == nil {
				t.Fatalf("renderPass() with skipped %s base call succeeded", tt.hook)
			}
			if !errors.Is(err, ErrHierarchyUninitialized) {
				t.Errorf("error = %v, want ErrHierarchyUninitialized", err)
			}
			var herr *HierarchyError
			if !errors.As(err, &herr) {
				t.Fatalf("error type = %T, want *HierarchyError", err)
			}
			if herr.Path != "bad" {
				t.Errorf("HierarchyError.Path = %q, want %q", herr.Path, "bad")
			}
			if herr.Hook != tt.hook {
				t.Errorf("HierarchyError.Hook = %q, want %q", herr.Hook, tt.hook)
			}
		})
	}
}

func TestMissingTagBaseCall(t *testing.T) {
	log := &hookLog{}
	root := newProbe("r", log)
	bad := newProbe("bad", log)
	bad.skipBase = "OnTag"
	root.Add(bad)

	if err := Prepare(root); err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	err := BuildTag(bad, NewTag("span", nil))
	if !errors.Is(err, ErrHierarchyUninitialized) {
		t.Errorf("BuildTag() error = %v, want ErrHierarchyUninitialized", err)
	}
}

func TestMissingRemoveBaseCall(t *testing.T) {
	log := &hookLog{}
	root := newProbe("r", log)
	bad := newProbe("bad", log)
	bad.skipBase = "OnRemove"
	root.Add(bad)

	err := root.Remove("bad")
	if !errors.Is(err, ErrHierarchyUninitialized) {
		t.Errorf("Remove() error = %v, want ErrHierarchyUninitialized", err)
	}
}

func TestPrepareViolationHaltsSubtree(t *testing.T) {
	log := &hookLog{}
	root := newProbe("r", log)
	bad := newProbe("bad", log)
	bad.skipBase = "OnBeforeRender"
	grandchild := newProbe("gc", log)
	bad.Add(grandchild)
	sibling := newProbe("sib", log)
	root.Add(bad, sibling)

	err := renderPass(t, root)
	if !errors.Is(err, ErrHierarchyUninitialized) {
		t.Fatalf("renderPass() error = %v, want ErrHierarchyUninitialized", err)
	}

	// The violation surfaces before any sibling or descendant runs.
	if log.containsPrefix("sib.") {
		t.Errorf("sibling hooks ran after violation: %v", log.calls)
	}
	if log.containsPrefix("gc.") {
		t.Errorf("grandchild hooks ran despite skipped base recursion: %v", log.calls)
	}
	if log.contains("bad.OnTag") || log.contains("bad.OnBody") {
		t.Errorf("violating component rendered: %v", log.calls)
	}
}

func TestSwapLeafComponents(t *testing.T) {
	log := &hookLog{}
	root := newProbe("r", log)
	first := newProbe("label", log)
	root.Add(first)

	if err := renderPass(t, root); err != nil {
		t.Fatalf("first pass: %v", err)
	}

	second := newProbe("label", log)
	if err := root.Replace(second); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}
	if err := renderPass(t, root); err != nil {
		t.Fatalf("second pass: %v", err)
	}

	if got := len(root.Children()); got != 1 {
		t.Fatalf("children after swap = %d, want 1", got)
	}
	if root.Child("label") != Component(second) {
		t.Error("tree does not hold the swapped-in component")
	}
	if got := first.State(); got != StateRemoved {
		t.Errorf("swapped-out state = %v, want %v", got, StateRemoved)
	}
	if got := second.State(); got != StateRendered {
		t.Errorf("swapped-in state = %v, want %v", got, StateRendered)
	}
	if got := log.count("label.OnInitialize"); got != 2 {
		t.Errorf("OnInitialize across both labels = %d, want 2", got)
	}
	if !log.contains("label.OnRemove") {
		t.Error("swapped-out component did not get OnRemove")
	}
}

func TestTagMutationsAfterBaseSurvive(t *testing.T) {
	m := &mutator{Base: NewBase("m")}
	m.Attach(AppendClass("extra"))

	if err := Prepare(m); err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}

	// Override mutates after its base call; the behavior appends after
	// the override; nothing later overwrites either.
	tag := NewTag("a", []Attr{{Key: "class", Value: "base"}, {Key: "href", Value: "#"}})
	if err := BuildTag(m, tag); err != nil {
		t.Fatalf("BuildTag() error = %v", err)
	}

	if got, _ := tag.Get("class"); got != "base custom extra" {
		t.Errorf("class = %q, want %q", got, "base custom extra")
	}
	if got, _ := tag.Get("data-added"); got != "yes" {
		t.Errorf("data-added = %q, want %q", got, "yes")
	}
	if got, _ := tag.Get("href"); got != "#" {
		t.Errorf("href = %q, want %q", got, "#")
	}
}

// mutator customizes its tag on top of the base defaults.
type mutator struct {
	Base
}

func (m *mutator) OnTag(tag *Tag) {
	m.Base.OnTag(tag)
	tag.Append("class", "custom", " ")
	tag.Set("data-added", "yes")
}

func TestRestructureBeforeBaseIncludesNewChild(t *testing.T) {
	log := &hookLog{}
	root := newProbe("r", log)
	late := newProbe("late", log)

	attached := false
	root.prepare = func(p *probe) {
		if !attached {
			p.Add(late)
			attached = true
		}
	}

	if err := Prepare(root); err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if got := late.State(); got != StateRenderPrepared {
		t.Errorf("child attached before base call: state = %v, want %v", got, StateRenderPrepared)
	}
}

// baseFirstAdder violates the ordering contract: it calls the base
// before restructuring, so the new child misses the recursion.
type baseFirstAdder struct {
	Base
	child Component
	added bool
}

func (a *baseFirstAdder) OnBeforeRender() {
	a.Base.OnBeforeRender()
	if !a.added {
		a.Add(a.child)
		a.added = true
	}
}

func TestRestructureAfterBaseDetectedAtOutput(t *testing.T) {
	log := &hookLog{}
	late := newProbe("late", log)
	root := &baseFirstAdder{Base: NewBase("r"), child: late}

	if err := Prepare(root); err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if got := late.State(); got == StateRenderPrepared {
		t.Fatal("child attached after base call should not be prepared")
	}

	err := BuildTag(late, NewTag("span", nil))
	if !errors.Is(err, ErrHierarchyUninitialized) {
		t.Errorf("BuildTag() on unprepared child error = %v, want ErrHierarchyUninitialized", err)
	}
}

func TestStateProgression(t *testing.T) {
	log := &hookLog{}
	c := newProbe("c", log)

	if got := c.State(); got != StateConstructed {
		t.Fatalf("fresh state = %v, want %v", got, StateConstructed)
	}
	if err := Prepare(c); err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if got := c.State(); got != StateRenderPrepared {
		t.Errorf("after prepare state = %v, want %v", got, StateRenderPrepared)
	}
	if err := Finalize(c); err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}
	if got := c.State(); got != StateRendered {
		t.Errorf("after finalize state = %v, want %v", got, StateRendered)
	}

	// Next pass with visibility off stops after configure.
	c.SetVisible(false)
	if err := Prepare(c); err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if got := c.State(); got != StateConfigured {
		t.Errorf("invisible pass state = %v, want %v", got, StateConfigured)
	}
	if err := Finalize(c); err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}

	root := newProbe("root", log)
	root.Add(c)
	if err := root.Remove("c"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if got := c.State(); got != StateRemoved {
		t.Errorf("after remove state = %v, want %v", got, StateRemoved)
	}

	// Removed components cannot re-enter the lifecycle.
	if err := Prepare(c); !errors.Is(err, ErrRemoved) {
		t.Errorf("Prepare() on removed component error = %v, want ErrRemoved", err)
	}
}

func TestRemoveFiresChildrenFirst(t *testing.T) {
	log := &hookLog{}
	root := newProbe("r", log)
	parent := newProbe("p", log)
	child := newProbe("c", log)
	parent.Add(child)
	root.Add(parent)

	if err := root.Remove("p"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}

	want := []string{"c.OnRemove", "p.OnRemove"}
	if len(log.calls) != 2 || log.calls[0] != want[0] || log.calls[1] != want[1] {
		t.Errorf("remove order = %v, want %v", log.calls, want)
	}
	if child.State() != StateRemoved || parent.State() != StateRemoved {
		t.Error("removed subtree not marked Removed")
	}
}

func TestTeardownRemovesRoot(t *testing.T) {
	log := &hookLog{}
	root := newProbe("r", log)
	child := newProbe("c", log)
	root.Add(child)

	if err := Teardown(root); err != nil {
		t.Fatalf("Teardown() error = %v", err)
	}

	want := []string{"c.OnRemove", "r.OnRemove"}
	if len(log.calls) != 2 || log.calls[0] != want[0] || log.calls[1] != want[1] {
		t.Errorf("teardown order = %v, want %v", log.calls, want)
	}
	if root.State() != StateRemoved {
		t.Errorf("root state = %v, want %v", root.State(), StateRemoved)
	}
	if err := Prepare(root); !errors.Is(err, ErrRemoved) {
		t.Errorf("Prepare() after Teardown error = %v, want ErrRemoved", err)
	}
}

func TestAddPanics(t *testing.T) {
	log := &hookLog{}

	tests := []struct {
		name string
		fn   func()
	}{
		{
			name: "nil child",
			fn: func() {
				root := newProbe("r", log)
				root.Add(nil)
			},
		},
		{
			name: "duplicate id",
			fn: func() {
				root := newProbe("r", log)
				root.Add(newProbe("x", log), newProbe("x", log))
			},
		},
		{
			name: "removed child",
			fn: func() {
				root := newProbe("r", log)
				c := newProbe("x", log)
				root.Add(c)
				if err := root.Remove("x"); err != nil {
					t.Fatalf("Remove() error = %v", err)
				}
				root.Add(c)
			},
		},
		{
			name: "empty id",
			fn:   func() { NewBase("") },
		},
		{
			name: "id with separator",
			fn:   func() { NewBase("a:b") },
		},
		{
			name: "already parented",
			fn: func() {
				r1 := newProbe("r1", log)
				r2 := newProbe("r2", log)
				c := newProbe("x", log)
				r1.Add(c)
				r2.Add(c)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("expected panic")
				}
			}()
			tt.fn()
		})
	}
}

func TestPathAndGet(t *testing.T) {
	log := &hookLog{}
	root := newProbe("page", log)
	border := newProbe("border", log)
	label := newProbe("label", log)
	border.Add(label)
	root.Add(border)

	if got := root.Path(); got != "" {
		t.Errorf("root Path() = %q, want %q", got, "")
	}
	if got := border.Path(); got != "border" {
		t.Errorf("border Path() = %q, want %q", got, "border")
	}
	if got := label.Path(); got != "border:label" {
		t.Errorf("label Path() = %q, want %q", got, "border:label")
	}

	if got := root.Get("border:label"); got != Component(label) {
		t.Errorf("Get(border:label) = %v, want the label", got)
	}
	if got := root.Get(""); got != Component(root) {
		t.Error("Get(\"\") should return the component itself")
	}
	if got := root.Get("border:missing"); got != nil {
		t.Errorf("Get(missing) = %v, want nil", got)
	}
	if got := label.Parent(); got != Component(border) {
		t.Errorf("label Parent() = %v, want the border", got)
	}
}

func TestBehaviorBindAndOrder(t *testing.T) {
	log := &hookLog{}
	root := newProbe("r", log)
	c := newProbe("c", log)
	c.SetVisible(false)
	root.Add(c)

	rec := &recordingBehavior{}
	c.Attach(rec)
	if rec.bound != 0 {
		t.Fatal("Bind fired before initialization")
	}

	if err := Prepare(root); err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if rec.bound != 1 {
		t.Errorf("Bind fired %d times, want 1", rec.bound)
	}
	// Invisible components still run behavior configure hooks.
	if rec.configured != 1 {
		t.Errorf("behavior OnConfigure ran %d times, want 1", rec.configured)
	}

	late := &recordingBehavior{}
	c.Attach(late)
	if late.bound != 1 {
		t.Error("Bind on an initialized component should fire immediately")
	}
}

// recordingBehavior counts its hook invocations.
type recordingBehavior struct {
	NopBehavior
	bound      int
	configured int
}

func (b *recordingBehavior) Bind(Component) { b.bound++ }

func (b *recordingBehavior) OnConfigure(Component) { b.configured++ }

func TestReplaceWithoutExisting(t *testing.T) {
	log := &hookLog{}
	root := newProbe("r", log)
	c := newProbe("c", log)

	if err := root.Replace(c); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}
	if root.Child("c") != Component(c) {
		t.Error("Replace without an existing child should behave like Add")
	}
}

func TestHierarchyErrorMessage(t *testing.T) {
	err := &HierarchyError{Path: "border:label", Hook: "OnBeforeRender", Err: ErrHierarchyUninitialized}
	want := "component border:label: OnBeforeRender: component: hierarchy not properly initialized"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
