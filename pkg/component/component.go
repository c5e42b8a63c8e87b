package component

import (
	"fmt"
	"strings"
)

// PathSeparator joins component ids into page-relative paths.
const PathSeparator = ":"

// Component is a node in the UI tree representing one renderable unit.
//
// Component is satisfied by embedding Base; the unexported base method
// seals the interface. All hook methods have Base implementations that
// maintain the bookkeeping the lifecycle controller verifies, so an
// override that fails to call the Base version is detected at run time.
type Component interface {
	// ID returns the component identifier, unique among siblings.
	ID() string

	// Path returns the page-relative path of the component, ids joined
	// by PathSeparator. The tree root returns "".
	Path() string

	// Parent returns the owning component, or nil for the tree root.
	Parent() Component

	// Children returns the current children in attachment order.
	Children() []Component

	// Child returns the direct child with the given id, or nil.
	Child(id string) Component

	// Visible reports whether the component takes part in output.
	Visible() bool

	// Enabled reports whether the component accepts user events.
	Enabled() bool

	// OutputPlaceholder reports whether an invisible component still
	// emits a hidden placeholder tag so it can be made visible by a
	// partial update later.
	OutputPlaceholder() bool

	// State returns the current lifecycle state.
	State() State

	// Behaviors returns the attached behaviors in attachment order.
	Behaviors() []Behavior

	// OnInitialize runs once in the component's lifetime, the first
	// time it participates in a render pass. Overrides must call the
	// Base implementation, which advances the state to Initialized.
	OnInitialize()

	// OnConfigure runs before every render pass, including when the
	// component is invisible. It is the place to mutate visibility and
	// enabled flags. Overrides must call the Base implementation.
	OnConfigure()

	// OnBeforeRender restructures children before tag output. The Base
	// implementation recurses into the children, so overrides must
	// finish their own restructuring first and call the Base at the
	// end; children attached by the override are then included.
	OnBeforeRender()

	// OnTag customizes the component's markup tag. Overrides must call
	// the Base implementation first and mutate on top of the defaults;
	// mutations made after the Base call are kept. The Base
	// implementation leaves the tag unchanged.
	OnTag(tag *Tag)

	// OnBody produces the tag body. The Base implementation streams
	// the original markup body through body.RenderBody. Overrides may
	// substitute content, conditionally or not, and otherwise defer to
	// the Base implementation.
	OnBody(body Body) error

	// OnAfterRender runs once the component's output has been written.
	// Overrides must call the Base implementation.
	OnAfterRender()

	// OnRemove runs when the component is detached from the tree,
	// children first. Overrides must call the Base implementation.
	OnRemove()

	base() *Base
}

// Body is handed to OnBody. Writes go to the render output; RenderBody
// streams the component's original markup body, resolving any nested
// component regions against the component's children.
type Body interface {
	// Write appends raw bytes to the render output. The caller is
	// responsible for escaping.
	Write(p []byte) (int, error)

	// WriteString appends a string to the render output unescaped.
	WriteString(s string) (int, error)

	// RenderBody streams the original markup body.
	RenderBody() error
}

// Listener is implemented by components that react to client events
// delivered over the live channel, addressed by component path.
type Listener interface {
	Component

	// OnEvent handles one client event. The event name is
	// component-defined ("click", "change"). Args carry any payload
	// the client attached.
	OnEvent(event string, args map[string]any) error
}

// Repeater is implemented by components that render their markup
// region once per row instead of once. Row components bind to the
// region's inner markup.
type Repeater interface {
	Component

	// Rows returns the row components for the current pass, in render
	// order. Called after the structure phase, so OnBeforeRender has
	// already rebuilt them.
	Rows() []Component
}

// MarkupOwner is implemented by components whose body comes from their
// own associated markup template rather than the enclosing page's
// inline markup (panels, borders). It is also consulted for tree roots
// to name the page template; roots without it use their id.
type MarkupOwner interface {
	Component

	// MarkupName returns the template name the markup locator resolves.
	MarkupName() string
}

// Base carries the state every component shares and implements the
// default hook behavior. Concrete components embed it:
//
//	type Clock struct {
//	    component.Base
//	}
//
//	func NewClock(id string) *Clock {
//	    return &Clock{Base: component.NewBase(id)}
//	}
//
// The zero Base is not usable; construct with NewBase.
type Base struct {
	id       string
	self     Component
	parent   *Base
	children []Component

	visible     bool
	enabled     bool
	placeholder bool

	state State
	flags passFlags

	behaviors []Behavior
	bound     int // behaviors whose Bind has fired

	// prepareErr carries a child failure out of the void OnBeforeRender
	// hook back to the controller.
	prepareErr error

	// dirty is only used on the tree root: components marked for
	// partial re-render since the last flush.
	dirty []Component
}

// NewBase returns a Base for embedding. The id must be non-empty and
// unique among the component's future siblings.
func NewBase(id string) Base {
	if id == "" {
		panic("component: empty component id")
	}
	if strings.Contains(id, PathSeparator) {
		panic(fmt.Sprintf("component: id %q contains the path separator", id))
	}
	return Base{
		id:      id,
		visible: true,
		enabled: true,
	}
}

// Page is the root of a component tree for one request/response cycle.
// It is a plain container; its markup template is named by MarkupOwner
// or, absent that, by the page id.
type Page struct {
	Base
}

// NewPage returns a Page root with the given id.
func NewPage(id string) Page {
	return Page{Base: NewBase(id)}
}

// bind captures the outer component value the first time it crosses a
// package boundary, so Base methods can hand out the concrete type.
func bind(c Component) *Base {
	b := c.base()
	if b.self == nil {
		b.self = c
	}
	return b
}

func (b *Base) base() *Base { return b }

// ID returns the component identifier.
func (b *Base) ID() string { return b.id }

// Path returns the page-relative path, ids joined by PathSeparator.
// The tree root returns "".
func (b *Base) Path() string {
	if b.parent == nil {
		return ""
	}
	ids := []string{b.id}
	for p := b.parent; p != nil && p.parent != nil; p = p.parent {
		ids = append(ids, p.id)
	}
	for i, j := 0, len(ids)-1; i < j; i, j = i+1, j-1 {
		ids[i], ids[j] = ids[j], ids[i]
	}
	return strings.Join(ids, PathSeparator)
}

// Parent returns the owning component, or nil for the tree root.
func (b *Base) Parent() Component {
	if b.parent == nil {
		return nil
	}
	return b.parent.self
}

// Children returns a copy of the current children in attachment order.
func (b *Base) Children() []Component {
	out := make([]Component, len(b.children))
	copy(out, b.children)
	return out
}

// Child returns the direct child with the given id, or nil.
func (b *Base) Child(id string) Component {
	for _, c := range b.children {
		if c.base().id == id {
			return c
		}
	}
	return nil
}

// Get resolves a descendant by page-relative path ("border:label").
// An empty path returns the component itself; a missing segment
// returns nil.
func (b *Base) Get(path string) Component {
	if path == "" {
		return b.self
	}
	cur := b
	var found Component
	for _, seg := range strings.Split(path, PathSeparator) {
		found = cur.Child(seg)
		if found == nil {
			return nil
		}
		cur = found.base()
	}
	return found
}

// Add attaches children in order. Add panics on a nil child, a
// duplicate sibling id, or a child that has already been removed from
// a tree; these are programmer errors, fatal at the point of
// detection.
func (b *Base) Add(children ...Component) {
	for _, c := range children {
		if c == nil {
			panic("component: Add called with nil child")
		}
		cb := bind(c)
		if cb.state == StateRemoved {
			panic(fmt.Sprintf("component: Add called with removed component %q", cb.id))
		}
		if cb.parent != nil {
			panic(fmt.Sprintf("component: %q already has a parent", cb.id))
		}
		if b.Child(cb.id) != nil {
			panic(fmt.Sprintf("component: duplicate child id %q", cb.id))
		}
		cb.parent = b
		b.children = append(b.children, c)
	}
}

// Replace swaps the child sharing the new child's id for the new
// child. The previous child is detached (OnRemove fires, state becomes
// Removed). If no child with that id exists, Replace behaves like Add.
func (b *Base) Replace(c Component) error {
	if c == nil {
		panic("component: Replace called with nil child")
	}
	old := b.Child(bind(c).id)
	if old != nil {
		if err := b.Remove(old.base().id); err != nil {
			return err
		}
	}
	b.Add(c)
	return nil
}

// Remove detaches the direct child with the given id, firing OnRemove
// depth-first (children before parents) and marking the subtree
// Removed. Removing an unknown id is a no-op.
func (b *Base) Remove(id string) error {
	for i, c := range b.children {
		if c.base().id != id {
			continue
		}
		b.children = append(b.children[:i], b.children[i+1:]...)
		return detach(c)
	}
	return nil
}

// RemoveAll detaches every child, in reverse attachment order.
func (b *Base) RemoveAll() error {
	for len(b.children) > 0 {
		last := b.children[len(b.children)-1]
		if err := b.Remove(last.base().id); err != nil {
			return err
		}
	}
	return nil
}

// Visible reports whether the component takes part in output.
func (b *Base) Visible() bool { return b.visible }

// SetVisible sets the visibility flag. Render passes observe it at
// configure time, so OnConfigure is the natural place to call it.
func (b *Base) SetVisible(v bool) { b.visible = v }

// Enabled reports whether the component accepts user events. The live
// channel refuses events addressed to disabled components.
func (b *Base) Enabled() bool { return b.enabled }

// SetEnabled sets the enabled flag.
func (b *Base) SetEnabled(v bool) { b.enabled = v }

// OutputPlaceholder reports whether an invisible component still emits
// an empty, hidden tag so a later partial update can re-show it in
// place.
func (b *Base) OutputPlaceholder() bool { return b.placeholder }

// SetOutputPlaceholder controls placeholder output for invisible
// passes.
func (b *Base) SetOutputPlaceholder(v bool) { b.placeholder = v }

// State returns the current lifecycle state.
func (b *Base) State() State { return b.state }

// Attach appends behaviors to the component's ordered behavior list.
// Bind fires at attach time once the component is initialized, or at
// initialization otherwise.
func (b *Base) Attach(behaviors ...Behavior) {
	for _, bh := range behaviors {
		if bh == nil {
			panic("component: Attach called with nil behavior")
		}
		b.behaviors = append(b.behaviors, bh)
	}
	if b.state >= StateInitialized {
		b.bindBehaviors()
	}
}

// Behaviors returns a copy of the attached behaviors in order.
func (b *Base) Behaviors() []Behavior {
	out := make([]Behavior, len(b.behaviors))
	copy(out, b.behaviors)
	return out
}

func (b *Base) bindBehaviors() {
	for ; b.bound < len(b.behaviors); b.bound++ {
		b.behaviors[b.bound].Bind(b.self)
	}
}

// Refresh marks the component for partial re-render. The mark is
// recorded on the tree root and collected by the live session after
// the current event handler returns. Refresh outside a live page is a
// no-op.
func (b *Base) Refresh() {
	root := b
	for root.parent != nil {
		root = root.parent
	}
	self := b.self
	if self == nil {
		return
	}
	for _, c := range root.dirty {
		if c == self {
			return
		}
	}
	root.dirty = append(root.dirty, self)
}

// TakeDirty returns and clears the components marked by Refresh since
// the last call. Only meaningful on the tree root.
func (b *Base) TakeDirty() []Component {
	d := b.dirty
	b.dirty = nil
	return d
}

// OnInitialize is the base initialize hook. It advances the state to
// Initialized; the controller checks that advance to detect overrides
// that skipped their base call.
func (b *Base) OnInitialize() {
	if b.state < StateInitialized {
		b.state = StateInitialized
	}
}

// OnConfigure is the base configure hook.
func (b *Base) OnConfigure() {
	b.flags.set(flagConfigureSuper)
}

// FailPrepare records err so the structure phase surfaces it once the
// current OnBeforeRender returns. Restructuring overrides use it for
// failures in void positions, such as a child refusing detachment.
// The first recorded error wins.
func (b *Base) FailPrepare(err error) {
	if b.prepareErr == nil {
		b.prepareErr = err
	}
}

// OnBeforeRender is the base prepare hook. It recurses into the
// current children, which is why overrides restructure first and call
// this last: children attached by the override are prepared too.
func (b *Base) OnBeforeRender() {
	b.flags.set(flagPrepareSuper)
	for _, c := range b.children {
		if err := Prepare(c); err != nil {
			b.prepareErr = err
			return
		}
	}
}

// OnTag is the base tag hook. It leaves the tag unchanged.
func (b *Base) OnTag(tag *Tag) {
	b.flags.set(flagTagSuper)
}

// OnBody is the base body hook: stream the original markup body.
func (b *Base) OnBody(body Body) error {
	return body.RenderBody()
}

// OnAfterRender is the base after-render hook.
func (b *Base) OnAfterRender() {
	b.flags.set(flagAfterSuper)
}

// OnRemove is the base remove hook.
func (b *Base) OnRemove() {
	b.flags.set(flagRemoveSuper)
}
