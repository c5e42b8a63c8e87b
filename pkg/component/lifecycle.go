package component

// State is the lifecycle-state tag every component carries.
//
// Transitions are monotonic within one render pass. Across passes the
// Configured -> RenderPrepared -> Rendered segment repeats; Initialized
// happens exactly once per lifetime and Removed is terminal.
type State uint8

const (
	// StateConstructed is the state of a freshly built component.
	StateConstructed State = iota

	// StateInitialized is set by the base OnInitialize, exactly once.
	StateInitialized

	// StateConfigured is set after OnConfigure each pass.
	StateConfigured

	// StateRenderPrepared is set after OnBeforeRender each pass the
	// component is visible.
	StateRenderPrepared

	// StateRendered is set once the component's output was written.
	StateRendered

	// StateRemoved is terminal: the component was detached from its
	// tree and cannot be reattached.
	StateRemoved
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateConstructed:
		return "Constructed"
	case StateInitialized:
		return "Initialized"
	case StateConfigured:
		return "Configured"
	case StateRenderPrepared:
		return "RenderPrepared"
	case StateRendered:
		return "Rendered"
	case StateRemoved:
		return "Removed"
	default:
		return "Unknown"
	}
}

// passFlags tracks base-hook invocations and per-pass progress. The
// super bits are cleared before the matching hook runs and set by the
// Base implementation; the controller checks them after the override
// returns. The pass bits make configure and prepare idempotent within
// one pass and are cleared by Finalize.
type passFlags uint8

const (
	flagConfigureSuper passFlags = 1 << iota
	flagPrepareSuper
	flagTagSuper
	flagAfterSuper
	flagRemoveSuper

	flagConfiguredPass
	flagPreparedPass
)

func (f *passFlags) set(bit passFlags)     { *f |= bit }
func (f *passFlags) clear(bit passFlags)   { *f &^= bit }
func (f passFlags) has(bit passFlags) bool { return f&bit != 0 }

// Prepare drives the structure phase for c and, through the base
// OnBeforeRender recursion, its subtree: initialize once, configure
// every pass, then restructure and prepare when visible. Invisible
// components stop after configure; their descendants are not visited
// at all this pass.
//
// The first contract violation anywhere in the subtree aborts the
// phase with a HierarchyError before anything renders.
func Prepare(c Component) error {
	b := bind(c)
	if b.state == StateRemoved {
		return &HierarchyError{Path: errorPath(c), Hook: "Prepare", Err: ErrRemoved}
	}
	if err := initialize(c); err != nil {
		return err
	}
	if err := configure(c); err != nil {
		return err
	}
	if !b.visible {
		return nil
	}
	if b.flags.has(flagPreparedPass) {
		return nil
	}
	b.flags.clear(flagPrepareSuper)
	c.OnBeforeRender()
	if b.prepareErr != nil {
		err := b.prepareErr
		b.prepareErr = nil
		return err
	}
	if !b.flags.has(flagPrepareSuper) {
		return hierarchyErr(c, "OnBeforeRender")
	}
	b.flags.set(flagPreparedPass)
	b.state = StateRenderPrepared
	return nil
}

// initialize runs the once-per-lifetime hook. The base OnInitialize
// advances the state, so the state itself is the verification flag.
func initialize(c Component) error {
	b := c.base()
	if b.state >= StateInitialized {
		return nil
	}
	c.OnInitialize()
	if b.state < StateInitialized {
		return hierarchyErr(c, "OnInitialize")
	}
	b.bindBehaviors()
	return nil
}

// configure runs the per-pass configure hook, then the behaviors'
// configure hooks in attachment order.
func configure(c Component) error {
	b := c.base()
	if b.flags.has(flagConfiguredPass) {
		return nil
	}
	b.flags.clear(flagConfigureSuper)
	c.OnConfigure()
	if !b.flags.has(flagConfigureSuper) {
		return hierarchyErr(c, "OnConfigure")
	}
	for _, bh := range b.behaviors {
		bh.OnConfigure(b.self)
	}
	b.flags.set(flagConfiguredPass)
	b.state = StateConfigured
	return nil
}

// BuildTag runs the tag hook chain for a component about to emit
// output: the component's OnTag (base first, then override mutation),
// then each attached behavior's OnTag in order. It gates on the
// structure phase: a visible component that never reached
// RenderPrepared means a prepare contract was broken upstream, and the
// same hierarchy signal is raised here.
func BuildTag(c Component, tag *Tag) error {
	b := c.base()
	if b.state != StateRenderPrepared {
		return hierarchyErr(c, "OnBeforeRender")
	}
	b.flags.clear(flagTagSuper)
	c.OnTag(tag)
	if !b.flags.has(flagTagSuper) {
		return hierarchyErr(c, "OnTag")
	}
	for _, bh := range b.behaviors {
		bh.OnTag(b.self, tag)
	}
	return nil
}

// Finalize closes a render pass over c's subtree: for every component
// that was prepared this pass it fires OnAfterRender (verified like
// the other hooks) and marks it Rendered; for every component it
// clears the per-pass flags so the next pass configures again.
// Children finalize before their parent.
func Finalize(c Component) error {
	b := bind(c)
	for _, child := range b.children {
		if err := Finalize(child); err != nil {
			return err
		}
	}
	if b.flags.has(flagPreparedPass) {
		b.flags.clear(flagAfterSuper)
		c.OnAfterRender()
		if !b.flags.has(flagAfterSuper) {
			return hierarchyErr(c, "OnAfterRender")
		}
		b.state = StateRendered
	}
	b.flags.clear(flagConfiguredPass)
	b.flags.clear(flagPreparedPass)
	return nil
}

// Teardown takes c's whole subtree out of service: OnRemove fires
// children first (verified like the other hooks) and every component
// becomes Removed. Remove does the same for a single child; Teardown
// is for roots, which have no parent to remove them.
func Teardown(c Component) error {
	return detach(c)
}

// detach fires OnRemove over the subtree, children first, and marks it
// Removed.
func detach(c Component) error {
	b := c.base()
	for i := len(b.children) - 1; i >= 0; i-- {
		if err := detach(b.children[i]); err != nil {
			return err
		}
	}
	b.children = nil
	b.flags.clear(flagRemoveSuper)
	c.OnRemove()
	if !b.flags.has(flagRemoveSuper) {
		return hierarchyErr(c, "OnRemove")
	}
	b.state = StateRemoved
	b.parent = nil
	return nil
}
