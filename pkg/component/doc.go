// Package component provides the component tree and the lifecycle
// controller that drives it through each render pass.
//
// Components form a parent-owned tree. Every concrete component embeds
// Base, which supplies identity, tree wiring, visibility and enabled
// flags, and the lifecycle bookkeeping the controller verifies. The
// Component interface is sealed: it contains an unexported method only
// Base implements, so embedding Base is the one way to satisfy it.
//
// # Lifecycle
//
// Each component moves through a fixed hook sequence per render pass:
//
//	Constructed -> Initialized (once)
//	  -> { Configured -> RenderPrepared -> Rendered } per pass
//	  -> Removed (terminal)
//
// OnInitialize runs exactly once in a component's lifetime. OnConfigure
// runs before every pass, even for invisible components, and is the
// place to mutate visibility or enabled flags. OnBeforeRender runs only
// for visible components and restructures children before tag output;
// the base implementation recurses into the children, so overrides must
// do their restructuring first and call the base at the end. OnTag is
// the opposite: overrides call the base first and customize on top of
// the defaults. OnBody defaults to streaming the original markup body
// and may substitute content instead.
//
// # Base hook verification
//
// Overriding a hook obligates the override to call the Base
// implementation (except OnBody, where substitution is legitimate).
// The controller does not trust that discipline: each base hook flips a
// bookkeeping flag, and the controller checks the flag after the
// override returns. A missing base call produces a HierarchyError
// wrapping ErrHierarchyUninitialized, raised before any sibling or
// descendant renders. These are programmer errors and are never
// retried.
//
// # Concurrency
//
// A component tree is exclusively owned by the goroutine running its
// render pass. Nothing in this package locks; concurrent access to one
// tree is a data race by contract.
package component
