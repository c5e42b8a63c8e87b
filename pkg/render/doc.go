// Package render turns a prepared component tree and its parsed
// markup into HTML.
//
// A full pass has three phases. The structure phase runs the
// lifecycle controller's Prepare over the tree, letting components
// rebuild their children. The output phase walks the template
// segments: raw runs stream through untouched, and each region builds
// its component's tag, then hands the body to the component's OnBody
// hook. The finish phase runs Finalize, firing OnAfterRender children
// first and clearing per-pass state.
//
// Output accumulates in a pooled buffer and reaches the caller's
// writer only when the whole pass succeeded, so a failing component
// never leaves a half-written response on the wire.
//
// Rendered component tags carry their page-relative path in the
// data-loom attribute; the thin client uses it to address events and
// apply partial updates.
package render
