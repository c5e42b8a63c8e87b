// Package markup loads and parses the HTML templates that drive
// component rendering.
//
// A template is ordinary HTML in which elements carrying a data-lid
// attribute mark component regions. The parser splits a template into
// raw byte runs, streamed to the output untouched, and regions, whose
// tags and bodies are produced by the bound components. Regions nest,
// mirroring the component tree, and sibling regions must carry
// distinct ids.
//
// Templates resolve through a resource.Finder under the naming scheme
//
//	<name>[.<style>][.<locale>].html
//
// with the most specific candidate winning. Parsed templates are held
// in a concurrent cache; a filesystem watcher can invalidate entries
// when template folders change on disk.
package markup
