package basic

import "github.com/loom-ui/loom/pkg/component"

// Panel renders an associated template instead of its inline body. The
// inline markup between the panel's tags is dropped; regions in the
// panel template bind against the panel's children. Panels are the
// unit of reuse for self-contained fragments.
type Panel struct {
	component.Base

	markup string
}

// NewPanel returns a panel rendering the named template.
func NewPanel(id, markup string) *Panel {
	return &Panel{Base: component.NewBase(id), markup: markup}
}

// MarkupName returns the panel's template name.
func (p *Panel) MarkupName() string { return p.markup }
