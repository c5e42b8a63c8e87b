package basic

import (
	"github.com/loom-ui/loom/pkg/component"
	"github.com/loom-ui/loom/pkg/markup"
)

// Border wraps its inline body in an associated template. The
// template's ":body" region streams the inline markup from the
// enclosing page; regions around it bind against the border's children
// as usual. Borders carry page chrome such as navigation and footers.
type Border struct {
	component.Base

	markup string
}

// NewBorder returns a border rendering the named template around its
// inline body. The template must contain a region with the id
// markup.SlotID.
func NewBorder(id, name string) *Border {
	return &Border{Base: component.NewBase(id), markup: name}
}

// MarkupName returns the border's template name.
func (b *Border) MarkupName() string { return b.markup }

// SlotID is the region id a border template marks its body position
// with.
const SlotID = markup.SlotID
