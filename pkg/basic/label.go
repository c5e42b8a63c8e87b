package basic

import (
	"github.com/loom-ui/loom/pkg/component"
	"github.com/loom-ui/loom/pkg/render"
)

// Label replaces its tag body with escaped text. The template body of
// the bound region serves as a design-time preview and never reaches
// the browser.
type Label struct {
	component.Base

	text  string
	model func() string
}

// NewLabel returns a label with fixed text.
func NewLabel(id, text string) *Label {
	return &Label{Base: component.NewBase(id), text: text}
}

// NewLabelFunc returns a label whose text is re-evaluated on every
// render pass.
func NewLabelFunc(id string, model func() string) *Label {
	return &Label{Base: component.NewBase(id), model: model}
}

// Text returns the current text.
func (l *Label) Text() string {
	if l.model != nil {
		return l.model()
	}
	return l.text
}

// SetText replaces the text and marks the label for partial re-render.
// Any model function set at construction is detached.
func (l *Label) SetText(s string) {
	l.model = nil
	l.text = s
	l.Refresh()
}

// OnBody writes the escaped text instead of the template body.
func (l *Label) OnBody(body component.Body) error {
	_, err := body.WriteString(render.EscapeHTML(l.Text()))
	return err
}
