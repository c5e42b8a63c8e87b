package basic

import (
	"errors"
	"fmt"

	"github.com/loom-ui/loom/pkg/component"
	"github.com/loom-ui/loom/pkg/render"
)

// EventAttribute marks an element as an event source for the client
// script. Its value lists the DOM events to forward over the live
// channel, space separated.
const EventAttribute = "data-loom-on"

// ErrUnhandledEvent is wrapped by components that receive an event
// they define no handler for.
var ErrUnhandledEvent = errors.New("basic: unhandled event")

// Link runs a handler when clicked in the browser. Enabled links keep
// their anchor tag and gain the client event marker; disabled links
// render as a span with no href, so the element stops looking and
// acting clickable while its body still shows.
type Link struct {
	component.Base

	onClick  func() error
	bodyText string
	hasBody  bool
}

// NewLink returns a link running onClick on every click event.
func NewLink(id string, onClick func() error) *Link {
	return &Link{Base: component.NewBase(id), onClick: onClick}
}

// SetBodyText replaces the link's template body with escaped text and
// marks the link for partial re-render.
func (l *Link) SetBodyText(s string) {
	l.bodyText, l.hasBody = s, true
	l.Refresh()
}

// OnTag shapes the tag for the current enabled state.
func (l *Link) OnTag(tag *component.Tag) {
	l.Base.OnTag(tag)
	if !l.Enabled() {
		if tag.Name() == "a" {
			tag.SetName("span")
		}
		tag.Remove("href")
		tag.Remove(EventAttribute)
		return
	}
	if tag.Name() == "a" {
		if _, ok := tag.Get("href"); !ok {
			tag.Set("href", "#")
		}
	}
	tag.Set(EventAttribute, "click")
}

// OnBody streams the template body, or the SetBodyText override when
// one is set.
func (l *Link) OnBody(body component.Body) error {
	if !l.hasBody {
		return l.Base.OnBody(body)
	}
	_, err := body.WriteString(render.EscapeHTML(l.bodyText))
	return err
}

// OnEvent implements component.Listener for click events.
func (l *Link) OnEvent(event string, args map[string]any) error {
	if event != "click" {
		return fmt.Errorf("link %q: %w: %q", l.ID(), ErrUnhandledEvent, event)
	}
	if l.onClick == nil {
		return nil
	}
	return l.onClick()
}
