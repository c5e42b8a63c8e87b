package basic

import (
	"errors"
	"testing"

	"github.com/loom-ui/loom/pkg/component"
	"github.com/loom-ui/loom/pkg/uitest"
)

func TestLinkTag(t *testing.T) {
	ts := uitest.New(t)
	ts.AddMarkup("home", `<a data-lid="go">Go</a>`)

	page := NewContainer("home")
	page.Add(NewLink("go", nil))

	ts.StartPage(page)
	ts.ExpectTagAttribute("go", "href", "#")
	ts.ExpectTagAttribute("go", EventAttribute, "click")
	ts.ExpectContains(">Go</a>")
}

func TestLinkKeepsTemplateHref(t *testing.T) {
	ts := uitest.New(t)
	ts.AddMarkup("home", `<a data-lid="go" href="/shop">Go</a>`)

	page := NewContainer("home")
	page.Add(NewLink("go", nil))

	ts.StartPage(page)
	ts.ExpectTagAttribute("go", "href", "/shop")
	ts.ExpectNotContains(`href="#"`)
}

func TestDisabledLinkRendersSpan(t *testing.T) {
	ts := uitest.New(t)
	ts.AddMarkup("home", `<a data-lid="go" href="/shop">Go</a>`)

	link := NewLink("go", nil)
	link.SetEnabled(false)
	page := NewContainer("home")
	page.Add(link)

	ts.StartPage(page)
	ts.ExpectContains(`<span data-loom="go">Go</span>`)
	ts.ExpectNotContains("<a")
	ts.ExpectNotContains("href=")
	ts.ExpectNotContains(EventAttribute)
}

func TestLinkClick(t *testing.T) {
	ts := uitest.New(t)
	ts.AddMarkup("home", `<body><a data-lid="go">Go</a> <span data-lid="msg">x</span></body>`)

	msg := NewLabel("msg", "waiting")
	page := NewContainer("home")
	page.Add(NewLink("go", func() error {
		msg.SetText("clicked")
		return nil
	}))
	page.Add(msg)

	ts.StartPage(page)
	ts.ExpectContains(">waiting</span>")

	ts.Click("go")
	got, ok := ts.Update("msg")
	if !ok {
		t.Fatalf("no update for msg, updates = %v", ts.Updates())
	}
	if want := `<span data-loom="msg">clicked</span>`; got != want {
		t.Errorf("update = %q, want %q", got, want)
	}
}

func TestDisabledLinkRejectsClick(t *testing.T) {
	ts := uitest.New(t)
	ts.AddMarkup("home", `<a data-lid="go">Go</a>`)

	clicked := false
	link := NewLink("go", func() error {
		clicked = true
		return nil
	})
	link.SetEnabled(false)
	page := NewContainer("home")
	page.Add(link)

	ts.StartPage(page)
	err := ts.Event("go", "click", nil)
	if !errors.Is(err, component.ErrTargetDisabled) {
		t.Fatalf("Event = %v, want ErrTargetDisabled", err)
	}
	if clicked {
		t.Error("handler ran on a disabled link")
	}
}

func TestLinkUnhandledEvent(t *testing.T) {
	ts := uitest.New(t)
	ts.AddMarkup("home", `<a data-lid="go">Go</a>`)

	page := NewContainer("home")
	page.Add(NewLink("go", nil))

	ts.StartPage(page)
	if err := ts.Event("go", "change", nil); !errors.Is(err, ErrUnhandledEvent) {
		t.Fatalf("Event = %v, want ErrUnhandledEvent", err)
	}
}

func TestLinkBodyText(t *testing.T) {
	ts := uitest.New(t)
	ts.AddMarkup("home", `<a data-lid="go">template body</a>`)

	link := NewLink("go", nil)
	link.SetBodyText("Buy <now>")
	page := NewContainer("home")
	page.Add(link)

	ts.StartPage(page)
	ts.ExpectContains(">Buy &lt;now&gt;</a>")
	ts.ExpectNotContains("template body")
}
