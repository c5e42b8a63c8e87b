package basic

import (
	"strings"
	"testing"

	"github.com/loom-ui/loom/pkg/uitest"
)

func TestBorderWrapsInlineBody(t *testing.T) {
	ts := uitest.New(t)
	ts.AddMarkup("home", `<body><div data-lid="frame">Welcome, <b data-lid="user">x</b>.</div></body>`)
	ts.AddMarkup("chrome", `<nav data-lid="nav">menu</nav><main><div data-lid=":body"></div></main><footer>fin</footer>`)

	frame := NewBorder("frame", "chrome")
	frame.Add(NewLabel("nav", "Home | Shop"))
	frame.Add(NewLabel("user", "Ada"))
	page := NewContainer("home")
	page.Add(frame)

	got := ts.StartPage(page)
	ts.ExpectContains(`<nav data-loom="frame:nav">Home | Shop</nav>`)
	ts.ExpectContains(`<main>Welcome, <b data-loom="frame:user">Ada</b>.</main>`)
	ts.ExpectContains(`<footer>fin</footer>`)

	if nav, body := strings.Index(got, "Home | Shop"), strings.Index(got, "Welcome"); nav > body {
		t.Errorf("chrome did not wrap the body:\n%s", got)
	}
}

func TestBorderSlotComponentsStayOnBorder(t *testing.T) {
	ts := uitest.New(t)
	ts.AddMarkup("home", `<div data-lid="frame"><span data-lid="msg">x</span></div>`)
	ts.AddMarkup("plain", `<section><div data-lid=":body"></div></section>`)

	frame := NewBorder("frame", "plain")
	frame.Add(NewLabel("msg", "inside"))
	page := NewContainer("home")
	page.Add(frame)

	ts.StartPage(page)
	ts.ExpectContains(`<section><span data-loom="frame:msg">inside</span></section>`)
	ts.ExpectComponent("frame:msg")
}
