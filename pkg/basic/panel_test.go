package basic

import (
	"testing"

	"github.com/loom-ui/loom/pkg/uitest"
)

func TestPanelRendersOwnMarkup(t *testing.T) {
	ts := uitest.New(t)
	ts.AddMarkup("home", `<body><div data-lid="cart" class="spot">inline preview</div></body>`)
	ts.AddMarkup("cart-panel", `<h2>Cart</h2><span data-lid="total">0</span>`)

	page := NewContainer("home")
	cart := NewPanel("cart", "cart-panel")
	cart.Add(NewLabel("total", "42"))
	page.Add(cart)

	ts.StartPage(page)
	ts.ExpectContains(`<div class="spot" data-loom="cart"><h2>Cart</h2><span data-loom="cart:total">42</span></div>`)
	ts.ExpectNotContains("inline preview")
}

func TestPanelInsidePanel(t *testing.T) {
	ts := uitest.New(t)
	ts.AddMarkup("home", `<div data-lid="outer">x</div>`)
	ts.AddMarkup("outer-panel", `<p data-lid="inner">y</p>`)
	ts.AddMarkup("inner-panel", `<em data-lid="msg">z</em>`)

	inner := NewPanel("inner", "inner-panel")
	inner.Add(NewLabel("msg", "deep"))
	outer := NewPanel("outer", "outer-panel")
	outer.Add(inner)
	page := NewContainer("home")
	page.Add(outer)

	ts.StartPage(page)
	ts.ExpectContains(`<em data-loom="outer:inner:msg">deep</em>`)
}
