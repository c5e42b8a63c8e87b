// Package uitest drives page trees through render passes and client
// events without a running server.
//
// # Quick Start
//
//	func TestGreeting(t *testing.T) {
//	    ts := uitest.New(t)
//	    ts.AddMarkup("home", `<html><body><span data-lid="msg">x</span></body></html>`)
//
//	    page := basic.NewContainer("home")
//	    page.Add(basic.NewLabel("msg", "Hello"))
//
//	    ts.StartPage(page)
//	    ts.ExpectContains(">Hello</span>")
//	}
//
// # Events
//
// Click dispatches through the same path resolution and
// visible/enabled checks the live channel applies, then re-renders
// every component the handler refreshed:
//
//	ts.Click("toggle")
//	fragment, ok := ts.Update("msg")
//
// Rejected events are test failures under Click; use Event to assert
// on the rejection itself.
package uitest
