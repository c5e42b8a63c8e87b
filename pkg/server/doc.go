// Package server runs live pages: it keeps each rendered page's
// component tree alive in a session and drives it over a websocket.
//
// The server does not listen by itself. The application mounts it on
// a route for the live endpoint and calls OpenSession while rendering
// a page; the session token travels to the client in the page
// bootstrap and comes back in the websocket handshake.
//
// # Session lifecycle
//
// OpenSession builds a Session around the page's root component. The
// HTTP goroutine renders the full page through the same session, then
// the client connects and HandleWebSocket attaches the connection.
// Three goroutines run per attached session:
//
//	readLoop   decodes frames and queues events
//	eventLoop  dispatches events into the tree, flushes dirty components
//	writeLoop  sends heartbeat pings
//
// The event loop is the only goroutine that touches the tree while
// the session is live. Server-side code mutates a live tree through
// Session.Do, which runs on the event loop.
//
// # Event processing
//
// A client event names a component by path. Dispatch walks the tree,
// rejects hidden or disabled targets, and runs the listener. Every
// component the listener marked with Refresh is re-rendered and
// shipped as an update frame; a dirty root, an oversized fragment or
// a render failure degrade to a single reload directive. Update
// frames are numbered and kept in a ring so a reconnecting client can
// resume with a replay instead of a reload.
//
// # Expiry
//
// A detached session stays in the registry, resumable, until its idle
// timeout passes. The registry's cleanup loop then finalizes the tree
// and drops the session.
package server
