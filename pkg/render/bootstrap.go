package render

import (
	"bytes"
	"fmt"
	"io"
)

// DefaultClientScript is the path the thin client script is served
// under when the application does not override it.
const DefaultClientScript = "/_loom/client.js"

// Bootstrap is the client wiring injected into a full page response:
// the CSRF token and session id the live channel authenticates with,
// and the thin client script itself.
type Bootstrap struct {
	// SessionID identifies the server-side page session.
	SessionID string

	// CSRFToken is presented by the client during the live handshake.
	CSRFToken string

	// ClientScript is the script path. Defaults to
	// DefaultClientScript if empty.
	ClientScript string
}

// Inject writes page with the bootstrap scripts inserted before the
// closing body tag. Templates without a body tag get the scripts
// appended.
func (b Bootstrap) Inject(w io.Writer, page []byte) error {
	snippet := b.snippet()
	idx := bytes.LastIndex(page, []byte("</body>"))
	if idx < 0 {
		idx = bytes.LastIndex(page, []byte("</BODY>"))
	}
	if idx < 0 {
		if _, err := w.Write(page); err != nil {
			return err
		}
		_, err := w.Write(snippet)
		return err
	}
	if _, err := w.Write(page[:idx]); err != nil {
		return err
	}
	if _, err := w.Write(snippet); err != nil {
		return err
	}
	_, err := w.Write(page[idx:])
	return err
}

func (b Bootstrap) snippet() []byte {
	var buf bytes.Buffer
	if b.CSRFToken != "" {
		fmt.Fprintf(&buf, `  <script>window.__LOOM_CSRF__="%s";</script>`+"\n", EscapeAttr(b.CSRFToken))
	}
	if b.SessionID != "" {
		fmt.Fprintf(&buf, `  <script>window.__LOOM_SESSION__="%s";</script>`+"\n", EscapeAttr(b.SessionID))
	}
	script := b.ClientScript
	if script == "" {
		script = DefaultClientScript
	}
	fmt.Fprintf(&buf, `  <script src="%s" defer></script>`+"\n", EscapeAttr(script))
	return buf.Bytes()
}
