package server

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/text/language"

	"github.com/loom-ui/loom/pkg/basic"
	"github.com/loom-ui/loom/pkg/markup"
	"github.com/loom-ui/loom/pkg/protocol"
	"github.com/loom-ui/loom/pkg/render"
	"github.com/loom-ui/loom/pkg/resource"
)

const counterMarkup = `<body><a data-lid="inc">+</a><a data-lid="boom">!</a><span data-lid="count">0</span></body>`

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testRenderer(t *testing.T, templates map[string]string) *render.Renderer {
	t.Helper()
	finder := resource.NewMapFinder()
	for name, src := range templates {
		finder.Put(name, src)
	}
	cache, err := markup.NewCache(markup.NewLocator(finder), markup.DefaultCacheConfig())
	if err != nil {
		t.Fatalf("NewCache() error = %v", err)
	}
	t.Cleanup(cache.Close)
	return render.NewRenderer(cache)
}

// counterPage is the standard test tree: a link bumping a label and a
// link that panics.
type counterPage struct {
	root  *basic.Container
	count *basic.Label
	n     int
}

func newCounterPage() *counterPage {
	p := &counterPage{}
	p.count = basic.NewLabelFunc("count", func() string { return strconv.Itoa(p.n) })
	p.root = basic.NewContainer("counter")
	p.root.Add(basic.NewLink("inc", func() error {
		p.n++
		p.count.Refresh()
		return nil
	}))
	p.root.Add(basic.NewLink("boom", func() error {
		panic("kaboom")
	}))
	p.root.Add(p.count)
	return p
}

// testServer bundles a server with an open session and its tokens.
type testServer struct {
	srv   *Server
	page  *counterPage
	sess  *Session
	token string
	csrf  string
	http  *httptest.Server
	url   string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWith(t, DefaultConfig())
}

func newTestServerWith(t *testing.T, cfg *Config) *testServer {
	t.Helper()
	renderer := testRenderer(t, map[string]string{"counter.html": counterMarkup})

	cfg.CSRFSecret = []byte("csrf-test-secret")
	cfg.SessionSecret = []byte("session-test-secret")
	cfg.Logger = testLogger()
	srv := New(cfg, renderer)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	})

	page := newCounterPage()
	sess, token, err := srv.OpenSession(page.root, language.Und)
	if err != nil {
		t.Fatalf("OpenSession() error = %v", err)
	}
	var buf bytes.Buffer
	if err := sess.RenderPage(context.Background(), &buf); err != nil {
		t.Fatalf("RenderPage() error = %v", err)
	}

	hs := httptest.NewServer(http.HandlerFunc(srv.HandleWebSocket))
	t.Cleanup(hs.Close)

	return &testServer{
		srv:   srv,
		page:  page,
		sess:  sess,
		token: token,
		csrf:  srv.GenerateCSRFToken(),
		http:  hs,
		url:   "ws" + strings.TrimPrefix(hs.URL, "http"),
	}
}

// dial opens a websocket with the CSRF cookie set, ready for a
// handshake frame.
func (ts *testServer) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	header := http.Header{}
	header.Set("Origin", ts.http.URL)
	header.Set("Cookie", CSRFCookieName+"="+ts.csrf)
	conn, _, err := websocket.DefaultDialer.Dial(ts.url, header)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// handshake sends a ClientHello and returns the decoded ServerHello.
func handshake(t *testing.T, conn *websocket.Conn, hello *protocol.ClientHello) *protocol.ServerHello {
	t.Helper()
	frame := protocol.NewFrame(protocol.FrameHandshake, protocol.EncodeClientHello(hello))
	if err := conn.WriteMessage(websocket.BinaryMessage, frame.Encode()); err != nil {
		t.Fatalf("handshake write error = %v", err)
	}
	reply := readFrame(t, conn)
	if reply.Type != protocol.FrameHandshake {
		t.Fatalf("handshake reply type = %v, want Handshake", reply.Type)
	}
	sh, err := protocol.DecodeServerHello(reply.Payload)
	if err != nil {
		t.Fatalf("DecodeServerHello() error = %v", err)
	}
	return sh
}

// connect runs the full happy-path handshake.
func (ts *testServer) connect(t *testing.T) *websocket.Conn {
	t.Helper()
	conn := ts.dial(t)
	sh := handshake(t, conn, &protocol.ClientHello{
		Version:      protocol.CurrentVersion,
		CSRFToken:    ts.csrf,
		SessionToken: ts.token,
		PageID:       "counter",
	})
	if sh.Status != protocol.HandshakeOK {
		t.Fatalf("handshake status = %v, want OK", sh.Status)
	}
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) *protocol.Frame {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}
	frame, err := protocol.DecodeFrame(data)
	if err != nil {
		t.Fatalf("DecodeFrame() error = %v", err)
	}
	return frame
}

func sendEvent(t *testing.T, conn *websocket.Conn, seq uint64, path, name string) {
	t.Helper()
	payload := protocol.EncodeEvent(&protocol.EventMessage{Seq: seq, Path: path, Name: name})
	frame := protocol.NewFrame(protocol.FrameEvent, payload)
	if err := conn.WriteMessage(websocket.BinaryMessage, frame.Encode()); err != nil {
		t.Fatalf("event write error = %v", err)
	}
}

func readUpdate(t *testing.T, conn *websocket.Conn) *protocol.UpdateMessage {
	t.Helper()
	frame := readFrame(t, conn)
	if frame.Type != protocol.FrameUpdate {
		t.Fatalf("frame type = %v, want Update", frame.Type)
	}
	u, err := protocol.DecodeUpdate(frame.Payload)
	if err != nil {
		t.Fatalf("DecodeUpdate() error = %v", err)
	}
	return u
}

// newTestSession builds a detached session for unit tests.
func newTestSession(t *testing.T) (*Session, *counterPage) {
	t.Helper()
	renderer := testRenderer(t, map[string]string{"counter.html": counterMarkup})
	page := newCounterPage()
	sess := newSession(page.root, language.Und, renderer, DefaultSessionConfig(), testLogger(), nil)
	var buf bytes.Buffer
	if err := sess.RenderPage(context.Background(), &buf); err != nil {
		t.Fatalf("RenderPage() error = %v", err)
	}
	return sess, page
}
