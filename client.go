package loom

import (
	_ "embed"
	"net/http"
	"strconv"
)

// clientScript is the thin client served at render.DefaultClientScript.
// It opens the live websocket, forwards data-loom-on events and applies
// update directives to data-loom elements.
//
//go:embed client.js
var clientScript []byte

// serveClientScript serves the embedded thin client, cached according
// to the static cache strategy.
func (a *App) serveClientScript(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
	if !a.config.DevMode && a.config.Static.CacheControl == CacheControlProduction {
		maxAge := int(a.settings.DefaultCacheDuration.Seconds())
		w.Header().Set("Cache-Control", "public, max-age="+strconv.Itoa(maxAge)+", must-revalidate")
	} else {
		w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
	}
	w.Write(clientScript)
}
