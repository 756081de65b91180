package server

import (
	"html/template"
	"net/http"

	"go.uber.org/zap"
)

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
  body { margin: 0; background: #0F1115; color: #E5E7EB; font-family: sans-serif; }
  header { padding: 12px 20px; display: flex; justify-content: space-between; }
  #map { width: 100vw; height: 70vh; touch-action: none; }
  #detail { padding: 12px 20px; min-height: 4em; }
  .node { user-select: none; }
</style>
</head>
<body>
<header><strong>{{.Title}}</strong><span id="state"></span></header>
<div id="map"></div>
<div id="detail">Click a bubble to see the indicator.</div>
<script>
(() => {
  const map = document.getElementById("map");
  const detail = document.getElementById("detail");
  const state = document.getElementById("state");
  const interval = {{.RefreshMillis}};
  let session = null;
  let seq = 0;
  let queue = Promise.resolve();

  const api = (path, body) => fetch(path, {
    method: body === undefined ? "GET" : "POST",
    headers: { "Content-Type": "application/json" },
    body: body === undefined ? undefined : JSON.stringify(body),
  });

  const local = (ev) => {
    const r = map.getBoundingClientRect();
    return { x: ev.clientX - r.left, y: ev.clientY - r.top };
  };

  const send = async (event) => {
    const res = await api("/api/sessions/" + session + "/pointer", event);
    const body = await res.json();
    if (body.selected) {
      const s = body.selected;
      detail.textContent = s.code + " " + s.value + " " + (s.unit || "") + ": " + (s.description || "");
    }
  };

  // Events go out one at a time, in order
  const pointer = (type, ev) => {
    if (!session) return;
    const p = local(ev);
    const event = { type, x: p.x, y: p.y, seq: ++seq };
    queue = queue.then(() => send(event)).catch(() => {});
  };

  const draw = async () => {
    if (!session) return;
    const res = await fetch("/api/sessions/" + session + "/frame");
    if (res.ok) map.innerHTML = await res.text();
  };

  const open = async () => {
    const res = await api("/api/sessions", { width: map.clientWidth, height: map.clientHeight });
    const body = await res.json();
    session = body.id;
    state.textContent = body.nodes + " nodes";
    setInterval(draw, interval);
  };

  map.addEventListener("pointerdown", (ev) => { map.setPointerCapture(ev.pointerId); pointer("down", ev); });
  map.addEventListener("pointermove", (ev) => { if (ev.buttons) pointer("move", ev); });
  map.addEventListener("pointerup", (ev) => pointer("up", ev));
  map.addEventListener("pointercancel", (ev) => pointer("cancel", ev));
  window.addEventListener("resize", () => {
    if (session) api("/api/sessions/" + session + "/resize", { width: map.clientWidth, height: map.clientHeight });
  });
  window.addEventListener("pagehide", () => {
    if (session) navigator.sendBeacon("/api/sessions/" + session + "/close");
  });

  open();
})();
</script>
</body>
</html>
`))

type indexData struct {
	Title         string
	RefreshMillis int64
}

// handleIndex serves the browser surface
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	refresh := s.config.TickInterval.Milliseconds() * 4
	if refresh < 50 {
		refresh = 50
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := indexTemplate.Execute(w, indexData{Title: "Liquidity Map", RefreshMillis: refresh})
	if err != nil {
		s.logger.Error("failed to render index", zap.Error(err))
	}
}
