package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/TFMV/liquiditymap/models"
)

var fixedNow = time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)

// newTestServer returns a server whose engines never tick on their own, so node
// positions stay put between a snapshot and the pointer events that follow it.
func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	s := New(Config{
		TickInterval: time.Hour,
		SessionTTL:   time.Minute,
		PolicyNodes:  true,
		Logger:       zaptest.NewLogger(t),
		Registry:     prometheus.NewRegistry(),
		Now:          func() time.Time { return fixedNow },
	})
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		ts.Close()
		s.Close()
	})
	return s, ts
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func openSession(t *testing.T, ts *httptest.Server) sessionResponse {
	t.Helper()
	resp := postJSON(t, ts.URL+"/api/sessions", viewportRequest{Width: 1200, Height: 600})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[sessionResponse](t, resp)
}

type snapshotDoc struct {
	Nodes []struct {
		ID       string  `json:"id"`
		X        float64 `json:"x"`
		Y        float64 `json:"y"`
		Radius   float64 `json:"radius"`
		Pinned   bool    `json:"pinned"`
		Selected bool    `json:"selected"`
	} `json:"nodes"`
	Metadata map[string]any `json:"metadata"`
}

// settle ticks a session's engine by hand until the bubbles have spread out
func settle(t *testing.T, s *Server, sessionID string, ticks int) {
	t.Helper()
	sess, err := s.sessions.get(sessionID)
	require.NoError(t, err)
	for i := 0; i < ticks; i++ {
		sess.runner.Step()
	}
}

func nodePosition(t *testing.T, ts *httptest.Server, sessionID, nodeID string) (float64, float64) {
	t.Helper()
	resp, err := http.Get(ts.URL + "/api/sessions/" + sessionID + "/snapshot")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	doc := decode[snapshotDoc](t, resp)
	for _, n := range doc.Nodes {
		if n.ID == nodeID {
			return n.X, n.Y
		}
	}
	t.Fatalf("node %s not in snapshot", nodeID)
	return 0, 0
}

func pointer(t *testing.T, ts *httptest.Server, sessionID, kind string, x, y float64) pointerResponse {
	t.Helper()
	resp := postJSON(t, ts.URL+"/api/sessions/"+sessionID+"/pointer", pointerRequest{Type: kind, X: x, Y: y})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return decode[pointerResponse](t, resp)
}

func TestCreateSession(t *testing.T) {
	s, ts := newTestServer(t)
	sess := openSession(t, ts)

	assert.NotEmpty(t, sess.ID)
	assert.Equal(t, 17, sess.Nodes, "16 indicators plus the swap-line policy node")
	assert.Positive(t, sess.Edges)
	assert.Equal(t, 1200.0, sess.Viewport.Width)
	assert.Equal(t, "running", sess.State)

	assert.Equal(t, 1.0, testutil.ToFloat64(s.sessionsCreated))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.sessionsActive))

	resp, err := http.Get(ts.URL + "/api/sessions")
	require.NoError(t, err)
	list := decode[[]sessionResponse](t, resp)
	require.Len(t, list, 1)
	assert.Equal(t, sess.ID, list[0].ID)
}

func TestCreateSessionDefaultsViewport(t *testing.T) {
	_, ts := newTestServer(t)
	resp, err := http.Post(ts.URL+"/api/sessions", "application/json", nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	sess := decode[sessionResponse](t, resp)
	assert.Equal(t, 1200.0, sess.Viewport.Width)
	assert.Equal(t, 600.0, sess.Viewport.Height)
}

func TestCreateSessionBadBody(t *testing.T) {
	_, ts := newTestServer(t)
	resp, err := http.Post(ts.URL+"/api/sessions", "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestFrame(t *testing.T) {
	_, ts := newTestServer(t)
	sess := openSession(t, ts)

	resp, err := http.Get(ts.URL + "/api/sessions/" + sess.ID + "/frame")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/svg+xml", resp.Header.Get("Content-Type"))

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "<svg")
	assert.Contains(t, buf.String(), `data-id="on-1"`)

	resp, err = http.Get(ts.URL + "/api/sessions/" + sess.ID + "/frame?format=png")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestClickSelectsIndicator(t *testing.T) {
	s, ts := newTestServer(t)
	sess := openSession(t, ts)
	settle(t, s, sess.ID, 600)

	x, y := nodePosition(t, ts, sess.ID, "on-1")
	down := pointer(t, ts, sess.ID, "down", x, y)
	require.True(t, down.Hit)
	assert.Equal(t, "on-1", down.Node)

	up := pointer(t, ts, sess.ID, "up", x, y)
	require.NotNil(t, up.Selected)
	assert.Equal(t, "TGA", up.Selected.Code)

	resp, err := http.Get(ts.URL + "/api/sessions/" + sess.ID + "/selection")
	require.NoError(t, err)
	body := decode[map[string]*models.Indicator](t, resp)
	require.NotNil(t, body["selected"])
	assert.Equal(t, "on-1", body["selected"].ID)

	resp, err = http.Get(ts.URL + "/api/sessions/" + sess.ID + "/snapshot")
	require.NoError(t, err)
	doc := decode[snapshotDoc](t, resp)
	assert.Equal(t, "on-1", doc.Metadata["selected"])
}

func sequencedPointer(t *testing.T, ts *httptest.Server, sessionID, kind string, x, y float64, seq int64) pointerResponse {
	t.Helper()
	resp := postJSON(t, ts.URL+"/api/sessions/"+sessionID+"/pointer", pointerRequest{Type: kind, X: x, Y: y, Seq: seq})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return decode[pointerResponse](t, resp)
}

func listSessions(t *testing.T, ts *httptest.Server) []sessionResponse {
	t.Helper()
	resp, err := http.Get(ts.URL + "/api/sessions")
	require.NoError(t, err)
	return decode[[]sessionResponse](t, resp)
}

func TestPointerEventsOutOfOrder(t *testing.T) {
	s, ts := newTestServer(t)
	sess := openSession(t, ts)
	settle(t, s, sess.ID, 600)
	x, y := nodePosition(t, ts, sess.ID, "on-1")

	// The release of a click overtakes its press
	up := sequencedPointer(t, ts, sess.ID, "up", x, y, 2)
	assert.False(t, up.Stale)
	down := sequencedPointer(t, ts, sess.ID, "down", x, y, 1)
	assert.True(t, down.Stale)
	assert.False(t, down.Hit)

	resp, err := http.Get(ts.URL + "/api/sessions/" + sess.ID + "/snapshot")
	require.NoError(t, err)
	for _, n := range decode[snapshotDoc](t, resp).Nodes {
		assert.False(t, n.Pinned, "node %s left pinned", n.ID)
	}
	list := listSessions(t, ts)
	require.Len(t, list, 1)
	assert.Equal(t, "running", list[0].State)

	// A later gesture still works
	down = sequencedPointer(t, ts, sess.ID, "down", x, y, 3)
	require.True(t, down.Hit)
	assert.Equal(t, "dragging", listSessions(t, ts)[0].State)
	up = sequencedPointer(t, ts, sess.ID, "up", x, y, 4)
	require.NotNil(t, up.Selected)
	assert.Equal(t, "on-1", up.Selected.ID)

	// Replayed sequence numbers are ignored
	assert.True(t, sequencedPointer(t, ts, sess.ID, "down", x, y, 4).Stale)
	assert.Equal(t, "running", listSessions(t, ts)[0].State)
}

func TestSessionReportsSettled(t *testing.T) {
	s, ts := newTestServer(t)
	sess := openSession(t, ts)
	assert.False(t, sess.Settled)

	settle(t, s, sess.ID, 600)
	assert.True(t, listSessions(t, ts)[0].Settled)
}

func TestDragDoesNotSelect(t *testing.T) {
	s, ts := newTestServer(t)
	sess := openSession(t, ts)
	settle(t, s, sess.ID, 600)

	x, y := nodePosition(t, ts, sess.ID, "jp-1")
	pointer(t, ts, sess.ID, "down", x, y)
	move := pointer(t, ts, sess.ID, "move", x-40, y)
	assert.True(t, move.Hit)
	assert.Equal(t, "jp-1", move.Node)

	settle(t, s, sess.ID, 1)
	nx, ny := nodePosition(t, ts, sess.ID, "jp-1")
	assert.InDelta(t, x-40, nx, 1e-9)
	assert.GreaterOrEqual(t, ny, 0.0)
	assert.LessOrEqual(t, ny, 600.0)

	up := pointer(t, ts, sess.ID, "up", x-40, y)
	assert.Nil(t, up.Selected)
	assert.False(t, up.Hit)

	resp, err := http.Get(ts.URL + "/api/sessions/" + sess.ID + "/selection")
	require.NoError(t, err)
	body := decode[map[string]*models.Indicator](t, resp)
	assert.Nil(t, body["selected"])
}

func TestPolicyNodeIsNotSelectable(t *testing.T) {
	s, ts := newTestServer(t)
	sess := openSession(t, ts)
	settle(t, s, sess.ID, 600)

	x, y := nodePosition(t, ts, sess.ID, "policy-swap")
	down := pointer(t, ts, sess.ID, "down", x, y)
	require.True(t, down.Hit)
	up := pointer(t, ts, sess.ID, "up", x, y)
	assert.Nil(t, up.Selected)
}

func TestPointerRejectsUnknownType(t *testing.T) {
	_, ts := newTestServer(t)
	sess := openSession(t, ts)
	resp := postJSON(t, ts.URL+"/api/sessions/"+sess.ID+"/pointer", pointerRequest{Type: "hover"})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestResize(t *testing.T) {
	_, ts := newTestServer(t)
	sess := openSession(t, ts)

	resp := postJSON(t, ts.URL+"/api/sessions/"+sess.ID+"/resize", viewportRequest{Width: 500, Height: 400})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decode[sessionResponse](t, resp)
	assert.Equal(t, 500.0, updated.Viewport.Width)
	assert.Equal(t, 400.0, updated.Viewport.Height)

	resp = postJSON(t, ts.URL+"/api/sessions/"+sess.ID+"/resize", viewportRequest{Width: 0, Height: 400})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCloseSession(t *testing.T) {
	s, ts := newTestServer(t)
	sess := openSession(t, ts)

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/api/sessions/"+sess.ID, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, 0.0, testutil.ToFloat64(s.sessionsActive))

	resp, err = http.Get(ts.URL + "/api/sessions/" + sess.ID + "/frame")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = postJSON(t, ts.URL+"/api/sessions/"+sess.ID+"/close", nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestReap(t *testing.T) {
	s, ts := newTestServer(t)
	openSession(t, ts)
	openSession(t, ts)

	assert.Equal(t, 0, s.Reap(fixedNow.Add(30*time.Second)))
	assert.Equal(t, 2, s.Reap(fixedNow.Add(2*time.Minute)))
	assert.Empty(t, s.sessions.list())
	assert.Equal(t, 0.0, testutil.ToFloat64(s.sessionsActive))
}

func TestIndicators(t *testing.T) {
	_, ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/api/indicators")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[indicatorsResponse](t, resp)

	require.NotEmpty(t, body.Onshore)
	assert.Equal(t, "GENERAL_ONSHORE", body.Onshore[0].SubCategory)
	assert.Len(t, body.Offshore, 2)
	assert.Len(t, body.Fed, 2)
}

func TestCalendar(t *testing.T) {
	_, ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/api/calendar?limit=2")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[map[string][]models.Event](t, resp)
	require.Len(t, body["events"], 2)
	for _, ev := range body["events"] {
		assert.GreaterOrEqual(t, ev.Date, "2025-06-01")
	}

	resp, err = http.Get(ts.URL + "/api/calendar?limit=x")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestIndexAndMetrics(t *testing.T) {
	_, ts := newTestServer(t)
	openSession(t, ts)

	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	var buf bytes.Buffer
	buf.ReadFrom(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, buf.String(), "<title>Liquidity Map</title>")
	assert.Contains(t, buf.String(), "queue.then")

	resp, err = http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	buf.Reset()
	buf.ReadFrom(resp.Body)
	resp.Body.Close()
	assert.Contains(t, buf.String(), "liquiditymap_server_sessions_created_total 1")
	assert.Contains(t, buf.String(), "liquiditymap_layout_active_engines 1")
}
