package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/TFMV/liquiditymap/catalog"
	"github.com/TFMV/liquiditymap/graph"
	"github.com/TFMV/liquiditymap/models"
	"github.com/TFMV/liquiditymap/physics"
	"github.com/TFMV/liquiditymap/render"
)

type viewportRequest struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type sessionResponse struct {
	ID       string           `json:"id"`
	GraphID  string           `json:"graphId"`
	Nodes    int              `json:"nodes"`
	Edges    int              `json:"edges"`
	Viewport physics.Viewport `json:"viewport"`
	State    string           `json:"state"`
	Settled  bool             `json:"settled"`
	Selected string           `json:"selected,omitempty"`
}

// pointerRequest carries one pointer event. Seq increases with every event the page
// sends; events older than the last applied one are dropped.
type pointerRequest struct {
	Type string  `json:"type"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Seq  int64   `json:"seq,omitempty"`
}

type pointerResponse struct {
	Node     string            `json:"node,omitempty"`
	Hit      bool              `json:"hit"`
	Stale    bool              `json:"stale,omitempty"`
	Selected *models.Indicator `json:"selected,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	encoder.Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// decodeBody reads an optional JSON body; an empty body leaves v untouched
func decodeBody(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(io.LimitReader(r.Body, 1<<16)).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// lookup resolves the {id} path value and marks the session as active
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*session, bool) {
	sess, err := s.sessions.get(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return nil, false
	}
	sess.touch(s.config.Now())
	return sess, true
}

func (s *Server) buildGraph() *models.Graph {
	opts := []graph.Option{graph.WithFed(s.config.Catalog.Fed)}
	if s.config.PolicyNodes {
		opts = append(opts, graph.WithPolicyNodes(graph.PolicyNodes()...))
	}
	return graph.Build(s.config.Catalog.Onshore, s.config.Catalog.Offshore, s.config.Table, opts...)
}

func (s *Server) describe(sess *session) sessionResponse {
	snap := sess.runner.Snapshot()
	return sessionResponse{
		ID:       sess.id,
		GraphID:  sess.graph.ID,
		Nodes:    len(sess.graph.Nodes),
		Edges:    len(sess.graph.Edges),
		Viewport: snap.Viewport,
		State:    snap.State,
		Settled:  sess.runner.Settled(),
		Selected: sess.selectedID(),
	}
}

// handleCreateSession opens a session with its own running engine
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req viewportRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	cfg := s.config.Layout
	if vp := (physics.Viewport{Width: req.Width, Height: req.Height}); vp.Valid() {
		cfg.Viewport = vp
	}
	cfg.Logger = s.logger
	cfg.Metrics = s.layout

	g := s.buildGraph()
	graph.Validate(s.config.Table, g.Nodes).Log(s.logger)

	now := s.config.Now()
	sess := &session{
		id:       uuid.New().String(),
		graph:    g,
		runner:   physics.NewRunner(physics.NewSimulation(g, cfg), s.config.TickInterval),
		created:  now,
		lastSeen: now,
	}
	sess.controller = render.NewController(sess.runner, g, sess.selectIndicator, s.logger)
	sess.runner.Start(s.ctx)

	s.sessions.add(sess)
	s.sessionsCreated.Inc()
	s.sessionsActive.Inc()
	s.logger.Info("session opened",
		zap.String("session", sess.id),
		zap.Int("nodes", len(g.Nodes)),
		zap.Int("edges", len(g.Edges)),
	)

	writeJSON(w, http.StatusCreated, s.describe(sess))
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	out := []sessionResponse{}
	for _, sess := range s.sessions.list() {
		out = append(out, s.describe(sess))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) frame(sess *session, format string) ([]byte, error) {
	renderer, err := render.GetRenderer(format)
	if err != nil {
		return nil, err
	}
	opts := render.NewDefaultOptions(format)
	return renderer.Render(&render.Frame{
		Graph:      sess.graph,
		Snapshot:   sess.runner.Snapshot(),
		SelectedID: sess.selectedID(),
		Options:    opts,
	})
}

// handleFrame renders the session's current layout as SVG
func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "svg"
	}
	output, err := s.frame(sess, format)
	if err != nil {
		if errors.Is(err, render.ErrUnknownFormat) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("render failed", zap.String("session", sess.id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "render failed")
		return
	}

	switch format {
	case "svg":
		w.Header().Set("Content-Type", "image/svg+xml")
	case "json":
		w.Header().Set("Content-Type", "application/json")
	default:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	}
	w.Header().Set("Cache-Control", "no-store")
	w.Write(output)
}

// handleSnapshot returns positions and links as JSON
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	output, err := s.frame(sess, "json")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "render failed")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(output)
}

func (s *Server) handleSelection(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	ind, selected := sess.selection()
	if !selected {
		writeJSON(w, http.StatusOK, map[string]any{"selected": nil})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"selected": ind})
}

// handlePointer feeds one pointer event to the session's controller
func (s *Server) handlePointer(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var req pointerRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	switch req.Type {
	case "down", "move", "up", "cancel":
	default:
		writeError(w, http.StatusBadRequest, "pointer type must be down, move, up or cancel")
		return
	}

	var resp pointerResponse
	applied := sess.pointer(req.Seq, func() {
		switch req.Type {
		case "down":
			resp.Node, resp.Hit = sess.controller.PointerDown(req.X, req.Y)
		case "move":
			resp.Hit = sess.controller.PointerMove(req.X, req.Y)
			resp.Node = sess.controller.Active()
		case "up":
			if ind, clicked := sess.controller.PointerUp(req.X, req.Y); clicked {
				resp.Hit = true
				resp.Node = ind.ID
				resp.Selected = &ind
			}
		case "cancel":
			sess.controller.Cancel()
		}
	})
	if !applied {
		resp.Stale = true
		s.logger.Debug("dropped out-of-order pointer event",
			zap.String("session", sess.id),
			zap.String("type", req.Type),
			zap.Int64("seq", req.Seq),
		)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleResize(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var req viewportRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if !(physics.Viewport{Width: req.Width, Height: req.Height}).Valid() {
		writeError(w, http.StatusBadRequest, "width and height must be positive")
		return
	}
	sess.controller.Resize(req.Width, req.Height)
	writeJSON(w, http.StatusOK, s.describe(sess))
}

// handleClose stops the session's engine and forgets it
func (s *Server) handleClose(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.remove(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	sess.close()
	s.sessionsActive.Dec()
	s.logger.Info("session closed", zap.String("session", sess.id))
	w.WriteHeader(http.StatusNoContent)
}

type indicatorsResponse struct {
	Onshore  []catalog.Section `json:"onshore"`
	Offshore []catalog.Section `json:"offshore"`
	Fed      []catalog.Section `json:"fed"`
}

// handleIndicators lists the catalog as grouped indicator cards
func (s *Server) handleIndicators(w http.ResponseWriter, r *http.Request) {
	c := s.config.Catalog
	writeJSON(w, http.StatusOK, indicatorsResponse{
		Onshore:  catalog.GroupBySubCategory(c.Onshore),
		Offshore: catalog.GroupBySubCategory(c.Offshore),
		Fed:      catalog.GroupBySubCategory(c.Fed),
	})
}

// handleCalendar lists upcoming policy events; ?limit=n caps the list
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	events := catalog.Upcoming(s.config.Catalog.Events, s.config.Now(), limit)
	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}
