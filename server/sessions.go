package server

import (
	"errors"
	"sync"
	"time"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/TFMV/liquiditymap/models"
	"github.com/TFMV/liquiditymap/physics"
	"github.com/TFMV/liquiditymap/render"
)

// ErrSessionNotFound is returned for unknown or closed sessions
var ErrSessionNotFound = errors.New("session not found")

// session is one open bubble map. The host side of the selection lives here; the
// engine never sees it.
type session struct {
	id         string
	graph      *models.Graph
	runner     *physics.Runner
	controller *render.Controller
	created    time.Time

	mu       sync.Mutex
	selected *models.Indicator
	lastSeen time.Time

	// pointerMu orders gestures; lastSeq is the newest pointer event applied
	pointerMu sync.Mutex
	lastSeq   int64
}

func (s *session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *session) seen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// pointer applies a pointer event unless a newer one has already been applied.
// Events without a sequence number are always applied.
func (s *session) pointer(seq int64, apply func()) bool {
	s.pointerMu.Lock()
	defer s.pointerMu.Unlock()
	if seq > 0 {
		if seq <= s.lastSeq {
			return false
		}
		s.lastSeq = seq
	}
	apply()
	return true
}

func (s *session) selectIndicator(ind models.Indicator) {
	s.mu.Lock()
	s.selected = &ind
	s.mu.Unlock()
}

func (s *session) selection() (models.Indicator, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == nil {
		return models.Indicator{}, false
	}
	return *s.selected, true
}

func (s *session) selectedID() string {
	if ind, ok := s.selection(); ok {
		return ind.ID
	}
	return ""
}

func (s *session) close() {
	s.controller.Close()
	s.runner.Stop()
}

// sessionStore keeps sessions in creation order
type sessionStore struct {
	mu       sync.Mutex
	sessions *orderedmap.OrderedMap[string, *session]
}

func newSessionStore() *sessionStore {
	return &sessionStore{sessions: orderedmap.New[string, *session]()}
}

func (st *sessionStore) add(s *session) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.sessions.Set(s.id, s)
}

func (st *sessionStore) get(id string) (*session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions.Get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

func (st *sessionStore) remove(id string) (*session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions.Delete(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

func (st *sessionStore) list() []*session {
	st.mu.Lock()
	defer st.mu.Unlock()
	out := make([]*session, 0, st.sessions.Len())
	for pair := st.sessions.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value)
	}
	return out
}

// expire removes and returns sessions last seen before cutoff
func (st *sessionStore) expire(cutoff time.Time) []*session {
	st.mu.Lock()
	defer st.mu.Unlock()
	var out []*session
	for pair := st.sessions.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Value.seen().Before(cutoff) {
			out = append(out, pair.Value)
		}
	}
	for _, s := range out {
		st.sessions.Delete(s.id)
	}
	return out
}

func (st *sessionStore) drain() []*session {
	st.mu.Lock()
	defer st.mu.Unlock()
	out := make([]*session, 0, st.sessions.Len())
	for pair := st.sessions.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value)
	}
	st.sessions = orderedmap.New[string, *session]()
	return out
}
