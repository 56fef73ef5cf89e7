package dashboard

import (
	"sort"

	"github.com/nconklindev/stockboard/internal/types"
)

// RenderedChart records what was last drawn to a target id.
type RenderedChart struct {
	ID     string          `json:"id"`
	Bucket string          `json:"bucket"`
	Field  string          `json:"field"`
	Title  string          `json:"title"`
	Kind   types.ChartKind `json:"kind"`
	Series types.Series    `json:"series"`
}

// Session is the controller-owned state of one dashboard: the chart registry
// and the in-memory bucket cache. It is created with the controller and
// cleared on every full analysis.
type Session struct {
	charts  map[string]RenderedChart
	buckets map[string][]types.Record
}

func NewSession() *Session {
	s := &Session{}
	s.Reset()
	return s
}

func (s *Session) Reset() {
	s.charts = make(map[string]RenderedChart)
	s.buckets = make(map[string][]types.Record)
}

func (s *Session) Chart(id string) (RenderedChart, bool) {
	c, ok := s.charts[id]
	return c, ok
}

// Charts lists registered charts ordered by id.
func (s *Session) Charts() []RenderedChart {
	out := make([]RenderedChart, 0, len(s.charts))
	for _, c := range s.charts {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Session) cached(tab string) ([]types.Record, bool) {
	recs, ok := s.buckets[tab]
	return recs, ok
}

func (s *Session) cache(tab string, records []types.Record) {
	s.buckets[tab] = records
}

func (s *Session) register(c RenderedChart) {
	s.charts[c.ID] = c
}
