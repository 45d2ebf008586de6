package store

import (
	"sort"
	"sync"

	"energy_optimizer/internal/model"
)

// Store holds the results of one run in memory: the primary solution, one
// series per swept field and the objective surface.
type Store struct {
	mu       sync.RWMutex
	solution *model.Solution
	series   map[model.Field]model.Series
	surface  *model.Surface
}

func New() *Store {
	return &Store{
		series: make(map[model.Field]model.Series),
	}
}

// SetSolution records the primary solve.
func (s *Store) SetSolution(sol model.Solution) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.solution = &sol
}

// Solution returns the primary solve, if any.
func (s *Store) Solution() (model.Solution, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.solution == nil {
		return model.Solution{}, false
	}
	return *s.solution, true
}

// AddSeries stores a series, replacing any earlier one for the same field.
func (s *Store) AddSeries(series model.Series) {
	s.mu.Lock()
	defer s.mu.Unlock()

	points := make([]model.Point, len(series.Points))
	copy(points, series.Points)
	s.series[series.Field] = model.Series{Field: series.Field, Points: points}
}

// Series returns the stored series for a field.
func (s *Store) Series(f model.Field) (model.Series, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	series, ok := s.series[f]
	return series, ok
}

// AllSeries returns every stored series in canonical field order; fields
// outside the catalog come last, sorted by name.
func (s *Store) AllSeries() []model.Series {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rank := make(map[model.Field]int)
	for i, f := range model.Fields() {
		rank[f] = i
	}

	out := make([]model.Series, 0, len(s.series))
	for _, series := range s.series {
		out = append(out, series)
	}
	sort.Slice(out, func(i, j int) bool {
		ri, iok := rank[out[i].Field]
		rj, jok := rank[out[j].Field]
		switch {
		case iok && jok:
			return ri < rj
		case iok != jok:
			return iok
		}
		return out[i].Field < out[j].Field
	})
	return out
}

// SetSurface records the sampled objective surface.
func (s *Store) SetSurface(surface model.Surface) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.surface = &surface
}

// Surface returns the sampled surface, if any.
func (s *Store) Surface() (model.Surface, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.surface == nil {
		return model.Surface{}, false
	}
	return *s.surface, true
}

// Collector implements sensitivity.Callback and files each finished series
// into the store.
type Collector struct {
	Store *Store
}

func (c Collector) OnPoint(model.Field, model.Point) {}
func (c Collector) OnSeries(series model.Series)   { c.Store.AddSeries(series) }
