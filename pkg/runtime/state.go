package runtime

import "fmt"

// State is the per-run mutable mapping from variable name to value
// (spec.md §4.6's "per-timestep mutable mapping from variable name to
// value (scalar or time-indexed array), reset per Monte-Carlo run").
// Scalars cover params and non-indexed vars; series cover vars
// addressed by a time index (e.g. `customers[t]`).
type State struct {
	scalars map[string]interface{}
	series  map[string]map[int]float64
	warns   []string
}

// NewState returns an empty state, fresh for one deterministic run.
func NewState() *State {
	return &State{
		scalars: make(map[string]interface{}),
		series:  make(map[string]map[int]float64),
	}
}

// SetScalar binds name to a non-indexed value (number, bool, or string).
func (s *State) SetScalar(name string, v interface{}) {
	s.scalars[name] = v
}

// GetScalar returns name's scalar binding, if any.
func (s *State) GetScalar(name string) (interface{}, bool) {
	v, ok := s.scalars[name]
	return v, ok
}

// SetSeries records value at index t for a time-indexed variable.
func (s *State) SetSeries(name string, t int, value float64) {
	m, ok := s.series[name]
	if !ok {
		m = make(map[int]float64)
		s.series[name] = m
	}
	m[t] = value
}

// GetSeries retrieves the value previously stored at index t, or 0
// with a recorded warning if none exists (spec.md §4.6: "if none,
// return 0 and record a warning").
func (s *State) GetSeries(name string, t int) float64 {
	m, ok := s.series[name]
	if !ok {
		s.warn("time series %q has no value at index %d", name, t)
		return 0
	}
	v, ok := m[t]
	if !ok {
		s.warn("time series %q has no value at index %d", name, t)
		return 0
	}
	return v
}

// SeriesOrScalar looks up name either as a scalar or, failing that,
// as a time series evaluated at the current timestep t. Returns 0 if
// neither binding exists (spec.md §4.6: "Variable lookup returns the
// current state value or 0 if absent").
func (s *State) SeriesOrScalar(name string, t int) interface{} {
	if v, ok := s.scalars[name]; ok {
		return v
	}
	if m, ok := s.series[name]; ok {
		if v, ok := m[t]; ok {
			return v
		}
	}
	return 0.0
}

// AsTimeSeries exports name's full recorded series in [0, upTo)
// order, substituting 0 for any gap.
func (s *State) AsTimeSeries(name string, upTo int) []float64 {
	out := make([]float64, upTo)
	m := s.series[name]
	for t := 0; t < upTo; t++ {
		out[t] = m[t]
	}
	return out
}

// HasSeries reports whether name has ever been written as a series.
func (s *State) HasSeries(name string) bool {
	_, ok := s.series[name]
	return ok
}

// HasSeriesAt reports whether name already has a value recorded at
// index t specifically (as opposed to HasSeries, which only checks
// that some index has been written).
func (s *State) HasSeriesAt(name string, t int) bool {
	m, ok := s.series[name]
	if !ok {
		return false
	}
	_, ok = m[t]
	return ok
}

func (s *State) warn(format string, args ...interface{}) {
	s.warns = append(s.warns, fmt.Sprintf(format, args...))
}

// Warnings returns all non-fatal warnings recorded during evaluation.
func (s *State) Warnings() []string {
	return s.warns
}
