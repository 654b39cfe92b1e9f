// Package store owns the authoritative in-memory collections of metric and
// user records. Data is lost on restart.
package store

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/verdantlabs/esgtrack/pkg/esg"
)

// ErrNotFound is returned by Update and Remove when no metric has the given
// id. It is a normal, reportable outcome, not a fatal error.
var ErrNotFound = errors.New("metric not found")

// Store holds the live metric and user collections. Construct one per
// process (or per test) with New; there is no package-level instance.
type Store struct {
	mu      sync.RWMutex
	metrics []esg.Metric
	users   []esg.User
}

// New creates an empty store seeded with the user directory.
func New() *Store {
	return &Store{
		metrics: make([]esg.Metric, 0, 64),
		users: []esg.User{
			{ID: "1", Name: "Carlos Silva", Role: esg.RoleESG, Department: "Sustainability"},
			{ID: "2", Name: "Ana Souza", Role: esg.RoleLeadership, Department: "Executive"},
		},
	}
}

// LoadSampleData seeds a couple of demo metrics so a fresh server has
// something to show on the dashboard.
func (s *Store) LoadSampleData() {
	samples := []esg.MetricInput{
		{
			Category:     string(esg.CategoryEnvironmental),
			Name:         "Carbon Emissions",
			Value:        ptr(980.0),
			Unit:         "tonnes CO2e",
			Period:       "2024-Q1",
			Source:       "Environmental Monitoring System",
			ReportedBy:   "Carlos Silva",
			DateReported: "2024-01-20T00:00:00Z",
			Verified:     true,
			Notes:        "Scope 1 and 2 emissions",
		},
		{
			Category:     string(esg.CategorySocial),
			Name:         "Employee Training Hours",
			Value:        ptr(12000.0),
			Unit:         "hours",
			Period:       "2024-Q1",
			Source:       "HR System",
			ReportedBy:   "Ana Souza",
			DateReported: "2024-02-10T00:00:00Z",
			Verified:     true,
			Notes:        "Mandatory annual training",
		},
	}
	for _, in := range samples {
		s.Create(in)
	}
}

func ptr(f float64) *float64 { return &f }

// ListAll returns the full metric collection in insertion order. The returned
// slice is a copy; callers never observe internal mutation through it.
func (s *Store) ListAll() []esg.Metric {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]esg.Metric, len(s.metrics))
	copy(out, s.metrics)
	return out
}

// ListByCategory returns the metrics whose category exactly matches c, in
// insertion order.
func (s *Store) ListByCategory(c esg.Category) []esg.Metric {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]esg.Metric, 0)
	for _, m := range s.metrics {
		if m.Category == c {
			out = append(out, m)
		}
	}
	return out
}

// Create assigns a fresh id to the validated input, appends the record and
// returns it. UUIDs keep ids collision-free even for back-to-back creates
// within the same clock tick.
func (s *Store) Create(in esg.MetricInput) esg.Metric {
	m := esg.Metric{
		ID:           uuid.NewString(),
		Category:     esg.Category(in.Category),
		Name:         in.Name,
		Unit:         in.Unit,
		Period:       in.Period,
		Source:       in.Source,
		ReportedBy:   in.ReportedBy,
		DateReported: in.DateReported,
		Verified:     in.Verified,
		Notes:        in.Notes,
	}
	if in.Value != nil {
		m.Value = *in.Value
	}

	s.mu.Lock()
	s.metrics = append(s.metrics, m)
	s.mu.Unlock()

	return m
}

// Update merges the supplied fields of the patch over the metric with the
// given id and returns the merged record. The record is replaced atomically;
// readers never see a partially applied patch.
func (s *Store) Update(id string, patch esg.MetricPatch) (esg.Metric, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.metrics {
		if s.metrics[i].ID == id {
			merged := s.metrics[i]
			patch.Apply(&merged)
			s.metrics[i] = merged
			return merged, nil
		}
	}
	return esg.Metric{}, ErrNotFound
}

// Remove deletes the metric with the given id.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.metrics {
		if s.metrics[i].ID == id {
			s.metrics = append(s.metrics[:i], s.metrics[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// ListUsers returns a copy of the user directory.
func (s *Store) ListUsers() []esg.User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]esg.User, len(s.users))
	copy(out, s.users)
	return out
}
