// Package store accumulates findings across analyses, keyed by stable key.
package store

import (
	"container/list"
	"errors"
	"strings"
	"sync"

	"github.com/olegrjumin/sideeye/internal/analyzer"
)

// DefaultCapacity is used when New is given a non-positive capacity
const DefaultCapacity = 5000

// ErrUnknownKey is returned when a stable key is not in the store
var ErrUnknownKey = errors.New("unknown finding key")

// Entry is a stored finding with its caller-side metadata
type Entry struct {
	Finding       analyzer.Finding `json:"finding"`
	FalsePositive bool             `json:"false_positive"`
}

// Filter selects entries in List. Zero values match everything.
type Filter struct {
	Host               string                     // case-insensitive substring of the finding host
	Type               analyzer.FindingType       // exact type
	Severities         map[analyzer.Severity]bool // allowed severities
	HideFalsePositives bool
}

func (f Filter) match(e Entry) bool {
	if f.HideFalsePositives && e.FalsePositive {
		return false
	}
	if f.Type != "" && e.Finding.Type != f.Type {
		return false
	}
	if len(f.Severities) > 0 && !f.Severities[e.Finding.Severity] {
		return false
	}
	if f.Host != "" && !strings.Contains(strings.ToLower(e.Finding.Host), strings.ToLower(f.Host)) {
		return false
	}
	return true
}

// Store is a capacity-bounded, insertion-ordered set of findings.
// The oldest entries are evicted first. Safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	capacity int
	order    *list.List               // of *Entry, oldest at front
	byKey    map[string]*list.Element // stable key -> element in order
}

// New creates a new Store holding at most capacity findings
func New(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{
		capacity: capacity,
		order:    list.New(),
		byKey:    make(map[string]*list.Element),
	}
}

// Add inserts findings not already present and returns how many were new.
// A key seen before keeps its original finding and position.
func (s *Store) Add(findings ...analyzer.Finding) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := 0
	for _, f := range findings {
		if f.StableKey == "" {
			continue
		}
		if _, ok := s.byKey[f.StableKey]; ok {
			continue
		}
		s.byKey[f.StableKey] = s.order.PushBack(&Entry{Finding: f})
		added++
	}

	for s.order.Len() > s.capacity {
		oldest := s.order.Front()
		e := s.order.Remove(oldest).(*Entry)
		delete(s.byKey, e.Finding.StableKey)
	}
	return added
}

// SetFalsePositive flags or clears the false-positive mark of a finding
func (s *Store) SetFalsePositive(key string, fp bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	el, ok := s.byKey[key]
	if !ok {
		return ErrUnknownKey
	}
	el.Value.(*Entry).FalsePositive = fp
	return nil
}

// IsFalsePositive reports the false-positive mark of a finding
func (s *Store) IsFalsePositive(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	el, ok := s.byKey[key]
	return ok && el.Value.(*Entry).FalsePositive
}

// Get returns the entry for a stable key
func (s *Store) Get(key string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	el, ok := s.byKey[key]
	if !ok {
		return Entry{}, false
	}
	return *el.Value.(*Entry), true
}

// List returns copies of the matching entries, oldest first
func (s *Store) List(f Filter) []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Entry, 0, s.order.Len())
	for el := s.order.Front(); el != nil; el = el.Next() {
		e := *el.Value.(*Entry)
		if f.match(e) {
			out = append(out, e)
		}
	}
	return out
}

// Len returns the number of stored findings
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.order.Len()
}

// Capacity returns the maximum number of stored findings
func (s *Store) Capacity() int {
	return s.capacity
}

// Clear removes every finding
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order.Init()
	clear(s.byKey)
}
