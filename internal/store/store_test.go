package store

import (
	"fmt"
	"sync"
	"testing"

	"github.com/olegrjumin/sideeye/internal/analyzer"
)

func finding(i int, host string, sev analyzer.Severity) analyzer.Finding {
	return analyzer.Finding{
		Type:       analyzer.TypeHiddenOrDisabledControl,
		Severity:   sev,
		Confidence: 50,
		URL:        "https://" + host + "/page",
		Host:       host,
		Evidence:   fmt.Sprintf("<button id=%d hidden>", i),
		StableKey:  analyzer.StableKey(analyzer.TypeHiddenOrDisabledControl, "https://"+host+"/page", fmt.Sprint(i)),
	}
}

func TestAddIsIdempotent(t *testing.T) {
	s := New(10)
	f := finding(1, "a.example.com", analyzer.SeverityHigh)

	if n := s.Add(f); n != 1 {
		t.Fatalf("first Add = %d, want 1", n)
	}
	dup := f
	dup.Confidence = 99
	if n := s.Add(dup); n != 0 {
		t.Errorf("duplicate Add = %d, want 0", n)
	}
	if s.Len() != 1 {
		t.Errorf("Len = %d, want 1", s.Len())
	}
	got, _ := s.Get(f.StableKey)
	if got.Finding.Confidence != 50 {
		t.Errorf("duplicate replaced original: confidence %d", got.Finding.Confidence)
	}

	if n := s.Add(analyzer.Finding{}); n != 0 {
		t.Errorf("finding without key was stored")
	}
}

func TestEvictsOldestFirst(t *testing.T) {
	s := New(3)
	for i := 0; i < 5; i++ {
		s.Add(finding(i, "a.example.com", analyzer.SeverityLow))
	}
	if s.Len() != 3 {
		t.Fatalf("Len = %d, want 3", s.Len())
	}
	entries := s.List(Filter{})
	for i, e := range entries {
		want := finding(i+2, "a.example.com", analyzer.SeverityLow).StableKey
		if e.Finding.StableKey != want {
			t.Errorf("entry %d = %s, want %s", i, e.Finding.StableKey, want)
		}
	}
}

func TestEvictionDropsFalsePositiveFlag(t *testing.T) {
	s := New(1)
	first := finding(1, "a.example.com", analyzer.SeverityLow)
	s.Add(first)
	if err := s.SetFalsePositive(first.StableKey, true); err != nil {
		t.Fatal(err)
	}
	s.Add(finding(2, "a.example.com", analyzer.SeverityLow))
	s.Add(first)

	if s.IsFalsePositive(first.StableKey) {
		t.Error("re-added finding kept the evicted false-positive flag")
	}
}

func TestSetFalsePositive(t *testing.T) {
	s := New(0)
	if s.Capacity() != DefaultCapacity {
		t.Errorf("capacity = %d, want %d", s.Capacity(), DefaultCapacity)
	}
	f := finding(1, "a.example.com", analyzer.SeverityLow)
	s.Add(f)

	if err := s.SetFalsePositive("missing", true); err != ErrUnknownKey {
		t.Errorf("err = %v, want ErrUnknownKey", err)
	}
	if err := s.SetFalsePositive(f.StableKey, true); err != nil {
		t.Fatal(err)
	}
	if !s.IsFalsePositive(f.StableKey) {
		t.Error("flag not set")
	}
	s.SetFalsePositive(f.StableKey, false)
	if s.IsFalsePositive(f.StableKey) {
		t.Error("flag not cleared")
	}
}

func TestListFilters(t *testing.T) {
	s := New(10)
	s.Add(
		finding(1, "app.example.com", analyzer.SeverityHigh),
		finding(2, "app.example.com", analyzer.SeverityInfo),
		finding(3, "static.other.org", analyzer.SeverityMedium),
	)
	pw := analyzer.Finding{Type: analyzer.TypePasswordValueInDOM, Severity: analyzer.SeverityHigh, Host: "login.example.com", StableKey: "pw"}
	s.Add(pw)
	s.SetFalsePositive(finding(1, "app.example.com", analyzer.SeverityHigh).StableKey, true)

	testCases := []struct {
		name     string
		filter   Filter
		expected int
	}{
		{"all", Filter{}, 4},
		{"host substring case-insensitive", Filter{Host: "EXAMPLE"}, 3},
		{"type", Filter{Type: analyzer.TypePasswordValueInDOM}, 1},
		{"severities", Filter{Severities: map[analyzer.Severity]bool{analyzer.SeverityHigh: true, analyzer.SeverityMedium: true}}, 3},
		{"hide false positives", Filter{HideFalsePositives: true}, 3},
		{"combined", Filter{Host: "app.", Severities: map[analyzer.Severity]bool{analyzer.SeverityHigh: true}, HideFalsePositives: true}, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := len(s.List(tc.filter)); got != tc.expected {
				t.Errorf("got %d entries, want %d", got, tc.expected)
			}
		})
	}
}

func TestClear(t *testing.T) {
	s := New(10)
	s.Add(finding(1, "a.example.com", analyzer.SeverityLow))
	s.Clear()
	if s.Len() != 0 || len(s.List(Filter{})) != 0 {
		t.Error("store not empty after Clear")
	}
	if n := s.Add(finding(1, "a.example.com", analyzer.SeverityLow)); n != 1 {
		t.Errorf("Add after Clear = %d, want 1", n)
	}
}

func TestConcurrentAdd(t *testing.T) {
	s := New(100)
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				s.Add(finding(i, "a.example.com", analyzer.SeverityLow))
				s.List(Filter{Host: "a."})
			}
		}(w)
	}
	wg.Wait()
	if s.Len() != 50 {
		t.Errorf("Len = %d, want 50", s.Len())
	}
}
