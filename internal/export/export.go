// Package export renders stored findings as a portable JSON document.
package export

import (
	"bytes"
	"encoding/json"
	"io"
	"time"

	"github.com/olegrjumin/sideeye/internal/analyzer"
	"github.com/olegrjumin/sideeye/internal/store"
)

// Tool and Version identify the producer in exported documents
const (
	Tool    = "sideeye"
	Version = "1.0.0"
)

// Document is the top-level export shape
type Document struct {
	Tool       string    `json:"tool"`
	Version    string    `json:"version"`
	ExportedAt time.Time `json:"exported_at"`
	Count      int       `json:"count"`
	Findings   []Finding `json:"findings"`
}

// Finding is a stored finding flattened with its false-positive flag
type Finding struct {
	analyzer.Finding
	FalsePositive bool `json:"false_positive"`
}

// NewDocument builds the export document for entries
func NewDocument(entries []store.Entry, now time.Time) Document {
	doc := Document{
		Tool:       Tool,
		Version:    Version,
		ExportedAt: now.UTC().Truncate(time.Second),
		Count:      len(entries),
		Findings:   make([]Finding, 0, len(entries)),
	}
	for _, e := range entries {
		doc.Findings = append(doc.Findings, Finding{Finding: e.Finding, FalsePositive: e.FalsePositive})
	}
	return doc
}

// Write encodes the export document to w. Evidence is not HTML-escaped.
func Write(w io.Writer, entries []store.Entry, now time.Time) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(NewDocument(entries, now))
}

// Marshal returns the export document as bytes
func Marshal(entries []store.Entry, now time.Time) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, entries, now); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
