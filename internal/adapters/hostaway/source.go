package hostaway

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
)

//go:embed fixtures/reviews.json
var sampleReviews []byte

// FixtureSource serves a fixed set of Hostaway review payloads.
// Every call decodes a fresh copy so callers may mutate the result.
type FixtureSource struct{ data []byte }

// NewFixture returns the built-in sample set.
func NewFixture() *FixtureSource { return &FixtureSource{data: sampleReviews} }

// LoadFile reads a JSON array of review payloads from disk. The file is
// validated once so a bad path fails at startup rather than on first request.
func LoadFile(path string) (*FixtureSource, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s := &FixtureSource{data: b}
	if _, err := s.decode(); err != nil {
		return nil, fmt.Errorf("fixture %s: %w", path, err)
	}
	return s, nil
}

func (s *FixtureSource) RawReviews(_ context.Context) ([]map[string]any, error) {
	return s.decode()
}

func (s *FixtureSource) decode() ([]map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(s.data))
	var out []map[string]any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}
