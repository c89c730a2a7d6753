// Package pantry loads the user's pantry inventory from an artifact so the
// CLI and Lambda front ends can populate preferences without retyping it.
package pantry

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// Source yields the names of ingredients the user already owns.
type Source interface {
	Load(ctx context.Context) ([]string, error)
}

// artifact is the on-disk/S3 shape of a pantry inventory.
type artifact struct {
	Ingredients []struct {
		Name string  `json:"name"`
		Qty  float64 `json:"qty,omitempty"`
		Unit string  `json:"unit,omitempty"`
	} `json:"ingredients"`
}

func parseArtifact(data []byte) ([]string, error) {
	var a artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("failed to parse pantry artifact: %w", err)
	}
	items := make([]string, 0, len(a.Ingredients))
	for _, ing := range a.Ingredients {
		if ing.Name != "" {
			items = append(items, ing.Name)
		}
	}
	return items, nil
}

// FileSource loads the pantry artifact from the local filesystem.
type FileSource struct {
	FilePath string
}

func NewFileSource(filePath string) *FileSource {
	return &FileSource{FilePath: filePath}
}

func (f *FileSource) Load(ctx context.Context) ([]string, error) {
	data, err := os.ReadFile(f.FilePath)
	if err != nil {
		return nil, fmt.Errorf("read pantry artifact: %w", err)
	}
	return parseArtifact(data)
}

// StaticSource is a fixed in-memory pantry, for tests and defaults.
type StaticSource struct {
	items []string
}

func NewStaticSource(items []string) *StaticSource {
	return &StaticSource{items: items}
}

func (s *StaticSource) Load(ctx context.Context) ([]string, error) {
	return s.items, nil
}
