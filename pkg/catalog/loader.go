// Package catalog loads the static sequence and narration catalogs.
package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"montagego/pkg/model"
)

// ErrEmptyCatalog is returned when a catalog holds no entries.
var ErrEmptyCatalog = errors.New("catalog is empty")

// LoadSequences reads the sequence catalog. Both {"sequences": [...]} and a bare array are accepted.
func LoadSequences(path string) (*model.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sequence catalog: %w", err)
	}

	var cat model.Catalog
	if isBareList(path, data) {
		err = unmarshal(path, data, &cat.Sequences)
	} else {
		err = unmarshal(path, data, &cat)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse sequence catalog %s: %w", path, err)
	}

	if len(cat.Sequences) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrEmptyCatalog)
	}
	return &cat, nil
}

// LoadNarration reads the narration catalog. Both {"clips": [...]} and a bare array are accepted.
// An empty narration catalog is valid; the narration scheduler simply stays idle.
func LoadNarration(path string) (*model.NarrationCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read narration catalog: %w", err)
	}

	var cat model.NarrationCatalog
	if isBareList(path, data) {
		err = unmarshal(path, data, &cat.Clips)
	} else {
		err = unmarshal(path, data, &cat)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse narration catalog %s: %w", path, err)
	}
	return &cat, nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

func isBareList(path string, data []byte) bool {
	trimmed := bytes.TrimSpace(data)
	if isYAML(path) {
		return bytes.HasPrefix(trimmed, []byte("-")) || bytes.HasPrefix(trimmed, []byte("["))
	}
	return bytes.HasPrefix(trimmed, []byte("["))
}

func unmarshal(path string, data []byte, v any) error {
	if isYAML(path) {
		return yaml.Unmarshal(data, v)
	}
	return json.Unmarshal(data, v)
}

// ResolveSequences joins relative media paths onto root. The input is not modified.
func ResolveSequences(cat *model.Catalog, root string) *model.Catalog {
	out := &model.Catalog{Sequences: make([]model.Sequence, len(cat.Sequences))}
	for i, seq := range cat.Sequences {
		seq.Soundtrack = resolve(root, seq.Soundtrack)
		videos := make([]model.VideoRef, len(seq.Videos))
		for j, v := range seq.Videos {
			videos[j] = model.VideoRef{Video: resolve(root, v.Video)}
		}
		seq.Videos = videos
		out.Sequences[i] = seq
	}
	return out
}

// ResolveNarration joins relative narration paths onto root. The input is not modified.
func ResolveNarration(cat *model.NarrationCatalog, root string) *model.NarrationCatalog {
	out := &model.NarrationCatalog{Clips: make([]model.NarrationClip, len(cat.Clips))}
	for i, c := range cat.Clips {
		out.Clips[i] = model.NarrationClip{Audio: resolve(root, c.Audio)}
	}
	return out
}

func resolve(root, p string) string {
	if p == "" || root == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}
