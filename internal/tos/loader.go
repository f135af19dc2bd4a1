package tos

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadDir walks a directory of faculty-authored blueprint YAML files and
// creates any TOS version not already present in the store. Files without an
// id are skipped; invalid YAML is logged and skipped so one bad file does not
// block seeding.
func LoadDir(ctx context.Context, store Store, rootDir string) (int, error) {
	loaded := 0
	err := filepath.Walk(rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		if !strings.HasSuffix(path, ".yaml") && !strings.HasSuffix(path, ".yml") {
			return nil
		}

		t, err := loadFile(path)
		if err != nil {
			slog.Warn("skipping invalid tos YAML", "path", path, "error", err)
			return nil
		}
		if t == nil {
			return nil
		}

		if existing, err := store.Get(ctx, t.ID); err == nil && existing != nil {
			return nil
		}
		if _, err := store.Create(ctx, *t); err != nil {
			return fmt.Errorf("seed tos %s: %w", t.ID, err)
		}
		loaded++
		return nil
	})
	if err != nil {
		return loaded, fmt.Errorf("loading tos blueprints: %w", err)
	}

	slog.Info("tos blueprints loaded", "dir", rootDir, "count", loaded)
	return loaded, nil
}

func loadFile(path string) (*TOS, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var t TOS
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, err
	}
	if t.ID == "" {
		return nil, nil // not a blueprint file
	}
	if t.SubjectID == "" {
		return nil, fmt.Errorf("blueprint %s has no subject_id", t.ID)
	}
	for _, topic := range t.Topics {
		for level := range topic.BloomDist {
			if !level.Valid() {
				return nil, fmt.Errorf("topic %q uses invalid bloom level %q", topic.Title, level)
			}
		}
	}
	return &t, nil
}
