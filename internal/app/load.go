package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/vk/keygrid/internal/ctxlog"
	"github.com/vk/keygrid/internal/edit"
	"github.com/vk/keygrid/internal/layout"
	"github.com/vk/keygrid/internal/profile"
)

// stdio names standard input or output in place of a file path.
const stdio = "-"

func (a *App) loadDocument(ctx context.Context, path string) (*layout.Document, error) {
	logger := ctxlog.FromContext(ctx)
	doc, err := layout.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load layout: %w", err)
	}
	logger.Debug("Layout loaded.", "path", path, "keyboard", doc.Keyboard, "layers", len(doc.Layers))
	return doc, nil
}

// writeDocument writes doc to path, or to the output writer for "-".
func (a *App) writeDocument(path string, doc *layout.Document) error {
	var buf bytes.Buffer
	if err := layout.Encode(&buf, doc); err != nil {
		return err
	}
	return a.writeOutput(path, buf.Bytes())
}

// writeOutput writes data to path through a temporary file in the same
// directory, so a failed write never leaves a truncated file behind.
func (a *App) writeOutput(path string, data []byte) error {
	if path == "" || path == stdio {
		_, err := a.outW.Write(data)
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// profileFor finds the profile for the document's keyboard. When required
// is false a missing profile is logged and reported as nil.
func (a *App) profileFor(ctx context.Context, doc *layout.Document, required bool) (*profile.Profile, error) {
	logger := ctxlog.FromContext(ctx)
	catalog, err := a.catalog()
	if err != nil {
		return nil, fmt.Errorf("failed to load profiles: %w", err)
	}

	p, err := catalog.Get(doc.Keyboard)
	switch {
	case err == nil:
		logger.Debug("Profile resolved.", "keyboard", p.Keyboard, "source", p.Source)
		return p, nil
	case errors.Is(err, profile.ErrNotFound) && !required:
		logger.Warn("No profile for keyboard, only structural checks apply.",
			"keyboard", doc.Keyboard, "available", catalog.IDs())
		return nil, nil
	}
	return nil, fmt.Errorf("%w (profiles searched: %v)", err, a.config.ProfilePaths)
}

// engineOptions configures the edit engine for doc.
func (a *App) engineOptions(ctx context.Context, doc *layout.Document) ([]edit.Option, error) {
	p, err := a.profileFor(ctx, doc, false)
	if err != nil {
		return nil, err
	}
	opts := []edit.Option{edit.WithSource(func(ctx context.Context, path string) (*layout.Document, error) {
		return a.loadDocument(ctx, path)
	})}
	if p != nil {
		opts = append(opts, edit.WithProfile(p))
	}
	return opts, nil
}

// loadBatch reads operations from a YAML or JSON file holding a list of
// operation strings.
func loadBatch(path string) ([]edit.Operation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch: %w", err)
	}
	var lines []string
	if err := yaml.Unmarshal(data, &lines); err != nil {
		return nil, fmt.Errorf("failed to decode batch %s: %w", path, err)
	}
	return parseOperations(lines)
}

func parseOperations(lines []string) ([]edit.Operation, error) {
	ops := make([]edit.Operation, 0, len(lines))
	for i, line := range lines {
		op, err := edit.ParseOperation(line)
		if err != nil {
			return nil, fmt.Errorf("operation %d: %w", i+1, err)
		}
		ops = append(ops, op)
	}
	return ops, nil
}
