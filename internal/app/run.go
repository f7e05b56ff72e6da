package app

import (
	"cmp"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"

	"github.com/vk/keygrid/internal/diff"
	"github.com/vk/keygrid/internal/edit"
	"github.com/vk/keygrid/internal/generator"
	"github.com/vk/keygrid/internal/registry"
)

// EditRequest describes one edit batch.
type EditRequest struct {
	Path      string
	Ops       []string // textual operations, applied after BatchFile
	BatchFile string   // optional YAML or JSON list of operations
	Gets      []string // queries evaluated after every operation
	// Output is where the edited document goes; empty writes back to Path.
	Output string
	DryRun bool
}

// getResult is one line of edit output for a get operation.
type getResult struct {
	Query string `json:"query"`
	Path  string `json:"path"`
	Type  string `json:"type"`
	Value any    `json:"value"`
}

// Edit applies a batch to a document. Get results are printed as JSON; the
// document is written only when the batch changed it.
func (a *App) Edit(ctx context.Context, req EditRequest) error {
	ctx = a.context(ctx)

	var ops []edit.Operation
	if req.BatchFile != "" {
		batch, err := loadBatch(req.BatchFile)
		if err != nil {
			return err
		}
		ops = append(ops, batch...)
	}
	inline, err := parseOperations(req.Ops)
	if err != nil {
		return err
	}
	ops = append(ops, inline...)
	for _, q := range req.Gets {
		ops = append(ops, edit.Get(q))
	}
	if len(ops) == 0 {
		return fmt.Errorf("no operations given")
	}

	doc, err := a.loadDocument(ctx, req.Path)
	if err != nil {
		return err
	}
	opts, err := a.engineOptions(ctx, doc)
	if err != nil {
		return err
	}

	res, err := edit.New(opts...).Apply(ctx, doc, ops)
	if err != nil {
		return err
	}

	var gets []getResult
	g := 0
	for _, op := range ops {
		if op.Mutates() {
			continue
		}
		for _, m := range res.Gets[g] {
			gets = append(gets, getResult{Query: op.Query, Path: m.Path.String(), Type: string(m.Type), Value: m.Value})
		}
		g++
	}
	if g > 0 {
		data, err := json.MarshalIndent(gets, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode get results: %w", err)
		}
		if err := a.writeOutput(stdio, append(data, '\n')); err != nil {
			return err
		}
	}

	if !res.Changed {
		a.logger.Info("Layout unchanged.", "path", req.Path, "operations", len(ops))
		return nil
	}
	if req.DryRun {
		a.logger.Info("Dry run, layout not written.", "path", req.Path, "operations", len(ops))
		return nil
	}
	out := req.Output
	if out == "" {
		out = req.Path
	}
	if err := a.writeDocument(out, res.Document); err != nil {
		return err
	}
	a.logger.Info("Layout updated.", "path", out, "operations", len(ops))
	return nil
}

// Validate checks a document against the profile for its keyboard.
func (a *App) Validate(ctx context.Context, path string) error {
	ctx = a.context(ctx)
	doc, err := a.loadDocument(ctx, path)
	if err != nil {
		return err
	}
	p, err := a.profileFor(ctx, doc, true)
	if err != nil {
		return err
	}
	if err := registry.Validate(ctx, p, doc); err != nil {
		if verrs, ok := err.(registry.ValidationErrors); ok {
			for _, e := range verrs {
				a.logger.Error("Validation problem.", "path", path, "error", e)
			}
		}
		return err
	}
	a.logger.Info("Layout is valid.", "path", path, "keyboard", doc.Keyboard)
	return nil
}

// CompileRequest selects the document, firmware variant and output paths.
// Empty output paths default to the document path with .keymap and .conf
// extensions.
type CompileRequest struct {
	Path        string
	Firmware    string
	KeymapPath  string
	KconfigPath string
}

// Compile validates a document and writes the generated keymap and Kconfig
// files.
func (a *App) Compile(ctx context.Context, req CompileRequest) error {
	ctx = a.context(ctx)
	doc, err := a.loadDocument(ctx, req.Path)
	if err != nil {
		return err
	}
	p, err := a.profileFor(ctx, doc, true)
	if err != nil {
		return err
	}

	out, err := generator.Compile(ctx, p, doc, req.Firmware)
	if err != nil {
		return err
	}

	base := strings.TrimSuffix(req.Path, filepath.Ext(req.Path))
	keymapPath := cmp.Or(req.KeymapPath, base+".keymap")
	kconfigPath := cmp.Or(req.KconfigPath, base+".conf")
	if err := a.writeOutput(keymapPath, []byte(out.Keymap)); err != nil {
		return err
	}
	if err := a.writeOutput(kconfigPath, []byte(out.Kconfig)); err != nil {
		return err
	}
	a.logger.Info("Firmware source generated.", "keymap", keymapPath, "kconfig", kconfigPath, "firmware", req.Firmware)
	return nil
}

// Diff prints the change set turning document a into document b.
func (a *App) Diff(ctx context.Context, pathA, pathB string, format diff.Format) error {
	ctx = a.context(ctx)
	docA, err := a.loadDocument(ctx, pathA)
	if err != nil {
		return err
	}
	docB, err := a.loadDocument(ctx, pathB)
	if err != nil {
		return err
	}

	changes := diff.Diff(docA, docB)
	data, err := diff.Marshal(changes, format)
	if err != nil {
		return err
	}
	a.logger.Info("Documents compared.", "changes", len(changes))
	return a.writeOutput(stdio, data)
}

// PatchRequest applies the change set in PatchPath to the document at Path.
type PatchRequest struct {
	Path      string
	PatchPath string
	// Output is where the patched document goes; empty writes back to Path.
	Output string
}

// Patch applies a change set produced by Diff.
func (a *App) Patch(ctx context.Context, req PatchRequest) error {
	ctx = a.context(ctx)
	data, err := os.ReadFile(req.PatchPath)
	if err != nil {
		return fmt.Errorf("failed to read patch: %w", err)
	}
	changes, err := diff.Unmarshal(data, diff.FormatFromPath(req.PatchPath))
	if err != nil {
		return fmt.Errorf("%s: %w", req.PatchPath, err)
	}

	doc, err := a.loadDocument(ctx, req.Path)
	if err != nil {
		return err
	}
	opts, err := a.engineOptions(ctx, doc)
	if err != nil {
		return err
	}
	patched, err := diff.Patch(ctx, doc, changes, opts...)
	if err != nil {
		return err
	}

	out := cmp.Or(req.Output, req.Path)
	if err := a.writeDocument(out, patched); err != nil {
		return err
	}
	a.logger.Info("Patch applied.", "path", out, "changes", len(changes))
	return nil
}
