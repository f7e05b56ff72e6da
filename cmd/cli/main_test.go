package main

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/keygrid/internal/cli"
	"github.com/vk/keygrid/internal/testutil"
)

func TestRun_Help(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}

	// --- Act ---
	err := run(context.Background(), out, errOut, []string{"-h"})

	// --- Assert ---
	require.NoError(t, err, "run() should return a nil error for help")
	require.Contains(t, out.String(), "Usage:", "Expected help text to be printed to the output buffer")
}

func TestRun_ParseError(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}

	// --- Act ---
	err := run(context.Background(), out, errOut, []string{"--this-is-not-a-valid-flag"})

	// --- Assert ---
	var exitErr *cli.ExitError
	require.True(t, errors.As(err, &exitErr), "run() should return an ExitError when argument parsing fails")
	require.Equal(t, 2, exitErr.Code)
	require.Contains(t, exitErr.Message, "unknown flag: --this-is-not-a-valid-flag")
}

func TestRun_InvalidProfile(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// A profile with a syntax error fails when the catalog is loaded.
	root := testutil.WriteFiles(t, map[string]string{
		"profiles/broken.hcl": `keyboard "tiny" {
  key_count = 3
  // Missing closing brace here
`,
		"layout.json": testutil.Sample,
	})
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	args := []string{"--profiles", filepath.Join(root, "profiles"), "validate", filepath.Join(root, "layout.json")}

	// --- Act ---
	err := run(context.Background(), out, errOut, args)

	// --- Assert ---
	var exitErr *cli.ExitError
	require.True(t, errors.As(err, &exitErr))
	require.Equal(t, 1, exitErr.Code)
	require.Contains(t, exitErr.Message, "failed to load profiles")
	require.Contains(t, exitErr.Message, "failed to parse")
}
