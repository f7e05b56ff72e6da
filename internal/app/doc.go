// Package app wires the layout engine to files and logging. It loads
// documents and keyboard profiles, runs edit, validate, compile, diff and
// patch requests, and writes their results, decoupled from any specific
// entrypoint like a CLI.
package app
