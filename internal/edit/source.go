package edit

import (
	"context"
	"fmt"
	"strings"

	"github.com/vk/keygrid/internal/ctxlog"
	"github.com/vk/keygrid/internal/layout"
	"github.com/vk/keygrid/internal/query"
)

// SourceLoader loads an external document named by a source reference.
type SourceLoader func(ctx context.Context, path string) (*layout.Document, error)

func loadFile(_ context.Context, path string) (*layout.Document, error) {
	return layout.Load(path)
}

// splitSource splits a source reference at its first '$' or ':' into a
// document path and a query, so "other.json:behaviors" and
// "other.json:Base[0]" read like the same queries against the working copy.
// A drive letter such as "C:\" is part of the path. An empty path refers
// to the working copy.
func splitSource(ref string) (path, expr string, err error) {
	from := 0
	if len(ref) > 2 && ref[1] == ':' && isASCIILetter(ref[0]) && (ref[2] == '\\' || ref[2] == '/') {
		from = 2
	}
	i := strings.IndexAny(ref[from:], "$:")
	if i < 0 {
		return "", "", fmt.Errorf("source %q: expected PATH$QUERY or PATH:LAYER", ref)
	}
	i += from
	if ref[i:] == ":" {
		return "", "", fmt.Errorf("source %q: missing layer name after ':'", ref)
	}
	return ref[:i], ref[i:], nil
}

func isASCIILetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// sources caches external documents for the duration of one batch.
type sources struct {
	load  SourceLoader
	cache map[string]*layout.Document
}

func newSources(load SourceLoader) *sources {
	return &sources{load: load, cache: make(map[string]*layout.Document)}
}

// resolve evaluates a source reference. Queries against the working copy
// see the effects of earlier operations in the batch.
func (s *sources) resolve(ctx context.Context, ref string, working *layout.Document) ([]query.Match, error) {
	path, expr, err := splitSource(ref)
	if err != nil {
		return nil, err
	}
	q, err := query.Compile(expr)
	if err != nil {
		return nil, err
	}

	doc := working
	if path != "" {
		if doc, err = s.document(ctx, path); err != nil {
			return nil, &query.ResolutionError{Query: ref, Reason: err.Error()}
		}
	}

	matches := q.Eval(doc)
	if len(matches) == 0 {
		return nil, &query.ResolutionError{Query: ref, Reason: "no matches"}
	}
	return matches, nil
}

func (s *sources) document(ctx context.Context, path string) (*layout.Document, error) {
	if doc, ok := s.cache[path]; ok {
		return doc, nil
	}
	ctxlog.FromContext(ctx).Debug("Loading source document.", "path", path)
	doc, err := s.load(ctx, path)
	if err != nil {
		return nil, err
	}
	s.cache[path] = doc
	return doc, nil
}
