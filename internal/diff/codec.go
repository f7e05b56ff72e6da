package diff

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Format is a change-set serialization format.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatJSON, FormatYAML:
		return f, nil
	case "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unknown change-set format %q (want json or yaml)", s)
}

// FormatFromPath picks a format from a file extension, defaulting to JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSON
}

// Marshal encodes a change set as a top-level list.
func Marshal(changes []Change, format Format) ([]byte, error) {
	if changes == nil {
		changes = []Change{}
	}
	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(changes, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(changes); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	return nil, fmt.Errorf("unknown change-set format %q", format)
}

// Unmarshal decodes a change set and checks each record's kind and path.
func Unmarshal(data []byte, format Format) ([]Change, error) {
	var changes []Change
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, &changes); err != nil {
			return nil, fmt.Errorf("decode change set: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &changes); err != nil {
			return nil, fmt.Errorf("decode change set: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown change-set format %q", format)
	}

	for i, c := range changes {
		if !c.Kind.valid() {
			return nil, fmt.Errorf("change %d: unknown kind %q", i+1, c.Kind)
		}
		if c.Path == "" {
			return nil, fmt.Errorf("change %d: missing path", i+1)
		}
	}
	return changes, nil
}
