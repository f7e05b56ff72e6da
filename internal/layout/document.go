package layout

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"slices"
	"sort"

	"github.com/goccy/go-json"
)

// Layer is a named, complete set of bindings, one per physical key.
type Layer struct {
	Name     string    `json:"name"`
	Bindings []Binding `json:"bindings"`
}

// Clone returns a deep copy of the layer.
func (l Layer) Clone() Layer {
	return Layer{Name: l.Name, Bindings: cloneBindings(l.Bindings)}
}

// Equal reports whether two layers have the same name and bindings.
func (l Layer) Equal(o Layer) bool {
	return l.Name == o.Name && slices.EqualFunc(l.Bindings, o.Bindings, Binding.Equal)
}

func cloneBindings(bs []Binding) []Binding {
	if bs == nil {
		return nil
	}
	out := make([]Binding, len(bs))
	for i, b := range bs {
		out[i] = b.Clone()
	}
	return out
}

// Document is a complete keymap layout.
type Document struct {
	Title           string
	Author          string
	Description     string
	Keyboard        string
	FirmwareVersion string

	Layers          []Layer
	CustomBehaviors Behaviors

	// Kconfig holds raw directives such as "CONFIG_ZMK_SLEEP=y" in document order.
	Kconfig  []string
	Includes []string

	// Extra keeps unknown top-level fields so they survive a decode/encode cycle.
	Extra map[string]json.RawMessage
}

// New returns an empty document for the given keyboard.
func New(keyboard string) *Document {
	return &Document{Keyboard: keyboard, CustomBehaviors: Behaviors{}}
}

// Layer returns the named layer and its index, or nil and -1.
func (d *Document) Layer(name string) (*Layer, int) {
	for i := range d.Layers {
		if d.Layers[i].Name == name {
			return &d.Layers[i], i
		}
	}
	return nil, -1
}

// LayerNames returns the layer names in document order.
func (d *Document) LayerNames() []string {
	names := make([]string, len(d.Layers))
	for i, l := range d.Layers {
		names[i] = l.Name
	}
	return names
}

// Clone returns a deep copy that shares no mutable state with d.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	out := &Document{
		Title:           d.Title,
		Author:          d.Author,
		Description:     d.Description,
		Keyboard:        d.Keyboard,
		FirmwareVersion: d.FirmwareVersion,
		CustomBehaviors: d.CustomBehaviors.Clone(),
		Kconfig:         slices.Clone(d.Kconfig),
		Includes:        slices.Clone(d.Includes),
	}
	if d.Layers != nil {
		out.Layers = make([]Layer, len(d.Layers))
		for i, l := range d.Layers {
			out.Layers[i] = l.Clone()
		}
	}
	if d.Extra != nil {
		out.Extra = make(map[string]json.RawMessage, len(d.Extra))
		for k, v := range d.Extra {
			out.Extra[k] = slices.Clone(v)
		}
	}
	return out
}

// reservedFields are the top-level keys owned by the document model.
var reservedFields = map[string]struct{}{
	"title": {}, "author": {}, "description": {}, "keyboard": {}, "firmware_version": {},
	"layers": {}, "custom_behaviors": {}, "kconfig": {}, "includes": {},
}

type documentWire struct {
	Title           string    `json:"title"`
	Author          string    `json:"author"`
	Description     string    `json:"description"`
	Keyboard        string    `json:"keyboard"`
	FirmwareVersion string    `json:"firmware_version,omitempty"`
	Layers          []Layer   `json:"layers"`
	CustomBehaviors Behaviors `json:"custom_behaviors,omitempty"`
	Kconfig         []string  `json:"kconfig,omitempty"`
	Includes        []string  `json:"includes,omitempty"`
}

// MarshalJSON writes the known fields in model order followed by any
// preserved unknown fields in lexical order.
func (d Document) MarshalJSON() ([]byte, error) {
	w := documentWire{
		Title:           d.Title,
		Author:          d.Author,
		Description:     d.Description,
		Keyboard:        d.Keyboard,
		FirmwareVersion: d.FirmwareVersion,
		Layers:          d.Layers,
		CustomBehaviors: d.CustomBehaviors,
		Kconfig:         d.Kconfig,
		Includes:        d.Includes,
	}
	if w.Layers == nil {
		w.Layers = []Layer{}
	}
	base, err := json.Marshal(w)
	if err != nil {
		return nil, err
	}
	if len(d.Extra) == 0 {
		return base, nil
	}

	keys := make([]string, 0, len(d.Extra))
	for k := range d.Extra {
		if _, reserved := reservedFields[k]; !reserved {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.Write(base[:len(base)-1])
	for _, k := range keys {
		name, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.WriteByte(',')
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(d.Extra[k])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a document, keeping unknown top-level fields in Extra.
func (d *Document) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	var w documentWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	out := Document{
		Title:           w.Title,
		Author:          w.Author,
		Description:     w.Description,
		Keyboard:        w.Keyboard,
		FirmwareVersion: w.FirmwareVersion,
		Layers:          w.Layers,
		CustomBehaviors: w.CustomBehaviors,
		Kconfig:         w.Kconfig,
		Includes:        w.Includes,
	}
	if out.CustomBehaviors == nil {
		out.CustomBehaviors = Behaviors{}
	}
	for k, v := range fields {
		if _, reserved := reservedFields[k]; reserved {
			continue
		}
		var compact bytes.Buffer
		if err := json.Compact(&compact, v); err != nil {
			return fmt.Errorf("field %q: %w", k, err)
		}
		if out.Extra == nil {
			out.Extra = make(map[string]json.RawMessage)
		}
		out.Extra[k] = json.RawMessage(compact.Bytes())
	}
	*d = out
	return nil
}

// Decode reads a JSON document from r.
func Decode(r io.Reader) (*Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode layout: %w", err)
	}
	return &doc, nil
}

// Encode writes d to w as indented JSON followed by a newline.
func Encode(w io.Writer, d *Document) error {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode layout: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

// Load reads and decodes the JSON document at path.
func Load(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	doc, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}
