package profile

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/vk/keygrid/internal/ctxlog"
	"github.com/vk/keygrid/internal/fsutil"
)

// ErrNotFound is returned when no profile matches a keyboard id.
var ErrNotFound = errors.New("profile not found")

// Catalog indexes profiles by keyboard id.
type Catalog struct {
	profiles map[string]*Profile
}

// NewCatalog returns a catalog holding the given profiles.
func NewCatalog(profiles ...*Profile) *Catalog {
	c := &Catalog{profiles: make(map[string]*Profile, len(profiles))}
	for _, p := range profiles {
		c.profiles[p.Keyboard] = p
	}
	return c
}

// LoadCatalog loads every *.hcl file found under the given paths. When two
// files define the same keyboard, the one loaded later wins.
func LoadCatalog(ctx context.Context, paths ...string) (*Catalog, error) {
	logger := ctxlog.FromContext(ctx)

	files, err := fsutil.FindFilesByExtension(".hcl", paths...)
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered profile files.", "count", len(files))

	c := NewCatalog()
	for _, file := range files {
		profiles, err := LoadFile(ctx, file)
		if err != nil {
			return nil, err
		}
		for _, p := range profiles {
			if prev, ok := c.profiles[p.Keyboard]; ok {
				logger.Warn("Duplicate keyboard profile, later definition wins.",
					"keyboard", p.Keyboard, "previous", prev.Source, "file", p.Source)
			}
			c.profiles[p.Keyboard] = p
		}
	}
	logger.Debug("Profile catalog loaded.", "keyboards", len(c.profiles))
	return c, nil
}

// Get returns the profile for a keyboard id.
func (c *Catalog) Get(keyboard string) (*Profile, error) {
	if p, ok := c.profiles[keyboard]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("keyboard %q: %w", keyboard, ErrNotFound)
}

// IDs returns the keyboard ids in sorted order.
func (c *Catalog) IDs() []string {
	ids := make([]string, 0, len(c.profiles))
	for id := range c.profiles {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
