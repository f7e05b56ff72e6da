package generator

import (
	"fmt"
	"strings"

	"github.com/vk/keygrid/internal/profile"
)

const kconfigPrefix = "CONFIG_"

// kconfigKey strips the CONFIG_ prefix so that "ZMK_SLEEP" and
// "CONFIG_ZMK_SLEEP" name the same option.
func kconfigKey(k string) string {
	return strings.TrimPrefix(strings.TrimSpace(k), kconfigPrefix)
}

// MergeKconfig merges option layers in ascending precedence. A key keeps the
// position where it was first seen and takes the value of the last layer
// that sets it. Keys in the result carry no CONFIG_ prefix.
func MergeKconfig(layers ...[]profile.Option) []profile.Option {
	var merged []profile.Option
	index := make(map[string]int)
	for _, layer := range layers {
		for _, opt := range layer {
			key := kconfigKey(opt.Key)
			if i, ok := index[key]; ok {
				merged[i].Value = opt.Value
				continue
			}
			index[key] = len(merged)
			merged = append(merged, profile.Option{Key: key, Value: opt.Value})
		}
	}
	return merged
}

// ParseDirectives reads document Kconfig overrides of the form KEY=VALUE.
// Blank lines and # comments are skipped.
func ParseDirectives(lines []string) ([]profile.Option, error) {
	var opts []profile.Option
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		key = kconfigKey(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("kconfig directive %d %q: expected KEY=VALUE", i+1, line)
		}
		opts = append(opts, profile.Option{Key: key, Value: strings.TrimSpace(value)})
	}
	return opts, nil
}

// formatKconfig renders options as CONFIG_KEY=VALUE lines.
func formatKconfig(opts []profile.Option) string {
	var sb strings.Builder
	for _, opt := range opts {
		fmt.Fprintf(&sb, "%s%s=%s\n", kconfigPrefix, opt.Key, opt.Value)
	}
	return sb.String()
}
