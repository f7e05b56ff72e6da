package generator

import (
	"fmt"
	"strconv"
	"strings"
)

// dtWriter emits devicetree source with four-space indentation.
type dtWriter struct {
	sb    strings.Builder
	depth int
}

func (w *dtWriter) line(format string, args ...any) {
	if format == "" {
		w.sb.WriteByte('\n')
		return
	}
	w.sb.WriteString(strings.Repeat("    ", w.depth))
	fmt.Fprintf(&w.sb, format, args...)
	w.sb.WriteByte('\n')
}

func (w *dtWriter) open(node string) {
	w.line("%s {", node)
	w.depth++
}

func (w *dtWriter) close() {
	w.depth--
	w.line("};")
}

// cells writes an integer property, skipping zero values.
func (w *dtWriter) cells(prop string, v int) {
	if v != 0 {
		w.line("%s = <%d>;", prop, v)
	}
}

func (w *dtWriter) String() string {
	return w.sb.String()
}

// labels tracks the identifiers taken within one devicetree namespace.
type labels map[string]struct{}

// unique reserves base, or base with "_<n>" appended when base is taken. n
// is the position of the element being named and is bumped until the
// result is free.
func (ls labels) unique(base string, n int) string {
	l := base
	for {
		if _, taken := ls[l]; !taken {
			break
		}
		l = base + "_" + strconv.Itoa(n)
		n++
	}
	ls[l] = struct{}{}
	return l
}

// label turns a name into a devicetree label: letters, digits and
// underscores, not starting with a digit.
func label(name string) string {
	var sb strings.Builder
	for i, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
			sb.WriteRune(r)
		case r >= '0' && r <= '9':
			if i == 0 {
				sb.WriteByte('_')
			}
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}
	if sb.Len() == 0 {
		return "_"
	}
	return sb.String()
}

// quote renders a devicetree string literal.
func quote(s string) string {
	return strconv.Quote(s)
}

func intList(ns []int) string {
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, " ")
}

// align lays out cells in rows of rowSize, padding each column to its
// widest cell.
func align(cells []string, rowSize int) []string {
	if rowSize <= 0 || rowSize > len(cells) {
		rowSize = len(cells)
	}
	if rowSize == 0 {
		return nil
	}
	widths := make([]int, rowSize)
	for i, c := range cells {
		widths[i%rowSize] = max(widths[i%rowSize], len(c))
	}

	var rows []string
	for start := 0; start < len(cells); start += rowSize {
		end := min(start+rowSize, len(cells))
		var sb strings.Builder
		for i, c := range cells[start:end] {
			if i > 0 {
				sb.WriteString("  ")
			}
			sb.WriteString(c)
			if i < end-start-1 {
				sb.WriteString(strings.Repeat(" ", widths[i]-len(c)))
			}
		}
		rows = append(rows, sb.String())
	}
	return rows
}
