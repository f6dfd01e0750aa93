package cache

import (
	"fmt"
	"sort"
	"strings"
)

const Delimiter = ":"

const listSeparator = ","

var (
	valueEscaper = strings.NewReplacer(`\`, `\\`, Delimiter, `\`+Delimiter)
	itemEscaper  = strings.NewReplacer(`\`, `\\`, listSeparator, `\`+listSeparator)
)

// GenerateKey derives a deterministic key from a prefix and a parameter set.
// Parameters are sorted by name and rendered as name:value, so the same
// logical query always maps to the same key regardless of argument order.
// Nil values render as the empty string; delimiters inside values and list
// separators inside slice items are escaped.
func GenerateKey(prefix string, params map[string]any) string {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+Delimiter+valueEscaper.Replace(render(params[name])))
	}

	return prefix + Delimiter + strings.Join(parts, Delimiter)
}

func render(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case *string:
		if t == nil {
			return ""
		}
		return *t
	case []string:
		items := make([]string, len(t))
		for i, item := range t {
			items[i] = itemEscaper.Replace(item)
		}
		return strings.Join(items, listSeparator)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}
