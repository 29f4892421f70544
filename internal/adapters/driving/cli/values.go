package cli

import (
	"fmt"
	"strconv"
	"strings"
)

// parseKeyValues turns key=value flags into a metadata map.
// Values are parsed as bool, integer or float before falling back to string.
// With lists enabled, a comma separated value becomes a set of alternatives.
func parseKeyValues(pairs []string, lists bool) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	out := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid key=value pair %q", pair)
		}

		if lists && strings.Contains(raw, ",") {
			parts := strings.Split(raw, ",")
			values := make([]any, 0, len(parts))
			for _, part := range parts {
				if part = strings.TrimSpace(part); part != "" {
					values = append(values, parseScalar(part))
				}
			}
			out[key] = values
			continue
		}

		out[key] = parseScalar(strings.TrimSpace(raw))
	}
	return out, nil
}

func parseScalar(s string) any {
	if b, err := strconv.ParseBool(s); err == nil && (s == "true" || s == "false") {
		return b
	}
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
