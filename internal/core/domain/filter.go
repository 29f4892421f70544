package domain

import (
	"fmt"
	"sort"
	"strings"
)

// FilterOp is a metadata comparison operator.
type FilterOp string

// Supported operators.
const (
	FilterOpEq     FilterOp = "eq"
	FilterOpIn     FilterOp = "in"
	FilterOpGte    FilterOp = "gte"
	FilterOpLte    FilterOp = "lte"
	FilterOpExists FilterOp = "exists"
)

// Condition constrains a single metadata field.
type Condition struct {
	// Field is the metadata key.
	Field string `json:"field"`

	// Op is the comparison operator.
	Op FilterOp `json:"op"`

	// Value is the operand for eq, gte and lte.
	Value any `json:"value,omitempty"`

	// Values is the operand set for in.
	Values []any `json:"values,omitempty"`
}

// Matches reports whether metadata satisfies the condition.
func (c Condition) Matches(metadata map[string]any) bool {
	actual, ok := metadata[c.Field]
	if !ok || actual == nil {
		return false
	}

	switch c.Op {
	case FilterOpExists:
		return true
	case FilterOpEq:
		return scalarEqual(actual, c.Value)
	case FilterOpIn:
		for _, v := range c.Values {
			if scalarEqual(actual, v) {
				return true
			}
		}
		return false
	case FilterOpGte, FilterOpLte:
		a, okA := toFloat(actual)
		b, okB := toFloat(c.Value)
		if !okA || !okB {
			return false
		}
		if c.Op == FilterOpGte {
			return a >= b
		}
		return a <= b
	default:
		return false
	}
}

// String renders the condition for logs.
func (c Condition) String() string {
	switch c.Op {
	case FilterOpExists:
		return c.Field + " exists"
	case FilterOpIn:
		parts := make([]string, len(c.Values))
		for i, v := range c.Values {
			parts[i] = fmt.Sprint(v)
		}
		return fmt.Sprintf("%s in {%s}", c.Field, strings.Join(parts, ", "))
	default:
		return fmt.Sprintf("%s %s %v", c.Field, c.Op, c.Value)
	}
}

// MetadataFilter is a conjunction of conditions. An empty filter matches everything.
type MetadataFilter []Condition

// Matches reports whether metadata satisfies every condition.
func (f MetadataFilter) Matches(metadata map[string]any) bool {
	for _, c := range f {
		if !c.Matches(metadata) {
			return false
		}
	}
	return true
}

// Fields returns the constrained field names in order.
func (f MetadataFilter) Fields() []string {
	fields := make([]string, len(f))
	for i, c := range f {
		fields[i] = c.Field
	}
	return fields
}

// FilterFromMap converts a caller-supplied map into a filter.
// Scalars become equality conditions, slices become set membership.
// Keys are processed in sorted order so the result is deterministic.
func FilterFromMap(m map[string]any) MetadataFilter {
	if len(m) == 0 {
		return nil
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	filter := make(MetadataFilter, 0, len(keys))
	for _, k := range keys {
		switch v := m[k].(type) {
		case []any:
			filter = append(filter, Condition{Field: k, Op: FilterOpIn, Values: v})
		case []string:
			values := make([]any, len(v))
			for i, s := range v {
				values[i] = s
			}
			filter = append(filter, Condition{Field: k, Op: FilterOpIn, Values: values})
		default:
			filter = append(filter, Condition{Field: k, Op: FilterOpEq, Value: v})
		}
	}
	return filter
}

// MergeFilters combines caller and derived filters.
// Caller conditions win when both constrain the same field.
func MergeFilters(caller, derived MetadataFilter) MetadataFilter {
	if len(caller) == 0 && len(derived) == 0 {
		return nil
	}

	taken := make(map[string]bool, len(caller))
	merged := make(MetadataFilter, 0, len(caller)+len(derived))
	for _, c := range caller {
		taken[c.Field] = true
		merged = append(merged, c)
	}
	for _, c := range derived {
		if taken[c.Field] {
			continue
		}
		merged = append(merged, c)
	}
	return merged
}

func scalarEqual(a, b any) bool {
	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		return ok && fa == fb
	}
	if ba, ok := a.(bool); ok {
		bb, ok := b.(bool)
		return ok && ba == bb
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

// NumericValue converts a metadata value to float64 when it is numeric.
func NumericValue(v any) (float64, bool) {
	return toFloat(v)
}
