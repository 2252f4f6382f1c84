package forms

import "strings"

// Answers is the accumulated answer set of a form, keyed by field name.
// Values are string, bool or []any of strings, matching what encoding/json
// produces, so a saved and reloaded draft compares equal to the original.
type Answers map[string]any

// Normalize returns a copy of a with list values converted to []any and
// nil entries dropped.
func (a Answers) Normalize() Answers {
	out := make(Answers, len(a))
	for k, v := range a {
		switch val := v.(type) {
		case nil:
			continue
		case []string:
			list := make([]any, len(val))
			for i, s := range val {
				list[i] = s
			}
			out[k] = list
		case []any:
			list := make([]any, len(val))
			copy(list, val)
			out[k] = list
		default:
			out[k] = val
		}
	}
	return out
}

// Merge returns a normalized copy of a with every key of b applied on top.
// A nil value in b removes the key.
func (a Answers) Merge(b Answers) Answers {
	out := a.Normalize()
	for k, v := range b {
		if v == nil {
			delete(out, k)
			continue
		}
		out[k] = v
	}
	return out.Normalize()
}

// String returns the trimmed string value of name, or "" when absent or not a string.
func (a Answers) String(name string) string {
	s, _ := a[name].(string)
	return strings.TrimSpace(s)
}

// Bool returns the boolean value of name. Absent or non-bool values are false.
func (a Answers) Bool(name string) bool {
	b, _ := a[name].(bool)
	return b
}

// List returns the string items of a list value.
func (a Answers) List(name string) []string {
	switch val := a[name].(type) {
	case []string:
		return append([]string(nil), val...)
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Has reports whether name carries a non-empty value.
func (a Answers) Has(name string) bool {
	return !isEmpty(a[name])
}

func isEmpty(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(val) == ""
	case []string:
		return len(val) == 0
	case []any:
		return len(val) == 0
	}
	return false
}
