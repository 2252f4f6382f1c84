package forms

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Schema is an ordered set of field declarations for one form.
type Schema struct {
	name   string
	fields []Field
	index  map[string]int
}

// NewSchema builds a schema. It panics on duplicate field names since
// schemas are declared statically.
func NewSchema(name string, fields ...Field) *Schema {
	s := &Schema{name: name, index: make(map[string]int, len(fields))}
	for _, f := range fields {
		if _, dup := s.index[f.Name]; dup {
			panic(fmt.Sprintf("forms: duplicate field %q in schema %q", f.Name, name))
		}
		s.index[f.Name] = len(s.fields)
		s.fields = append(s.fields, f)
	}
	return s
}

// Name returns the schema name.
func (s *Schema) Name() string { return s.name }

// Fields returns the declared fields in order.
func (s *Schema) Fields() []Field {
	return append([]Field(nil), s.fields...)
}

// Field looks up a field declaration.
func (s *Schema) Field(name string) (Field, bool) {
	i, ok := s.index[name]
	if !ok {
		return Field{}, false
	}
	return s.fields[i], true
}

// Validate checks every field of the schema against a.
func (s *Schema) Validate(a Answers) []Violation {
	var out []Violation
	for _, f := range s.fields {
		if msg := checkField(f, a); msg != "" {
			out = append(out, Violation{Field: f.Name, Message: msg})
		}
	}
	return out
}

// ValidateFields checks only the named fields, leaving the rest of the
// record free to be incomplete. Unknown names are ignored.
func (s *Schema) ValidateFields(a Answers, names []string) []Violation {
	var out []Violation
	for _, name := range names {
		f, ok := s.Field(name)
		if !ok {
			continue
		}
		if msg := checkField(f, a); msg != "" {
			out = append(out, Violation{Field: f.Name, Message: msg})
		}
	}
	return out
}

// Defaults returns the zero answer set of the schema: false for booleans and
// an empty list for list fields.
func (s *Schema) Defaults() Answers {
	out := Answers{}
	for _, f := range s.fields {
		switch f.Kind {
		case KindBool:
			out[f.Name] = false
		case KindStringList:
			out[f.Name] = []any{}
		}
	}
	return out
}

func checkField(f Field, a Answers) string {
	value, present := a[f.Name]
	required := f.Required || f.RequiredWhen.Holds(a)

	if !present || isEmpty(value) {
		if required {
			return f.missingMessage()
		}
		return ""
	}

	switch f.Kind {
	case KindBool:
		b, ok := value.(bool)
		if !ok {
			return "Expected true or false"
		}
		if f.MustBeTrue && !b {
			return f.missingMessage()
		}
	case KindStringList:
		items := a.List(f.Name)
		if !isList(value) || len(items) != listLen(value) {
			return "Expected a list of values"
		}
		if len(items) < f.MinItems && required {
			return f.missingMessage()
		}
		for _, item := range items {
			if !f.AllowsValue(item) {
				return fmt.Sprintf("%q is not a valid option", item)
			}
		}
	default:
		raw, ok := value.(string)
		if !ok {
			return "Expected text"
		}
		return checkString(f, strings.TrimSpace(raw))
	}
	return ""
}

func checkString(f Field, s string) string {
	n := utf8.RuneCountInString(s)
	if f.MinLen > 0 && n < f.MinLen {
		return f.missingMessage()
	}
	if f.ExactLen > 0 && n != f.ExactLen {
		if f.Message != "" {
			return f.Message
		}
		return fmt.Sprintf("Must be %d characters", f.ExactLen)
	}
	if !f.AllowsValue(s) {
		return "Please select a valid option"
	}
	switch f.Format {
	case FormatEmail:
		if err := validate.Var(s, "required,email"); err != nil {
			if f.Message != "" {
				return f.Message
			}
			return "Valid email is required"
		}
	case FormatDate:
		if _, err := time.Parse(DateLayout, s); err != nil {
			return "Use YYYY-MM-DD format"
		}
	}
	return ""
}

func isList(v any) bool {
	switch v.(type) {
	case []any, []string:
		return true
	}
	return false
}

func listLen(v any) int {
	switch val := v.(type) {
	case []any:
		return len(val)
	case []string:
		return len(val)
	}
	return 0
}
