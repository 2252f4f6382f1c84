package forms

import "slices"

// Kind is the primitive type of a field value.
type Kind int

const (
	KindString Kind = iota
	KindBool
	KindStringList
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindStringList:
		return "list"
	default:
		return "string"
	}
}

// MarshalText renders the kind by name in JSON.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Format is an additional string format check.
type Format string

const (
	FormatNone  Format = ""
	FormatEmail Format = "email"
	FormatDate  Format = "date"
)

// DateLayout is the wire format of date fields.
const DateLayout = "2006-01-02"

// Option is one allowed value of an enumerated field.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Condition makes a field required only while a sibling field has a value.
type Condition struct {
	Field    string `json:"field"`
	Equals   any    `json:"equals,omitempty"`
	Contains string `json:"contains,omitempty"`
}

// WhenEquals requires the field while answers[field] == value.
func WhenEquals(field string, value any) *Condition {
	return &Condition{Field: field, Equals: value}
}

// WhenContains requires the field while the list answers[field] holds item.
func WhenContains(field, item string) *Condition {
	return &Condition{Field: field, Contains: item}
}

// Holds reports whether the condition is met by a.
func (c *Condition) Holds(a Answers) bool {
	if c == nil {
		return false
	}
	if c.Contains != "" {
		return slices.Contains(a.List(c.Field), c.Contains)
	}
	switch want := c.Equals.(type) {
	case bool:
		got, ok := a[c.Field].(bool)
		return ok && got == want
	case string:
		return a.String(c.Field) == want
	}
	return false
}

// Field declares one form input and its constraints.
type Field struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	Kind  Kind   `json:"type"`

	Required bool `json:"required"`
	// Message is reported for a missing value or a failed length/consent check.
	Message string `json:"-"`

	MinLen     int      `json:"minLength,omitempty"`
	ExactLen   int      `json:"exactLength,omitempty"`
	MinItems   int      `json:"minItems,omitempty"`
	MustBeTrue bool     `json:"mustBeTrue,omitempty"`
	Format     Format   `json:"format,omitempty"`
	Options    []Option `json:"options,omitempty"`
	Multiline  bool     `json:"multiline,omitempty"`

	RequiredWhen *Condition `json:"requiredWhen,omitempty"`
}

// AllowsValue reports whether v is among the field options. Fields without
// options accept any value.
func (f Field) AllowsValue(v string) bool {
	if len(f.Options) == 0 {
		return true
	}
	for _, opt := range f.Options {
		if opt.Value == v {
			return true
		}
	}
	return false
}

// OptionValues returns the raw option values.
func (f Field) OptionValues() []string {
	out := make([]string, len(f.Options))
	for i, opt := range f.Options {
		out[i] = opt.Value
	}
	return out
}

func (f Field) missingMessage() string {
	if f.Message != "" {
		return f.Message
	}
	return "Required"
}
