package flows

import (
	"strings"

	"github.com/wolfman30/psychwebmd-intake/internal/forms"
)

var sampleValues = map[string]string{
	"firstName":       "Jane",
	"lastName":        "Doe",
	"dateOfBirth":     "1990-01-01",
	"cellNumber":      "7165551234",
	"phone":           "7165551234",
	"emergencyPhone":  "7165554321",
	"email":           "jane.doe@example.com",
	"verifiedContact": "jane.doe@example.com",
	"zipCode":         "14201",
	"city":            "Buffalo",
	"streetName":      "Main Street",
}

// CompleteAnswers returns a minimal answer set that passes full validation
// of f without triggering any conditional field. Used by demos and tests.
func CompleteAnswers(f *Flow) forms.Answers {
	triggers := map[string]map[any]bool{}
	for _, field := range f.Schema().Fields() {
		if c := field.RequiredWhen; c != nil {
			if triggers[c.Field] == nil {
				triggers[c.Field] = map[any]bool{}
			}
			if c.Contains != "" {
				triggers[c.Field][c.Contains] = true
			} else {
				triggers[c.Field][c.Equals] = true
			}
		}
	}

	out := forms.Answers{}
	for _, field := range f.Schema().Fields() {
		if !field.Required {
			continue
		}
		avoid := triggers[field.Name]
		switch field.Kind {
		case forms.KindBool:
			out[field.Name] = field.MustBeTrue
		case forms.KindStringList:
			out[field.Name] = []any{pickOption(field, avoid)}
		default:
			out[field.Name] = sampleString(field, avoid)
		}
	}
	return out
}

func pickOption(field forms.Field, avoid map[any]bool) string {
	for _, opt := range field.Options {
		if !avoid[opt.Value] {
			return opt.Value
		}
	}
	return ""
}

func sampleString(field forms.Field, avoid map[any]bool) string {
	if len(field.Options) > 0 {
		return pickOption(field, avoid)
	}
	if v, ok := sampleValues[field.Name]; ok {
		return v
	}
	switch field.Format {
	case forms.FormatDate:
		return "2030-01-15"
	case forms.FormatEmail:
		return "patient@example.com"
	}
	if field.ExactLen > 0 {
		return strings.Repeat("1", field.ExactLen)
	}
	v := "Sample answer"
	if field.MinLen > len(v) {
		v += strings.Repeat(".", field.MinLen-len(v))
	}
	return v
}
