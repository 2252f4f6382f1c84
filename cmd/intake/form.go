package main

import (
	"slices"

	"github.com/charmbracelet/huh"

	"github.com/wolfman30/psychwebmd-intake/internal/forms"
)

// binding holds the value a huh field edits for one form field.
type binding struct {
	field forms.Field
	text  string
	flag  bool
	list  []string
}

func newBinding(f forms.Field, answers forms.Answers) *binding {
	b := &binding{field: f}
	switch f.Kind {
	case forms.KindBool:
		b.flag = answers.Bool(f.Name)
	case forms.KindStringList:
		b.list = slices.Clone(answers.List(f.Name))
	default:
		b.text = answers.String(f.Name)
	}
	return b
}

// input renders the widget matching the field kind.
func (b *binding) input() huh.Field {
	f := b.field
	title := f.Label
	if f.Required {
		title += " *"
	}
	switch {
	case f.Kind == forms.KindBool:
		return huh.NewConfirm().Key(f.Name).Title(title).Affirmative("Yes").Negative("No").Value(&b.flag)
	case f.Kind == forms.KindStringList:
		return huh.NewMultiSelect[string]().Key(f.Name).Title(title).Options(options(f)...).Value(&b.list)
	case len(f.Options) > 0:
		return huh.NewSelect[string]().Key(f.Name).Title(title).Options(options(f)...).Value(&b.text)
	case f.Multiline:
		return huh.NewText().Key(f.Name).Title(title).Value(&b.text)
	default:
		in := huh.NewInput().Key(f.Name).Title(title).Value(&b.text)
		if f.Format == forms.FormatDate {
			in = in.Description("YYYY-MM-DD")
		}
		return in
	}
}

// value returns the answer to merge. Empty text clears the field.
func (b *binding) value() any {
	switch b.field.Kind {
	case forms.KindBool:
		return b.flag
	case forms.KindStringList:
		return slices.Clone(b.list)
	default:
		if b.text == "" {
			return nil
		}
		return b.text
	}
}

func options(f forms.Field) []huh.Option[string] {
	out := make([]huh.Option[string], 0, len(f.Options))
	for _, opt := range f.Options {
		label := opt.Label
		if label == "" {
			label = opt.Value
		}
		out = append(out, huh.NewOption(label, opt.Value))
	}
	return out
}

// stepForm is the huh form for one wizard step.
type stepForm struct {
	bindings []*binding
}

func newStepForm(fields []forms.Field, answers forms.Answers) *stepForm {
	sf := &stepForm{bindings: make([]*binding, 0, len(fields))}
	for _, f := range fields {
		sf.bindings = append(sf.bindings, newBinding(f, answers))
	}
	return sf
}

func (sf *stepForm) form(title string) *huh.Form {
	inputs := make([]huh.Field, 0, len(sf.bindings))
	for _, b := range sf.bindings {
		inputs = append(inputs, b.input())
	}
	return huh.NewForm(huh.NewGroup(inputs...).Title(title))
}

// answers collects the edited values.
func (sf *stepForm) answers() forms.Answers {
	out := make(forms.Answers, len(sf.bindings))
	for _, b := range sf.bindings {
		out[b.field.Name] = b.value()
	}
	return out
}
