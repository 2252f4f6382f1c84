// Package flows declares the appointment booking wizards as data: each flow
// is an ordered table of steps over one field schema.
package flows

import (
	"fmt"

	"github.com/wolfman30/psychwebmd-intake/internal/forms"
)

// AppointmentType tags which booking path produced a record.
type AppointmentType string

const (
	TypeNew      AppointmentType = "new"
	TypeExisting AppointmentType = "existing"
	TypeIntake   AppointmentType = "intake"
)

// Valid reports whether t is a known appointment type.
func (t AppointmentType) Valid() bool {
	switch t {
	case TypeNew, TypeExisting, TypeIntake:
		return true
	}
	return false
}

// Variant distinguishes the full guided flows from the short appointment form.
type Variant string

const (
	VariantStandard Variant = "standard"
	VariantQuick    Variant = "quick"
)

// Step is one wizard screen and the fields it gates on.
type Step struct {
	Title  string   `json:"title"`
	Fields []string `json:"fields"`
}

// Flow is one wizard definition.
type Flow struct {
	Key          string          `json:"key"`
	Type         AppointmentType `json:"appointmentType"`
	Variant      Variant         `json:"formVariant"`
	Title        string          `json:"title"`
	RequiresCode bool            `json:"requiresCode"`
	Steps        []Step          `json:"steps"`

	schema   *forms.Schema
	defaults forms.Answers
}

// TotalSteps returns N, the index of the final step.
func (f *Flow) TotalSteps() int { return len(f.Steps) }

// Step returns the 1-based step n.
func (f *Flow) Step(n int) (Step, bool) {
	if n < 1 || n > len(f.Steps) {
		return Step{}, false
	}
	return f.Steps[n-1], true
}

// Schema returns the full field schema of the flow.
func (f *Flow) Schema() *forms.Schema { return f.schema }

// Defaults returns a fresh copy of the initial answer set.
func (f *Flow) Defaults() forms.Answers { return f.defaults.Normalize() }

// StepFields returns the field declarations of step n in order.
func (f *Flow) StepFields(n int) []forms.Field {
	step, ok := f.Step(n)
	if !ok {
		return nil
	}
	out := make([]forms.Field, 0, len(step.Fields))
	for _, name := range step.Fields {
		if field, ok := f.schema.Field(name); ok {
			out = append(out, field)
		}
	}
	return out
}

// ValidateStep runs partial validation of the fields declared for step n.
func (f *Flow) ValidateStep(n int, answers forms.Answers) []forms.Violation {
	step, ok := f.Step(n)
	if !ok {
		return nil
	}
	return f.schema.ValidateFields(answers, step.Fields)
}

// Validate runs full validation of answers against the flow schema.
func (f *Flow) Validate(answers forms.Answers) []forms.Violation {
	return f.schema.Validate(answers)
}

type stepDef struct {
	title  string
	fields []forms.Field
}

func build(key string, typ AppointmentType, variant Variant, title string, requiresCode bool, presets forms.Answers, steps ...stepDef) *Flow {
	var all []forms.Field
	flow := &Flow{Key: key, Type: typ, Variant: variant, Title: title, RequiresCode: requiresCode}
	for _, sd := range steps {
		step := Step{Title: sd.title, Fields: make([]string, 0, len(sd.fields))}
		for _, f := range sd.fields {
			step.Fields = append(step.Fields, f.Name)
		}
		all = append(all, sd.fields...)
		flow.Steps = append(flow.Steps, step)
	}
	flow.schema = forms.NewSchema(key, all...)
	flow.defaults = flow.schema.Defaults().Merge(presets)
	return flow
}

func step(title string, groups ...[]forms.Field) stepDef {
	var fields []forms.Field
	for _, g := range groups {
		fields = append(fields, g...)
	}
	return stepDef{title: title, fields: fields}
}

func fields(fs ...forms.Field) []forms.Field { return fs }

func newPatientFlow() *Flow {
	return build("new-patient-flow", TypeNew, VariantStandard, "New Patient Appointment", true,
		forms.Answers{"verificationMethod": "email", "seekingHelpFor": "myself", "gender": "male", "visitType": "in-person"},
		step("Verify your contact", verificationFields()),
		step("Who are you seeking help for?", fields(choice("seekingHelpFor", "Who are you seeking help for?", seekingHelpOptions))),
		step("Your Information", identityFields(), fields(
			choice("gender", "Gender", genderOptions),
			text("streetName", "Street name", "Street name is required"),
			optionalText("aptSuite", "Apt / Suite"),
			text("city", "City", "City is required"),
			forms.Field{Name: "state", Label: "State", Kind: forms.KindString, Required: true, Message: "State is required", Options: stateOptions},
			forms.Field{Name: "zipCode", Label: "ZIP code", Kind: forms.KindString, Required: true, MinLen: 5, Message: "ZIP code is required"},
			forms.Field{Name: "howHeardAboutUs", Label: "How did you hear about us?", Kind: forms.KindString, Required: true, Message: "Please select an option", Options: heardAboutOptions},
		)),
		step("Your concern or reason for consultation", concernFields()),
		step("Insurance Information", insuranceMemberFields(), fields(
			choice("policyHolder", "Policy holder", policyHolderOptions),
			otherDetails("policyHolderOther", "Policy holder relationship", forms.WhenEquals("policyHolder", "other")),
		)),
		step("Mental Health Questions", mentalHealthFields()),
		step("Emergency Contact Details", emergencyFields(newRelationshipOptions), fields(
			optionalText("emergencyMiddleName", "Emergency contact middle name"),
			otherDetails("emergencyRelationshipOther", "Describe the relationship", forms.WhenEquals("emergencyRelationship", "other")),
		)),
		step("Schedule your appointment", scheduleFields(providerOptions)),
		step("Review your details", termsFields(true)),
		step("Confirmation"),
	)
}

func existingPatientFlow() *Flow {
	providers := append([]forms.Option{{Value: "your_previous_provider", Label: "Your Previous Provider"}}, providerOptions...)
	return build("existing-patient-flow", TypeExisting, VariantStandard, "Existing Patient Appointment", true,
		forms.Answers{"verificationMethod": "email", "visitType": "in-person"},
		step("Verify your contact", verificationFields()),
		step("Confirm your information", fields(
			text("firstName", "First name", "First name is required"),
			text("lastName", "Last name", "Last name is required"),
			date("dateOfBirth", "Date of birth", "Date of birth is required"),
			phone("cellNumber", "Cell number"),
		)),
		step("Reason for visit", fields(
			longText("reasonForVisit", "Reason for visit", 10, "Please describe your reason for visit (min 10 characters)"),
			optionalLongText("currentSymptoms", "Current symptoms"),
			optionalLongText("medicationChanges", "Medication changes"),
		)),
		step("Insurance verification", fields(
			text("insuranceName", "Insurance name", "Required"),
			text("insuranceMemberId", "Member ID", "Required"),
			flag("insuranceChanged", "Has your insurance changed?"),
		)),
		step("Schedule your appointment", scheduleFields(providers)),
		step("Review & confirm", termsFields(false)),
	)
}

func intakeFormFlow() *Flow {
	email := text("email", "Email", "Valid email is required")
	email.Format = forms.FormatEmail
	return build("intake-form-flow", TypeIntake, VariantStandard, "Intake Form", false,
		forms.Answers{"visitType": "in-person"},
		step("Personal Information", identityFields(), fields(email)),
		step("Primary Concerns", concernFields()),
		step("Symptoms Assessment", fields(
			longText("symptomsDescription", "Describe your symptoms", 10, "Please describe your symptoms (min 10 characters)"),
			choice("symptomsDuration", "How long have you had these symptoms?", durationOptions),
			choice("symptomsImpact", "Impact on daily life", impactOptions),
		)),
		step("Treatment History", fields(
			choice("previousTherapy", "Have you had therapy before?", yesNoOptions),
			otherDetails("previousTherapyDetails", "Tell us about previous therapy", forms.WhenEquals("previousTherapy", "yes")),
			optionalLongText("currentMedications", "Current medications"),
			optionalLongText("allergies", "Allergies"),
			optionalLongText("medicalHistory", "Medical history"),
		)),
		step("Mental Health Questions", mentalHealthFields()),
		step("Emergency Contact", emergencyFields(intakeRelationshipOptions)),
		step("Insurance Information", insuranceMemberFields()),
		step("Review & Submit", fields(
			choice("visitType", "Visit type", visitTypeOptions),
			forms.Field{Name: "preferredDate", Label: "Preferred date", Kind: forms.KindString, Format: forms.FormatDate},
		), termsFields(true)),
	)
}

// quickFlow builds the short appointment form. Its step layout depends on
// the appointment type: existing patients skip the medical history page and
// intake adds a symptoms page.
func quickFlow(typ AppointmentType) *Flow {
	personal := step("Personal Information", fields(
		text("firstName", "First name", "First name is required"),
		text("lastName", "Last name", "Last name is required"),
		forms.Field{Name: "email", Label: "Email", Kind: forms.KindString, Required: true, Format: forms.FormatEmail, Message: "Valid email is required"},
		text("phone", "Phone", "Phone is required"),
		date("dateOfBirth", "Date of birth", "Date of birth is required"),
		optionalText("address", "Address"),
		optionalText("city", "City"),
		optionalText("state", "State"),
		optionalText("zipCode", "ZIP code"),
	))
	insurance := step("Insurance Information", fields(
		optionalText("insuranceProvider", "Insurance provider"),
		optionalText("insuranceMemberId", "Member ID"),
		optionalText("insuranceGroupNumber", "Group number"),
	))
	history := step("Medical History", fields(
		optionalLongText("medicalHistory", "Medical history"),
		optionalLongText("currentMedications", "Current medications"),
		optionalLongText("allergies", "Allergies"),
		optionalText("emergencyContactName", "Emergency contact name"),
		optionalText("emergencyContactPhone", "Emergency contact phone"),
	))
	details := step("Appointment Details", fields(
		longText("reasonForVisit", "Reason for visit", 1, "Reason for visit is required"),
		optionalText("serviceType", "Service"),
		optionalText("preferredLocation", "Preferred location"),
		optionalText("appointmentMode", "In-person or telehealth"),
		forms.Field{Name: "preferredDate", Label: "Preferred date", Kind: forms.KindString, Format: forms.FormatDate},
		optionalText("preferredTime", "Preferred time"),
	))
	symptoms := step("Symptoms & History", fields(
		optionalText("previousTherapy", "Previous therapy"),
		optionalLongText("symptoms", "Symptoms"),
	))
	review := step("Review & Submit", fields(optionalLongText("additionalNotes", "Additional notes")))

	var steps []stepDef
	switch typ {
	case TypeExisting:
		steps = []stepDef{personal, insurance, details, review}
	case TypeIntake:
		steps = []stepDef{personal, insurance, history, symptoms, details, review}
	default:
		steps = []stepDef{personal, insurance, history, details, review}
	}
	return build(QuickFlowKey(typ), typ, VariantQuick, quickTitles[typ], false, nil, steps...)
}

var quickTitles = map[AppointmentType]string{
	TypeNew:      "New Patient Appointment",
	TypeExisting: "Existing Patient Appointment",
	TypeIntake:   "Intake Form",
}

// QuickFlowKey returns the draft key of the short form for typ.
func QuickFlowKey(typ AppointmentType) string {
	return fmt.Sprintf("appointment-form-%s", typ)
}
