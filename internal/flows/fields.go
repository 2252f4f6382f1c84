package flows

import "github.com/wolfman30/psychwebmd-intake/internal/forms"

// ConcernOther is the concern option that requires a free-text elaboration.
const ConcernOther = "Any Other"

var concernOptions = values(
	"Anxiety / Panic Symptoms",
	"Obsessive-Compulsive Disorder (OCD)",
	"Bipolar Mood Disorder",
	"Post-Traumatic Stress Disorder (PTSD)",
	"Depressive Symptoms / Major Depression",
	"Attention-Deficit/Hyperactivity Disorder (ADHD)",
	"Postpartum Depression / Perinatal Mood Concerns",
	"I'm Not Sure – I would like an assessment",
	"Eating Disorder / Disordered Eating Concerns",
	"Personality Disorder or Personality-Related Difficulties",
	"Substance Use / Addiction Concerns",
	"Self-Harm Thoughts or Behaviors",
	ConcernOther,
)

var stateOptions = values(
	"NY", "CA", "TX", "FL", "PA", "IL", "OH", "GA", "NC", "MI",
	"NJ", "VA", "WA", "AZ", "MA", "TN", "IN", "MO", "MD", "WI",
	"CO", "MN", "SC", "AL", "LA", "KY", "OR", "OK", "CT", "UT",
	"IA", "NV", "AR", "MS", "KS", "NM", "NE", "ID", "WV", "HI",
	"NH", "ME", "RI", "MT", "DE", "SD", "ND", "AK", "VT", "WY",
)

var (
	verificationOptions = []forms.Option{{Value: "email", Label: "Email"}, {Value: "phone", Label: "Phone"}}
	seekingHelpOptions  = []forms.Option{{Value: "myself", Label: "Myself"}, {Value: "someone_else", Label: "Someone else"}}
	genderOptions       = []forms.Option{{Value: "male", Label: "Male"}, {Value: "female", Label: "Female"}}
	heardAboutOptions   = []forms.Option{
		{Value: "social_media", Label: "Social Media"},
		{Value: "friend_family", Label: "Friend/Family"},
		{Value: "doctor_referral", Label: "Doctor Referral"},
		{Value: "insurance_directory", Label: "Insurance Directory"},
		{Value: "google_search", Label: "Google Search"},
		{Value: "other", Label: "Other"},
	}
	policyHolderOptions = []forms.Option{
		{Value: "me", Label: "Me"},
		{Value: "spouse", Label: "Spouse"},
		{Value: "parent", Label: "Parent"},
		{Value: "step_parent", Label: "Step Parent"},
		{Value: "other", Label: "Other"},
	}
	alcoholOptions = []forms.Option{
		{Value: "healthy", Label: "After drinking alcohol, I feel healthy"},
		{Value: "unhealthy", Label: "After drinking alcohol, I feel unhealthy"},
		{Value: "unsure", Label: "I am unsure"},
		{Value: "none", Label: "I do not drink alcohol"},
	}
	drugFrequencyOptions = []forms.Option{
		{Value: "daily", Label: "Daily"},
		{Value: "weekly", Label: "Once a week"},
		{Value: "monthly", Label: "Once a month"},
		{Value: "occasionally", Label: "Occasionally"},
		{Value: "past", Label: "I have used drugs in the past but not currently"},
	}
	newRelationshipOptions = []forms.Option{
		{Value: "caregiver", Label: "Caregiver"},
		{Value: "friend", Label: "Friend"},
		{Value: "parent", Label: "Parent"},
		{Value: "spouse", Label: "Spouse"},
		{Value: "child", Label: "Child"},
		{Value: "sibling", Label: "Sibling"},
		{Value: "other", Label: "Other"},
	}
	intakeRelationshipOptions = []forms.Option{
		{Value: "parent", Label: "Parent"},
		{Value: "spouse", Label: "Spouse"},
		{Value: "sibling", Label: "Sibling"},
		{Value: "friend", Label: "Friend"},
		{Value: "other", Label: "Other"},
	}
	visitTypeOptions = []forms.Option{{Value: "in-person", Label: "In-person"}, {Value: "telehealth", Label: "Telehealth"}}
	timeSlotOptions  = values("9:00 AM", "10:30 AM", "2:00 PM", "3:30 PM")
	providerOptions  = []forms.Option{
		{Value: "first_available", Label: "First Available"},
		{Value: "dr_smith", Label: "Dr. Smith"},
		{Value: "dr_johnson", Label: "Dr. Johnson"},
		{Value: "dr_williams", Label: "Dr. Williams"},
	}
	durationOptions = []forms.Option{
		{Value: "less_than_month", Label: "Less than a month"},
		{Value: "1-3_months", Label: "1-3 months"},
		{Value: "3-6_months", Label: "3-6 months"},
		{Value: "6-12_months", Label: "6-12 months"},
		{Value: "more_than_year", Label: "More than a year"},
	}
	impactOptions = []forms.Option{
		{Value: "minimal", Label: "Minimal - I can function normally"},
		{Value: "moderate", Label: "Moderate - Some difficulty with daily tasks"},
		{Value: "significant", Label: "Significant - Major difficulty functioning"},
		{Value: "severe", Label: "Severe - Unable to perform daily activities"},
	}
	yesNoOptions = []forms.Option{{Value: "yes", Label: "Yes"}, {Value: "no", Label: "No"}}
)

func values(vs ...string) []forms.Option {
	out := make([]forms.Option, len(vs))
	for i, v := range vs {
		out[i] = forms.Option{Value: v, Label: v}
	}
	return out
}

func text(name, label, message string) forms.Field {
	return forms.Field{Name: name, Label: label, Kind: forms.KindString, Required: true, Message: message}
}

func optionalText(name, label string) forms.Field {
	return forms.Field{Name: name, Label: label, Kind: forms.KindString}
}

func longText(name, label string, minLen int, message string) forms.Field {
	f := text(name, label, message)
	f.MinLen = minLen
	f.Multiline = true
	return f
}

func optionalLongText(name, label string) forms.Field {
	f := optionalText(name, label)
	f.Multiline = true
	return f
}

func choice(name, label string, options []forms.Option) forms.Field {
	return forms.Field{Name: name, Label: label, Kind: forms.KindString, Required: true, Message: "Required", Options: options}
}

func date(name, label, message string) forms.Field {
	f := text(name, label, message)
	f.Format = forms.FormatDate
	return f
}

func phone(name, label string) forms.Field {
	f := text(name, label, "Valid phone number is required")
	f.MinLen = 10
	return f
}

func flag(name, label string) forms.Field {
	return forms.Field{Name: name, Label: label, Kind: forms.KindBool, Required: true}
}

func consent(name, label, message string) forms.Field {
	return forms.Field{Name: name, Label: label, Kind: forms.KindBool, Required: true, MustBeTrue: true, Message: message}
}

func otherDetails(name, label string, when *forms.Condition) forms.Field {
	return forms.Field{Name: name, Label: label, Kind: forms.KindString, Message: "Please provide details", RequiredWhen: when}
}

// Field groups shared by the standard flows.

func verificationFields() []forms.Field {
	return []forms.Field{
		choice("verificationMethod", "How should we verify you?", verificationOptions),
		text("verifiedContact", "Email or phone number", "Required"),
		{Name: "otpCode", Label: "One-time passcode", Kind: forms.KindString, ExactLen: 6, Message: "Code must be 6 digits"},
	}
}

func identityFields() []forms.Field {
	return []forms.Field{
		text("firstName", "First name", "First name is required"),
		optionalText("middleName", "Middle name"),
		text("lastName", "Last name", "Last name is required"),
		date("dateOfBirth", "Date of birth", "Date of birth is required"),
		phone("cellNumber", "Cell number"),
	}
}

func concernFields() []forms.Field {
	return []forms.Field{
		{Name: "concerns", Label: "Concerns", Kind: forms.KindStringList, Required: true, MinItems: 1,
			Message: "Please select at least one concern", Options: concernOptions},
		otherDetails("otherConcernDetails", "Describe your concern", forms.WhenContains("concerns", ConcernOther)),
	}
}

func insuranceMemberFields() []forms.Field {
	return []forms.Field{
		text("insuranceMemberFirstName", "Member first name", "Required"),
		text("insuranceMemberLastName", "Member last name", "Required"),
		date("insuranceMemberDOB", "Member date of birth", "Required"),
		text("insuranceName", "Insurance name", "Required"),
		text("insuranceMemberId", "Member ID", "Required"),
	}
}

func mentalHealthFields() []forms.Field {
	return []forms.Field{
		consent("mentalHealthInfoConsent", "I consent to share mental health information", "Consent is required"),
		flag("hospitalizedPastYear", "Hospitalized for mental health in the past year?"),
		flag("selfHarmRisk", "Currently at risk of self-harm?"),
		choice("alcoholRelationship", "Relationship with alcohol", alcoholOptions),
		flag("drugUse", "Do you use recreational drugs?"),
		{Name: "drugUseFrequency", Label: "How often?", Kind: forms.KindString, Message: "Required",
			Options: drugFrequencyOptions, RequiredWhen: forms.WhenEquals("drugUse", true)},
	}
}

func emergencyFields(relationships []forms.Option) []forms.Field {
	return []forms.Field{
		text("emergencyFirstName", "Emergency contact first name", "Required"),
		text("emergencyLastName", "Emergency contact last name", "Required"),
		choice("emergencyRelationship", "Relationship", relationships),
		phone("emergencyPhone", "Emergency contact phone"),
	}
}

func scheduleFields(providers []forms.Option) []forms.Field {
	return []forms.Field{
		choice("visitType", "Visit type", visitTypeOptions),
		date("appointmentDate", "Appointment date", "Required"),
		choice("appointmentTime", "Appointment time", timeSlotOptions),
		choice("preferredProvider", "Preferred provider", providers),
	}
}

func termsFields(withPrivacy bool) []forms.Field {
	out := []forms.Field{consent("termsAgreed", "I agree to the terms of service", "You must agree to terms")}
	if withPrivacy {
		out = append(out, consent("privacyAgreed", "I agree to the privacy policy", "You must agree to privacy policy"))
	}
	return append(out, forms.Field{Name: "reminderConsent", Label: "Send me appointment reminders", Kind: forms.KindBool})
}
