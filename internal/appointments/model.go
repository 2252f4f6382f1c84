package appointments

import (
	"time"

	"github.com/wolfman30/psychwebmd-intake/internal/flows"
)

// Appointment is a stored booking. It is created once and never updated.
// Only the fields of the flow that produced it are populated.
type Appointment struct {
	ID              string                `json:"id"`
	AppointmentType flows.AppointmentType `json:"appointmentType"`
	FormVariant     flows.Variant         `json:"formVariant"`

	VerificationMethod string `json:"verificationMethod,omitempty"`
	VerifiedContact    string `json:"verifiedContact,omitempty"`
	SeekingHelpFor     string `json:"seekingHelpFor,omitempty"`

	FirstName   string `json:"firstName"`
	MiddleName  string `json:"middleName,omitempty"`
	LastName    string `json:"lastName"`
	DateOfBirth string `json:"dateOfBirth"`
	CellNumber  string `json:"cellNumber,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Email       string `json:"email,omitempty"`
	Gender      string `json:"gender,omitempty"`

	StreetName      string `json:"streetName,omitempty"`
	AptSuite        string `json:"aptSuite,omitempty"`
	Address         string `json:"address,omitempty"`
	City            string `json:"city,omitempty"`
	State           string `json:"state,omitempty"`
	ZipCode         string `json:"zipCode,omitempty"`
	HowHeardAboutUs string `json:"howHeardAboutUs,omitempty"`

	Concerns            []string `json:"concerns,omitempty"`
	OtherConcernDetails string   `json:"otherConcernDetails,omitempty"`
	ReasonForVisit      string   `json:"reasonForVisit,omitempty"`
	CurrentSymptoms     string   `json:"currentSymptoms,omitempty"`
	MedicationChanges   string   `json:"medicationChanges,omitempty"`
	SymptomsDescription string   `json:"symptomsDescription,omitempty"`
	SymptomsDuration    string   `json:"symptomsDuration,omitempty"`
	SymptomsImpact      string   `json:"symptomsImpact,omitempty"`
	Symptoms            string   `json:"symptoms,omitempty"`

	PreviousTherapy        string `json:"previousTherapy,omitempty"`
	PreviousTherapyDetails string `json:"previousTherapyDetails,omitempty"`
	CurrentMedications     string `json:"currentMedications,omitempty"`
	Allergies              string `json:"allergies,omitempty"`
	MedicalHistory         string `json:"medicalHistory,omitempty"`

	InsuranceMemberFirstName string `json:"insuranceMemberFirstName,omitempty"`
	InsuranceMemberLastName  string `json:"insuranceMemberLastName,omitempty"`
	InsuranceMemberDOB       string `json:"insuranceMemberDOB,omitempty"`
	InsuranceName            string `json:"insuranceName,omitempty"`
	InsuranceProvider        string `json:"insuranceProvider,omitempty"`
	InsuranceMemberID        string `json:"insuranceMemberId,omitempty"`
	InsuranceGroupNumber     string `json:"insuranceGroupNumber,omitempty"`
	InsuranceChanged         *bool  `json:"insuranceChanged,omitempty"`
	PolicyHolder             string `json:"policyHolder,omitempty"`
	PolicyHolderOther        string `json:"policyHolderOther,omitempty"`

	MentalHealthInfoConsent *bool  `json:"mentalHealthInfoConsent,omitempty"`
	HospitalizedPastYear    *bool  `json:"hospitalizedPastYear,omitempty"`
	SelfHarmRisk            *bool  `json:"selfHarmRisk,omitempty"`
	AlcoholRelationship     string `json:"alcoholRelationship,omitempty"`
	DrugUse                 *bool  `json:"drugUse,omitempty"`
	DrugUseFrequency        string `json:"drugUseFrequency,omitempty"`

	EmergencyFirstName         string `json:"emergencyFirstName,omitempty"`
	EmergencyMiddleName        string `json:"emergencyMiddleName,omitempty"`
	EmergencyLastName          string `json:"emergencyLastName,omitempty"`
	EmergencyRelationship      string `json:"emergencyRelationship,omitempty"`
	EmergencyRelationshipOther string `json:"emergencyRelationshipOther,omitempty"`
	EmergencyPhone             string `json:"emergencyPhone,omitempty"`
	EmergencyContactName       string `json:"emergencyContactName,omitempty"`
	EmergencyContactPhone      string `json:"emergencyContactPhone,omitempty"`

	VisitType         string `json:"visitType,omitempty"`
	AppointmentDate   string `json:"appointmentDate,omitempty"`
	AppointmentTime   string `json:"appointmentTime,omitempty"`
	PreferredProvider string `json:"preferredProvider,omitempty"`
	PreferredDate     string `json:"preferredDate,omitempty"`
	PreferredTime     string `json:"preferredTime,omitempty"`
	PreferredLocation string `json:"preferredLocation,omitempty"`
	AppointmentMode   string `json:"appointmentMode,omitempty"`
	ServiceType       string `json:"serviceType,omitempty"`

	TermsAgreed     *bool  `json:"termsAgreed,omitempty"`
	PrivacyAgreed   *bool  `json:"privacyAgreed,omitempty"`
	ReminderConsent *bool  `json:"reminderConsent,omitempty"`
	AdditionalNotes string `json:"additionalNotes,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

// ContactNumber returns the patient's phone, whichever form collected it.
func (a *Appointment) ContactNumber() string {
	if a.CellNumber != "" {
		return a.CellNumber
	}
	return a.Phone
}
