package contact

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/wolfman30/psychwebmd-intake/internal/forms"
)

var validate = validator.New()

// Submission is a general inquiry from the contact form.
type Submission struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// CreateRequest is the payload for POST /contact.
type CreateRequest struct {
	Name    string `json:"name" validate:"required,max=200"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone" validate:"required,min=10,max=32"`
	Message string `json:"message" validate:"required,max=5000"`
}

var violationMessages = map[string]string{
	"Name":    "Name is required",
	"Email":   "Valid email is required",
	"Phone":   "Valid phone number is required",
	"Message": "Message is required",
}

var fieldNames = map[string]string{
	"Name":    "name",
	"Email":   "email",
	"Phone":   "phone",
	"Message": "message",
}

// Normalize trims surrounding whitespace from every field.
func (r *CreateRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	r.Phone = strings.TrimSpace(r.Phone)
	r.Message = strings.TrimSpace(r.Message)
}

// Validate checks the request. Failures come back as *forms.ValidationError.
func (r *CreateRequest) Validate() error {
	err := validate.Struct(r)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	violations := make([]forms.Violation, 0, len(verrs))
	for _, fe := range verrs {
		violations = append(violations, forms.Violation{
			Field:   fieldNames[fe.StructField()],
			Message: violationMessages[fe.StructField()],
		})
	}
	return forms.AsError(violations)
}
