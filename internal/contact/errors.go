package contact

import "errors"

var (
	// ErrContactNotFound is returned when a contact submission is not found
	ErrContactNotFound = errors.New("contact submission not found")
)
