package models

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
)

// Validation sentinels, matched with errors.Is.
var (
	ErrMissingRecipient = errors.New("recipient is required")
	ErrEmptyContent     = errors.New("message is empty")
	ErrInvalidEmail     = errors.New("invalid email address")
	ErrMissingGroupName = errors.New("enter a group name")
	ErrNoRecipients     = errors.New("select at least one recipient")
	ErrMissingPassword  = errors.New("password is required")
	ErrMissingGroup     = errors.New("group is required")
)

// ValidationError represents a single validation failure.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

func (v ValidationError) Error() string {
	if v.Field == "" {
		return v.Message
	}
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

// ValidationErrors aggregates multiple validation failures.
type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

// Add records a validation error for a field.
func (v *ValidationErrors) Add(field string, err error) {
	if err == nil {
		return
	}

	var nested *ValidationErrors
	if errors.As(err, &nested) {
		for _, sub := range nested.Errors {
			v.Errors = append(v.Errors, ValidationError{
				Field:   joinField(field, sub.Field),
				Message: sub.Message,
				Cause:   sub.Cause,
			})
		}
		return
	}

	v.Errors = append(v.Errors, ValidationError{
		Field:   field,
		Message: err.Error(),
		Cause:   err,
	})
}

// Err returns nil if there are no errors, otherwise returns the validation error.
func (v *ValidationErrors) Err() error {
	if v == nil || len(v.Errors) == 0 {
		return nil
	}
	return v
}

// Error implements error.
func (v *ValidationErrors) Error() string {
	if v == nil || len(v.Errors) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(v.Errors))
	for _, err := range v.Errors {
		parts = append(parts, err.Error())
	}
	return strings.Join(parts, "; ")
}

// Is allows errors.Is to match nested validation errors.
func (v *ValidationErrors) Is(target error) bool {
	if v == nil {
		return false
	}
	for _, err := range v.Errors {
		if err.Cause != nil && errors.Is(err.Cause, target) {
			return true
		}
	}
	return false
}

// Messages returns the bare messages, without field prefixes, for display.
func (v *ValidationErrors) Messages() []string {
	if v == nil {
		return nil
	}
	out := make([]string, 0, len(v.Errors))
	for _, err := range v.Errors {
		out = append(out, err.Message)
	}
	return out
}

func joinField(prefix, field string) string {
	switch {
	case prefix == "":
		return field
	case field == "":
		return prefix
	default:
		return prefix + "." + field
	}
}

// ValidEmail reports whether s parses as a bare address.
func ValidEmail(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || !strings.Contains(s, "@") {
		return false
	}
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

// ValidateCredentials checks login and register input.
func ValidateCredentials(email, password string) error {
	errs := &ValidationErrors{}
	if !ValidEmail(email) {
		errs.Add("email", ErrInvalidEmail)
	}
	if password == "" {
		errs.Add("password", ErrMissingPassword)
	}
	return errs.Err()
}

// ValidateDirectMessage checks an outgoing direct message.
func ValidateDirectMessage(receiver, content string) error {
	errs := &ValidationErrors{}
	switch {
	case strings.TrimSpace(receiver) == "":
		errs.Add("receiver_email", ErrMissingRecipient)
	case !ValidEmail(receiver):
		errs.Add("receiver_email", ErrInvalidEmail)
	}
	if strings.TrimSpace(content) == "" {
		errs.Add("content", ErrEmptyContent)
	}
	return errs.Err()
}

// ValidateRecipients checks a broadcast recipient list.
func ValidateRecipients(emails []string) error {
	errs := &ValidationErrors{}
	if len(emails) == 0 {
		errs.Add("receiver_emails", ErrNoRecipients)
	}
	for i, email := range emails {
		if !ValidEmail(email) {
			errs.Add(fmt.Sprintf("receiver_emails[%d]", i), ErrInvalidEmail)
		}
	}
	return errs.Err()
}

// ValidateGroupName checks a group name for create and rename.
func ValidateGroupName(name string) error {
	if strings.TrimSpace(name) == "" {
		errs := &ValidationErrors{}
		errs.Add("name", ErrMissingGroupName)
		return errs.Err()
	}
	return nil
}

// ValidateMemberEmail checks a member address for group membership calls.
func ValidateMemberEmail(email string) error {
	if !ValidEmail(email) {
		errs := &ValidationErrors{}
		errs.Add("member_email", ErrInvalidEmail)
		return errs.Err()
	}
	return nil
}
