package contact

import (
	"errors"
	"fmt"
)

// DefaultSender is used when no sender address is configured.
const DefaultSender = "no-reply@aimatrix.example"

// ErrMissingField is returned when any of name, email or message is empty.
var ErrMissingField = errors.New("name,email,message required")

// Submission is one contact-form post. It is never stored.
type Submission struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// Validate enforces that all three fields are present.
func (s Submission) Validate() error {
	if s.Name == "" || s.Email == "" || s.Message == "" {
		return ErrMissingField
	}
	return nil
}

// Mail is the plain-text notification sent to the site owner.
type Mail struct {
	To      string
	From    string
	Subject string
	Body    string
}

// NewMail renders a submission into the owner notification.
func NewMail(s Submission, to, from string) Mail {
	if from == "" {
		from = DefaultSender
	}
	return Mail{
		To:      to,
		From:    from,
		Subject: fmt.Sprintf("New contact from %s", s.Name),
		Body:    fmt.Sprintf("Name: %s\nEmail: %s\n\n%s", s.Name, s.Email, s.Message),
	}
}
