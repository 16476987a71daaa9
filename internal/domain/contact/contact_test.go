package contact

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubmission_Validate(t *testing.T) {
	full := Submission{Name: "Asha", Email: "asha@example.com", Message: "hello"}
	assert.NoError(t, full.Validate())

	cases := map[string]Submission{
		"no name":    {Email: "asha@example.com", Message: "hello"},
		"no email":   {Name: "Asha", Message: "hello"},
		"no message": {Name: "Asha", Email: "asha@example.com"},
		"empty":      {},
	}
	for name, s := range cases {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, s.Validate(), ErrMissingField)
		})
	}
}

func TestNewMail(t *testing.T) {
	m := NewMail(Submission{Name: "Asha", Email: "asha@example.com", Message: "hi there"}, "owner@aimatrix.example", "")

	assert.Equal(t, "owner@aimatrix.example", m.To)
	assert.Equal(t, DefaultSender, m.From)
	assert.Equal(t, "New contact from Asha", m.Subject)
	assert.Equal(t, "Name: Asha\nEmail: asha@example.com\n\nhi there", m.Body)
}
