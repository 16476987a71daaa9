package sendgrid

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/aimatrix/site/internal/domain/contact"
	"github.com/aimatrix/site/internal/domain/provider"
	"github.com/aimatrix/site/internal/infrastructure/provider/httpcall"
)

const sendPath = "/v3/mail/send"

type address struct {
	Email string `json:"email"`
}

type personalization struct {
	To []address `json:"to"`
}

type content struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sendRequest struct {
	Personalizations []personalization `json:"personalizations"`
	From             address           `json:"from"`
	Subject          string            `json:"subject"`
	Content          []content         `json:"content"`
}

// Mailer delivers contact notifications through the SendGrid v3 API.
type Mailer struct {
	caller  *httpcall.Caller
	baseURL string
	apiKey  string
}

func NewMailer(caller *httpcall.Caller, baseURL, apiKey string) *Mailer {
	return &Mailer{caller: caller, baseURL: baseURL, apiKey: apiKey}
}

// Send posts one mail. A non-2xx answer becomes *provider.ProviderError carrying the raw body.
func (m *Mailer) Send(ctx context.Context, mail contact.Mail) error {
	if m.apiKey == "" || mail.To == "" {
		return provider.ErrNotConfigured
	}
	body, err := json.Marshal(sendRequest{
		Personalizations: []personalization{{To: []address{{Email: mail.To}}}},
		From:             address{Email: mail.From},
		Subject:          mail.Subject,
		Content:          []content{{Type: "text/plain", Value: mail.Body}},
	})
	if err != nil {
		return fmt.Errorf("sendgrid: encode mail: %w", err)
	}

	resp, err := m.caller.Do(ctx, httpcall.Request{
		Provider: provider.Mail,
		Method:   http.MethodPost,
		URL:      m.baseURL + sendPath,
		Header: http.Header{
			"Authorization": []string{"Bearer " + m.apiKey},
			"Content-Type":  []string{"application/json"},
		},
		Body: body,
	})
	if err != nil {
		return err
	}
	if !resp.OK() {
		return provider.NewProviderError(provider.Mail, resp)
	}
	return nil
}
