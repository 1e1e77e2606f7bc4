// Package sms relays message bodies to the Twilio SMS transport.
package sms

import (
	"context"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/uboh-app/uboh-server/internal/apperr"
)

// twilioBaseURL is overridable so tests can point the client at a stub.
const twilioBaseURL = "https://api.twilio.com"

// Client sends SMS messages through the Twilio Messages API.
type Client struct {
	http       *resty.Client
	accountSID string
}

// sendResponse is the subset of Twilio's response we care about.
type sendResponse struct {
	SID          string `json:"sid"`
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
}

// New returns a Client authenticated with the given account credentials.
func New(accountSID, authToken string) *Client {
	return NewWithBaseURL(twilioBaseURL, accountSID, authToken)
}

// NewWithBaseURL is New with an explicit API base URL, for tests.
func NewWithBaseURL(baseURL, accountSID, authToken string) *Client {
	c := resty.New().
		SetBaseURL(baseURL).
		SetBasicAuth(accountSID, authToken).
		SetTimeout(30 * time.Second)
	return &Client{http: c, accountSID: accountSID}
}

// Send delivers body from the source number to the destination number and
// returns the transport's message identifier.
func (c *Client) Send(ctx context.Context, to, from, body string) (string, error) {
	if c == nil {
		return "", apperr.Validationf("Invalid sms request")
	}
	if body == "" || to == "" || from == "" {
		return "", apperr.Validationf("Invalid sms request")
	}

	var out sendResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"To":   to,
			"From": from,
			"Body": body,
		}).
		SetResult(&out).
		SetError(&out).
		Post("/2010-04-01/Accounts/" + c.accountSID + "/Messages.json")
	if err != nil {
		return "", apperr.Internal(err)
	}
	if resp.StatusCode() != http.StatusCreated && resp.StatusCode() != http.StatusOK {
		return "", apperr.Internal(&transportError{status: resp.StatusCode(), message: out.ErrorMessage})
	}
	return out.SID, nil
}

// transportError preserves the transport's reason for logging while the
// caller-facing message stays generic.
type transportError struct {
	status  int
	message string
}

func (e *transportError) Error() string {
	if e.message == "" {
		return http.StatusText(e.status)
	}
	return e.message
}
