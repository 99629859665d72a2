package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultTwilioURL is the Twilio REST API root.
const DefaultTwilioURL = "https://api.twilio.com"

// TwilioSender sends WhatsApp messages through the Twilio Messages API.
type TwilioSender struct {
	accountSID string
	authToken  string
	from       string
	baseURL    string
	httpClient *http.Client
}

// NewTwilioSender creates a sender for the given account. from is the
// WhatsApp-enabled Twilio number, without the "whatsapp:" prefix.
func NewTwilioSender(accountSID, authToken, from string) *TwilioSender {
	return &TwilioSender{
		accountSID: accountSID,
		authToken:  authToken,
		from:       from,
		baseURL:    DefaultTwilioURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// WithBaseURL returns a copy of the sender using baseURL as the API root.
func (t *TwilioSender) WithBaseURL(baseURL string) *TwilioSender {
	c := *t
	c.baseURL = strings.TrimRight(baseURL, "/")
	return &c
}

// Send posts one WhatsApp message and returns its SID.
func (t *TwilioSender) Send(ctx context.Context, to, body string) (string, error) {
	form := url.Values{}
	form.Set("From", "whatsapp:"+t.from)
	form.Set("To", "whatsapp:"+to)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", t.baseURL, url.PathEscape(t.accountSID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.SetBasicAuth(t.accountSID, t.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send message: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	var payload struct {
		SID     string `json:"sid"`
		Code    int    `json:"code"`
		Message string `json:"message"`
	}
	decodeErr := json.Unmarshal(data, &payload)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if decodeErr == nil && payload.Message != "" {
			return "", fmt.Errorf("twilio: status %d: code %d: %s", resp.StatusCode, payload.Code, payload.Message)
		}
		return "", fmt.Errorf("twilio: status %d", resp.StatusCode)
	}
	if decodeErr != nil {
		return "", fmt.Errorf("failed to decode response: %w", decodeErr)
	}

	return payload.SID, nil
}
