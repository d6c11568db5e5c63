package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultTwilioBaseURL = "https://api.twilio.com"
	maxBodyLength        = 1600
)

// TwilioConfig holds the credentials for the Twilio Messages API.
type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	From       string
	BaseURL    string
}

// TwilioNotifier sends SMS through Twilio. Recipients are 10-digit North
// American numbers and are sent with a +1 prefix.
type TwilioNotifier struct {
	cfg    TwilioConfig
	client *http.Client
}

func NewTwilioNotifier(cfg TwilioConfig, client *http.Client) *TwilioNotifier {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultTwilioBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &TwilioNotifier{cfg: cfg, client: client}
}

func (n *TwilioNotifier) Notify(ctx context.Context, recipient, message string) error {
	recipient = strings.TrimSpace(recipient)
	message = strings.TrimSpace(message)
	if recipient == "" || message == "" || len(message) > maxBodyLength {
		return ErrInvalidMessage
	}

	form := url.Values{}
	form.Set("From", n.cfg.From)
	form.Set("To", "+1"+recipient)
	form.Set("Body", message)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", n.cfg.BaseURL, url.PathEscape(n.cfg.AccountSID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("notify: build twilio request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(n.cfg.AccountSID, n.cfg.AuthToken)

	res, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("notify: twilio request: %w", err)
	}
	defer res.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, 64<<10))

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return fmt.Errorf("notify: twilio returned status %d", res.StatusCode)
	}
	return nil
}
