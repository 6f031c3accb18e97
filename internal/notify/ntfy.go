// Package notify delivers push notifications through an ntfy server. Each
// call performs exactly one outbound HTTP request; retry policy belongs to
// the caller.
package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"imap-push-notifier/internal/models"
)

// ErrDelivery wraps every failed delivery attempt so callers can match the
// class with errors.Is.
var ErrDelivery = errors.New("notification delivery failed")

// NtfyNotifier sends notifications for one account to its configured ntfy
// endpoint and topic.
type NtfyNotifier struct {
	account    *models.Account
	httpClient *http.Client
}

func NewNtfyNotifier(account *models.Account) *NtfyNotifier {
	return &NtfyNotifier{
		account: account,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// NotifyNewMail pushes a notification for one new message. The subject is the
// message body; the configured click-through URL is attached when present.
func (n *NtfyNotifier) NotifyNewMail(ctx context.Context, email *models.Email) error {
	body := email.Subject
	if body == "" {
		body = "(no subject)"
	}
	if email.From != "" {
		body = fmt.Sprintf("%s\nFrom: %s", body, email.From)
	}

	headers := map[string]string{
		"Title":    fmt.Sprintf("@%s has new mail", n.account.Name),
		"Priority": "default",
	}
	if n.account.Ntfy.ClickURL != "" {
		headers["Click"] = n.account.Ntfy.ClickURL
	}

	return n.send(ctx, body, headers)
}

// NotifyWarning pushes an operator-facing warning for the account, used when
// a watcher keeps failing to connect.
func (n *NtfyNotifier) NotifyWarning(ctx context.Context, text string) error {
	headers := map[string]string{
		"Title":    fmt.Sprintf("@%s connection failed", n.account.Name),
		"Priority": "default",
		"Tags":     "warning",
	}
	return n.send(ctx, text, headers)
}

func (n *NtfyNotifier) send(ctx context.Context, body string, headers map[string]string) error {
	endpoint := strings.TrimRight(n.account.Ntfy.URL, "/") + "/" + n.account.Ntfy.Topic

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: %s returned status %d", ErrDelivery, endpoint, resp.StatusCode)
	}

	return nil
}
