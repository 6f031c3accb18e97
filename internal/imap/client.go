package imap

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"time"

	"imap-push-notifier/internal/mailparse"
	"imap-push-notifier/internal/models"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
)

type StandardClient struct {
	client  *client.Client
	timeout time.Duration
}

// NewStandardClient creates a new StandardClient with a default timeout of 30 seconds for IMAP operations
func NewStandardClient() *StandardClient {
	return &StandardClient{
		timeout: 30 * time.Second,
	}
}

// Connect establishes a TLS connection to the account's IMAP server and authenticates.
// Dial and login are bounded by the client timeout so a dead server fails fast instead of hanging.
func (c *StandardClient) Connect(account *models.Account) error {
	dialer := &net.Dialer{
		Timeout:   c.timeout,
		KeepAlive: 30 * time.Second,
	}
	tlsConfig := &tls.Config{
		ServerName: account.Host,
	}

	cl, err := client.DialWithDialerTLS(dialer, account.Addr(), tlsConfig)
	if err != nil {
		return classifyDialError(account.Addr(), err)
	}

	cl.Timeout = c.timeout
	if err := cl.Login(account.Username, account.Password); err != nil {
		_ = cl.Logout()
		return fmt.Errorf("%w: login as %s: %v", ErrAuth, account.Username, err)
	}
	// no deadline on the long-lived session; AwaitUpdate bounds its own waits
	cl.Timeout = 0

	c.client = cl
	return nil
}

// SelectMailbox selects the mailbox to watch. It must be called before AwaitUpdate.
func (c *StandardClient) SelectMailbox(name string) error {
	if c.client == nil {
		return fmt.Errorf("%w: not connected", ErrNetwork)
	}
	if _, err := c.client.Select(name, true); err != nil {
		return fmt.Errorf("%w: select %s: %v", ErrProtocol, name, err)
	}
	return nil
}

// AwaitUpdate blocks until the server pushes a mailbox change, the keep-alive
// timeout elapses, or ctx is cancelled. It issues an IDLE command and tears it
// down before returning, so each call is one renewal of the wait primitive.
func (c *StandardClient) AwaitUpdate(ctx context.Context, timeout time.Duration) (UpdateSignal, error) {
	if c.client == nil {
		return UpdateTimeout, fmt.Errorf("%w: not connected", ErrNetwork)
	}

	updates := make(chan client.Update, 32)
	c.client.Updates = updates
	defer func() { c.client.Updates = nil }()

	stop := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- c.client.Idle(stop, nil)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	signal := UpdateTimeout
	stopped := false
	stopIdle := func() {
		if !stopped {
			close(stop)
			stopped = true
		}
	}

	for {
		select {
		case <-ctx.Done():
			stopIdle()
			<-done
			return UpdateTimeout, ctx.Err()

		case update := <-updates:
			switch update.(type) {
			case *client.MailboxUpdate, *client.MessageUpdate, *client.ExpungeUpdate:
				signal = UpdateChanged
				stopIdle()
			}

		case <-timer.C:
			stopIdle()

		case err := <-done:
			if err != nil {
				return UpdateTimeout, fmt.Errorf("%w: idle: %v", ErrNetwork, err)
			}
			return signal, nil
		}
	}
}

// ListUnseenUIDs retrieves the UIDs of all messages not flagged as seen in the
// selected mailbox. It returns a slice of UIDs and an error if the search
// operation fails or if there is no active connection.
func (c *StandardClient) ListUnseenUIDs() ([]uint32, error) {
	if c.client == nil {
		return nil, fmt.Errorf("%w: not connected", ErrNetwork)
	}

	criteria := imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{imap.SeenFlag}

	uids, err := c.client.UidSearch(criteria)
	if err != nil {
		return nil, fmt.Errorf("%w: search unseen: %v", ErrProtocol, err)
	}

	return uids, nil
}

// FetchEnvelope retrieves the header of the message with the given UID and
// parses it into a normalized Email. Used only to enrich notifications;
// callers treat failures as non-fatal.
func (c *StandardClient) FetchEnvelope(uid uint32) (*models.Email, error) {
	if c.client == nil {
		return nil, fmt.Errorf("%w: not connected", ErrNetwork)
	}

	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uid)

	section := mailparse.HeaderSection()
	items := []imap.FetchItem{section.FetchItem(), imap.FetchEnvelope, imap.FetchInternalDate, imap.FetchUid}

	prevTimeout := c.client.Timeout
	c.client.Timeout = c.timeout
	defer func() { c.client.Timeout = prevTimeout }()

	messages := make(chan *imap.Message, 1)
	done := make(chan error, 1)

	go func() {
		done <- c.client.UidFetch(seqSet, items, messages)
	}()

	var msg *imap.Message
	for m := range messages {
		msg = m
	}

	if err := <-done; err != nil {
		return nil, fmt.Errorf("%w: fetch UID %d: %v", ErrProtocol, uid, err)
	}

	if msg == nil {
		return nil, fmt.Errorf("%w: no message retrieved for UID %d", ErrProtocol, uid)
	}

	return mailparse.Parse(msg)
}

// Close logs out from the IMAP server and closes the connection. Logout is
// bounded so a dead peer cannot stall shutdown. Idempotent and best-effort.
func (c *StandardClient) Close() error {
	if c.client == nil {
		return nil
	}
	cl := c.client
	c.client = nil

	cl.Timeout = 5 * time.Second
	done := make(chan error, 1)
	go func() {
		done <- cl.Logout()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		return nil
	}
}

func classifyDialError(addr string, err error) error {
	var certErr *tls.CertificateVerificationError
	var recordErr tls.RecordHeaderError
	var hostErr x509.HostnameError
	if errors.As(err, &certErr) || errors.As(err, &recordErr) || errors.As(err, &hostErr) {
		return fmt.Errorf("%w: connecting to %s: %v", ErrTLS, addr, err)
	}
	return fmt.Errorf("%w: connecting to %s: %v", ErrNetwork, addr, err)
}
