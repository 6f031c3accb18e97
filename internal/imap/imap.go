package imap

import (
	"context"
	"time"

	"imap-push-notifier/internal/models"
)

// UpdateSignal is the outcome of one AwaitUpdate call.
type UpdateSignal int

const (
	// UpdateTimeout means the keep-alive interval elapsed with no change;
	// the caller should renew the wait.
	UpdateTimeout UpdateSignal = iota
	// UpdateChanged means the server signalled a mailbox change.
	UpdateChanged
)

type Client interface {
	Connect(account *models.Account) error
	SelectMailbox(name string) error
	AwaitUpdate(ctx context.Context, timeout time.Duration) (UpdateSignal, error)
	ListUnseenUIDs() ([]uint32, error)
	FetchEnvelope(uid uint32) (*models.Email, error)
	Close() error
}
