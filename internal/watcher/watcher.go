// Package watcher runs the per-account watch loop: connect, select the
// mailbox, block on IDLE, detect newly-unseen messages and dispatch one push
// notification per new message, reconnecting with capped backoff on failure.
package watcher

import (
	"context"
	"errors"
	"math/rand"
	"sort"
	"time"

	imapclient "imap-push-notifier/internal/imap"
	"imap-push-notifier/internal/logging"
	"imap-push-notifier/internal/models"
	"imap-push-notifier/internal/seenstate"

	"github.com/google/uuid"
	"github.com/jpillora/backoff"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultIdleTimeout is the keep-alive interval for the IDLE wait.
	// Intermediaries drop long-idle connections, so the wait is renewed well
	// under the 29-minute ceiling most servers apply.
	DefaultIdleTimeout = 5 * time.Minute

	defaultBackoffMin = 1 * time.Second
	defaultBackoffMax = 5 * time.Minute

	// consecutive session failures before the account is flagged to the operator
	warnThreshold = 5
)

// Notifier delivers the two kinds of outbound pushes a watcher produces.
// Implemented by notify.NtfyNotifier.
type Notifier interface {
	NotifyNewMail(ctx context.Context, email *models.Email) error
	NotifyWarning(ctx context.Context, text string) error
}

// Options tune the watcher's timing. Zero values take the defaults.
type Options struct {
	IdleTimeout time.Duration
	BackoffMin  time.Duration
	BackoffMax  time.Duration
}

type Watcher struct {
	account     *models.Account
	dial        func() imapclient.Client
	notifier    Notifier
	tracker     *seenstate.Tracker
	backoff     *backoff.Backoff
	idleTimeout time.Duration
	log         *logrus.Entry

	failures     int
	authFailures int
	warned       bool
}

// New creates a watcher for one account. dial must return a fresh session
// for every reconnect attempt.
func New(account *models.Account, dial func() imapclient.Client, notifier Notifier, opts Options) *Watcher {
	if opts.IdleTimeout == 0 {
		opts.IdleTimeout = DefaultIdleTimeout
	}
	if opts.BackoffMin == 0 {
		opts.BackoffMin = defaultBackoffMin
	}
	if opts.BackoffMax == 0 {
		opts.BackoffMax = defaultBackoffMax
	}

	return &Watcher{
		account:  account,
		dial:     dial,
		notifier: notifier,
		tracker:  seenstate.NewTracker(),
		backoff: &backoff.Backoff{
			Min:    opts.BackoffMin,
			Max:    opts.BackoffMax,
			Factor: 2,
		},
		idleTimeout: opts.IdleTimeout,
		log:         logging.ForAccount(account.Name),
	}
}

// Run drives the account until ctx is cancelled. It never gives up on
// errors; every failure transitions back to disconnected and retries after
// the next backoff delay.
func (w *Watcher) Run(ctx context.Context) error {
	for {
		err := w.runSession(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		w.recordFailure(ctx, err)

		delay := w.nextDelay()
		w.log.WithError(err).WithField("retry_in", delay.String()).Warn("Session ended, reconnecting after backoff")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}

// runSession performs one connect-to-disconnect cycle: authenticate, select,
// prime the seen state from the current unseen snapshot, then idle/detect/
// notify until an error ends the session.
func (w *Watcher) runSession(ctx context.Context) error {
	session := w.dial()
	defer func() {
		_ = session.Close()
	}()

	if err := session.Connect(w.account); err != nil {
		return err
	}
	w.failures = 0
	w.authFailures = 0
	w.warned = false

	if err := session.SelectMailbox(w.account.Mailbox); err != nil {
		return err
	}

	uids, err := session.ListUnseenUIDs()
	if err != nil {
		return err
	}
	w.tracker.Prime(uids)
	w.backoff.Reset()
	w.log.WithField("unseen", len(uids)).Info("Watching mailbox")

	for {
		signal, err := session.AwaitUpdate(ctx, w.idleTimeout)
		if err != nil {
			return err
		}
		if signal == imapclient.UpdateTimeout {
			// no change, renew the wait
			continue
		}
		if err := w.detectAndNotify(ctx, session); err != nil {
			return err
		}
	}
}

// detectAndNotify lists the current unseen UIDs, filters out everything
// already tracked and dispatches one notification per new message in
// ascending UID order. A message is marked notified even when delivery
// fails, so a flaky push endpoint cannot cause a notification storm.
func (w *Watcher) detectAndNotify(ctx context.Context, session imapclient.Client) error {
	uids, err := session.ListUnseenUIDs()
	if err != nil {
		return err
	}

	var fresh []uint32
	for _, uid := range uids {
		if w.tracker.IsNew(uid) {
			fresh = append(fresh, uid)
		}
	}
	sort.Slice(fresh, func(i, j int) bool { return fresh[i] < fresh[j] })

	for _, uid := range fresh {
		email, err := session.FetchEnvelope(uid)
		if err != nil {
			// enrichment only; notify with the bare event
			w.log.WithError(err).Warnf("Could not fetch envelope for UID %d", uid)
			email = &models.Email{UID: uid, TraceID: uuid.New().String()}
		}

		locallog := w.log.WithFields(logrus.Fields{"trace_id": email.TraceID, "uid": uid})
		if err := w.notifier.NotifyNewMail(ctx, email); err != nil {
			locallog.WithError(err).Error("Notification delivery failed")
		} else {
			locallog.WithField("subject", email.Subject).Info("Notification sent")
		}
		w.tracker.MarkNotified(uid)
	}

	return nil
}

// recordFailure tracks consecutive session failures and flags the account
// once per streak, both in the log stream and as a warning push, so an
// unreachable server or misconfigured account does not retry invisibly
// forever. Auth failures are counted separately so credential problems stay
// distinguishable from network noise in the log stream.
func (w *Watcher) recordFailure(ctx context.Context, err error) {
	w.failures++
	if errors.Is(err, imapclient.ErrAuth) {
		w.authFailures++
	}

	if w.failures < warnThreshold || w.warned {
		return
	}
	w.warned = true

	locallog := w.log.WithError(err).WithField("failures", w.failures)
	if w.authFailures > 0 {
		locallog.WithField("auth_failures", w.authFailures).Error("Repeated authentication failures")
	} else {
		locallog.Error("Persistent connection failures")
	}
	if warnErr := w.notifier.NotifyWarning(ctx, err.Error()); warnErr != nil {
		w.log.WithError(warnErr).Error("Could not deliver connection failure warning")
	}
}

// nextDelay returns the next backoff delay with ±20% jitter, so accounts
// hitting the same failing server do not reconnect in lockstep.
func (w *Watcher) nextDelay() time.Duration {
	d := w.backoff.Duration()
	span := int64(d) * 2 / 5
	if span > 0 {
		d += time.Duration(rand.Int63n(span+1) - span/2)
	}
	return d
}
