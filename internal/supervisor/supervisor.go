// Package supervisor starts one watcher per configured account, keeps them
// running independently and coordinates process-wide shutdown.
package supervisor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"imap-push-notifier/internal/config"
	imapclient "imap-push-notifier/internal/imap"
	"imap-push-notifier/internal/logging"
	"imap-push-notifier/internal/models"
	"imap-push-notifier/internal/notify"
	"imap-push-notifier/internal/watcher"

	"golang.org/x/sync/errgroup"
)

const defaultRestartDelay = 5 * time.Second

// Runner is one account's run loop. Implemented by watcher.Watcher.
type Runner interface {
	Run(ctx context.Context) error
}

type Supervisor struct {
	cancel       context.CancelFunc
	group        *errgroup.Group
	restartDelay time.Duration
	shutdownOnce sync.Once
}

// Start validates the configuration and launches one watcher goroutine per
// account. It fails if no valid account is configured; that is the only
// process-fatal condition.
func Start(cfg *models.Config) (*Supervisor, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	runners := make(map[string]Runner, len(cfg.Accounts))
	for i := range cfg.Accounts {
		account := &cfg.Accounts[i]
		runners[account.Name] = watcher.New(
			account,
			func() imapclient.Client { return imapclient.NewStandardClient() },
			notify.NewNtfyNotifier(account),
			watcher.Options{},
		)
	}

	return startRunners(runners, defaultRestartDelay)
}

func startRunners(runners map[string]Runner, restartDelay time.Duration) (*Supervisor, error) {
	if len(runners) == 0 {
		return nil, fmt.Errorf("no accounts to watch")
	}

	ctx, cancel := context.WithCancel(context.Background())
	group, ctx := errgroup.WithContext(ctx)

	s := &Supervisor{
		cancel:       cancel,
		group:        group,
		restartDelay: restartDelay,
	}

	for name, runner := range runners {
		name, runner := name, runner
		group.Go(func() error {
			s.supervise(ctx, name, runner)
			return nil
		})
	}

	return s, nil
}

// supervise restarts a run loop that returns before shutdown. Watchers retry
// internally and should only return on cancellation; an early return is a
// bug worth surfacing, not a reason to stop watching the account.
func (s *Supervisor) supervise(ctx context.Context, name string, runner Runner) {
	log := logging.ForAccount(name)
	for {
		err := runner.Run(ctx)
		if ctx.Err() != nil {
			return
		}

		log.WithError(err).Error("Watcher exited unexpectedly, restarting")
		select {
		case <-ctx.Done():
			return
		case <-time.After(s.restartDelay):
		}
	}
}

// Shutdown cancels all watchers and waits for them to stop. It returns the
// context's error if the grace period expires first. Safe to call more than
// once; cancellation happens only on the first call.
func (s *Supervisor) Shutdown(ctx context.Context) error {
	s.shutdownOnce.Do(s.cancel)

	done := make(chan struct{})
	go func() {
		_ = s.group.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
