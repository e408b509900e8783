package messenger

import (
	"context"
	"sync"
	"time"

	"github.com/tOgg1/wirewave/internal/models"
	"github.com/tOgg1/wirewave/internal/poll"
)

// AccountAPI is the account surface of the server.
type AccountAPI interface {
	Health(ctx context.Context) (string, error)
	DeleteAccount(ctx context.Context) error
	Profile(ctx context.Context) (models.Profile, bool, error)
	SaveProfile(ctx context.Context, p models.Profile, exists bool) (models.Profile, error)
}

// Logouter ends the local session.
type Logouter interface {
	Logout(ctx context.Context) error
}

// Account manages the signed-in user's own profile and account.
type Account struct {
	api     AccountAPI
	session Logouter
	sink    NotificationSink

	mu      sync.Mutex
	profile models.Profile
	exists  bool
	loaded  bool
}

// NewAccount creates an account controller.
func NewAccount(accounts AccountAPI, session Logouter, sink NotificationSink) *Account {
	return &Account{api: accounts, session: session, sink: sinkOrDiscard(sink)}
}

// Health checks the server and reports its status.
func (a *Account) Health(ctx context.Context) (string, error) {
	status, err := a.api.Health(ctx)
	if err != nil {
		notifyError(a.sink, err, "Connection Failed")
		return "", err
	}
	notifySuccess(a.sink, "Server: "+status)
	return status, nil
}

// LoadProfile fetches the user's own profile. exists is false until one
// has been saved.
func (a *Account) LoadProfile(ctx context.Context) (models.Profile, bool, error) {
	p, exists, err := a.api.Profile(ctx)
	if err != nil {
		return models.Profile{}, false, err
	}
	a.mu.Lock()
	a.profile, a.exists, a.loaded = p, exists, true
	a.mu.Unlock()
	return p, exists, nil
}

// SaveProfile creates or updates the profile.
func (a *Account) SaveProfile(ctx context.Context, p models.Profile) (models.Profile, error) {
	a.mu.Lock()
	loaded, exists := a.loaded, a.exists
	a.mu.Unlock()

	if !loaded {
		if _, e, err := a.LoadProfile(ctx); err == nil {
			exists = e
		}
	}

	saved, err := a.api.SaveProfile(ctx, p, exists)
	if err != nil {
		notifyError(a.sink, err, "Save failed")
		return models.Profile{}, err
	}
	a.mu.Lock()
	a.profile, a.exists, a.loaded = saved, true, true
	a.mu.Unlock()
	notifySuccess(a.sink, "Profile saved")
	return saved, nil
}

// Delete removes the account and signs out.
func (a *Account) Delete(ctx context.Context) error {
	if err := a.api.DeleteAccount(ctx); err != nil {
		notifyError(a.sink, err, "Delete failed")
		return err
	}
	notifySuccess(a.sink, "Account deleted")
	if a.session != nil {
		return a.session.Logout(ctx)
	}
	return nil
}

// Heartbeat pings the presence endpoint on an interval.
type Heartbeat struct {
	task *poll.Task
}

// NewHeartbeat creates a stopped heartbeat.
func NewHeartbeat(p Pinger, interval time.Duration) *Heartbeat {
	return &Heartbeat{task: poll.NewTask(poll.TaskConfig{Name: "presence", Interval: interval}, p.Ping)}
}

// Start begins pinging; the first ping is immediate.
func (h *Heartbeat) Start(ctx context.Context) error { return h.task.Start(ctx) }

// Stop halts pinging.
func (h *Heartbeat) Stop() error { return h.task.Stop() }

// Wait blocks until an in-flight ping returns.
func (h *Heartbeat) Wait() { h.task.Wait() }
