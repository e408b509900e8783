package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/tOgg1/wirewave/internal/api"
	"github.com/tOgg1/wirewave/internal/config"
	"github.com/tOgg1/wirewave/internal/logging"
	"github.com/tOgg1/wirewave/internal/messenger"
	"github.com/tOgg1/wirewave/internal/session"
	"github.com/tOgg1/wirewave/internal/store"
)

// app is the per-invocation wiring of config, local store, session and
// API client.
type app struct {
	cfg     *config.Config
	kv      *store.SQLite
	session *session.Session
	client  *api.Client
	flags   *store.Flags

	// groupsCtl is created on first use and stopped by Close.
	groupsCtl *messenger.Groups

	out    io.Writer
	errOut io.Writer
	json   bool
}

// loadConfig resolves configuration with flag overrides applied last.
func loadConfig(cmd *cobra.Command, opts *options) (*config.Config, error) {
	loader := config.NewLoader()
	loader.SetEnvFile(opts.envFile)
	if opts.configFile != "" {
		loader.SetConfigFile(opts.configFile)
	}

	overrides := map[string]string{
		"api-url":    "api.base_url",
		"store":      "storage.path",
		"log-level":  "logging.level",
		"log-format": "logging.format",
	}
	for flag, key := range overrides {
		if f := cmd.Flags().Lookup(flag); f != nil && f.Changed {
			loader.Set(key, f.Value.String())
		}
	}

	cfg, err := loader.Load()
	if err != nil {
		return nil, Exitf(ExitCodeUsage, "%v", err)
	}
	return cfg, nil
}

// openApp loads config, initializes logging to stderr and opens the local
// store. The caller must close the returned app.
func openApp(cmd *cobra.Command, opts *options) (*app, error) {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return nil, err
	}
	logging.Init(logging.Config{
		Level:        cfg.Logging.Level,
		Format:       cfg.Logging.Format,
		Output:       cmd.ErrOrStderr(),
		EnableCaller: cfg.Logging.EnableCaller,
	})
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to create directories: %w", err)
	}

	ctx := cmd.Context()
	kv, err := store.OpenSQLite(ctx, cfg.Storage.Path)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:     cfg,
		kv:      kv,
		session: session.New(kv),
		flags:   store.NewFlags(kv),
		out:     cmd.OutOrStdout(),
		errOut:  cmd.ErrOrStderr(),
		json:    opts.jsonOut,
	}
	if err := a.session.Init(ctx); err != nil {
		a.Close()
		return nil, err
	}
	if err := a.flags.Load(ctx); err != nil {
		a.Close()
		return nil, err
	}
	a.client, err = api.New(api.Options{
		BaseURL:   cfg.API.BaseURL,
		Timeout:   cfg.API.Timeout,
		RateLimit: cfg.API.RateLimit,
		RateBurst: cfg.API.RateBurst,
	}, a.session)
	if err != nil {
		a.Close()
		return nil, Exitf(ExitCodeUsage, "%v", err)
	}
	return a, nil
}

func (a *app) Close() {
	if a.groupsCtl != nil {
		a.groupsCtl.Close()
	}
	if a.kv != nil {
		_ = a.kv.Close()
	}
}

// requireLogin fails unless a usable session is stored.
func (a *app) requireLogin() error {
	if _, err := a.session.AuthToken(); err != nil {
		if errors.Is(err, session.ErrExpired) {
			return Exitf(ExitCodeAuth, "session expired, run `wirewave login`")
		}
		return Exitf(ExitCodeAuth, "not logged in, run `wirewave login`")
	}
	return nil
}

// sink prints notifications: successes to stdout, errors to stderr.
// Nothing is printed in JSON mode except errors.
func (a *app) sink() messenger.NotificationSink {
	return messenger.NotifyFunc(func(n messenger.Notification) {
		switch n.Level {
		case messenger.LevelError:
			fmt.Fprintln(a.errOut, "error:", n.Text)
		default:
			if !a.json {
				fmt.Fprintln(a.out, n.Text)
			}
		}
	})
}

func (a *app) messengerConfig() messenger.Config {
	return messenger.Config{
		MessagesInterval:      a.cfg.Sync.MessagesInterval,
		GroupsInterval:        a.cfg.Sync.GroupsInterval,
		GroupsMinInterval:     a.cfg.Sync.GroupsMinInterval,
		GroupMessagesInterval: a.cfg.Sync.GroupMessagesInterval,
		GroupMessageLimit:     a.cfg.Sync.GroupMessageLimit,
		PingInterval:          a.cfg.Presence.PingInterval,
	}
}

func (a *app) inbox() *messenger.Inbox {
	return messenger.NewInbox(a.client, a.session, a.flags, a.sink(), a.messengerConfig())
}

func (a *app) groups() *messenger.Groups {
	if a.groupsCtl == nil {
		a.groupsCtl = messenger.NewGroups(a.client, a.session, a.sink(), a.messengerConfig())
	}
	return a.groupsCtl
}

// loadedInbox returns an inbox after one synchronous fetch.
func (a *app) loadedInbox(ctx context.Context) (*messenger.Inbox, error) {
	in := a.inbox()
	if err := in.Refresh(ctx); err != nil {
		return nil, exitFor(err, "failed to load messages")
	}
	return in, nil
}

type appRunE func(cmd *cobra.Command, args []string, a *app) error

// withApp opens the app around run.
func withApp(opts *options, run appRunE) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd, opts)
		if err != nil {
			return err
		}
		defer a.Close()
		return run(cmd, args, a)
	}
}

// withSession is withApp for commands that need a login.
func withSession(opts *options, run appRunE) func(*cobra.Command, []string) error {
	return withApp(opts, func(cmd *cobra.Command, args []string, a *app) error {
		if err := a.requireLogin(); err != nil {
			return err
		}
		return run(cmd, args, a)
	})
}
