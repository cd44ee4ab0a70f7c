package app

import (
	"context"
	"fmt"
	"time"

	"github.com/fennle/chitview/internal/chitui"
	"github.com/fennle/chitview/internal/config"
	"github.com/fennle/chitview/internal/prefs"
	"github.com/fennle/chitview/internal/realtime"
	"github.com/fennle/chitview/internal/state"
	"github.com/fennle/chitview/internal/ui"
)

// Options configure the chitview application.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/chitview/prefs.toml
	ServerURL  string // overrides the configured server URL when set
	PollEvery  int    // seconds; zero uses the configured value
}

// Run boots the chitview TUI until the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if opts.ServerURL != "" {
		cfg.ServerURL = opts.ServerURL
	}
	if opts.PollEvery > 0 {
		cfg.PollSeconds = opts.PollEvery
	}

	userPrefs, err := prefs.Load(opts.PrefsPath)
	if err != nil {
		return fmt.Errorf("load prefs: %w", err)
	}

	client, err := chitui.NewClient(cfg.ServerURL)
	if err != nil {
		return fmt.Errorf("init client: %w", err)
	}

	if cfg.Password != "" {
		result, err := client.Login(ctx, cfg.Password)
		if err != nil {
			return fmt.Errorf("login: %w", err)
		}
		if !result.Success {
			return fmt.Errorf("login rejected: %s", result.Message)
		}
	}

	store := state.NewStore()

	rt, err := realtime.NewClient(client.BaseURL())
	if err != nil {
		return fmt.Errorf("init realtime client: %w", err)
	}
	go rt.Run(ctx)

	StartEventLoop(ctx, store, rt)

	interval := defaultPollInterval
	if cfg.PollSeconds > 0 {
		interval = time.Duration(cfg.PollSeconds) * time.Second
	}
	StartPoller(ctx, store, client, interval)

	// Populate the store before the UI draws its first frame.
	refresh(ctx, store, client)
	_ = rt.Emit(realtime.EmitPrinters, struct{}{})

	uiOpts := ui.Options{
		Context:        ctx,
		Client:         client,
		Realtime:       rt,
		Store:          store,
		PollTick:       time.Second,
		ThemeName:      userPrefs.Theme,
		PrefsPath:      opts.PrefsPath,
		DefaultPrinter: userPrefs.DefaultPrinter,
	}
	return ui.Run(uiOpts)
}
