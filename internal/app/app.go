// Package app builds the process-wide context a host runs: settings,
// logger, credential store, API client and poller, constructed once and
// passed by reference.
package app

import (
	"context"
	"fmt"

	"github.com/tnunamak/usagegauge/internal/api"
	"github.com/tnunamak/usagegauge/internal/config"
	"github.com/tnunamak/usagegauge/internal/credentials"
	"github.com/tnunamak/usagegauge/internal/display"
	"github.com/tnunamak/usagegauge/internal/logging"
	"github.com/tnunamak/usagegauge/internal/worker"
)

type App struct {
	Settings config.Settings
	Log      logging.Logger
	Store    *credentials.Store
	Client   *api.Client
	Poller   *worker.Poller
	Display  *display.Adapter
}

// New wires the components from s. Extra client or poller options are
// appended after the defaults.
func New(s config.Settings, log logging.Logger, version string, clientOpts []api.Option, pollerOpts []worker.Option) (*App, error) {
	path, err := s.EffectiveCredentialsPath()
	if err != nil {
		return nil, fmt.Errorf("credentials path: %w", err)
	}
	store, err := credentials.NewStore(path)
	if err != nil {
		return nil, err
	}

	client := api.NewClient(store, append([]api.Option{
		api.WithLogger(log.With("component", "api")),
		api.WithUserAgent("usagegauge/" + version),
	}, clientOpts...)...)

	poller := worker.New(client, append([]worker.Option{
		worker.WithInterval(s.Interval()),
		worker.WithLogger(log.With("component", "poller")),
	}, pollerOpts...)...)

	return &App{
		Settings: s,
		Log:      log,
		Store:    store,
		Client:   client,
		Poller:   poller,
		Display:  display.New(poller),
	}, nil
}

// Start begins polling.
func (a *App) Start(ctx context.Context) error {
	a.Log.Info(ctx, "starting poller",
		"credentials", a.Store.Path,
		"interval", a.Poller.Interval(),
	)
	return a.Poller.Start()
}

// Close stops polling. It is safe to call more than once.
func (a *App) Close() {
	a.Poller.Stop()
}
