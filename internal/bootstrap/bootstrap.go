package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	analyticsinadapter "flux/internal/modules/analytics/adapter/in"
	analyticsoutadapter "flux/internal/modules/analytics/adapter/out"
	analyticsservice "flux/internal/modules/analytics/service"
	analyticsusecase "flux/internal/modules/analytics/usecase"
	coachinadapter "flux/internal/modules/coach/adapter/in"
	coachoutadapter "flux/internal/modules/coach/adapter/out"
	coachout "flux/internal/modules/coach/port/out"
	coachservice "flux/internal/modules/coach/service"
	coachusecase "flux/internal/modules/coach/usecase"
	energy "flux/internal/modules/energy/domain"
	insightinadapter "flux/internal/modules/insight/adapter/in"
	insightoutadapter "flux/internal/modules/insight/adapter/out"
	insightservice "flux/internal/modules/insight/service"
	insightusecase "flux/internal/modules/insight/usecase"
	replicationinadapter "flux/internal/modules/replication/adapter/in"
	replicationoutadapter "flux/internal/modules/replication/adapter/out"
	replicationdomain "flux/internal/modules/replication/domain"
	replicationin "flux/internal/modules/replication/port/in"
	replicationout "flux/internal/modules/replication/port/out"
	replicationservice "flux/internal/modules/replication/service"
	replicationusecase "flux/internal/modules/replication/usecase"
	trackerinadapter "flux/internal/modules/tracker/adapter/in"
	trackeroutadapter "flux/internal/modules/tracker/adapter/out"
	trackerdto "flux/internal/modules/tracker/dto"
	trackerservice "flux/internal/modules/tracker/service"
	trackerusecase "flux/internal/modules/tracker/usecase"
	"flux/internal/platform/clock"
	"flux/internal/platform/config"
	"flux/internal/platform/id"
	"flux/internal/platform/kv"
	"flux/internal/platform/metrics"
	uiapp "flux/internal/ui/app"
)

const closeTimeout = 10 * time.Second

type App struct {
	TrackerCLI     trackerinadapter.CLIHandler
	TrackerTUI     trackerinadapter.TUIHandler
	AnalyticsCLI   analyticsinadapter.CLIHandler
	InsightCLI     insightinadapter.CLIHandler
	CoachCLI       coachinadapter.CLIHandler
	ReplicationCLI *replicationinadapter.CLIHandler

	Config  config.Config
	Logger  *zap.Logger
	Metrics *metrics.Metrics

	backend     kv.Store
	store       *trackerservice.Store
	events      *analyticsservice.EventLog
	replication replicationin.Usecase
	closers     []func() error
}

// New wires every module over the configured backend and loads persisted
// state. Callers must Close the app to flush replication.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	clk := clock.SystemClock{}
	m := metrics.New()
	app := &App{Config: cfg, Logger: logger, Metrics: m}

	backend, closeBackend, err := openBackend(cfg, logger)
	if err != nil {
		return nil, err
	}
	app.backend = backend
	if closeBackend != nil {
		app.closers = append(app.closers, closeBackend)
	}

	eventOpts := []analyticsservice.Option{
		analyticsservice.WithLogger(logger.Named("analytics")),
		analyticsservice.WithMetrics(m),
		analyticsservice.WithLocation(cfg.Location),
	}
	sink, err := openSink(cfg)
	if err != nil {
		_ = app.closeBackend()
		return nil, err
	}
	if sink != nil {
		replicator := replicationservice.NewReplicator(sink, replicationdomain.Policy{
			MaxAttempts:     cfg.Sync.MaxAttempts,
			BackoffBase:     cfg.Sync.BackoffBase,
			BackoffMax:      cfg.Sync.BackoffMax,
			BatchSize:       cfg.Sync.BatchSize,
			QueueSize:       cfg.Sync.QueueSize,
			PushesPerSecond: cfg.Sync.PushesPerSecond,
		}, replicationservice.WithLogger(logger.Named("replication")), replicationservice.WithMetrics(m))
		app.replication = replicationusecase.NewInteractor(replicator)
		app.replication.Start(context.Background())
		handler := replicationinadapter.NewCLIHandler(app.replication)
		app.ReplicationCLI = &handler
		eventOpts = append(eventOpts, analyticsservice.WithReplicator(
			analyticsoutadapter.NewReplicationBridge(app.replication, logger.Named("replication")),
		))
	}

	app.events = analyticsservice.NewEventLog(analyticsoutadapter.NewKVEventStore(backend), clk, id.UUID{}, eventOpts...)
	if err := app.events.Load(ctx); err != nil {
		_ = app.Close(ctx)
		return nil, fmt.Errorf("load events: %w", err)
	}
	analyticsUC := analyticsusecase.NewInteractor(app.events)

	banding := energy.Banding{SurvivalMax: cfg.Energy.SurvivalMax, ExpansionMin: cfg.Energy.ExpansionMin}
	app.store = trackerservice.NewStore(
		trackeroutadapter.NewKVStateStore(backend),
		app.events,
		energy.NewClassifier(banding),
		clk,
		id.Short{},
		trackerservice.WithJournal(trackeroutadapter.NewMarkdownJournal(cfg.JournalDir)),
		trackerservice.WithLocation(cfg.Location),
		trackerservice.WithLogger(logger.Named("tracker")),
		trackerservice.WithMetrics(m),
	)
	if err := app.store.Load(ctx); err != nil {
		_ = app.Close(ctx)
		return nil, fmt.Errorf("load state: %w", err)
	}
	trackerUC := trackerusecase.NewInteractor(app.store, analyticsUC)

	insightUC := insightusecase.NewInteractor(
		insightservice.NewEngine(app.events, clk,
			insightservice.WithLocation(cfg.Location),
			insightservice.WithMinSamples(cfg.Forecast.MinSamples),
			insightservice.WithBanding(banding),
		),
		insightoutadapter.NewMarkdownReportStore(cfg.JournalDir),
	)

	var provider coachout.Provider
	if cfg.AI.Enabled {
		provider = coachoutadapter.NewOpenAIProvider(coachoutadapter.OpenAIConfig{
			APIKey:  cfg.AI.APIKey,
			BaseURL: cfg.AI.BaseURL,
			Model:   cfg.AI.Model,
		})
	}
	coachUC := coachusecase.NewInteractor(coachservice.NewCoach(
		provider,
		app.events,
		trackerUC,
		coachservice.Config{Timeout: cfg.AI.Timeout, RequestsPerMinute: cfg.AI.RequestsPerMinute},
		coachservice.WithLogger(logger.Named("coach")),
		coachservice.WithMetrics(m),
	))

	app.TrackerCLI = trackerinadapter.NewCLIHandler(trackerUC)
	app.TrackerTUI = trackerinadapter.NewTUIHandler(trackerUC)
	app.AnalyticsCLI = analyticsinadapter.NewCLIHandler(analyticsUC)
	app.InsightCLI = insightinadapter.NewCLIHandler(insightUC)
	app.CoachCLI = coachinadapter.NewCLIHandler(coachUC)
	return app, nil
}

func openBackend(cfg config.Config, logger *zap.Logger) (kv.Store, func() error, error) {
	switch cfg.Backend {
	case config.BackendSQLite:
		store, err := kv.NewSQLiteStore(cfg.DBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite backend: %w", err)
		}
		return store, store.Close, nil
	default:
		return kv.NewFileStore(cfg.DataDir, logger.Named("kv")), nil, nil
	}
}

func openSink(cfg config.Config) (replicationout.Sink, error) {
	switch cfg.Sync.Target {
	case config.SyncHTTP:
		sink, err := replicationoutadapter.NewHTTPSink(cfg.Sync.Endpoint, cfg.Sync.Token, nil)
		if err != nil {
			return nil, fmt.Errorf("open http sink: %w", err)
		}
		return sink, nil
	case config.SyncSQLite:
		sink, err := replicationoutadapter.NewSQLiteSink(cfg.MirrorPath())
		if err != nil {
			return nil, fmt.Errorf("open sqlite sink: %w", err)
		}
		return sink, nil
	default:
		return nil, nil
	}
}

// Watch reloads state and events whenever the file backend sees a write,
// including writes from another flux process. Other backends do not watch.
func (a *App) Watch(ctx context.Context) error {
	files, ok := a.backend.(*kv.FileStore)
	if !ok {
		return nil
	}
	return files.Watch(ctx, func(key string) {
		var err error
		switch key {
		case trackeroutadapter.StateKey:
			err = a.store.Reload(ctx)
		case analyticsoutadapter.EventsKey:
			err = a.events.Load(ctx)
		default:
			return
		}
		if err != nil {
			a.Logger.Warn("reload after external write failed", zap.String("key", key), zap.Error(err))
		}
	})
}

// Close flushes replication and releases storage.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.replication != nil {
		if _, hasDeadline := ctx.Deadline(); !hasDeadline {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, closeTimeout)
			defer cancel()
		}
		if err := a.replication.Close(ctx); err != nil {
			errs = append(errs, err)
		}
		if stats := a.replication.Stats(); stats.Dropped > 0 {
			a.Logger.Warn("replication dropped records", zap.String("sink", stats.Sink), zap.Int("dropped", stats.Dropped))
		}
	}
	if err := a.closeBackend(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (a *App) closeBackend() error {
	var errs []error
	for _, closeFn := range a.closers {
		if err := closeFn(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// RunTUI runs the interactive dashboard until the user quits. The metrics
// endpoint and the external-write watcher live as long as the program.
func RunTUI(ctx context.Context, app *App) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if err := app.Watch(ctx); err != nil {
		app.Logger.Warn("external write watch disabled", zap.Error(err))
	}
	if addr := app.Config.Metrics.Addr; addr != "" {
		go func() {
			if err := app.Metrics.Serve(ctx, addr); err != nil {
				app.Logger.Warn("metrics endpoint stopped", zap.String("addr", addr), zap.Error(err))
			}
		}()
	}
	model := uiapp.NewModel(ctx, app.TrackerTUI, app.InsightCLI, app.CoachCLI)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	unsubscribe := app.TrackerTUI.Subscribe(func(state trackerdto.StateOutput) {
		program.Send(uiapp.StateChangedMsg{State: state})
	})
	defer unsubscribe()
	_, err := program.Run()
	return err
}
