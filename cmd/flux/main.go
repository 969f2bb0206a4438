package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"flux/internal/bootstrap"
	replicationdto "flux/internal/modules/replication/dto"
	"flux/internal/platform/config"
	"flux/internal/platform/logging"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// cli carries the settings shared by every subcommand.
type cli struct {
	v          *viper.Viper
	configPath string
}

func newRootCmd() *cobra.Command {
	c := &cli{v: config.NewViper()}

	root := &cobra.Command{
		Use:           "flux",
		Short:         "Energy-adaptive habit tracker",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			// A missing .env is fine; real env vars still apply.
			_ = godotenv.Load()
			return nil
		},
	}
	flags := root.PersistentFlags()
	flags.String("data", config.DefaultDataDir(), "data directory")
	flags.String("backend", config.BackendFile, "storage backend: file|sqlite")
	flags.String("log-level", "info", "log level: debug|info|warn|error")
	flags.StringVar(&c.configPath, "config", "", "config file (default <data>/flux.yaml)")
	if err := bindFlags(c.v, flags, map[string]string{
		"data_dir":  "data",
		"backend":   "backend",
		"log.level": "log-level",
	}); err != nil {
		panic(err)
	}

	root.AddCommand(
		newTUICmd(c),
		newCheckInCmd(c),
		newOverrideCmd(c),
		newHabitCmd(c),
		newProfileCmd(c),
		newDayCmd(c),
		newEventsCmd(c),
		newForecastCmd(c),
		newReportCmd(c),
		newCoachCmd(c),
		newResetCmd(c),
		newSyncCmd(c),
	)
	return root
}

// bindFlags maps config keys to flag names so flags win over file and env.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet, keys map[string]string) error {
	for key, name := range keys {
		flag := flags.Lookup(name)
		if flag == nil {
			return fmt.Errorf("bind %s: unknown flag --%s", key, name)
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("bind %s: %w", key, err)
		}
	}
	return nil
}

func (c *cli) loadConfig() (config.Config, error) {
	if err := config.ReadFile(c.v, c.configPath); err != nil {
		return config.Config{}, err
	}
	return config.FromViper(c.v)
}

func (c *cli) loadApp(ctx context.Context, cfg config.Config) (*bootstrap.App, error) {
	logger, err := logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, File: cfg.Log.File})
	if err != nil {
		return nil, err
	}
	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}
	return app, nil
}

// run opens the app for one command and always closes it, so queued
// replication is flushed before the process exits.
func (c *cli) run(cmd *cobra.Command, fn func(ctx context.Context, app *bootstrap.App) error) (err error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	app, err := c.loadApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		err = errors.Join(err, app.Close(closeCtx))
		_ = app.Logger.Sync()
	}()
	return fn(ctx, app)
}

func newTUICmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Run the interactive dashboard",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if cfg.Log.File == "" {
				cfg.Log.File = filepath.Join(cfg.DataDir, "flux.log")
			}
			app, err := c.loadApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			runErr := bootstrap.RunTUI(cmd.Context(), app)
			closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			closeErr := app.Close(closeCtx)
			_ = app.Logger.Sync()
			return errors.Join(runErr, closeErr)
		},
	}
}

func newSyncCmd(c *cli) *cobra.Command {
	syncCmd := &cobra.Command{Use: "sync", Short: "Event replication"}
	syncCmd.AddCommand(&cobra.Command{
		Use:   "drain",
		Short: "Replicate the whole event log to the configured sync target",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.run(cmd, func(ctx context.Context, app *bootstrap.App) error {
				if app.ReplicationCLI == nil {
					return fmt.Errorf("sync target is %q; set sync.target to http or sqlite", app.Config.Sync.Target)
				}
				events, err := app.AnalyticsCLI.List(ctx, "", 0)
				if err != nil {
					return err
				}
				records := make([]replicationdto.Record, 0, len(events))
				for _, event := range events {
					records = append(records, replicationdto.Record{
						ID:        event.ID,
						Type:      event.Type,
						Timestamp: event.Timestamp.UnixMilli(),
						Payload:   event.Payload,
					})
				}
				stats, err := app.ReplicationCLI.Drain(ctx, records)
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "sink=%s pushed=%d dropped=%d failures=%d\n",
					stats.Sink, stats.Pushed, stats.Dropped, stats.Failures)
				if err != nil {
					app.Logger.Warn("sync drain incomplete", zap.Error(err))
				}
				return err
			})
		},
	})
	return syncCmd
}
