package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/flexelog/logbookcfg/pkg/config"
	"github.com/flexelog/logbookcfg/pkg/journal"
	"github.com/flexelog/logbookcfg/pkg/loader"
	"github.com/flexelog/logbookcfg/pkg/telemetry"
)

func newWatchCommand() *cobra.Command {
	var (
		file        string
		globalPath  string
		logbookDir  string
		metricsAddr string
		journalPath string
		delay       time.Duration
		strict      bool
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch configuration files and reload on change",
		Long: `Load a configuration and reload it whenever its files change.

The configuration is either one file (--file) or a global settings file
plus one <logbook>.cfg file per logbook (--global, --logbooks). A change
that does not parse is reported and the previous configuration stays
active. Reload events are printed as they happen.`,
		Example: `  # Watch a single file
  elogcfg watch --file elogd.cfg

  # Watch split files and serve Prometheus metrics
  elogcfg watch --global global.cfg --logbooks logbooks/ --metrics-addr :9090

  # Keep a history of reloads
  elogcfg watch --file elogd.cfg --journal reloads.db`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var src loader.Source
			switch {
			case file != "" && logbookDir != "":
				return fmt.Errorf("--file and --logbooks are mutually exclusive")
			case file != "":
				src = loader.FileSource{Path: file}
			case logbookDir != "":
				src = loader.DirSource{GlobalPath: globalPath, LogbookDir: logbookDir}
			default:
				return fmt.Errorf("one of --file or --logbooks is required")
			}

			settings, err := loadSettings()
			if err != nil {
				return err
			}
			if metricsAddr != "" {
				settings.Metrics.Enabled = true
				settings.Metrics.ListenAddress = metricsAddr
			}

			tel, err := telemetry.NewTelemetry(settings)
			if err != nil {
				return err
			}
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = tel.Shutdown(shutdownCtx)
			}()

			out := cmd.OutOrStdout()
			tel.Events.Subscribe(func(e telemetry.Event) {
				if jsonOutput {
					_ = writeJSON(out, e)
					return
				}
				fmt.Fprintf(out, "%s %-21s %s\n", e.Timestamp.Format(time.RFC3339), e.Type, e.Message)
			}, nil)

			if journalPath != "" {
				j, err := journal.Open(cmd.Context(), journal.Config{Path: journalPath})
				if err != nil {
					return err
				}
				defer j.Close()
				tel.Events.Subscribe(journal.Recorder(j, tel.Logger.Zerolog()), nil)
			}

			ctx := tel.WithContext(cmd.Context())
			if err := tel.Metrics.StartMetricsServer(ctx, func(err error) {
				tel.Logger.WithError(err).Error("Metrics server failed")
			}); err != nil {
				return err
			}

			store := loader.NewStore(tel, config.WithStrict(strict))
			if _, err := store.Reload(ctx, src); err != nil {
				return err
			}

			watcher := loader.NewWatcher(store, src, loader.WithReloadDelay(delay))
			if err := watcher.Watch(ctx); err != nil {
				return err
			}
			defer watcher.Stop()

			<-ctx.Done()
			tel.Logger.Info("Stopped watching configuration")
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "complete configuration file")
	cmd.Flags().StringVar(&globalPath, "global", "", "global settings file")
	cmd.Flags().StringVar(&logbookDir, "logbooks", "", "directory of <logbook>.cfg files")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	cmd.Flags().StringVar(&journalPath, "journal", "", "record reload events in this SQLite file")
	cmd.Flags().DurationVar(&delay, "delay", loader.DefaultReloadDelay, "wait for changes to settle before reloading")
	cmd.Flags().BoolVar(&strict, "strict", false, "reject configurations with invalid values")

	return cmd
}
