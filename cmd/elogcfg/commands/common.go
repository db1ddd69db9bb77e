package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/flexelog/logbookcfg/pkg/config"
	"github.com/flexelog/logbookcfg/pkg/loader"
	"github.com/flexelog/logbookcfg/pkg/telemetry"
)

// loadSettings returns the telemetry settings from --config, or the
// defaults.
func loadSettings() (*telemetry.Config, error) {
	cfg := telemetry.DefaultConfig()
	if configPath != "" {
		var err error
		if cfg, err = telemetry.LoadConfig(configPath); err != nil {
			return nil, err
		}
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
	cfg.ServiceVersion = appVersion
	return cfg, nil
}

// newTelemetry sets up telemetry for a one-shot command. Events are
// delivered synchronously so nothing is lost when the command exits.
func newTelemetry() (*telemetry.Telemetry, error) {
	cfg, err := loadSettings()
	if err != nil {
		return nil, err
	}
	cfg.Events.EnableAsync = false
	cfg.Metrics.Enabled = false
	return telemetry.NewTelemetry(cfg)
}

// loadFile parses one configuration file.
func loadFile(ctx context.Context, tel *telemetry.Telemetry, path string, opts ...config.Option) (*loader.Snapshot, error) {
	store := loader.NewStore(tel, opts...)
	return store.Reload(ctx, loader.FileSource{Path: path})
}

// withConfig runs fn against the parsed configuration file.
func withConfig(cmd *cobra.Command, path string, strict bool, fn func(*telemetry.Telemetry, *config.Config) error) error {
	tel, err := newTelemetry()
	if err != nil {
		return err
	}
	defer tel.Shutdown(context.Background())

	snap, err := loadFile(cmd.Context(), tel, path, config.WithStrict(strict))
	if err != nil {
		return err
	}
	return fn(tel, snap.Config)
}

// parseValues turns repeated Attr=Value flags into entry values. Repeating
// an attribute adds a value.
func parseValues(pairs []string) (map[string][]string, error) {
	values := make(map[string][]string)
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid value %q, expected Attribute=Value", pair)
		}
		values[name] = append(values[name], value)
	}
	return values, nil
}

// newScope creates a scope with the given conditions, followed by those
// derived from values.
func newScope(cfg *config.Config, section string, conds []string, values map[string][]string) *config.Scope {
	scope := cfg.NewScope()
	for _, c := range conds {
		scope.AddCondition(c)
	}
	if len(values) > 0 {
		scope.DeriveConditionsFrom(section, values)
	}
	return scope
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
