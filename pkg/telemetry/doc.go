// Package telemetry provides observability for loading and reloading logbook
// configurations.
//
// The package integrates structured logging (zerolog), tracing
// (OpenTelemetry), metrics (Prometheus) and a small event publisher.
//
// # Usage
//
// Initialize telemetry at startup, from defaults or a YAML file:
//
//	cfg, err := telemetry.LoadConfig("telemetry.yaml")
//	if err != nil {
//	    return err
//	}
//	tel, err := telemetry.NewTelemetry(cfg)
//	if err != nil {
//	    return err
//	}
//	defer tel.Shutdown(context.Background())
//
// The engine takes a plain zerolog.Logger:
//
//	cfg, err := config.Parse(text, config.WithLogger(tel.Logger.Zerolog()))
//
// # Metrics
//
//   - <namespace>_reloads_total{status}
//   - <namespace>_reload_duration_seconds{status}
//   - <namespace>_sections, <namespace>_parse_warnings
//   - <namespace>_last_reload_timestamp_seconds
//   - <namespace>_errors_by_class_total{class}
//   - <namespace>_entry_validations_total{logbook,result}
//
// # Events
//
// config.reloaded and config.reload_failed are published for every reload
// attempt, config.warning for each parse warning of a new snapshot.
// Subscribers are called in publication order from a single goroutine.
package telemetry
