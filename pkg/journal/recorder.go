package journal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/flexelog/logbookcfg/pkg/telemetry"
)

// appendTimeout bounds one write made on behalf of an event subscriber.
const appendTimeout = 5 * time.Second

// FromEvent converts a telemetry event into a journal entry.
func FromEvent(e telemetry.Event) (*Entry, error) {
	entry := &Entry{
		EventID:   e.ID,
		Type:      e.Type,
		Level:     e.Level,
		Source:    e.Source,
		Message:   e.Message,
		Timestamp: e.Timestamp,
	}
	if e.SnapshotID != "" {
		id := e.SnapshotID
		entry.SnapshotID = &id
	}
	if len(e.Data) > 0 {
		data, err := json.Marshal(e.Data)
		if err != nil {
			return nil, err
		}
		details := string(data)
		entry.Details = &details
	}
	return entry, nil
}

// Recorder returns an event subscriber that appends every event to j.
// Failures are logged; they never block event delivery.
func Recorder(j Journal, logger zerolog.Logger) telemetry.EventSubscriber {
	logger = logger.With().Str("component", "reload-journal").Logger()

	return func(e telemetry.Event) {
		entry, err := FromEvent(e)
		if err != nil {
			logger.Warn().Err(err).Str("event_id", e.ID).Msg("Failed to encode event details")
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), appendTimeout)
		defer cancel()

		if err := j.Append(ctx, entry); err != nil {
			logger.Error().Err(err).Str("event_id", e.ID).Msg("Failed to record reload event")
			return
		}

		logger.Debug().
			Int64("entry_id", entry.ID).
			Str("type", entry.Type).
			Msg("Reload event recorded")
	}
}
