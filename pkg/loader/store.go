package loader

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/flexelog/logbookcfg/pkg/config"
	"github.com/flexelog/logbookcfg/pkg/telemetry"
)

// ErrNotLoaded is returned when no configuration has been loaded yet.
var ErrNotLoaded = errors.New("no configuration loaded")

// Snapshot is one successfully parsed configuration.
type Snapshot struct {
	ID       string
	Source   string
	LoadedAt time.Time
	Config   *config.Config
}

// Store holds the active configuration snapshot. Readers never block; a
// reload replaces the snapshot only when the new text parses.
type Store struct {
	current atomic.Pointer[Snapshot]
	reload  sync.Mutex

	tel    *telemetry.Telemetry
	logger zerolog.Logger
	opts   []config.Option
}

// NewStore creates an empty store. opts are passed to config.Parse on every
// reload. A nil tel disables instrumentation.
func NewStore(tel *telemetry.Telemetry, opts ...config.Option) *Store {
	if tel == nil {
		tel = telemetry.Nop()
	}
	return &Store{
		tel:    tel,
		logger: tel.Logger.Zerolog().With().Str("component", "config-store").Logger(),
		opts:   opts,
	}
}

// Current returns the active snapshot, or nil before the first load.
func (s *Store) Current() *Snapshot {
	return s.current.Load()
}

// Config returns the active configuration.
func (s *Store) Config() (*config.Config, error) {
	snap := s.current.Load()
	if snap == nil {
		return nil, ErrNotLoaded
	}
	return snap.Config, nil
}

// Reload reads src and, if it parses, makes it the active snapshot. On
// failure the previous snapshot stays active and the error is returned.
func (s *Store) Reload(ctx context.Context, src Source) (*Snapshot, error) {
	s.reload.Lock()
	defer s.reload.Unlock()

	ctx, span := s.tel.Tracer.StartReloadSpan(ctx, src.Name())
	defer span.End()
	timer := telemetry.NewTimer()

	snap, err := s.load(ctx, src)
	if err != nil {
		telemetry.RecordError(span, err)
		s.fail(src, err, timer.Duration())
		return nil, err
	}

	warnings := snap.Config.Warnings()
	span.SetAttributes(
		telemetry.AttrSnapshotID.String(snap.ID),
		telemetry.AttrSections.Int(len(snap.Config.Sections())),
		telemetry.AttrWarnings.Int(len(warnings)),
	)
	telemetry.RecordSuccess(span)

	s.current.Store(snap)

	duration := timer.Duration()
	s.tel.Metrics.RecordReload(telemetry.ReloadStatusSuccess, duration)
	s.tel.Metrics.SetConfigStats(len(snap.Config.Sections()), len(warnings))
	s.publish(s.tel.Events.PublishReloaded(src.Name(), snap.ID, len(snap.Config.Sections()), len(warnings), duration))
	for _, w := range warnings {
		s.publish(s.tel.Events.PublishWarning(src.Name(), snap.ID, w.String()))
	}

	s.logger.Info().
		Str("source", src.Name()).
		Str("snapshot_id", snap.ID).
		Int("sections", len(snap.Config.Sections())).
		Int("warnings", len(warnings)).
		Dur("duration", duration).
		Msg("Configuration loaded")

	return snap, nil
}

func (s *Store) load(ctx context.Context, src Source) (*Snapshot, error) {
	asm, err := src.Load(ctx)
	if err != nil {
		return nil, err
	}

	opts := append([]config.Option{config.WithLogger(s.logger)}, s.opts...)
	cfg, err := config.Parse(asm.Text, opts...)
	if err != nil {
		return nil, locate(asm, err)
	}

	return &Snapshot{
		ID:       uuid.New().String(),
		Source:   src.Name(),
		LoadedAt: time.Now(),
		Config:   cfg,
	}, nil
}

func (s *Store) fail(src Source, err error, duration time.Duration) {
	var active string
	if snap := s.current.Load(); snap != nil {
		active = snap.ID
	}

	class := "io"
	var cerr *config.Error
	if errors.As(err, &cerr) {
		class = string(cerr.Class)
	}

	s.tel.Metrics.RecordReload(telemetry.ReloadStatusFailed, duration)
	s.tel.Metrics.RecordError(class)
	s.publish(s.tel.Events.PublishReloadFailed(src.Name(), active, err))

	s.logger.Error().
		Err(err).
		Str("source", src.Name()).
		Str("active_snapshot_id", active).
		Msg("Configuration reload failed, keeping active snapshot")
}

func (s *Store) publish(err error) {
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to publish config event")
	}
}

// locate prefixes a line-numbered parse error with the file it came from.
func locate(asm *Assembly, err error) error {
	var cerr *config.Error
	if !errors.As(err, &cerr) || cerr.Line == 0 {
		return err
	}
	source, line := asm.Locate(cerr.Line)
	if source == "" {
		return err
	}
	if line == 0 {
		return fmt.Errorf("%s: %w", source, err)
	}
	return fmt.Errorf("%s line %d: %w", source, line, err)
}

