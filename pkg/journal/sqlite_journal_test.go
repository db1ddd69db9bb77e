package journal

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/flexelog/logbookcfg/pkg/telemetry"
)

// setupTestJournal creates a file-backed journal for testing
func setupTestJournal(t *testing.T) *SQLiteJournal {
	t.Helper()

	j, err := Open(context.Background(), Config{
		Path: filepath.Join(t.TempDir(), "journal.db"),
	})
	if err != nil {
		t.Fatalf("failed to open journal: %v", err)
	}
	t.Cleanup(func() { _ = j.Close() })

	return j
}

func strPtr(s string) *string { return &s }

func TestJournalLifecycle(t *testing.T) {
	if _, err := NewSQLiteJournal(Config{}); err == nil {
		t.Error("expected error for empty path")
	}

	j, err := NewSQLiteJournal(Config{Path: MemoryPath})
	if err != nil {
		t.Fatalf("failed to create journal: %v", err)
	}

	ctx := context.Background()
	if err := j.HealthCheck(ctx); err == nil {
		t.Error("expected health check to fail before Init")
	}
	if err := j.Migrate(ctx); err == nil {
		t.Error("expected migrate to fail before Init")
	}

	if err := j.Init(ctx); err != nil {
		t.Fatalf("failed to initialize journal: %v", err)
	}
	if err := j.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate journal: %v", err)
	}
	// Running migrations twice is a no-op.
	if err := j.Migrate(ctx); err != nil {
		t.Fatalf("second migration failed: %v", err)
	}
	if err := j.HealthCheck(ctx); err != nil {
		t.Errorf("health check failed: %v", err)
	}
	if err := j.Close(); err != nil {
		t.Errorf("failed to close journal: %v", err)
	}
}

func TestJournalAppendList(t *testing.T) {
	j := setupTestJournal(t)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	entries := []*Entry{
		{EventID: "e1", Type: telemetry.EventTypeConfigReloaded, Level: "info", Source: "elogd.cfg", SnapshotID: strPtr("s1"), Message: "loaded", Timestamp: base},
		{EventID: "e2", Type: telemetry.EventTypeConfigReloadFailed, Level: "error", Source: "elogd.cfg", SnapshotID: strPtr("s1"), Message: "failed", Timestamp: base.Add(time.Minute)},
		{EventID: "e3", Type: telemetry.EventTypeConfigReloaded, Level: "info", Source: "logbooks", Message: "loaded", Details: strPtr(`{"sections":2}`), Timestamp: base.Add(2 * time.Minute)},
	}
	for _, e := range entries {
		if err := j.Append(ctx, e); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
		if e.ID == 0 {
			t.Error("expected ID to be set")
		}
	}

	if err := j.Append(ctx, &Entry{EventID: "e1", Type: "x", Level: "info", Source: "s", Timestamp: base}); err == nil {
		t.Error("expected error for duplicate event ID")
	}

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{name: "all newest first", filter: Filter{}, want: []string{"e3", "e2", "e1"}},
		{name: "by type", filter: Filter{Type: strPtr(telemetry.EventTypeConfigReloaded)}, want: []string{"e3", "e1"}},
		{name: "by source", filter: Filter{Source: strPtr("elogd.cfg")}, want: []string{"e2", "e1"}},
		{name: "since", filter: Filter{Since: func() *time.Time { ts := base.Add(time.Minute); return &ts }()}, want: []string{"e3", "e2"}},
		{name: "paged", filter: Filter{Limit: 1, Offset: 1}, want: []string{"e2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := j.List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("List() returned %d entries, want %d", len(got), len(tt.want))
			}
			for i, e := range got {
				if e.EventID != tt.want[i] {
					t.Errorf("entry %d = %s, want %s", i, e.EventID, tt.want[i])
				}
			}
		})
	}

	got, _ := j.List(ctx, Filter{Limit: 1})
	if !got[0].Timestamp.Equal(base.Add(2*time.Minute)) {
		t.Errorf("Timestamp = %v", got[0].Timestamp)
	}
	if got[0].SnapshotID != nil || got[0].Details == nil || *got[0].Details != `{"sections":2}` {
		t.Errorf("unexpected optional fields: %+v", got[0])
	}
}

func TestJournalPrune(t *testing.T) {
	j := setupTestJournal(t)
	ctx := context.Background()

	now := time.Now()
	for i, age := range []time.Duration{48 * time.Hour, 25 * time.Hour, time.Hour} {
		e := &Entry{
			EventID:   string(rune('a' + i)),
			Type:      telemetry.EventTypeConfigReloaded,
			Level:     "info",
			Source:    "elogd.cfg",
			Message:   "loaded",
			Timestamp: now.Add(-age),
		}
		if err := j.Append(ctx, e); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	n, err := j.Prune(ctx, now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if n != 2 {
		t.Errorf("Prune() removed %d entries, want 2", n)
	}

	left, _ := j.List(ctx, Filter{})
	if len(left) != 1 || left[0].EventID != "c" {
		t.Errorf("remaining entries = %+v", left)
	}
}

func TestRecorder(t *testing.T) {
	j := setupTestJournal(t)

	ep, err := telemetry.NewEventPublisher(telemetry.EventsConfig{Enabled: true})
	if err != nil {
		t.Fatalf("NewEventPublisher() error = %v", err)
	}
	ep.Subscribe(Recorder(j, zerolog.New(nil).Level(zerolog.Disabled)), nil)

	_ = ep.PublishReloaded("elogd.cfg", "snap-1", 3, 1, 10*time.Millisecond)
	_ = ep.PublishReloadFailed("elogd.cfg", "snap-1", errors.New("line 4: duplicate key"))

	got, err := j.List(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("recorded %d entries, want 2", len(got))
	}

	types := map[string]*Entry{}
	for _, e := range got {
		types[e.Type] = e
	}
	reloaded := types[telemetry.EventTypeConfigReloaded]
	if reloaded == nil || reloaded.Details == nil || reloaded.SnapshotID == nil || *reloaded.SnapshotID != "snap-1" {
		t.Errorf("unexpected reloaded entry: %+v", reloaded)
	}
	if failed := types[telemetry.EventTypeConfigReloadFailed]; failed == nil || failed.Level != telemetry.EventLevelError {
		t.Errorf("unexpected failed entry: %+v", failed)
	}
}
