package loader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/flexelog/logbookcfg/pkg/config"
	"github.com/flexelog/logbookcfg/pkg/telemetry"
)

func testTelemetry(t *testing.T) (*telemetry.Telemetry, *eventLog) {
	t.Helper()
	cfg := telemetry.DefaultConfig()
	cfg.Events.EnableAsync = false
	cfg.Metrics.Enabled = true
	cfg.Metrics.ListenAddress = ":0"

	tel, err := telemetry.NewTelemetryWithLogger(cfg, telemetry.NopLogger())
	if err != nil {
		t.Fatalf("NewTelemetryWithLogger() error = %v", err)
	}
	t.Cleanup(func() { _ = tel.Shutdown(context.Background()) })

	events := &eventLog{}
	tel.Events.Subscribe(events.record, nil)
	return tel, events
}

type eventLog struct {
	mu    sync.Mutex
	types []string
}

func (l *eventLog) record(e telemetry.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.types = append(l.types, e.Type)
}

func (l *eventLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.types...)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func TestAssemble(t *testing.T) {
	asm, err := Assemble("Charset = latin1", []LogbookText{
		{Name: "Travel", Text: "Attributes = Author\nAuthor = me\n"},
		{Name: "Empty"},
	})
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}

	want := "[global]\nCharset = latin1\n\n\n\n[Travel]\nAttributes = Author\nAuthor = me\n\n\n[Empty]\n\n"
	if diff := cmp.Diff(want, asm.Text); diff != "" {
		t.Errorf("Assemble() text mismatch (-want +got):\n%s", diff)
	}

	tests := []struct {
		line       int
		wantSource string
		wantLine   int
	}{
		{line: 1, wantSource: "global", wantLine: 0},
		{line: 2, wantSource: "global", wantLine: 1},
		{line: 6, wantSource: "Travel", wantLine: 0},
		{line: 7, wantSource: "Travel", wantLine: 1},
		{line: 8, wantSource: "Travel", wantLine: 2},
		{line: 11, wantSource: "Empty", wantLine: 0},
	}
	for _, tt := range tests {
		source, line := asm.Locate(tt.line)
		if source != tt.wantSource || line != tt.wantLine {
			t.Errorf("Locate(%d) = %s:%d, want %s:%d", tt.line, source, line, tt.wantSource, tt.wantLine)
		}
	}

	cfg, err := config.Parse(asm.Text)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if diff := cmp.Diff([]string{"Travel", "Empty"}, cfg.Logbooks()); diff != "" {
		t.Errorf("Logbooks() mismatch (-want +got):\n%s", diff)
	}
}

func TestAssemble_RejectsHeaders(t *testing.T) {
	if _, err := Assemble("[Other]\nA = 1\n", nil); err == nil {
		t.Error("expected error for header in global text")
	}
	if _, err := Assemble("", []LogbookText{{Name: "Demo", Text: "A = 1\n[Sneaky]\n"}}); err == nil {
		t.Error("expected error for header in logbook text")
	}
	if _, err := Assemble("", []LogbookText{{Name: "Bad]Name"}}); err == nil {
		t.Error("expected error for invalid logbook name")
	}
}

func TestDirSource_Load(t *testing.T) {
	tmpDir := t.TempDir()
	logbooks := filepath.Join(tmpDir, "logbooks")
	if err := os.Mkdir(logbooks, 0755); err != nil {
		t.Fatal(err)
	}
	global := filepath.Join(tmpDir, "global.cfg")

	writeFile(t, global, "Charset = latin1\n")
	writeFile(t, filepath.Join(logbooks, "Zeta.cfg"), "Attributes = A\n")
	writeFile(t, filepath.Join(logbooks, "Alpha.cfg"), "Attributes = B\n")
	writeFile(t, filepath.Join(logbooks, "notes.txt"), "ignored")

	src := DirSource{GlobalPath: global, LogbookDir: logbooks}
	asm, err := src.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	cfg, err := config.Parse(asm.Text)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if diff := cmp.Diff([]string{"Alpha", "Zeta"}, cfg.Logbooks()); diff != "" {
		t.Errorf("Logbooks() mismatch (-want +got):\n%s", diff)
	}

	if !src.Affects(global) || !src.Affects(filepath.Join(logbooks, "New.cfg")) {
		t.Error("expected global and logbook files to affect the source")
	}
	if src.Affects(filepath.Join(logbooks, "notes.txt")) {
		t.Error("expected other files to be ignored")
	}
}

func TestStore_Reload(t *testing.T) {
	tel, events := testTelemetry(t)
	store := NewStore(tel)

	if _, err := store.Config(); !errors.Is(err, ErrNotLoaded) {
		t.Fatalf("Config() error = %v, want ErrNotLoaded", err)
	}

	first, err := store.Reload(context.Background(), TextSource{Text: "[Demo]\nAttributes = Author\nColor = blue\n"})
	if err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if first.ID == "" || first.Config == nil {
		t.Fatal("expected a populated snapshot")
	}
	if store.Current() != first {
		t.Error("expected first snapshot to be active")
	}

	// A broken text leaves the first snapshot active.
	_, err = store.Reload(context.Background(), TextSource{Text: "[Demo]\nColor = blue\ncolor = red\n"})
	if !config.IsSyntax(err) {
		t.Fatalf("Reload() error = %v, want syntax error", err)
	}
	if store.Current() != first {
		t.Error("failed reload replaced the active snapshot")
	}

	second, err := store.Reload(context.Background(), TextSource{Text: "[Demo]\nColor = red\n"})
	if err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if second.ID == first.ID {
		t.Error("expected a new snapshot ID")
	}
	cfg, err := store.Config()
	if err != nil {
		t.Fatalf("Config() error = %v", err)
	}
	color, err := cfg.Get(config.NewConditions(), "Demo", "Color")
	if err != nil || color != "red" {
		t.Errorf("Get(Color) = %v, %v, want red", color, err)
	}

	want := []string{
		telemetry.EventTypeConfigReloaded,
		telemetry.EventTypeConfigReloadFailed,
		telemetry.EventTypeConfigReloaded,
	}
	if diff := cmp.Diff(want, events.snapshot()); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestStore_ReloadLocatesErrors(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, "Travel.cfg"), "Attributes = A\nA = 1\na = 2\n")

	store := NewStore(nil)
	_, err := store.Reload(context.Background(), DirSource{LogbookDir: tmpDir})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.HasPrefix(err.Error(), "Travel line 3:") {
		t.Errorf("error = %q, want it to point at Travel line 3", err)
	}
	if !config.IsSyntax(err) {
		t.Error("expected the syntax class to survive wrapping")
	}
}

func TestStore_ReloadMissingFile(t *testing.T) {
	store := NewStore(nil)
	_, err := store.Reload(context.Background(), FileSource{Path: filepath.Join(t.TempDir(), "missing.cfg")})
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Reload() error = %v, want not-exist", err)
	}
}

func TestStore_ReloadWarnings(t *testing.T) {
	tel, events := testTelemetry(t)
	store := NewStore(tel)

	snap, err := store.Reload(context.Background(), TextSource{Text: "[Group all]\nA = 1\n"})
	if err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if len(snap.Config.Warnings()) == 0 {
		t.Fatal("expected a warning for the group section")
	}

	got := events.snapshot()
	if got[0] != telemetry.EventTypeConfigReloaded || got[len(got)-1] != telemetry.EventTypeConfigWarning {
		t.Errorf("events = %v", got)
	}
}

func TestWatcher_ReloadsOnChange(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "elogd.cfg")
	writeFile(t, path, "[Demo]\nColor = blue\n")

	store := NewStore(nil)
	src := FileSource{Path: path}
	if _, err := store.Reload(context.Background(), src); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}

	type result struct {
		snap *Snapshot
		err  error
	}
	results := make(chan result, 8)
	watcher := NewWatcher(store, src,
		WithReloadDelay(100*time.Millisecond),
		OnReload(func(snap *Snapshot, err error) { results <- result{snap, err} }),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := watcher.Watch(ctx); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	defer watcher.Stop()

	// Unrelated files in the same directory are ignored.
	writeFile(t, filepath.Join(tmpDir, "other.txt"), "noise")
	writeFile(t, path, "[Demo]\nColor = red\n")

	var got result
	select {
	case got = <-results:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
	}
	if got.err != nil {
		t.Fatalf("reload error = %v", got.err)
	}

	color, _ := got.snap.Config.Get(config.NewConditions(), "Demo", "Color")
	if color != "red" {
		t.Errorf("Color = %v, want red", color)
	}
	if store.Current() != got.snap {
		t.Error("expected reloaded snapshot to be active")
	}

	// A broken edit keeps the reloaded snapshot.
	writeFile(t, path, "[Demo]\nColor = blue\ncolor = green\n")
	select {
	case got = <-results:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for failed reload")
	}
	if got.err == nil {
		t.Fatal("expected reload error")
	}
	color, _ = store.Current().Config.Get(config.NewConditions(), "Demo", "Color")
	if color != "red" {
		t.Errorf("Color after failed reload = %v, want red", color)
	}
}

func TestWatcher_NothingToWatch(t *testing.T) {
	watcher := NewWatcher(NewStore(nil), TextSource{Text: "[Demo]\n"})
	if err := watcher.Watch(context.Background()); err == nil {
		t.Error("expected error")
	}
}
