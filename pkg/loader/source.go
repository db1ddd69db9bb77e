package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// LogbookExt is the file extension of logbook configuration files.
const LogbookExt = ".cfg"

// Source produces configuration text.
type Source interface {
	// Name identifies the source in logs, events and errors.
	Name() string

	// Load reads the current configuration text.
	Load(ctx context.Context) (*Assembly, error)

	// WatchDirs lists the directories whose changes may affect the source.
	WatchDirs() []string

	// Affects reports whether a change to path may alter the configuration.
	Affects(path string) bool
}

// TextSource is configuration text held in memory.
type TextSource struct {
	Label string
	Text  string
}

// Name implements Source.
func (s TextSource) Name() string {
	if s.Label == "" {
		return "text"
	}
	return s.Label
}

// Load implements Source.
func (s TextSource) Load(ctx context.Context) (*Assembly, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return single(s.Name(), s.Text), nil
}

// WatchDirs implements Source.
func (s TextSource) WatchDirs() []string { return nil }

// Affects implements Source.
func (s TextSource) Affects(string) bool { return false }

// FileSource is one complete configuration file.
type FileSource struct {
	Path string
}

// Name implements Source.
func (s FileSource) Name() string { return s.Path }

// Load implements Source.
func (s FileSource) Load(ctx context.Context) (*Assembly, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return single(s.Path, string(data)), nil
}

// WatchDirs implements Source.
func (s FileSource) WatchDirs() []string {
	return []string{filepath.Dir(s.Path)}
}

// Affects implements Source.
func (s FileSource) Affects(path string) bool {
	return filepath.Clean(path) == filepath.Clean(s.Path)
}

// DirSource assembles the global settings file with one file per logbook.
// The logbook name is the file name without its extension.
type DirSource struct {
	GlobalPath string
	LogbookDir string
}

// Name implements Source.
func (s DirSource) Name() string { return s.LogbookDir }

// Load implements Source.
func (s DirSource) Load(ctx context.Context) (*Assembly, error) {
	var global string
	if s.GlobalPath != "" {
		data, err := os.ReadFile(s.GlobalPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read global config: %w", err)
		}
		global = string(data)
	}

	entries, err := os.ReadDir(s.LogbookDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read logbook directory: %w", err)
	}

	var logbooks []LogbookText
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path := filepath.Join(s.LogbookDir, entry.Name())
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), LogbookExt) || s.isGlobal(path) {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read logbook config %s: %w", path, err)
		}
		logbooks = append(logbooks, LogbookText{
			Name: strings.TrimSuffix(entry.Name(), LogbookExt),
			Text: string(data),
		})
	}
	sort.Slice(logbooks, func(i, j int) bool { return logbooks[i].Name < logbooks[j].Name })

	return Assemble(global, logbooks)
}

// WatchDirs implements Source.
func (s DirSource) WatchDirs() []string {
	dirs := []string{filepath.Clean(s.LogbookDir)}
	if s.GlobalPath != "" {
		if dir := filepath.Dir(s.GlobalPath); dir != dirs[0] {
			dirs = append(dirs, dir)
		}
	}
	return dirs
}

// Affects implements Source.
func (s DirSource) Affects(path string) bool {
	if s.isGlobal(path) {
		return true
	}
	return filepath.Dir(filepath.Clean(path)) == filepath.Clean(s.LogbookDir) &&
		strings.HasSuffix(path, LogbookExt)
}

func (s DirSource) isGlobal(path string) bool {
	return s.GlobalPath != "" && filepath.Clean(path) == filepath.Clean(s.GlobalPath)
}
