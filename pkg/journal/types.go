package journal

import (
	"context"
	"time"
)

// Entry is one recorded reload event.
type Entry struct {
	ID         int64     `json:"id"`
	EventID    string    `json:"event_id"`
	Type       string    `json:"type"`
	Level      string    `json:"level"`
	Source     string    `json:"source"`
	SnapshotID *string   `json:"snapshot_id,omitempty"`
	Message    string    `json:"message"`
	Details    *string   `json:"details,omitempty"` // JSON blob
	Timestamp  time.Time `json:"timestamp"`
}

// Filter selects entries. Nil fields match everything.
type Filter struct {
	Type   *string
	Source *string
	Since  *time.Time
	Limit  int
	Offset int
}

// Journal defines the interface for reload history storage.
type Journal interface {
	Append(ctx context.Context, entry *Entry) error
	List(ctx context.Context, filter Filter) ([]*Entry, error)
	Prune(ctx context.Context, before time.Time) (int64, error)
	HealthCheck(ctx context.Context) error
	Close() error
}
