package journal

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	// SQLite driver
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// MemoryPath opens a journal that lives only as long as the process.
const MemoryPath = ":memory:"

// SQLiteJournal implements Journal using SQLite
type SQLiteJournal struct {
	db  *sql.DB
	cfg Config
}

// Config holds SQLite journal configuration
type Config struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// NewSQLiteJournal creates a new SQLite journal instance
func NewSQLiteJournal(cfg Config) (*SQLiteJournal, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("journal path is required")
	}

	if cfg.MaxOpenConns == 0 {
		cfg.MaxOpenConns = 4
	}
	if cfg.MaxIdleConns == 0 {
		cfg.MaxIdleConns = 2
	}
	if cfg.ConnMaxLifetime == 0 {
		cfg.ConnMaxLifetime = 5 * time.Minute
	}
	// Every connection to :memory: is a separate database.
	if cfg.Path == MemoryPath {
		cfg.MaxOpenConns, cfg.MaxIdleConns, cfg.ConnMaxLifetime = 1, 1, 0
	}

	return &SQLiteJournal{cfg: cfg}, nil
}

// Open creates, initializes and migrates a journal.
func Open(ctx context.Context, cfg Config) (*SQLiteJournal, error) {
	j, err := NewSQLiteJournal(cfg)
	if err != nil {
		return nil, err
	}
	if err := j.Init(ctx); err != nil {
		return nil, err
	}
	if err := j.Migrate(ctx); err != nil {
		_ = j.Close()
		return nil, err
	}
	return j, nil
}

// Init opens the database connection and enables WAL mode.
func (j *SQLiteJournal) Init(ctx context.Context) error {
	dsn := j.cfg.Path
	if dsn != MemoryPath {
		dsn = fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)", j.cfg.Path)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}

	db.SetMaxOpenConns(j.cfg.MaxOpenConns)
	db.SetMaxIdleConns(j.cfg.MaxIdleConns)
	db.SetConnMaxLifetime(j.cfg.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping journal: %w", err)
	}

	j.db = db
	return nil
}

// Close closes the database connection
func (j *SQLiteJournal) Close() error {
	if j.db != nil {
		return j.db.Close()
	}
	return nil
}

// Migrate runs database migrations.
func (j *SQLiteJournal) Migrate(_ context.Context) error {
	if j.db == nil {
		return fmt.Errorf("journal not initialized")
	}

	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	driver, err := sqlite.WithInstance(j.db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to create database driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// Append records an entry and sets its ID.
func (j *SQLiteJournal) Append(ctx context.Context, entry *Entry) error {
	query := `
		INSERT INTO reload_events (event_id, type, level, source, snapshot_id, message, details, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := j.db.ExecContext(ctx, query,
		entry.EventID,
		entry.Type,
		entry.Level,
		entry.Source,
		entry.SnapshotID,
		entry.Message,
		entry.Details,
		entry.Timestamp.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to append journal entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get journal entry ID: %w", err)
	}

	entry.ID = id
	return nil
}

// List returns entries matching filter, newest first.
func (j *SQLiteJournal) List(ctx context.Context, filter Filter) ([]*Entry, error) {
	query := `
		SELECT id, event_id, type, level, source, snapshot_id, message, details, occurred_at
		FROM reload_events
		WHERE (? IS NULL OR type = ?)
		  AND (? IS NULL OR source = ?)
		  AND (? IS NULL OR occurred_at >= ?)
		ORDER BY occurred_at DESC, id DESC
		LIMIT ? OFFSET ?
	`

	var since *int64
	if filter.Since != nil {
		ns := filter.Since.UnixNano()
		since = &ns
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = -1
	}

	rows, err := j.db.QueryContext(ctx, query,
		filter.Type, filter.Type,
		filter.Source, filter.Source,
		since, since,
		limit, filter.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list journal entries: %w", err)
	}
	defer rows.Close()

	entries := []*Entry{}
	for rows.Next() {
		entry := &Entry{}
		var occurredAt int64
		err := rows.Scan(
			&entry.ID,
			&entry.EventID,
			&entry.Type,
			&entry.Level,
			&entry.Source,
			&entry.SnapshotID,
			&entry.Message,
			&entry.Details,
			&occurredAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan journal entry: %w", err)
		}
		entry.Timestamp = time.Unix(0, occurredAt)
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating journal entries: %w", err)
	}

	return entries, nil
}

// Prune deletes entries recorded before the given time.
func (j *SQLiteJournal) Prune(ctx context.Context, before time.Time) (int64, error) {
	result, err := j.db.ExecContext(ctx, `DELETE FROM reload_events WHERE occurred_at < ?`, before.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("failed to prune journal: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows, nil
}

// HealthCheck verifies the database connection is healthy
func (j *SQLiteJournal) HealthCheck(ctx context.Context) error {
	if j.db == nil {
		return fmt.Errorf("journal not initialized")
	}

	return j.db.PingContext(ctx)
}
