package notify

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rcliao/memory-album/internal/model"
)

// Permission is the user's answer to the notification prompt.
type Permission string

const (
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
)

// LocalScheduler keeps reminders in a SQLite table and reports the ones
// that are due. It stands in for the device notification center.
type LocalScheduler struct {
	db     *sql.DB
	now    func() time.Time
	logger zerolog.Logger
}

// LocalOption configures a LocalScheduler.
type LocalOption func(*LocalScheduler)

// WithClock overrides the scheduler's time source.
func WithClock(now func() time.Time) LocalOption {
	return func(s *LocalScheduler) { s.now = now }
}

// WithLogger sets the scheduler's logger.
func WithLogger(l zerolog.Logger) LocalOption {
	return func(s *LocalScheduler) { s.logger = l }
}

// NewLocalScheduler creates the reminder tables in db if needed.
func NewLocalScheduler(db *sql.DB, opts ...LocalOption) (*LocalScheduler, error) {
	s := &LocalScheduler{db: db, now: time.Now, logger: log.Logger}
	for _, o := range opts {
		o(s)
	}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate reminders: %w", err)
	}
	return s, nil
}

func (s *LocalScheduler) migrate() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS reminders (
		handle     TEXT PRIMARY KEY,
		memory_id  TEXT NOT NULL,
		title      TEXT NOT NULL,
		body       TEXT NOT NULL,
		month      INTEGER NOT NULL,
		day        INTEGER NOT NULL,
		hour       INTEGER NOT NULL,
		minute     INTEGER NOT NULL,
		next_fire  TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_reminders_next_fire ON reminders(next_fire);

	CREATE TABLE IF NOT EXISTS reminder_settings (
		key        TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	`)
	return err
}

// Permission returns the stored permission, granted when never answered.
func (s *LocalScheduler) Permission(ctx context.Context) (Permission, error) {
	var v string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM reminder_settings WHERE key = 'permission'`).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return PermissionGranted, nil
	}
	if err != nil {
		return "", err
	}
	return Permission(v), nil
}

// SetPermission records the user's answer.
func (s *LocalScheduler) SetPermission(ctx context.Context, p Permission) error {
	if p != PermissionGranted && p != PermissionDenied {
		return fmt.Errorf("invalid permission %q", p)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reminder_settings (key, value, updated_at)
		VALUES ('permission', ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at`,
		string(p), s.now().UTC().Format(time.RFC3339))
	return err
}

// ScheduleYearly implements Scheduler.
func (s *LocalScheduler) ScheduleYearly(ctx context.Context, r Reminder) (string, error) {
	if err := r.validate(); err != nil {
		return "", err
	}
	perm, err := s.Permission(ctx)
	if err != nil {
		return "", fmt.Errorf("read permission: %w", err)
	}
	if perm != PermissionGranted {
		s.logger.Info().Str("memory_id", r.MemoryID).Msg("notification permission denied")
		return "", nil
	}

	now := s.now()
	next := model.NextOccurrence(r.Month, r.Day, r.Hour, r.Minute, now)
	handle := uuid.NewString()

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO reminders (handle, memory_id, title, body, month, day, hour, minute, next_fire, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		handle, r.MemoryID, r.Title, r.Body, int(r.Month), r.Day, r.Hour, r.Minute,
		next.UTC().Format(time.RFC3339), now.UTC().Format(time.RFC3339))
	if err != nil {
		return "", fmt.Errorf("insert reminder: %w", err)
	}

	s.logger.Debug().
		Str("handle", handle).
		Str("memory_id", r.MemoryID).
		Time("next_fire", next).
		Msg("reminder scheduled")
	return handle, nil
}

// Cancel implements Scheduler.
func (s *LocalScheduler) Cancel(ctx context.Context, handle string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM reminders WHERE handle = ?`, handle)
	if err != nil {
		return fmt.Errorf("delete reminder: %w", err)
	}
	return nil
}

// CancelAll removes every scheduled reminder, including ones no memory
// is bound to any more.
func (s *LocalScheduler) CancelAll(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM reminders`); err != nil {
		return fmt.Errorf("delete reminders: %w", err)
	}
	return nil
}

// ListScheduled implements Scheduler. Results are ordered by next fire time.
func (s *LocalScheduler) ListScheduled(ctx context.Context) ([]Scheduled, error) {
	return s.query(ctx, `SELECT handle, memory_id, title, body, month, day, hour, minute, next_fire
		FROM reminders ORDER BY next_fire, handle`)
}

// Due returns reminders whose fire time is at or before now and moves each
// of them on to its next yearly occurrence.
func (s *LocalScheduler) Due(ctx context.Context, now time.Time) ([]Scheduled, error) {
	due, err := s.query(ctx, `SELECT handle, memory_id, title, body, month, day, hour, minute, next_fire
		FROM reminders WHERE next_fire <= ? ORDER BY next_fire, handle`,
		now.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, err
	}

	for _, r := range due {
		// Strictly after now, so a reminder fires once per year.
		next := model.NextOccurrence(time.Month(r.Month), r.Day, r.Hour, r.Minute, now.Add(time.Nanosecond))
		if _, err := s.db.ExecContext(ctx,
			`UPDATE reminders SET next_fire = ? WHERE handle = ?`,
			next.UTC().Format(time.RFC3339), r.Handle); err != nil {
			return nil, fmt.Errorf("advance reminder: %w", err)
		}
	}
	return due, nil
}

func (s *LocalScheduler) query(ctx context.Context, q string, args ...interface{}) ([]Scheduled, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Scheduled
	for rows.Next() {
		var r Scheduled
		var next string
		if err := rows.Scan(&r.Handle, &r.MemoryID, &r.Title, &r.Body,
			&r.Month, &r.Day, &r.Hour, &r.Minute, &next); err != nil {
			return nil, err
		}
		t, err := time.Parse(time.RFC3339, next)
		if err != nil {
			return nil, fmt.Errorf("reminder %s: parse next fire: %w", r.Handle, err)
		}
		r.NextFire = t
		out = append(out, r)
	}
	return out, rows.Err()
}
