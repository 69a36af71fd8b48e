package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"ripwatch/internal/config"
)

// Store persists rip session history in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Open connects to the history database under the configured state
// directory, creating it on first use.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.DatabasePath())
}

// OpenPath opens or creates a history database at an explicit path.
func OpenPath(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Create inserts a new session record and fills in its row id.
func (s *Store) Create(ctx context.Context, rec *Record) error {
	if rec.SessionID == "" {
		return errors.New("history: session id required")
	}
	if rec.Device == "" {
		return errors.New("history: device required")
	}
	now := time.Now().UTC()
	if rec.StartedAt.IsZero() {
		rec.StartedAt = now
	}
	rec.UpdatedAt = now

	res, err := s.execWithRetry(ctx,
		`INSERT INTO rip_sessions (
            session_id, device, disc_label, fingerprint, title, verdict,
            episode_count, state, error_message, attempts, ejected,
            output_files_json, started_at, updated_at, finished_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.SessionID,
		rec.Device,
		nullableString(rec.DiscLabel),
		nullableString(rec.Fingerprint),
		nullableString(rec.Title),
		nullableString(rec.Verdict),
		rec.EpisodeCount,
		rec.State,
		nullableString(rec.ErrorMessage),
		rec.Attempts,
		boolToInt(rec.Ejected),
		nullableString(encodeFiles(rec.OutputFiles)),
		rec.StartedAt.Format(time.RFC3339Nano),
		rec.UpdatedAt.Format(time.RFC3339Nano),
		nullableTime(rec.FinishedAt),
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("session row id: %w", err)
	}
	rec.ID = id
	return nil
}

// Update rewrites the mutable fields of an existing record.
func (s *Store) Update(ctx context.Context, rec *Record) error {
	if rec.ID == 0 {
		return errors.New("history: record has no id")
	}
	rec.UpdatedAt = time.Now().UTC()

	res, err := s.execWithRetry(ctx,
		`UPDATE rip_sessions SET
            disc_label = ?, fingerprint = ?, title = ?, verdict = ?,
            episode_count = ?, state = ?, error_message = ?, attempts = ?,
            ejected = ?, output_files_json = ?, updated_at = ?, finished_at = ?
        WHERE id = ?`,
		nullableString(rec.DiscLabel),
		nullableString(rec.Fingerprint),
		nullableString(rec.Title),
		nullableString(rec.Verdict),
		rec.EpisodeCount,
		rec.State,
		nullableString(rec.ErrorMessage),
		rec.Attempts,
		boolToInt(rec.Ejected),
		nullableString(encodeFiles(rec.OutputFiles)),
		rec.UpdatedAt.Format(time.RFC3339Nano),
		nullableTime(rec.FinishedAt),
		rec.ID,
	)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update session rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("history: no session with id %d", rec.ID)
	}
	return nil
}

// GetBySession returns the record for a session id, or nil when none
// exists.
func (s *Store) GetBySession(ctx context.Context, sessionID string) (*Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM rip_sessions WHERE session_id = ?`, sessionID)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return rec, nil
}

// FindCompletedByFingerprint returns the most recent successful rip of
// the given disc, or nil when the disc has never completed.
func (s *Store) FindCompletedByFingerprint(ctx context.Context, fingerprint string) (*Record, error) {
	fingerprint = strings.TrimSpace(fingerprint)
	if fingerprint == "" {
		return nil, nil
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM rip_sessions
         WHERE fingerprint = ? AND state = ?
         ORDER BY id DESC LIMIT 1`,
		fingerprint, StateCompleted)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find by fingerprint: %w", err)
	}
	return rec, nil
}

// Recent lists the newest sessions first, up to limit.
func (s *Store) Recent(ctx context.Context, limit int) ([]*Record, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM rip_sessions ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Stats counts sessions grouped by state.
func (s *Store) Stats(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT state, COUNT(1) FROM rip_sessions GROUP BY state`)
	if err != nil {
		return nil, fmt.Errorf("session stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]int)
	for rows.Next() {
		var state string
		var count int
		if err := rows.Scan(&state, &count); err != nil {
			return nil, err
		}
		stats[state] = count
	}
	return stats, rows.Err()
}

// FailInterrupted marks every non-terminal session as failed. The
// daemon calls this on startup so sessions orphaned by a crash or
// shutdown do not linger as in-progress forever.
func (s *Store) FailInterrupted(ctx context.Context, reason string) (int64, error) {
	if reason == "" {
		reason = InterruptedReason
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.execWithRetry(ctx,
		`UPDATE rip_sessions
         SET state = ?, error_message = ?, updated_at = ?, finished_at = ?
         WHERE state NOT IN (?, ?)`,
		StateFailed, reason, now, now, StateCompleted, StateFailed)
	if err != nil {
		return 0, fmt.Errorf("fail interrupted sessions: %w", err)
	}
	return res.RowsAffected()
}

// Prune removes terminal sessions that finished before the cutoff.
func (s *Store) Prune(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := s.execWithRetry(ctx,
		`DELETE FROM rip_sessions
         WHERE state IN (?, ?) AND finished_at IS NOT NULL AND finished_at < ?`,
		StateCompleted, StateFailed, olderThan.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return 0, fmt.Errorf("prune sessions: %w", err)
	}
	return res.RowsAffected()
}

// Clear removes every session record.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM rip_sessions`)
	if err != nil {
		return 0, fmt.Errorf("clear history: %w", err)
	}
	return res.RowsAffected()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error) {
	var (
		res     sql.Result
		execErr error
	)
	if err := retryOnBusy(ctx, func() error {
		res, execErr = s.db.ExecContext(ctx, query, args...)
		return execErr
	}); err != nil {
		return nil, err
	}
	return res, nil
}

const recordColumns = "id, session_id, device, disc_label, fingerprint, title, verdict, episode_count, state, error_message, attempts, ejected, output_files_json, started_at, updated_at, finished_at"

func scanRecord(scanner interface{ Scan(dest ...any) error }) (*Record, error) {
	var (
		id           int64
		sessionID    string
		device       string
		discLabel    sql.NullString
		fingerprint  sql.NullString
		title        sql.NullString
		verdict      sql.NullString
		episodeCount sql.NullInt64
		state        string
		errorMessage sql.NullString
		attempts     sql.NullInt64
		ejected      sql.NullInt64
		filesJSON    sql.NullString
		startedRaw   sql.NullString
		updatedRaw   sql.NullString
		finishedRaw  sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&sessionID,
		&device,
		&discLabel,
		&fingerprint,
		&title,
		&verdict,
		&episodeCount,
		&state,
		&errorMessage,
		&attempts,
		&ejected,
		&filesJSON,
		&startedRaw,
		&updatedRaw,
		&finishedRaw,
	); err != nil {
		return nil, err
	}

	rec := &Record{
		ID:           id,
		SessionID:    sessionID,
		Device:       device,
		DiscLabel:    discLabel.String,
		Fingerprint:  fingerprint.String,
		Title:        title.String,
		Verdict:      verdict.String,
		EpisodeCount: int(episodeCount.Int64),
		State:        state,
		ErrorMessage: errorMessage.String,
		Attempts:     int(attempts.Int64),
		Ejected:      ejected.Int64 != 0,
		OutputFiles:  decodeFiles(filesJSON.String),
	}
	if started, err := parseTimeString(startedRaw.String); err == nil {
		rec.StartedAt = started
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		rec.UpdatedAt = updated
	}
	if finishedRaw.Valid {
		if finished, err := parseTimeString(finishedRaw.String); err == nil {
			rec.FinishedAt = &finished
		}
	}
	return rec, nil
}

func encodeFiles(files []string) string {
	if len(files) == 0 {
		return ""
	}
	data, err := json.Marshal(files)
	if err != nil {
		return ""
	}
	return string(data)
}

func decodeFiles(raw string) []string {
	if raw == "" {
		return nil
	}
	var files []string
	if err := json.Unmarshal([]byte(raw), &files); err != nil {
		return nil
	}
	return files
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.UTC().Format(time.RFC3339Nano)
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
