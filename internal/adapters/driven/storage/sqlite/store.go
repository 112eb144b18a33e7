// Package sqlite provides SQLite-backed persistence for token records
// and job events.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/jobtrail-labs/jobtrail/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/jobtrail-labs/jobtrail/internal/core/domain"
	"github.com/jobtrail-labs/jobtrail/internal/core/ports/driven"
)

// Store is a unified SQLite-based storage that provides access to the
// store interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.jobtrail/data/jobtrail.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".jobtrail", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "jobtrail.db")

	// WAL mode for better concurrency between request handlers.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// TokenStore returns a TokenStore interface backed by this store.
func (s *Store) TokenStore() driven.TokenStore {
	return &tokenStore{store: s}
}

// EventStore returns an EventStore interface backed by this store.
func (s *Store) EventStore() driven.EventStore {
	return &eventStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		version := migrationVersion(name)
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("applying migration %s: %w", name, err)
		}

		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// migrationVersion parses the numeric prefix of a migration filename,
// e.g. "0001_init.up.sql" -> 1.
func migrationVersion(name string) int {
	version := 0
	for _, r := range name {
		if r < '0' || r > '9' {
			break
		}
		version = version*10 + int(r-'0')
	}
	return version
}

// --- TokenStore ---

type tokenStore struct {
	store *Store
}

var _ driven.TokenStore = (*tokenStore)(nil)

// Get retrieves the token record for a user.
func (s *tokenStore) Get(ctx context.Context, userID string) (*domain.TokenRecord, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT user_id, account_email, access_token, refresh_token, expiry, updated_at
		FROM tokens WHERE user_id = ?
	`, userID)

	var rec domain.TokenRecord
	var expiry sql.NullTime

	if err := row.Scan(&rec.UserID, &rec.AccountEmail, &rec.AccessToken,
		&rec.RefreshToken, &expiry, &rec.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning token record: %w", err)
	}

	if expiry.Valid {
		rec.Expiry = expiry.Time
	}
	return &rec, nil
}

// Save stores or updates a token record.
func (s *tokenStore) Save(ctx context.Context, rec domain.TokenRecord) error {
	if rec.UserID == "" || rec.AccessToken == "" {
		return domain.ErrInvalidInput
	}

	var expiry any
	if !rec.Expiry.IsZero() {
		expiry = rec.Expiry
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO tokens
			(user_id, account_email, access_token, refresh_token, expiry, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			account_email = excluded.account_email,
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			expiry = excluded.expiry,
			updated_at = excluded.updated_at
	`, rec.UserID, rec.AccountEmail, rec.AccessToken, rec.RefreshToken, expiry, rec.UpdatedAt)

	if err != nil {
		return fmt.Errorf("saving token record: %w", err)
	}
	return nil
}

// Delete removes a user's token record.
func (s *tokenStore) Delete(ctx context.Context, userID string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM tokens WHERE user_id = ?", userID)
	if err != nil {
		return fmt.Errorf("deleting token record: %w", err)
	}
	return nil
}

// --- EventStore ---

type eventStore struct {
	store *Store
}

var _ driven.EventStore = (*eventStore)(nil)

// SaveEvents stores events; messages already imported for the user
// are skipped silently, keeping repeated scans idempotent.
func (s *eventStore) SaveEvents(ctx context.Context, events []domain.JobEvent) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, event := range events {
		if event.UserID == "" || event.MessageID == "" {
			return domain.ErrInvalidInput
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO job_events
				(id, user_id, message_id, category, confidence, company, role, received_at, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(user_id, message_id) DO NOTHING
		`, event.ID, event.UserID, event.MessageID, string(event.Category), event.Confidence,
			event.Company, event.Role, event.ReceivedAt, event.CreatedAt)
		if err != nil {
			return fmt.Errorf("saving job event: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing events: %w", err)
	}
	return nil
}

// ListByUser returns a user's events, newest first.
func (s *eventStore) ListByUser(ctx context.Context, userID string) ([]domain.JobEvent, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, user_id, message_id, category, confidence, company, role, received_at, created_at
		FROM job_events WHERE user_id = ?
		ORDER BY received_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("listing job events: %w", err)
	}
	defer rows.Close()

	var events []domain.JobEvent
	for rows.Next() {
		var event domain.JobEvent
		var category string
		var receivedAt, createdAt time.Time
		if err := rows.Scan(&event.ID, &event.UserID, &event.MessageID, &category,
			&event.Confidence, &event.Company, &event.Role, &receivedAt, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning job event: %w", err)
		}
		event.Category = domain.Category(category)
		event.ReceivedAt = receivedAt
		event.CreatedAt = createdAt
		events = append(events, event)
	}
	return events, rows.Err()
}

// KnownMessageIDs returns the imported message IDs for a user.
func (s *eventStore) KnownMessageIDs(ctx context.Context, userID string) (map[string]struct{}, error) {
	rows, err := s.store.db.QueryContext(ctx,
		"SELECT message_id FROM job_events WHERE user_id = ?", userID)
	if err != nil {
		return nil, fmt.Errorf("listing imported messages: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning message id: %w", err)
		}
		ids[id] = struct{}{}
	}
	return ids, rows.Err()
}
