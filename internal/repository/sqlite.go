package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/xiaot623/medintake/internal/domain"
)

// SQLiteStore implements SessionStore, EventStore and artifact storage
// using SQLite.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

var (
	_ SessionStore = (*SQLiteStore)(nil)
	_ EventStore   = (*SQLiteStore)(nil)
)

// NewSQLiteStore creates a new SQLite store.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// For in-memory SQLite, multiple connections create separate databases.
	// Keep a single connection to avoid schema/data disappearing across goroutines.
	if dsn == ":memory:" || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	store := &SQLiteStore{db: db, now: time.Now}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// migrate runs database migrations.
func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			user_id TEXT PRIMARY KEY,
			stage TEXT NOT NULL,
			collected_info TEXT,
			draft_content TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (user_id, seq),
			FOREIGN KEY (user_id) REFERENCES sessions(user_id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS events (
			event_id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			ts INTEGER NOT NULL,
			type TEXT NOT NULL,
			payload TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_user ON events(user_id, ts)`,
		`CREATE TABLE IF NOT EXISTS artifacts (
			key TEXT PRIMARY KEY,
			content TEXT NOT NULL,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\n%s", err, m)
		}
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// GetOrCreateSession implements SessionStore.
func (s *SQLiteStore) GetOrCreateSession(ctx context.Context, userID string) (*domain.Session, bool, error) {
	fresh := domain.NewSession(userID, s.now())
	info, err := json.Marshal(fresh.CollectedInfo)
	if err != nil {
		return nil, false, fmt.Errorf("failed to marshal collected info: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO sessions (user_id, stage, collected_info, draft_content, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		userID, fresh.Stage, string(info), fresh.DraftContent, fresh.CreatedAt, fresh.UpdatedAt)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, false, err
	}

	sess, err := s.GetSession(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	return sess, n == 1, nil
}

// GetSession implements SessionStore.
func (s *SQLiteStore) GetSession(ctx context.Context, userID string) (*domain.Session, error) {
	var sess domain.Session
	var info sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, stage, collected_info, draft_content, created_at, updated_at FROM sessions WHERE user_id = ?`,
		userID).Scan(&sess.UserID, &sess.Stage, &info, &sess.DraftContent, &sess.CreatedAt, &sess.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}

	sess.CollectedInfo = domain.NewCollectedInfo()
	if info.Valid && info.String != "" {
		if err := json.Unmarshal([]byte(info.String), &sess.CollectedInfo); err != nil {
			return nil, fmt.Errorf("failed to unmarshal collected info: %w", err)
		}
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT role, content, created_at FROM messages WHERE user_id = ? ORDER BY seq ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sess.MessageHistory = []domain.Message{}
	for rows.Next() {
		var msg domain.Message
		if err := rows.Scan(&msg.Role, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, err
		}
		sess.MessageHistory = append(sess.MessageHistory, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &sess, nil
}

// SaveSession implements SessionStore. Messages are append-only: only the
// entries beyond those already stored are inserted.
func (s *SQLiteStore) SaveSession(ctx context.Context, sess *domain.Session) error {
	info, err := json.Marshal(sess.CollectedInfo)
	if err != nil {
		return fmt.Errorf("failed to marshal collected info: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := s.now()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO sessions (user_id, stage, collected_info, draft_content, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET stage = excluded.stage, collected_info = excluded.collected_info,
		 draft_content = excluded.draft_content, updated_at = excluded.updated_at`,
		sess.UserID, sess.Stage, string(info), sess.DraftContent, sess.CreatedAt, now)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	var stored int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM messages WHERE user_id = ?`, sess.UserID).Scan(&stored); err != nil {
		return err
	}
	if stored > len(sess.MessageHistory) {
		return fmt.Errorf("message history of %s shrank from %d to %d", sess.UserID, stored, len(sess.MessageHistory))
	}

	for i := stored; i < len(sess.MessageHistory); i++ {
		msg := sess.MessageHistory[i]
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO messages (user_id, seq, role, content, created_at) VALUES (?, ?, ?, ?, ?)`,
			sess.UserID, i, msg.Role, msg.Content, msg.CreatedAt); err != nil {
			return fmt.Errorf("failed to append message: %w", err)
		}
	}

	return tx.Commit()
}

// DeleteSession implements SessionStore.
func (s *SQLiteStore) DeleteSession(ctx context.Context, userID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE user_id = ?`, userID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = ?`, userID); err != nil {
		return err
	}
	return tx.Commit()
}

// CreateEvent implements EventStore.
func (s *SQLiteStore) CreateEvent(ctx context.Context, event *domain.Event) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO events (event_id, user_id, ts, type, payload) VALUES (?, ?, ?, ?, ?)`,
		event.EventID, event.UserID, event.Ts, event.Type, string(event.Payload))
	return err
}

// ListEvents implements EventStore.
func (s *SQLiteStore) ListEvents(ctx context.Context, userID string, limit int) ([]*domain.Event, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT event_id, user_id, ts, type, payload FROM events WHERE user_id = ? ORDER BY ts DESC, rowid DESC LIMIT ?`,
		userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*domain.Event
	for rows.Next() {
		var e domain.Event
		var payload sql.NullString
		if err := rows.Scan(&e.EventID, &e.UserID, &e.Ts, &e.Type, &payload); err != nil {
			return nil, err
		}
		if payload.Valid && payload.String != "" {
			e.Payload = json.RawMessage(payload.String)
		}
		events = append(events, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// oldest first
	for i, j := 0, len(events)-1; i < j; i, j = i+1, j-1 {
		events[i], events[j] = events[j], events[i]
	}
	return events, nil
}

// SaveArtifact stores content under key, replacing any previous value.
func (s *SQLiteStore) SaveArtifact(ctx context.Context, key, content string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO artifacts (key, content, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET content = excluded.content, updated_at = excluded.updated_at`,
		key, content, s.now())
	if err != nil {
		return fmt.Errorf("failed to save artifact %s: %w", key, err)
	}
	return nil
}

// LoadArtifact returns the content stored under key.
func (s *SQLiteStore) LoadArtifact(ctx context.Context, key string) (string, error) {
	var content string
	err := s.db.QueryRowContext(ctx, `SELECT content FROM artifacts WHERE key = ?`, key).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return "", domain.ErrArtifactNotFound
	}
	if err != nil {
		return "", err
	}
	return content, nil
}
