package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"sentinel/internal/store"
	"sentinel/pkg/models"
)

// Store implements the interaction store on a local SQLite database.
type Store struct {
	db *sql.DB
}

// New opens (and if needed creates) the database at path.
func New(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			user_id TEXT PRIMARY KEY,
			whitelist TEXT NOT NULL DEFAULT '[]',
			notify_to TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS interactions (
			user_id TEXT NOT NULL,
			interaction_id TEXT NOT NULL,
			body TEXT NOT NULL,
			updated_at INTEGER NOT NULL,
			PRIMARY KEY (user_id, interaction_id)
		)`,
		`CREATE TABLE IF NOT EXISTS alerts (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			alert_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			interaction_id TEXT NOT NULL,
			body TEXT NOT NULL,
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_user ON alerts(user_id, seq)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return &Store{db: db}, nil
}

// GetUser loads a user record.
func (s *Store) GetUser(ctx context.Context, userID string) (*models.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT whitelist, notify_to FROM users WHERE user_id = ?`, userID)

	var rawWhitelist string
	user := models.User{ID: userID}
	err := row.Scan(&rawWhitelist, &user.NotifyTo)
	if err == sql.ErrNoRows {
		return nil, store.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read user %s: %w", userID, err)
	}
	if err := json.Unmarshal([]byte(rawWhitelist), &user.Whitelist); err != nil {
		return nil, fmt.Errorf("decode whitelist for %s: %w", userID, err)
	}
	return &user, nil
}

// PutUser creates or replaces a user record.
func (s *Store) PutUser(ctx context.Context, user *models.User) error {
	wl := user.Whitelist
	if wl == nil {
		wl = []string{}
	}
	raw, err := json.Marshal(wl)
	if err != nil {
		return fmt.Errorf("encode whitelist: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO users (user_id, whitelist, notify_to) VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET whitelist = excluded.whitelist, notify_to = excluded.notify_to
	`, user.ID, string(raw), user.NotifyTo)
	if err != nil {
		return fmt.Errorf("write user %s: %w", user.ID, err)
	}
	return nil
}

// PutInteraction writes an interaction record, replacing any previous body.
func (s *Store) PutInteraction(ctx context.Context, interaction *models.Interaction) error {
	raw, err := json.Marshal(interaction)
	if err != nil {
		return fmt.Errorf("encode interaction: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO interactions (user_id, interaction_id, body, updated_at) VALUES (?, ?, ?, strftime('%s','now'))
		ON CONFLICT(user_id, interaction_id) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at
	`, interaction.UserID, interaction.ID, string(raw))
	if err != nil {
		return fmt.Errorf("write interaction %s/%s: %w", interaction.UserID, interaction.ID, err)
	}
	return nil
}

// WriteAlert appends an alert.
func (s *Store) WriteAlert(ctx context.Context, alert *models.Alert) error {
	raw, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("encode alert: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO alerts (alert_id, user_id, interaction_id, body, created_at) VALUES (?, ?, ?, ?, ?)
	`, alert.AlertID, alert.UserID, alert.InteractionID, string(raw), alert.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("append alert %s: %w", alert.AlertID, err)
	}
	return nil
}

// ListAlerts returns up to limit of the most recent alerts, oldest first.
func (s *Store) ListAlerts(ctx context.Context, userID string, limit int) ([]*models.Alert, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT body FROM (
			SELECT seq, body FROM alerts WHERE user_id = ? ORDER BY seq DESC LIMIT ?
		) ORDER BY seq ASC
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("read alerts for %s: %w", userID, err)
	}
	defer rows.Close()

	var out []*models.Alert
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		var a models.Alert
		if err := json.Unmarshal([]byte(body), &a); err != nil {
			continue
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}

// Close closes the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
