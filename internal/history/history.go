// Package history сохраняет переписку в локальный архив sqlite.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
	"voxtral/internal/conversation"
	"voxtral/internal/llm"
)

// Session запись о сессии с одной моделью.
type Session struct {
	ID           string
	ModelID      string
	StartedAt    time.Time
	UpdatedAt    time.Time
	LastUserText string
	Turns        int
}

// Store архив переписки.
type Store struct {
	db *sql.DB
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		model_id TEXT NOT NULL,
		started_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL,
		last_user_text TEXT NOT NULL DEFAULT ''
	);`,
	`CREATE TABLE IF NOT EXISTS messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		audio_path TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL,
		FOREIGN KEY(session_id) REFERENCES sessions(id) ON DELETE CASCADE
	);`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_updated_at ON sessions(updated_at DESC);`,
	`CREATE INDEX IF NOT EXISTS idx_messages_session_id ON messages(session_id, id);`,
}

// Open открывает или создаёт архив по пути path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// Одно соединение: sqlite не любит параллельную запись
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		_ = db.Close()
		return nil, err
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("схема архива: %w", err)
		}
	}

	return &Store{db: db}, nil
}

// Close закрывает архив.
func (s *Store) Close() error {
	return s.db.Close()
}

// StartSession создаёт сессию для загруженной модели.
func (s *Store) StartSession(modelID string, greeting conversation.Message) (string, error) {
	id := uuid.NewString()
	now := greeting.Timestamp.UnixMilli()

	tx, err := s.db.Begin()
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		"INSERT INTO sessions(id, model_id, started_at, updated_at) VALUES(?, ?, ?, ?)",
		id, modelID, now, now,
	); err != nil {
		return "", err
	}
	if err := insertMessage(tx, id, greeting); err != nil {
		return "", err
	}
	return id, tx.Commit()
}

// AppendTurn сохраняет пару реплик в одной транзакции.
func (s *Store) AppendTurn(sessionID string, user, assistant conversation.Message) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, m := range []conversation.Message{user, assistant} {
		if err := insertMessage(tx, sessionID, m); err != nil {
			return err
		}
	}
	if _, err := tx.Exec(
		"UPDATE sessions SET updated_at = ?, last_user_text = ? WHERE id = ?",
		assistant.Timestamp.UnixMilli(), user.Content, sessionID,
	); err != nil {
		return err
	}
	return tx.Commit()
}

func insertMessage(tx *sql.Tx, sessionID string, m conversation.Message) error {
	_, err := tx.Exec(
		"INSERT INTO messages(session_id, role, content, audio_path, created_at) VALUES(?, ?, ?, ?, ?)",
		sessionID, string(m.Role), m.Content, m.AudioPath, m.Timestamp.UnixMilli(),
	)
	return err
}

// Sessions возвращает последние сессии, новые первыми.
func (s *Store) Sessions(limit int) ([]Session, error) {
	rows, err := s.db.Query(`
		SELECT s.id, s.model_id, s.started_at, s.updated_at, s.last_user_text,
			(SELECT COUNT(*) FROM messages m WHERE m.session_id = s.id AND m.role = 'user')
		FROM sessions s
		ORDER BY s.updated_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Session, 0, limit)
	for rows.Next() {
		var it Session
		var started, updated int64
		if err := rows.Scan(&it.ID, &it.ModelID, &started, &updated, &it.LastUserText, &it.Turns); err != nil {
			return nil, err
		}
		it.StartedAt = time.UnixMilli(started)
		it.UpdatedAt = time.UnixMilli(updated)
		out = append(out, it)
	}
	return out, rows.Err()
}

// Messages возвращает переписку сессии по порядку.
func (s *Store) Messages(sessionID string) ([]conversation.Message, error) {
	rows, err := s.db.Query(
		"SELECT role, content, audio_path, created_at FROM messages WHERE session_id = ? ORDER BY id ASC",
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []conversation.Message
	for rows.Next() {
		var m conversation.Message
		var role string
		var created int64
		if err := rows.Scan(&role, &m.Content, &m.AudioPath, &created); err != nil {
			return nil, err
		}
		m.Role = llm.Role(role)
		m.Timestamp = time.UnixMilli(created)
		out = append(out, m)
	}
	return out, rows.Err()
}
