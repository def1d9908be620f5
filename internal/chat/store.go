package chat

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/guardpost/guardpost/internal/db"
)

// ErrSessionNotFound is returned for an unknown chat session or one that
// belongs to another visitor.
var ErrSessionNotFound = errors.New("chat session not found")

// Roles of transcript messages.
const (
	RoleVisitor   = "visitor"
	RoleAssistant = "assistant"
)

// Message is one transcript line.
type Message struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Topic     string    `json:"topic,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists chat transcripts in SQLite.
type Store struct {
	db *db.DB
}

func NewStore(d *db.DB) *Store {
	return &Store{db: d}
}

// CreateSession starts a transcript owned by visitorID.
func (s *Store) CreateSession(ctx context.Context, visitorID string) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_sessions (id, visitor_id) VALUES (?, ?)`, id, visitorID)
	if err != nil {
		return "", fmt.Errorf("creating chat session: %w", err)
	}
	return id, nil
}

// CheckOwner returns ErrSessionNotFound unless sessionID exists and belongs
// to visitorID.
func (s *Store) CheckOwner(ctx context.Context, sessionID, visitorID string) error {
	var owner string
	err := s.db.QueryRowContext(ctx,
		`SELECT visitor_id FROM chat_sessions WHERE id = ?`, sessionID).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrSessionNotFound
	}
	if err != nil {
		return fmt.Errorf("loading chat session: %w", err)
	}
	if owner != visitorID {
		return ErrSessionNotFound
	}
	return nil
}

// Append adds a message to a transcript.
func (s *Store) Append(ctx context.Context, sessionID, role, content, topic string) (*Message, error) {
	now := time.Now().UTC()
	m := &Message{
		ID:        ulid.Make().String(),
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		Topic:     topic,
		CreatedAt: now,
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_messages (id, session_id, role, content, topic, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		m.ID, m.SessionID, m.Role, m.Content, m.Topic, now.Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("appending chat message: %w", err)
	}
	if _, err := s.db.ExecContext(ctx,
		`UPDATE chat_sessions SET updated_at = datetime('now') WHERE id = ?`, sessionID); err != nil {
		return nil, fmt.Errorf("touching chat session: %w", err)
	}
	return m, nil
}

// Messages returns a transcript oldest first.
func (s *Store) Messages(ctx context.Context, sessionID string) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, role, content, topic, created_at FROM chat_messages WHERE session_id = ? ORDER BY id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("listing chat messages: %w", err)
	}
	defer rows.Close()

	msgs := []Message{}
	for rows.Next() {
		var m Message
		var created string
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Content, &m.Topic, &created); err != nil {
			return nil, fmt.Errorf("scanning chat message: %w", err)
		}
		m.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}
