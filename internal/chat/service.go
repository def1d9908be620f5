package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/guardpost/guardpost/internal/metrics"
)

// MaxMessageLength caps a visitor message, in characters.
const MaxMessageLength = 2000

var (
	ErrEmptyMessage   = errors.New("message content is required")
	ErrMessageTooLong = fmt.Errorf("message is longer than %d characters", MaxMessageLength)
)

// Exchange is the result of answering one visitor message.
type Exchange struct {
	SessionID string `json:"session_id"`
	Content   string `json:"content"`
	Topic     string `json:"topic"`
}

// Service answers chat messages and keeps the transcript.
type Service struct {
	store     *Store
	responder *Responder
	metrics   *metrics.Collector
	logger    *zap.Logger
}

func NewService(store *Store, responder *Responder, m *metrics.Collector, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if responder == nil {
		responder = NewResponder(nil)
	}
	return &Service{store: store, responder: responder, metrics: m, logger: logger}
}

// Handle records the visitor's message, picks a reply and records it. An
// empty sessionID starts a new transcript for visitorID.
func (s *Service) Handle(ctx context.Context, visitorID, sessionID, content string) (*Exchange, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyMessage
	}
	if utf8.RuneCountInString(content) > MaxMessageLength {
		return nil, ErrMessageTooLong
	}

	if sessionID == "" {
		id, err := s.store.CreateSession(ctx, visitorID)
		if err != nil {
			return nil, err
		}
		sessionID = id
	} else if err := s.store.CheckOwner(ctx, sessionID, visitorID); err != nil {
		return nil, err
	}

	if _, err := s.store.Append(ctx, sessionID, RoleVisitor, content, ""); err != nil {
		return nil, err
	}

	reply, topic := s.responder.Reply(content)
	if _, err := s.store.Append(ctx, sessionID, RoleAssistant, reply, topic); err != nil {
		return nil, err
	}
	s.metrics.CountChat(topic)
	s.logger.Debug("chat reply", zap.String("session_id", sessionID), zap.String("topic", topic))

	return &Exchange{SessionID: sessionID, Content: reply, Topic: topic}, nil
}

// Transcript returns the messages of a session owned by visitorID.
func (s *Service) Transcript(ctx context.Context, visitorID, sessionID string) ([]Message, error) {
	if err := s.store.CheckOwner(ctx, sessionID, visitorID); err != nil {
		return nil, err
	}
	return s.store.Messages(ctx, sessionID)
}
