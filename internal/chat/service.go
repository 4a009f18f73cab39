package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"gorm.io/gorm"

	"skillatlas/internal/ai"
	"skillatlas/internal/apperr"
	"skillatlas/internal/database"
)

// Message roles in the conversation log.
const (
	RoleUser = "user"
	RoleAI   = "ai"
)

// historyWindow bounds how many prior turns feed the prompt.
const historyWindow = 10

const unavailableReply = "The assistant is temporarily unavailable. Your message was saved; please try again in a moment."

// Service is the chat assistant. Every turn appends exactly two records to the
// per-user log: the user message and the reply. The log is never mutated.
type Service struct {
	db        *gorm.DB
	completer ai.Completer
	logger    *slog.Logger
}

func NewService(db *gorm.DB, completer ai.Completer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{db: db, completer: completer, logger: logger}
}

// SendInput is one user turn. Skill and TargetRole scope the conversation; an
// empty skill lands in the "general" bucket.
type SendInput struct {
	UserID     uint
	Message    string
	Skill      string
	TargetRole string
}

// Send runs one chat turn. Provider failure degrades to a canned reply so the
// two-records-per-turn shape of the log holds even when every provider is down.
func (s *Service) Send(ctx context.Context, in SendInput) (*database.ChatMessage, error) {
	message := strings.TrimSpace(in.Message)
	if message == "" {
		return nil, fmt.Errorf("%w: message is required", apperr.ErrValidation)
	}
	if in.UserID == 0 {
		return nil, fmt.Errorf("%w: user id is required", apperr.ErrValidation)
	}
	skill := NormalizeSkill(in.Skill)
	role := strings.TrimSpace(in.TargetRole)

	history, err := s.recent(ctx, in.UserID, skill)
	if err != nil {
		return nil, err
	}

	replyText, err := s.completer.Complete(ctx, buildPrompt(skill, role, history, message))
	if err != nil {
		s.logger.Warn("chat degraded: providers unavailable",
			slog.Uint64("user_id", uint64(in.UserID)),
			slog.Any("error", err),
		)
		replyText = unavailableReply
	}
	replyText = strings.TrimSpace(replyText)
	if replyText == "" {
		replyText = unavailableReply
	}

	userMsg := database.ChatMessage{
		UserID:       in.UserID,
		Role:         RoleUser,
		Message:      message,
		ContextSkill: skill,
		ContextRole:  role,
	}
	reply := database.ChatMessage{
		UserID:       in.UserID,
		Role:         RoleAI,
		Message:      replyText,
		ContextSkill: skill,
		ContextRole:  role,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&userMsg).Error; err != nil {
			return fmt.Errorf("append user message: %w", err)
		}
		if err := tx.Create(&reply).Error; err != nil {
			return fmt.Errorf("append reply: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &reply, nil
}

// History returns the user's log for one skill bucket, oldest first. An empty
// or "general" skill selects the general bucket.
func (s *Service) History(ctx context.Context, userID uint, skill string) ([]database.ChatMessage, error) {
	var messages []database.ChatMessage
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND context_skill = ?", userID, NormalizeSkill(skill)).
		Order("id ASC").
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("load chat history: %w", err)
	}
	return messages, nil
}

// NormalizeSkill maps a skill filter to its bucket key. Empty, whitespace and
// the literal "general" are the same bucket, stored as the empty string.
func NormalizeSkill(skill string) string {
	skill = strings.ToLower(strings.TrimSpace(skill))
	if skill == "general" {
		return ""
	}
	return skill
}

func (s *Service) recent(ctx context.Context, userID uint, skill string) ([]database.ChatMessage, error) {
	var messages []database.ChatMessage
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND context_skill = ?", userID, skill).
		Order("id DESC").
		Limit(historyWindow).
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("load recent turns: %w", err)
	}
	// Newest-first query, oldest-first prompt.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

func buildPrompt(skill, targetRole string, history []database.ChatMessage, message string) string {
	var sb strings.Builder
	sb.WriteString("You are a concise career mentor for software developers.\n")
	if targetRole != "" {
		fmt.Fprintf(&sb, "The user is working toward a %s role.\n", targetRole)
	}
	if skill != "" {
		fmt.Fprintf(&sb, "The conversation is about learning %s.\n", skill)
	}
	if len(history) > 0 {
		sb.WriteString("\nConversation so far:\n")
		for _, m := range history {
			fmt.Fprintf(&sb, "%s: %s\n", m.Role, m.Message)
		}
	}
	sb.WriteString("\nuser: ")
	sb.WriteString(message)
	sb.WriteString("\nReply helpfully in a few short paragraphs, plain text only.")
	return sb.String()
}
