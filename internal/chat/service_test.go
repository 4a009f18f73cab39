package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"skillatlas/internal/apperr"
	"skillatlas/internal/database"
)

type stubCompleter struct {
	text    string
	err     error
	prompts []string
}

func (s *stubCompleter) Name() string { return "stub" }

func (s *stubCompleter) Complete(_ context.Context, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	return s.text, s.err
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestSend_AppendsTwoRecordsPerTurn(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, &stubCompleter{text: "Start with flexbox, then grid."}, nil)

	reply, err := svc.Send(context.Background(), SendInput{
		UserID:     1,
		Message:    "How should I learn CSS layout?",
		Skill:      "CSS",
		TargetRole: "Frontend Developer",
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if reply.Role != RoleAI || reply.Message != "Start with flexbox, then grid." {
		t.Fatalf("reply: %+v", reply)
	}

	history, err := svc.History(context.Background(), 1, "css")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("got %d records", len(history))
	}
	if history[0].Role != RoleUser || history[1].Role != RoleAI {
		t.Fatalf("roles: %s, %s", history[0].Role, history[1].Role)
	}
	// Skill is stored lowercased so later filters match regardless of input case.
	if history[0].ContextSkill != "css" {
		t.Errorf("context skill: %q", history[0].ContextSkill)
	}
}

func TestSend_DegradesWhenProvidersDown(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, &stubCompleter{err: errors.New("all providers down")}, nil)

	reply, err := svc.Send(context.Background(), SendInput{UserID: 2, Message: "hello"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if reply.Message != unavailableReply {
		t.Fatalf("reply: %q", reply.Message)
	}

	history, err := svc.History(context.Background(), 2, "")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("degraded turn must still append both records, got %d", len(history))
	}
}

func TestSend_Validation(t *testing.T) {
	svc := NewService(newTestDB(t), &stubCompleter{}, nil)

	if _, err := svc.Send(context.Background(), SendInput{UserID: 1, Message: "   "}); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("blank message: %v", err)
	}
	if _, err := svc.Send(context.Background(), SendInput{Message: "hi"}); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("missing user: %v", err)
	}
}

func TestHistory_GeneralBucketEquivalence(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, &stubCompleter{text: "ok"}, nil)

	if _, err := svc.Send(context.Background(), SendInput{UserID: 3, Message: "general question"}); err != nil {
		t.Fatalf("send general: %v", err)
	}
	if _, err := svc.Send(context.Background(), SendInput{UserID: 3, Message: "react question", Skill: "react"}); err != nil {
		t.Fatalf("send react: %v", err)
	}

	// "", "general" and whitespace name the same bucket.
	for _, filter := range []string{"", "general", "  General  "} {
		history, err := svc.History(context.Background(), 3, filter)
		if err != nil {
			t.Fatalf("history %q: %v", filter, err)
		}
		if len(history) != 2 {
			t.Fatalf("filter %q: got %d records", filter, len(history))
		}
		if history[0].Message != "general question" {
			t.Errorf("filter %q: first message %q", filter, history[0].Message)
		}
	}

	reactHistory, err := svc.History(context.Background(), 3, "React")
	if err != nil {
		t.Fatalf("history react: %v", err)
	}
	if len(reactHistory) != 2 || reactHistory[0].Message != "react question" {
		t.Fatalf("react bucket: %+v", reactHistory)
	}
}

func TestSend_PromptCarriesBucketHistory(t *testing.T) {
	db := newTestDB(t)
	stub := &stubCompleter{text: "ok"}
	svc := NewService(db, stub, nil)

	if _, err := svc.Send(context.Background(), SendInput{UserID: 4, Message: "first turn", Skill: "go"}); err != nil {
		t.Fatalf("first send: %v", err)
	}
	if _, err := svc.Send(context.Background(), SendInput{UserID: 4, Message: "unrelated", Skill: "sql"}); err != nil {
		t.Fatalf("other bucket send: %v", err)
	}
	if _, err := svc.Send(context.Background(), SendInput{UserID: 4, Message: "second turn", Skill: "go"}); err != nil {
		t.Fatalf("second send: %v", err)
	}

	last := stub.prompts[len(stub.prompts)-1]
	if !strings.Contains(last, "first turn") {
		t.Errorf("prompt misses same-bucket history: %q", last)
	}
	if strings.Contains(last, "unrelated") {
		t.Errorf("prompt leaks another bucket: %q", last)
	}
}
