package ats

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"
)

type stubCompleter struct {
	text   string
	err    error
	prompt string
}

func (s *stubCompleter) Name() string { return "stub" }

func (s *stubCompleter) Complete(_ context.Context, prompt string) (string, error) {
	s.prompt = prompt
	return s.text, s.err
}

const longResume = "Experienced software engineer with React, Node.js and PostgreSQL. " +
	"Led a team of four building a payments platform."

func TestScore_ShortTextSkipsProviders(t *testing.T) {
	stub := &stubCompleter{err: errors.New("must not be called")}
	scorer := NewScorer(stub, nil)

	result := scorer.Score(context.Background(), "too short", "Backend Developer")
	if result.Score != 50 {
		t.Fatalf("score: got %d want 50", result.Score)
	}
	if len(result.Feedback) == 0 {
		t.Fatal("expected guidance feedback")
	}
	if stub.prompt != "" {
		t.Fatal("provider should not be called for short input")
	}
}

func TestScore_ProvidersUnavailable(t *testing.T) {
	scorer := NewScorer(&stubCompleter{err: errors.New("all providers down")}, nil)

	result := scorer.Score(context.Background(), longResume, "Backend Developer")
	if result.Score != 70 {
		t.Fatalf("score: got %d want 70", result.Score)
	}
	if len(result.Feedback) != 1 {
		t.Fatalf("expected a single generic message, got %v", result.Feedback)
	}
}

func TestScore_ParsesWellFormedResponse(t *testing.T) {
	stub := &stubCompleter{text: `{"score": 84, "feedback": ["Add metrics", "Tighten summary"]}`}
	scorer := NewScorer(stub, nil)

	result := scorer.Score(context.Background(), longResume, "Backend Developer")
	if result.Score != 84 {
		t.Fatalf("score: got %d want 84", result.Score)
	}
	if len(result.Feedback) != 2 || result.Feedback[0] != "Add metrics" {
		t.Fatalf("feedback: got %v", result.Feedback)
	}
}

func TestScore_FencedAndProseWrapped(t *testing.T) {
	cases := []string{
		"```json\n{\"score\": 61, \"feedback\": [\"ok\"]}\n```",
		"Here is your evaluation: {\"score\": 61, \"feedback\": [\"ok\"]} Good luck!",
	}
	for _, raw := range cases {
		scorer := NewScorer(&stubCompleter{text: raw}, nil)
		result := scorer.Score(context.Background(), longResume, "Backend Developer")
		if result.Score != 61 {
			t.Errorf("raw %q: got score %d want 61", raw, result.Score)
		}
	}
}

func TestScore_MalformedResponseDefaults(t *testing.T) {
	scorer := NewScorer(&stubCompleter{text: "I cannot rate this resume."}, nil)

	result := scorer.Score(context.Background(), longResume, "Backend Developer")
	if result.Score != 75 {
		t.Fatalf("score: got %d want 75", result.Score)
	}
	if len(result.Feedback) != 1 {
		t.Fatalf("expected a single generic message, got %v", result.Feedback)
	}
}

func TestScore_CoercionDefaults(t *testing.T) {
	// Missing score, wrong feedback type.
	scorer := NewScorer(&stubCompleter{text: `{"feedback": "not a list"}`}, nil)
	result := scorer.Score(context.Background(), longResume, "Backend Developer")
	if result.Score != 75 {
		t.Errorf("missing score: got %d want 75", result.Score)
	}
	if len(result.Feedback) != 1 {
		t.Errorf("expected default feedback, got %v", result.Feedback)
	}

	// Score as a string still coerces.
	scorer = NewScorer(&stubCompleter{text: `{"score": "88", "feedback": ["fine"]}`}, nil)
	result = scorer.Score(context.Background(), longResume, "Backend Developer")
	if result.Score != 88 {
		t.Errorf("string score: got %d want 88", result.Score)
	}
}

func TestScore_PromptCapsResumeLength(t *testing.T) {
	stub := &stubCompleter{text: `{"score": 70, "feedback": ["ok"]}`}
	scorer := NewScorer(stub, nil)

	huge := strings.Repeat("skills and experience ", 1000)
	scorer.Score(context.Background(), huge, "Backend Developer")

	if len(stub.prompt) > maxPromptResume+500 {
		t.Fatalf("prompt not bounded: %d chars", len(stub.prompt))
	}
}

func TestScore_PromptCapKeepsRunesIntact(t *testing.T) {
	stub := &stubCompleter{text: `{"score": 70, "feedback": ["ok"]}`}
	scorer := NewScorer(stub, nil)

	// Each rune is 3 bytes, so the byte cap lands mid-rune unless the cut
	// backs up to a rune boundary.
	huge := strings.Repeat("経験豊富なソフトウェア開発者", 400)
	scorer.Score(context.Background(), huge, "Backend Developer")

	if stub.prompt == "" {
		t.Fatal("provider not called")
	}
	if !utf8.ValidString(stub.prompt) {
		t.Fatal("prompt contains a split multi-byte character")
	}
	if len(stub.prompt) > maxPromptResume+500 {
		t.Fatalf("prompt not bounded: %d bytes", len(stub.prompt))
	}
}
