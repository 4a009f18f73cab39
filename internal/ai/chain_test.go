package ai

import (
	"context"
	"errors"
	"testing"
)

type stubProvider struct {
	name  string
	text  string
	err   error
	calls int
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Complete(_ context.Context, _ string) (string, error) {
	s.calls++
	return s.text, s.err
}

func TestChain_ShortCircuitsOnFirstSuccess(t *testing.T) {
	first := &stubProvider{name: "a", text: "hello"}
	second := &stubProvider{name: "b", text: "unused"}
	chain := NewChain(nil, first, second)

	got, err := chain.Complete(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "hello" {
		t.Fatalf("got %q", got)
	}
	if second.calls != 0 {
		t.Fatalf("second provider should not be called, got %d calls", second.calls)
	}
}

func TestChain_FallsThroughOnFailure(t *testing.T) {
	first := &stubProvider{name: "a", err: errors.New("rate limited")}
	second := &stubProvider{name: "b", text: "backup"}
	chain := NewChain(nil, first, second)

	got, err := chain.Complete(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "backup" {
		t.Fatalf("got %q", got)
	}
}

func TestChain_AllFailed(t *testing.T) {
	chain := NewChain(nil,
		&stubProvider{name: "a", err: errors.New("down")},
		&stubProvider{name: "b", err: errors.New("down too")},
	)

	if _, err := chain.Complete(context.Background(), "prompt"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestChain_Empty(t *testing.T) {
	chain := NewChain(nil, nil, nil)
	if _, err := chain.Complete(context.Background(), "prompt"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestExtractJSON(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
		ok   bool
	}{
		{"bare", `{"score": 80}`, `{"score": 80}`, true},
		{"fenced", "```json\n{\"score\": 80}\n```", `{"score": 80}`, true},
		{"prose wrapped", `Sure! Here is the result: {"score": 80} Hope that helps.`, `{"score": 80}`, true},
		{"no object", "I could not produce JSON.", "", false},
	}
	for _, tc := range cases {
		got, ok := ExtractJSON(tc.raw)
		if ok != tc.ok || got != tc.want {
			t.Errorf("%s: got (%q, %v) want (%q, %v)", tc.name, got, ok, tc.want, tc.ok)
		}
	}
}
