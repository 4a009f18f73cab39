package ats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"skillatlas/internal/ai"
)

// Result is a 0-100 compatibility score with actionable feedback.
type Result struct {
	Score    int      `json:"score"`
	Feedback []string `json:"feedback"`
}

// Defaults for the degradation ladder. The scorer never fails its caller: every
// failure path lands on one of these.
const (
	scoreTooShort    = 50
	scoreUnavailable = 70
	scoreMalformed   = 75

	minResumeChars  = 50
	maxPromptResume = 8000
)

type parseOutcome int

const (
	parseOK parseOutcome = iota
	parseMalformed
)

// Scorer computes ATS compatibility via the completion chain.
type Scorer struct {
	completer ai.Completer
	logger    *slog.Logger
}

// NewScorer wires the scorer to a completion provider (usually the chain).
func NewScorer(completer ai.Completer, logger *slog.Logger) *Scorer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scorer{completer: completer, logger: logger}
}

const scorePromptFormat = `You are an ATS (Applicant Tracking System) evaluating a resume for the role of %q.

RESUME TEXT:
%s

Score the resume from 0 to 100 for ATS compatibility with the target role, considering
keyword coverage, clear section structure, quantified achievements and formatting.

Return ONLY a JSON object with this exact structure, no markdown, no explanation:
{"score": <integer 0-100>, "feedback": ["<tip 1>", "<tip 2>", "<tip 3>"]}`

// Score evaluates resumeText against targetRole. It never returns an error:
// short input, provider unavailability and malformed responses each degrade to a
// documented default so a single bad AI reply can never fail an upload.
func (s *Scorer) Score(ctx context.Context, resumeText, targetRole string) Result {
	text := strings.TrimSpace(resumeText)
	if len(text) < minResumeChars {
		return Result{
			Score: scoreTooShort,
			Feedback: []string{
				"The resume text is too short to evaluate. Add your work experience, projects and skills.",
			},
		}
	}

	if len(text) > maxPromptResume {
		// Cut on a rune boundary so the cap never splits a multi-byte character.
		cut := maxPromptResume
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut]
	}
	prompt := fmt.Sprintf(scorePromptFormat, targetRole, text)

	raw, err := s.completer.Complete(ctx, prompt)
	if err != nil {
		s.logger.Warn("ats scoring degraded: providers unavailable", slog.Any("error", err))
		return Result{
			Score:    scoreUnavailable,
			Feedback: []string{"Automatic scoring is temporarily unavailable; a neutral baseline score was applied."},
		}
	}

	result, outcome := parseScorePayload(raw)
	if outcome == parseMalformed {
		s.logger.Warn("ats scoring degraded: malformed provider response",
			slog.String("raw_prefix", prefix(raw, 120)))
	}
	return result
}

// scorePayload mirrors the provider contract with loose types so partially
// well-formed replies can still be coerced.
type scorePayload struct {
	Score    any `json:"score"`
	Feedback any `json:"feedback"`
}

func parseScorePayload(raw string) (Result, parseOutcome) {
	malformed := Result{
		Score:    scoreMalformed,
		Feedback: []string{"Your resume was analyzed successfully. Keep refining keyword coverage for the target role."},
	}

	payload, ok := ai.ExtractJSON(raw)
	if !ok {
		return malformed, parseMalformed
	}

	var parsed scorePayload
	if err := json.Unmarshal([]byte(payload), &parsed); err != nil {
		return malformed, parseMalformed
	}

	result := Result{Score: scoreMalformed, Feedback: malformed.Feedback}
	switch v := parsed.Score.(type) {
	case float64:
		result.Score = clampScore(int(v))
	case string:
		var n float64
		if _, err := fmt.Sscanf(strings.TrimSpace(v), "%f", &n); err == nil {
			result.Score = clampScore(int(n))
		}
	}

	if items, ok := parsed.Feedback.([]any); ok {
		feedback := make([]string, 0, len(items))
		for _, item := range items {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				feedback = append(feedback, s)
			}
		}
		if len(feedback) > 0 {
			result.Feedback = feedback
		}
	}

	return result, parseOK
}

func clampScore(n int) int {
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}

func prefix(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
