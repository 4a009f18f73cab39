package roadmap

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"

	"skillatlas/internal/apperr"
	"skillatlas/internal/database"
)

// UpdateProgress moves one step of a resume's learning path through the status
// state machine and maintains the daily score history: the first update of a UTC
// calendar day appends an entry, later updates the same day overwrite it.
func (s *Service) UpdateProgress(ctx context.Context, resumeID uint, skill, status string) (*database.LearningPath, error) {
	if !ValidStatus(status) {
		return nil, fmt.Errorf("%w: %q", apperr.ErrInvalidStatus, status)
	}

	path, err := s.GetByResumeID(ctx, resumeID)
	if err != nil {
		return nil, err
	}

	var steps []Step
	if err := json.Unmarshal(path.Steps, &steps); err != nil {
		return nil, fmt.Errorf("decode steps: %w", err)
	}

	now := time.Now().UTC()
	found := false
	for i := range steps {
		if strings.EqualFold(steps[i].Skill, skill) {
			steps[i].Status = status
			steps[i].UpdatedAt = now
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: step %q in path for resume %d", apperr.ErrNotFound, skill, resumeID)
	}

	var history []ScoreEntry
	if len(path.ScoreHistory) > 0 {
		if err := json.Unmarshal(path.ScoreHistory, &history); err != nil {
			return nil, fmt.Errorf("decode score history: %w", err)
		}
	}
	history = upsertDailyScore(history, CompletionScore(steps), now)

	path.Steps = encodeJSON(steps)
	path.ScoreHistory = encodeJSON(history)

	updates := map[string]any{
		"steps":         path.Steps,
		"score_history": path.ScoreHistory,
	}
	if err := s.db.WithContext(ctx).Model(&database.LearningPath{}).
		Where("id = ?", path.ID).
		Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("persist progress: %w", err)
	}

	return path, nil
}

// upsertDailyScore overwrites the entry matching now's UTC date, or appends one.
func upsertDailyScore(history []ScoreEntry, score int, now time.Time) []ScoreEntry {
	today := now.UTC().Format(time.DateOnly)
	for i := range history {
		if history[i].Date.UTC().Format(time.DateOnly) == today {
			history[i].Score = score
			history[i].Date = now
			return history
		}
	}
	return append(history, ScoreEntry{Score: score, Date: now})
}

// DecodeSteps unmarshals the JSONB step list for API responses.
func DecodeSteps(raw datatypes.JSON) ([]Step, error) {
	if len(raw) == 0 {
		return []Step{}, nil
	}
	var steps []Step
	if err := json.Unmarshal(raw, &steps); err != nil {
		return nil, fmt.Errorf("decode steps: %w", err)
	}
	return steps, nil
}

// DecodeScoreHistory unmarshals the JSONB score history for API responses.
func DecodeScoreHistory(raw datatypes.JSON) ([]ScoreEntry, error) {
	if len(raw) == 0 {
		return []ScoreEntry{}, nil
	}
	var history []ScoreEntry
	if err := json.Unmarshal(raw, &history); err != nil {
		return nil, fmt.Errorf("decode score history: %w", err)
	}
	return history, nil
}
