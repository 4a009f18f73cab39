package roadmap

import (
	"context"
	"errors"
	"testing"
	"time"

	"skillatlas/internal/apperr"
)

func newPathForProgress(t *testing.T, svc *Service, resumeID uint) {
	t.Helper()
	if _, err := svc.GenerateOrUpdate(context.Background(), GenerateInput{
		ResumeID:   resumeID,
		TargetRole: "Frontend Developer",
	}); err != nil {
		t.Fatalf("generate path: %v", err)
	}
}

func TestUpdateProgress_InvalidStatus(t *testing.T) {
	db := newTestDB(t)
	resume := seedResume(t, db, []string{"html", "css"})
	svc := newTestService(db, &stubCompleter{err: errors.New("down")})
	newPathForProgress(t, svc, resume.ID)

	_, err := svc.UpdateProgress(context.Background(), resume.ID, "javascript", "DONE")
	if !errors.Is(err, apperr.ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}

	// No mutation happened.
	path, err := svc.GetByResumeID(context.Background(), resume.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	steps, _ := DecodeSteps(path.Steps)
	for _, s := range steps {
		if s.Status != StatusNotStarted {
			t.Fatalf("step mutated: %+v", s)
		}
	}
}

func TestUpdateProgress_UnknownSkill(t *testing.T) {
	db := newTestDB(t)
	resume := seedResume(t, db, []string{"html", "css"})
	svc := newTestService(db, &stubCompleter{err: errors.New("down")})
	newPathForProgress(t, svc, resume.ID)

	_, err := svc.UpdateProgress(context.Background(), resume.ID, "cobol", StatusCompleted)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateProgress_NoPath(t *testing.T) {
	db := newTestDB(t)
	resume := seedResume(t, db, nil)
	svc := newTestService(db, &stubCompleter{err: errors.New("down")})

	_, err := svc.UpdateProgress(context.Background(), resume.ID, "javascript", StatusCompleted)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateProgress_ScoreAndSameDayUpsert(t *testing.T) {
	db := newTestDB(t)
	resume := seedResume(t, db, []string{"html", "css"})
	svc := newTestService(db, &stubCompleter{err: errors.New("down")})
	newPathForProgress(t, svc, resume.ID)

	// Four gap steps; completing one is round(100/4) = 25.
	if _, err := svc.UpdateProgress(context.Background(), resume.ID, "javascript", StatusCompleted); err != nil {
		t.Fatalf("first update: %v", err)
	}
	// Second update the same day must overwrite, not append.
	if _, err := svc.UpdateProgress(context.Background(), resume.ID, "react", StatusCompleted); err != nil {
		t.Fatalf("second update: %v", err)
	}

	path, err := svc.GetByResumeID(context.Background(), resume.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}

	history, err := DecodeScoreHistory(path.ScoreHistory)
	if err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("expected exactly one entry for today, got %d: %+v", len(history), history)
	}
	if history[0].Score != 50 {
		t.Fatalf("history score: got %d want 50", history[0].Score)
	}

	steps, _ := DecodeSteps(path.Steps)
	var completed int
	for _, s := range steps {
		if s.Status == StatusCompleted {
			completed++
			if s.UpdatedAt.IsZero() {
				t.Errorf("completed step %s has zero UpdatedAt", s.Skill)
			}
		}
	}
	if completed != 2 {
		t.Fatalf("completed steps: got %d want 2", completed)
	}
}

func TestUpsertDailyScore(t *testing.T) {
	now := time.Date(2024, 5, 20, 10, 0, 0, 0, time.UTC)
	yesterday := now.AddDate(0, 0, -1)

	history := []ScoreEntry{{Score: 10, Date: yesterday}}

	history = upsertDailyScore(history, 25, now)
	if len(history) != 2 {
		t.Fatalf("expected append for a new day, got %+v", history)
	}

	later := now.Add(6 * time.Hour)
	history = upsertDailyScore(history, 50, later)
	if len(history) != 2 {
		t.Fatalf("expected same-day overwrite, got %+v", history)
	}
	if history[1].Score != 50 {
		t.Fatalf("overwritten score: got %d want 50", history[1].Score)
	}
	if history[0].Score != 10 {
		t.Fatalf("prior day entry touched: %+v", history[0])
	}
}
