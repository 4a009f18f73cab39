package roadmap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"skillatlas/internal/apperr"
	"skillatlas/internal/ats"
	"skillatlas/internal/database"
)

type stubCompleter struct {
	text  string
	err   error
	calls int
}

func (s *stubCompleter) Name() string { return "stub" }

func (s *stubCompleter) Complete(_ context.Context, _ string) (string, error) {
	s.calls++
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

func seedResume(t *testing.T, db *gorm.DB, skills []string) *database.Resume {
	t.Helper()
	raw, err := json.Marshal(skills)
	if err != nil {
		t.Fatalf("marshal skills: %v", err)
	}
	resume := database.Resume{
		Version:         1,
		IsActive:        true,
		FileName:        "resume.pdf",
		OCRText:         "Frontend developer with solid HTML and CSS fundamentals and two shipped side projects.",
		Skills:          raw,
		ExperienceLevel: "Entry-level",
	}
	if err := db.Create(&resume).Error; err != nil {
		t.Fatalf("seed resume: %v", err)
	}
	return &resume
}

func newTestService(db *gorm.DB, refiner *stubCompleter) *Service {
	scorerStub := &stubCompleter{err: errors.New("scoring provider down")}
	return NewService(db, refiner, ats.NewScorer(scorerStub, nil), nil)
}

func TestGenerateOrUpdate_ResumeNotFound(t *testing.T) {
	svc := newTestService(newTestDB(t), &stubCompleter{err: errors.New("down")})

	_, err := svc.GenerateOrUpdate(context.Background(), GenerateInput{ResumeID: 999, TargetRole: "Frontend Developer"})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGenerateOrUpdate_MissingRole(t *testing.T) {
	db := newTestDB(t)
	resume := seedResume(t, db, []string{"html"})
	svc := newTestService(db, &stubCompleter{})

	_, err := svc.GenerateOrUpdate(context.Background(), GenerateInput{ResumeID: resume.ID})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestGenerateOrUpdate_FallsBackToBaseGaps(t *testing.T) {
	db := newTestDB(t)
	resume := seedResume(t, db, []string{"html", "css"})
	svc := newTestService(db, &stubCompleter{err: errors.New("all providers down")})

	path, err := svc.GenerateOrUpdate(context.Background(), GenerateInput{
		ResumeID:   resume.ID,
		TargetRole: "Frontend Developer",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	steps, err := DecodeSteps(path.Steps)
	if err != nil {
		t.Fatalf("decode steps: %v", err)
	}
	wantSkills := []string{"javascript", "react", "typescript", "next.js"}
	if len(steps) != len(wantSkills) {
		t.Fatalf("got %d steps: %+v", len(steps), steps)
	}
	for i, want := range wantSkills {
		if steps[i].Skill != want || steps[i].Order != i+1 || steps[i].Status != StatusNotStarted {
			t.Errorf("step[%d]: %+v", i, steps[i])
		}
	}
	if path.GrowthFactor != "High" {
		t.Errorf("growth factor: got %s", path.GrowthFactor)
	}
	if !strings.Contains(path.Insight, "Frontend Developer") {
		t.Errorf("insight should reference the role: %q", path.Insight)
	}

	history, err := DecodeScoreHistory(path.ScoreHistory)
	if err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(history) != 1 || history[0].Score != 0 {
		t.Fatalf("seeded history: %+v", history)
	}

	// Resume updated with role and the degraded ATS baseline.
	var reloaded database.Resume
	if err := db.First(&reloaded, resume.ID).Error; err != nil {
		t.Fatalf("reload resume: %v", err)
	}
	if reloaded.TargetRole != "Frontend Developer" {
		t.Errorf("target role: got %s", reloaded.TargetRole)
	}
	if reloaded.ATSScore != 70 {
		t.Errorf("ats score: got %d want 70", reloaded.ATSScore)
	}
}

const refinedResponse = `{
  "steps": [
    {"skill": "javascript", "level": "Beginner", "order": 2, "reason": "core language", "estimated_time": "3 weeks"},
    {"skill": "react", "level": "Intermediate", "order": 5},
    {"skill": "testing", "level": "Intermediate", "order": 9, "micro_topics": ["unit tests", "mocking"]}
  ],
  "insight": "Build fluency in the language before the framework.",
  "growth_factor": "Medium"
}`

func TestGenerateOrUpdate_UsesRefinedRoadmap(t *testing.T) {
	db := newTestDB(t)
	resume := seedResume(t, db, []string{"html", "css"})
	svc := newTestService(db, &stubCompleter{text: refinedResponse})

	path, err := svc.GenerateOrUpdate(context.Background(), GenerateInput{
		ResumeID:   resume.ID,
		TargetRole: "Frontend Developer",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	steps, err := DecodeSteps(path.Steps)
	if err != nil {
		t.Fatalf("decode steps: %v", err)
	}
	if len(steps) != 3 {
		t.Fatalf("got %d steps", len(steps))
	}
	// Provider order preserved, renumbered contiguously.
	for i, want := range []string{"javascript", "react", "testing"} {
		if steps[i].Skill != want || steps[i].Order != i+1 {
			t.Errorf("step[%d]: %+v", i, steps[i])
		}
		if steps[i].Status != StatusNotStarted {
			t.Errorf("step[%d] status: %s", i, steps[i].Status)
		}
	}
	if path.Insight != "Build fluency in the language before the framework." {
		t.Errorf("insight: %q", path.Insight)
	}
	if path.GrowthFactor != "Medium" {
		t.Errorf("growth factor: %s", path.GrowthFactor)
	}
}

func TestGenerateOrUpdate_Idempotent(t *testing.T) {
	db := newTestDB(t)
	resume := seedResume(t, db, []string{"html", "css"})
	svc := newTestService(db, &stubCompleter{err: errors.New("down")})

	in := GenerateInput{ResumeID: resume.ID, TargetRole: "Frontend Developer"}
	if _, err := svc.GenerateOrUpdate(context.Background(), in); err != nil {
		t.Fatalf("first call: %v", err)
	}
	second, err := svc.GenerateOrUpdate(context.Background(), in)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}

	var count int64
	if err := db.Unscoped().Model(&database.LearningPath{}).Where("resume_id = ?", resume.ID).Count(&count).Error; err != nil {
		t.Fatalf("count paths: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected exactly one path, got %d", count)
	}

	loaded, err := svc.GetByResumeID(context.Background(), resume.ID)
	if err != nil {
		t.Fatalf("reload path: %v", err)
	}
	if loaded.ID != second.ID {
		t.Fatalf("surviving path %d is not the second call's %d", loaded.ID, second.ID)
	}
}

func TestGenerateOrUpdate_RoundTripPreservesSteps(t *testing.T) {
	db := newTestDB(t)
	resume := seedResume(t, db, []string{})
	svc := newTestService(db, &stubCompleter{err: errors.New("down")})

	created, err := svc.GenerateOrUpdate(context.Background(), GenerateInput{
		ResumeID:   resume.ID,
		TargetRole: "DevOps Engineer",
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	loaded, err := svc.GetByResumeID(context.Background(), resume.ID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	createdSteps, _ := DecodeSteps(created.Steps)
	loadedSteps, err := DecodeSteps(loaded.Steps)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(loadedSteps) != len(createdSteps) {
		t.Fatalf("step count changed: %d vs %d", len(loadedSteps), len(createdSteps))
	}
	for i := range loadedSteps {
		if loadedSteps[i].Skill != createdSteps[i].Skill || loadedSteps[i].Order != createdSteps[i].Order {
			t.Errorf("step[%d] changed: %+v vs %+v", i, loadedSteps[i], createdSteps[i])
		}
		if loadedSteps[i].Status != StatusNotStarted {
			t.Errorf("step[%d] status: %s", i, loadedSteps[i].Status)
		}
	}
}
