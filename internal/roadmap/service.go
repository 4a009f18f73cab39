package roadmap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"skillatlas/internal/ai"
	"skillatlas/internal/apperr"
	"skillatlas/internal/ats"
	"skillatlas/internal/database"
)

const (
	defaultExperienceLevel  = "Entry-level"
	defaultTimeAvailability = "10"
	defaultGrowthFactor     = "High"
)

// Service generates and maintains learning paths. A path is always produced for
// a valid resume and role, even under total AI unavailability: the rule-based
// base gaps are the floor.
type Service struct {
	db        *gorm.DB
	completer ai.Completer
	scorer    *ats.Scorer
	logger    *slog.Logger
}

// NewService wires the orchestrator.
func NewService(db *gorm.DB, completer ai.Completer, scorer *ats.Scorer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{db: db, completer: completer, scorer: scorer, logger: logger}
}

// GenerateInput are the orchestrator parameters. ExperienceLevel and
// TimeAvailability are optional; fallbacks come from the resume, then defaults.
type GenerateInput struct {
	ResumeID         uint
	TargetRole       string
	ExperienceLevel  string
	TimeAvailability string
}

// refinement is the roadmap produced either by the AI refiner or the local fallback.
type refinement struct {
	Steps        []Step
	Insight      string
	GrowthFactor string
}

// GenerateOrUpdate builds the learning path for a resume and replaces any prior
// path for the same resume (delete then insert), so regeneration is idempotent
// and duplicate paths never coexist.
func (s *Service) GenerateOrUpdate(ctx context.Context, in GenerateInput) (*database.LearningPath, error) {
	targetRole := strings.TrimSpace(in.TargetRole)
	if targetRole == "" {
		return nil, fmt.Errorf("%w: target role is required", apperr.ErrValidation)
	}

	var resume database.Resume
	if err := s.db.WithContext(ctx).First(&resume, in.ResumeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: resume %d", apperr.ErrNotFound, in.ResumeID)
		}
		return nil, fmt.Errorf("load resume: %w", err)
	}

	userSkills := decodeStrings(resume.Skills)
	gaps := BaseGaps(userSkills, targetRole)

	level := firstNonEmpty(in.ExperienceLevel, resume.ExperienceLevel, defaultExperienceLevel)
	timeAvailability := firstNonEmpty(in.TimeAvailability, resume.TimeAvailability, defaultTimeAvailability)

	refined, err := s.refineRoadmap(ctx, targetRole, level, timeAvailability, userSkills, gaps)
	if err != nil {
		// Hard requirement: AI failure never fails path generation.
		s.logger.Warn("roadmap refinement degraded to rule-based baseline",
			slog.String("target_role", targetRole),
			slog.Any("error", err),
		)
		refined = refinement{
			Steps:        gaps,
			Insight:      fmt.Sprintf("This roadmap covers the core skills required for a %s role, ordered from foundational to advanced.", targetRole),
			GrowthFactor: defaultGrowthFactor,
		}
	}

	// Re-score against the new role; the scorer degrades internally and never
	// blocks path creation.
	score := s.scorer.Score(ctx, resume.OCRText, targetRole)
	updates := map[string]any{
		"target_role":  targetRole,
		"ats_score":    score.Score,
		"ats_feedback": encodeJSON(score.Feedback),
	}
	if err := s.db.WithContext(ctx).Model(&resume).Updates(updates).Error; err != nil {
		s.logger.Warn("persist rescored resume failed", slog.Any("error", err))
	}

	now := time.Now().UTC()
	path := database.LearningPath{
		ResumeID:         resume.ID,
		TargetRole:       targetRole,
		ExperienceLevel:  level,
		TimeAvailability: timeAvailability,
		Steps:            encodeJSON(refined.Steps),
		Insight:          refined.Insight,
		GrowthFactor:     refined.GrowthFactor,
		ScoreHistory: encodeJSON([]ScoreEntry{
			{Score: CompletionScore(refined.Steps), Date: now},
		}),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("resume_id = ?", resume.ID).Delete(&database.LearningPath{}).Error; err != nil {
			return fmt.Errorf("delete prior path: %w", err)
		}
		if err := tx.Create(&path).Error; err != nil {
			return fmt.Errorf("create path: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &path, nil
}

// GetByResumeID loads the learning path for a resume.
func (s *Service) GetByResumeID(ctx context.Context, resumeID uint) (*database.LearningPath, error) {
	var path database.LearningPath
	if err := s.db.WithContext(ctx).Where("resume_id = ?", resumeID).First(&path).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: learning path for resume %d", apperr.ErrNotFound, resumeID)
		}
		return nil, fmt.Errorf("load learning path: %w", err)
	}
	return &path, nil
}

const refinePromptFormat = `You are a career mentor building a learning roadmap.

Target role: %s
Experience level: %s
Available study time: %s hours per week
Current skills: %s
Missing skills identified by rule-based analysis (use these as hints, reorder or extend as needed): %s

Produce an ordered roadmap from foundational to advanced topics. For every step include
a short reason, a realistic time estimate and two or three micro topics.

Return ONLY a JSON object with this exact structure, no markdown, no explanation:
{
  "steps": [
    {"skill": "<name>", "level": "<Beginner|Intermediate|Advanced>", "order": <int>,
     "reason": "<why>", "estimated_time": "<e.g. 2 weeks>",
     "micro_topics": ["<topic>"], "resources": ["<free resource>"]}
  ],
  "insight": "<2-3 sentence overall guidance>",
  "growth_factor": "<Low|Medium|High>"
}`

// refinedPayload mirrors the provider contract.
type refinedPayload struct {
	Steps []struct {
		Skill         string   `json:"skill"`
		Level         string   `json:"level"`
		Order         int      `json:"order"`
		Reason        string   `json:"reason"`
		EstimatedTime string   `json:"estimated_time"`
		MicroTopics   []string `json:"micro_topics"`
		Resources     []string `json:"resources"`
	} `json:"steps"`
	Insight      string `json:"insight"`
	GrowthFactor string `json:"growth_factor"`
}

func (s *Service) refineRoadmap(ctx context.Context, targetRole, level, timeAvailability string, userSkills []string, gaps []Step) (refinement, error) {
	hints := make([]string, 0, len(gaps))
	for _, g := range gaps {
		hints = append(hints, g.Skill)
	}

	prompt := fmt.Sprintf(refinePromptFormat,
		targetRole, level, timeAvailability,
		strings.Join(userSkills, ", "),
		strings.Join(hints, ", "),
	)

	raw, err := s.completer.Complete(ctx, prompt)
	if err != nil {
		return refinement{}, err
	}

	payload, ok := ai.ExtractJSON(raw)
	if !ok {
		return refinement{}, fmt.Errorf("no JSON object in roadmap response")
	}

	var parsed refinedPayload
	if err := json.Unmarshal([]byte(payload), &parsed); err != nil {
		return refinement{}, fmt.Errorf("decode roadmap response: %w", err)
	}
	if len(parsed.Steps) == 0 {
		return refinement{}, fmt.Errorf("roadmap response has no steps")
	}

	steps := make([]Step, 0, len(parsed.Steps))
	seen := make(map[string]struct{}, len(parsed.Steps))
	for _, p := range parsed.Steps {
		skill := strings.TrimSpace(p.Skill)
		if skill == "" {
			continue
		}
		if _, dup := seen[strings.ToLower(skill)]; dup {
			continue
		}
		seen[strings.ToLower(skill)] = struct{}{}
		steps = append(steps, Step{
			Skill:         skill,
			Level:         normalizeLevel(p.Level),
			Order:         p.Order,
			Status:        StatusNotStarted,
			Reason:        p.Reason,
			EstimatedTime: p.EstimatedTime,
			MicroTopics:   p.MicroTopics,
			Resources:     p.Resources,
		})
	}
	if len(steps) == 0 {
		return refinement{}, fmt.Errorf("roadmap response has no usable steps")
	}

	// Preserve the provider's priority, then renumber contiguously.
	sort.SliceStable(steps, func(i, j int) bool { return steps[i].Order < steps[j].Order })
	for i := range steps {
		steps[i].Order = i + 1
	}

	growth := strings.TrimSpace(parsed.GrowthFactor)
	if growth == "" {
		growth = defaultGrowthFactor
	}
	insight := strings.TrimSpace(parsed.Insight)
	if insight == "" {
		insight = fmt.Sprintf("Focus on the ordered steps below to close the gap to a %s role.", targetRole)
	}

	return refinement{Steps: steps, Insight: insight, GrowthFactor: growth}, nil
}

func normalizeLevel(level string) string {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "beginner":
		return LevelBeginner
	case "intermediate":
		return LevelIntermediate
	case "advanced":
		return LevelAdvanced
	}
	return LevelBeginner
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func decodeStrings(raw datatypes.JSON) []string {
	if len(raw) == 0 {
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

func encodeJSON(v any) datatypes.JSON {
	data, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON([]byte("null"))
	}
	return datatypes.JSON(data)
}
