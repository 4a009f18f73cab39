package intake

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"skillatlas/internal/analyzer"
	"skillatlas/internal/apperr"
	"skillatlas/internal/ats"
	"skillatlas/internal/database"
	"skillatlas/internal/textextract"
)

// Service runs the resume intake pipeline: extract text, normalize, keyword
// analysis, ATS score, then a versioned create. Versioning is single-writer per
// profile within this process: a keyed mutex serializes concurrent uploads so
// the "exactly one active version" invariant holds.
type Service struct {
	db        *gorm.DB
	extractor textextract.Extractor
	scorer    *ats.Scorer
	logger    *slog.Logger

	profileLocks sync.Map // profileID -> *sync.Mutex
}

// NewService wires the intake pipeline.
func NewService(db *gorm.DB, extractor textextract.Extractor, scorer *ats.Scorer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{db: db, extractor: extractor, scorer: scorer, logger: logger}
}

// UploadInput describes one uploaded resume file. ProfileID nil means an
// anonymous upload: versioning is skipped and the record gets version 1.
// TargetRole, when set, takes precedence over the carried-forward role.
type UploadInput struct {
	ProfileID  *uint
	FileName   string
	MIMEType   string
	Data       []byte
	ObjectKey  string
	TargetRole string
}

// Upload runs the full intake pipeline and persists the new resume version.
func (s *Service) Upload(ctx context.Context, in UploadInput) (*database.Resume, error) {
	if strings.TrimSpace(in.FileName) == "" {
		return nil, fmt.Errorf("%w: file name is required", apperr.ErrValidation)
	}
	if len(in.Data) == 0 {
		return nil, fmt.Errorf("%w: file is empty", apperr.ErrValidation)
	}

	raw, err := s.extractor.ExtractText(in.Data, in.MIMEType)
	if err != nil {
		return nil, fmt.Errorf("extract text from %s: %w", in.FileName, err)
	}

	clean := analyzer.Normalize(raw)
	if clean == "" {
		return nil, fmt.Errorf("%w: %s", apperr.ErrExtractionEmpty, in.FileName)
	}

	extraction := analyzer.Extract(clean)

	resume := database.Resume{
		Version:         1,
		IsActive:        true,
		FileName:        in.FileName,
		ObjectKey:       in.ObjectKey,
		OCRText:         clean,
		Skills:          encodeJSON(extraction.Skills),
		Education:       encodeJSON(extraction.Education),
		Projects:        encodeJSON([]string{}),
		Certifications:  encodeJSON([]string{}),
		ExperienceLevel: extraction.ExperienceLevel,
		TargetRole:      strings.TrimSpace(in.TargetRole),
		ProfileID:       in.ProfileID,
	}

	if in.ProfileID != nil {
		unlock := s.lockProfile(*in.ProfileID)
		defer unlock()

		if err := s.applyVersionContext(ctx, &resume, *in.ProfileID); err != nil {
			return nil, err
		}
	}

	score := s.scorer.Score(ctx, clean, resume.TargetRole)
	resume.ATSScore = score.Score
	resume.ATSFeedback = encodeJSON(score.Feedback)

	if err := s.db.WithContext(ctx).Create(&resume).Error; err != nil {
		return nil, fmt.Errorf("create resume: %w", err)
	}

	s.logger.Info("resume ingested",
		slog.Uint64("resume_id", uint64(resume.ID)),
		slog.Int("version", resume.Version),
		slog.Int("skills", len(extraction.Skills)),
		slog.Int("ats_score", resume.ATSScore),
	)
	return &resume, nil
}

// applyVersionContext assigns the next version for the profile, carries forward
// the prior role and path time availability as defaults, and deactivates every
// previously active record. Must run under the profile lock.
func (s *Service) applyVersionContext(ctx context.Context, resume *database.Resume, profileID uint) error {
	var prior database.Resume
	err := s.db.WithContext(ctx).
		Where("profile_id = ?", profileID).
		Order("version DESC").
		First(&prior).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil
	case err != nil:
		return fmt.Errorf("find prior version: %w", err)
	}

	resume.Version = prior.Version + 1
	if resume.TargetRole == "" {
		resume.TargetRole = prior.TargetRole
	}
	resume.TimeAvailability = prior.TimeAvailability

	var priorPath database.LearningPath
	err = s.db.WithContext(ctx).Where("resume_id = ?", prior.ID).First(&priorPath).Error
	switch {
	case err == nil:
		if priorPath.TimeAvailability != "" {
			resume.TimeAvailability = priorPath.TimeAvailability
		}
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("find prior path: %w", err)
	}

	if err := s.db.WithContext(ctx).Model(&database.Resume{}).
		Where("profile_id = ? AND is_active = ?", profileID, true).
		Update("is_active", false).Error; err != nil {
		return fmt.Errorf("deactivate prior versions: %w", err)
	}

	return nil
}

// Get loads one resume by id.
func (s *Service) Get(ctx context.Context, id uint) (*database.Resume, error) {
	var resume database.Resume
	if err := s.db.WithContext(ctx).First(&resume, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: resume %d", apperr.ErrNotFound, id)
		}
		return nil, fmt.Errorf("load resume: %w", err)
	}
	return &resume, nil
}

// ListVersions returns all versions for a profile, newest first.
func (s *Service) ListVersions(ctx context.Context, profileID uint) ([]database.Resume, error) {
	var resumes []database.Resume
	if err := s.db.WithContext(ctx).
		Where("profile_id = ?", profileID).
		Order("version DESC").
		Find(&resumes).Error; err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	return resumes, nil
}

// Compare diffs two stored resume versions. A missing side contributes a nil
// snapshot, which the comparator maps to an all-empty result.
func (s *Service) Compare(ctx context.Context, oldID, newID uint) (analyzer.Comparison, error) {
	before, err := s.snapshot(ctx, oldID)
	if err != nil {
		return analyzer.Comparison{}, err
	}
	after, err := s.snapshot(ctx, newID)
	if err != nil {
		return analyzer.Comparison{}, err
	}
	return analyzer.Compare(before, after), nil
}

func (s *Service) snapshot(ctx context.Context, id uint) (*analyzer.Snapshot, error) {
	if id == 0 {
		return nil, nil
	}
	resume, err := s.Get(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &analyzer.Snapshot{
		Skills:          decodeStrings(resume.Skills),
		Education:       decodeStrings(resume.Education),
		ExperienceLevel: resume.ExperienceLevel,
	}, nil
}

func (s *Service) lockProfile(profileID uint) func() {
	value, _ := s.profileLocks.LoadOrStore(profileID, &sync.Mutex{})
	mu := value.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
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
