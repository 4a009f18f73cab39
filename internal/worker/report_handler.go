package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"skillatlas/internal/database"
	"skillatlas/internal/roadmap"
	"skillatlas/internal/storage"
	"skillatlas/internal/tasks"
)

// ReportTaskHandler consumes report generation tasks: it renders the analysis
// report for a resume to PDF, stores it and notifies the owner.
type ReportTaskHandler struct {
	db          *gorm.DB
	storage     *storage.Client
	redisClient *redis.Client
	logger      *slog.Logger
}

func NewReportTaskHandler(db *gorm.DB, storage *storage.Client, redisClient *redis.Client, logger *slog.Logger) *ReportTaskHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportTaskHandler{db: db, storage: storage, redisClient: redisClient, logger: logger}
}

// ProcessTask implements asynq.Handler.
func (h *ReportTaskHandler) ProcessTask(ctx context.Context, t *asynq.Task) (retErr error) {
	var payload tasks.ReportGeneratePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		h.logger.Error("unmarshal task payload failed", slog.Any("error", err))
		return err
	}

	log := h.logger.With(
		slog.String("correlation_id", payload.CorrelationID),
		slog.Uint64("resume_id", uint64(payload.ResumeID)),
	)
	log.Info("starting analysis report generation")

	var resume database.Resume
	if err := h.db.WithContext(ctx).First(&resume, payload.ResumeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warn("resume not found, skipping task")
			return nil
		}
		log.Error("query resume failed", slog.Any("error", err))
		return err
	}

	defer func() {
		if retErr == nil || !isFinalAsynqAttempt(ctx) {
			return
		}
		notify := ReportNotifyMessage{
			Status:        "error",
			ResumeID:      resume.ID,
			CorrelationID: payload.CorrelationID,
			ErrorMessage:  strings.TrimSpace(retErr.Error()),
		}
		if err := h.publishNotify(ctx, resume.ProfileID, notify); err != nil {
			log.Error("publish report error notification failed", slog.Any("error", err))
		}
	}()

	html, err := h.buildReportHTML(ctx, &resume)
	if err != nil {
		log.Error("build report html failed", slog.Any("error", err))
		return err
	}

	page, cleanup, err := renderHTMLPage(log, html)
	if err != nil {
		log.Error("render report page failed", slog.Any("error", err))
		return err
	}
	defer cleanup()

	pdfBytes, err := exportPDF(page)
	if err != nil {
		log.Error("export report pdf failed", slog.Any("error", err))
		return err
	}

	objectKey := fmt.Sprintf("reports/%s/%s.pdf", ownerSegment(resume.ProfileID), uuid.NewString())
	if _, err := h.storage.UploadFile(ctx, objectKey, bytes.NewReader(pdfBytes), int64(len(pdfBytes)), "application/pdf"); err != nil {
		log.Error("upload report pdf failed", slog.Any("error", err))
		return err
	}

	if err := h.db.WithContext(ctx).Model(&resume).Update("report_key", objectKey).Error; err != nil {
		log.Error("update resume report key failed", slog.Any("error", err))
		return err
	}

	notify := ReportNotifyMessage{
		Status:        "completed",
		ResumeID:      resume.ID,
		ReportKey:     objectKey,
		CorrelationID: payload.CorrelationID,
	}
	if err := h.publishNotify(ctx, resume.ProfileID, notify); err != nil {
		log.Error("publish report notification failed", slog.Any("error", err))
		return err
	}

	log.Info("analysis report generated", slog.String("object_key", objectKey))
	return nil
}

func (h *ReportTaskHandler) buildReportHTML(ctx context.Context, resume *database.Resume) (string, error) {
	data := ReportData{
		FileName:        resume.FileName,
		Version:         resume.Version,
		GeneratedAt:     time.Now().UTC(),
		TargetRole:      resume.TargetRole,
		ExperienceLevel: resume.ExperienceLevel,
		ATSScore:        resume.ATSScore,
		Feedback:        decodeStrings(resume.ATSFeedback),
		Skills:          decodeStrings(resume.Skills),
		Education:       decodeStrings(resume.Education),
	}

	var path database.LearningPath
	err := h.db.WithContext(ctx).Where("resume_id = ?", resume.ID).First(&path).Error
	switch {
	case err == nil:
		steps, err := roadmap.DecodeSteps(path.Steps)
		if err != nil {
			return "", fmt.Errorf("decode path steps: %w", err)
		}
		history, err := roadmap.DecodeScoreHistory(path.ScoreHistory)
		if err != nil {
			return "", fmt.Errorf("decode score history: %w", err)
		}
		data.HasPath = true
		data.Insight = path.Insight
		data.GrowthFactor = path.GrowthFactor
		data.Steps = steps
		data.ScoreHistory = history
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return "", fmt.Errorf("load learning path: %w", err)
	}

	return renderReportHTML(data)
}

// publishNotify pushes the message to the owner's notification channel.
// Anonymous resumes have no owner and nothing to notify.
func (h *ReportTaskHandler) publishNotify(ctx context.Context, profileID *uint, notify ReportNotifyMessage) error {
	if profileID == nil {
		return nil
	}
	data, err := json.Marshal(notify)
	if err != nil {
		return fmt.Errorf("marshal notification payload: %w", err)
	}
	channel := fmt.Sprintf("user_notify:%d", *profileID)
	if err := h.redisClient.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("publish notification to %q: %w", channel, err)
	}
	return nil
}

func isFinalAsynqAttempt(ctx context.Context) bool {
	retryCount, ok1 := asynq.GetRetryCount(ctx)
	maxRetry, ok2 := asynq.GetMaxRetry(ctx)
	if !ok1 || !ok2 {
		return false
	}
	return retryCount >= maxRetry
}

func ownerSegment(profileID *uint) string {
	if profileID == nil {
		return "anonymous"
	}
	return fmt.Sprintf("%d", *profileID)
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
