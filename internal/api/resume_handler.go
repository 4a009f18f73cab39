package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/dutchcoders/go-clamd"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/minio/minio-go/v7"
	"github.com/redis/go-redis/v9"

	"skillatlas/internal/api/middleware"
	"skillatlas/internal/apperr"
	"skillatlas/internal/database"
	"skillatlas/internal/intake"
	"skillatlas/internal/tasks"
)

// ObjectStorage is the subset of the storage client the handlers need.
// Tests substitute an in-memory fake.
type ObjectStorage interface {
	UploadFile(ctx context.Context, objectKey string, reader io.Reader, size int64, contentType string) (*minio.UploadInfo, error)
	GeneratePresignedURL(ctx context.Context, objectKey string, duration time.Duration) (string, error)
	DeleteObject(ctx context.Context, objectKey string) error
}

// TaskEnqueuer matches asynq.Client.
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// ResumeHandler serves resume upload, versions, comparison and reports.
type ResumeHandler struct {
	Intake            *intake.Service
	Storage           ObjectStorage
	Enqueuer          TaskEnqueuer
	RedisClient       redis.UniversalClient
	Logger            *slog.Logger
	ClamdAddr         string
	MaxBytes          int64
	MaxUploadsPerHour int
}

func NewResumeHandler(intakeSvc *intake.Service, storageClient ObjectStorage, enqueuer TaskEnqueuer, redisClient redis.UniversalClient, logger *slog.Logger, clamdAddr string, maxBytes int64, maxUploadsPerHour int) *ResumeHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ResumeHandler{
		Intake:            intakeSvc,
		Storage:           storageClient,
		Enqueuer:          enqueuer,
		RedisClient:       redisClient,
		Logger:            logger,
		ClamdAddr:         clamdAddr,
		MaxBytes:          maxBytes,
		MaxUploadsPerHour: maxUploadsPerHour,
	}
}

// Upload ingests a resume file. Authentication is optional: anonymous uploads
// get no profile and no versioning.
func (h *ResumeHandler) Upload(c *gin.Context) {
	ctx := c.Request.Context()
	logger := middleware.LoggerFromContext(c)

	if h.MaxUploadsPerHour > 0 && h.RedisClient != nil {
		rateKey := "rate:upload:" + c.ClientIP() + ":" + time.Now().UTC().Format("2006010215")
		count, err := incrWithTTL(ctx, h.RedisClient, rateKey, time.Hour)
		if err != nil {
			count = 0
		}
		if count > int64(h.MaxUploadsPerHour) {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "upload rate limit exceeded"})
			return
		}
	}

	file, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, "missing file")
		return
	}
	if h.MaxBytes > 0 && file.Size > h.MaxBytes {
		Error(c, http.StatusRequestEntityTooLarge, "file too large")
		return
	}

	if h.ClamdAddr != "" {
		infected, err := h.scanUpload(file)
		if err != nil {
			logger.Error("scan upload failed", slog.Any("error", err))
			Internal(c, "failed to scan file")
			return
		}
		if infected {
			BadRequest(c, "malicious file detected")
			return
		}
	}

	reader, err := file.Open()
	if err != nil {
		Internal(c, "failed to open file")
		return
	}
	data, err := io.ReadAll(reader)
	reader.Close()
	if err != nil {
		Internal(c, "failed to read file")
		return
	}

	userID, authed := middleware.UserIDFromContext(c)

	var objectKey string
	if h.Storage != nil {
		objectKey = fmt.Sprintf("uploads/%s/%s%s", uploadOwnerSegment(userID, authed), uuid.NewString(), filepath.Ext(file.Filename))
		contentType := file.Header.Get("Content-Type")
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		if _, err := h.Storage.UploadFile(ctx, objectKey, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
			logger.Error("store original upload failed", slog.Any("error", err))
			Internal(c, "failed to store file")
			return
		}
	}

	in := intake.UploadInput{
		FileName:   file.Filename,
		MIMEType:   file.Header.Get("Content-Type"),
		Data:       data,
		ObjectKey:  objectKey,
		TargetRole: c.PostForm("target_role"),
	}
	if authed {
		in.ProfileID = &userID
	}

	resume, err := h.Intake.Upload(ctx, in)
	if err != nil {
		// The stored original is orphaned on failure.
		if objectKey != "" {
			if delErr := h.Storage.DeleteObject(ctx, objectKey); delErr != nil {
				logger.Warn("cleanup orphaned upload failed", slog.Any("error", delErr))
			}
		}
		respondServiceError(c, logger, err)
		return
	}

	c.JSON(http.StatusCreated, resumeResponse(resume))
}

// ListVersions returns the caller's resume versions, newest first.
func (h *ResumeHandler) ListVersions(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		Unauthorized(c)
		return
	}

	resumes, err := h.Intake.ListVersions(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, middleware.LoggerFromContext(c), err)
		return
	}

	items := make([]gin.H, 0, len(resumes))
	for i := range resumes {
		items = append(items, resumeResponse(&resumes[i]))
	}
	c.JSON(http.StatusOK, gin.H{"versions": items})
}

// Get returns one resume if the caller may see it.
func (h *ResumeHandler) Get(c *gin.Context) {
	resume, ok := h.loadAccessible(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, resumeResponse(resume))
}

// Compare diffs two resume versions by id.
func (h *ResumeHandler) Compare(c *gin.Context) {
	oldID, ok := h.comparableID(c, parseUintQuery(c, "old"))
	if !ok {
		return
	}
	newID, ok := h.comparableID(c, parseUintQuery(c, "new"))
	if !ok {
		return
	}

	comparison, err := h.Intake.Compare(c.Request.Context(), oldID, newID)
	if err != nil {
		respondServiceError(c, middleware.LoggerFromContext(c), err)
		return
	}
	c.JSON(http.StatusOK, comparison)
}

// comparableID maps ids the caller may not see to 0, the empty comparison
// side. A resume owned by someone else looks exactly like a missing record.
func (h *ResumeHandler) comparableID(c *gin.Context, id uint) (uint, bool) {
	if id == 0 {
		return 0, true
	}
	resume, err := h.Intake.Get(c.Request.Context(), id)
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return 0, true
	case err != nil:
		respondServiceError(c, middleware.LoggerFromContext(c), err)
		return 0, false
	}
	if !resumeVisibleTo(c, resume) {
		return 0, true
	}
	return id, true
}

// EnqueueReport schedules asynchronous PDF report generation.
func (h *ResumeHandler) EnqueueReport(c *gin.Context) {
	resume, ok := h.loadAccessible(c)
	if !ok {
		return
	}
	if h.Enqueuer == nil {
		Error(c, http.StatusServiceUnavailable, "report generation is not available")
		return
	}

	task, err := tasks.NewReportGenerateTask(resume.ID, middleware.GetCorrelationID(c))
	if err != nil {
		Internal(c, "failed to build report task")
		return
	}
	if _, err := h.Enqueuer.EnqueueContext(c.Request.Context(), task, asynq.MaxRetry(3), asynq.Timeout(5*time.Minute)); err != nil {
		middleware.LoggerFromContext(c).Error("enqueue report task failed", slog.Any("error", err))
		Internal(c, "failed to enqueue report task")
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"resume_id": resume.ID, "status": "queued"})
}

// ReportLink returns a presigned download URL for the generated report.
func (h *ResumeHandler) ReportLink(c *gin.Context) {
	resume, ok := h.loadAccessible(c)
	if !ok {
		return
	}
	if resume.ReportKey == "" {
		NotFound(c, "report not generated yet")
		return
	}
	if h.Storage == nil {
		Error(c, http.StatusServiceUnavailable, "storage is not available")
		return
	}

	url, err := h.Storage.GeneratePresignedURL(c.Request.Context(), resume.ReportKey, 10*time.Minute)
	if err != nil {
		middleware.LoggerFromContext(c).Error("presign report failed", slog.Any("error", err))
		Internal(c, "failed to generate download link")
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

// loadAccessible resolves :id and enforces ownership. Anonymous resumes are
// readable by anyone holding their id; owned resumes only by their owner, and
// strangers get the same 404 as a missing record.
func (h *ResumeHandler) loadAccessible(c *gin.Context) (*database.Resume, bool) {
	id := parseUintParam(c, "id")
	if id == 0 {
		BadRequest(c, "invalid resume id")
		return nil, false
	}

	resume, err := h.Intake.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, middleware.LoggerFromContext(c), err)
		return nil, false
	}

	if !resumeVisibleTo(c, resume) {
		NotFound(c, "resume not found")
		return nil, false
	}
	return resume, true
}

// resumeVisibleTo reports whether the caller may see the resume. Anonymous
// resumes are visible to anyone holding their id; owned resumes only to their
// owner.
func resumeVisibleTo(c *gin.Context, resume *database.Resume) bool {
	if resume.ProfileID == nil {
		return true
	}
	userID, authed := middleware.UserIDFromContext(c)
	return authed && *resume.ProfileID == userID
}

func (h *ResumeHandler) scanUpload(file *multipart.FileHeader) (bool, error) {
	reader, err := file.Open()
	if err != nil {
		return false, fmt.Errorf("open upload: %w", err)
	}

	clamdClient := clamd.NewClamd(h.ClamdAddr)
	abortChan := make(chan bool)
	scanChan, err := clamdClient.ScanStream(reader, abortChan)
	reader.Close()
	if err != nil {
		return false, fmt.Errorf("scan stream: %w", err)
	}
	defer close(abortChan)

	for result := range scanChan {
		if result.Status != clamd.RES_OK {
			return true, nil
		}
	}
	return false, nil
}

func resumeResponse(r *database.Resume) gin.H {
	return gin.H{
		"id":                r.ID,
		"version":           r.Version,
		"is_active":         r.IsActive,
		"file_name":         r.FileName,
		"skills":            r.Skills,
		"projects":          r.Projects,
		"education":         r.Education,
		"certifications":    r.Certifications,
		"experience_level":  r.ExperienceLevel,
		"target_role":       r.TargetRole,
		"time_availability": r.TimeAvailability,
		"ats_score":         r.ATSScore,
		"ats_feedback":      r.ATSFeedback,
		"report_key":        r.ReportKey,
		"created_at":        r.CreatedAt,
	}
}

func respondServiceError(c *gin.Context, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		BadRequest(c, err.Error())
	case errors.Is(err, apperr.ErrInvalidStatus):
		BadRequest(c, err.Error())
	case errors.Is(err, apperr.ErrNotFound):
		NotFound(c, err.Error())
	case errors.Is(err, apperr.ErrExtractionEmpty):
		Error(c, http.StatusUnprocessableEntity, "no readable text could be extracted from the file")
	default:
		logger.Error("request failed", slog.Any("error", err))
		Internal(c, "internal error")
	}
}

func parseUintParam(c *gin.Context, name string) uint {
	value, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		return 0
	}
	return uint(value)
}

func parseUintQuery(c *gin.Context, name string) uint {
	value, err := strconv.ParseUint(c.Query(name), 10, 32)
	if err != nil {
		return 0
	}
	return uint(value)
}

func uploadOwnerSegment(userID uint, authed bool) string {
	if !authed {
		return "anonymous"
	}
	return strconv.FormatUint(uint64(userID), 10)
}
