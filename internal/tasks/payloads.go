package tasks

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

// Task type names shared by the queue producer and the worker.
const (
	TypeReportGenerate = "report:generate"
)

// ReportGeneratePayload identifies the resume whose analysis report to render.
type ReportGeneratePayload struct {
	ResumeID      uint   `json:"resume_id"`
	CorrelationID string `json:"correlation_id"`
}

// NewReportGenerateTask builds a report generation task.
func NewReportGenerateTask(resumeID uint, correlationID string) (*asynq.Task, error) {
	payload, err := json.Marshal(ReportGeneratePayload{
		ResumeID:      resumeID,
		CorrelationID: correlationID,
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeReportGenerate, payload), nil
}
