package worker

// ReportNotifyMessage is the WebSocket payload forwarded through Redis Pub/Sub
// when a report finishes or permanently fails. Field names are part of the
// client contract.
type ReportNotifyMessage struct {
	Status        string `json:"status"`
	ResumeID      uint   `json:"resume_id"`
	ReportKey     string `json:"report_key,omitempty"`
	CorrelationID string `json:"correlation_id"`
	ErrorMessage  string `json:"error_message,omitempty"`
}
