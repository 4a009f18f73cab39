package roadmap

import "time"

// Step statuses form a small state machine driven by the progress tracker.
const (
	StatusNotStarted = "NOT_STARTED"
	StatusInProgress = "IN_PROGRESS"
	StatusCompleted  = "COMPLETED"
)

// Step difficulty levels used by role templates and AI-refined roadmaps.
const (
	LevelBeginner     = "Beginner"
	LevelIntermediate = "Intermediate"
	LevelAdvanced     = "Advanced"
)

// Step is one roadmap entry, stored inside LearningPath.Steps (JSONB).
// Skill values are unique within a path and Order reflects roadmap priority,
// foundational topics first.
type Step struct {
	Skill         string    `json:"skill"`
	Level         string    `json:"level"`
	Order         int       `json:"order"`
	Status        string    `json:"status"`
	UpdatedAt     time.Time `json:"updated_at"`
	Reason        string    `json:"reason,omitempty"`
	EstimatedTime string    `json:"estimated_time,omitempty"`
	MicroTopics   []string  `json:"micro_topics,omitempty"`
	Resources     []string  `json:"resources,omitempty"`
}

// ScoreEntry is one daily completion snapshot; at most one entry exists per UTC
// calendar day.
type ScoreEntry struct {
	Score int       `json:"score"`
	Date  time.Time `json:"date"`
}

// ValidStatus reports whether s is a recognized step status.
func ValidStatus(s string) bool {
	switch s {
	case StatusNotStarted, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// CompletionScore is round(100 * completed / total), 0 for an empty path.
func CompletionScore(steps []Step) int {
	if len(steps) == 0 {
		return 0
	}
	completed := 0
	for _, s := range steps {
		if s.Status == StatusCompleted {
			completed++
		}
	}
	return int(float64(completed)/float64(len(steps))*100 + 0.5)
}
