package database

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// User is an account identity. Analysis data hangs off Resume records instead.
type User struct {
	gorm.Model
	Name         string `gorm:"size:128"`
	Email        string `gorm:"uniqueIndex;size:255"`
	PasswordHash string `gorm:"size:255"`
}

// Resume is one uploaded resume snapshot. Versions are monotonic per profile and
// at most one record per profile is active at any time.
type Resume struct {
	gorm.Model
	ProfileID        *uint          `gorm:"index"`
	Version          int            `gorm:"not null;default:1"`
	IsActive         bool           `gorm:"not null;default:true"`
	FileName         string         `gorm:"size:255"`
	ObjectKey        string         `gorm:"size:512"`
	OCRText          string         `gorm:"type:text"`
	Skills           datatypes.JSON `gorm:"type:jsonb"`
	Projects         datatypes.JSON `gorm:"type:jsonb"`
	Education        datatypes.JSON `gorm:"type:jsonb"`
	Certifications   datatypes.JSON `gorm:"type:jsonb"`
	ExperienceLevel  string         `gorm:"size:64"`
	TargetRole       string         `gorm:"size:128"`
	TimeAvailability string         `gorm:"size:64"`
	ATSScore         int
	ATSFeedback      datatypes.JSON `gorm:"type:jsonb"`
	ReportKey        string         `gorm:"size:512"`
}

// LearningPath is the roadmap document derived from one resume. Regeneration fully
// replaces the row, so ResumeID carries a unique index.
type LearningPath struct {
	gorm.Model
	ResumeID         uint           `gorm:"uniqueIndex;not null"`
	TargetRole       string         `gorm:"size:128"`
	ExperienceLevel  string         `gorm:"size:64"`
	TimeAvailability string         `gorm:"size:64"`
	Steps            datatypes.JSON `gorm:"type:jsonb"`
	Insight          string         `gorm:"type:text"`
	GrowthFactor     string         `gorm:"size:32"`
	ScoreHistory     datatypes.JSON `gorm:"type:jsonb"`
}

// ChatMessage is one turn half of the assistant conversation. Append-only.
// An empty ContextSkill means the "general" bucket.
type ChatMessage struct {
	gorm.Model
	UserID       uint   `gorm:"index;not null"`
	Role         string `gorm:"size:16;not null"`
	Message      string `gorm:"type:text"`
	ContextSkill string `gorm:"size:128"`
	ContextRole  string `gorm:"size:128"`
}
