package model

import (
	"time"

	"gorm.io/gorm"
)

// Test is the immutable definition of an assessment. Edits happen through the
// admin surface before any attempt exists; the attempt pipeline treats it as
// read-only.
type Test struct {
	ID          uint        `gorm:"primarykey" json:"id"`
	Title       string      `json:"title" gorm:"not null"`
	Description string      `json:"description,omitempty"`
	Skills      StringSlice `json:"skills" gorm:"type:text;not null"`

	MCQCount       int `json:"mcq_count" gorm:"default:10"`
	CodingCount    int `json:"coding_count" gorm:"default:3"`
	SQLCount       int `json:"sql_count" gorm:"default:3"`
	InterviewCount int `json:"interview_count" gorm:"default:5"`

	// Passing thresholds: MCQ/coding/SQL on the 0-100 scale, interview on
	// the 0-10 scale of its per-question scores.
	MCQPassingScore       float64 `json:"mcq_passing_score" gorm:"default:60"`
	CodingPassingScore    float64 `json:"coding_passing_score" gorm:"default:50"`
	SQLPassingScore       float64 `json:"sql_passing_score" gorm:"default:50"`
	InterviewPassingScore float64 `json:"interview_passing_score" gorm:"default:6"`

	MCQDurationMinutes int `json:"mcq_duration_minutes" gorm:"default:30"`

	AttemptLimit int `json:"attempt_limit" gorm:"default:1"`

	ProctoringEnabled bool `json:"proctoring_enabled" gorm:"default:true"`
	// ViolationThreshold overrides the configured default when > 0.
	ViolationThreshold float64 `json:"violation_threshold" gorm:"default:0"`
	// AutoDisqualify enables forced termination on threshold breach; when
	// false, breaches are still recorded for manual review.
	AutoDisqualify bool `json:"auto_disqualify" gorm:"default:true"`

	IsActive bool `json:"is_active" gorm:"default:true"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// CountFor returns the configured item count for a stage.
func (t *Test) CountFor(stage Stage) int {
	switch stage {
	case StageMCQ:
		return t.MCQCount
	case StageCoding:
		return t.CodingCount
	case StageSQL:
		return t.SQLCount
	case StageInterview:
		return t.InterviewCount
	}
	return 0
}

// ThresholdFor returns the passing threshold for a stage on its native scale.
func (t *Test) ThresholdFor(stage Stage) float64 {
	switch stage {
	case StageMCQ:
		return t.MCQPassingScore
	case StageCoding:
		return t.CodingPassingScore
	case StageSQL:
		return t.SQLPassingScore
	case StageInterview:
		return t.InterviewPassingScore
	}
	return 0
}
