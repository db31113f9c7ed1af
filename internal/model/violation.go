package model

import (
	"time"

	"gorm.io/gorm"
)

// ViolationRule is the configured base scoring for one proctoring event type.
type ViolationRule struct {
	ID             uint    `gorm:"primarykey" json:"id"`
	ViolationType  string  `json:"violation_type" gorm:"not null;uniqueIndex"`
	BaseSeverity   float64 `json:"base_severity" gorm:"not null;default:5"`
	AutoDisqualify bool    `json:"auto_disqualify" gorm:"default:false"`
	// MaxOccurrences is informational for reviewers; nil means unlimited.
	MaxOccurrences *int   `json:"max_occurrences,omitempty"`
	Description    string `json:"description,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TestViolationConfig overrides a rule's severity for one specific test.
type TestViolationConfig struct {
	ID              uint          `gorm:"primarykey" json:"id"`
	TestID          uint          `json:"test_id" gorm:"not null;uniqueIndex:uniq_test_rule,priority:1"`
	ViolationRuleID uint          `json:"violation_rule_id" gorm:"not null;uniqueIndex:uniq_test_rule,priority:2"`
	ViolationRule   ViolationRule `json:"violation_rule,omitempty" gorm:"foreignKey:ViolationRuleID"`
	// SeverityOverride replaces the rule's base severity when non-nil.
	SeverityOverride *float64 `json:"severity_override,omitempty"`
	Enabled          bool     `json:"enabled" gorm:"default:true"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ViolationEvent is one appended entry of the integrity ledger. Rows are
// never updated or deleted.
type ViolationEvent struct {
	ID        uint    `gorm:"primarykey" json:"id"`
	AttemptID uint    `json:"attempt_id" gorm:"not null;index"`
	Stage     Stage   `json:"stage"`
	EventType string  `json:"event_type" gorm:"not null;index"`
	Severity  float64 `json:"severity" gorm:"not null"`
	Details   string  `json:"details,omitempty" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at"`
}

// DefaultViolationRules returns the seed rule set installed on migration.
func DefaultViolationRules() []ViolationRule {
	intPtr := func(n int) *int { return &n }
	return []ViolationRule{
		{ViolationType: "tab_switch", BaseSeverity: 5},
		{ViolationType: "fullscreen_exit", BaseSeverity: 8},
		{ViolationType: "camera_blocked", BaseSeverity: 15, MaxOccurrences: intPtr(2)},
		{ViolationType: "phone_detected", BaseSeverity: 20, MaxOccurrences: intPtr(1)},
		{ViolationType: "multiple_faces", BaseSeverity: 25, AutoDisqualify: true, MaxOccurrences: intPtr(0)},
		{ViolationType: "face_not_detected", BaseSeverity: 10},
		{ViolationType: "copy_paste", BaseSeverity: 12, MaxOccurrences: intPtr(3)},
		{ViolationType: "face_lookaway", BaseSeverity: 3},
		{ViolationType: "unusual_typing_speed", BaseSeverity: 7},
		{ViolationType: "suspicious_keystroke_pattern", BaseSeverity: 10},
	}
}

// DisqualificationDecision is created exactly once per attempt that the
// ledger force-terminates. A later review annotation never reopens the
// attempt.
type DisqualificationDecision struct {
	ID        string `gorm:"primarykey;type:varchar(36)" json:"id"`
	AttemptID uint   `json:"attempt_id" gorm:"not null;uniqueIndex"`

	TriggeringScore    float64 `json:"triggering_score" gorm:"not null"`
	Reason             string  `json:"reason"`
	ManualReviewNeeded bool    `json:"manual_review_needed" gorm:"default:true"`

	ReviewedBy     *string `json:"reviewed_by,omitempty"`
	ReviewDecision *string `json:"review_decision,omitempty"` // approved | rejected | conditional
	ReviewNotes    *string `json:"review_notes,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
