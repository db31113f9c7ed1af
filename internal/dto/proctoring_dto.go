package dto

import (
	"time"

	"github.com/lshigami/Skillgate/internal/model"
)

// RecordViolationDTO reports one proctoring event for an attempt.
type RecordViolationDTO struct {
	EventType string `json:"event_type" binding:"required"`
	Details   string `json:"details"`
}

// ViolationEventDTO is one accepted event as echoed back to the caller.
type ViolationEventDTO struct {
	ID        uint        `json:"id"`
	Stage     model.Stage `json:"stage"`
	EventType string      `json:"event_type"`
	Severity  float64     `json:"severity"`
	Details   string      `json:"details,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

// RecordViolationResultDTO reports the cumulative standing after an event.
type RecordViolationResultDTO struct {
	Accepted                 bool                `json:"accepted"`
	Event                    *ViolationEventDTO  `json:"event,omitempty"`
	CumulativeViolationScore float64             `json:"cumulative_violation_score"`
	Threshold                float64             `json:"threshold"`
	Disqualified             bool                `json:"disqualified"`
	OverallStatus            model.OverallStatus `json:"overall_status"`
}

// ViolationTypeSummaryDTO aggregates events of one type.
type ViolationTypeSummaryDTO struct {
	EventType     string  `json:"event_type"`
	Count         int     `json:"count"`
	TotalSeverity float64 `json:"total_severity"`
}

// ViolationSummaryDTO is the per-attempt ledger rollup.
type ViolationSummaryDTO struct {
	AttemptID                uint                      `json:"attempt_id"`
	CumulativeViolationScore float64                   `json:"cumulative_violation_score"`
	Threshold                float64                   `json:"threshold"`
	Disqualified             bool                      `json:"disqualified"`
	ByType                   []ViolationTypeSummaryDTO `json:"by_type"`
	Events                   []ViolationEventDTO       `json:"events"`
}

// DecisionDTO is a disqualification decision record.
type DecisionDTO struct {
	ID                 string    `json:"id"`
	AttemptID          uint      `json:"attempt_id"`
	TriggeringScore    float64   `json:"triggering_score"`
	Reason             string    `json:"reason"`
	ManualReviewNeeded bool      `json:"manual_review_needed"`
	ReviewedBy         *string   `json:"reviewed_by,omitempty"`
	ReviewDecision     *string   `json:"review_decision,omitempty"`
	ReviewNotes        *string   `json:"review_notes,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
}

// ReviewDecisionDTO records a manual review verdict on a decision.
// Decision must be one of approved, rejected, conditional.
type ReviewDecisionDTO struct {
	ReviewedBy string `json:"reviewed_by" binding:"required"`
	Decision   string `json:"decision" binding:"required,oneof=approved rejected conditional"`
	Notes      string `json:"notes"`
}
