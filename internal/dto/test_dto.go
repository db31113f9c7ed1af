package dto

import "time"

// TestCreateDTO is the admin request for defining a new assessment.
type TestCreateDTO struct {
	Title       string   `json:"title" binding:"required"`
	Description string   `json:"description"`
	Skills      []string `json:"skills" binding:"required,min=1,dive,required"`

	MCQCount       int `json:"mcq_count" binding:"omitempty,min=1,max=50"`
	CodingCount    int `json:"coding_count" binding:"omitempty,min=0,max=10"`
	SQLCount       int `json:"sql_count" binding:"omitempty,min=0,max=10"`
	InterviewCount int `json:"interview_count" binding:"omitempty,min=0,max=15"`

	MCQPassingScore       *float64 `json:"mcq_passing_score" binding:"omitempty,min=0,max=100"`
	CodingPassingScore    *float64 `json:"coding_passing_score" binding:"omitempty,min=0,max=100"`
	SQLPassingScore       *float64 `json:"sql_passing_score" binding:"omitempty,min=0,max=100"`
	InterviewPassingScore *float64 `json:"interview_passing_score" binding:"omitempty,min=0,max=10"`

	MCQDurationMinutes int `json:"mcq_duration_minutes" binding:"omitempty,min=5,max=180"`

	AttemptLimit int `json:"attempt_limit" binding:"omitempty,min=1,max=10"`

	ProctoringEnabled  *bool    `json:"proctoring_enabled"`
	ViolationThreshold *float64 `json:"violation_threshold" binding:"omitempty,min=1"`
	AutoDisqualify     *bool    `json:"auto_disqualify"`
}

// SetTestActiveDTO toggles whether candidates may start new attempts.
type SetTestActiveDTO struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

// TestResponseDTO is the full admin view of a test definition.
type TestResponseDTO struct {
	ID          uint     `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Skills      []string `json:"skills"`

	MCQCount       int `json:"mcq_count"`
	CodingCount    int `json:"coding_count"`
	SQLCount       int `json:"sql_count"`
	InterviewCount int `json:"interview_count"`

	MCQPassingScore       float64 `json:"mcq_passing_score"`
	CodingPassingScore    float64 `json:"coding_passing_score"`
	SQLPassingScore       float64 `json:"sql_passing_score"`
	InterviewPassingScore float64 `json:"interview_passing_score"`

	MCQDurationMinutes int `json:"mcq_duration_minutes"`

	AttemptLimit       int     `json:"attempt_limit"`
	ProctoringEnabled  bool    `json:"proctoring_enabled"`
	ViolationThreshold float64 `json:"violation_threshold"`
	AutoDisqualify     bool    `json:"auto_disqualify"`

	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// TestSummaryDTO lists a test for a candidate, enriched with that candidate's
// attempt usage so the client can decide whether "start" is available.
type TestSummaryDTO struct {
	ID           uint      `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	Skills       []string  `json:"skills"`
	AttemptLimit int       `json:"attempt_limit"`
	AttemptsUsed int       `json:"attempts_used"`
	CanAttempt   bool      `json:"can_attempt"`
	CreatedAt    time.Time `json:"created_at"`
}

// ViolationRuleConfigDTO sets one per-test severity override.
type ViolationRuleConfigDTO struct {
	ViolationType    string   `json:"violation_type" binding:"required"`
	SeverityOverride *float64 `json:"severity_override" binding:"omitempty,min=0"`
	Enabled          *bool    `json:"enabled"`
}

// ConfigureViolationRulesDTO replaces the per-test violation configuration.
type ConfigureViolationRulesDTO struct {
	Rules []ViolationRuleConfigDTO `json:"rules" binding:"required,dive"`
}
