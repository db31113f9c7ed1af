package model

import (
	"time"

	"gorm.io/gorm"
)

// Attempt is one candidate's run through a test's stage sequence. It is the
// central mutable entity: stage content, submissions and scores all live on
// this row so that a resume is a single read.
//
// Two storage-level guards back the state machine's invariants:
//   - uniq_attempt_number makes attempt numbering unique per (test, candidate);
//   - uniq_open_attempt is a partial unique index allowing at most one
//     in_progress attempt per (test, candidate), closing the check-then-insert
//     race on start.
type Attempt struct {
	ID uint `gorm:"primarykey" json:"id"`

	TestID        uint   `json:"test_id" gorm:"not null;index;uniqueIndex:uniq_attempt_number,priority:1;uniqueIndex:uniq_open_attempt,priority:1"`
	Test          Test   `json:"test,omitempty" gorm:"foreignKey:TestID"`
	CandidateID   uint   `json:"candidate_id" gorm:"not null;index;uniqueIndex:uniq_attempt_number,priority:2;uniqueIndex:uniq_open_attempt,priority:2"`
	CandidateName string `json:"candidate_name"`
	AttemptNumber int    `json:"attempt_number" gorm:"not null;uniqueIndex:uniq_attempt_number,priority:3"`

	CurrentStage  Stage         `json:"current_stage" gorm:"not null;default:'mcq'"`
	OverallStatus OverallStatus `json:"overall_status" gorm:"not null;default:'in_progress';uniqueIndex:uniq_open_attempt,priority:3,where:overall_status = 'in_progress'"`

	MCQQuestions MCQQuestionList `json:"mcq_questions,omitempty" gorm:"type:text"`
	MCQAnswers   MCQAnswerMap    `json:"mcq_answers,omitempty" gorm:"type:text"`
	MCQStatus    StageStatus     `json:"mcq_status" gorm:"not null;default:'pending'"`
	MCQScore     *float64        `json:"mcq_score,omitempty"`
	MCQStartTime *time.Time      `json:"mcq_start_time,omitempty"`

	CodingProblems    CodingProblemList   `json:"coding_problems,omitempty" gorm:"type:text"`
	CodingSubmissions CodingSubmissionMap `json:"coding_submissions,omitempty" gorm:"type:text"`
	CodingStatus      StageStatus         `json:"coding_status" gorm:"not null;default:'pending'"`
	CodingScore       *float64            `json:"coding_score,omitempty"`

	SQLProblems    SQLProblemList   `json:"sql_problems,omitempty" gorm:"type:text"`
	SQLSubmissions SQLSubmissionMap `json:"sql_submissions,omitempty" gorm:"type:text"`
	SQLStatus      StageStatus      `json:"sql_status" gorm:"not null;default:'pending'"`
	SQLScore       *float64         `json:"sql_score,omitempty"`

	InterviewTurns InterviewTurnList `json:"interview_turns,omitempty" gorm:"type:text"`
	InterviewIndex int               `json:"interview_index" gorm:"default:0"`
	InterviewStatus StageStatus      `json:"interview_status" gorm:"not null;default:'pending'"`
	// InterviewScore is the running mean of per-question scores, 0-10.
	InterviewScore *float64 `json:"interview_score,omitempty"`

	// CumulativeViolationScore is monotonically non-decreasing; it is only
	// ever written by the violation ledger inside the per-attempt boundary.
	CumulativeViolationScore float64 `json:"cumulative_violation_score" gorm:"default:0"`
	// ShouldDisqualify is set true exactly once and never cleared.
	ShouldDisqualify bool `json:"should_disqualify" gorm:"default:false"`

	Report *ReportDocument `json:"report,omitempty" gorm:"type:text"`

	// Version backs the optimistic concurrency check on every mutation.
	Version int `json:"-" gorm:"not null;default:1"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Terminal reports whether the attempt reached a final state and is immutable.
func (a *Attempt) Terminal() bool {
	return a.OverallStatus == OverallCompleted || a.OverallStatus == OverallFailed
}

// StageStatusOf returns the status of the given gradeable stage.
func (a *Attempt) StageStatusOf(stage Stage) StageStatus {
	switch stage {
	case StageMCQ:
		return a.MCQStatus
	case StageCoding:
		return a.CodingStatus
	case StageSQL:
		return a.SQLStatus
	case StageInterview:
		return a.InterviewStatus
	}
	return StagePending
}

// SetStageStatus updates the status of the given stage in memory.
func (a *Attempt) SetStageStatus(stage Stage, status StageStatus) {
	switch stage {
	case StageMCQ:
		a.MCQStatus = status
	case StageCoding:
		a.CodingStatus = status
	case StageSQL:
		a.SQLStatus = status
	case StageInterview:
		a.InterviewStatus = status
	}
}

// StageScoreOf returns the recorded score of the given stage, if any.
func (a *Attempt) StageScoreOf(stage Stage) *float64 {
	switch stage {
	case StageMCQ:
		return a.MCQScore
	case StageCoding:
		return a.CodingScore
	case StageSQL:
		return a.SQLScore
	case StageInterview:
		return a.InterviewScore
	}
	return nil
}

// SetStageScore records the score of the given stage in memory.
func (a *Attempt) SetStageScore(stage Stage, score float64) {
	switch stage {
	case StageMCQ:
		a.MCQScore = &score
	case StageCoding:
		a.CodingScore = &score
	case StageSQL:
		a.SQLScore = &score
	case StageInterview:
		a.InterviewScore = &score
	}
}

// StageUnlocked reports whether every stage strictly before the given one has
// been passed.
func (a *Attempt) StageUnlocked(stage Stage) bool {
	for _, earlier := range EarlierStages(stage) {
		if a.StageStatusOf(earlier) != StagePassed {
			return false
		}
	}
	return true
}

// HasContent reports whether stage content has already been generated; a
// resume must never regenerate it.
func (a *Attempt) HasContent(stage Stage) bool {
	switch stage {
	case StageMCQ:
		return len(a.MCQQuestions) > 0
	case StageCoding:
		return len(a.CodingProblems) > 0
	case StageSQL:
		return len(a.SQLProblems) > 0
	case StageInterview:
		return len(a.InterviewTurns) > 0
	}
	return false
}
