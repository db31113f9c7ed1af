package dto

import (
	"time"

	"github.com/lshigami/Skillgate/internal/model"
)

// StartAttemptDTO identifies the candidate starting (or resuming) a test.
type StartAttemptDTO struct {
	CandidateID   uint   `json:"candidate_id" binding:"required"`
	CandidateName string `json:"candidate_name"`
}

// StageStateDTO is the per-stage slice of an attempt snapshot.
type StageStateDTO struct {
	Status model.StageStatus `json:"status"`
	Score  *float64          `json:"score,omitempty"`
}

// AttemptDTO is the full snapshot of one attempt.
type AttemptDTO struct {
	ID            uint   `json:"id"`
	TestID        uint   `json:"test_id"`
	TestTitle     string `json:"test_title,omitempty"`
	CandidateID   uint   `json:"candidate_id"`
	CandidateName string `json:"candidate_name,omitempty"`
	AttemptNumber int    `json:"attempt_number"`

	CurrentStage  model.Stage         `json:"current_stage"`
	OverallStatus model.OverallStatus `json:"overall_status"`

	MCQ       StageStateDTO `json:"mcq"`
	Coding    StageStateDTO `json:"coding"`
	SQL       StageStateDTO `json:"sql"`
	Interview StageStateDTO `json:"interview"`

	CumulativeViolationScore float64 `json:"cumulative_violation_score"`
	ShouldDisqualify         bool    `json:"should_disqualify"`

	Report *model.ReportDocument `json:"report,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// AttemptSummaryDTO lists an attempt without stage payloads.
type AttemptSummaryDTO struct {
	ID            uint                `json:"id"`
	TestID        uint                `json:"test_id"`
	TestTitle     string              `json:"test_title,omitempty"`
	CandidateID   uint                `json:"candidate_id"`
	CandidateName string              `json:"candidate_name,omitempty"`
	AttemptNumber int                 `json:"attempt_number"`
	CurrentStage  model.Stage         `json:"current_stage"`
	OverallStatus model.OverallStatus `json:"overall_status"`
	MCQScore      *float64            `json:"mcq_score,omitempty"`
	CodingScore   *float64            `json:"coding_score,omitempty"`
	SQLScore      *float64            `json:"sql_score,omitempty"`
	InterviewScore *float64           `json:"interview_score,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
}

// MCQItemDTO is an MCQ question as shown to the candidate: the correct answer
// and explanation are stripped.
type MCQItemDTO struct {
	ID         int      `json:"id"`
	Question   string   `json:"question"`
	Skill      string   `json:"skill"`
	Difficulty string   `json:"difficulty"`
	Options    []string `json:"options"`
}

// SQLProblemDTO is a SQL problem as shown to the candidate: the reference
// query is stripped.
type SQLProblemDTO struct {
	ID              int      `json:"id"`
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Difficulty      string   `json:"difficulty"`
	Hint            string   `json:"hint,omitempty"`
	ExpectedColumns []string `json:"expected_columns,omitempty"`
}

// InterviewQuestionDTO is the current conversational question.
type InterviewQuestionDTO struct {
	Question       string `json:"question"`
	Category       string `json:"category,omitempty"`
	Difficulty     string `json:"difficulty"`
	QuestionNumber int    `json:"question_number"`
	TotalQuestions int    `json:"total_questions"`
}

// StageContentDTO is the response to stage activation; exactly one of the
// per-stage payloads is populated, selected by Stage.
type StageContentDTO struct {
	Stage model.Stage `json:"stage"`

	MCQQuestions []MCQItemDTO      `json:"mcq_questions,omitempty"`
	MCQEndTime   *time.Time        `json:"mcq_end_time,omitempty"`
	MCQAnswers   map[string]string `json:"existing_answers,omitempty"`

	CodingProblems    []model.CodingProblem `json:"coding_problems,omitempty"`
	CodingSubmissions map[string]bool       `json:"existing_coding_submissions,omitempty"`

	SQLProblems    []SQLProblemDTO   `json:"sql_problems,omitempty"`
	SQLTables      map[string]string `json:"sql_tables,omitempty"`
	SQLSubmissions map[string]bool   `json:"existing_sql_submissions,omitempty"`

	Interview *InterviewQuestionDTO `json:"interview,omitempty"`
}

// StageSubmissionDTO stores one item's work for the in-progress stage.
// Coding submissions carry Code+Language; SQL submissions carry Query.
type StageSubmissionDTO struct {
	ItemID   string `json:"item_id" binding:"required"`
	Code     string `json:"code"`
	Language string `json:"language"`
	Query    string `json:"query"`
}

// TestCaseResultDTO mirrors one executed test case.
type TestCaseResultDTO struct {
	Name     string `json:"name"`
	Passed   bool   `json:"passed"`
	Expected string `json:"expected,omitempty"`
	Actual   string `json:"actual,omitempty"`
}

// SubmissionResultDTO is the per-item verdict returned on submit.
type SubmissionResultDTO struct {
	ItemID      string              `json:"item_id"`
	Passed      bool                `json:"passed"`
	TestResults []TestCaseResultDTO `json:"test_results,omitempty"`
	Feedback    string              `json:"feedback,omitempty"`
}

// FinishStageDTO closes the current stage. Answers is only read for the MCQ
// stage, which grades at submit-all time.
type FinishStageDTO struct {
	Answers map[string]string `json:"answers"`
}

// StageResultDTO is the gate decision for a finished stage.
type StageResultDTO struct {
	Stage     model.Stage `json:"stage"`
	Score     float64     `json:"score"`
	Passed    bool        `json:"passed"`
	Correct   int         `json:"correct"`
	Total     int         `json:"total"`
	NextStage *model.Stage `json:"next_stage,omitempty"`

	OverallStatus model.OverallStatus `json:"overall_status"`
	// AlreadyFinished marks a repeated finish call; the payload is the
	// previously computed result, unchanged.
	AlreadyFinished bool `json:"already_finished,omitempty"`
}

// InterviewAnswerDTO carries one conversational answer.
type InterviewAnswerDTO struct {
	Answer string `json:"answer" binding:"required"`
}

// InterviewTurnDTO is the outcome of one conversational turn: the scored
// answer plus either the next question or the stage gate result.
type InterviewTurnDTO struct {
	Score    float64 `json:"score"` // this answer, 0-10
	Feedback string  `json:"feedback"`

	IsComplete   bool     `json:"is_complete"`
	Passed       *bool    `json:"passed,omitempty"`
	OverallScore *float64 `json:"overall_score,omitempty"` // running mean, 0-10

	NextQuestion   *InterviewQuestionDTO `json:"next_question,omitempty"`
	QuestionNumber int                   `json:"question_number"`

	OverallStatus model.OverallStatus `json:"overall_status"`
}

// RunCodeDTO executes candidate code against ad-hoc input without recording
// a submission.
type RunCodeDTO struct {
	Code     string `json:"code" binding:"required"`
	Language string `json:"language" binding:"required"`
	Input    string `json:"input_data"`
}

// RunCodeResultDTO is the raw executor outcome.
type RunCodeResultDTO struct {
	Success bool   `json:"success"`
	Output  string `json:"output"`
	Error   string `json:"error,omitempty"`
}

// RunQueryDTO runs a read-only query against the attempt's sandbox tables.
type RunQueryDTO struct {
	Query string `json:"query" binding:"required"`
}

// RunQueryResultDTO is the sandbox query outcome.
type RunQueryResultDTO struct {
	Success bool             `json:"success"`
	Columns []string         `json:"columns,omitempty"`
	Rows    []map[string]any `json:"rows,omitempty"`
	Error   string           `json:"error,omitempty"`
}
