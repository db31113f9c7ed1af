package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Stage identifies one phase of the gated attempt pipeline. The order is
// fixed: mcq -> coding -> sql -> interview -> completed.
type Stage string

const (
	StageMCQ       Stage = "mcq"
	StageCoding    Stage = "coding"
	StageSQL       Stage = "sql"
	StageInterview Stage = "interview"
	StageCompleted Stage = "completed"
)

// stageOrder lists the gradeable stages in gate order.
var stageOrder = []Stage{StageMCQ, StageCoding, StageSQL, StageInterview}

// NextStage returns the stage that unlocks after s is passed, or
// StageCompleted when s is the last gradeable stage.
func NextStage(s Stage) Stage {
	for i, st := range stageOrder {
		if st == s {
			if i+1 < len(stageOrder) {
				return stageOrder[i+1]
			}
			return StageCompleted
		}
	}
	return StageCompleted
}

// EarlierStages returns every gradeable stage strictly before s.
func EarlierStages(s Stage) []Stage {
	var out []Stage
	for _, st := range stageOrder {
		if st == s {
			break
		}
		out = append(out, st)
	}
	return out
}

// ParseStage validates a client-supplied stage name.
func ParseStage(raw string) (Stage, error) {
	s := Stage(raw)
	for _, st := range stageOrder {
		if st == s {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown stage %q", raw)
}

type StageStatus string

const (
	StagePending    StageStatus = "pending"
	StageInProgress StageStatus = "in_progress"
	StagePassed     StageStatus = "passed"
	StageFailed     StageStatus = "failed"
)

// Finished reports whether the stage has been scored and is write-once from
// now on.
func (s StageStatus) Finished() bool {
	return s == StagePassed || s == StageFailed
}

type OverallStatus string

const (
	OverallInProgress OverallStatus = "in_progress"
	OverallCompleted  OverallStatus = "completed"
	OverallFailed     OverallStatus = "failed"
)

// Stage content and submissions are persisted as JSON columns, but each stage
// has its own strongly typed schema selected by the stage discriminant.

type MCQQuestion struct {
	ID            int      `json:"id"`
	Question      string   `json:"question"`
	Skill         string   `json:"skill"`
	Difficulty    string   `json:"difficulty"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correct_answer"` // 0-3 index into Options
	Explanation   string   `json:"explanation"`
}

type CodingTestCase struct {
	Input          string `json:"input"`
	ExpectedOutput string `json:"expected_output"`
}

type CodingProblem struct {
	ID               int               `json:"id"`
	Title            string            `json:"title"`
	Description      string            `json:"description"`
	Difficulty       string            `json:"difficulty"`
	SkillsTested     []string          `json:"skills_tested"`
	InputFormat      string            `json:"input_format"`
	OutputFormat     string            `json:"output_format"`
	SampleInput      string            `json:"sample_input"`
	SampleOutput     string            `json:"sample_output"`
	TestCases        []CodingTestCase  `json:"test_cases"`
	StarterCode      map[string]string `json:"starter_code"` // keyed by language
	TimeLimitSeconds int               `json:"time_limit_seconds"`
	Hints            []string          `json:"hints"`
}

type SQLProblem struct {
	ID              int      `json:"id"`
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Difficulty      string   `json:"difficulty"`
	Hint            string   `json:"hint"`
	ExpectedColumns []string `json:"expected_columns"`
	ReferenceQuery  string   `json:"reference_query"`
}

// InterviewTurn is one question/answer pair of the conversational stage.
// Score is on the 0-10 interview scale, not the 0-100 scale of the other
// stages.
type InterviewTurn struct {
	Question   string   `json:"question"`
	Category   string   `json:"category"`
	Difficulty string   `json:"difficulty"`
	KeyPoints  []string `json:"key_points"`
	Answer     *string  `json:"answer"`
	Feedback   *string  `json:"feedback"`
	Score      float64  `json:"score"`
}

// Per-stage submission schemas.

type TestCaseResult struct {
	Name     string `json:"name"`
	Passed   bool   `json:"passed"`
	Expected string `json:"expected,omitempty"`
	Actual   string `json:"actual,omitempty"`
}

type CodingSubmission struct {
	Code        string           `json:"code"`
	Language    string           `json:"language"`
	SubmittedAt time.Time        `json:"submitted_at"`
	Passed      bool             `json:"passed"`
	TestResults []TestCaseResult `json:"test_results"`
}

type SQLSubmission struct {
	Query       string    `json:"query"`
	SubmittedAt time.Time `json:"submitted_at"`
	Passed      bool      `json:"passed"`
	Feedback    string    `json:"feedback,omitempty"`
}

// SQLEvaluation is the verdict on one SQL answer. Score is informational;
// only Passed feeds the stage gate.
type SQLEvaluation struct {
	Passed   bool    `json:"passed"`
	Feedback string  `json:"feedback"`
	Score    float64 `json:"score"`
}

// JSON column plumbing.

func jsonValue(v any) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func jsonScan(dst any, src any) error {
	switch s := src.(type) {
	case nil:
		return nil
	case []byte:
		if len(s) == 0 {
			return nil
		}
		return json.Unmarshal(s, dst)
	case string:
		if s == "" {
			return nil
		}
		return json.Unmarshal([]byte(s), dst)
	default:
		return fmt.Errorf("unsupported column type %T for JSON scan", src)
	}
}

type StringSlice []string

func (s StringSlice) Value() (driver.Value, error) { return jsonValue(s) }
func (s *StringSlice) Scan(src any) error          { return jsonScan(s, src) }

type MCQQuestionList []MCQQuestion

func (l MCQQuestionList) Value() (driver.Value, error) { return jsonValue(l) }
func (l *MCQQuestionList) Scan(src any) error          { return jsonScan(l, src) }

// MCQAnswerMap maps question id to the candidate's chosen option, either as a
// letter ("A".."D") or an index ("0".."3"); the grader normalizes both forms.
type MCQAnswerMap map[string]string

func (m MCQAnswerMap) Value() (driver.Value, error) { return jsonValue(m) }
func (m *MCQAnswerMap) Scan(src any) error          { return jsonScan(m, src) }

type CodingProblemList []CodingProblem

func (l CodingProblemList) Value() (driver.Value, error) { return jsonValue(l) }
func (l *CodingProblemList) Scan(src any) error          { return jsonScan(l, src) }

type CodingSubmissionMap map[string]CodingSubmission

func (m CodingSubmissionMap) Value() (driver.Value, error) { return jsonValue(m) }
func (m *CodingSubmissionMap) Scan(src any) error          { return jsonScan(m, src) }

type SQLProblemList []SQLProblem

func (l SQLProblemList) Value() (driver.Value, error) { return jsonValue(l) }
func (l *SQLProblemList) Scan(src any) error          { return jsonScan(l, src) }

type SQLSubmissionMap map[string]SQLSubmission

func (m SQLSubmissionMap) Value() (driver.Value, error) { return jsonValue(m) }
func (m *SQLSubmissionMap) Scan(src any) error          { return jsonScan(m, src) }

type InterviewTurnList []InterviewTurn

func (l InterviewTurnList) Value() (driver.Value, error) { return jsonValue(l) }
func (l *InterviewTurnList) Scan(src any) error          { return jsonScan(l, src) }
