package model

import "database/sql/driver"

// ReportDocument is the human-readable summary built for a terminal attempt.
// Per-stage scores stay on their native scales (interview 0-10, everything
// else 0-100); the document never averages across stages.
type ReportDocument struct {
	OverallRating string   `json:"overall_rating"`
	Summary       string   `json:"summary"`
	Strengths     []string `json:"strengths,omitempty"`
	Weaknesses    []string `json:"weaknesses,omitempty"`

	SectionFeedback    map[string]string  `json:"section_feedback,omitempty"`
	PerformanceMetrics map[string]float64 `json:"performance_metrics,omitempty"`
	ConceptMastery     map[string]float64 `json:"concept_mastery,omitempty"`
	SkillWiseScores    map[string]float64 `json:"skill_wise_scores,omitempty"`

	Roadmap []RoadmapEntry `json:"roadmap,omitempty"`

	MCQQuestionAnalysis []QuestionAnalysis `json:"mcq_question_analysis,omitempty"`
	ProblemAnalysis     []ProblemAnalysis  `json:"problem_analysis,omitempty"`
	InterviewFeedback   []InterviewReview  `json:"interview_feedback,omitempty"`

	TotalViolations int `json:"total_violations"`
}

type RoadmapEntry struct {
	Week        int      `json:"week"`
	FocusArea   string   `json:"focus_area"`
	ActionItems []string `json:"action_items"`
}

type QuestionAnalysis struct {
	QuestionSummary string `json:"question_summary"`
	Correct         bool   `json:"correct"`
	Skill           string `json:"skill"`
	Feedback        string `json:"feedback"`
}

type ProblemAnalysis struct {
	ProblemTitle   string `json:"problem_title"`
	Stage          Stage  `json:"stage"`
	Solved         bool   `json:"solved"`
	Feedback       string `json:"feedback"`
	ImprovementTip string `json:"improvement_tip,omitempty"`
}

type InterviewReview struct {
	QuestionSummary string  `json:"question_summary"`
	Score           float64 `json:"score"` // 0-10
	Feedback        string  `json:"feedback"`
	ImprovementTip  string  `json:"improvement_tip,omitempty"`
}

func (r ReportDocument) Value() (driver.Value, error) { return jsonValue(r) }
func (r *ReportDocument) Scan(src any) error          { return jsonScan(r, src) }
