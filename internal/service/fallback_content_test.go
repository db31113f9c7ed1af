package service

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFallbackMCQCapsAtThreePerSkill(t *testing.T) {
	questions := fallbackMCQ([]string{"go"}, 10)
	require.Len(t, questions, 3)

	for i, q := range questions {
		assert.Equal(t, i+1, q.ID)
		assert.Equal(t, "go", q.Skill)
		require.Len(t, q.Options, 4)
		require.GreaterOrEqual(t, q.CorrectAnswer, 0)
		require.Less(t, q.CorrectAnswer, 4)
		assert.Equal(t, "A fundamental principle of go", q.Options[q.CorrectAnswer])
	}
}

func TestFallbackMCQNoSkills(t *testing.T) {
	questions := fallbackMCQ(nil, 2)
	require.Len(t, questions, 2)
	assert.Equal(t, "programming", questions[0].Skill)
}

func TestFallbackCodingProblemsFilterAndCap(t *testing.T) {
	mixed := fallbackCodingProblems(3, "mixed")
	require.Len(t, mixed, 3)
	assert.Equal(t, "Two Sum", mixed[0].Title)
	for _, p := range mixed {
		assert.NotEmpty(t, p.TestCases)
		assert.Contains(t, p.StarterCode, "python")
		assert.Contains(t, p.StarterCode, "javascript")
	}

	easy := fallbackCodingProblems(5, "easy")
	require.Len(t, easy, 1)
	assert.Equal(t, "easy", easy[0].Difficulty)

	// An unknown difficulty falls back to the whole pool.
	unknown := fallbackCodingProblems(2, "brutal")
	require.Len(t, unknown, 2)
}

func TestDefaultSQLProblemsNameSandboxTables(t *testing.T) {
	tables := sandboxTablesFor(42)
	problems := defaultSQLProblems(3, tables)
	require.Len(t, problems, 3)
	assert.Contains(t, problems[0].Description, "st42_employees")
	assert.Contains(t, problems[2].ReferenceQuery, "st42_orders")

	assert.Len(t, defaultSQLProblems(99, tables), 3)
}

func TestFallbackInterviewQuestionDifficultyRamp(t *testing.T) {
	skills := []string{"go", "sql"}
	assert.Equal(t, "easy", fallbackInterviewQuestion(skills, 1).Difficulty)
	assert.Equal(t, "medium", fallbackInterviewQuestion(skills, 5).Difficulty)
	assert.Equal(t, "hard", fallbackInterviewQuestion(skills, 8).Difficulty)

	q := fallbackInterviewQuestion(skills, 1)
	assert.Contains(t, q.Question, q.Category)
}

func TestSandboxTableNamesArePerTest(t *testing.T) {
	a := sandboxTablesFor(1)
	b := sandboxTablesFor(2)
	assert.NotEqual(t, a.Employees, b.Employees)
	assert.Equal(t, fmt.Sprintf("st%d_employees", 1), a.Employees)
}

func TestDefaultReportShape(t *testing.T) {
	report := defaultReport()
	assert.Equal(t, "Average", report.OverallRating)
	assert.Contains(t, report.SectionFeedback, "interview")
}
