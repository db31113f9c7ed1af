package service

import (
	"testing"

	"github.com/lshigami/Skillgate/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeChoice(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"A", 0},
		{"d", 3},
		{" B ", 1},
		{"0", 0},
		{"3", 3},
		{"10", 10},
		{"", -1},
		{"-1", -1},
		{"AB", -1},
		{"?", -1},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, normalizeChoice(tc.in), "input %q", tc.in)
	}
}

func TestGradeMCQCountsUnansweredAsWrong(t *testing.T) {
	questions := []model.MCQQuestion{
		{ID: 1, CorrectAnswer: 0},
		{ID: 2, CorrectAnswer: 1},
		{ID: 3, CorrectAnswer: 2},
		{ID: 4, CorrectAnswer: 3},
	}
	answers := map[string]string{
		"1": "A",       // correct, letter form
		"2": "1",       // correct, index form
		"3": "garbage", // unparseable counts as wrong
		// 4 unanswered
	}
	correct, score := gradeMCQ(questions, answers)
	assert.Equal(t, 2, correct)
	assert.InDelta(t, 50.0, score, 0.01)
}

func TestGradeMCQEmptyQuestionSet(t *testing.T) {
	correct, score := gradeMCQ(nil, map[string]string{"1": "A"})
	assert.Zero(t, correct)
	assert.Zero(t, score)
}

func TestGradeSolvedRatio(t *testing.T) {
	assert.InDelta(t, 66.66, gradeSolvedRatio(2, 3), 0.1)
	assert.Zero(t, gradeSolvedRatio(0, 3))
	assert.Zero(t, gradeSolvedRatio(0, 0))
	assert.InDelta(t, 100.0, gradeSolvedRatio(3, 3), 0.01)
}

func TestInterviewMeanCountsUnansweredAsZero(t *testing.T) {
	answered := "yes"
	turns := []model.InterviewTurn{
		{Answer: &answered, Score: 8},
		{Answer: &answered, Score: 6},
		{Score: 10}, // never answered, contributes zero
	}
	assert.InDelta(t, 14.0/3.0, interviewMean(turns), 0.01)
	assert.Zero(t, interviewMean(nil))
	assert.Zero(t, interviewMean([]model.InterviewTurn{{Score: 9}}))
}
