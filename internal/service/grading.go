package service

import (
	"strconv"
	"strings"

	"github.com/lshigami/Skillgate/internal/model"
)

// normalizeChoice maps a candidate answer to an option index. Accepts a
// letter form ("A".."Z", case-insensitive) or a numeric index ("0", "1", ...).
// Returns -1 when the answer is in neither form.
func normalizeChoice(answer string) int {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return -1
	}
	if len(answer) == 1 {
		c := answer[0]
		if c >= 'A' && c <= 'Z' {
			return int(c - 'A')
		}
		if c >= 'a' && c <= 'z' {
			return int(c - 'a')
		}
	}
	if idx, err := strconv.Atoi(answer); err == nil && idx >= 0 {
		return idx
	}
	return -1
}

// gradeMCQ scores an answer map against the question set. Unanswered and
// unparseable answers count as wrong. Returns correct count and a 0-100 score.
func gradeMCQ(questions []model.MCQQuestion, answers map[string]string) (correct int, score float64) {
	if len(questions) == 0 {
		return 0, 0
	}
	for _, q := range questions {
		raw, ok := answers[strconv.Itoa(q.ID)]
		if !ok {
			continue
		}
		if normalizeChoice(raw) == q.CorrectAnswer {
			correct++
		}
	}
	score = float64(correct) / float64(len(questions)) * 100
	return correct, score
}

// gradeSolvedRatio converts solved/total into a 0-100 score. A missing
// submission counts as unsolved.
func gradeSolvedRatio(solved, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(solved) / float64(total) * 100
}

// interviewMean averages turn scores on the 0-10 scale. A turn with no
// recorded answer scores zero, so skipped questions count against the mean.
func interviewMean(turns []model.InterviewTurn) float64 {
	if len(turns) == 0 {
		return 0
	}
	var sum float64
	for _, t := range turns {
		if t.Answer == nil {
			continue
		}
		sum += t.Score
	}
	return sum / float64(len(turns))
}
