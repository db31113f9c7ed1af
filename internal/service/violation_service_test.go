package service

import (
	"sync"
	"testing"

	"github.com/lshigami/Skillgate/internal/apperr"
	"github.com/lshigami/Skillgate/internal/dto"
	"github.com/lshigami/Skillgate/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recordEvent(t *testing.T, env *testEnv, attemptID uint, eventType string) *dto.RecordViolationResultDTO {
	t.Helper()
	res, err := env.violations.RecordViolation(attemptID, dto.RecordViolationDTO{EventType: eventType})
	require.NoError(t, err)
	return res
}

func TestRecordViolationAccumulatesSeverity(t *testing.T) {
	env := newTestEnv(t, &stubGenerator{mcq: fiveMCQs()})
	test := env.createTest(t, nil)
	attempt := startAttempt(t, env, test.ID)

	first := recordEvent(t, env, attempt.ID, "tab_switch")
	assert.True(t, first.Accepted)
	assert.InDelta(t, 5.0, first.CumulativeViolationScore, 0.01)
	assert.False(t, first.Disqualified)

	second := recordEvent(t, env, attempt.ID, "fullscreen_exit")
	assert.InDelta(t, 13.0, second.CumulativeViolationScore, 0.01)
	assert.Equal(t, model.OverallInProgress, second.OverallStatus)
}

func TestUnknownViolationTypeIsIgnored(t *testing.T) {
	env := newTestEnv(t, &stubGenerator{mcq: fiveMCQs()})
	test := env.createTest(t, nil)
	attempt := startAttempt(t, env, test.ID)

	res := recordEvent(t, env, attempt.ID, "sneezed_loudly")
	assert.False(t, res.Accepted)
	assert.Zero(t, res.CumulativeViolationScore)

	summary, err := env.violations.ViolationSummary(attempt.ID)
	require.NoError(t, err)
	assert.Empty(t, summary.Events)
}

func TestThresholdBreachDisqualifiesOnce(t *testing.T) {
	env := newTestEnv(t, &stubGenerator{mcq: fiveMCQs()})
	test := env.createTest(t, func(tm *model.Test) { tm.ViolationThreshold = 100 })
	attempt := startAttempt(t, env, test.ID)

	// Three phone detections: 20 each plus MaxOccurrences=1 exceeded on the
	// second, which forces the disqualification before the raw threshold.
	first := recordEvent(t, env, attempt.ID, "phone_detected")
	assert.False(t, first.Disqualified)

	second := recordEvent(t, env, attempt.ID, "phone_detected")
	assert.True(t, second.Disqualified)
	assert.Equal(t, model.OverallFailed, second.OverallStatus)

	decision, err := env.violations.DecisionForAttempt(attempt.ID)
	require.NoError(t, err)
	assert.True(t, decision.ManualReviewNeeded)

	// A third event is still appended to the ledger but the frozen attempt
	// keeps its score and its single decision.
	third := recordEvent(t, env, attempt.ID, "phone_detected")
	assert.True(t, third.Accepted)
	assert.Equal(t, second.CumulativeViolationScore, third.CumulativeViolationScore)

	again, err := env.violations.DecisionForAttempt(attempt.ID)
	require.NoError(t, err)
	assert.Equal(t, decision.ID, again.ID)

	summary, err := env.violations.ViolationSummary(attempt.ID)
	require.NoError(t, err)
	assert.Len(t, summary.Events, 3)
}

func TestAutoDisqualifyingRuleTerminatesImmediately(t *testing.T) {
	env := newTestEnv(t, &stubGenerator{mcq: fiveMCQs()})
	test := env.createTest(t, nil)
	attempt := startAttempt(t, env, test.ID)

	res := recordEvent(t, env, attempt.ID, "multiple_faces")
	assert.True(t, res.Disqualified)
	assert.Equal(t, model.OverallFailed, res.OverallStatus)

	stored := env.reload(t, attempt.ID)
	assert.True(t, stored.ShouldDisqualify)
	assert.Equal(t, model.StageCompleted, stored.CurrentStage)
}

func TestSeverityOverridePerTest(t *testing.T) {
	env := newTestEnv(t, &stubGenerator{mcq: fiveMCQs()})
	test := env.createTest(t, nil)

	override := 50.0
	require.NoError(t, env.violations.ConfigureTestRules(test.ID, dto.ConfigureViolationRulesDTO{
		Rules: []dto.ViolationRuleConfigDTO{{ViolationType: "tab_switch", SeverityOverride: &override}},
	}))

	attempt := startAttempt(t, env, test.ID)
	res := recordEvent(t, env, attempt.ID, "tab_switch")
	assert.InDelta(t, 50.0, res.CumulativeViolationScore, 0.01)
}

func TestDisabledRuleDropsEvents(t *testing.T) {
	env := newTestEnv(t, &stubGenerator{mcq: fiveMCQs()})
	test := env.createTest(t, nil)

	disabled := false
	require.NoError(t, env.violations.ConfigureTestRules(test.ID, dto.ConfigureViolationRulesDTO{
		Rules: []dto.ViolationRuleConfigDTO{{ViolationType: "tab_switch", Enabled: &disabled}},
	}))

	attempt := startAttempt(t, env, test.ID)
	res := recordEvent(t, env, attempt.ID, "tab_switch")
	assert.False(t, res.Accepted)
	assert.Zero(t, res.CumulativeViolationScore)
}

func TestManualReviewOnlyTestKeepsAttemptOpen(t *testing.T) {
	env := newTestEnv(t, &stubGenerator{mcq: fiveMCQs()})
	test := env.createTest(t, func(tm *model.Test) { tm.AutoDisqualify = false })
	attempt := startAttempt(t, env, test.ID)

	res := recordEvent(t, env, attempt.ID, "multiple_faces")
	assert.True(t, res.Disqualified)
	assert.Equal(t, model.OverallInProgress, res.OverallStatus)

	stored := env.reload(t, attempt.ID)
	assert.True(t, stored.ShouldDisqualify)
	assert.Equal(t, model.OverallInProgress, stored.OverallStatus)

	// The decision exists for the review queue even though the candidate
	// keeps working.
	decision, err := env.violations.DecisionForAttempt(attempt.ID)
	require.NoError(t, err)
	assert.True(t, decision.ManualReviewNeeded)
}

func TestForcedTerminationBeatsFinish(t *testing.T) {
	env := newTestEnv(t, &stubGenerator{mcq: fiveMCQs()})
	test := env.createTest(t, nil)
	attempt := startAttempt(t, env, test.ID)

	content, err := env.attempts.ActivateStage(attempt.ID, model.StageMCQ)
	require.NoError(t, err)

	recordEvent(t, env, attempt.ID, "multiple_faces")

	// A finish arriving after the forced termination returns the terminal
	// standing instead of a fresh score.
	result, err := env.attempts.FinishStage(attempt.ID, model.StageMCQ, dto.FinishStageDTO{Answers: answersAllA(content.MCQQuestions)})
	require.NoError(t, err)
	assert.True(t, result.AlreadyFinished)
	assert.False(t, result.Passed)
	assert.Equal(t, model.OverallFailed, result.OverallStatus)
}

func TestReviewAnnotatesWithoutReopening(t *testing.T) {
	env := newTestEnv(t, &stubGenerator{mcq: fiveMCQs()})
	test := env.createTest(t, nil)
	attempt := startAttempt(t, env, test.ID)
	recordEvent(t, env, attempt.ID, "multiple_faces")

	pending, err := env.violations.PendingReviews()
	require.NoError(t, err)
	require.Len(t, pending, 1)

	reviewed, err := env.violations.ReviewDecision(pending[0].ID, dto.ReviewDecisionDTO{
		ReviewedBy: "reviewer@example.com",
		Decision:   "rejected",
		Notes:      "camera glitch",
	})
	require.NoError(t, err)
	require.NotNil(t, reviewed.ReviewDecision)
	assert.Equal(t, "rejected", *reviewed.ReviewDecision)

	// Even a rejected disqualification leaves the attempt terminal.
	stored := env.reload(t, attempt.ID)
	assert.Equal(t, model.OverallFailed, stored.OverallStatus)

	after, err := env.violations.PendingReviews()
	require.NoError(t, err)
	assert.Empty(t, after)
}

func TestReviewRejectsUnknownVerdict(t *testing.T) {
	env := newTestEnv(t, &stubGenerator{mcq: fiveMCQs()})
	test := env.createTest(t, nil)
	attempt := startAttempt(t, env, test.ID)
	recordEvent(t, env, attempt.ID, "multiple_faces")

	decision, err := env.violations.DecisionForAttempt(attempt.ID)
	require.NoError(t, err)

	_, err = env.violations.ReviewDecision(decision.ID, dto.ReviewDecisionDTO{
		ReviewedBy: "reviewer@example.com",
		Decision:   "maybe",
	})
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperr.CodeInvalidReview, appErr.Code())
}

func TestViolationSummaryAggregatesByType(t *testing.T) {
	env := newTestEnv(t, &stubGenerator{mcq: fiveMCQs()})
	test := env.createTest(t, nil)
	attempt := startAttempt(t, env, test.ID)

	recordEvent(t, env, attempt.ID, "tab_switch")
	recordEvent(t, env, attempt.ID, "tab_switch")
	recordEvent(t, env, attempt.ID, "face_lookaway")

	summary, err := env.violations.ViolationSummary(attempt.ID)
	require.NoError(t, err)
	assert.InDelta(t, 13.0, summary.CumulativeViolationScore, 0.01)
	require.Len(t, summary.ByType, 2)
	require.Len(t, summary.Events, 3)

	byType := map[string]dto.ViolationTypeSummaryDTO{}
	for _, agg := range summary.ByType {
		byType[agg.EventType] = agg
	}
	assert.Equal(t, 2, byType["tab_switch"].Count)
	assert.InDelta(t, 10.0, byType["tab_switch"].TotalSeverity, 0.01)
}

func TestViolationRacingFinishSettlesOnOneTerminalState(t *testing.T) {
	env := newTestEnv(t, &stubGenerator{mcq: fiveMCQs()})
	test := env.createTest(t, nil)
	attempt := startAttempt(t, env, test.ID)
	content, err := env.attempts.ActivateStage(attempt.ID, model.StageMCQ)
	require.NoError(t, err)
	answers := answersAllA(content.MCQQuestions)

	var wg sync.WaitGroup
	var finishRes *dto.StageResultDTO
	var finishErr, violErr error
	wg.Add(2)
	go func() {
		defer wg.Done()
		finishRes, finishErr = env.attempts.FinishStage(attempt.ID, model.StageMCQ, dto.FinishStageDTO{Answers: answers})
	}()
	go func() {
		defer wg.Done()
		_, violErr = env.violations.RecordViolation(attempt.ID, dto.RecordViolationDTO{EventType: "multiple_faces"})
	}()
	wg.Wait()

	require.NoError(t, finishErr)
	require.NoError(t, violErr)

	fresh := env.reload(t, attempt.ID)
	assert.True(t, fresh.Terminal())
	assert.Equal(t, model.OverallFailed, fresh.OverallStatus)
	assert.True(t, fresh.ShouldDisqualify)
	assert.InDelta(t, 25.0, fresh.CumulativeViolationScore, 0.01)

	// Whichever writer lost observed the winner's effects: either the finish
	// graded first and the violation then terminalized, or the finish found
	// the attempt already terminal and returned the recorded result.
	require.NotNil(t, finishRes)
	if finishRes.AlreadyFinished {
		assert.Equal(t, model.StageInProgress, fresh.MCQStatus)
	} else {
		assert.Equal(t, model.StagePassed, fresh.MCQStatus)
	}

	decision, err := env.violations.DecisionForAttempt(attempt.ID)
	require.NoError(t, err)
	require.NotNil(t, decision)
}
