package service

import (
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/lshigami/Skillgate/internal/apperr"
	"github.com/lshigami/Skillgate/internal/dto"
	"github.com/lshigami/Skillgate/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startAttempt(t *testing.T, env *testEnv, testID uint) *dto.AttemptDTO {
	t.Helper()
	attempt, err := env.attempts.StartOrResume(testID, dto.StartAttemptDTO{CandidateID: 7, CandidateName: "Dana"})
	require.NoError(t, err)
	return attempt
}

func answersAllA(questions []dto.MCQItemDTO) map[string]string {
	out := map[string]string{}
	for _, q := range questions {
		out[strconv.Itoa(q.ID)] = "A"
	}
	return out
}

func TestStartOrResumeReturnsOpenAttempt(t *testing.T) {
	env := newTestEnv(t, &stubGenerator{mcq: fiveMCQs()})
	test := env.createTest(t, func(tm *model.Test) { tm.AttemptLimit = 3 })

	first := startAttempt(t, env, test.ID)
	second := startAttempt(t, env, test.ID)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, second.AttemptNumber)
	assert.Equal(t, model.StageMCQ, second.CurrentStage)
}

func TestStartOrResumeEnforcesAttemptLimit(t *testing.T) {
	env := newTestEnv(t, &stubGenerator{mcq: fiveMCQs()})
	test := env.createTest(t, func(tm *model.Test) { tm.AttemptLimit = 1 })

	attempt := startAttempt(t, env, test.ID)

	// Burn the only attempt by failing the MCQ gate.
	_, err := env.attempts.ActivateStage(attempt.ID, model.StageMCQ)
	require.NoError(t, err)
	_, err = env.attempts.FinishStage(attempt.ID, model.StageMCQ, dto.FinishStageDTO{})
	require.NoError(t, err)

	_, err = env.attempts.StartOrResume(test.ID, dto.StartAttemptDTO{CandidateID: 7})
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperr.CodeAttemptLimitExceeded, appErr.Code())
}

func TestStartOrResumeRejectsInactiveTest(t *testing.T) {
	env := newTestEnv(t, &stubGenerator{})
	test := env.createTest(t, func(tm *model.Test) { tm.IsActive = false })

	_, err := env.attempts.StartOrResume(test.ID, dto.StartAttemptDTO{CandidateID: 7})
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperr.CodeTestInactive, appErr.Code())
}

func TestActivateStageRequiresEarlierStagesPassed(t *testing.T) {
	env := newTestEnv(t, &stubGenerator{mcq: fiveMCQs()})
	test := env.createTest(t, nil)
	attempt := startAttempt(t, env, test.ID)

	for _, stage := range []model.Stage{model.StageCoding, model.StageSQL, model.StageInterview} {
		_, err := env.attempts.ActivateStage(attempt.ID, stage)
		var appErr *apperr.Error
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, apperr.CodeStageNotUnlocked, appErr.Code())
	}
}

func TestActivateStageGeneratesContentOnce(t *testing.T) {
	env := newTestEnv(t, &stubGenerator{mcq: fiveMCQs()})
	test := env.createTest(t, nil)
	attempt := startAttempt(t, env, test.ID)

	first, err := env.attempts.ActivateStage(attempt.ID, model.StageMCQ)
	require.NoError(t, err)
	require.Len(t, first.MCQQuestions, 5)
	require.NotNil(t, first.MCQEndTime)

	second, err := env.attempts.ActivateStage(attempt.ID, model.StageMCQ)
	require.NoError(t, err)
	assert.Equal(t, first.MCQQuestions, second.MCQQuestions)
	assert.Equal(t, first.MCQEndTime.Unix(), second.MCQEndTime.Unix())
}

func TestActivateStageFallsBackWhenGeneratorFails(t *testing.T) {
	env := newTestEnv(t, &stubGenerator{failAll: true})
	test := env.createTest(t, nil)
	attempt := startAttempt(t, env, test.ID)

	content, err := env.attempts.ActivateStage(attempt.ID, model.StageMCQ)
	require.NoError(t, err)
	assert.NotEmpty(t, content.MCQQuestions, "activation must succeed on canned content when generation fails")
}

func TestMCQFinishPassesAndUnlocksCoding(t *testing.T) {
	env := newTestEnv(t, &stubGenerator{mcq: fiveMCQs()})
	test := env.createTest(t, nil)
	attempt := startAttempt(t, env, test.ID)

	content, err := env.attempts.ActivateStage(attempt.ID, model.StageMCQ)
	require.NoError(t, err)

	answers := answersAllA(content.MCQQuestions)
	delete(answers, "5") // 4/5 correct

	result, err := env.attempts.FinishStage(attempt.ID, model.StageMCQ, dto.FinishStageDTO{Answers: answers})
	require.NoError(t, err)
	assert.True(t, result.Passed)
	assert.InDelta(t, 80.0, result.Score, 0.01)
	assert.Equal(t, 4, result.Correct)
	require.NotNil(t, result.NextStage)
	assert.Equal(t, model.StageCoding, *result.NextStage)
	assert.Equal(t, model.OverallInProgress, result.OverallStatus)
}

func TestMCQFinishFailureTerminatesAttempt(t *testing.T) {
	env := newTestEnv(t, &stubGenerator{mcq: fiveMCQs()})
	test := env.createTest(t, nil)
	attempt := startAttempt(t, env, test.ID)

	_, err := env.attempts.ActivateStage(attempt.ID, model.StageMCQ)
	require.NoError(t, err)

	result, err := env.attempts.FinishStage(attempt.ID, model.StageMCQ, dto.FinishStageDTO{
		Answers: map[string]string{"1": "B", "2": "B"},
	})
	require.NoError(t, err)
	assert.False(t, result.Passed)
	assert.Equal(t, model.OverallFailed, result.OverallStatus)
	assert.Nil(t, result.NextStage)

	stored := env.reload(t, attempt.ID)
	assert.Equal(t, model.StageCompleted, stored.CurrentStage)
	assert.Equal(t, model.StageFailed, stored.MCQStatus)
	// Later stages stay pending forever.
	assert.Equal(t, model.StagePending, stored.CodingStatus)
}

func TestFinishStageIsWriteOnce(t *testing.T) {
	env := newTestEnv(t, &stubGenerator{mcq: fiveMCQs()})
	test := env.createTest(t, nil)
	attempt := startAttempt(t, env, test.ID)

	content, err := env.attempts.ActivateStage(attempt.ID, model.StageMCQ)
	require.NoError(t, err)

	first, err := env.attempts.FinishStage(attempt.ID, model.StageMCQ, dto.FinishStageDTO{Answers: answersAllA(content.MCQQuestions)})
	require.NoError(t, err)
	require.True(t, first.Passed)
	assert.False(t, first.AlreadyFinished)

	// A second finish with worse answers must not re-grade.
	second, err := env.attempts.FinishStage(attempt.ID, model.StageMCQ, dto.FinishStageDTO{
		Answers: map[string]string{"1": "B"},
	})
	require.NoError(t, err)
	assert.True(t, second.AlreadyFinished)
	assert.Equal(t, first.Score, second.Score)
	assert.True(t, second.Passed)
}

func passMCQ(t *testing.T, env *testEnv, attemptID uint) {
	t.Helper()
	content, err := env.attempts.ActivateStage(attemptID, model.StageMCQ)
	require.NoError(t, err)
	result, err := env.attempts.FinishStage(attemptID, model.StageMCQ, dto.FinishStageDTO{Answers: answersAllA(content.MCQQuestions)})
	require.NoError(t, err)
	require.True(t, result.Passed)
}

func TestCodingSubmissionAndPartialScore(t *testing.T) {
	env := newTestEnv(t, &stubGenerator{mcq: fiveMCQs(), coding: threeCodingProblems()})
	test := env.createTest(t, nil)
	attempt := startAttempt(t, env, test.ID)
	passMCQ(t, env, attempt.ID)

	content, err := env.attempts.ActivateStage(attempt.ID, model.StageCoding)
	require.NoError(t, err)
	require.Len(t, content.CodingProblems, 3)

	// Two passing submissions, one failing resubmission chain on problem 3.
	for _, itemID := range []string{"1", "2"} {
		res, err := env.attempts.SubmitStageWork(attempt.ID, model.StageCoding, dto.StageSubmissionDTO{
			ItemID: itemID, Code: "correct solution", Language: "python",
		})
		require.NoError(t, err)
		assert.True(t, res.Passed)
	}
	res, err := env.attempts.SubmitStageWork(attempt.ID, model.StageCoding, dto.StageSubmissionDTO{
		ItemID: "3", Code: "broken", Language: "python",
	})
	require.NoError(t, err)
	assert.False(t, res.Passed)

	result, err := env.attempts.FinishStage(attempt.ID, model.StageCoding, dto.FinishStageDTO{})
	require.NoError(t, err)
	assert.True(t, result.Passed)
	assert.InDelta(t, 66.66, result.Score, 0.1)
	assert.Equal(t, 2, result.Correct)
	assert.Equal(t, 3, result.Total)
}

func TestResubmissionReplacesEarlierVerdict(t *testing.T) {
	env := newTestEnv(t, &stubGenerator{mcq: fiveMCQs(), coding: threeCodingProblems()})
	test := env.createTest(t, nil)
	attempt := startAttempt(t, env, test.ID)
	passMCQ(t, env, attempt.ID)
	_, err := env.attempts.ActivateStage(attempt.ID, model.StageCoding)
	require.NoError(t, err)

	_, err = env.attempts.SubmitStageWork(attempt.ID, model.StageCoding, dto.StageSubmissionDTO{
		ItemID: "1", Code: "correct solution", Language: "python",
	})
	require.NoError(t, err)
	_, err = env.attempts.SubmitStageWork(attempt.ID, model.StageCoding, dto.StageSubmissionDTO{
		ItemID: "1", Code: "broken rewrite", Language: "python",
	})
	require.NoError(t, err)

	// The last verdict counts, even when it is worse.
	stored := env.reload(t, attempt.ID)
	assert.False(t, stored.CodingSubmissions["1"].Passed)
}

func passCoding(t *testing.T, env *testEnv, attemptID uint, solved int) {
	t.Helper()
	_, err := env.attempts.ActivateStage(attemptID, model.StageCoding)
	require.NoError(t, err)
	for i := 1; i <= solved; i++ {
		_, err := env.attempts.SubmitStageWork(attemptID, model.StageCoding, dto.StageSubmissionDTO{
			ItemID: strconv.Itoa(i), Code: "correct solution", Language: "python",
		})
		require.NoError(t, err)
	}
	result, err := env.attempts.FinishStage(attemptID, model.StageCoding, dto.FinishStageDTO{})
	require.NoError(t, err)
	require.True(t, result.Passed)
}

func TestSQLStageFailureBlocksInterview(t *testing.T) {
	gen := &stubGenerator{
		mcq:         fiveMCQs(),
		coding:      threeCodingProblems(),
		sqlProblems: threeSQLProblems(),
		sqlVerdict:  model.SQLEvaluation{Passed: true, Feedback: "ok", Score: 90},
	}
	env := newTestEnv(t, gen)
	test := env.createTest(t, nil)
	attempt := startAttempt(t, env, test.ID)
	passMCQ(t, env, attempt.ID)
	passCoding(t, env, attempt.ID, 2)

	_, err := env.attempts.ActivateStage(attempt.ID, model.StageSQL)
	require.NoError(t, err)

	// One of three correct: 33.3 is below the 50 threshold.
	_, err = env.attempts.SubmitStageWork(attempt.ID, model.StageSQL, dto.StageSubmissionDTO{
		ItemID: "1", Query: "SELECT 1",
	})
	require.NoError(t, err)

	result, err := env.attempts.FinishStage(attempt.ID, model.StageSQL, dto.FinishStageDTO{})
	require.NoError(t, err)
	assert.False(t, result.Passed)
	assert.InDelta(t, 33.33, result.Score, 0.1)
	assert.Equal(t, model.OverallFailed, result.OverallStatus)

	_, err = env.attempts.ActivateStage(attempt.ID, model.StageInterview)
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperr.CodeAttemptTerminal, appErr.Code())

	stored := env.reload(t, attempt.ID)
	assert.Equal(t, model.StagePending, stored.InterviewStatus)
}

func TestSQLSubmissionRejectsNonSelect(t *testing.T) {
	gen := &stubGenerator{
		mcq:         fiveMCQs(),
		coding:      threeCodingProblems(),
		sqlProblems: threeSQLProblems(),
		sqlVerdict:  model.SQLEvaluation{Passed: true},
	}
	env := newTestEnv(t, gen)
	test := env.createTest(t, nil)
	attempt := startAttempt(t, env, test.ID)
	passMCQ(t, env, attempt.ID)
	passCoding(t, env, attempt.ID, 2)
	_, err := env.attempts.ActivateStage(attempt.ID, model.StageSQL)
	require.NoError(t, err)

	res, err := env.attempts.SubmitStageWork(attempt.ID, model.StageSQL, dto.StageSubmissionDTO{
		ItemID: "1", Query: "DROP TABLE st1_employees",
	})
	require.NoError(t, err)
	assert.False(t, res.Passed)
	assert.Contains(t, res.Feedback, "SELECT")
}

func passSQL(t *testing.T, env *testEnv, attemptID uint) {
	t.Helper()
	_, err := env.attempts.ActivateStage(attemptID, model.StageSQL)
	require.NoError(t, err)
	for _, itemID := range []string{"1", "2"} {
		_, err := env.attempts.SubmitStageWork(attemptID, model.StageSQL, dto.StageSubmissionDTO{
			ItemID: itemID, Query: "SELECT * FROM st1_employees",
		})
		require.NoError(t, err)
	}
	result, err := env.attempts.FinishStage(attemptID, model.StageSQL, dto.FinishStageDTO{})
	require.NoError(t, err)
	require.True(t, result.Passed)
}

func TestInterviewCompletesAttempt(t *testing.T) {
	gen := &stubGenerator{
		mcq:            fiveMCQs(),
		coding:         threeCodingProblems(),
		sqlProblems:    threeSQLProblems(),
		sqlVerdict:     model.SQLEvaluation{Passed: true},
		interviewScore: 8,
	}
	env := newTestEnv(t, gen)
	test := env.createTest(t, nil)
	attempt := startAttempt(t, env, test.ID)
	passMCQ(t, env, attempt.ID)
	passCoding(t, env, attempt.ID, 2)
	passSQL(t, env, attempt.ID)

	content, err := env.attempts.ActivateStage(attempt.ID, model.StageInterview)
	require.NoError(t, err)
	require.NotNil(t, content.Interview)
	assert.Equal(t, 1, content.Interview.QuestionNumber)
	assert.Equal(t, 2, content.Interview.TotalQuestions)

	turn, err := env.attempts.AnswerInterview(attempt.ID, dto.InterviewAnswerDTO{Answer: "first answer"})
	require.NoError(t, err)
	assert.False(t, turn.IsComplete)
	require.NotNil(t, turn.NextQuestion)
	assert.Equal(t, 2, turn.NextQuestion.QuestionNumber)

	final, err := env.attempts.AnswerInterview(attempt.ID, dto.InterviewAnswerDTO{Answer: "second answer"})
	require.NoError(t, err)
	assert.True(t, final.IsComplete)
	require.NotNil(t, final.Passed)
	assert.True(t, *final.Passed)
	require.NotNil(t, final.OverallScore)
	assert.InDelta(t, 8.0, *final.OverallScore, 0.01)
	assert.Equal(t, model.OverallCompleted, final.OverallStatus)

	_, err = env.attempts.AnswerInterview(attempt.ID, dto.InterviewAnswerDTO{Answer: "extra"})
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperr.CodeStageAlreadyFinished, appErr.Code())
}

func TestInterviewFailureMarksAttemptFailed(t *testing.T) {
	gen := &stubGenerator{
		mcq:            fiveMCQs(),
		coding:         threeCodingProblems(),
		sqlProblems:    threeSQLProblems(),
		sqlVerdict:     model.SQLEvaluation{Passed: true},
		interviewScore: 3,
	}
	env := newTestEnv(t, gen)
	test := env.createTest(t, nil)
	attempt := startAttempt(t, env, test.ID)
	passMCQ(t, env, attempt.ID)
	passCoding(t, env, attempt.ID, 2)
	passSQL(t, env, attempt.ID)

	_, err := env.attempts.ActivateStage(attempt.ID, model.StageInterview)
	require.NoError(t, err)
	_, err = env.attempts.AnswerInterview(attempt.ID, dto.InterviewAnswerDTO{Answer: "a"})
	require.NoError(t, err)
	final, err := env.attempts.AnswerInterview(attempt.ID, dto.InterviewAnswerDTO{Answer: "b"})
	require.NoError(t, err)

	assert.True(t, final.IsComplete)
	require.NotNil(t, final.Passed)
	assert.False(t, *final.Passed)
	assert.Equal(t, model.OverallFailed, final.OverallStatus)

	stored := env.reload(t, attempt.ID)
	assert.Equal(t, model.StageCompleted, stored.CurrentStage)
	assert.Equal(t, model.StageFailed, stored.InterviewStatus)
}

func TestInterviewEvaluationFallbackScoresNeutral(t *testing.T) {
	gen := &stubGenerator{
		mcq:         fiveMCQs(),
		coding:      threeCodingProblems(),
		sqlProblems: threeSQLProblems(),
		sqlVerdict:  model.SQLEvaluation{Passed: true},
	}
	env := newTestEnv(t, gen)
	test := env.createTest(t, func(tm *model.Test) { tm.InterviewCount = 1 })
	attempt := startAttempt(t, env, test.ID)
	passMCQ(t, env, attempt.ID)
	passCoding(t, env, attempt.ID, 2)
	passSQL(t, env, attempt.ID)
	_, err := env.attempts.ActivateStage(attempt.ID, model.StageInterview)
	require.NoError(t, err)

	gen.failAll = true
	final, err := env.attempts.AnswerInterview(attempt.ID, dto.InterviewAnswerDTO{Answer: "answer"})
	require.NoError(t, err)
	assert.True(t, final.IsComplete)
	assert.InDelta(t, 5.0, final.Score, 0.01)
}

func TestSubmitAfterStageFinishedIsRejected(t *testing.T) {
	env := newTestEnv(t, &stubGenerator{mcq: fiveMCQs(), coding: threeCodingProblems()})
	test := env.createTest(t, nil)
	attempt := startAttempt(t, env, test.ID)
	passMCQ(t, env, attempt.ID)
	passCoding(t, env, attempt.ID, 2)

	_, err := env.attempts.SubmitStageWork(attempt.ID, model.StageCoding, dto.StageSubmissionDTO{
		ItemID: "3", Code: "correct solution", Language: "python",
	})
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperr.CodeStageAlreadyFinished, appErr.Code())
}

func TestRunQueryUsesSandbox(t *testing.T) {
	env := newTestEnv(t, &stubGenerator{mcq: fiveMCQs()})
	test := env.createTest(t, nil)
	attempt := startAttempt(t, env, test.ID)

	res := env.attempts.RunQuery(attempt.ID, dto.RunQueryDTO{Query: "SELECT id FROM st1_employees"})
	assert.True(t, res.Success)
	assert.Equal(t, []string{"id"}, res.Columns)
	require.Len(t, res.Rows, 1)
}

func TestInterviewRejectsGenericStageFinish(t *testing.T) {
	gen := &stubGenerator{
		mcq:            fiveMCQs(),
		coding:         threeCodingProblems(),
		sqlProblems:    threeSQLProblems(),
		sqlVerdict:     model.SQLEvaluation{Passed: true},
		interviewScore: 9,
	}
	env := newTestEnv(t, gen)
	test := env.createTest(t, nil)
	attempt := startAttempt(t, env, test.ID)
	passMCQ(t, env, attempt.ID)
	passCoding(t, env, attempt.ID, 2)
	passSQL(t, env, attempt.ID)

	_, err := env.attempts.ActivateStage(attempt.ID, model.StageInterview)
	require.NoError(t, err)
	turn, err := env.attempts.AnswerInterview(attempt.ID, dto.InterviewAnswerDTO{Answer: "strong answer"})
	require.NoError(t, err)
	require.False(t, turn.IsComplete)

	// One of two questions answered well: finishing through the generic
	// stage endpoint must not close the interview on the partial mean.
	_, err = env.attempts.FinishStage(attempt.ID, model.StageInterview, dto.FinishStageDTO{})
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperr.CodeInvalidSubmission, appErr.Code())

	fresh := env.reload(t, attempt.ID)
	assert.Equal(t, model.StageInProgress, fresh.InterviewStatus)
	assert.Equal(t, model.OverallInProgress, fresh.OverallStatus)
	assert.Nil(t, fresh.InterviewScore)

	// The stage still closes the normal way, over all configured questions.
	final, err := env.attempts.AnswerInterview(attempt.ID, dto.InterviewAnswerDTO{Answer: "second answer"})
	require.NoError(t, err)
	assert.True(t, final.IsComplete)
	assert.Equal(t, model.OverallCompleted, final.OverallStatus)
}

func TestConcurrentFinishStageHasOneWinner(t *testing.T) {
	env := newTestEnv(t, &stubGenerator{mcq: fiveMCQs()})
	test := env.createTest(t, nil)
	attempt := startAttempt(t, env, test.ID)
	content, err := env.attempts.ActivateStage(attempt.ID, model.StageMCQ)
	require.NoError(t, err)
	answers := answersAllA(content.MCQQuestions)

	results := make([]*dto.StageResultDTO, 2)
	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = env.attempts.FinishStage(attempt.ID, model.StageMCQ, dto.FinishStageDTO{Answers: answers})
		}(i)
	}
	wg.Wait()

	computed := 0
	for i := range results {
		require.NoError(t, errs[i])
		require.NotNil(t, results[i])
		assert.True(t, results[i].Passed)
		if !results[i].AlreadyFinished {
			computed++
		}
	}
	assert.Equal(t, 1, computed)

	fresh := env.reload(t, attempt.ID)
	assert.Equal(t, model.StagePassed, fresh.MCQStatus)
	assert.Equal(t, model.StageCoding, fresh.CurrentStage)
}

func TestPendingEvaluationDoesNotBlockViolationRecording(t *testing.T) {
	gen := &stubGenerator{
		mcq:            fiveMCQs(),
		coding:         threeCodingProblems(),
		sqlProblems:    threeSQLProblems(),
		sqlVerdict:     model.SQLEvaluation{Passed: true},
		sqlEvalStarted: make(chan struct{}),
		sqlEvalRelease: make(chan struct{}),
	}
	env := newTestEnv(t, gen)
	test := env.createTest(t, nil)
	attempt := startAttempt(t, env, test.ID)
	passMCQ(t, env, attempt.ID)
	passCoding(t, env, attempt.ID, 2)
	_, err := env.attempts.ActivateStage(attempt.ID, model.StageSQL)
	require.NoError(t, err)

	submitDone := make(chan error, 1)
	go func() {
		_, submitErr := env.attempts.SubmitStageWork(attempt.ID, model.StageSQL, dto.StageSubmissionDTO{
			ItemID: "1", Query: "SELECT * FROM st1_employees",
		})
		submitDone <- submitErr
	}()
	<-gen.sqlEvalStarted

	// The evaluation is in flight; a proctoring event must still go through
	// without waiting for it.
	recordDone := make(chan error, 1)
	go func() {
		_, violErr := env.violations.RecordViolation(attempt.ID, dto.RecordViolationDTO{EventType: "multiple_faces"})
		recordDone <- violErr
	}()
	select {
	case violErr := <-recordDone:
		require.NoError(t, violErr)
	case <-time.After(2 * time.Second):
		t.Fatal("violation recording blocked behind a pending evaluation")
	}

	// The violation terminalized the attempt mid-evaluation, so the verdict
	// is discarded when the submission re-checks the attempt state.
	close(gen.sqlEvalRelease)
	submitErr := <-submitDone
	var appErr *apperr.Error
	require.ErrorAs(t, submitErr, &appErr)
	assert.Equal(t, apperr.CodeAttemptTerminal, appErr.Code())

	fresh := env.reload(t, attempt.ID)
	assert.Equal(t, model.OverallFailed, fresh.OverallStatus)
	assert.Empty(t, fresh.SQLSubmissions)
}
