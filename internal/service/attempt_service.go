package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/lshigami/Skillgate/config"
	"github.com/lshigami/Skillgate/internal/apperr"
	"github.com/lshigami/Skillgate/internal/dto"
	"github.com/lshigami/Skillgate/internal/model"
	"github.com/lshigami/Skillgate/internal/repository"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// AttemptService drives the gated stage pipeline. All attempt mutations run
// under a per-attempt lock plus a versioned update, so each attempt behaves
// like a single-writer state machine even with concurrent requests.
type AttemptService interface {
	StartOrResume(testID uint, req dto.StartAttemptDTO) (*dto.AttemptDTO, error)
	GetAttempt(attemptID uint) (*dto.AttemptDTO, error)
	ActivateStage(attemptID uint, stage model.Stage) (*dto.StageContentDTO, error)
	SubmitStageWork(attemptID uint, stage model.Stage, req dto.StageSubmissionDTO) (*dto.SubmissionResultDTO, error)
	FinishStage(attemptID uint, stage model.Stage, req dto.FinishStageDTO) (*dto.StageResultDTO, error)
	AnswerInterview(attemptID uint, req dto.InterviewAnswerDTO) (*dto.InterviewTurnDTO, error)
	RunCode(req dto.RunCodeDTO) dto.RunCodeResultDTO
	RunQuery(attemptID uint, req dto.RunQueryDTO) dto.RunQueryResultDTO
	AttemptsForTest(testID uint) ([]dto.AttemptSummaryDTO, error)
	AttemptsForCandidate(candidateID uint) ([]dto.AttemptSummaryDTO, error)
}

type attemptService struct {
	attemptRepo repository.AttemptRepository
	testRepo    repository.TestRepository
	generator   ContentGenerator
	executor    CodeExecutor
	sandbox     SQLSandboxService
	reports     ReportService
	locker      *AttemptLocker
	cfg         *config.Config
}

func NewAttemptService(
	attemptRepo repository.AttemptRepository,
	testRepo repository.TestRepository,
	generator ContentGenerator,
	executor CodeExecutor,
	sandbox SQLSandboxService,
	reports ReportService,
	locker *AttemptLocker,
	cfg *config.Config,
) AttemptService {
	return &attemptService{
		attemptRepo: attemptRepo,
		testRepo:    testRepo,
		generator:   generator,
		executor:    executor,
		sandbox:     sandbox,
		reports:     reports,
		locker:      locker,
		cfg:         cfg,
	}
}

func (s *attemptService) generatorCtx() (context.Context, context.CancelFunc) {
	timeout := s.cfg.Assessment.GeneratorTimeout
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	return context.WithTimeout(context.Background(), timeout)
}

func (s *attemptService) loadAttempt(attemptID uint) (*model.Attempt, error) {
	attempt, err := s.attemptRepo.FindByID(attemptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrAttemptNotFound()
		}
		return nil, err
	}
	return attempt, nil
}

func (s *attemptService) loadTest(testID uint) (*model.Test, error) {
	test, err := s.testRepo.FindByID(testID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrTestNotFound()
		}
		return nil, err
	}
	return test, nil
}

func (s *attemptService) StartOrResume(testID uint, req dto.StartAttemptDTO) (*dto.AttemptDTO, error) {
	test, err := s.loadTest(testID)
	if err != nil {
		return nil, err
	}
	if !test.IsActive {
		return nil, apperr.ErrTestInactive()
	}

	// An open attempt is resumed as-is, never recreated.
	existing, err := s.attemptRepo.FindInProgress(testID, req.CandidateID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return s.toAttemptDTO(existing, test), nil
	}

	used, err := s.attemptRepo.CountByCandidate(testID, req.CandidateID)
	if err != nil {
		return nil, err
	}
	if test.AttemptLimit > 0 && used >= int64(test.AttemptLimit) {
		return nil, apperr.ErrAttemptLimitExceeded()
	}

	attempt := &model.Attempt{
		TestID:        testID,
		CandidateID:   req.CandidateID,
		CandidateName: req.CandidateName,
		AttemptNumber: int(used) + 1,
		CurrentStage:  model.StageMCQ,
		OverallStatus: model.OverallInProgress,
		MCQStatus:     model.StagePending,
		CodingStatus:  model.StagePending,
		SQLStatus:     model.StagePending,
		InterviewStatus: model.StagePending,
		Version:       1,
	}
	if err := s.attemptRepo.Create(attempt); err != nil {
		// The partial unique index rejects a second open attempt; a
		// concurrent start won the race, so resume that one.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			if winner, findErr := s.attemptRepo.FindInProgress(testID, req.CandidateID); findErr == nil && winner != nil {
				return s.toAttemptDTO(winner, test), nil
			}
		}
		return nil, err
	}
	log.Info().Uint("testID", testID).Uint("candidateID", req.CandidateID).
		Int("attemptNumber", attempt.AttemptNumber).Msg("Attempt started")
	return s.toAttemptDTO(attempt, test), nil
}

func (s *attemptService) GetAttempt(attemptID uint) (*dto.AttemptDTO, error) {
	attempt, err := s.loadAttempt(attemptID)
	if err != nil {
		return nil, err
	}
	test, err := s.loadTest(attempt.TestID)
	if err != nil {
		return nil, err
	}
	return s.toAttemptDTO(attempt, test), nil
}

func (s *attemptService) ActivateStage(attemptID uint, stage model.Stage) (*dto.StageContentDTO, error) {
	attempt, err := s.loadAttempt(attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.Terminal() {
		return nil, apperr.ErrAttemptTerminal()
	}
	if !attempt.StageUnlocked(stage) {
		return nil, apperr.ErrStageNotUnlocked()
	}
	test, err := s.loadTest(attempt.TestID)
	if err != nil {
		return nil, err
	}

	// Content generation runs outside the attempt lock: the generator can
	// take tens of seconds and must not block violation recording or other
	// writers. The lock is taken afterwards to install the content only if
	// no other activation got there first.
	var generated *model.Attempt
	if !attempt.HasContent(stage) {
		generated = &model.Attempt{}
		if err := s.generateStageContent(generated, test, stage, attempt.InterviewTurns); err != nil {
			return nil, err
		}
	}

	unlock := s.locker.Lock(attemptID)
	defer unlock()

	attempt, err = s.loadAttempt(attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.Terminal() {
		return nil, apperr.ErrAttemptTerminal()
	}
	if !attempt.StageUnlocked(stage) {
		return nil, apperr.ErrStageNotUnlocked()
	}

	dirty := false
	if !attempt.HasContent(stage) && generated != nil {
		switch stage {
		case model.StageMCQ:
			attempt.MCQQuestions = generated.MCQQuestions
		case model.StageCoding:
			attempt.CodingProblems = generated.CodingProblems
		case model.StageSQL:
			attempt.SQLProblems = generated.SQLProblems
		case model.StageInterview:
			attempt.InterviewTurns = generated.InterviewTurns
		}
		dirty = true
	}
	if attempt.StageStatusOf(stage) == model.StagePending {
		attempt.SetStageStatus(stage, model.StageInProgress)
		attempt.CurrentStage = stage
		if stage == model.StageMCQ && attempt.MCQStartTime == nil {
			now := time.Now().UTC()
			attempt.MCQStartTime = &now
		}
		dirty = true
	}
	if dirty {
		if err := s.attemptRepo.UpdateVersioned(attempt); err != nil {
			return nil, err
		}
	}

	return s.toStageContentDTO(attempt, test, stage), nil
}

// generateStageContent fills the stage content fields of dst, falling back to
// canned content when generation fails. Activation never fails because the
// model is unavailable.
func (s *attemptService) generateStageContent(dst *model.Attempt, test *model.Test, stage model.Stage, previousTurns []model.InterviewTurn) error {
	ctx, cancel := s.generatorCtx()
	defer cancel()

	switch stage {
	case model.StageMCQ:
		questions, err := s.generator.MCQQuestions(ctx, test.Skills, test.MCQCount)
		if err != nil {
			log.Warn().Err(err).Uint("testID", test.ID).Msg("MCQ generation failed, using fallback questions")
			questions = fallbackMCQ(test.Skills, test.MCQCount)
		}
		dst.MCQQuestions = questions
	case model.StageCoding:
		problems, err := s.generator.CodingProblems(ctx, test.Skills, test.CodingCount, "mixed")
		if err != nil {
			log.Warn().Err(err).Uint("testID", test.ID).Msg("Coding generation failed, using fallback problems")
			problems = fallbackCodingProblems(test.CodingCount, "mixed")
		}
		dst.CodingProblems = problems
	case model.StageSQL:
		if err := s.sandbox.EnsureTables(test.ID); err != nil {
			log.Warn().Err(err).Uint("testID", test.ID).Msg("Sandbox table creation skipped")
		}
		tables := sandboxTablesFor(test.ID)
		problems, err := s.generator.SQLProblems(ctx, test.Skills, test.SQLCount, tables)
		if err != nil {
			log.Warn().Err(err).Uint("testID", test.ID).Msg("SQL generation failed, using default problems")
			problems = defaultSQLProblems(test.SQLCount, tables)
		}
		dst.SQLProblems = problems
	case model.StageInterview:
		turn, err := s.generator.InterviewQuestion(ctx, test.Skills, previousTurns, 1, test.InterviewCount)
		if err != nil {
			log.Warn().Err(err).Uint("testID", test.ID).Msg("Interview question generation failed, using fallback question")
			turn = fallbackInterviewQuestion(test.Skills, 1)
		}
		dst.InterviewTurns = model.InterviewTurnList{turn}
	}
	return nil
}

// checkSubmittable guards a per-item submission against the attempt state.
// Called once before the unlocked evaluation and again under the lock, since
// the attempt can be terminated while an evaluation is running.
func (s *attemptService) checkSubmittable(attempt *model.Attempt, stage model.Stage) error {
	if attempt.Terminal() {
		return apperr.ErrAttemptTerminal()
	}
	if !attempt.StageUnlocked(stage) {
		return apperr.ErrStageNotUnlocked()
	}
	if attempt.StageStatusOf(stage).Finished() {
		return apperr.ErrStageAlreadyFinished()
	}
	if !attempt.HasContent(stage) {
		return apperr.ErrInvalidSubmission("stage has not been activated yet")
	}
	return nil
}

func (s *attemptService) SubmitStageWork(attemptID uint, stage model.Stage, req dto.StageSubmissionDTO) (*dto.SubmissionResultDTO, error) {
	attempt, err := s.loadAttempt(attemptID)
	if err != nil {
		return nil, err
	}
	if err := s.checkSubmittable(attempt, stage); err != nil {
		return nil, err
	}

	// Execution and evaluation run outside the attempt lock, like content
	// generation: a slow run must not block violation recording or other
	// writers. The lock is taken afterwards to install the verdict on fresh
	// state. Stage content is immutable once generated, so the problem
	// resolved from this snapshot stays valid.
	var result *dto.SubmissionResultDTO
	var install func(*model.Attempt)
	switch stage {
	case model.StageCoding:
		result, install, err = s.evaluateCoding(attempt, req)
	case model.StageSQL:
		result, install, err = s.evaluateSQL(attempt, req)
	default:
		return nil, apperr.ErrInvalidSubmission("per-item submission is only supported for coding and sql stages")
	}
	if err != nil {
		return nil, err
	}

	unlock := s.locker.Lock(attemptID)
	defer unlock()

	attempt, err = s.loadAttempt(attemptID)
	if err != nil {
		return nil, err
	}
	if err := s.checkSubmittable(attempt, stage); err != nil {
		return nil, err
	}
	install(attempt)
	if err := s.attemptRepo.UpdateVersioned(attempt); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *attemptService) evaluateCoding(attempt *model.Attempt, req dto.StageSubmissionDTO) (*dto.SubmissionResultDTO, func(*model.Attempt), error) {
	var problem *model.CodingProblem
	for i := range attempt.CodingProblems {
		if strconv.Itoa(attempt.CodingProblems[i].ID) == req.ItemID {
			problem = &attempt.CodingProblems[i]
			break
		}
	}
	if problem == nil {
		return nil, nil, apperr.ErrInvalidSubmission("problem not found in this attempt")
	}
	if req.Code == "" || req.Language == "" {
		return nil, nil, apperr.ErrInvalidSubmission("code and language are required")
	}

	passed, results := s.executor.RunTestCases(context.Background(), req.Code, req.Language, problem.TestCases)

	sub := model.CodingSubmission{
		Code:        req.Code,
		Language:    req.Language,
		SubmittedAt: time.Now().UTC(),
		Passed:      passed,
		TestResults: results,
	}
	out := &dto.SubmissionResultDTO{ItemID: req.ItemID, Passed: passed}
	for _, r := range results {
		out.TestResults = append(out.TestResults, dto.TestCaseResultDTO{
			Name: r.Name, Passed: r.Passed, Expected: r.Expected, Actual: r.Actual,
		})
	}
	install := func(fresh *model.Attempt) {
		if fresh.CodingSubmissions == nil {
			fresh.CodingSubmissions = model.CodingSubmissionMap{}
		}
		fresh.CodingSubmissions[req.ItemID] = sub
	}
	return out, install, nil
}

func (s *attemptService) evaluateSQL(attempt *model.Attempt, req dto.StageSubmissionDTO) (*dto.SubmissionResultDTO, func(*model.Attempt), error) {
	var problem *model.SQLProblem
	for i := range attempt.SQLProblems {
		if strconv.Itoa(attempt.SQLProblems[i].ID) == req.ItemID {
			problem = &attempt.SQLProblems[i]
			break
		}
	}
	if problem == nil {
		return nil, nil, apperr.ErrInvalidSubmission("problem not found in this attempt")
	}
	if req.Query == "" {
		return nil, nil, apperr.ErrInvalidSubmission("query is required")
	}

	var verdict model.SQLEvaluation
	if !isSelectQuery(req.Query) {
		verdict = model.SQLEvaluation{Passed: false, Feedback: "Only SELECT queries are allowed."}
	} else {
		ctx, cancel := s.generatorCtx()
		defer cancel()
		var err error
		verdict, err = s.generator.EvaluateSQLQuery(ctx, *problem, req.Query)
		if err != nil {
			log.Warn().Err(err).Uint("attemptID", attempt.ID).Msg("SQL evaluation failed, recording as unevaluated")
			verdict = fallbackSQLEvaluation()
		}
	}

	sub := model.SQLSubmission{
		Query:       req.Query,
		SubmittedAt: time.Now().UTC(),
		Passed:      verdict.Passed,
		Feedback:    verdict.Feedback,
	}
	install := func(fresh *model.Attempt) {
		if fresh.SQLSubmissions == nil {
			fresh.SQLSubmissions = model.SQLSubmissionMap{}
		}
		fresh.SQLSubmissions[req.ItemID] = sub
	}
	return &dto.SubmissionResultDTO{
		ItemID:   req.ItemID,
		Passed:   verdict.Passed,
		Feedback: verdict.Feedback,
	}, install, nil
}

func (s *attemptService) FinishStage(attemptID uint, stage model.Stage, req dto.FinishStageDTO) (*dto.StageResultDTO, error) {
	unlock := s.locker.Lock(attemptID)
	defer unlock()

	attempt, err := s.loadAttempt(attemptID)
	if err != nil {
		return nil, err
	}
	test, err := s.loadTest(attempt.TestID)
	if err != nil {
		return nil, err
	}

	// A repeated finish, or a finish racing a forced termination, returns
	// the already-recorded result rather than computing a fresh score.
	if attempt.StageStatusOf(stage).Finished() || attempt.Terminal() {
		result := s.recordedStageResult(attempt, test, stage)
		result.AlreadyFinished = true
		return result, nil
	}
	// The interview has no one-shot finish: it closes only when the last
	// configured question has been answered and scored.
	if stage == model.StageInterview {
		return nil, apperr.ErrInvalidSubmission("the interview finishes when its last question is answered")
	}
	if !attempt.StageUnlocked(stage) {
		return nil, apperr.ErrStageNotUnlocked()
	}
	if !attempt.HasContent(stage) {
		return nil, apperr.ErrInvalidSubmission("stage has not been activated yet")
	}

	if stage == model.StageMCQ && len(req.Answers) > 0 {
		if attempt.MCQAnswers == nil {
			attempt.MCQAnswers = model.MCQAnswerMap{}
		}
		for k, v := range req.Answers {
			attempt.MCQAnswers[k] = v
		}
	}

	score, solved, total := s.gradeStage(attempt, stage)
	passed := score >= test.ThresholdFor(stage)

	attempt.SetStageScore(stage, score)
	if passed {
		attempt.SetStageStatus(stage, model.StagePassed)
		next := model.NextStage(stage)
		attempt.CurrentStage = next
		if next == model.StageCompleted {
			attempt.OverallStatus = model.OverallCompleted
		}
	} else {
		attempt.SetStageStatus(stage, model.StageFailed)
		attempt.CurrentStage = model.StageCompleted
		attempt.OverallStatus = model.OverallFailed
	}

	if err := s.attemptRepo.UpdateVersioned(attempt); err != nil {
		return nil, err
	}

	log.Info().Uint("attemptID", attempt.ID).Str("stage", string(stage)).
		Float64("score", score).Bool("passed", passed).Msg("Stage finished")

	if attempt.Terminal() {
		s.reports.BuildAsync(attempt.ID)
	}

	result := &dto.StageResultDTO{
		Stage:         stage,
		Score:         score,
		Passed:        passed,
		Correct:       solved,
		Total:         total,
		OverallStatus: attempt.OverallStatus,
	}
	if passed {
		next := model.NextStage(stage)
		if next != model.StageCompleted {
			result.NextStage = &next
		}
	}
	return result, nil
}

// gradeStage computes the stage score from recorded work. Missing work
// counts against the candidate, never as an error.
func (s *attemptService) gradeStage(attempt *model.Attempt, stage model.Stage) (score float64, solved, total int) {
	switch stage {
	case model.StageMCQ:
		correct, sc := gradeMCQ(attempt.MCQQuestions, attempt.MCQAnswers)
		return sc, correct, len(attempt.MCQQuestions)
	case model.StageCoding:
		total = len(attempt.CodingProblems)
		for _, sub := range attempt.CodingSubmissions {
			if sub.Passed {
				solved++
			}
		}
		return gradeSolvedRatio(solved, total), solved, total
	case model.StageSQL:
		total = len(attempt.SQLProblems)
		for _, sub := range attempt.SQLSubmissions {
			if sub.Passed {
				solved++
			}
		}
		return gradeSolvedRatio(solved, total), solved, total
	case model.StageInterview:
		total = len(attempt.InterviewTurns)
		for _, t := range attempt.InterviewTurns {
			if t.Answer != nil {
				solved++
			}
		}
		return interviewMean(attempt.InterviewTurns), solved, total
	}
	return 0, 0, 0
}

// recordedStageResult rebuilds the result of an already finished stage from
// stored state.
func (s *attemptService) recordedStageResult(attempt *model.Attempt, test *model.Test, stage model.Stage) *dto.StageResultDTO {
	score := 0.0
	if recorded := attempt.StageScoreOf(stage); recorded != nil {
		score = *recorded
	}
	_, solved, total := s.gradeStage(attempt, stage)
	passed := attempt.StageStatusOf(stage) == model.StagePassed

	result := &dto.StageResultDTO{
		Stage:         stage,
		Score:         score,
		Passed:        passed,
		Correct:       solved,
		Total:         total,
		OverallStatus: attempt.OverallStatus,
	}
	if passed {
		next := model.NextStage(stage)
		if next != model.StageCompleted {
			result.NextStage = &next
		}
	}
	return result
}

// checkAnswerable guards an interview answer against the attempt state.
func (s *attemptService) checkAnswerable(attempt *model.Attempt) error {
	if attempt.InterviewStatus.Finished() {
		return apperr.ErrStageAlreadyFinished()
	}
	if attempt.Terminal() {
		return apperr.ErrAttemptTerminal()
	}
	if !attempt.StageUnlocked(model.StageInterview) {
		return apperr.ErrStageNotUnlocked()
	}
	if !attempt.HasContent(model.StageInterview) || attempt.InterviewIndex >= len(attempt.InterviewTurns) {
		return apperr.ErrInvalidSubmission("no open interview question")
	}
	return nil
}

func (s *attemptService) AnswerInterview(attemptID uint, req dto.InterviewAnswerDTO) (*dto.InterviewTurnDTO, error) {
	attempt, err := s.loadAttempt(attemptID)
	if err != nil {
		return nil, err
	}
	if err := s.checkAnswerable(attempt); err != nil {
		return nil, err
	}
	test, err := s.loadTest(attempt.TestID)
	if err != nil {
		return nil, err
	}

	// Scoring the answer and generating the follow-up question are slow
	// external calls, so they run outside the attempt lock on a snapshot.
	// The result is installed afterwards, and only if this question is
	// still the open one.
	index := attempt.InterviewIndex
	turn := attempt.InterviewTurns[index]

	ctx, cancel := s.generatorCtx()
	defer cancel()
	score, feedback, evalErr := s.generator.EvaluateInterviewAnswer(ctx, turn, req.Answer)
	if evalErr != nil {
		log.Warn().Err(evalErr).Uint("attemptID", attempt.ID).Msg("Interview evaluation failed, using neutral score")
		score, feedback = neutralInterviewEvaluation()
	}

	var next *model.InterviewTurn
	if index+1 < test.InterviewCount {
		answered := make([]model.InterviewTurn, len(attempt.InterviewTurns))
		copy(answered, attempt.InterviewTurns)
		answer := req.Answer
		answered[index].Answer = &answer
		answered[index].Score = score

		nextNumber := index + 2
		generated, genErr := s.generator.InterviewQuestion(ctx, test.Skills, answered, nextNumber, test.InterviewCount)
		if genErr != nil {
			log.Warn().Err(genErr).Uint("attemptID", attempt.ID).Msg("Next interview question generation failed, using fallback")
			generated = fallbackInterviewQuestion(test.Skills, nextNumber)
		}
		next = &generated
	}

	unlock := s.locker.Lock(attemptID)
	defer unlock()

	attempt, err = s.loadAttempt(attemptID)
	if err != nil {
		return nil, err
	}
	if err := s.checkAnswerable(attempt); err != nil {
		return nil, err
	}
	if attempt.InterviewIndex != index {
		return nil, apperr.ErrInvalidSubmission("question already answered")
	}

	answer := req.Answer
	current := &attempt.InterviewTurns[index]
	current.Answer = &answer
	current.Feedback = &feedback
	current.Score = score
	attempt.InterviewIndex++

	out := &dto.InterviewTurnDTO{
		Score:          score,
		Feedback:       feedback,
		QuestionNumber: attempt.InterviewIndex,
		OverallStatus:  attempt.OverallStatus,
	}

	if next != nil {
		attempt.InterviewTurns = append(attempt.InterviewTurns, *next)
		out.NextQuestion = &dto.InterviewQuestionDTO{
			Question:       next.Question,
			Category:       next.Category,
			Difficulty:     next.Difficulty,
			QuestionNumber: index + 2,
			TotalQuestions: test.InterviewCount,
		}
	} else {
		mean := interviewMean(attempt.InterviewTurns)
		passed := mean >= test.InterviewPassingScore

		attempt.SetStageScore(model.StageInterview, mean)
		if passed {
			attempt.InterviewStatus = model.StagePassed
			attempt.CurrentStage = model.StageCompleted
			attempt.OverallStatus = model.OverallCompleted
		} else {
			attempt.InterviewStatus = model.StageFailed
			attempt.CurrentStage = model.StageCompleted
			attempt.OverallStatus = model.OverallFailed
		}

		out.IsComplete = true
		out.Passed = &passed
		out.OverallScore = &mean
		out.OverallStatus = attempt.OverallStatus
	}

	if err := s.attemptRepo.UpdateVersioned(attempt); err != nil {
		return nil, err
	}
	if attempt.Terminal() {
		s.reports.BuildAsync(attempt.ID)
	}
	return out, nil
}

func (s *attemptService) RunCode(req dto.RunCodeDTO) dto.RunCodeResultDTO {
	res := s.executor.Run(context.Background(), req.Code, req.Language, req.Input)
	return dto.RunCodeResultDTO{Success: res.Success, Output: res.Output, Error: res.Error}
}

func (s *attemptService) RunQuery(attemptID uint, req dto.RunQueryDTO) dto.RunQueryResultDTO {
	attempt, err := s.loadAttempt(attemptID)
	if err != nil {
		return dto.RunQueryResultDTO{Success: false, Error: "attempt not found"}
	}
	columns, rows, runErr := s.sandbox.RunQuery(attempt.TestID, req.Query)
	if runErr != nil {
		return dto.RunQueryResultDTO{Success: false, Error: runErr.Error()}
	}
	return dto.RunQueryResultDTO{Success: true, Columns: columns, Rows: rows}
}

func (s *attemptService) AttemptsForTest(testID uint) ([]dto.AttemptSummaryDTO, error) {
	if _, err := s.loadTest(testID); err != nil {
		return nil, err
	}
	attempts, err := s.attemptRepo.FindByTest(testID)
	if err != nil {
		return nil, err
	}
	return s.toSummaries(attempts), nil
}

func (s *attemptService) AttemptsForCandidate(candidateID uint) ([]dto.AttemptSummaryDTO, error) {
	attempts, err := s.attemptRepo.FindByCandidate(candidateID)
	if err != nil {
		return nil, err
	}
	return s.toSummaries(attempts), nil
}

func (s *attemptService) toSummaries(attempts []model.Attempt) []dto.AttemptSummaryDTO {
	out := make([]dto.AttemptSummaryDTO, 0, len(attempts))
	for i := range attempts {
		a := &attempts[i]
		out = append(out, dto.AttemptSummaryDTO{
			ID:             a.ID,
			TestID:         a.TestID,
			CandidateID:    a.CandidateID,
			CandidateName:  a.CandidateName,
			AttemptNumber:  a.AttemptNumber,
			CurrentStage:   a.CurrentStage,
			OverallStatus:  a.OverallStatus,
			MCQScore:       a.MCQScore,
			CodingScore:    a.CodingScore,
			SQLScore:       a.SQLScore,
			InterviewScore: a.InterviewScore,
			CreatedAt:      a.CreatedAt,
		})
	}
	return out
}

func (s *attemptService) toAttemptDTO(attempt *model.Attempt, test *model.Test) *dto.AttemptDTO {
	return &dto.AttemptDTO{
		ID:            attempt.ID,
		TestID:        attempt.TestID,
		TestTitle:     test.Title,
		CandidateID:   attempt.CandidateID,
		CandidateName: attempt.CandidateName,
		AttemptNumber: attempt.AttemptNumber,
		CurrentStage:  attempt.CurrentStage,
		OverallStatus: attempt.OverallStatus,
		MCQ:           dto.StageStateDTO{Status: attempt.MCQStatus, Score: attempt.MCQScore},
		Coding:        dto.StageStateDTO{Status: attempt.CodingStatus, Score: attempt.CodingScore},
		SQL:           dto.StageStateDTO{Status: attempt.SQLStatus, Score: attempt.SQLScore},
		Interview:     dto.StageStateDTO{Status: attempt.InterviewStatus, Score: attempt.InterviewScore},

		CumulativeViolationScore: attempt.CumulativeViolationScore,
		ShouldDisqualify:         attempt.ShouldDisqualify,
		Report:                   attempt.Report,
		CreatedAt:                attempt.CreatedAt,
	}
}

func (s *attemptService) toStageContentDTO(attempt *model.Attempt, test *model.Test, stage model.Stage) *dto.StageContentDTO {
	out := &dto.StageContentDTO{Stage: stage}
	switch stage {
	case model.StageMCQ:
		for _, q := range attempt.MCQQuestions {
			out.MCQQuestions = append(out.MCQQuestions, dto.MCQItemDTO{
				ID:         q.ID,
				Question:   q.Question,
				Skill:      q.Skill,
				Difficulty: q.Difficulty,
				Options:    q.Options,
			})
		}
		out.MCQAnswers = attempt.MCQAnswers
		if attempt.MCQStartTime != nil && test.MCQDurationMinutes > 0 {
			end := attempt.MCQStartTime.Add(time.Duration(test.MCQDurationMinutes) * time.Minute)
			out.MCQEndTime = &end
		}
	case model.StageCoding:
		out.CodingProblems = attempt.CodingProblems
		out.CodingSubmissions = map[string]bool{}
		for id, sub := range attempt.CodingSubmissions {
			out.CodingSubmissions[id] = sub.Passed
		}
	case model.StageSQL:
		for _, p := range attempt.SQLProblems {
			out.SQLProblems = append(out.SQLProblems, dto.SQLProblemDTO{
				ID:              p.ID,
				Title:           p.Title,
				Description:     p.Description,
				Difficulty:      p.Difficulty,
				Hint:            p.Hint,
				ExpectedColumns: p.ExpectedColumns,
			})
		}
		out.SQLTables = s.sandbox.TableNamesFor(test.ID)
		out.SQLSubmissions = map[string]bool{}
		for id, sub := range attempt.SQLSubmissions {
			out.SQLSubmissions[id] = sub.Passed
		}
	case model.StageInterview:
		if attempt.InterviewIndex < len(attempt.InterviewTurns) {
			turn := attempt.InterviewTurns[attempt.InterviewIndex]
			out.Interview = &dto.InterviewQuestionDTO{
				Question:       turn.Question,
				Category:       turn.Category,
				Difficulty:     turn.Difficulty,
				QuestionNumber: attempt.InterviewIndex + 1,
				TotalQuestions: test.InterviewCount,
			}
		}
	}
	return out
}

func isSelectQuery(query string) bool {
	return strings.HasPrefix(strings.ToUpper(strings.TrimSpace(query)), "SELECT")
}
