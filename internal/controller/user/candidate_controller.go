package user

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/Skillgate/internal/apperr"
	"github.com/lshigami/Skillgate/internal/dto"
	"github.com/lshigami/Skillgate/internal/model"
	"github.com/lshigami/Skillgate/internal/service"
	"github.com/rs/zerolog/log"
)

type CandidateController struct {
	attemptService   service.AttemptService
	violationService service.ViolationService
	testService      service.TestService
}

func NewCandidateController(
	attemptService service.AttemptService,
	violationService service.ViolationService,
	testService service.TestService,
) *CandidateController {
	return &CandidateController{
		attemptService:   attemptService,
		violationService: violationService,
		testService:      testService,
	}
}

func respondError(ctx *gin.Context, err error) {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		ctx.JSON(appErr.HttpStatusCode(), dto.ErrorResponse{Message: appErr.Error(), Code: appErr.Code()})
		return
	}
	log.Error().Err(err).Str("path", ctx.FullPath()).Msg("Unhandled service error")
	ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "internal server error"})
}

func parseIDParam(ctx *gin.Context, name string) (uint, bool) {
	val, err := strconv.ParseUint(ctx.Param(name), 10, 32)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid " + name + " format"})
		return 0, false
	}
	return uint(val), true
}

func parseStageParam(ctx *gin.Context) (model.Stage, bool) {
	stage, err := model.ParseStage(ctx.Param("stage"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: err.Error()})
		return "", false
	}
	return stage, true
}

// ListActiveTests godoc
// @Summary (Candidate) List tests open for attempts
// @Description Active tests only, annotated with the candidate's used attempts.
// @Tags Candidate - Attempts
// @Produce json
// @Param candidate_id query int true "Candidate ID"
// @Success 200 {array} dto.TestSummaryDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid candidate ID format"
// @Router /tests [get]
func (c *CandidateController) ListActiveTests(ctx *gin.Context) {
	candidateID, err := strconv.ParseUint(ctx.Query("candidate_id"), 10, 32)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid candidate_id query parameter"})
		return
	}
	tests, listErr := c.testService.ListActiveForCandidate(uint(candidateID))
	if listErr != nil {
		respondError(ctx, listErr)
		return
	}
	ctx.JSON(http.StatusOK, tests)
}

// StartAttempt godoc
// @Summary (Candidate) Start or resume an attempt
// @Description Starts a new attempt on the test, or returns the candidate's attempt that is already in progress. Fails when the test is inactive or the attempt limit is reached.
// @Tags Candidate - Attempts
// @Accept json
// @Produce json
// @Param test_id path int true "Test ID"
// @Param attempt_data body dto.StartAttemptDTO true "Candidate identity"
// @Success 200 {object} dto.AttemptDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid input data"
// @Failure 404 {object} dto.ErrorResponse "Test not found"
// @Failure 409 {object} dto.ErrorResponse "Test inactive or attempt limit reached"
// @Router /tests/{test_id}/attempts [post]
func (c *CandidateController) StartAttempt(ctx *gin.Context) {
	testID, ok := parseIDParam(ctx, "test_id")
	if !ok {
		return
	}
	var req dto.StartAttemptDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		log.Warn().Err(err).Msg("StartAttempt: Failed to bind JSON")
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}
	attempt, err := c.attemptService.StartOrResume(testID, req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, attempt)
}

// GetAttempt godoc
// @Summary (Candidate) Get the current attempt snapshot
// @Description Full attempt state: per-stage statuses and scores, violation totals and the final report once built.
// @Tags Candidate - Attempts
// @Produce json
// @Param attempt_id path int true "Attempt ID"
// @Success 200 {object} dto.AttemptDTO
// @Failure 404 {object} dto.ErrorResponse "Attempt not found"
// @Router /attempts/{attempt_id} [get]
func (c *CandidateController) GetAttempt(ctx *gin.Context) {
	attemptID, ok := parseIDParam(ctx, "attempt_id")
	if !ok {
		return
	}
	attempt, err := c.attemptService.GetAttempt(attemptID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, attempt)
}

// ActivateStage godoc
// @Summary (Candidate) Activate a stage and fetch its content
// @Description Generates stage content on first activation and returns it. The stage must be unlocked by passing every earlier stage.
// @Tags Candidate - Attempts
// @Produce json
// @Param attempt_id path int true "Attempt ID"
// @Param stage path string true "Stage name (mcq, coding, sql, interview)"
// @Success 200 {object} dto.StageContentDTO
// @Failure 400 {object} dto.ErrorResponse "Unknown stage name"
// @Failure 404 {object} dto.ErrorResponse "Attempt not found"
// @Failure 409 {object} dto.ErrorResponse "Stage locked or attempt already finalized"
// @Router /attempts/{attempt_id}/stages/{stage}/activate [post]
func (c *CandidateController) ActivateStage(ctx *gin.Context) {
	attemptID, ok := parseIDParam(ctx, "attempt_id")
	if !ok {
		return
	}
	stage, ok := parseStageParam(ctx)
	if !ok {
		return
	}
	content, err := c.attemptService.ActivateStage(attemptID, stage)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, content)
}

// SubmitStageWork godoc
// @Summary (Candidate) Submit one coding solution or SQL answer
// @Description Runs a coding submission against its test cases, or evaluates a SQL answer. MCQ answers are submitted with FinishStage instead.
// @Tags Candidate - Attempts
// @Accept json
// @Produce json
// @Param attempt_id path int true "Attempt ID"
// @Param stage path string true "Stage name (coding or sql)"
// @Param submission_data body dto.StageSubmissionDTO true "Submission payload"
// @Success 200 {object} dto.SubmissionResultDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid submission"
// @Failure 404 {object} dto.ErrorResponse "Attempt not found"
// @Failure 409 {object} dto.ErrorResponse "Stage not in progress"
// @Router /attempts/{attempt_id}/stages/{stage}/submissions [post]
func (c *CandidateController) SubmitStageWork(ctx *gin.Context) {
	attemptID, ok := parseIDParam(ctx, "attempt_id")
	if !ok {
		return
	}
	stage, ok := parseStageParam(ctx)
	if !ok {
		return
	}
	var req dto.StageSubmissionDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		log.Warn().Err(err).Msg("SubmitStageWork: Failed to bind JSON")
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}
	result, err := c.attemptService.SubmitStageWork(attemptID, stage, req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, result)
}

// FinishStage godoc
// @Summary (Candidate) Finish a stage and get its gate result
// @Description Grades the stage and either unlocks the next one or fails the whole attempt. Finishing a stage twice, or after the attempt was finalized, returns the recorded result unchanged.
// @Tags Candidate - Attempts
// @Accept json
// @Produce json
// @Param attempt_id path int true "Attempt ID"
// @Param stage path string true "Stage name (mcq, coding, sql)"
// @Param finish_data body dto.FinishStageDTO true "MCQ answers keyed by question ID; empty for other stages"
// @Success 200 {object} dto.StageResultDTO
// @Failure 400 {object} dto.ErrorResponse "Unknown stage name"
// @Failure 404 {object} dto.ErrorResponse "Attempt not found"
// @Failure 409 {object} dto.ErrorResponse "Stage not in progress"
// @Router /attempts/{attempt_id}/stages/{stage}/finish [post]
func (c *CandidateController) FinishStage(ctx *gin.Context) {
	attemptID, ok := parseIDParam(ctx, "attempt_id")
	if !ok {
		return
	}
	stage, ok := parseStageParam(ctx)
	if !ok {
		return
	}
	var req dto.FinishStageDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		log.Warn().Err(err).Msg("FinishStage: Failed to bind JSON")
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}
	result, err := c.attemptService.FinishStage(attemptID, stage, req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, result)
}

// AnswerInterview godoc
// @Summary (Candidate) Answer the current interview question
// @Description Scores the answer and returns either the next question or the final interview verdict.
// @Tags Candidate - Attempts
// @Accept json
// @Produce json
// @Param attempt_id path int true "Attempt ID"
// @Param answer_data body dto.InterviewAnswerDTO true "Answer text"
// @Success 200 {object} dto.InterviewTurnDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid input data"
// @Failure 404 {object} dto.ErrorResponse "Attempt not found"
// @Failure 409 {object} dto.ErrorResponse "Interview not in progress"
// @Router /attempts/{attempt_id}/interview/answers [post]
func (c *CandidateController) AnswerInterview(ctx *gin.Context) {
	attemptID, ok := parseIDParam(ctx, "attempt_id")
	if !ok {
		return
	}
	var req dto.InterviewAnswerDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		log.Warn().Err(err).Msg("AnswerInterview: Failed to bind JSON")
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}
	turn, err := c.attemptService.AnswerInterview(attemptID, req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, turn)
}

// RunCode godoc
// @Summary (Candidate) Run code against custom input
// @Description Scratch execution without grading. Unsupported languages are reported, not rejected.
// @Tags Candidate - Attempts
// @Accept json
// @Produce json
// @Param run_data body dto.RunCodeDTO true "Code, language and stdin"
// @Success 200 {object} dto.RunCodeResultDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid input data"
// @Router /playground/code [post]
func (c *CandidateController) RunCode(ctx *gin.Context) {
	var req dto.RunCodeDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		log.Warn().Err(err).Msg("RunCode: Failed to bind JSON")
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}
	ctx.JSON(http.StatusOK, c.attemptService.RunCode(req))
}

// RunQuery godoc
// @Summary (Candidate) Run a SQL query against the sandbox
// @Description Read-only query against the attempt's sandbox tables. Results are capped at 100 rows.
// @Tags Candidate - Attempts
// @Accept json
// @Produce json
// @Param attempt_id path int true "Attempt ID"
// @Param query_data body dto.RunQueryDTO true "SQL query"
// @Success 200 {object} dto.RunQueryResultDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid input data"
// @Failure 404 {object} dto.ErrorResponse "Attempt not found"
// @Router /attempts/{attempt_id}/playground/sql [post]
func (c *CandidateController) RunQuery(ctx *gin.Context) {
	attemptID, ok := parseIDParam(ctx, "attempt_id")
	if !ok {
		return
	}
	var req dto.RunQueryDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		log.Warn().Err(err).Msg("RunQuery: Failed to bind JSON")
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}
	ctx.JSON(http.StatusOK, c.attemptService.RunQuery(attemptID, req))
}

// RecordViolation godoc
// @Summary (Candidate client) Report a proctoring violation event
// @Description Called by the proctoring client when it observes an event such as tab switching or multiple faces. Returns the updated cumulative score and whether the attempt was disqualified.
// @Tags Candidate - Proctoring
// @Accept json
// @Produce json
// @Param attempt_id path int true "Attempt ID"
// @Param event_data body dto.RecordViolationDTO true "Observed event"
// @Success 200 {object} dto.RecordViolationResultDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid input data"
// @Failure 404 {object} dto.ErrorResponse "Attempt not found"
// @Router /attempts/{attempt_id}/violations [post]
func (c *CandidateController) RecordViolation(ctx *gin.Context) {
	attemptID, ok := parseIDParam(ctx, "attempt_id")
	if !ok {
		return
	}
	var req dto.RecordViolationDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		log.Warn().Err(err).Msg("RecordViolation: Failed to bind JSON")
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}
	result, err := c.violationService.RecordViolation(attemptID, req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, result)
}
