package admin

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/Skillgate/internal/apperr"
	"github.com/lshigami/Skillgate/internal/dto"
	"github.com/lshigami/Skillgate/internal/service"
	"github.com/rs/zerolog/log"
)

type AdminTestController struct {
	testService    service.TestService
	attemptService service.AttemptService
}

func NewAdminTestController(testService service.TestService, attemptService service.AttemptService) *AdminTestController {
	return &AdminTestController{testService: testService, attemptService: attemptService}
}

// respondError maps a service error onto the uniform error payload. Typed
// errors carry their own HTTP status; anything else is a 500.
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

// CreateTest godoc
// @Summary (Admin) Create a new assessment test
// @Description Define a test with its skills, per-stage question counts, passing scores and proctoring settings. Omitted counts and scores fall back to defaults.
// @Tags Admin - Tests
// @Accept json
// @Produce json
// @Param test_data body dto.TestCreateDTO true "Test definition"
// @Success 201 {object} dto.TestResponseDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid input data"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /admin/tests [post]
func (c *AdminTestController) CreateTest(ctx *gin.Context) {
	var req dto.TestCreateDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		log.Warn().Err(err).Msg("Admin CreateTest: Failed to bind JSON")
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}

	testResp, err := c.testService.CreateTest(req)
	if err != nil {
		log.Error().Err(err).Msg("Admin CreateTest: Service error")
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, testResp)
}

// GetTest godoc
// @Summary (Admin) Get a test definition
// @Tags Admin - Tests
// @Produce json
// @Param test_id path int true "Test ID"
// @Success 200 {object} dto.TestResponseDTO
// @Failure 404 {object} dto.ErrorResponse "Test not found"
// @Router /admin/tests/{test_id} [get]
func (c *AdminTestController) GetTest(ctx *gin.Context) {
	testID, ok := parseIDParam(ctx, "test_id")
	if !ok {
		return
	}
	testResp, err := c.testService.GetTest(testID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, testResp)
}

// ListTests godoc
// @Summary (Admin) List all test definitions
// @Tags Admin - Tests
// @Produce json
// @Success 200 {array} dto.TestResponseDTO
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /admin/tests [get]
func (c *AdminTestController) ListTests(ctx *gin.Context) {
	tests, err := c.testService.ListTests()
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, tests)
}

// SetTestActive godoc
// @Summary (Admin) Activate or deactivate a test
// @Description Deactivating a test blocks new attempts; attempts already in progress are unaffected.
// @Tags Admin - Tests
// @Accept json
// @Produce json
// @Param test_id path int true "Test ID"
// @Param active_data body dto.SetTestActiveDTO true "Desired active flag"
// @Success 200 {object} dto.TestResponseDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid input data"
// @Failure 404 {object} dto.ErrorResponse "Test not found"
// @Router /admin/tests/{test_id}/active [put]
func (c *AdminTestController) SetTestActive(ctx *gin.Context) {
	testID, ok := parseIDParam(ctx, "test_id")
	if !ok {
		return
	}
	var req dto.SetTestActiveDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		log.Warn().Err(err).Msg("Admin SetTestActive: Failed to bind JSON")
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}
	testResp, err := c.testService.SetActive(testID, *req.IsActive)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, testResp)
}

// DeleteTest godoc
// @Summary (Admin) Delete a test definition
// @Description Removes the test and drops its SQL sandbox tables.
// @Tags Admin - Tests
// @Produce json
// @Param test_id path int true "Test ID"
// @Success 204 "Test deleted"
// @Failure 404 {object} dto.ErrorResponse "Test not found"
// @Router /admin/tests/{test_id} [delete]
func (c *AdminTestController) DeleteTest(ctx *gin.Context) {
	testID, ok := parseIDParam(ctx, "test_id")
	if !ok {
		return
	}
	if err := c.testService.DeleteTest(testID); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// ListTestAttempts godoc
// @Summary (Admin) List all attempts on a test
// @Tags Admin - Tests
// @Produce json
// @Param test_id path int true "Test ID"
// @Success 200 {array} dto.AttemptSummaryDTO
// @Failure 404 {object} dto.ErrorResponse "Test not found"
// @Router /admin/tests/{test_id}/attempts [get]
func (c *AdminTestController) ListTestAttempts(ctx *gin.Context) {
	testID, ok := parseIDParam(ctx, "test_id")
	if !ok {
		return
	}
	attempts, err := c.attemptService.AttemptsForTest(testID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, attempts)
}

// ListCandidateAttempts godoc
// @Summary (Admin) List all attempts by a candidate
// @Tags Admin - Tests
// @Produce json
// @Param candidate_id path int true "Candidate ID"
// @Success 200 {array} dto.AttemptSummaryDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid candidate ID format"
// @Router /admin/candidates/{candidate_id}/attempts [get]
func (c *AdminTestController) ListCandidateAttempts(ctx *gin.Context) {
	candidateID, ok := parseIDParam(ctx, "candidate_id")
	if !ok {
		return
	}
	attempts, err := c.attemptService.AttemptsForCandidate(candidateID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, attempts)
}
