package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/Skillgate/internal/dto"
	"github.com/lshigami/Skillgate/internal/service"
	"github.com/rs/zerolog/log"
)

type AdminProctoringController struct {
	violationService service.ViolationService
}

func NewAdminProctoringController(violationService service.ViolationService) *AdminProctoringController {
	return &AdminProctoringController{violationService: violationService}
}

// ListViolationRules godoc
// @Summary (Admin) List the violation rule catalog
// @Description Returns every known violation type with its default severity, max occurrences and auto-disqualify flag.
// @Tags Admin - Proctoring
// @Produce json
// @Success 200 {array} model.ViolationRule
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /admin/violation-rules [get]
func (c *AdminProctoringController) ListViolationRules(ctx *gin.Context) {
	rules, err := c.violationService.Rules()
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, rules)
}

// ConfigureTestRules godoc
// @Summary (Admin) Override violation rules for one test
// @Description Per-test severity overrides and enable/disable flags. Unlisted rules keep their catalog defaults.
// @Tags Admin - Proctoring
// @Accept json
// @Produce json
// @Param test_id path int true "Test ID"
// @Param rules_data body dto.ConfigureViolationRulesDTO true "Rule overrides"
// @Success 204 "Configuration saved"
// @Failure 400 {object} dto.ErrorResponse "Invalid input data"
// @Failure 404 {object} dto.ErrorResponse "Test not found"
// @Router /admin/tests/{test_id}/violation-rules [put]
func (c *AdminProctoringController) ConfigureTestRules(ctx *gin.Context) {
	testID, ok := parseIDParam(ctx, "test_id")
	if !ok {
		return
	}
	var req dto.ConfigureViolationRulesDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		log.Warn().Err(err).Msg("Admin ConfigureTestRules: Failed to bind JSON")
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}
	if err := c.violationService.ConfigureTestRules(testID, req); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// GetViolationSummary godoc
// @Summary (Admin) Violation summary for an attempt
// @Description Cumulative score, per-type breakdown and disqualification state for one attempt.
// @Tags Admin - Proctoring
// @Produce json
// @Param attempt_id path int true "Attempt ID"
// @Success 200 {object} dto.ViolationSummaryDTO
// @Failure 404 {object} dto.ErrorResponse "Attempt not found"
// @Router /admin/attempts/{attempt_id}/violations [get]
func (c *AdminProctoringController) GetViolationSummary(ctx *gin.Context) {
	attemptID, ok := parseIDParam(ctx, "attempt_id")
	if !ok {
		return
	}
	summary, err := c.violationService.ViolationSummary(attemptID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, summary)
}

// GetDecision godoc
// @Summary (Admin) Get the disqualification decision for an attempt
// @Tags Admin - Proctoring
// @Produce json
// @Param attempt_id path int true "Attempt ID"
// @Success 200 {object} dto.DecisionDTO
// @Failure 404 {object} dto.ErrorResponse "No decision recorded for this attempt"
// @Router /admin/attempts/{attempt_id}/decision [get]
func (c *AdminProctoringController) GetDecision(ctx *gin.Context) {
	attemptID, ok := parseIDParam(ctx, "attempt_id")
	if !ok {
		return
	}
	decision, err := c.violationService.DecisionForAttempt(attemptID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, decision)
}

// ListPendingReviews godoc
// @Summary (Admin) List disqualification decisions awaiting review
// @Tags Admin - Proctoring
// @Produce json
// @Success 200 {array} dto.DecisionDTO
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /admin/disqualifications/pending [get]
func (c *AdminProctoringController) ListPendingReviews(ctx *gin.Context) {
	decisions, err := c.violationService.PendingReviews()
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, decisions)
}

// ReviewDecision godoc
// @Summary (Admin) Review a disqualification decision
// @Description Records an approved, rejected or conditional verdict. A review never reopens the attempt.
// @Tags Admin - Proctoring
// @Accept json
// @Produce json
// @Param decision_id path string true "Decision ID"
// @Param review_data body dto.ReviewDecisionDTO true "Review verdict"
// @Success 200 {object} dto.DecisionDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid review verdict"
// @Failure 404 {object} dto.ErrorResponse "Decision not found"
// @Router /admin/disqualifications/{decision_id}/review [post]
func (c *AdminProctoringController) ReviewDecision(ctx *gin.Context) {
	decisionID := ctx.Param("decision_id")
	var req dto.ReviewDecisionDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		log.Warn().Err(err).Msg("Admin ReviewDecision: Failed to bind JSON")
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}
	decision, err := c.violationService.ReviewDecision(decisionID, req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, decision)
}
