package service

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lshigami/Skillgate/config"
	"github.com/lshigami/Skillgate/internal/apperr"
	"github.com/lshigami/Skillgate/internal/dto"
	"github.com/lshigami/Skillgate/internal/model"
	"github.com/lshigami/Skillgate/internal/repository"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// ViolationService owns the integrity ledger: it is the only writer of
// CumulativeViolationScore and ShouldDisqualify. Recording never rejects the
// proctored session; unknown or disabled event types are dropped silently.
type ViolationService interface {
	RecordViolation(attemptID uint, req dto.RecordViolationDTO) (*dto.RecordViolationResultDTO, error)
	ViolationSummary(attemptID uint) (*dto.ViolationSummaryDTO, error)
	DecisionForAttempt(attemptID uint) (*dto.DecisionDTO, error)
	PendingReviews() ([]dto.DecisionDTO, error)
	ReviewDecision(decisionID string, req dto.ReviewDecisionDTO) (*dto.DecisionDTO, error)
	ConfigureTestRules(testID uint, req dto.ConfigureViolationRulesDTO) error
	Rules() ([]model.ViolationRule, error)
}

type violationService struct {
	violationRepo repository.ViolationRepository
	decisionRepo  repository.DecisionRepository
	attemptRepo   repository.AttemptRepository
	testRepo      repository.TestRepository
	reports       ReportService
	locker        *AttemptLocker
	cfg           *config.Config
}

func NewViolationService(
	violationRepo repository.ViolationRepository,
	decisionRepo repository.DecisionRepository,
	attemptRepo repository.AttemptRepository,
	testRepo repository.TestRepository,
	reports ReportService,
	locker *AttemptLocker,
	cfg *config.Config,
) ViolationService {
	return &violationService{
		violationRepo: violationRepo,
		decisionRepo:  decisionRepo,
		attemptRepo:   attemptRepo,
		testRepo:      testRepo,
		reports:       reports,
		locker:        locker,
		cfg:           cfg,
	}
}

func (s *violationService) thresholdFor(test *model.Test) float64 {
	if test.ViolationThreshold > 0 {
		return test.ViolationThreshold
	}
	if s.cfg.Assessment.ViolationThreshold > 0 {
		return s.cfg.Assessment.ViolationThreshold
	}
	return 100
}

func (s *violationService) RecordViolation(attemptID uint, req dto.RecordViolationDTO) (*dto.RecordViolationResultDTO, error) {
	unlock := s.locker.Lock(attemptID)
	defer unlock()

	attempt, err := s.attemptRepo.FindByID(attemptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrAttemptNotFound()
		}
		return nil, err
	}
	test, err := s.testRepo.FindByID(attempt.TestID)
	if err != nil {
		return nil, err
	}
	threshold := s.thresholdFor(test)

	result := &dto.RecordViolationResultDTO{
		CumulativeViolationScore: attempt.CumulativeViolationScore,
		Threshold:                threshold,
		Disqualified:             attempt.ShouldDisqualify,
		OverallStatus:            attempt.OverallStatus,
	}

	rule, err := s.violationRepo.FindRuleByType(req.EventType)
	if err != nil {
		return nil, err
	}
	if rule == nil {
		log.Warn().Str("eventType", req.EventType).Uint("attemptID", attemptID).
			Msg("No rule for violation type, event ignored")
		return result, nil
	}

	severity := rule.BaseSeverity
	autoDisqualify := rule.AutoDisqualify
	configs, err := s.violationRepo.ConfigsForTest(test.ID)
	if err != nil {
		return nil, err
	}
	for _, cfg := range configs {
		if cfg.ViolationRuleID != rule.ID {
			continue
		}
		if !cfg.Enabled {
			log.Debug().Str("eventType", req.EventType).Uint("testID", test.ID).
				Msg("Violation type disabled for this test, event ignored")
			return result, nil
		}
		if cfg.SeverityOverride != nil {
			severity = *cfg.SeverityOverride
		}
		break
	}

	event := &model.ViolationEvent{
		AttemptID: attemptID,
		Stage:     attempt.CurrentStage,
		EventType: req.EventType,
		Severity:  severity,
		Details:   req.Details,
	}
	if err := s.violationRepo.CreateEvent(event); err != nil {
		return nil, err
	}
	result.Accepted = true
	result.Event = toEventDTO(event)

	// The ledger stays append-only even after the attempt is terminal, but
	// a terminal attempt's score and status are frozen.
	if attempt.Terminal() {
		return result, nil
	}

	attempt.CumulativeViolationScore += severity
	result.CumulativeViolationScore = attempt.CumulativeViolationScore

	if rule.MaxOccurrences != nil {
		count, err := s.violationRepo.CountByType(attemptID, req.EventType)
		if err == nil && count > int64(*rule.MaxOccurrences) {
			autoDisqualify = true
		}
	}

	breach := attempt.CumulativeViolationScore > threshold || autoDisqualify
	if breach && test.AutoDisqualify {
		attempt.ShouldDisqualify = true
		attempt.OverallStatus = model.OverallFailed
		attempt.CurrentStage = model.StageCompleted
		result.Disqualified = true

		reason := fmt.Sprintf("violation threshold breached by %s", req.EventType)
		if autoDisqualify {
			reason = fmt.Sprintf("auto-disqualifying violation: %s", req.EventType)
		}
		if err := s.ensureDecision(attemptID, attempt.CumulativeViolationScore, reason); err != nil {
			return nil, err
		}
		log.Warn().Uint("attemptID", attemptID).Str("eventType", req.EventType).
			Float64("cumulative", attempt.CumulativeViolationScore).
			Msg("Attempt disqualified by violation ledger")
	} else if breach {
		// Threshold crossed but the test keeps terminations manual.
		attempt.ShouldDisqualify = true
		result.Disqualified = true
		if err := s.ensureDecision(attemptID, attempt.CumulativeViolationScore,
			fmt.Sprintf("violation threshold breached by %s (manual review only)", req.EventType)); err != nil {
			return nil, err
		}
	}

	if err := s.attemptRepo.UpdateVersioned(attempt); err != nil {
		return nil, err
	}
	result.OverallStatus = attempt.OverallStatus
	if attempt.Terminal() {
		s.reports.BuildAsync(attempt.ID)
	}
	return result, nil
}

// ensureDecision creates the attempt's disqualification decision exactly
// once; repeated breaches are no-ops.
func (s *violationService) ensureDecision(attemptID uint, score float64, reason string) error {
	existing, err := s.decisionRepo.FindByAttempt(attemptID)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	return s.decisionRepo.Create(&model.DisqualificationDecision{
		ID:                 uuid.NewString(),
		AttemptID:          attemptID,
		TriggeringScore:    score,
		Reason:             reason,
		ManualReviewNeeded: true,
	})
}

func (s *violationService) ViolationSummary(attemptID uint) (*dto.ViolationSummaryDTO, error) {
	attempt, err := s.attemptRepo.FindByID(attemptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrAttemptNotFound()
		}
		return nil, err
	}
	test, err := s.testRepo.FindByID(attempt.TestID)
	if err != nil {
		return nil, err
	}

	aggregates, err := s.violationRepo.AggregateByType(attemptID)
	if err != nil {
		return nil, err
	}
	events, err := s.violationRepo.EventsForAttempt(attemptID)
	if err != nil {
		return nil, err
	}

	out := &dto.ViolationSummaryDTO{
		AttemptID:                attemptID,
		CumulativeViolationScore: attempt.CumulativeViolationScore,
		Threshold:                s.thresholdFor(test),
		Disqualified:             attempt.ShouldDisqualify,
	}
	for _, agg := range aggregates {
		out.ByType = append(out.ByType, dto.ViolationTypeSummaryDTO{
			EventType:     agg.EventType,
			Count:         agg.Count,
			TotalSeverity: agg.TotalSeverity,
		})
	}
	for i := range events {
		out.Events = append(out.Events, *toEventDTO(&events[i]))
	}
	return out, nil
}

func (s *violationService) DecisionForAttempt(attemptID uint) (*dto.DecisionDTO, error) {
	decision, err := s.decisionRepo.FindByAttempt(attemptID)
	if err != nil {
		return nil, err
	}
	if decision == nil {
		return nil, apperr.ErrDecisionNotFound()
	}
	return toDecisionDTO(decision), nil
}

func (s *violationService) PendingReviews() ([]dto.DecisionDTO, error) {
	decisions, err := s.decisionRepo.FindPendingReview()
	if err != nil {
		return nil, err
	}
	out := make([]dto.DecisionDTO, 0, len(decisions))
	for i := range decisions {
		out = append(out, *toDecisionDTO(&decisions[i]))
	}
	return out, nil
}

func (s *violationService) ReviewDecision(decisionID string, req dto.ReviewDecisionDTO) (*dto.DecisionDTO, error) {
	switch req.Decision {
	case "approved", "rejected", "conditional":
	default:
		return nil, apperr.ErrInvalidReview()
	}

	decision, err := s.decisionRepo.FindByID(decisionID)
	if err != nil {
		return nil, err
	}
	if decision == nil {
		return nil, apperr.ErrDecisionNotFound()
	}

	// The review annotates the record; the attempt stays terminal either way.
	decision.ReviewedBy = &req.ReviewedBy
	decision.ReviewDecision = &req.Decision
	if req.Notes != "" {
		decision.ReviewNotes = &req.Notes
	}
	if err := s.decisionRepo.Update(decision); err != nil {
		return nil, err
	}
	log.Info().Str("decisionID", decisionID).Str("decision", req.Decision).
		Str("reviewer", req.ReviewedBy).Msg("Disqualification decision reviewed")
	return toDecisionDTO(decision), nil
}

func (s *violationService) ConfigureTestRules(testID uint, req dto.ConfigureViolationRulesDTO) error {
	if _, err := s.testRepo.FindByID(testID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.ErrTestNotFound()
		}
		return err
	}
	for _, rc := range req.Rules {
		rule, err := s.violationRepo.FindRuleByType(rc.ViolationType)
		if err != nil {
			return err
		}
		if rule == nil {
			log.Warn().Str("violationType", rc.ViolationType).Msg("Skipping config for unknown violation type")
			continue
		}
		enabled := true
		if rc.Enabled != nil {
			enabled = *rc.Enabled
		}
		cfg := &model.TestViolationConfig{
			TestID:           testID,
			ViolationRuleID:  rule.ID,
			SeverityOverride: rc.SeverityOverride,
			Enabled:          enabled,
		}
		if err := s.violationRepo.UpsertConfig(cfg); err != nil {
			return err
		}
	}
	return nil
}

func (s *violationService) Rules() ([]model.ViolationRule, error) {
	return s.violationRepo.AllRules()
}

func toEventDTO(event *model.ViolationEvent) *dto.ViolationEventDTO {
	return &dto.ViolationEventDTO{
		ID:        event.ID,
		Stage:     event.Stage,
		EventType: event.EventType,
		Severity:  event.Severity,
		Details:   event.Details,
		CreatedAt: event.CreatedAt,
	}
}

func toDecisionDTO(decision *model.DisqualificationDecision) *dto.DecisionDTO {
	return &dto.DecisionDTO{
		ID:                 decision.ID,
		AttemptID:          decision.AttemptID,
		TriggeringScore:    decision.TriggeringScore,
		Reason:             decision.Reason,
		ManualReviewNeeded: decision.ManualReviewNeeded,
		ReviewedBy:         decision.ReviewedBy,
		ReviewDecision:     decision.ReviewDecision,
		ReviewNotes:        decision.ReviewNotes,
		CreatedAt:          decision.CreatedAt,
	}
}
