package service

import (
	"context"
	"time"

	"github.com/lshigami/Skillgate/config"
	"github.com/lshigami/Skillgate/internal/model"
	"github.com/lshigami/Skillgate/internal/repository"
	"github.com/rs/zerolog/log"
)

// ReportService builds the final placement report once an attempt reaches a
// terminal state. Generation is best-effort: a failed build stores the
// default report rather than leaving the attempt without one.
type ReportService interface {
	BuildAsync(attemptID uint)
	Build(attemptID uint) error
}

type reportService struct {
	attemptRepo   repository.AttemptRepository
	testRepo      repository.TestRepository
	violationRepo repository.ViolationRepository
	generator     ContentGenerator
	locker        *AttemptLocker
	cfg           *config.Config
}

func NewReportService(
	attemptRepo repository.AttemptRepository,
	testRepo repository.TestRepository,
	violationRepo repository.ViolationRepository,
	generator ContentGenerator,
	locker *AttemptLocker,
	cfg *config.Config,
) ReportService {
	return &reportService{
		attemptRepo:   attemptRepo,
		testRepo:      testRepo,
		violationRepo: violationRepo,
		generator:     generator,
		locker:        locker,
		cfg:           cfg,
	}
}

func (s *reportService) BuildAsync(attemptID uint) {
	go func() {
		if err := s.Build(attemptID); err != nil {
			log.Error().Err(err).Uint("attemptID", attemptID).Msg("Report build failed")
		}
	}()
}

func (s *reportService) Build(attemptID uint) error {
	attempt, err := s.attemptRepo.FindByID(attemptID)
	if err != nil {
		return err
	}
	if attempt.Report != nil {
		return nil
	}
	test, err := s.testRepo.FindByID(attempt.TestID)
	if err != nil {
		return err
	}

	events, err := s.violationRepo.EventsForAttempt(attemptID)
	if err != nil {
		log.Warn().Err(err).Uint("attemptID", attemptID).Msg("Could not load violation events for report")
	}

	input := s.buildInput(attempt, test, len(events))

	timeout := s.cfg.Assessment.GeneratorTimeout
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	report, err := s.generator.FinalReport(ctx, input)
	if err != nil {
		log.Warn().Err(err).Uint("attemptID", attemptID).Msg("Report generation failed, storing default report")
		report = defaultReport()
		report.TotalViolations = len(events)
	}

	unlock := s.locker.Lock(attemptID)
	defer unlock()

	attempt, err = s.attemptRepo.FindByID(attemptID)
	if err != nil {
		return err
	}
	if attempt.Report != nil {
		return nil
	}
	attempt.Report = report
	return s.attemptRepo.UpdateVersioned(attempt)
}

func (s *reportService) buildInput(attempt *model.Attempt, test *model.Test, violations int) ReportInput {
	score := func(p *float64) float64 {
		if p == nil {
			return 0
		}
		return *p
	}

	var mcqCorrect int
	if attempt.MCQScore != nil && len(attempt.MCQQuestions) > 0 {
		mcqCorrect = int(*attempt.MCQScore/100*float64(len(attempt.MCQQuestions)) + 0.5)
	}
	var codingSolved, sqlSolved, answered int
	for _, sub := range attempt.CodingSubmissions {
		if sub.Passed {
			codingSolved++
		}
	}
	for _, sub := range attempt.SQLSubmissions {
		if sub.Passed {
			sqlSolved++
		}
	}
	for _, t := range attempt.InterviewTurns {
		if t.Answer != nil {
			answered++
		}
	}

	return ReportInput{
		TestTitle: test.Title,
		Skills:    test.Skills,

		MCQScore:   score(attempt.MCQScore),
		MCQCorrect: mcqCorrect,
		MCQTotal:   len(attempt.MCQQuestions),
		MCQPassed:  attempt.MCQStatus == model.StagePassed,

		CodingScore:  score(attempt.CodingScore),
		CodingSolved: codingSolved,
		CodingTotal:  len(attempt.CodingProblems),
		CodingPassed: attempt.CodingStatus == model.StagePassed,

		SQLScore:  score(attempt.SQLScore),
		SQLSolved: sqlSolved,
		SQLTotal:  len(attempt.SQLProblems),
		SQLPassed: attempt.SQLStatus == model.StagePassed,

		InterviewScore:    score(attempt.InterviewScore),
		InterviewAnswered: answered,
		InterviewTotal:    len(attempt.InterviewTurns),
		InterviewPassed:   attempt.InterviewStatus == model.StagePassed,
		InterviewTurns:    attempt.InterviewTurns,

		TotalViolations: violations,
	}
}
