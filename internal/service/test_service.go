package service

import (
	"errors"

	"github.com/jinzhu/copier"
	"github.com/lshigami/Skillgate/internal/apperr"
	"github.com/lshigami/Skillgate/internal/dto"
	"github.com/lshigami/Skillgate/internal/model"
	"github.com/lshigami/Skillgate/internal/repository"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type TestService interface {
	CreateTest(req dto.TestCreateDTO) (*dto.TestResponseDTO, error)
	GetTest(id uint) (*dto.TestResponseDTO, error)
	ListTests() ([]dto.TestResponseDTO, error)
	SetActive(id uint, active bool) (*dto.TestResponseDTO, error)
	DeleteTest(id uint) error
	ListActiveForCandidate(candidateID uint) ([]dto.TestSummaryDTO, error)
}

type testService struct {
	testRepo    repository.TestRepository
	attemptRepo repository.AttemptRepository
	sandbox     SQLSandboxService
}

func NewTestService(testRepo repository.TestRepository, attemptRepo repository.AttemptRepository, sandbox SQLSandboxService) TestService {
	return &testService{testRepo: testRepo, attemptRepo: attemptRepo, sandbox: sandbox}
}

func (s *testService) CreateTest(req dto.TestCreateDTO) (*dto.TestResponseDTO, error) {
	test := model.Test{
		Title:       req.Title,
		Description: req.Description,
		Skills:      req.Skills,

		MCQCount:       defaultInt(req.MCQCount, 10),
		CodingCount:    defaultInt(req.CodingCount, 3),
		SQLCount:       defaultInt(req.SQLCount, 3),
		InterviewCount: defaultInt(req.InterviewCount, 5),

		MCQPassingScore:       defaultFloat(req.MCQPassingScore, 60),
		CodingPassingScore:    defaultFloat(req.CodingPassingScore, 50),
		SQLPassingScore:       defaultFloat(req.SQLPassingScore, 50),
		InterviewPassingScore: defaultFloat(req.InterviewPassingScore, 6),

		MCQDurationMinutes: defaultInt(req.MCQDurationMinutes, 30),
		AttemptLimit:       defaultInt(req.AttemptLimit, 1),

		ProctoringEnabled:  defaultBool(req.ProctoringEnabled, true),
		ViolationThreshold: defaultFloat(req.ViolationThreshold, 0),
		AutoDisqualify:     defaultBool(req.AutoDisqualify, true),

		IsActive: true,
	}
	if err := s.testRepo.Create(&test); err != nil {
		return nil, err
	}

	if test.SQLCount > 0 {
		if err := s.sandbox.EnsureTables(test.ID); err != nil {
			log.Warn().Err(err).Uint("testID", test.ID).Msg("Sandbox table creation deferred to SQL stage activation")
		}
	}

	log.Info().Uint("testID", test.ID).Str("title", test.Title).Msg("Test created")
	return toTestResponse(&test), nil
}

func (s *testService) GetTest(id uint) (*dto.TestResponseDTO, error) {
	test, err := s.testRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrTestNotFound()
		}
		return nil, err
	}
	return toTestResponse(test), nil
}

func (s *testService) ListTests() ([]dto.TestResponseDTO, error) {
	tests, err := s.testRepo.FindAll()
	if err != nil {
		return nil, err
	}
	out := make([]dto.TestResponseDTO, 0, len(tests))
	for i := range tests {
		out = append(out, *toTestResponse(&tests[i]))
	}
	return out, nil
}

func (s *testService) SetActive(id uint, active bool) (*dto.TestResponseDTO, error) {
	test, err := s.testRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrTestNotFound()
		}
		return nil, err
	}
	test.IsActive = active
	if err := s.testRepo.Update(test); err != nil {
		return nil, err
	}
	return toTestResponse(test), nil
}

func (s *testService) DeleteTest(id uint) error {
	test, err := s.testRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.ErrTestNotFound()
		}
		return err
	}
	if err := s.testRepo.Delete(id); err != nil {
		return err
	}
	if test.SQLCount > 0 {
		if err := s.sandbox.DropTables(id); err != nil {
			log.Warn().Err(err).Uint("testID", id).Msg("Failed to drop sandbox tables")
		}
	}
	return nil
}

func (s *testService) ListActiveForCandidate(candidateID uint) ([]dto.TestSummaryDTO, error) {
	tests, err := s.testRepo.FindActive()
	if err != nil {
		return nil, err
	}
	out := make([]dto.TestSummaryDTO, 0, len(tests))
	for i := range tests {
		t := &tests[i]
		used, err := s.attemptRepo.CountByCandidate(t.ID, candidateID)
		if err != nil {
			return nil, err
		}
		var summary dto.TestSummaryDTO
		copier.Copy(&summary, t)
		summary.Skills = t.Skills
		summary.AttemptsUsed = int(used)
		summary.CanAttempt = t.AttemptLimit <= 0 || used < int64(t.AttemptLimit)
		out = append(out, summary)
	}
	return out, nil
}

func toTestResponse(test *model.Test) *dto.TestResponseDTO {
	var resp dto.TestResponseDTO
	copier.Copy(&resp, test)
	resp.Skills = test.Skills
	return &resp
}

func defaultInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func defaultFloat(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

func defaultBool(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
