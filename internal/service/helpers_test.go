package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/lshigami/Skillgate/config"
	"github.com/lshigami/Skillgate/internal/model"
	"github.com/lshigami/Skillgate/internal/repository"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	// A single connection keeps the in-memory database alive across the pool.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&model.Test{},
		&model.Attempt{},
		&model.ViolationRule{},
		&model.TestViolationConfig{},
		&model.ViolationEvent{},
		&model.DisqualificationDecision{},
	))
	return db
}

func testConfig() *config.Config {
	return &config.Config{
		Assessment: config.Assessment{
			GeneratorTimeout:   5 * time.Second,
			ExecutorTimeout:    2 * time.Second,
			ViolationThreshold: 100,
		},
	}
}

// stubGenerator returns canned content, or fails every call when failAll is
// set so that the fallback paths are exercised.
type stubGenerator struct {
	failAll bool

	mcq            []model.MCQQuestion
	coding         []model.CodingProblem
	sqlProblems    []model.SQLProblem
	interviewScore float64
	sqlVerdict     model.SQLEvaluation
	report         *model.ReportDocument

	// When set, EvaluateSQLQuery signals sqlEvalStarted and then waits on
	// sqlEvalRelease, so a test can interleave other writers while an
	// evaluation is in flight.
	sqlEvalStarted chan struct{}
	sqlEvalRelease chan struct{}
}

var errStubGenerator = errors.New("generator unavailable")

func (g *stubGenerator) MCQQuestions(ctx context.Context, skills []string, count int) ([]model.MCQQuestion, error) {
	if g.failAll {
		return nil, errStubGenerator
	}
	return g.mcq, nil
}

func (g *stubGenerator) CodingProblems(ctx context.Context, skills []string, count int, difficulty string) ([]model.CodingProblem, error) {
	if g.failAll {
		return nil, errStubGenerator
	}
	return g.coding, nil
}

func (g *stubGenerator) SQLProblems(ctx context.Context, skills []string, count int, tables sandboxTables) ([]model.SQLProblem, error) {
	if g.failAll {
		return nil, errStubGenerator
	}
	return g.sqlProblems, nil
}

func (g *stubGenerator) InterviewQuestion(ctx context.Context, skills []string, previous []model.InterviewTurn, questionNumber, totalQuestions int) (model.InterviewTurn, error) {
	if g.failAll {
		return model.InterviewTurn{}, errStubGenerator
	}
	return model.InterviewTurn{
		Question:   "Explain indexing trade-offs.",
		Category:   "conceptual",
		Difficulty: "medium",
	}, nil
}

func (g *stubGenerator) EvaluateInterviewAnswer(ctx context.Context, turn model.InterviewTurn, answer string) (float64, string, error) {
	if g.failAll {
		return 0, "", errStubGenerator
	}
	return g.interviewScore, "reasonable answer", nil
}

func (g *stubGenerator) EvaluateSQLQuery(ctx context.Context, problem model.SQLProblem, query string) (model.SQLEvaluation, error) {
	if g.sqlEvalStarted != nil {
		g.sqlEvalStarted <- struct{}{}
		<-g.sqlEvalRelease
	}
	if g.failAll {
		return model.SQLEvaluation{}, errStubGenerator
	}
	return g.sqlVerdict, nil
}

func (g *stubGenerator) FinalReport(ctx context.Context, input ReportInput) (*model.ReportDocument, error) {
	if g.failAll || g.report == nil {
		return nil, errStubGenerator
	}
	return g.report, nil
}

// stubExecutor passes a submission when the code contains "correct".
type stubExecutor struct{}

func (e *stubExecutor) Run(ctx context.Context, code, language, input string) ExecutionResult {
	return ExecutionResult{Success: true, Output: "ok"}
}

func (e *stubExecutor) RunTestCases(ctx context.Context, code, language string, cases []model.CodingTestCase) (bool, []model.TestCaseResult) {
	passed := strings.Contains(code, "correct")
	results := make([]model.TestCaseResult, 0, len(cases))
	for i := range cases {
		results = append(results, model.TestCaseResult{
			Name:     "Test Case " + strconv.Itoa(i+1),
			Passed:   passed,
			Expected: cases[i].ExpectedOutput,
		})
	}
	return passed, results
}

type stubSandbox struct{}

func (s *stubSandbox) TableNamesFor(testID uint) map[string]string {
	return map[string]string{"employees": "st1_employees"}
}
func (s *stubSandbox) EnsureTables(testID uint) error { return nil }
func (s *stubSandbox) DropTables(testID uint) error   { return nil }
func (s *stubSandbox) RunQuery(testID uint, query string) ([]string, []map[string]any, error) {
	return []string{"id"}, []map[string]any{{"id": int64(1)}}, nil
}

// testEnv wires the full service stack over one in-memory database.
type testEnv struct {
	db         *gorm.DB
	attempts   AttemptService
	violations ViolationService
	reports    ReportService
	tests      TestService
	generator  *stubGenerator

	attemptRepo repository.AttemptRepository
	testRepo    repository.TestRepository
}

func newTestEnv(t *testing.T, gen *stubGenerator) *testEnv {
	t.Helper()
	db := newTestDB(t)
	cfg := testConfig()

	testRepo := repository.NewTestRepository(db)
	attemptRepo := repository.NewAttemptRepository(db)
	violationRepo := repository.NewViolationRepository(db)
	decisionRepo := repository.NewDecisionRepository(db)
	require.NoError(t, violationRepo.SeedRules(model.DefaultViolationRules()))

	locker := NewAttemptLocker()
	sandbox := &stubSandbox{}
	reports := NewReportService(attemptRepo, testRepo, violationRepo, gen, locker, cfg)
	attempts := NewAttemptService(attemptRepo, testRepo, gen, &stubExecutor{}, sandbox, reports, locker, cfg)
	violations := NewViolationService(violationRepo, decisionRepo, attemptRepo, testRepo, reports, locker, cfg)
	tests := NewTestService(testRepo, attemptRepo, sandbox)

	return &testEnv{
		db:          db,
		attempts:    attempts,
		violations:  violations,
		reports:     reports,
		tests:       tests,
		generator:   gen,
		attemptRepo: attemptRepo,
		testRepo:    testRepo,
	}
}

func (env *testEnv) createTest(t *testing.T, mutate func(*model.Test)) *model.Test {
	t.Helper()
	test := &model.Test{
		Title:                 "Backend Screening",
		Skills:                model.StringSlice{"go", "sql"},
		MCQCount:              5,
		CodingCount:           3,
		SQLCount:              3,
		InterviewCount:        2,
		MCQPassingScore:       60,
		CodingPassingScore:    50,
		SQLPassingScore:       50,
		InterviewPassingScore: 6,
		MCQDurationMinutes:    30,
		AttemptLimit:          1,
		ProctoringEnabled:     true,
		AutoDisqualify:        true,
		IsActive:              true,
	}
	if mutate != nil {
		mutate(test)
	}
	require.NoError(t, env.testRepo.Create(test))
	return test
}

func (env *testEnv) reload(t *testing.T, attemptID uint) *model.Attempt {
	t.Helper()
	attempt, err := env.attemptRepo.FindByID(attemptID)
	require.NoError(t, err)
	return attempt
}

// fiveMCQs returns questions whose correct answer is always option A.
func fiveMCQs() []model.MCQQuestion {
	out := make([]model.MCQQuestion, 5)
	for i := range out {
		out[i] = model.MCQQuestion{
			ID:            i + 1,
			Question:      "Pick A.",
			Skill:         "go",
			Difficulty:    "easy",
			Options:       []string{"right", "wrong", "wrong", "wrong"},
			CorrectAnswer: 0,
		}
	}
	return out
}

func threeCodingProblems() []model.CodingProblem {
	out := make([]model.CodingProblem, 3)
	for i := range out {
		out[i] = model.CodingProblem{
			ID:         i + 1,
			Title:      "Problem",
			Difficulty: "easy",
			TestCases:  []model.CodingTestCase{{Input: "1", ExpectedOutput: "1"}},
		}
	}
	return out
}

func threeSQLProblems() []model.SQLProblem {
	out := make([]model.SQLProblem, 3)
	for i := range out {
		out[i] = model.SQLProblem{ID: i + 1, Title: "Query", Difficulty: "easy"}
	}
	return out
}
