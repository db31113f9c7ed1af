package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/lshigami/Skillgate/config"
	"github.com/lshigami/Skillgate/internal/model"
	"github.com/rs/zerolog/log"
)

// ExecutionResult is the raw outcome of running candidate code once.
type ExecutionResult struct {
	Success     bool
	Output      string
	Error       string
	Unsupported bool
}

// CodeExecutor runs untrusted candidate code against provided stdin.
type CodeExecutor interface {
	Run(ctx context.Context, code, language, input string) ExecutionResult
	RunTestCases(ctx context.Context, code, language string, cases []model.CodingTestCase) (passed bool, results []model.TestCaseResult)
}

// localExecutor runs code in a throwaway temp directory with a hard timeout.
// Only python and javascript have interpreters on the host; other languages
// are reported as unsupported and the caller decides how to grade them.
type localExecutor struct {
	timeout time.Duration
}

func NewCodeExecutor(cfg *config.Config) CodeExecutor {
	timeout := cfg.Assessment.ExecutorTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &localExecutor{timeout: timeout}
}

func (e *localExecutor) Run(ctx context.Context, code, language, input string) ExecutionResult {
	var fileName string
	var command string
	switch strings.ToLower(language) {
	case "python":
		fileName = "solution.py"
		command = "python3"
	case "javascript":
		fileName = "solution.js"
		command = "node"
	default:
		return ExecutionResult{
			Success:     true,
			Output:      fmt.Sprintf("[%s execution not supported on this server]", language),
			Unsupported: true,
		}
	}

	tmpDir, err := os.MkdirTemp("", "skillgate_code_*")
	if err != nil {
		return ExecutionResult{Error: fmt.Sprintf("failed to prepare execution directory: %s", err)}
	}
	defer os.RemoveAll(tmpDir)

	srcPath := filepath.Join(tmpDir, fileName)
	if err := os.WriteFile(srcPath, []byte(code), 0o600); err != nil {
		return ExecutionResult{Error: fmt.Sprintf("failed to write source file: %s", err)}
	}

	runCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, command, srcPath)
	cmd.Dir = tmpDir
	cmd.Stdin = strings.NewReader(input)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return ExecutionResult{Error: fmt.Sprintf("Time Limit Exceeded (%.0fs)", e.timeout.Seconds())}
	}
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return ExecutionResult{Output: stdout.String(), Error: msg}
	}
	return ExecutionResult{Success: true, Output: strings.TrimSpace(stdout.String()), Error: strings.TrimSpace(stderr.String())}
}

func (e *localExecutor) RunTestCases(ctx context.Context, code, language string, cases []model.CodingTestCase) (bool, []model.TestCaseResult) {
	allPassed := true
	results := make([]model.TestCaseResult, 0, len(cases))

	for i, tc := range cases {
		name := fmt.Sprintf("Test Case %d", i+1)
		res := e.Run(ctx, code, language, tc.Input)

		if res.Unsupported {
			results = append(results, model.TestCaseResult{
				Name:   name,
				Passed: true,
				Actual: "Language not supported for auto-eval",
			})
			continue
		}

		actual := strings.TrimSpace(res.Output)
		expected := strings.TrimSpace(tc.ExpectedOutput)
		passed := res.Success && actual == expected
		if !passed {
			allPassed = false
			if res.Error != "" {
				actual = res.Error
			}
			log.Debug().Str("case", name).Str("expected", expected).Str("actual", actual).Msg("Test case failed")
		}
		results = append(results, model.TestCaseResult{
			Name:     name,
			Passed:   passed,
			Expected: expected,
			Actual:   actual,
		})
	}

	if len(cases) == 0 {
		allPassed = true
	}
	return allPassed, results
}
