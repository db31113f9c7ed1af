package service

import (
	"context"
	"testing"
	"time"

	"github.com/lshigami/Skillgate/config"
	"github.com/lshigami/Skillgate/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLocalExecutor() CodeExecutor {
	return NewCodeExecutor(&config.Config{
		Assessment: config.Assessment{ExecutorTimeout: 2 * time.Second},
	})
}

func TestRunUnsupportedLanguage(t *testing.T) {
	res := newLocalExecutor().Run(context.Background(), "fn main() {}", "rust", "")
	assert.True(t, res.Success)
	assert.True(t, res.Unsupported)
	assert.Contains(t, res.Output, "not supported")
}

func TestRunTestCasesUnsupportedLanguagePassesThrough(t *testing.T) {
	cases := []model.CodingTestCase{
		{Input: "1", ExpectedOutput: "1"},
		{Input: "2", ExpectedOutput: "2"},
	}
	passed, results := newLocalExecutor().RunTestCases(context.Background(), "code", "rust", cases)
	assert.True(t, passed, "unverifiable submissions must not block the candidate")
	require.Len(t, results, 2)
	for _, r := range results {
		assert.True(t, r.Passed)
		assert.Contains(t, r.Actual, "not supported")
	}
}

func TestRunTestCasesEmptySet(t *testing.T) {
	passed, results := newLocalExecutor().RunTestCases(context.Background(), "code", "python", nil)
	assert.True(t, passed)
	assert.Empty(t, results)
}

func TestExecutorTimeoutDefault(t *testing.T) {
	exec := NewCodeExecutor(&config.Config{})
	local, ok := exec.(*localExecutor)
	require.True(t, ok)
	assert.Equal(t, 5*time.Second, local.timeout)
}
