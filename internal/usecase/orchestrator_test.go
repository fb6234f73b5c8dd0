package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"browser-pilot/internal/config"
	"browser-pilot/internal/entity"
	"browser-pilot/internal/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSession struct {
	evaluateFn func(script string) (any, error)
	closed     int
}

func (s *fakeSession) Navigate(context.Context, string, int) error        { return nil }
func (s *fakeSession) WaitForSelector(context.Context, string, int) error { return nil }
func (s *fakeSession) Click(context.Context, string) error                { return nil }
func (s *fakeSession) Fill(context.Context, string, string) error         { return nil }
func (s *fakeSession) TypeActive(context.Context, string) error           { return nil }
func (s *fakeSession) Press(context.Context, string) error                { return nil }
func (s *fakeSession) ScrollToBottom(context.Context) error               { return nil }

func (s *fakeSession) TextContent(context.Context, string) (string, error) { return "", nil }

func (s *fakeSession) URL(context.Context) string { return "https://example.com/results" }

func (s *fakeSession) Title(context.Context) (string, error) { return "Results", nil }

func (s *fakeSession) Viewport() entity.Viewport { return entity.Viewport{Width: 1366, Height: 768} }

func (s *fakeSession) Evaluate(_ context.Context, script string) (any, error) {
	if s.evaluateFn != nil {
		return s.evaluateFn(script)
	}

	return nil, nil
}

func (s *fakeSession) Close(context.Context) error {
	s.closed++

	return nil
}

type fakeFactory struct {
	session *fakeSession
	err     error
}

func (f *fakeFactory) Launch(context.Context) error   { return nil }
func (f *fakeFactory) Shutdown(context.Context) error { return nil }
func (f *fakeFactory) IsReady() bool                  { return true }

func (f *fakeFactory) NewSession(context.Context) (ports.Session, error) {
	if f.err != nil {
		return nil, f.err
	}

	return f.session, nil
}

type fakeAnalyzer struct {
	snapshot *entity.PageSnapshot
	err      error
}

func (a *fakeAnalyzer) Analyze(context.Context, ports.PageDriver) (*entity.PageSnapshot, error) {
	return a.snapshot, a.err
}

type fakePlanner struct {
	plan *entity.Plan
}

func (p *fakePlanner) Generate(context.Context, string, *entity.PageSnapshot) *entity.Plan {
	return p.plan
}

// fakeExecutor scripts step outcomes by index. Index 0 is the initial
// navigation; plan steps are 1-indexed.
type fakeExecutor struct {
	failAt   map[int]string
	panicAt  int
	executed []int
}

func (e *fakeExecutor) Execute(_ context.Context, _ ports.PageDriver, index int, step entity.ActionStep) entity.StepResult {
	e.executed = append(e.executed, index)

	if e.panicAt > 0 && index == e.panicAt {
		panic("scripted panic")
	}

	if msg, ok := e.failAt[index]; ok {
		return entity.StepResult{Step: index, Action: step.Action, Success: false, Message: msg, Error: msg}
	}

	return entity.StepResult{Step: index, Action: step.Action, Success: true, Message: "ok"}
}

func planOf(n int) *entity.Plan {
	steps := make([]entity.ActionStep, 0, n)
	for i := 0; i < n; i++ {
		steps = append(steps, entity.ActionStep{Action: entity.ActionTypeScroll})
	}

	return &entity.Plan{Steps: steps, Confidence: 0.8, ExpectedOutcome: "done"}
}

func newTestRunner(factory ports.SessionFactory, analyzer ports.PageAnalyzer, planner ports.PlanGenerator, executor ports.ActionExecutor) *Runner {
	runner := NewRunner(RunnerParams{
		Config: &config.Config{
			AppConfig:     &config.AppConfig{},
			BrowserConfig: &config.BrowserConfig{Timeout: 30000},
			PlannerConfig: &config.PlannerConfig{},
		},
		Logger:   zap.NewNop(),
		Sessions: factory,
		Analyzer: analyzer,
		Planner:  planner,
		Executor: executor,
	})
	runner.stepPause = 0

	return runner
}

func TestRunHappyPath(t *testing.T) {
	t.Parallel()

	session := &fakeSession{}
	executor := &fakeExecutor{}
	runner := newTestRunner(
		&fakeFactory{session: session},
		&fakeAnalyzer{snapshot: &entity.PageSnapshot{}},
		&fakePlanner{plan: planOf(3)},
		executor,
	)

	result := runner.Run(context.Background(), "find things", "https://example.com")

	require.True(t, result.Success, result.Error)
	assert.Equal(t, "Plan execution completed successfully", result.Message)
	assert.Equal(t, []int{0, 1, 2, 3}, executor.executed, "navigation plus three plan steps")
	assert.Equal(t, 3, result.Data["total_steps"])
	assert.Equal(t, 3, result.Data["successful_steps"])
	assert.Equal(t, 1, session.closed, "session released exactly once")

	steps, ok := result.Data["steps"].([]entity.StepResult)
	require.True(t, ok)
	assert.Len(t, steps, 3)
}

func TestRunNavigationFailureRecordsNoSteps(t *testing.T) {
	t.Parallel()

	executor := &fakeExecutor{failAt: map[int]string{0: "net::ERR_NAME_NOT_RESOLVED"}}
	runner := newTestRunner(
		&fakeFactory{session: &fakeSession{}},
		&fakeAnalyzer{},
		&fakePlanner{plan: planOf(3)},
		executor,
	)

	result := runner.Run(context.Background(), "anything", "https://unreachable.invalid")

	require.False(t, result.Success)
	assert.Contains(t, result.Message, "navigate")
	assert.Nil(t, result.Data, "no step results are recorded on navigation failure")
	assert.Equal(t, []int{0}, executor.executed)
}

func TestRunShortCircuitsOnFirstFailure(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		planSteps int
		failIndex int
	}{
		{name: "first step fails", planSteps: 4, failIndex: 1},
		{name: "middle step fails", planSteps: 4, failIndex: 2},
		{name: "last step fails", planSteps: 4, failIndex: 4},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			executor := &fakeExecutor{failAt: map[int]string{tc.failIndex: "element not found"}}
			runner := newTestRunner(
				&fakeFactory{session: &fakeSession{}},
				&fakeAnalyzer{},
				&fakePlanner{plan: planOf(tc.planSteps)},
				executor,
			)

			result := runner.Run(context.Background(), "goal", "https://example.com")

			require.False(t, result.Success)
			assert.Equal(t, "Plan execution failed", result.Message)
			assert.Equal(t, "element not found", result.Error)

			steps, ok := result.Data["steps"].([]entity.StepResult)
			require.True(t, ok)
			assert.Len(t, steps, tc.failIndex, "execution stops at the failing step")
			assert.Equal(t, tc.failIndex-1, result.Data["successful_steps"])
			assert.Equal(t, tc.planSteps, result.Data["total_steps"])
		})
	}
}

func TestRunEmptyGoal(t *testing.T) {
	t.Parallel()

	runner := newTestRunner(&fakeFactory{session: &fakeSession{}}, &fakeAnalyzer{}, &fakePlanner{}, &fakeExecutor{})

	result := runner.Run(context.Background(), "   ", "https://example.com")

	require.False(t, result.Success)
	assert.Equal(t, "Goal must not be empty", result.Message)
}

func TestRunInvalidStartURL(t *testing.T) {
	t.Parallel()

	runner := newTestRunner(&fakeFactory{session: &fakeSession{}}, &fakeAnalyzer{}, &fakePlanner{}, &fakeExecutor{})

	for _, bad := range []string{"", "not a url", "/relative", "example.com"} {
		result := runner.Run(context.Background(), "goal", bad)

		require.False(t, result.Success, "url %q must be rejected", bad)
		assert.Contains(t, result.Message, "Invalid start URL")
	}
}

func TestRunSessionFailure(t *testing.T) {
	t.Parallel()

	runner := newTestRunner(
		&fakeFactory{err: errors.New("browser not running")},
		&fakeAnalyzer{},
		&fakePlanner{plan: planOf(1)},
		&fakeExecutor{},
	)

	result := runner.Run(context.Background(), "goal", "https://example.com")

	require.False(t, result.Success)
	assert.Equal(t, "Failed to start browser session", result.Message)
	assert.Equal(t, "browser not running", result.Error)
}

func TestRunEmptyPlan(t *testing.T) {
	t.Parallel()

	runner := newTestRunner(
		&fakeFactory{session: &fakeSession{}},
		&fakeAnalyzer{},
		&fakePlanner{plan: &entity.Plan{}},
		&fakeExecutor{},
	)

	result := runner.Run(context.Background(), "goal", "https://example.com")

	require.False(t, result.Success)
	assert.Equal(t, "Could not generate plan", result.Message)
}

func TestRunAnalyzerFailureDegradesGracefully(t *testing.T) {
	t.Parallel()

	runner := newTestRunner(
		&fakeFactory{session: &fakeSession{}},
		&fakeAnalyzer{err: errors.New("script blocked")},
		&fakePlanner{plan: planOf(1)},
		&fakeExecutor{},
	)

	result := runner.Run(context.Background(), "goal", "https://example.com")

	require.True(t, result.Success, "analysis failure must not abort the task: %s", result.Error)
}

func TestRunRecoversFromPanic(t *testing.T) {
	t.Parallel()

	session := &fakeSession{}
	runner := newTestRunner(
		&fakeFactory{session: session},
		&fakeAnalyzer{},
		&fakePlanner{plan: planOf(2)},
		&fakeExecutor{panicAt: 2},
	)

	var result *entity.TaskResult

	require.NotPanics(t, func() {
		result = runner.Run(context.Background(), "goal", "https://example.com")
	})

	require.False(t, result.Success)
	assert.Equal(t, "Task execution failed", result.Message)
	assert.Contains(t, result.Error, "panic")
	assert.Equal(t, 1, session.closed, "session released even on panic")
}

func TestRunExtractsFinalResults(t *testing.T) {
	t.Parallel()

	session := &fakeSession{
		evaluateFn: func(script string) (any, error) {
			return []any{
				map[string]any{
					"title":   "Cheapest Halloween Dress",
					"snippet": "Only $9.99 this week",
					"link":    "https://shop.example/dress",
					"type":    "search_result",
				},
			}, nil
		},
	}

	runner := newTestRunner(
		&fakeFactory{session: session},
		&fakeAnalyzer{},
		&fakePlanner{plan: planOf(1)},
		&fakeExecutor{},
	)

	result := runner.Run(context.Background(), "find cheapest halloween dress", "https://example.com")

	require.True(t, result.Success)

	report, ok := result.Data["final_results"].(*entity.ExtractionReport)
	require.True(t, ok, "extraction report attached to task data")
	require.Len(t, report.Results, 1)
	assert.Equal(t, "Cheapest Halloween Dress", report.Results[0].Title)
	assert.Equal(t, "search_results", report.Method)
}

func TestTaskResultJSONContract(t *testing.T) {
	t.Parallel()

	runner := newTestRunner(
		&fakeFactory{session: &fakeSession{}},
		&fakeAnalyzer{},
		&fakePlanner{plan: planOf(1)},
		&fakeExecutor{failAt: map[int]string{1: "boom"}},
	)

	result := runner.Run(context.Background(), "goal", "https://example.com")

	raw, err := json.Marshal(result)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))

	for _, key := range []string{"success", "message", "data", "error"} {
		assert.Contains(t, decoded, key, fmt.Sprintf("wire field %q", key))
	}

	assert.Equal(t, false, decoded["success"])
}
