package usecase

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"browser-pilot/internal/config"
	"browser-pilot/internal/entity"
	"browser-pilot/internal/ports"
	"browser-pilot/pkg/logg"
	"browser-pilot/pkg/tracing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	runnerName   = "TaskRunner"
	runnerTracer = "usecase.runner"

	// Pause between steps so the target page's own rendering keeps up.
	defaultStepPause = time.Second

	sessionCloseTimeout = 10 * time.Second
)

// Runner drives one task through the pipeline: navigate, analyze, plan,
// execute, extract. It never returns an error or panics; every outcome is a
// TaskResult.
type Runner struct {
	config    *config.Config
	logger    *zap.Logger
	tracer    trace.Tracer
	sessions  ports.SessionFactory
	analyzer  ports.PageAnalyzer
	planner   ports.PlanGenerator
	executor  ports.ActionExecutor
	stepPause time.Duration
}

type RunnerParams struct {
	fx.In

	Config   *config.Config
	Logger   *zap.Logger
	Sessions ports.SessionFactory
	Analyzer ports.PageAnalyzer
	Planner  ports.PlanGenerator
	Executor ports.ActionExecutor
}

func NewRunner(params RunnerParams) *Runner {
	return &Runner{
		config:    params.Config,
		logger:    params.Logger.With(zap.String(logg.Layer, runnerName)),
		tracer:    otel.Tracer(runnerTracer),
		sessions:  params.Sessions,
		analyzer:  params.Analyzer,
		planner:   params.Planner,
		executor:  params.Executor,
		stepPause: defaultStepPause,
	}
}

func (r *Runner) Run(ctx context.Context, goal, startURL string) (result *entity.TaskResult) {
	const op = "Run"
	logger := r.logger.With(
		zap.String(logg.Operation, op),
		zap.String(logg.Goal, goal),
		zap.String(logg.URL, startURL))

	ctx, span := tracing.StartSpan(ctx, r.tracer, logger, op,
		attribute.String("goal", goal),
		attribute.String("url", startURL))

	// The caller always gets a well-formed TaskResult, whatever happens
	// inside the pipeline.
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("Task panicked", zap.Any("panic", rec))
			result = failure("Task execution failed", fmt.Sprintf("panic: %v", rec))
		}

		if result.Success {
			span.End(nil)
		} else {
			span.End(fmt.Errorf("%s", result.Error))
		}
	}()

	if strings.TrimSpace(goal) == "" {
		return failure("Goal must not be empty", "empty goal")
	}

	if parsed, err := url.Parse(startURL); err != nil || !parsed.IsAbs() || parsed.Host == "" {
		return failure(fmt.Sprintf("Invalid start URL: %s", startURL), "start URL must be a well-formed absolute URL")
	}

	span.AddEvent("acquiring session")

	session, err := r.sessions.NewSession(ctx)
	if err != nil {
		logger.Error("Failed to start browser session", zap.Error(err))

		return failure("Failed to start browser session", err.Error())
	}

	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), sessionCloseTimeout)
		defer cancel()

		if closeErr := session.Close(closeCtx); closeErr != nil {
			logger.Warn("Failed to close session", zap.Error(closeErr))
		}
	}()

	return r.runPipeline(ctx, span, logger, session, goal, startURL)
}

func (r *Runner) runPipeline(ctx context.Context, span *tracing.Span, logger *zap.Logger, session ports.Session, goal, startURL string) *entity.TaskResult {
	// NotStarted -> Navigated. Navigation failure is fatal: no steps are
	// recorded, nothing further is attempted.
	span.AddEvent("navigating")

	navStep := entity.ActionStep{
		Action:    entity.ActionTypeNavigate,
		Target:    startURL,
		Reasoning: "Open the target page",
		TimeoutMs: r.config.BrowserConfig.Timeout,
	}

	if nav := r.executor.Execute(ctx, session, 0, navStep); !nav.Success {
		logger.Error("Initial navigation failed", zap.String("error", nav.Error))

		return failure("Failed to navigate to page", nav.Error)
	}

	// Navigated -> Analyzed. Analysis failure degrades to planning without
	// context; partial knowledge still beats none.
	span.AddEvent("analyzing page")

	snapshot, err := r.analyzer.Analyze(ctx, session)
	if err != nil {
		logger.Warn("Page analysis failed, planning without context", zap.Error(err))
		snapshot = nil
	}

	// Analyzed -> Planned.
	span.AddEvent("generating plan")

	plan := r.planner.Generate(ctx, goal, snapshot)
	if plan.Empty() {
		return failure("Could not generate plan", "empty plan")
	}

	logger.Info("Plan ready",
		zap.Int("steps", len(plan.Steps)),
		zap.Float64("confidence", plan.Confidence))

	// Planned -> Executing. Strictly sequential, short-circuit on the first
	// failed step.
	span.AddEvent("executing plan")

	results := make([]entity.StepResult, 0, len(plan.Steps))
	var firstErr string

	for i, step := range plan.Steps {
		stepResult := r.executor.Execute(ctx, session, i+1, step)
		results = append(results, stepResult)

		if !stepResult.Success {
			firstErr = stepResult.Error
			logger.Warn("Step failed, stopping execution",
				zap.Int(logg.StepIndex, stepResult.Step),
				zap.String("error", stepResult.Error))

			break
		}

		r.pause(ctx)
	}

	successful := 0
	for _, stepResult := range results {
		if stepResult.Success {
			successful++
		}
	}

	success := len(results) > 0 && successful == len(results)

	data := map[string]any{
		"steps":            results,
		"expected_outcome": plan.ExpectedOutcome,
		"confidence":       plan.Confidence,
		"total_steps":      len(plan.Steps),
		"successful_steps": successful,
	}

	// Terminal state reached; result extraction is best effort and never
	// changes the verdict.
	span.AddEvent("extracting results")

	if report := r.extractResults(ctx, session); report != nil {
		data["final_results"] = report
	}

	result := &entity.TaskResult{
		Success: success,
		Data:    data,
	}

	if success {
		result.Message = "Plan execution completed successfully"
	} else {
		result.Message = "Plan execution failed"
		result.Error = firstErr
		if result.Error == "" {
			result.Error = "no steps were executed"
		}
	}

	return result
}

func (r *Runner) pause(ctx context.Context) {
	if r.stepPause <= 0 {
		return
	}

	select {
	case <-time.After(r.stepPause):
	case <-ctx.Done():
	}
}

func failure(message, errMsg string) *entity.TaskResult {
	return &entity.TaskResult{
		Success: false,
		Message: message,
		Error:   errMsg,
	}
}

var _ ports.TaskRunner = (*Runner)(nil)
