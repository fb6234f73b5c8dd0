package executor

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

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
	executorName   = "ActionExecutor"
	executorTracer = "executor"

	// Per-candidate resolution budget inside the fallback loop. Live markup
	// is unpredictable, individual misses should fail fast.
	candidateTimeoutMs = 3000

	defaultWaitSeconds = 2
)

// Executor runs one typed action against a page and reports a uniform
// StepResult. Driver errors never escape; every failure becomes a result.
type Executor struct {
	logger *zap.Logger
	tracer trace.Tracer
}

type Params struct {
	fx.In

	Logger *zap.Logger
}

func NewExecutor(params Params) *Executor {
	return &Executor{
		logger: params.Logger.With(zap.String(logg.Layer, executorName)),
		tracer: otel.Tracer(executorTracer),
	}
}

func (e *Executor) Execute(ctx context.Context, page ports.PageDriver, index int, step entity.ActionStep) entity.StepResult {
	const op = "Execute"
	logger := e.logger.With(
		zap.String(logg.Operation, op),
		zap.String(logg.Action, string(step.Action)),
		zap.Int(logg.StepIndex, index))

	ctx, span := tracing.StartSpan(ctx, e.tracer, logger, op,
		attribute.String("action", string(step.Action)),
		attribute.Int("step_index", index))
	defer span.End(nil)

	logger.Info("Executing action", zap.String(logg.Selector, step.Target))

	var result entity.StepResult

	switch step.Action {
	case entity.ActionTypeNavigate:
		result = e.doNavigate(ctx, page, step)
	case entity.ActionTypeClick:
		result = e.doClick(ctx, page, step)
	case entity.ActionTypeType:
		result = e.doType(ctx, page, step)
	case entity.ActionTypeWait:
		result = e.doWait(ctx, page, step)
	case entity.ActionTypeGetText:
		result = e.doGetText(ctx, page, step)
	case entity.ActionTypeScroll:
		result = e.doScroll(ctx, page)
	default:
		result = fail(step.Action, fmt.Sprintf("unknown action: %s", step.Action), "unsupported action type")
	}

	result.Step = index
	result.Action = step.Action

	if !result.Success {
		logger.Warn("Action failed", zap.String("error", result.Error))
		span.Fail(result.Error)
	}

	return result
}

func (e *Executor) doNavigate(ctx context.Context, page ports.PageDriver, step entity.ActionStep) entity.StepResult {
	target := step.Target
	if target == "" {
		target = step.Data
	}

	parsed, err := url.Parse(target)
	if err != nil || !parsed.IsAbs() || parsed.Host == "" {
		return fail(step.Action, fmt.Sprintf("navigate failed: %s", target), "target is not an absolute URL")
	}

	if err := page.Navigate(ctx, target, step.Timeout()); err != nil {
		return fail(step.Action, fmt.Sprintf("navigate failed: %s", target), err.Error())
	}

	return ok(step.Action, fmt.Sprintf("Navigated to %s", target), nil)
}

// doClick tries the target's selector candidates in order and clicks the first
// that resolves. When nothing resolves, a synthetic Enter keypress stands in:
// most generated click steps follow a filled search field.
func (e *Executor) doClick(ctx context.Context, page ports.PageDriver, step entity.ActionStep) entity.StepResult {
	selector, found := e.resolveFirst(ctx, page, step.Candidates(), step.Timeout())
	if !found {
		if err := page.Press(ctx, "Enter"); err != nil {
			return fail(step.Action, fmt.Sprintf("click failed: %s", step.Target), err.Error())
		}

		return ok(step.Action, "No selector resolved, pressed Enter instead", map[string]any{
			"fallback": "enter_key",
		})
	}

	if err := page.Click(ctx, selector); err != nil {
		return fail(step.Action, fmt.Sprintf("click failed: %s", selector), err.Error())
	}

	return ok(step.Action, fmt.Sprintf("Clicked %s", selector), map[string]any{
		"selector": selector,
	})
}

// doType resolves the field, focuses it with a click, clears it, then fills.
// With no resolvable selector it types into whatever currently has focus.
func (e *Executor) doType(ctx context.Context, page ports.PageDriver, step entity.ActionStep) entity.StepResult {
	selector, found := e.resolveFirst(ctx, page, step.Candidates(), step.Timeout())
	if !found {
		if err := page.TypeActive(ctx, step.Data); err != nil {
			return fail(step.Action, fmt.Sprintf("type failed: %s", step.Target), err.Error())
		}

		return ok(step.Action, "No selector resolved, typed into focused element", map[string]any{
			"fallback": "active_element",
		})
	}

	if err := page.Click(ctx, selector); err != nil {
		return fail(step.Action, fmt.Sprintf("type failed: %s", selector), err.Error())
	}

	if err := page.Fill(ctx, selector, ""); err != nil {
		return fail(step.Action, fmt.Sprintf("type failed: %s", selector), err.Error())
	}

	if err := page.Fill(ctx, selector, step.Data); err != nil {
		return fail(step.Action, fmt.Sprintf("type failed: %s", selector), err.Error())
	}

	return ok(step.Action, fmt.Sprintf("Typed %q into %s", step.Data, selector), map[string]any{
		"selector": selector,
	})
}

// doWait has two intentional modes: wait for an element when a target is
// given, otherwise sleep the duration carried in data.
func (e *Executor) doWait(ctx context.Context, page ports.PageDriver, step entity.ActionStep) entity.StepResult {
	if step.Target != "" {
		if err := page.WaitForSelector(ctx, step.Target, step.Timeout()); err != nil {
			return fail(step.Action, fmt.Sprintf("wait failed: %s", step.Target), err.Error())
		}

		return ok(step.Action, fmt.Sprintf("Waited for %s", step.Target), nil)
	}

	seconds := float64(defaultWaitSeconds)
	if step.Data != "" {
		parsed, err := strconv.ParseFloat(strings.TrimSpace(step.Data), 64)
		if err == nil && parsed > 0 {
			seconds = parsed
		}
	}

	select {
	case <-time.After(time.Duration(seconds * float64(time.Second))):
	case <-ctx.Done():
		return fail(step.Action, "wait interrupted", ctx.Err().Error())
	}

	return ok(step.Action, fmt.Sprintf("Waited %.1fs", seconds), nil)
}

// doGetText treats empty text as success: an empty node is a valid answer,
// only a missing node is a failure.
func (e *Executor) doGetText(ctx context.Context, page ports.PageDriver, step entity.ActionStep) entity.StepResult {
	selector, found := e.resolveFirst(ctx, page, step.Candidates(), step.Timeout())
	if !found {
		return fail(step.Action, fmt.Sprintf("get_text failed: %s", step.Target), "no selector resolved")
	}

	text, err := page.TextContent(ctx, selector)
	if err != nil {
		return fail(step.Action, fmt.Sprintf("get_text failed: %s", selector), err.Error())
	}

	trimmed := strings.TrimSpace(text)

	return ok(step.Action, fmt.Sprintf("Retrieved text from %s", selector), map[string]any{
		"text": trimmed,
	})
}

func (e *Executor) doScroll(ctx context.Context, page ports.PageDriver) entity.StepResult {
	if err := page.ScrollToBottom(ctx); err != nil {
		return fail(entity.ActionTypeScroll, "scroll failed", err.Error())
	}

	return ok(entity.ActionTypeScroll, "Scrolled to bottom", nil)
}

// resolveFirst is the ordered fallback-selector loop: each candidate gets a
// short budget, the first that appears wins. The total is still bounded by the
// step timeout.
func (e *Executor) resolveFirst(ctx context.Context, page ports.PageDriver, candidates []entity.SelectorCandidate, timeoutMs int) (string, bool) {
	perCandidate := candidateTimeoutMs
	if len(candidates) > 0 && timeoutMs/len(candidates) < perCandidate {
		perCandidate = timeoutMs / len(candidates)
	}
	if perCandidate < 250 {
		perCandidate = 250
	}

	for _, candidate := range candidates {
		if ctx.Err() != nil {
			return "", false
		}

		selector := string(candidate)
		if err := page.WaitForSelector(ctx, selector, perCandidate); err == nil {
			return selector, true
		}
	}

	return "", false
}

func ok(action entity.ActionType, message string, data map[string]any) entity.StepResult {
	return entity.StepResult{
		Action:  action,
		Success: true,
		Message: message,
		Data:    data,
	}
}

func fail(action entity.ActionType, message, errMsg string) entity.StepResult {
	return entity.StepResult{
		Action:  action,
		Success: false,
		Message: message,
		Error:   errMsg,
	}
}
