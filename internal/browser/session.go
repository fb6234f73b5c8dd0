package browser

import (
	"context"

	"browser-pilot/internal/config"
	"browser-pilot/internal/entity"
	"browser-pilot/pkg/apperr"
	"browser-pilot/pkg/logg"
	"browser-pilot/pkg/tracing"

	"github.com/playwright-community/playwright-go"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	sessionName   = "BrowserSession"
	sessionTracer = "browser.session"
)

// Session wraps one exclusive context/page pair. All operations run on the
// task's single control thread; the session is not safe for concurrent use.
type Session struct {
	config         *config.Config
	logger         *zap.Logger
	tracer         trace.Tracer
	browserContext playwright.BrowserContext
	page           playwright.Page
	closed         bool
}

// Close releases the session's resources in reverse acquisition order:
// page first, then context. Safe to call more than once.
func (s *Session) Close(ctx context.Context) (err error) {
	const op = "Close"
	logger := s.logger.With(zap.String(logg.Operation, op))

	ctx, step := tracing.StartSpan(ctx, s.tracer, logger, op)
	defer func() {
		step.End(err)
	}()

	if s.closed {
		return nil
	}
	s.closed = true

	if s.page != nil && !s.page.IsClosed() {
		if closeErr := s.page.Close(); closeErr != nil {
			logger.Warn("Failed to close page", zap.Error(closeErr))
		}
	}

	if s.browserContext != nil {
		if closeErr := s.browserContext.Close(); closeErr != nil {
			return apperr.Wrap(op, apperr.CodeInternal, closeErr, map[string]any{
				apperr.MetaReason: "context_close_failed",
				apperr.MetaStage:  apperr.StageBrowser,
			})
		}
	}

	logger.Debug("Session closed")

	return nil
}

func (s *Session) Navigate(ctx context.Context, url string, timeoutMs int) (err error) {
	const op = "Navigate"
	logger := s.logger.With(zap.String(logg.Operation, op), zap.String(logg.URL, url))

	ctx, step := tracing.StartSpan(ctx, s.tracer, logger, op, attribute.String("url", url))
	defer func() {
		step.End(err)
	}()

	if err = requireOpen(op, s.closed); err != nil {
		return err
	}

	step.AddEvent("navigating to URL")

	_, err = s.page.Goto(url, playwright.PageGotoOptions{
		Timeout:   playwright.Float(float64(timeoutMs)),
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	})
	if err != nil {
		return wrapDriverErr(op, apperr.CodeNavigationFailed, err, map[string]any{
			apperr.MetaReason: "goto_failed",
			apperr.MetaStage:  apperr.StageNavigation,
			apperr.MetaURL:    url,
		})
	}

	step.AddEvent("waiting for network idle")

	// Best effort: heavy pages may never go idle, the load event already fired.
	if idleErr := s.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   playwright.LoadStateNetworkidle,
		Timeout: playwright.Float(float64(timeoutMs)),
	}); idleErr != nil {
		logger.Debug("Network idle wait timed out", zap.Error(idleErr))
	}

	return nil
}

func (s *Session) WaitForSelector(ctx context.Context, selector string, timeoutMs int) (err error) {
	const op = "WaitForSelector"
	logger := s.logger.With(zap.String(logg.Operation, op), zap.String(logg.Selector, selector))

	ctx, step := tracing.StartSpan(ctx, s.tracer, logger, op, attribute.String("selector", selector))
	defer func() {
		step.End(err)
	}()

	if err = requireOpen(op, s.closed); err != nil {
		return err
	}

	_, err = s.page.WaitForSelector(selector, playwright.PageWaitForSelectorOptions{
		Timeout: playwright.Float(float64(timeoutMs)),
	})
	if err != nil {
		return wrapDriverErr(op, apperr.CodeTimeout, err, map[string]any{
			apperr.MetaReason:   "wait_selector_timeout",
			apperr.MetaSelector: selector,
		})
	}

	return nil
}

func (s *Session) Click(ctx context.Context, selector string) (err error) {
	const op = "Click"
	logger := s.logger.With(zap.String(logg.Operation, op), zap.String(logg.Selector, selector))

	ctx, step := tracing.StartSpan(ctx, s.tracer, logger, op, attribute.String("selector", selector))
	defer func() {
		step.End(err)
	}()

	if err = requireOpen(op, s.closed); err != nil {
		return err
	}

	err = s.page.Click(selector, playwright.PageClickOptions{
		Timeout: playwright.Float(float64(s.config.BrowserConfig.Timeout)),
	})
	if err != nil {
		return wrapDriverErr(op, apperr.CodeActionFailed, err, map[string]any{
			apperr.MetaReason:   "click_failed",
			apperr.MetaStage:    apperr.StageExecution,
			apperr.MetaSelector: selector,
		})
	}

	return nil
}

func (s *Session) Fill(ctx context.Context, selector, value string) (err error) {
	const op = "Fill"
	logger := s.logger.With(zap.String(logg.Operation, op), zap.String(logg.Selector, selector))

	ctx, step := tracing.StartSpan(ctx, s.tracer, logger, op, attribute.String("selector", selector))
	defer func() {
		step.End(err)
	}()

	if err = requireOpen(op, s.closed); err != nil {
		return err
	}

	err = s.page.Fill(selector, value, playwright.PageFillOptions{
		Timeout: playwright.Float(float64(s.config.BrowserConfig.Timeout)),
	})
	if err != nil {
		return wrapDriverErr(op, apperr.CodeActionFailed, err, map[string]any{
			apperr.MetaReason:   "fill_failed",
			apperr.MetaStage:    apperr.StageExecution,
			apperr.MetaSelector: selector,
		})
	}

	return nil
}

func (s *Session) TypeActive(ctx context.Context, text string) (err error) {
	const op = "TypeActive"
	logger := s.logger.With(zap.String(logg.Operation, op))

	ctx, step := tracing.StartSpan(ctx, s.tracer, logger, op)
	defer func() {
		step.End(err)
	}()

	if err = requireOpen(op, s.closed); err != nil {
		return err
	}

	if err = s.page.Keyboard().Type(text); err != nil {
		return wrapDriverErr(op, apperr.CodeActionFailed, err, map[string]any{
			apperr.MetaReason: "keyboard_type_failed",
			apperr.MetaStage:  apperr.StageExecution,
		})
	}

	return nil
}

func (s *Session) Press(ctx context.Context, key string) (err error) {
	const op = "Press"
	logger := s.logger.With(zap.String(logg.Operation, op))

	ctx, step := tracing.StartSpan(ctx, s.tracer, logger, op, attribute.String("key", key))
	defer func() {
		step.End(err)
	}()

	if err = requireOpen(op, s.closed); err != nil {
		return err
	}

	if err = s.page.Keyboard().Press(key); err != nil {
		return wrapDriverErr(op, apperr.CodeActionFailed, err, map[string]any{
			apperr.MetaReason: "press_failed",
			apperr.MetaStage:  apperr.StageExecution,
		})
	}

	return nil
}

func (s *Session) TextContent(ctx context.Context, selector string) (text string, err error) {
	const op = "TextContent"
	logger := s.logger.With(zap.String(logg.Operation, op), zap.String(logg.Selector, selector))

	ctx, step := tracing.StartSpan(ctx, s.tracer, logger, op, attribute.String("selector", selector))
	defer func() {
		step.End(err)
	}()

	if err = requireOpen(op, s.closed); err != nil {
		return "", err
	}

	text, err = s.page.TextContent(selector, playwright.PageTextContentOptions{
		Timeout: playwright.Float(float64(s.config.BrowserConfig.Timeout)),
	})
	if err != nil {
		return "", wrapDriverErr(op, apperr.CodeActionFailed, err, map[string]any{
			apperr.MetaReason:   "text_content_failed",
			apperr.MetaSelector: selector,
		})
	}

	return text, nil
}

func (s *Session) ScrollToBottom(ctx context.Context) (err error) {
	const op = "ScrollToBottom"
	logger := s.logger.With(zap.String(logg.Operation, op))

	ctx, step := tracing.StartSpan(ctx, s.tracer, logger, op)
	defer func() {
		step.End(err)
	}()

	if err = requireOpen(op, s.closed); err != nil {
		return err
	}

	_, err = s.page.Evaluate("window.scrollTo(0, document.body.scrollHeight)")
	if err != nil {
		return wrapDriverErr(op, apperr.CodeActionFailed, err, map[string]any{
			apperr.MetaReason: "scroll_failed",
			apperr.MetaStage:  apperr.StageExecution,
		})
	}

	return nil
}

func (s *Session) Evaluate(ctx context.Context, script string) (result any, err error) {
	const op = "Evaluate"
	logger := s.logger.With(zap.String(logg.Operation, op))

	ctx, step := tracing.StartSpan(ctx, s.tracer, logger, op)
	defer func() {
		step.End(err)
	}()

	if err = requireOpen(op, s.closed); err != nil {
		return nil, err
	}

	result, err = s.page.Evaluate(script)
	if err != nil {
		return nil, wrapDriverErr(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "evaluate_failed",
		})
	}

	return result, nil
}

func (s *Session) URL(ctx context.Context) string {
	if s.closed {
		return ""
	}

	return s.page.URL()
}

func (s *Session) Title(ctx context.Context) (string, error) {
	const op = "Title"

	if err := requireOpen(op, s.closed); err != nil {
		return "", err
	}

	title, err := s.page.Title()
	if err != nil {
		return "", wrapDriverErr(op, apperr.CodeInternal, err, nil)
	}

	return title, nil
}

func (s *Session) Viewport() entity.Viewport {
	return entity.Viewport{
		Width:  s.config.BrowserConfig.ViewportWidth,
		Height: s.config.BrowserConfig.ViewportHeight,
	}
}
