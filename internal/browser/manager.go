package browser

import (
	"context"
	"fmt"
	"sync"

	"browser-pilot/internal/config"
	"browser-pilot/internal/ports"
	"browser-pilot/pkg/apperr"
	"browser-pilot/pkg/logg"
	"browser-pilot/pkg/tracing"

	"github.com/playwright-community/playwright-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	browserManagerName = "BrowserManager"
	browserTracer      = "browser.manager"

	userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Manager owns the browser process and hands out exclusive sessions. One
// session per task; sessions are never shared.
type Manager struct {
	config     *config.Config
	logger     *zap.Logger
	tracer     trace.Tracer
	playwright *playwright.Playwright
	browser    playwright.Browser
	mu         sync.Mutex
	ready      bool
}

type Params struct {
	fx.In

	Config *config.Config
	Logger *zap.Logger
}

func NewManager(params Params) *Manager {
	return &Manager{
		config: params.Config,
		logger: params.Logger.With(zap.String(logg.Layer, browserManagerName)),
		tracer: otel.Tracer(browserTracer),
	}
}

func (m *Manager) Launch(ctx context.Context) (err error) {
	const op = "Launch"
	logger := m.logger.With(zap.String(logg.Operation, op))

	ctx, step := tracing.StartSpan(ctx, m.tracer, logger, op)
	defer func() {
		step.End(err)
	}()

	logger.Info("Launching browser...")
	step.AddEvent("installing playwright")

	if err = playwright.Install(); err != nil {
		return apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "playwright_install_failed",
			apperr.MetaStage:  apperr.StageBrowser,
		})
	}

	step.AddEvent("starting playwright")

	pw, err := playwright.Run()
	if err != nil {
		return apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "playwright_start_failed",
			apperr.MetaStage:  apperr.StageBrowser,
		})
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(m.config.BrowserConfig.Headless),
		SlowMo:   playwright.Float(float64(m.config.BrowserConfig.SlowMo)),
		Args: []string{
			"--no-sandbox",
			"--disable-dev-shm-usage",
			"--disable-blink-features=AutomationControlled",
			"--disable-popup-blocking",
			"--no-first-run",
			"--no-default-browser-check",
		},
	})
	if err != nil {
		stopErr := pw.Stop()
		if stopErr != nil {
			logger.Warn("Failed to stop playwright after launch failure", zap.Error(stopErr))
		}

		return apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "browser_launch_failed",
			apperr.MetaStage:  apperr.StageBrowser,
		})
	}

	m.mu.Lock()
	m.playwright = pw
	m.browser = browser
	m.ready = true
	m.mu.Unlock()

	logger.Info("Browser launched successfully")

	return nil
}

func (m *Manager) Shutdown(ctx context.Context) (err error) {
	const op = "Shutdown"
	logger := m.logger.With(zap.String(logg.Operation, op))

	ctx, step := tracing.StartSpan(ctx, m.tracer, logger, op)
	defer func() {
		step.End(err)
	}()

	m.mu.Lock()
	defer m.mu.Unlock()

	logger.Info("Closing browser...")
	m.ready = false

	if m.browser != nil {
		if closeErr := m.browser.Close(); closeErr != nil {
			logger.Warn("Failed to close browser", zap.Error(closeErr))
		}
		m.browser = nil
	}

	if m.playwright != nil {
		if stopErr := m.playwright.Stop(); stopErr != nil {
			return apperr.Wrap(op, apperr.CodeInternal, stopErr, map[string]any{
				apperr.MetaReason: "playwright_stop_failed",
			})
		}
		m.playwright = nil
	}

	logger.Info("Browser closed")

	return nil
}

// NewSession creates an isolated browser context with a single page. The
// caller owns the session for the task's lifetime and must Close it on every
// exit path.
func (m *Manager) NewSession(ctx context.Context) (sess ports.Session, err error) {
	const op = "NewSession"
	logger := m.logger.With(zap.String(logg.Operation, op))

	ctx, step := tracing.StartSpan(ctx, m.tracer, logger, op)
	defer func() {
		step.End(err)
	}()

	m.mu.Lock()
	browser := m.browser
	ready := m.ready
	m.mu.Unlock()

	if !ready || browser == nil {
		return nil, apperr.WrapErrorWithReason(op, apperr.CodeBrowserNotReady, "browser_not_ready")
	}

	browserContext, err := browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  m.config.BrowserConfig.ViewportWidth,
			Height: m.config.BrowserConfig.ViewportHeight,
		},
		UserAgent:         playwright.String(userAgent),
		JavaScriptEnabled: playwright.Bool(true),
		Locale:            playwright.String("en-US"),
		TimezoneId:        playwright.String("America/New_York"),
	})
	if err != nil {
		return nil, apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "context_create_failed",
			apperr.MetaStage:  apperr.StageBrowser,
		})
	}

	if err = browserContext.AddInitScript(playwright.Script{
		Content: playwright.String(stealthScript()),
	}); err != nil {
		logger.Warn("Failed to add stealth script", zap.Error(err))
	}

	page, err := browserContext.NewPage()
	if err != nil {
		if closeErr := browserContext.Close(); closeErr != nil {
			logger.Warn("Failed to close context after page failure", zap.Error(closeErr))
		}

		return nil, apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "page_create_failed",
			apperr.MetaStage:  apperr.StageBrowser,
		})
	}

	step.AddEvent("session created")

	return &Session{
		config:         m.config,
		logger:         m.logger.With(zap.String(logg.Layer, sessionName)),
		tracer:         otel.Tracer(sessionTracer),
		browserContext: browserContext,
		page:           page,
	}, nil
}

func (m *Manager) IsReady() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.ready
}

var _ ports.SessionFactory = (*Manager)(nil)

func requireOpen(op string, closed bool) error {
	if closed {
		return apperr.WrapErrorWithReason(op, apperr.CodeSessionClosed, "session_closed")
	}

	return nil
}

func wrapDriverErr(op, code string, err error, meta map[string]any) error {
	if err == nil {
		return nil
	}

	if meta == nil {
		meta = map[string]any{}
	}
	if _, ok := meta[apperr.MetaReason]; !ok {
		meta[apperr.MetaReason] = fmt.Sprintf("%s_failed", op)
	}

	return apperr.Wrap(op, code, err, meta)
}
