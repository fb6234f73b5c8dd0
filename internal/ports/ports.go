package ports

import (
	"context"

	"browser-pilot/internal/entity"
)

// PageDriver is the browser capability surface the core consumes. Sessions,
// fakes in tests, and any other automation backend satisfy it.
type PageDriver interface {
	Navigate(ctx context.Context, url string, timeoutMs int) error
	WaitForSelector(ctx context.Context, selector string, timeoutMs int) error
	Click(ctx context.Context, selector string) error
	Fill(ctx context.Context, selector, value string) error
	TypeActive(ctx context.Context, text string) error
	Press(ctx context.Context, key string) error
	TextContent(ctx context.Context, selector string) (string, error)
	ScrollToBottom(ctx context.Context) error
	Evaluate(ctx context.Context, script string) (any, error)
	URL(ctx context.Context) string
	Title(ctx context.Context) (string, error)
	Viewport() entity.Viewport
}

// Session is one exclusive browser context/page pair owned by a single task.
type Session interface {
	PageDriver
	Close(ctx context.Context) error
}

type SessionFactory interface {
	Launch(ctx context.Context) error
	Shutdown(ctx context.Context) error
	NewSession(ctx context.Context) (Session, error)
	IsReady() bool
}

// Completer is the text-completion capability: prompt in, raw text out.
// Treated as unreliable; callers must survive any error.
type Completer interface {
	Complete(ctx context.Context, prompt string, temperature float64) (string, error)
}

type PageAnalyzer interface {
	Analyze(ctx context.Context, page PageDriver) (*entity.PageSnapshot, error)
}

type PlanGenerator interface {
	Generate(ctx context.Context, goal string, snapshot *entity.PageSnapshot) *entity.Plan
}

type ActionExecutor interface {
	Execute(ctx context.Context, page PageDriver, index int, step entity.ActionStep) entity.StepResult
}

type TaskRunner interface {
	Run(ctx context.Context, goal, startURL string) *entity.TaskResult
}

type TaskStore interface {
	Create(goal, startURL string) *entity.TaskRecord
	Complete(id string, result *entity.TaskResult)
	Get(id string) (*entity.TaskRecord, bool)
	List() []*entity.TaskRecord
}
