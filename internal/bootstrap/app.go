package bootstrap

import (
	"time"

	"browser-pilot/internal/ai"
	"browser-pilot/internal/analyzer"
	"browser-pilot/internal/browser"
	"browser-pilot/internal/config"
	"browser-pilot/internal/console"
	"browser-pilot/internal/executor"
	"browser-pilot/internal/planner"
	"browser-pilot/internal/ports"
	"browser-pilot/internal/taskstore"
	"browser-pilot/internal/usecase"

	"go.uber.org/fx"
)

func NewApp() *fx.App {
	return fx.New(
		fx.Provide(
			config.GetConfig,
			newLogger,
			newTraceProvider,

			fx.Annotate(browser.NewManager, fx.As(new(ports.SessionFactory))),
			fx.Annotate(ai.NewClient, fx.As(new(ports.Completer))),
			fx.Annotate(analyzer.NewAnalyzer, fx.As(new(ports.PageAnalyzer))),
			fx.Annotate(executor.NewExecutor, fx.As(new(ports.ActionExecutor))),
			fx.Annotate(planner.NewGenerator, fx.As(new(ports.PlanGenerator))),
			fx.Annotate(taskstore.NewStore, fx.As(new(ports.TaskStore))),

			usecase.NewUsecase,

			console.NewInterface,
		),

		fx.Invoke(
			runConsole,
		),

		fx.StartTimeout(60*time.Second),
	)
}
