package usecase

import (
	"browser-pilot/internal/config"
	"browser-pilot/internal/ports"
	"browser-pilot/internal/usecase/adapters"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Service struct {
	Runner  adapters.RunnerService
	Browser adapters.BrowserService
	Tasks   adapters.TaskService
}

type Params struct {
	fx.In

	Logger   *zap.Logger
	Config   *config.Config
	Sessions ports.SessionFactory
	Analyzer ports.PageAnalyzer
	Planner  ports.PlanGenerator
	Executor ports.ActionExecutor
	Store    ports.TaskStore
}

func NewUsecase(params Params) *Service {
	factory := newServiceFactory(params)

	return &Service{
		Runner:  factory.CreateRunnerService(),
		Browser: factory.CreateBrowserService(),
		Tasks:   factory.CreateTaskService(),
	}
}
