package usecase

import (
	"browser-pilot/internal/usecase/adapters"
)

type serviceFactory struct {
	deps Params
}

func newServiceFactory(deps Params) *serviceFactory {
	return &serviceFactory{
		deps: deps,
	}
}

func (f *serviceFactory) CreateRunnerService() adapters.RunnerService {
	return NewRunner(RunnerParams{
		Config:   f.deps.Config,
		Logger:   f.deps.Logger,
		Sessions: f.deps.Sessions,
		Analyzer: f.deps.Analyzer,
		Planner:  f.deps.Planner,
		Executor: f.deps.Executor,
	})
}

func (f *serviceFactory) CreateBrowserService() adapters.BrowserService {
	return f.deps.Sessions
}

func (f *serviceFactory) CreateTaskService() adapters.TaskService {
	return f.deps.Store
}
