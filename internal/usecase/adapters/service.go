package adapters

import (
	"context"

	"browser-pilot/internal/entity"
	"browser-pilot/internal/ports"
)

type RunnerService interface {
	Run(ctx context.Context, goal, startURL string) *entity.TaskResult
}

type BrowserService interface {
	Launch(ctx context.Context) error
	Shutdown(ctx context.Context) error
	NewSession(ctx context.Context) (ports.Session, error)
	IsReady() bool
}

type TaskService interface {
	Create(goal, startURL string) *entity.TaskRecord
	Complete(id string, result *entity.TaskResult)
	Get(id string) (*entity.TaskRecord, bool)
	List() []*entity.TaskRecord
}
