package taskstore

import (
	"sort"
	"sync"
	"time"

	"browser-pilot/internal/entity"
	"browser-pilot/internal/ports"
	"browser-pilot/pkg/logg"

	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const storeName = "TaskStore"

// Store is the in-memory task registry: a mutex-guarded map keyed by task id.
// The runner itself is pure; this is the bookkeeping wrapped around it.
type Store struct {
	logger *zap.Logger
	mu     sync.RWMutex
	tasks  map[string]*entity.TaskRecord
}

type Params struct {
	fx.In

	Logger *zap.Logger
}

func NewStore(params Params) *Store {
	return &Store{
		logger: params.Logger.With(zap.String(logg.Layer, storeName)),
		tasks:  make(map[string]*entity.TaskRecord),
	}
}

func (s *Store) Create(goal, startURL string) *entity.TaskRecord {
	record := &entity.TaskRecord{
		ID:        uuid.New(),
		Goal:      goal,
		StartURL:  startURL,
		State:     entity.TaskStateExecuting,
		CreatedAt: time.Now(),
	}

	s.mu.Lock()
	s.tasks[record.ID.String()] = record
	s.mu.Unlock()

	s.logger.Info("Task created",
		zap.String(logg.TaskID, record.ID.String()),
		zap.String(logg.Goal, goal))

	return record
}

func (s *Store) Complete(id string, result *entity.TaskResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.tasks[id]
	if !ok {
		return
	}

	now := time.Now()
	record.Result = result
	record.CompletedAt = &now

	if result != nil && result.Success {
		record.State = entity.TaskStateCompleted
	} else {
		record.State = entity.TaskStateFailed
	}
}

func (s *Store) Get(id string) (*entity.TaskRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.tasks[id]

	return record, ok
}

func (s *Store) List() []*entity.TaskRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]*entity.TaskRecord, 0, len(s.tasks))
	for _, record := range s.tasks {
		records = append(records, record)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.Before(records[j].CreatedAt)
	})

	return records
}

var _ ports.TaskStore = (*Store)(nil)
