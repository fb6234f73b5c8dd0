package planner

import (
	"context"

	"browser-pilot/internal/config"
	"browser-pilot/internal/entity"
	"browser-pilot/internal/ports"
	"browser-pilot/pkg/logg"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

const plannerName = "PlanGenerator"

// Strategy turns a goal and a page snapshot into a plan. A strategy may
// refuse with an error; the Generator guarantees the caller always gets a
// non-nil plan regardless.
type Strategy interface {
	Name() string
	Generate(ctx context.Context, goal string, snapshot *entity.PageSnapshot) (*entity.Plan, error)
}

// Generator selects the strategy at construction time: a delegated LLM
// strategy when a completer is configured, the deterministic fallback
// otherwise. The fallback also backs the delegated strategy on any error.
type Generator struct {
	logger   *zap.Logger
	primary  Strategy
	fallback Strategy
}

type Params struct {
	fx.In

	Config    *config.Config
	Logger    *zap.Logger
	Completer ports.Completer `optional:"true"`
}

func NewGenerator(params Params) *Generator {
	logger := params.Logger.With(zap.String(logg.Layer, plannerName))
	fallback := NewFallbackStrategy()

	var primary Strategy = fallback
	if params.Completer != nil && params.Config.PlannerConfig.APIKey != "" {
		primary = NewDelegatedStrategy(params.Config.PlannerConfig, params.Completer, logger)
	}

	return &Generator{
		logger:   logger,
		primary:  primary,
		fallback: fallback,
	}
}

// Generate never fails: any strategy error routes to the fallback, which is
// total over its inputs.
func (g *Generator) Generate(ctx context.Context, goal string, snapshot *entity.PageSnapshot) *entity.Plan {
	logger := g.logger.With(
		zap.String(logg.Goal, goal),
		zap.String(logg.Strategy, g.primary.Name()))

	plan, err := g.primary.Generate(ctx, goal, snapshot)
	if err == nil && !plan.Empty() {
		logger.Info("Plan generated",
			zap.Int("steps", len(plan.Steps)),
			zap.Float64("confidence", plan.Confidence))

		return plan
	}

	if err != nil {
		logger.Warn("Primary strategy failed, using fallback", zap.Error(err))
	} else {
		logger.Warn("Primary strategy produced empty plan, using fallback")
	}

	plan, _ = g.fallback.Generate(ctx, goal, snapshot)

	return plan
}

var _ ports.PlanGenerator = (*Generator)(nil)
