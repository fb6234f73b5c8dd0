package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"browser-pilot/internal/config"
	"browser-pilot/internal/entity"
	"browser-pilot/internal/ports"
	"browser-pilot/pkg/apperr"

	"go.uber.org/zap"
)

// DelegatedStrategy sends a bounded prompt to the text-completion service and
// parses the response as a JSON plan. Low temperature for determinism. Any
// service or parse failure is an error; the Generator falls back.
type DelegatedStrategy struct {
	config    *config.PlannerConfig
	completer ports.Completer
	logger    *zap.Logger
}

func NewDelegatedStrategy(cfg *config.PlannerConfig, completer ports.Completer, logger *zap.Logger) *DelegatedStrategy {
	return &DelegatedStrategy{
		config:    cfg,
		completer: completer,
		logger:    logger,
	}
}

func (s *DelegatedStrategy) Name() string {
	return "delegated"
}

func (s *DelegatedStrategy) Generate(ctx context.Context, goal string, snapshot *entity.PageSnapshot) (*entity.Plan, error) {
	const op = "Generate"

	prompt := s.buildPrompt(goal, snapshot)

	raw, err := s.completer.Complete(ctx, prompt, s.config.Temperature)
	if err != nil {
		return nil, apperr.Wrap(op, apperr.CodePlannerError, err, map[string]any{
			apperr.MetaReason: "completion_failed",
			apperr.MetaStage:  apperr.StagePlanning,
		})
	}

	plan, err := parsePlan(raw, goal)
	if err != nil {
		return nil, apperr.Wrap(op, apperr.CodePlannerError, err, map[string]any{
			apperr.MetaReason: "plan_parse_failed",
			apperr.MetaStage:  apperr.StagePlanning,
		})
	}

	return plan, nil
}

func (s *DelegatedStrategy) buildPrompt(goal string, snapshot *entity.PageSnapshot) string {
	var b strings.Builder

	b.WriteString("You are an expert web automation agent. Generate a step-by-step plan to achieve the user's goal.\n\n")
	b.WriteString(fmt.Sprintf("USER GOAL: %s\n\n", goal))

	if snapshot != nil {
		b.WriteString("PAGE CONTEXT:\n")
		b.WriteString(fmt.Sprintf("- URL: %s\n", snapshot.URL))
		b.WriteString(fmt.Sprintf("- Title: %s\n", snapshot.Title))
		b.WriteString(fmt.Sprintf("- Page Type: %s\n", snapshot.Facts.PageType))
		b.WriteString(fmt.Sprintf("- Has Search: %t\n", snapshot.Facts.HasSearch))
		b.WriteString(fmt.Sprintf("- Has Products: %t\n", snapshot.Facts.HasProducts))
		b.WriteString("\nAVAILABLE ELEMENTS:\n")

		limit := s.config.MaxElements
		if limit <= 0 {
			limit = 10
		}

		count := 0
		for _, elem := range snapshot.Elements {
			if count >= limit {
				break
			}
			if !elem.Visible {
				continue
			}

			label := elem.Text
			if label == "" {
				label = elem.Placeholder
			}
			if label == "" {
				label = elem.AriaLabel
			}

			b.WriteString(fmt.Sprintf("- %s: %q selector: %s\n", elem.Tag, label, elem.Selector))
			count++
		}
	}

	b.WriteString(`
Generate a JSON plan with the following structure:
{
    "steps": [
        {
            "action": "navigate|click|type|wait|get_text|scroll",
            "target": "element selector (may list comma-separated fallbacks)",
            "data": "text to type, URL, or wait seconds (if applicable)",
            "reasoning": "why this step is needed"
        }
    ],
    "confidence": 0.0-1.0,
    "reasoning": "overall strategy explanation",
    "expected_outcome": "what should happen"
}

Return only the JSON, no other text.
`)

	return b.String()
}

func parsePlan(raw, goal string) (*entity.Plan, error) {
	cleaned := stripFences(raw)

	var plan entity.Plan
	if err := json.Unmarshal([]byte(cleaned), &plan); err != nil {
		return nil, fmt.Errorf("decode plan: %w", err)
	}

	if len(plan.Steps) == 0 {
		return nil, fmt.Errorf("plan has no steps")
	}

	for i, step := range plan.Steps {
		if !validAction(step.Action) {
			return nil, fmt.Errorf("step %d has unknown action %q", i+1, step.Action)
		}
	}

	if plan.Confidence <= 0 || plan.Confidence > 1 {
		plan.Confidence = FallbackConfidence
	}
	if plan.Reasoning == "" {
		plan.Reasoning = "AI-generated plan"
	}
	if plan.ExpectedOutcome == "" {
		plan.ExpectedOutcome = fmt.Sprintf("Complete: %s", goal)
	}

	return &plan, nil
}

// stripFences removes a surrounding markdown code fence, which completion
// services add despite being told not to.
func stripFences(raw string) string {
	cleaned := strings.TrimSpace(raw)

	if strings.HasPrefix(cleaned, "```json") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
	} else if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```")
	}

	cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), "```")

	return strings.TrimSpace(cleaned)
}

func validAction(action entity.ActionType) bool {
	switch action {
	case entity.ActionTypeNavigate, entity.ActionTypeClick, entity.ActionTypeType,
		entity.ActionTypeWait, entity.ActionTypeGetText, entity.ActionTypeScroll:
		return true
	default:
		return false
	}
}
