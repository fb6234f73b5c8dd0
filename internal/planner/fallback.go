package planner

import (
	"context"
	"fmt"
	"strings"

	"browser-pilot/internal/entity"
)

const (
	// FallbackConfidence is the advisory confidence attached to every
	// fallback plan. Heuristic constant, not a calibrated probability.
	FallbackConfidence = 0.8

	// FallbackReasoning is the fixed reasoning string of fallback plans;
	// callers key off it to tell the strategies apart.
	FallbackReasoning = "Universal fallback plan generated for any type of query"

	searchInputChain = "input[name='q'], textarea[name='q'], input[type='search'], input[aria-label*='Search'], input[placeholder*='search' i], input[type='text']"
	submitChain      = "input[type='submit'], button[type='submit'], input[value*='Search'], button:has-text('Search'), [aria-label*='Search'], button"
	addToCartChain   = "button:has-text('Add to Cart'), button:has-text('Buy'), [data-testid*='add-to-cart'], a:has-text('Buy')"
	playChain        = "button:has-text('Play'), [data-testid*='play'], .play-button, video"
)

// FallbackStrategy is the deterministic rule table used when no completion
// service is configured or the delegated strategy fails. The baseline bets on
// the page exposing some search affordance: type the goal, submit, wait.
type FallbackStrategy struct{}

func NewFallbackStrategy() *FallbackStrategy {
	return &FallbackStrategy{}
}

func (s *FallbackStrategy) Name() string {
	return "fallback"
}

func (s *FallbackStrategy) Generate(ctx context.Context, goal string, snapshot *entity.PageSnapshot) (*entity.Plan, error) {
	goalLower := strings.ToLower(goal)

	steps := []entity.ActionStep{
		{
			Action:    entity.ActionTypeType,
			Target:    searchInputChain,
			Data:      goal,
			Reasoning: "Type the search query into the search input",
		},
		{
			Action:    entity.ActionTypeClick,
			Target:    submitChain,
			Reasoning: "Submit the search",
		},
		{
			Action:    entity.ActionTypeWait,
			Data:      "5",
			Reasoning: "Wait for results to load",
		},
	}

	if containsAny(goalLower, "buy", "purchase", "add to cart") {
		steps = append(steps, entity.ActionStep{
			Action:    entity.ActionTypeClick,
			Target:    addToCartChain,
			Reasoning: "Click on purchase or add to cart button if found",
		})
	} else if containsAny(goalLower, "watch", "video", "play") {
		steps = append(steps, entity.ActionStep{
			Action:    entity.ActionTypeClick,
			Target:    playChain,
			Reasoning: "Click play button for video content",
		})
	}

	return &entity.Plan{
		Steps:           steps,
		Confidence:      FallbackConfidence,
		Reasoning:       FallbackReasoning,
		ExpectedOutcome: fmt.Sprintf("Search and find results for: %s", goal),
	}, nil
}

func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}

	return false
}
