package usecase

import (
	"context"
	"strings"

	"browser-pilot/internal/entity"
	"browser-pilot/internal/ports"
	"browser-pilot/pkg/logg"

	"go.uber.org/zap"
)

const (
	maxResultsPerStrategy = 5
	maxBodyTextLen        = 500
)

// extractResults tries the site-pattern scrapers in priority order and falls
// back to raw body text. Every failure is swallowed; extraction only ever
// enriches the task data.
func (r *Runner) extractResults(ctx context.Context, session ports.PageDriver) *entity.ExtractionReport {
	const op = "extractResults"
	logger := r.logger.With(zap.String(logg.Operation, op))

	pageURL := session.URL(ctx)

	title, err := session.Title(ctx)
	if err != nil {
		logger.Debug("Failed to read page title", zap.Error(err))
	}

	strategies := []struct {
		name   string
		script string
	}{
		{"search_results", searchResultsScript()},
		{"engine_results", engineResultsScript()},
		{"product_listing", productListingScript(maxResultsPerStrategy)},
		{"offsite_links", offsiteLinksScript(maxResultsPerStrategy)},
	}

	for _, strategy := range strategies {
		results := r.evaluateResultScript(ctx, session, strategy.script)
		if len(results) == 0 {
			continue
		}

		if len(results) > maxResultsPerStrategy {
			results = results[:maxResultsPerStrategy]
		}

		logger.Info("Results extracted",
			zap.String("method", strategy.name),
			zap.Int("count", len(results)))

		return &entity.ExtractionReport{
			PageTitle: title,
			PageURL:   pageURL,
			Results:   results,
			Method:    strategy.name,
		}
	}

	// Last resort: whatever visible text the landed page has.
	raw, err := session.Evaluate(ctx, "document.body ? document.body.innerText : ''")
	if err != nil {
		logger.Debug("Body text extraction failed", zap.Error(err))

		return nil
	}

	body, _ := raw.(string)
	body = strings.TrimSpace(body)
	if len(body) < 50 {
		return nil
	}

	if len(body) > maxBodyTextLen {
		body = body[:maxBodyTextLen] + "..."
	}

	return &entity.ExtractionReport{
		PageTitle: title,
		PageURL:   pageURL,
		Results: []entity.ExtractedResult{
			{
				Title:   "Page Content: " + title,
				Content: body,
				Type:    "page_content",
			},
		},
		Method: "body_text",
	}
}

func (r *Runner) evaluateResultScript(ctx context.Context, session ports.PageDriver, script string) []entity.ExtractedResult {
	raw, err := session.Evaluate(ctx, script)
	if err != nil {
		return nil
	}

	list, ok := raw.([]any)
	if !ok {
		return nil
	}

	results := make([]entity.ExtractedResult, 0, len(list))

	for _, item := range list {
		itemMap, ok := item.(map[string]any)
		if !ok {
			continue
		}

		result := entity.ExtractedResult{
			Title:   strings.TrimSpace(getString(itemMap, "title")),
			Snippet: strings.TrimSpace(getString(itemMap, "snippet")),
			Link:    getString(itemMap, "link"),
			Price:   strings.TrimSpace(getString(itemMap, "price")),
			Rating:  strings.TrimSpace(getString(itemMap, "rating")),
			Type:    getString(itemMap, "type"),
		}

		if len(result.Title) <= 3 {
			continue
		}

		if len(result.Snippet) > 200 {
			result.Snippet = result.Snippet[:200]
		}

		results = append(results, result)
	}

	return results
}

func getString(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}

	return ""
}
