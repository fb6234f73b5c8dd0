package analyzer

import (
	"context"
	"strings"

	"browser-pilot/internal/entity"
	"browser-pilot/internal/ports"
	"browser-pilot/pkg/apperr"
	"browser-pilot/pkg/logg"
	"browser-pilot/pkg/tracing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	analyzerName   = "PageAnalyzer"
	analyzerTracer = "analyzer"
)

// Analyzer builds a structured snapshot of the current page: interactive
// elements plus coarse structural facts. Extraction is best effort; a broken
// element never aborts the analysis.
type Analyzer struct {
	logger *zap.Logger
	tracer trace.Tracer
}

type Params struct {
	fx.In

	Logger *zap.Logger
}

func NewAnalyzer(params Params) *Analyzer {
	return &Analyzer{
		logger: params.Logger.With(zap.String(logg.Layer, analyzerName)),
		tracer: otel.Tracer(analyzerTracer),
	}
}

func (a *Analyzer) Analyze(ctx context.Context, page ports.PageDriver) (snapshot *entity.PageSnapshot, err error) {
	const op = "Analyze"
	logger := a.logger.With(zap.String(logg.Operation, op))

	ctx, step := tracing.StartSpan(ctx, a.tracer, logger, op)
	defer func() {
		step.End(err)
	}()

	url := page.URL(ctx)

	title, titleErr := page.Title(ctx)
	if titleErr != nil {
		logger.Debug("Failed to read title", zap.Error(titleErr))
	}

	step.AddEvent("evaluating page script")

	raw, err := page.Evaluate(ctx, analyzeScript())
	if err != nil {
		return nil, apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "analyze_script_failed",
			apperr.MetaStage:  apperr.StageAnalysis,
			apperr.MetaURL:    url,
		})
	}

	resultMap, ok := raw.(map[string]any)
	if !ok {
		return nil, apperr.WrapErrorWithReason(op, apperr.CodeInternal, "unexpected_result_type")
	}

	facts := entity.StructuralFacts{
		HasNavigation: getBool(resultMap, "hasNavigation"),
		HasSearch:     getBool(resultMap, "hasSearch"),
		HasForms:      getBool(resultMap, "hasForms"),
		HasProducts:   getBool(resultMap, "hasProducts"),
	}
	facts.PageType = classify(facts)

	snapshot = &entity.PageSnapshot{
		URL:      url,
		Title:    title,
		Viewport: page.Viewport(),
		Elements: decodeElements(resultMap["elements"]),
		Facts:    facts,
	}

	logger.Info("Page analyzed",
		zap.String(logg.URL, url),
		zap.String(logg.PageType, string(facts.PageType)),
		zap.Int("elements", len(snapshot.Elements)))
	step.SetAttributes(
		attribute.Int("elements", len(snapshot.Elements)),
		attribute.String("page_type", string(facts.PageType)))

	return snapshot, nil
}

// classify picks the page type by fixed priority: e-commerce signals dominate
// because they most constrain the useful action vocabulary.
func classify(facts entity.StructuralFacts) entity.PageType {
	switch {
	case facts.HasProducts:
		return entity.PageTypeEcommerce
	case facts.HasSearch:
		return entity.PageTypeSearch
	case facts.HasForms:
		return entity.PageTypeForm
	default:
		return entity.PageTypeContent
	}
}

func decodeElements(raw any) []entity.ElementDescriptor {
	list, ok := raw.([]any)
	if !ok {
		return nil
	}

	elements := make([]entity.ElementDescriptor, 0, len(list))

	for _, item := range list {
		elemMap, ok := item.(map[string]any)
		if !ok {
			continue
		}

		elem := entity.ElementDescriptor{
			Tag:         getString(elemMap, "tag"),
			Type:        getString(elemMap, "type"),
			ID:          getString(elemMap, "id"),
			Classes:     getStrings(elemMap, "classes"),
			Placeholder: getString(elemMap, "placeholder"),
			Text:        strings.TrimSpace(getString(elemMap, "text")),
			AriaLabel:   getString(elemMap, "ariaLabel"),
			Role:        getString(elemMap, "role"),
			Href:        getString(elemMap, "href"),
			Selector:    getString(elemMap, "selector"),
			Visible:     getBool(elemMap, "visible"),
			Enabled:     getBool(elemMap, "enabled"),
		}

		if box, ok := elemMap["box"].(map[string]any); ok {
			elem.BoundingBox = &entity.BoundingBox{
				X:      getFloat(box, "x"),
				Y:      getFloat(box, "y"),
				Width:  getFloat(box, "width"),
				Height: getFloat(box, "height"),
			}
		}

		elements = append(elements, elem)
	}

	return elements
}

func getString(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}

	return ""
}

func getStrings(m map[string]any, key string) []string {
	list, ok := m[key].([]any)
	if !ok {
		return nil
	}

	out := make([]string, 0, len(list))

	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}

	return out
}

func getBool(m map[string]any, key string) bool {
	if v, ok := m[key].(bool); ok {
		return v
	}

	return false
}

func getFloat(m map[string]any, key string) float64 {
	if v, ok := m[key].(float64); ok {
		return v
	}

	if v, ok := m[key].(int); ok {
		return float64(v)
	}

	return 0
}
