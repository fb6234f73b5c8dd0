package analyzer

import (
	"context"
	"errors"
	"testing"

	"browser-pilot/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakePage struct {
	evaluateResult any
	evaluateErr    error
	titleErr       error
}

func (p *fakePage) Navigate(context.Context, string, int) error        { return nil }
func (p *fakePage) WaitForSelector(context.Context, string, int) error { return nil }
func (p *fakePage) Click(context.Context, string) error                { return nil }
func (p *fakePage) Fill(context.Context, string, string) error         { return nil }
func (p *fakePage) TypeActive(context.Context, string) error           { return nil }
func (p *fakePage) Press(context.Context, string) error                { return nil }
func (p *fakePage) ScrollToBottom(context.Context) error               { return nil }

func (p *fakePage) TextContent(context.Context, string) (string, error) { return "", nil }

func (p *fakePage) Evaluate(context.Context, string) (any, error) {
	return p.evaluateResult, p.evaluateErr
}

func (p *fakePage) URL(context.Context) string { return "https://example.com/shop" }

func (p *fakePage) Title(context.Context) (string, error) {
	if p.titleErr != nil {
		return "", p.titleErr
	}

	return "Example Shop", nil
}

func (p *fakePage) Viewport() entity.Viewport { return entity.Viewport{Width: 1366, Height: 768} }

func newTestAnalyzer() *Analyzer {
	return NewAnalyzer(Params{Logger: zap.NewNop()})
}

func pageResult(facts map[string]any, elements []any) map[string]any {
	result := map[string]any{"elements": elements}
	for k, v := range facts {
		result[k] = v
	}

	return result
}

func TestAnalyzeClassificationPriority(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		facts map[string]any
		want  entity.PageType
	}{
		{
			name:  "products dominate search",
			facts: map[string]any{"hasProducts": true, "hasSearch": true, "hasForms": true},
			want:  entity.PageTypeEcommerce,
		},
		{
			name:  "search beats forms",
			facts: map[string]any{"hasSearch": true, "hasForms": true},
			want:  entity.PageTypeSearch,
		},
		{
			name:  "forms alone",
			facts: map[string]any{"hasForms": true},
			want:  entity.PageTypeForm,
		},
		{
			name:  "nothing means content",
			facts: map[string]any{},
			want:  entity.PageTypeContent,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			page := &fakePage{evaluateResult: pageResult(tc.facts, nil)}

			snapshot, err := newTestAnalyzer().Analyze(context.Background(), page)

			require.NoError(t, err)
			assert.Equal(t, tc.want, snapshot.Facts.PageType)
		})
	}
}

func TestAnalyzeDecodesElements(t *testing.T) {
	t.Parallel()

	page := &fakePage{
		evaluateResult: pageResult(map[string]any{"hasSearch": true}, []any{
			map[string]any{
				"tag":         "input",
				"type":        "search",
				"id":          "q",
				"classes":     []any{"form-control", "search"},
				"placeholder": "Search...",
				"text":        "  ",
				"ariaLabel":   "Site search",
				"selector":    "#q",
				"visible":     true,
				"enabled":     true,
				"box":         map[string]any{"x": 10.0, "y": 20.0, "width": 300.0, "height": 40.0},
			},
			"not a map, skipped",
			map[string]any{
				"tag":      "a",
				"href":     "https://example.com/about",
				"text":     "About",
				"selector": "a[href='/about']",
				"visible":  true,
				"enabled":  true,
			},
		}),
	}

	snapshot, err := newTestAnalyzer().Analyze(context.Background(), page)

	require.NoError(t, err)
	require.Len(t, snapshot.Elements, 2)

	first := snapshot.Elements[0]
	assert.Equal(t, "input", first.Tag)
	assert.Equal(t, "search", first.Type)
	assert.Equal(t, []string{"form-control", "search"}, first.Classes)
	assert.Equal(t, "", first.Text, "whitespace text is trimmed away")
	assert.Equal(t, "Site search", first.AriaLabel)
	require.NotNil(t, first.BoundingBox)
	assert.InDelta(t, 300.0, first.BoundingBox.Width, 1e-9)

	second := snapshot.Elements[1]
	assert.Equal(t, "a", second.Tag)
	assert.Nil(t, second.BoundingBox)
}

func TestAnalyzeCarriesPageIdentity(t *testing.T) {
	t.Parallel()

	page := &fakePage{evaluateResult: pageResult(nil, nil)}

	snapshot, err := newTestAnalyzer().Analyze(context.Background(), page)

	require.NoError(t, err)
	assert.Equal(t, "https://example.com/shop", snapshot.URL)
	assert.Equal(t, "Example Shop", snapshot.Title)
	assert.Equal(t, entity.Viewport{Width: 1366, Height: 768}, snapshot.Viewport)
}

func TestAnalyzeTitleFailureIsSwallowed(t *testing.T) {
	t.Parallel()

	page := &fakePage{
		evaluateResult: pageResult(nil, nil),
		titleErr:       errors.New("execution context destroyed"),
	}

	snapshot, err := newTestAnalyzer().Analyze(context.Background(), page)

	require.NoError(t, err)
	assert.Equal(t, "", snapshot.Title)
}

func TestAnalyzeScriptFailure(t *testing.T) {
	t.Parallel()

	page := &fakePage{evaluateErr: errors.New("csp blocked eval")}

	snapshot, err := newTestAnalyzer().Analyze(context.Background(), page)

	assert.Error(t, err)
	assert.Nil(t, snapshot)
}

func TestAnalyzeUnexpectedResultShape(t *testing.T) {
	t.Parallel()

	page := &fakePage{evaluateResult: "just a string"}

	snapshot, err := newTestAnalyzer().Analyze(context.Background(), page)

	assert.Error(t, err)
	assert.Nil(t, snapshot)
}
