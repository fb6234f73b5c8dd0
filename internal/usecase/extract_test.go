package usecase

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func extractorForSession(session *fakeSession) *Runner {
	return newTestRunner(&fakeFactory{session: session}, &fakeAnalyzer{}, &fakePlanner{}, &fakeExecutor{})
}

func TestExtractResultsFirstStrategyWins(t *testing.T) {
	t.Parallel()

	calls := 0
	session := &fakeSession{
		evaluateFn: func(script string) (any, error) {
			calls++

			return []any{
				map[string]any{"title": "Result One", "link": "https://a.example", "type": "search_result"},
				map[string]any{"title": "Result Two", "link": "https://b.example", "type": "search_result"},
			}, nil
		},
	}

	report := extractorForSession(session).extractResults(context.Background(), session)

	require.NotNil(t, report)
	assert.Equal(t, "search_results", report.Method)
	assert.Len(t, report.Results, 2)
	assert.Equal(t, 1, calls, "later strategies must not run once one yields results")
	assert.Equal(t, "Results", report.PageTitle)
	assert.Equal(t, "https://example.com/results", report.PageURL)
}

func TestExtractResultsCapsPerStrategy(t *testing.T) {
	t.Parallel()

	items := make([]any, 0, 8)
	for _, name := range []string{"Alpha", "Bravo", "Charlie", "Delta", "Echo", "Foxtrot", "Golf", "Hotel"} {
		items = append(items, map[string]any{"title": name + " result", "type": "search_result"})
	}

	session := &fakeSession{
		evaluateFn: func(string) (any, error) { return items, nil },
	}

	report := extractorForSession(session).extractResults(context.Background(), session)

	require.NotNil(t, report)
	assert.Len(t, report.Results, maxResultsPerStrategy)
}

func TestExtractResultsSkipsShortTitles(t *testing.T) {
	t.Parallel()

	session := &fakeSession{
		evaluateFn: func(string) (any, error) {
			return []any{
				map[string]any{"title": "ad", "type": "search_result"},
				map[string]any{"title": "A real result", "type": "search_result"},
			}, nil
		},
	}

	report := extractorForSession(session).extractResults(context.Background(), session)

	require.NotNil(t, report)
	require.Len(t, report.Results, 1)
	assert.Equal(t, "A real result", report.Results[0].Title)
}

func TestExtractResultsTruncatesSnippets(t *testing.T) {
	t.Parallel()

	session := &fakeSession{
		evaluateFn: func(string) (any, error) {
			return []any{
				map[string]any{
					"title":   "Long snippet result",
					"snippet": strings.Repeat("x", 400),
					"type":    "search_result",
				},
			}, nil
		},
	}

	report := extractorForSession(session).extractResults(context.Background(), session)

	require.NotNil(t, report)
	assert.Len(t, report.Results[0].Snippet, 200)
}

func TestExtractResultsBodyTextFallback(t *testing.T) {
	t.Parallel()

	body := strings.Repeat("Lorem ipsum dolor sit amet. ", 40)

	session := &fakeSession{
		evaluateFn: func(script string) (any, error) {
			if strings.Contains(script, "innerText") {
				return body, nil
			}

			return []any{}, nil
		},
	}

	report := extractorForSession(session).extractResults(context.Background(), session)

	require.NotNil(t, report)
	assert.Equal(t, "body_text", report.Method)
	require.Len(t, report.Results, 1)
	assert.Equal(t, "page_content", report.Results[0].Type)
	assert.True(t, strings.HasSuffix(report.Results[0].Content, "..."))
	assert.LessOrEqual(t, len(report.Results[0].Content), maxBodyTextLen+3)
}

func TestExtractResultsNothingUsableReturnsNil(t *testing.T) {
	t.Parallel()

	session := &fakeSession{
		evaluateFn: func(script string) (any, error) {
			if strings.Contains(script, "innerText") {
				return "short", nil
			}

			return []any{}, nil
		},
	}

	report := extractorForSession(session).extractResults(context.Background(), session)

	assert.Nil(t, report)
}
