package entity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActionStepCandidates(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		target string
		want   []SelectorCandidate
	}{
		{
			name:   "single selector",
			target: "#submit",
			want:   []SelectorCandidate{"#submit"},
		},
		{
			name:   "comma joined chain keeps order",
			target: "input[name='q'], input[type='search'], input[type='text']",
			want:   []SelectorCandidate{"input[name='q']", "input[type='search']", "input[type='text']"},
		},
		{
			name:   "blank fragments are dropped",
			target: " .a ,, .b , ",
			want:   []SelectorCandidate{".a", ".b"},
		},
		{
			name:   "empty target yields nothing",
			target: "",
			want:   []SelectorCandidate{},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			step := ActionStep{Target: tc.target}
			assert.Equal(t, tc.want, step.Candidates())
		})
	}
}

func TestActionStepTimeout(t *testing.T) {
	t.Parallel()

	assert.Equal(t, DefaultStepTimeoutMs, ActionStep{}.Timeout())
	assert.Equal(t, DefaultStepTimeoutMs, ActionStep{TimeoutMs: -1}.Timeout())
	assert.Equal(t, 5000, ActionStep{TimeoutMs: 5000}.Timeout())
}

func TestPlanEmpty(t *testing.T) {
	t.Parallel()

	var nilPlan *Plan

	assert.True(t, nilPlan.Empty())
	assert.True(t, (&Plan{}).Empty())
	assert.False(t, (&Plan{Steps: []ActionStep{{Action: ActionTypeWait}}}).Empty())
}

func TestTaskResultWireFields(t *testing.T) {
	t.Parallel()

	result := TaskResult{
		Success: true,
		Message: "done",
		Data:    map[string]any{"total_steps": 2},
	}

	raw, err := json.Marshal(result)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))

	assert.Contains(t, decoded, "success")
	assert.Contains(t, decoded, "message")
	assert.Contains(t, decoded, "data")
	assert.NotContains(t, decoded, "error", "empty error is omitted")

	raw, err = json.Marshal(TaskResult{Success: false, Message: "nope", Error: "boom"})
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &decoded))

	assert.Equal(t, "boom", decoded["error"])
}

func TestPlanRoundTripsActionTypes(t *testing.T) {
	t.Parallel()

	raw := `{
		"steps": [
			{"action": "navigate", "target": "https://example.com", "reasoning": "open"},
			{"action": "get_text", "target": "h1", "reasoning": "read"}
		],
		"confidence": 0.9
	}`

	var plan Plan
	require.NoError(t, json.Unmarshal([]byte(raw), &plan))

	require.Len(t, plan.Steps, 2)
	assert.Equal(t, ActionTypeNavigate, plan.Steps[0].Action)
	assert.Equal(t, ActionTypeGetText, plan.Steps[1].Action)
}
