package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ActionType is the closed vocabulary of steps a plan may contain.
type ActionType string

const (
	ActionTypeNavigate ActionType = "navigate"
	ActionTypeClick    ActionType = "click"
	ActionTypeType     ActionType = "type"
	ActionTypeWait     ActionType = "wait"
	ActionTypeGetText  ActionType = "get_text"
	ActionTypeScroll   ActionType = "scroll"
)

// SelectorCandidate is one selector alternative tried in order by the executor.
type SelectorCandidate string

type ActionStep struct {
	Action    ActionType `json:"action"`
	Target    string     `json:"target"`
	Data      string     `json:"data,omitempty"`
	Reasoning string     `json:"reasoning"`
	TimeoutMs int        `json:"timeout_ms,omitempty"`
}

const DefaultStepTimeoutMs = 10000

// Timeout returns the step timeout, substituting the default for zero.
func (s ActionStep) Timeout() int {
	if s.TimeoutMs <= 0 {
		return DefaultStepTimeoutMs
	}

	return s.TimeoutMs
}

// Candidates splits a possibly comma-joined target into its ordered selector
// alternatives. A plain single selector yields a one-element sequence.
func (s ActionStep) Candidates() []SelectorCandidate {
	parts := strings.Split(s.Target, ",")
	candidates := make([]SelectorCandidate, 0, len(parts))

	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}

		candidates = append(candidates, SelectorCandidate(trimmed))
	}

	return candidates
}

// Plan is produced once per task and never mutated afterwards.
type Plan struct {
	Steps           []ActionStep `json:"steps"`
	Confidence      float64      `json:"confidence"`
	Reasoning       string       `json:"reasoning"`
	ExpectedOutcome string       `json:"expected_outcome"`
}

func (p *Plan) Empty() bool {
	return p == nil || len(p.Steps) == 0
}

type StepResult struct {
	Step    int            `json:"step"`
	Action  ActionType     `json:"action"`
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// TaskResult is the terminal report returned to the caller. Field names are a
// wire contract: success, message, data, error.
type TaskResult struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
	Error   string         `json:"error,omitempty"`
}

type Viewport struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type ElementDescriptor struct {
	Tag         string       `json:"tag"`
	Type        string       `json:"type,omitempty"`
	ID          string       `json:"id,omitempty"`
	Classes     []string     `json:"classes,omitempty"`
	Placeholder string       `json:"placeholder,omitempty"`
	Text        string       `json:"text,omitempty"`
	AriaLabel   string       `json:"aria_label,omitempty"`
	Role        string       `json:"role,omitempty"`
	Href        string       `json:"href,omitempty"`
	Selector    string       `json:"selector,omitempty"`
	Visible     bool         `json:"visible"`
	Enabled     bool         `json:"enabled"`
	BoundingBox *BoundingBox `json:"bounding_box,omitempty"`
}

type PageType string

const (
	PageTypeEcommerce PageType = "ecommerce"
	PageTypeSearch    PageType = "search"
	PageTypeForm      PageType = "form"
	PageTypeContent   PageType = "content"
)

type StructuralFacts struct {
	HasNavigation bool     `json:"has_navigation"`
	HasSearch     bool     `json:"has_search"`
	HasForms      bool     `json:"has_forms"`
	HasProducts   bool     `json:"has_products"`
	PageType      PageType `json:"page_type"`
}

// PageSnapshot is built fresh per navigation and immutable once built.
type PageSnapshot struct {
	URL      string              `json:"url"`
	Title    string              `json:"title"`
	Viewport Viewport            `json:"viewport"`
	Elements []ElementDescriptor `json:"elements"`
	Facts    StructuralFacts     `json:"structural_facts"`
}

type ExtractedResult struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet,omitempty"`
	Link    string `json:"link,omitempty"`
	Price   string `json:"price,omitempty"`
	Rating  string `json:"rating,omitempty"`
	Content string `json:"content,omitempty"`
	Type    string `json:"type"`
}

type ExtractionReport struct {
	PageTitle string            `json:"page_title"`
	PageURL   string            `json:"page_url"`
	Results   []ExtractedResult `json:"results"`
	Method    string            `json:"extraction_method"`
}

type TaskState string

const (
	TaskStateNotStarted TaskState = "not_started"
	TaskStateNavigated  TaskState = "navigated"
	TaskStateAnalyzed   TaskState = "analyzed"
	TaskStatePlanned    TaskState = "planned"
	TaskStateExecuting  TaskState = "executing"
	TaskStateCompleted  TaskState = "completed"
	TaskStateFailed     TaskState = "failed"
)

// TaskRecord is the registry entry kept per run; the core itself only returns
// TaskResult, the record is caller bookkeeping.
type TaskRecord struct {
	ID          uuid.UUID
	Goal        string
	StartURL    string
	State       TaskState
	Result      *TaskResult
	CreatedAt   time.Time
	CompletedAt *time.Time
}
