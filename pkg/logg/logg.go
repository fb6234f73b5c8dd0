package logg

// Shared structured-log field keys so every layer logs the same vocabulary.
const (
	Layer     = "layer"
	Operation = "op"
	TaskID    = "task_id"
	Goal      = "goal"
	URL       = "url"
	Selector  = "selector"
	Action    = "action"
	StepIndex = "step_index"
	PageType  = "page_type"
	Strategy  = "strategy"
)
