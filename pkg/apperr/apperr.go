package apperr

import "fmt"

const (
	MetaReason   = "reason"
	MetaStage    = "stage"
	MetaField    = "field"
	MetaTaskID   = "task_id"
	MetaAction   = "action"
	MetaSelector = "selector"
	MetaURL      = "url"
	MetaStep     = "step"

	StageBrowser    = "browser"
	StageNavigation = "navigation"
	StageAnalysis   = "analysis"
	StagePlanning   = "planning"
	StageExecution  = "execution"
	StageExtraction = "extraction"

	CodeInternal         = "internal"
	CodeInvalidArgument  = "invalid_argument"
	CodeNotFound         = "not_found"
	CodeTimeout          = "timeout"
	CodeBrowserNotReady  = "browser_not_ready"
	CodeSessionClosed    = "session_closed"
	CodeActionFailed     = "action_failed"
	CodeNavigationFailed = "navigation_failed"
	CodePlanEmpty        = "plan_empty"
	CodePlannerError     = "planner_error"
	CodeCancelled        = "cancelled"
)

type Error struct {
	Op       string
	Code     string
	Err      error
	Metadata map[string]any
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}

	return e.Op
}

func (e *Error) Unwrap() error {
	return e.Err
}

func Wrap(op, code string, err error, metadata map[string]any) error {
	if metadata == nil {
		metadata = make(map[string]any)
	}

	return &Error{
		Op:       op,
		Code:     code,
		Err:      err,
		Metadata: metadata,
	}
}

func WrapWithReason(op, code string, err error, reason string) error {
	return Wrap(op, code, err, map[string]any{
		MetaReason: reason,
	})
}

func WrapErrorWithReason(op, code, reason string) error {
	return Wrap(op, code, fmt.Errorf("%s", reason), map[string]any{
		MetaReason: reason,
	})
}

func InvalidReqError(op, field string, err error) error {
	return Wrap(op, CodeInvalidArgument, err, map[string]any{
		MetaField:  field,
		MetaReason: "invalid_request",
	})
}

func NotFoundError(op string, err error) error {
	return Wrap(op, CodeNotFound, err, map[string]any{
		MetaReason: "not_found",
	})
}

// Code extracts the app error code, falling back to CodeInternal for foreign errors.
func Code(err error) string {
	if e, ok := err.(*Error); ok {
		return e.Code
	}

	return CodeInternal
}
