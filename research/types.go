// Package research implements the job protocol adapter for background
// deep research jobs: input validation, upstream invocation, and
// normalization of raw job payloads into a fixed output schema.
package research

import "errors"

// Status is the observed state of a research job. The adapter never
// transitions status locally; it only mirrors what the upstream reports.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"

	// StatusUnknown covers upstream status strings this adapter does not
	// recognize, keeping it forward-compatible with upstream additions.
	StatusUnknown Status = "unknown"
)

// Terminal reports whether the status is a terminal state.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// statusFromUpstream maps an upstream status string into the fixed
// vocabulary. Unrecognized strings map to StatusUnknown rather than
// failing.
func statusFromUpstream(s string) Status {
	switch Status(s) {
	case StatusQueued, StatusInProgress, StatusCompleted, StatusFailed, StatusCancelled:
		return Status(s)
	}
	return StatusUnknown
}

// Citation references a source supporting a span of the report.
// Offsets satisfy 0 <= StartIndex <= EndIndex <= len(report).
type Citation struct {
	URL        string `json:"url"`
	Title      string `json:"title"`
	StartIndex int    `json:"start_index"`
	EndIndex   int    `json:"end_index"`
}

// Step is one entry of the upstream execution trace, in execution order.
type Step struct {
	Type    string `json:"type"`
	Tool    string `json:"tool,omitempty"`
	Summary string `json:"summary,omitempty"`
}

// Job is the normalized, fixed-schema view of a research job. Report,
// Citations and Steps are present only for completed jobs; Error only for
// failed (and sometimes cancelled) jobs.
type Job struct {
	ID        string     `json:"id"`
	Status    Status     `json:"status"`
	Report    string     `json:"report,omitempty"`
	Citations []Citation `json:"citations,omitempty"`
	Steps     []Step     `json:"steps,omitempty"`
	Error     string     `json:"error,omitempty"`
}

// Request carries the parameters of a start_research call. Query is the
// only required field; zero values for the rest take configured defaults.
type Request struct {
	Query              string
	Model              string
	MaxToolCalls       int
	UseCodeInterpreter bool
}

// Adapter-level errors. Upstream transport errors pass through from the
// upstream package unchanged.
var (
	// ErrValidation indicates malformed or missing required input.
	// No network call is attempted.
	ErrValidation = errors.New("validation failed")

	// ErrNormalization indicates a totally unparseable upstream payload.
	// Missing optional fields degrade gracefully and never raise this.
	ErrNormalization = errors.New("cannot normalize upstream payload")
)
