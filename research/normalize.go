package research

import (
	"fmt"
	"strings"

	"github.com/richinex/deepresearch/upstream"
)

// Normalize projects a raw upstream payload into the fixed Job schema.
// Dispatch is by status tag:
//
//   - queued / in_progress: id and status only
//   - completed: report, citations, steps
//   - failed / cancelled: error detail, no report
//   - anything else: status "unknown"
//
// Normalization is defensive: a missing or malformed field in an otherwise
// completed payload degrades to an empty value for that field rather than
// failing the whole response. Only a payload without an identifier is
// unrecoverable.
func Normalize(raw *upstream.Payload) (*Job, error) {
	if raw == nil {
		return nil, fmt.Errorf("%w: empty payload", ErrNormalization)
	}
	if raw.ID == "" {
		return nil, fmt.Errorf("%w: payload has no job identifier", ErrNormalization)
	}

	job := &Job{
		ID:     raw.ID,
		Status: statusFromUpstream(raw.Status),
	}

	switch job.Status {
	case StatusCompleted:
		job.Report = extractReport(raw.Output)
		job.Citations = extractCitations(raw.Output, len(job.Report))
		job.Steps = extractSteps(raw.Output)

	case StatusFailed:
		job.Error = failureDetail(raw.Error)

	case StatusCancelled:
		if raw.Error != nil && raw.Error.Message != "" {
			job.Error = raw.Error.Message
		}
	}

	return job, nil
}

// extractReport returns the text of the final message output item. Deep
// research responses end with an assistant message holding the synthesized
// report; earlier message items (clarifications, partial drafts) are not
// the report.
func extractReport(output []upstream.OutputItem) string {
	for i := len(output) - 1; i >= 0; i-- {
		if output[i].Type != "message" {
			continue
		}
		for _, part := range output[i].Content {
			if part.Text != "" {
				return part.Text
			}
		}
	}
	return ""
}

// extractCitations collects url_citation annotations across all message
// content, in order. Annotations without a URL are dropped. Offsets are
// clamped into [0, reportLen]; annotations whose span cannot be made valid
// are dropped rather than emitted broken.
func extractCitations(output []upstream.OutputItem, reportLen int) []Citation {
	var citations []Citation
	for _, item := range output {
		for _, part := range item.Content {
			for _, ann := range part.Annotations {
				if ann.URL == "" {
					continue
				}
				start, end := ann.StartIndex, ann.EndIndex
				if start < 0 {
					start = 0
				}
				if end > reportLen {
					end = reportLen
				}
				if start > end || start > reportLen {
					continue
				}
				title := ann.Title
				if title == "" {
					title = "Untitled"
				}
				citations = append(citations, Citation{
					URL:        ann.URL,
					Title:      title,
					StartIndex: start,
					EndIndex:   end,
				})
			}
		}
	}
	return citations
}

// extractSteps maps trace items to steps, preserving execution order.
// Message items are the report channel, not trace entries, and are
// skipped; unrecognized item types normalize to a generic "other" entry
// so the sequence keeps its length and order.
func extractSteps(output []upstream.OutputItem) []Step {
	var steps []Step
	for _, item := range output {
		switch item.Type {
		case "message":
			continue

		case "web_search_call":
			step := Step{Type: "tool_call", Tool: "web_search"}
			if item.Action != nil && item.Action.Query != "" {
				step.Summary = fmt.Sprintf("searched the web for %q", item.Action.Query)
			} else {
				step.Summary = "called web_search"
			}
			steps = append(steps, step)

		case "code_interpreter_call":
			steps = append(steps, Step{
				Type:    "tool_call",
				Tool:    "code_interpreter",
				Summary: "called code_interpreter",
			})

		case "reasoning":
			steps = append(steps, Step{
				Type:    "reasoning_summary",
				Summary: summaryText(item.Summary),
			})

		default:
			steps = append(steps, Step{Type: "other"})
		}
	}
	return steps
}

// summaryText joins reasoning summary blocks into one string.
func summaryText(parts []upstream.SummaryPart) string {
	var texts []string
	for _, p := range parts {
		if p.Text != "" {
			texts = append(texts, p.Text)
		}
	}
	return strings.Join(texts, "\n")
}

// failureDetail returns a non-empty error detail for a failed job.
func failureDetail(detail *upstream.ErrorDetail) string {
	if detail != nil && detail.Message != "" {
		return detail.Message
	}
	return "research task failed"
}
