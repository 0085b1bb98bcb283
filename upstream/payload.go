package upstream

// Raw wire types for the Responses API. The shape of a job payload varies
// with status and model; every field beyond id/status is optional and may
// be absent on any given response. Normalization into the fixed output
// schema happens in the research package.

// Payload is a raw job payload as returned by the upstream read and
// create endpoints.
type Payload struct {
	ID     string       `json:"id"`
	Status string       `json:"status"`
	Model  string       `json:"model,omitempty"`
	Output []OutputItem `json:"output,omitempty"`
	Error  *ErrorDetail `json:"error,omitempty"`
}

// OutputItem is one entry of the upstream execution trace. The Type
// discriminator selects which of the remaining fields are meaningful:
// "message" carries Content, "web_search_call" carries Action,
// "reasoning" carries Summary.
type OutputItem struct {
	Type    string        `json:"type"`
	ID      string        `json:"id,omitempty"`
	Status  string        `json:"status,omitempty"`
	Role    string        `json:"role,omitempty"`
	Content []ContentPart `json:"content,omitempty"`
	Action  *SearchAction `json:"action,omitempty"`
	Summary []SummaryPart `json:"summary,omitempty"`
}

// ContentPart is a piece of message content, typically output_text with
// citation annotations attached.
type ContentPart struct {
	Type        string       `json:"type"`
	Text        string       `json:"text,omitempty"`
	Annotations []Annotation `json:"annotations,omitempty"`
}

// Annotation is a citation annotation on message content. Offsets index
// into the text the annotation is attached to.
type Annotation struct {
	Type       string `json:"type"`
	URL        string `json:"url,omitempty"`
	Title      string `json:"title,omitempty"`
	StartIndex int    `json:"start_index"`
	EndIndex   int    `json:"end_index"`
}

// SearchAction describes what a web_search_call did.
type SearchAction struct {
	Type  string `json:"type"`
	Query string `json:"query,omitempty"`
}

// SummaryPart is one block of a reasoning summary.
type SummaryPart struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// ErrorDetail is the upstream-provided failure reason on failed or
// cancelled jobs.
type ErrorDetail struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}
