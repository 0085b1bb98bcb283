package research

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/richinex/deepresearch/config"
	"github.com/richinex/deepresearch/upstream"
)

// modelPattern is the allow-list for research models: a known base name,
// optionally suffixed with a date stamp. The upstream's own support for a
// dated variant is not validated here.
var modelPattern = regexp.MustCompile(`^(o3-deep-research|o4-mini-deep-research)(-\d{4}-\d{2}-\d{2})?$`)

// Service is the job protocol adapter: the only component exposed to the
// tool surface. It owns input validation, default application, and
// end-to-end error mapping. Stateless across invocations except for the
// in-process session table.
type Service struct {
	client   upstream.Client
	sessions *SessionTable

	defaultModel        string
	defaultMaxToolCalls int
}

// NewService creates the adapter on top of an upstream client capability.
// Defaults come from settings; zero values fall back to built-ins.
func NewService(client upstream.Client, settings config.Settings) *Service {
	model := settings.Model
	if model == "" {
		model = config.DefaultModel
	}
	maxToolCalls := settings.MaxToolCalls
	if maxToolCalls <= 0 {
		maxToolCalls = config.DefaultMaxToolCalls
	}
	return &Service{
		client:              client,
		sessions:            NewSessionTable(),
		defaultModel:        model,
		defaultMaxToolCalls: maxToolCalls,
	}
}

// StartResearch validates the request, applies defaults, and issues one
// upstream creation call. It returns only the job identifier and initial
// status; it never blocks until completion.
func (s *Service) StartResearch(ctx context.Context, req Request) (*Job, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, fmt.Errorf("%w: query must not be empty", ErrValidation)
	}

	model := req.Model
	if model == "" {
		model = s.defaultModel
	}
	if !modelPattern.MatchString(model) {
		return nil, fmt.Errorf("%w: unsupported model %q", ErrValidation, model)
	}

	maxToolCalls := req.MaxToolCalls
	if maxToolCalls == 0 {
		maxToolCalls = s.defaultMaxToolCalls
	}
	if maxToolCalls < 0 {
		return nil, fmt.Errorf("%w: max_tool_calls must be positive, got %d", ErrValidation, maxToolCalls)
	}

	payload, err := s.client.CreateJob(ctx, upstream.CreateRequest{
		Query:              req.Query,
		Model:              model,
		MaxToolCalls:       maxToolCalls,
		UseCodeInterpreter: req.UseCodeInterpreter,
	})
	if err != nil {
		return nil, err
	}
	if payload == nil || payload.ID == "" {
		return nil, fmt.Errorf("%w: creation returned no job identifier", ErrNormalization)
	}

	status := statusFromUpstream(payload.Status)
	s.sessions.Record(payload.ID, req.Query, model, status)

	return &Job{ID: payload.ID, Status: status}, nil
}

// GetResult issues one upstream read for the identifier and normalizes
// the payload. It does not poll; repeated polling is the caller's
// responsibility. A job with status "failed" is a successful result
// carrying an error detail, not an adapter error.
func (s *Service) GetResult(ctx context.Context, id string) (*Job, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: id must not be empty", ErrValidation)
	}

	payload, err := s.client.FetchJob(ctx, id)
	if err != nil {
		return nil, err
	}

	job, err := Normalize(payload)
	if err != nil {
		return nil, err
	}

	s.sessions.Observe(job.ID, job.Status)
	return job, nil
}

// Sessions lists the jobs started or observed by this process, in start
// order. Process-lifetime only; nothing is persisted.
func (s *Service) Sessions() []Session {
	return s.sessions.List()
}
