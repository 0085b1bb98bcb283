package research

import (
	"context"
	"time"
)

// DefaultPollInterval is the wait between reads in WaitForCompletion.
const DefaultPollInterval = 10 * time.Second

// WaitForCompletion polls GetResult until the job reaches a terminal
// status or ctx is done. It is a convenience layered on the two core
// operations, not part of them: each poll is a billable upstream read,
// so callers should bound the wait with a context deadline.
//
// The two tools exposed over MCP never call this; they stay strictly
// non-blocking.
func (s *Service) WaitForCompletion(ctx context.Context, id string, interval time.Duration) (*Job, error) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		job, err := s.GetResult(ctx, id)
		if err != nil {
			return nil, err
		}
		if job.Status.Terminal() {
			return job, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
