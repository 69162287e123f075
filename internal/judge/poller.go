package judge

import (
	"context"
	"fmt"

	"github.com/HarshSoni1801/NullByte/internal/platform/logger"

	"go.uber.org/zap"
)

// AwaitBatch polls the judge at the policy's interval until every unit in
// the batch is terminal, then returns the full result set aligned to the
// token order. The loop is bounded by MaxPollAttempts so a stuck judge
// cannot block an orchestration forever.
func (c *Client) AwaitBatch(ctx context.Context, tokens []string, pol Policy) ([]Result, error) {
	for attempt := 1; attempt <= pol.MaxPollAttempts; attempt++ {
		results, err := c.FetchBatch(ctx, tokens, pol)
		if err != nil {
			return nil, err
		}

		if allTerminal(results) {
			return results, nil
		}

		logger.L().Debug("judge batch still running",
			zap.Int("attempt", attempt),
			zap.Int("units", len(tokens)))
		if err := sleep(ctx, pol.PollInterval); err != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w: batch of %d not terminal after %d polls",
		ErrPollTimeout, len(tokens), pol.MaxPollAttempts)
}

func allTerminal(results []Result) bool {
	for _, r := range results {
		if !r.Terminal() {
			return false
		}
	}
	return true
}
