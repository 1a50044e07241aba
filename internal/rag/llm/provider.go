package llm

import "context"

// Provider completes a single prompt. Failures wrap ErrService.
type Provider interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
