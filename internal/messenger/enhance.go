package messenger

import (
	"context"
	"strings"

	"github.com/tOgg1/wirewave/internal/models"
)

// Enhance asks the AI proxy to rewrite draft. It returns the rewritten text,
// or draft unchanged when the draft is blank or the result is empty.
func Enhance(ctx context.Context, enhancer Enhancer, sink NotificationSink, draft string) (string, error) {
	trimmed := strings.TrimSpace(draft)
	if trimmed == "" {
		return draft, nil
	}
	out, err := enhancer.Enhance(ctx, models.EnhancePrompt+trimmed)
	if err != nil {
		notifyError(sinkOrDiscard(sink), err, "Enhance failed")
		return draft, err
	}
	if out = strings.TrimSpace(out); out == "" {
		return draft, nil
	}
	return out, nil
}
