package httpapi

import (
	"context"
	"errors"

	"github.com/kirillkom/docdesk/internal/core/domain"
	"github.com/kirillkom/docdesk/internal/infrastructure/resilience"
)

// classifyBackendError counts only transport failures against the breaker.
// A non-2xx reply is a completed exchange and its status and body must reach
// the view, so it never trips the breaker.
func classifyBackendError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	if errors.Is(err, context.Canceled) {
		return resilience.ErrorClassification{RecordFailure: false}
	}
	if _, ok := domain.AsStatusError(err); ok {
		return resilience.ErrorClassification{RecordFailure: false}
	}
	return resilience.ErrorClassification{RecordFailure: true}
}
