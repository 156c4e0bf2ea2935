package observability

import (
	"context"
	"testing"
	"time"
)

func TestRecordHelpersNoPanicWhenUninitialized(t *testing.T) {
	ctx := context.Background()
	metricsMu.Lock()
	appMetrics = nil
	metricsMu.Unlock()

	RecordRegistration(ctx, "success")
	RecordSignIn(ctx, "bad_password")
	RecordTokenIssued(ctx, "signup_verify", "success")
	RecordTokenVerified(ctx, "new_password", "invalid")
	RecordSessionEvent(ctx, "rotate", "success")
	RecordSessionsRevoked(ctx, "invalidate_all", 3)
	RecordMailDelivery(ctx, "reset_password", "error")
	RecordAuthRequestDuration(ctx, "sign-in", "success", 10*time.Millisecond)
	RecordHealthCheckResult(ctx, "db", "ready")
	RecordHealthCheckDuration(ctx, "db", 5*time.Millisecond)
	RecordToolCommandRun(ctx, "purge", "success")
}
