package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog/log"
)

func TestRegisterMetricsAndRecordersAreSafe(t *testing.T) {
	RegisterMetrics()
	RegisterMetrics()

	RecordHTTPRequest("relay-a", "GET", "/health", 200, 12*time.Millisecond)
	RecordFrame("aligned")

	before := testutil.ToFloat64(pumpIterations.WithLabelValues("reader", "item"))
	RecordPumpIteration("reader", true)
	RecordPumpIteration("reader", false)
	if got := testutil.ToFloat64(pumpIterations.WithLabelValues("reader", "item")); got != before+1 {
		t.Fatalf("unexpected item count: got=%v want=%v", got, before+1)
	}

	done := SessionStarted()
	if got := testutil.ToFloat64(sessionsActive); got != 1 {
		t.Fatalf("unexpected active sessions: %v", got)
	}
	done()
	if got := testutil.ToFloat64(sessionsActive); got != 0 {
		t.Fatalf("unexpected active sessions after close: %v", got)
	}

	log.Info().Msg("observability/metrics: registration idempotent and recording paths executed")
}
