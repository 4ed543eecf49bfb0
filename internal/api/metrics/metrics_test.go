package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestQueueRecorder(t *testing.T) {
	before := testutil.ToFloat64(EnrollmentGrantsTotal.WithLabelValues("granted"))

	var r QueueRecorder
	r.GrantProcessed("granted")
	r.QueueDepth(7)

	if got := testutil.ToFloat64(EnrollmentGrantsTotal.WithLabelValues("granted")); got != before+1 {
		t.Fatalf("expected counter %v, got %v", before+1, got)
	}
	if got := testutil.ToFloat64(EnrollmentQueueDepth); got != 7 {
		t.Fatalf("expected depth 7, got %v", got)
	}
}
