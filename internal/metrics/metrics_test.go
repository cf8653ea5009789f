package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestVerdictsCounter(t *testing.T) {
	before := testutil.ToFloat64(Verdicts.WithLabelValues("Verified"))
	Verdicts.WithLabelValues("Verified").Inc()
	after := testutil.ToFloat64(Verdicts.WithLabelValues("Verified"))
	if after != before+1 {
		t.Errorf("expected counter to increase by 1, got %v -> %v", before, after)
	}
}
