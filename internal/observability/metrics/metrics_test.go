package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("read counter: %v", err)
	}
	return m.GetCounter().GetValue()
}

func TestObserveBeforeInitIsNoop(t *testing.T) {
	if reportQueriesTotal != nil {
		t.Skip("metrics already initialised")
	}
	ObserveReport("overdue", ResultSuccess, 3, time.Millisecond)
	ObserveStoreLoad("PROCESO", ResultError, time.Millisecond)
	ObserveReportExport("csv", ResultSuccess, time.Millisecond)
	IncLoginAttempt(ResultError)
}

func TestObserveAfterInit(t *testing.T) {
	Init(nil, nil, nil)

	before := counterValue(t, reportQueriesTotal.WithLabelValues("customer", ResultEmpty))
	ObserveReport("customer", ResultEmpty, 0, time.Millisecond)
	if got := counterValue(t, reportQueriesTotal.WithLabelValues("customer", ResultEmpty)); got != before+1 {
		t.Fatalf("expected report counter %v, got %v", before+1, got)
	}

	before = counterValue(t, loginAttemptsTotal.WithLabelValues("unknown"))
	IncLoginAttempt("")
	if got := counterValue(t, loginAttemptsTotal.WithLabelValues("unknown")); got != before+1 {
		t.Fatalf("expected login counter %v, got %v", before+1, got)
	}

	before = counterValue(t, storeLoadTotal.WithLabelValues("unknown", ResultSuccess))
	ObserveStoreLoad("", "", time.Millisecond)
	if got := counterValue(t, storeLoadTotal.WithLabelValues("unknown", ResultSuccess)); got != before+1 {
		t.Fatalf("expected store counter %v, got %v", before+1, got)
	}
}
