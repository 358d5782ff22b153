package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestNew_RegistersAllMetricsWithoutPanicking(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)

	r.CacheHits.Inc()
	r.IngestStageDuration.WithLabelValues("extract").Observe(0.5)
	r.DocumentsProcessed.WithLabelValues("completed").Inc()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("unexpected error gathering metrics: %v", err)
	}
	if len(families) == 0 {
		t.Fatalf("expected at least one registered metric family")
	}
}

func TestNew_SecondRegistryIsIndependent(t *testing.T) {
	reg1 := prometheus.NewRegistry()
	reg2 := prometheus.NewRegistry()
	r1 := New(reg1)
	_ = New(reg2)

	r1.CacheMisses.Inc()

	var m dto.Metric
	_ = r1.CacheMisses.Write(&m)
	if m.Counter.GetValue() != 1 {
		t.Fatalf("expected counter value 1, got %f", m.Counter.GetValue())
	}
}
