package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCountersIncrement(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.PollStarted()
	m.PollStarted()
	m.PollFailed()
	m.RecordEmitted()
	m.RecordEmitted()
	m.RecordEmitted()

	if got := testutil.ToFloat64(m.polls); got != 2 {
		t.Fatalf("polls = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.failed); got != 1 {
		t.Fatalf("failed = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.emitted); got != 3 {
		t.Fatalf("emitted = %v, want 3", got)
	}
}

func TestRegistersWithRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.PollStarted()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	for _, want := range []string{"netatmo_polls_total", "netatmo_poll_errors_total", "netatmo_records_emitted_total"} {
		if !names[want] {
			t.Fatalf("metric %s not registered; got %v", want, names)
		}
	}
}
