package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveOperation(t *testing.T) {
	m := New("clinic", prometheus.NewRegistry())

	m.ObserveOperation("create", "ok")
	m.ObserveOperation("create", "ok")
	m.ObserveOperation("create", "conflict")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.SchedulingOperations.WithLabelValues("create", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SchedulingOperations.WithLabelValues("create", "conflict")))
}

func TestObserveStoreWriteStatus(t *testing.T) {
	m := New("clinic", prometheus.NewRegistry())

	m.ObserveStoreWrite("append", time.Now(), nil)
	m.ObserveStoreWrite("overwrite", time.Now(), errors.New("disk full"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.StoreWrites.WithLabelValues("append", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StoreWrites.WithLabelValues("overwrite", "error")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveOperation("cancel", "ok")
		m.ObserveStoreWrite("append", time.Now(), nil)
		m.SetAppointments(3)
		m.ObserveHTTP("GET", "/health/live", 200, time.Millisecond)
	})
}

func TestStatusClass(t *testing.T) {
	assert.Equal(t, "2xx", statusClass(201))
	assert.Equal(t, "4xx", statusClass(409))
	assert.Equal(t, "5xx", statusClass(503))
}
