package lib

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsObservePass(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.ObservePass(PassStats{Instances: 4, Registered: 2, Reported: 2}, 2*time.Second, 3)
	m.ObserveFailure()

	assert.Equal(t, float64(1), testutil.ToFloat64(m.passes.WithLabelValues("ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.passes.WithLabelValues("error")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.lastPass.WithLabelValues("reported")))
	assert.Equal(t, float64(4), testutil.ToFloat64(m.lastPass.WithLabelValues("total")))
	assert.Equal(t, float64(3), testutil.ToFloat64(m.firstSeen))
}
