package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.ObserveDecode("RequestHistoricalData", OutcomeValue)
	c.ObserveDecode("RequestHistoricalData", OutcomeValue)
	c.ObserveDecode("RequestHistoricalData", OutcomeRetry)
	c.ObserveCancel("RequestHistoricalData", CancelSent)
	c.SubscriptionOpened("RequestHistoricalData")
	c.SubscriptionOpened("RequestHistoricalData")
	c.SubscriptionClosed("RequestHistoricalData")

	assert.Equal(t, 2.0, testutil.ToFloat64(c.decoded.WithLabelValues("RequestHistoricalData", OutcomeValue)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.decoded.WithLabelValues("RequestHistoricalData", OutcomeRetry)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.cancels.WithLabelValues("RequestHistoricalData", CancelSent)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.open.WithLabelValues("RequestHistoricalData")))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, families, 3)
}

func TestNilCollectorIsNoop(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.ObserveDecode("x", OutcomeError)
		c.ObserveCancel("x", CancelFailed)
		c.SubscriptionOpened("x")
		c.SubscriptionClosed("x")
	})
}
