package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestNilMetricsAreNoop(t *testing.T) {
	var m *DispatchMetrics
	assert.NotPanics(t, func() {
		m.RecordNotification(context.Background(), "sms", true, time.Second)
		m.RecordDispatch(context.Background(), 3, false, time.Second)
		m.RecordTaskFailed(context.Background(), "inline", "panic")
		m.AddQueuedTask(context.Background(), "inline", 1)
	})
}

func TestRecordNotification(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	m, err := newDispatchMetrics(provider.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordNotification(ctx, "whatsapp", true, 20*time.Millisecond)
	m.RecordNotification(ctx, "whatsapp", false, 10*time.Millisecond)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, md := range sm.Metrics {
			if md.Name != "notification_sent_total" {
				continue
			}
			sum, ok := md.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	assert.Equal(t, int64(2), total)
}
