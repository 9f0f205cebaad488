package telemetry_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fwojciec/sdr/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

func TestSetup(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "telemetry")
	ctx := context.Background()

	tel, err := telemetry.Setup(ctx, dir, telemetry.WithInterval(time.Hour), telemetry.WithServiceVersion("test"))
	require.NoError(t, err)

	_, span := tel.Tracer("test").Start(ctx, "agent.send")
	span.SetAttributes(attribute.String("route", "canned"))
	span.End()

	counter, err := tel.Meter("test").Int64Counter("sdr.routes")
	require.NoError(t, err)
	counter.Add(ctx, 1, metric.WithAttributes(attribute.String("route", "canned")))

	require.NoError(t, tel.Shutdown(ctx))

	traces, err := os.ReadFile(filepath.Join(dir, "traces.log"))
	require.NoError(t, err)
	assert.Contains(t, string(traces), "agent.send")
	assert.Contains(t, string(traces), "canned")

	metrics, err := os.ReadFile(filepath.Join(dir, "metrics.log"))
	require.NoError(t, err)
	assert.Contains(t, string(metrics), "sdr.routes")
}
