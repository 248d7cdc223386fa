package tracing_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/kwanzatukule/marketplace/pkg/tracing"
)

func TestSetupRecordsSpansWithoutExporter(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp, shutdown, err := tracing.Setup(context.Background(), tracing.Options{
		ServiceName: "marketplace-test",
		Processors:  []tracing.SpanProcessor{rec},
	})
	require.NoError(t, err)
	defer shutdown(context.Background()) //nolint:errcheck

	_, span := tp.Tracer("test").Start(context.Background(), "orders.place")
	span.End()

	ended := rec.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "orders.place", ended[0].Name())
	assert.Same(t, tp, otel.GetTracerProvider())

	var found bool
	for _, kv := range ended[0].Resource().Attributes() {
		if kv.Key == "service.name" {
			found = kv.Value.AsString() == "marketplace-test"
		}
	}
	assert.True(t, found)
}

func TestSetupResourceFollowsSDKSchema(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp, shutdown, err := tracing.Setup(context.Background(), tracing.Options{
		ServiceName:    "marketplace-test",
		ServiceVersion: "1.2.3",
		Processors:     []tracing.SpanProcessor{rec},
	})
	require.NoError(t, err)
	require.NotNil(t, tp)
	defer shutdown(context.Background()) //nolint:errcheck

	_, span := tp.Tracer("test").Start(context.Background(), "inventory.reserve")
	span.End()

	require.Len(t, rec.Ended(), 1)
	res := rec.Ended()[0].Resource()
	assert.Equal(t, resource.Default().SchemaURL(), res.SchemaURL())

	attrs := map[string]string{}
	for _, kv := range res.Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, "marketplace-test", attrs["service.name"])
	assert.Equal(t, "1.2.3", attrs["service.version"])
	assert.NotEmpty(t, attrs["telemetry.sdk.version"])
}
