package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_EmptyDSNIsNoOp(t *testing.T) {
	shutdown, err := Init(Config{})
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	shutdown()
}

func TestStartSpan_WithoutClient(t *testing.T) {
	ctx, span := StartSpan(context.Background(), "VectorStoreService.Search", SpanAttributes{
		TenantID:  "acme",
		Operation: "search",
	})
	require.NotNil(t, span)
	assert.NotNil(t, sentry.SpanFromContext(ctx))

	span.SetError(errors.New("boom"))
	span.End()
}

func TestStartSpan_ChildInheritsTransaction(t *testing.T) {
	ctx, parent := StartSpan(context.Background(), "IngestionService.ProcessJob", SpanAttributes{
		TenantID:  "acme",
		ObjectKey: "docs/a.txt",
		Operation: "ingest",
	})
	defer parent.End()

	_, child := StartSpan(ctx, "VectorStoreService.Store", SpanAttributes{
		TenantID:  "acme",
		Operation: "store",
	})
	require.NotNil(t, child.inner)
	assert.Equal(t, parent.inner.SpanID, child.inner.ParentSpanID)
	child.End()
}

func TestSpan_NilInnerIsSafe(t *testing.T) {
	var span Span
	span.SetError(errors.New("boom"))
	span.End()
}
