package ctxutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLogFields(t *testing.T) {
	require.Nil(t, LogFields(context.Background()))

	ctx := WithRequestInfo(context.Background(), RequestInfo{RequestID: "r1"})
	require.Equal(t, []any{"request_id", "r1"}, LogFields(ctx))

	ctx = WithRequestInfo(ctx, RequestInfo{TraceID: "t1", RequestID: "r2"})
	info, ok := RequestInfoFrom(ctx)
	require.True(t, ok)
	require.Equal(t, "t1", info.TraceID)
	require.Equal(t, []any{"trace_id", "t1", "request_id", "r2"}, LogFields(ctx))
}
