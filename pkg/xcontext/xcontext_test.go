package xcontext

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_SnowFlake_FallbackGeneratesDistinctIDs(t *testing.T) {
	ctx := context.Background()

	// Burst generation on a context without a node: the fallback must
	// be one shared node, or IDs repeat within a millisecond.
	seen := map[int64]bool{}
	for i := 0; i < 1000; i++ {
		id := SnowFlake(ctx).Generate().Int64()
		require.False(t, seen[id])
		seen[id] = true
	}
}

func Test_SnowFlake_PrefersContextNode(t *testing.T) {
	ctx := context.Background()
	node := SnowFlake(ctx)
	ctx = WithSnowFlake(ctx, node)
	require.Same(t, node, SnowFlake(ctx))
}
