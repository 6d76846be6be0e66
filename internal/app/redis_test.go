package app

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"
)

func TestKeyspace(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	testCases := []struct {
		name string
		cmd  redis.Cmder
		want string
	}{
		{name: "lock key", cmd: redis.NewCmd(ctx, "set", "lock:driver:42", "token"), want: "lock"},
		{name: "geo index", cmd: redis.NewCmd(ctx, "geoadd", "drivers:locations", 77.59, 12.97, "d1"), want: "drivers"},
		{name: "plain key", cmd: redis.NewCmd(ctx, "get", "counter"), want: "counter"},
		{name: "no key", cmd: redis.NewCmd(ctx, "ping"), want: "redis"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := keyspace(tc.cmd); got != tc.want {
				t.Errorf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestStartSegment_WithoutTransaction(t *testing.T) {
	t.Parallel()

	if seg := startSegment(context.Background(), "get", "lock"); seg != nil {
		t.Errorf("expected no segment outside a transaction, got %+v", seg)
	}
}
