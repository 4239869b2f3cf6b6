package redis

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiterKey(t *testing.T) {
	l := NewLimiter(nil, "ratelimit:reviews", 5, time.Minute)
	assert.Equal(t, "ratelimit:reviews:user-1", l.key("user-1"))
}

func TestLimiterDisabledWithoutLimit(t *testing.T) {
	l := NewLimiter(nil, "ratelimit:reviews", 0, time.Minute)

	ok, retryAfter, err := l.Allow(context.Background(), "user-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Zero(t, retryAfter)
}

func TestLimiterReportsConnectionErrors(t *testing.T) {
	client := goredis.NewClient(&goredis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()
	l := NewLimiter(client, "ratelimit:reviews", 5, time.Minute)

	ok, _, err := l.Allow(context.Background(), "user-1")
	assert.Error(t, err)
	assert.False(t, ok)
}

// fakeServer answers commands in a client hook so no Redis is needed. It keeps
// one counter and its TTL per key, and records every command it sees.
type fakeServer struct {
	mu       sync.Mutex
	counters map[string]int64
	ttls     map[string]time.Duration
	commands [][]string
}

func newFakeServer() *fakeServer {
	return &fakeServer{counters: map[string]int64{}, ttls: map[string]time.Duration{}}
}

func (f *fakeServer) DialHook(goredis.DialHook) goredis.DialHook {
	return func(context.Context, string, string) (net.Conn, error) {
		return nil, errors.New("fake server does not dial")
	}
}

func (f *fakeServer) ProcessHook(goredis.ProcessHook) goredis.ProcessHook {
	return func(_ context.Context, cmd goredis.Cmder) error {
		f.apply([]goredis.Cmder{cmd})
		return nil
	}
}

func (f *fakeServer) ProcessPipelineHook(goredis.ProcessPipelineHook) goredis.ProcessPipelineHook {
	return func(_ context.Context, cmds []goredis.Cmder) error {
		f.apply(cmds)
		return nil
	}
}

func (f *fakeServer) apply(cmds []goredis.Cmder) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, cmd := range cmds {
		args := make([]string, 0, len(cmd.Args()))
		for _, a := range cmd.Args() {
			args = append(args, fmt.Sprint(a))
		}
		f.commands = append(f.commands, args)
		key := ""
		if len(args) > 1 {
			key = args[1]
		}
		switch c := cmd.(type) {
		case *goredis.BoolCmd:
			_, exists := f.counters[key]
			if !exists {
				f.counters[key] = 0
				f.ttls[key] = time.Minute
			}
			c.SetVal(!exists)
		case *goredis.IntCmd:
			f.counters[key]++
			c.SetVal(f.counters[key])
		case *goredis.DurationCmd:
			ttl, ok := f.ttls[key]
			if !ok {
				ttl = -1
			}
			c.SetVal(ttl)
		}
	}
}

func (f *fakeServer) names() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.commands))
	for _, c := range f.commands {
		out = append(out, c[0])
	}
	return out
}

func newFakeClient(t *testing.T) (*goredis.Client, *fakeServer) {
	t.Helper()
	server := newFakeServer()
	client := goredis.NewClient(&goredis.Options{Addr: "127.0.0.1:1"})
	client.AddHook(server)
	t.Cleanup(func() { _ = client.Close() })
	return client, server
}

func TestLimiterOpensWindowInsideTransaction(t *testing.T) {
	client, server := newFakeClient(t)
	l := NewLimiter(client, "ratelimit:reviews", 1, time.Minute)

	ok, _, err := l.Allow(context.Background(), "user-1")
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Equal(t, []string{"multi", "set", "incr", "pttl", "exec"}, server.names())
	set := server.commands[1]
	assert.Equal(t, "ratelimit:reviews:user-1", set[1])
	assert.Equal(t, "nx", set[len(set)-1])
	assert.Contains(t, set, "ex")
}

func TestLimiterDeniesOverLimit(t *testing.T) {
	client, server := newFakeClient(t)
	l := NewLimiter(client, "ratelimit:reviews", 1, time.Minute)
	ctx := context.Background()

	ok, _, err := l.Allow(ctx, "user-1")
	require.NoError(t, err)
	require.True(t, ok)

	ok, retryAfter, err := l.Allow(ctx, "user-1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, time.Minute, retryAfter)

	ok, _, err = l.Allow(ctx, "user-2")
	require.NoError(t, err)
	assert.True(t, ok, "windows are per key")

	assert.NotContains(t, server.names(), "pexpire")
	assert.Equal(t, int64(1), server.counters["ratelimit:reviews:user-2"])
}
