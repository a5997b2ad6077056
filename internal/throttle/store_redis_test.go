package throttle

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// scriptEmulator stands in for Redis by evaluating the throttle script's
// logic in Go for every EVALSHA call.
type scriptEmulator struct {
	mu     sync.Mutex
	hashes map[string][2]int64
	keys   []string
}

func (e *scriptEmulator) EvalSha(_ context.Context, _ string, keys []string, args ...interface{}) *redis.Cmd {
	e.mu.Lock()
	defer e.mu.Unlock()
	now, window, limit := args[0].(int64), args[1].(int64), int64(args[2].(int))
	e.keys = append(e.keys, keys[0])

	h, ok := e.hashes[keys[0]]
	if !ok || h[0]+window <= now {
		h = [2]int64{now, 1}
	} else if h[1] < limit {
		h[1]++
	}
	e.hashes[keys[0]] = h
	return redis.NewCmdResult([]interface{}{h[0], h[1]}, nil)
}

func (e *scriptEmulator) Eval(ctx context.Context, _ string, keys []string, args ...interface{}) *redis.Cmd {
	return e.EvalSha(ctx, "", keys, args...)
}

func (e *scriptEmulator) EvalRO(ctx context.Context, s string, keys []string, args ...interface{}) *redis.Cmd {
	return e.Eval(ctx, s, keys, args...)
}

func (e *scriptEmulator) EvalShaRO(ctx context.Context, sha string, keys []string, args ...interface{}) *redis.Cmd {
	return e.EvalSha(ctx, sha, keys, args...)
}

func (e *scriptEmulator) ScriptExists(context.Context, ...string) *redis.BoolSliceCmd {
	return redis.NewBoolSliceResult([]bool{true}, nil)
}

func (e *scriptEmulator) ScriptLoad(context.Context, string) *redis.StringCmd {
	return redis.NewStringResult("sha", nil)
}

func TestRedisStoreWindowLifecycle(t *testing.T) {
	emu := &scriptEmulator{hashes: make(map[string][2]int64)}
	clock := newClock()
	limiter := NewLimiter(NewRedisStore(emu, ""), Config{MaxRequests: 3, Window: time.Minute}, WithClock(clock.Now))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		d, err := limiter.Allow(ctx, "token:abc", "ats-score")
		if err != nil || !d.Allowed {
			t.Fatalf("request %d expected allowed, got %+v err=%v", i+1, d, err)
		}
	}
	d, err := limiter.Allow(ctx, "token:abc", "ats-score")
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if d.Allowed || d.Count != 4 {
		t.Fatalf("expected denial with saturated count 4, got %+v", d)
	}

	clock.Advance(61 * time.Second)
	d, err = limiter.Allow(ctx, "token:abc", "ats-score")
	if err != nil || !d.Allowed || d.Count != 1 {
		t.Fatalf("expected reset window, got %+v err=%v", d, err)
	}
	if emu.keys[0] != "throttle:ats-score:token:abc" {
		t.Fatalf("unexpected redis key %q", emu.keys[0])
	}
}
