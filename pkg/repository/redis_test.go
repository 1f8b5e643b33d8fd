package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/example/qrdine/pkg/config"
	"github.com/go-redis/redis/v8"
)

// errAnswered stops the client from reaching the network once fakeRedis has
// filled in a command's reply.
var errAnswered = errors.New("answered by fake")

// fakeRedis answers the string commands RedisCache issues from a map.
type fakeRedis struct {
	mu      sync.Mutex
	data    map[string]string
	err     error
	onGet   func(data map[string]string, key string)
	onSetNX func(data map[string]string, key string)
}

func (f *fakeRedis) BeforeProcess(ctx context.Context, cmd redis.Cmder) (context.Context, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return ctx, f.err
	}

	args := cmd.Args()
	key := fmt.Sprint(args[1])
	switch c := cmd.(type) {
	case *redis.BoolCmd:
		if f.onSetNX != nil {
			f.onSetNX(f.data, key)
		}
		_, taken := f.data[key]
		if !taken {
			f.data[key] = fmt.Sprint(args[2])
		}
		c.SetVal(!taken)
	case *redis.StringCmd:
		if f.onGet != nil {
			f.onGet(f.data, key)
		}
		v, ok := f.data[key]
		if !ok {
			return ctx, redis.Nil
		}
		c.SetVal(v)
	case *redis.StatusCmd:
		f.data[key] = fmt.Sprint(args[2])
		c.SetVal("OK")
	case *redis.IntCmd:
		var n int64
		for _, a := range args[1:] {
			if _, ok := f.data[fmt.Sprint(a)]; ok {
				delete(f.data, fmt.Sprint(a))
				n++
			}
		}
		c.SetVal(n)
	default:
		return ctx, fmt.Errorf("fake redis: unsupported command %s", cmd.Name())
	}
	return ctx, errAnswered
}

func (f *fakeRedis) AfterProcess(ctx context.Context, cmd redis.Cmder) error {
	if errors.Is(cmd.Err(), errAnswered) {
		cmd.SetErr(nil)
	}
	return nil
}

func (f *fakeRedis) BeforeProcessPipeline(ctx context.Context, cmds []redis.Cmder) (context.Context, error) {
	return ctx, errors.New("fake redis: pipelines unsupported")
}

func (f *fakeRedis) AfterProcessPipeline(ctx context.Context, cmds []redis.Cmder) error {
	return nil
}

func newFakeCache(t *testing.T, f *fakeRedis) *RedisCache {
	t.Helper()
	if f.data == nil {
		f.data = map[string]string{}
	}
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	client.AddHook(f)
	t.Cleanup(func() { client.Close() })
	return NewRedisCacheWithClient(client, &config.RedisConfig{IdempotencyTTL: time.Hour, CacheTTL: time.Minute})
}

func TestRedisCache_Claim(t *testing.T) {
	redisDown := errors.New("connection refused")

	tests := []struct {
		name        string
		fake        *fakeRedis
		wantID      string
		wantClaimed bool
		wantErr     error
		wantStored  string
	}{
		{
			name:        "fresh key",
			fake:        &fakeRedis{},
			wantClaimed: true,
			wantStored:  claimPending,
		},
		{
			name:       "in flight",
			fake:       &fakeRedis{data: map[string]string{idempotencyKey("k"): claimPending}},
			wantErr:    ErrInFlight,
			wantStored: claimPending,
		},
		{
			name:       "completed",
			fake:       &fakeRedis{data: map[string]string{idempotencyKey("k"): "order-1"}},
			wantID:     "order-1",
			wantStored: "order-1",
		},
		{
			name: "expired before read",
			fake: &fakeRedis{
				data:  map[string]string{idempotencyKey("k"): claimPending},
				onGet: func(data map[string]string, key string) { delete(data, key) },
			},
			wantClaimed: true,
			wantStored:  claimPending,
		},
		{
			name: "expired and reclaimed by another request",
			fake: func() *fakeRedis {
				expired := false
				return &fakeRedis{
					data: map[string]string{idempotencyKey("k"): "order-old"},
					onGet: func(data map[string]string, key string) {
						delete(data, key)
						expired = true
					},
					onSetNX: func(data map[string]string, key string) {
						if expired {
							data[key] = claimPending
						}
					},
				}
			}(),
			wantErr:    ErrInFlight,
			wantStored: claimPending,
		},
		{
			name:    "redis unavailable",
			fake:    &fakeRedis{err: redisDown},
			wantErr: redisDown,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newFakeCache(t, tt.fake)

			id, claimed, err := c.Claim(context.Background(), "k")
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if id != tt.wantID || claimed != tt.wantClaimed {
				t.Errorf("Claim = (%q, %v), want (%q, %v)", id, claimed, tt.wantID, tt.wantClaimed)
			}
			if tt.wantStored != "" {
				if got := tt.fake.data[idempotencyKey("k")]; got != tt.wantStored {
					t.Errorf("stored %q, want %q", got, tt.wantStored)
				}
			}
		})
	}
}

func TestRedisCache_CompleteAndRelease(t *testing.T) {
	ctx := context.Background()
	f := &fakeRedis{}
	c := newFakeCache(t, f)

	if _, claimed, err := c.Claim(ctx, "k"); err != nil || !claimed {
		t.Fatalf("Claim = %v, %v", claimed, err)
	}
	if err := c.Complete(ctx, "k", ""); !errors.Is(err, ErrEmptyOrderID) {
		t.Errorf("Complete without order id = %v, want ErrEmptyOrderID", err)
	}
	if got := f.data[idempotencyKey("k")]; got != claimPending {
		t.Errorf("rejected Complete changed the claim to %q", got)
	}

	if err := c.Release(ctx, "k"); err != nil {
		t.Fatal(err)
	}
	if _, ok := f.data[idempotencyKey("k")]; ok {
		t.Error("key kept after Release")
	}

	if _, claimed, err := c.Claim(ctx, "k"); err != nil || !claimed {
		t.Fatalf("Claim after release = %v, %v", claimed, err)
	}
	if err := c.Complete(ctx, "k", "order-7"); err != nil {
		t.Fatal(err)
	}
	id, claimed, err := c.Claim(ctx, "k")
	if err != nil || claimed || id != "order-7" {
		t.Errorf("Claim after complete = (%q, %v, %v), want order-7 replay", id, claimed, err)
	}
}
