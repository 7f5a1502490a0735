package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"plan-catalog/internal/config"
)

type fakeCounter struct {
	RedisClient
	counts  map[string]int64
	expires map[string]time.Duration
	incrErr error
}

func (f *fakeCounter) Incr(_ context.Context, key string) (int64, error) {
	if f.incrErr != nil {
		return 0, f.incrErr
	}
	f.counts[key]++
	return f.counts[key], nil
}

func (f *fakeCounter) Expire(_ context.Context, key string, d time.Duration) error {
	f.expires[key] = d
	return nil
}

func TestRateLimiter_Allow(t *testing.T) {
	fc := &fakeCounter{counts: map[string]int64{}, expires: map[string]time.Duration{}}
	rl := NewRateLimiter(fc)
	ctx := context.Background()
	key := AdminWriteKey("api_key")

	for i := 1; i <= 3; i++ {
		ok, err := rl.Allow(ctx, key, 3, time.Minute)
		if err != nil || !ok {
			t.Fatalf("call %d: expected allow, got %v %v", i, ok, err)
		}
	}
	ok, err := rl.Allow(ctx, key, 3, time.Minute)
	if err != nil || ok {
		t.Fatalf("fourth call: expected deny, got %v %v", ok, err)
	}
	if fc.expires[key] != time.Minute {
		t.Fatalf("window not armed on first hit: %v", fc.expires)
	}
}

func TestRateLimiter_BackendError(t *testing.T) {
	boom := errors.New("connection refused")
	rl := NewRateLimiter(&fakeCounter{incrErr: boom})
	if _, err := rl.Allow(context.Background(), "k", 1, time.Second); !errors.Is(err, boom) {
		t.Fatalf("expected backend error, got %v", err)
	}
}

func TestOptions(t *testing.T) {
	opts, err := options(&config.RedisConfig{URL: "localhost:6379", DB: 2, Password: "pw"})
	if err != nil {
		t.Fatal(err)
	}
	if opts.Addr != "localhost:6379" || opts.DB != 2 || opts.Password != "pw" {
		t.Fatalf("unexpected options %+v", opts)
	}

	opts, err = options(&config.RedisConfig{URL: "redis://:secret@cache:6380/3"})
	if err != nil {
		t.Fatal(err)
	}
	if opts.Addr != "cache:6380" || opts.DB != 3 || opts.Password != "secret" {
		t.Fatalf("unexpected options from url %+v", opts)
	}

	if _, err := options(&config.RedisConfig{URL: "redis://cache:6380/notadb"}); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestOptions_FailFastTimeouts(t *testing.T) {
	for _, url := range []string{"localhost:6379", "redis://cache:6380/0"} {
		opts, err := options(&config.RedisConfig{URL: url})
		if err != nil {
			t.Fatal(err)
		}
		if opts.ReadTimeout != ioTimeout || opts.WriteTimeout != ioTimeout || opts.DialTimeout != dialTimeout {
			t.Fatalf("%s: timeouts not applied: %+v", url, opts)
		}
	}
}
