package assistant

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestLimiter(t *testing.T, maxRequests int, window time.Duration) *ChatLimiter {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewChatLimiter(rdb, maxRequests, window)
}

func TestChatLimiter_AllowsUpToBudget(t *testing.T) {
	limiter := newTestLimiter(t, 3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, _, err := limiter.Allow(ctx, "user-123")
		if err != nil {
			t.Fatalf("call %d failed: %v", i, err)
		}
		if !ok {
			t.Fatalf("call %d should be within budget", i)
		}
	}

	ok, retryAfter, err := limiter.Allow(ctx, "user-123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("4th call should be rejected")
	}
	if retryAfter <= 0 || retryAfter > time.Minute {
		t.Errorf("expected retryAfter within the window, got %v", retryAfter)
	}
}

func TestChatLimiter_WindowSlides(t *testing.T) {
	limiter := newTestLimiter(t, 2, 50*time.Millisecond)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if ok, _, _ := limiter.Allow(ctx, "user-123"); !ok {
			t.Fatalf("call %d should be within budget", i)
		}
	}
	if ok, _, _ := limiter.Allow(ctx, "user-123"); ok {
		t.Fatal("budget should be exhausted")
	}

	time.Sleep(60 * time.Millisecond)

	ok, _, err := limiter.Allow(ctx, "user-123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Error("expected budget to free up after the window passed")
	}
}

func TestChatLimiter_BudgetsAreIndependent(t *testing.T) {
	limiter := newTestLimiter(t, 1, time.Minute)
	ctx := context.Background()

	if ok, _, _ := limiter.Allow(ctx, "user-a"); !ok {
		t.Fatal("first call for user-a should pass")
	}
	if ok, _, _ := limiter.Allow(ctx, "user-a"); ok {
		t.Fatal("second call for user-a should be rejected")
	}
	if ok, _, _ := limiter.Allow(ctx, "user-b"); !ok {
		t.Error("user-b has a separate budget")
	}
}

func TestRetryMessage(t *testing.T) {
	cases := []struct {
		wait time.Duration
		want string
	}{
		{10 * time.Second, "you have reached the request limit, please try again in 1 minute"},
		{time.Minute, "you have reached the request limit, please try again in 1 minute"},
		{61 * time.Second, "you have reached the request limit, please try again in 2 minutes"},
		{0, "you have reached the request limit, please try again in 1 minute"},
	}
	for _, tc := range cases {
		if got := retryMessage(tc.wait); got != tc.want {
			t.Errorf("retryMessage(%v) = %q, want %q", tc.wait, got, tc.want)
		}
	}
}
