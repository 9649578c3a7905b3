package redisad_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	redisad "staybook/internal/adapters/redis"
)

type verdict struct {
	HotelID int64
	Total   int64
}

func TestCacheRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	c := redisad.New(redisad.Connect(mr.Addr(), "", 0))
	ctx := context.Background()

	var missed verdict
	if ok, err := c.Get(ctx, "avail:1", &missed); ok || err != nil {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}

	want := verdict{HotelID: 1, Total: 49500}
	if err := c.Set(ctx, "avail:1", want, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}

	var got verdict
	ok, err := c.Get(ctx, "avail:1", &got)
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if got != want {
		t.Fatalf("got %+v want %+v", got, want)
	}

	if err := c.Del(ctx, "avail:1"); err != nil {
		t.Fatalf("del: %v", err)
	}
	if ok, _ := c.Get(ctx, "avail:1", &got); ok {
		t.Fatalf("expected miss after delete")
	}
}

func TestCacheTTLExpires(t *testing.T) {
	mr := miniredis.RunT(t)
	c := redisad.New(redisad.Connect(mr.Addr(), "", 0))
	ctx := context.Background()

	if err := c.Set(ctx, "k", verdict{HotelID: 2}, time.Second); err != nil {
		t.Fatalf("set: %v", err)
	}
	mr.FastForward(2 * time.Second)

	var got verdict
	if ok, _ := c.Get(ctx, "k", &got); ok {
		t.Fatalf("expected expiry after TTL")
	}
}
