package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestUnlimitedNeverBlocks(t *testing.T) {
	l := New(0)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	for i := 0; i < 100; i++ {
		if err := l.Wait(ctx); err != nil {
			t.Fatalf("Wait() error on unlimited limiter: %v", err)
		}
	}
}

func TestAllowEnforcesRate(t *testing.T) {
	l := New(1)

	if !l.Allow() {
		t.Fatal("first request should be allowed")
	}
	if l.Allow() {
		t.Error("second immediate request should be throttled at 1 req/s")
	}
}

func TestNilLimiterIsNoop(t *testing.T) {
	var l *Limiter
	if err := l.Wait(context.Background()); err != nil {
		t.Errorf("nil limiter Wait() error: %v", err)
	}
	if !l.Allow() {
		t.Error("nil limiter should allow everything")
	}
}

func TestWaitHonorsCancellation(t *testing.T) {
	l := New(0.001)
	l.Allow() // drain the initial token

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := l.Wait(ctx); err == nil {
		t.Error("Wait() should fail once the context expires")
	}
}
