package secret

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kbukum/verbatim/logger"
)

func TestTokenSourceCachesUntilExpiry(t *testing.T) {
	p := &stubProvider{name: "file", value: "ya29.first"}
	ts := NewTokenSource(NewChain(logger.Nop(), p), "GOOGLE_ACCESS_TOKEN", time.Minute)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	ts.now = func() time.Time { return now }
	ctx := context.Background()

	for range 3 {
		if v, err := ts.Token(ctx); err != nil || v != "ya29.first" {
			t.Fatalf("Token = %q, %v", v, err)
		}
	}
	if p.calls != 1 {
		t.Errorf("lookups = %d, want 1", p.calls)
	}

	p.value = "ya29.second"
	now = now.Add(2 * time.Minute)
	if v, _ := ts.Token(ctx); v != "ya29.second" {
		t.Errorf("after expiry Token = %q", v)
	}
	if p.calls != 2 {
		t.Errorf("lookups = %d, want 2", p.calls)
	}
}

func TestTokenSourceInvalidate(t *testing.T) {
	p := &stubProvider{name: "env", value: "ya29.stale"}
	ts := NewTokenSource(NewChain(logger.Nop(), p), "GOOGLE_ACCESS_TOKEN", time.Hour)
	ctx := context.Background()

	if v, _ := ts.Token(ctx); v != "ya29.stale" {
		t.Fatalf("Token = %q", v)
	}
	p.value = "ya29.fresh"
	if v, _ := ts.Token(ctx); v != "ya29.stale" {
		t.Errorf("cached Token = %q", v)
	}
	ts.Invalidate()
	if v, _ := ts.Token(ctx); v != "ya29.fresh" {
		t.Errorf("Token after Invalidate = %q", v)
	}
}

func TestTokenSourceMissing(t *testing.T) {
	ts := NewTokenSource(NewChain(logger.Nop(), &stubProvider{name: "env", err: ErrNotFound}), "GOOGLE_ACCESS_TOKEN", time.Hour)
	if _, err := ts.Token(context.Background()); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
