package resilience

import (
	"errors"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestBreaker(maxFailures int) (*CircuitBreaker, *fakeClock, *[]string) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	var transitions []string
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		Name:        "refine",
		MaxFailures: maxFailures,
		Timeout:     time.Minute,
		OnStateChange: func(_ string, from, to State) {
			transitions = append(transitions, from.String()+"->"+to.String())
		},
	})
	cb.now = clock.now
	return cb, clock, &transitions
}

func TestCircuitBreakerOpensAfterMaxFailures(t *testing.T) {
	cb, _, _ := newTestBreaker(2)
	fail := errors.New("upstream 500")

	cb.Execute(func() error { return fail })
	if cb.State() != StateClosed {
		t.Fatalf("state = %v after one failure", cb.State())
	}
	cb.Execute(func() error { return fail })
	if cb.State() != StateOpen {
		t.Fatalf("state = %v, want open", cb.State())
	}

	called := false
	err := cb.Execute(func() error { called = true; return nil })
	if !errors.Is(err, ErrCircuitOpen) || called {
		t.Errorf("open circuit must fail fast: err=%v called=%v", err, called)
	}
}

func TestCircuitBreakerSuccessResetsFailures(t *testing.T) {
	cb, _, _ := newTestBreaker(2)
	cb.Execute(func() error { return errors.New("x") })
	cb.Execute(func() error { return nil })
	cb.Execute(func() error { return errors.New("x") })
	if cb.State() != StateClosed {
		t.Errorf("state = %v, want closed", cb.State())
	}
}

func TestCircuitBreakerRecovery(t *testing.T) {
	cb, clock, transitions := newTestBreaker(1)
	cb.Execute(func() error { return errors.New("x") })

	clock.advance(time.Minute)
	if cb.State() != StateHalfOpen {
		t.Fatalf("state = %v, want half-open", cb.State())
	}
	if err := cb.Execute(func() error { return nil }); err != nil {
		t.Fatalf("trial call: %v", err)
	}
	if cb.State() != StateClosed {
		t.Fatalf("state = %v, want closed", cb.State())
	}

	want := []string{"closed->open", "open->half-open", "half-open->closed"}
	if len(*transitions) != len(want) {
		t.Fatalf("transitions = %v", *transitions)
	}
	for i := range want {
		if (*transitions)[i] != want[i] {
			t.Errorf("transition %d = %s, want %s", i, (*transitions)[i], want[i])
		}
	}
}

func TestCircuitBreakerHalfOpenFailureReopens(t *testing.T) {
	cb, clock, _ := newTestBreaker(1)
	cb.Execute(func() error { return errors.New("x") })
	clock.advance(time.Minute)

	cb.Execute(func() error { return errors.New("still down") })
	if cb.State() != StateOpen {
		t.Errorf("state = %v, want open", cb.State())
	}
}

func TestStateString(t *testing.T) {
	for s, want := range map[State]string{StateClosed: "closed", StateOpen: "open", StateHalfOpen: "half-open", State(9): "unknown"} {
		if s.String() != want {
			t.Errorf("%d.String() = %q, want %q", s, s.String(), want)
		}
	}
}
