package randomx

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mxhess/salvium-rs-sub002/errs"
)

type collectingObserver struct {
	mu     sync.Mutex
	events []Event
}

func (c *collectingObserver) OnEvent(e Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
}

func (c *collectingObserver) states() []State {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []State
	for _, e := range c.events {
		if e.Kind == EventStateChanged {
			out = append(out, e.State)
		}
	}
	return out
}

func TestSessionInitReachesReady(t *testing.T) {
	obs := &collectingObserver{}
	s := NewSession(ModeLight, 1, obs)

	var seed [32]byte
	copy(seed[:], []byte("session init seed"))
	if err := s.Init(context.Background(), seed); err != nil {
		t.Fatalf("Init: %v", err)
	}

	if s.State() != StateReady {
		t.Fatalf("State() = %v, want StateReady", s.State())
	}

	states := obs.states()
	if len(states) == 0 || states[0] != StateInitializingCache || states[len(states)-1] != StateReady {
		t.Fatalf("unexpected state sequence: %v", states)
	}
}

func TestSessionSetJobSameSeedDoesNotRebuildCache(t *testing.T) {
	s := NewSession(ModeLight, 1, nil)

	var seed [32]byte
	copy(seed[:], []byte("same seed job test"))
	if err := s.Init(context.Background(), seed); err != nil {
		t.Fatalf("Init: %v", err)
	}
	firstCache := s.cache

	job := Job{SeedHash: seed, Blob: make([]byte, 76), NonceOffset: 39, Difficulty: 1000}
	if err := s.SetJob(context.Background(), job); err != nil {
		t.Fatalf("SetJob: %v", err)
	}

	if s.cache != firstCache {
		t.Fatal("SetJob with an unchanged seed should not rebuild the cache")
	}
}

func TestSessionSetJobDifferentSeedRebuildsCache(t *testing.T) {
	s := NewSession(ModeLight, 1, nil)

	var seedA [32]byte
	copy(seedA[:], []byte("seed a"))
	if err := s.Init(context.Background(), seedA); err != nil {
		t.Fatalf("Init: %v", err)
	}
	firstCache := s.cache

	var seedB [32]byte
	copy(seedB[:], []byte("seed b"))
	job := Job{SeedHash: seedB, Blob: make([]byte, 76), NonceOffset: 39, Difficulty: 1000}
	if err := s.SetJob(context.Background(), job); err != nil {
		t.Fatalf("SetJob: %v", err)
	}

	if s.cache == firstCache {
		t.Fatal("SetJob with a changed seed should rebuild the cache")
	}
}

func TestSessionRunRequiresJobFirst(t *testing.T) {
	s := NewSession(ModeLight, 1, nil)
	var stop atomic.Bool
	err := s.Run(context.Background(), &stop)
	if kind, ok := errs.KindOf(err); !ok || kind != errs.ProtocolViolation {
		t.Fatalf("Run before SetJob: err = %v, want Kind ProtocolViolation", err)
	}
}

func TestSessionRunFindsShareAtTrivialDifficulty(t *testing.T) {
	obs := &collectingObserver{}
	s := NewSession(ModeLight, 1, obs)

	var seed [32]byte
	copy(seed[:], []byte("trivial difficulty seed"))
	if err := s.Init(context.Background(), seed); err != nil {
		t.Fatalf("Init: %v", err)
	}

	job := Job{SeedHash: seed, Blob: make([]byte, 76), NonceOffset: 39, Difficulty: 1}
	if err := s.SetJob(context.Background(), job); err != nil {
		t.Fatalf("SetJob: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var stop atomic.Bool

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, &stop) }()

	deadline := time.After(4 * time.Second)
	for {
		found := false
		obs.mu.Lock()
		for _, e := range obs.events {
			if e.Kind == EventShareFound {
				found = true
			}
		}
		obs.mu.Unlock()
		if found {
			break
		}
		select {
		case <-deadline:
			t.Fatal("no share found at difficulty 1 within the timeout")
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	if err := <-done; err == nil {
		t.Fatal("expected Run to return an error after cancellation")
	}
}

func TestSessionRunStopsOnStopFlag(t *testing.T) {
	s := NewSession(ModeLight, 2, nil)

	var seed [32]byte
	copy(seed[:], []byte("stop flag seed"))
	if err := s.Init(context.Background(), seed); err != nil {
		t.Fatalf("Init: %v", err)
	}
	// An unreachable difficulty keeps workers hashing until the stop flag
	// is observed, rather than exiting because a share happened to match.
	job := Job{SeedHash: seed, Blob: make([]byte, 76), NonceOffset: 39, Difficulty: 1 << 63}
	if err := s.SetJob(context.Background(), job); err != nil {
		t.Fatalf("SetJob: %v", err)
	}

	var stop atomic.Bool
	done := make(chan error, 1)
	go func() { done <- s.Run(context.Background(), &stop) }()

	time.Sleep(50 * time.Millisecond)
	stop.Store(true)

	select {
	case err := <-done:
		if kind, ok := errs.KindOf(err); !ok || kind != errs.Cancelled {
			t.Fatalf("Run after stop: err = %v, want Kind Cancelled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after the stop flag was set")
	}
}
