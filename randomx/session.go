package randomx

import (
	"context"
	"encoding/binary"
	"sync"
	"sync/atomic"

	"github.com/mxhess/salvium-rs-sub002/errs"
	"github.com/mxhess/salvium-rs-sub002/log"
)

// State is a mining Session's position in spec.md §5's lifecycle:
//
//	UNINIT -> INITIALIZING_CACHE -> (full mode) BUILDING_DATASET -> READY
//	READY <-> HASHING, re-entering via JOB_CHANGED on a same-seed job swap
//	READY -> INITIALIZING_CACHE again on a seed change
type State int

const (
	StateUninit State = iota
	StateInitializingCache
	StateBuildingDataset
	StateReady
	StateHashing
	StateJobChanged
)

// Job is one unit of mining work: a block template blob with the nonce
// field's byte offset left open for workers to fill in, the difficulty
// target, and the RandomX seed (a recent block hash) that selects which
// cache/dataset the job hashes against (spec.md §4.7, §5).
type Job struct {
	SeedHash    [32]byte
	Blob        []byte
	NonceOffset int
	Difficulty  uint64
	Height      uint64
}

// Share is a nonce a worker found that satisfies its job's difficulty.
type Share struct {
	Job   Job
	Nonce uint64
	Hash  [32]byte
}

// Event is delivered to an Observer as a Session changes state or a
// worker finds a share (spec.md §9's observer-interface convention,
// mirrored from walletsync.Event).
type Event struct {
	Kind  EventKind
	State State
	Done  int
	Total int
	Share Share
	Err   error
}

// EventKind discriminates the fields populated on an Event.
type EventKind int

const (
	EventStateChanged EventKind = iota
	EventProgress
	EventShareFound
	EventError
)

// Observer receives Session events. Methods may be called concurrently
// from worker goroutines.
type Observer interface {
	OnEvent(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) OnEvent(e Event) { f(e) }

// Session owns a Session's cache/dataset pair and the pool of worker
// threads hashing against the current Job (spec.md §5: "a parallel pool
// of N worker threads sharing one dataset").
type Session struct {
	Mode     Mode
	Threads  int
	Observer Observer

	mu      sync.Mutex
	state   State
	cache   *Cache
	dataset *Dataset
	job     Job
	version uint64

	log *log.Logger
}

// NewSession constructs a Session in state UNINIT. threads below 1 is
// treated as 1.
func NewSession(mode Mode, threads int, obs Observer) *Session {
	if threads < 1 {
		threads = 1
	}
	return &Session{
		Mode:     mode,
		Threads:  threads,
		Observer: obs,
		state:    StateUninit,
		log:      log.Default().Module("randomx"),
	}
}

func (s *Session) emit(e Event) {
	if s.Observer != nil {
		s.Observer.OnEvent(e)
	}
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
	s.emit(Event{Kind: EventStateChanged, State: st})
}

// State reports the Session's current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Init derives the cache (and, in full mode, builds the dataset) for
// seed, advancing through INITIALIZING_CACHE and BUILDING_DATASET to
// READY. It is cancellable via ctx; cancellation during dataset
// construction returns an *errs.Error with Kind Cancelled.
func (s *Session) Init(ctx context.Context, seed [32]byte) error {
	s.setState(StateInitializingCache)
	cache := NewCache(seed[:])

	dataset := NewDataset(cache, s.Mode)
	if s.Mode == ModeFull {
		s.setState(StateBuildingDataset)
		err := dataset.BuildChunk(ctx, DefaultChunkSize, func(done, total int) {
			s.emit(Event{Kind: EventProgress, State: StateBuildingDataset, Done: done, Total: total})
		})
		if err != nil {
			s.emit(Event{Kind: EventError, Err: err})
			return err
		}
	}

	s.mu.Lock()
	s.cache = cache
	s.dataset = dataset
	s.job.SeedHash = seed
	s.version++
	s.mu.Unlock()

	s.setState(StateReady)
	return nil
}

// SetJob installs job as the work workers hash against. If job's seed
// differs from the cache the Session was last initialized with, SetJob
// rebuilds the cache/dataset for the new seed first (spec.md §5's
// SEED_CHANGED transition) before installing the job; otherwise it's a
// same-seed job swap (JOB_CHANGED), and workers pick it up on their next
// iteration without interrupting the dataset.
func (s *Session) SetJob(ctx context.Context, job Job) error {
	s.mu.Lock()
	seedChanged := s.dataset == nil || job.SeedHash != s.job.SeedHash
	s.mu.Unlock()

	if seedChanged {
		if err := s.Init(ctx, job.SeedHash); err != nil {
			return err
		}
	}

	s.mu.Lock()
	s.job = job
	s.version++
	s.mu.Unlock()

	s.setState(StateJobChanged)
	s.setState(StateReady)
	return nil
}

func (s *Session) snapshot() (*Dataset, Job, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dataset, s.job, s.version
}

// Run launches Threads worker goroutines, each hashing a disjoint nonce
// stream against the current job and reporting any share that satisfies
// the job's difficulty to the Observer via EventShareFound. Run blocks
// until ctx is cancelled or stop is set, then waits for all workers to
// exit. It returns an *errs.Error with Kind Cancelled on a clean stop,
// or ProtocolViolation if called before a job has ever been set.
func (s *Session) Run(ctx context.Context, stop *atomic.Bool) error {
	if _, job, _ := s.snapshot(); job.Blob == nil {
		return errs.New(errs.ProtocolViolation, "randomx: Run called before SetJob")
	}

	s.setState(StateHashing)
	defer s.setState(StateReady)

	var wg sync.WaitGroup
	for worker := 0; worker < s.Threads; worker++ {
		wg.Add(1)
		go func(start uint64) {
			defer wg.Done()
			s.hashLoop(ctx, stop, start, uint64(s.Threads))
		}(uint64(worker))
	}

	wg.Wait()
	if ctx.Err() != nil {
		return errs.Wrap(errs.Cancelled, "randomx: mining session cancelled", ctx.Err())
	}
	return errs.New(errs.Cancelled, "randomx: stop requested")
}

// hashLoop is one worker's nonce-search loop: it starts at nonce=start
// and steps by stride (the worker count) so every worker covers a
// disjoint slice of the nonce space, reloading the job snapshot each
// iteration so a same-seed SetJob takes effect immediately.
func (s *Session) hashLoop(ctx context.Context, stop *atomic.Bool, start, stride uint64) {
	nonce := start
	vm := NewVM(nil)

	for {
		if ctx.Err() != nil || (stop != nil && stop.Load()) {
			return
		}

		dataset, job, _ := s.snapshot()
		if dataset == nil || job.Blob == nil {
			nonce += stride
			continue
		}
		if vm.dataset != dataset {
			vm.dataset = dataset
		}

		blob := append([]byte(nil), job.Blob...)
		if job.NonceOffset >= 0 && job.NonceOffset+8 <= len(blob) {
			binary.LittleEndian.PutUint64(blob[job.NonceOffset:job.NonceOffset+8], nonce)
		}

		h := vm.Hash(blob)
		if CheckDifficulty(h, job.Difficulty) {
			s.emit(Event{Kind: EventShareFound, Share: Share{Job: job, Nonce: nonce, Hash: h}})
		}

		nonce += stride
	}
}
