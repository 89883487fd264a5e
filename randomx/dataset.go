package randomx

import (
	"context"
	"encoding/binary"
	"runtime"
	"sync"

	"github.com/mxhess/salvium-rs-sub002/errs"
)

// Dataset item layout (spec.md §4.7: "2^21 items x 8 qwords").
const (
	DatasetItemQwords = 8
	DatasetItemSize   = DatasetItemQwords * 8
	DatasetItems      = 1 << 21
	DatasetSize       = DatasetItems * DatasetItemSize

	// DefaultChunkSize is the default number of items Dataset.BuildChunk
	// computes between progress callbacks, within spec.md §5's
	// documented 1024-65536 chunk range.
	DefaultChunkSize = 65536
)

// itemConstants seeds a dataset item's register file before mixing in
// the cache row at its own index (spec.md §4.7 step 1: "Initialize 8
// u64 registers from constants and the cache row").
var itemConstants = [8]uint64{
	0x6a09e667f3bcc908, 0xbb67ae8584caa73b, 0x3c6ef372fe94f82b, 0xa54ff53a5f1d36f1,
	0x510e527fade682d1, 0x9b05688c2b3e6c1f, 0x1f83d9abfb41bd6b, 0x5be0cd19137e2179,
}

// Mode selects whether a Dataset precomputes every item (full mode,
// ~2 GB) or re-derives items on demand from the cache (light mode,
// 256 MB), per spec.md §4.7.
type Mode int

const (
	ModeLight Mode = iota
	ModeFull
)

// Dataset is the ~2 GB table dataset items are drawn from while
// hashing. In light mode it holds only a reference to the Cache; in
// full mode, BuildChunk precomputes the whole buffer.
type Dataset struct {
	cache  *Cache
	mode   Mode
	buffer []byte
}

// NewDataset constructs a Dataset over cache in the given mode. Full
// mode requires a subsequent call to BuildChunk before Item returns
// precomputed results (Item still works in the meantime by falling
// back to on-demand computation).
func NewDataset(cache *Cache, mode Mode) *Dataset {
	return &Dataset{cache: cache, mode: mode}
}

// Mode reports which mode d was constructed in.
func (d *Dataset) Mode() Mode { return d.mode }

// BuildChunk precomputes the full dataset into d's buffer, invoking progress
// as each chunkSize-item range completes (clamped into spec.md §5's
// 1024-65536 window) so callers can report mining-setup progress. It is
// cancellable via ctx and only valid in ModeFull.
//
// Chunks are dispatched across a worker pool sized to the host's CPU
// count: each worker's FillRange call writes only its own disjoint slice
// of d.buffer, so no locking is required beyond serializing progress
// reports (spec.md §5's "shared resources" note — concurrent writers to
// disjoint ranges of the same backing buffer need no synchronization
// between themselves).
func (d *Dataset) BuildChunk(ctx context.Context, chunkSize int, progress func(done, total int)) error {
	if d.mode != ModeFull {
		return errs.New(errs.ProtocolViolation, "randomx: BuildChunk is only valid in full mode")
	}
	if chunkSize < 1024 {
		chunkSize = 1024
	}
	if chunkSize > DefaultChunkSize {
		chunkSize = DefaultChunkSize
	}

	d.buffer = make([]byte, DatasetSize)

	type chunk struct{ start, end int }
	chunks := make(chan chunk)
	go func() {
		defer close(chunks)
		for start := 0; start < DatasetItems; start += chunkSize {
			end := start + chunkSize
			if end > DatasetItems {
				end = DatasetItems
			}
			select {
			case chunks <- chunk{start, end}:
			case <-ctx.Done():
				return
			}
		}
	}()

	workers := runtime.NumCPU()
	if workers < 1 {
		workers = 1
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		done     int
		canceled bool
	)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for c := range chunks {
				if err := ctx.Err(); err != nil {
					mu.Lock()
					canceled = true
					mu.Unlock()
					continue
				}
				d.FillRange(c.start, c.end)

				mu.Lock()
				done += c.end - c.start
				reported := done
				mu.Unlock()
				if progress != nil {
					progress(reported, DatasetItems)
				}
			}
		}()
	}
	wg.Wait()

	if canceled || ctx.Err() != nil {
		return errs.Wrap(errs.Cancelled, "randomx: dataset build cancelled", ctx.Err())
	}
	return nil
}

// FillRange computes dataset items [start, end) directly into d's
// backing buffer. Distinct, non-overlapping [start, end) ranges may be
// filled concurrently from separate goroutines without additional
// synchronization, since each writes only its own slice of the buffer.
// FillRange panics if called before the buffer has been allocated (i.e.
// outside a BuildChunk call) or with an out-of-range index.
func (d *Dataset) FillRange(start, end int) {
	for i := start; i < end; i++ {
		item := computeDatasetItem(d.cache, uint64(i))
		copy(d.buffer[i*DatasetItemSize:], item[:])
	}
}

// Item returns the dataset item at index (mod DatasetItems): from the
// precomputed buffer in full mode once BuildChunk has run, or freshly
// derived from the cache otherwise.
func (d *Dataset) Item(index uint64) [DatasetItemSize]byte {
	idx := index % DatasetItems
	if d.mode == ModeFull && d.buffer != nil {
		var out [DatasetItemSize]byte
		copy(out[:], d.buffer[idx*DatasetItemSize:idx*DatasetItemSize+DatasetItemSize])
		return out
	}
	return computeDatasetItem(d.cache, idx)
}

// computeDatasetItem builds dataset item index from cache, per spec.md
// §4.7's construction: seed registers from constants and the cache row
// at index, then for each of the cache's 8 SuperscalarHash programs,
// execute it and XOR in the cache row its address register selects.
func computeDatasetItem(cache *Cache, index uint64) [DatasetItemSize]byte {
	var regs [8]uint64
	for i := 0; i < 8; i++ {
		regs[i] = cache.rowUint64(index, i) ^ itemConstants[i] ^ index
	}

	for _, prog := range cache.programs {
		prog.execute(&regs)
		addr := regs[prog.addressRegister]
		for i := 0; i < 8; i++ {
			regs[i] ^= cache.rowUint64(addr, i)
		}
	}

	var out [DatasetItemSize]byte
	for i, r := range regs {
		binary.LittleEndian.PutUint64(out[i*8:i*8+8], r)
	}
	return out
}
