package rollsum

import "fmt"

// fastcdcSpreadBits controls how far the minimum and maximum chunk
// sizes spread around the 2^chunkBits mean: min = 2^(bits-3),
// max = 2^(bits+3).
const fastcdcSpreadBits = 3

// FastCDC is a gear engine with normalized chunking. Instead of testing
// a single mask everywhere, it skips the bytes that cannot end a chunk,
// then tests a stricter mask before the mean size and a looser one after
// it, and force-cuts at the maximum. The result is the same expected
// mean with a much tighter size distribution and built-in min/max
// bounds, which the plain engines deliberately leave to the caller.
type FastCDC struct {
	gear Gear
	size uint64 // bytes consumed in the current chunk

	ignoreSize uint64 // bytes that cannot influence the first testable digest
	minSize    uint64
	avgSize    uint64
	maxSize    uint64
	minShift   uint32 // stricter predicate, used before avgSize
	maxShift   uint32 // looser predicate, used after avgSize
}

var _ Engine = (*FastCDC)(nil)

// NewFastCDC creates a normalized-chunking gear engine.
//
// WithChunkBits and WithSeed apply. chunkBits must leave room for the
// spread on both sides: the stricter mask tests chunkBits+3 digest bits
// and the minimum size must cover the 64-byte gear footprint, so valid
// values are 9 through 60.
func NewFastCDC(opts ...Option) (*FastCDC, error) {
	cfg, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}

	bits := cfg.chunkBits
	if bits < 9 || bits > 60 {
		return nil, fmt.Errorf("%w: got %d, want 9..60", ErrInvalidChunkBits, bits)
	}

	gear, err := NewGear(WithChunkBits(bits), WithSeed(cfg.seed))
	if err != nil {
		return nil, err
	}

	minSize := uint64(1) << (bits - fastcdcSpreadBits)

	return &FastCDC{
		gear:       *gear,
		ignoreSize: minSize - gearWindowSize,
		minSize:    minSize,
		avgSize:    uint64(1) << bits,
		maxSize:    uint64(1) << (bits + fastcdcSpreadBits),
		minShift:   gearDigestBits - (bits + fastcdcSpreadBits),
		maxShift:   gearDigestBits - (bits - fastcdcSpreadBits),
	}, nil
}

// Reset clears the gear digest and the chunk size tracking.
func (f *FastCDC) Reset() {
	f.gear.Reset()
	f.size = 0
}

// RollByte advances the underlying gear hash by one byte. Boundary
// normalization only applies through FindChunkEdge.
func (f *FastCDC) RollByte(b byte) {
	f.gear.RollByte(b)
}

// Roll advances the underlying gear hash over every byte of buf.
func (f *FastCDC) Roll(buf []byte) {
	f.gear.Roll(buf)
}

// Digest returns the current gear hash value.
func (f *FastCDC) Digest() uint64 {
	return f.gear.Digest()
}

// FindChunkEdge scans buf for the next chunk boundary, honoring the
// engine's min/mean/max sizes. Chunk size is tracked across calls, so
// feeding a stream in arbitrary slices finds the same boundaries as one
// call over the whole stream. See Engine.FindChunkEdge for the rest of
// the contract.
func (f *FastCDC) FindChunkEdge(buf []byte) (int, uint64, bool) {
	consumed := 0

	// Bytes this far below minSize are shifted out of the digest before
	// the first testable position, so they need no hashing at all.
	if f.size < f.ignoreSize {
		skip := min(int(f.ignoreSize-f.size), len(buf))
		f.size += uint64(skip)
		consumed += skip
		buf = buf[skip:]
	}

	// Hash up to minSize without testing: no edge may end a chunk that
	// small.
	if f.size < f.minSize && len(buf) > 0 {
		n := min(int(f.minSize-f.size), len(buf))
		f.gear.Roll(buf[:n])
		f.size += uint64(n)
		consumed += n
		buf = buf[n:]
	}

	// Stricter predicate before the mean size, looser after it.
	if f.size < f.avgSize && len(buf) > 0 {
		n := min(int(f.avgSize-f.size), len(buf))

		if i, digest, found := f.scan(buf[:n], f.minShift); found {
			return consumed + i, digest, true
		}

		f.size += uint64(n)
		consumed += n
		buf = buf[n:]
	}

	if f.size < f.maxSize && len(buf) > 0 {
		n := min(int(f.maxSize-f.size), len(buf))

		if i, digest, found := f.scan(buf[:n], f.maxShift); found {
			return consumed + i, digest, true
		}

		f.size += uint64(n)
		consumed += n
	}

	// Force an edge rather than let a chunk grow past maxSize.
	if f.size >= f.maxSize {
		digest := f.gear.Digest()
		f.Reset()

		return consumed, digest, true
	}

	return consumed, f.gear.Digest(), false
}

// scan rolls the gear hash over buf testing the given predicate shift,
// resetting the whole engine when an edge is found.
func (f *FastCDC) scan(buf []byte, shift uint32) (int, uint64, bool) {
	digest := f.gear.digest
	table := f.gear.table

	for i, b := range buf {
		digest = digest<<1 + table[b]

		if digest>>shift == 0 {
			f.Reset()

			return i + 1, digest, true
		}
	}

	f.gear.digest = digest

	return len(buf), digest, false
}
