package rollsum

// charOffset biases every window byte so that an all-zero window still
// produces a nonzero checksum. The value is the one used by bup's
// bupsplit, which this checksum reproduces.
const charOffset = 31

// bupDigestBits is the width of the packed s1/s2 digest.
const bupDigestBits = 32

// Bup is the two-level rolling checksum used by bup and librsync-style
// tools. It keeps a fixed-size sliding window of the most recent bytes
// and two 32-bit accumulators: s1, the sum of the window bytes, and s2,
// the sum of the running s1 values. Both wrap on overflow; wraparound is
// part of the checksum, not an error condition.
//
// The window is zero-filled at construction, so the first windowSize
// bytes behave as if preceded by that many zero bytes and no warm-up
// handling is needed anywhere.
type Bup struct {
	s1, s2 uint32
	window []byte
	wofs   int

	mask      uint32
	chunkBits uint32
}

var _ Engine = (*Bup)(nil)

// NewBup creates a two-level rolling checksum engine.
//
// WithWindowSize and WithChunkBits apply; chunkBits must fit the 32-bit
// digest.
func NewBup(opts ...Option) (*Bup, error) {
	cfg, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}

	if err := cfg.checkChunkBits(bupDigestBits); err != nil {
		return nil, err
	}

	b := &Bup{
		window:    make([]byte, cfg.windowSize),
		mask:      (uint32(1) << cfg.chunkBits) - 1,
		chunkBits: cfg.chunkBits,
	}
	b.Reset()

	return b, nil
}

// Reset restores the checksum to its initial state. The accumulator
// seeds are the checksum of a zero-filled window: windowSize*charOffset
// for s1 and the matching triangular sum for s2.
func (b *Bup) Reset() {
	w := uint32(len(b.window))
	b.s1 = w * charOffset
	b.s2 = w * (w - 1) * charOffset
	clear(b.window)
	b.wofs = 0
}

// RollByte slides the window forward by one byte: the incoming byte
// replaces the oldest one and both accumulators are updated in O(1).
func (b *Bup) RollByte(ch byte) {
	drop := b.window[b.wofs]
	b.s1 += uint32(ch) - uint32(drop)
	b.s2 += b.s1 - uint32(len(b.window))*(uint32(drop)+charOffset)

	b.window[b.wofs] = ch
	b.wofs++

	if b.wofs == len(b.window) {
		b.wofs = 0
	}
}

// Roll slides the window over every byte of buf, in order.
func (b *Bup) Roll(buf []byte) {
	for _, ch := range buf {
		b.RollByte(ch)
	}
}

// Digest returns the packed rolling checksum: s1 in the high 16 bits,
// the low 16 bits of s2 below it. This is the bupsplit digest layout.
func (b *Bup) Digest() uint64 {
	return uint64((b.s1 << 16) | (b.s2 & 0xffff))
}

// OnSplit reports whether the current window ends a chunk: the low
// chunkBits bits of the digest are all ones. Over well-distributed data
// this fires once every 2^chunkBits bytes on average, and depends only
// on the window contents, never on stream position.
func (b *Bup) OnSplit() bool {
	return uint32(b.Digest())&b.mask == b.mask
}

// FindChunkEdge scans buf for the next chunk boundary. See
// Engine.FindChunkEdge for the contract.
func (b *Bup) FindChunkEdge(buf []byte) (int, uint64, bool) {
	for i, ch := range buf {
		b.RollByte(ch)

		if uint32(b.Digest())&b.mask == b.mask {
			digest := b.Digest()
			b.Reset()

			return i + 1, digest, true
		}
	}

	return len(buf), b.Digest(), false
}

// Bits counts the number of trailing digest bits set the same way,
// starting from chunkBits. Splitters use it to build hierarchical chunk
// trees: a boundary with more matching bits ends a larger span.
//
// Like other bupsplit implementations, the bit right above chunkBits is
// skipped; the distribution is unaffected.
func (b *Bup) Bits(digest uint64) int {
	bits := int(b.chunkBits)
	rsum := uint32(digest) >> b.chunkBits

	for {
		rsum >>= 1
		if rsum&1 == 0 {
			break
		}

		bits++
	}

	return bits
}
