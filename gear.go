package rollsum

// gearDigestBits is the digest width of the gear hash.
const gearDigestBits = 64

// gearWindowSize is the effective footprint of the gear hash: each byte
// is shifted out of the 64-bit digest after 64 more bytes.
const gearWindowSize = 64

// Gear is a gear-hash rolling engine: digest = digest<<1 + table[b].
// It needs one shift, one add and one table lookup per byte, making it
// considerably cheaper than the two-level checksum, at the cost of a
// fixed 64-byte footprint.
//
// The boundary predicate tests the top chunkBits bits of the digest
// against zero; the top bits carry the most window history.
type Gear struct {
	digest uint64
	table  *[256]uint64

	shift     uint32
	chunkBits uint32
}

var _ Engine = (*Gear)(nil)

// defaultGearTable is the table every unseeded engine shares.
var defaultGearTable = generateGearTable(0)

// generateGearTable derives the 256-entry byte mixing table from seed
// using splitmix64. The same seed always yields the same table, so two
// engines agree on boundaries exactly when their seeds agree.
func generateGearTable(seed uint64) *[256]uint64 {
	var table [256]uint64

	x := seed
	for i := range table {
		x += 0x9e3779b97f4a7c15
		z := x
		z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
		z = (z ^ (z >> 27)) * 0x94d049bb133111eb
		table[i] = z ^ (z >> 31)
	}

	return &table
}

// NewGear creates a gear hash engine.
//
// WithChunkBits and WithSeed apply; chunkBits must fit the 64-bit
// digest. A non-zero seed allocates a per-instance table (2 KiB).
func NewGear(opts ...Option) (*Gear, error) {
	cfg, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}

	if err := cfg.checkChunkBits(gearDigestBits); err != nil {
		return nil, err
	}

	table := defaultGearTable
	if cfg.seed != 0 {
		table = generateGearTable(cfg.seed)
	}

	return &Gear{
		table:     table,
		shift:     gearDigestBits - cfg.chunkBits,
		chunkBits: cfg.chunkBits,
	}, nil
}

// Reset clears the digest, keeping the table and configuration.
func (g *Gear) Reset() {
	g.digest = 0
}

// RollByte advances the hash by one byte.
func (g *Gear) RollByte(b byte) {
	g.digest = g.digest<<1 + g.table[b]
}

// Roll advances the hash over every byte of buf, in order.
func (g *Gear) Roll(buf []byte) {
	// Local copies keep the hot loop out of memory.
	digest := g.digest
	table := g.table

	for _, b := range buf {
		digest = digest<<1 + table[b]
	}

	g.digest = digest
}

// Digest returns the current rolling hash value.
func (g *Gear) Digest() uint64 {
	return g.digest
}

// OnSplit reports whether the current position ends a chunk: the top
// chunkBits bits of the digest are zero.
func (g *Gear) OnSplit() bool {
	return g.digest>>g.shift == 0
}

// FindChunkEdge scans buf for the next chunk boundary. See
// Engine.FindChunkEdge for the contract.
func (g *Gear) FindChunkEdge(buf []byte) (int, uint64, bool) {
	digest := g.digest
	table := g.table
	shift := g.shift

	for i, b := range buf {
		digest = digest<<1 + table[b]

		if digest>>shift == 0 {
			g.Reset()

			return i + 1, digest, true
		}
	}

	g.digest = digest

	return len(buf), digest, false
}
