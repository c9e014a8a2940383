package rollsum

// Engine is a rolling hash engine: a checksum over a sliding byte window
// that can be advanced one byte at a time in O(1), together with the
// boundary search used for content-defined chunking.
//
// An Engine instance is self-contained and owned by a single caller.
// Independent streams can be chunked concurrently by giving each its own
// instance; no state is shared between instances.
type Engine interface {
	// RollByte advances the rolling hash by one byte.
	RollByte(b byte)

	// Roll advances the rolling hash over every byte of buf, in order.
	Roll(buf []byte)

	// Digest returns the current rolling hash value.
	Digest() uint64

	// Reset restores the engine to its freshly constructed state,
	// keeping its configuration.
	Reset()

	// FindChunkEdge feeds bytes from buf into the engine and stops at the
	// first chunk boundary. It returns:
	//   - n: the number of bytes consumed up to and including the byte
	//     that completed the boundary, or len(buf) if none was found
	//   - digest: the rolling hash after the last consumed byte
	//   - found: whether a boundary was found within buf
	//
	// When a boundary is found the engine resets itself, so the next call
	// starts a fresh chunk. When no boundary is found the engine keeps
	// its state, so calling FindChunkEdge over contiguous slices of a
	// stream finds the same boundaries as one call over the whole stream.
	//
	// Not finding a boundary is a normal outcome, not an error; the
	// caller either supplies more data or treats end-of-stream as the
	// final boundary.
	FindChunkEdge(buf []byte) (n int, digest uint64, found bool)
}

// FindChunkEdgeCond drives e over buf one byte at a time and stops at the
// first position where cond holds for the current digest. It follows the
// same contract as Engine.FindChunkEdge, with cond replacing the engine's
// own boundary predicate.
func FindChunkEdgeCond(e Engine, buf []byte, cond func(digest uint64) bool) (int, uint64, bool) {
	for i, b := range buf {
		e.RollByte(b)

		if cond(e.Digest()) {
			digest := e.Digest()
			e.Reset()

			return i + 1, digest, true
		}
	}

	return len(buf), e.Digest(), false
}
