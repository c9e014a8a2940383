// Package rollsum provides rolling checksums and content-defined
// chunking: splitting a byte stream into variable-size chunks whose
// boundaries depend on local content rather than fixed offsets.
//
// # Overview
//
// A rolling checksum is updated in O(1) as a window slides one byte
// forward through a stream. A chunk boundary is declared wherever a few
// bits of the checksum match a fixed pattern, which happens at
// content-determined positions once every 2^chunkBits bytes on average.
// Inserting or deleting bytes therefore only re-chunks the data near the
// edit; everything further than one window away keeps its boundaries.
// That locality is what makes content-addressed deduplication and
// rsync-style delta transfer effective.
//
// Three engines are provided:
//
//   - Bup: the two-level (sum-of-bytes, sum-of-sums) rolling checksum
//     used by bup's bupsplit and similar to librsync. No minimum or
//     maximum chunk size; the boundary position depends only on the
//     window contents.
//   - Gear: a table-driven shift-add hash, cheaper per byte, with a
//     fixed 64-byte footprint.
//   - FastCDC: Gear plus normalized chunking with built-in min/max
//     bounds and a tighter size distribution.
//
// # Quick Start
//
// Streaming API:
//
//	engine, _ := rollsum.NewBup()
//	chunker, _ := rollsum.NewChunker(reader, engine)
//	for {
//	    chunk, err := chunker.Next()
//	    if err == io.EOF {
//	        break
//	    }
//	    // Process chunk.Data
//	}
//
// Zero-allocation API for callers that manage their own buffers:
//
//	engine, _ := rollsum.NewBup(rollsum.WithChunkBits(13))
//	n, digest, found := engine.FindChunkEdge(data)
//	if found {
//	    // data[:n] is a chunk ending at a content-defined boundary
//	}
//
// A not-found result is normal, not an error: either supply more data or
// treat end-of-stream as the final boundary. The engines keep their
// state across not-found calls, so a stream may be fed in slices of any
// size.
//
// # Choosing chunk sizes
//
// WithChunkBits sets the expected mean chunk size to 2^bits bytes. The
// Bup and Gear engines put no bound on chunk length; callers needing a
// cap track consumed length and force a boundary themselves, which is
// exactly what the streaming Chunker does via WithMaxSize. The FastCDC
// engine instead bounds chunks internally to [mean/8, mean*8].
//
// # Thread Safety
//
// Engines and Chunkers are not safe for concurrent use, but they share
// no state with each other: give each goroutine its own instance, or
// recycle instances through ChunkerPool and EnginePool.
//
// # Identity hashing
//
// The rolling digest decides where chunks end; it is not a chunk
// identity. Deduplicating callers apply their own collision-resistant
// hash to each chunk's bytes.
package rollsum
