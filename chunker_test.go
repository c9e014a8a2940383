package rollsum_test

import (
	"bytes"
	"errors"
	"io"
	"sync"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/require"

	"github.com/aidanhs/rollsum"
)

func newBup(tb testing.TB, opts ...rollsum.Option) rollsum.Engine {
	tb.Helper()

	e, err := rollsum.NewBup(opts...)
	if err != nil {
		tb.Fatal(err)
	}

	return e
}

func collectChunks(tb testing.TB, c *rollsum.Chunker) []rollsum.Chunk {
	tb.Helper()

	var chunks []rollsum.Chunk

	for {
		chunk, err := c.Next()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			tb.Fatal(err)
		}

		// Data points into the chunker's buffer; keep a copy.
		chunk.Data = append([]byte(nil), chunk.Data...)
		chunks = append(chunks, chunk)
	}

	return chunks
}

// TestChunkerNext tests the streaming API for correctness: chunks are
// contiguous, capped, and reassemble the input exactly.
func TestChunkerNext(t *testing.T) {
	t.Parallel()

	data := randData(t, 1<<20, 51)

	chunker, err := rollsum.NewChunker(bytes.NewReader(data), newBup(t))
	require.NoError(t, err)

	totalSize := uint64(0)

	chunks := collectChunks(t, chunker)
	for _, chunk := range chunks {
		if chunk.Offset != totalSize {
			t.Errorf("chunk at offset %d, expected %d", chunk.Offset, totalSize)
		}

		if chunk.Length == 0 {
			t.Error("empty chunk")
		}

		if chunk.Length > rollsum.DefaultMaxSize {
			t.Errorf("chunk of %d bytes exceeds the cap", chunk.Length)
		}

		if !bytes.Equal(chunk.Data, data[chunk.Offset:chunk.Offset+uint64(chunk.Length)]) {
			t.Errorf("chunk at offset %d does not match the input", chunk.Offset)
		}

		totalSize += uint64(chunk.Length)
	}

	if totalSize != uint64(len(data)) {
		t.Errorf("total size mismatch: got %d, want %d", totalSize, len(data))
	}

	t.Logf("chunked %d bytes into %d chunks", totalSize, len(chunks))
}

// TestChunkerMatchesFindChunkEdge verifies that the streaming driver
// reports the same boundaries as direct FindChunkEdge calls over the
// whole buffer.
func TestChunkerMatchesFindChunkEdge(t *testing.T) {
	t.Parallel()

	data := randData(t, 1<<20, 52)

	chunker, err := rollsum.NewChunker(bytes.NewReader(data), newBup(t))
	require.NoError(t, err)
	chunks := collectChunks(t, chunker)

	engine := newBup(t)
	pos := 0

	for i, chunk := range chunks {
		scan := data[pos:]
		if len(scan) > rollsum.DefaultMaxSize {
			scan = scan[:rollsum.DefaultMaxSize]
		}

		n, digest, found := engine.FindChunkEdge(scan)
		if !found {
			// Cap cut or stream tail; the driver resets the engine.
			engine.Reset()
		}

		require.Equal(t, int(chunk.Length), n, "chunk %d", i)
		require.Equal(t, chunk.Digest, digest, "chunk %d", i)

		pos += n
	}

	require.Equal(t, len(data), pos)
}

// TestChunkerDeterminism verifies that the same input produces the same
// chunks, regardless of how the reader delivers it.
func TestChunkerDeterminism(t *testing.T) {
	t.Parallel()

	data := randData(t, 512<<10, 53)

	getChunks := func(r io.Reader) []rollsum.Chunk {
		chunker, err := rollsum.NewChunker(r, newBup(t))
		require.NoError(t, err)

		return collectChunks(t, chunker)
	}

	chunks1 := getChunks(bytes.NewReader(data))
	// One byte at a time exercises the refill path on every boundary.
	chunks2 := getChunks(iotest.OneByteReader(bytes.NewReader(data)))

	require.Equal(t, len(chunks1), len(chunks2))

	for i := range chunks1 {
		require.Equal(t, chunks1[i].Offset, chunks2[i].Offset, "chunk %d", i)
		require.Equal(t, chunks1[i].Length, chunks2[i].Length, "chunk %d", i)
		require.Equal(t, chunks1[i].Digest, chunks2[i].Digest, "chunk %d", i)
	}
}

// TestChunkerMaxSize verifies the forced cut: data with no natural
// boundary still comes out in maxSize pieces.
func TestChunkerMaxSize(t *testing.T) {
	t.Parallel()

	const maxSize = 4 << 10

	// All-zero data never fires the all-ones predicate.
	data := make([]byte, 64<<10)

	chunker, err := rollsum.NewChunker(
		bytes.NewReader(data),
		newBup(t),
		rollsum.WithMaxSize(maxSize),
	)
	require.NoError(t, err)

	chunks := collectChunks(t, chunker)
	require.Len(t, chunks, len(data)/maxSize)

	for i, chunk := range chunks {
		require.Equal(t, uint32(maxSize), chunk.Length, "chunk %d", i)
	}
}

// TestChunkerReset verifies that a reset chunker reproduces a fresh
// chunker's output on a new stream.
func TestChunkerReset(t *testing.T) {
	t.Parallel()

	data1 := randData(t, 256<<10, 54)
	data2 := randData(t, 512<<10, 55)

	chunker, err := rollsum.NewChunker(bytes.NewReader(data1), newBup(t))
	require.NoError(t, err)

	first := collectChunks(t, chunker)
	require.NotEmpty(t, first)

	chunker.Reset(bytes.NewReader(data2))
	reused := collectChunks(t, chunker)

	fresh, err := rollsum.NewChunker(bytes.NewReader(data2), newBup(t))
	require.NoError(t, err)

	require.Equal(t, collectChunks(t, fresh), reused)
}

// TestChunkerThreadSafety runs independent chunkers concurrently; each
// goroutine gets its own instance.
func TestChunkerThreadSafety(t *testing.T) {
	t.Parallel()

	data := randData(t, 256<<10, 56)

	var wg sync.WaitGroup

	const workers = 10

	for i := 0; i < workers; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			chunker, err := rollsum.NewChunker(bytes.NewReader(data), newBup(t))
			if err != nil {
				t.Error(err)

				return
			}

			totalSize := uint64(0)

			for {
				chunk, err := chunker.Next()
				if errors.Is(err, io.EOF) {
					break
				}

				if err != nil {
					t.Error(err)

					return
				}

				totalSize += uint64(chunk.Length)
			}

			if totalSize != uint64(len(data)) {
				t.Errorf("size mismatch: got %d, want %d", totalSize, len(data))
			}
		}()
	}

	wg.Wait()
}

// TestChunkerDistribution verifies the expected mean chunk size over
// random data.
func TestChunkerDistribution(t *testing.T) {
	t.Parallel()

	const chunkBits = 10 // 1 KiB mean

	data := randData(t, 10<<20, 57)

	chunker, err := rollsum.NewChunker(
		bytes.NewReader(data),
		newBup(t, rollsum.WithChunkBits(chunkBits)),
	)
	require.NoError(t, err)

	chunks := collectChunks(t, chunker)
	require.Greater(t, len(chunks), 1000)

	mean := float64(len(data)) / float64(len(chunks))
	want := float64(uint64(1) << chunkBits)

	require.InDelta(t, want, mean, want*0.10)

	t.Logf("%d chunks, mean %.0f bytes (expected %.0f)", len(chunks), mean, want)
}

// TestChunkerValidation covers the driver-level configuration errors.
func TestChunkerValidation(t *testing.T) {
	t.Parallel()

	_, err := rollsum.NewChunker(bytes.NewReader(nil), newBup(t), rollsum.WithMaxSize(0))
	require.ErrorIs(t, err, rollsum.ErrInvalidMaxSize)

	_, err = rollsum.NewChunker(bytes.NewReader(nil), newBup(t), rollsum.WithBufferSize(0))
	require.ErrorIs(t, err, rollsum.ErrInvalidBufferSize)

	// A buffer smaller than the cap is raised, not rejected.
	c, err := rollsum.NewChunker(
		bytes.NewReader(nil),
		newBup(t),
		rollsum.WithMaxSize(64<<10),
		rollsum.WithBufferSize(1),
	)
	require.NoError(t, err)
	require.NotNil(t, c)
}

// TestChunkerPool verifies that pooled chunkers behave like fresh ones.
func TestChunkerPool(t *testing.T) {
	t.Parallel()

	data := randData(t, 256<<10, 58)

	pool, err := rollsum.NewChunkerPool(func() (rollsum.Engine, error) {
		return rollsum.NewBup()
	})
	require.NoError(t, err)

	fresh, err := rollsum.NewChunker(bytes.NewReader(data), newBup(t))
	require.NoError(t, err)
	want := collectChunks(t, fresh)

	for i := 0; i < 3; i++ {
		chunker, err := pool.Get(bytes.NewReader(data))
		require.NoError(t, err)

		require.Equal(t, want, collectChunks(t, chunker))

		pool.Put(chunker)
	}
}

// TestEnginePool verifies engine recycling for the FindChunkEdge API.
func TestEnginePool(t *testing.T) {
	t.Parallel()

	data := randData(t, 64<<10, 59)

	pool, err := rollsum.NewEnginePool(func() (rollsum.Engine, error) {
		return rollsum.NewBup()
	})
	require.NoError(t, err)

	e1, err := pool.Get()
	require.NoError(t, err)
	n1, d1, found1 := e1.FindChunkEdge(data)
	pool.Put(e1)

	e2, err := pool.Get()
	require.NoError(t, err)
	n2, d2, found2 := e2.FindChunkEdge(data)
	pool.Put(e2)

	require.Equal(t, found1, found2)
	require.Equal(t, n1, n2)
	require.Equal(t, d1, d2)
}

// TestChunkerPoolValidation verifies that a bad factory or bad options
// fail at pool construction.
func TestChunkerPoolValidation(t *testing.T) {
	t.Parallel()

	_, err := rollsum.NewChunkerPool(func() (rollsum.Engine, error) {
		return rollsum.NewBup(rollsum.WithChunkBits(99))
	})
	require.ErrorIs(t, err, rollsum.ErrInvalidChunkBits)

	_, err = rollsum.NewChunkerPool(func() (rollsum.Engine, error) {
		return rollsum.NewBup()
	}, rollsum.WithMaxSize(0))
	require.ErrorIs(t, err, rollsum.ErrInvalidMaxSize)
}
