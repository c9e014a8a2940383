package rollsum

import (
	"errors"
	"io"
)

// Chunk represents a content-defined chunk with its metadata.
type Chunk struct {
	Offset uint64 // Absolute offset in the stream
	Length uint32 // Chunk size in bytes
	Digest uint64 // Rolling hash at the boundary
	Data   []byte // Chunk data (points into internal buffer)
}

// Chunker drives an Engine over an io.Reader and returns chunks via the
// Next() method. It owns the buffering and implements the maximum chunk
// size policy the engines deliberately leave to their caller: when no
// boundary turns up within maxSize bytes, the chunk is cut there.
//
// For byte-slice input where the caller manages buffers, use the
// engine's FindChunkEdge directly.
type Chunker struct {
	engine Engine
	reader io.Reader

	buf     []byte // Internal buffer
	cursor  int    // Current position in buffer
	offset  uint64 // Absolute offset in stream
	maxSize int    // Forced-cut chunk size cap
	eof     bool   // EOF reached
}

// NewChunker creates a Chunker that reads from r and finds boundaries
// with e. The engine is owned by the chunker until the chunker is
// discarded or Reset.
//
// WithMaxSize and WithBufferSize apply.
func NewChunker(r io.Reader, e Engine, opts ...Option) (*Chunker, error) {
	cfg, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}

	// The whole chunk must sit in the buffer when it is returned.
	if cfg.bufferSize < cfg.maxSize {
		cfg.bufferSize = cfg.maxSize
	}

	return &Chunker{
		engine:  e,
		reader:  r,
		buf:     make([]byte, cfg.bufferSize),
		cursor:  cfg.bufferSize, // Start with empty buffer (triggers initial read)
		maxSize: cfg.maxSize,
	}, nil
}

// fillBuffer ensures the buffer has enough data for chunking.
// It moves unconsumed data to the front and reads more from the reader.
func (c *Chunker) fillBuffer() error {
	n := len(c.buf) - c.cursor
	if n >= c.maxSize {
		return nil
	}

	// Move unconsumed data to the front of buffer
	copy(c.buf[:n], c.buf[c.cursor:])
	c.cursor = 0

	if c.eof {
		c.buf = c.buf[:n]

		return nil
	}

	// Fill the rest of the buffer
	m, err := io.ReadFull(c.reader, c.buf[n:])
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		c.buf = c.buf[:n+m]
		c.eof = true
	} else if err != nil {
		return err
	}

	return nil
}

// Next returns the next chunk from the stream.
// Returns io.EOF when the stream is exhausted.
//
// The returned Chunk.Data slice is valid until the next call to Next().
// If you need to keep the data, copy it to your own buffer.
func (c *Chunker) Next() (Chunk, error) {
	if err := c.fillBuffer(); err != nil {
		return Chunk{}, err
	}

	available := c.buf[c.cursor:]
	if len(available) == 0 {
		return Chunk{}, io.EOF
	}

	scan := available
	if len(scan) > c.maxSize {
		scan = scan[:c.maxSize]
	}

	n, digest, found := c.engine.FindChunkEdge(scan)

	if !found {
		// Either the cap was hit or the stream ended; both force a cut.
		// The final partial chunk at EOF is the implicit last boundary.
		n = len(scan)
		digest = c.engine.Digest()
		c.engine.Reset()
	}

	chunk := Chunk{
		Offset: c.offset,
		Length: uint32(n), //nolint:gosec // G115
		Digest: digest,
		Data:   available[:n],
	}

	c.cursor += n
	c.offset += uint64(n) //nolint:gosec // G115

	return chunk, nil
}

// Reset resets the chunker to start processing a new stream.
// The reader is replaced with the provided one, and all state is cleared.
func (c *Chunker) Reset(r io.Reader) {
	c.reader = r
	c.engine.Reset()
	c.buf = c.buf[:cap(c.buf)] // Restore buffer to full capacity
	c.cursor = len(c.buf)      // Start with empty buffer
	c.offset = 0
	c.eof = false
}

// Offset returns the current absolute offset in the stream.
func (c *Chunker) Offset() uint64 {
	return c.offset
}
