package rollsum

import (
	"io"
	"sync"
)

// EngineFactory constructs a fresh Engine for a pool. Factories are how
// a pool knows which engine family and configuration to hand out.
type EngineFactory func() (Engine, error)

// ChunkerPool is a pool of Chunker instances for reuse in high-throughput
// scenarios. It reduces allocations by recycling chunkers (and their
// buffers) instead of creating new ones.
type ChunkerPool struct {
	pool      sync.Pool
	newEngine EngineFactory
	opts      []Option
}

// NewChunkerPool creates a new ChunkerPool. Every chunker handed out by
// the pool gets its own engine from newEngine and is configured with the
// given options.
func NewChunkerPool(newEngine EngineFactory, opts ...Option) (*ChunkerPool, error) {
	// Validate the factory and options up front
	e, err := newEngine()
	if err != nil {
		return nil, err
	}

	if _, err := NewChunker(nil, e, opts...); err != nil {
		return nil, err
	}

	return &ChunkerPool{
		newEngine: newEngine,
		opts:      opts,
	}, nil
}

// Get retrieves a Chunker from the pool, or creates a new one if the pool
// is empty. The chunker is configured with the given reader and ready to
// use.
func (p *ChunkerPool) Get(r io.Reader) (*Chunker, error) {
	if v := p.pool.Get(); v != nil {
		chunker := v.(*Chunker)
		chunker.Reset(r)

		return chunker, nil
	}

	e, err := p.newEngine()
	if err != nil {
		return nil, err
	}

	return NewChunker(r, e, p.opts...)
}

// Put returns a Chunker to the pool for reuse.
// The chunker should not be used after being returned to the pool.
func (p *ChunkerPool) Put(c *Chunker) {
	// Clear the reader to avoid holding references
	c.reader = nil
	p.pool.Put(c)
}

// EnginePool is a pool of Engine instances for reuse with the
// FindChunkEdge API, where the caller manages buffers.
type EnginePool struct {
	pool      sync.Pool
	newEngine EngineFactory
}

// NewEnginePool creates a new EnginePool handing out engines built by
// newEngine.
func NewEnginePool(newEngine EngineFactory) (*EnginePool, error) {
	// Validate the factory up front
	if _, err := newEngine(); err != nil {
		return nil, err
	}

	return &EnginePool{
		newEngine: newEngine,
	}, nil
}

// Get retrieves an Engine from the pool, or creates a new one if the pool
// is empty.
func (p *EnginePool) Get() (Engine, error) {
	if v := p.pool.Get(); v != nil {
		e := v.(Engine)
		e.Reset()

		return e, nil
	}

	return p.newEngine()
}

// Put returns an Engine to the pool for reuse.
// The engine should not be used after being returned to the pool.
func (p *EnginePool) Put(e Engine) {
	e.Reset()
	p.pool.Put(e)
}
