package rollsum

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidWindowSize is returned when windowSize is 0.
	ErrInvalidWindowSize = errors.New("windowSize must be greater than 0")

	// ErrInvalidChunkBits is returned when chunkBits is 0 or does not fit
	// the digest width of the engine being constructed.
	ErrInvalidChunkBits = errors.New("chunkBits out of range")

	// ErrInvalidMaxSize is returned when maxSize is 0.
	ErrInvalidMaxSize = errors.New("maxSize must be greater than 0")

	// ErrInvalidBufferSize is returned when bufferSize is 0.
	ErrInvalidBufferSize = errors.New("bufferSize must be greater than 0")
)

const (
	// DefaultWindowSize is the default sliding window footprint of the
	// two-level rolling checksum (64 bytes, same as bup).
	DefaultWindowSize = 64

	// DefaultChunkBits is the default number of digest bits tested by the
	// boundary predicate. Chunks come out at an expected mean size of
	// 2^DefaultChunkBits bytes (8 KiB).
	DefaultChunkBits = 13

	// DefaultChunkSize is the expected mean chunk size implied by
	// DefaultChunkBits.
	DefaultChunkSize = 1 << DefaultChunkBits

	// DefaultMaxSize is the default chunk size cap enforced by the
	// streaming Chunker (8x the expected mean). The engines themselves
	// never cap chunk length; the cap is driver policy.
	DefaultMaxSize = DefaultChunkSize * 8

	// DefaultBufferSize is the default internal buffer size for the
	// streaming API (2x the default cap).
	DefaultBufferSize = DefaultMaxSize * 2
)

// Option is a function that configures an engine or a Chunker.
type Option func(*config) error

// config holds the configuration shared by the engines and the Chunker.
type config struct {
	windowSize int
	chunkBits  uint32
	seed       uint64
	maxSize    int
	bufferSize int
}

func defaultConfig() config {
	return config{
		windowSize: DefaultWindowSize,
		chunkBits:  DefaultChunkBits,
		seed:       0,
		maxSize:    DefaultMaxSize,
		bufferSize: DefaultBufferSize,
	}
}

func applyOptions(opts []Option) (config, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return cfg, err
		}
	}

	return cfg, nil
}

// checkChunkBits validates chunkBits against the digest width of the
// engine being constructed. Boundary predicates test chunkBits digest
// bits, so the value must leave at least one untested bit.
func (c *config) checkChunkBits(digestBits uint32) error {
	if c.chunkBits == 0 || c.chunkBits >= digestBits {
		return fmt.Errorf("%w: got %d, want 1..%d", ErrInvalidChunkBits, c.chunkBits, digestBits-1)
	}

	return nil
}

// WithWindowSize sets the sliding window footprint in bytes. A larger
// window reduces sensitivity to very local repeated patterns. Only the
// two-level checksum uses it; the gear-based engines have a fixed
// 64-byte footprint.
func WithWindowSize(size int) Option {
	return func(c *config) error {
		if size <= 0 {
			return ErrInvalidWindowSize
		}

		c.windowSize = size

		return nil
	}
}

// WithChunkBits sets the number of digest bits tested by the boundary
// predicate. The expected mean chunk size is 2^bits bytes: larger values
// produce fewer, larger chunks.
func WithChunkBits(bits uint32) Option {
	return func(c *config) error {
		if bits == 0 {
			return fmt.Errorf("%w: got 0", ErrInvalidChunkBits)
		}

		c.chunkBits = bits

		return nil
	}
}

// WithSeed sets a custom seed for the gear hash table, keying the
// boundary positions. Two engines with different seeds chunk the same
// data differently. The two-level checksum ignores the seed.
func WithSeed(seed uint64) Option {
	return func(c *config) error {
		c.seed = seed

		return nil
	}
}

// WithMaxSize sets the chunk size cap enforced by the streaming Chunker.
// When an engine finds no boundary within maxSize bytes, the Chunker
// forces one. Must cover at least one window of the engine in use.
func WithMaxSize(size int) Option {
	return func(c *config) error {
		if size <= 0 {
			return ErrInvalidMaxSize
		}

		c.maxSize = size

		return nil
	}
}

// WithBufferSize sets the internal buffer size for the streaming API.
// Values below maxSize are raised to maxSize.
func WithBufferSize(size int) Option {
	return func(c *config) error {
		if size <= 0 {
			return ErrInvalidBufferSize
		}

		c.bufferSize = size

		return nil
	}
}
