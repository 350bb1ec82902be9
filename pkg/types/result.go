package types

import "time"

// FileResult is the outcome of chunking one file
type FileResult struct {
	Path     string
	Language string
	Chunks   []*CodeChunk

	// Strategy names the strategy that produced Chunks
	Strategy string
	// Visited lists every strategy attempted, in order
	Visited []string

	Partial  bool // a resource limit cut chunking short
	Degraded bool // the file was forced onto the terminal strategy after a failure
	Duration time.Duration
	Err      error
}

// ChunkCount returns the number of chunks produced
func (r *FileResult) ChunkCount() int {
	if r == nil {
		return 0
	}
	return len(r.Chunks)
}

// Validate checks every chunk and the source ordering guarantee
func (r *FileResult) Validate() error {
	prev := 0
	for _, c := range r.Chunks {
		if err := c.Validate(); err != nil {
			return err
		}
		if c.Span.StartLine < prev {
			return ErrOutOfOrder
		}
		prev = c.Span.StartLine
	}
	return nil
}
