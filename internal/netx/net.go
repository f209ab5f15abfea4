// Package netx holds I/O helpers for request bodies.
package netx

import (
	"io"
	"sync/atomic"
)

// ProgressReader counts bytes read from R and reports the running total
// after every non-empty read. Total is the expected size; OnProgress
// receives (sent, total).
type ProgressReader struct {
	R          io.Reader
	Total      int64
	OnProgress func(sent, total int64)

	sent atomic.Int64
}

func NewProgressReader(r io.Reader, total int64, onProgress func(sent, total int64)) *ProgressReader {
	return &ProgressReader{R: r, Total: total, OnProgress: onProgress}
}

func (p *ProgressReader) Read(b []byte) (int, error) {
	n, err := p.R.Read(b)
	if n > 0 {
		sent := p.sent.Add(int64(n))
		if p.OnProgress != nil {
			p.OnProgress(sent, p.Total)
		}
	}
	return n, err
}

// Sent returns the number of bytes read so far.
func (p *ProgressReader) Sent() int64 {
	return p.sent.Load()
}

// Fraction converts a byte count to a completion ratio in [0, 1].
func Fraction(sent, total int64) float64 {
	if total <= 0 {
		return 0
	}
	if sent >= total {
		return 1
	}
	return float64(sent) / float64(total)
}
