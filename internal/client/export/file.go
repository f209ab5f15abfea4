package export

import (
	"context"
	"io"

	"github.com/dmitrijs2005/gatelog/internal/filex"
)

// FileSink writes exports into a directory.
type FileSink struct {
	base string
	dir  string
}

// NewFileSink stores exports in base/dir; base defaults to the working
// directory.
func NewFileSink(base, dir string) *FileSink {
	return &FileSink{base: base, dir: dir}
}

func (s *FileSink) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	if err := checkName(name); err != nil {
		return "", err
	}
	dir, err := filex.EnsureSubdDir(s.base, s.dir)
	if err != nil {
		return "", err
	}
	p, _, err := filex.WriteFileAtomic(dir, name, readerWithContext{ctx: ctx, r: r})
	return p, err
}

// readerWithContext stops a copy once ctx is done.
type readerWithContext struct {
	ctx context.Context
	r   io.Reader
}

func (c readerWithContext) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
