// Package export stores the spreadsheet produced by the record export
// endpoint, either in a local directory or in an S3-compatible bucket.
package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"
)

const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var ErrInvalidName = errors.New("invalid export name")

// Sink saves one export and returns where it ended up (a file path or URL).
type Sink interface {
	Save(ctx context.Context, name string, r io.Reader) (string, error)
}

// FileName is the download name for an export taken at now, dated in UTC:
// car_inventory_2024-03-10.xlsx.
func FileName(now time.Time) string {
	return fmt.Sprintf("car_inventory_%s.xlsx", now.UTC().Format(time.DateOnly))
}

func checkName(name string) error {
	if strings.TrimSpace(name) == "" || name != path.Base(name) || strings.ContainsAny(name, `/\`) || name == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
