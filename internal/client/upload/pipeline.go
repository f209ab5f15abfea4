// Package upload turns a record form (scalar fields, ordered photos and an
// optional video) into a single multipart submission, reports its progress
// and cleans up after it.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/dmitrijs2005/gatelog/internal/client/client"
	"github.com/dmitrijs2005/gatelog/internal/client/models"
	"github.com/dmitrijs2005/gatelog/internal/filex"
	"github.com/dmitrijs2005/gatelog/internal/logging"
	"github.com/dmitrijs2005/gatelog/internal/netx"
	"github.com/dmitrijs2005/gatelog/internal/timex"
)

const scratchDirName = "preupload"

var ErrUnsupportedMedia = errors.New("unsupported media type")

var (
	uploadBytes = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gatelog",
		Subsystem: "upload",
		Name:      "bytes_sent_total",
		Help:      "Multipart body bytes handed to the transport.",
	})
	uploadJobs = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gatelog",
		Subsystem: "upload",
		Name:      "jobs_total",
		Help:      "Record submissions by outcome.",
	}, []string{"outcome"})
)

// Job is one form submission. It is never modified by the pipeline, so a
// failed Job can be submitted again as is.
type Job struct {
	Fields models.RecordFields
	Photos []File
	Video  *File
}

// Submit sends a prepared body; it is client.CreateRecord or a bound
// client.UpdateRecord.
type Submit func(ctx context.Context, body client.Payload) (*models.VehicleRecord, error)

// Progress receives the sent fraction in [0, 1].
type Progress func(fraction float64)

// Visible reports whether a progress indicator should be shown for f.
func Visible(f float64) bool {
	return f > 0 && f < 1
}

type Pipeline struct {
	scratchBase string
	loc         *time.Location
	logger      logging.Logger
}

// NewPipeline stages bodies under scratchBase/preupload (the working
// directory when scratchBase is empty) and reads naive date-times in loc.
func NewPipeline(scratchBase string, loc *time.Location, logger logging.Logger) *Pipeline {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Pipeline{
		scratchBase: scratchBase,
		loc:         loc,
		logger:      logger.With("component", "upload"),
	}
}

// Run builds the body for job, sends it through submit and removes the
// staged body afterwards. Any failure fails the whole job.
func (p *Pipeline) Run(ctx context.Context, job Job, submit Submit, progress Progress) (*models.VehicleRecord, error) {
	body, err := p.Build(job)
	if err != nil {
		uploadJobs.WithLabelValues("invalid").Inc()
		return nil, err
	}
	defer body.Remove()

	f, err := os.Open(body.Path)
	if err != nil {
		uploadJobs.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("open staged body: %w", err)
	}
	defer f.Close()

	var last int64
	pr := netx.NewProgressReader(f, body.Size, func(sent, total int64) {
		uploadBytes.Add(float64(sent - last))
		last = sent
		if progress != nil {
			progress(netx.Fraction(sent, total))
		}
	})

	if progress != nil {
		progress(0)
	}
	start := time.Now()
	rec, err := submit(ctx, client.Payload{Body: pr, ContentType: body.ContentType, Length: body.Size})
	if err != nil {
		uploadJobs.WithLabelValues("failed").Inc()
		p.logger.Warn(ctx, "upload failed",
			"photos", len(job.Photos), "video", job.Video != nil,
			"sent", pr.Sent(), "size", body.Size, "error", err)
		return nil, err
	}

	uploadJobs.WithLabelValues("ok").Inc()
	if progress != nil {
		progress(1)
	}
	p.logger.Info(ctx, "upload complete",
		"photos", len(job.Photos), "video", job.Video != nil,
		"size", body.Size, "duration", time.Since(start))
	return rec, nil
}

// Body is a multipart body staged on disk.
type Body struct {
	Path        string
	ContentType string
	Size        int64
}

func (b *Body) Remove() {
	_ = os.Remove(b.Path)
}

// Build validates job and writes its multipart body to the scratch
// directory. Scalar fields come first, inOutDateTime converted to a UTC
// instant, then the photos in order, then the video.
func (p *Pipeline) Build(job Job) (*Body, error) {
	if err := job.Fields.Validate(); err != nil {
		return nil, err
	}
	instant, err := timex.LocalToInstant(job.Fields.InOutDateTime, p.loc)
	if err != nil {
		return nil, fmt.Errorf("%w: inOutDateTime: %w", models.ErrInvalidField, err)
	}
	for _, ph := range job.Photos {
		if err := checkKind(ph, kindImage); err != nil {
			return nil, err
		}
	}
	if job.Video != nil {
		if err := checkKind(*job.Video, kindVideo); err != nil {
			return nil, err
		}
	}

	dir, err := filex.EnsureSubdDir(p.scratchBase, scratchDirName)
	if err != nil {
		return nil, err
	}
	path := filepath.Join(dir, uuid.NewString()+".part")
	out, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("create staged body: %w", err)
	}

	body := &Body{Path: path}
	if err := writeMultipart(out, job, timex.FormatInstant(instant), body); err != nil {
		_ = out.Close()
		body.Remove()
		return nil, err
	}
	if err := out.Close(); err != nil {
		body.Remove()
		return nil, err
	}

	fi, err := os.Stat(path)
	if err != nil {
		body.Remove()
		return nil, err
	}
	body.Size = fi.Size()
	return body, nil
}

func writeMultipart(w io.Writer, job Job, instant string, body *Body) error {
	mw := multipart.NewWriter(w)
	body.ContentType = mw.FormDataContentType()

	f := job.Fields
	fields := []struct{ name, value string }{
		{"inOutStatus", string(f.InOutStatus)},
		{"regNo", f.RegNo},
		{"make", f.Make},
		{"model", f.Model},
		{"variant", f.Variant},
		{"year", f.Year},
		{"colour", f.Colour},
		{"kmp", f.Kmp},
		{"personName", f.PersonName},
		{"cellNo", f.CellNo},
		{"price", f.Price},
		{"referralId", f.ReferralID},
		{"notes", f.Notes},
		{"inOutDateTime", instant},
	}
	for _, fld := range fields {
		if fld.name == "notes" && fld.value == "" {
			continue
		}
		if err := mw.WriteField(fld.name, fld.value); err != nil {
			return err
		}
	}

	for _, ph := range job.Photos {
		if err := writeFilePart(mw, "photos", ph); err != nil {
			return err
		}
	}
	if job.Video != nil {
		if err := writeFilePart(mw, "video", *job.Video); err != nil {
			return err
		}
	}
	return mw.Close()
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func writeFilePart(mw *multipart.Writer, field string, f File) error {
	src, err := os.Open(f.Path)
	if err != nil {
		return fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer src.Close()

	name := f.Name
	if name == "" {
		name = filepath.Base(f.Path)
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(field), quoteEscaper.Replace(name)))
	h.Set("Content-Type", contentType(name))

	part, err := mw.CreatePart(h)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, src); err != nil {
		return fmt.Errorf("read %s: %w", f.Name, err)
	}
	return nil
}

const (
	kindImage = "image/"
	kindVideo = "video/"
)

// mediaTypes covers extensions missing from the builtin mime table, which
// otherwise depends on the host's mime.types.
var mediaTypes = map[string]string{
	".mp4":  "video/mp4",
	".m4v":  "video/mp4",
	".mov":  "video/quicktime",
	".webm": "video/webm",
	".mkv":  "video/x-matroska",
	".avi":  "video/x-msvideo",
	".3gp":  "video/3gpp",
	".heic": "image/heic",
	".bmp":  "image/bmp",
}

func contentType(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ct, ok := mediaTypes[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

func checkKind(f File, kind string) error {
	if !strings.HasPrefix(contentType(f.Name), kind) {
		return fmt.Errorf("%w: %s is not %s*", ErrUnsupportedMedia, f.Name, kind)
	}
	return nil
}
