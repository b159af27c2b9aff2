package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/ivlev/shotmaker/internal/analyzer"
	"github.com/ivlev/shotmaker/internal/logging"
	"github.com/ivlev/shotmaker/internal/renderer"
)

// FrameSource produces the frame for the current scene state.
type FrameSource interface {
	Frame(scale int) (*image.RGBA, error)
	Release(img *image.RGBA)
}

// Writer is the capture primitive: the frame is rendered synchronously, so
// later scene changes cannot leak into it, then encoded and written to the
// output directory in the background. The sequencer waits for each write,
// so it keeps one in flight; WithWorkers only matters when several
// goroutines capture through the same Writer.
type Writer struct {
	frames   FrameSource
	dir      string
	log      *logging.Logger
	detector analyzer.Detector
	stampQR  bool
	workers  int

	group *errgroup.Group
}

type Option func(*Writer)

// WithDetector enables verification that the subject is visible in each frame.
func WithDetector(d analyzer.Detector) Option {
	return func(w *Writer) { w.detector = d }
}

// WithWorkers bounds how many writes may run at once. The default is one.
func WithWorkers(n int) Option {
	return func(w *Writer) {
		if n > 0 {
			w.workers = n
		}
	}
}

// WithQRStamp embeds the artifact name as a QR code in the bottom-right corner.
func WithQRStamp() Option {
	return func(w *Writer) { w.stampQR = true }
}

// NewWriter creates the output directory if needed.
func NewWriter(frames FrameSource, dir string, log *logging.Logger, opts ...Option) (*Writer, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("%w: create output dir: %w", ErrIOFailure, err)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}

	w := &Writer{
		frames:  frames,
		dir:     abs,
		log:     log.With("component", "capture"),
		workers: 1,
	}
	for _, opt := range opts {
		opt(w)
	}

	w.group = new(errgroup.Group)
	w.group.SetLimit(w.workers)
	return w, nil
}

func (w *Writer) Dir() string { return w.dir }

// Capture renders the current frame at scale and schedules it to be written
// as name inside the output directory.
func (w *Writer) Capture(ctx context.Context, name string, scale int) *Pending {
	path := filepath.Join(w.dir, name)

	if scale < 1 {
		return Resolved(Result{Path: path, Err: fmt.Errorf("%w: scale %d", ErrUnsupportedResolution, scale)})
	}
	frame, err := w.frames.Frame(scale)
	if err != nil {
		if errors.Is(err, renderer.ErrFrameTooLarge) {
			err = fmt.Errorf("%w: %w", ErrUnsupportedResolution, err)
		}
		return Resolved(Result{Path: path, Err: err})
	}

	p := NewPending(path)
	// Go blocks while the pool is full, which throttles the sequencer
	// instead of piling frames up in memory.
	w.group.Go(func() error {
		defer w.frames.Release(frame)
		visible, err := w.write(ctx, frame, name, path)
		p.resolve(visible, err)
		return nil
	})
	return p
}

func (w *Writer) write(ctx context.Context, frame *image.RGBA, name, path string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	visible := true
	if w.detector != nil {
		blocks, err := w.detector.Detect(frame)
		if err != nil {
			w.log.Warn("verification failed", "file", name, "error", err)
		} else if len(blocks) == 0 {
			visible = false
			w.log.Warn("subject not visible in frame", "file", name)
		}
	}

	if w.stampQR {
		if err := stampQR(frame, name); err != nil {
			w.log.Warn("qr stamp skipped", "file", name, "error", err)
		}
	}

	if err := encodeFile(frame, path); err != nil {
		return visible, fmt.Errorf("%w: %w", ErrIOFailure, err)
	}

	w.log.Info("screenshot saved", "path", path)
	return visible, nil
}

// encodeFile writes through a temporary file so a crash never leaves a
// truncated PNG under the final name.
func encodeFile(img image.Image, path string) error {
	tmp := path + ".part"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

// Close waits for every scheduled write to finish.
func (w *Writer) Close() error {
	return w.group.Wait()
}
