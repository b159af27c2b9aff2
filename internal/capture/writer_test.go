package capture

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/shotmaker/internal/analyzer"
	"github.com/ivlev/shotmaker/internal/logging"
	"github.com/ivlev/shotmaker/internal/renderer"
)

type fakeFrames struct {
	w, h     int
	err      error
	released atomic.Int32
}

func (f *fakeFrames) Frame(scale int) (*image.RGBA, error) {
	if f.err != nil {
		return nil, f.err
	}
	img := image.NewRGBA(image.Rect(0, 0, f.w*scale, f.h*scale))
	for i := range img.Pix {
		img.Pix[i] = 200
		if i%4 == 3 {
			img.Pix[i] = 255
		}
	}
	return img, nil
}

func (f *fakeFrames) Release(*image.RGBA) { f.released.Add(1) }

type nothingFound struct{}

func (nothingFound) Detect(image.Image) ([]analyzer.Block, error) { return nil, nil }

func decode(t *testing.T, path string) image.Image {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	return img
}

func TestCapture_WritesScaledPNG(t *testing.T) {
	frames := &fakeFrames{w: 32, h: 16}
	w, err := NewWriter(frames, t.TempDir(), logging.Discard(), WithWorkers(2))
	require.NoError(t, err)

	res, err := w.Capture(context.Background(), "A_Key_Front.png", 2).Wait(context.Background())
	require.NoError(t, err)
	require.NoError(t, res.Err)
	require.NoError(t, w.Close())

	assert.Equal(t, filepath.Join(w.Dir(), "A_Key_Front.png"), res.Path)
	assert.True(t, res.Visible)
	assert.Equal(t, image.Rect(0, 0, 64, 32), decode(t, res.Path).Bounds())
	assert.NoFileExists(t, res.Path+".part")
	assert.Equal(t, int32(1), frames.released.Load())
}

func TestCapture_UnsupportedResolution(t *testing.T) {
	frames := &fakeFrames{err: fmt.Errorf("8192x8192 at scale 4: %w", renderer.ErrFrameTooLarge)}
	w, err := NewWriter(frames, t.TempDir(), logging.Discard())
	require.NoError(t, err)

	res, err := w.Capture(context.Background(), "x.png", 4).Wait(context.Background())
	require.NoError(t, err)
	assert.ErrorIs(t, res.Err, ErrUnsupportedResolution)

	res, err = w.Capture(context.Background(), "y.png", 0).Wait(context.Background())
	require.NoError(t, err)
	assert.ErrorIs(t, res.Err, ErrUnsupportedResolution)
}

func TestCapture_IOFailure(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	w, err := NewWriter(&fakeFrames{w: 4, h: 4}, dir, logging.Discard())
	require.NoError(t, err)

	// the output directory disappears under the writer
	require.NoError(t, os.RemoveAll(dir))
	require.NoError(t, os.WriteFile(dir, []byte("not a dir"), 0644))

	res, err := w.Capture(context.Background(), "A__Main.png", 1).Wait(context.Background())
	require.NoError(t, err)
	assert.ErrorIs(t, res.Err, ErrIOFailure)
	assert.NoError(t, w.Close())
}

func TestNewWriter_OutputDirIsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(path, nil, 0644))

	_, err := NewWriter(&fakeFrames{}, path, logging.Discard())
	assert.ErrorIs(t, err, ErrIOFailure)
}

func TestCapture_Verification(t *testing.T) {
	w, err := NewWriter(&fakeFrames{w: 8, h: 8}, t.TempDir(), logging.Discard(), WithDetector(nothingFound{}))
	require.NoError(t, err)

	res, err := w.Capture(context.Background(), "blank.png", 1).Wait(context.Background())
	require.NoError(t, err)
	require.NoError(t, res.Err)
	assert.False(t, res.Visible)
	// still written: verification only warns
	assert.FileExists(t, res.Path)
}

func TestCapture_QRStamp(t *testing.T) {
	w, err := NewWriter(&fakeFrames{w: 300, h: 300}, t.TempDir(), logging.Discard(), WithQRStamp())
	require.NoError(t, err)

	res, err := w.Capture(context.Background(), "A_Key_Front.png", 1).Wait(context.Background())
	require.NoError(t, err)
	require.NoError(t, res.Err)

	img := decode(t, res.Path)
	// QR quiet zone is white, the fake frame is grey
	r, g, b, _ := img.At(299, 299).RGBA()
	assert.Equal(t, color.White.Y, uint16(r))
	assert.Equal(t, uint32(r), g)
	assert.Equal(t, uint32(r), b)
	r, _, _, _ = img.At(0, 0).RGBA()
	assert.Equal(t, uint32(200)*0x101, r)
}

func TestPending_WaitCancelled(t *testing.T) {
	p := NewPending("x.png")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := p.Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "x.png", res.Path)
}

func TestCapture_SeveralInFlight(t *testing.T) {
	frames := &fakeFrames{w: 8, h: 8}
	w, err := NewWriter(frames, t.TempDir(), logging.Discard(), WithWorkers(3))
	require.NoError(t, err)

	var pending []*Pending
	for i := 0; i < 6; i++ {
		pending = append(pending, w.Capture(context.Background(), fmt.Sprintf("shot_%d.png", i), 1))
	}
	require.NoError(t, w.Close())

	for _, p := range pending {
		res, err := p.Wait(context.Background())
		require.NoError(t, err)
		require.NoError(t, res.Err)
		assert.FileExists(t, res.Path)
	}
	assert.Equal(t, int32(6), frames.released.Load())
}
