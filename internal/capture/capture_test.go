package capture

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"anti-instagram/internal/config"
	"anti-instagram/internal/logger"
	"anti-instagram/internal/models"
	"anti-instagram/internal/timeutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu     sync.Mutex
	frames []*models.Frame
}

func (s *recordingSink) Deposit(f *models.Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = append(s.frames, f)
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames)
}

func writePNG(t *testing.T, path string, c color.RGBA) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 6, 4))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestNewDirectoryListsImagesInOrder(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "b.png"), color.RGBA{R: 255, A: 255})
	writePNG(t, filepath.Join(dir, "a.png"), color.RGBA{B: 255, A: 255})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	d, err := NewDirectory(dir, 10, logger.Nop(), timeutil.RealClock{})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.png"), filepath.Join(dir, "b.png")}, d.Files())
}

func TestNewDirectoryRejectsEmptyFolder(t *testing.T) {
	_, err := NewDirectory(t.TempDir(), 10, logger.Nop(), timeutil.RealClock{})
	assert.Error(t, err)
}

func TestLoadDecodesBGR(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "red.png")
	writePNG(t, path, color.RGBA{R: 200, G: 10, B: 30, A: 255})

	d, err := NewDirectory(dir, 10, logger.Nop(), timeutil.RealClock{})
	require.NoError(t, err)

	stamp := time.Unix(5, 0)
	f, err := d.Load(path, stamp)
	require.NoError(t, err)
	assert.Equal(t, 6, f.Width)
	assert.Equal(t, 4, f.Height)
	assert.Equal(t, [models.NumChannels]uint8{30, 10, 200}, f.At(0, 0))
	assert.Equal(t, stamp, f.Stamp)
}

func TestLoadReportsDecodeFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.jpg")
	require.NoError(t, os.WriteFile(path, []byte("not a jpeg"), 0o644))

	d, err := NewDirectory(dir, 10, logger.Nop(), timeutil.RealClock{})
	require.NoError(t, err)

	_, err = d.Load(path, time.Now())
	assert.ErrorIs(t, err, ErrDecode)
}

func TestDirectoryRunLoopsAndSkipsBrokenImages(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "a.png"), color.RGBA{G: 255, A: 255})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.jpg"), []byte("garbage"), 0o644))

	clock := timeutil.NewMockClock(time.Unix(0, 0))
	rec := logger.NewRecorder()
	d, err := NewDirectory(dir, 10, rec, clock)
	require.NoError(t, err)

	sink := &recordingSink{}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx, sink) }()

	require.Eventually(t, func() bool { return len(clock.Tickers()) == 1 }, time.Second, time.Millisecond)

	for want := 1; want <= 2; want++ {
		clock.Advance(100 * time.Millisecond)
		require.Eventually(t, func() bool { return sink.count() == want }, time.Second, time.Millisecond)

		clock.Advance(100 * time.Millisecond)
		require.Eventually(t, func() bool {
			return rec.Count("cannot decode image, frame dropped") == want
		}, time.Second, time.Millisecond)
	}

	cancel()
	require.NoError(t, <-done)
}

func TestOpenPicksSource(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "a.png"), color.RGBA{A: 255})

	src, err := Open(config.SourceConfig{URI: dir, FPS: 5}, logger.Nop(), timeutil.RealClock{})
	require.NoError(t, err)
	assert.IsType(t, &Directory{}, src)

	src, err = Open(config.SourceConfig{URI: "0", FPS: 5}, logger.Nop(), timeutil.RealClock{})
	require.NoError(t, err)
	assert.Equal(t, "camera:0", src.Name())

	_, err = Open(config.SourceConfig{}, logger.Nop(), timeutil.RealClock{})
	assert.Error(t, err)
}
