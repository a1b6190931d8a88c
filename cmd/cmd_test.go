package cmd

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-busstop/config"
	"github.com/nvr-ai/go-busstop/geometry"
)

func TestParsePoints(t *testing.T) {
	points, err := parsePoints([]string{"10,20", " 30.5 , 40 "})
	require.NoError(t, err)
	assert.Equal(t, []geometry.Point2D{{X: 10, Y: 20}, {X: 30.5, Y: 40}}, points)

	for _, bad := range []string{"10", "a,2", "1,b"} {
		_, err := parsePoints([]string{bad})
		assert.Error(t, err, bad)
	}
}

func TestApplyRunFlags(t *testing.T) {
	c := config.Defaults()
	require.NoError(t, runCmd.Flags().Parse([]string{
		"--source", "frames",
		"--point", "0,0", "--point", "99,0", "--point", "99,99", "--point", "0,99",
		"--producer", "fixed_hsv,chroma",
		"--policy", "union",
		"--chroma", "25",
		"--window=false",
	}))

	require.NoError(t, applyRunFlags(runCmd, &c))
	assert.Equal(t, "frames", c.Source)
	assert.Len(t, c.Points, 4)
	assert.Equal(t, []string{"fixed_hsv", "chroma"}, c.Pipeline.Producers)
	assert.Equal(t, "union", c.Pipeline.Policy)
	assert.Equal(t, 25, c.Tuning.ChromaPercent)
	assert.Equal(t, 90, c.Tuning.WhitePercentile)
	assert.False(t, c.Output.Window)
}

func TestRectifyWritesOutputs(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "frame.png")
	img := image.NewRGBA(image.Rect(0, 0, 120, 80))
	for y := 0; y < 80; y++ {
		for x := 0; x < 120; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 90, A: 255})
		}
	}
	f, err := os.Create(in)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())

	cfg = config.Defaults()
	cfg.Points = []geometry.Point2D{{X: 10, Y: 10}, {X: 109, Y: 10}, {X: 109, Y: 69}, {X: 10, Y: 69}}
	cfg.Pipeline.Producers = []string{"fixed_hsv", "chroma"}
	log = slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	out := filepath.Join(dir, "out")
	require.NoError(t, rectify(in, out, false))

	rf, err := os.Open(filepath.Join(out, "rectified.png"))
	require.NoError(t, err)
	defer rf.Close()
	rect, err := png.Decode(rf)
	require.NoError(t, err)
	assert.Equal(t, 100, rect.Bounds().Dx())
	assert.Equal(t, 60, rect.Bounds().Dy())

	for _, name := range []string{"mask-fixed_hsv.png", "mask-chroma.png", "mask-fused.png"} {
		_, err := os.Stat(filepath.Join(out, name))
		assert.NoError(t, err, name)
	}

	require.NoError(t, rectify(in, out, true))
	_, err = os.Stat(filepath.Join(out, "rectified.webp"))
	assert.NoError(t, err)
}

func TestRectifyWithoutPointsFails(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "frame.png")
	f, err := os.Create(in)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, image.NewRGBA(image.Rect(0, 0, 8, 8))))
	require.NoError(t, f.Close())

	cfg = config.Defaults()
	log = slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	err = rectify(in, filepath.Join(dir, "out"), false)
	assert.ErrorContains(t, err, "not_ready")
}
