package browser

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/nextlevelbuilder/goclaw-node/internal/node"
)

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.NRGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func decodeB64(t *testing.T, s string) []byte {
	t.Helper()
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		t.Fatalf("base64: %v", err)
	}
	return data
}

func TestEncodeSnapshot_PNGKeepsSize(t *testing.T) {
	out, err := EncodeSnapshot(testPNG(t, 40, 20), node.SnapshotParams{Format: node.SnapshotPNG})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(decodeB64(t, out)))
	if err != nil || cfg.Width != 40 || cfg.Height != 20 {
		t.Fatalf("unexpected png %+v err=%v", cfg, err)
	}
}

func TestEncodeSnapshot_JPEGDownscaled(t *testing.T) {
	maxWidth := 10
	q := 0.5
	out, err := EncodeSnapshot(testPNG(t, 40, 20), node.SnapshotParams{Format: node.SnapshotJPEG, Quality: &q, MaxWidth: &maxWidth})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(decodeB64(t, out)))
	if err != nil || cfg.Width != 10 || cfg.Height != 5 {
		t.Fatalf("unexpected jpeg %+v err=%v", cfg, err)
	}
}

func TestEncodeSnapshot_NoUpscale(t *testing.T) {
	maxWidth := 400
	out, err := EncodeSnapshot(testPNG(t, 40, 20), node.SnapshotParams{Format: node.SnapshotPNG, MaxWidth: &maxWidth})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	cfg, _ := png.DecodeConfig(bytes.NewReader(decodeB64(t, out)))
	if cfg.Width != 40 {
		t.Fatalf("expected width 40, got %d", cfg.Width)
	}
}

func TestEncodeSnapshot_BadInput(t *testing.T) {
	if _, err := EncodeSnapshot([]byte("not an image"), node.SnapshotParams{Format: node.SnapshotPNG}); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestJPEGQuality(t *testing.T) {
	zero, half, over := 0.0, 0.5, 3.0
	cases := []struct {
		in   *float64
		want int
	}{
		{nil, defaultJPEGQuality},
		{&zero, 1},
		{&half, 50},
		{&over, 100},
	}
	for _, tc := range cases {
		if got := jpegQuality(tc.in); got != tc.want {
			t.Fatalf("jpegQuality(%v) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
