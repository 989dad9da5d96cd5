package browser

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"math"

	"github.com/disintegration/imaging"

	"github.com/nextlevelbuilder/goclaw-node/internal/node"
)

const defaultJPEGQuality = 90

// EncodeSnapshot re-encodes a PNG screenshot in the requested format,
// downscaling to MaxWidth when the image is wider. Returns base64.
func EncodeSnapshot(png []byte, p node.SnapshotParams) (string, error) {
	img, err := imaging.Decode(bytes.NewReader(png))
	if err != nil {
		return "", fmt.Errorf("decode screenshot: %w", err)
	}
	if p.MaxWidth != nil && img.Bounds().Dx() > *p.MaxWidth {
		img = imaging.Resize(img, *p.MaxWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	switch p.Format {
	case node.SnapshotJPEG:
		err = imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality(p.Quality)))
	default:
		err = imaging.Encode(&buf, img, imaging.PNG)
	}
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// jpegQuality maps a 0..1 quality to 1..100.
func jpegQuality(q *float64) int {
	if q == nil {
		return defaultJPEGQuality
	}
	v := int(math.Round(*q * 100))
	if v < 1 {
		return 1
	}
	if v > 100 {
		return 100
	}
	return v
}
