package assets

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
)

// ImageInfo describes a decoded upload.
type ImageInfo struct {
	WidthPx  int
	HeightPx int
	Format   string
	MimeType string
}

// Probe sniffs the MIME type and decodes the image to capture its dimensions.
// It fails on empty, non-image, or corrupt payloads.
func Probe(data []byte) (*ImageInfo, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("asset payload is empty")
	}

	mime := mimetype.Detect(data)
	if !strings.HasPrefix(mime.String(), "image/") {
		return nil, fmt.Errorf("unsupported content type %s", mime.String())
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	bounds := img.Bounds()
	return &ImageInfo{
		WidthPx:  bounds.Dx(),
		HeightPx: bounds.Dy(),
		Format:   strings.TrimPrefix(mime.Extension(), "."),
		MimeType: mime.String(),
	}, nil
}
