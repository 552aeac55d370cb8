// Package image implements a router.Handler that re-encodes raster
// images across PNG, JPEG, BMP, and TIFF by decoding into image.Image
// and re-encoding with the target codec, grounded on
// mundhrakeshav-pdfknight's raster engine's decode-into-image.Image,
// re-encode-with-target-codec shape (converter/raster/engine.go's
// savePNG), extended here to a full codec matrix via stdlib image/png,
// image/jpeg and golang.org/x/image's bmp and tiff packages.
package image

import (
	"bytes"
	"context"
	"fmt"
	stdimage "image"
	"image/jpeg"
	"image/png"
	"sync"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"mediarouter/internal/router"
)

const jpegQuality = 90

func fmtPNG() router.Format {
	return router.Format{Name: "PNG", Code: "png", Extension: ".png", MIME: "image/png", From: true, To: true}
}

func fmtJPEG() router.Format {
	return router.Format{Name: "JPEG", Code: "jpeg", Extension: ".jpg", MIME: "image/jpeg", From: true, To: true}
}

func fmtBMP() router.Format {
	return router.Format{Name: "BMP", Code: "bmp", Extension: ".bmp", MIME: "image/bmp", From: true, To: true}
}

func fmtTIFF() router.Format {
	return router.Format{Name: "TIFF", Code: "tiff", Extension: ".tiff", MIME: "image/tiff", From: true, To: true}
}

// Handler re-encodes raster images among PNG, JPEG, BMP, and TIFF.
type Handler struct {
	mu    sync.Mutex
	ready bool
}

var _ router.Handler = (*Handler)(nil)

func New() *Handler { return &Handler{} }

func (h *Handler) Name() string { return "image" }

func (h *Handler) Ready() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.ready
}

func (h *Handler) Init(context.Context) error {
	h.mu.Lock()
	h.ready = true
	h.mu.Unlock()
	return nil
}

func (h *Handler) SupportedFormats() []router.Format {
	return []router.Format{fmtPNG(), fmtJPEG(), fmtBMP(), fmtTIFF()}
}

// Convert decodes each file with the codec matching from.MIME and
// re-encodes it with the codec matching to.MIME.
func (h *Handler) Convert(_ context.Context, files []router.File, from, to router.Format) ([]router.File, error) {
	out := make([]router.File, 0, len(files))
	for _, f := range files {
		img, err := decode(from.MIME, f.Bytes)
		if err != nil {
			return nil, fmt.Errorf("image: decode %q as %s: %w", f.Name, from.MIME, err)
		}

		encoded, err := encode(to.MIME, img)
		if err != nil {
			return nil, fmt.Errorf("image: encode %q as %s: %w", f.Name, to.MIME, err)
		}

		out = append(out, router.File{Name: renamedFilename(f.Name, to.Extension), Bytes: encoded})
	}
	return out, nil
}

func decode(mime string, data []byte) (stdimage.Image, error) {
	r := bytes.NewReader(data)
	switch mime {
	case "image/png":
		return png.Decode(r)
	case "image/jpeg":
		return jpeg.Decode(r)
	case "image/bmp":
		return bmp.Decode(r)
	case "image/tiff":
		return tiff.Decode(r)
	default:
		return nil, fmt.Errorf("unsupported source mime %q", mime)
	}
}

func encode(mime string, img stdimage.Image) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	switch mime {
	case "image/png":
		err = png.Encode(&buf, img)
	case "image/jpeg":
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality})
	case "image/bmp":
		err = bmp.Encode(&buf, img)
	case "image/tiff":
		err = tiff.Encode(&buf, img, nil)
	default:
		return nil, fmt.Errorf("unsupported target mime %q", mime)
	}
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func renamedFilename(name, newExt string) string {
	if newExt == "" {
		return name
	}
	dot := -1
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '.' {
			dot = i
			break
		}
	}
	if dot == -1 {
		return name + newExt
	}
	return name[:dot] + newExt
}
