package router

import (
	"context"
	"errors"
	"fmt"
)

// fakeHandler is a deterministic, in-memory Handler used across the
// router package's tests. It never touches a filesystem or subprocess;
// spec's Non-goals keep real codec back ends out of the core, so the
// core's own tests exercise only synthetic handlers like this one.
type fakeHandler struct {
	name      string
	formats   []Format
	anyInput  bool
	ready     bool
	initErr   error
	convertFn func(files []File, from, to Format) ([]File, error)

	initCalls    int
	convertCalls int
}

func (h *fakeHandler) Name() string { return h.name }
func (h *fakeHandler) Ready() bool  { return h.ready }

func (h *fakeHandler) Init(context.Context) error {
	h.initCalls++
	if h.initErr != nil {
		return h.initErr
	}
	h.ready = true
	return nil
}

func (h *fakeHandler) SupportedFormats() []Format { return h.formats }
func (h *fakeHandler) SupportAnyInput() bool      { return h.anyInput }

func (h *fakeHandler) Convert(_ context.Context, files []File, from, to Format) ([]File, error) {
	h.convertCalls++
	if h.convertFn != nil {
		return h.convertFn(files, from, to)
	}
	return []File{{Name: "out" + to.Extension, Bytes: []byte(fmt.Sprintf("%s->%s", from.MIME, to.MIME))}}, nil
}

var errFakeInit = errors.New("fake init failure")
var errFakeConvert = errors.New("fake convert failure")

func fmtPNG() Format {
	return Format{Name: "PNG", Code: "png", Extension: ".png", MIME: "image/png", From: true, To: true}
}

func fmtJPEG() Format {
	return Format{Name: "JPEG", Code: "jpeg", Extension: ".jpg", MIME: "image/jpeg", From: true, To: true}
}

func fmtBMP() Format {
	return Format{Name: "BMP", Code: "bmp", Extension: ".bmp", MIME: "image/bmp", From: true, To: true}
}

func fmtPDF() Format {
	return Format{Name: "PDF", Code: "pdf", Extension: ".pdf", MIME: "application/pdf", From: true, To: true}
}

func fmtSVG() Format {
	return Format{Name: "SVG", Code: "svg", Extension: ".svg", MIME: "image/svg+xml", From: true, To: false}
}

// newImageSuite returns a handler that converts freely among PNG, JPEG,
// and BMP, standing in for a multi-format codec library.
func newImageSuite() *fakeHandler {
	return &fakeHandler{
		name:    "image-suite",
		formats: []Format{fmtPNG(), fmtJPEG(), fmtBMP()},
	}
}

// newRasteriser returns a handler that only reads SVG and only writes
// PNG, standing in for a vector rasteriser.
func newRasteriser() *fakeHandler {
	svg := fmtSVG()
	svg.From = true
	png := fmtPNG()
	png.From = false
	return &fakeHandler{
		name:    "rasteriser",
		formats: []Format{svg, png},
	}
}

// newPDFWriter returns a handler that reads PNG and writes PDF only.
func newPDFWriter() *fakeHandler {
	png := fmtPNG()
	png.To = false
	pdf := fmtPDF()
	pdf.From = false
	return &fakeHandler{
		name:    "pdf-writer",
		formats: []Format{png, pdf},
	}
}

// newRenamer returns an any-input handler that declares only a single
// writable target format, standing in for spec's "renamer-style handler"
// fallback (the "Rename shortcut" scenario, spec §8).
func newRenamer(target Format) *fakeHandler {
	return &fakeHandler{
		name:     "renamer",
		anyInput: true,
		formats:  []Format{target},
		convertFn: func(files []File, from, to Format) ([]File, error) {
			out := make([]File, len(files))
			for i, f := range files {
				out[i] = File{Name: f.Name, Bytes: f.Bytes}
			}
			return out, nil
		},
	}
}

func newRegistryWithHandlers(handlers []Handler, mode Mode) *FormatRegistry {
	return NewRegistry(context.Background(), handlers, nil, mode, nil)
}
