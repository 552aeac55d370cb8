// Package pdf implements a router.Handler backed by
// github.com/pdfcpu/pdfcpu: it builds a PDF from a sequence of page
// images (api.ImportImagesFile), and extracts a PDF's pages back out as
// PNG images (api.ExtractImagesFile). It is grounded on
// mundhrakeshav-pdfknight's raster engine for the image-import call. Init
// opens no document: it builds pdfcpu's default configuration and marks
// the handler ready.
package pdf

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"mediarouter/internal/router"
)

func pngFormat(from, to bool) router.Format {
	return router.Format{Name: "PNG", Code: "png", Extension: ".png", MIME: "image/png", From: from, To: to}
}

func jpegFormat(from, to bool) router.Format {
	return router.Format{Name: "JPEG", Code: "jpeg", Extension: ".jpg", MIME: "image/jpeg", From: from, To: to}
}

func pdfFormat(from, to bool) router.Format {
	return router.Format{Name: "PDF", Code: "pdf", Extension: ".pdf", MIME: "application/pdf", From: from, To: to}
}

// Handler builds and extracts PDF documents. It never runs two
// conversions concurrently over the same working directory, so Convert
// serializes on a mutex the same way the teacher's KepubConverter does
// around its external tool invocation.
type Handler struct {
	mu    sync.Mutex
	ready bool
}

var _ router.Handler = (*Handler)(nil)

func New() *Handler { return &Handler{} }

func (h *Handler) Name() string { return "pdf" }

func (h *Handler) Ready() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.ready
}

// Init smoke-tests that pdfcpu's model package loads a default
// configuration without panicking; there is no external process to probe
// (unlike the teacher's kepubify lookup), so Init simply marks the
// handler ready.
func (h *Handler) Init(context.Context) error {
	_ = model.NewDefaultConfiguration()
	h.mu.Lock()
	h.ready = true
	h.mu.Unlock()
	return nil
}

func (h *Handler) SupportedFormats() []router.Format {
	return []router.Format{
		pngFormat(true, true),
		jpegFormat(true, false),
		pdfFormat(true, true),
	}
}

// Convert dispatches on the requested target MIME: encoding page images
// into a PDF, or extracting a PDF's pages back out as PNGs.
func (h *Handler) Convert(_ context.Context, files []router.File, from, to router.Format) ([]router.File, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch to.MIME {
	case "application/pdf":
		return h.buildPDF(files)
	case "image/png":
		return h.extractPages(files)
	default:
		return nil, fmt.Errorf("pdf: unsupported conversion from %q to %q", from.MIME, to.MIME)
	}
}

func (h *Handler) buildPDF(files []router.File) ([]router.File, error) {
	dir, err := os.MkdirTemp("", "mediarouter-pdf-build-")
	if err != nil {
		return nil, fmt.Errorf("pdf: create scratch dir: %w", err)
	}
	defer os.RemoveAll(dir)

	imagePaths := make([]string, 0, len(files))
	for i, f := range files {
		path := filepath.Join(dir, fmt.Sprintf("page-%03d%s", i+1, filepath.Ext(f.Name)))
		if err := os.WriteFile(path, f.Bytes, 0o644); err != nil {
			return nil, fmt.Errorf("pdf: stage page %d: %w", i+1, err)
		}
		imagePaths = append(imagePaths, path)
	}

	outPath := filepath.Join(dir, "out.pdf")
	imp := pdfcpu.DefaultImportConfig()
	if err := api.ImportImagesFile(imagePaths, outPath, imp, nil); err != nil {
		return nil, fmt.Errorf("pdf: import images: %w", err)
	}

	out, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("pdf: read built pdf: %w", err)
	}
	return []router.File{{Name: "output.pdf", Bytes: out}}, nil
}

func (h *Handler) extractPages(files []router.File) ([]router.File, error) {
	if len(files) != 1 {
		return nil, fmt.Errorf("pdf: page extraction expects exactly one input file, got %d", len(files))
	}

	dir, err := os.MkdirTemp("", "mediarouter-pdf-extract-")
	if err != nil {
		return nil, fmt.Errorf("pdf: create scratch dir: %w", err)
	}
	defer os.RemoveAll(dir)

	inPath := filepath.Join(dir, "in.pdf")
	if err := os.WriteFile(inPath, files[0].Bytes, 0o644); err != nil {
		return nil, fmt.Errorf("pdf: stage input: %w", err)
	}

	if err := api.ExtractImagesFile(inPath, dir, nil, nil); err != nil {
		return nil, fmt.Errorf("pdf: extract images: %w", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("pdf: read extracted output: %w", err)
	}

	var out []router.File
	for _, entry := range entries {
		if entry.IsDir() || entry.Name() == "in.pdf" {
			continue
		}
		bytes, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("pdf: read extracted image %q: %w", entry.Name(), err)
		}
		out = append(out, router.File{Name: entry.Name(), Bytes: bytes})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("pdf: no images extracted")
	}
	return out, nil
}
