package host

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"mediarouter/internal/router"
)

// echoHandler is a minimal router.Handler that reads PNG and writes
// JPEG, standing in for a real codec in these HTTP-layer tests; the
// router core's own tests already cover BFS/search behavior in depth.
type echoHandler struct{}

func (echoHandler) Name() string  { return "echo" }
func (echoHandler) Ready() bool   { return true }
func (echoHandler) Init(context.Context) error { return nil }
func (echoHandler) SupportedFormats() []router.Format {
	return []router.Format{
		{Name: "PNG", Code: "png", Extension: ".png", MIME: "image/png", From: true},
		{Name: "JPEG", Code: "jpeg", Extension: ".jpg", MIME: "image/jpeg", To: true},
	}
}
func (echoHandler) Convert(_ context.Context, files []router.File, from, to router.Format) ([]router.File, error) {
	out := make([]router.File, len(files))
	for i, f := range files {
		out[i] = router.File{Name: "out.jpg", Bytes: f.Bytes}
	}
	return out, nil
}

// tiffToPDFHandler reads TIFF and writes PDF. Registered next to
// echoHandler it makes "application/pdf" a known output option that no
// chain starting from PNG can reach.
type tiffToPDFHandler struct{}

func (tiffToPDFHandler) Name() string               { return "tiff2pdf" }
func (tiffToPDFHandler) Ready() bool                { return true }
func (tiffToPDFHandler) Init(context.Context) error { return nil }
func (tiffToPDFHandler) SupportedFormats() []router.Format {
	return []router.Format{
		{Name: "TIFF", Code: "tiff", Extension: ".tiff", MIME: "image/tiff", From: true},
		{Name: "PDF", Code: "pdf", Extension: ".pdf", MIME: "application/pdf", To: true},
	}
}
func (tiffToPDFHandler) Convert(_ context.Context, files []router.File, _, _ router.Format) ([]router.File, error) {
	return files, nil
}

func newTestHost(t *testing.T) *Host {
	t.Helper()
	registry := router.NewRegistry(context.Background(), []router.Handler{echoHandler{}}, nil, router.Simple, nil)
	rt := router.NewRouter(registry, router.NewPathStore(router.NewMemPersister(), registry), time.Minute, nil)
	return New(rt, 0, nil)
}

func buildMultipartRequest(t *testing.T, input, output, mode string, body []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", "a.png")
	if err != nil {
		t.Fatalf("CreateFormFile() error = %v", err)
	}
	if _, err := part.Write(body); err != nil {
		t.Fatalf("write file part: %v", err)
	}
	_ = w.WriteField("input", input)
	_ = w.WriteField("output", output)
	if mode != "" {
		_ = w.WriteField("mode", mode)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/convert", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestHandleConvert_SuccessReturns200WithFile(t *testing.T) {
	h := newTestHost(t)
	req := buildMultipartRequest(t, "echo:image/png", "image/jpeg", "", []byte("fake-png-bytes"))
	rec := httptest.NewRecorder()

	h.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body = %s", rec.Code, rec.Body.String())
	}
	if rec.Body.Len() == 0 {
		t.Fatal("expected a non-empty response body")
	}
}

func TestHandleConvert_UnknownInputReturns400(t *testing.T) {
	h := newTestHost(t)
	req := buildMultipartRequest(t, "nonexistent:image/png", "image/jpeg", "", []byte("x"))
	rec := httptest.NewRecorder()

	h.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandleConvert_NoRouteReturns404(t *testing.T) {
	registry := router.NewRegistry(context.Background(), []router.Handler{echoHandler{}, tiffToPDFHandler{}}, nil, router.Simple, nil)
	rt := router.NewRouter(registry, router.NewPathStore(router.NewMemPersister(), registry), time.Minute, nil)
	h := New(rt, 0, nil)
	req := buildMultipartRequest(t, "echo:image/png", "application/pdf", "", []byte("x"))
	rec := httptest.NewRecorder()

	h.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404; body = %s", rec.Code, rec.Body.String())
	}
}

func TestHandleConvert_MissingFileReturns400(t *testing.T) {
	h := newTestHost(t)
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	_ = w.WriteField("input", "echo:image/png")
	_ = w.WriteField("output", "image/jpeg")
	_ = w.Close()

	req := httptest.NewRequest(http.MethodPost, "/convert", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()

	h.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
