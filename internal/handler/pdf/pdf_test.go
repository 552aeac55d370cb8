package pdf

import (
	"context"
	"testing"

	"mediarouter/internal/router"
)

func TestHandler_NameAndReady(t *testing.T) {
	h := New()
	if h.Name() != "pdf" {
		t.Fatalf("Name() = %q, want pdf", h.Name())
	}
	if h.Ready() {
		t.Fatal("Ready() = true before Init")
	}
	if err := h.Init(context.Background()); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if !h.Ready() {
		t.Fatal("Ready() = false after Init")
	}
}

func TestHandler_SupportedFormatsDeclaresPNGJPEGAndPDF(t *testing.T) {
	h := New()
	formats := h.SupportedFormats()
	mimes := map[string]router.Format{}
	for _, f := range formats {
		mimes[f.MIME] = f
	}
	for _, want := range []string{"image/png", "image/jpeg", "application/pdf"} {
		if _, ok := mimes[want]; !ok {
			t.Fatalf("SupportedFormats() missing %q: %+v", want, formats)
		}
	}
	if !mimes["image/png"].From || !mimes["image/png"].To {
		t.Fatalf("png format should support both directions: %+v", mimes["image/png"])
	}
	if !mimes["image/jpeg"].From || mimes["image/jpeg"].To {
		t.Fatalf("jpeg format should be input-only: %+v", mimes["image/jpeg"])
	}
}

func TestHandler_ConvertRejectsUnsupportedTargetMIME(t *testing.T) {
	h := New()
	_ = h.Init(context.Background())

	_, err := h.Convert(context.Background(), []router.File{{Name: "a.png", Bytes: []byte("x")}},
		router.Format{MIME: "image/png"}, router.Format{MIME: "application/x-unrelated"})
	if err == nil {
		t.Fatal("expected error for unsupported target mime")
	}
}

func TestHandler_ExtractPagesRejectsMultipleInputFiles(t *testing.T) {
	h := New()
	_ = h.Init(context.Background())

	_, err := h.Convert(context.Background(), []router.File{
		{Name: "a.pdf", Bytes: []byte("x")},
		{Name: "b.pdf", Bytes: []byte("y")},
	}, router.Format{MIME: "application/pdf"}, router.Format{MIME: "image/png"})
	if err == nil {
		t.Fatal("expected error extracting pages from multiple input files")
	}
}
