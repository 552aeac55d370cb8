package image

import (
	"bytes"
	stdimage "image"
	"image/color"
	"image/png"
	"testing"

	"mediarouter/internal/router"
)

func samplePNGBytes(t *testing.T) []byte {
	t.Helper()
	img := stdimage.NewRGBA(stdimage.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 60), G: uint8(y * 60), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to build fixture PNG: %v", err)
	}
	return buf.Bytes()
}

func TestHandler_ConvertPNGToJPEG(t *testing.T) {
	h := New()
	_ = h.Init(nil)

	out, err := h.Convert(nil, []router.File{{Name: "a.png", Bytes: samplePNGBytes(t)}}, fmtPNG(), fmtJPEG())
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("Convert() returned %d files, want 1", len(out))
	}
	if out[0].Name != "a.jpg" {
		t.Fatalf("Name = %q, want a.jpg", out[0].Name)
	}
	if len(out[0].Bytes) == 0 {
		t.Fatal("Convert() produced empty output")
	}
}

func TestHandler_ConvertPNGToBMPAndBack(t *testing.T) {
	h := New()
	_ = h.Init(nil)

	toBMP, err := h.Convert(nil, []router.File{{Name: "a.png", Bytes: samplePNGBytes(t)}}, fmtPNG(), fmtBMP())
	if err != nil {
		t.Fatalf("PNG->BMP Convert() error = %v", err)
	}

	backToPNG, err := h.Convert(nil, toBMP, fmtBMP(), fmtPNG())
	if err != nil {
		t.Fatalf("BMP->PNG Convert() error = %v", err)
	}
	if len(backToPNG) != 1 || len(backToPNG[0].Bytes) == 0 {
		t.Fatalf("unexpected round-trip result: %+v", backToPNG)
	}
}

func TestHandler_ConvertRejectsUnknownSourceMIME(t *testing.T) {
	h := New()
	_, err := h.Convert(nil, []router.File{{Name: "a", Bytes: []byte("not an image")}},
		router.Format{MIME: "application/octet-stream"}, fmtPNG())
	if err == nil {
		t.Fatal("expected error decoding an unsupported source mime")
	}
}

func TestHandler_SupportedFormatsAllBidirectional(t *testing.T) {
	h := New()
	for _, f := range h.SupportedFormats() {
		if !f.From || !f.To {
			t.Fatalf("format %+v should support both directions", f)
		}
	}
}

func TestRenamedFilename(t *testing.T) {
	cases := []struct{ name, ext, want string }{
		{"a.png", ".jpg", "a.jpg"},
		{"noext", ".jpg", "noext.jpg"},
		{"a.png", "", "a.png"},
	}
	for _, c := range cases {
		if got := renamedFilename(c.name, c.ext); got != c.want {
			t.Errorf("renamedFilename(%q, %q) = %q, want %q", c.name, c.ext, got, c.want)
		}
	}
}
