package rename

import (
	"context"
	"testing"

	"mediarouter/internal/router"
)

func markdownFormat() router.Format {
	return router.Format{Name: "Markdown", Code: "md", Extension: ".md", MIME: "text/markdown", To: true}
}

func TestHandler_SupportAnyInput(t *testing.T) {
	h := New(markdownFormat())
	if !h.SupportAnyInput() {
		t.Fatal("SupportAnyInput() = false, want true")
	}
}

func TestHandler_InitMakesReady(t *testing.T) {
	h := New(markdownFormat())
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

func TestHandler_ConvertSwapsExtensionPreservesBytes(t *testing.T) {
	h := New(markdownFormat())
	_ = h.Init(context.Background())

	in := []router.File{{Name: "notes.txt", Bytes: []byte("hello world")}}
	out, err := h.Convert(context.Background(), in, router.Format{MIME: "text/plain"}, markdownFormat())
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("Convert() returned %d files, want 1", len(out))
	}
	if out[0].Name != "notes.md" {
		t.Fatalf("Name = %q, want notes.md", out[0].Name)
	}
	if string(out[0].Bytes) != "hello world" {
		t.Fatalf("Bytes = %q, want unchanged", out[0].Bytes)
	}
}

func TestHandler_ConvertRejectsUnsupportedTarget(t *testing.T) {
	h := New(markdownFormat())
	_ = h.Init(context.Background())

	_, err := h.Convert(context.Background(), []router.File{{Name: "a", Bytes: []byte("x")}},
		router.Format{MIME: "text/plain"}, router.Format{MIME: "application/unrelated"})
	if err == nil {
		t.Fatal("expected error converting to an unconfigured target mime")
	}
}

func TestHandler_SupportedFormatsOnlyListstarget(t *testing.T) {
	target := markdownFormat()
	h := New(target)
	formats := h.SupportedFormats()
	if len(formats) != 1 || formats[0].MIME != target.MIME {
		t.Fatalf("SupportedFormats() = %+v, want single %q entry", formats, target.MIME)
	}
	if formats[0].From {
		t.Fatalf("renamer's declared format must not claim From=true (it claims any-input instead)")
	}
}

func TestRenamedFilename_NoExtensionOnInput(t *testing.T) {
	if got := renamedFilename("README", ".md"); got != "README.md" {
		t.Fatalf("renamedFilename() = %q, want README.md", got)
	}
}

func TestRenamedFilename_EmptyTargetExtensionKeepsName(t *testing.T) {
	if got := renamedFilename("a.txt", ""); got != "a.txt" {
		t.Fatalf("renamedFilename() = %q, want unchanged", got)
	}
}
