package fpdfrenderer

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"math"
	"strings"
	"testing"

	pdfreader "github.com/ledongthuc/pdf"

	"github.com/ByLCY/vitae/layout"
	"github.com/ByLCY/vitae/record"
)

func readPDF(t *testing.T, data []byte) *pdfreader.Reader {
	t.Helper()
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatalf("output is not a PDF")
	}
	rd, err := pdfreader.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("读取 PDF 失败: %v", err)
	}
	return rd
}

// TestTextWidthMatchesHelveticaMetrics 以 AFM 字宽验证测量结果（千分之一 em）。
func TestTextWidthMatchesHelveticaMetrics(t *testing.T) {
	r := New(Options{})
	cases := []struct {
		style layout.FontStyle
		units float64
	}{
		{layout.Regular, 722 + 556 + 222 + 222 + 556},
		{layout.Bold, 722 + 556 + 278 + 278 + 611},
	}
	for _, tc := range cases {
		want := tc.units * 10 / 1000 * layout.PtToMm
		if got := r.TextWidth("Hello", tc.style, 10); math.Abs(got-want) > 1e-6 {
			t.Fatalf("%s width: got %g want %g", tc.style, got, want)
		}
	}
	if r.TextWidth("", layout.Regular, 10) != 0 {
		t.Fatalf("empty text must have zero width")
	}
}

func TestRenderPagesAndText(t *testing.T) {
	r := New(Options{})
	rec := record.Record{
		FullName:  "Jane Doe",
		Email:     "jane@example.com",
		Profile:   strings.Repeat("Careful engineer who writes things down and ships them on time. ", 120),
		Skills:    "Go, Rust",
		Languages: "English",
	}
	res, err := layout.Build(rec, layout.BuildOptions{Measurer: r})
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	data, err := r.Render(res)
	if err != nil {
		t.Fatalf("Render error: %v", err)
	}
	rd := readPDF(t, data)
	if rd.NumPage() != len(res.Pages) {
		t.Fatalf("PDF has %d pages, layout has %d", rd.NumPage(), len(res.Pages))
	}
	if rd.NumPage() < 2 {
		t.Fatalf("long profile should span pages, got %d", rd.NumPage())
	}
	text, err := rd.Page(1).GetPlainText(nil)
	if err != nil {
		t.Fatalf("extract text: %v", err)
	}
	if !strings.Contains(text, "Jane Doe") {
		t.Fatalf("first page should contain the name, got %q", text)
	}
}

func TestRenderEmbedsJPEGPhoto(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for i := 0; i < 16; i++ {
		img.Set(i, 15-i, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatal(err)
	}
	r := New(Options{})
	res, err := layout.Build(record.Record{FullName: "Jane Doe"}, layout.BuildOptions{
		Measurer: r,
		Photo:    &layout.Photo{Data: buf.Bytes(), Format: "JPEG", Width: 16, Height: 16},
	})
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	data, err := r.Render(res)
	if err != nil {
		t.Fatalf("Render error: %v", err)
	}
	if !bytes.Contains(data, []byte("/DCTDecode")) {
		t.Fatalf("JPEG photo should be embedded as DCTDecode stream")
	}
}

func TestRenderSkipsBrokenImage(t *testing.T) {
	r := New(Options{})
	res := &layout.Result{Pages: []layout.Page{{
		Width: 210, Height: 297, Margin: 20,
		Commands: []layout.DrawCommand{
			{Kind: layout.KindImage, Image: &layout.ImageBox{X: 10, Y: 10, Width: 30, Height: 30, Format: "PNG", Data: []byte("not an image")}},
			{Kind: layout.KindText, Text: &layout.TextRun{Content: "still here", X: 20, Y: 20, FontSize: 10, Style: layout.Regular}},
		},
	}}}
	data, err := r.Render(res)
	if err != nil {
		t.Fatalf("broken image must not fail the document: %v", err)
	}
	if n := readPDF(t, data).NumPage(); n != 1 {
		t.Fatalf("expected 1 page, got %d", n)
	}
}

func TestRenderRejectsEmptyResult(t *testing.T) {
	r := New(Options{})
	if _, err := r.Render(nil); err == nil {
		t.Fatalf("expected error for nil result")
	}
	if _, err := r.Render(&layout.Result{}); err == nil {
		t.Fatalf("expected error for result without pages")
	}
}
