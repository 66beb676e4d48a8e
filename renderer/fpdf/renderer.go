// Package fpdfrenderer 使用 go-pdf/fpdf 的 Helvetica 核心字体输出 PDF，
// 字宽与网页端导出（jsPDF 默认字体）一致，是默认的渲染后端。
package fpdfrenderer

import (
	"bytes"
	"fmt"
	"strings"
	"sync"

	"codeberg.org/go-pdf/fpdf"
	"github.com/charmbracelet/log"

	"github.com/ByLCY/vitae/layout"
	"github.com/ByLCY/vitae/renderer"
)

const (
	family           = "Helvetica"
	defaultLineWidth = 0.2
)

// Renderer draws layout results with fpdf and measures text with the same core font metrics.
type Renderer struct {
	logger *log.Logger

	// measure 仅用于测宽，不输出页面；fpdf 不是并发安全的，因此加锁。
	measureMu sync.Mutex
	measure   *fpdf.Fpdf
	translate func(string) string
}

var _ renderer.Backend = (*Renderer)(nil)

// Options configures the fpdf renderer.
type Options struct {
	Logger *log.Logger
}

// New creates a Helvetica-based renderer.
func New(opts Options) *Renderer {
	m := fpdf.New("P", "mm", "A4", "")
	return &Renderer{
		logger:    opts.Logger,
		measure:   m,
		translate: m.UnicodeTranslatorFromDescriptor(""),
	}
}

// TextWidth implements layout.Measurer. sizePt 为 pt，返回 mm。
func (r *Renderer) TextWidth(text string, style layout.FontStyle, sizePt float64) float64 {
	if text == "" {
		return 0
	}
	r.measureMu.Lock()
	defer r.measureMu.Unlock()
	r.measure.SetFont(family, fontStyle(style), sizePt)
	return r.measure.GetStringWidth(r.translate(text))
}

// Render renders the result into a PDF byte slice.
func (r *Renderer) Render(result *layout.Result) ([]byte, error) {
	if result == nil {
		return nil, fmt.Errorf("渲染结果为空")
	}
	if len(result.Pages) == 0 {
		return nil, fmt.Errorf("缺少可渲染的页面")
	}

	first := result.Pages[0]
	doc := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: first.Width, Ht: first.Height},
	})
	doc.SetAutoPageBreak(false, 0)
	doc.SetMargins(0, 0, 0)
	applyMeta(doc, result.Meta)
	tr := doc.UnicodeTranslatorFromDescriptor("")

	for i, page := range result.Pages {
		doc.AddPageFormat("P", fpdf.SizeType{Wd: page.Width, Ht: page.Height})
		for j, cmd := range page.Commands {
			switch {
			case cmd.Text != nil:
				drawText(doc, tr, *cmd.Text)
			case cmd.Line != nil:
				drawLine(doc, *cmd.Line)
			case cmd.Image != nil:
				name := fmt.Sprintf("p%d-img%d", i+1, j)
				if err := drawImage(doc, name, *cmd.Image); err != nil && r.logger != nil {
					r.logger.Warn("图片未嵌入", "page", i+1, "err", err)
				}
			}
		}
		if doc.Err() {
			return nil, fmt.Errorf("绘制第 %d 页失败: %w", i+1, doc.Error())
		}
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("写入 PDF 失败: %w", err)
	}
	return buf.Bytes(), nil
}

func applyMeta(doc *fpdf.Fpdf, meta layout.DocumentMeta) {
	if meta.Title != "" {
		doc.SetTitle(meta.Title, true)
	}
	if meta.Author != "" {
		doc.SetAuthor(meta.Author, true)
	}
	if meta.Subject != "" {
		doc.SetSubject(meta.Subject, true)
	}
	if len(meta.Keywords) > 0 {
		doc.SetKeywords(strings.Join(meta.Keywords, ", "), true)
	}
	if meta.Creator != "" {
		doc.SetCreator(meta.Creator, true)
	}
}

func drawText(doc *fpdf.Fpdf, tr func(string) string, run layout.TextRun) {
	if run.Content == "" {
		return
	}
	doc.SetFont(family, fontStyle(run.Style), run.FontSize)
	doc.SetTextColor(run.Color.R, run.Color.G, run.Color.B)
	doc.Text(run.X, run.Y, tr(run.Content))
}

func drawLine(doc *fpdf.Fpdf, ln layout.Line) {
	w := ln.Width
	if w <= 0 {
		w = defaultLineWidth
	}
	doc.SetDrawColor(ln.Color.R, ln.Color.G, ln.Color.B)
	doc.SetLineWidth(w)
	doc.Line(ln.X1, ln.Y1, ln.X2, ln.Y2)
}

// drawImage 注册并绘制图片。注册失败时清除 fpdf 的错误状态，使文档其余部分照常输出。
func drawImage(doc *fpdf.Fpdf, name string, box layout.ImageBox) error {
	if len(box.Data) == 0 {
		return fmt.Errorf("图片数据为空")
	}
	imageType := "JPG"
	if strings.EqualFold(box.Format, "PNG") {
		imageType = "PNG"
	}
	opts := fpdf.ImageOptions{ImageType: imageType}
	doc.RegisterImageOptionsReader(name, opts, bytes.NewReader(box.Data))
	if doc.Err() {
		err := doc.Error()
		doc.ClearError()
		return fmt.Errorf("注册 %s 图片失败: %w", box.Format, err)
	}
	doc.ImageOptions(name, box.X, box.Y, box.Width, box.Height, false, opts, 0, "")
	return nil
}

func fontStyle(style layout.FontStyle) string {
	var s string
	if style.IsBold() {
		s += "B"
	}
	if style.IsItalic() {
		s += "I"
	}
	return s
}
