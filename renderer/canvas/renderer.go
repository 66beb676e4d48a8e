package canvasrenderer

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/disintegration/imaging"
	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"

	"github.com/ByLCY/vitae/fonts"
	"github.com/ByLCY/vitae/layout"
	"github.com/ByLCY/vitae/renderer"
)

const defaultLineWidth = 0.2

// Renderer draws layout results via github.com/tdewolff/canvas.
// It also measures text, so wrapping and drawing agree on glyph widths.
type Renderer struct {
	logger *log.Logger
	family *canvas.FontFamily

	faceMu sync.Mutex
	faces  map[faceKey]*canvas.FontFace
}

var _ renderer.Backend = (*Renderer)(nil)

type faceKey struct {
	style layout.FontStyle
	size  float64
	color layout.Color
}

// Options configures the canvas renderer.
type Options struct {
	// Fonts 覆盖内置字体，键为字形（normal/bold/italic/bolditalic）。
	Fonts  map[layout.FontStyle][]byte
	Logger *log.Logger
}

// New creates a canvas-based renderer with the Go font family loaded.
func New(opts Options) (*Renderer, error) {
	family := canvas.NewFontFamily("vitae")
	for _, style := range []layout.FontStyle{layout.Regular, layout.Bold, layout.Italic, layout.BoldItalic} {
		data := opts.Fonts[style]
		if len(data) == 0 {
			data = fonts.Face(string(style))
		}
		if err := family.LoadFont(data, 0, canvasStyle(style)); err != nil {
			return nil, fmt.Errorf("加载字体 %s 失败: %w", style, err)
		}
	}
	return &Renderer{
		logger: opts.Logger,
		family: family,
		faces:  map[faceKey]*canvas.FontFace{},
	}, nil
}

// Render renders the result into a PDF byte slice.
func (r *Renderer) Render(result *layout.Result) ([]byte, error) {
	if result == nil {
		return nil, fmt.Errorf("渲染结果为空")
	}
	if len(result.Pages) == 0 {
		return nil, fmt.Errorf("缺少可渲染的页面")
	}

	var buf bytes.Buffer
	writer := pdf.New(&buf, result.Pages[0].Width, result.Pages[0].Height, nil)
	applyMeta(writer, result.Meta)
	for i, page := range result.Pages {
		if i > 0 {
			writer.NewPage(page.Width, page.Height)
		}
		c := canvas.New(page.Width, page.Height)
		ctx := canvas.NewContext(c)
		ctx.SetCoordSystem(canvas.CartesianIV) // 使坐标与布局保持左上角为原点
		r.drawPage(ctx, page, i+1)
		c.RenderTo(writer)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("写入 PDF 失败: %w", err)
	}
	return buf.Bytes(), nil
}

// TextWidth implements layout.Measurer. sizePt 为 pt，返回 mm。
func (r *Renderer) TextWidth(text string, style layout.FontStyle, sizePt float64) float64 {
	if text == "" {
		return 0
	}
	return r.face(style, sizePt, layout.Color{}).TextWidth(text)
}

func applyMeta(writer *pdf.PDF, meta layout.DocumentMeta) {
	keywords := strings.Join(meta.Keywords, ", ")
	writer.SetInfo(meta.Title, meta.Subject, keywords, meta.Author, meta.Creator)
}

// drawPage 按指令顺序绘制，后绘制的内容位于上层。
func (r *Renderer) drawPage(ctx *canvas.Context, page layout.Page, number int) {
	for _, cmd := range page.Commands {
		switch {
		case cmd.Text != nil:
			r.drawText(ctx, *cmd.Text)
		case cmd.Line != nil:
			drawLine(ctx, *cmd.Line)
		case cmd.Image != nil:
			if err := drawImage(ctx, *cmd.Image); err != nil && r.logger != nil {
				r.logger.Warn("图片未嵌入", "page", number, "err", err)
			}
		}
	}
}

// drawText 在基线 (X, Y) 处绘制单行文本。
func (r *Renderer) drawText(ctx *canvas.Context, tr layout.TextRun) {
	if tr.Content == "" {
		return
	}
	face := r.face(tr.Style, tr.FontSize, tr.Color)
	ctx.DrawText(tr.X, tr.Y, canvas.NewTextLine(face, tr.Content, canvas.Left))
}

func drawLine(ctx *canvas.Context, ln layout.Line) {
	w := ln.Width
	if w <= 0 {
		w = defaultLineWidth
	}
	ctx.SetFillColor(color.RGBA{0, 0, 0, 0})
	ctx.SetStrokeColor(colorFromLayout(ln.Color))
	ctx.SetStrokeWidth(w)
	p := &canvas.Path{}
	p.MoveTo(0, 0)
	p.LineTo(ln.X2-ln.X1, ln.Y2-ln.Y1)
	ctx.DrawPath(ln.X1, ln.Y1, p)
}

// drawImage 将图片缩放到 ImageBox 的宽度；解码失败时返回错误，由调用方跳过。
func drawImage(ctx *canvas.Context, box layout.ImageBox) error {
	if len(box.Data) == 0 {
		return fmt.Errorf("图片数据为空")
	}
	img, _, err := image.Decode(bytes.NewReader(box.Data))
	if err != nil {
		return fmt.Errorf("解码 %s 图片失败: %w", box.Format, err)
	}
	img, err = fitImage(img, box)
	if err != nil {
		return err
	}
	ctx.DrawImage(box.X, box.Y, img, canvas.DPMM(float64(img.Bounds().Dx())/box.Width))
	return nil
}

// fitImage 调整像素高度，使图片按统一分辨率绘制时恰好铺满 box（与 fpdf 后端一样拉伸）。
func fitImage(img image.Image, box layout.ImageBox) (image.Image, error) {
	px := img.Bounds().Dx()
	if px <= 0 || box.Width <= 0 || box.Height <= 0 {
		return nil, fmt.Errorf("图片尺寸无效")
	}
	h := int(float64(px)*box.Height/box.Width + 0.5)
	if h < 1 {
		h = 1
	}
	if h == img.Bounds().Dy() {
		return img, nil
	}
	return imaging.Resize(img, px, h, imaging.Lanczos), nil
}

func (r *Renderer) face(style layout.FontStyle, sizePt float64, col layout.Color) *canvas.FontFace {
	key := faceKey{style: style, size: sizePt, color: col}
	r.faceMu.Lock()
	defer r.faceMu.Unlock()
	if f, ok := r.faces[key]; ok {
		return f
	}
	f := r.family.Face(sizePt, colorFromLayout(col), canvasStyle(style), canvas.FontNormal)
	r.faces[key] = f
	return f
}

func canvasStyle(style layout.FontStyle) canvas.FontStyle {
	result := canvas.FontRegular
	if style.IsBold() {
		result = canvas.FontBold
	}
	if style.IsItalic() {
		result |= canvas.FontItalic
	}
	return result
}

func colorFromLayout(c layout.Color) color.Color {
	return canvas.RGBA(float64(c.R)/255.0, float64(c.G)/255.0, float64(c.B)/255.0, 1.0)
}
