// Package rasterrenderer 将单个布局页面栅格化为位图，用于预览缩略图。
package rasterrenderer

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"github.com/charmbracelet/log"
	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"

	"github.com/ByLCY/vitae/fonts"
	"github.com/ByLCY/vitae/layout"
)

// DefaultDPI 是预览缩略图的默认分辨率。
const DefaultDPI = 96

const defaultLineWidth = 0.2

// ErrPageOutOfRange 表示请求的页码不存在。
var ErrPageOutOfRange = errors.New("rasterrenderer: page out of range")

// Renderer rasterises pages with fogleman/gg and the Go font family.
type Renderer struct {
	logger *log.Logger
	fonts  map[layout.FontStyle]*truetype.Font
}

// Options configures the raster renderer.
type Options struct {
	Logger *log.Logger
}

// New parses the bundled fonts.
func New(opts Options) (*Renderer, error) {
	r := &Renderer{logger: opts.Logger, fonts: map[layout.FontStyle]*truetype.Font{}}
	for _, style := range []layout.FontStyle{layout.Regular, layout.Bold, layout.Italic, layout.BoldItalic} {
		f, err := truetype.Parse(fonts.Face(string(style)))
		if err != nil {
			return nil, fmt.Errorf("解析字体 %s 失败: %w", style, err)
		}
		r.fonts[style] = f
	}
	return r, nil
}

// RenderPage 将第 index 页（从 0 开始）按 dpi 绘制为白底 RGBA 图像。
func (r *Renderer) RenderPage(result *layout.Result, index int, dpi float64) (image.Image, error) {
	if result == nil || index < 0 || index >= len(result.Pages) {
		return nil, fmt.Errorf("%w: %d", ErrPageOutOfRange, index+1)
	}
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	page := result.Pages[index]
	scale := dpi / 25.4 // px per mm
	w := int(page.Width*scale + 0.5)
	h := int(page.Height*scale + 0.5)
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("页面尺寸无效: %gx%g", page.Width, page.Height)
	}

	dc := gg.NewContext(w, h)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	faces := map[faceKey]font.Face{}
	defer func() {
		for _, f := range faces {
			f.Close()
		}
	}()

	for _, cmd := range page.Commands {
		switch {
		case cmd.Text != nil:
			tr := cmd.Text
			if tr.Content == "" {
				continue
			}
			key := faceKey{style: tr.Style, size: tr.FontSize}
			face, ok := faces[key]
			if !ok {
				face = truetype.NewFace(r.font(tr.Style), &truetype.Options{Size: tr.FontSize, DPI: dpi, Hinting: font.HintingFull})
				faces[key] = face
			}
			dc.SetFontFace(face)
			setColor(dc, tr.Color)
			dc.DrawString(tr.Content, tr.X*scale, tr.Y*scale)
		case cmd.Line != nil:
			ln := cmd.Line
			lw := ln.Width
			if lw <= 0 {
				lw = defaultLineWidth
			}
			setColor(dc, ln.Color)
			dc.SetLineWidth(lw * scale)
			dc.DrawLine(ln.X1*scale, ln.Y1*scale, ln.X2*scale, ln.Y2*scale)
			dc.Stroke()
		case cmd.Image != nil:
			if err := drawImage(dc, *cmd.Image, scale); err != nil && r.logger != nil {
				r.logger.Warn("图片未绘制", "page", index+1, "err", err)
			}
		}
	}
	return dc.Image(), nil
}

// RenderPNG 渲染指定页面并编码为 PNG。
func (r *Renderer) RenderPNG(result *layout.Result, index int, dpi float64) ([]byte, error) {
	img, err := r.RenderPage(result, index, dpi)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := EncodePNG(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodePNG 将图像编码为 PNG。
func EncodePNG(w io.Writer, img image.Image) error {
	if err := imaging.Encode(w, img, imaging.PNG); err != nil {
		return fmt.Errorf("编码 PNG 失败: %w", err)
	}
	return nil
}

type faceKey struct {
	style layout.FontStyle
	size  float64
}

func (r *Renderer) font(style layout.FontStyle) *truetype.Font {
	if f, ok := r.fonts[style]; ok {
		return f
	}
	return r.fonts[layout.Regular]
}

func drawImage(dc *gg.Context, box layout.ImageBox, scale float64) error {
	img, err := imaging.Decode(bytes.NewReader(box.Data))
	if err != nil {
		return fmt.Errorf("解码 %s 图片失败: %w", box.Format, err)
	}
	w := int(box.Width*scale + 0.5)
	h := int(box.Height*scale + 0.5)
	if w <= 0 || h <= 0 {
		return fmt.Errorf("图片尺寸无效")
	}
	dc.DrawImage(imaging.Resize(img, w, h, imaging.Lanczos), int(box.X*scale+0.5), int(box.Y*scale+0.5))
	return nil
}

func setColor(dc *gg.Context, c layout.Color) {
	dc.SetRGB255(c.R, c.G, c.B)
}
