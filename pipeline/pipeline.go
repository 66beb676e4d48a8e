// Package pipeline 串联头像解析、布局与渲染：Record → 页面 → PDF。
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/ByLCY/vitae/layout"
	"github.com/ByLCY/vitae/photo"
	"github.com/ByLCY/vitae/record"
	"github.com/ByLCY/vitae/renderer"
	canvasrenderer "github.com/ByLCY/vitae/renderer/canvas"
	fpdfrenderer "github.com/ByLCY/vitae/renderer/fpdf"
	rasterrenderer "github.com/ByLCY/vitae/renderer/raster"
)

// Backend 选择 PDF 渲染后端。
type Backend string

const (
	BackendFPDF   Backend = "fpdf"
	BackendCanvas Backend = "canvas"
)

// ParseBackend 解析后端名称，空字符串表示默认的 fpdf。
func ParseBackend(name string) (Backend, error) {
	switch Backend(strings.ToLower(strings.TrimSpace(name))) {
	case "", BackendFPDF:
		return BackendFPDF, nil
	case BackendCanvas:
		return BackendCanvas, nil
	default:
		return "", fmt.Errorf("未知渲染后端 %q（可选 fpdf、canvas）", name)
	}
}

// Options 配置一次导出所需的全部依赖。
type Options struct {
	Backend          Backend
	Geometry         layout.Geometry
	FileNameTemplate string
	Photo            photo.ResolveOptions
	// Fonts 仅对 canvas 后端生效，缺失的字形使用内置 Go 字体。
	Fonts  map[layout.FontStyle][]byte
	Logger *log.Logger
}

// Output 是一次导出的结果。
type Output struct {
	PDF      []byte
	FileName string // 含 .pdf 后缀
	Pages    int
	Result   *layout.Result
}

// Engine 持有渲染后端，可被多个请求并发复用。
type Engine struct {
	opts    Options
	backend renderer.Backend

	rasterOnce sync.Once
	raster     *rasterrenderer.Renderer
	rasterErr  error
}

// New 根据 Options 创建 Engine。
func New(opts Options) (*Engine, error) {
	backend, err := ParseBackend(string(opts.Backend))
	if err != nil {
		return nil, err
	}
	opts.Backend = backend
	if err := record.ValidateFileNameTemplate(opts.FileNameTemplate); err != nil {
		return nil, fmt.Errorf("文件名模板无效: %w", err)
	}
	var b renderer.Backend
	switch backend {
	case BackendCanvas:
		c, err := canvasrenderer.New(canvasrenderer.Options{Fonts: opts.Fonts, Logger: opts.Logger})
		if err != nil {
			return nil, fmt.Errorf("初始化 canvas 渲染器失败: %w", err)
		}
		b = c
	default:
		b = fpdfrenderer.New(fpdfrenderer.Options{Logger: opts.Logger})
	}
	return &Engine{opts: opts, backend: b}, nil
}

// Run 是 New + Engine.Run 的便捷形式。
func Run(ctx context.Context, rec record.Record, opts Options) (*Output, error) {
	e, err := New(opts)
	if err != nil {
		return nil, err
	}
	return e.Run(ctx, rec)
}

// Layout 解析头像并计算布局。头像的任何问题都只会让头像被跳过。
func (e *Engine) Layout(ctx context.Context, rec record.Record) (*layout.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return layout.Build(rec, layout.BuildOptions{
		Measurer:         e.backend,
		Geometry:         e.opts.Geometry,
		Photo:            e.loadPhoto(ctx, rec.Photo),
		Logger:           e.opts.Logger,
		FileNameTemplate: e.opts.FileNameTemplate,
	})
}

// Run 输出 PDF 字节与建议的文件名。
func (e *Engine) Run(ctx context.Context, rec record.Record) (*Output, error) {
	res, err := e.Layout(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("布局计算失败: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := e.backend.Render(res)
	if err != nil {
		return nil, fmt.Errorf("渲染 PDF 失败: %w", err)
	}
	e.debug("已生成 PDF", "pages", len(res.Pages), "bytes", len(data))
	return &Output{
		PDF:      data,
		FileName: res.Meta.FileName + ".pdf",
		Pages:    len(res.Pages),
		Result:   res,
	}, nil
}

// PagePNG 将第 page 页（从 1 开始）栅格化为 PNG。
func (e *Engine) PagePNG(ctx context.Context, rec record.Record, page int, dpi float64) ([]byte, error) {
	e.rasterOnce.Do(func() {
		e.raster, e.rasterErr = rasterrenderer.New(rasterrenderer.Options{Logger: e.opts.Logger})
	})
	if e.rasterErr != nil {
		return nil, fmt.Errorf("初始化栅格渲染器失败: %w", e.rasterErr)
	}
	res, err := e.Layout(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("布局计算失败: %w", err)
	}
	return e.raster.RenderPNG(res, page-1, dpi)
}

func (e *Engine) loadPhoto(ctx context.Context, ref string) *layout.Photo {
	if strings.TrimSpace(ref) == "" {
		return nil
	}
	src, err := photo.Resolve(ctx, ref, e.opts.Photo)
	if err != nil {
		e.warn("头像获取失败，已跳过", "err", err)
		return nil
	}
	p, err := photo.Prepare(src, e.opts.Logger)
	if err != nil {
		e.warn("头像解码失败，已跳过", "err", err)
		return nil
	}
	return p
}

func (e *Engine) warn(msg string, kv ...any) {
	if e.opts.Logger != nil {
		e.opts.Logger.Warn(msg, kv...)
	}
}

func (e *Engine) debug(msg string, kv ...any) {
	if e.opts.Logger != nil {
		e.opts.Logger.Debug(msg, kv...)
	}
}
