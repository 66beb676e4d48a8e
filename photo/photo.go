// Package photo 负责头像的获取与预处理：解析引用（data URI、http(s)、文件路径），
// 解码并在需要时重新编码为 PNG，以及裁剪。
package photo

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"math"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"github.com/ByLCY/vitae/layout"
)

var (
	// ErrImageDecode 表示图片无法解码，调用方应跳过头像。
	ErrImageDecode = errors.New("photo: image decode failed")
	// ErrCanvasUnavailable 表示编码器没有产出任何数据。
	ErrCanvasUnavailable = errors.New("photo: encoder produced no output")
	// ErrInvalidCrop 表示裁剪区域为空或坐标无效。
	ErrInvalidCrop = errors.New("photo: invalid crop dimensions")
	// ErrImageTooLarge 表示图片或裁剪区域的像素数超过 MaxPixels。
	ErrImageTooLarge = errors.New("photo: image too large")
)

// MaxPixels 是解码或生成图片时允许的最大像素数。
// 解码前先读取文件头中的尺寸，像素缓冲区按该尺寸分配。
const MaxPixels = 25_000_000

// maxCoord 限制裁剪坐标的绝对值，避免转换为 int 时溢出。
const maxCoord = 1 << 24

// Source 是解析后的原始图片字节及其 MIME 类型（可能为空）。
type Source struct {
	Data []byte
	MIME string
}

// encodePNG 可在测试中替换，用于模拟重新编码失败。
var encodePNG = func(w io.Writer, img image.Image) error {
	return imaging.Encode(w, img, imaging.PNG)
}

// Prepare 解码图片；非 PNG 图片重新编码为 PNG。
// 重新编码失败时保留原始字节与格式，仅记录日志；解码失败返回 ErrImageDecode。
func Prepare(src Source, logger *log.Logger) (*layout.Photo, error) {
	if len(src.Data) == 0 {
		return nil, fmt.Errorf("%w: empty data", ErrImageDecode)
	}
	if err := checkSize(src.Data); err != nil {
		return nil, err
	}
	img, err := imaging.Decode(bytes.NewReader(src.Data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageDecode, err)
	}
	format := formatOf(src)
	b := img.Bounds()
	if format == "PNG" {
		return &layout.Photo{Data: src.Data, Format: format, Width: b.Dx(), Height: b.Dy()}, nil
	}

	var buf bytes.Buffer
	err = encodePNG(&buf, img)
	if err == nil && buf.Len() == 0 {
		err = ErrCanvasUnavailable
	}
	if err != nil {
		if logger != nil {
			logger.Warn("头像重新编码为 PNG 失败，使用原始数据", "format", format, "err", err)
		}
		return &layout.Photo{Data: src.Data, Format: format, Width: b.Dx(), Height: b.Dy()}, nil
	}
	return &layout.Photo{Data: buf.Bytes(), Format: "PNG", Width: b.Dx(), Height: b.Dy()}, nil
}

// checkSize 读取文件头中的尺寸，像素数超过 MaxPixels 时返回 ErrImageTooLarge。
func checkSize(data []byte) error {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrImageDecode, err)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return fmt.Errorf("%w: %dx%d", ErrImageTooLarge, cfg.Width, cfg.Height)
	}
	return nil
}

// formatOf 优先根据 MIME 判断格式，缺失时嗅探字节。
func formatOf(src Source) string {
	mime := strings.ToLower(src.MIME)
	switch {
	case strings.Contains(mime, "png"):
		return "PNG"
	case strings.Contains(mime, "jpeg"), strings.Contains(mime, "jpg"):
		return "JPEG"
	case strings.HasPrefix(mime, "image/"):
		return strings.ToUpper(strings.TrimPrefix(mime, "image/"))
	}
	if _, name, err := image.DecodeConfig(bytes.NewReader(src.Data)); err == nil {
		return strings.ToUpper(name)
	}
	return ""
}

// Rect 是以像素为单位的裁剪区域，坐标允许为小数。
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Crop 截取 rect 区域并编码为 JPEG（质量 90）。区域各分量向下取整；
// 超出原图的部分填充黑色，输出尺寸始终等于裁剪尺寸。
// 原图与裁剪区域的像素数都不能超过 MaxPixels。
func Crop(data []byte, rect Rect) ([]byte, error) {
	if !(rect.Width >= 1 && rect.Height >= 1) || !(math.Abs(rect.X) < maxCoord && math.Abs(rect.Y) < maxCoord) {
		return nil, ErrInvalidCrop
	}
	if rect.Width*rect.Height > MaxPixels || rect.Width > maxCoord || rect.Height > maxCoord {
		return nil, fmt.Errorf("%w: crop %gx%g", ErrImageTooLarge, rect.Width, rect.Height)
	}
	w, h := int(math.Floor(rect.Width)), int(math.Floor(rect.Height))
	if err := checkSize(data); err != nil {
		return nil, err
	}
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageDecode, err)
	}
	x, y := int(math.Floor(rect.X)), int(math.Floor(rect.Y))
	region := image.Rect(x, y, x+w, y+h)

	dst := imaging.New(w, h, color.Black)
	if visible := region.Intersect(img.Bounds()); !visible.Empty() {
		dst = imaging.Paste(dst, imaging.Crop(img, visible), visible.Min.Sub(region.Min))
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, dst, imaging.JPEG, imaging.JPEGQuality(90)); err != nil {
		return nil, fmt.Errorf("编码裁剪结果失败: %w", err)
	}
	if buf.Len() == 0 {
		return nil, ErrCanvasUnavailable
	}
	return buf.Bytes(), nil
}
