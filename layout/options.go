package layout

import "github.com/charmbracelet/log"

// BuildOptions 配置布局阶段所需的依赖，例如测量后端与页面几何。
type BuildOptions struct {
	Measurer Measurer
	// Geometry 为零值时使用 DefaultGeometry。
	Geometry Geometry
	// Photo 由调用方预先解析；为 nil 时跳过头像。
	Photo *Photo
	// Logger 可选，用于记录被降级处理的内容。
	Logger *log.Logger
	// FileNameTemplate 为空时使用 record.DefaultFileNameTemplate。
	FileNameTemplate string
}

// Measurer 负责测量文本宽度。text 为单行文本，sizePt 为字号（pt），返回值单位为 mm。
type Measurer interface {
	TextWidth(text string, style FontStyle, sizePt float64) float64
}

// Photo 是已解码、可直接嵌入的头像。Format 取值 "PNG" 或 "JPEG"。
type Photo struct {
	Data   []byte
	Format string
	Width  int
	Height int
}
