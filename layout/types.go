package layout

// 该文件定义布局结果与绘制指令，供布局计算、渲染与调试 JSON 共用。

// Result 保存布局后的页面与文档元信息。
type Result struct {
	Pages []Page       `json:"pages"`
	Meta  DocumentMeta `json:"meta"`
}

// Color 采用 0-255 的 RGB 数值。
type Color struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

// FontStyle 描述字重与字形。
type FontStyle string

const (
	Regular    FontStyle = "normal"
	Bold       FontStyle = "bold"
	Italic     FontStyle = "italic"
	BoldItalic FontStyle = "bolditalic"
)

// IsBold reports whether the style has a bold weight.
func (s FontStyle) IsBold() bool { return s == Bold || s == BoldItalic }

// IsItalic reports whether the style is slanted.
func (s FontStyle) IsItalic() bool { return s == Italic || s == BoldItalic }

// Page 记录页面尺寸、边距与按绘制顺序排列的指令。坐标单位为 mm，原点在左上角。
type Page struct {
	Width    float64       `json:"width"`
	Height   float64       `json:"height"`
	Margin   float64       `json:"margin"`
	Commands []DrawCommand `json:"commands"`
}

// CommandKind 区分绘制指令类型。
type CommandKind string

const (
	KindText  CommandKind = "text"
	KindLine  CommandKind = "line"
	KindImage CommandKind = "image"
)

// DrawCommand 是一条原子绘制指令，仅与 Kind 对应的字段非空。
type DrawCommand struct {
	Kind  CommandKind `json:"kind"`
	Text  *TextRun    `json:"text,omitempty"`
	Line  *Line       `json:"line,omitempty"`
	Image *ImageBox   `json:"image,omitempty"`
}

// TextRun 表示一段已定位的单行文本。Y 为基线位置（mm），FontSize 为 pt。
type TextRun struct {
	Content  string    `json:"content"`
	X        float64   `json:"x"`
	Y        float64   `json:"y"`
	Width    float64   `json:"width"`
	FontSize float64   `json:"fontSize"`
	Style    FontStyle `json:"style"`
	Color    Color     `json:"color"`
}

// Line 表示一条线段（单位 mm）。
type Line struct {
	X1    float64 `json:"x1"`
	Y1    float64 `json:"y1"`
	X2    float64 `json:"x2"`
	Y2    float64 `json:"y2"`
	Color Color   `json:"color"`
	Width float64 `json:"width"` // 线宽（mm），<=0 时由渲染器给默认值
}

// ImageBox 描述嵌入图片的位置、尺寸与原始字节。Y 为图片顶边。
type ImageBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Format string  `json:"format"` // "PNG" 或 "JPEG"
	Data   []byte  `json:"-"`
}

// DocumentMeta 保存 PDF 元信息与建议的下载文件名。
type DocumentMeta struct {
	Title    string   `json:"title"`
	Author   string   `json:"author"`
	Subject  string   `json:"subject"`
	Creator  string   `json:"creator"`
	Keywords []string `json:"keywords"`
	FileName string   `json:"fileName"`
}

// Texts 返回页面上的全部文本，保持绘制顺序。
func (p Page) Texts() []TextRun {
	var out []TextRun
	for _, c := range p.Commands {
		if c.Kind == KindText && c.Text != nil {
			out = append(out, *c.Text)
		}
	}
	return out
}

// Lines 返回页面上的全部线段。
func (p Page) Lines() []Line {
	var out []Line
	for _, c := range p.Commands {
		if c.Kind == KindLine && c.Line != nil {
			out = append(out, *c.Line)
		}
	}
	return out
}

// Images 返回页面上的全部图片。
func (p Page) Images() []ImageBox {
	var out []ImageBox
	for _, c := range p.Commands {
		if c.Kind == KindImage && c.Image != nil {
			out = append(out, *c.Image)
		}
	}
	return out
}
