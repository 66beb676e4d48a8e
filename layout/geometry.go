package layout

// Geometry 描述页面尺寸、字号与配色。长度单位 mm，字号单位 pt。
type Geometry struct {
	PageWidth  float64 `json:"pageWidth"`
	PageHeight float64 `json:"pageHeight"`
	Margin     float64 `json:"margin"`

	NameSize     float64 `json:"nameSize"`
	TitleSize    float64 `json:"titleSize"`
	SectionSize  float64 `json:"sectionSize"`
	SubtitleSize float64 `json:"subtitleSize"`
	BodySize     float64 `json:"bodySize"`
	PeriodSize   float64 `json:"periodSize"`

	// LineHeightFactor：行高(mm) = 字号(pt) × LineHeightFactor。
	LineHeightFactor float64 `json:"lineHeightFactor"`

	AccentColor Color `json:"accentColor"`
	BodyColor   Color `json:"bodyColor"`
	MutedColor  Color `json:"mutedColor"`
	RuleColor   Color `json:"ruleColor"`

	PhotoSize float64 `json:"photoSize"`
}

// DefaultGeometry 返回 A4 模板的默认几何参数。
func DefaultGeometry() Geometry {
	return Geometry{
		PageWidth:        210,
		PageHeight:       297,
		Margin:           20,
		NameSize:         20,
		TitleSize:        12,
		SectionSize:      12,
		SubtitleSize:     11,
		BodySize:         10,
		PeriodSize:       9,
		LineHeightFactor: 0.4,
		AccentColor:      Color{R: 37, G: 99, B: 235},
		BodyColor:        Color{R: 0, G: 0, B: 0},
		MutedColor:       Color{R: 100, G: 100, B: 100},
		RuleColor:        Color{R: 200, G: 200, B: 200},
		PhotoSize:        30,
	}
}

// ContentWidth 返回左右边距之间的宽度。
func (g Geometry) ContentWidth() float64 { return g.PageWidth - 2*g.Margin }

// ContentBottom 返回正文可用区域的底边。
func (g Geometry) ContentBottom() float64 { return g.PageHeight - g.Margin }

// ContentHeight 返回一页正文可用高度。
func (g Geometry) ContentHeight() float64 { return g.ContentBottom() - g.Margin }

// LineHeight 返回给定字号的行高（mm）。
func (g Geometry) LineHeight(sizePt float64) float64 { return sizePt * g.LineHeightFactor }

// withDefaults 为零值字段补默认值，保证部分覆盖的主题仍可用。
func (g Geometry) withDefaults() Geometry {
	d := DefaultGeometry()
	if g == (Geometry{}) {
		return d
	}
	if g.PageWidth <= 0 {
		g.PageWidth = d.PageWidth
	}
	if g.PageHeight <= 0 {
		g.PageHeight = d.PageHeight
	}
	if g.Margin <= 0 {
		g.Margin = d.Margin
	}
	if g.NameSize <= 0 {
		g.NameSize = d.NameSize
	}
	if g.TitleSize <= 0 {
		g.TitleSize = d.TitleSize
	}
	if g.SectionSize <= 0 {
		g.SectionSize = d.SectionSize
	}
	if g.SubtitleSize <= 0 {
		g.SubtitleSize = d.SubtitleSize
	}
	if g.BodySize <= 0 {
		g.BodySize = d.BodySize
	}
	if g.PeriodSize <= 0 {
		g.PeriodSize = d.PeriodSize
	}
	if g.LineHeightFactor <= 0 {
		g.LineHeightFactor = d.LineHeightFactor
	}
	if g.PhotoSize <= 0 {
		g.PhotoSize = d.PhotoSize
	}
	return g
}
