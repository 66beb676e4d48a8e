package theme

import (
	"embed"
	"fmt"
	"strconv"
	"strings"

	"github.com/ByLCY/vitae/layout"
)

//go:embed builtin/*.theme
var builtinFS embed.FS

// 常见纸张尺寸（mm）。
var papers = map[string][2]float64{
	"a4":     {210, 297},
	"a5":     {148, 210},
	"letter": {215.9, 279.4},
	"legal":  {215.9, 355.6},
}

// Apply 将主题覆盖到 base 上，返回新的几何参数。未出现的设置保持 base 的值。
func (t *Theme) Apply(base layout.Geometry) (layout.Geometry, error) {
	g := base
	for _, st := range t.Statements {
		var err error
		switch {
		case st.Page != nil:
			err = applyPage(&g, st.Page)
		case st.Color != nil:
			err = applyColor(&g, st.Color)
		case st.Size != nil:
			err = applySize(&g, st.Size)
		case st.LineHeight != nil:
			var f float64
			f, err = strconv.ParseFloat(st.LineHeight.Value, 64)
			if err == nil && f <= 0 {
				err = fmt.Errorf("行高系数必须为正数")
			}
			if err != nil {
				err = fmt.Errorf("第 %d 行: line-height %q: %w", st.LineHeight.Pos.Line, st.LineHeight.Value, err)
			}
			g.LineHeightFactor = f
		case st.Photo != nil:
			var l layout.Length
			l, err = layout.ParseLength(st.Photo.Value)
			if err != nil {
				err = fmt.Errorf("第 %d 行: photo: %w", st.Photo.Pos.Line, err)
			}
			g.PhotoSize = l.ToMM()
		}
		if err != nil {
			return base, fmt.Errorf("主题 %s: %w", t.Name, err)
		}
	}
	return g, nil
}

func applyPage(g *layout.Geometry, p *PageStmt) error {
	switch {
	case p.Size.Paper != nil:
		dims, ok := papers[strings.ToLower(*p.Size.Paper)]
		if !ok {
			return fmt.Errorf("第 %d 行: 未知纸张 %q", p.Pos.Line, *p.Size.Paper)
		}
		g.PageWidth, g.PageHeight = dims[0], dims[1]
	case p.Size.Explicit != nil:
		w, err := layout.ParseLength(p.Size.Explicit.Width)
		if err != nil {
			return fmt.Errorf("第 %d 行: 页面宽度: %w", p.Pos.Line, err)
		}
		h, err := layout.ParseLength(p.Size.Explicit.Height)
		if err != nil {
			return fmt.Errorf("第 %d 行: 页面高度: %w", p.Pos.Line, err)
		}
		if w.IsZero() || h.IsZero() {
			return fmt.Errorf("第 %d 行: 页面尺寸不能为 0", p.Pos.Line)
		}
		g.PageWidth, g.PageHeight = w.ToMM(), h.ToMM()
	}
	if p.Margin != nil {
		m, err := layout.ParseLength(*p.Margin)
		if err != nil {
			return fmt.Errorf("第 %d 行: 边距: %w", p.Pos.Line, err)
		}
		g.Margin = m.ToMM()
	}
	if 2*g.Margin >= g.PageWidth || 2*g.Margin >= g.PageHeight {
		return fmt.Errorf("第 %d 行: 边距 %gmm 超出页面", p.Pos.Line, g.Margin)
	}
	return nil
}

func applyColor(g *layout.Geometry, c *ColorStmt) error {
	col, err := ParseColor(c.Value)
	if err != nil {
		return fmt.Errorf("第 %d 行: %w", c.Pos.Line, err)
	}
	switch c.Key {
	case "accent":
		g.AccentColor = col
	case "body":
		g.BodyColor = col
	case "muted":
		g.MutedColor = col
	case "rule":
		g.RuleColor = col
	default:
		return fmt.Errorf("第 %d 行: 未知颜色 %q", c.Pos.Line, c.Key)
	}
	return nil
}

func applySize(g *layout.Geometry, s *SizeStmt) error {
	l, err := layout.ParseLength(s.Value)
	if err != nil {
		return fmt.Errorf("第 %d 行: %w", s.Pos.Line, err)
	}
	if l.IsZero() {
		return fmt.Errorf("第 %d 行: 字号不能为 0", s.Pos.Line)
	}
	pt := l.ToPT()
	switch s.Key {
	case "name":
		g.NameSize = pt
	case "title":
		g.TitleSize = pt
	case "section":
		g.SectionSize = pt
	case "subtitle":
		g.SubtitleSize = pt
	case "body":
		g.BodySize = pt
	case "period":
		g.PeriodSize = pt
	default:
		return fmt.Errorf("第 %d 行: 未知字号 %q", s.Pos.Line, s.Key)
	}
	return nil
}

// ParseColor 解析 #RGB、#RRGGBB 或 #RRGGBBAA（忽略透明度）。
func ParseColor(s string) (layout.Color, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	switch len(hex) {
	case 3:
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	case 6:
	case 8:
		hex = hex[:6]
	default:
		return layout.Color{}, fmt.Errorf("无效颜色 %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return layout.Color{}, fmt.Errorf("无效颜色 %q: %w", s, err)
	}
	return layout.Color{R: int(v >> 16 & 0xff), G: int(v >> 8 & 0xff), B: int(v & 0xff)}, nil
}

// Builtin 返回内置主题（classic、compact）。
func Builtin(name string) (*Theme, error) {
	data, err := builtinFS.ReadFile("builtin/" + name + ".theme")
	if err != nil {
		return nil, fmt.Errorf("未知内置主题 %q", name)
	}
	file, err := ParseString(string(data))
	if err != nil {
		return nil, fmt.Errorf("解析内置主题 %s 失败: %w", name, err)
	}
	return file.Lookup(name)
}

// Resolve 根据引用得到页面几何：ref 为空时返回默认几何；
// "builtin:<name>" 使用内置主题；其余视为文件路径，可写作 "path#name" 指定主题名。
func Resolve(ref string) (layout.Geometry, error) {
	base := layout.DefaultGeometry()
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return base, nil
	}
	var t *Theme
	if name, ok := strings.CutPrefix(ref, "builtin:"); ok {
		var err error
		if t, err = Builtin(name); err != nil {
			return base, err
		}
	} else {
		path, name, _ := strings.Cut(ref, "#")
		file, err := ParseFile(path)
		if err != nil {
			return base, err
		}
		if t, err = file.Lookup(name); err != nil {
			return base, err
		}
	}
	return t.Apply(base)
}
