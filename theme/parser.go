// Package theme 解析主题 DSL，并把主题中的页面、配色与字号覆盖到 layout.Geometry 上。
//
// 示例：
//
//	theme classic {
//	  page A4 margin 20mm
//	  color accent #2563EB
//	  size body 10pt
//	  line-height 0.4
//	  photo 30mm
//	}
package theme

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var (
	themeLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Whitespace", Pattern: `[ \t\r]+`},
		{Name: "Newline", Pattern: `\n+`},
		{Name: "BlockComment", Pattern: `/\*[^*]*\*+(?:[^/*][^*]*\*+)*/`},
		{Name: "LineComment", Pattern: `//[^\n]*`},
		{Name: "Color", Pattern: `#(?:[0-9A-Fa-f]{8}|[0-9A-Fa-f]{6}|[0-9A-Fa-f]{3})\b`},
		{Name: "HashComment", Pattern: `#[^\n]*`},
		{Name: "Number", Pattern: `(?:\d+\.\d+|\d+)(?:pt|mm|cm|in)?`},
		{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_-]*`},
		{Name: "Symbol", Pattern: `[;]`},
		{Name: "LBrace", Pattern: `{`},
		{Name: "RBrace", Pattern: `}`},
	})

	fileParser = participle.MustBuild[File](
		participle.Lexer(themeLexer),
		participle.Elide("Whitespace", "LineComment", "BlockComment", "HashComment"),
	)
)

// File 是主题文件的根节点，可以包含多个主题。
type File struct {
	Themes []*Theme `parser:"Newline* ( @@ Newline* )*"`
}

// Theme 是一个具名主题。
type Theme struct {
	Pos        lexer.Position `parser:"" json:"-"`
	Name       string         `parser:"'theme' @Ident"`
	Statements []*Statement   `parser:"'{' Newline* ( @@ ( ';' | Newline )* )* '}'"`
}

// Statement 是主题块中的一条设置。
type Statement struct {
	Page       *PageStmt       `parser:"  @@"`
	Color      *ColorStmt      `parser:"| @@"`
	Size       *SizeStmt       `parser:"| @@"`
	LineHeight *LineHeightStmt `parser:"| @@"`
	Photo      *PhotoStmt      `parser:"| @@"`
}

// PageStmt 设置纸张与边距：`page A4 margin 20mm` 或 `page 210mm 297mm`。
type PageStmt struct {
	Pos    lexer.Position `parser:"" json:"-"`
	Size   *PageSize      `parser:"'page' @@"`
	Margin *string        `parser:"( 'margin' @Number )?"`
}

// PageSize 为纸张名称或显式宽高。
type PageSize struct {
	Paper    *string     `parser:"  @Ident"`
	Explicit *Dimensions `parser:"| @@"`
}

// Dimensions 为显式的页面宽高。
type Dimensions struct {
	Width  string `parser:"@Number"`
	Height string `parser:"@Number"`
}

// ColorStmt 覆盖一种命名颜色（accent/body/muted/rule）。
type ColorStmt struct {
	Pos   lexer.Position `parser:"" json:"-"`
	Key   string         `parser:"'color' @Ident"`
	Value string         `parser:"@Color"`
}

// SizeStmt 覆盖一种字号（name/title/section/subtitle/body/period）。
type SizeStmt struct {
	Pos   lexer.Position `parser:"" json:"-"`
	Key   string         `parser:"'size' @Ident"`
	Value string         `parser:"@Number"`
}

// LineHeightStmt 设置行高系数：行高(mm) = 字号(pt) × 系数。
type LineHeightStmt struct {
	Pos   lexer.Position `parser:"" json:"-"`
	Value string         `parser:"'line-height' @Number"`
}

// PhotoStmt 设置头像边长。
type PhotoStmt struct {
	Pos   lexer.Position `parser:"" json:"-"`
	Value string         `parser:"'photo' @Number"`
}

// Parse parses theme source from an io.Reader.
func Parse(r io.Reader) (*File, error) {
	return fileParser.Parse("", r)
}

// ParseString parses theme source from a string.
func ParseString(input string) (*File, error) {
	return fileParser.ParseString("", input)
}

// ParseFile 读取并解析主题文件。
func ParseFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("打开主题文件失败: %w", err)
	}
	defer f.Close()
	file, err := fileParser.Parse(path, f)
	if err != nil {
		return nil, fmt.Errorf("解析主题文件 %s 失败: %w", path, err)
	}
	return file, nil
}

// Lookup 按名称查找主题；name 为空时返回第一个主题。
func (f *File) Lookup(name string) (*Theme, error) {
	if f == nil || len(f.Themes) == 0 {
		return nil, fmt.Errorf("主题文件中没有任何主题")
	}
	if name == "" {
		return f.Themes[0], nil
	}
	for _, t := range f.Themes {
		if t.Name == name {
			return t, nil
		}
	}
	return nil, fmt.Errorf("未找到主题 %q", name)
}
