// Package fonts 提供内置字体字节。默认使用 Go 字体家族，
// 画布与栅格渲染器因此不依赖系统字体。
package fonts

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"
)

// Style 对应 layout.FontStyle 的取值，避免 fonts 依赖 layout。
const (
	Regular    = "normal"
	Bold       = "bold"
	Italic     = "italic"
	BoldItalic = "bolditalic"
)

var builtin = map[string][]byte{
	Regular:    goregular.TTF,
	Bold:       gobold.TTF,
	Italic:     goitalic.TTF,
	BoldItalic: gobolditalic.TTF,
}

// Face 返回给定字形的内置 TTF 字节，未知字形回退到常规体。
func Face(style string) []byte {
	if data, ok := builtin[style]; ok {
		return data
	}
	return goregular.TTF
}

// Load 返回字体字节。path 形如 "embed:bold" 时读取内置字体，否则从文件系统读取。
func Load(path string) ([]byte, error) {
	if style, ok := strings.CutPrefix(path, "embed:"); ok {
		data, found := builtin[style]
		if !found {
			return nil, fmt.Errorf("未知内置字体 %s", style)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取字体 %s 失败: %w", path, err)
	}
	return data, nil
}
