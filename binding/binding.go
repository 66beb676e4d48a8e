// Package binding 实现 ${key} 形式的模板插值，用于文件名等短文本模板。
package binding

import (
	"fmt"
	"regexp"
	"strings"
)

var exprPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Interpolate 将文本中的 ${key} 替换为 data 中的值。键是扁平的字段名，
// 文件名模板只引用 Record 的标量字段，不支持嵌套路径或下标。
// 支持 ${key|fallback}：键不存在或值为空字符串时使用 fallback。
// 若键不存在且没有 fallback，则保留原占位符。
func Interpolate(text string, data map[string]any) string {
	return exprPattern.ReplaceAllStringFunc(text, func(match string) string {
		groups := exprPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		key, fallback, hasFallback := strings.Cut(groups[1], "|")
		key = strings.TrimSpace(key)
		if key == "" {
			return match
		}
		if val, ok := data[key]; ok && val != nil {
			if s := fmt.Sprint(val); s != "" || !hasFallback {
				return s
			}
		}
		if hasFallback {
			return strings.TrimSpace(fallback)
		}
		return match
	})
}

// Paths 返回模板中引用的全部键（去重，按出现顺序）。
func Paths(text string) []string {
	var out []string
	seen := map[string]bool{}
	for _, groups := range exprPattern.FindAllStringSubmatch(text, -1) {
		key, _, _ := strings.Cut(groups[1], "|")
		key = strings.TrimSpace(key)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, key)
	}
	return out
}
