package layout

import (
	"strings"
	"unicode"
)

// wrappedLine 是折行后的一行。
type wrappedLine struct {
	content string
	width   float64
}

// textFace 把测量后端与当前字体绑定在一起，减少参数传递。
type textFace struct {
	m     Measurer
	style FontStyle
	size  float64
}

func (f textFace) width(s string) float64 {
	if s == "" {
		return 0
	}
	return f.m.TextWidth(s, f.style, f.size)
}

// wrapText 使用贪心算法折行：在空白处断开，单词超宽时按字符拆分。
// 每行宽度不超过 limit（至少保留一个字符）。空文本返回 nil。
func wrapText(content string, limit float64, face textFace) []wrappedLine {
	content = strings.ReplaceAll(content, "\r", "")
	if strings.TrimSpace(content) == "" {
		return nil
	}
	var lines []wrappedLine
	for _, paragraph := range strings.Split(content, "\n") {
		words := strings.Fields(paragraph)
		if len(words) == 0 {
			lines = append(lines, wrappedLine{})
			continue
		}
		var current []string
		emit := func() {
			if len(current) == 0 {
				return
			}
			line := strings.Join(current, " ")
			lines = append(lines, wrappedLine{content: line, width: face.width(line)})
			current = current[:0]
		}
		for _, word := range words {
			if face.width(word) > limit {
				emit()
				chunks := splitTokenByWidth(word, limit, face)
				for _, chunk := range chunks[:len(chunks)-1] {
					lines = append(lines, wrappedLine{content: chunk, width: face.width(chunk)})
				}
				current = append(current, chunks[len(chunks)-1])
				continue
			}
			candidate := strings.Join(append(current[:len(current):len(current)], word), " ")
			if len(current) > 0 && face.width(candidate) > limit {
				emit()
			}
			current = append(current, word)
		}
		emit()
	}
	// 去掉首尾的空行，保留段落之间的空行。
	for len(lines) > 0 && lines[0].content == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && lines[len(lines)-1].content == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// splitTokenByWidth 将超宽单词按字符切块，每块宽度不超过 limit（单字符除外）。
func splitTokenByWidth(token string, limit float64, face textFace) []string {
	var parts []string
	var builder strings.Builder
	for _, r := range token {
		if builder.Len() > 0 && face.width(builder.String()+string(r)) > limit {
			parts = append(parts, builder.String())
			builder.Reset()
		}
		builder.WriteRune(r)
	}
	if builder.Len() > 0 {
		parts = append(parts, builder.String())
	}
	return parts
}

// justifiedWord 是两端对齐后一个单词的起始偏移（相对行首）。
type justifiedWord struct {
	content string
	offset  float64
	width   float64
}

// justify 计算两端对齐时各单词的位置。
// 返回 nil 表示按自然间距左对齐绘制：单词少于两个，或剩余空间不为正。
// 间距不会小于一个空格的自然宽度。
func justify(line string, limit float64, face textFace) []justifiedWord {
	words := strings.FieldsFunc(line, unicode.IsSpace)
	if len(words) < 2 {
		return nil
	}
	widths := make([]float64, len(words))
	wordsWidth := 0.0
	for i, w := range words {
		widths[i] = face.width(w)
		wordsWidth += widths[i]
	}
	extra := (limit - wordsWidth) / float64(len(words)-1)
	if extra <= 0 {
		return nil
	}
	gap := extra
	if space := face.width(" "); gap < space {
		gap = space
	}
	out := make([]justifiedWord, len(words))
	cursor := 0.0
	for i, w := range words {
		out[i] = justifiedWord{content: w, offset: cursor, width: widths[i]}
		cursor += widths[i] + gap
	}
	return out
}
