package layout

import (
	"math"
	"strings"
	"testing"
)

func bodyFace() textFace { return textFace{m: stubMeasurer{}, style: Regular, size: 10} }

func TestWrapTextRespectsLimit(t *testing.T) {
	face := bodyFace()
	text := "The quick brown fox jumps over the lazy dog and keeps running until the page ends somewhere far away."
	for _, limit := range []float64{30, 55.5, 100, 170} {
		lines := wrapText(text, limit, face)
		if len(lines) == 0 {
			t.Fatalf("limit=%g 未产生任何行", limit)
		}
		var words []string
		for _, ln := range lines {
			if ln.width > limit+1e-9 {
				t.Fatalf("limit=%g 行 %q 宽度 %g 超出", limit, ln.content, ln.width)
			}
			words = append(words, strings.Fields(ln.content)...)
		}
		if got := strings.Join(words, " "); got != text {
			t.Fatalf("折行后单词序列被改变: %q", got)
		}
	}
}

func TestWrapTextSplitsLongWords(t *testing.T) {
	face := bodyFace()
	lines := wrapText("https://example.com/a/very/long/path/that/cannot/fit", 20, face)
	if len(lines) < 2 {
		t.Fatalf("超宽单词应被拆分，实际 %d 行", len(lines))
	}
	var joined strings.Builder
	for _, ln := range lines {
		if ln.width > 20+1e-9 {
			t.Fatalf("拆分后的行 %q 仍然超宽", ln.content)
		}
		joined.WriteString(ln.content)
	}
	if joined.String() != "https://example.com/a/very/long/path/that/cannot/fit" {
		t.Fatalf("拆分后字符丢失: %q", joined.String())
	}
}

func TestWrapTextParagraphs(t *testing.T) {
	lines := wrapText("\r\n\nfirst para\r\n\nsecond\n\n", 170, bodyFace())
	got := make([]string, len(lines))
	for i, ln := range lines {
		got[i] = ln.content
	}
	want := []string{"first para", "", "second"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("段落处理不正确: %q", got)
	}
	if wrapText("  \n\t ", 170, bodyFace()) != nil {
		t.Fatalf("空白文本应返回 nil")
	}
}

func TestJustifyDistributesExtraSpace(t *testing.T) {
	face := bodyFace()
	words := justify("alpha beta gamma", 60, face)
	if len(words) != 3 {
		t.Fatalf("期望 3 个单词，实际 %d", len(words))
	}
	last := words[len(words)-1]
	if math.Abs(last.offset+last.width-60) > 1e-9 {
		t.Fatalf("两端对齐后行尾应贴齐 60mm，实际 %g", last.offset+last.width)
	}
	if words[0].offset != 0 {
		t.Fatalf("首词应从行首开始")
	}
}

func TestJustifyFallsBack(t *testing.T) {
	face := bodyFace()
	if justify("single", 100, face) != nil {
		t.Fatalf("单词行不应两端对齐")
	}
	// 单词共宽 18mm（alpha 10 + beta 8），空格 2mm；limit 不足时返回 nil
	if justify("alpha beta", 18, face) != nil {
		t.Fatalf("没有剩余空间时应回退为左对齐")
	}
	// 剩余 1mm，小于一个空格时保持自然间距
	words := justify("alpha beta", 19, face)
	if words == nil || words[1].offset != 12 {
		t.Fatalf("间距不应小于空格宽度: %+v", words)
	}
	// 剩余 3mm 超过空格宽度时按剩余空间分配
	words = justify("alpha beta", 21, face)
	if words == nil || words[1].offset != 13 {
		t.Fatalf("剩余空间应分配到间距: %+v", words)
	}
}

// 当第一行宽度与容器宽度恰好相等且后面紧跟一个显式换行时，不应产生额外的空行。
func TestWrapTextEqualWidthThenNewline(t *testing.T) {
	face := bodyFace()
	first := "SAMPLE-A"
	limit := face.width(first)
	lines := wrapText(first+"\n"+"SAMPLE-B", limit, face)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines without blank, got %d", len(lines))
	}
	if lines[0].content != first || lines[1].content != "SAMPLE-B" {
		t.Fatalf("unexpected lines: %+v", lines)
	}
}
