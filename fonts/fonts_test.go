package fonts

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestFaceFallsBackToRegular(t *testing.T) {
	if !bytes.Equal(Face("weird"), Face(Regular)) {
		t.Fatalf("未知字形应回退到常规体")
	}
	if bytes.Equal(Face(Bold), Face(Regular)) {
		t.Fatalf("粗体不应与常规体相同")
	}
}

func TestLoad(t *testing.T) {
	data, err := Load("embed:italic")
	if err != nil || !bytes.Equal(data, Face(Italic)) {
		t.Fatalf("读取内置字体失败: %v", err)
	}
	if _, err := Load("embed:heavy"); err == nil {
		t.Fatalf("未知内置字体应报错")
	}
	path := filepath.Join(t.TempDir(), "x.ttf")
	if err := os.WriteFile(path, []byte("ttf"), 0o644); err != nil {
		t.Fatal(err)
	}
	if data, err := Load(path); err != nil || string(data) != "ttf" {
		t.Fatalf("读取文件字体失败: %v", err)
	}
}
