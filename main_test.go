package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	pdfreader "github.com/ledongthuc/pdf"
)

func writeRecord(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "resume.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestRenderCommand(t *testing.T) {
	dir := t.TempDir()
	in := writeRecord(t, dir, `{"fullName":"Jane Doe","title":"SRE","skills":"Go"}`)
	out := filepath.Join(dir, "out", "cv.pdf")
	debug := filepath.Join(dir, "out", "layout.json")

	if _, stderr, err := execute(t, "render", in, "-o", out, "--debug", debug); err != nil {
		t.Fatalf("render error: %v\n%s", err, stderr)
	}
	f, r, err := pdfreader.Open(out)
	if err != nil {
		t.Fatalf("open PDF: %v", err)
	}
	defer f.Close()
	if r.NumPage() != 1 {
		t.Fatalf("expected 1 page, got %d", r.NumPage())
	}
	data, err := os.ReadFile(debug)
	if err != nil {
		t.Fatalf("debug JSON missing: %v", err)
	}
	if !json.Valid(data) {
		t.Fatalf("debug output is not JSON")
	}
}

func TestRenderCommandUsesConfig(t *testing.T) {
	dir := t.TempDir()
	in := writeRecord(t, dir, `{"fullName":"Jane Doe","title":"SRE"}`)
	cfgPath := filepath.Join(dir, "vitae.toml")
	cfg := "[render]\nbackend = \"canvas\"\ntheme = \"builtin:compact\"\n"
	if err := os.WriteFile(cfgPath, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}

	stdout, stderr, err := execute(t, "layout", in, "--config", cfgPath)
	if err != nil {
		t.Fatalf("layout error: %v\n%s", err, stderr)
	}
	var res struct {
		Pages []struct {
			Width  float64 `json:"width"`
			Height float64 `json:"height"`
		} `json:"pages"`
	}
	if err := json.Unmarshal([]byte(stdout), &res); err != nil {
		t.Fatalf("layout output is not JSON: %v", err)
	}
	// compact 主题使用 Letter 纸张
	if len(res.Pages) != 1 || res.Pages[0].Width < 215 || res.Pages[0].Width > 216 {
		t.Fatalf("theme from config not applied: %+v", res.Pages)
	}

	// 命令行参数优先于配置文件
	stdout, _, err = execute(t, "layout", in, "--config", cfgPath, "--theme", "builtin:classic")
	if err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal([]byte(stdout), &res); err != nil {
		t.Fatal(err)
	}
	if res.Pages[0].Width != 210 {
		t.Fatalf("flag should override config theme, width = %v", res.Pages[0].Width)
	}
}

func TestPageCommand(t *testing.T) {
	dir := t.TempDir()
	in := writeRecord(t, dir, `{"fullName":"Jane Doe"}`)
	out := filepath.Join(dir, "p1.png")
	if _, stderr, err := execute(t, "page", in, "--dpi", "20", "-o", out); err != nil {
		t.Fatalf("page error: %v\n%s", err, stderr)
	}
	data, err := os.ReadFile(out)
	if err != nil || !bytes.HasPrefix(data, []byte("\x89PNG")) {
		t.Fatalf("PNG not written: %v", err)
	}
	if _, _, err := execute(t, "page", in, "--page", "3", "-o", out); err == nil {
		t.Fatalf("expected error for missing page")
	}
}

func TestCommandErrors(t *testing.T) {
	dir := t.TempDir()
	in := writeRecord(t, dir, `{"fullName":"Jane Doe"}`)
	bad := filepath.Join(dir, "bad.toml")
	if err := os.WriteFile(bad, []byte("[render]\nbackend = \"svg\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cases := [][]string{
		{"render", filepath.Join(dir, "missing.json")},
		{"render", in, "--backend", "svg"},
		{"render", in, "--theme", "builtin:nope"},
		{"render", in, "--config", bad},
		{"layout"},
	}
	for _, args := range cases {
		if _, _, err := execute(t, args...); err == nil {
			t.Fatalf("%s: expected error", strings.Join(args, " "))
		}
	}
}

func TestVerboseEnablesDebugLogging(t *testing.T) {
	dir := t.TempDir()
	in := writeRecord(t, dir, `{"fullName":"Jane Doe","photo":"data:image/png;base64,AAAA"}`)
	_, stderr, err := execute(t, "layout", in, "-v")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stderr, "头像") {
		t.Fatalf("expected photo warning in log output, got %q", stderr)
	}
}

func TestLoggerFromContextDefault(t *testing.T) {
	if loggerFromContext(context.Background()) != log.Default() {
		t.Fatalf("expected default logger")
	}
	l := newLogger(&bytes.Buffer{}, log.DebugLevel)
	if loggerFromContext(withLogger(context.Background(), l)) != l {
		t.Fatalf("expected logger from context")
	}
	if cfg := configFromContext(context.Background()); cfg.Render.Backend != "fpdf" {
		t.Fatalf("expected default config, got %+v", cfg.Render)
	}
}
