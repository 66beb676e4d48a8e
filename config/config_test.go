package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/ByLCY/vitae/layout"
)

func TestDefault(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Render.Backend != "fpdf" || cfg.Server.Addr != ":5000" || cfg.Photo.Timeout.Duration != 10*time.Second {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vitae.toml")
	src := `
[render]
backend = "canvas"
filename = "${fullName}-CV"

[photo]
timeout = "2500ms"
max_bytes = 1024

[server]
preview_ttl = "5m"

[log]
level = "DEBUG"
`
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Render.Backend != "canvas" || cfg.Render.FileName != "${fullName}-CV" {
		t.Fatalf("render section not applied: %+v", cfg.Render)
	}
	if cfg.Render.Theme != "builtin:classic" || cfg.Server.StaticDir != "dist" {
		t.Fatalf("unset keys should keep defaults: %+v", cfg)
	}
	if cfg.Photo.Timeout.Duration != 2500*time.Millisecond || cfg.Photo.MaxBytes != 1024 {
		t.Fatalf("photo section not applied: %+v", cfg.Photo)
	}
	if cfg.Server.PreviewTTL.Duration != 5*time.Minute || cfg.Server.Addr != ":5000" {
		t.Fatalf("server section not applied: %+v", cfg.Server)
	}
	level, err := cfg.Log.ParseLevel()
	if err != nil || level != log.DebugLevel {
		t.Fatalf("ParseLevel = %v, %v", level, err)
	}
	opts := cfg.Photo.ResolveOptions("/tmp")
	if opts.Timeout != 2500*time.Millisecond || opts.MaxBytes != 1024 || opts.BaseDir != "/tmp" || !opts.AllowFiles {
		t.Fatalf("unexpected resolve options: %+v", opts)
	}
}

func TestParseErrors(t *testing.T) {
	cases := map[string]string{
		"[render]\nbackend = \"svg\"":           "render.backend",
		"[render]\nbackned = \"fpdf\"":          "backned",
		"[render]\nfilename = \"${fullname}\"": "fullname",
		"[photo]\ntimeout = \"soon\"":           "soon",
		"[photo]\nmax_bytes = -1":               "max_bytes",
		"[server]\npreview_ttl = \"-1m\"":       "server.preview_ttl",
		"[log]\nlevel = \"loud\"":               "log.level",
		"[render\n":                             "解析配置失败",
	}
	for src, want := range cases {
		cfg := Default()
		err := Parse(src, &cfg)
		if err == nil || !strings.Contains(err.Error(), want) {
			t.Fatalf("Parse(%q) = %v, want error containing %q", src, err, want)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestRenderFonts(t *testing.T) {
	cfg := Default()
	if err := Parse("[render.fonts]\nbold = \"embed:bolditalic\"\n", &cfg); err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	faces, err := cfg.Render.LoadFonts()
	if err != nil {
		t.Fatalf("LoadFonts error: %v", err)
	}
	if len(faces) != 1 || len(faces[layout.Bold]) == 0 {
		t.Fatalf("expected a bold override, got %d faces", len(faces))
	}

	cfg = Default()
	if err := Parse("[render.fonts]\nheavy = \"embed:bold\"\n", &cfg); err == nil || !strings.Contains(err.Error(), "heavy") {
		t.Fatalf("expected unknown style error, got %v", err)
	}
	cfg = Default()
	cfg.Render.Fonts = map[string]string{"normal": filepath.Join(t.TempDir(), "missing.ttf")}
	if _, err := cfg.Render.LoadFonts(); err == nil {
		t.Fatalf("expected error for missing font file")
	}
}
