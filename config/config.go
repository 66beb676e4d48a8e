// Package config 读取 vitae 的 TOML 配置文件。未出现的字段保持代码中的默认值。
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	"github.com/ByLCY/vitae/fonts"
	"github.com/ByLCY/vitae/layout"
	"github.com/ByLCY/vitae/photo"
	"github.com/ByLCY/vitae/preview"
	"github.com/ByLCY/vitae/record"
)

// Config 是完整的配置。
type Config struct {
	Render RenderConfig `toml:"render"`
	Photo  PhotoConfig  `toml:"photo"`
	Server ServerConfig `toml:"server"`
	Log    LogConfig    `toml:"log"`
}

// RenderConfig 控制 PDF 生成。
type RenderConfig struct {
	Backend  string `toml:"backend"`  // fpdf | canvas
	Theme    string `toml:"theme"`    // builtin:<name> 或 <path>#<name>
	FileName string `toml:"filename"` // 文件名模板，如 "${fullName}_Resume"
	// Fonts 为 canvas 后端替换字体，键为 normal/bold/italic/bolditalic，
	// 值为文件路径或 "embed:<style>"。
	Fonts map[string]string `toml:"fonts"`
}

// PhotoConfig 控制头像获取。
type PhotoConfig struct {
	Timeout    Duration `toml:"timeout"`
	MaxBytes   int64    `toml:"max_bytes"`
	AllowFiles bool     `toml:"allow_files"`
}

// ServerConfig 控制 HTTP 服务。
type ServerConfig struct {
	Addr      string `toml:"addr"`
	StaticDir string `toml:"static_dir"`
	// PreviewTTL 是预览会话的空闲时长，超过后会话与文档被释放。
	PreviewTTL Duration `toml:"preview_ttl"`
}

// LogConfig 控制日志。
type LogConfig struct {
	Level string `toml:"level"`
}

// Duration 允许在 TOML 中写 "10s" 这样的字符串。
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return fmt.Errorf("无效的时长 %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default 返回默认配置。
func Default() Config {
	return Config{
		Render: RenderConfig{Backend: "fpdf", Theme: "builtin:classic"},
		Photo: PhotoConfig{
			Timeout:    Duration{photo.DefaultTimeout},
			MaxBytes:   photo.DefaultMaxBytes,
			AllowFiles: true,
		},
		Server: ServerConfig{
			Addr:       ":5000",
			StaticDir:  "dist",
			PreviewTTL: Duration{preview.DefaultSessionTTL},
		},
		Log:    LogConfig{Level: "info"},
	}
}

// Load 读取 path 指向的配置文件；path 为空时返回默认配置。
// 未知的键视为错误，以免拼写错误被静默忽略。
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("读取配置文件失败: %w", err)
	}
	if err := Parse(string(data), &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse 把 TOML 文本叠加到 cfg 上。
func Parse(text string, cfg *Config) error {
	meta, err := toml.Decode(text, cfg)
	if err != nil {
		return fmt.Errorf("解析配置失败: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("未知的配置项: %s", strings.Join(keys, ", "))
	}
	return cfg.Validate()
}

// Validate 检查取值范围。
func (c Config) Validate() error {
	switch strings.ToLower(c.Render.Backend) {
	case "", "fpdf", "canvas":
	default:
		return fmt.Errorf("render.backend 不支持 %q", c.Render.Backend)
	}
	for style := range c.Render.Fonts {
		switch style {
		case fonts.Regular, fonts.Bold, fonts.Italic, fonts.BoldItalic:
		default:
			return fmt.Errorf("render.fonts: 未知字形 %q", style)
		}
	}
	if err := record.ValidateFileNameTemplate(c.Render.FileName); err != nil {
		return fmt.Errorf("render.filename: %w", err)
	}
	if c.Photo.Timeout.Duration < 0 {
		return fmt.Errorf("photo.timeout 不能为负数")
	}
	if c.Server.PreviewTTL.Duration < 0 {
		return fmt.Errorf("server.preview_ttl 不能为负数")
	}
	if c.Photo.MaxBytes < 0 {
		return fmt.Errorf("photo.max_bytes 不能为负数")
	}
	if _, err := c.Log.ParseLevel(); err != nil {
		return err
	}
	return nil
}

// ParseLevel 返回日志级别，空字符串视为 info。
func (l LogConfig) ParseLevel() (log.Level, error) {
	if strings.TrimSpace(l.Level) == "" {
		return log.InfoLevel, nil
	}
	level, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(l.Level)))
	if err != nil {
		return log.InfoLevel, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}

// ResolveOptions 转换为头像解析参数。
func (p PhotoConfig) ResolveOptions(baseDir string) photo.ResolveOptions {
	return photo.ResolveOptions{
		Timeout:    p.Timeout.Duration,
		MaxBytes:   p.MaxBytes,
		BaseDir:    baseDir,
		AllowFiles: p.AllowFiles,
	}
}

// LoadFonts 读取 Fonts 中配置的字体文件。
func (r RenderConfig) LoadFonts() (map[layout.FontStyle][]byte, error) {
	if len(r.Fonts) == 0 {
		return nil, nil
	}
	out := make(map[layout.FontStyle][]byte, len(r.Fonts))
	for style, path := range r.Fonts {
		data, err := fonts.Load(path)
		if err != nil {
			return nil, fmt.Errorf("render.fonts.%s: %w", style, err)
		}
		out[layout.FontStyle(style)] = data
	}
	return out, nil
}
