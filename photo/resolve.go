package photo

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// 默认的远程获取限制。
const (
	DefaultTimeout  = 10 * time.Second
	DefaultMaxBytes = 5 << 20
)

// ResolveOptions 控制头像引用的解析。
type ResolveOptions struct {
	// Client 为空时使用带 Timeout 的默认客户端。
	Client   *http.Client
	Timeout  time.Duration
	MaxBytes int64
	// BaseDir 用于解析相对文件路径。
	BaseDir string
	// AllowFiles 为 false 时拒绝文件路径（HTTP 服务不应读取本地文件）。
	AllowFiles bool
}

func (o ResolveOptions) withDefaults() ResolveOptions {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.MaxBytes <= 0 {
		o.MaxBytes = DefaultMaxBytes
	}
	if o.Client == nil {
		o.Client = &http.Client{Timeout: o.Timeout}
	}
	return o
}

// Resolve 读取头像引用指向的原始字节。支持 data URI、http(s) 地址与文件路径。
func Resolve(ctx context.Context, ref string, opts ResolveOptions) (Source, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return Source{}, fmt.Errorf("头像引用为空")
	}
	opts = opts.withDefaults()
	switch {
	case strings.HasPrefix(ref, "data:"):
		return decodeDataURI(ref)
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		return fetch(ctx, ref, opts)
	case opts.AllowFiles:
		return readFile(ref, opts)
	default:
		return Source{}, fmt.Errorf("不支持的头像引用: %.32q", ref)
	}
}

// decodeDataURI 解析 data:[<mime>][;base64],<payload>。
func decodeDataURI(ref string) (Source, error) {
	header, payload, ok := strings.Cut(strings.TrimPrefix(ref, "data:"), ",")
	if !ok {
		return Source{}, fmt.Errorf("data URI 缺少数据部分")
	}
	params := strings.Split(header, ";")
	mediaType := strings.TrimSpace(params[0])
	isBase64 := false
	for _, p := range params[1:] {
		if strings.EqualFold(strings.TrimSpace(p), "base64") {
			isBase64 = true
		}
	}
	if !isBase64 {
		raw, err := url.PathUnescape(payload)
		if err != nil {
			return Source{}, fmt.Errorf("解析 data URI 失败: %w", err)
		}
		return Source{Data: []byte(raw), MIME: mediaType}, nil
	}
	payload = strings.TrimSpace(payload)
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		// 兼容省略填充的写法
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		if err != nil {
			return Source{}, fmt.Errorf("解析 data URI 失败: %w", err)
		}
	}
	return Source{Data: data, MIME: mediaType}, nil
}

// EncodeDataURI 将字节编码为 base64 data URI。
func EncodeDataURI(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func fetch(ctx context.Context, ref string, opts ResolveOptions) (Source, error) {
	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return Source{}, fmt.Errorf("构造头像请求失败: %w", err)
	}
	resp, err := opts.Client.Do(req)
	if err != nil {
		return Source{}, fmt.Errorf("获取头像失败: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Source{}, fmt.Errorf("获取头像失败: HTTP %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, opts.MaxBytes+1))
	if err != nil {
		return Source{}, fmt.Errorf("读取头像失败: %w", err)
	}
	if int64(len(data)) > opts.MaxBytes {
		return Source{}, fmt.Errorf("头像超过 %d 字节上限", opts.MaxBytes)
	}
	mediaType := ""
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		if mt, _, err := mime.ParseMediaType(ct); err == nil {
			mediaType = mt
		}
	}
	if mediaType == "" || mediaType == "application/octet-stream" {
		mediaType = http.DetectContentType(data)
	}
	return Source{Data: data, MIME: mediaType}, nil
}

func readFile(ref string, opts ResolveOptions) (Source, error) {
	path := strings.TrimPrefix(ref, "file://")
	if !filepath.IsAbs(path) && opts.BaseDir != "" {
		path = filepath.Join(opts.BaseDir, path)
	}
	info, err := os.Stat(path)
	if err != nil {
		return Source{}, fmt.Errorf("读取头像失败: %w", err)
	}
	if info.Size() > opts.MaxBytes {
		return Source{}, fmt.Errorf("头像超过 %d 字节上限", opts.MaxBytes)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Source{}, fmt.Errorf("读取头像失败: %w", err)
	}
	mediaType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if mediaType == "" {
		mediaType = http.DetectContentType(data)
	}
	return Source{Data: data, MIME: mediaType}, nil
}
