package record

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/ByLCY/vitae/binding"
)

// DefaultFileName 在缺少姓名时使用。
const DefaultFileName = "Resume"

// DefaultFileNameTemplate 对应 "{fullName}_Resume"。
const DefaultFileNameTemplate = "${fullName}_Resume"

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Decode 从 JSON 读取 Record，未知字段（例如 maritalStatus）会被忽略。
func Decode(r io.Reader) (Record, error) {
	var rec Record
	if err := json.NewDecoder(r).Decode(&rec); err != nil {
		return Record{}, fmt.Errorf("解析简历 JSON 失败: %w", err)
	}
	return rec, nil
}

// Load 读取 JSON 文件。
func Load(path string) (Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return Record{}, fmt.Errorf("无法打开简历文件 %s: %w", path, err)
	}
	defer file.Close()
	return Decode(file)
}

// ValidateFileNameTemplate 检查模板只引用 Record 的标量字段。
func ValidateFileNameTemplate(template string) error {
	fields := Record{}.Values()
	for _, path := range binding.Paths(template) {
		if _, ok := fields[path]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownField, path)
		}
	}
	return nil
}

// FileName 根据模板生成下载文件名（不含扩展名）。
// 姓名为空时返回 DefaultFileName；模板为空时使用 DefaultFileNameTemplate。
func (r Record) FileName(template string) string {
	if blank(r.FullName) {
		return DefaultFileName
	}
	if strings.TrimSpace(template) == "" {
		template = DefaultFileNameTemplate
	}
	name := binding.Interpolate(template, r.Normalize().Values())
	name = strings.ReplaceAll(name, " ", "_")
	name = unsafeFileChars.ReplaceAllString(name, "")
	name = strings.Trim(name, "._-")
	if name == "" {
		return DefaultFileName
	}
	return name
}
