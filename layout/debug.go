package layout

import (
	"encoding/json"
	"io"
)

// EncodeJSON 将布局结果以缩进 JSON 写出，供 `vitae layout` 调试与前端可视化使用。
// 图片字节不会被输出，只保留位置与格式。
func EncodeJSON(w io.Writer, res *Result) error {
	if res == nil {
		return nil
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
