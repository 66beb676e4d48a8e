package server

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

const staticCacheControl = "public, max-age=31536000"

// spa 托管前端构建产物：存在的文件直接返回，其余路径回退到 index.html。
func (s *Server) spa(dir string) http.HandlerFunc {
	files := http.FileServer(http.Dir(dir))
	index := filepath.Join(dir, "index.html")
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			s.writeError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "only GET and HEAD are served")
			return
		}
		w.Header().Set("Cache-Control", staticCacheControl)

		name := path.Clean("/" + r.URL.Path)
		if name != "/" && !strings.HasSuffix(name, "/index.html") {
			if info, err := os.Stat(filepath.Join(dir, filepath.FromSlash(name))); err == nil && !info.IsDir() {
				files.ServeHTTP(w, r)
				return
			}
		}

		if _, err := os.Stat(index); err != nil {
			if s.logger != nil {
				s.logger.Error("无法加载 index.html", "err", err)
			}
			http.Error(w, "Application build is corrupted.", http.StatusInternalServerError)
			return
		}
		http.ServeFile(w, r, index)
	}
}
