package server

import (
	"encoding/json"
	"net/http"
)

// ErrorBody 是统一的错误对象。
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse 包装 ErrorBody。
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	if s.logger != nil {
		s.logger.Warn("请求失败", "method", r.Method, "path", r.URL.Path, "status", status, "code", code, "message", message)
	}
	writeJSON(w, status, ErrorResponse{Error: ErrorBody{Code: code, Message: message}})
}
