// Package server 提供 HTTP 接口：导出 PDF、单页 PNG、预览会话与头像裁剪，
// 并托管前端构建产物。
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ByLCY/vitae/pipeline"
	"github.com/ByLCY/vitae/preview"
)

const (
	defaultMaxBodyBytes = 16 << 20
	shutdownTimeout     = 10 * time.Second
)

// Options 配置 Server。
type Options struct {
	Pipeline pipeline.Options
	// Store 为空时使用 preview.MemoryStore。
	Store preview.Store
	// StaticDir 为空时不托管前端；非空但不存在时 New 返回错误。
	StaticDir    string
	MaxBodyBytes int64
	// PreviewTTL 是预览会话的空闲时长，不为正时使用 preview.DefaultSessionTTL。
	PreviewTTL time.Duration
	Logger     *log.Logger
}

// Server 持有路由与依赖。
type Server struct {
	engine   *pipeline.Engine
	sessions *preview.Sessions
	opts     Options
	logger   *log.Logger
	router   chi.Router
}

// New 创建 Server。HTTP 请求中的头像引用不允许读取本地文件。
func New(opts Options) (*Server, error) {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBodyBytes
	}
	if opts.Pipeline.Logger == nil {
		opts.Pipeline.Logger = opts.Logger
	}
	opts.Pipeline.Photo.AllowFiles = false
	engine, err := pipeline.New(opts.Pipeline)
	if err != nil {
		return nil, err
	}
	if opts.StaticDir != "" {
		info, err := os.Stat(opts.StaticDir)
		if err != nil {
			return nil, fmt.Errorf("静态资源目录不可用: %w", err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("静态资源路径 %s 不是目录", opts.StaticDir)
		}
	}
	s := &Server{
		engine:   engine,
		sessions: preview.NewSessions(opts.Store, opts.PreviewTTL, opts.Logger),
		opts:     opts,
		logger:   opts.Logger,
	}
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Post("/resume", s.handleResume)
		r.Post("/resume/pages/{page}.png", s.handlePagePNG)
		r.Route("/previews/{session}", func(r chi.Router) {
			r.Post("/", s.handlePreviewRequest)
			r.Get("/", s.handlePreviewStatus)
			r.Delete("/", s.handlePreviewDismiss)
			r.Get("/document", s.handlePreviewDocument)
		})
		r.Post("/photo/crop", s.handleCrop)
		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			s.writeError(w, r, http.StatusNotFound, "not_found", "no such endpoint")
		})
	})

	if s.opts.StaticDir != "" {
		r.NotFound(s.spa(s.opts.StaticDir))
	}
	return r
}

// Handler 返回根 http.Handler。
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe 监听 addr，ctx 结束后优雅关闭。运行期间定期清理过期的预览会话。
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go s.sessions.Run(sweepCtx, 0)

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		if s.logger != nil {
			s.logger.Info("服务已启动", "addr", addr)
		}
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("关闭服务失败: %w", err)
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// logRequests 为每个请求输出一条结构化日志。
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.logger == nil {
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"request_id", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).Round(time.Microsecond),
		)
	})
}
