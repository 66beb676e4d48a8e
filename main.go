package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/ByLCY/vitae/config"
	"github.com/ByLCY/vitae/layout"
	"github.com/ByLCY/vitae/pipeline"
	"github.com/ByLCY/vitae/record"
	rasterrenderer "github.com/ByLCY/vitae/renderer/raster"
	"github.com/ByLCY/vitae/server"
	"github.com/ByLCY/vitae/theme"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(130)
		}
		os.Exit(1)
	}
}

// newRootCmd 构建命令树。--config 与 --verbose 在任何子命令运行前生效。
func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var (
		verbose    bool
		configPath string
	)
	root := &cobra.Command{
		Use:          "vitae",
		Short:        "vitae 将简历 JSON 排版为分页 PDF",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			level, err := cfg.Log.ParseLevel()
			if err != nil {
				return err
			}
			if verbose {
				level = log.DebugLevel
			}
			ctx := withLogger(cmd.Context(), newLogger(stderr, level))
			cmd.SetContext(withConfig(ctx, cfg))
			return nil
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "输出调试日志")
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "TOML 配置文件路径")

	root.AddCommand(newRenderCmd())
	root.AddCommand(newPageCmd())
	root.AddCommand(newLayoutCmd())
	root.AddCommand(newServeCmd())
	return root
}

// renderFlags 是 render/page/layout 共用的排版参数，未显式设置时取配置文件的值。
type renderFlags struct {
	backend  string
	theme    string
	fileName string
}

func (f *renderFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.backend, "backend", "", "渲染后端：fpdf（默认）或 canvas")
	cmd.Flags().StringVar(&f.theme, "theme", "", `主题："builtin:<name>" 或 "<file>#<name>"`)
	cmd.Flags().StringVar(&f.fileName, "filename", "", `文件名模板，如 "${fullName}_Resume"`)
}

// options 合并配置与命令行参数。baseDir 用于解析相对头像路径。
func (f *renderFlags) options(cmd *cobra.Command, baseDir string) (pipeline.Options, error) {
	cfg := configFromContext(cmd.Context())
	if cmd.Flags().Changed("backend") {
		cfg.Render.Backend = f.backend
	}
	if cmd.Flags().Changed("theme") {
		cfg.Render.Theme = f.theme
	}
	if cmd.Flags().Changed("filename") {
		cfg.Render.FileName = f.fileName
	}
	backend, err := pipeline.ParseBackend(cfg.Render.Backend)
	if err != nil {
		return pipeline.Options{}, err
	}
	geometry, err := theme.Resolve(cfg.Render.Theme)
	if err != nil {
		return pipeline.Options{}, fmt.Errorf("加载主题失败: %w", err)
	}
	faces, err := cfg.Render.LoadFonts()
	if err != nil {
		return pipeline.Options{}, err
	}
	return pipeline.Options{
		Backend:          backend,
		Geometry:         geometry,
		FileNameTemplate: cfg.Render.FileName,
		Photo:            cfg.Photo.ResolveOptions(baseDir),
		Fonts:            faces,
		Logger:           loggerFromContext(cmd.Context()),
	}, nil
}

// loadRecord 读取简历 JSON，"-" 表示标准输入。返回值 baseDir 为文件所在目录。
func loadRecord(cmd *cobra.Command, path string) (record.Record, string, error) {
	if path == "-" {
		rec, err := record.Decode(cmd.InOrStdin())
		return rec, ".", err
	}
	rec, err := record.Load(path)
	return rec, filepath.Dir(path), err
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("创建输出目录失败: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("写入 %s 失败: %w", path, err)
	}
	return nil
}

func newRenderCmd() *cobra.Command {
	var (
		flags     renderFlags
		output    string
		debugPath string
	)
	cmd := &cobra.Command{
		Use:   "render <record.json|->",
		Short: "生成 PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFromContext(cmd.Context())
			prog := newProgress(logger)
			rec, baseDir, err := loadRecord(cmd, args[0])
			if err != nil {
				return err
			}
			opts, err := flags.options(cmd, baseDir)
			if err != nil {
				return err
			}
			out, err := pipeline.Run(cmd.Context(), rec, opts)
			if err != nil {
				return fmt.Errorf("生成 PDF 失败: %w", err)
			}
			if debugPath != "" {
				if err := writeLayout(debugPath, out.Result); err != nil {
					return err
				}
			}
			if output == "" {
				output = out.FileName
			}
			if err := writeFile(output, out.PDF); err != nil {
				return err
			}
			prog.done("已生成 PDF", "path", output, "pages", out.Pages)
			return nil
		},
	}
	flags.bind(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "PDF 输出路径（默认使用生成的文件名）")
	cmd.Flags().StringVar(&debugPath, "debug", "", "同时输出布局调试 JSON")
	return cmd
}

func newPageCmd() *cobra.Command {
	var (
		flags  renderFlags
		output string
		page   int
		dpi    float64
	)
	cmd := &cobra.Command{
		Use:   "page <record.json|->",
		Short: "将单页栅格化为 PNG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, baseDir, err := loadRecord(cmd, args[0])
			if err != nil {
				return err
			}
			opts, err := flags.options(cmd, baseDir)
			if err != nil {
				return err
			}
			engine, err := pipeline.New(opts)
			if err != nil {
				return err
			}
			data, err := engine.PagePNG(cmd.Context(), rec, page, dpi)
			if err != nil {
				return fmt.Errorf("生成 PNG 失败: %w", err)
			}
			if output == "" {
				output = fmt.Sprintf("%s-p%d.png", rec.FileName(opts.FileNameTemplate), page)
			}
			if err := writeFile(output, data); err != nil {
				return err
			}
			loggerFromContext(cmd.Context()).Info("已生成 PNG", "path", output, "page", page)
			return nil
		},
	}
	flags.bind(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "PNG 输出路径")
	cmd.Flags().IntVar(&page, "page", 1, "页码（从 1 开始）")
	cmd.Flags().Float64Var(&dpi, "dpi", rasterrenderer.DefaultDPI, "分辨率")
	return cmd
}

func newLayoutCmd() *cobra.Command {
	var (
		flags  renderFlags
		output string
	)
	cmd := &cobra.Command{
		Use:   "layout <record.json|->",
		Short: "输出布局结果 JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, baseDir, err := loadRecord(cmd, args[0])
			if err != nil {
				return err
			}
			opts, err := flags.options(cmd, baseDir)
			if err != nil {
				return err
			}
			engine, err := pipeline.New(opts)
			if err != nil {
				return err
			}
			res, err := engine.Layout(cmd.Context(), rec)
			if err != nil {
				return fmt.Errorf("布局计算失败: %w", err)
			}
			if output == "" {
				return layout.EncodeJSON(cmd.OutOrStdout(), res)
			}
			return writeLayout(output, res)
		},
	}
	flags.bind(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "JSON 输出路径（默认标准输出）")
	return cmd
}

func writeLayout(path string, res *layout.Result) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("创建调试目录失败: %w", err)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("输出调试 JSON 失败: %w", err)
	}
	defer file.Close()
	if err := layout.EncodeJSON(file, res); err != nil {
		return fmt.Errorf("输出调试 JSON 失败: %w", err)
	}
	return nil
}

func newServeCmd() *cobra.Command {
	var (
		flags     renderFlags
		addr      string
		staticDir string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "启动 HTTP 服务",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := configFromContext(cmd.Context())
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}
			if cmd.Flags().Changed("static") {
				cfg.Server.StaticDir = staticDir
			}
			opts, err := flags.options(cmd, ".")
			if err != nil {
				return err
			}
			if port := os.Getenv("PORT"); port != "" && !cmd.Flags().Changed("addr") {
				cfg.Server.Addr = ":" + port
			}
			srv, err := server.New(server.Options{
				Pipeline:   opts,
				StaticDir:  cfg.Server.StaticDir,
				PreviewTTL: cfg.Server.PreviewTTL.Duration,
				Logger:     opts.Logger,
			})
			if err != nil {
				return err
			}
			return srv.ListenAndServe(cmd.Context(), cfg.Server.Addr)
		},
	}
	flags.bind(cmd)
	cmd.Flags().StringVar(&addr, "addr", "", "监听地址（默认 :5000，或 $PORT）")
	cmd.Flags().StringVar(&staticDir, "static", "", `前端构建目录，"" 表示不托管`)
	return cmd
}
