package main

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/suikawiki/deno-swdata-objects/internal/cache"
	"github.com/suikawiki/deno-swdata-objects/internal/config"
	"github.com/suikawiki/deno-swdata-objects/internal/logging"
	"github.com/suikawiki/deno-swdata-objects/internal/proxy"
	"github.com/suikawiki/deno-swdata-objects/internal/server"
	"github.com/suikawiki/deno-swdata-objects/internal/version"
)

const configEnv = "GLYPHSVG_CONFIG"

// cliOptions 汇总 CLI 标志解析后的结果，便于在测试中注入。
type cliOptions struct {
	configPath  string
	checkOnly   bool
	showVersion bool
}

var (
	stdOut io.Writer = os.Stdout
	stdErr io.Writer = os.Stderr
)

func main() {
	os.Exit(execute(os.Args[1:]))
}

// execute 构建 cobra 命令树并返回退出码；参数错误返回 2。
func execute(args []string) int {
	exitCode := 0
	root := newRootCmd(&exitCode)
	root.SetArgs(args)
	root.SetOut(stdOut)
	root.SetErr(stdErr)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(stdErr, err.Error())
		return 2
	}
	return exitCode
}

func newRootCmd(exitCode *int) *cobra.Command {
	var opts cliOptions
	cmd := &cobra.Command{
		Use:   "glyphsvg",
		Short: "Render glyphs of allow-listed remote fonts as standalone SVG",
		Long: `glyphsvg serves GET /ot/{encodedFontUrl}/{id|name|char}/{encodedValue}/glyph.svg.

The font is fetched from an allow-listed origin, the selected glyph outline is
converted to SVG path data and the font's licensing strings are embedded in a
<desc> element.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.configPath = resolveConfigPath(opts.configPath)
			*exitCode = run(opts)
			return nil
		},
	}
	bindRootFlags(cmd.Flags(), &opts)
	cmd.AddCommand(newRenderCmd(exitCode))
	return cmd
}

func bindRootFlags(flags *pflag.FlagSet, opts *cliOptions) {
	flags.StringVar(&opts.configPath, "config", "", "配置文件路径（可被 "+configEnv+" 提供，缺省时仅使用默认值）")
	flags.BoolVar(&opts.checkOnly, "check-config", false, "仅校验配置后退出")
	flags.BoolVar(&opts.showVersion, "version", false, "显示版本信息")
}

// resolveConfigPath 优先使用 --config，其次是环境变量。
func resolveConfigPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return os.Getenv(configEnv)
}

// run 根据解析到的 CLI 选项执行业务流程，并返回退出码，方便测试。
func run(opts cliOptions) int {
	if opts.showVersion {
		printVersion()
		return 0
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(stdErr, "加载配置失败: %v\n", err)
		return 1
	}

	logger, err := logging.InitLogger(cfg.Global)
	if err != nil {
		fmt.Fprintf(stdErr, "初始化日志失败: %v\n", err)
		return 1
	}

	origins, err := server.NewOriginRegistry(cfg)
	if err != nil {
		fmt.Fprintf(stdErr, "构建来源白名单失败: %v\n", err)
		return 1
	}

	if opts.checkOnly {
		fields := logging.BaseFields("check_config", opts.configPath)
		fields["origins"] = origins.List()
		fields["font_cache"] = cfg.FontCacheEnabled()
		fields["result"] = "ok"
		logger.WithFields(fields).Info("配置校验通过")
		return 0
	}

	// 启动顺序："配置 → 来源白名单 → 字体缓存 → 上游 client → Fiber server"，所有请求共享同一组实例。
	var policy cache.Policy
	if cfg.FontCacheEnabled() {
		store, err := cache.NewStore(cfg.Global.FontCachePath)
		if err != nil {
			fmt.Fprintf(stdErr, "初始化字体缓存目录失败: %v\n", err)
			return 1
		}
		policy = cache.NewPolicy(store, cfg.Global.FontCacheTTL.DurationValue())
	}

	httpClient := server.NewUpstreamClient(cfg)
	fetcher := proxy.NewFetcher(httpClient, policy, cfg.Global.MaxFontSize, logger)
	glyphHandler := proxy.NewHandler(fetcher, origins, logger, cfg.CacheControl())

	fields := logging.BaseFields("startup", opts.configPath)
	fields["origins"] = origins.List()
	fields["listen_port"] = cfg.Global.ListenPort
	fields["font_cache"] = cfg.FontCacheEnabled()
	fields["upstream_timeout"] = cfg.Global.UpstreamTimeout.DurationValue().String()
	fields["version"] = version.Full()
	logger.WithFields(fields).Info("配置加载完成")

	if err := startHTTPServer(cfg, glyphHandler, logger); err != nil {
		fmt.Fprintf(stdErr, "HTTP 服务启动失败: %v\n", err)
		return 1
	}
	return 0
}

func startHTTPServer(cfg *config.Config, glyphs server.GlyphHandler, logger *logrus.Logger) error {
	port := cfg.Global.ListenPort
	app, err := server.NewApp(server.AppOptions{
		Logger: logger,
		Glyphs: glyphs,
	})
	if err != nil {
		return err
	}

	logger.WithFields(logrus.Fields{
		"action": "listen",
		"port":   port,
	}).Info("Fiber 服务启动")

	return app.Listen(fmt.Sprintf(":%d", port))
}
