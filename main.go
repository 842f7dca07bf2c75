package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/charhub/charhub/internal/config"
	"github.com/charhub/charhub/internal/logging"
	"github.com/charhub/charhub/internal/version"
)

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

const shutdownTimeout = 5 * time.Second

func main() {
	opts, err := parseCLIFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(stdErr, err.Error())
		os.Exit(2)
	}
	os.Exit(run(opts))
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

	logger, err := logging.InitLogger(cfg)
	if err != nil {
		fmt.Fprintf(stdErr, "初始化日志失败: %v\n", err)
		return 1
	}

	if opts.checkOnly {
		fields := logging.BaseFields("check_config", opts.configPath)
		fields["public_dir"] = cfg.PublicDir
		fields["thumb_worker"] = cfg.ThumbBaseURL
		fields["result"] = "ok"
		logger.WithFields(fields).Info("配置校验通过")
		return 0
	}

	// 启动顺序：配置 → 日志 → 目录数据库 → 图片缓存 → 缩略图调度 → Fiber server，
	// 所有请求共享同一份缓存与调度实例。
	svc, err := buildServices(cfg, logger)
	if err != nil {
		fmt.Fprintf(stdErr, "初始化服务失败: %v\n", err)
		return 1
	}
	defer svc.Close()

	if cfg.SeedPath != "" {
		seedCatalog(svc, cfg.SeedPath, logger)
	}

	fields := logging.BaseFields("startup", opts.configPath)
	fields["listen_port"] = cfg.ListenPort
	fields["public_dir"] = cfg.PublicDir
	fields["image_url"] = svc.mapper.ImageURL()
	fields["thumb_worker"] = cfg.ThumbBaseURL
	fields["version"] = version.Full()
	logger.WithFields(fields).Info("配置加载完成")

	if err := startHTTPServer(cfg, svc, logger); err != nil {
		fmt.Fprintf(stdErr, "HTTP 服务启动失败: %v\n", err)
		return 1
	}
	return 0
}

// parseCLIFlags 解析 CLI 参数，并结合环境变量计算最终的配置路径。
func parseCLIFlags(args []string) (cliOptions, error) {
	fs := flag.NewFlagSet("charhub", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		configFlag string
		checkOnly  bool
		showVer    bool
	)

	fs.StringVar(&configFlag, "config", "", "配置文件路径（默认 ./config.toml，可被 CHARHUB_CONFIG 覆盖）")
	fs.BoolVar(&checkOnly, "check-config", false, "仅校验配置后退出")
	fs.BoolVar(&showVer, "version", false, "显示版本信息")

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, fmt.Errorf("解析参数失败: %w", err)
	}

	path := os.Getenv("CHARHUB_CONFIG")
	if configFlag != "" {
		path = configFlag
	}
	if path == "" {
		path = "config.toml"
	}

	return cliOptions{
		configPath:  path,
		checkOnly:   checkOnly,
		showVersion: showVer,
	}, nil
}

func seedCatalog(svc *services, path string, logger *logrus.Logger) {
	inserted, skipped, err := svc.catalog.SeedFromFile(context.Background(), path)
	entry := logger.WithFields(logrus.Fields{
		"action":   "catalog_seed",
		"path":     path,
		"inserted": inserted,
		"skipped":  skipped,
	})
	if err != nil {
		entry.WithError(err).Warn("catalog_seed_failed")
		return
	}
	entry.Info("catalog_seeded")
}

func startHTTPServer(cfg *config.Config, svc *services, logger *logrus.Logger) error {
	app, err := newHTTPApp(cfg, svc, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		logger.WithField("action", "shutdown").Info("收到退出信号，停止 Fiber 服务")
		_ = app.ShutdownWithTimeout(shutdownTimeout)
	}()

	logger.WithFields(logrus.Fields{
		"action": "listen",
		"port":   cfg.ListenPort,
	}).Info("Fiber 服务启动")

	return app.Listen(fmt.Sprintf(":%d", cfg.ListenPort))
}
