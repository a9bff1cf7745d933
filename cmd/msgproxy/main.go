// Package main 提供 msgproxy 命令行入口
//
// 在进程内模拟一个后台上下文和若干页面上下文，跑一遍端到端场景；
// 指定 -listen 时额外开启 WebSocket 桥接，供其它进程以页面身份接入。
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/dep2p/go-msgproxy"
	"github.com/dep2p/go-msgproxy/config"
	"github.com/dep2p/go-msgproxy/internal/transport/websocket"
	"github.com/dep2p/go-msgproxy/pkg/lib/log"
)

var logger = log.Logger("msgproxy/cmd")

// ═══════════════════════════════════════════════════════════════════════════
// 命令行参数
// ═══════════════════════════════════════════════════════════════════════════
//
//   命令行参数：运行时覆盖
//   JSON 配置文件：持久化配置
//
// ═══════════════════════════════════════════════════════════════════════════
var (
	configFile = flag.String("config", "", "配置文件路径")
	tabs       = flag.Int("tabs", 2, "模拟的页面上下文数量")
	timeout    = flag.Duration("timeout", 0, "请求默认超时（0 = 使用配置）")
	listen     = flag.String("listen", "", "WebSocket 桥接监听地址（为空不开启）")
	serve      = flag.Bool("serve", false, "场景结束后保持运行直到 Ctrl+C")

	logLevel  = flag.String("log-level", "", "日志级别 (debug/info/warn/error)")
	logFormat = flag.String("log-format", "", "日志格式 (text/json)")
	logFile   = flag.String("log", "", "日志文件路径")
	fxLog     = flag.Bool("fx-log", false, "输出 fx 依赖注入事件")

	showVersion = flag.Bool("version", false, "显示版本信息")
	showHelp    = flag.Bool("help", false, "显示帮助信息")
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	flag.Parse()

	if *showVersion {
		printVersion()
		return nil
	}
	if *showHelp {
		printHelp()
		return nil
	}

	cfg, err := buildConfig()
	if err != nil {
		return fmt.Errorf("配置错误: %w", err)
	}

	logFileHandle, err := setupLogging(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "警告: %v\n", err)
		fmt.Fprintln(os.Stderr, "将继续使用控制台输出日志")
	}
	if logFileHandle != nil {
		defer func() { _ = logFileHandle.Close() }()
	}

	zl := zap.NewNop()
	if *fxLog {
		if zl, err = zap.NewDevelopment(); err != nil {
			return fmt.Errorf("创建 fx 日志失败: %w", err)
		}
		defer func() { _ = zl.Sync() }()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fmt.Printf("📦 %s\n", msgproxy.VersionInfo())
	logger.Info("启动 msgproxy 演示", "version", msgproxy.Version, "tabs", *tabs)

	// ═══════════════════════════════════════════════════════════════════
	// 1. 组装上下文
	// ═══════════════════════════════════════════════════════════════════
	hub := msgproxy.NewHub()
	defer func() { _ = hub.Close() }()

	env, err := startContexts(ctx, hub, cfg, zl)
	if err != nil {
		return err
	}
	defer func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer stopCancel()
		if err := env.stop(stopCtx); err != nil {
			logger.Warn("关闭上下文失败", "error", err)
		}
	}()

	// ═══════════════════════════════════════════════════════════════════
	// 2. 端到端场景
	// ═══════════════════════════════════════════════════════════════════
	failed := runScenarios(ctx, hub, env)

	// ═══════════════════════════════════════════════════════════════════
	// 3. 桥接服务
	// ═══════════════════════════════════════════════════════════════════
	if cfg.WebSocket.Enable {
		if err := serveBridge(ctx, cfg, env); err != nil {
			return err
		}
	} else if *serve {
		fmt.Println("上下文已就绪，按 Ctrl+C 退出")
		waitForSignal()
	}

	if failed > 0 {
		return fmt.Errorf("%d 个场景失败", failed)
	}
	return nil
}

// buildConfig 构建配置
//
// 配置优先级（从高到低）：
//  1. 命令行参数
//  2. 环境变量（MSGPROXY_* 前缀）
//  3. 配置文件
//  4. 默认值
func buildConfig() (*config.Config, error) {
	cfg := config.NewConfig()
	if *configFile != "" {
		loaded, err := config.LoadFile(*configFile)
		if err != nil {
			return nil, fmt.Errorf("加载配置文件失败: %w", err)
		}
		cfg = loaded
	}

	if err := config.ApplyEnv(cfg); err != nil {
		return nil, err
	}

	if isFlagSet("timeout") && *timeout > 0 {
		cfg.Proxy.DefaultTimeout = config.Duration(*timeout)
	}
	if isFlagSet("listen") && *listen != "" {
		cfg.WebSocket.Enable = true
		cfg.WebSocket.ListenAddr = *listen
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	if *logFile != "" {
		cfg.Log.File = *logFile
	}
	if *tabs < 0 {
		return nil, errors.New("tabs must not be negative")
	}

	return config.ValidateAndFix(cfg)
}

// setupLogging 设置日志输出
func setupLogging(cfg config.LogConfig) (*os.File, error) {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		level = log.LevelInfo
	}

	if cfg.File == "" {
		log.Setup(os.Stderr, cfg.Format, level)
		return nil, nil
	}

	file, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		log.Setup(os.Stderr, cfg.Format, level)
		return nil, fmt.Errorf("打开日志文件失败: %w", err)
	}
	log.Setup(file, cfg.Format, level)
	return file, nil
}

// serveBridge 开启 WebSocket 桥接和指标端点，阻塞到收到退出信号
func serveBridge(ctx context.Context, cfg *config.Config, env *contexts) error {
	bridge := websocket.NewServer(websocket.FromConfig(cfg.WebSocket))

	app, err := msgproxy.NewApp(bridge, msgproxy.WithProxyConfig(cfg.Proxy.WithContextName("background-bridge")))
	if err != nil {
		return fmt.Errorf("创建桥接上下文失败: %w", err)
	}
	if err := app.Start(ctx); err != nil {
		return fmt.Errorf("启动桥接上下文失败: %w", err)
	}
	if err := registerBackgroundHandlers(app.Proxy()); err != nil {
		return err
	}

	gatherers := prometheus.Gatherers{app.Proxy().Gatherer()}
	for _, p := range env.all() {
		if g := p.Gatherer(); g != nil {
			gatherers = append(gatherers, g)
		}
	}

	mux := http.NewServeMux()
	mux.Handle(cfg.WebSocket.Path, bridge)
	mux.Handle("/metrics", promhttp.HandlerFor(gatherers, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              cfg.WebSocket.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: cfg.WebSocket.HandshakeTimeout.Duration(),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	fmt.Printf("桥接已开启: ws://%s%s?context=<id>\n", cfg.WebSocket.ListenAddr, cfg.WebSocket.Path)
	fmt.Printf("指标: http://%s/metrics\n", cfg.WebSocket.ListenAddr)
	fmt.Println("按 Ctrl+C 退出")

	var serveErr error
	select {
	case serveErr = <-errCh:
	case <-signalChan():
	}

	fmt.Println("\n正在关闭桥接...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var result error
	if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
		result = multierr.Append(result, serveErr)
	}
	// 先断开桥接连接，被劫持的连接不受 Shutdown 管理
	result = multierr.Append(result, app.Stop(shutdownCtx))
	result = multierr.Append(result, srv.Shutdown(shutdownCtx))
	return result
}

func isFlagSet(name string) bool {
	found := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

func signalChan() <-chan os.Signal {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	return signals
}

// waitForSignal 等待退出信号
func waitForSignal() {
	<-signalChan()
}

func printVersion() {
	fmt.Printf("msgproxy %s\n", msgproxy.Version)
	if msgproxy.GitCommit != "" {
		fmt.Printf("  commit: %s\n", msgproxy.GitCommit)
	}
	if msgproxy.BuildDate != "" {
		fmt.Printf("  built:  %s\n", msgproxy.BuildDate)
	}
}

// printHelp 打印帮助信息
func printHelp() {
	fmt.Println("msgproxy - 隔离上下文之间的请求/响应消息代理")
	fmt.Println()
	fmt.Println("用法:")
	fmt.Println("  msgproxy [选项]")
	fmt.Println()
	fmt.Println("选项:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("配置文件（持久化配置）：")
	fmt.Println("  proxy.default_timeout     请求默认超时，如 \"5s\"")
	fmt.Println("  proxy.handler_timeout     入站处理超时")
	fmt.Println("  websocket.enable          开启桥接")
	fmt.Println("  websocket.listen_addr     桥接监听地址")
	fmt.Println("  log.level / log.format    日志")
	fmt.Println()
	fmt.Println("环境变量:")
	fmt.Println("  MSGPROXY_CONTEXT_NAME     上下文名称")
	fmt.Println("  MSGPROXY_DEFAULT_TIMEOUT  请求默认超时")
	fmt.Println("  MSGPROXY_HANDLER_TIMEOUT  入站处理超时")
	fmt.Println("  MSGPROXY_LISTEN_ADDR      桥接监听地址（同时开启桥接）")
	fmt.Println("  MSGPROXY_WEBSOCKET        开启桥接 (true/false)")
	fmt.Println("  MSGPROXY_LOG_LEVEL        日志级别")
	fmt.Println("  MSGPROXY_LOG_FORMAT       日志格式")
}
