package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/hertz/pkg/app/server"
	hertzconfig "github.com/cloudwego/hertz/pkg/common/config"
	glog "github.com/cloudwego/hertz/pkg/common/hlog"
	hertzadapter "github.com/hertz-contrib/logger/zerolog"
	hertztracing "github.com/hertz-contrib/obs-opentelemetry/tracing"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"jobhunt-ai/internal/api/handler"
	"jobhunt-ai/internal/api/router"
	"jobhunt-ai/internal/config"
	"jobhunt-ai/internal/gateway"
	appCoreLogger "jobhunt-ai/internal/logger"
	"jobhunt-ai/internal/parser"
	"jobhunt-ai/internal/session"
	"jobhunt-ai/internal/tracing"
	"jobhunt-ai/pkg/agent"
	"jobhunt-ai/pkg/ratelimit"
)

var (
	version     = "1.0.0"      //nolint:gochecknoglobals
	serviceName = "jobhunt-ai" //nolint:gochecknoglobals
)

func main() {
	var (
		configPath string
		address    string
	)
	pflag.StringVarP(&configPath, "config", "c", "config.yaml", "Path to config file")
	pflag.StringVarP(&address, "address", "a", "", "Listen address, overrides server.address")
	pflag.Parse()

	// .env 不存在时忽略
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "加载 .env 失败: %v\n", err)
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}
	if address != "" {
		cfg.Server.Address = address
	}

	logCloser := initLogger(cfg.Logger)
	if logCloser != nil {
		defer logCloser.Close()
	}
	glog.Info("配置加载成功")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := tracing.InitProvider(ctx, cfg.Tracing, version)
	if err != nil {
		appCoreLogger.Fatal().Err(err).Msg("初始化链路追踪失败")
	}

	chatModel, extractor, err := initChatModel(ctx, cfg)
	if err != nil {
		appCoreLogger.Fatal().Err(err).Str("provider", cfg.AI.Provider).Msg("初始化模型失败")
	}

	gwOpts := []gateway.Option{
		gateway.WithLogger(appCoreLogger.Component("gateway")),
		gateway.WithModelName(cfg.AI.Model),
	}
	if extractor != nil {
		gwOpts = append(gwOpts, gateway.WithTextExtractor(extractor))
	}
	client, err := gateway.NewClient(chatModel, gwOpts...)
	if err != nil {
		appCoreLogger.Fatal().Err(err).Msg("初始化 AI 网关失败")
	}

	sess := session.New(client, session.WithLogger(appCoreLogger.Component("session")))
	sessionHandler := handler.NewSessionHandler(sess,
		handler.WithMaxUploadBytes(cfg.Server.MaxUploadBytes()),
		handler.WithLogger(appCoreLogger.Component("api")),
	)

	serverOpts := []hertzconfig.Option{
		server.WithHostPorts(cfg.Server.Address),
		server.WithHandleMethodNotAllowed(true),
		// multipart 头部需要额外空间
		server.WithMaxRequestBodySize(cfg.Server.MaxUploadBytes() + 1<<20),
	}
	var tracerCfg *hertztracing.Config
	if cfg.Tracing.Enabled {
		tracer, tc := hertztracing.NewServerTracer()
		serverOpts = append(serverOpts, tracer)
		tracerCfg = tc
	}
	h := server.New(serverOpts...)
	if tracerCfg != nil {
		h.Use(hertztracing.ServerMiddleware(tracerCfg))
	}

	router.RegisterRoutes(h, sessionHandler, router.Options{
		MetricsEnabled: cfg.Metrics.Enabled,
		MetricsPath:    cfg.Metrics.Path,
	})
	glog.Info("HTTP路由注册成功")

	glog.Infof("HTTP 服务器启动中，监听地址: %s, 模型: %s/%s", cfg.Server.Address, cfg.AI.Provider, cfg.AI.Model)
	go func() {
		if err := h.Run(); err != nil {
			glog.Fatalf("启动HTTP服务器失败: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	glog.Info("接收到终止信号，正在优雅退出...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := h.Shutdown(shutdownCtx); err != nil {
		glog.Errorf("服务器关闭失败: %v", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		glog.Errorf("关闭链路追踪失败: %v", err)
	}
	glog.Info("优雅退出完成")
}

// initLogger 初始化应用日志，并把 Hertz 的 glog 接到同一个 zerolog 上
func initLogger(cfg appCoreLogger.Config) io.Closer {
	closer, err := appCoreLogger.Init(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "无法打开日志文件 %s: %v\n", cfg.File, err)
		os.Exit(1)
	}

	appCoreLogger.Logger = appCoreLogger.Logger.With().
		Str("app", serviceName).
		Str("version", version).
		Logger()

	glog.SetLogger(hertzadapter.From(appCoreLogger.Logger))
	glog.SetLevel(hertzLevel(cfg.Level))
	return closer
}

func hertzLevel(level string) glog.Level {
	switch level {
	case "trace":
		return glog.LevelTrace
	case "debug":
		return glog.LevelDebug
	case "warn":
		return glog.LevelWarn
	case "error":
		return glog.LevelError
	default:
		return glog.LevelInfo
	}
}

// initChatModel 按提供方创建模型并套上限流。openai 兼容接口只接收文本，需要 PDF 文本提取
func initChatModel(ctx context.Context, cfg *config.Config) (model.ToolCallingChatModel, parser.TextExtractor, error) {
	var (
		base      model.ToolCallingChatModel
		extractor parser.TextExtractor
	)

	switch cfg.AI.Provider {
	case config.ProviderGemini:
		m, err := agent.NewGeminiChatModel(ctx, cfg.AI.APIKey,
			agent.WithGeminiModel(cfg.AI.Model),
			agent.WithGeminiTimeout(cfg.AI.TimeoutDuration()),
			agent.WithGeminiTemperature(cfg.AI.Temperature),
			agent.WithGeminiLogger(appCoreLogger.Component("gemini")),
		)
		if err != nil {
			return nil, nil, err
		}
		base = m
	case config.ProviderOpenAI:
		m, err := agent.NewOpenAICompatChatModel(cfg.AI.APIKey, cfg.AI.Model, cfg.AI.APIURL,
			agent.WithOpenAICompatTimeout(cfg.AI.TimeoutDuration()),
			agent.WithOpenAICompatTemperature(cfg.AI.Temperature),
			agent.WithOpenAICompatLogger(appCoreLogger.Component("openai")),
		)
		if err != nil {
			return nil, nil, err
		}
		base = m

		pdf, err := parser.NewPDFTextExtractor(ctx,
			parser.WithPDFLogger(appCoreLogger.Component("pdf")),
			parser.WithPDFTimeout(cfg.AI.TimeoutDuration()),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("初始化PDF解析器失败: %w", err)
		}
		extractor = pdf
	default:
		return nil, nil, fmt.Errorf("不支持的 AI 提供方: %s", cfg.AI.Provider)
	}

	return ratelimit.NewChatModelWithRateLimit(base, cfg.AI.Model, cfg.AI.ModelQPMLimits, cfg.AI.QPM), extractor, nil
}
