package main

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"resume-extractor/internal/api/handler"
	"resume-extractor/internal/api/router"
	"resume-extractor/internal/config"
	"resume-extractor/internal/outbox"
	"resume-extractor/internal/processor"
	"resume-extractor/internal/storage"
	"resume-extractor/internal/tracing"

	appCoreLogger "resume-extractor/internal/logger"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	glog "github.com/cloudwego/hertz/pkg/common/hlog"
	hertzadapter "github.com/hertz-contrib/logger/zerolog"
	hertztracing "github.com/hertz-contrib/obs-opentelemetry/tracing"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

var (
	version     = "1.0.0"            //nolint:gochecknoglobals
	serviceName = "resume-extractor" //nolint:gochecknoglobals
)

func main() {
	var configPath string
	pflag.StringVarP(&configPath, "config", "c", "", "配置文件路径，为空时按默认位置查找")
	pflag.Parse()

	// .env 不存在时忽略
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		glog.Warnf("加载 .env 失败: %v", err)
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		glog.Fatalf("加载配置失败: %v", err)
	}

	logCloser, err := appCoreLogger.Init(appCoreLogger.Config{
		Level:        cfg.Logger.Level,
		Format:       cfg.Logger.Format,
		TimeFormat:   cfg.Logger.TimeFormat,
		ReportCaller: cfg.Logger.ReportCaller,
		OutputFile:   cfg.Logger.OutputFile,
	})
	if err != nil {
		glog.Fatalf("初始化日志失败: %v", err)
	}
	if logCloser != nil {
		defer logCloser.Close()
	}
	glog.SetLogger(hertzadapter.From(appCoreLogger.Logger))
	glog.Infof("%s %s 配置加载成功", serviceName, version)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Tracing.ServiceName == "" {
		cfg.Tracing.ServiceName = serviceName
	}
	shutdownTracing, err := tracing.InitProvider(ctx, tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		Endpoint:    cfg.Tracing.Endpoint,
		ServiceName: cfg.Tracing.ServiceName,
		SampleRatio: cfg.Tracing.SampleRatio,
		Insecure:    cfg.Tracing.Insecure,
	})
	if err != nil {
		glog.Fatalf("初始化链路追踪失败: %v", err)
	}

	storageManager, err := storage.NewStorage(ctx, cfg)
	if err != nil {
		glog.Fatalf("初始化存储失败: %v", err)
	}
	defer storageManager.Close()
	glog.Info("存储服务初始化成功")

	batchProcessor, engine, err := processor.NewBatchProcessorFromConfig(ctx, cfg, storageManager)
	if err != nil {
		glog.Fatalf("初始化批处理器失败: %v", err)
	}
	glog.Infof("批处理器初始化成功，文本来源: %s/%s，识别服务: %s，并发: %d",
		cfg.TextSource.Type, cfg.TextSource.Source, cfg.Entity.Type, cfg.Processor.Concurrency)

	var messageRelay *outbox.MessageRelay
	if cfg.Outbox.Enabled && storageManager.RabbitMQ != nil {
		messageRelay = outbox.NewMessageRelay(storageManager.DB.DB(), storageManager.RabbitMQ,
			outbox.WithPollingInterval(config.GetDuration(cfg.Outbox.PollInterval, 2*time.Second)),
			outbox.WithBatchSize(cfg.Outbox.BatchSize),
		)
		messageRelay.Start()
		glog.Info("消息中继服务已启动")
	}

	var consumerDone <-chan struct{}
	if cfg.RabbitMQ.ConsumerEnabled && storageManager.RabbitMQ != nil {
		consumerDone, err = storageManager.RabbitMQ.StartConsumer(ctx, cfg.RabbitMQ.UploadedQueue,
			cfg.RabbitMQ.PrefetchCount, batchProcessor.HandleMessage)
		if err != nil {
			glog.Fatalf("启动上传事件消费者失败: %v", err)
		}
		glog.Infof("上传事件消费者已启动，队列: %s", cfg.RabbitMQ.UploadedQueue)
	}

	resumeHandler := handler.NewResumeHandler(batchProcessor, engine, handlerOptions(cfg, storageManager)...)

	tracer, tracerCfg := hertztracing.NewServerTracer()
	h := server.New(
		tracer,
		server.WithHostPorts(cfg.Server.Address),
		server.WithHandleMethodNotAllowed(true),
		server.WithMaxRequestBodySize(cfg.Server.MaxRequestBodyMB<<20),
	)
	h.Use(hertztracing.ServerMiddleware(tracerCfg))
	h.Use(func(c context.Context, ctx *app.RequestContext) {
		glog.CtxDebugf(c, "Request: %s %s", string(ctx.Method()), string(ctx.Path()))
		ctx.Next(c)
		glog.CtxDebugf(c, "Response: status %d", ctx.Response.StatusCode())
	})

	router.RegisterRoutes(h, resumeHandler, cfg.Server.APIKeys)
	if len(cfg.Server.APIKeys) == 0 {
		glog.Warn("未配置 API Key，接口不做认证")
	}

	glog.Infof("HTTP 服务器启动中，监听地址: %s", cfg.Server.Address)
	go func() {
		if err := h.Run(); err != nil {
			glog.Fatalf("启动HTTP服务器失败: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	glog.Info("接收到终止信号，正在优雅退出...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := h.Shutdown(shutdownCtx); err != nil {
		glog.Errorf("服务器关闭失败: %v", err)
	}

	// 停止消费者，正在处理的消息会被重新入队
	cancel()
	if consumerDone != nil {
		select {
		case <-consumerDone:
			glog.Info("上传事件消费者已停止")
		case <-shutdownCtx.Done():
			glog.Warn("等待消费者退出超时")
		}
	}

	if messageRelay != nil {
		messageRelay.Stop()
		glog.Info("消息中继服务已停止")
	}

	if err := shutdownTracing(shutdownCtx); err != nil {
		glog.Errorf("刷新链路追踪数据失败: %v", err)
	}
	glog.Info("优雅退出完成")
}

func handlerOptions(cfg *config.Config, st *storage.Storage) []handler.HandlerOption {
	opts := []handler.HandlerOption{
		handler.WithHealthCheck(st.DB.Ping),
		handler.WithCandidateReader(processor.BuildCandidateStore(cfg, st)),
	}
	if st.MinIO != nil {
		opts = append(opts, handler.WithUploader(st.MinIO))
	}
	if st.RabbitMQ != nil {
		opts = append(opts, handler.WithEventPublisher(st.RabbitMQ, cfg.RabbitMQ.EventsExchange, cfg.RabbitMQ.UploadedRoutingKey))
	}
	if st.Redis != nil {
		opts = append(opts, handler.WithBatchStatusReader(st.Redis))
	}
	return opts
}
