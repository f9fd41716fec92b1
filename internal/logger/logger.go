package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger 全局日志实例
var Logger = log.Logger

// Config 日志配置
type Config struct {
	Level        string `json:"level" yaml:"level"`                 // debug, info, warn, error
	Format       string `json:"format" yaml:"format"`               // json 或 pretty
	TimeFormat   string `json:"time_format" yaml:"time_format"`
	ReportCaller bool   `json:"report_caller" yaml:"report_caller"`
	// OutputFile 非空时同时写入该文件
	OutputFile string `json:"output_file" yaml:"output_file"`
}

// Init 按配置初始化全局日志，返回的 io.Closer 用于关闭日志文件（没有文件时为 nil）
func Init(config Config) (io.Closer, error) {
	level, err := zerolog.ParseLevel(config.Level)
	if err != nil || config.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if config.TimeFormat == "" {
		zerolog.TimeFieldFormat = time.RFC3339
	} else {
		zerolog.TimeFieldFormat = config.TimeFormat
	}

	var output io.Writer = os.Stdout
	if config.Format == "pretty" {
		output = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: config.TimeFormat}
	}

	var file *os.File
	if config.OutputFile != "" {
		if err := os.MkdirAll(filepath.Dir(config.OutputFile), 0o755); err != nil {
			return nil, fmt.Errorf("创建日志目录失败: %w", err)
		}
		file, err = os.OpenFile(config.OutputFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("打开日志文件失败: %w", err)
		}
		output = zerolog.MultiLevelWriter(output, file)
	}

	ctxLogger := zerolog.New(output).Level(level).With().Timestamp()
	if config.ReportCaller {
		ctxLogger = ctxLogger.Caller()
	}

	Logger = ctxLogger.Logger()
	log.Logger = Logger

	if file == nil {
		return nil, nil
	}
	return file, nil
}

// Debug 调试级别日志
func Debug() *zerolog.Event {
	return Logger.Debug()
}

// Info 信息级别日志
func Info() *zerolog.Event {
	return Logger.Info()
}

// Warn 警告级别日志
func Warn() *zerolog.Event {
	return Logger.Warn()
}

// Error 错误级别日志
func Error() *zerolog.Event {
	return Logger.Error()
}

// Fatal 致命错误，记录后进程退出
func Fatal() *zerolog.Event {
	return Logger.Fatal()
}

// Ctx 从上下文取日志记录器，没有时返回全局实例
func Ctx(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l != nil && l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &Logger
}

// WithContext 把全局日志记录器放入上下文
func WithContext(ctx context.Context) context.Context {
	return Logger.WithContext(ctx)
}

// WithFields 返回带固定字段的上下文，后续 Ctx(ctx) 取出的日志都会携带这些字段
func WithFields(ctx context.Context, fields map[string]interface{}) context.Context {
	l := Ctx(ctx).With().Fields(fields).Logger()
	return l.WithContext(ctx)
}
