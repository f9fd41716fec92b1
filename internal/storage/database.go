package storage

import (
	"context"
	"fmt"
	"log"
	"time"

	"resume-extractor/internal/config"
	"resume-extractor/internal/storage/models"
	"resume-extractor/internal/tracing"

	"github.com/glebarez/sqlite"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var dbTracer = otel.Tracer("resume-extractor/storage/db")

type spanCtxKey struct{}

// GormTracingPlugin 为 GORM 的各类操作创建 OpenTelemetry span
type GormTracingPlugin struct {
	tracer         trace.Tracer
	dbName         string
	dbSystem       string
	disableErrSkip bool
}

// NewGormTracingPlugin 创建追踪插件
func NewGormTracingPlugin(dbSystem, dbName string) *GormTracingPlugin {
	return &GormTracingPlugin{
		tracer:         dbTracer,
		dbName:         dbName,
		dbSystem:       dbSystem,
		disableErrSkip: true,
	}
}

// Name 插件名称
func (p *GormTracingPlugin) Name() string {
	return "GormOpenTelemetryPlugin"
}

// Initialize 注册 before/after 回调
func (p *GormTracingPlugin) Initialize(db *gorm.DB) error {
	cb := db.Callback()
	hooks := []struct {
		name     string
		register func(before bool) error
	}{
		{"create", func(before bool) error {
			if before {
				return cb.Create().Before("gorm:create").Register("otel:before_create", p.before("CREATE"))
			}
			return cb.Create().After("gorm:create").Register("otel:after_create", p.after())
		}},
		{"query", func(before bool) error {
			if before {
				return cb.Query().Before("gorm:query").Register("otel:before_query", p.before("SELECT"))
			}
			return cb.Query().After("gorm:query").Register("otel:after_query", p.after())
		}},
		{"update", func(before bool) error {
			if before {
				return cb.Update().Before("gorm:update").Register("otel:before_update", p.before("UPDATE"))
			}
			return cb.Update().After("gorm:update").Register("otel:after_update", p.after())
		}},
		{"delete", func(before bool) error {
			if before {
				return cb.Delete().Before("gorm:delete").Register("otel:before_delete", p.before("DELETE"))
			}
			return cb.Delete().After("gorm:delete").Register("otel:after_delete", p.after())
		}},
		{"row", func(before bool) error {
			if before {
				return cb.Row().Before("gorm:row").Register("otel:before_row", p.before("ROW"))
			}
			return cb.Row().After("gorm:row").Register("otel:after_row", p.after())
		}},
		{"raw", func(before bool) error {
			if before {
				return cb.Raw().Before("gorm:raw").Register("otel:before_raw", p.before("RAW"))
			}
			return cb.Raw().After("gorm:raw").Register("otel:after_raw", p.after())
		}},
	}
	for _, h := range hooks {
		if err := h.register(true); err != nil {
			return fmt.Errorf("注册%s前置回调失败: %w", h.name, err)
		}
		if err := h.register(false); err != nil {
			return fmt.Errorf("注册%s后置回调失败: %w", h.name, err)
		}
	}
	return nil
}

func (p *GormTracingPlugin) before(operation string) func(db *gorm.DB) {
	return func(db *gorm.DB) {
		if p.disableErrSkip && db.Statement.SkipHooks {
			return
		}
		ctx := db.Statement.Context
		if ctx == nil {
			ctx = context.Background()
		}
		table := db.Statement.Table
		if table == "" {
			table = "unknown"
		}

		newCtx, span := p.tracer.Start(ctx, operation+" "+table,
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(
				attribute.String("db.system", p.dbSystem),
				attribute.String("db.name", p.dbName),
				attribute.String("db.operation", operation),
				attribute.String("db.sql.table", table),
			))
		db.Statement.Context = context.WithValue(newCtx, spanCtxKey{}, span)
	}
}

func (p *GormTracingPlugin) after() func(db *gorm.DB) {
	return func(db *gorm.DB) {
		span, ok := db.Statement.Context.Value(spanCtxKey{}).(trace.Span)
		if !ok {
			return
		}
		defer span.End()

		if sql := db.Statement.SQL.String(); sql != "" {
			span.SetAttributes(attribute.String("db.statement", tracing.SafeSQL(sql)))
		}
		span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))

		switch {
		case db.Error == nil:
			span.SetStatus(codes.Ok, "")
		case db.Error == gorm.ErrRecordNotFound:
			// 查询不到是正常业务结果
			span.SetAttributes(attribute.String("error.type", "record_not_found"))
			span.SetStatus(codes.Ok, "record not found")
		default:
			tracing.RecordError(span, db.Error, tracing.ErrorTypeDB)
		}
	}
}

// Database 关系数据库连接
type Database struct {
	db     *gorm.DB
	driver string
}

// Dialector 按配置选择 GORM 驱动
func Dialector(cfg *config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "mysql":
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local&timeout=%ds&readTimeout=%ds&writeTimeout=%ds",
			cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Database,
			cfg.ConnectTimeoutSeconds, cfg.ReadTimeoutSeconds, cfg.WriteTimeoutSeconds)
		return mysql.Open(dsn), nil
	case "postgres":
		sslMode := cfg.SSLMode
		if sslMode == "" {
			sslMode = "disable"
		}
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s connect_timeout=%d",
			cfg.Host, cfg.Port, cfg.Username, cfg.Password, cfg.Database, sslMode, cfg.ConnectTimeoutSeconds)
		return postgres.Open(dsn), nil
	case "sqlite", "":
		path := cfg.Path
		if path == "" {
			path = ":memory:"
		}
		return sqlite.Open(path), nil
	default:
		return nil, fmt.Errorf("不支持的数据库驱动: %s", cfg.Driver)
	}
}

// NewDatabase 建立连接、注册追踪插件并迁移表结构
func NewDatabase(cfg *config.DatabaseConfig) (*Database, error) {
	if cfg == nil {
		return nil, fmt.Errorf("数据库配置不能为空")
	}
	dialector, err := Dialector(cfg)
	if err != nil {
		return nil, err
	}
	return OpenDatabase(dialector, cfg)
}

// OpenDatabase 使用给定驱动打开数据库，测试中直接传入内存 sqlite
func OpenDatabase(dialector gorm.Dialector, cfg *config.DatabaseConfig) (*Database, error) {
	if cfg == nil {
		cfg = &config.DatabaseConfig{Driver: "sqlite"}
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormlogger.Default.LogMode(gormLogLevel(cfg.LogLevel)),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("连接数据库(%s)失败: %w", cfg.Driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}
	if db.Dialector.Name() == "sqlite" {
		// sqlite 只允许一个写连接，内存库多连接时各自是独立的库
		sqlDB.SetMaxOpenConns(1)
	} else {
		if cfg.MaxIdleConns > 0 {
			sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		}
		if cfg.MaxOpenConns > 0 {
			sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		}
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)
		sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTimeMinutes) * time.Minute)
	}

	if err := db.Use(NewGormTracingPlugin(db.Dialector.Name(), cfg.Database)); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("注册追踪插件失败: %w", err)
	}

	d := &Database{db: db, driver: db.Dialector.Name()}
	if err := d.autoMigrateSchema(); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return d, nil
}

func gormLogLevel(level int) gormlogger.LogLevel {
	switch level {
	case 1:
		return gormlogger.Silent
	case 2:
		return gormlogger.Error
	case 3:
		return gormlogger.Warn
	case 4:
		return gormlogger.Info
	default:
		return gormlogger.Error
	}
}

// autoMigrateSchema 迁移时使用静默日志，避免打印大量 DDL
func (d *Database) autoMigrateSchema() error {
	silentLogger := gormlogger.New(
		log.New(log.Writer(), "", log.LstdFlags),
		gormlogger.Config{LogLevel: gormlogger.Silent, IgnoreRecordNotFoundError: true},
	)
	if err := d.db.Session(&gorm.Session{Logger: silentLogger}).AutoMigrate(
		&models.Candidate{},
		&models.OutboxMessage{},
	); err != nil {
		return fmt.Errorf("GORM自动迁移失败: %w", err)
	}
	return nil
}

// DB 返回 GORM 连接
func (d *Database) DB() *gorm.DB {
	return d.db
}

// Driver 驱动名称：mysql、postgres 或 sqlite
func (d *Database) Driver() string {
	return d.driver
}

// Ping 检查连接
func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close 关闭连接
func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}
	return sqlDB.Close()
}
