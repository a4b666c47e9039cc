package database

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/anoixa/pixly/config"
	"github.com/anoixa/pixly/database/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const defaultSQLitePath = "./data/pixly.db"

// NewDB 按配置打开数据库并完成连通性检查
func NewDB(cfg *config.Config) (*gorm.DB, error) {
	dialector, desc, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 newGormLogger(config.IsDevelopment()),
		PrepareStmt:            true,
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", desc, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	applyPool(sqlDB, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to reach %s: %w", desc, err)
	}

	log.Printf("[Database] Connected to %s", desc)
	return db, nil
}

// dialectorFor 返回 gorm 方言及用于日志的描述，描述中不含密码
func dialectorFor(cfg *config.Config) (gorm.Dialector, string, error) {
	switch strings.ToLower(cfg.DBType) {
	case "", "sqlite", "sqlite3":
		path := cfg.DBFilePath
		if path == "" {
			path = defaultSQLitePath
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, "", fmt.Errorf("failed to create database directory: %w", err)
		}
		return sqlite.Open(path + "?_journal_mode=WAL&_busy_timeout=5000"), "sqlite " + path, nil

	case "postgres", "postgresql":
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
			cfg.DBHost, cfg.DBPort, cfg.DBUsername, cfg.DBPassword, cfg.DBName)
		desc := fmt.Sprintf("postgres %s@%s:%d/%s", cfg.DBUsername, cfg.DBHost, cfg.DBPort, cfg.DBName)
		return postgres.Open(dsn), desc, nil

	default:
		return nil, "", fmt.Errorf("unsupported database type: %s", cfg.DBType)
	}
}

// newGormLogger 开发环境输出全部 SQL，其余环境只保留慢查询阈值
func newGormLogger(verbose bool) logger.Interface {
	level := logger.Silent
	if verbose {
		level = logger.Info
	}
	return logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			Colorful:                  verbose,
		},
	)
}

type poolSetter interface {
	SetMaxOpenConns(n int)
	SetMaxIdleConns(n int)
	SetConnMaxLifetime(d time.Duration)
}

func applyPool(p poolSetter, cfg *config.Config) {
	if cfg.DBMaxOpenConns > 0 {
		p.SetMaxOpenConns(cfg.DBMaxOpenConns)
	}
	if cfg.DBMaxIdleConns > 0 {
		p.SetMaxIdleConns(cfg.DBMaxIdleConns)
	}
	if cfg.DBConnMaxLifetime > 0 {
		p.SetConnMaxLifetime(time.Duration(cfg.DBConnMaxLifetime) * time.Second)
	}
}

// AutoMigrate 迁移 photos 表
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Photo{}); err != nil {
		return fmt.Errorf("failed to migrate photos: %w", err)
	}
	return nil
}

// Close 关闭底层连接
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
