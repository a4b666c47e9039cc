// Package app 组装数据库、存储、缓存与照片服务
package app

import (
	"fmt"
	"log"

	"github.com/anoixa/pixly/cache"
	"github.com/anoixa/pixly/config"
	"github.com/anoixa/pixly/database"
	photorepo "github.com/anoixa/pixly/database/repo/photos"
	"github.com/anoixa/pixly/internal/photos"
	"github.com/anoixa/pixly/storage"
	"gorm.io/gorm"
)

// Container 依赖注入容器 - 管理所有服务的生命周期
type Container struct {
	config *config.Config

	db      *gorm.DB
	storage storage.Provider
	gateway *storage.Gateway
	cache   cache.Provider

	PhotosRepo *photorepo.Repository
	photos     *photos.Service
}

// NewContainer 创建新的依赖注入容器
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config: cfg,
	}
}

func logIfDev(format string, args ...interface{}) {
	if config.IsDevelopment() {
		log.Printf("[Container] "+format, args...)
	}
}

// Init 初始化全部组件
func (c *Container) Init() error {
	if err := c.InitDatabase(); err != nil {
		return err
	}
	if err := c.InitStorage(); err != nil {
		return err
	}
	if err := c.InitCache(); err != nil {
		return err
	}
	c.InitServices()
	return nil
}

// InitDatabase 打开数据库并创建仓库
func (c *Container) InitDatabase() error {
	db, err := database.NewDB(c.config)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	c.db = db
	c.PhotosRepo = photorepo.NewRepository(db)
	logIfDev("Database initialized")
	return nil
}

// InitStorage 初始化对象存储
func (c *Container) InitStorage() error {
	provider, err := storage.NewProvider(c.config)
	if err != nil {
		return err
	}
	c.storage = provider
	c.gateway = storage.NewGateway(provider)
	logIfDev("Storage initialized")
	return nil
}

// InitCache 初始化响应缓存
func (c *Container) InitCache() error {
	provider, err := cache.NewProvider(c.config)
	if err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}
	c.cache = provider
	logIfDev("Cache initialized (%s)", provider.Name())
	return nil
}

// InitServices 创建照片服务，需要先完成数据库与存储初始化
func (c *Container) InitServices() {
	var invalidator cache.Invalidator = cache.Noop{}
	if c.cache != nil {
		invalidator = cache.NewClearAll(c.cache)
	}
	c.photos = photos.NewService(c.PhotosRepo, c.gateway, invalidator, c.config)
	logIfDev("Services initialized")
}

// Config 获取配置
func (c *Container) Config() *config.Config {
	return c.config
}

// DB 获取数据库连接
func (c *Container) DB() *gorm.DB {
	return c.db
}

// Storage 获取存储提供者
func (c *Container) Storage() storage.Provider {
	return c.storage
}

// Cache 获取缓存提供者，未初始化时为 nil
func (c *Container) Cache() cache.Provider {
	return c.cache
}

// Photos 获取照片服务
func (c *Container) Photos() *photos.Service {
	return c.photos
}

// Close 关闭所有服务
func (c *Container) Close() error {
	logIfDev("Closing")

	if c.cache != nil {
		if err := c.cache.Close(); err != nil {
			log.Printf("[Container] Error closing cache: %v", err)
		}
	}

	if c.db != nil {
		if err := database.Close(c.db); err != nil {
			return fmt.Errorf("failed to close database: %w", err)
		}
	}
	return nil
}
