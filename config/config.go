package config

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/spf13/viper"
)

var (
	globalConfig Config
	once         sync.Once
)

// Config 扁平化配置结构体
type Config struct {
	// 服务器配置
	ServerHost         string        `mapstructure:"server_host"`
	ServerPort         int           `mapstructure:"server_port"`
	ServerDomain       string        `mapstructure:"server_domain"`
	ServerReadTimeout  time.Duration `mapstructure:"server_read_timeout"`
	ServerWriteTimeout time.Duration `mapstructure:"server_write_timeout"`
	ServerIdleTimeout  time.Duration `mapstructure:"server_idle_timeout"`

	// 数据库配置
	DBType             string `mapstructure:"db_type"`
	DBHost             string `mapstructure:"db_host"`
	DBPort             int    `mapstructure:"db_port"`
	DBUsername         string `mapstructure:"db_username"`
	DBPassword         string `mapstructure:"db_password"`
	DBName             string `mapstructure:"db_name"`
	DBFilePath         string `mapstructure:"db_file_path"`
	DBMaxOpenConns     int    `mapstructure:"db_max_open_conns"`
	DBMaxIdleConns     int    `mapstructure:"db_max_idle_conns"`
	DBConnMaxLifetime  int    `mapstructure:"db_conn_max_lifetime"`
	DBLegacyExifRepair bool   `mapstructure:"db_legacy_exif_repair"`

	// 存储配置
	StorageType           string `mapstructure:"storage_type"`
	StorageLocalPath      string `mapstructure:"storage_local_path"`
	StorageMinioEndpoint  string `mapstructure:"storage_minio_endpoint"`
	StorageMinioAccessKey string `mapstructure:"storage_minio_access_key"`
	StorageMinioSecretKey string `mapstructure:"storage_minio_secret_key"`
	StorageMinioBucket    string `mapstructure:"storage_minio_bucket"`
	StorageMinioUseSSL    bool   `mapstructure:"storage_minio_use_ssl"`
	StorageWebDAVURL      string `mapstructure:"storage_webdav_url"`
	StorageWebDAVUsername string `mapstructure:"storage_webdav_username"`
	StorageWebDAVPassword string `mapstructure:"storage_webdav_password"`
	StorageWebDAVRoot     string `mapstructure:"storage_webdav_root"`

	// 缓存配置
	CacheType          string        `mapstructure:"cache_type"`
	CacheRedisAddr     string        `mapstructure:"cache_redis_addr"`
	CacheRedisPassword string        `mapstructure:"cache_redis_password"`
	CacheRedisDB       int           `mapstructure:"cache_redis_db"`
	CacheResponseTTL   time.Duration `mapstructure:"cache_response_ttl"`
	CacheMaxItemMB     int           `mapstructure:"cache_max_item_mb"`

	// 限流配置
	RateLimitApiRPS     float64       `mapstructure:"rate_limit_api_rps"`
	RateLimitApiBurst   int           `mapstructure:"rate_limit_api_burst"`
	RateLimitImageRPS   float64       `mapstructure:"rate_limit_image_rps"`
	RateLimitImageBurst int           `mapstructure:"rate_limit_image_burst"`
	RateLimitExpireTime time.Duration `mapstructure:"rate_limit_expire_time"`

	// 上传配置
	UploadMaxSizeMB int    `mapstructure:"upload_max_size_mb"`
	TempDir         string `mapstructure:"temp_dir"`
	MaxConcurrency  int64  `mapstructure:"max_concurrency"`

	// 编辑与还原请求的并发上限，0 表示按 CPU 数
	EditMaxConcurrency int64 `mapstructure:"edit_max_concurrency"`

	// clean 命令不检查创建时间晚于该窗口的记录，0 表示检查全部
	CleanOrphanGrace time.Duration `mapstructure:"clean_orphan_grace"`
}

// InitConfig 加载全局配置，只执行一次
func InitConfig() {
	once.Do(func() {
		cfg, err := Load(viper.GetViper(), viper.GetString("config_file_path"))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
			os.Exit(1)
		}
		globalConfig = *cfg
	})
}

func Get() *Config {
	return &globalConfig
}

// Load 依次读取默认值、配置文件与环境变量
// path 为空时尝试当前目录下的 .env，文件缺失不视为错误
func Load(v *viper.Viper, path string) (*Config, error) {
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigFile(".env")
		v.SetConfigType("env")
	}

	if err := v.ReadInConfig(); err != nil {
		if path != "" && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		fmt.Fprintln(os.Stderr, "Info: config file not found, using defaults and environment variables")
	} else {
		fmt.Fprintf(os.Stderr, "Info: Loaded configuration from %s\n", v.ConfigFileUsed())
	}

	v.AutomaticEnv()
	for _, key := range v.AllKeys() {
		_ = v.BindEnv(key)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var defaults = map[string]any{
	"server_host":          "127.0.0.1",
	"server_port":          8080,
	"server_domain":        "",
	"server_read_timeout":  "15s",
	"server_write_timeout": "30s",
	"server_idle_timeout":  "120s",

	"db_type":               "sqlite",
	"db_host":               "localhost",
	"db_port":               5432,
	"db_username":           "postgres",
	"db_password":           "",
	"db_name":               "pixly",
	"db_file_path":          "./data/pixly.db",
	"db_max_open_conns":     100,
	"db_max_idle_conns":     25,
	"db_conn_max_lifetime":  3600,
	"db_legacy_exif_repair": false,

	"storage_type":             "local",
	"storage_local_path":       "./data/photos",
	"storage_minio_endpoint":   "",
	"storage_minio_access_key": "",
	"storage_minio_secret_key": "",
	"storage_minio_bucket":     "pixly",
	"storage_minio_use_ssl":    false,
	"storage_webdav_url":       "",
	"storage_webdav_username":  "",
	"storage_webdav_password":  "",
	"storage_webdav_root":      "/pixly",

	"cache_type":           "memory",
	"cache_redis_addr":     "localhost:6379",
	"cache_redis_password": "",
	"cache_redis_db":       0,
	"cache_response_ttl":   "10m",
	"cache_max_item_mb":    10,

	"rate_limit_api_rps":     30.0,
	"rate_limit_api_burst":   60,
	"rate_limit_image_rps":   100.0,
	"rate_limit_image_burst": 200,
	"rate_limit_expire_time": "10m",

	"upload_max_size_mb": 50,
	"temp_dir":           "./data/temp",
	"max_concurrency":    100,

	"edit_max_concurrency": 0,
	"clean_orphan_grace":   "1h",
}

// Validate 检查后端类型与数值范围
func (c *Config) Validate() error {
	switch c.DBType {
	case "", "sqlite", "sqlite3", "postgres", "postgresql":
	default:
		return fmt.Errorf("invalid db_type %q", c.DBType)
	}
	switch c.StorageType {
	case "", "local", "minio", "webdav":
	default:
		return fmt.Errorf("invalid storage_type %q", c.StorageType)
	}
	switch c.CacheType {
	case "", "memory", "redis":
	default:
		return fmt.Errorf("invalid cache_type %q", c.CacheType)
	}
	if c.ServerPort < 0 || c.ServerPort > 65535 {
		return fmt.Errorf("invalid server_port %d", c.ServerPort)
	}
	if c.UploadMaxSizeMB < 0 || c.CacheMaxItemMB < 0 {
		return fmt.Errorf("size limits must not be negative")
	}
	if c.CleanOrphanGrace < 0 {
		return fmt.Errorf("invalid clean_orphan_grace %s", c.CleanOrphanGrace)
	}
	return nil
}

// Addr 返回监听地址，格式为 "host:port"
func (c *Config) Addr() string {
	host := c.ServerHost
	if host == "" {
		host = "0.0.0.0"
	}
	port := c.ServerPort
	if port == 0 {
		port = 8080
	}
	return fmt.Sprintf("%s:%d", host, port)
}

// BaseURL 返回基础 URL，用于生成图片链接
func (c *Config) BaseURL() string {
	if c.ServerDomain != "" {
		return c.ServerDomain
	}
	host := c.ServerHost
	if host == "0.0.0.0" || host == "" {
		host = "localhost"
	}
	return fmt.Sprintf("http://%s:%d", host, c.ServerPort)
}

// MaxUploadBytes 单文件上传大小上限
func (c *Config) MaxUploadBytes() int64 {
	if c.UploadMaxSizeMB <= 0 {
		return 50 << 20
	}
	return int64(c.UploadMaxSizeMB) << 20
}
