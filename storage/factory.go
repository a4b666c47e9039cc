package storage

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/anoixa/pixly/config"
)

// 存储类型
const (
	TypeLocal  = "local"
	TypeMinio  = "minio"
	TypeWebDAV = "webdav"
)

// NewProvider 根据配置创建存储提供者
func NewProvider(cfg *config.Config) (Provider, error) {
	storageType := strings.ToLower(strings.TrimSpace(cfg.StorageType))
	if storageType == "" {
		storageType = TypeLocal
	}

	var (
		provider Provider
		err      error
	)

	switch storageType {
	case TypeLocal:
		provider, err = NewLocalStorage(cfg.StorageLocalPath)
	case TypeMinio:
		provider, err = NewMinioStorage(MinioConfig{
			Endpoint:        cfg.StorageMinioEndpoint,
			AccessKeyID:     cfg.StorageMinioAccessKey,
			SecretAccessKey: cfg.StorageMinioSecretKey,
			BucketName:      cfg.StorageMinioBucket,
			UseSSL:          cfg.StorageMinioUseSSL,
		})
	case TypeWebDAV:
		provider, err = NewWebDAVStorage(WebDAVConfig{
			URL:      cfg.StorageWebDAVURL,
			Username: cfg.StorageWebDAVUsername,
			Password: cfg.StorageWebDAVPassword,
			RootPath: cfg.StorageWebDAVRoot,
			Timeout:  30 * time.Second,
		})
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.StorageType)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s storage: %w", storageType, err)
	}

	log.Printf("[Storage] Using %s storage", provider.Name())
	return provider, nil
}
