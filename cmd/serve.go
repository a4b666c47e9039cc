package cmd

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/anoixa/pixly/api/core"
	"github.com/anoixa/pixly/config"
	"github.com/anoixa/pixly/database"
	"github.com/anoixa/pixly/internal/app"
	"github.com/anoixa/pixly/utils"
	"github.com/spf13/cobra"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start API server",
	Run: func(cmd *cobra.Command, args []string) {
		RunServer()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// newContainer 加载配置并初始化容器
func newContainer() *app.Container {
	config.InitConfig()
	cfg := config.Get()

	container := app.NewContainer(cfg)
	if err := container.Init(); err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	return container
}

func RunServer() {
	container := newContainer()
	cfg := container.Config()

	log.Printf("[Database] Running auto migration")
	if err := database.AutoMigrate(container.DB()); err != nil {
		log.Fatalf("Failed to auto migrate database: %v", err)
	}

	// 启动时清理残留临时文件
	utils.SafeGo("temp-cleanup", func() {
		if n := cleanOldTempFiles(cfg.TempDir, 24*time.Hour); n > 0 {
			log.Printf("[Cleanup] Removed %d stale temp files", n)
		}
	})

	server, cleanup := core.StartServer(cfg, &core.ServerDependencies{
		DB:            container.DB(),
		Storage:       container.Storage(),
		CacheProvider: container.Cache(),
		Photos:        container.Photos(),
	})
	go func() {
		log.Printf("Server started on %s", cfg.Addr())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// 处理退出signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	if cleanup != nil {
		cleanup()
	}

	if err := container.Close(); err != nil {
		log.Printf("Error closing container: %v", err)
	}

	log.Println("Server exited successfully")
}

// cleanOldTempFiles 清理超过 maxAge 的临时文件，返回删除数量
func cleanOldTempFiles(tempDir string, maxAge time.Duration) int {
	if tempDir == "" {
		return 0
	}

	entries, err := os.ReadDir(tempDir)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Failed to read temp directory: %v", err)
		}
		return 0
	}

	removed := 0
	cutoff := time.Now().Add(-maxAge)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			path := filepath.Join(tempDir, entry.Name())
			if err := os.Remove(path); err != nil {
				log.Printf("Failed to remove old temp file %s: %v", path, err)
				continue
			}
			removed++
		}
	}
	return removed
}
