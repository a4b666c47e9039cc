package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/anoixa/pixly/cache"
	"github.com/anoixa/pixly/config"
	"github.com/spf13/cobra"
)

// cacheCmd 缓存管理命令
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Cache management commands",
}

// cacheClearCmd 清除缓存命令
var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear cached responses and images",
	Long: `Clear every cached API response and image body written by pixly.
Only meaningful for the redis cache; the memory cache lives inside the server process.`,
	Run: func(cmd *cobra.Command, args []string) {
		config.InitConfig()
		provider, err := cache.NewProvider(config.Get())
		if err != nil {
			log.Fatalf("Cache clear failed: %v", err)
		}
		defer provider.Close()

		if err := runCacheClear(cmd.Context(), provider); err != nil {
			log.Fatalf("Cache clear failed: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}

// runCacheClear 执行缓存清理
func runCacheClear(ctx context.Context, provider cache.Provider) error {
	if ctx == nil {
		ctx = context.Background()
	}
	log.Printf("Cache provider: %s", provider.Name())

	if err := cache.NewClearAll(provider).Invalidate(ctx, cache.ScopeAll); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	log.Println("Cache cleared successfully")
	return nil
}
