package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/anoixa/pixly/database"
	"github.com/anoixa/pixly/internal/photos"
	"github.com/spf13/cobra"
)

// cleanCmd 清理工作副本缺失的孤立记录
var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Find photo records whose working copy is missing",
	Long: `Find photo records whose working copy is missing from storage.
Records created within CLEAN_ORPHAN_GRACE (default 1h) are skipped.
By default only reports what it finds.
  --delete  remove the orphaned records and their leftover originals
  --exif    repair legacy exif rows containing escaped NUL characters`,
	Run: func(cmd *cobra.Command, args []string) {
		remove, _ := cmd.Flags().GetBool("delete")
		repairExif, _ := cmd.Flags().GetBool("exif")

		container := newContainer()
		defer container.Close()

		if err := database.AutoMigrate(container.DB()); err != nil {
			log.Fatalf("Failed to auto migrate database: %v", err)
		}

		stats, err := runClean(cmd.Context(), container.Photos(), remove, repairExif)
		printCleanStats(stats, remove)
		if err != nil {
			log.Fatalf("Clean failed: %v", err)
		}

		if remove {
			if n := cleanOldTempFiles(container.Config().TempDir, 24*time.Hour); n > 0 {
				log.Printf("Removed %d stale temp files", n)
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(cleanCmd)
	cleanCmd.Flags().Bool("delete", false, "Delete orphaned records instead of only reporting them")
	cleanCmd.Flags().Bool("exif", false, "Repair legacy exif rows")
}

// cleanStats 清理统计信息
type cleanStats struct {
	orphans      []uint
	deleted      int64
	exifRepaired int64
}

// orphanCleaner 清理所需的服务能力
type orphanCleaner interface {
	FindOrphans(ctx context.Context) ([]uint, error)
	RemoveOrphans(ctx context.Context, ids []uint) (int64, error)
	RepairExif(ctx context.Context) (int64, error)
}

var _ orphanCleaner = (*photos.Service)(nil)

// runClean 执行清理
func runClean(ctx context.Context, svc orphanCleaner, remove, repairExif bool) (*cleanStats, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	stats := &cleanStats{}

	if repairExif {
		n, err := svc.RepairExif(ctx)
		if err != nil {
			return stats, fmt.Errorf("exif repair failed: %w", err)
		}
		stats.exifRepaired = n
	}

	log.Println("Checking for orphan records...")
	orphans, err := svc.FindOrphans(ctx)
	if err != nil {
		return stats, fmt.Errorf("orphan scan failed: %w", err)
	}
	stats.orphans = orphans

	if !remove {
		for _, id := range orphans {
			log.Printf("[DRY-RUN] Would delete orphan record: ID=%d", id)
		}
		return stats, nil
	}

	n, err := svc.RemoveOrphans(ctx, orphans)
	if err != nil {
		return stats, fmt.Errorf("failed to delete orphan records: %w", err)
	}
	stats.deleted = n
	return stats, nil
}

func printCleanStats(stats *cleanStats, remove bool) {
	if stats == nil {
		return
	}
	log.Println("========== Clean Summary ==========")
	log.Printf("Orphan records found: %d", len(stats.orphans))
	if remove {
		log.Printf("Orphan records deleted: %d", stats.deleted)
	}
	if stats.exifRepaired > 0 {
		log.Printf("Exif rows repaired: %d", stats.exifRepaired)
	}
	log.Println("===================================")
}
