package db

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"agora/internal/models"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to Postgres with driver errors translated to gorm's
// sentinels, migrates the schema and seeds the default communities.
func Open(ctx context.Context, dsn string) (*gorm.DB, error) {
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger: logger.New(log.New(os.Stdout, "\r\n", log.LstdFlags), logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	zap.L().Info("database connection established")

	if err := Migrate(ctx, gdb); err != nil {
		return nil, err
	}
	return gdb, nil
}

func Migrate(ctx context.Context, gdb *gorm.DB) error {
	err := gdb.WithContext(ctx).AutoMigrate(
		&models.User{},
		&models.Community{},
		&models.Post{},
		&models.Comment{},
		&models.Vote{},
		&models.KarmaLog{},
		&models.Notification{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	zap.L().Info("database migration completed")
	return seedCommunities(ctx, gdb)
}

func seedCommunities(ctx context.Context, gdb *gorm.DB) error {
	var count int64
	if err := gdb.WithContext(ctx).Model(&models.Community{}).Count(&count).Error; err != nil {
		return fmt.Errorf("count communities: %w", err)
	}
	if count > 0 {
		return nil
	}

	// 第一个社区是发帖的默认社区 (community_id = 1)
	communities := []models.Community{
		{Name: "general", Description: "Anything goes"},
		{Name: "tech", Description: "Programming, systems and gadgets"},
		{Name: "meta", Description: "Discussion about this site"},
	}
	if err := gdb.WithContext(ctx).Create(&communities).Error; err != nil {
		return fmt.Errorf("seed communities: %w", err)
	}
	zap.L().Info("initial communities created", zap.Int("count", len(communities)))
	return nil
}
