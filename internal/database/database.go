package database

import (
	"fmt"
	"strings"

	"github.com/blues/crowdcampaign/internal/config"
	"github.com/blues/crowdcampaign/internal/model"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

// Models 需要迁移的全部投影表
func Models() []interface{} {
	return []interface{}{
		&model.CampaignModel{},
		&model.ContributorModel{},
		&model.ContentModel{},
		&model.EventModel{},
		&model.DisbursementModel{},
		&model.BalanceModel{},
		&model.FundingModel{},
	}
}

// GormConfig 统一的 gorm 配置，测试中的 sqlite 连接也使用它
func GormConfig(level string) *gorm.Config {
	return &gorm.Config{
		Logger: gormLogger.Default.LogMode(parseLogLevel(level)),
		NamingStrategy: &schema.NamingStrategy{
			SingularTable: true, // 禁用复数表名
		},
	}
}

func Init(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)

	db, err := gorm.Open(postgres.Open(dsn), GormConfig(cfg.LogLevel))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate 自动迁移
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

func parseLogLevel(level string) gormLogger.LogLevel {
	switch strings.ToLower(level) {
	case "error":
		return gormLogger.Error
	case "warn", "warning":
		return gormLogger.Warn
	case "info":
		return gormLogger.Info
	default:
		return gormLogger.Silent
	}
}
