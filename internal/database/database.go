package database

import (
	"context"
	"fmt"
	"time"

	"github.com/kc-allan/at-insurance/internal/config"
	"github.com/kc-allan/at-insurance/internal/models"
	"github.com/kc-allan/at-insurance/pkg/logging"

	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

var (
	DB          *gorm.DB
	RedisClient *redis.Client
)

// InitDatabase initializes database connection
func InitDatabase() error {
	// Initialize PostgreSQL
	if err := initPostgres(); err != nil {
		return fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}

	// Initialize Redis
	if err := initRedis(); err != nil {
		return fmt.Errorf("failed to initialize Redis: %w", err)
	}

	// Auto migrate tables
	if err := autoMigrate(); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	// Insert default data
	if err := seedPolicies(); err != nil {
		return fmt.Errorf("failed to seed policies: %w", err)
	}

	return nil
}

// initPostgres initializes PostgreSQL connection
func initPostgres() error {
	var err error
	var dsn string

	// Get database URL from environment
	if dsn = config.AppConfig.DatabaseURL; dsn == "" {
		// Fallback to SQLite for development
		logging.Infof("Database URL not set, using SQLite for development")
		DB, err = gorm.Open(sqlite.Open("at-insurance.db"), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Warn),
			NamingStrategy: schema.NamingStrategy{
				SingularTable: true,
			},
		})
	} else {
		// Use PostgreSQL for production
		DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Warn),
			NamingStrategy: schema.NamingStrategy{
				SingularTable: true,
			},
		})
	}

	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	logging.Infof("Database connected successfully")
	return nil
}

// initRedis initializes Redis connection
func initRedis() error {
	redisURL := config.AppConfig.RedisURL
	if redisURL == "" {
		return fmt.Errorf("REDIS_URL is not set")
	}

	logging.Infof("Connecting to Redis: %s", maskRedisURL(redisURL))

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	RedisClient = redis.NewClient(opt)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := RedisClient.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logging.Infof("Redis connected successfully")
	return nil
}

// maskRedisURL masks sensitive information in Redis URL for logging
func maskRedisURL(url string) string {
	if len(url) > 20 {
		return url[:10] + "***" + url[len(url)-10:]
	}
	return "***"
}

// autoMigrate performs database migration
func autoMigrate() error {
	return DB.AutoMigrate(
		&models.Farmer{},
		&models.Policy{},
		&models.Subscription{},
		&models.Claim{},
		&models.Document{},
		&models.PaymentTransaction{},
	)
}

// seedPolicies inserts the starter policy catalog so a fresh install
// has something to subscribe to
func seedPolicies() error {
	var count int64
	if err := DB.Model(&models.Policy{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	defaults := []models.Policy{
		{
			Name:          "Maize Cover Basic",
			PolicyType:    models.PolicyTypeCrop,
			Description:   "Seasonal cover for maize against drought, flood and pest damage",
			Coverage:      "Drought, excess rainfall, pests and disease",
			BasePremium:   1000,
			PremiumRate:   5,
			MinSumInsured: 10000,
			MaxSumInsured: 1000000,
		},
		{
			Name:          "Dairy Herd Protect",
			PolicyType:    models.PolicyTypeLivestock,
			Description:   "Cover for dairy cattle against death from disease or accident",
			Coverage:      "Death by disease, accident, fire or lightning",
			BasePremium:   2500,
			PremiumRate:   7.5,
			MinSumInsured: 50000,
			MaxSumInsured: 5000000,
		},
		{
			Name:          "Weather Index Shield",
			PolicyType:    models.PolicyTypeWeatherIndex,
			Description:   "Index-based payout triggered by rainfall measurements",
			Coverage:      "Rainfall deficit or excess against the seasonal index",
			BasePremium:   500,
			PremiumRate:   4,
			MinSumInsured: 10000,
			MaxSumInsured: 2000000,
		},
	}

	if err := DB.Create(&defaults).Error; err != nil {
		return fmt.Errorf("failed to create default policies: %w", err)
	}

	logging.Infof("Seeded %d default policies", len(defaults))
	return nil
}

// GetDB returns database instance
func GetDB() *gorm.DB {
	return DB
}

// GetRedis returns Redis client
func GetRedis() *redis.Client {
	return RedisClient
}

// CloseDatabase closes database connections
func CloseDatabase() error {
	if sqlDB, err := DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logging.Errorf("Failed to close database: %v", err)
		}
	}

	if RedisClient != nil {
		if err := RedisClient.Close(); err != nil {
			logging.Errorf("Failed to close Redis: %v", err)
		}
	}

	return nil
}
