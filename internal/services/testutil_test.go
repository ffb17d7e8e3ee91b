package services

import (
	"fmt"
	"testing"

	"github.com/kc-allan/at-insurance/internal/config"
	"github.com/kc-allan/at-insurance/internal/models"
	"github.com/kc-allan/at-insurance/pkg/logging"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func init() {
	logging.InitLogging("release")
}

// newTestDB opens an isolated in-memory database with the full schema
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.Farmer{},
		&models.Policy{},
		&models.Subscription{},
		&models.Claim{},
		&models.Document{},
		&models.PaymentTransaction{},
	))
	return db
}

// newTestRedis returns a client backed by an in-process Redis
func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

// setTestConfig installs a minimal application config for the test
func setTestConfig(t *testing.T) {
	t.Helper()

	previous := config.AppConfig
	config.AppConfig = &config.Config{
		JWTSecret:          "test-secret",
		AccessTokenMinutes: 15,
		RefreshTokenHours:  24,
		OTPExpireMinutes:   5,
		OTPRateLimitMins:   1,
		MpesaShortcode:     "174379",
		MpesaEnvironment:   "sandbox",
		MpesaCallbackURL:   "http://localhost:8080/api/payments/callback",
		UploadDir:          t.TempDir(),
	}
	t.Cleanup(func() { config.AppConfig = previous })
}
