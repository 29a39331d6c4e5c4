package db

import (
	"log"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/pxjin/opencode-deck/internal/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// InitDB initializes the SQLite database connection and runs migrations.
func InitDB(dbPath string) (*gorm.DB, error) {
	database, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	// Auto-migrate all models
	if err := database.AutoMigrate(&models.Config{}, &models.RequestLog{}); err != nil {
		return nil, err
	}

	ensureInstallID(database)

	return database, nil
}

// ensureInstallID generates a stable install identifier on first run.
// It tags monitor records and lets the dashboard distinguish installs.
func ensureInstallID(database *gorm.DB) {
	var config models.Config
	result := database.Where("key = ?", "install_id").First(&config)

	if result.Error != nil {
		id := uuid.New().String()
		database.Create(&models.Config{
			Key:   "install_id",
			Value: id,
		})
		log.Printf("🆔 Generated install id: %s", id)
	}
}

// GetConfigValue retrieves a config value by key, empty string if missing.
func GetConfigValue(database *gorm.DB, key string) string {
	var config models.Config
	database.Where("key = ?", key).First(&config)
	return config.Value
}

// SetConfigValue upserts a config key/value pair.
func SetConfigValue(database *gorm.DB, key, value string) error {
	var config models.Config
	if err := database.Where("key = ?", key).First(&config).Error; err != nil {
		return database.Create(&models.Config{Key: key, Value: value}).Error
	}
	return database.Model(&models.Config{}).Where("key = ?", key).Update("value", value).Error
}
