package db

import (
	"fmt"
	"regexp"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"veryus/internal/config"
	"veryus/internal/models"
	"veryus/internal/utils"
)

// Open connects to the configured database, migrates the schema and promotes the seed admin.
func Open(cfg config.DatabaseConfig, log zerolog.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.URL)
	default:
		dialector = postgres.Open(cfg.URL)
	}

	conn, err := gorm.Open(dialector, &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Warn)})
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", cfg.Driver, err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.MaxLifetime)
	log.Info().Str("driver", cfg.Driver).Msg("database connection established")

	if err := Migrate(conn); err != nil {
		return nil, err
	}
	log.Info().Msg("database migration completed")

	if cfg.AdminEmail != "" {
		if err := SeedAdmin(conn, cfg.AdminEmail, log); err != nil {
			return nil, err
		}
	}
	return conn, nil
}

// Migrate creates or updates every table.
func Migrate(conn *gorm.DB) error {
	err := conn.AutoMigrate(
		&models.User{},
		&models.Post{},
		&models.Comment{},
		&models.Notification{},
		&models.Message{},
		&models.Contest{},
		&models.ContestGrade{},
		&models.RoomBooking{},
		&models.RoomBlock{},
		&models.RoomDay{},
		&models.GradeLog{},
		&models.SpecialMoment{},
		&models.Report{},
	)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// SeedAdmin gives the admin role to the account registered with email, if it exists yet.
func SeedAdmin(conn *gorm.DB, email string, log zerolog.Logger) error {
	res := conn.Model(&models.User{}).
		Where("email = ? AND role <> ?", email, utils.RoleAdmin).
		Update("role", utils.RoleAdmin)
	if res.Error != nil {
		return fmt.Errorf("seed admin: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		log.Info().Str("email", email).Msg("admin role granted")
	}
	return nil
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9_]`)

// OpenMemory opens a migrated private in-memory SQLite database. name keeps parallel
// callers apart; tests pass t.Name().
func OpenMemory(name string) (*gorm.DB, error) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", unsafeName.ReplaceAllString(name, "_"))
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:  gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return nil, err
	}
	// The database lives as long as its single connection.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetConnMaxLifetime(0)
	if err := Migrate(conn); err != nil {
		return nil, err
	}
	return conn, nil
}
