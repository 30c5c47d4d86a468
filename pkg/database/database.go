package database

import (
	"fmt"
	"log/slog"

	"github.com/Eursukkul/hotel-booking/reservation-service/internal/models"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects with the given driver ("postgres" or "mysql") and migrates the schema.
func Open(driver, dsn string, log *slog.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres", "":
		dialector = postgres.Open(dsn)
	case "mysql":
		dialector = mysql.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := Migrate(db, log); err != nil {
		return nil, err
	}
	return db, nil
}

func Migrate(db *gorm.DB, log *slog.Logger) error {
	if err := db.AutoMigrate(
		&models.Room{},
		&models.Reservation{},
		&models.GuestProfile{},
		&models.IdentityDocument{},
		&models.PaymentAuth{},
		&models.BiometricCheck{},
		&models.DigitalKey{},
		&models.AuditRecord{},
	); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}

	if db.Dialector.Name() != "postgres" {
		return nil
	}

	// Exclusion constraint: no two active reservations on one room may share a night.
	// The booking transaction locks the room row first; this is the storage-level backstop.
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS btree_gist`).Error; err != nil {
		log.Warn("btree_gist unavailable, overlap guarded by row locks only", "error", err)
		return nil
	}
	if err := db.Exec(`
		DO $$ BEGIN
			IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'reservations_no_overlap') THEN
				ALTER TABLE reservations ADD CONSTRAINT reservations_no_overlap
				EXCLUDE USING gist (room_id WITH =, daterange(check_in_date, check_out_date, '[)') WITH &&)
				WHERE (status IN ('pending', 'confirmed', 'checked_in'));
			END IF;
		END $$;
	`).Error; err != nil {
		log.Warn("failed to create reservations_no_overlap constraint", "error", err)
	}
	return nil
}
