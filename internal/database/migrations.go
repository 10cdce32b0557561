package database

import (
	"fmt"

	"realestate/server/internal/models"
)

func (d *Database) RunMigrations() error {
	if err := d.db.AutoMigrate(
		&models.User{},
		&models.Company{},
		&models.Project{},
		&models.Unit{},
	); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	// Create index backing the proximity filter
	if err := d.db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_projects_coordinates
		ON projects(latitude, longitude);
	`).Error; err != nil {
		return fmt.Errorf("failed to create coordinates index: %w", err)
	}

	return nil
}
