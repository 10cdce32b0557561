package database

import (
	"context"
	"fmt"

	"realestate/server/internal/apperr"
	"realestate/server/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const projectNotFound = "Project not found"

type ProjectFilter struct {
	CompanyID *uint
	Status    string
}

// orderProjects applies display order: explicit order ascending with nulls
// last, then newest first.
func orderProjects(db *gorm.DB) *gorm.DB {
	return db.
		Order("sort_order IS NULL").
		Order("sort_order ASC").
		Order("created_at DESC").
		Order("id DESC")
}

func (d *Database) ListProjects(ctx context.Context, filter ProjectFilter) ([]models.Project, error) {
	q := d.db.WithContext(ctx).Preload("Company")
	if filter.CompanyID != nil {
		q = q.Where("company_id = ?", *filter.CompanyID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}

	var projects []models.Project
	if err := orderProjects(q).Find(&projects).Error; err != nil {
		return nil, translate(err, "list projects", "", "")
	}
	return projects, nil
}

func (d *Database) GetProject(ctx context.Context, id uint) (*models.Project, error) {
	var project models.Project
	if err := d.db.WithContext(ctx).Preload("Company").First(&project, id).Error; err != nil {
		return nil, translate(err, "get project", projectNotFound, "")
	}
	return &project, nil
}

// ProjectSlugTaken reports whether another project already uses slug.
func (d *Database) ProjectSlugTaken(ctx context.Context, slug string, excludeID uint) (bool, error) {
	var count int64
	q := d.db.WithContext(ctx).Model(&models.Project{}).Where("slug = ?", slug)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, translate(err, "check project slug", "", "")
	}
	return count > 0, nil
}

func (d *Database) CreateProject(ctx context.Context, project *models.Project) error {
	err := d.db.WithContext(ctx).Omit(clause.Associations).Create(project).Error
	return translate(err, "create project", companyNotFound, "slug exists")
}

func (d *Database) SaveProject(ctx context.Context, project *models.Project) error {
	err := d.db.WithContext(ctx).Omit(clause.Associations).Save(project).Error
	return translate(err, "update project", projectNotFound, "slug exists")
}

// ProjectsMissingCoordinates returns projects that have a location but no
// coordinates, oldest first.
func (d *Database) ProjectsMissingCoordinates(ctx context.Context, limit int) ([]models.Project, error) {
	var projects []models.Project
	err := d.db.WithContext(ctx).
		Where("(latitude IS NULL OR longitude IS NULL) AND location <> ''").
		Order("id ASC").
		Limit(limit).
		Find(&projects).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query projects without coordinates: %w", err)
	}
	return projects, nil
}

func (d *Database) SetProjectCoordinates(ctx context.Context, id uint, lat, lng float64) error {
	result := d.db.WithContext(ctx).Model(&models.Project{}).Where("id = ?", id).
		Updates(map[string]any{"latitude": lat, "longitude": lng})
	if result.Error != nil {
		return translate(result.Error, "update project coordinates", projectNotFound, "")
	}
	if result.RowsAffected == 0 {
		return apperr.NotFound("%s", projectNotFound)
	}
	return nil
}

// DeleteProject removes the project and its units in one transaction.
func (d *Database) DeleteProject(ctx context.Context, id uint) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var project models.Project
		if err := tx.First(&project, id).Error; err != nil {
			return translate(err, "get project", projectNotFound, "")
		}
		if err := tx.Where("project_id = ?", id).Delete(&models.Unit{}).Error; err != nil {
			return translate(err, "delete units", "", "")
		}
		if err := tx.Delete(&project).Error; err != nil {
			return translate(err, "delete project", "", "")
		}
		return nil
	})
}
