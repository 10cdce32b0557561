package database

import (
	"context"

	"realestate/server/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const companyNotFound = "Company not found"

func (d *Database) ListCompanies(ctx context.Context) ([]models.Company, error) {
	var companies []models.Company
	if err := d.db.WithContext(ctx).Order("id ASC").Find(&companies).Error; err != nil {
		return nil, translate(err, "list companies", "", "")
	}
	return companies, nil
}

func (d *Database) GetCompany(ctx context.Context, id uint) (*models.Company, error) {
	var company models.Company
	if err := d.db.WithContext(ctx).First(&company, id).Error; err != nil {
		return nil, translate(err, "get company", companyNotFound, "")
	}
	return &company, nil
}

// GetCompanyBySlug loads a company. With withProjects set, its projects are
// loaded in display order.
func (d *Database) GetCompanyBySlug(ctx context.Context, slug string, withProjects bool) (*models.Company, error) {
	q := d.db.WithContext(ctx)
	if withProjects {
		q = q.Preload("Projects", func(db *gorm.DB) *gorm.DB {
			return orderProjects(db)
		})
	}

	var company models.Company
	if err := q.Where("slug = ?", slug).First(&company).Error; err != nil {
		return nil, translate(err, "get company", companyNotFound, "")
	}
	return &company, nil
}

// CompanySlugTaken reports whether another company already uses slug.
func (d *Database) CompanySlugTaken(ctx context.Context, slug string, excludeID uint) (bool, error) {
	var count int64
	q := d.db.WithContext(ctx).Model(&models.Company{}).Where("slug = ?", slug)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, translate(err, "check company slug", "", "")
	}
	return count > 0, nil
}

func (d *Database) CreateCompany(ctx context.Context, company *models.Company) error {
	err := d.db.WithContext(ctx).Omit(clause.Associations).Create(company).Error
	return translate(err, "create company", "", "slug exists")
}

func (d *Database) SaveCompany(ctx context.Context, company *models.Company) error {
	err := d.db.WithContext(ctx).Omit(clause.Associations).Save(company).Error
	return translate(err, "update company", companyNotFound, "slug exists")
}

// DeleteCompany removes the company with its projects and their units in one
// transaction.
func (d *Database) DeleteCompany(ctx context.Context, id uint) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var company models.Company
		if err := tx.First(&company, id).Error; err != nil {
			return translate(err, "get company", companyNotFound, "")
		}

		var projectIDs []uint
		if err := tx.Model(&models.Project{}).Where("company_id = ?", id).Pluck("id", &projectIDs).Error; err != nil {
			return translate(err, "list company projects", "", "")
		}

		var units int64
		if len(projectIDs) > 0 {
			res := tx.Where("project_id IN ?", projectIDs).Delete(&models.Unit{})
			if res.Error != nil {
				return translate(res.Error, "delete units", "", "")
			}
			units = res.RowsAffected

			if err := tx.Where("company_id = ?", id).Delete(&models.Project{}).Error; err != nil {
				return translate(err, "delete projects", "", "")
			}
		}

		if err := tx.Delete(&company).Error; err != nil {
			return translate(err, "delete company", "", "")
		}

		d.logger.WithFields(logrus.Fields{
			"company_id": id,
			"slug":       company.Slug,
			"projects":   len(projectIDs),
			"units":      units,
		}).Info("Deleted company")
		return nil
	})
}
