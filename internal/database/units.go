package database

import (
	"context"

	"realestate/server/internal/models"

	"gorm.io/gorm"
)

const unitNotFound = "Unit not found"

// UnitFilter narrows a unit listing. Nil fields are not applied.
type UnitFilter struct {
	ProjectID *uint
	MinSqm    *float64
	Status    string
	Bedrooms  *int
	Bathrooms *int
	// MaxPrice bounds the derived total price.
	MaxPrice *int64
	Floor    *string
}

func (d *Database) unitQuery(ctx context.Context, f UnitFilter) *gorm.DB {
	q := d.db.WithContext(ctx).Model(&models.Unit{})
	if f.ProjectID != nil {
		q = q.Where("project_id = ?", *f.ProjectID)
	}
	if f.MinSqm != nil {
		q = q.Where("sqm >= ?", *f.MinSqm)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Bedrooms != nil {
		q = q.Where("bedrooms = ?", *f.Bedrooms)
	}
	if f.Bathrooms != nil {
		q = q.Where("bathrooms = ?", *f.Bathrooms)
	}
	if f.MaxPrice != nil {
		q = q.Where("CAST(sqm * price_per_sqm AS INTEGER) <= ?", *f.MaxPrice)
	}
	if f.Floor != nil {
		q = q.Where("floor = ?", *f.Floor)
	}
	return q
}

// ListUnits returns one page of matching units, newest first, and the total
// number of matches across all pages.
func (d *Database) ListUnits(ctx context.Context, f UnitFilter, page, limit int) ([]models.Unit, int64, error) {
	var total int64
	if err := d.unitQuery(ctx, f).Count(&total).Error; err != nil {
		return nil, 0, translate(err, "count units", "", "")
	}

	var units []models.Unit
	err := d.unitQuery(ctx, f).
		Order("created_at DESC").
		Order("id DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&units).Error
	if err != nil {
		return nil, 0, translate(err, "list units", "", "")
	}
	return units, total, nil
}

func (d *Database) GetUnit(ctx context.Context, id uint) (*models.Unit, error) {
	var unit models.Unit
	if err := d.db.WithContext(ctx).First(&unit, id).Error; err != nil {
		return nil, translate(err, "get unit", unitNotFound, "")
	}
	return &unit, nil
}

func (d *Database) CreateUnit(ctx context.Context, unit *models.Unit) error {
	err := d.db.WithContext(ctx).Create(unit).Error
	return translate(err, "create unit", projectNotFound, "")
}

func (d *Database) SaveUnit(ctx context.Context, unit *models.Unit) error {
	err := d.db.WithContext(ctx).Save(unit).Error
	return translate(err, "update unit", unitNotFound, "")
}

func (d *Database) DeleteUnit(ctx context.Context, id uint) error {
	res := d.db.WithContext(ctx).Delete(&models.Unit{}, id)
	if res.Error != nil {
		return translate(res.Error, "delete unit", "", "")
	}
	if res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "delete unit", unitNotFound, "")
	}
	return nil
}
