package database

import (
	"context"

	"realestate/server/internal/models"
)

func (d *Database) CreateUser(ctx context.Context, user *models.User) error {
	err := d.db.WithContext(ctx).Create(user).Error
	return translate(err, "create user", "", "User exists")
}

func (d *Database) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := d.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if err != nil {
		return nil, translate(err, "get user", "User not found", "")
	}
	return &user, nil
}

func (d *Database) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := d.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translate(err, "get user", "User not found", "")
	}
	return &user, nil
}

// UsernameTaken reports whether a user with that name exists.
func (d *Database) UsernameTaken(ctx context.Context, username string) (bool, error) {
	var count int64
	err := d.db.WithContext(ctx).Model(&models.User{}).Where("username = ?", username).Count(&count).Error
	if err != nil {
		return false, translate(err, "check username", "", "")
	}
	return count > 0, nil
}
