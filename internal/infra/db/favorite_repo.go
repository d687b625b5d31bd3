package db

import (
	"context"
	"errors"

	"github.com/howardstar/f1hub/internal/domain"
	"gorm.io/gorm"
)

type FavoriteRepository struct {
	db *gorm.DB
}

func NewFavoriteRepository(db *gorm.DB) *FavoriteRepository {
	return &FavoriteRepository{db: db}
}

func (r *FavoriteRepository) ToggleDriver(ctx context.Context, userID uint, code string) (bool, error) {
	var added bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing favoriteDriverModel
		err := tx.Where("user_id = ? AND driver_code = ?", userID, code).First(&existing).Error
		switch {
		case err == nil:
			added = false
			return tx.Where("user_id = ? AND driver_code = ?", userID, code).
				Delete(&favoriteDriverModel{}).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			added = true
			return tx.Create(&favoriteDriverModel{UserID: userID, DriverCode: code}).Error
		default:
			return err
		}
	})
	return added, err
}

func (r *FavoriteRepository) ToggleTeam(ctx context.Context, userID uint, name string) (bool, error) {
	var added bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing favoriteTeamModel
		err := tx.Where("user_id = ? AND constructor_name = ?", userID, name).First(&existing).Error
		switch {
		case err == nil:
			added = false
			return tx.Where("user_id = ? AND constructor_name = ?", userID, name).
				Delete(&favoriteTeamModel{}).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			added = true
			return tx.Create(&favoriteTeamModel{UserID: userID, ConstructorName: name}).Error
		default:
			return err
		}
	})
	return added, err
}

func (r *FavoriteRepository) ListDrivers(ctx context.Context, userID uint) ([]string, error) {
	var codes []string
	if err := r.db.WithContext(ctx).
		Model(&favoriteDriverModel{}).
		Where("user_id = ?", userID).
		Order("driver_code").
		Pluck("driver_code", &codes).Error; err != nil {
		return nil, err
	}
	return codes, nil
}

func (r *FavoriteRepository) ListTeams(ctx context.Context, userID uint) ([]string, error) {
	var names []string
	if err := r.db.WithContext(ctx).
		Model(&favoriteTeamModel{}).
		Where("user_id = ?", userID).
		Order("constructor_name").
		Pluck("constructor_name", &names).Error; err != nil {
		return nil, err
	}
	return names, nil
}

func (r *FavoriteRepository) ClearDrivers(ctx context.Context, userID uint) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&favoriteDriverModel{}).Error
}

func (r *FavoriteRepository) ClearTeams(ctx context.Context, userID uint) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&favoriteTeamModel{}).Error
}

func (r *FavoriteRepository) ListUsersWithFavorites(ctx context.Context) ([]domain.User, error) {
	var models []userModel
	if err := r.db.WithContext(ctx).
		Distinct("users.*").
		Joins("LEFT JOIN favorite_drivers fd ON fd.user_id = users.id").
		Joins("LEFT JOIN favorite_teams ft ON ft.user_id = users.id").
		Where("fd.user_id IS NOT NULL OR ft.user_id IS NOT NULL").
		Order("users.id").
		Find(&models).Error; err != nil {
		return nil, err
	}
	users := make([]domain.User, 0, len(models))
	for _, model := range models {
		users = append(users, *mapUserToDomain(model))
	}
	return users, nil
}
