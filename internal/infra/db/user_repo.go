package db

import (
	"context"
	"errors"

	"github.com/howardstar/f1hub/internal/domain"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*domain.User, error) {
	var model userModel
	if err := r.db.WithContext(ctx).Where("telegram_id = ?", telegramID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return mapUserToDomain(model), nil
}

func (r *UserRepository) GetByID(ctx context.Context, userID uint) (*domain.User, error) {
	var model userModel
	if err := r.db.WithContext(ctx).First(&model, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return mapUserToDomain(model), nil
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	model := mapUserToModel(*user)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return err
	}
	user.ID = model.ID
	user.CreatedAt = model.CreatedAt
	user.UpdatedAt = model.UpdatedAt
	return nil
}

func (r *UserRepository) SetTimezone(ctx context.Context, telegramID int64, timezone string) error {
	return r.updateSetting(ctx, telegramID, "timezone", timezone)
}

func (r *UserRepository) SetNotifyLead(ctx context.Context, telegramID int64, minutes int) error {
	return r.updateSetting(ctx, telegramID, "notify_lead_minutes", minutes)
}

func (r *UserRepository) SetNotificationsEnabled(ctx context.Context, telegramID int64, enabled bool) error {
	return r.updateSetting(ctx, telegramID, "notifications_enabled", enabled)
}

func (r *UserRepository) updateSetting(ctx context.Context, telegramID int64, column string, value interface{}) error {
	result := r.db.WithContext(ctx).
		Model(&userModel{}).
		Where("telegram_id = ?", telegramID).
		Update(column, value)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *UserRepository) ListNotifiable(ctx context.Context) ([]domain.User, error) {
	var models []userModel
	if err := r.db.WithContext(ctx).
		Where("notifications_enabled = ?", true).
		Order("id").
		Find(&models).Error; err != nil {
		return nil, err
	}
	users := make([]domain.User, 0, len(models))
	for _, model := range models {
		users = append(users, *mapUserToDomain(model))
	}
	return users, nil
}

func mapUserToDomain(model userModel) *domain.User {
	return &domain.User{
		ID:                   model.ID,
		TelegramID:           model.TelegramID,
		Username:             model.Username,
		Timezone:             model.Timezone,
		NotifyLeadMinutes:    model.NotifyLeadMinutes,
		NotificationsEnabled: model.NotificationsEnabled,
		CreatedAt:            model.CreatedAt,
		UpdatedAt:            model.UpdatedAt,
	}
}

func mapUserToModel(user domain.User) userModel {
	return userModel{
		ID:                   user.ID,
		TelegramID:           user.TelegramID,
		Username:             user.Username,
		Timezone:             user.Timezone,
		NotifyLeadMinutes:    user.NotifyLeadMinutes,
		NotificationsEnabled: user.NotificationsEnabled,
		CreatedAt:            user.CreatedAt,
		UpdatedAt:            user.UpdatedAt,
	}
}
