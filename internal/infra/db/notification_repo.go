package db

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type NotificationStateRepository struct {
	db *gorm.DB
}

func NewNotificationStateRepository(db *gorm.DB) *NotificationStateRepository {
	return &NotificationStateRepository{db: db}
}

func (r *NotificationStateRepository) LastRemindedRound(ctx context.Context, season int) (int, error) {
	return r.round(ctx, season, "last_reminded_round")
}

func (r *NotificationStateRepository) SetLastRemindedRound(ctx context.Context, season, round int) error {
	return r.advance(ctx, season, "last_reminded_round", round)
}

func (r *NotificationStateRepository) LastNotifiedRound(ctx context.Context, season int) (int, error) {
	return r.round(ctx, season, "last_notified_round")
}

func (r *NotificationStateRepository) SetLastNotifiedRound(ctx context.Context, season, round int) error {
	return r.advance(ctx, season, "last_notified_round", round)
}

func (r *NotificationStateRepository) LastNotifiedQualiRound(ctx context.Context, season int) (int, error) {
	return r.round(ctx, season, "last_notified_quali_round")
}

func (r *NotificationStateRepository) SetLastNotifiedQualiRound(ctx context.Context, season, round int) error {
	return r.advance(ctx, season, "last_notified_quali_round", round)
}

func (r *NotificationStateRepository) round(ctx context.Context, season int, column string) (int, error) {
	var model notificationStateModel
	if err := r.db.WithContext(ctx).First(&model, "season = ?", season).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}
	switch column {
	case "last_reminded_round":
		return model.LastRemindedRound, nil
	case "last_notified_round":
		return model.LastNotifiedRound, nil
	default:
		return model.LastNotifiedQualiRound, nil
	}
}

// advance moves a watermark forward only; a lower round is ignored so the
// value never decreases within a season.
func (r *NotificationStateRepository) advance(ctx context.Context, season int, column string, round int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&notificationStateModel{Season: season}).Error; err != nil {
			return err
		}
		return tx.Model(&notificationStateModel{}).
			Where("season = ? AND "+column+" < ?", season, round).
			Update(column, round).Error
	})
}

func (r *NotificationStateRepository) MarkReminded(ctx context.Context, season, round int, userID uint) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&raceReminderModel{Season: season, Round: round, UserID: userID})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
