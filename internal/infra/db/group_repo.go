package db

import (
	"context"

	"github.com/howardstar/f1hub/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GroupChatRepository struct {
	db *gorm.DB
}

func NewGroupChatRepository(db *gorm.DB) *GroupChatRepository {
	return &GroupChatRepository{db: db}
}

func (r *GroupChatRepository) Add(ctx context.Context, chatID int64, title string) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "chat_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"title"}),
		}).
		Create(&groupChatModel{ChatID: chatID, Title: title}).Error
}

func (r *GroupChatRepository) Remove(ctx context.Context, chatID int64) error {
	return r.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Delete(&groupChatModel{}).Error
}

func (r *GroupChatRepository) List(ctx context.Context) ([]domain.GroupChat, error) {
	var models []groupChatModel
	if err := r.db.WithContext(ctx).Order("chat_id").Find(&models).Error; err != nil {
		return nil, err
	}
	chats := make([]domain.GroupChat, 0, len(models))
	for _, model := range models {
		chats = append(chats, domain.GroupChat{
			ChatID:    model.ChatID,
			Title:     model.Title,
			CreatedAt: model.CreatedAt,
		})
	}
	return chats, nil
}
