package db

import (
	"context"
	"errors"

	"github.com/howardstar/f1hub/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type VoteRepository struct {
	db *gorm.DB
}

func NewVoteRepository(db *gorm.DB) *VoteRepository {
	return &VoteRepository{db: db}
}

func (r *VoteRepository) Upsert(ctx context.Context, vote *domain.Vote) error {
	model := voteModel{
		UserID:     vote.UserID,
		Season:     vote.Season,
		Round:      vote.Round,
		DriverCode: vote.DriverCode,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "season"}, {Name: "round"}},
			DoUpdates: clause.AssignmentColumns([]string{"driver_code", "updated_at"}),
		}).
		Create(&model).Error
}

func (r *VoteRepository) Get(ctx context.Context, userID uint, season, round int) (*domain.Vote, error) {
	var model voteModel
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND season = ? AND round = ?", userID, season, round).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &domain.Vote{
		UserID:     model.UserID,
		Season:     model.Season,
		Round:      model.Round,
		DriverCode: model.DriverCode,
		CreatedAt:  model.CreatedAt,
		UpdatedAt:  model.UpdatedAt,
	}, nil
}

func (r *VoteRepository) Tally(ctx context.Context, season, round int) ([]domain.VoteCount, error) {
	var counts []domain.VoteCount
	err := r.db.WithContext(ctx).
		Model(&voteModel{}).
		Select("driver_code, COUNT(*) AS votes").
		Where("season = ? AND round = ?", season, round).
		Group("driver_code").
		Order("votes DESC, driver_code").
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}
	return counts, nil
}
