package domain

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("not found")

type UserRepository interface {
	GetByTelegramID(ctx context.Context, telegramID int64) (*User, error)
	GetByID(ctx context.Context, userID uint) (*User, error)
	Create(ctx context.Context, user *User) error
	SetTimezone(ctx context.Context, telegramID int64, timezone string) error
	SetNotifyLead(ctx context.Context, telegramID int64, minutes int) error
	SetNotificationsEnabled(ctx context.Context, telegramID int64, enabled bool) error
	ListNotifiable(ctx context.Context) ([]User, error)
}

type FavoriteRepository interface {
	ToggleDriver(ctx context.Context, userID uint, code string) (added bool, err error)
	ToggleTeam(ctx context.Context, userID uint, name string) (added bool, err error)
	ListDrivers(ctx context.Context, userID uint) ([]string, error)
	ListTeams(ctx context.Context, userID uint) ([]string, error)
	ClearDrivers(ctx context.Context, userID uint) error
	ClearTeams(ctx context.Context, userID uint) error
	ListUsersWithFavorites(ctx context.Context) ([]User, error)
}

// NotificationStateRepository holds the per-season broadcast watermarks and
// the per-user reminder log. Watermark setters are monotonic: an attempt to
// move a watermark backwards within a season is a no-op.
type NotificationStateRepository interface {
	LastRemindedRound(ctx context.Context, season int) (int, error)
	SetLastRemindedRound(ctx context.Context, season, round int) error
	LastNotifiedRound(ctx context.Context, season int) (int, error)
	SetLastNotifiedRound(ctx context.Context, season, round int) error
	LastNotifiedQualiRound(ctx context.Context, season int) (int, error)
	SetLastNotifiedQualiRound(ctx context.Context, season, round int) error

	// MarkReminded records that a reminder for (season, round) was sent to
	// the user. Returns false when a record already existed.
	MarkReminded(ctx context.Context, season, round int, userID uint) (bool, error)
}

type VoteRepository interface {
	Upsert(ctx context.Context, vote *Vote) error
	Get(ctx context.Context, userID uint, season, round int) (*Vote, error)
	Tally(ctx context.Context, season, round int) ([]VoteCount, error)
}

type GroupChatRepository interface {
	Add(ctx context.Context, chatID int64, title string) error
	Remove(ctx context.Context, chatID int64) error
	List(ctx context.Context) ([]GroupChat, error)
}
