package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/howardstar/f1hub/internal/domain"
)

var (
	ErrUserNotRegistered = errors.New("user not registered")
	ErrInvalidTimezone   = errors.New("invalid timezone")
	ErrInvalidLeadTime   = errors.New("invalid lead time")
	ErrRoundNotFound     = errors.New("round not found")
	ErrResultsNotReady   = errors.New("results not ready")
	ErrDriverNotFound    = errors.New("driver not found")
)

// LeadTimeOptions are the reminder lead times offered in settings, minutes.
var LeadTimeOptions = []int{15, 30, 60, 120, 1440}

type UserUsecase struct {
	users             domain.UserRepository
	defaultTimezone   string
	defaultNotifyLead int
}

func NewUserUsecase(users domain.UserRepository, defaultTimezone string, defaultNotifyLead int) *UserUsecase {
	return &UserUsecase{users: users, defaultTimezone: defaultTimezone, defaultNotifyLead: defaultNotifyLead}
}

func (u *UserUsecase) StartOrGetUser(ctx context.Context, telegramID int64, username string) (*domain.User, error) {
	user, err := u.users.GetByTelegramID(ctx, telegramID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	newUser := &domain.User{
		TelegramID:           telegramID,
		Username:             username,
		Timezone:             u.defaultTimezone,
		NotifyLeadMinutes:    u.defaultNotifyLead,
		NotificationsEnabled: true,
	}
	if err := u.users.Create(ctx, newUser); err != nil {
		return nil, err
	}
	return newUser, nil
}

func (u *UserUsecase) GetSettings(ctx context.Context, telegramID int64) (*domain.User, error) {
	user, err := u.users.GetByTelegramID(ctx, telegramID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrUserNotRegistered
		}
		return nil, err
	}
	return user, nil
}

func (u *UserUsecase) SetTimezone(ctx context.Context, telegramID int64, timezone string) error {
	if _, err := time.LoadLocation(timezone); err != nil {
		return ErrInvalidTimezone
	}
	if err := u.users.SetTimezone(ctx, telegramID, timezone); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return ErrUserNotRegistered
		}
		return err
	}
	return nil
}

func (u *UserUsecase) SetNotifyLead(ctx context.Context, telegramID int64, minutes int) error {
	valid := false
	for _, option := range LeadTimeOptions {
		if option == minutes {
			valid = true
			break
		}
	}
	if !valid {
		return ErrInvalidLeadTime
	}
	if err := u.users.SetNotifyLead(ctx, telegramID, minutes); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return ErrUserNotRegistered
		}
		return err
	}
	return nil
}

func (u *UserUsecase) ToggleNotifications(ctx context.Context, telegramID int64) (bool, error) {
	user, err := u.users.GetByTelegramID(ctx, telegramID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, ErrUserNotRegistered
		}
		return false, err
	}
	enabled := !user.NotificationsEnabled
	if err := u.users.SetNotificationsEnabled(ctx, telegramID, enabled); err != nil {
		return false, err
	}
	return enabled, nil
}
