package usecase

import (
	"context"
	"errors"

	"github.com/howardstar/f1hub/internal/domain"
)

type FavoritesUsecase struct {
	users     domain.UserRepository
	favorites domain.FavoriteRepository
}

func NewFavoritesUsecase(users domain.UserRepository, favorites domain.FavoriteRepository) *FavoritesUsecase {
	return &FavoritesUsecase{users: users, favorites: favorites}
}

func (u *FavoritesUsecase) ToggleDriver(ctx context.Context, telegramID int64, code string) (bool, error) {
	user, err := u.user(ctx, telegramID)
	if err != nil {
		return false, err
	}
	return u.favorites.ToggleDriver(ctx, user.ID, code)
}

func (u *FavoritesUsecase) ToggleTeam(ctx context.Context, telegramID int64, name string) (bool, error) {
	user, err := u.user(ctx, telegramID)
	if err != nil {
		return false, err
	}
	return u.favorites.ToggleTeam(ctx, user.ID, name)
}

func (u *FavoritesUsecase) List(ctx context.Context, telegramID int64) (drivers, teams []string, err error) {
	user, err := u.user(ctx, telegramID)
	if err != nil {
		return nil, nil, err
	}
	drivers, err = u.favorites.ListDrivers(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}
	teams, err = u.favorites.ListTeams(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}
	return drivers, teams, nil
}

func (u *FavoritesUsecase) ClearDrivers(ctx context.Context, telegramID int64) error {
	user, err := u.user(ctx, telegramID)
	if err != nil {
		return err
	}
	return u.favorites.ClearDrivers(ctx, user.ID)
}

func (u *FavoritesUsecase) ClearTeams(ctx context.Context, telegramID int64) error {
	user, err := u.user(ctx, telegramID)
	if err != nil {
		return err
	}
	return u.favorites.ClearTeams(ctx, user.ID)
}

func (u *FavoritesUsecase) user(ctx context.Context, telegramID int64) (*domain.User, error) {
	user, err := u.users.GetByTelegramID(ctx, telegramID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrUserNotRegistered
		}
		return nil, err
	}
	return user, nil
}
