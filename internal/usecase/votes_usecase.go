package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/howardstar/f1hub/internal/domain"
)

// VotesUsecase handles driver-of-the-day voting, one vote per user per
// round; a repeated vote replaces the previous pick.
type VotesUsecase struct {
	users domain.UserRepository
	votes domain.VoteRepository
	data  domain.DataClient
}

func NewVotesUsecase(users domain.UserRepository, votes domain.VoteRepository, data domain.DataClient) *VotesUsecase {
	return &VotesUsecase{users: users, votes: votes, data: data}
}

func (u *VotesUsecase) Cast(ctx context.Context, telegramID int64, season, round int, driverCode string) error {
	user, err := u.users.GetByTelegramID(ctx, telegramID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return ErrUserNotRegistered
		}
		return err
	}

	driverCode = strings.ToUpper(strings.TrimSpace(driverCode))
	if driverCode == "" {
		return ErrDriverNotFound
	}

	// The vote must name a driver who actually raced that round.
	results, err := u.data.RaceResults(ctx, season, round)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		return ErrResultsNotReady
	}
	found := false
	for _, r := range results {
		if r.Code == driverCode {
			found = true
			break
		}
	}
	if !found {
		return ErrDriverNotFound
	}

	return u.votes.Upsert(ctx, &domain.Vote{
		UserID:     user.ID,
		Season:     season,
		Round:      round,
		DriverCode: driverCode,
	})
}

func (u *VotesUsecase) Tally(ctx context.Context, season, round int) ([]domain.VoteCount, error) {
	return u.votes.Tally(ctx, season, round)
}

func (u *VotesUsecase) UserVote(ctx context.Context, telegramID int64, season, round int) (*domain.Vote, error) {
	user, err := u.users.GetByTelegramID(ctx, telegramID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrUserNotRegistered
		}
		return nil, err
	}
	vote, err := u.votes.Get(ctx, user.ID, season, round)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return vote, nil
}
