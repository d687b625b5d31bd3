package usecase

import (
	"context"
	"strings"

	"github.com/howardstar/f1hub/internal/domain"
	"github.com/shopspring/decimal"
)

type StandingsUsecase struct {
	data domain.DataClient
}

func NewStandingsUsecase(data domain.DataClient) *StandingsUsecase {
	return &StandingsUsecase{data: data}
}

func (u *StandingsUsecase) Drivers(ctx context.Context, season, round int) ([]domain.DriverStanding, error) {
	standings, err := u.data.DriverStandings(ctx, season, round)
	if err != nil {
		return nil, err
	}
	domain.SortDriverStandings(standings)
	return standings, nil
}

func (u *StandingsUsecase) Constructors(ctx context.Context, season, round int) ([]domain.ConstructorStanding, error) {
	standings, err := u.data.ConstructorStandings(ctx, season, round)
	if err != nil {
		return nil, err
	}
	domain.SortConstructorStandings(standings)
	return standings, nil
}

// DriversWithFallback falls back to the previous season when the requested
// one has no standings yet (pre-season gap).
func (u *StandingsUsecase) DriversWithFallback(ctx context.Context, season int) ([]domain.DriverStanding, int, error) {
	standings, err := u.Drivers(ctx, season, 0)
	if err != nil {
		return nil, 0, err
	}
	if len(standings) > 0 {
		return standings, season, nil
	}
	standings, err = u.Drivers(ctx, season-1, 0)
	if err != nil {
		return nil, 0, err
	}
	return standings, season - 1, nil
}

func (u *StandingsUsecase) ConstructorsWithFallback(ctx context.Context, season int) ([]domain.ConstructorStanding, int, error) {
	standings, err := u.Constructors(ctx, season, 0)
	if err != nil {
		return nil, 0, err
	}
	if len(standings) > 0 {
		return standings, season, nil
	}
	standings, err = u.Constructors(ctx, season-1, 0)
	if err != nil {
		return nil, 0, err
	}
	return standings, season - 1, nil
}

type DriverComparison struct {
	Season int
	First  domain.DriverStanding
	Second domain.DriverStanding
	// PointsGap is First minus Second, positive when First leads.
	PointsGap decimal.Decimal
}

func (u *StandingsUsecase) Compare(ctx context.Context, season int, firstCode, secondCode string) (*DriverComparison, error) {
	standings, usedSeason, err := u.DriversWithFallback(ctx, season)
	if err != nil {
		return nil, err
	}

	first, ok := findDriver(standings, firstCode)
	if !ok {
		return nil, ErrDriverNotFound
	}
	second, ok := findDriver(standings, secondCode)
	if !ok {
		return nil, ErrDriverNotFound
	}

	return &DriverComparison{
		Season:    usedSeason,
		First:     first,
		Second:    second,
		PointsGap: first.Points.Sub(second.Points),
	}, nil
}

func findDriver(standings []domain.DriverStanding, code string) (domain.DriverStanding, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	for _, s := range standings {
		if s.Code == code {
			return s, true
		}
	}
	return domain.DriverStanding{}, false
}
