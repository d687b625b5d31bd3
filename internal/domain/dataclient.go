package domain

import (
	"context"
	"errors"
)

var ErrRoundNotFound = errors.New("round not found")

// DataClient reads Formula 1 data from an Ergast-compatible API.
// Round 0 means "latest available" where the provider supports it.
// Empty classifications are returned as empty slices, not errors.
type DataClient interface {
	SeasonSchedule(ctx context.Context, season int) ([]Race, error)
	WeekendSchedule(ctx context.Context, season, round int) ([]Session, error)
	DriverStandings(ctx context.Context, season, round int) ([]DriverStanding, error)
	ConstructorStandings(ctx context.Context, season, round int) ([]ConstructorStanding, error)
	RaceResults(ctx context.Context, season, round int) ([]RaceResult, error)
	QualifyingResults(ctx context.Context, season, round int) ([]QualiResult, error)
}
