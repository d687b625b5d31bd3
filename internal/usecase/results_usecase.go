package usecase

import (
	"context"
	"time"

	"github.com/howardstar/f1hub/internal/domain"
)

type ResultsUsecase struct {
	data     domain.DataClient
	schedule *ScheduleUsecase
}

func NewResultsUsecase(data domain.DataClient, schedule *ScheduleUsecase) *ResultsUsecase {
	return &ResultsUsecase{data: data, schedule: schedule}
}

// Race returns the classification for a round. Round 0 resolves to the
// most recently started race of the season.
func (u *ResultsUsecase) Race(ctx context.Context, season, round int) (int, []domain.RaceResult, error) {
	if round <= 0 {
		race, err := u.schedule.LatestStartedRace(ctx, season, 0)
		if err != nil {
			return 0, nil, err
		}
		round = race.Round
	}

	results, err := u.data.RaceResults(ctx, season, round)
	if err != nil {
		return 0, nil, err
	}
	if len(results) == 0 {
		return round, nil, ErrResultsNotReady
	}
	domain.SortRaceResults(results)
	return round, results, nil
}

// LatestQualifying walks past rounds from the most recent backwards and
// returns the first non-empty qualifying classification.
func (u *ResultsUsecase) LatestQualifying(ctx context.Context, season int) (int, []domain.QualiResult, error) {
	races, err := u.schedule.Season(ctx, season)
	if err != nil {
		return 0, nil, err
	}

	now := time.Now().UTC()
	for i := len(races) - 1; i >= 0; i-- {
		// Qualifying runs before the race; a race whose date has arrived
		// is the first candidate.
		if races[i].Date.After(now) {
			continue
		}
		results, err := u.data.QualifyingResults(ctx, season, races[i].Round)
		if err != nil || len(results) == 0 {
			continue
		}
		return races[i].Round, results, nil
	}
	return 0, nil, ErrResultsNotReady
}

func (u *ResultsUsecase) Qualifying(ctx context.Context, season, round int) ([]domain.QualiResult, error) {
	results, err := u.data.QualifyingResults(ctx, season, round)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, ErrResultsNotReady
	}
	return results, nil
}
