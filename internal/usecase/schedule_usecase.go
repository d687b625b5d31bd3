package usecase

import (
	"context"
	"sort"
	"time"

	"github.com/howardstar/f1hub/internal/domain"
)

type ScheduleUsecase struct {
	data domain.DataClient
	now  func() time.Time
}

func NewScheduleUsecase(data domain.DataClient) *ScheduleUsecase {
	return &ScheduleUsecase{data: data, now: time.Now}
}

// Season returns the schedule sorted by round.
func (u *ScheduleUsecase) Season(ctx context.Context, season int) ([]domain.Race, error) {
	races, err := u.data.SeasonSchedule(ctx, season)
	if err != nil {
		return nil, err
	}
	sort.Slice(races, func(i, j int) bool { return races[i].Round < races[j].Round })
	return races, nil
}

// NextRace returns the first race of the season that has not started yet,
// or ErrRoundNotFound when the season is over.
func (u *ScheduleUsecase) NextRace(ctx context.Context, season int) (*domain.Race, error) {
	races, err := u.Season(ctx, season)
	if err != nil {
		return nil, err
	}
	now := u.now().UTC()
	for _, race := range races {
		if !race.Started(now) {
			r := race
			return &r, nil
		}
	}
	return nil, ErrRoundNotFound
}

// LatestStartedRace returns the most recent race whose start time has
// passed by at least the given delay.
func (u *ScheduleUsecase) LatestStartedRace(ctx context.Context, season int, delay time.Duration) (*domain.Race, error) {
	races, err := u.Season(ctx, season)
	if err != nil {
		return nil, err
	}
	cutoff := u.now().UTC().Add(-delay)
	var latest *domain.Race
	for i := range races {
		if races[i].Started(cutoff) {
			latest = &races[i]
		}
	}
	if latest == nil {
		return nil, ErrRoundNotFound
	}
	return latest, nil
}

func (u *ScheduleUsecase) Weekend(ctx context.Context, season, round int) ([]domain.Session, error) {
	sessions, err := u.data.WeekendSchedule(ctx, season, round)
	if err != nil {
		if err == domain.ErrRoundNotFound {
			return nil, ErrRoundNotFound
		}
		return nil, err
	}
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].StartUTC.Before(sessions[j].StartUTC) })
	return sessions, nil
}

// CurrentSeason is the UTC year. The data provider keys seasons by year.
func (u *ScheduleUsecase) CurrentSeason() int {
	return u.now().UTC().Year()
}
