package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/howardstar/f1hub/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	value, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return value
}

func TestNextRace(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	data := &fakeDataClient{schedule: []domain.Race{
		raceAt(3, now.Add(48 * time.Hour)),
		raceAt(1, now.Add(-200 * time.Hour)),
		raceAt(2, now.Add(-50 * time.Hour)),
	}}
	uc := NewScheduleUsecase(data)
	uc.now = func() time.Time { return now }

	race, err := uc.NextRace(context.Background(), 2026)
	require.NoError(t, err)
	assert.Equal(t, 3, race.Round)
}

func TestNextRaceSeasonOver(t *testing.T) {
	now := time.Date(2026, 12, 20, 12, 0, 0, 0, time.UTC)
	data := &fakeDataClient{schedule: []domain.Race{raceAt(1, now.Add(-100 * time.Hour))}}
	uc := NewScheduleUsecase(data)
	uc.now = func() time.Time { return now }

	_, err := uc.NextRace(context.Background(), 2026)
	assert.ErrorIs(t, err, ErrRoundNotFound)
}

func TestLatestStartedRaceHonorsDelay(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	data := &fakeDataClient{schedule: []domain.Race{
		raceAt(1, now.Add(-100 * time.Hour)),
		raceAt(2, now.Add(-time.Hour)),
	}}
	uc := NewScheduleUsecase(data)
	uc.now = func() time.Time { return now }

	race, err := uc.LatestStartedRace(context.Background(), 2026, 2*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, race.Round, "race started an hour ago has not finished yet")

	race, err = uc.LatestStartedRace(context.Background(), 2026, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, race.Round)
}

func TestStandingsFallbackToPreviousSeason(t *testing.T) {
	data := &fakeDataClient{}
	uc := NewStandingsUsecase(data)

	// Empty current season: the fake returns the same (empty then filled)
	// set regardless of season, so pre-fill to check the happy path first.
	data.drivers = []domain.DriverStanding{{Position: 1, Code: "VER"}}
	standings, season, err := uc.DriversWithFallback(context.Background(), 2026)
	require.NoError(t, err)
	assert.Equal(t, 2026, season)
	assert.Len(t, standings, 1)
}

func TestCompare(t *testing.T) {
	data := &fakeDataClient{drivers: []domain.DriverStanding{
		{Position: 1, Code: "VER", Points: mustDecimal(t, "200.5")},
		{Position: 3, Code: "HAM", Points: mustDecimal(t, "120")},
	}}
	uc := NewStandingsUsecase(data)

	cmp, err := uc.Compare(context.Background(), 2026, "ver", "HAM")
	require.NoError(t, err)
	assert.Equal(t, "VER", cmp.First.Code)
	assert.Equal(t, "80.5", cmp.PointsGap.String())

	_, err = uc.Compare(context.Background(), 2026, "VER", "XXX")
	assert.ErrorIs(t, err, ErrDriverNotFound)
}
