package telegram

import (
	"strings"
	"testing"
	"time"

	"github.com/howardstar/f1hub/internal/domain"
	"github.com/howardstar/f1hub/internal/usecase"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatNextRaceLocalizesTimes(t *testing.T) {
	start := time.Date(2025, 7, 6, 14, 0, 0, 0, time.UTC)
	race := &domain.Race{
		Season:   2025,
		Round:    12,
		Name:     "British Grand Prix",
		Country:  "UK",
		Location: "Silverstone",
		Date:     start.Truncate(24 * time.Hour),
		StartUTC: &start,
	}
	sessions := []domain.Session{
		{Name: "Qualifying", StartUTC: time.Date(2025, 7, 5, 14, 0, 0, 0, time.UTC)},
		{Name: "Race", StartUTC: start},
	}

	loc, err := time.LoadLocation("Etc/GMT-3")
	require.NoError(t, err)

	text := formatNextRace(race, sessions, loc)
	assert.Contains(t, text, "British Grand Prix")
	assert.Contains(t, text, "06 Jul 14:00 UTC")
	assert.Contains(t, text, "06 Jul 17:00")
	assert.Contains(t, text, "Qualifying")

	utcText := formatNextRace(race, sessions, time.UTC)
	assert.NotContains(t, utcText, "Times shown in")
}

func TestFormatNextRaceDateOnly(t *testing.T) {
	race := &domain.Race{
		Round: 3,
		Name:  "Japanese Grand Prix",
		Date:  time.Date(2025, 4, 6, 0, 0, 0, 0, time.UTC),
	}
	text := formatNextRace(race, nil, time.UTC)
	assert.Contains(t, text, "Date: 06 Apr")
	assert.NotContains(t, text, "Race start")
}

func TestFormatComparisonGapDirection(t *testing.T) {
	first := domain.DriverStanding{Position: 1, Code: "VER", GivenName: "Max", FamilyName: "Verstappen", Points: decimal.NewFromInt(250)}
	second := domain.DriverStanding{Position: 2, Code: "NOR", GivenName: "Lando", FamilyName: "Norris", Points: decimal.NewFromInt(275)}

	text := formatComparison(&usecase.DriverComparison{
		Season:    2025,
		First:     first,
		Second:    second,
		PointsGap: first.Points.Sub(second.Points),
	})
	assert.Contains(t, text, "Lando Norris leads by 25 points.")

	level := formatComparison(&usecase.DriverComparison{
		Season:    2025,
		First:     first,
		Second:    first,
		PointsGap: decimal.Zero,
	})
	assert.Contains(t, level, "level on points")
}

func TestFormatRaceResultsMarksRetirements(t *testing.T) {
	results := []domain.RaceResult{
		{Position: 1, Code: "VER", GivenName: "Max", FamilyName: "Verstappen", Team: "Red Bull", Status: "Finished", Points: decimal.NewFromInt(25)},
		{Position: 18, Code: "ALB", GivenName: "Alex", FamilyName: "Albon", Team: "Williams", Status: "Collision", Points: decimal.Zero},
	}
	text := formatRaceResults(2025, 4, results)
	assert.Contains(t, text, "+25")
	assert.Contains(t, text, "[Collision]")
	assert.NotContains(t, text, "[Finished]")
}

func TestFormatFavoritesEmpty(t *testing.T) {
	text := formatFavorites(nil, nil)
	assert.Contains(t, text, "Drivers: none yet")
	assert.Contains(t, text, "Teams: none yet")
}

func TestTimezoneOptionsRoundTrip(t *testing.T) {
	for _, option := range tzOptions() {
		_, err := time.LoadLocation(option.Zone)
		assert.NoError(t, err, option.Zone)
		assert.Equal(t, option.Label, tzLabel(option.Zone))
	}
}

func TestPairRowsOddCount(t *testing.T) {
	standings := []domain.DriverStanding{
		{Position: 1, Code: "VER", FamilyName: "Verstappen"},
		{Position: 2, Code: "NOR", FamilyName: "Norris"},
		{Position: 3, Code: "LEC", FamilyName: "Leclerc"},
	}
	keyboard := driversKeyboard(standings, map[string]bool{"NOR": true})

	// Two paired rows of drivers plus the control row.
	require.Len(t, keyboard.InlineKeyboard, 3)
	assert.Len(t, keyboard.InlineKeyboard[0], 2)
	assert.Len(t, keyboard.InlineKeyboard[1], 1)

	var marked bool
	for _, row := range keyboard.InlineKeyboard {
		for _, button := range row {
			if strings.HasPrefix(button.Text, "✅") {
				marked = true
				assert.Equal(t, "fav:toggle_driver:NOR", *button.CallbackData)
			}
		}
	}
	assert.True(t, marked)
}
