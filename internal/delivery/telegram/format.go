package telegram

import (
	"fmt"
	"strings"
	"time"

	"github.com/howardstar/f1hub/internal/domain"
	"github.com/howardstar/f1hub/internal/usecase"
)

const (
	dateLayout     = "02 Jan"
	dateTimeLayout = "02 Jan 15:04"
)

func formatSeasonSchedule(season int, races []domain.Race, loc *time.Location) string {
	if len(races) == 0 {
		return fmt.Sprintf("No races scheduled for %d yet.", season)
	}

	var builder strings.Builder
	fmt.Fprintf(&builder, "%d season calendar:\n", season)
	for _, race := range races {
		when := race.Date.Format(dateLayout)
		if race.StartUTC != nil {
			when = race.StartUTC.In(loc).Format(dateTimeLayout)
		}
		fmt.Fprintf(&builder, "%2d. %s — %s, %s\n", race.Round, when, race.Name, race.Country)
	}
	if loc != time.UTC {
		fmt.Fprintf(&builder, "\nTimes shown in %s.", loc.String())
	}
	return builder.String()
}

func formatNextRace(race *domain.Race, sessions []domain.Session, loc *time.Location) string {
	var builder strings.Builder
	fmt.Fprintf(&builder, "Next race: %s\nRound %d — %s, %s\n", race.Name, race.Round, race.Location, race.Country)
	if race.StartUTC != nil {
		fmt.Fprintf(&builder, "Race start: %s UTC", race.StartUTC.Format(dateTimeLayout))
		if loc != time.UTC {
			fmt.Fprintf(&builder, " (%s %s)", race.StartUTC.In(loc).Format(dateTimeLayout), loc.String())
		}
		builder.WriteString("\n")
	} else {
		fmt.Fprintf(&builder, "Date: %s\n", race.Date.Format(dateLayout))
	}

	if len(sessions) > 0 {
		builder.WriteString("\nWeekend schedule:\n")
		for _, session := range sessions {
			fmt.Fprintf(&builder, "%s — %s\n", session.StartUTC.In(loc).Format(dateTimeLayout), session.Name)
		}
		if loc != time.UTC {
			fmt.Fprintf(&builder, "\nTimes shown in %s.", loc.String())
		}
	}
	return builder.String()
}

func formatDriverStandings(season int, standings []domain.DriverStanding) string {
	if len(standings) == 0 {
		return fmt.Sprintf("No driver standings for %d yet.", season)
	}
	var builder strings.Builder
	fmt.Fprintf(&builder, "%d driver standings:\n", season)
	for _, s := range standings {
		fmt.Fprintf(&builder, "%2d. %s (%s) — %s pts\n", s.Position, s.FullName(), s.Constructor, s.Points.String())
	}
	return builder.String()
}

func formatConstructorStandings(season int, standings []domain.ConstructorStanding) string {
	if len(standings) == 0 {
		return fmt.Sprintf("No constructor standings for %d yet.", season)
	}
	var builder strings.Builder
	fmt.Fprintf(&builder, "%d constructor standings:\n", season)
	for _, s := range standings {
		fmt.Fprintf(&builder, "%2d. %s — %s pts\n", s.Position, s.Name, s.Points.String())
	}
	return builder.String()
}

func formatQualiResults(season, round int, results []domain.QualiResult) string {
	var builder strings.Builder
	fmt.Fprintf(&builder, "Qualifying, %d round %d:\n", season, round)
	for _, r := range results {
		line := fmt.Sprintf("%2d. %s", r.Position, r.Name)
		if r.Best != "" {
			line += " — " + r.Best
		}
		builder.WriteString(line + "\n")
	}
	return builder.String()
}

func formatRaceResults(season, round int, results []domain.RaceResult) string {
	var builder strings.Builder
	fmt.Fprintf(&builder, "Race results, %d round %d:\n", season, round)
	for _, r := range results {
		fmt.Fprintf(&builder, "%2d. %s (%s)", r.Position, r.FullName(), r.Team)
		if !r.Points.IsZero() {
			fmt.Fprintf(&builder, " +%s", r.Points.String())
		}
		if r.Status != "" && r.Status != "Finished" && !strings.HasPrefix(r.Status, "+") {
			fmt.Fprintf(&builder, " [%s]", r.Status)
		}
		builder.WriteString("\n")
	}
	return builder.String()
}

func formatComparison(c *usecase.DriverComparison) string {
	var builder strings.Builder
	fmt.Fprintf(&builder, "%d head to head:\n", c.Season)
	fmt.Fprintf(&builder, "%s — P%d, %s pts, %d wins\n", c.First.FullName(), c.First.Position, c.First.Points.String(), c.First.Wins)
	fmt.Fprintf(&builder, "%s — P%d, %s pts, %d wins\n", c.Second.FullName(), c.Second.Position, c.Second.Points.String(), c.Second.Wins)

	gap := c.PointsGap
	switch gap.Sign() {
	case 0:
		builder.WriteString("\nThey are level on points.")
	case 1:
		fmt.Fprintf(&builder, "\n%s leads by %s points.", c.First.FullName(), gap.String())
	default:
		fmt.Fprintf(&builder, "\n%s leads by %s points.", c.Second.FullName(), gap.Neg().String())
	}
	return builder.String()
}

func formatFavorites(drivers, teams []string) string {
	var builder strings.Builder
	builder.WriteString("Your favorites\n\n")
	if len(drivers) == 0 {
		builder.WriteString("Drivers: none yet\n")
	} else {
		fmt.Fprintf(&builder, "Drivers: %s\n", strings.Join(drivers, ", "))
	}
	if len(teams) == 0 {
		builder.WriteString("Teams: none yet\n")
	} else {
		fmt.Fprintf(&builder, "Teams: %s\n", strings.Join(teams, ", "))
	}
	builder.WriteString("\nFavorites drive your personalized race-result notifications.")
	return builder.String()
}
