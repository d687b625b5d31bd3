package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/howardstar/f1hub/internal/domain"
	"go.uber.org/zap"
)

// Messenger delivers outbound chat messages. Implemented by the telegram
// notifier; faked in tests.
type Messenger interface {
	SendMessage(chatID int64, text string) error
}

const (
	// reminderLookahead bounds how far ahead the pre-race reconciler
	// scans; 24h lead plus poll slack fits comfortably.
	reminderLookahead = 30 * time.Hour

	// resultsDelay keeps the post-race reconciler from asking for a
	// classification while the race is still running.
	resultsDelay = 2 * time.Hour
)

type NotifyUsecase struct {
	users        domain.UserRepository
	favorites    domain.FavoriteRepository
	state        domain.NotificationStateRepository
	groups       domain.GroupChatRepository
	data         domain.DataClient
	messenger    Messenger
	logger       *zap.Logger
	pollInterval time.Duration
	now          func() time.Time
}

func NewNotifyUsecase(
	users domain.UserRepository,
	favorites domain.FavoriteRepository,
	state domain.NotificationStateRepository,
	groups domain.GroupChatRepository,
	data domain.DataClient,
	messenger Messenger,
	pollInterval time.Duration,
	logger *zap.Logger,
) *NotifyUsecase {
	return &NotifyUsecase{
		users:        users,
		favorites:    favorites,
		state:        state,
		groups:       groups,
		data:         data,
		messenger:    messenger,
		logger:       logger,
		pollInterval: pollInterval,
		now:          time.Now,
	}
}

// RemindUpcoming fires pre-race reminders. A reminder goes out when the
// time until race start matches the user's lead time within half the poll
// interval, at most once per (user, race). The per-season watermark is
// advanced to the highest round any reminder was sent for.
func (u *NotifyUsecase) RemindUpcoming(ctx context.Context) error {
	now := u.now().UTC()
	season := now.Year()

	lastReminded, err := u.state.LastRemindedRound(ctx, season)
	if err != nil {
		return fmt.Errorf("read reminder watermark: %w", err)
	}

	races, err := u.data.SeasonSchedule(ctx, season)
	if err != nil {
		return fmt.Errorf("load schedule: %w", err)
	}

	upcoming := make([]domain.Race, 0, 2)
	for _, race := range races {
		if race.StartUTC == nil {
			continue
		}
		// Rounds below the watermark are settled. The watermark round
		// itself may still owe reminders to shorter lead times.
		if race.Round < lastReminded {
			continue
		}
		until := race.StartUTC.Sub(now)
		if until > 0 && until <= reminderLookahead {
			upcoming = append(upcoming, race)
		}
	}
	if len(upcoming) == 0 {
		return nil
	}

	users, err := u.users.ListNotifiable(ctx)
	if err != nil {
		return fmt.Errorf("list notifiable users: %w", err)
	}

	tolerance := u.pollInterval / 2
	sent := 0
	maxRound := 0

	for _, race := range upcoming {
		for _, user := range users {
			lead := time.Duration(user.NotifyLeadMinutes) * time.Minute
			offset := race.StartUTC.Sub(now) - lead
			if offset < -tolerance || offset > tolerance {
				continue
			}

			inserted, err := u.state.MarkReminded(ctx, season, race.Round, user.ID)
			if err != nil {
				u.logger.Warn("mark reminded failed",
					zap.Int("round", race.Round),
					zap.Int64("telegram_id", user.TelegramID),
					zap.Error(err),
				)
				continue
			}
			if !inserted {
				continue
			}

			if err := u.messenger.SendMessage(user.TelegramID, formatReminder(race, &user)); err != nil {
				u.logger.Warn("reminder send failed",
					zap.Int64("telegram_id", user.TelegramID),
					zap.Error(err),
				)
				continue
			}
			sent++
			if race.Round > maxRound {
				maxRound = race.Round
			}
		}
	}

	if maxRound > 0 {
		if err := u.state.SetLastRemindedRound(ctx, season, maxRound); err != nil {
			return fmt.Errorf("advance reminder watermark: %w", err)
		}
	}
	if sent > 0 {
		u.logger.Info("race reminders sent", zap.Int("count", sent), zap.Int("season", season))
	}
	return nil
}

// BroadcastRaceResults pushes favorite results after a race. The season
// watermark advances only once a non-empty classification exists; an empty
// one defers to the next poll. Once results exist the watermark advances
// even when no user had a matching favorite.
func (u *NotifyUsecase) BroadcastRaceResults(ctx context.Context) error {
	now := u.now().UTC()
	season := now.Year()

	race, err := u.latestFinishedRace(ctx, season, now)
	if err != nil || race == nil {
		return err
	}

	lastNotified, err := u.state.LastNotifiedRound(ctx, season)
	if err != nil {
		return fmt.Errorf("read results watermark: %w", err)
	}
	if race.Round <= lastNotified {
		return nil
	}

	results, err := u.data.RaceResults(ctx, season, race.Round)
	if err != nil {
		return fmt.Errorf("load race results: %w", err)
	}
	if len(results) == 0 {
		u.logger.Info("race results not published yet",
			zap.Int("season", season),
			zap.Int("round", race.Round),
		)
		return nil
	}

	driverStandings, err := u.data.DriverStandings(ctx, season, race.Round)
	if err != nil {
		u.logger.Warn("driver standings unavailable", zap.Error(err))
	}
	constructorStandings, err := u.data.ConstructorStandings(ctx, season, race.Round)
	if err != nil {
		u.logger.Warn("constructor standings unavailable", zap.Error(err))
	}

	resultByCode := make(map[string]domain.RaceResult, len(results))
	resultByTeam := make(map[string]domain.RaceResult)
	for _, r := range results {
		if r.Code != "" {
			resultByCode[r.Code] = r
		}
		if r.Team != "" {
			if best, ok := resultByTeam[r.Team]; !ok || positionBetter(r.Position, best.Position) {
				resultByTeam[r.Team] = r
			}
		}
	}
	standingByCode := make(map[string]domain.DriverStanding, len(driverStandings))
	for _, s := range driverStandings {
		standingByCode[s.Code] = s
	}
	standingByTeam := make(map[string]domain.ConstructorStanding, len(constructorStandings))
	for _, s := range constructorStandings {
		standingByTeam[s.Name] = s
	}

	users, err := u.favorites.ListUsersWithFavorites(ctx)
	if err != nil {
		return fmt.Errorf("list subscribers: %w", err)
	}

	sent := 0
	for _, user := range users {
		if !user.NotificationsEnabled {
			continue
		}
		drivers, err := u.favorites.ListDrivers(ctx, user.ID)
		if err != nil {
			u.logger.Warn("list favorite drivers failed", zap.Uint("user_id", user.ID), zap.Error(err))
			continue
		}
		teams, err := u.favorites.ListTeams(ctx, user.ID)
		if err != nil {
			u.logger.Warn("list favorite teams failed", zap.Uint("user_id", user.ID), zap.Error(err))
			continue
		}

		text := formatFavoritesResults(race, drivers, teams, resultByCode, resultByTeam, standingByCode, standingByTeam)
		if text == "" {
			continue
		}
		if err := u.messenger.SendMessage(user.TelegramID, text); err != nil {
			u.logger.Warn("results send failed", zap.Int64("telegram_id", user.TelegramID), zap.Error(err))
			continue
		}
		sent++
	}

	u.broadcastGroupSummary(ctx, race, results)

	if err := u.state.SetLastNotifiedRound(ctx, season, race.Round); err != nil {
		return fmt.Errorf("advance results watermark: %w", err)
	}
	u.logger.Info("race results broadcast complete",
		zap.Int("season", season),
		zap.Int("round", race.Round),
		zap.Int("sent", sent),
	)
	return nil
}

// BroadcastQualiResults mirrors BroadcastRaceResults for qualifying, over
// its own watermark.
func (u *NotifyUsecase) BroadcastQualiResults(ctx context.Context) error {
	now := u.now().UTC()
	season := now.Year()

	lastNotified, err := u.state.LastNotifiedQualiRound(ctx, season)
	if err != nil {
		return fmt.Errorf("read quali watermark: %w", err)
	}

	races, err := u.data.SeasonSchedule(ctx, season)
	if err != nil {
		return fmt.Errorf("load schedule: %w", err)
	}

	var round int
	var results []domain.QualiResult
	for i := len(races) - 1; i >= 0; i-- {
		if races[i].Date.After(now) || races[i].Round <= lastNotified {
			continue
		}
		res, err := u.data.QualifyingResults(ctx, season, races[i].Round)
		if err != nil || len(res) == 0 {
			continue
		}
		round, results = races[i].Round, res
		break
	}
	if round == 0 {
		return nil
	}

	posByCode := make(map[string]domain.QualiResult, len(results))
	for _, r := range results {
		posByCode[r.Code] = r
	}

	raceName := fmt.Sprintf("round %d", round)
	for _, race := range races {
		if race.Round == round {
			raceName = race.Name
			break
		}
	}

	users, err := u.favorites.ListUsersWithFavorites(ctx)
	if err != nil {
		return fmt.Errorf("list subscribers: %w", err)
	}

	sent := 0
	for _, user := range users {
		if !user.NotificationsEnabled {
			continue
		}
		drivers, err := u.favorites.ListDrivers(ctx, user.ID)
		if err != nil {
			continue
		}

		var lines []string
		for _, code := range drivers {
			if r, ok := posByCode[code]; ok {
				line := fmt.Sprintf("%02d. %s", r.Position, code)
				if r.Best != "" {
					line += " (" + r.Best + ")"
				}
				lines = append(lines, line)
			}
		}
		if len(lines) == 0 {
			continue
		}

		text := fmt.Sprintf("Qualifying results: %s\nSeason %d, round %d\n\nYour drivers qualified:\n%s",
			raceName, season, round, strings.Join(lines, "\n"))
		if err := u.messenger.SendMessage(user.TelegramID, text); err != nil {
			u.logger.Warn("quali send failed", zap.Int64("telegram_id", user.TelegramID), zap.Error(err))
			continue
		}
		sent++
	}

	if err := u.state.SetLastNotifiedQualiRound(ctx, season, round); err != nil {
		return fmt.Errorf("advance quali watermark: %w", err)
	}
	u.logger.Info("qualifying broadcast complete",
		zap.Int("season", season),
		zap.Int("round", round),
		zap.Int("sent", sent),
	)
	return nil
}

// Warmup prefetches the schedule plus results for the last finished and
// next upcoming rounds so user-facing requests hit the disk cache.
func (u *NotifyUsecase) Warmup(ctx context.Context) error {
	now := u.now().UTC()
	season := now.Year()

	races, err := u.data.SeasonSchedule(ctx, season)
	if err != nil {
		return fmt.Errorf("load schedule: %w", err)
	}

	rounds := make(map[int]struct{}, 2)
	var lastPast, nextFuture int
	for _, race := range races {
		if race.Started(now) {
			if race.Round > lastPast {
				lastPast = race.Round
			}
		} else if nextFuture == 0 || race.Round < nextFuture {
			nextFuture = race.Round
		}
	}
	if lastPast > 0 {
		rounds[lastPast] = struct{}{}
	}
	if nextFuture > 0 {
		rounds[nextFuture] = struct{}{}
	}

	for round := range rounds {
		if _, err := u.data.RaceResults(ctx, season, round); err != nil {
			u.logger.Debug("warmup race results", zap.Int("round", round), zap.Error(err))
		}
		if _, err := u.data.QualifyingResults(ctx, season, round); err != nil {
			u.logger.Debug("warmup qualifying", zap.Int("round", round), zap.Error(err))
		}
	}
	return nil
}

func (u *NotifyUsecase) latestFinishedRace(ctx context.Context, season int, now time.Time) (*domain.Race, error) {
	races, err := u.data.SeasonSchedule(ctx, season)
	if err != nil {
		return nil, fmt.Errorf("load schedule: %w", err)
	}
	cutoff := now.Add(-resultsDelay)
	var latest *domain.Race
	for i := range races {
		if races[i].Started(cutoff) && (latest == nil || races[i].Round > latest.Round) {
			latest = &races[i]
		}
	}
	return latest, nil
}

func (u *NotifyUsecase) broadcastGroupSummary(ctx context.Context, race *domain.Race, results []domain.RaceResult) {
	groups, err := u.groups.List(ctx)
	if err != nil {
		u.logger.Warn("list group chats failed", zap.Error(err))
		return
	}
	if len(groups) == 0 {
		return
	}

	sorted := make([]domain.RaceResult, len(results))
	copy(sorted, results)
	domain.SortRaceResults(sorted)

	var lines []string
	for i, r := range sorted {
		if i >= 3 {
			break
		}
		lines = append(lines, fmt.Sprintf("P%d %s (%s)", r.Position, r.FullName(), r.Team))
	}
	text := fmt.Sprintf("Race finished: %s (round %d)\nPodium:\n%s",
		race.Name, race.Round, strings.Join(lines, "\n"))

	for _, group := range groups {
		if err := u.messenger.SendMessage(group.ChatID, text); err != nil {
			u.logger.Warn("group send failed", zap.Int64("chat_id", group.ChatID), zap.Error(err))
		}
	}
}

func formatReminder(race domain.Race, user *domain.User) string {
	start := race.StartUTC.UTC()
	local := start.In(user.Location())
	return fmt.Sprintf(
		"Race reminder!\n\n%02d. %s\n%s, %s\n\nRace start:\n- %s UTC\n- %s your time\n\nI'll send your favorites' results after the finish.",
		race.Round, race.Name, race.Country, race.Location,
		start.Format("02.01.2006 15:04"),
		local.Format("02.01.2006 15:04"),
	)
}

func formatFavoritesResults(
	race *domain.Race,
	drivers, teams []string,
	resultByCode, resultByTeam map[string]domain.RaceResult,
	standingByCode map[string]domain.DriverStanding,
	standingByTeam map[string]domain.ConstructorStanding,
) string {
	var lines []string

	for _, code := range drivers {
		result, hasResult := resultByCode[code]
		standing, hasStanding := standingByCode[code]
		if !hasResult && !hasStanding {
			continue
		}

		name := code
		if hasResult {
			name = result.FullName()
		} else if hasStanding {
			name = standing.FullName()
		}

		line := fmt.Sprintf("%s (%s):", code, name)
		if hasResult {
			line += fmt.Sprintf(" finished P%d (+%s pts)", result.Position, result.Points.String())
		}
		if hasStanding {
			line += fmt.Sprintf("\n  championship: P%d, %s pts", standing.Position, standing.Points.String())
		}
		lines = append(lines, line)
	}

	for _, team := range teams {
		result, hasResult := resultByTeam[team]
		standing, hasStanding := standingByTeam[team]
		if !hasResult && !hasStanding {
			continue
		}

		line := team + ":"
		if hasResult {
			line += fmt.Sprintf(" best car finished P%d", result.Position)
		}
		if hasStanding {
			line += fmt.Sprintf("\n  constructors' cup: P%d, %s pts", standing.Position, standing.Points.String())
		}
		lines = append(lines, line)
	}

	if len(lines) == 0 {
		return ""
	}
	return fmt.Sprintf("Your favorites after %s (round %d):\n\n%s",
		race.Name, race.Round, strings.Join(lines, "\n\n"))
}

func positionBetter(a, b int) bool {
	if a <= 0 {
		return false
	}
	return b <= 0 || a < b
}
