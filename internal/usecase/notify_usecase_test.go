package usecase

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/howardstar/f1hub/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeUserRepo struct {
	users []domain.User
}

func (f *fakeUserRepo) GetByTelegramID(_ context.Context, telegramID int64) (*domain.User, error) {
	for i := range f.users {
		if f.users[i].TelegramID == telegramID {
			return &f.users[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeUserRepo) GetByID(_ context.Context, userID uint) (*domain.User, error) {
	for i := range f.users {
		if f.users[i].ID == userID {
			return &f.users[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	user.ID = uint(len(f.users) + 1)
	f.users = append(f.users, *user)
	return nil
}

func (f *fakeUserRepo) SetTimezone(_ context.Context, telegramID int64, tz string) error {
	return f.update(telegramID, func(u *domain.User) { u.Timezone = tz })
}

func (f *fakeUserRepo) SetNotifyLead(_ context.Context, telegramID int64, minutes int) error {
	return f.update(telegramID, func(u *domain.User) { u.NotifyLeadMinutes = minutes })
}

func (f *fakeUserRepo) SetNotificationsEnabled(_ context.Context, telegramID int64, enabled bool) error {
	return f.update(telegramID, func(u *domain.User) { u.NotificationsEnabled = enabled })
}

func (f *fakeUserRepo) update(telegramID int64, fn func(*domain.User)) error {
	for i := range f.users {
		if f.users[i].TelegramID == telegramID {
			fn(&f.users[i])
			return nil
		}
	}
	return domain.ErrNotFound
}

func (f *fakeUserRepo) ListNotifiable(_ context.Context) ([]domain.User, error) {
	out := make([]domain.User, 0, len(f.users))
	for _, u := range f.users {
		if u.NotificationsEnabled {
			out = append(out, u)
		}
	}
	return out, nil
}

type fakeFavoriteRepo struct {
	users   *fakeUserRepo
	drivers map[uint][]string
	teams   map[uint][]string
}

func newFakeFavoriteRepo(users *fakeUserRepo) *fakeFavoriteRepo {
	return &fakeFavoriteRepo{users: users, drivers: map[uint][]string{}, teams: map[uint][]string{}}
}

func (f *fakeFavoriteRepo) ToggleDriver(_ context.Context, userID uint, code string) (bool, error) {
	for i, c := range f.drivers[userID] {
		if c == code {
			f.drivers[userID] = append(f.drivers[userID][:i], f.drivers[userID][i+1:]...)
			return false, nil
		}
	}
	f.drivers[userID] = append(f.drivers[userID], code)
	return true, nil
}

func (f *fakeFavoriteRepo) ToggleTeam(_ context.Context, userID uint, name string) (bool, error) {
	for i, n := range f.teams[userID] {
		if n == name {
			f.teams[userID] = append(f.teams[userID][:i], f.teams[userID][i+1:]...)
			return false, nil
		}
	}
	f.teams[userID] = append(f.teams[userID], name)
	return true, nil
}

func (f *fakeFavoriteRepo) ListDrivers(_ context.Context, userID uint) ([]string, error) {
	return f.drivers[userID], nil
}

func (f *fakeFavoriteRepo) ListTeams(_ context.Context, userID uint) ([]string, error) {
	return f.teams[userID], nil
}

func (f *fakeFavoriteRepo) ClearDrivers(_ context.Context, userID uint) error {
	delete(f.drivers, userID)
	return nil
}

func (f *fakeFavoriteRepo) ClearTeams(_ context.Context, userID uint) error {
	delete(f.teams, userID)
	return nil
}

func (f *fakeFavoriteRepo) ListUsersWithFavorites(_ context.Context) ([]domain.User, error) {
	var out []domain.User
	for _, u := range f.users.users {
		if len(f.drivers[u.ID]) > 0 || len(f.teams[u.ID]) > 0 {
			out = append(out, u)
		}
	}
	return out, nil
}

type reminderKey struct {
	season, round int
	userID        uint
}

type fakeStateRepo struct {
	reminded      map[int]int
	notified      map[int]int
	notifiedQuali map[int]int
	reminders     map[reminderKey]bool
}

func newFakeStateRepo() *fakeStateRepo {
	return &fakeStateRepo{
		reminded:      map[int]int{},
		notified:      map[int]int{},
		notifiedQuali: map[int]int{},
		reminders:     map[reminderKey]bool{},
	}
}

func (f *fakeStateRepo) LastRemindedRound(_ context.Context, season int) (int, error) {
	return f.reminded[season], nil
}

func (f *fakeStateRepo) SetLastRemindedRound(_ context.Context, season, round int) error {
	if round > f.reminded[season] {
		f.reminded[season] = round
	}
	return nil
}

func (f *fakeStateRepo) LastNotifiedRound(_ context.Context, season int) (int, error) {
	return f.notified[season], nil
}

func (f *fakeStateRepo) SetLastNotifiedRound(_ context.Context, season, round int) error {
	if round > f.notified[season] {
		f.notified[season] = round
	}
	return nil
}

func (f *fakeStateRepo) LastNotifiedQualiRound(_ context.Context, season int) (int, error) {
	return f.notifiedQuali[season], nil
}

func (f *fakeStateRepo) SetLastNotifiedQualiRound(_ context.Context, season, round int) error {
	if round > f.notifiedQuali[season] {
		f.notifiedQuali[season] = round
	}
	return nil
}

func (f *fakeStateRepo) MarkReminded(_ context.Context, season, round int, userID uint) (bool, error) {
	key := reminderKey{season, round, userID}
	if f.reminders[key] {
		return false, nil
	}
	f.reminders[key] = true
	return true, nil
}

type fakeGroupRepo struct {
	chats []domain.GroupChat
}

func (f *fakeGroupRepo) Add(_ context.Context, chatID int64, title string) error {
	f.chats = append(f.chats, domain.GroupChat{ChatID: chatID, Title: title})
	return nil
}

func (f *fakeGroupRepo) Remove(_ context.Context, chatID int64) error { return nil }

func (f *fakeGroupRepo) List(_ context.Context) ([]domain.GroupChat, error) {
	return f.chats, nil
}

type fakeDataClient struct {
	schedule   []domain.Race
	results    map[int][]domain.RaceResult
	quali      map[int][]domain.QualiResult
	drivers    []domain.DriverStanding
	teams      []domain.ConstructorStanding
	qualiCalls int
}

func (f *fakeDataClient) SeasonSchedule(_ context.Context, _ int) ([]domain.Race, error) {
	return f.schedule, nil
}

func (f *fakeDataClient) WeekendSchedule(_ context.Context, _, _ int) ([]domain.Session, error) {
	return nil, nil
}

func (f *fakeDataClient) DriverStandings(_ context.Context, _, _ int) ([]domain.DriverStanding, error) {
	return f.drivers, nil
}

func (f *fakeDataClient) ConstructorStandings(_ context.Context, _, _ int) ([]domain.ConstructorStanding, error) {
	return f.teams, nil
}

func (f *fakeDataClient) RaceResults(_ context.Context, _, round int) ([]domain.RaceResult, error) {
	return f.results[round], nil
}

func (f *fakeDataClient) QualifyingResults(_ context.Context, _, round int) ([]domain.QualiResult, error) {
	f.qualiCalls++
	return f.quali[round], nil
}

type sentMessage struct {
	chatID int64
	text   string
}

type fakeMessenger struct {
	sent []sentMessage
	fail map[int64]bool
}

func (f *fakeMessenger) SendMessage(chatID int64, text string) error {
	if f.fail[chatID] {
		return fmt.Errorf("blocked by user %d", chatID)
	}
	f.sent = append(f.sent, sentMessage{chatID: chatID, text: text})
	return nil
}

type notifyFixture struct {
	users     *fakeUserRepo
	favorites *fakeFavoriteRepo
	state     *fakeStateRepo
	groups    *fakeGroupRepo
	data      *fakeDataClient
	messenger *fakeMessenger
	uc        *NotifyUsecase
}

func newNotifyFixture(poll time.Duration, now time.Time) *notifyFixture {
	users := &fakeUserRepo{}
	fixture := &notifyFixture{
		users:     users,
		favorites: newFakeFavoriteRepo(users),
		state:     newFakeStateRepo(),
		groups:    &fakeGroupRepo{},
		data:      &fakeDataClient{results: map[int][]domain.RaceResult{}, quali: map[int][]domain.QualiResult{}},
		messenger: &fakeMessenger{fail: map[int64]bool{}},
	}
	fixture.uc = NewNotifyUsecase(
		fixture.users, fixture.favorites, fixture.state, fixture.groups,
		fixture.data, fixture.messenger, poll, zap.NewNop(),
	)
	fixture.uc.now = func() time.Time { return now }
	return fixture
}

func raceAt(round int, start time.Time) domain.Race {
	return domain.Race{
		Season:   start.Year(),
		Round:    round,
		Name:     fmt.Sprintf("Grand Prix %d", round),
		Country:  "Somewhere",
		Location: "Track",
		Date:     start.Truncate(24 * time.Hour),
		StartUTC: &start,
	}
}

func TestRemindUpcomingFiresWithinTolerance(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	poll := 10 * time.Minute

	tests := []struct {
		name      string
		lead      int
		startIn   time.Duration
		wantFired bool
	}{
		{"exact match", 60, 60 * time.Minute, true},
		{"inside tolerance", 60, 63 * time.Minute, true},
		{"edge of tolerance", 60, 65 * time.Minute, true},
		{"outside tolerance", 60, 70 * time.Minute, false},
		{"too late", 60, 50 * time.Minute, false},
		{"day-before lead", 1440, 24 * time.Hour, true},
		{"beyond lookahead", 1440, 31 * time.Hour, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newNotifyFixture(poll, now)
			fx.data.schedule = []domain.Race{raceAt(5, now.Add(tt.startIn))}
			fx.users.users = []domain.User{{
				ID: 1, TelegramID: 100, Timezone: "UTC",
				NotifyLeadMinutes: tt.lead, NotificationsEnabled: true,
			}}

			require.NoError(t, fx.uc.RemindUpcoming(context.Background()))

			if tt.wantFired {
				require.Len(t, fx.messenger.sent, 1)
				assert.Equal(t, int64(100), fx.messenger.sent[0].chatID)
				assert.Contains(t, fx.messenger.sent[0].text, "Grand Prix 5")
				assert.Equal(t, 5, fx.state.reminded[2026])
			} else {
				assert.Empty(t, fx.messenger.sent)
				assert.Zero(t, fx.state.reminded[2026])
			}
		})
	}
}

func TestRemindUpcomingAtMostOncePerUser(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	fx := newNotifyFixture(10*time.Minute, now)
	fx.data.schedule = []domain.Race{raceAt(5, now.Add(time.Hour))}
	fx.users.users = []domain.User{{
		ID: 1, TelegramID: 100, Timezone: "UTC",
		NotifyLeadMinutes: 60, NotificationsEnabled: true,
	}}

	require.NoError(t, fx.uc.RemindUpcoming(context.Background()))
	require.NoError(t, fx.uc.RemindUpcoming(context.Background()))

	assert.Len(t, fx.messenger.sent, 1)
}

func TestRemindUpcomingSkipsDisabledUsers(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	fx := newNotifyFixture(10*time.Minute, now)
	fx.data.schedule = []domain.Race{raceAt(5, now.Add(time.Hour))}
	fx.users.users = []domain.User{
		{ID: 1, TelegramID: 100, NotifyLeadMinutes: 60, NotificationsEnabled: false},
		{ID: 2, TelegramID: 200, NotifyLeadMinutes: 60, NotificationsEnabled: true},
	}

	require.NoError(t, fx.uc.RemindUpcoming(context.Background()))

	require.Len(t, fx.messenger.sent, 1)
	assert.Equal(t, int64(200), fx.messenger.sent[0].chatID)
}

func TestRemindUpcomingSendFailureSkipsUserOnly(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	fx := newNotifyFixture(10*time.Minute, now)
	fx.data.schedule = []domain.Race{raceAt(5, now.Add(time.Hour))}
	fx.users.users = []domain.User{
		{ID: 1, TelegramID: 100, NotifyLeadMinutes: 60, NotificationsEnabled: true},
		{ID: 2, TelegramID: 200, NotifyLeadMinutes: 60, NotificationsEnabled: true},
	}
	fx.messenger.fail[100] = true

	require.NoError(t, fx.uc.RemindUpcoming(context.Background()))

	require.Len(t, fx.messenger.sent, 1)
	assert.Equal(t, int64(200), fx.messenger.sent[0].chatID)
}

func TestRemindUpcomingIgnoresRoundsBelowWatermark(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	fx := newNotifyFixture(10*time.Minute, now)
	fx.data.schedule = []domain.Race{raceAt(5, now.Add(time.Hour))}
	fx.users.users = []domain.User{{
		ID: 1, TelegramID: 100, Timezone: "UTC",
		NotifyLeadMinutes: 60, NotificationsEnabled: true,
	}}

	// A stale schedule entry below the watermark never fires again.
	fx.state.reminded[2026] = 6
	require.NoError(t, fx.uc.RemindUpcoming(context.Background()))
	assert.Empty(t, fx.messenger.sent)

	// The watermark round itself still serves shorter lead times.
	fx.state.reminded[2026] = 5
	require.NoError(t, fx.uc.RemindUpcoming(context.Background()))
	assert.Len(t, fx.messenger.sent, 1)
}

func TestBroadcastRaceResultsEmptyIsNoOp(t *testing.T) {
	now := time.Date(2026, 6, 1, 20, 0, 0, 0, time.UTC)
	fx := newNotifyFixture(10*time.Minute, now)
	fx.data.schedule = []domain.Race{raceAt(3, now.Add(-5 * time.Hour))}
	fx.users.users = []domain.User{{ID: 1, TelegramID: 100, NotificationsEnabled: true}}
	fx.favorites.drivers[1] = []string{"VER"}

	require.NoError(t, fx.uc.BroadcastRaceResults(context.Background()))

	assert.Empty(t, fx.messenger.sent)
	assert.Zero(t, fx.state.notified[2026], "watermark must not advance on empty results")
}

func TestBroadcastRaceResultsIdempotent(t *testing.T) {
	now := time.Date(2026, 6, 1, 20, 0, 0, 0, time.UTC)
	fx := newNotifyFixture(10*time.Minute, now)
	fx.data.schedule = []domain.Race{
		raceAt(2, now.Add(-200 * time.Hour)),
		raceAt(3, now.Add(-5 * time.Hour)),
	}
	fx.data.results[3] = []domain.RaceResult{
		{Position: 1, Code: "VER", GivenName: "Max", FamilyName: "Verstappen", Team: "Red Bull", Points: decimal.NewFromInt(25)},
		{Position: 2, Code: "NOR", GivenName: "Lando", FamilyName: "Norris", Team: "McLaren", Points: decimal.NewFromInt(18)},
	}
	fx.data.drivers = []domain.DriverStanding{
		{Position: 1, Code: "VER", Points: decimal.NewFromInt(200)},
	}
	fx.users.users = []domain.User{{ID: 1, TelegramID: 100, NotificationsEnabled: true}}
	fx.favorites.drivers[1] = []string{"VER"}

	require.NoError(t, fx.uc.BroadcastRaceResults(context.Background()))

	require.Len(t, fx.messenger.sent, 1)
	assert.Contains(t, fx.messenger.sent[0].text, "VER")
	assert.Contains(t, fx.messenger.sent[0].text, "P1")
	assert.Equal(t, 3, fx.state.notified[2026])

	// Second poll after the watermark advanced: nothing is resent.
	require.NoError(t, fx.uc.BroadcastRaceResults(context.Background()))
	assert.Len(t, fx.messenger.sent, 1)
}

func TestBroadcastRaceResultsAdvancesWatermarkWithoutMatches(t *testing.T) {
	now := time.Date(2026, 6, 1, 20, 0, 0, 0, time.UTC)
	fx := newNotifyFixture(10*time.Minute, now)
	fx.data.schedule = []domain.Race{raceAt(3, now.Add(-5 * time.Hour))}
	fx.data.results[3] = []domain.RaceResult{
		{Position: 1, Code: "VER", Team: "Red Bull", Points: decimal.NewFromInt(25)},
	}
	fx.users.users = []domain.User{{ID: 1, TelegramID: 100, NotificationsEnabled: true}}
	fx.favorites.drivers[1] = []string{"HAM"}

	require.NoError(t, fx.uc.BroadcastRaceResults(context.Background()))

	assert.Empty(t, fx.messenger.sent)
	assert.Equal(t, 3, fx.state.notified[2026])
}

func TestBroadcastRaceResultsSkipsRunningRace(t *testing.T) {
	now := time.Date(2026, 6, 1, 20, 0, 0, 0, time.UTC)
	fx := newNotifyFixture(10*time.Minute, now)
	fx.data.schedule = []domain.Race{raceAt(3, now.Add(-time.Hour))}
	fx.data.results[3] = []domain.RaceResult{{Position: 1, Code: "VER"}}

	require.NoError(t, fx.uc.BroadcastRaceResults(context.Background()))

	assert.Empty(t, fx.messenger.sent)
	assert.Zero(t, fx.state.notified[2026])
}

func TestBroadcastRaceResultsGroupSummary(t *testing.T) {
	now := time.Date(2026, 6, 1, 20, 0, 0, 0, time.UTC)
	fx := newNotifyFixture(10*time.Minute, now)
	fx.data.schedule = []domain.Race{raceAt(3, now.Add(-5 * time.Hour))}
	fx.data.results[3] = []domain.RaceResult{
		{Position: 2, Code: "NOR", FamilyName: "Norris", Team: "McLaren"},
		{Position: 1, Code: "VER", FamilyName: "Verstappen", Team: "Red Bull"},
	}
	fx.groups.chats = []domain.GroupChat{{ChatID: -500}}

	require.NoError(t, fx.uc.BroadcastRaceResults(context.Background()))

	require.Len(t, fx.messenger.sent, 1)
	assert.Equal(t, int64(-500), fx.messenger.sent[0].chatID)
	assert.True(t, strings.Index(fx.messenger.sent[0].text, "P1 Verstappen") <
		strings.Index(fx.messenger.sent[0].text, "P2 Norris"))
}

func TestBroadcastQualiResults(t *testing.T) {
	now := time.Date(2026, 6, 1, 20, 0, 0, 0, time.UTC)
	fx := newNotifyFixture(10*time.Minute, now)
	fx.data.schedule = []domain.Race{raceAt(3, now.Add(-5 * time.Hour))}
	fx.data.quali[3] = []domain.QualiResult{
		{Position: 1, Code: "VER", Best: "1:20.001"},
		{Position: 4, Code: "HAM", Best: "1:20.500"},
	}
	fx.users.users = []domain.User{{ID: 1, TelegramID: 100, NotificationsEnabled: true}}
	fx.favorites.drivers[1] = []string{"HAM"}

	require.NoError(t, fx.uc.BroadcastQualiResults(context.Background()))

	require.Len(t, fx.messenger.sent, 1)
	assert.Contains(t, fx.messenger.sent[0].text, "04. HAM")
	assert.Contains(t, fx.messenger.sent[0].text, "1:20.500")
	assert.Equal(t, 3, fx.state.notifiedQuali[2026])

	require.NoError(t, fx.uc.BroadcastQualiResults(context.Background()))
	assert.Len(t, fx.messenger.sent, 1)
}

func TestBroadcastQualiResultsSkipsFetchBehindWatermark(t *testing.T) {
	now := time.Date(2026, 6, 1, 20, 0, 0, 0, time.UTC)
	fx := newNotifyFixture(10*time.Minute, now)
	fx.data.schedule = []domain.Race{
		raceAt(2, now.Add(-200 * time.Hour)),
		raceAt(3, now.Add(-5 * time.Hour)),
	}
	fx.data.quali[3] = []domain.QualiResult{{Position: 1, Code: "VER", Best: "1:20.001"}}
	fx.state.notifiedQuali[2026] = 3

	require.NoError(t, fx.uc.BroadcastQualiResults(context.Background()))

	assert.Empty(t, fx.messenger.sent)
	assert.Zero(t, fx.data.qualiCalls, "no classification fetch for already-notified rounds")
}
