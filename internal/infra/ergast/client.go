package ergast

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/howardstar/f1hub/internal/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Client struct {
	baseURL     string
	client      *http.Client
	cache       *diskCache
	scheduleTTL time.Duration
	resultsTTL  time.Duration
	logger      *zap.Logger
}

func NewClient(baseURL string, timeout time.Duration, cacheDir string, scheduleTTL, resultsTTL time.Duration, logger *zap.Logger) (*Client, error) {
	cache, err := newDiskCache(cacheDir, logger)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		client:      &http.Client{Timeout: timeout},
		cache:       cache,
		scheduleTTL: scheduleTTL,
		resultsTTL:  resultsTTL,
		logger:      logger,
	}, nil
}

func (c *Client) SeasonSchedule(ctx context.Context, season int) ([]domain.Race, error) {
	endpoint := fmt.Sprintf("%s/%d.json?limit=100", c.baseURL, season)
	payload, err := c.fetch(ctx, endpoint, c.scheduleTTL)
	if err != nil {
		return nil, err
	}
	if payload.MRData.RaceTable == nil {
		return []domain.Race{}, nil
	}

	races := make([]domain.Race, 0, len(payload.MRData.RaceTable.Races))
	for _, item := range payload.MRData.RaceTable.Races {
		race, ok := mapRace(season, item)
		if !ok {
			continue
		}
		races = append(races, race)
	}
	return races, nil
}

func (c *Client) WeekendSchedule(ctx context.Context, season, round int) ([]domain.Session, error) {
	endpoint := fmt.Sprintf("%s/%d/%d.json", c.baseURL, season, round)
	payload, err := c.fetch(ctx, endpoint, c.scheduleTTL)
	if err != nil {
		return nil, err
	}
	if payload.MRData.RaceTable == nil || len(payload.MRData.RaceTable.Races) == 0 {
		return nil, domain.ErrRoundNotFound
	}

	item := payload.MRData.RaceTable.Races[0]
	sessions := make([]domain.Session, 0, 6)
	appendSession := func(name string, st *sessionTime) {
		if st == nil {
			return
		}
		ts, ok := parseUTC(st.Date, st.Time)
		if !ok {
			return
		}
		sessions = append(sessions, domain.Session{Name: name, StartUTC: ts})
	}
	appendSession("Practice 1", item.FirstPractice)
	appendSession("Practice 2", item.SecondPractice)
	appendSession("Practice 3", item.ThirdPractice)
	appendSession("Sprint Shootout", item.SprintShootout)
	appendSession("Sprint", item.Sprint)
	appendSession("Qualifying", item.Qualifying)
	if ts, ok := parseUTC(item.Date, item.Time); ok {
		sessions = append(sessions, domain.Session{Name: "Race", StartUTC: ts})
	}
	return sessions, nil
}

func (c *Client) DriverStandings(ctx context.Context, season, round int) ([]domain.DriverStanding, error) {
	endpoint := fmt.Sprintf("%s/%s/driverstandings.json?limit=100", c.baseURL, seasonRoundPath(season, round))
	payload, err := c.fetch(ctx, endpoint, c.resultsTTL)
	if err != nil {
		return nil, err
	}

	standings := make([]domain.DriverStanding, 0)
	for _, list := range standingsLists(payload) {
		for _, item := range list.DriverStandings {
			standing := domain.DriverStanding{
				Position:   atoi(item.Position),
				Code:       item.Driver.Code,
				GivenName:  item.Driver.GivenName,
				FamilyName: item.Driver.FamilyName,
				Points:     parsePoints(item.Points),
				Wins:       atoi(item.Wins),
			}
			if len(item.Constructors) > 0 {
				standing.Constructor = item.Constructors[len(item.Constructors)-1].Name
			}
			standings = append(standings, standing)
		}
	}
	return standings, nil
}

func (c *Client) ConstructorStandings(ctx context.Context, season, round int) ([]domain.ConstructorStanding, error) {
	endpoint := fmt.Sprintf("%s/%s/constructorstandings.json?limit=100", c.baseURL, seasonRoundPath(season, round))
	payload, err := c.fetch(ctx, endpoint, c.resultsTTL)
	if err != nil {
		return nil, err
	}

	standings := make([]domain.ConstructorStanding, 0)
	for _, list := range standingsLists(payload) {
		for _, item := range list.ConstructorStandings {
			standings = append(standings, domain.ConstructorStanding{
				Position: atoi(item.Position),
				Name:     item.Constructor.Name,
				Points:   parsePoints(item.Points),
				Wins:     atoi(item.Wins),
			})
		}
	}
	return standings, nil
}

func (c *Client) RaceResults(ctx context.Context, season, round int) ([]domain.RaceResult, error) {
	endpoint := fmt.Sprintf("%s/%d/%s/results.json?limit=100", c.baseURL, season, roundSegment(round))
	payload, err := c.fetch(ctx, endpoint, c.resultsTTL)
	if err != nil {
		return nil, err
	}
	if payload.MRData.RaceTable == nil || len(payload.MRData.RaceTable.Races) == 0 {
		return []domain.RaceResult{}, nil
	}

	items := payload.MRData.RaceTable.Races[0].Results
	results := make([]domain.RaceResult, 0, len(items))
	for _, item := range items {
		results = append(results, domain.RaceResult{
			Position:   atoi(item.Position),
			Code:       item.Driver.Code,
			GivenName:  item.Driver.GivenName,
			FamilyName: item.Driver.FamilyName,
			Team:       item.Constructor.Name,
			Grid:       atoi(item.Grid),
			Status:     item.Status,
			Points:     parsePoints(item.Points),
		})
	}
	return results, nil
}

func (c *Client) QualifyingResults(ctx context.Context, season, round int) ([]domain.QualiResult, error) {
	endpoint := fmt.Sprintf("%s/%d/%s/qualifying.json?limit=100", c.baseURL, season, roundSegment(round))
	payload, err := c.fetch(ctx, endpoint, c.resultsTTL)
	if err != nil {
		return nil, err
	}
	if payload.MRData.RaceTable == nil || len(payload.MRData.RaceTable.Races) == 0 {
		return []domain.QualiResult{}, nil
	}

	items := payload.MRData.RaceTable.Races[0].QualifyingResults
	results := make([]domain.QualiResult, 0, len(items))
	for _, item := range items {
		name := item.Driver.FamilyName
		if name == "" {
			name = item.Driver.Code
		}
		results = append(results, domain.QualiResult{
			Position: atoi(item.Position),
			Code:     item.Driver.Code,
			Name:     name,
			Best:     bestQualiTime(item),
		})
	}
	return results, nil
}

func (c *Client) fetch(ctx context.Context, endpoint string, ttl time.Duration) (*mrDataResponse, error) {
	if body, ok := c.cache.Get(endpoint, ttl); ok {
		return decodeMRData(body)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	response, err := c.client.Do(request)
	if err != nil {
		c.logger.Error("ergast request failed", zap.String("url", endpoint), zap.Error(err))
		return nil, err
	}
	defer response.Body.Close()

	c.logger.Info(
		"ergast request complete",
		zap.String("url", endpoint),
		zap.Int("status", response.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return nil, fmt.Errorf("ergast error: status %d", response.StatusCode)
	}

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, err
	}

	payload, err := decodeMRData(body)
	if err != nil {
		return nil, err
	}
	c.cache.Put(endpoint, body)
	return payload, nil
}

func decodeMRData(body []byte) (*mrDataResponse, error) {
	var payload mrDataResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode ergast response: %w", err)
	}
	return &payload, nil
}

func standingsLists(payload *mrDataResponse) []standingsList {
	if payload.MRData.StandingsTable == nil {
		return nil
	}
	return payload.MRData.StandingsTable.StandingsLists
}

func seasonRoundPath(season, round int) string {
	if round > 0 {
		return fmt.Sprintf("%d/%d", season, round)
	}
	return strconv.Itoa(season)
}

func roundSegment(round int) string {
	if round > 0 {
		return strconv.Itoa(round)
	}
	return "last"
}

func mapRace(season int, item raceItem) (domain.Race, bool) {
	round := atoi(item.Round)
	if round <= 0 || item.RaceName == "" {
		return domain.Race{}, false
	}

	race := domain.Race{
		Season:   season,
		Round:    round,
		Name:     item.RaceName,
		Country:  item.Circuit.Location.Country,
		Location: item.Circuit.Location.Locality,
	}

	if ts, ok := parseUTC(item.Date, item.Time); ok {
		start := ts
		race.StartUTC = &start
		race.Date = ts.Truncate(24 * time.Hour)
		return race, true
	}

	date, err := time.Parse("2006-01-02", item.Date)
	if err != nil {
		return domain.Race{}, false
	}
	race.Date = date.UTC()
	return race, true
}

func parseUTC(date, clock string) (time.Time, bool) {
	if date == "" || clock == "" {
		return time.Time{}, false
	}
	ts, err := time.Parse("2006-01-02 15:04:05Z", date+" "+clock)
	if err != nil {
		return time.Time{}, false
	}
	return ts.UTC(), true
}

func bestQualiTime(item qualiItem) string {
	if item.Q3 != "" {
		return item.Q3
	}
	if item.Q2 != "" {
		return item.Q2
	}
	return item.Q1
}

func atoi(s string) int {
	value, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return value
}

func parsePoints(s string) decimal.Decimal {
	value, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero
	}
	return value
}
