package ergast

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const scheduleBody = `{"MRData":{"RaceTable":{"season":"2026","Races":[
	{"season":"2026","round":"1","raceName":"Bahrain Grand Prix",
	 "Circuit":{"circuitName":"Bahrain International Circuit","Location":{"locality":"Sakhir","country":"Bahrain"}},
	 "date":"2026-03-08","time":"15:00:00Z",
	 "FirstPractice":{"date":"2026-03-06","time":"11:30:00Z"},
	 "Qualifying":{"date":"2026-03-07","time":"15:00:00Z"}},
	{"season":"2026","round":"2","raceName":"Saudi Arabian Grand Prix",
	 "Circuit":{"circuitName":"Jeddah","Location":{"locality":"Jeddah","country":"Saudi Arabia"}},
	 "date":"2026-03-15"}
]}}}`

const standingsBody = `{"MRData":{"StandingsTable":{"StandingsLists":[{"season":"2026","round":"2",
	"DriverStandings":[
	 {"position":"1","points":"43.5","wins":"2","Driver":{"code":"VER","givenName":"Max","familyName":"Verstappen"},"Constructors":[{"name":"Red Bull"}]},
	 {"position":"2","points":"30","wins":"0","Driver":{"code":"NOR","givenName":"Lando","familyName":"Norris"},"Constructors":[{"name":"McLaren"}]}
	]}]}}}`

const emptyResultsBody = `{"MRData":{"RaceTable":{"season":"2026","Races":[]}}}`

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(server.URL, 5*time.Second, t.TempDir(), time.Hour, time.Hour, zap.NewNop())
	require.NoError(t, err)
	return client, server
}

func TestSeasonSchedule(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/2026.json", r.URL.Path)
		_, _ = w.Write([]byte(scheduleBody))
	}))

	races, err := client.SeasonSchedule(context.Background(), 2026)
	require.NoError(t, err)
	require.Len(t, races, 2)

	assert.Equal(t, 1, races[0].Round)
	assert.Equal(t, "Bahrain Grand Prix", races[0].Name)
	assert.Equal(t, "Bahrain", races[0].Country)
	assert.Equal(t, "Sakhir", races[0].Location)
	require.NotNil(t, races[0].StartUTC)
	assert.Equal(t, time.Date(2026, 3, 8, 15, 0, 0, 0, time.UTC), *races[0].StartUTC)

	// Round without a published start time keeps only the date.
	assert.Nil(t, races[1].StartUTC)
	assert.Equal(t, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), races[1].Date)
}

func TestDriverStandings(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/2026/driverstandings.json", r.URL.Path)
		_, _ = w.Write([]byte(standingsBody))
	}))

	standings, err := client.DriverStandings(context.Background(), 2026, 0)
	require.NoError(t, err)
	require.Len(t, standings, 2)
	assert.Equal(t, "VER", standings[0].Code)
	assert.Equal(t, "Red Bull", standings[0].Constructor)
	assert.Equal(t, "43.5", standings[0].Points.String())
	assert.Equal(t, 2, standings[0].Wins)
	assert.Equal(t, "Max Verstappen", standings[0].FullName())
}

func TestRaceResultsEmptyIsNotError(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(emptyResultsBody))
	}))

	results, err := client.RaceResults(context.Background(), 2026, 3)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestFetchUsesDiskCache(t *testing.T) {
	var hits atomic.Int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(scheduleBody))
	}))

	_, err := client.SeasonSchedule(context.Background(), 2026)
	require.NoError(t, err)
	_, err = client.SeasonSchedule(context.Background(), 2026)
	require.NoError(t, err)

	assert.Equal(t, int32(1), hits.Load())
}

func TestFetchExpiredCacheRefetches(t *testing.T) {
	var hits atomic.Int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(scheduleBody))
	}))
	client.scheduleTTL = -time.Second

	_, err := client.SeasonSchedule(context.Background(), 2026)
	require.NoError(t, err)
	_, err = client.SeasonSchedule(context.Background(), 2026)
	require.NoError(t, err)

	assert.Equal(t, int32(2), hits.Load())
}

func TestUpstreamErrorStatus(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	_, err := client.SeasonSchedule(context.Background(), 2026)
	assert.Error(t, err)
}
