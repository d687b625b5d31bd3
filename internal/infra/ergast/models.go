package ergast

// Wire types for the MRData envelope returned by Ergast-compatible APIs.
// All numeric fields arrive as strings.

type mrDataResponse struct {
	MRData mrData `json:"MRData"`
}

type mrData struct {
	RaceTable      *raceTable      `json:"RaceTable"`
	StandingsTable *standingsTable `json:"StandingsTable"`
}

type raceTable struct {
	Season string     `json:"season"`
	Races  []raceItem `json:"Races"`
}

type raceItem struct {
	Season   string  `json:"season"`
	Round    string  `json:"round"`
	RaceName string  `json:"raceName"`
	Circuit  circuit `json:"Circuit"`
	Date     string  `json:"date"`
	Time     string  `json:"time"`

	FirstPractice  *sessionTime `json:"FirstPractice"`
	SecondPractice *sessionTime `json:"SecondPractice"`
	ThirdPractice  *sessionTime `json:"ThirdPractice"`
	Qualifying     *sessionTime `json:"Qualifying"`
	Sprint         *sessionTime `json:"Sprint"`
	SprintShootout *sessionTime `json:"SprintShootout"`

	Results           []resultItem `json:"Results"`
	QualifyingResults []qualiItem  `json:"QualifyingResults"`
}

type circuit struct {
	CircuitName string          `json:"circuitName"`
	Location    circuitLocation `json:"Location"`
}

type circuitLocation struct {
	Locality string `json:"locality"`
	Country  string `json:"country"`
}

type sessionTime struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

type standingsTable struct {
	StandingsLists []standingsList `json:"StandingsLists"`
}

type standingsList struct {
	Season               string                    `json:"season"`
	Round                string                    `json:"round"`
	DriverStandings      []driverStandingItem      `json:"DriverStandings"`
	ConstructorStandings []constructorStandingItem `json:"ConstructorStandings"`
}

type driverStandingItem struct {
	Position     string            `json:"position"`
	Points       string            `json:"points"`
	Wins         string            `json:"wins"`
	Driver       driverInfo        `json:"Driver"`
	Constructors []constructorInfo `json:"Constructors"`
}

type constructorStandingItem struct {
	Position    string          `json:"position"`
	Points      string          `json:"points"`
	Wins        string          `json:"wins"`
	Constructor constructorInfo `json:"Constructor"`
}

type driverInfo struct {
	Code       string `json:"code"`
	GivenName  string `json:"givenName"`
	FamilyName string `json:"familyName"`
}

type constructorInfo struct {
	Name string `json:"name"`
}

type resultItem struct {
	Position    string          `json:"position"`
	Points      string          `json:"points"`
	Grid        string          `json:"grid"`
	Status      string          `json:"status"`
	Driver      driverInfo      `json:"Driver"`
	Constructor constructorInfo `json:"Constructor"`
}

type qualiItem struct {
	Position string     `json:"position"`
	Driver   driverInfo `json:"Driver"`
	Q1       string     `json:"Q1"`
	Q2       string     `json:"Q2"`
	Q3       string     `json:"Q3"`
}
