package domain

import "time"

// Race is one round of a season schedule. StartUTC is nil when the data
// provider publishes only the event date.
type Race struct {
	Season   int
	Round    int
	Name     string
	Country  string
	Location string
	Date     time.Time
	StartUTC *time.Time
}

// Started reports whether the race has started as of now. Rounds without a
// published start time fall back to the event date.
func (r Race) Started(now time.Time) bool {
	if r.StartUTC != nil {
		return !r.StartUTC.After(now)
	}
	return !r.Date.After(now)
}

type Session struct {
	Name     string
	StartUTC time.Time
}
