package domain

import "time"

// Vote is one user's driver-of-the-day pick for a round. A user has at
// most one vote per (season, round); voting again replaces it.
type Vote struct {
	UserID     uint
	Season     int
	Round      int
	DriverCode string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type VoteCount struct {
	DriverCode string
	Votes      int
}

type GroupChat struct {
	ChatID    int64
	Title     string
	CreatedAt time.Time
}
