package domain

import "time"

type User struct {
	ID                   uint
	TelegramID           int64
	Username             string
	Timezone             string
	NotifyLeadMinutes    int
	NotificationsEnabled bool
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// Location resolves the user's IANA timezone, falling back to UTC when the
// stored name is empty or unknown.
func (u *User) Location() *time.Location {
	if u.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(u.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
