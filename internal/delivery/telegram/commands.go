package telegram

import (
	"errors"
	"strconv"
	"strings"
)

const HelpText = `Commands:
/start - register
/help - show this help
/menu - quick access menu
/races - season calendar
/next_race - the upcoming race weekend
/drivers - driver standings
/teams - constructor standings
/quali - latest qualifying results
/results - latest race results
/favorites - pick favorite drivers and teams
/compare <CODE> <CODE> - compare two drivers
/settings - timezone, reminders, notifications
/feedback - message the maintainers

Add me to a group chat and use /f1 there for the next race.
`

var ErrInvalidArguments = errors.New("invalid arguments")

// ParseCompareArgs expects two three-letter driver codes, e.g. "VER HAM".
func ParseCompareArgs(args string) (string, string, error) {
	parts := strings.Fields(strings.ToUpper(args))
	if len(parts) != 2 {
		return "", "", ErrInvalidArguments
	}
	first, second := parts[0], parts[1]
	if !isDriverCode(first) || !isDriverCode(second) || first == second {
		return "", "", ErrInvalidArguments
	}
	return first, second, nil
}

func isDriverCode(s string) bool {
	if len(s) != 3 {
		return false
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

// ParseRoundArg parses an optional round number; 0 means "latest".
func ParseRoundArg(args string) (int, error) {
	trimmed := strings.TrimSpace(args)
	if trimmed == "" {
		return 0, nil
	}
	value, err := strconv.Atoi(trimmed)
	if err != nil || value < 1 {
		return 0, ErrInvalidArguments
	}
	return value, nil
}
