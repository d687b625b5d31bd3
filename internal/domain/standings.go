package domain

import (
	"sort"

	"github.com/shopspring/decimal"
)

type DriverStanding struct {
	Position    int
	Code        string
	GivenName   string
	FamilyName  string
	Constructor string
	Points      decimal.Decimal
	Wins        int
}

func (s DriverStanding) FullName() string {
	if s.GivenName == "" && s.FamilyName == "" {
		return s.Code
	}
	if s.GivenName == "" {
		return s.FamilyName
	}
	return s.GivenName + " " + s.FamilyName
}

type ConstructorStanding struct {
	Position int
	Name     string
	Points   decimal.Decimal
	Wins     int
}

type RaceResult struct {
	Position   int
	Code       string
	GivenName  string
	FamilyName string
	Team       string
	Grid       int
	Status     string
	Points     decimal.Decimal
}

func (r RaceResult) FullName() string {
	if r.GivenName == "" && r.FamilyName == "" {
		return r.Code
	}
	if r.GivenName == "" {
		return r.FamilyName
	}
	return r.GivenName + " " + r.FamilyName
}

type QualiResult struct {
	Position int
	Code     string
	Name     string
	Best     string
}

// SortDriverStandings orders by position, placing zero or undefined
// positions after every positive one. The sort is stable so rows that
// arrive without a position keep their upstream order.
func SortDriverStandings(standings []DriverStanding) {
	sort.SliceStable(standings, func(i, j int) bool {
		return positionLess(standings[i].Position, standings[j].Position)
	})
}

func SortConstructorStandings(standings []ConstructorStanding) {
	sort.SliceStable(standings, func(i, j int) bool {
		return positionLess(standings[i].Position, standings[j].Position)
	})
}

func SortRaceResults(results []RaceResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return positionLess(results[i].Position, results[j].Position)
	})
}

func positionLess(a, b int) bool {
	if a > 0 && b > 0 {
		return a < b
	}
	return a > 0 && b <= 0
}
