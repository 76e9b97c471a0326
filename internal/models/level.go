package models

import (
	"fmt"
	"strings"
)

// Level is a ride's intensity tier, from aggressive sport riding (A) to relaxed cruising (D)
type Level string

const (
	LevelA Level = "A"
	LevelB Level = "B"
	LevelC Level = "C"
	LevelD Level = "D"
)

// LevelPolicy holds the display attributes and eligibility threshold of a level
type LevelPolicy struct {
	Label     string
	AvgSpeed  string
	Badge     string
	MinPoints int64
}

// levelPolicies is the only place eligibility thresholds are defined.
var levelPolicies = map[Level]LevelPolicy{
	LevelA: {Label: "Sport/Aggr.", AvgSpeed: "Spirited Pace", Badge: "🔴", MinPoints: 2000},
	LevelB: {Label: "Sport Touring", AvgSpeed: "Brisk Pace", Badge: "🟠", MinPoints: 1500},
	LevelC: {Label: "Cruiser", AvgSpeed: "Moderate Pace", Badge: "🔵", MinPoints: 800},
	LevelD: {Label: "Rookie/Chill", AvgSpeed: "Relaxed Pace", Badge: "🟢", MinPoints: 0},
}

// Levels returns all levels, most intense first
func Levels() []Level {
	return []Level{LevelA, LevelB, LevelC, LevelD}
}

// ParseLevel accepts "a", "B", " c " etc.
func ParseLevel(s string) (Level, error) {
	l := Level(strings.ToUpper(strings.TrimSpace(s)))
	if !l.Valid() {
		return "", fmt.Errorf("unknown ride level %q", s)
	}
	return l, nil
}

func (l Level) Valid() bool {
	_, ok := levelPolicies[l]
	return ok
}

// Policy returns the policy row for l. Unknown levels get a zero policy.
func (l Level) Policy() LevelPolicy {
	return levelPolicies[l]
}

// MinPointsFor returns the XP threshold a rider needs to join a ride of the given level.
func MinPointsFor(l Level) (int64, error) {
	p, ok := levelPolicies[l]
	if !ok {
		return 0, fmt.Errorf("unknown ride level %q", string(l))
	}
	return p.MinPoints, nil
}
