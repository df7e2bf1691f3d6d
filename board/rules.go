package board

import (
	"strings"

	"github.com/kasuganosora/missionboard/model"
)

// Rules are the tunable limits of the board.
type Rules struct {
	DailyPointCap     int
	DailyMissionLimit int
	MinNameLength     int
}

// DefaultRules returns the standard 15-point cap, 3 missions per day and
// 3-character names.
func DefaultRules() Rules {
	return Rules{DailyPointCap: 15, DailyMissionLimit: 3, MinNameLength: 3}
}

func (r Rules) withDefaults() Rules {
	d := DefaultRules()
	if r.DailyPointCap <= 0 {
		r.DailyPointCap = d.DailyPointCap
	}
	if r.DailyMissionLimit <= 0 {
		r.DailyMissionLimit = d.DailyMissionLimit
	}
	if r.MinNameLength <= 0 {
		r.MinNameLength = d.MinNameLength
	}
	return r
}

// BasePoints maps a difficulty label to its point value.
func BasePoints(difficulty string) int {
	switch strings.ToUpper(difficulty) {
	case "EASY":
		return 1
	case "HARD":
		return 5
	default:
		return 3
	}
}

// CanonicalDifficulty returns Easy, Hard or Normal.
func CanonicalDifficulty(difficulty string) string {
	switch strings.ToUpper(difficulty) {
	case "EASY":
		return model.DifficultyEasy
	case "HARD":
		return model.DifficultyHard
	default:
		return model.DifficultyNormal
	}
}

// trimmedOrNil turns blank text into nil and trims the rest.
func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}
