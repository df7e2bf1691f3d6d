// Package store implements the board storage ports on GORM.
package store

import (
	"strings"
	"time"
)

// crewCountSQL is a correlated subquery counting the crew of the mission
// row in scope.
const crewCountSQL = "(SELECT COUNT(*) FROM crew_memberships cm WHERE cm.mission_id = missions.id)"

// Calendar defines the day window used by the daily limits.
type Calendar struct {
	Loc *time.Location
	Now func() time.Time
}

// NewCalendar returns a Calendar in loc driven by the wall clock.
func NewCalendar(loc *time.Location) Calendar {
	if loc == nil {
		loc = time.UTC
	}
	return Calendar{Loc: loc, Now: time.Now}
}

func (c Calendar) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}

// Today returns [start, end) of the current calendar day in UTC.
func (c Calendar) Today() (start, end time.Time) {
	loc := c.Loc
	if loc == nil {
		loc = time.UTC
	}
	t := c.now().In(loc)
	start = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	return start.UTC(), start.AddDate(0, 0, 1).UTC()
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// containsPattern builds a case-insensitive LIKE pattern used with
// ESCAPE '!'.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}
