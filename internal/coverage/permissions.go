package coverage

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownLevel is returned by ParseLevel for values other than Y, LC or N.
var ErrUnknownLevel = errors.New("unknown permission level")

// Level is a stored permission level. The zero value LevelNone is never
// stored; it stands for an absent row.
type Level uint8

const (
	LevelNone Level = iota
	LevelY
	LevelLC
)

// ParseLevel converts a raw permission string at the storage boundary.
// "N" and "" map to LevelNone so callers can drop the row.
func ParseLevel(raw string) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "Y":
		return LevelY, nil
	case "LC":
		return LevelLC, nil
	case "N", "":
		return LevelNone, nil
	default:
		return LevelNone, fmt.Errorf("%w: %q", ErrUnknownLevel, raw)
	}
}

func (l Level) String() string {
	switch l {
	case LevelY:
		return "Y"
	case LevelLC:
		return "LC"
	default:
		return "N"
	}
}

// value is the scoring multiplier for the level. LC counts for 60% of Y.
func (l Level) value() float64 {
	switch l {
	case LevelY:
		return 1.0
	case LevelLC:
		return 0.6
	default:
		return 0
	}
}

type cellKey struct {
	activityID   string
	occupationID string
}

// PermissionIndex is a sparse (activity, occupation) -> level lookup.
type PermissionIndex map[cellKey]Level

// IndexPermissions builds a fresh index from rows. LevelNone rows are skipped.
func IndexPermissions(rows []PermissionRow) PermissionIndex {
	idx := make(PermissionIndex, len(rows))
	for _, row := range rows {
		if row.Level == LevelNone {
			continue
		}
		idx[cellKey{activityID: row.ActivityID, occupationID: row.OccupationID}] = row.Level
	}
	return idx
}

// Lookup returns the level for the pair, or false when there is no row.
func (p PermissionIndex) Lookup(activityID, occupationID string) (Level, bool) {
	level, ok := p[cellKey{activityID: activityID, occupationID: occupationID}]
	return level, ok
}

// Class is the coverage classification of a single activity.
type Class int

const (
	ClassGap Class = iota
	ClassFragile
	ClassRedundant
)

func (c Class) String() string {
	switch c {
	case ClassGap:
		return "gap"
	case ClassFragile:
		return "fragile"
	default:
		return "redundant"
	}
}

// CoverageCount is the number of team occupations holding Y or LC for one activity.
type CoverageCount struct {
	YCount  int
	LCCount int
}

// Total is the number of team occupations covering the activity.
func (c CoverageCount) Total() int {
	return c.YCount + c.LCCount
}

// Class classifies the activity: 0 is a gap, 1 is fragile, 2+ is redundant.
func (c CoverageCount) Class() Class {
	switch total := c.Total(); {
	case total == 0:
		return ClassGap
	case total == 1:
		return ClassFragile
	default:
		return ClassRedundant
	}
}

// CountCoverage counts, for every selected activity, the team rows at Y and LC.
// Rows from occupations outside team or for unselected activities are ignored.
func CountCoverage(activities []Activity, rows []PermissionRow, team map[string]struct{}) map[string]CoverageCount {
	counts := make(map[string]CoverageCount, len(activities))
	for _, activity := range activities {
		counts[activity.ID] = CoverageCount{}
	}
	for _, row := range rows {
		if _, onTeam := team[row.OccupationID]; !onTeam {
			continue
		}
		count, selected := counts[row.ActivityID]
		if !selected {
			continue
		}
		switch row.Level {
		case LevelY:
			count.YCount++
		case LevelLC:
			count.LCCount++
		}
		counts[row.ActivityID] = count
	}
	return counts
}

func idSet(groups ...[]string) map[string]struct{} {
	n := 0
	for _, ids := range groups {
		n += len(ids)
	}
	set := make(map[string]struct{}, n)
	for _, ids := range groups {
		for _, id := range ids {
			set[id] = struct{}{}
		}
	}
	return set
}

func percent(part, total int) int {
	if total <= 0 {
		return 0
	}
	return roundInt(100 * float64(part) / float64(total))
}
