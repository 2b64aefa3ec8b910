package coverage

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

const (
	// GapTitleHeader is the first header of every gap matrix.
	GapTitleHeader = "Care Competencies and Corresponding Activities"

	// CellOutOfScope marks an activity the occupation may not perform.
	CellOutOfScope = ""
	// CellMixed marks an occupation whose cells differ within one bundle.
	CellMixed = "MIXED"
)

// GapActivity is one activity row of the matrix. Cells is keyed by
// occupation display name.
type GapActivity struct {
	Name  string
	Cells map[string]string
}

// MarshalJSON flattens the cells next to the activity name.
func (a GapActivity) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(a.Cells)+1)
	for occupation, cell := range a.Cells {
		out[occupation] = cell
	}
	out["name"] = a.Name
	return json.Marshal(out)
}

// GapBundle groups the activity rows of one bundle. Summary holds the
// bundle-level value per occupation display name.
type GapBundle struct {
	Name           string
	Summary        map[string]string
	NumberOfGaps   int
	CareActivities []GapActivity
}

// MarshalJSON flattens the per-occupation summary next to the bundle fields.
func (b GapBundle) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(b.Summary)+3)
	for occupation, cell := range b.Summary {
		out[occupation] = cell
	}
	out["name"] = b.Name
	out["numberOfGaps"] = b.NumberOfGaps
	rows := b.CareActivities
	if rows == nil {
		rows = []GapActivity{}
	}
	out["careActivities"] = rows
	return json.Marshal(out)
}

// CoverageStats summarizes the gap/fragile/redundant classification.
type CoverageStats struct {
	TotalActivities int `json:"totalActivities"`
	GapsCount       int `json:"gapsCount"`
	FragileCount    int `json:"fragileCount"`
	RedundantCount  int `json:"redundantCount"`
	CoveragePercent int `json:"coveragePercent"`
}

// GapOverview carries the scope split of all matrix cells and the coverage stats.
type GapOverview struct {
	InScope    string        `json:"inScope"`
	Limits     string        `json:"limits"`
	OutOfScope string        `json:"outOfScope"`
	Coverage   CoverageStats `json:"coverage"`
}

// GapResult is the gap matrix for one team.
type GapResult struct {
	Headers     []string    `json:"headers"`
	Data        []GapBundle `json:"data"`
	Overview    GapOverview `json:"overview"`
	CareSetting string      `json:"careSetting,omitempty"`
}

// AnalyzeGap builds the coverage matrix of the team over the selected activities.
// rows only needs the team's permissions. It returns nil when there are no
// activities or no team occupations, meaning there is nothing to show.
// Cells are keyed by occupation display name, so team members must have
// distinct names; the catalog rejects duplicates.
func AnalyzeGap(activities []Activity, team []Occupation, rows []PermissionRow) *GapResult {
	if len(activities) == 0 || len(team) == 0 {
		return nil
	}

	members := SortOccupations(team)
	idx := IndexPermissions(rows)

	headers := make([]string, 0, len(members)+1)
	headers = append(headers, GapTitleHeader)
	for _, member := range members {
		headers = append(headers, member.DisplayName)
	}

	var yCells, lcCells int
	byBundle := groupByBundle(activities)
	data := make([]GapBundle, 0, len(byBundle))
	for _, name := range sortedKeys(byBundle) {
		bundleActivities := byBundle[name]
		seen := make(map[string]map[string]struct{}, len(members))
		for _, member := range members {
			seen[member.DisplayName] = map[string]struct{}{}
		}

		bundle := GapBundle{Name: name, CareActivities: make([]GapActivity, 0, len(bundleActivities))}
		for _, activity := range bundleActivities {
			row := GapActivity{Name: activity.DisplayName, Cells: make(map[string]string, len(members))}
			covered := false
			for _, member := range members {
				cell := CellOutOfScope
				if level, ok := idx.Lookup(activity.ID, member.ID); ok {
					cell = level.String()
					covered = true
					switch level {
					case LevelY:
						yCells++
					case LevelLC:
						lcCells++
					}
				}
				row.Cells[member.DisplayName] = cell
				seen[member.DisplayName][cell] = struct{}{}
			}
			if !covered {
				bundle.NumberOfGaps++
			}
			bundle.CareActivities = append(bundle.CareActivities, row)
		}

		bundle.Summary = make(map[string]string, len(seen))
		for occupation, values := range seen {
			bundle.Summary[occupation] = summarize(values)
		}
		data = append(data, bundle)
	}

	counts := CountCoverage(activities, rows, teamIDs(members))
	return &GapResult{
		Headers:  headers,
		Data:     data,
		Overview: overview(yCells, lcCells, len(members)*len(activities), activities, counts),
	}
}

func overview(yCells, lcCells, total int, activities []Activity, counts map[string]CoverageCount) GapOverview {
	inScope, limits, outOfScope := scopeSplit(yCells, lcCells, total)
	return GapOverview{
		InScope:    formatPercent(inScope),
		Limits:     formatPercent(limits),
		OutOfScope: formatPercent(outOfScope),
		Coverage:   Stats(activities, counts),
	}
}

// scopeSplit rounds the Y and LC shares independently and derives the
// out-of-scope share by subtraction so the three always sum to 100.
func scopeSplit(yCells, lcCells, total int) (int, int, int) {
	if total <= 0 {
		return 0, 0, 0
	}
	inScope := percent(yCells, total)
	limits := percent(lcCells, total)
	return inScope, limits, 100 - inScope - limits
}

// Stats classifies every activity using counts.
func Stats(activities []Activity, counts map[string]CoverageCount) CoverageStats {
	stats := CoverageStats{TotalActivities: len(activities)}
	for _, activity := range activities {
		switch counts[activity.ID].Class() {
		case ClassGap:
			stats.GapsCount++
		case ClassFragile:
			stats.FragileCount++
		default:
			stats.RedundantCount++
		}
	}
	stats.CoveragePercent = percent(stats.TotalActivities-stats.GapsCount, stats.TotalActivities)
	return stats
}

func summarize(values map[string]struct{}) string {
	if len(values) != 1 {
		return CellMixed
	}
	for value := range values {
		return value
	}
	return CellMixed
}

// SortOccupations returns a copy of team ordered by display order, missing orders last, then by name.
func SortOccupations(team []Occupation) []Occupation {
	out := append([]Occupation(nil), team...)
	sort.SliceStable(out, func(i, j int) bool {
		oi, oj := displayOrder(out[i]), displayOrder(out[j])
		if oi != oj {
			return oi < oj
		}
		return out[i].DisplayName < out[j].DisplayName
	})
	return out
}

func displayOrder(o Occupation) int {
	if o.DisplayOrder == nil {
		return math.MaxInt
	}
	return *o.DisplayOrder
}

func groupByBundle(activities []Activity) map[string][]Activity {
	grouped := make(map[string][]Activity)
	for _, activity := range activities {
		name := activity.Bundle.DisplayName
		grouped[name] = append(grouped[name], activity)
	}
	for _, group := range grouped {
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].DisplayName < group[j].DisplayName
		})
	}
	return grouped
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func teamIDs(team []Occupation) map[string]struct{} {
	ids := make([]string, 0, len(team))
	for _, member := range team {
		ids = append(ids, member.ID)
	}
	return idSet(ids)
}

func formatPercent(v int) string {
	return fmt.Sprintf("%d%%", v)
}

func roundInt(v float64) int {
	return int(math.Round(v))
}
