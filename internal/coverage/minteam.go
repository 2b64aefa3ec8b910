package coverage

import "sort"

// MinimumTeamResult is a small team that covers as many activities as possible.
type MinimumTeamResult struct {
	OccupationIDs          []string `json:"occupationIds"`
	OccupationNames        []string `json:"occupationNames"`
	AchievedCoverage       int      `json:"achievedCoverage"`
	UncoveredActivityIDs   []string `json:"uncoveredActivityIds"`
	UncoveredActivityNames []string `json:"uncoveredActivityNames"`
	TotalActivities        int      `json:"totalActivities"`
	IsFullCoverage         bool     `json:"isFullCoverage"`
}

// UncoveredTeam is the result when no permission data can be consulted.
func UncoveredTeam(activities []Activity) MinimumTeamResult {
	res := MinimumTeamResult{
		OccupationIDs:          []string{},
		OccupationNames:        []string{},
		UncoveredActivityIDs:   make([]string, 0, len(activities)),
		UncoveredActivityNames: make([]string, 0, len(activities)),
		TotalActivities:        len(activities),
		IsFullCoverage:         len(activities) == 0,
	}
	for _, activity := range activities {
		res.UncoveredActivityIDs = append(res.UncoveredActivityIDs, activity.ID)
		res.UncoveredActivityNames = append(res.UncoveredActivityNames, activity.DisplayName)
	}
	return res
}

// MinimumTeam greedily picks the occupation covering the most uncovered
// activities until everything is covered or no occupation adds anything.
// Ties go to the occupation that sorts first by name.
func MinimumTeam(activities []Activity, rows []PermissionRow) MinimumTeamResult {
	res := UncoveredTeam(activities)
	if len(activities) == 0 {
		return res
	}

	type option struct {
		id, name   string
		activities map[string]struct{}
	}
	var options []*option
	byID := make(map[string]*option)
	for _, row := range rows {
		if row.Level == LevelNone {
			continue
		}
		opt, ok := byID[row.OccupationID]
		if !ok {
			opt = &option{id: row.OccupationID, name: row.OccupationName, activities: map[string]struct{}{}}
			byID[row.OccupationID] = opt
			options = append(options, opt)
		}
		opt.activities[row.ActivityID] = struct{}{}
	}
	sort.SliceStable(options, func(i, j int) bool {
		if options[i].name != options[j].name {
			return options[i].name < options[j].name
		}
		return options[i].id < options[j].id
	})

	uncovered := make(map[string]struct{}, len(activities))
	for _, activity := range activities {
		uncovered[activity.ID] = struct{}{}
	}
	picked := make(map[string]bool)
	for len(uncovered) > 0 {
		var best *option
		bestCount := 0
		for _, opt := range options {
			if picked[opt.id] {
				continue
			}
			n := 0
			for id := range opt.activities {
				if _, ok := uncovered[id]; ok {
					n++
				}
			}
			if n > bestCount {
				best, bestCount = opt, n
			}
		}
		if best == nil {
			break
		}
		picked[best.id] = true
		res.OccupationIDs = append(res.OccupationIDs, best.id)
		res.OccupationNames = append(res.OccupationNames, best.name)
		for id := range best.activities {
			delete(uncovered, id)
		}
	}

	res.UncoveredActivityIDs = res.UncoveredActivityIDs[:0]
	res.UncoveredActivityNames = res.UncoveredActivityNames[:0]
	for _, activity := range activities {
		if _, ok := uncovered[activity.ID]; ok {
			res.UncoveredActivityIDs = append(res.UncoveredActivityIDs, activity.ID)
			res.UncoveredActivityNames = append(res.UncoveredActivityNames, activity.DisplayName)
		}
	}
	res.AchievedCoverage = percent(len(activities)-len(uncovered), len(activities))
	res.IsFullCoverage = len(uncovered) == 0
	return res
}
