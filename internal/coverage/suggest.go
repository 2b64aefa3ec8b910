package coverage

import (
	"fmt"
	"sort"

	"teambuilder-backend/internal/shared/telemetry"
)

const (
	MessageNoActivities  = "No care activities selected"
	MessageNoCareSetting = "No care setting selected"
	MessageNoPermissions = "No permission data available"

	DefaultPageSize = 10
)

// Weights are the per-class multipliers applied to a candidate's activities.
type Weights struct {
	Gap     float64
	Fragile float64
	Density float64
}

var (
	weightsWithGaps      = Weights{Gap: 100, Fragile: 10, Density: 1}
	weightsFragileOnly   = Weights{Gap: 0, Fragile: 50, Density: 5}
	weightsRedundantOnly = Weights{Gap: 0, Fragile: 0, Density: 5}
)

// lcFragilityBonus applies when the single existing coverage is LC.
const lcFragilityBonus = 1.5

// SelectWeights picks the weight tier for the whole activity set: any gap
// selects the gap-filling tier, otherwise any fragile activity selects the
// redundancy tier, otherwise only density counts.
func SelectWeights(activities []Activity, counts map[string]CoverageCount) Weights {
	hasFragile := false
	for _, activity := range activities {
		switch counts[activity.ID].Class() {
		case ClassGap:
			return weightsWithGaps
		case ClassFragile:
			hasFragile = true
		}
	}
	if hasFragile {
		return weightsFragileOnly
	}
	return weightsRedundantOnly
}

// Criticality returns the weight of an activity type. Unknown types weigh 1.
func Criticality(t ActivityType) float64 {
	switch t {
	case ActivityTypeRestrictedActivity:
		return 3
	case ActivityTypeAspectOfPractice:
		return 2
	case ActivityTypeTask:
		return 1
	default:
		telemetry.Warn("coverage.unknown_activity_type", map[string]any{"activity_type": string(t)})
		return 1
	}
}

// SuggestInput is everything Suggest needs for one request.
type SuggestInput struct {
	Activities []Activity
	// TeamIDs are occupations already on the team.
	TeamIDs []string
	// ExcludedIDs are staged exclusions. They are not suggested and their
	// permissions still count toward team coverage.
	ExcludedIDs []string
	// Permissions holds every occupation's rows for the selected activities.
	Permissions []PermissionRow
	Page        int
	PageSize    int
}

// SuggestionActivity is one activity in a competency breakdown.
type SuggestionActivity struct {
	ActivityID   string       `json:"activityId"`
	ActivityName string       `json:"activityName"`
	ActivityType ActivityType `json:"activityType"`
}

// Competency lists, for one bundle, what a candidate can do at Y and at LC.
type Competency struct {
	BundleID     string               `json:"bundleId"`
	BundleName   string               `json:"bundleName"`
	ActivitiesY  []SuggestionActivity `json:"activitiesY"`
	ActivitiesLC []SuggestionActivity `json:"activitiesLC"`
}

// SimulatedCoverage projects the team coverage if the candidate were added.
type SimulatedCoverage struct {
	GapsRemaining    int `json:"gapsRemaining"`
	FragileRemaining int `json:"fragileRemaining"`
	CoveragePercent  int `json:"coveragePercent"`
	MarginalBenefit  int `json:"marginalBenefit"`
}

// Suggestion is one ranked candidate occupation.
type Suggestion struct {
	OccupationID      string            `json:"occupationId"`
	OccupationName    string            `json:"occupationName"`
	Score             int               `json:"score"`
	Tier              int               `json:"tier"`
	GapsFilled        int               `json:"gapsFilled"`
	RedundancyGains   int               `json:"redundancyGains"`
	Competencies      []Competency      `json:"competencies"`
	SimulatedCoverage SimulatedCoverage `json:"simulatedCoverage"`
}

// ActivityCoverage is the team coverage of one activity.
type ActivityCoverage struct {
	ActivityID   string       `json:"activityId"`
	ActivityName string       `json:"activityName"`
	ActivityType ActivityType `json:"activityType"`
	YCount       int          `json:"yCount"`
	LCCount      int          `json:"lcCount"`
}

// CoverageSummary is the team-only classification of the selected activities.
type CoverageSummary struct {
	Gaps            []ActivityCoverage `json:"gaps"`
	Fragile         []ActivityCoverage `json:"fragile"`
	Redundant       []ActivityCoverage `json:"redundant"`
	CoveragePercent int                `json:"coveragePercent"`
}

// AlertType names a quality warning about a suggestion.
type AlertType string

const (
	AlertLowMarginalBenefit AlertType = "LOW_MARGINAL_BENEFIT"
	AlertNoGapCoverage      AlertType = "NO_GAP_COVERAGE"
	AlertRedundantOnly      AlertType = "REDUNDANT_ONLY"
)

// Alert flags a weak suggestion on the returned page.
type Alert struct {
	Type           AlertType `json:"type"`
	Message        string    `json:"message"`
	OccupationID   string    `json:"occupationId"`
	OccupationName string    `json:"occupationName"`
}

// SuggestResult is one page of ranked suggestions plus the session summary.
type SuggestResult struct {
	Suggestions              []Suggestion    `json:"suggestions"`
	TotalUncoveredActivities int             `json:"totalUncoveredActivities"`
	Total                    int             `json:"total"`
	Page                     int             `json:"page"`
	PageSize                 int             `json:"pageSize"`
	Message                  string          `json:"message,omitempty"`
	Summary                  CoverageSummary `json:"summary"`
	Alerts                   []Alert         `json:"alerts,omitempty"`
}

// EmptySuggestions is the response for a request with nothing to rank.
func EmptySuggestions(message string, uncovered, page, pageSize int) SuggestResult {
	page, pageSize = normalizePage(page, pageSize)
	return SuggestResult{
		Suggestions:              []Suggestion{},
		TotalUncoveredActivities: uncovered,
		Page:                     page,
		PageSize:                 pageSize,
		Message:                  message,
		Summary:                  emptySummary(),
	}
}

// candidate accumulates the score of one occupation not on the team.
type candidate struct {
	id              string
	name            string
	score           float64
	gapsFilled      int
	redundancyGains int
	levels          map[string]Level
}

func (c candidate) tier() int {
	switch {
	case c.gapsFilled > 0:
		return 1
	case c.redundancyGains > 0:
		return 2
	default:
		return 3
	}
}

// Suggest ranks occupations outside the team by the coverage they would add.
func Suggest(in SuggestInput) SuggestResult {
	if len(in.Activities) == 0 {
		return EmptySuggestions(MessageNoActivities, 0, in.Page, in.PageSize)
	}
	if len(in.Permissions) == 0 {
		return EmptySuggestions(MessageNoPermissions, len(in.Activities), in.Page, in.PageSize)
	}
	page, pageSize := normalizePage(in.Page, in.PageSize)

	team := idSet(in.TeamIDs, in.ExcludedIDs)
	counts := CountCoverage(in.Activities, in.Permissions, team)
	summary := summarizeCoverage(in.Activities, counts)
	weights := SelectWeights(in.Activities, counts)

	candidates := groupCandidates(in.Permissions, team)
	scored := make([]candidate, 0, len(candidates))
	for _, c := range candidates {
		scoreCandidate(&c, in.Activities, counts, weights)
		if c.score <= 0 {
			continue
		}
		scored = append(scored, c)
	}
	sort.Slice(scored, func(i, j int) bool {
		si, sj := roundInt(scored[i].score), roundInt(scored[j].score)
		if si != sj {
			return si > sj
		}
		if scored[i].name != scored[j].name {
			return scored[i].name < scored[j].name
		}
		return scored[i].id < scored[j].id
	})

	total := len(scored)
	start, end := pageBounds(page, pageSize, total)

	suggestions := make([]Suggestion, 0, end-start)
	var alerts []Alert
	for _, c := range scored[start:end] {
		s := buildSuggestion(c, in.Activities, summary)
		suggestions = append(suggestions, s)
		alerts = append(alerts, alertsFor(s, len(summary.Gaps))...)
	}

	return SuggestResult{
		Suggestions:              suggestions,
		TotalUncoveredActivities: len(summary.Gaps),
		Total:                    total,
		Page:                     page,
		PageSize:                 pageSize,
		Summary:                  summary,
		Alerts:                   alerts,
	}
}

// groupCandidates collects the rows of every occupation outside team.
// The result is ordered by first appearance in rows.
func groupCandidates(rows []PermissionRow, team map[string]struct{}) []candidate {
	var out []candidate
	pos := make(map[string]int)
	for _, row := range rows {
		if _, onTeam := team[row.OccupationID]; onTeam || row.Level == LevelNone {
			continue
		}
		i, ok := pos[row.OccupationID]
		if !ok {
			i = len(out)
			pos[row.OccupationID] = i
			out = append(out, candidate{id: row.OccupationID, name: row.OccupationName, levels: map[string]Level{}})
		}
		out[i].levels[row.ActivityID] = row.Level
	}
	return out
}

// scoreCandidate adds the contribution of every selected activity the
// candidate can perform. Score stays unrounded until ranking.
func scoreCandidate(c *candidate, activities []Activity, counts map[string]CoverageCount, weights Weights) {
	for _, activity := range activities {
		level, ok := c.levels[activity.ID]
		if !ok {
			continue
		}
		c.score += contribution(activity, level, counts[activity.ID], weights)
		switch counts[activity.ID].Class() {
		case ClassGap:
			c.gapsFilled++
		case ClassFragile:
			c.redundancyGains++
		}
	}
}

// contribution is the score one activity adds for a candidate at level.
// Redundant activities always use the density of the redundancy-only tier.
func contribution(activity Activity, level Level, count CoverageCount, weights Weights) float64 {
	pv := level.value()
	switch count.Class() {
	case ClassGap:
		return float64(roundInt(weights.Gap*Criticality(activity.Type)*pv)) + weights.Density*pv
	case ClassFragile:
		bonus := 1.0
		if count.YCount == 0 {
			bonus = lcFragilityBonus
		}
		return float64(roundInt(weights.Fragile*Criticality(activity.Type)*bonus*pv)) + weights.Density*pv
	default:
		return weightsRedundantOnly.Density * pv
	}
}

func buildSuggestion(c candidate, activities []Activity, summary CoverageSummary) Suggestion {
	return Suggestion{
		OccupationID:      c.id,
		OccupationName:    c.name,
		Score:             roundInt(c.score),
		Tier:              c.tier(),
		GapsFilled:        c.gapsFilled,
		RedundancyGains:   c.redundancyGains,
		Competencies:      competencies(c, activities),
		SimulatedCoverage: simulate(c, summary, len(activities)),
	}
}

// competencies groups the candidate's activities by bundle, sorted by bundle name.
func competencies(c candidate, activities []Activity) []Competency {
	byBundle := make(map[string]*Competency)
	var order []*Competency
	for _, activity := range activities {
		level, ok := c.levels[activity.ID]
		if !ok {
			continue
		}
		comp, ok := byBundle[activity.Bundle.ID]
		if !ok {
			comp = &Competency{
				BundleID:     activity.Bundle.ID,
				BundleName:   activity.Bundle.DisplayName,
				ActivitiesY:  []SuggestionActivity{},
				ActivitiesLC: []SuggestionActivity{},
			}
			byBundle[activity.Bundle.ID] = comp
			order = append(order, comp)
		}
		entry := SuggestionActivity{
			ActivityID:   activity.ID,
			ActivityName: activity.DisplayName,
			ActivityType: activity.Type,
		}
		if level == LevelY {
			comp.ActivitiesY = append(comp.ActivitiesY, entry)
		} else {
			comp.ActivitiesLC = append(comp.ActivitiesLC, entry)
		}
	}
	sort.SliceStable(order, func(i, j int) bool {
		return order[i].BundleName < order[j].BundleName
	})
	out := make([]Competency, 0, len(order))
	for _, comp := range order {
		out = append(out, *comp)
	}
	return out
}

func simulate(c candidate, summary CoverageSummary, total int) SimulatedCoverage {
	covered := len(summary.Fragile) + len(summary.Redundant) + c.gapsFilled
	projected := percent(covered, total)
	if projected > 100 {
		projected = 100
	}
	return SimulatedCoverage{
		GapsRemaining:    max(0, len(summary.Gaps)-c.gapsFilled),
		FragileRemaining: max(0, len(summary.Fragile)-c.redundancyGains+c.gapsFilled),
		CoveragePercent:  projected,
		MarginalBenefit:  projected - summary.CoveragePercent,
	}
}

func alertsFor(s Suggestion, gaps int) []Alert {
	var out []Alert
	newAlert := func(t AlertType, msg string) {
		out = append(out, Alert{Type: t, Message: msg, OccupationID: s.OccupationID, OccupationName: s.OccupationName})
	}
	if benefit := s.SimulatedCoverage.MarginalBenefit; benefit >= 0 && benefit < 5 {
		newAlert(AlertLowMarginalBenefit, fmt.Sprintf("Adding %s would only improve coverage by %d%%", s.OccupationName, benefit))
	}
	if gaps > 0 && s.GapsFilled == 0 {
		newAlert(AlertNoGapCoverage, fmt.Sprintf("%s cannot fill any of the %d gap activities", s.OccupationName, gaps))
	}
	if s.GapsFilled == 0 && s.RedundancyGains == 0 {
		newAlert(AlertRedundantOnly, fmt.Sprintf("%s only adds redundancy to already well-covered activities", s.OccupationName))
	}
	return out
}

func summarizeCoverage(activities []Activity, counts map[string]CoverageCount) CoverageSummary {
	summary := emptySummary()
	for _, activity := range activities {
		count := counts[activity.ID]
		entry := ActivityCoverage{
			ActivityID:   activity.ID,
			ActivityName: activity.DisplayName,
			ActivityType: activity.Type,
			YCount:       count.YCount,
			LCCount:      count.LCCount,
		}
		switch count.Class() {
		case ClassGap:
			summary.Gaps = append(summary.Gaps, entry)
		case ClassFragile:
			summary.Fragile = append(summary.Fragile, entry)
		default:
			summary.Redundant = append(summary.Redundant, entry)
		}
	}
	summary.CoveragePercent = percent(len(activities)-len(summary.Gaps), len(activities))
	return summary
}

func emptySummary() CoverageSummary {
	return CoverageSummary{
		Gaps:      []ActivityCoverage{},
		Fragile:   []ActivityCoverage{},
		Redundant: []ActivityCoverage{},
	}
}

// pageBounds returns the slice bounds of page within total items. Pages past
// the end yield an empty range without overflowing.
func pageBounds(page, pageSize, total int) (int, int) {
	pages := total / pageSize
	if total%pageSize != 0 {
		pages++
	}
	if page-1 >= pages {
		return total, total
	}
	start := (page - 1) * pageSize
	return start, min(start+pageSize, total)
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	return page, pageSize
}
