package coverage

import (
	"encoding/json"
	"reflect"
	"testing"
)

func gapFixture() ([]Activity, []Occupation, []PermissionRow) {
	activities := []Activity{
		activity("a1", "Oral medication", bundleMedication, ActivityTypeTask),
		activity("a2", "IV push", bundleMedication, ActivityTypeRestrictedActivity),
		activity("a3", "Vital signs", bundleAssessment, ActivityTypeTask),
		activity("a4", "Wound assessment", bundleAssessment, ActivityTypeAspectOfPractice),
	}
	team := []Occupation{
		{ID: "hca", DisplayName: "Health Care Assistant"},
		{ID: "lpn", DisplayName: "Licensed Practical Nurse", DisplayOrder: intPtr(2)},
		{ID: "rn", DisplayName: "Registered Nurse", DisplayOrder: intPtr(1)},
	}
	rows := []PermissionRow{
		row("a1", "rn", LevelY),
		row("a1", "lpn", LevelY),
		row("a1", "hca", LevelLC),
		row("a2", "rn", LevelY),
		row("a3", "rn", LevelY),
		row("a3", "lpn", LevelLC),
	}
	return activities, team, rows
}

func TestAnalyzeGapHeadersFollowDisplayOrder(t *testing.T) {
	activities, team, rows := gapFixture()
	res := AnalyzeGap(activities, team, rows)
	if res == nil {
		t.Fatalf("expected result")
	}
	want := []string{GapTitleHeader, "Registered Nurse", "Licensed Practical Nurse", "Health Care Assistant"}
	if !reflect.DeepEqual(res.Headers, want) {
		t.Fatalf("expected headers %v, got %v", want, res.Headers)
	}
}

func TestAnalyzeGapHeadersTieBreakByName(t *testing.T) {
	team := []Occupation{
		{ID: "z", DisplayName: "Zeta", DisplayOrder: intPtr(1)},
		{ID: "a", DisplayName: "Alpha", DisplayOrder: intPtr(1)},
		{ID: "m", DisplayName: "Mu"},
		{ID: "b", DisplayName: "Beta"},
	}
	res := AnalyzeGap([]Activity{task("a1")}, team, nil)
	want := []string{GapTitleHeader, "Alpha", "Zeta", "Beta", "Mu"}
	if !reflect.DeepEqual(res.Headers, want) {
		t.Fatalf("expected headers %v, got %v", want, res.Headers)
	}
}

func TestAnalyzeGapMatrix(t *testing.T) {
	activities, team, rows := gapFixture()
	res := AnalyzeGap(activities, team, rows)

	if len(res.Data) != 2 {
		t.Fatalf("expected 2 bundles, got %d", len(res.Data))
	}
	assessment, medication := res.Data[0], res.Data[1]
	if assessment.Name != "Assessment" || medication.Name != "Medication" {
		t.Fatalf("expected bundles sorted by name, got %q, %q", assessment.Name, medication.Name)
	}

	if assessment.NumberOfGaps != 1 {
		t.Fatalf("expected 1 gap in Assessment, got %d", assessment.NumberOfGaps)
	}
	if medication.NumberOfGaps != 0 {
		t.Fatalf("expected 0 gaps in Medication, got %d", medication.NumberOfGaps)
	}

	if got := medication.CareActivities[0].Name; got != "IV push" {
		t.Fatalf("expected activities sorted by name, first was %q", got)
	}
	wantIV := map[string]string{
		"Registered Nurse":         "Y",
		"Licensed Practical Nurse": CellOutOfScope,
		"Health Care Assistant":    CellOutOfScope,
	}
	if !reflect.DeepEqual(medication.CareActivities[0].Cells, wantIV) {
		t.Fatalf("unexpected IV push cells %v", medication.CareActivities[0].Cells)
	}

	wantSummary := map[string]string{
		"Registered Nurse":         "Y",
		"Licensed Practical Nurse": CellMixed,
		"Health Care Assistant":    CellMixed,
	}
	if !reflect.DeepEqual(medication.Summary, wantSummary) {
		t.Fatalf("unexpected Medication summary %v", medication.Summary)
	}
	if got := assessment.Summary["Health Care Assistant"]; got != CellOutOfScope {
		t.Fatalf("expected HCA out of scope for Assessment, got %q", got)
	}
}

func TestAnalyzeGapOverview(t *testing.T) {
	activities, team, rows := gapFixture()
	res := AnalyzeGap(activities, team, rows)

	// 12 cells: 4 Y, 2 LC.
	ov := res.Overview
	if ov.InScope != "33%" || ov.Limits != "17%" || ov.OutOfScope != "50%" {
		t.Fatalf("unexpected scope split %s/%s/%s", ov.InScope, ov.Limits, ov.OutOfScope)
	}
	want := CoverageStats{
		TotalActivities: 4,
		GapsCount:       1,
		FragileCount:    1,
		RedundantCount:  2,
		CoveragePercent: 75,
	}
	if ov.Coverage != want {
		t.Fatalf("expected coverage %+v, got %+v", want, ov.Coverage)
	}
}

func TestScopeSplitAlwaysSumsTo100(t *testing.T) {
	for total := 1; total <= 30; total++ {
		for y := 0; y <= total; y++ {
			for lc := 0; y+lc <= total; lc++ {
				in, limits, out := scopeSplit(y, lc, total)
				if in+limits+out != 100 {
					t.Fatalf("y=%d lc=%d total=%d: %d+%d+%d != 100", y, lc, total, in, limits, out)
				}
			}
		}
	}
	if in, limits, out := scopeSplit(1, 1, 8); in != 13 || limits != 13 || out != 74 {
		t.Fatalf("expected 13/13/74, got %d/%d/%d", in, limits, out)
	}
	if in, limits, out := scopeSplit(0, 0, 0); in != 0 || limits != 0 || out != 0 {
		t.Fatalf("expected zeros for empty matrix, got %d/%d/%d", in, limits, out)
	}
}

func TestAnalyzeGapNothingToShow(t *testing.T) {
	activities, team, rows := gapFixture()
	if res := AnalyzeGap(nil, team, rows); res != nil {
		t.Fatalf("expected nil without activities")
	}
	if res := AnalyzeGap(activities, nil, rows); res != nil {
		t.Fatalf("expected nil without team")
	}
}

func TestAnalyzeGapClassificationCountsMatchTotal(t *testing.T) {
	activities, team, rows := gapFixture()
	stats := AnalyzeGap(activities, team, rows).Overview.Coverage
	if stats.GapsCount+stats.FragileCount+stats.RedundantCount != stats.TotalActivities {
		t.Fatalf("classification not exhaustive: %+v", stats)
	}
}

func TestGapBundleJSONFlattensOccupations(t *testing.T) {
	activities, team, rows := gapFixture()
	res := AnalyzeGap(activities, team, rows)

	data, err := json.Marshal(res.Data[1])
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if payload["name"] != "Medication" {
		t.Fatalf("expected name Medication, got %v", payload["name"])
	}
	if payload["numberOfGaps"] != float64(0) {
		t.Fatalf("expected numberOfGaps 0, got %v", payload["numberOfGaps"])
	}
	if payload["Licensed Practical Nurse"] != CellMixed {
		t.Fatalf("expected flattened summary, got %v", payload["Licensed Practical Nurse"])
	}
	rowsOut, ok := payload["careActivities"].([]any)
	if !ok || len(rowsOut) != 2 {
		t.Fatalf("expected 2 care activities, got %v", payload["careActivities"])
	}
	first := rowsOut[0].(map[string]any)
	if first["name"] != "IV push" || first["Registered Nurse"] != "Y" {
		t.Fatalf("unexpected first activity row %v", first)
	}
}
