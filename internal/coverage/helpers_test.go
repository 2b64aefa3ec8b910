package coverage

var (
	bundleMedication = Bundle{ID: "b-med", DisplayName: "Medication"}
	bundleAssessment = Bundle{ID: "b-assess", DisplayName: "Assessment"}
)

func intPtr(v int) *int { return &v }

func activity(id, name string, bundle Bundle, t ActivityType) Activity {
	return Activity{ID: id, DisplayName: name, Bundle: bundle, Type: t}
}

func task(id string) Activity {
	return activity(id, "Activity "+id, bundleMedication, ActivityTypeTask)
}

func row(activityID, occupationID string, level Level) PermissionRow {
	return PermissionRow{ActivityID: activityID, OccupationID: occupationID, OccupationName: "Occupation " + occupationID, Level: level}
}

func namedRow(activityID, occupationID, name string, level Level) PermissionRow {
	return PermissionRow{ActivityID: activityID, OccupationID: occupationID, OccupationName: name, Level: level}
}
