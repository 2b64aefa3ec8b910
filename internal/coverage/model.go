package coverage

// ActivityType classifies an activity and doubles as its criticality weight.
type ActivityType string

const (
	ActivityTypeTask               ActivityType = "TASK"
	ActivityTypeAspectOfPractice   ActivityType = "ASPECT_OF_PRACTICE"
	ActivityTypeRestrictedActivity ActivityType = "RESTRICTED_ACTIVITY"
)

// Bundle is a named grouping of related activities (a care competency).
type Bundle struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

// Activity is a selected care activity.
type Activity struct {
	ID          string       `json:"id"`
	DisplayName string       `json:"displayName"`
	Bundle      Bundle       `json:"bundle"`
	Type        ActivityType `json:"activityType"`
}

// Occupation is either a team member or a candidate, depending on the call.
type Occupation struct {
	ID           string `json:"id"`
	DisplayName  string `json:"displayName"`
	Description  string `json:"description,omitempty"`
	DisplayOrder *int   `json:"displayOrder,omitempty"`
}

// PermissionRow states that an occupation may perform an activity at Level.
// A missing row means the occupation may not perform it.
type PermissionRow struct {
	ActivityID     string
	OccupationID   string
	OccupationName string
	Level          Level
}
