package catalog

import "teambuilder-backend/internal/coverage"

// CareSetting is a care-setting template: a unit with its default activity
// selection and its permission snapshot.
type CareSetting struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	UnitID      string   `json:"unitId,omitempty"`
	UnitName    string   `json:"unitName,omitempty"`
	ActivityIDs []string `json:"activityIds,omitempty"`
	BundleIDs   []string `json:"bundleIds,omitempty"`
}

// PermissionRecord is a raw permission row as stored. Permission is Y, LC or N.
type PermissionRecord struct {
	ActivityID     string
	OccupationID   string
	OccupationName string
	Permission     string
}

// BundleActivities is one bundle with the activities selected under it.
type BundleActivities struct {
	Bundle     coverage.Bundle     `json:"bundle"`
	Activities []coverage.Activity `json:"careActivities"`
}
