package catalog

import (
	"context"
	"fmt"
	"sort"

	"teambuilder-backend/internal/coverage"
)

// Repo is the activity/occupation catalog and permission snapshot source.
type Repo interface {
	GetCareSetting(ctx context.Context, id string) (CareSetting, error)
	ListCareSettings(ctx context.Context) ([]CareSetting, error)
	// ActivitiesByIDs returns the known activities in the order of ids.
	ActivitiesByIDs(ctx context.Context, ids []string) ([]coverage.Activity, error)
	// OccupationsByIDs returns the known occupations in the order of ids.
	OccupationsByIDs(ctx context.Context, ids []string) ([]coverage.Occupation, error)
	ListOccupations(ctx context.Context) ([]coverage.Occupation, error)
	BundlesForCareSetting(ctx context.Context, careSettingID string) ([]BundleActivities, error)
	// PermissionsForGap returns the non-N rows for the given activities and
	// occupations. It is empty when either set is empty.
	PermissionsForGap(ctx context.Context, careSettingID string, activityIDs, occupationIDs []string) ([]PermissionRecord, error)
	// PermissionsForSuggestions returns the non-N rows of every occupation
	// for the given activities.
	PermissionsForSuggestions(ctx context.Context, careSettingID string, activityIDs []string) ([]PermissionRecord, error)
}

// ToCoverage converts stored rows into core permission rows. N rows are
// dropped; unknown values fail with ErrUnknownLevel.
func ToCoverage(records []PermissionRecord) ([]coverage.PermissionRow, error) {
	out := make([]coverage.PermissionRow, 0, len(records))
	for _, rec := range records {
		level, err := coverage.ParseLevel(rec.Permission)
		if err != nil {
			return nil, fmt.Errorf("activity %s occupation %s: %w", rec.ActivityID, rec.OccupationID, err)
		}
		if level == coverage.LevelNone {
			continue
		}
		out = append(out, coverage.PermissionRow{
			ActivityID:     rec.ActivityID,
			OccupationID:   rec.OccupationID,
			OccupationName: rec.OccupationName,
			Level:          level,
		})
	}
	return out, nil
}

// groupBundles groups activities by bundle. Bundles and the activities in
// each are sorted by display name, then ID.
func groupBundles(activities []coverage.Activity) []BundleActivities {
	byID := make(map[string]int)
	var out []BundleActivities
	for _, activity := range activities {
		i, ok := byID[activity.Bundle.ID]
		if !ok {
			i = len(out)
			byID[activity.Bundle.ID] = i
			out = append(out, BundleActivities{Bundle: activity.Bundle})
		}
		out[i].Activities = append(out[i].Activities, activity)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Bundle.DisplayName != out[j].Bundle.DisplayName {
			return out[i].Bundle.DisplayName < out[j].Bundle.DisplayName
		}
		return out[i].Bundle.ID < out[j].Bundle.ID
	})
	for _, group := range out {
		sort.Slice(group.Activities, func(i, j int) bool {
			a, b := group.Activities[i], group.Activities[j]
			if a.DisplayName != b.DisplayName {
				return a.DisplayName < b.DisplayName
			}
			return a.ID < b.ID
		})
	}
	return out
}
