package catalog

import (
	"context"
	"database/sql"
	"errors"

	"teambuilder-backend/internal/coverage"
	"teambuilder-backend/internal/shared/storage/db"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// GetCareSetting loads a care setting with its selected activities and bundles.
func (r *PGRepo) GetCareSetting(ctx context.Context, id string) (CareSetting, error) {
	const query = `
SELECT id, name, unit_id, unit_name
FROM care_settings
WHERE id = $1`
	var cs CareSetting
	var unitID, unitName sql.NullString
	err := r.DB.QueryRowContext(ctx, query, id).Scan(&cs.ID, &cs.Name, &unitID, &unitName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return CareSetting{}, ErrNotFound
		}
		return CareSetting{}, err
	}
	cs.UnitID = unitID.String
	cs.UnitName = unitName.String

	cs.ActivityIDs, err = r.queryIDs(ctx, `
SELECT care_activity_id
FROM care_setting_activities
WHERE care_setting_id = $1
ORDER BY care_activity_id`, id)
	if err != nil {
		return CareSetting{}, err
	}
	cs.BundleIDs, err = r.queryIDs(ctx, `
SELECT bundle_id
FROM care_setting_bundles
WHERE care_setting_id = $1
ORDER BY bundle_id`, id)
	if err != nil {
		return CareSetting{}, err
	}
	return cs, nil
}

// ListCareSettings lists care settings by name. Activity and bundle IDs are not loaded.
func (r *PGRepo) ListCareSettings(ctx context.Context) ([]CareSetting, error) {
	const query = `
SELECT id, name, unit_id, unit_name
FROM care_settings
ORDER BY name, id`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []CareSetting{}
	for rows.Next() {
		var cs CareSetting
		var unitID, unitName sql.NullString
		if err := rows.Scan(&cs.ID, &cs.Name, &unitID, &unitName); err != nil {
			return nil, err
		}
		cs.UnitID = unitID.String
		cs.UnitName = unitName.String
		out = append(out, cs)
	}
	return out, rows.Err()
}

func (r *PGRepo) ActivitiesByIDs(ctx context.Context, ids []string) ([]coverage.Activity, error) {
	if len(ids) == 0 {
		return []coverage.Activity{}, nil
	}
	query := `
SELECT a.id, a.display_name, a.activity_type, b.id, b.display_name
FROM care_activities a
JOIN bundles b ON b.id = a.bundle_id
WHERE a.id IN (` + db.Placeholders(1, len(ids)) + `)`
	rows, err := r.DB.QueryContext(ctx, query, db.Args(ids...)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	found := make(map[string]coverage.Activity, len(ids))
	for rows.Next() {
		var a coverage.Activity
		var activityType string
		if err := rows.Scan(&a.ID, &a.DisplayName, &activityType, &a.Bundle.ID, &a.Bundle.DisplayName); err != nil {
			return nil, err
		}
		a.Type = coverage.ActivityType(activityType)
		found[a.ID] = a
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return inOrder(ids, found), nil
}

func (r *PGRepo) OccupationsByIDs(ctx context.Context, ids []string) ([]coverage.Occupation, error) {
	if len(ids) == 0 {
		return []coverage.Occupation{}, nil
	}
	query := `
SELECT id, display_name, description, display_order
FROM occupations
WHERE id IN (` + db.Placeholders(1, len(ids)) + `)`
	occupations, err := r.queryOccupations(ctx, query, db.Args(ids...)...)
	if err != nil {
		return nil, err
	}
	found := make(map[string]coverage.Occupation, len(occupations))
	for _, o := range occupations {
		found[o.ID] = o
	}
	return inOrder(ids, found), nil
}

func (r *PGRepo) ListOccupations(ctx context.Context) ([]coverage.Occupation, error) {
	const query = `
SELECT id, display_name, description, display_order
FROM occupations
ORDER BY display_order NULLS LAST, display_name, id`
	return r.queryOccupations(ctx, query)
}

func (r *PGRepo) BundlesForCareSetting(ctx context.Context, careSettingID string) ([]BundleActivities, error) {
	var exists int
	err := r.DB.QueryRowContext(ctx, `SELECT 1 FROM care_settings WHERE id = $1`, careSettingID).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	const query = `
SELECT a.id, a.display_name, a.activity_type, b.id, b.display_name
FROM care_setting_activities csa
JOIN care_activities a ON a.id = csa.care_activity_id
JOIN bundles b ON b.id = a.bundle_id
WHERE csa.care_setting_id = $1
ORDER BY b.display_name, a.display_name, a.id`
	rows, err := r.DB.QueryContext(ctx, query, careSettingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var activities []coverage.Activity
	for rows.Next() {
		var a coverage.Activity
		var activityType string
		if err := rows.Scan(&a.ID, &a.DisplayName, &activityType, &a.Bundle.ID, &a.Bundle.DisplayName); err != nil {
			return nil, err
		}
		a.Type = coverage.ActivityType(activityType)
		activities = append(activities, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return groupBundles(activities), nil
}

func (r *PGRepo) PermissionsForGap(ctx context.Context, careSettingID string, activityIDs, occupationIDs []string) ([]PermissionRecord, error) {
	if len(activityIDs) == 0 || len(occupationIDs) == 0 {
		return []PermissionRecord{}, nil
	}
	query := `
SELECT p.care_activity_id, p.occupation_id, o.display_name, p.permission
FROM care_setting_permissions p
JOIN occupations o ON o.id = p.occupation_id
WHERE p.care_setting_id = $1
  AND p.permission <> 'N'
  AND p.care_activity_id IN (` + db.Placeholders(2, len(activityIDs)) + `)
  AND p.occupation_id IN (` + db.Placeholders(2+len(activityIDs), len(occupationIDs)) + `)
ORDER BY p.care_activity_id, p.occupation_id`
	args := append([]any{careSettingID}, db.Args(activityIDs...)...)
	args = append(args, db.Args(occupationIDs...)...)
	return r.queryPermissions(ctx, query, args...)
}

func (r *PGRepo) PermissionsForSuggestions(ctx context.Context, careSettingID string, activityIDs []string) ([]PermissionRecord, error) {
	if len(activityIDs) == 0 {
		return []PermissionRecord{}, nil
	}
	query := `
SELECT p.care_activity_id, p.occupation_id, o.display_name, p.permission
FROM care_setting_permissions p
JOIN occupations o ON o.id = p.occupation_id
WHERE p.care_setting_id = $1
  AND p.permission <> 'N'
  AND p.care_activity_id IN (` + db.Placeholders(2, len(activityIDs)) + `)
ORDER BY p.care_activity_id, p.occupation_id`
	args := append([]any{careSettingID}, db.Args(activityIDs...)...)
	return r.queryPermissions(ctx, query, args...)
}

func (r *PGRepo) queryIDs(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (r *PGRepo) queryOccupations(ctx context.Context, query string, args ...any) ([]coverage.Occupation, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []coverage.Occupation{}
	for rows.Next() {
		var o coverage.Occupation
		var description sql.NullString
		var order sql.NullInt64
		if err := rows.Scan(&o.ID, &o.DisplayName, &description, &order); err != nil {
			return nil, err
		}
		o.Description = description.String
		if order.Valid {
			v := int(order.Int64)
			o.DisplayOrder = &v
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *PGRepo) queryPermissions(ctx context.Context, query string, args ...any) ([]PermissionRecord, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []PermissionRecord{}
	for rows.Next() {
		var rec PermissionRecord
		if err := rows.Scan(&rec.ActivityID, &rec.OccupationID, &rec.OccupationName, &rec.Permission); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// inOrder returns found values in ids order, skipping unknown and repeated IDs.
func inOrder[T any](ids []string, found map[string]T) []T {
	out := make([]T, 0, len(found))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if v, ok := found[id]; ok {
			out = append(out, v)
		}
	}
	return out
}
