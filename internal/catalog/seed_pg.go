package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"teambuilder-backend/internal/shared/storage/db"
)

// SeedStats counts the rows written by Seed.
type SeedStats struct {
	Bundles      int
	Activities   int
	Occupations  int
	CareSettings int
	Permissions  int
}

// Seed upserts the whole catalog held by src into Postgres in one transaction.
// Rows are written in ID order so repeated runs issue the same statements.
func Seed(ctx context.Context, sqlDB *sql.DB, src *MemoryRepo) (SeedStats, error) {
	src.mu.RLock()
	defer src.mu.RUnlock()

	var stats SeedStats
	err := db.WithTx(ctx, sqlDB, func(tx *sql.Tx) error {
		var err error
		stats, err = seedTx(ctx, tx, src)
		return err
	})
	if err != nil {
		return SeedStats{}, err
	}
	return stats, nil
}

func seedTx(ctx context.Context, tx *sql.Tx, src *MemoryRepo) (stats SeedStats, err error) {
	for _, id := range sortedKeys(src.bundles) {
		b := src.bundles[id]
		if _, err = tx.ExecContext(ctx, `
INSERT INTO bundles (id, display_name) VALUES ($1, $2)
ON CONFLICT (id) DO UPDATE SET display_name = EXCLUDED.display_name`, b.ID, b.DisplayName); err != nil {
			return SeedStats{}, fmt.Errorf("seed bundle %s: %w", id, err)
		}
		stats.Bundles++
	}

	for _, id := range sortedKeys(src.activities) {
		a := src.activities[id]
		if _, err = tx.ExecContext(ctx, `
INSERT INTO care_activities (id, display_name, activity_type, bundle_id) VALUES ($1, $2, $3, $4)
ON CONFLICT (id) DO UPDATE SET display_name = EXCLUDED.display_name, activity_type = EXCLUDED.activity_type, bundle_id = EXCLUDED.bundle_id`,
			a.ID, a.DisplayName, string(a.Type), a.Bundle.ID); err != nil {
			return SeedStats{}, fmt.Errorf("seed activity %s: %w", id, err)
		}
		stats.Activities++
	}

	for _, id := range sortedKeys(src.occupations) {
		o := src.occupations[id]
		var order any
		if o.DisplayOrder != nil {
			order = *o.DisplayOrder
		}
		if _, err = tx.ExecContext(ctx, `
INSERT INTO occupations (id, display_name, description, display_order) VALUES ($1, $2, $3, $4)
ON CONFLICT (id) DO UPDATE SET display_name = EXCLUDED.display_name, description = EXCLUDED.description, display_order = EXCLUDED.display_order`,
			o.ID, o.DisplayName, db.NullString(o.Description), order); err != nil {
			return SeedStats{}, fmt.Errorf("seed occupation %s: %w", id, err)
		}
		stats.Occupations++
	}

	for _, id := range sortedKeys(src.careSettings) {
		cs := src.careSettings[id]
		if _, err = tx.ExecContext(ctx, `
INSERT INTO care_settings (id, name, unit_id, unit_name) VALUES ($1, $2, $3, $4)
ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, unit_id = EXCLUDED.unit_id, unit_name = EXCLUDED.unit_name`,
			cs.ID, cs.Name, db.NullString(cs.UnitID), db.NullString(cs.UnitName)); err != nil {
			return SeedStats{}, fmt.Errorf("seed care setting %s: %w", id, err)
		}
		// Selections and permissions are replaced wholesale.
		for _, table := range []string{"care_setting_activities", "care_setting_bundles", "care_setting_permissions"} {
			if _, err = tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE care_setting_id = $1`, cs.ID); err != nil {
				return SeedStats{}, fmt.Errorf("seed care setting %s: %w", id, err)
			}
		}
		for _, activityID := range cs.ActivityIDs {
			if _, err = tx.ExecContext(ctx, `
INSERT INTO care_setting_activities (care_setting_id, care_activity_id) VALUES ($1, $2)`, cs.ID, activityID); err != nil {
				return SeedStats{}, fmt.Errorf("seed care setting %s: %w", id, err)
			}
		}
		for _, bundleID := range cs.BundleIDs {
			if _, err = tx.ExecContext(ctx, `
INSERT INTO care_setting_bundles (care_setting_id, bundle_id) VALUES ($1, $2)`, cs.ID, bundleID); err != nil {
				return SeedStats{}, fmt.Errorf("seed care setting %s: %w", id, err)
			}
		}
		for _, rec := range src.permissions[id] {
			if _, err = tx.ExecContext(ctx, `
INSERT INTO care_setting_permissions (care_setting_id, care_activity_id, occupation_id, permission) VALUES ($1, $2, $3, $4)
ON CONFLICT (care_setting_id, care_activity_id, occupation_id) DO UPDATE SET permission = EXCLUDED.permission`,
				cs.ID, rec.ActivityID, rec.OccupationID, strings.ToUpper(strings.TrimSpace(rec.Permission))); err != nil {
				return SeedStats{}, fmt.Errorf("seed permissions %s: %w", id, err)
			}
			stats.Permissions++
		}
		stats.CareSettings++
	}

	return stats, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
