package catalog

import (
	"context"
	"sort"
	"strings"
	"sync"

	"teambuilder-backend/internal/coverage"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu           sync.RWMutex
	bundles      map[string]coverage.Bundle
	activities   map[string]coverage.Activity
	occupations  map[string]coverage.Occupation
	careSettings map[string]CareSetting
	permissions  map[string][]PermissionRecord // careSettingID -> rows
}

// NewMemoryRepo constructs an empty MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		bundles:      make(map[string]coverage.Bundle),
		activities:   make(map[string]coverage.Activity),
		occupations:  make(map[string]coverage.Occupation),
		careSettings: make(map[string]CareSetting),
		permissions:  make(map[string][]PermissionRecord),
	}
}

// AddBundle stores or replaces a bundle.
func (r *MemoryRepo) AddBundle(b coverage.Bundle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bundles[b.ID] = b
}

// AddActivity stores or replaces an activity. The bundle must already exist.
func (r *MemoryRepo) AddActivity(a coverage.Activity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	bundle, ok := r.bundles[a.Bundle.ID]
	if !ok {
		return ErrNotFound
	}
	a.Bundle = bundle
	r.activities[a.ID] = a
	return nil
}

// AddOccupation stores or replaces an occupation.
func (r *MemoryRepo) AddOccupation(o coverage.Occupation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.occupations[o.ID] = o
}

// AddCareSetting stores or replaces a care setting and its permission rows.
func (r *MemoryRepo) AddCareSetting(cs CareSetting, permissions []PermissionRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cs.ActivityIDs = append([]string(nil), cs.ActivityIDs...)
	cs.BundleIDs = append([]string(nil), cs.BundleIDs...)
	r.careSettings[cs.ID] = cs
	r.permissions[cs.ID] = append([]PermissionRecord(nil), permissions...)
}

func (r *MemoryRepo) GetCareSetting(ctx context.Context, id string) (CareSetting, error) {
	if err := ctx.Err(); err != nil {
		return CareSetting{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	cs, ok := r.careSettings[id]
	if !ok {
		return CareSetting{}, ErrNotFound
	}
	return copyCareSetting(cs), nil
}

func (r *MemoryRepo) ListCareSettings(ctx context.Context) ([]CareSetting, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := make([]CareSetting, 0, len(r.careSettings))
	for _, cs := range r.careSettings {
		out = append(out, copyCareSetting(cs))
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *MemoryRepo) ActivitiesByIDs(ctx context.Context, ids []string) ([]coverage.Activity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]coverage.Activity, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if a, ok := r.activities[id]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *MemoryRepo) OccupationsByIDs(ctx context.Context, ids []string) ([]coverage.Occupation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]coverage.Occupation, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if o, ok := r.occupations[id]; ok {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *MemoryRepo) ListOccupations(ctx context.Context) ([]coverage.Occupation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := make([]coverage.Occupation, 0, len(r.occupations))
	for _, o := range r.occupations {
		out = append(out, o)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return coverage.SortOccupations(out), nil
}

func (r *MemoryRepo) BundlesForCareSetting(ctx context.Context, careSettingID string) ([]BundleActivities, error) {
	cs, err := r.GetCareSetting(ctx, careSettingID)
	if err != nil {
		return nil, err
	}
	activities, err := r.ActivitiesByIDs(ctx, cs.ActivityIDs)
	if err != nil {
		return nil, err
	}
	return groupBundles(activities), nil
}

func (r *MemoryRepo) PermissionsForGap(ctx context.Context, careSettingID string, activityIDs, occupationIDs []string) ([]PermissionRecord, error) {
	if len(activityIDs) == 0 || len(occupationIDs) == 0 {
		return []PermissionRecord{}, nil
	}
	return r.permissionsFor(ctx, careSettingID, activityIDs, occupationIDs)
}

func (r *MemoryRepo) PermissionsForSuggestions(ctx context.Context, careSettingID string, activityIDs []string) ([]PermissionRecord, error) {
	if len(activityIDs) == 0 {
		return []PermissionRecord{}, nil
	}
	return r.permissionsFor(ctx, careSettingID, activityIDs, nil)
}

// permissionsFor filters the care setting's rows. A nil occupationIDs
// matches every occupation.
func (r *MemoryRepo) permissionsFor(ctx context.Context, careSettingID string, activityIDs, occupationIDs []string) ([]PermissionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	activitySet := toSet(activityIDs)
	var occupationSet map[string]struct{}
	if occupationIDs != nil {
		occupationSet = toSet(occupationIDs)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []PermissionRecord{}
	for _, rec := range r.permissions[careSettingID] {
		if _, ok := activitySet[rec.ActivityID]; !ok {
			continue
		}
		if occupationSet != nil {
			if _, ok := occupationSet[rec.OccupationID]; !ok {
				continue
			}
		}
		perm := strings.ToUpper(strings.TrimSpace(rec.Permission))
		if perm == "" || perm == "N" {
			continue
		}
		if rec.OccupationName == "" {
			rec.OccupationName = r.occupations[rec.OccupationID].DisplayName
		}
		out = append(out, rec)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ActivityID != out[j].ActivityID {
			return out[i].ActivityID < out[j].ActivityID
		}
		return out[i].OccupationID < out[j].OccupationID
	})
	return out, nil
}

func copyCareSetting(cs CareSetting) CareSetting {
	cs.ActivityIDs = append([]string(nil), cs.ActivityIDs...)
	cs.BundleIDs = append([]string(nil), cs.BundleIDs...)
	return cs
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
