package sessions

import (
	"context"
	"testing"
	"time"

	"teambuilder-backend/internal/catalog"
	"teambuilder-backend/internal/coverage"
)

func seededCatalog(t *testing.T) *catalog.MemoryRepo {
	t.Helper()
	repo := catalog.NewMemoryRepo()
	repo.AddBundle(coverage.Bundle{ID: "b-med", DisplayName: "Medication"})
	repo.AddBundle(coverage.Bundle{ID: "b-assess", DisplayName: "Assessment"})
	for _, a := range []coverage.Activity{
		{ID: "a1", DisplayName: "Oral medication", Bundle: coverage.Bundle{ID: "b-med"}, Type: coverage.ActivityTypeTask},
		{ID: "a2", DisplayName: "IV push", Bundle: coverage.Bundle{ID: "b-med"}, Type: coverage.ActivityTypeRestrictedActivity},
		{ID: "a3", DisplayName: "Vital signs", Bundle: coverage.Bundle{ID: "b-assess"}, Type: coverage.ActivityTypeTask},
	} {
		if err := repo.AddActivity(a); err != nil {
			t.Fatalf("AddActivity %s: %v", a.ID, err)
		}
	}
	one, two := 1, 2
	repo.AddOccupation(coverage.Occupation{ID: "rn", DisplayName: "Registered Nurse", DisplayOrder: &one})
	repo.AddOccupation(coverage.Occupation{ID: "lpn", DisplayName: "Licensed Practical Nurse", DisplayOrder: &two})
	repo.AddOccupation(coverage.Occupation{ID: "hca", DisplayName: "Health Care Assistant"})
	repo.AddCareSetting(catalog.CareSetting{ID: "cs-1", Name: "Medical", ActivityIDs: []string{"a1", "a2", "a3"}}, []catalog.PermissionRecord{
		{ActivityID: "a1", OccupationID: "rn", Permission: "Y"},
		{ActivityID: "a2", OccupationID: "rn", Permission: "Y"},
		{ActivityID: "a1", OccupationID: "lpn", Permission: "LC"},
		{ActivityID: "a3", OccupationID: "hca", Permission: "Y"},
	})
	repo.AddCareSetting(catalog.CareSetting{ID: "cs-2", Name: "Clinic", ActivityIDs: []string{"a3"}}, nil)
	return repo
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc := NewService(NewMemoryRepo(), seededCatalog(t))
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	tick := 0
	svc.Now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}
	return svc
}

// newSessionWithTeam creates a cs-1 session owned by u1 with the given team.
func newSessionWithTeam(t *testing.T, svc *Service, team ...string) Session {
	t.Helper()
	ctx := context.Background()
	session, err := svc.Create(ctx, "u1", "cs-1", "default")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(team) > 0 {
		if err := svc.SaveOccupations(ctx, session.ID, team); err != nil {
			t.Fatalf("SaveOccupations: %v", err)
		}
	}
	return session
}

// brokenCareSettings fails care setting lookups with err.
type brokenCareSettings struct {
	catalog.Repo
	err error
}

func (b brokenCareSettings) GetCareSetting(context.Context, string) (catalog.CareSetting, error) {
	return catalog.CareSetting{}, b.err
}
