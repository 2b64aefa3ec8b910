package sessions

import (
	"bytes"
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"teambuilder-backend/internal/catalog"
	"teambuilder-backend/internal/coverage"
)

func TestServiceCreatePrepopulatesActivities(t *testing.T) {
	svc := newTestService(t)
	session, err := svc.Create(context.Background(), "u1", " cs-1 ", "default")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if session.ID == "" || session.Status != StatusDraft {
		t.Fatalf("unexpected session %+v", session)
	}
	if !reflect.DeepEqual(session.ActivityIDs, []string{"a1", "a2", "a3"}) {
		t.Fatalf("expected care setting activities, got %v", session.ActivityIDs)
	}
	if len(session.OccupationIDs) != 0 {
		t.Fatalf("expected empty team, got %v", session.OccupationIDs)
	}

	stored, err := svc.Get(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored.CareSettingID != "cs-1" || stored.UserID != "u1" {
		t.Fatalf("unexpected stored session %+v", stored)
	}
}

func TestServiceCreateValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, "u1", "", ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty care setting, got %v", err)
	}
	if _, err := svc.Create(ctx, "u1", "nope", ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unknown care setting, got %v", err)
	}
	if _, err := svc.Create(ctx, "", "cs-1", ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput without user, got %v", err)
	}
}

func TestServiceAuthorize(t *testing.T) {
	svc := newTestService(t)
	session := newSessionWithTeam(t, svc)
	ctx := context.Background()

	if _, err := svc.Authorize(ctx, "u1", session.ID); err != nil {
		t.Fatalf("owner rejected: %v", err)
	}
	if _, err := svc.Authorize(ctx, "u2", session.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := svc.Authorize(ctx, "u1", "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestServiceLastDraft(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	first := newSessionWithTeam(t, svc)
	second := newSessionWithTeam(t, svc)

	got, err := svc.LastDraft(ctx, "u1")
	if err != nil {
		t.Fatalf("LastDraft: %v", err)
	}
	if got.ID != second.ID || got.ID == first.ID {
		t.Fatalf("expected newest draft %s, got %s", second.ID, got.ID)
	}
	if _, err := svc.LastDraft(ctx, "u2"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestServiceSaveProfileResetsActivities(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	session := newSessionWithTeam(t, svc)

	if err := svc.SaveProfile(ctx, session.ID, "", "custom"); err != nil {
		t.Fatalf("SaveProfile: %v", err)
	}
	profile, err := svc.Profile(ctx, session.ID)
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if profile != (ProfileSelection{ProfileOption: "custom", CareSettingID: "cs-1"}) {
		t.Fatalf("unexpected profile %+v", profile)
	}

	if err := svc.SaveProfile(ctx, session.ID, "cs-2", ""); err != nil {
		t.Fatalf("SaveProfile: %v", err)
	}
	stored, _ := svc.Get(ctx, session.ID)
	if stored.CareSettingID != "cs-2" || !reflect.DeepEqual(stored.ActivityIDs, []string{"a3"}) {
		t.Fatalf("expected cs-2 activities, got %+v", stored)
	}
	if !stored.UpdatedAt.After(stored.CreatedAt) {
		t.Fatalf("expected updatedAt to move forward")
	}

	if err := svc.SaveProfile(ctx, session.ID, "nope", ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestServiceSaveActivitiesDropsUnknown(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	session := newSessionWithTeam(t, svc)

	err := svc.SaveActivities(ctx, session.ID, map[string][]string{
		"b-med":    {"a2", "zzz"},
		"b-assess": {"a3"},
	})
	if err != nil {
		t.Fatalf("SaveActivities: %v", err)
	}
	stored, _ := svc.Get(ctx, session.ID)
	if !reflect.DeepEqual(stored.ActivityIDs, []string{"a3", "a2"}) {
		t.Fatalf("unexpected activities %v", stored.ActivityIDs)
	}

	grouped, err := svc.Activities(ctx, session.ID)
	if err != nil {
		t.Fatalf("Activities: %v", err)
	}
	want := map[string][]string{"b-assess": {"a3"}, "b-med": {"a2"}}
	if !reflect.DeepEqual(grouped, want) {
		t.Fatalf("expected %v, got %v", want, grouped)
	}

	if err := svc.SaveActivities(ctx, session.ID, nil); err != nil {
		t.Fatalf("nil map: %v", err)
	}
	stored, _ = svc.Get(ctx, session.ID)
	if len(stored.ActivityIDs) != 2 {
		t.Fatalf("nil map should leave selection unchanged, got %v", stored.ActivityIDs)
	}
}

func TestServiceBundles(t *testing.T) {
	svc := newTestService(t)
	session := newSessionWithTeam(t, svc)

	bundles, err := svc.Bundles(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("Bundles: %v", err)
	}
	if len(bundles) != 2 || bundles[0].Bundle.ID != "b-assess" {
		t.Fatalf("unexpected bundles %+v", bundles)
	}
	if _, err := svc.Bundles(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestServiceSaveOccupationsDropsUnknown(t *testing.T) {
	svc := newTestService(t)
	session := newSessionWithTeam(t, svc, "hca", "ghost", "rn")

	ids, err := svc.Occupations(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("Occupations: %v", err)
	}
	if !reflect.DeepEqual(ids, []string{"hca", "rn"}) {
		t.Fatalf("unexpected team %v", ids)
	}
}

func TestServiceGap(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	empty := newSessionWithTeam(t, svc)
	result, err := svc.Gap(ctx, empty.ID)
	if err != nil || result != nil {
		t.Fatalf("expected nil result without team, got %+v, %v", result, err)
	}

	session := newSessionWithTeam(t, svc, "rn")
	result, err = svc.Gap(ctx, session.ID)
	if err != nil {
		t.Fatalf("Gap: %v", err)
	}
	if result == nil {
		t.Fatalf("expected gap result")
	}
	if !reflect.DeepEqual(result.Headers, []string{coverage.GapTitleHeader, "Registered Nurse"}) {
		t.Fatalf("unexpected headers %v", result.Headers)
	}
	if result.CareSetting != "Medical" {
		t.Fatalf("expected care setting name, got %q", result.CareSetting)
	}
	if result.Overview.Coverage.GapsCount != 1 || result.Overview.Coverage.TotalActivities != 3 {
		t.Fatalf("unexpected coverage %+v", result.Overview.Coverage)
	}

	if _, err := svc.Gap(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestServiceSuggestions(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	session := newSessionWithTeam(t, svc, "rn")

	result, err := svc.Suggestions(ctx, session.ID, nil, 1, 0)
	if err != nil {
		t.Fatalf("Suggestions: %v", err)
	}
	if len(result.Suggestions) == 0 {
		t.Fatalf("expected suggestions")
	}
	top := result.Suggestions[0]
	if top.OccupationID != "hca" || top.Tier != 1 || top.GapsFilled != 1 {
		t.Fatalf("expected hca to fill the gap, got %+v", top)
	}
	if result.PageSize != coverage.DefaultPageSize {
		t.Fatalf("expected default page size, got %d", result.PageSize)
	}
	for _, s := range result.Suggestions {
		if s.OccupationID == "rn" {
			t.Fatalf("team member suggested")
		}
	}
}

func TestServiceSuggestionsExcludesStaged(t *testing.T) {
	svc := newTestService(t)
	session := newSessionWithTeam(t, svc, "rn")

	result, err := svc.Suggestions(context.Background(), session.ID, []string{"hca"}, 1, 10)
	if err != nil {
		t.Fatalf("Suggestions: %v", err)
	}
	for _, s := range result.Suggestions {
		if s.OccupationID == "hca" {
			t.Fatalf("staged occupation suggested: %+v", s)
		}
	}
	if len(result.Summary.Gaps) != 0 {
		t.Fatalf("staged occupation should count as coverage, gaps %+v", result.Summary.Gaps)
	}
}

func TestServiceSuggestionsPageSizeClamped(t *testing.T) {
	svc := newTestService(t)
	svc.MaxPageSize = 2
	session := newSessionWithTeam(t, svc)

	result, err := svc.Suggestions(context.Background(), session.ID, nil, 1, 500)
	if err != nil {
		t.Fatalf("Suggestions: %v", err)
	}
	if result.PageSize != 2 {
		t.Fatalf("expected clamped page size 2, got %d", result.PageSize)
	}
}

func TestServiceSuggestionsWithoutActivities(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	session := newSessionWithTeam(t, svc, "rn")
	if err := svc.SaveActivities(ctx, session.ID, map[string][]string{}); err != nil {
		t.Fatalf("SaveActivities: %v", err)
	}

	result, err := svc.Suggestions(ctx, session.ID, nil, 1, 10)
	if err != nil {
		t.Fatalf("Suggestions: %v", err)
	}
	if result.Message != coverage.MessageNoActivities || len(result.Suggestions) != 0 {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestServiceMinimumTeam(t *testing.T) {
	svc := newTestService(t)
	session := newSessionWithTeam(t, svc)

	result, err := svc.MinimumTeam(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("MinimumTeam: %v", err)
	}
	if !reflect.DeepEqual(result.OccupationIDs, []string{"rn", "hca"}) {
		t.Fatalf("unexpected team %v", result.OccupationIDs)
	}
	if !result.IsFullCoverage || result.AchievedCoverage != 100 {
		t.Fatalf("expected full coverage, got %+v", result)
	}
}

func TestServiceExportCSV(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	session := newSessionWithTeam(t, svc, "rn")

	var buf bytes.Buffer
	if err := svc.ExportCSV(ctx, session.ID, &buf); err != nil {
		t.Fatalf("ExportCSV: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if lines[0] != coverage.GapTitleHeader+",Registered Nurse" {
		t.Fatalf("unexpected header %q", lines[0])
	}
	if !strings.Contains(buf.String(), "Vital signs,N") {
		t.Fatalf("expected out-of-scope cell as N, got %q", buf.String())
	}

	empty := newSessionWithTeam(t, svc)
	buf.Reset()
	if err := svc.ExportCSV(ctx, empty.ID, &buf); err != nil {
		t.Fatalf("ExportCSV: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected empty export, got %q", buf.String())
	}
}

func TestGapPropagatesCareSettingErrors(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	session := newSessionWithTeam(t, svc, "rn")

	loaderErr := errors.New("catalog unavailable")
	svc.Catalog = brokenCareSettings{Repo: svc.Catalog, err: loaderErr}
	if _, err := svc.Gap(ctx, session.ID); !errors.Is(err, loaderErr) {
		t.Fatalf("expected loader error, got %v", err)
	}

	svc.Catalog = brokenCareSettings{Repo: seededCatalog(t), err: catalog.ErrNotFound}
	if _, err := svc.Gap(ctx, session.ID); !errors.Is(err, ErrNoCareSetting) {
		t.Fatalf("expected ErrNoCareSetting, got %v", err)
	}
}
