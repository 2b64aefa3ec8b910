package sessions

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"teambuilder-backend/internal/catalog"
	"teambuilder-backend/internal/coverage"
	"teambuilder-backend/internal/shared/metrics"
	"teambuilder-backend/internal/shared/telemetry"
)

const defaultMaxPageSize = 50

// Service contains business logic for planning sessions.
type Service struct {
	Repo    Repo
	Catalog catalog.Repo

	DefaultPageSize int
	MaxPageSize     int
	Now             func() time.Time
}

// NewService constructs a Service with default paging.
func NewService(repo Repo, cat catalog.Repo) *Service {
	return &Service{
		Repo:            repo,
		Catalog:         cat,
		DefaultPageSize: coverage.DefaultPageSize,
		MaxPageSize:     defaultMaxPageSize,
	}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// Create starts a DRAFT session for a care setting, pre-populated with the
// setting's selected activities.
func (s *Service) Create(ctx context.Context, userID, careSettingID, profileOption string) (Session, error) {
	careSettingID = strings.TrimSpace(careSettingID)
	if userID == "" || careSettingID == "" {
		return Session{}, fmt.Errorf("%w: careSettingId is required", ErrInvalidInput)
	}
	cs, err := s.careSetting(ctx, careSettingID)
	if err != nil {
		return Session{}, err
	}

	now := s.now()
	session := Session{
		ID:            uuid.NewString(),
		UserID:        userID,
		CareSettingID: cs.ID,
		ProfileOption: strings.TrimSpace(profileOption),
		Status:        StatusDraft,
		ActivityIDs:   cs.ActivityIDs,
		OccupationIDs: []string{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.Repo.Create(ctx, session); err != nil {
		return Session{}, err
	}
	telemetry.Info("session.created", map[string]any{
		"session_id":      session.ID,
		"user_id":         userID,
		"care_setting_id": cs.ID,
		"activities":      len(session.ActivityIDs),
	})
	return session, nil
}

// Get returns a session by ID.
func (s *Service) Get(ctx context.Context, id string) (Session, error) {
	return s.Repo.Get(ctx, id)
}

// Authorize loads a session and checks that userID owns it.
func (s *Service) Authorize(ctx context.Context, userID, id string) (Session, error) {
	if userID == "" {
		return Session{}, ErrForbidden
	}
	session, err := s.Repo.Get(ctx, id)
	if err != nil {
		return Session{}, err
	}
	if session.UserID != userID {
		return Session{}, ErrForbidden
	}
	return session, nil
}

// LastDraft returns the newest draft of a user.
func (s *Service) LastDraft(ctx context.Context, userID string) (Session, error) {
	return s.Repo.LastDraft(ctx, userID)
}

// Profile returns the profile step of a session.
func (s *Service) Profile(ctx context.Context, id string) (ProfileSelection, error) {
	session, err := s.Repo.Get(ctx, id)
	if err != nil {
		return ProfileSelection{}, err
	}
	return ProfileSelection{ProfileOption: session.ProfileOption, CareSettingID: session.CareSettingID}, nil
}

// SaveProfile updates the profile step. Switching care setting replaces the
// activity selection with the new setting's selection. Empty values are left unchanged.
func (s *Service) SaveProfile(ctx context.Context, id, careSettingID, profileOption string) error {
	session, err := s.Repo.Get(ctx, id)
	if err != nil {
		return err
	}
	careSettingID = strings.TrimSpace(careSettingID)
	if careSettingID != "" && careSettingID != session.CareSettingID {
		cs, err := s.careSetting(ctx, careSettingID)
		if err != nil {
			return err
		}
		session.CareSettingID = cs.ID
		session.ActivityIDs = cs.ActivityIDs
	}
	if p := strings.TrimSpace(profileOption); p != "" {
		session.ProfileOption = p
	}
	session.UpdatedAt = s.now()
	return s.Repo.Update(ctx, session)
}

// Bundles lists the bundles and activities of the session's care setting.
func (s *Service) Bundles(ctx context.Context, id string) ([]catalog.BundleActivities, error) {
	session, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.CareSettingID == "" {
		return nil, ErrNoCareSetting
	}
	bundles, err := s.Catalog.BundlesForCareSetting(ctx, session.CareSettingID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, ErrNoCareSetting
		}
		return nil, fmt.Errorf("load bundles: %w", err)
	}
	return bundles, nil
}

// SaveActivities replaces the activity selection. Unknown activity IDs are
// dropped. A nil map leaves the selection unchanged.
func (s *Service) SaveActivities(ctx context.Context, id string, bundleMap map[string][]string) error {
	if bundleMap == nil {
		return nil
	}
	session, err := s.Repo.Get(ctx, id)
	if err != nil {
		return err
	}
	var ids []string
	for _, bundleID := range sortedBundleIDs(bundleMap) {
		ids = append(ids, bundleMap[bundleID]...)
	}
	activities, err := s.Catalog.ActivitiesByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("load activities: %w", err)
	}
	session.ActivityIDs = make([]string, 0, len(activities))
	for _, a := range activities {
		session.ActivityIDs = append(session.ActivityIDs, a.ID)
	}
	session.UpdatedAt = s.now()
	return s.Repo.Update(ctx, session)
}

// Activities returns the selected activity IDs grouped by bundle ID.
func (s *Service) Activities(ctx context.Context, id string) (map[string][]string, error) {
	session, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	activities, err := s.Catalog.ActivitiesByIDs(ctx, session.ActivityIDs)
	if err != nil {
		return nil, fmt.Errorf("load activities: %w", err)
	}
	out := make(map[string][]string)
	for _, a := range activities {
		out[a.Bundle.ID] = append(out[a.Bundle.ID], a.ID)
	}
	return out, nil
}

// SaveOccupations replaces the team. Unknown occupation IDs are dropped.
func (s *Service) SaveOccupations(ctx context.Context, id string, occupationIDs []string) error {
	session, err := s.Repo.Get(ctx, id)
	if err != nil {
		return err
	}
	occupations, err := s.Catalog.OccupationsByIDs(ctx, occupationIDs)
	if err != nil {
		return fmt.Errorf("load occupations: %w", err)
	}
	session.OccupationIDs = make([]string, 0, len(occupations))
	for _, o := range occupations {
		session.OccupationIDs = append(session.OccupationIDs, o.ID)
	}
	session.UpdatedAt = s.now()
	return s.Repo.Update(ctx, session)
}

// Occupations returns the team's occupation IDs.
func (s *Service) Occupations(ctx context.Context, id string) ([]string, error) {
	session, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return session.OccupationIDs, nil
}

// Gap analyses the team against the selected activities. A nil result
// means there is nothing to show.
func (s *Service) Gap(ctx context.Context, id string) (*coverage.GapResult, error) {
	session, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.CareSettingID == "" || len(session.ActivityIDs) == 0 || len(session.OccupationIDs) == 0 {
		return nil, nil
	}
	start := time.Now()

	activities, err := s.Catalog.ActivitiesByIDs(ctx, session.ActivityIDs)
	if err != nil {
		return nil, fmt.Errorf("load activities: %w", err)
	}
	team, err := s.Catalog.OccupationsByIDs(ctx, session.OccupationIDs)
	if err != nil {
		return nil, fmt.Errorf("load occupations: %w", err)
	}
	records, err := s.Catalog.PermissionsForGap(ctx, session.CareSettingID, activityIDs(activities), occupationIDs(team))
	if err != nil {
		return nil, fmt.Errorf("load permissions: %w", err)
	}
	rows, err := catalog.ToCoverage(records)
	if err != nil {
		return nil, fmt.Errorf("load permissions: %w", err)
	}

	result := coverage.AnalyzeGap(activities, team, rows)
	if result == nil {
		return nil, nil
	}
	cs, err := s.Catalog.GetCareSetting(ctx, session.CareSettingID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, ErrNoCareSetting
		}
		return nil, fmt.Errorf("load care setting: %w", err)
	}
	result.CareSetting = cs.Name
	metrics.IncGapAnalyses()
	metrics.ObserveComputeDurationMs(metrics.SinceMs(start))
	return result, nil
}

// Suggestions ranks occupations outside the team. tempSelectedIDs are
// occupations staged in the UI: they count toward coverage and are never suggested.
func (s *Service) Suggestions(ctx context.Context, id string, tempSelectedIDs []string, page, pageSize int) (coverage.SuggestResult, error) {
	session, err := s.Repo.Get(ctx, id)
	if err != nil {
		return coverage.SuggestResult{}, err
	}
	pageSize = s.clampPageSize(pageSize)
	metrics.IncSuggestionRequests()
	start := time.Now()

	activities, err := s.Catalog.ActivitiesByIDs(ctx, session.ActivityIDs)
	if err != nil {
		return coverage.SuggestResult{}, fmt.Errorf("load activities: %w", err)
	}
	if len(activities) == 0 {
		metrics.IncSuggestionEmpty()
		return coverage.EmptySuggestions(coverage.MessageNoActivities, 0, page, pageSize), nil
	}
	if session.CareSettingID == "" {
		metrics.IncSuggestionEmpty()
		return coverage.EmptySuggestions(coverage.MessageNoCareSetting, 0, page, pageSize), nil
	}

	records, err := s.Catalog.PermissionsForSuggestions(ctx, session.CareSettingID, activityIDs(activities))
	if err != nil {
		return coverage.SuggestResult{}, fmt.Errorf("load permissions: %w", err)
	}
	rows, err := catalog.ToCoverage(records)
	if err != nil {
		return coverage.SuggestResult{}, fmt.Errorf("load permissions: %w", err)
	}

	result := coverage.Suggest(coverage.SuggestInput{
		Activities:  activities,
		TeamIDs:     session.OccupationIDs,
		ExcludedIDs: tempSelectedIDs,
		Permissions: rows,
		Page:        page,
		PageSize:    pageSize,
	})
	if len(result.Suggestions) == 0 {
		metrics.IncSuggestionEmpty()
	}
	metrics.ObserveComputeDurationMs(metrics.SinceMs(start))
	return result, nil
}

// MinimumTeam proposes a small set of occupations covering the selected activities.
func (s *Service) MinimumTeam(ctx context.Context, id string) (coverage.MinimumTeamResult, error) {
	session, err := s.Repo.Get(ctx, id)
	if err != nil {
		return coverage.MinimumTeamResult{}, err
	}
	activities, err := s.Catalog.ActivitiesByIDs(ctx, session.ActivityIDs)
	if err != nil {
		return coverage.MinimumTeamResult{}, fmt.Errorf("load activities: %w", err)
	}
	if len(activities) == 0 || session.CareSettingID == "" {
		return coverage.UncoveredTeam(activities), nil
	}
	records, err := s.Catalog.PermissionsForSuggestions(ctx, session.CareSettingID, activityIDs(activities))
	if err != nil {
		return coverage.MinimumTeamResult{}, fmt.Errorf("load permissions: %w", err)
	}
	rows, err := catalog.ToCoverage(records)
	if err != nil {
		return coverage.MinimumTeamResult{}, fmt.Errorf("load permissions: %w", err)
	}
	return coverage.MinimumTeam(activities, rows), nil
}

// ExportCSV writes the gap matrix of the session as CSV. It writes nothing
// when there is nothing to show.
func (s *Service) ExportCSV(ctx context.Context, id string, w io.Writer) error {
	result, err := s.Gap(ctx, id)
	if err != nil {
		return err
	}
	return coverage.WriteGapCSV(w, result)
}

func (s *Service) careSetting(ctx context.Context, id string) (catalog.CareSetting, error) {
	cs, err := s.Catalog.GetCareSetting(ctx, id)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return catalog.CareSetting{}, fmt.Errorf("%w: unknown care setting %q", ErrInvalidInput, id)
		}
		return catalog.CareSetting{}, fmt.Errorf("load care setting: %w", err)
	}
	return cs, nil
}

func (s *Service) clampPageSize(pageSize int) int {
	if pageSize <= 0 {
		pageSize = s.DefaultPageSize
	}
	if s.MaxPageSize > 0 && pageSize > s.MaxPageSize {
		pageSize = s.MaxPageSize
	}
	return pageSize
}

func sortedBundleIDs(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func activityIDs(activities []coverage.Activity) []string {
	out := make([]string, len(activities))
	for i, a := range activities {
		out[i] = a.ID
	}
	return out
}

func occupationIDs(occupations []coverage.Occupation) []string {
	out := make([]string, len(occupations))
	for i, o := range occupations {
		out[i] = o.ID
	}
	return out
}
