package catalog

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"teambuilder-backend/internal/coverage"
)

//go:embed fixtures/default.yaml
var defaultFixture []byte

// Fixture is the YAML form of a catalog.
type Fixture struct {
	Bundles      []FixtureBundle      `yaml:"bundles"`
	Activities   []FixtureActivity    `yaml:"activities"`
	Occupations  []FixtureOccupation  `yaml:"occupations"`
	CareSettings []FixtureCareSetting `yaml:"careSettings"`
}

type FixtureBundle struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

type FixtureActivity struct {
	ID     string `yaml:"id"`
	Name   string `yaml:"name"`
	Bundle string `yaml:"bundle"`
	Type   string `yaml:"type"`
}

type FixtureOccupation struct {
	ID           string `yaml:"id"`
	Name         string `yaml:"name"`
	Description  string `yaml:"description"`
	DisplayOrder *int   `yaml:"displayOrder"`
}

type FixtureCareSetting struct {
	ID          string              `yaml:"id"`
	Name        string              `yaml:"name"`
	UnitID      string              `yaml:"unitId"`
	UnitName    string              `yaml:"unitName"`
	Activities  []string            `yaml:"activities"`
	Permissions []FixturePermission `yaml:"permissions"`
}

// FixturePermission grants one occupation a level on a list of activities.
type FixturePermission struct {
	Occupation string   `yaml:"occupation"`
	Level      string   `yaml:"level"`
	Activities []string `yaml:"activities"`
}

// DefaultFixture returns the built-in sample catalog.
func DefaultFixture() (*MemoryRepo, error) {
	return ParseFixture(defaultFixture)
}

// LoadFixture reads a YAML catalog from path into a MemoryRepo.
func LoadFixture(path string) (*MemoryRepo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	repo, err := ParseFixture(data)
	if err != nil {
		return nil, fmt.Errorf("catalog: %s: %w", path, err)
	}
	return repo, nil
}

// ParseFixture decodes a YAML catalog and checks every reference in it.
func ParseFixture(data []byte) (*MemoryRepo, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("catalog: fixture is empty")
	}
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("catalog: decode fixture: %w", err)
	}

	repo := NewMemoryRepo()
	for _, b := range f.Bundles {
		if strings.TrimSpace(b.ID) == "" {
			return nil, fmt.Errorf("catalog: bundle %q has no id", b.Name)
		}
		repo.AddBundle(coverage.Bundle{ID: b.ID, DisplayName: b.Name})
	}

	activityBundle := make(map[string]string, len(f.Activities))
	for _, a := range f.Activities {
		activity := coverage.Activity{
			ID:          a.ID,
			DisplayName: a.Name,
			Bundle:      coverage.Bundle{ID: a.Bundle},
			Type:        coverage.ActivityType(strings.ToUpper(strings.TrimSpace(a.Type))),
		}
		if err := repo.AddActivity(activity); err != nil {
			return nil, fmt.Errorf("catalog: activity %q references unknown bundle %q", a.ID, a.Bundle)
		}
		activityBundle[a.ID] = a.Bundle
	}

	occupations := make(map[string]struct{}, len(f.Occupations))
	names := make(map[string]string, len(f.Occupations))
	for _, o := range f.Occupations {
		if other, dup := names[o.Name]; dup {
			return nil, fmt.Errorf("catalog: occupations %q and %q share the name %q", other, o.ID, o.Name)
		}
		names[o.Name] = o.ID
		repo.AddOccupation(coverage.Occupation{
			ID:           o.ID,
			DisplayName:  o.Name,
			Description:  o.Description,
			DisplayOrder: o.DisplayOrder,
		})
		occupations[o.ID] = struct{}{}
	}

	for _, cs := range f.CareSettings {
		setting := CareSetting{ID: cs.ID, Name: cs.Name, UnitID: cs.UnitID, UnitName: cs.UnitName}
		bundles := make(map[string]struct{})
		for _, id := range cs.Activities {
			bundle, ok := activityBundle[id]
			if !ok {
				return nil, fmt.Errorf("catalog: care setting %q selects unknown activity %q", cs.ID, id)
			}
			setting.ActivityIDs = append(setting.ActivityIDs, id)
			if _, seen := bundles[bundle]; !seen {
				bundles[bundle] = struct{}{}
				setting.BundleIDs = append(setting.BundleIDs, bundle)
			}
		}

		var records []PermissionRecord
		for _, p := range cs.Permissions {
			if _, ok := occupations[p.Occupation]; !ok {
				return nil, fmt.Errorf("catalog: care setting %q grants unknown occupation %q", cs.ID, p.Occupation)
			}
			if _, err := coverage.ParseLevel(p.Level); err != nil {
				return nil, fmt.Errorf("catalog: care setting %q occupation %q: %w", cs.ID, p.Occupation, err)
			}
			for _, id := range p.Activities {
				if _, ok := activityBundle[id]; !ok {
					return nil, fmt.Errorf("catalog: care setting %q grants unknown activity %q", cs.ID, id)
				}
				records = append(records, PermissionRecord{
					ActivityID:   id,
					OccupationID: p.Occupation,
					Permission:   strings.ToUpper(strings.TrimSpace(p.Level)),
				})
			}
		}
		repo.AddCareSetting(setting, records)
	}
	return repo, nil
}
