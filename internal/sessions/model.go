package sessions

import "time"

// Status is the lifecycle state of a planning session.
type Status string

const (
	StatusDraft Status = "DRAFT"
	StatusFinal Status = "FINAL"
)

// Session is one planner's team-building workspace.
type Session struct {
	ID            string
	UserID        string
	CareSettingID string
	ProfileOption string
	Status        Status
	ActivityIDs   []string
	OccupationIDs []string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ProfileSelection is the profile step of a session.
type ProfileSelection struct {
	ProfileOption string `json:"profileOption"`
	CareSettingID string `json:"careSettingId"`
}
