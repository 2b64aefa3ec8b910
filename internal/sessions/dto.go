package sessions

import "time"

type profileRequest struct {
	CareSettingID string `json:"careSettingId"`
	ProfileOption string `json:"profileOption"`
}

type careActivityRequest struct {
	CareActivityBundle map[string][]string `json:"careActivityBundle"`
}

type occupationRequest struct {
	Occupation []string `json:"occupation"`
}

type suggestionsRequest struct {
	TempSelectedIDs []string `json:"tempSelectedIds"`
	Page            int      `json:"page"`
	PageSize        int      `json:"pageSize"`
}

type sessionResponse struct {
	ID            string    `json:"id"`
	CareSettingID string    `json:"careSettingId,omitempty"`
	ProfileOption string    `json:"profileOption,omitempty"`
	Status        Status    `json:"status"`
	ActivityIDs   []string  `json:"careActivityIds"`
	OccupationIDs []string  `json:"occupationIds"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func toResponse(s Session) sessionResponse {
	resp := sessionResponse{
		ID:            s.ID,
		CareSettingID: s.CareSettingID,
		ProfileOption: s.ProfileOption,
		Status:        s.Status,
		ActivityIDs:   s.ActivityIDs,
		OccupationIDs: s.OccupationIDs,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
	if resp.ActivityIDs == nil {
		resp.ActivityIDs = []string{}
	}
	if resp.OccupationIDs == nil {
		resp.OccupationIDs = []string{}
	}
	return resp
}
