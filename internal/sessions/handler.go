package sessions

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"teambuilder-backend/internal/shared/server/middleware"
	"teambuilder-backend/internal/shared/server/respond"
)

var successResponse = gin.H{"success": true}

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches planning session routes to the router group.
// Routes under /sessions/:id only serve the session's owner.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/sessions", h.create)
	rg.GET("/sessions/last_draft", h.lastDraft)

	s := rg.Group("/sessions/:id", h.sessionGuard)
	s.GET("/profile", h.profile)
	s.PATCH("/profile", h.saveProfile)
	s.GET("/care-activity/bundle", h.bundles)
	s.GET("/care-activity", h.activities)
	s.PATCH("/care-activity", h.saveActivities)
	s.GET("/occupation", h.occupations)
	s.PATCH("/occupation", h.saveOccupations)
	s.GET("/activities-gap", h.gap)
	s.POST("/suggestions", h.suggestions)
	s.GET("/minimum-team", h.minimumTeam)
	s.POST("/export-csv", h.exportCSV)
}

func (h *Handler) sessionGuard(c *gin.Context) {
	id := c.Param("id")
	c.Set(middleware.SessionIDKey, id)
	if _, err := h.Svc.Authorize(c.Request.Context(), middleware.UserIDFromContext(c), id); err != nil {
		writeError(c, err, "failed to load session")
		return
	}
	c.Next()
}

func (h *Handler) create(c *gin.Context) {
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	session, err := h.Svc.Create(c.Request.Context(), middleware.UserIDFromContext(c), req.CareSettingID, req.ProfileOption)
	if err != nil {
		writeError(c, err, "failed to create session")
		return
	}
	c.Set(middleware.SessionIDKey, session.ID)
	respond.JSON(c, http.StatusCreated, toResponse(session))
}

func (h *Handler) lastDraft(c *gin.Context) {
	session, err := h.Svc.LastDraft(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		writeError(c, err, "failed to load draft session")
		return
	}
	c.Set(middleware.SessionIDKey, session.ID)
	respond.OK(c, toResponse(session))
}

func (h *Handler) profile(c *gin.Context) {
	profile, err := h.Svc.Profile(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err, "failed to load profile")
		return
	}
	respond.OK(c, profile)
}

func (h *Handler) saveProfile(c *gin.Context) {
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if err := h.Svc.SaveProfile(c.Request.Context(), c.Param("id"), req.CareSettingID, req.ProfileOption); err != nil {
		writeError(c, err, "failed to save profile")
		return
	}
	respond.OK(c, successResponse)
}

func (h *Handler) bundles(c *gin.Context) {
	bundles, err := h.Svc.Bundles(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err, "failed to load bundles")
		return
	}
	respond.OK(c, bundles)
}

func (h *Handler) activities(c *gin.Context) {
	grouped, err := h.Svc.Activities(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err, "failed to load care activities")
		return
	}
	respond.OK(c, grouped)
}

func (h *Handler) saveActivities(c *gin.Context) {
	var req careActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if err := h.Svc.SaveActivities(c.Request.Context(), c.Param("id"), req.CareActivityBundle); err != nil {
		writeError(c, err, "failed to save care activities")
		return
	}
	respond.OK(c, successResponse)
}

func (h *Handler) occupations(c *gin.Context) {
	ids, err := h.Svc.Occupations(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err, "failed to load occupations")
		return
	}
	if ids == nil {
		ids = []string{}
	}
	respond.OK(c, ids)
}

func (h *Handler) saveOccupations(c *gin.Context) {
	var req occupationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if err := h.Svc.SaveOccupations(c.Request.Context(), c.Param("id"), req.Occupation); err != nil {
		writeError(c, err, "failed to save occupations")
		return
	}
	respond.OK(c, successResponse)
}

func (h *Handler) gap(c *gin.Context) {
	result, err := h.Svc.Gap(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err, "failed to compute activity gap")
		return
	}
	if result == nil {
		respond.NoContent(c)
		return
	}
	respond.OK(c, result)
}

func (h *Handler) suggestions(c *gin.Context) {
	var req suggestionsRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	result, err := h.Svc.Suggestions(c.Request.Context(), c.Param("id"), req.TempSelectedIDs, req.Page, req.PageSize)
	if err != nil {
		writeError(c, err, "failed to compute suggestions")
		return
	}
	respond.OK(c, result)
}

func (h *Handler) minimumTeam(c *gin.Context) {
	result, err := h.Svc.MinimumTeam(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err, "failed to compute minimum team")
		return
	}
	respond.OK(c, result)
}

func (h *Handler) exportCSV(c *gin.Context) {
	id := c.Param("id")
	var buf bytes.Buffer
	if err := h.Svc.ExportCSV(c.Request.Context(), id, &buf); err != nil {
		writeError(c, err, "failed to export activity gap")
		return
	}
	respond.Attachment(c, "activity-gap-"+id+".csv", "text/csv; charset=utf-8", buf.Bytes())
}

func writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrNoCareSetting):
		respond.Error(c, http.StatusNotFound, "not_found", "care setting not found", nil)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "session not found", nil)
	case errors.Is(err, ErrForbidden):
		respond.Error(c, http.StatusForbidden, "forbidden", "session belongs to another user", nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", fallback, nil)
	}
}
