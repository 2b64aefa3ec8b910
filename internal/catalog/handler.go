package catalog

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"teambuilder-backend/internal/shared/server/respond"
)

// Handler exposes the catalog over HTTP.
type Handler struct {
	Repo Repo
}

// NewHandler constructs a Handler.
func NewHandler(repo Repo) *Handler {
	return &Handler{Repo: repo}
}

// RegisterRoutes attaches catalog routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/care-settings", h.listCareSettings)
	rg.GET("/care-settings/:id/bundles", h.bundles)
	rg.GET("/occupations", h.listOccupations)
}

func (h *Handler) listCareSettings(c *gin.Context) {
	settings, err := h.Repo.ListCareSettings(c.Request.Context())
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list care settings", nil)
		return
	}
	respond.OK(c, settings)
}

func (h *Handler) bundles(c *gin.Context) {
	bundles, err := h.Repo.BundlesForCareSetting(c.Request.Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "care setting not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load bundles", nil)
		}
		return
	}
	respond.OK(c, bundles)
}

func (h *Handler) listOccupations(c *gin.Context) {
	occupations, err := h.Repo.ListOccupations(c.Request.Context())
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list occupations", nil)
		return
	}
	respond.OK(c, occupations)
}
