package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lexlab-ai/funnel/internal/api/rest/dto"
)

func (h *handler) ListActivity(c *gin.Context) {
	limit, err := ParseActivityQuery(c)
	if err != nil {
		respondValidationError(c, err)
		return
	}

	entries, err := h.activity.List(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err, zap.Int("limit", limit))
		return
	}

	c.JSON(http.StatusOK, dto.ActivityListResponse{Entries: entries})
}

func (h *handler) ListLeadActivity(c *gin.Context) {
	id := c.Param("id")

	entries, err := h.activity.ListByLead(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, zap.String("lead_id", id))
		return
	}

	c.JSON(http.StatusOK, dto.ActivityListResponse{Entries: entries})
}
