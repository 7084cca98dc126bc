package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lexlab-ai/funnel/internal/api/rest/dto"
	"github.com/lexlab-ai/funnel/internal/report"
)

func (h *handler) GetFunnelMetrics(c *gin.Context) {
	all, err := h.leads.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, report.Funnel(all))
}

func (h *handler) GetWeeklySummary(c *gin.Context) {
	all, err := h.leads.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, report.Weekly(all, h.clock.Now()))
}

func (h *handler) GetTraction(c *gin.Context) {
	entries, err := h.intake.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.TractionResponse{Stages: report.Traction(entries)})
}
