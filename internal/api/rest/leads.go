package rest

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lexlab-ai/funnel/internal/api/rest/dto"
	"github.com/lexlab-ai/funnel/internal/domain"
	"github.com/lexlab-ai/funnel/internal/export"
	"github.com/lexlab-ai/funnel/internal/logger"
	"github.com/lexlab-ai/funnel/internal/seed"
)

func (h *handler) ListLeads(c *gin.Context) {
	query, err := ParseListLeadsQuery(c)
	if err != nil {
		respondValidationError(c, err)
		return
	}

	var all []domain.Lead
	if query.Stage != nil {
		all, err = h.leads.ListByStage(c.Request.Context(), *query.Stage)
	} else {
		all, err = h.leads.List(c.Request.Context())
	}
	if err != nil {
		respondError(c, err)
		return
	}

	result := make([]domain.Lead, 0, len(all))
	for i := range all {
		if all[i].Matches(query.Search) {
			result = append(result, all[i])
		}
	}

	c.JSON(http.StatusOK, dto.LeadListResponse{Leads: result, Total: len(result)})
}

func (h *handler) GetLead(c *gin.Context) {
	id := c.Param("id")

	lead, err := h.leads.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, zap.String("lead_id", id))
		return
	}

	c.JSON(http.StatusOK, lead)
}

func (h *handler) CreateLead(c *gin.Context) {
	var req dto.CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	if err := req.Validate(); err != nil {
		respondValidationError(c, err)
		return
	}

	id, err := h.leads.Create(c.Request.Context(), req.ToInput())
	if err != nil && id == "" {
		respondError(c, err)
		return
	}
	if err != nil {
		// the lead is stored, only its activity entry is missing
		logger.WarnCtx(c.Request.Context(), "Lead created without activity entry",
			zap.Error(err),
			zap.String("lead_id", id))
	}

	c.JSON(http.StatusCreated, dto.CreatedResponse{ID: id})
}

func (h *handler) UpdateLead(c *gin.Context) {
	id := c.Param("id")

	var req dto.UpdateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	if err := req.Validate(); err != nil {
		respondValidationError(c, err)
		return
	}

	if err := h.leads.UpdateFields(c.Request.Context(), id, req.ToUpdate()); err != nil {
		respondError(c, err, zap.String("lead_id", id))
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *handler) ChangeStage(c *gin.Context) {
	id := c.Param("id")

	var req dto.ChangeStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	if err := req.Validate(); err != nil {
		respondValidationError(c, err)
		return
	}
	from, to := req.Stages()

	firmName := req.FirmName
	if firmName == "" {
		lead, err := h.leads.Get(c.Request.Context(), id)
		if err != nil {
			respondError(c, err, zap.String("lead_id", id))
			return
		}
		firmName = lead.FirmName
	}

	if err := h.leads.ChangeStage(c.Request.Context(), id, to, from, firmName, req.Note); err != nil {
		respondError(c, err, zap.String("lead_id", id))
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *handler) DeleteLead(c *gin.Context) {
	id := c.Param("id")

	if err := h.leads.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err, zap.String("lead_id", id))
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *handler) ExportLeads(c *gin.Context) {
	all, err := h.leads.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	f, err := export.LeadsWorkbook(all)
	if err != nil {
		respondInternalError(c, err, "Failed to build workbook")
		return
	}
	defer f.Close()

	c.Header("Content-Type", export.ContentType)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename(h.clock.Now())))
	c.Header("Content-Transfer-Encoding", "binary")
	c.Status(http.StatusOK)

	if err := f.Write(c.Writer); err != nil {
		respondInternalError(c, err, "Failed to write workbook")
	}
}

func (h *handler) SeedSampleData(c *gin.Context) {
	created, err := seed.Seed(c.Request.Context(), h.leads, h.clock, h.seedDelay)
	if err != nil {
		respondError(c, err, zap.Int("created", created))
		return
	}

	c.JSON(http.StatusCreated, dto.SeedResponse{Created: created})
}
