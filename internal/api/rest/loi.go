package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lexlab-ai/funnel/internal/api/rest/dto"
	"github.com/lexlab-ai/funnel/internal/logger"
)

func (h *handler) SubmitLOI(c *gin.Context) {
	var req dto.SubmitLOIRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	if err := req.Validate(); err != nil {
		respondValidationError(c, err)
		return
	}

	result, err := h.intake.Submit(c.Request.Context(), req.LOISubmission)
	if err != nil && result == nil {
		respondError(c, err)
		return
	}
	if err != nil {
		// the submission is stored, the pipeline lead is incomplete
		logger.WarnCtx(c.Request.Context(), "Intake entry stored without complete lead",
			zap.Error(err),
			zap.String("entry_id", result.EntryID),
			zap.String("lead_id", result.LeadID))
	}

	c.JSON(http.StatusCreated, dto.SubmitLOIResponse{EntryID: result.EntryID, LeadID: result.LeadID})
}

func (h *handler) ListLOIEntries(c *gin.Context) {
	entries, err := h.intake.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.LOIEntryListResponse{Entries: entries})
}
