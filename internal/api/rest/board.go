package rest

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lexlab-ai/funnel/internal/api/rest/dto"
)

type validatable interface {
	Validate() error
}

// bindJSON decodes and validates the request body. It responds and returns false on failure.
func bindJSON[T any, PT interface {
	*T
	validatable
}](c *gin.Context) (PT, bool) {
	req := PT(new(T))
	if err := c.ShouldBindJSON(req); err != nil {
		respondBadRequest(c, err)
		return nil, false
	}
	if err := req.Validate(); err != nil {
		respondValidationError(c, err)
		return nil, false
	}
	return req, true
}

func (h *handler) GetTractionBoard(c *gin.Context) {
	board, err := h.board.Board(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, board)
}

func (h *handler) SaveTractionMetrics(c *gin.Context) {
	req, ok := bindJSON[dto.SaveMetricsRequest](c)
	if !ok {
		return
	}

	if err := h.board.SaveMetrics(c.Request.Context(), req.TractionMetrics); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *handler) CreateFirm(c *gin.Context) {
	req, ok := bindJSON[dto.FirmRequest](c)
	if !ok {
		return
	}
	createBoardItem(c, func(ctx context.Context) (string, error) {
		return h.board.AddFirm(ctx, req.ToFirm(""))
	})
}

func (h *handler) UpdateFirm(c *gin.Context) {
	req, ok := bindJSON[dto.FirmRequest](c)
	if !ok {
		return
	}
	updateBoardItem(c, h.board.UpdateFirm(c.Request.Context(), req.ToFirm(c.Param("id"))))
}

func (h *handler) DeleteFirm(c *gin.Context) {
	updateBoardItem(c, h.board.DeleteFirm(c.Request.Context(), c.Param("id")))
}

func (h *handler) CreateCommitment(c *gin.Context) {
	req, ok := bindJSON[dto.CommitmentRequest](c)
	if !ok {
		return
	}
	createBoardItem(c, func(ctx context.Context) (string, error) {
		return h.board.AddCommitment(ctx, req.ToCommitment(""))
	})
}

func (h *handler) UpdateCommitment(c *gin.Context) {
	req, ok := bindJSON[dto.CommitmentRequest](c)
	if !ok {
		return
	}
	updateBoardItem(c, h.board.UpdateCommitment(c.Request.Context(), req.ToCommitment(c.Param("id"))))
}

func (h *handler) DeleteCommitment(c *gin.Context) {
	updateBoardItem(c, h.board.DeleteCommitment(c.Request.Context(), c.Param("id")))
}

func (h *handler) CreateInsight(c *gin.Context) {
	req, ok := bindJSON[dto.InsightRequest](c)
	if !ok {
		return
	}
	createBoardItem(c, func(ctx context.Context) (string, error) {
		return h.board.AddInsight(ctx, req.ToInsight(""))
	})
}

func (h *handler) UpdateInsight(c *gin.Context) {
	req, ok := bindJSON[dto.InsightRequest](c)
	if !ok {
		return
	}
	updateBoardItem(c, h.board.UpdateInsight(c.Request.Context(), req.ToInsight(c.Param("id"))))
}

func (h *handler) DeleteInsight(c *gin.Context) {
	updateBoardItem(c, h.board.DeleteInsight(c.Request.Context(), c.Param("id")))
}

func (h *handler) CreateMilestone(c *gin.Context) {
	req, ok := bindJSON[dto.MilestoneRequest](c)
	if !ok {
		return
	}
	createBoardItem(c, func(ctx context.Context) (string, error) {
		return h.board.AddMilestone(ctx, req.ToMilestone(""))
	})
}

func (h *handler) UpdateMilestone(c *gin.Context) {
	req, ok := bindJSON[dto.MilestoneRequest](c)
	if !ok {
		return
	}
	updateBoardItem(c, h.board.UpdateMilestone(c.Request.Context(), req.ToMilestone(c.Param("id"))))
}

func (h *handler) DeleteMilestone(c *gin.Context) {
	updateBoardItem(c, h.board.DeleteMilestone(c.Request.Context(), c.Param("id")))
}

func createBoardItem(c *gin.Context, add func(ctx context.Context) (string, error)) {
	id, err := add(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.CreatedResponse{ID: id})
}

// updateBoardItem responds to an update or delete that has already run
func updateBoardItem(c *gin.Context, err error) {
	if err != nil {
		respondError(c, err, zap.String("item_id", c.Param("id")))
		return
	}

	c.Status(http.StatusNoContent)
}
