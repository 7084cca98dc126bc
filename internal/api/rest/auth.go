package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lexlab-ai/funnel/internal/api/middleware"
	"github.com/lexlab-ai/funnel/internal/api/rest/dto"
	apierrors "github.com/lexlab-ai/funnel/internal/api/shared/errors"
	"github.com/lexlab-ai/funnel/internal/logger"
)

func (h *handler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	if err := req.Validate(); err != nil {
		respondValidationError(c, err)
		return
	}

	s, token, err := h.sessions.Login(c.Request.Context(), c.ClientIP(), req.Email, req.PIN)
	if err != nil {
		logger.WarnCtx(c.Request.Context(), "Login failed",
			zap.Error(err),
			zap.String("client_ip", c.ClientIP()))
		respondError(c, err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, token, int(h.sessions.TTL().Seconds()), "/", h.cookie.Domain, h.cookie.Secure, true)

	c.JSON(http.StatusOK, dto.SessionResponse{
		Email:     s.Email,
		ExpiresAt: s.ExpiresAt,
		Token:     token,
	})
}

func (h *handler) Logout(c *gin.Context) {
	if token := middleware.SessionToken(c, h.cookie.Name); token != "" {
		if err := h.sessions.Logout(c.Request.Context(), token); err != nil {
			respondError(c, err)
			return
		}
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, "", -1, "/", h.cookie.Domain, h.cookie.Secure, true)
	c.Status(http.StatusNoContent)
}

func (h *handler) GetSession(c *gin.Context) {
	s := middleware.GetSession(c)
	if s == nil {
		c.JSON(http.StatusUnauthorized, apierrors.NewUnauthorizedError("Authentication required"))
		return
	}

	c.JSON(http.StatusOK, dto.SessionResponse{
		Email:     s.Email,
		ExpiresAt: s.ExpiresAt,
	})
}
