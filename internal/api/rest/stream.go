package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lexlab-ai/funnel/internal/domain"
	"github.com/lexlab-ai/funnel/internal/logger"
	"github.com/lexlab-ai/funnel/internal/store"
)

const (
	leadsEvent    = "leads"
	activityEvent = "activity"
)

func (h *handler) StreamLeads(c *gin.Context) {
	streamSnapshots(c, leadsEvent, h.heartbeat, h.leads.Subscribe)
}

func (h *handler) StreamActivity(c *gin.Context) {
	limit, err := ParseActivityQuery(c)
	if err != nil {
		respondValidationError(c, err)
		return
	}

	streamSnapshots(c, activityEvent, h.heartbeat,
		func(ctx context.Context, fn func([]domain.ActivityLogEntry)) (store.Unsubscribe, error) {
			return h.activity.Subscribe(ctx, limit, fn)
		})
}

// streamSnapshots writes every snapshot delivered by subscribe as a server-sent event.
// Only the latest undelivered snapshot is kept when the client reads slowly.
func streamSnapshots[T any](
	c *gin.Context,
	event string,
	heartbeat time.Duration,
	subscribe func(ctx context.Context, fn func(T)) (store.Unsubscribe, error),
) {
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	updates := make(chan T, 1)
	unsubscribe, err := subscribe(ctx, func(snapshot T) {
		offerLatest(updates, snapshot)
	})
	if err != nil {
		respondError(c, err, zap.String("event", event))
		return
	}
	defer unsubscribe()

	// Set SSE headers
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	c.Writer.WriteString("event: connected\ndata: {}\n\n")
	c.Writer.Flush()

	ticker := time.NewTicker(heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.DebugCtx(ctx, "Stream closed", zap.String("event", event))
			return
		case snapshot := <-updates:
			data, err := json.Marshal(snapshot)
			if err != nil {
				logger.ErrorCtx(ctx, err, zap.String("event", event))
				continue
			}
			c.Writer.WriteString(fmt.Sprintf("event: %s\ndata: %s\n\n", event, data))
			c.Writer.Flush()
		case <-ticker.C:
			c.Writer.WriteString(": keepalive\n\n")
			c.Writer.Flush()
		}
	}
}

// offerLatest replaces any pending value in ch with v without blocking
func offerLatest[T any](ch chan T, v T) {
	for {
		select {
		case ch <- v:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}
