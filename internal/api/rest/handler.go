package rest

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lexlab-ai/funnel/internal/activity"
	"github.com/lexlab-ai/funnel/internal/adapter"
	"github.com/lexlab-ai/funnel/internal/domain"
	"github.com/lexlab-ai/funnel/internal/intake"
	"github.com/lexlab-ai/funnel/internal/leads"
	"github.com/lexlab-ai/funnel/internal/session"
)

// Handler defines the interface for REST API handlers
type Handler interface {
	// Login opens an admin session and sets the session cookie
	// POST /api/v1/auth/login
	Login(c *gin.Context)

	// Logout revokes the current session and clears the cookie
	// POST /api/v1/auth/logout
	Logout(c *gin.Context)

	// GetSession returns the current admin session
	// GET /api/v1/auth/session
	GetSession(c *gin.Context)

	// ListLeads returns leads, most recently updated first
	// GET /api/v1/leads?stage=<stage>&q=<term>
	ListLeads(c *gin.Context)

	// GetLead returns a single lead with its stage history
	// GET /api/v1/leads/:id
	GetLead(c *gin.Context)

	// CreateLead creates a lead
	// POST /api/v1/leads
	CreateLead(c *gin.Context)

	// UpdateLead updates lead fields other than the stage
	// PATCH /api/v1/leads/:id
	UpdateLead(c *gin.Context)

	// ChangeStage moves a lead to another stage
	// POST /api/v1/leads/:id/stage
	ChangeStage(c *gin.Context)

	// DeleteLead removes a lead. Its activity is kept.
	// DELETE /api/v1/leads/:id
	DeleteLead(c *gin.Context)

	// StreamLeads sends the full lead list on every change (server-sent events)
	// GET /api/v1/leads/stream
	StreamLeads(c *gin.Context)

	// ExportLeads downloads all leads as a spreadsheet
	// GET /api/v1/leads/export.xlsx
	ExportLeads(c *gin.Context)

	// ListLeadActivity returns the activity of one lead
	// GET /api/v1/leads/:id/activity
	ListLeadActivity(c *gin.Context)

	// ListActivity returns the latest activity entries
	// GET /api/v1/activity?limit=<limit>
	ListActivity(c *gin.Context)

	// StreamActivity sends the latest activity window on every change (server-sent events)
	// GET /api/v1/activity/stream?limit=<limit>
	StreamActivity(c *gin.Context)

	// SubmitLOI stores a Letter of Intent and creates its lead
	// POST /api/v1/loi
	SubmitLOI(c *gin.Context)

	// ListLOIEntries returns intake entries, newest first
	// GET /api/v1/loi
	ListLOIEntries(c *gin.Context)

	// GetFunnelMetrics returns stage counts and conversion rates
	// GET /api/v1/metrics/funnel
	GetFunnelMetrics(c *gin.Context)

	// GetWeeklySummary returns the activity of the current week
	// GET /api/v1/metrics/weekly
	GetWeeklySummary(c *gin.Context)

	// GetTraction returns the public cumulative funnel
	// GET /api/v1/metrics/traction
	GetTraction(c *gin.Context)

	// GetTractionBoard returns the public traction board
	// GET /api/v1/traction
	GetTractionBoard(c *gin.Context)

	// SaveTractionMetrics replaces the board counters
	// PUT /api/v1/traction/metrics
	SaveTractionMetrics(c *gin.Context)

	// CreateFirm, UpdateFirm and DeleteFirm manage board firms
	// POST /api/v1/traction/firms
	// PUT|DELETE /api/v1/traction/firms/:id
	CreateFirm(c *gin.Context)
	UpdateFirm(c *gin.Context)
	DeleteFirm(c *gin.Context)

	// POST /api/v1/traction/commitments
	// PUT|DELETE /api/v1/traction/commitments/:id
	CreateCommitment(c *gin.Context)
	UpdateCommitment(c *gin.Context)
	DeleteCommitment(c *gin.Context)

	// POST /api/v1/traction/insights
	// PUT|DELETE /api/v1/traction/insights/:id
	CreateInsight(c *gin.Context)
	UpdateInsight(c *gin.Context)
	DeleteInsight(c *gin.Context)

	// POST /api/v1/traction/milestones
	// PUT|DELETE /api/v1/traction/milestones/:id
	CreateMilestone(c *gin.Context)
	UpdateMilestone(c *gin.Context)
	DeleteMilestone(c *gin.Context)

	// SeedSampleData creates the sample leads
	// POST /api/v1/seed
	SeedSampleData(c *gin.Context)

	// HealthCheck returns the health status of the API
	// GET /health
	HealthCheck(c *gin.Context)
}

// IntakeService accepts and lists Letter of Intent submissions
type IntakeService interface {
	Submit(ctx context.Context, submission domain.LOISubmission) (*intake.SubmitResult, error)
	List(ctx context.Context) ([]domain.LOIEntry, error)
}

// BoardService reads and edits the public traction board
type BoardService interface {
	Board(ctx context.Context) (*domain.TractionBoard, error)
	SaveMetrics(ctx context.Context, m domain.TractionMetrics) error
	AddFirm(ctx context.Context, f domain.Firm) (string, error)
	UpdateFirm(ctx context.Context, f domain.Firm) error
	DeleteFirm(ctx context.Context, id string) error
	AddCommitment(ctx context.Context, c domain.Commitment) (string, error)
	UpdateCommitment(ctx context.Context, c domain.Commitment) error
	DeleteCommitment(ctx context.Context, id string) error
	AddInsight(ctx context.Context, i domain.Insight) (string, error)
	UpdateInsight(ctx context.Context, i domain.Insight) error
	DeleteInsight(ctx context.Context, id string) error
	AddMilestone(ctx context.Context, m domain.Milestone) (string, error)
	UpdateMilestone(ctx context.Context, m domain.Milestone) error
	DeleteMilestone(ctx context.Context, id string) error
}

// SessionManager opens and closes admin sessions
type SessionManager interface {
	Login(ctx context.Context, clientKey, email, pin string) (*session.Session, string, error)
	Logout(ctx context.Context, token string) error
	Validate(ctx context.Context, token string) (*session.Session, error)
	TTL() time.Duration
}

// CookieConfig holds the session cookie attributes
type CookieConfig struct {
	Name   string
	Domain string
	Secure bool
}

// Dependencies are the services behind the REST API
type Dependencies struct {
	Leads     leads.Service
	Activity  activity.Reader
	Intake    IntakeService
	Board     BoardService
	Sessions  SessionManager
	Clock     adapter.Clock
	Cookie    CookieConfig
	Heartbeat time.Duration
	SeedDelay time.Duration
}

// handler implements the Handler interface
type handler struct {
	leads     leads.Service
	activity  activity.Reader
	intake    IntakeService
	board     BoardService
	sessions  SessionManager
	clock     adapter.Clock
	cookie    CookieConfig
	heartbeat time.Duration
	seedDelay time.Duration
}

// NewHandler creates a new REST API handler
func NewHandler(deps Dependencies) Handler {
	heartbeat := deps.Heartbeat
	if heartbeat <= 0 {
		heartbeat = 30 * time.Second
	}
	return &handler{
		leads:     deps.Leads,
		activity:  deps.Activity,
		intake:    deps.Intake,
		board:     deps.Board,
		sessions:  deps.Sessions,
		clock:     deps.Clock,
		cookie:    deps.Cookie,
		heartbeat: heartbeat,
		seedDelay: deps.SeedDelay,
	}
}

// HealthCheck returns the health status of the API
func (h *handler) HealthCheck(c *gin.Context) {
	c.JSON(200, gin.H{
		"status":  "ok",
		"service": "funnel-api",
	})
}
