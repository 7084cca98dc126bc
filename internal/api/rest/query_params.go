package rest

import (
	"github.com/gin-gonic/gin"

	"github.com/lexlab-ai/funnel/internal/activity"
	"github.com/lexlab-ai/funnel/internal/domain"
)

const MAX_ACTIVITY_LIMIT = 500

// ListLeadsQueryParams holds query parameters for GET /leads
type ListLeadsQueryParams struct {
	Stage  string `form:"stage"`
	Search string `form:"q"`
}

// ListLeadsQuery is the parsed form of ListLeadsQueryParams. A nil Stage means all stages.
type ListLeadsQuery struct {
	Stage  *domain.Stage
	Search string
}

// ParseListLeadsQuery parses the optional stage filter and search term
func ParseListLeadsQuery(c *gin.Context) (ListLeadsQuery, error) {
	var params ListLeadsQueryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		return ListLeadsQuery{}, err
	}
	query := ListLeadsQuery{Search: params.Search}
	if params.Stage == "" {
		return query, nil
	}
	stage, err := domain.ParseStage(params.Stage)
	if err != nil {
		return ListLeadsQuery{}, err
	}
	query.Stage = &stage
	return query, nil
}

// ActivityQueryParams holds query parameters for the activity endpoints
type ActivityQueryParams struct {
	Limit int `form:"limit,default=50"`
}

// ParseActivityQuery parses the window size, capped at MAX_ACTIVITY_LIMIT
func ParseActivityQuery(c *gin.Context) (int, error) {
	var params ActivityQueryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		return 0, err
	}
	if params.Limit <= 0 {
		params.Limit = activity.DefaultLimit
	}
	return min(params.Limit, MAX_ACTIVITY_LIMIT), nil
}
