package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/ppmp/internal/authorization"
	"github.com/smallbiznis/ppmp/pkg/db/pagination"
)

// ListPlanAuditLogs returns the plan's trail, newest first. Anyone who may
// view the plan may read its trail.
func (s *Server) ListPlanAuditLogs(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	planID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var page pagination.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	ctx := c.Request.Context()
	if _, err := s.ppmpSvc.Access(ctx, actor, planID, authorization.ActionView); err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.auditSvc.ListForPlan(ctx, planID, page)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
