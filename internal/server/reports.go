package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	reportingdomain "github.com/smallbiznis/ppmp/internal/reporting/domain"
)

func firstQuery(c *gin.Context, keys ...string) string {
	for _, key := range keys {
		if value := c.Query(key); value != "" {
			return value
		}
	}
	return ""
}

func (s *Server) GetReport(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	fiscalYear, err := parseOptionalFilterInt(firstQuery(c, "fiscal_year", "year"))
	if err != nil {
		AbortWithError(c, reportingdomain.ErrInvalidFiscalYear)
		return
	}
	departmentID, err := parseOptionalFilterID(firstQuery(c, "department_id", "department"))
	if err != nil {
		AbortWithError(c, reportingdomain.ErrInvalidDepartment)
		return
	}

	report, err := s.reportingSvc.Report(c.Request.Context(), actor, reportingdomain.Filter{
		FiscalYear:   fiscalYear,
		DepartmentID: departmentID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": report})
}

func (s *Server) GetStats(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	stats, err := s.reportingSvc.Stats(c.Request.Context(), actor)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": stats})
}

func (s *Server) ListRecentPlans(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	plans, err := s.reportingSvc.Recent(c.Request.Context(), actor)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": plans})
}

func (s *Server) ListPendingApprovals(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	plans, err := s.reportingSvc.PendingApprovals(c.Request.Context(), actor)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": plans})
}
