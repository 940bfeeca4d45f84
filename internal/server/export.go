package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) ExportPlanPDF(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	planID, ok := pathID(c, "id")
	if !ok {
		return
	}

	file, err := s.exportSvc.PlanPDF(c.Request.Context(), actor, planID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, file.Name))
	c.Header("X-Export-Reference", file.Reference)
	c.Data(http.StatusOK, file.ContentType, file.Body)
}
