package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	ppmpdomain "github.com/smallbiznis/ppmp/internal/ppmp/domain"
)

func (s *Server) ListAllocations(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	planID, ok := pathID(c, "id")
	if !ok {
		return
	}

	allocations, err := s.ppmpSvc.ListAllocations(c.Request.Context(), actor, planID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": allocations})
}

func (s *Server) CreateAllocation(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	planID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req ppmpdomain.CreateAllocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	allocation, err := s.ppmpSvc.AddAllocation(c.Request.Context(), actor, planID, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": allocation})
}

func (s *Server) UpdateAllocation(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	planID, ok := pathID(c, "id")
	if !ok {
		return
	}
	allocationID, ok := pathID(c, "allocationId")
	if !ok {
		return
	}

	var req ppmpdomain.UpdateAllocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	allocation, err := s.ppmpSvc.UpdateAllocation(c.Request.Context(), actor, planID, allocationID, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": allocation})
}

func (s *Server) DeleteAllocation(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	planID, ok := pathID(c, "id")
	if !ok {
		return
	}
	allocationID, ok := pathID(c, "allocationId")
	if !ok {
		return
	}

	if err := s.ppmpSvc.DeleteAllocation(c.Request.Context(), actor, planID, allocationID); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"id": allocationID.String(), "deleted": true}})
}
