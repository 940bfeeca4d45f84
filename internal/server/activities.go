package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	ppmpdomain "github.com/smallbiznis/ppmp/internal/ppmp/domain"
)

func (s *Server) ListActivities(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	planID, ok := pathID(c, "id")
	if !ok {
		return
	}

	activities, err := s.ppmpSvc.ListActivities(c.Request.Context(), actor, planID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": activities})
}

func (s *Server) CreateActivity(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	planID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req ppmpdomain.CreateActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	activity, err := s.ppmpSvc.AddActivity(c.Request.Context(), actor, planID, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": activity})
}

func (s *Server) UpdateActivity(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	planID, ok := pathID(c, "id")
	if !ok {
		return
	}
	activityID, ok := pathID(c, "activityId")
	if !ok {
		return
	}

	var req ppmpdomain.UpdateActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	activity, err := s.ppmpSvc.UpdateActivity(c.Request.Context(), actor, planID, activityID, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": activity})
}

func (s *Server) DeleteActivity(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	planID, ok := pathID(c, "id")
	if !ok {
		return
	}
	activityID, ok := pathID(c, "activityId")
	if !ok {
		return
	}

	if err := s.ppmpSvc.DeleteActivity(c.Request.Context(), actor, planID, activityID); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"id": activityID.String(), "deleted": true}})
}
