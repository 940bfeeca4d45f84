package server

import (
	"net/http"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
)

type meResponse struct {
	ID           snowflake.ID  `json:"id"`
	Name         string        `json:"name"`
	Email        string        `json:"email"`
	Role         string        `json:"role"`
	DepartmentID *snowflake.ID `json:"department_id,omitempty"`
	Department   string        `json:"department_name,omitempty"`
}

func (s *Server) Me(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	resp := meResponse{
		ID:           actor.UserID,
		Name:         actor.Name,
		Email:        actor.Email,
		Role:         string(actor.Role),
		DepartmentID: actor.DepartmentID,
	}
	if actor.DepartmentID != nil {
		department, err := s.refrepo.GetDepartment(c.Request.Context(), *actor.DepartmentID)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		if department != nil {
			resp.Department = department.Name
		}
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
