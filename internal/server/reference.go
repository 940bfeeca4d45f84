package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

func (s *Server) ListDepartments(c *gin.Context) {
	departments, err := s.refrepo.ListDepartments(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": departments})
}

// ListProducts searches active catalog entries; the repository clamps the limit.
func (s *Server) ListProducts(c *gin.Context) {
	limit, err := parseOptionalInt(c.Query("limit"))
	if err != nil || (limit != nil && *limit < 0) {
		AbortWithError(c, newValidationError("limit", "invalid_limit", "invalid limit"))
		return
	}

	size := 0
	if limit != nil {
		size = *limit
	}

	products, err := s.refrepo.SearchProducts(c.Request.Context(), strings.TrimSpace(c.Query("q")), size)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": products})
}
