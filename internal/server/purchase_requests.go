package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	purchasedomain "github.com/smallbiznis/ppmp/internal/purchaserequest/domain"
	"github.com/smallbiznis/ppmp/pkg/db/pagination"
)

type listPurchaseRequestsQuery struct {
	Page         int    `form:"page"`
	PageSize     int    `form:"page_size"`
	Status       string `form:"status"`
	DepartmentID string `form:"department_id"`
	PPMPAligned  string `form:"ppmp_aligned"`
}

func (s *Server) ListPurchaseRequests(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var query listPurchaseRequestsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	departmentID, err := parseOptionalFilterID(query.DepartmentID)
	if err != nil {
		AbortWithError(c, newValidationError("department_id", "invalid_department_id", "invalid department id"))
		return
	}
	aligned, err := parseOptionalBool(query.PPMPAligned)
	if err != nil {
		AbortWithError(c, newValidationError("ppmp_aligned", "invalid_ppmp_aligned", "invalid ppmp aligned"))
		return
	}

	resp, err := s.purchaseSvc.List(c.Request.Context(), actor, purchasedomain.ListRequest{
		Pagination: pagination.Pagination{
			Page:     query.Page,
			PageSize: query.PageSize,
		},
		Status:       strings.TrimSpace(query.Status),
		DepartmentID: departmentID,
		Aligned:      aligned,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CreatePurchaseRequest(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req purchasedomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	pr, err := s.purchaseSvc.Create(c.Request.Context(), actor, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": pr})
}

func (s *Server) GetPurchaseRequest(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	pr, err := s.purchaseSvc.Get(c.Request.Context(), actor, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": pr})
}

func (s *Server) UpdatePurchaseRequest(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req purchasedomain.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	pr, err := s.purchaseSvc.Update(c.Request.Context(), actor, id, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": pr})
}

func (s *Server) DeletePurchaseRequest(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := s.purchaseSvc.Delete(c.Request.Context(), actor, id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"id": id.String(), "deleted": true}})
}

func (s *Server) ListPurchaseRequestProducts(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	lines, err := s.purchaseSvc.ListProducts(c.Request.Context(), actor, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": lines})
}

func (s *Server) AddPurchaseRequestProduct(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req purchasedomain.LineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	line, err := s.purchaseSvc.AddProduct(c.Request.Context(), actor, id, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": line})
}

func (s *Server) RemovePurchaseRequestProduct(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	lineID, ok := pathID(c, "productId")
	if !ok {
		return
	}

	if err := s.purchaseSvc.RemoveProduct(c.Request.Context(), actor, id, lineID); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"id": lineID.String(), "deleted": true}})
}
