package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	disbursementdomain "github.com/smallbiznis/ppmp/internal/disbursement/domain"
	ppmpdomain "github.com/smallbiznis/ppmp/internal/ppmp/domain"
	"github.com/smallbiznis/ppmp/pkg/db/pagination"
)

type listPlansQuery struct {
	Status       string `form:"status"`
	FiscalYear   string `form:"fiscal_year"`
	DepartmentID string `form:"department_id"`
	Search       string `form:"search"`
	Page         int    `form:"page"`
	PageSize     int    `form:"page_size"`
}

type planDetailResponse struct {
	*ppmpdomain.PlanDetail
	DisbursementLinks []disbursementdomain.LinkView `json:"disbursement_links"`
	Permissions       []string                      `json:"permissions"`
}

type planResponse struct {
	*ppmpdomain.Plan
	Permissions []string `json:"permissions"`
}

func (s *Server) ListPlans(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var query listPlansQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	fiscalYear, err := parseOptionalFilterInt(query.FiscalYear)
	if err != nil {
		AbortWithError(c, newValidationError("fiscal_year", "invalid_fiscal_year", "invalid fiscal year"))
		return
	}
	departmentID, err := parseOptionalFilterID(query.DepartmentID)
	if err != nil {
		AbortWithError(c, newValidationError("department_id", "invalid_department_id", "invalid department id"))
		return
	}

	status := strings.TrimSpace(query.Status)
	if strings.EqualFold(status, "all") {
		status = ""
	}

	resp, err := s.ppmpSvc.List(c.Request.Context(), actor, ppmpdomain.ListPlanRequest{
		Pagination: pagination.Pagination{
			Page:     query.Page,
			PageSize: query.PageSize,
		},
		Status:       status,
		FiscalYear:   fiscalYear,
		DepartmentID: departmentID,
		Search:       strings.TrimSpace(query.Search),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CreatePlan(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req ppmpdomain.CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	plan, err := s.ppmpSvc.Create(c.Request.Context(), actor, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": planResponse{
		Plan:        plan,
		Permissions: s.ppmpSvc.Permissions(actor, plan).Sorted(),
	}})
}

func (s *Server) GetPlan(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	detail, err := s.ppmpSvc.Get(ctx, actor, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	links, err := s.disbursementSvc.ListLinks(ctx, actor, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if links == nil {
		links = []disbursementdomain.LinkView{}
	}

	c.JSON(http.StatusOK, gin.H{"data": planDetailResponse{
		PlanDetail:        detail,
		DisbursementLinks: links,
		Permissions:       s.ppmpSvc.Permissions(actor, &detail.Plan).Sorted(),
	}})
}

func (s *Server) UpdatePlan(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req ppmpdomain.UpdatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	plan, err := s.ppmpSvc.Update(c.Request.Context(), actor, id, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": planResponse{
		Plan:        plan,
		Permissions: s.ppmpSvc.Permissions(actor, plan).Sorted(),
	}})
}

func (s *Server) DeletePlan(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := s.ppmpSvc.Delete(c.Request.Context(), actor, id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"id": id.String(), "deleted": true}})
}

func (s *Server) SubmitPlan(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	plan, err := s.ppmpSvc.Submit(c.Request.Context(), actor, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": plan})
}

func (s *Server) ApprovePlan(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req ppmpdomain.ApproveRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	plan, err := s.ppmpSvc.Approve(c.Request.Context(), actor, id, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": plan})
}

func (s *Server) RejectPlan(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req ppmpdomain.RejectRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	plan, err := s.ppmpSvc.Reject(c.Request.Context(), actor, id, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": plan})
}

// bindOptionalJSON accepts an empty body as the zero request.
func bindOptionalJSON(c *gin.Context, dst any) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(dst); err != nil {
		AbortWithError(c, invalidRequestError())
		return false
	}
	return true
}
