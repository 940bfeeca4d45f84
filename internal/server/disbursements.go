package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	disbursementdomain "github.com/smallbiznis/ppmp/internal/disbursement/domain"
)

func (s *Server) SearchDisbursements(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	limit, err := parseOptionalInt(c.Query("limit"))
	if err != nil {
		AbortWithError(c, disbursementdomain.ErrInvalidSearchLimit)
		return
	}
	req := disbursementdomain.SearchRequest{Query: strings.TrimSpace(c.Query("q"))}
	if limit != nil {
		req.Limit = *limit
	}

	vouchers, err := s.disbursementSvc.Search(c.Request.Context(), actor, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": vouchers})
}

func (s *Server) ListDisbursementLinks(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	planID, ok := pathID(c, "id")
	if !ok {
		return
	}

	links, err := s.disbursementSvc.ListLinks(c.Request.Context(), actor, planID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": links})
}

func (s *Server) LinkDisbursement(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	planID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req disbursementdomain.LinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	link, err := s.disbursementSvc.Link(c.Request.Context(), actor, planID, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": link})
}

func (s *Server) UnlinkDisbursement(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	planID, ok := pathID(c, "id")
	if !ok {
		return
	}
	linkID, ok := pathID(c, "linkId")
	if !ok {
		return
	}

	if err := s.disbursementSvc.Unlink(c.Request.Context(), actor, planID, linkID); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"id": linkID.String(), "deleted": true}})
}
