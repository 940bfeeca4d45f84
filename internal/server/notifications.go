package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	notificationdomain "github.com/smallbiznis/ppmp/internal/notification/domain"
	"github.com/smallbiznis/ppmp/pkg/db/pagination"
)

type listNotificationsQuery struct {
	Page       int    `form:"page"`
	PageSize   int    `form:"page_size"`
	UnreadOnly string `form:"unread"`
}

func (s *Server) ListNotifications(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var query listNotificationsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	unread, err := parseOptionalBool(query.UnreadOnly)
	if err != nil {
		AbortWithError(c, newValidationError("unread", "invalid_unread", "invalid unread"))
		return
	}

	req := notificationdomain.ListRequest{
		Pagination: pagination.Pagination{Page: query.Page, PageSize: query.PageSize},
	}
	if unread != nil {
		req.UnreadOnly = *unread
	}

	resp, err := s.notificationSvc.List(c.Request.Context(), actor.UserID, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) MarkNotificationRead(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := s.notificationSvc.MarkRead(c.Request.Context(), actor.UserID, id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"id": id.String(), "is_read": true}})
}
