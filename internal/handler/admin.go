package handler

import (
	"Mini_Drive/internal/dto"
	"Mini_Drive/internal/service"
	"Mini_Drive/internal/task"
	"Mini_Drive/utils"
	"net/http"

	"github.com/gin-gonic/gin"
)

// AdminListFiles lists files across all users.
func AdminListFiles(c *gin.Context) {
	var q dto.AdminFileQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}
	filter := service.AdminFileFilter{
		Search:    q.Search,
		UserID:    q.UserID,
		Type:      q.Type,
		SortBy:    q.SortBy,
		SortOrder: q.SortOrder,
		Page:      q.Page,
		PageSize:  q.PageSize,
	}
	filter.Normalize()
	files, total, err := service.AdminListFiles(c.Request.Context(), currentUserID(c), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, dto.PageResponse{
		Items:    files,
		Total:    total,
		Page:     filter.Page,
		PageSize: filter.PageSize,
	})
}

// AdminStats returns drive-wide counters.
func AdminStats(c *gin.Context) {
	stats, err := service.GetAdminStats(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, stats)
}

// AdminListUsers lists users with role and usage.
func AdminListUsers(c *gin.Context) {
	users, err := service.AdminListUsers(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, users)
}

// AdminSetRole changes a user's role.
func AdminSetRole(c *gin.Context) {
	var req dto.SetRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := service.SetUserRole(c.Request.Context(), currentUserID(c), c.Param("id"), req.Role); err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, gin.H{"user_id": c.Param("id"), "role": req.Role})
}

// AdminListAccessRequests lists every access request.
func AdminListAccessRequests(c *gin.Context) {
	list, err := service.ListAllAccessRequests(c.Request.Context(), currentUserID(c), c.Query("status"))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, list)
}

// AdminListReconcileTasks lists repair tasks, newest first.
func AdminListReconcileTasks(c *gin.Context) {
	tasks, err := task.ListReconcileTasks(c.Request.Context(), c.Query("status"), 100)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, tasks)
}
