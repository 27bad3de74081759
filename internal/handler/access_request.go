package handler

import (
	"Mini_Drive/internal/dto"
	"Mini_Drive/internal/service"
	"Mini_Drive/model"
	"Mini_Drive/utils"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// CreateAccessRequest files a request for a file the caller cannot access at the asked level.
func CreateAccessRequest(c *gin.Context) {
	var req dto.CreateAccessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	permission, ok := model.ParsePermission(req.Permission)
	if !ok {
		badRequest(c, fmt.Errorf("unknown permission %q", req.Permission))
		return
	}
	created, err := service.CreateAccessRequest(c.Request.Context(), currentUserID(c), req.FileID, permission, req.Message)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, http.StatusCreated, created)
}

// ListMyAccessRequests lists requests the caller filed.
func ListMyAccessRequests(c *gin.Context) {
	list, err := service.ListMyAccessRequests(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, list)
}

// ListIncomingAccessRequests lists requests on the caller's files.
func ListIncomingAccessRequests(c *gin.Context) {
	list, err := service.ListIncomingAccessRequests(c.Request.Context(), currentUserID(c), c.Query("status"))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, list)
}

// ApproveAccessRequest approves a pending request, optionally at a different level.
func ApproveAccessRequest(c *gin.Context) {
	var req dto.DecisionRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		badRequest(c, err)
		return
	}
	var granted model.PermissionType
	if req.Permission != "" {
		p, ok := model.ParsePermission(req.Permission)
		if !ok {
			badRequest(c, fmt.Errorf("unknown permission %q", req.Permission))
			return
		}
		granted = p
	}
	updated, grant, err := service.ApproveAccessRequest(c.Request.Context(), currentUserID(c), c.Param("id"), granted)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, dto.DecisionResponse{Request: updated, Grant: grant})
}

// DenyAccessRequest denies a pending request.
func DenyAccessRequest(c *gin.Context) {
	updated, err := service.DenyAccessRequest(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, dto.DecisionResponse{Request: updated})
}
