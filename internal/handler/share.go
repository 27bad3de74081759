package handler

import (
	"Mini_Drive/internal/dto"
	"Mini_Drive/internal/service"
	"Mini_Drive/model"
	"Mini_Drive/utils"
	"net/http"

	"github.com/gin-gonic/gin"
)

func shareResponse(link *model.ShareLink) dto.ShareResponse {
	return dto.ShareResponse{
		Token:     link.ShareToken,
		URL:       service.ShareURL(link.FileID, link.ShareToken),
		IsPublic:  link.IsPublic,
		ExpiresAt: link.ExpiresAt,
	}
}

// GetShare returns the caller's existing link for a file.
func GetShare(c *gin.Context) {
	link, err := service.GetMyShareLink(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, shareResponse(link))
}

// CreateShare returns the caller's link for a file, creating or updating it.
func CreateShare(c *gin.Context) {
	var req dto.CreateShareRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		badRequest(c, err)
		return
	}
	isPublic := true
	if req.IsPublic != nil {
		isPublic = *req.IsPublic
	}
	link, err := service.EnsureShareLink(c.Request.Context(), currentUserID(c), c.Param("id"), isPublic, req.ExpiresAt)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, shareResponse(link))
}

// RevokeShare deletes the caller's link for a file.
func RevokeShare(c *gin.Context) {
	if err := service.RevokeShareLink(c.Request.Context(), currentUserID(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, nil)
}

// GetSharedFile returns metadata for a public link.
func GetSharedFile(c *gin.Context) {
	file, link, err := service.GetSharedFile(c.Request.Context(), c.Param("token"))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, gin.H{
		"file": gin.H{
			"id":         file.ID,
			"name":       file.Name,
			"size_bytes": file.SizeBytes,
			"mime_type":  file.MimeType,
			"created_at": file.CreatedAt,
		},
		"expires_at": link.ExpiresAt,
	})
}

// DownloadSharedFile streams a file through a public link.
func DownloadSharedFile(c *gin.Context) {
	body, file, info, err := service.OpenSharedFile(c.Request.Context(), c.Param("token"))
	if err != nil {
		respondError(c, err)
		return
	}
	streamFile(c, body, file, info)
}
