package handler

import (
	"Mini_Drive/config"
	"Mini_Drive/internal/dto"
	"Mini_Drive/internal/service"
	"Mini_Drive/internal/storage"
	"Mini_Drive/model"
	"Mini_Drive/utils"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// multipartOverhead leaves room for form boundaries and headers on top of the file limit.
const multipartOverhead = 1 << 20

// UploadFile stores a multipart "file" for the caller.
func UploadFile(c *gin.Context) {
	if limit := config.AppConfig.MaxUploadBytes; limit > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit+multipartOverhead)
	}
	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			utils.Fail(c, http.StatusRequestEntityTooLarge, errors.New("file too large"), nil)
			return
		}
		badRequest(c, errors.New("multipart field \"file\" required"))
		return
	}
	src, err := header.Open()
	if err != nil {
		badRequest(c, err)
		return
	}
	defer src.Close()

	file, err := service.UploadFile(c.Request.Context(), service.UploadInput{
		OwnerID:     currentUserID(c),
		Name:        header.Filename,
		Size:        header.Size,
		ContentType: header.Header.Get("Content-Type"),
		Body:        src,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, http.StatusCreated, file)
}

// ListFiles lists the caller's own files.
func ListFiles(c *gin.Context) {
	files, err := service.ListOwnFiles(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, files)
}

// ListSharedWithMe lists files granted to the caller.
func ListSharedWithMe(c *gin.Context) {
	files, err := service.ListSharedWithMe(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, files)
}

// GetFile returns file metadata. A share token in ?token= stands in for a grant.
func GetFile(c *gin.Context) {
	file, decision, err := service.GetFile(c.Request.Context(), currentUserID(c), c.Param("id"), c.Query("token"))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, gin.H{"file": file, "access": decision})
}

// FileAccess reports the caller's access and latest request for a file.
func FileAccess(c *gin.Context) {
	ctx := c.Request.Context()
	userID := currentUserID(c)
	file, decision, err := service.ResolveAccess(ctx, c.Param("id"), userID, c.Query("token"))
	if err != nil {
		respondError(c, err)
		return
	}
	var latest *model.AccessRequest
	if userID != "" && decision.Source != service.AccessViaOwner {
		if latest, err = service.LatestAccessRequest(ctx, userID, file.ID); err != nil {
			respondError(c, err)
			return
		}
	}
	body := gin.H{"access": decision, "latest_request": latest}
	if decision.Allows(model.PermissionView) {
		body["file"] = file
	}
	utils.Success(c, http.StatusOK, body)
}

func streamFile(c *gin.Context, body io.ReadCloser, file *model.File, info storage.ObjectInfo) {
	defer body.Close()
	contentType := file.MimeType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Disposition", utils.ContentDisposition("attachment", file.Name))
	c.Header("Content-Type", contentType)
	c.Header("Content-Length", strconv.FormatInt(info.Size, 10))
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, body); err != nil {
		log.Printf("stream file %s aborted: %v", file.ID, err)
	}
}

// DownloadFile streams the file's bytes.
func DownloadFile(c *gin.Context) {
	body, file, info, err := service.OpenFile(c.Request.Context(), currentUserID(c), c.Param("id"), c.Query("token"))
	if err != nil {
		respondError(c, err)
		return
	}
	streamFile(c, body, file, info)
}

// FileURL returns a short-lived direct download URL.
func FileURL(c *gin.Context) {
	u, expires, err := service.SignedURL(c.Request.Context(), currentUserID(c), c.Param("id"), c.Query("token"))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, dto.SignedURLResponse{URL: u, ExpiresAt: expires})
}

// DeleteFile removes the file, its grants, requests and links.
func DeleteFile(c *gin.Context) {
	if err := service.DeleteFile(c.Request.Context(), currentUserID(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, nil)
}
