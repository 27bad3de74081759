package handler

import (
	"Mini_Drive/internal/service"
	"Mini_Drive/utils"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// respondError maps service errors to HTTP status codes.
func respondError(c *gin.Context, err error) {
	var denied *service.AccessDeniedError
	var orphan *service.OrphanError
	var partial *service.PartialDeleteError
	switch {
	case errors.As(err, &denied):
		utils.Fail(c, http.StatusForbidden, err, gin.H{
			"required":       denied.Required,
			"request_access": denied.CanRequestAccess,
		})
	case errors.Is(err, service.ErrUnauthenticated):
		utils.Fail(c, http.StatusUnauthorized, err, nil)
	case errors.Is(err, service.ErrForbidden):
		utils.Fail(c, http.StatusForbidden, err, nil)
	case errors.Is(err, service.ErrNotFound):
		utils.Fail(c, http.StatusNotFound, err, nil)
	case errors.Is(err, service.ErrConflict):
		utils.Fail(c, http.StatusConflict, err, nil)
	case errors.Is(err, service.ErrInvalidInput):
		utils.Fail(c, http.StatusBadRequest, err, nil)
	case errors.As(err, &orphan), errors.As(err, &partial):
		log.Printf("%s %s: %v", c.Request.Method, c.FullPath(), err)
		utils.Fail(c, http.StatusBadGateway, err, gin.H{"partial": true})
	case errors.Is(err, service.ErrStorage):
		log.Printf("%s %s: %v", c.Request.Method, c.FullPath(), err)
		utils.Fail(c, http.StatusBadGateway, errors.New("storage unavailable"), nil)
	default:
		log.Printf("%s %s: %v", c.Request.Method, c.FullPath(), err)
		utils.Fail(c, http.StatusInternalServerError, errors.New("internal error"), nil)
	}
}

func badRequest(c *gin.Context, err error) {
	utils.Fail(c, http.StatusBadRequest, err, nil)
}

func currentUserID(c *gin.Context) string {
	return c.GetString(utils.ContextUserID)
}

// bindOptionalJSON binds a JSON body that may be absent.
func bindOptionalJSON(c *gin.Context, obj interface{}) error {
	if err := c.ShouldBindJSON(obj); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
