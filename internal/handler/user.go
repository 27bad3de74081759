package handler

import (
	"Mini_Drive/internal/dto"
	"Mini_Drive/internal/service"
	"Mini_Drive/utils"
	"net/http"

	"github.com/gin-gonic/gin"
)

// UpdateProfile changes the caller's display name.
func UpdateProfile(c *gin.Context) {
	var req dto.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	ctx := c.Request.Context()
	user, err := service.UpdateProfile(ctx, currentUserID(c), req.FullName)
	if err != nil {
		respondError(c, err)
		return
	}
	role, err := service.GetUserRole(ctx, user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, dto.NewUserResponse(user, role))
}
