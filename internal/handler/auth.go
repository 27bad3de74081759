package handler

import (
	"Mini_Drive/internal/dto"
	"Mini_Drive/internal/service"
	"Mini_Drive/model"
	"Mini_Drive/utils"
	"net/http"

	"github.com/gin-gonic/gin"
)

func issueToken(c *gin.Context, status int, user *model.User) {
	token, err := utils.GenerateToken(user.ID, user.Email)
	if err != nil {
		respondError(c, err)
		return
	}
	role, err := service.GetUserRole(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, status, dto.AuthResponse{
		Token: token,
		User:  dto.NewUserResponse(user, role),
	})
}

// Register creates an account and signs it in.
func Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	user, err := service.Register(c.Request.Context(), req.Email, req.Password, req.FullName)
	if err != nil {
		respondError(c, err)
		return
	}
	issueToken(c, http.StatusCreated, user)
}

// Login authenticates a user and returns a token.
func Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	user, err := service.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	issueToken(c, http.StatusOK, user)
}

// Me returns the signed-in account.
func Me(c *gin.Context) {
	ctx := c.Request.Context()
	user, err := service.GetUserByID(ctx, currentUserID(c))
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

// Logout revokes the presented token.
func Logout(c *gin.Context) {
	if err := service.SignOut(c.Request.Context(), utils.CurrentClaims(c)); err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, nil)
}
