package router

import (
	"Mini_Drive/config"
	"Mini_Drive/internal/handler"
	"Mini_Drive/internal/service"
	"Mini_Drive/utils"
	"net/http"

	"github.com/gin-gonic/gin"
)

// InitRouter builds API routes.
func InitRouter() *gin.Engine {
	r := gin.New()
	r.Use(utils.AccessLogger(), gin.Recovery())
	r.Use(utils.CORSMiddleware(config.AppConfig.CORSAllowedOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		authAPI := api.Group("/auth")
		{
			authAPI.POST("/register", handler.Register)
			authAPI.POST("/login", handler.Login)
			authAPI.GET("/me", utils.AuthMiddleware(), handler.Me)
			authAPI.POST("/logout", utils.AuthMiddleware(), handler.Logout)
		}

		files := api.Group("/files")
		{
			// public links carry their own bearer token in the path
			files.GET("/shared/:token", handler.GetSharedFile)
			files.GET("/shared/:token/download", handler.DownloadSharedFile)

			// ?token= may stand in for a login
			optional := files.Group("", utils.OptionalAuthMiddleware())
			optional.GET("/:id", handler.GetFile)
			optional.GET("/:id/access", handler.FileAccess)
			optional.GET("/:id/download", handler.DownloadFile)
			optional.GET("/:id/url", handler.FileURL)

			owned := files.Group("", utils.AuthMiddleware())
			owned.POST("/upload", handler.UploadFile)
			owned.GET("", handler.ListFiles)
			owned.GET("/shared-with-me", handler.ListSharedWithMe)
			owned.GET("/:id/share", handler.GetShare)
			owned.POST("/:id/share", handler.CreateShare)
			owned.DELETE("/:id/share", handler.RevokeShare)
			owned.DELETE("/:id", handler.DeleteFile)
		}

		users := api.Group("/users", utils.AuthMiddleware())
		{
			users.PUT("/profile", handler.UpdateProfile)
			users.GET("/access-requests", handler.ListMyAccessRequests)
			users.POST("/access-requests", handler.CreateAccessRequest)
			users.GET("/access-requests/incoming", handler.ListIncomingAccessRequests)
			users.POST("/access-requests/:id/approve", handler.ApproveAccessRequest)
			users.POST("/access-requests/:id/deny", handler.DenyAccessRequest)
		}

		admin := api.Group("/admin", utils.AuthMiddleware(), utils.RequireAdmin(service.IsAdmin))
		{
			admin.GET("/files", handler.AdminListFiles)
			admin.GET("/stats", handler.AdminStats)
			admin.GET("/users", handler.AdminListUsers)
			admin.POST("/users/:id/role", handler.AdminSetRole)
			admin.GET("/access-requests", handler.AdminListAccessRequests)
			admin.POST("/access-requests/:id/approve", handler.ApproveAccessRequest)
			admin.POST("/access-requests/:id/deny", handler.DenyAccessRequest)
			admin.GET("/reconcile-tasks", handler.AdminListReconcileTasks)
		}
	}
	return r
}
