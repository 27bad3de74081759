package main

import (
	"Mini_Drive/config"
	"Mini_Drive/internal/repo"
	"Mini_Drive/internal/service"
	"Mini_Drive/internal/storage"
	"Mini_Drive/internal/task"
	"Mini_Drive/router"
	"context"
	"log"
)

// main initializes services and starts the HTTP server.
func main() {
	config.InitConfig()
	if err := config.AppConfig.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}
	repo.InitDB()
	repo.InitRedis()
	storage.Init()

	if err := service.BootstrapAdmins(context.Background(), config.AppConfig.AdminEmails); err != nil {
		log.Fatalf("bootstrap admins failed: %v", err)
	}
	if config.AppConfig.SMTPConfigured() {
		service.SetNotifier(service.EmailNotifier{})
	} else {
		log.Println("smtp not configured, access request notifications disabled")
	}
	service.SetReconciler(task.Enqueuer{})

	r := router.InitRouter()
	if err := r.Run(config.AppConfig.ServerAddr); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
