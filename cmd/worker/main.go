package main

import (
	"Mini_Drive/config"
	"Mini_Drive/internal/repo"
	"Mini_Drive/internal/storage"
	"Mini_Drive/internal/worker"
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	config.InitConfig()
	repo.InitDB()
	storage.Init()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Println("reconcile worker started")
	if err := worker.RunReconcileWorker(ctx); err != nil {
		log.Fatalf("reconcile worker stopped: %v", err)
	}
}
