package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"github.com/oksasatya/go-task-manager/config"
	"github.com/oksasatya/go-task-manager/internal/application"
	"github.com/oksasatya/go-task-manager/internal/container"
	"github.com/oksasatya/go-task-manager/internal/domain/entity"
	"github.com/oksasatya/go-task-manager/internal/domain/repository"
	"github.com/oksasatya/go-task-manager/pkg/helpers"
)

// Seeds a confirmed demo user with a few tasks. Safe to run repeatedly.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName, cfg.Env, cfg.LogLevel)
	ctx := context.Background()

	infra, err := container.Connect(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("failed to connect: %v", err)
	}
	defer infra.Close()
	c, err := container.Build(cfg, logger, infra)
	if err != nil {
		log.Fatalf("failed to build container: %v", err)
	}

	email := "demo@example.com"
	password := "password123"
	username := "demoUser"

	u, err := c.Users.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, repository.ErrUserNotFound):
		hash, herr := helpers.NewPasswordHasher(cfg.BcryptCost).Hash(password)
		if herr != nil {
			log.Fatalf("failed to hash password: %v", herr)
		}
		u = &entity.User{Email: email, Password: hash, Username: username}
		if err := c.Users.Create(ctx, u); err != nil {
			log.Fatalf("failed to seed user: %v", err)
		}
	case err != nil:
		log.Fatalf("failed to look up user: %v", err)
	}
	if err := c.Users.SetConfirmed(ctx, u.ID); err != nil {
		log.Fatalf("failed to confirm user: %v", err)
	}
	fmt.Printf("seeded user: id=%s email=%s username=%s password=%s\n", u.ID, email, username, password)

	existing, err := c.TaskService.ListTasks(ctx, u.ID)
	if err != nil {
		log.Fatalf("failed to list tasks: %v", err)
	}
	if len(existing) > 0 {
		fmt.Printf("user already has %d tasks, skipping\n", len(existing))
		return
	}

	desc := "Semi-skimmed, two litres"
	seeds := []application.CreateTaskInput{
		{Title: "Buy milk", Description: &desc},
		{Title: "Write weekly report"},
		{Title: "Renew passport", Status: entity.TaskStatusDone},
	}
	for _, in := range seeds {
		t, err := c.TaskService.CreateTask(ctx, in, u.ID)
		if err != nil {
			log.Fatalf("failed to seed task %q: %v", in.Title, err)
		}
		fmt.Printf("seeded task: id=%s title=%q status=%s\n", t.ID, t.Title, t.Status)
	}
}
