package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"billhive/app/repository"
	apiv1 "billhive/internal/api/v1"
	"billhive/internal/pkg/cache"
	"billhive/internal/pkg/database"
	"billhive/internal/pkg/env"
	"billhive/internal/pkg/mail"
	"billhive/internal/pkg/messaging"
	"billhive/internal/pkg/processors"
)

func main() {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()

	broker := messaging.NewRedisBroker(cache.GetClient())
	uow := repository.NewUnitOfWork(database.GetDB())

	var mailer processors.Mailer
	if m := mail.NewSMTPMailer(); m.Configured() {
		mailer = m
	} else {
		log.Info("[Mail] SMTP not configured, outbound emails will be simulated")
	}

	manager := messaging.NewManager(broker)
	manager.Register(messaging.QueuePaymentCommands, "payment", processors.NewPaymentProcessor(uow).Handle)
	manager.Register(messaging.QueueDunningEvaluate, "dunning", processors.NewDunningProcessor(uow, broker).Handle)
	manager.Register(messaging.QueueWebhookIngest, "webhook", processors.NewWebhookProcessor(uow).Handle)
	manager.Register(messaging.QueueEmailSend, "email", processors.NewEmailProcessor(uow, mailer).Handle)
	manager.Start()

	// ops surface only, the worker serves no business endpoints
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})
	app.Use(recover.New(), logger.New())
	apiv1.NewOpsServer(broker, manager).Register(app)

	go func() {
		addr := fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "0.0.0.0"), env.GetEnv("APP_PORT", "4100"))
		if err := app.Listen(addr); err != nil {
			log.Errorf("[Ops] Listener stopped: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("[Main] Shutdown signal received")
	manager.Stop()
	if err := app.Shutdown(); err != nil {
		log.Errorf("[Main] Ops server shutdown failed: %v", err)
	}
	log.Info("[Main] Bye")
}
