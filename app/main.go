package main

import (
	"os"
	"os/signal"
	"sync"

	"familytree/config"
	"familytree/middleware"
	"familytree/services/familytree/delivery"
	"familytree/services/familytree/repository"
	"familytree/services/familytree/usecase"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

var log *logrus.Logger
var wg sync.WaitGroup

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Warn("No .env file found, using the process environment")
	}

	log = config.GetLogrusInstance()

	startHTTP()
}

func startHTTP() {
	log.Info("Starting HTTP")
	app := fiber.New(config.GetFiberConfig())

	// CORS Middleware
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(middleware.Metrics())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	app.Static("/uploads", config.GetUploadDir())

	db, err := config.BootDB()
	if err != nil {
		log.Fatalf("Failed to boot DB: %v", err)
		return
	}

	timeout := config.GetContextTimeout()

	// Regis repo and Usecase Here
	memberRepo := repository.NewMemberRepository(db)
	graphRepo := repository.NewFamilyGraphRepository(db)
	photoRepo := repository.NewPhotoRepository(config.GetUploadDir(), "/uploads")

	memberUC := usecase.NewMemberUseCase(memberRepo, photoRepo, timeout)
	graphUC := usecase.NewFamilyGraphUseCase(graphRepo, photoRepo, timeout)

	// delivery here
	api := app.Group("/api")
	delivery.NewMemberDelivery(api, memberUC)
	delivery.NewFamilyGraphDelivery(api, graphUC)

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Infof("Starting HTTP server for Public on port %s", config.GetFiberHttpPort())
		if err := app.Listen(config.GetFiberListenAddress()); err != nil {
			log.Fatalf("Error starting server: %v", err)
		}
	}()

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt)

	<-signalChan

	log.Info("Shutting down the server...")

	if err := app.Shutdown(); err != nil {
		log.Errorf("Error during server shutdown: %v", err)
	}

	wg.Wait()
	log.Info("Server shut down gracefully")
}
