package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/onedaypage/backend/internal/config"
	"github.com/onedaypage/backend/internal/cookiestore"
	"github.com/onedaypage/backend/internal/database"
	"github.com/onedaypage/backend/internal/handlers"
	"github.com/onedaypage/backend/internal/middleware"
	"github.com/onedaypage/backend/internal/services"
	"github.com/onedaypage/backend/internal/storage"
	"github.com/onedaypage/backend/pkg/downloadtoken"
	"github.com/onedaypage/backend/pkg/logger"
)

func main() {
	logger.Init()

	cfg := config.Load()
	downloadtoken.Configure(cfg.Download.Secret, cfg.Download.TTL)

	db, err := database.Connect(cfg.DB)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}

	storageClient, err := storage.NewMinIOClient(cfg.MinIO)
	if err != nil {
		log.Fatalf("minio initialization failed: %v", err)
	}
	if err := storageClient.EnsureBucket(context.Background()); err != nil {
		log.Fatalf("failed ensuring minio bucket: %v", err)
	}

	accessService := services.NewAccessService(db)
	pageService := services.NewPageService(db, storageClient, cfg.Page)
	pageService.StartSweeper(cfg.Sweep.Interval)

	cookies := cookiestore.New(cfg.Cookie)

	pagesHandler := handlers.NewPagesHandler(db, pageService, accessService, cookies, cfg.Page)
	messagesHandler := handlers.NewMessagesHandler(db)
	photosHandler := handlers.NewPhotosHandler(db, storageClient)
	editHandler := handlers.NewEditHandler(accessService, cookies)

	editAuth := middleware.NewEditAuthMiddleware(accessService, cookies)

	app := fiber.New(fiber.Config{BodyLimit: 25 * 1024 * 1024})
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(middleware.CORS(cfg.Server.FrontendURL))
	app.Use(middleware.RequestLogger())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
	})

	app.Get("/edit/:id", editHandler.Enter)

	api := app.Group("/api")

	api.Post("/pages", pagesHandler.Create)
	api.Get("/pages/:id/access", pagesHandler.CheckAccess)
	api.Put("/pages/:id", editAuth.RequireEditAccess, pagesHandler.Update)
	api.Post("/pages/:id/rotate", editAuth.RequireEditAccess, pagesHandler.Rotate)
	api.Delete("/pages/:id", editAuth.RequireEditAccess, pagesHandler.Delete)

	api.Delete("/pages/:id/messages/:messageId", editAuth.RequireEditAccess, messagesHandler.Delete)
	api.Post("/pages/:id/photos", editAuth.RequireEditAccess, photosHandler.Upload)
	api.Delete("/pages/:id/photos/:photoId", editAuth.RequireEditAccess, photosHandler.Delete)

	publicRoutes := api.Group("/public/pages")
	publicRoutes.Get("/:id", pagesHandler.PublicGet)
	publicRoutes.Get("/:id/messages", messagesHandler.List)
	publicRoutes.Post("/:id/messages", messagesHandler.Create)
	publicRoutes.Get("/:id/photos", photosHandler.List)

	api.Get("/photos/:photoId/download", photosHandler.Download)

	go func() {
		if err := app.Listen(":" + cfg.Server.Port); err != nil {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	if err := app.Shutdown(); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
