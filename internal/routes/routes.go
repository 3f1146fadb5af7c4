package routes

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/grvbrk/vidcatalog/internal/app"
)

func SetupRoutes(app *app.Application) *chi.Mux {
	r := chi.NewRouter()

	r.Use(httprate.LimitAll(200, time.Minute))
	r.Use(app.MiddlewareHandler.RequestLogger)
	r.Use(app.MiddlewareHandler.Security)

	r.Get("/health", app.VideoHandler.HandlerHealth)

	// public routes
	r.Route("/api/videos", func(r chi.Router) {
		r.Use(app.MiddlewareHandler.PublicCors())

		r.Get("/", app.VideoHandler.HandlerGetVideos)
		r.Get("/{id}", app.VideoHandler.HandlerGetVideoByID)
		r.Post("/{id}/view", app.VideoHandler.HandlerRecordView)
	})

	// auth routes
	r.Group(func(r chi.Router) {
		r.Use(app.MiddlewareHandler.AdminCors())

		r.With(httprate.LimitByIP(5, time.Minute)).Post("/login", app.PasswordAuth.Login)
		r.Post("/logout", app.PasswordAuth.Logout)
		r.Get("/auth/me", app.PasswordAuth.AuthAdmin)
	})

	// admin routes
	r.Group(func(r chi.Router) {
		r.Use(httprate.LimitAll(100, time.Minute))
		r.Use(app.MiddlewareHandler.AdminCors())
		r.Use(app.MiddlewareHandler.AuthenticateAdmin)

		r.Get("/dashboard", app.DashboardHandler.HandlerGetDashboard)
		r.Post("/auth/password", app.UserHandler.HandlerChangePassword)

		r.Route("/videos", func(r chi.Router) {
			r.Post("/", app.AdminHandler.HandlerCreateVideo)
			r.Get("/{id}", app.AdminHandler.HandlerGetVideo)
			r.Put("/{id}", app.AdminHandler.HandlerUpdateVideo)
			r.Delete("/{id}", app.AdminHandler.HandlerDeleteVideo)
		})

		r.Post("/bulk_import", app.BulkHandler.HandlerBulkImport)
		r.Post("/bulk_delete", app.BulkHandler.HandlerBulkDelete)

		r.Get("/export_json", app.ExportHandler.HandlerExportJSON)
		r.Get("/export_csv", app.ExportHandler.HandlerExportCSV)
		r.Post("/export_data", app.ExportHandler.HandlerPublishArchive)

		r.Route("/backups", func(r chi.Router) {
			r.Get("/", app.BackupHandler.HandlerListBackups)
			r.Post("/", app.BackupHandler.HandlerCreateBackup)
			r.Post("/{filename}/restore", app.BackupHandler.HandlerRestoreBackup)
		})

		r.Route("/api/metadata", func(r chi.Router) {
			r.Post("/extract", app.MetadataHandler.HandlerExtract)
			r.Get("/platforms", app.MetadataHandler.HandlerPlatforms)
		})
	})

	return r
}
