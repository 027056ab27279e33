package route

import (
	"photokeep/internal/delivery/http"
	"photokeep/internal/delivery/http/middleware"

	"github.com/gofiber/fiber/v2"
)

type RouteConfig struct {
	App             *fiber.App
	AuthMiddleware  *middleware.AuthMiddleware
	ImageController *http.ImageController
}

func (c *RouteConfig) SetupRoute() {
	api := c.App.Group("/api")

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	imageGroup := api.Group("/images", c.AuthMiddleware.ProtectedRoute())
	imageGroup.Post("/", c.ImageController.UploadImage)
	imageGroup.Delete("/batch", c.ImageController.DeleteImages)
	imageGroup.Delete("/", c.ImageController.PurgeCurrentUser)
	imageGroup.Get("/:fileName", c.ImageController.GetOwnImageByFileName)

	profileGroup := api.Group("/profiles", c.AuthMiddleware.ProtectedRoute())
	profileGroup.Get("/:profileId/images", c.ImageController.GetProfileImages)
	profileGroup.Get("/:profileId/images/:fileName", c.ImageController.GetProfileImageByFileName)

	adminGroup := api.Group("/admin", c.AuthMiddleware.ProtectedRoute())
	adminGroup.Post("/images/purge", c.ImageController.PurgeProfiles)
}
