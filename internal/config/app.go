package config

import (
	http "photokeep/internal/delivery/http"
	"photokeep/internal/delivery/http/middleware"
	"photokeep/internal/delivery/http/route"
	"photokeep/internal/repository"
	"photokeep/internal/usecase"

	"github.com/gofiber/fiber/v2"
	"github.com/knadh/koanf/v2"
	"github.com/minio/minio-go/v7"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.uber.org/zap"
)

type ServerConfig struct {
	Router *fiber.App
	DB     *mongo.Database
	Log    *zap.Logger
	Config *koanf.Koanf
	MinIO  *minio.Client
}

func Server(config *ServerConfig) {
	blobRepository := repository.NewBlobRepository(config.Log, config.MinIO, config.Config.String("MINIO_BUCKET_NAME"))
	profileRepository := repository.NewProfileRepository(config.Log, config.DB)

	profileUsecase := usecase.NewProfileUsecase(profileRepository, config.Log, config.Config)
	imageUsecase := usecase.NewImageUsecase(blobRepository, profileRepository, config.Log, config.Config)
	imageController := http.NewImageController(imageUsecase, profileUsecase, config.Log, config.Config)

	authMiddleware := middleware.NewAuthMiddleware(config.Router, config.Log, config.Config)

	routeConfig := route.RouteConfig{
		App:             config.Router,
		AuthMiddleware:  authMiddleware,
		ImageController: imageController,
	}

	routeConfig.SetupRoute()
}
