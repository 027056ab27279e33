package middleware

import (
	"errors"

	"photokeep/internal/model"
	"photokeep/internal/util"

	"github.com/gofiber/fiber/v2"
	"github.com/knadh/koanf/v2"
	"go.uber.org/zap"
)

type AuthMiddleware struct {
	App    *fiber.App
	Log    *zap.Logger
	Config *koanf.Koanf
}

func NewAuthMiddleware(app *fiber.App, zap *zap.Logger, koanf *koanf.Koanf) *AuthMiddleware {
	return &AuthMiddleware{
		App:    app,
		Log:    zap,
		Config: koanf,
	}
}

// ProtectedRoute validates the bearer token and stashes its claim set for
// downstream identity resolution. Stateless: the token is the whole session.
func (middleware *AuthMiddleware) ProtectedRoute() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		var validationErr *model.ValidationError

		claims, err := util.ValidateAccessToken(ctx.Get("Authorization"), middleware.Config.String("JWT_SECRET_KEY"))
		if err != nil {
			if errors.As(err, &validationErr) {
				return util.SendErrorResponse(ctx, err)
			}

			return util.SendErrorResponseInternalServer(ctx, middleware.Log, err)
		}

		ctx.Locals("claims", claims)

		return ctx.Next()
	}
}
