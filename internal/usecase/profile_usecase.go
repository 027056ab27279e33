package usecase

import (
	"context"

	"photokeep/internal/constant"
	"photokeep/internal/model"
	"photokeep/internal/util"

	"github.com/golang-jwt/jwt/v5"
	"github.com/knadh/koanf/v2"
	"go.uber.org/zap"
)

const defaultIdentityClaim = "sub"

// ProfileUsecase resolves the authenticated caller to a profile. Callers get
// either a full profile or an error; there is no nil-profile path.
type ProfileUsecase struct {
	ProfileStore ProfileStore
	Log          *zap.Logger
	Config       *koanf.Koanf
}

func NewProfileUsecase(profileStore ProfileStore, zap *zap.Logger, koanf *koanf.Koanf) *ProfileUsecase {
	return &ProfileUsecase{
		ProfileStore: profileStore,
		Log:          zap,
		Config:       koanf,
	}
}

func (usecase *ProfileUsecase) identityClaimKey() string {
	key := usecase.Config.String("AUTH_IDENTITY_CLAIM")
	if key == "" {
		return defaultIdentityClaim
	}
	return key
}

// ResolveCurrentUser reads the configured identity claim and looks the
// profile up, touching lastActive in the same round trip.
func (usecase *ProfileUsecase) ResolveCurrentUser(ctx context.Context, claims jwt.MapClaims) (model.Profile, error) {
	externalId := util.ClaimString(claims, usecase.identityClaimKey())
	if externalId == "" {
		return model.Profile{}, &model.ValidationError{
			Code:    constant.ERR_NOT_FOUND_ERROR,
			Message: "Caller identity claim is missing",
			Param:   usecase.identityClaimKey(),
		}
	}

	return usecase.ProfileStore.FindByExternalId(ctx, externalId)
}
