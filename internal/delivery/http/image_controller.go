package http

import (
	"errors"
	"fmt"
	"io"

	"photokeep/internal/constant"
	"photokeep/internal/middleware"
	"photokeep/internal/model"
	"photokeep/internal/usecase"
	"photokeep/internal/util"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/knadh/koanf/v2"
	"go.uber.org/zap"
)

type ImageController struct {
	ImageUsecase   *usecase.ImageUsecase
	ProfileUsecase *usecase.ProfileUsecase
	Log            *zap.Logger
	Config         *koanf.Koanf
}

func NewImageController(imageUsecase *usecase.ImageUsecase, profileUsecase *usecase.ProfileUsecase, zap *zap.Logger, koanf *koanf.Koanf) *ImageController {
	return &ImageController{
		ImageUsecase:   imageUsecase,
		ProfileUsecase: profileUsecase,
		Log:            zap,
		Config:         koanf,
	}
}

// logger prefers the trace-correlated request logger when one is present.
func (controller *ImageController) logger(ctx *fiber.Ctx) *zap.Logger {
	return middleware.GetLoggerFromContext(ctx, controller.Log)
}

// currentUser resolves the authenticated caller from the claims stashed by
// the auth middleware. A missing profile is an error here, never a zero
// profile handed onwards.
func (controller *ImageController) currentUser(ctx *fiber.Ctx) (model.Profile, error) {
	claims, ok := ctx.Locals("claims").(jwt.MapClaims)
	if !ok {
		return model.Profile{}, &model.ValidationError{
			Code:    constant.ERR_UNAUTHORIZED_ERROR,
			Message: "No authentication token is provided",
			Param:   "accessToken",
		}
	}

	return controller.ProfileUsecase.ResolveCurrentUser(ctx.Context(), claims)
}

// UploadImage handles the multipart upload for the current user.
func (controller *ImageController) UploadImage(ctx *fiber.Ctx) error {
	var validationErr *model.ValidationError

	fileHeader, err := ctx.FormFile("image")
	if err != nil {
		return util.SendErrorResponse(ctx, &model.ValidationError{
			Code:    constant.ERR_VALIDATION_CODE,
			Message: "Image is required to not be empty",
			Param:   "image",
		})
	}

	title := ctx.FormValue("title")
	if title == "" {
		return util.SendErrorResponse(ctx, &model.ValidationError{
			Code:    constant.ERR_VALIDATION_CODE,
			Message: "Image must have a title",
			Param:   "title",
		})
	}

	profile, err := controller.currentUser(ctx)
	if err != nil {
		if errors.As(err, &validationErr) {
			return util.SendErrorResponse(ctx, err)
		}
		return util.SendErrorResponseInternalServer(ctx, controller.logger(ctx), err)
	}

	// Read at request start; two concurrent uploads can both pass.
	if len(profile.Images) >= controller.ImageUsecase.MaxImageCount() {
		return util.SendErrorResponse(ctx, &model.ValidationError{
			Code:    constant.ERR_VALIDATION_CODE,
			Message: fmt.Sprintf("Profile has reached the maximum of %d images", controller.ImageUsecase.MaxImageCount()),
			Param:   "image",
		})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return util.SendErrorResponseInternalServer(ctx, controller.logger(ctx), err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return util.SendErrorResponseInternalServer(ctx, controller.logger(ctx), err)
	}

	contentType := fileHeader.Header.Get("Content-Type")

	_, err = controller.ImageUsecase.AddImage(ctx.Context(), profile, data, contentType, title)
	if err != nil {
		if errors.As(err, &validationErr) {
			return util.SendErrorResponse(ctx, err)
		}
		return util.SendErrorResponseInternalServer(ctx, controller.logger(ctx), err)
	}

	return util.SendSuccessResponseNoContent(ctx)
}

// DeleteImages removes a batch of the caller's images. The whole batch is
// rejected before any store mutation when an id is not owned by the caller.
func (controller *ImageController) DeleteImages(ctx *fiber.Ctx) error {
	var validationErr *model.ValidationError

	var payload model.ImageDeleteRequest
	if err := util.ReadRequestBody(ctx, &payload); err != nil {
		return util.SendErrorResponse(ctx, &model.ValidationError{
			Code:    constant.ERR_INVALID_REQUEST_BODY_ERROR_CODE,
			Message: constant.ERR_INVALID_REQUEST_BODY_MESSAGE,
		})
	}

	if len(payload.ImageIds) == 0 {
		return util.SendErrorResponse(ctx, &model.ValidationError{
			Code:    constant.ERR_VALIDATION_CODE,
			Message: "Image ids are required to not be empty",
			Param:   "imageIds",
		})
	}

	profile, err := controller.currentUser(ctx)
	if err != nil {
		if errors.As(err, &validationErr) {
			return util.SendErrorResponse(ctx, err)
		}
		return util.SendErrorResponseInternalServer(ctx, controller.logger(ctx), err)
	}

	for _, imageId := range payload.ImageIds {
		if profile.FindImage(imageId) == nil {
			return util.SendErrorResponse(ctx, &model.ValidationError{
				Code:    constant.ERR_VALIDATION_CODE,
				Message: fmt.Sprintf("Image %s does not belong to the caller", imageId),
				Param:   "imageIds",
			})
		}
	}

	_, err = controller.ImageUsecase.DeleteImages(ctx.Context(), profile, payload.ImageIds)
	if err != nil {
		return util.SendErrorResponseInternalServer(ctx, controller.logger(ctx), err)
	}

	return util.SendSuccessResponseNoContent(ctx)
}

// GetOwnImageByFileName serves one of the caller's own images.
func (controller *ImageController) GetOwnImageByFileName(ctx *fiber.Ctx) error {
	var validationErr *model.ValidationError

	fileName := ctx.Params("fileName")

	profile, err := controller.currentUser(ctx)
	if err != nil {
		if errors.As(err, &validationErr) {
			return util.SendErrorResponse(ctx, err)
		}
		return util.SendErrorResponseInternalServer(ctx, controller.logger(ctx), err)
	}

	if !profile.HasFileName(fileName) {
		return util.SendErrorResponse(ctx, &model.ValidationError{
			Code:    constant.ERR_VALIDATION_CODE,
			Message: "Image does not belong to the caller",
			Param:   "fileName",
		})
	}

	return controller.sendImage(ctx, profile.ProfileId, fileName)
}

// GetProfileImages returns every image of the given profile, base64-encoded
// in a JSON array.
func (controller *ImageController) GetProfileImages(ctx *fiber.Ctx) error {
	profileId := ctx.Params("profileId")
	if profileId == "" {
		return util.SendErrorResponse(ctx, &model.ValidationError{
			Code:    constant.ERR_VALIDATION_CODE,
			Message: "Profile id is required to not be empty",
			Param:   "profileId",
		})
	}

	images, err := controller.ImageUsecase.GetAllImages(ctx.Context(), profileId)
	if err != nil {
		return util.SendErrorResponseInternalServer(ctx, controller.logger(ctx), err)
	}

	if images == nil {
		images = [][]byte{}
	}

	return util.SendSuccessResponseWithData(ctx, images)
}

func (controller *ImageController) GetProfileImageByFileName(ctx *fiber.Ctx) error {
	profileId := ctx.Params("profileId")
	fileName := ctx.Params("fileName")
	if profileId == "" || fileName == "" {
		return util.SendErrorResponse(ctx, &model.ValidationError{
			Code:    constant.ERR_VALIDATION_CODE,
			Message: "Profile id and file name are required to not be empty",
			Param:   "fileName",
		})
	}

	return controller.sendImage(ctx, profileId, fileName)
}

func (controller *ImageController) sendImage(ctx *fiber.Ctx, profileId string, fileName string) error {
	var validationErr *model.ValidationError

	data, err := controller.ImageUsecase.GetImage(ctx.Context(), profileId, fileName)
	if err != nil {
		if errors.As(err, &validationErr) {
			return util.SendErrorResponse(ctx, err)
		}
		return util.SendErrorResponseInternalServer(ctx, controller.logger(ctx), err)
	}

	ctx.Set(fiber.HeaderContentType, util.ContentTypeForFileName(util.NormalizeFileName(fileName)))
	return ctx.Status(fiber.StatusOK).Send(data)
}

// PurgeProfiles deletes every image of each listed profile. Admin only.
func (controller *ImageController) PurgeProfiles(ctx *fiber.Ctx) error {
	var validationErr *model.ValidationError

	var payload model.ImagePurgeRequest
	if err := util.ReadRequestBody(ctx, &payload); err != nil {
		return util.SendErrorResponse(ctx, &model.ValidationError{
			Code:    constant.ERR_INVALID_REQUEST_BODY_ERROR_CODE,
			Message: constant.ERR_INVALID_REQUEST_BODY_MESSAGE,
		})
	}

	requester, err := controller.currentUser(ctx)
	if err != nil {
		if errors.As(err, &validationErr) {
			return util.SendErrorResponse(ctx, err)
		}
		return util.SendErrorResponseInternalServer(ctx, controller.logger(ctx), err)
	}

	if !requester.Admin {
		return util.SendErrorResponse(ctx, &model.ValidationError{
			Code:    constant.ERR_FORBIDDEN_ERROR,
			Message: "You don't have admin rights to delete other people's images",
			Param:   "profileIds",
		})
	}

	for _, profileId := range payload.ProfileIds {
		err = controller.ImageUsecase.DeleteAllImagesForProfile(ctx.Context(), requester, profileId)
		if err != nil {
			if errors.As(err, &validationErr) {
				return util.SendErrorResponse(ctx, err)
			}
			return util.SendErrorResponseInternalServer(ctx, controller.logger(ctx), err)
		}
	}

	return util.SendSuccessResponseNoContent(ctx)
}

// PurgeCurrentUser deletes all of the caller's images. Admin accounts are
// refused so an admin cannot strip their own account through this path.
func (controller *ImageController) PurgeCurrentUser(ctx *fiber.Ctx) error {
	var validationErr *model.ValidationError

	profile, err := controller.currentUser(ctx)
	if err != nil {
		if errors.As(err, &validationErr) {
			return util.SendErrorResponse(ctx, err)
		}
		return util.SendErrorResponseInternalServer(ctx, controller.logger(ctx), err)
	}

	if profile.Admin {
		return util.SendErrorResponse(ctx, &model.ValidationError{
			Code:    constant.ERR_VALIDATION_CODE,
			Message: "Admins cannot delete all of their own images",
			Param:   "profileId",
		})
	}

	err = controller.ImageUsecase.DeleteAllImagesForProfile(ctx.Context(), profile, profile.ProfileId)
	if err != nil {
		if errors.As(err, &validationErr) {
			return util.SendErrorResponse(ctx, err)
		}
		return util.SendErrorResponseInternalServer(ctx, controller.logger(ctx), err)
	}

	return util.SendSuccessResponseNoContent(ctx)
}
