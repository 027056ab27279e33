package usecase

import (
	"context"
	"errors"
	"fmt"

	"photokeep/internal/constant"
	"photokeep/internal/model"
	"photokeep/internal/util"

	"github.com/knadh/koanf/v2"
	"go.uber.org/zap"
)

// ImageUsecase coordinates the blob store and the profile store so that an
// upload or deletion lands in both. Policy on partial failure: an orphaned
// blob (bytes nobody references) is tolerable and compensated best-effort; a
// dangling reference (metadata pointing at missing bytes) is never written.
type ImageUsecase struct {
	BlobStore    BlobStore
	ProfileStore ProfileStore
	Log          *zap.Logger
	Config       *koanf.Koanf
}

func NewImageUsecase(blobStore BlobStore, profileStore ProfileStore, zap *zap.Logger, koanf *koanf.Koanf) *ImageUsecase {
	return &ImageUsecase{
		BlobStore:    blobStore,
		ProfileStore: profileStore,
		Log:          zap,
		Config:       koanf,
	}
}

func (usecase *ImageUsecase) MaxImageCount() int {
	count := usecase.Config.Int("MAX_IMAGE_COUNT")
	if count <= 0 {
		return constant.DEFAULT_MAX_IMAGE_COUNT
	}
	return count
}

func (usecase *ImageUsecase) MaxImageSizeBytes() int64 {
	size := usecase.Config.Int64("MAX_IMAGE_SIZE_BYTES")
	if size <= 0 {
		return constant.DEFAULT_MAX_IMAGE_SIZE_BYTES
	}
	return size
}

// AddImage uploads the bytes under a fresh random name and only then records
// the reference. Nothing is written to either store before validation
// passes.
func (usecase *ImageUsecase) AddImage(ctx context.Context, profile model.Profile, data []byte, contentType string, title string) (model.Profile, error) {
	if len(data) == 0 {
		return profile, &model.ValidationError{
			Code:    constant.ERR_VALIDATION_CODE,
			Message: "Image is required to not be empty",
			Param:   "image",
		}
	}

	if maxSize := usecase.MaxImageSizeBytes(); int64(len(data)) > maxSize {
		return profile, &model.ValidationError{
			Code:    constant.ERR_VALIDATION_CODE,
			Message: fmt.Sprintf("Image size exceeded the %d byte limit", maxSize),
			Param:   "image",
		}
	}

	// Legacy form clients send the literal string "null" for no title.
	if title == "null" {
		title = ""
	}

	fileName := util.GenerateFileName(contentType)

	err := usecase.BlobStore.Upload(ctx, profile.ProfileId, fileName, data, contentType)
	if err != nil {
		return profile, err
	}

	updated, err := usecase.ProfileStore.AddImageReference(ctx, profile.ProfileId, fileName, title)
	if err != nil {
		// The blob is already written; take it back rather than leave an
		// orphan. A failed compensation only widens the orphan window.
		if deleteErr := usecase.BlobStore.DeleteOne(ctx, profile.ProfileId, fileName); deleteErr != nil {
			usecase.Log.Warn("orphaned blob left after failed metadata write",
				zap.String("profileId", profile.ProfileId),
				zap.String("fileName", fileName),
				zap.Error(deleteErr))
		}
		return profile, err
	}

	return updated, nil
}

// DeleteImages removes the given image ids from both stores. Ids absent from
// the profile are skipped, which makes replays of an already-applied delete
// clean no-ops. Both halves are attempted for every id even when one fails;
// failures are joined into the returned error.
func (usecase *ImageUsecase) DeleteImages(ctx context.Context, profile model.Profile, imageIds []string) (model.Profile, error) {
	current := profile
	var errs []error

	for _, imageId := range imageIds {
		reference := current.FindImage(imageId)
		if reference == nil {
			continue
		}

		if err := usecase.BlobStore.DeleteOne(ctx, current.ProfileId, reference.FileName); err != nil {
			errs = append(errs, fmt.Errorf("delete blob %s: %w", reference.FileName, err))
		}

		updated, err := usecase.ProfileStore.RemoveImageReference(ctx, current.ProfileId, imageId)
		if err != nil {
			errs = append(errs, fmt.Errorf("remove reference %s: %w", imageId, err))
			continue
		}
		current = updated
	}

	return current, errors.Join(errs...)
}

// DeleteAllImagesForProfile purges every blob under the profile prefix and
// clears the reference list. Requires the requester to be an admin or the
// profile owner. The list is cleared even when the sweep partially fails:
// that direction leaves orphaned blobs, never dangling references.
func (usecase *ImageUsecase) DeleteAllImagesForProfile(ctx context.Context, requester model.Profile, targetProfileId string) error {
	if targetProfileId == "" {
		return &model.ValidationError{
			Code:    constant.ERR_VALIDATION_CODE,
			Message: "Profile id is required to not be empty",
			Param:   "profileId",
		}
	}

	if !requester.Admin && requester.ProfileId != targetProfileId {
		return &model.ValidationError{
			Code:    constant.ERR_FORBIDDEN_ERROR,
			Message: "You don't have admin rights to delete other people's images",
			Param:   "profileId",
		}
	}

	var errs []error

	if err := usecase.BlobStore.DeleteAllForProfile(ctx, targetProfileId); err != nil {
		errs = append(errs, err)
	}

	if _, err := usecase.ProfileStore.ClearImageReferences(ctx, targetProfileId); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func (usecase *ImageUsecase) GetImage(ctx context.Context, profileId string, fileName string) ([]byte, error) {
	return usecase.BlobStore.Download(ctx, profileId, fileName)
}

// GetAllImages drains the bulk download sequence into owned buffers. The
// sequence is consumed fully even after a failed element so the producer can
// finish; the first failure is returned.
func (usecase *ImageUsecase) GetAllImages(ctx context.Context, profileId string) ([][]byte, error) {
	var images [][]byte
	var firstErr error

	for download := range usecase.BlobStore.DownloadAll(ctx, profileId) {
		if download.Err != nil {
			if firstErr == nil {
				firstErr = download.Err
			}
			continue
		}
		images = append(images, download.Data)
	}

	if firstErr != nil {
		return nil, firstErr
	}

	return images, nil
}
