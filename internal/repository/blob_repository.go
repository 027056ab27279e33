package repository

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"photokeep/internal/constant"
	"photokeep/internal/model"
	"photokeep/internal/util"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// BlobRepository stores image bytes in MinIO under {profileId}/{fileName}
// keys. Operations are single remote calls; nothing here is transactional
// across keys.
type BlobRepository struct {
	Log    *zap.Logger
	Client *minio.Client
	Bucket string
}

func NewBlobRepository(zap *zap.Logger, client *minio.Client, bucket string) *BlobRepository {
	return &BlobRepository{
		Log:    zap,
		Client: client,
		Bucket: bucket,
	}
}

func objectKey(profileId string, fileName string) string {
	return profileId + "/" + fileName
}

func profilePrefix(profileId string) string {
	return profileId + "/"
}

// Upload overwrites silently; callers guarantee fresh names per upload.
func (repository *BlobRepository) Upload(ctx context.Context, profileId string, fileName string, data []byte, contentType string) error {
	_, err := repository.Client.PutObject(ctx, repository.Bucket, objectKey(profileId, fileName),
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{
			ContentType: contentType,
		})
	if err != nil {
		return err
	}

	return nil
}

func (repository *BlobRepository) Download(ctx context.Context, profileId string, fileName string) ([]byte, error) {
	// Blobs written before content types were tracked have no extension.
	fileName = util.NormalizeFileName(fileName)

	object, err := repository.Client.GetObject(ctx, repository.Bucket, objectKey(profileId, fileName), minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer object.Close()

	data, err := io.ReadAll(object)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, &model.ValidationError{
				Code:    constant.ERR_NOT_FOUND_ERROR,
				Message: "Image not found",
				Param:   "fileName",
			}
		}
		return nil, err
	}

	return data, nil
}

// DeleteOne is idempotent: removing a missing key is not an error.
func (repository *BlobRepository) DeleteOne(ctx context.Context, profileId string, fileName string) error {
	err := repository.Client.RemoveObject(ctx, repository.Bucket, objectKey(profileId, fileName), minio.RemoveObjectOptions{})
	if err != nil {
		return err
	}

	return nil
}

// DeleteAllForProfile sweeps every key under the profile prefix. Per-key
// failures are collected and returned joined so partial deletion is never
// silent.
func (repository *BlobRepository) DeleteAllForProfile(ctx context.Context, profileId string) error {
	var errs []error

	for object := range repository.Client.ListObjects(ctx, repository.Bucket, minio.ListObjectsOptions{
		Prefix:    profilePrefix(profileId),
		Recursive: true,
	}) {
		if object.Err != nil {
			errs = append(errs, fmt.Errorf("list %s: %w", profilePrefix(profileId), object.Err))
			continue
		}

		err := repository.Client.RemoveObject(ctx, repository.Bucket, object.Key, minio.RemoveObjectOptions{})
		if err != nil {
			errs = append(errs, fmt.Errorf("remove %s: %w", object.Key, err))
		}
	}

	return errors.Join(errs...)
}

// DownloadAll streams every blob under the profile prefix. The channel is
// lazy, finite and consumed once, one remote download per element.
func (repository *BlobRepository) DownloadAll(ctx context.Context, profileId string) <-chan model.BlobDownload {
	out := make(chan model.BlobDownload)

	go func() {
		defer close(out)

		for object := range repository.Client.ListObjects(ctx, repository.Bucket, minio.ListObjectsOptions{
			Prefix:    profilePrefix(profileId),
			Recursive: true,
		}) {
			if object.Err != nil {
				select {
				case out <- model.BlobDownload{Err: object.Err}:
				case <-ctx.Done():
				}
				return
			}

			data, err := repository.readObject(ctx, object.Key)
			select {
			case out <- model.BlobDownload{Key: object.Key, Data: data, Err: err}:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}

func (repository *BlobRepository) readObject(ctx context.Context, key string) ([]byte, error) {
	object, err := repository.Client.GetObject(ctx, repository.Bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer object.Close()

	return io.ReadAll(object)
}
