package usecase

import (
	"context"

	"photokeep/internal/model"
)

// BlobStore is the object-store side of the image lifecycle. Keys are
// {profileId}/{fileName}; no operation spans more than one key atomically.
type BlobStore interface {
	Upload(ctx context.Context, profileId string, fileName string, data []byte, contentType string) error
	Download(ctx context.Context, profileId string, fileName string) ([]byte, error)
	DeleteOne(ctx context.Context, profileId string, fileName string) error
	DeleteAllForProfile(ctx context.Context, profileId string) error
	DownloadAll(ctx context.Context, profileId string) <-chan model.BlobDownload
}

// ProfileStore is the metadata side. Every mutation is single-document
// atomic and returns the post-update profile.
type ProfileStore interface {
	FindByExternalId(ctx context.Context, externalId string) (model.Profile, error)
	AddImageReference(ctx context.Context, profileId string, fileName string, title string) (model.Profile, error)
	RemoveImageReference(ctx context.Context, profileId string, imageId string) (model.Profile, error)
	ClearImageReferences(ctx context.Context, profileId string) (model.Profile, error)
}
