package repository

import (
	"context"
	"errors"
	"time"

	"photokeep/internal/constant"
	"photokeep/internal/model"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap"
)

const profileCollection = "profiles"

// ProfileRepository persists profiles as single documents; every mutation is
// one atomic find-update-return round trip, so the embedded image list never
// needs a multi-document transaction.
type ProfileRepository struct {
	Log        *zap.Logger
	Collection *mongo.Collection
}

func NewProfileRepository(zap *zap.Logger, db *mongo.Database) *ProfileRepository {
	return &ProfileRepository{
		Log:        zap,
		Collection: db.Collection(profileCollection),
	}
}

// FindByExternalId resolves a profile from an identity claim and touches
// lastActive in the same round trip.
func (repository *ProfileRepository) FindByExternalId(ctx context.Context, externalId string) (model.Profile, error) {
	filter := bson.M{"externalId": externalId}
	update := bson.M{"$set": bson.M{"lastActive": time.Now().UTC()}}

	return repository.findOneAndUpdate(ctx, filter, update, "externalId")
}

// AddImageReference appends a reference with a fresh image id and returns the
// updated profile.
func (repository *ProfileRepository) AddImageReference(ctx context.Context, profileId string, fileName string, title string) (model.Profile, error) {
	reference := model.ImageReference{
		ImageId:  uuid.New().String(),
		FileName: fileName,
		Title:    title,
	}

	filter := bson.M{"profileId": profileId}
	update := bson.M{
		"$push": bson.M{"images": reference},
		"$set":  bson.M{"updatedOn": time.Now().UTC()},
	}

	return repository.findOneAndUpdate(ctx, filter, update, "profileId")
}

// RemoveImageReference pulls the matching reference(s) by image id.
func (repository *ProfileRepository) RemoveImageReference(ctx context.Context, profileId string, imageId string) (model.Profile, error) {
	filter := bson.M{"profileId": profileId}
	update := bson.M{
		"$pull": bson.M{"images": bson.M{"imageId": imageId}},
		"$set":  bson.M{"updatedOn": time.Now().UTC()},
	}

	return repository.findOneAndUpdate(ctx, filter, update, "profileId")
}

// ClearImageReferences empties the image list after a blob purge.
func (repository *ProfileRepository) ClearImageReferences(ctx context.Context, profileId string) (model.Profile, error) {
	filter := bson.M{"profileId": profileId}
	update := bson.M{
		"$set": bson.M{
			"images":    []model.ImageReference{},
			"updatedOn": time.Now().UTC(),
		},
	}

	return repository.findOneAndUpdate(ctx, filter, update, "profileId")
}

func (repository *ProfileRepository) findOneAndUpdate(ctx context.Context, filter bson.M, update bson.M, param string) (model.Profile, error) {
	profile := model.Profile{}

	err := repository.Collection.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&profile)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return profile, &model.ValidationError{
				Code:    constant.ERR_NOT_FOUND_ERROR,
				Message: "Profile not found",
				Param:   param,
			}
		}
		return profile, err
	}

	return profile, nil
}
