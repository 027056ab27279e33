package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"sync"
	"testing"
	"time"

	"photokeep/internal/constant"
	web "photokeep/internal/delivery/http"
	"photokeep/internal/delivery/http/middleware"
	"photokeep/internal/delivery/http/route"
	"photokeep/internal/model"
	"photokeep/internal/usecase"
	"photokeep/internal/util"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/knadh/koanf/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testJWTSecret = "controller-test-secret"

type stubBlobStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (s *stubBlobStore) Upload(ctx context.Context, profileId string, fileName string, data []byte, contentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[profileId+"/"+fileName] = append([]byte(nil), data...)
	return nil
}

func (s *stubBlobStore) Download(ctx context.Context, profileId string, fileName string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[profileId+"/"+util.NormalizeFileName(fileName)]
	if !ok {
		return nil, &model.ValidationError{
			Code:    constant.ERR_NOT_FOUND_ERROR,
			Message: "Image not found",
			Param:   "fileName",
		}
	}
	return data, nil
}

func (s *stubBlobStore) DeleteOne(ctx context.Context, profileId string, fileName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, profileId+"/"+fileName)
	return nil
}

func (s *stubBlobStore) DeleteAllForProfile(ctx context.Context, profileId string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.objects {
		if strings.HasPrefix(key, profileId+"/") {
			delete(s.objects, key)
		}
	}
	return nil
}

func (s *stubBlobStore) DownloadAll(ctx context.Context, profileId string) <-chan model.BlobDownload {
	s.mu.Lock()
	snapshot := map[string][]byte{}
	for key, data := range s.objects {
		if strings.HasPrefix(key, profileId+"/") {
			snapshot[key] = data
		}
	}
	s.mu.Unlock()

	out := make(chan model.BlobDownload)
	go func() {
		defer close(out)
		for key, data := range snapshot {
			out <- model.BlobDownload{Key: key, Data: data}
		}
	}()
	return out
}

func (s *stubBlobStore) count(profileId string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for key := range s.objects {
		if strings.HasPrefix(key, profileId+"/") {
			n++
		}
	}
	return n
}

type stubProfileStore struct {
	mu       sync.Mutex
	profiles map[string]model.Profile
}

func (s *stubProfileStore) notFound() error {
	return &model.ValidationError{
		Code:    constant.ERR_NOT_FOUND_ERROR,
		Message: "Profile not found",
		Param:   "externalId",
	}
}

func (s *stubProfileStore) FindByExternalId(ctx context.Context, externalId string) (model.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, profile := range s.profiles {
		if profile.ExternalId == externalId {
			profile.LastActive = time.Now().UTC()
			s.profiles[id] = profile
			return profile, nil
		}
	}
	return model.Profile{}, s.notFound()
}

func (s *stubProfileStore) AddImageReference(ctx context.Context, profileId string, fileName string, title string) (model.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	profile, ok := s.profiles[profileId]
	if !ok {
		return model.Profile{}, s.notFound()
	}
	profile.Images = append(profile.Images, model.ImageReference{
		ImageId:  uuid.New().String(),
		FileName: fileName,
		Title:    title,
	})
	profile.UpdatedOn = time.Now().UTC()
	s.profiles[profileId] = profile
	return profile, nil
}

func (s *stubProfileStore) RemoveImageReference(ctx context.Context, profileId string, imageId string) (model.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	profile, ok := s.profiles[profileId]
	if !ok {
		return model.Profile{}, s.notFound()
	}
	kept := profile.Images[:0:0]
	for _, reference := range profile.Images {
		if reference.ImageId != imageId {
			kept = append(kept, reference)
		}
	}
	profile.Images = kept
	s.profiles[profileId] = profile
	return profile, nil
}

func (s *stubProfileStore) ClearImageReferences(ctx context.Context, profileId string) (model.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	profile, ok := s.profiles[profileId]
	if !ok {
		return model.Profile{}, s.notFound()
	}
	profile.Images = []model.ImageReference{}
	s.profiles[profileId] = profile
	return profile, nil
}

func (s *stubProfileStore) get(profileId string) model.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profiles[profileId]
}

type testEnv struct {
	app      *fiber.App
	blobs    *stubBlobStore
	profiles *stubProfileStore
}

func newTestEnv(t *testing.T, settings map[string]interface{}, profiles ...model.Profile) *testEnv {
	t.Helper()

	config := koanf.New(".")
	require.NoError(t, config.Set("JWT_SECRET_KEY", testJWTSecret))
	for key, value := range settings {
		require.NoError(t, config.Set(key, value))
	}

	blobStore := &stubBlobStore{objects: map[string][]byte{}}
	profileStore := &stubProfileStore{profiles: map[string]model.Profile{}}
	for _, profile := range profiles {
		profileStore.profiles[profile.ProfileId] = profile
	}

	log := zap.NewNop()
	app := fiber.New()

	imageUsecase := usecase.NewImageUsecase(blobStore, profileStore, log, config)
	profileUsecase := usecase.NewProfileUsecase(profileStore, log, config)
	imageController := web.NewImageController(imageUsecase, profileUsecase, log, config)
	authMiddleware := middleware.NewAuthMiddleware(app, log, config)

	routeConfig := route.RouteConfig{
		App:             app,
		AuthMiddleware:  authMiddleware,
		ImageController: imageController,
	}
	routeConfig.SetupRoute()

	return &testEnv{app: app, blobs: blobStore, profiles: profileStore}
}

func (env *testEnv) token(t *testing.T, externalId string) string {
	t.Helper()
	token, err := util.GenerateAccessToken("sub", externalId, testJWTSecret)
	require.NoError(t, err)
	return util.BearerPrefix + token
}

func (env *testEnv) seedBlob(profileId string, fileName string, data []byte) {
	env.blobs.objects[profileId+"/"+fileName] = data
}

func multipartImage(t *testing.T, contentType string, data []byte, title string) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="image"; filename="upload"`)
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)

	if title != "" {
		require.NoError(t, writer.WriteField("title", title))
	}
	require.NoError(t, writer.Close())

	return body, writer.FormDataContentType()
}

func jsonRequest(method string, target string, token string, payload interface{}) *http.Request {
	body, _ := json.Marshal(payload)
	request := httptest.NewRequest(method, target, bytes.NewReader(body))
	request.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	request.Header.Set(fiber.HeaderAuthorization, token)
	return request
}

func TestHealthEndpointIsOpen(t *testing.T) {
	env := newTestEnv(t, nil)

	response, err := env.app.Test(httptest.NewRequest(fiber.MethodGet, "/api/health", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, response.StatusCode)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	env := newTestEnv(t, nil)

	response, err := env.app.Test(httptest.NewRequest(fiber.MethodGet, "/api/images/a.jpeg", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, response.StatusCode)
}

func TestUploadImage(t *testing.T) {
	env := newTestEnv(t, nil, model.Profile{ProfileId: "p1", ExternalId: "ext-1"})

	body, contentType := multipartImage(t, "image/png", []byte("png bytes"), "holiday")
	request := httptest.NewRequest(fiber.MethodPost, "/api/images/", body)
	request.Header.Set(fiber.HeaderContentType, contentType)
	request.Header.Set(fiber.HeaderAuthorization, env.token(t, "ext-1"))

	response, err := env.app.Test(request, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, response.StatusCode)

	profile := env.profiles.get("p1")
	require.Len(t, profile.Images, 1)
	assert.Equal(t, "holiday", profile.Images[0].Title)
	assert.True(t, strings.HasSuffix(profile.Images[0].FileName, ".png"))
	assert.Equal(t, 1, env.blobs.count("p1"))
}

func TestUploadImageRequiresTitle(t *testing.T) {
	env := newTestEnv(t, nil, model.Profile{ProfileId: "p1", ExternalId: "ext-1"})

	body, contentType := multipartImage(t, "image/png", []byte("png bytes"), "")
	request := httptest.NewRequest(fiber.MethodPost, "/api/images/", body)
	request.Header.Set(fiber.HeaderContentType, contentType)
	request.Header.Set(fiber.HeaderAuthorization, env.token(t, "ext-1"))

	response, err := env.app.Test(request, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, response.StatusCode)
	assert.Zero(t, env.blobs.count("p1"))
}

func TestUploadImageEnforcesMaxCount(t *testing.T) {
	env := newTestEnv(t,
		map[string]interface{}{"MAX_IMAGE_COUNT": 1},
		model.Profile{
			ProfileId:  "p1",
			ExternalId: "ext-1",
			Images:     []model.ImageReference{{ImageId: "img-1", FileName: "a.jpeg"}},
		})

	body, contentType := multipartImage(t, "image/jpeg", []byte("x"), "t")
	request := httptest.NewRequest(fiber.MethodPost, "/api/images/", body)
	request.Header.Set(fiber.HeaderContentType, contentType)
	request.Header.Set(fiber.HeaderAuthorization, env.token(t, "ext-1"))

	response, err := env.app.Test(request, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, response.StatusCode)
	require.Len(t, env.profiles.get("p1").Images, 1)
}

func TestUploadImageUnknownCaller(t *testing.T) {
	env := newTestEnv(t, nil)

	body, contentType := multipartImage(t, "image/jpeg", []byte("x"), "t")
	request := httptest.NewRequest(fiber.MethodPost, "/api/images/", body)
	request.Header.Set(fiber.HeaderContentType, contentType)
	request.Header.Set(fiber.HeaderAuthorization, env.token(t, "nobody"))

	response, err := env.app.Test(request, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, response.StatusCode)
}

func TestDeleteImagesBatch(t *testing.T) {
	env := newTestEnv(t, nil, model.Profile{
		ProfileId:  "p1",
		ExternalId: "ext-1",
		Images: []model.ImageReference{
			{ImageId: "img-1", FileName: "a.jpeg"},
			{ImageId: "img-2", FileName: "b.png"},
		},
	})
	env.seedBlob("p1", "a.jpeg", []byte("a"))
	env.seedBlob("p1", "b.png", []byte("b"))

	request := jsonRequest(fiber.MethodDelete, "/api/images/batch", env.token(t, "ext-1"),
		model.ImageDeleteRequest{ImageIds: []string{"img-1", "img-2"}})

	response, err := env.app.Test(request, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, response.StatusCode)

	assert.Empty(t, env.profiles.get("p1").Images)
	assert.Zero(t, env.blobs.count("p1"))
}

func TestDeleteImagesRejectsForeignId(t *testing.T) {
	env := newTestEnv(t, nil,
		model.Profile{ProfileId: "p1", ExternalId: "ext-1", Images: []model.ImageReference{{ImageId: "img-1", FileName: "a.jpeg"}}},
		model.Profile{ProfileId: "p2", ExternalId: "ext-2", Images: []model.ImageReference{{ImageId: "img-2", FileName: "b.jpeg"}}},
	)
	env.seedBlob("p1", "a.jpeg", []byte("a"))
	env.seedBlob("p2", "b.jpeg", []byte("b"))

	// One owned id plus one foreign id: the whole batch is refused.
	request := jsonRequest(fiber.MethodDelete, "/api/images/batch", env.token(t, "ext-1"),
		model.ImageDeleteRequest{ImageIds: []string{"img-1", "img-2"}})

	response, err := env.app.Test(request, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, response.StatusCode)

	assert.Len(t, env.profiles.get("p1").Images, 1)
	assert.Len(t, env.profiles.get("p2").Images, 1)
	assert.Equal(t, 1, env.blobs.count("p1"))
	assert.Equal(t, 1, env.blobs.count("p2"))
}

func TestDeleteImagesRejectsEmptyBatch(t *testing.T) {
	env := newTestEnv(t, nil, model.Profile{ProfileId: "p1", ExternalId: "ext-1"})

	request := jsonRequest(fiber.MethodDelete, "/api/images/batch", env.token(t, "ext-1"),
		model.ImageDeleteRequest{ImageIds: []string{}})

	response, err := env.app.Test(request, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, response.StatusCode)
}

func TestGetOwnImageByFileName(t *testing.T) {
	env := newTestEnv(t, nil, model.Profile{
		ProfileId:  "p1",
		ExternalId: "ext-1",
		Images:     []model.ImageReference{{ImageId: "img-1", FileName: "a.png"}},
	})
	env.seedBlob("p1", "a.png", []byte("png bytes"))

	request := httptest.NewRequest(fiber.MethodGet, "/api/images/a.png", nil)
	request.Header.Set(fiber.HeaderAuthorization, env.token(t, "ext-1"))

	response, err := env.app.Test(request, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, response.StatusCode)
	assert.Equal(t, "image/png", response.Header.Get(fiber.HeaderContentType))
}

func TestGetOwnImageRejectsForeignFileName(t *testing.T) {
	env := newTestEnv(t, nil, model.Profile{ProfileId: "p1", ExternalId: "ext-1"})
	env.seedBlob("p2", "b.jpeg", []byte("b"))

	request := httptest.NewRequest(fiber.MethodGet, "/api/images/b.jpeg", nil)
	request.Header.Set(fiber.HeaderAuthorization, env.token(t, "ext-1"))

	response, err := env.app.Test(request, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, response.StatusCode)
}

func TestGetProfileImages(t *testing.T) {
	env := newTestEnv(t, nil, model.Profile{ProfileId: "p1", ExternalId: "ext-1"})
	env.seedBlob("p1", "a.jpeg", []byte("first"))
	env.seedBlob("p1", "b.jpeg", []byte("second"))

	request := httptest.NewRequest(fiber.MethodGet, "/api/profiles/p1/images", nil)
	request.Header.Set(fiber.HeaderAuthorization, env.token(t, "ext-1"))

	response, err := env.app.Test(request, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, response.StatusCode)

	var images [][]byte
	require.NoError(t, json.NewDecoder(response.Body).Decode(&images))
	assert.ElementsMatch(t, [][]byte{[]byte("first"), []byte("second")}, images)
}

func TestGetProfileImagesEmptyProfile(t *testing.T) {
	env := newTestEnv(t, nil, model.Profile{ProfileId: "p1", ExternalId: "ext-1"})

	request := httptest.NewRequest(fiber.MethodGet, "/api/profiles/p1/images", nil)
	request.Header.Set(fiber.HeaderAuthorization, env.token(t, "ext-1"))

	response, err := env.app.Test(request, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, response.StatusCode)

	var images [][]byte
	require.NoError(t, json.NewDecoder(response.Body).Decode(&images))
	assert.Empty(t, images)
}

func TestGetProfileImageByFileName(t *testing.T) {
	env := newTestEnv(t, nil,
		model.Profile{ProfileId: "p1", ExternalId: "ext-1"},
		model.Profile{ProfileId: "p2", ExternalId: "ext-2"},
	)
	env.seedBlob("p2", "b.jpeg", []byte("b"))

	request := httptest.NewRequest(fiber.MethodGet, "/api/profiles/p2/images/b.jpeg", nil)
	request.Header.Set(fiber.HeaderAuthorization, env.token(t, "ext-1"))

	response, err := env.app.Test(request, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, response.StatusCode)
	assert.Equal(t, "image/jpeg", response.Header.Get(fiber.HeaderContentType))
}

func TestGetProfileImageNotFound(t *testing.T) {
	env := newTestEnv(t, nil, model.Profile{ProfileId: "p1", ExternalId: "ext-1"})

	request := httptest.NewRequest(fiber.MethodGet, "/api/profiles/p1/images/missing.jpeg", nil)
	request.Header.Set(fiber.HeaderAuthorization, env.token(t, "ext-1"))

	response, err := env.app.Test(request, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, response.StatusCode)
}

func TestAdminPurgeClearsTargetProfiles(t *testing.T) {
	env := newTestEnv(t, nil,
		model.Profile{ProfileId: "admin", ExternalId: "ext-admin", Admin: true},
		model.Profile{ProfileId: "p1", ExternalId: "ext-1", Images: []model.ImageReference{{ImageId: "img-1", FileName: "a.jpeg"}}},
		model.Profile{ProfileId: "p2", ExternalId: "ext-2", Images: []model.ImageReference{{ImageId: "img-2", FileName: "b.jpeg"}}},
	)
	env.seedBlob("p1", "a.jpeg", []byte("a"))
	env.seedBlob("p2", "b.jpeg", []byte("b"))

	request := jsonRequest(fiber.MethodPost, "/api/admin/images/purge", env.token(t, "ext-admin"),
		model.ImagePurgeRequest{ProfileIds: []string{"p1", "p2"}})

	response, err := env.app.Test(request, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, response.StatusCode)

	for _, profileId := range []string{"p1", "p2"} {
		assert.Empty(t, env.profiles.get(profileId).Images, "profile %s", profileId)
		assert.Zero(t, env.blobs.count(profileId), "profile %s", profileId)
	}
}

func TestAdminPurgeForbiddenForNonAdmin(t *testing.T) {
	env := newTestEnv(t, nil,
		model.Profile{ProfileId: "p1", ExternalId: "ext-1"},
		model.Profile{ProfileId: "p2", ExternalId: "ext-2", Images: []model.ImageReference{{ImageId: "img-2", FileName: "b.jpeg"}}},
	)
	env.seedBlob("p2", "b.jpeg", []byte("b"))

	request := jsonRequest(fiber.MethodPost, "/api/admin/images/purge", env.token(t, "ext-1"),
		model.ImagePurgeRequest{ProfileIds: []string{"p2"}})

	response, err := env.app.Test(request, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, response.StatusCode)
	assert.Len(t, env.profiles.get("p2").Images, 1)
}

func TestSelfPurge(t *testing.T) {
	env := newTestEnv(t, nil, model.Profile{
		ProfileId:  "p1",
		ExternalId: "ext-1",
		Images:     []model.ImageReference{{ImageId: "img-1", FileName: "a.jpeg"}},
	})
	env.seedBlob("p1", "a.jpeg", []byte("a"))

	request := httptest.NewRequest(fiber.MethodDelete, "/api/images/", nil)
	request.Header.Set(fiber.HeaderAuthorization, env.token(t, "ext-1"))

	response, err := env.app.Test(request, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, response.StatusCode)

	assert.Empty(t, env.profiles.get("p1").Images)
	assert.Zero(t, env.blobs.count("p1"))
}

func TestSelfPurgeRejectedForAdmin(t *testing.T) {
	env := newTestEnv(t, nil, model.Profile{
		ProfileId:  "admin",
		ExternalId: "ext-admin",
		Admin:      true,
		Images:     []model.ImageReference{{ImageId: "img-1", FileName: "a.jpeg"}},
	})
	env.seedBlob("admin", "a.jpeg", []byte("a"))

	request := httptest.NewRequest(fiber.MethodDelete, "/api/images/", nil)
	request.Header.Set(fiber.HeaderAuthorization, env.token(t, "ext-admin"))

	response, err := env.app.Test(request, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, response.StatusCode)

	assert.Len(t, env.profiles.get("admin").Images, 1)
	assert.Equal(t, 1, env.blobs.count("admin"))
}
