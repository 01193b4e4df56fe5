package app

import (
	"context"
	"strings"
	"testing"

	"github.com/dsneed123/another-social-media-app/internal/relay/domain"
	"github.com/dsneed123/another-social-media-app/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestMediaUseCase_Upload(t *testing.T) {
	logger.SetNewNop()
	ctx := context.Background()
	mediaRepo := new(MockMediaAssetRepo)
	store := new(MockObjectStore)
	uc := NewMediaUseCase(mediaRepo, store)

	ownerID := uuid.New().String()
	body := strings.NewReader("jpeg bytes")

	store.On("UploadObject", ctx, mock.MatchedBy(func(key string) bool {
		return strings.HasPrefix(key, "media/") && strings.HasSuffix(key, ".jpg")
	}), "image/jpeg", body).Return(nil)
	mediaRepo.On("Create", mock.MatchedBy(func(a *domain.MediaAsset) bool {
		return a.OwnerID == ownerID && a.ContentType == "image/jpeg" && a.ExpiresAt != nil
	})).Return(nil)
	store.On("PresignGetURL", ctx, mock.Anything, presignExpiry).Return("http://minio/relay-media/media/x.jpg", nil)

	result, err := uc.Upload(ctx, ownerID, "selfie.jpg", "image/jpeg", body, 3600)

	assert.NoError(t, err)
	assert.True(t, strings.HasPrefix(result.ObjectKey, "media/"))
	assert.NotEmpty(t, result.MediaURL)

	store.AssertExpectations(t)
	mediaRepo.AssertExpectations(t)
}

func TestMediaUseCase_UploadRejectsContentType(t *testing.T) {
	logger.SetNewNop()
	ctx := context.Background()
	mediaRepo := new(MockMediaAssetRepo)
	store := new(MockObjectStore)
	uc := NewMediaUseCase(mediaRepo, store)

	_, err := uc.Upload(ctx, uuid.New().String(), "payload.exe", "application/octet-stream", strings.NewReader("x"), 0)

	assert.Error(t, err)
	store.AssertNotCalled(t, "UploadObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestMediaUseCase_UploadWithoutExpiry(t *testing.T) {
	logger.SetNewNop()
	ctx := context.Background()
	mediaRepo := new(MockMediaAssetRepo)
	store := new(MockObjectStore)
	uc := NewMediaUseCase(mediaRepo, store)

	body := strings.NewReader("mp4 bytes")

	store.On("UploadObject", ctx, mock.Anything, "video/mp4", body).Return(nil)
	mediaRepo.On("Create", mock.MatchedBy(func(a *domain.MediaAsset) bool {
		return a.ExpiresAt == nil
	})).Return(nil)
	store.On("PresignGetURL", ctx, mock.Anything, mock.AnythingOfType("time.Duration")).Return("http://minio/url", nil)

	_, err := uc.Upload(ctx, uuid.New().String(), "clip.mp4", "video/mp4", body, 0)

	assert.NoError(t, err)
	mediaRepo.AssertExpectations(t)
}
