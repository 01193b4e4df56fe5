package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dsneed123/another-social-media-app/internal/relay/domain"
	"github.com/dsneed123/another-social-media-app/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newSweeperFixture(viewOncePass bool) (*ExpirationSweeper, *MockMessageRepository, *MockMediaAssetRepo, *MockObjectStore) {
	logger.SetNewNop()
	msgRepo := new(MockMessageRepository)
	mediaRepo := new(MockMediaAssetRepo)
	store := new(MockObjectStore)
	sweeper := NewExpirationSweeper(msgRepo, mediaRepo, store, "relay-media", time.Minute, viewOncePass)
	return sweeper, msgRepo, mediaRepo, store
}

func strptr(s string) *string { return &s }

func TestSweeper_ExpiredMessageWithMedia(t *testing.T) {
	ctx := context.Background()
	sweeper, msgRepo, mediaRepo, store := newSweeperFixture(false)

	msgID := uuid.New().String()
	mediaURL := "http://minio:9000/relay-media/media/abc.jpg?X-Amz-Signature=sig"

	msgRepo.On("FindExpired", ctx).Return([]domain.ExpiredMessage{
		{ID: msgID, MediaURL: &mediaURL},
	}, nil)
	store.On("RemoveObject", ctx, "media/abc.jpg").Return(nil)
	msgRepo.On("SoftDelete", ctx, msgID).Return(nil)
	mediaRepo.On("FindExpired", mock.Anything).Return(nil, nil)

	sweeper.Sweep(ctx)

	msgRepo.AssertExpectations(t)
	store.AssertExpectations(t)
}

func TestSweeper_MediaDeleteFailureKeepsRow(t *testing.T) {
	ctx := context.Background()
	sweeper, msgRepo, mediaRepo, store := newSweeperFixture(false)

	msgID := uuid.New().String()
	mediaURL := "media/broken.mp4"

	msgRepo.On("FindExpired", ctx).Return([]domain.ExpiredMessage{
		{ID: msgID, MediaURL: &mediaURL},
	}, nil)
	store.On("RemoveObject", ctx, "media/broken.mp4").Return(errors.New("store down"))
	mediaRepo.On("FindExpired", mock.Anything).Return(nil, nil)

	sweeper.Sweep(ctx)

	// The row stays expired so the next cycle retries the object delete.
	msgRepo.AssertNotCalled(t, "SoftDelete", ctx, msgID)
}

func TestSweeper_OneFailureDoesNotBlockOthers(t *testing.T) {
	ctx := context.Background()
	sweeper, msgRepo, mediaRepo, store := newSweeperFixture(false)

	badID := uuid.New().String()
	goodID := uuid.New().String()
	badURL := "media/bad.jpg"

	msgRepo.On("FindExpired", ctx).Return([]domain.ExpiredMessage{
		{ID: badID, MediaURL: &badURL},
		{ID: goodID},
	}, nil)
	store.On("RemoveObject", ctx, "media/bad.jpg").Return(errors.New("store down"))
	msgRepo.On("SoftDelete", ctx, goodID).Return(nil)
	mediaRepo.On("FindExpired", mock.Anything).Return(nil, nil)

	sweeper.Sweep(ctx)

	msgRepo.AssertCalled(t, "SoftDelete", ctx, goodID)
	msgRepo.AssertNotCalled(t, "SoftDelete", ctx, badID)
}

func TestSweeper_ViewOncePassOptional(t *testing.T) {
	ctx := context.Background()

	sweeper, msgRepo, mediaRepo, _ := newSweeperFixture(false)
	msgRepo.On("FindExpired", ctx).Return(nil, nil)
	mediaRepo.On("FindExpired", mock.Anything).Return(nil, nil)

	sweeper.Sweep(ctx)
	msgRepo.AssertNotCalled(t, "FindViewedViewOnce", ctx)

	sweeper, msgRepo, mediaRepo, _ = newSweeperFixture(true)
	msgRepo.On("FindExpired", ctx).Return(nil, nil)
	msgRepo.On("FindViewedViewOnce", ctx).Return(nil, nil)
	mediaRepo.On("FindExpired", mock.Anything).Return(nil, nil)

	sweeper.Sweep(ctx)
	msgRepo.AssertCalled(t, "FindViewedViewOnce", ctx)
}

func TestSweeper_ExpiredMediaAssets(t *testing.T) {
	ctx := context.Background()
	sweeper, msgRepo, mediaRepo, store := newSweeperFixture(false)

	msgRepo.On("FindExpired", ctx).Return(nil, nil)
	mediaRepo.On("FindExpired", mock.Anything).Return([]domain.MediaAsset{
		{ID: 7, ObjectKey: "media/orphan.jpg", ThumbnailKey: strptr("media/orphan_thumb.jpg")},
	}, nil)
	store.On("RemoveObject", ctx, "media/orphan.jpg").Return(nil)
	store.On("RemoveObject", ctx, "media/orphan_thumb.jpg").Return(nil)
	mediaRepo.On("Delete", uint(7)).Return(nil)

	sweeper.Sweep(ctx)

	mediaRepo.AssertExpectations(t)
	store.AssertExpectations(t)
}

func TestObjectKeyFromURL(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"media/abc.jpg", "media/abc.jpg"},
		{"/relay-media/media/abc.jpg", "media/abc.jpg"},
		{"http://minio:9000/relay-media/media/abc.jpg", "media/abc.jpg"},
		{"https://cdn.example.com/relay-media/media/abc.jpg?X-Amz-Expires=3600", "media/abc.jpg"},
	}

	for _, c := range cases {
		assert.Equal(t, c.want, objectKeyFromURL(c.in, "relay-media"), c.in)
	}
}
