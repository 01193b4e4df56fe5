package app

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/dsneed123/another-social-media-app/internal/relay/domain"
	"github.com/dsneed123/another-social-media-app/internal/relay/repository"
	errprocess "github.com/dsneed123/another-social-media-app/pkg/err"

	"github.com/google/uuid"
)

// presignExpiry bounds how long a returned media URL stays fetchable.
const presignExpiry = 24 * time.Hour

// ObjectStore is the object-storage surface the upload path needs.
type ObjectStore interface {
	UploadObject(ctx context.Context, objectName, contentType string, reader io.Reader) error
	PresignGetURL(ctx context.Context, objectName string, expiry time.Duration) (string, error)
}

// MediaUseCase stores uploaded media bytes and their metadata rows. The
// returned URL is what clients put into a message's media_url.
type MediaUseCase struct {
	mediaRepo repository.MediaAssetRepo
	store     ObjectStore
}

// NewMediaUseCase create MediaUseCase
func NewMediaUseCase(mediaRepo repository.MediaAssetRepo, store ObjectStore) *MediaUseCase {
	return &MediaUseCase{mediaRepo: mediaRepo, store: store}
}

// UploadResult is the response payload of one upload.
type UploadResult struct {
	ObjectKey string `json:"object_key"`
	MediaURL  string `json:"media_url"`
}

// Upload stores the file and records its asset row. expiresInSeconds, when
// set, marks the asset for the sweeper in case it is never attached to a
// message; a zero value keeps the asset until its message expires.
func (uc *MediaUseCase) Upload(
	ctx context.Context,
	ownerID, filename, contentType string,
	reader io.Reader,
	expiresInSeconds int64,
) (*UploadResult, error) {
	if !strings.HasPrefix(contentType, "image/") && !strings.HasPrefix(contentType, "video/") {
		return nil, errprocess.Set("unsupported media content type")
	}

	objectKey := fmt.Sprintf("media/%s%s", uuid.NewString(), path.Ext(filename))
	if err := uc.store.UploadObject(ctx, objectKey, contentType, reader); err != nil {
		return nil, err
	}

	var expiresAt *time.Time
	if expiresInSeconds > 0 {
		t := time.Now().UTC().Add(time.Duration(expiresInSeconds) * time.Second)
		expiresAt = &t
	}

	asset := &domain.MediaAsset{
		OwnerID:     ownerID,
		ObjectKey:   objectKey,
		ContentType: contentType,
		ExpiresAt:   expiresAt,
	}
	if err := uc.mediaRepo.Create(asset); err != nil {
		return nil, err
	}

	mediaURL, err := uc.store.PresignGetURL(ctx, objectKey, presignExpiry)
	if err != nil {
		return nil, err
	}
	return &UploadResult{ObjectKey: objectKey, MediaURL: mediaURL}, nil
}
