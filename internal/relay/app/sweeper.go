package app

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/dsneed123/another-social-media-app/internal/relay/domain"
	"github.com/dsneed123/another-social-media-app/internal/relay/repository"
	"github.com/dsneed123/another-social-media-app/pkg/logger"

	"go.uber.org/zap"
)

// ObjectRemover is the slice of the object store the sweeper needs. Removing
// an object that is already gone must succeed.
type ObjectRemover interface {
	RemoveObject(ctx context.Context, objectName string) error
}

// ExpirationSweeper walks the stores on a fixed interval and deletes what has
// run out: timed messages past their expiry, orphaned media assets, and
// (when enabled) view-once messages that were viewed but never saved.
//
// Every pass is idempotent. A row that fails keeps its expired state and is
// picked up again on the next cycle, so errors are logged and skipped rather
// than retried inline.
type ExpirationSweeper struct {
	msgRepo      repository.MessageRepository
	mediaRepo    repository.MediaAssetRepo
	store        ObjectRemover
	bucket       string
	interval     time.Duration
	viewOncePass bool
}

// NewExpirationSweeper create ExpirationSweeper
func NewExpirationSweeper(
	msgRepo repository.MessageRepository,
	mediaRepo repository.MediaAssetRepo,
	store ObjectRemover,
	bucket string,
	interval time.Duration,
	viewOncePass bool,
) *ExpirationSweeper {
	if interval <= 0 {
		interval = 60 * time.Second
	}
	return &ExpirationSweeper{
		msgRepo:      msgRepo,
		mediaRepo:    mediaRepo,
		store:        store,
		bucket:       bucket,
		interval:     interval,
		viewOncePass: viewOncePass,
	}
}

// Run blocks until ctx is cancelled, sweeping once per interval. The first
// sweep happens after one full interval, not at startup.
func (s *ExpirationSweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	logger.Log.Info("expiration sweeper started", zap.Duration("interval", s.interval))
	for {
		select {
		case <-ticker.C:
			s.Sweep(ctx)
		case <-ctx.Done():
			logger.Log.Info("expiration sweeper stopped")
			return
		}
	}
}

// Sweep runs one full cycle. The passes are independent: a failing pass never
// blocks the others.
func (s *ExpirationSweeper) Sweep(ctx context.Context) {
	s.sweepExpiredMessages(ctx)
	s.sweepExpiredMedia(ctx)
	if s.viewOncePass {
		s.sweepViewedViewOnce(ctx)
	}
}

func (s *ExpirationSweeper) sweepExpiredMessages(ctx context.Context) {
	expired, err := s.msgRepo.FindExpired(ctx)
	if err != nil {
		logger.Log.Error("failed to list expired messages", zap.Error(err))
		return
	}
	s.deleteMessages(ctx, expired, "expired")
}

// sweepViewedViewOnce catches view-once messages whose inline deletion on
// mark_viewed failed. Saved messages are excluded in the query itself.
func (s *ExpirationSweeper) sweepViewedViewOnce(ctx context.Context) {
	viewed, err := s.msgRepo.FindViewedViewOnce(ctx)
	if err != nil {
		logger.Log.Error("failed to list viewed view-once messages", zap.Error(err))
		return
	}
	s.deleteMessages(ctx, viewed, "view-once")
}

// deleteMessages purges the backing media first, then soft-deletes the row.
// That order keeps a failed media delete visible: the row stays expired and
// the next cycle retries the object.
func (s *ExpirationSweeper) deleteMessages(ctx context.Context, messages []domain.ExpiredMessage, reason string) {
	for _, msg := range messages {
		if msg.MediaURL != nil {
			key := objectKeyFromURL(*msg.MediaURL, s.bucket)
			if key != "" {
				if err := s.store.RemoveObject(ctx, key); err != nil {
					logger.Log.Error("failed to remove media object",
						zap.String("messageID", msg.ID),
						zap.String("objectKey", key),
						zap.Error(err),
					)
					continue
				}
			}
		}

		if err := s.msgRepo.SoftDelete(ctx, msg.ID); err != nil {
			logger.Log.Error("failed to delete message",
				zap.String("messageID", msg.ID),
				zap.String("reason", reason),
				zap.Error(err),
			)
			continue
		}
		logger.Log.Info("message deleted by sweeper",
			zap.String("messageID", msg.ID),
			zap.String("reason", reason),
		)
	}
}

// sweepExpiredMedia removes assets whose own expiry passed, for example
// uploads that never became a message. Object first, metadata row second.
func (s *ExpirationSweeper) sweepExpiredMedia(ctx context.Context) {
	assets, err := s.mediaRepo.FindExpired(time.Now().UTC())
	if err != nil {
		logger.Log.Error("failed to list expired media assets", zap.Error(err))
		return
	}

	for _, asset := range assets {
		if err := s.store.RemoveObject(ctx, asset.ObjectKey); err != nil {
			logger.Log.Error("failed to remove expired asset object",
				zap.String("objectKey", asset.ObjectKey),
				zap.Error(err),
			)
			continue
		}
		if asset.ThumbnailKey != nil {
			if err := s.store.RemoveObject(ctx, *asset.ThumbnailKey); err != nil {
				logger.Log.Error("failed to remove asset thumbnail",
					zap.String("objectKey", *asset.ThumbnailKey),
					zap.Error(err),
				)
				continue
			}
		}
		if err := s.mediaRepo.Delete(asset.ID); err != nil {
			logger.Log.Error("failed to delete asset row",
				zap.String("objectKey", asset.ObjectKey),
				zap.Error(err),
			)
		}
	}
}

// objectKeyFromURL extracts the store key from a media URL. Accepts a bare
// key, a "/bucket/key" path, or a full URL with or without query string.
func objectKeyFromURL(mediaURL, bucket string) string {
	raw := mediaURL
	if u, err := url.Parse(mediaURL); err == nil && u.Path != "" {
		raw = u.Path
	}
	raw = strings.TrimPrefix(raw, "/")
	raw = strings.TrimPrefix(raw, bucket+"/")
	return raw
}
