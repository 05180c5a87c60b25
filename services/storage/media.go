package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/admin"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// voiceFolder holds the generated voice replies. Twilio fetches them by
// their delivery URL, so uploads must be publicly readable.
const voiceFolder = "voice-replies"

// MediaService stores generated audio where the messaging channel can
// fetch it, and cleans up aged files.
type MediaService interface {
	UploadAudio(ctx context.Context, data []byte, userID string) (string, error)
	Delete(ctx context.Context, publicID string) error
	CleanupOlderThan(ctx context.Context, age time.Duration) (int, error)
}

// CloudinaryMedia implements MediaService on Cloudinary. Audio is stored
// under Cloudinary's video resource type.
type CloudinaryMedia struct {
	cld *cloudinary.Cloudinary
	now func() time.Time
}

func NewCloudinaryMedia(cloudName, apiKey, apiSecret string) (*CloudinaryMedia, error) {
	if cloudName == "" || apiKey == "" || apiSecret == "" {
		return nil, fmt.Errorf("cloudinary credentials not set in configuration")
	}
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("initializing cloudinary: %w", err)
	}
	return &CloudinaryMedia{cld: cld, now: time.Now}, nil
}

// UploadAudio stores one voice reply and returns its delivery URL.
func (s *CloudinaryMedia) UploadAudio(ctx context.Context, data []byte, userID string) (string, error) {
	publicID := audioPublicID(userID, s.now().UTC())

	result, err := s.cld.Upload.Upload(ctx, bytes.NewReader(data), uploader.UploadParams{
		PublicID:     publicID,
		Folder:       voiceFolder,
		ResourceType: "video",
	})
	if err != nil {
		return "", fmt.Errorf("uploading audio for %s: %w", userID, err)
	}
	if result.SecureURL == "" {
		return "", fmt.Errorf("uploading audio for %s: no URL returned", userID)
	}

	zap.L().Info("uploaded voice reply",
		zap.String("publicId", result.PublicID),
		zap.Int("bytes", len(data)))
	return result.SecureURL, nil
}

func (s *CloudinaryMedia) Delete(ctx context.Context, publicID string) error {
	_, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     publicID,
		ResourceType: "video",
	})
	if err != nil {
		return fmt.Errorf("deleting media %s: %w", publicID, err)
	}
	return nil
}

// CleanupOlderThan removes voice replies older than the given age and
// returns how many were deleted. Individual delete failures are logged and
// skipped so one bad asset does not stall the sweep.
func (s *CloudinaryMedia) CleanupOlderThan(ctx context.Context, age time.Duration) (int, error) {
	cutoff := s.now().UTC().Add(-age)
	deleted := 0
	cursor := ""

	for {
		res, err := s.cld.Admin.Assets(ctx, admin.AssetsParams{
			AssetType:  api.Video,
			Prefix:     voiceFolder,
			MaxResults: 500,
			NextCursor: cursor,
		})
		if err != nil {
			return deleted, fmt.Errorf("listing voice replies: %w", err)
		}

		for _, asset := range res.Assets {
			if !asset.CreatedAt.Before(cutoff) {
				continue
			}
			if err := s.Delete(ctx, asset.PublicID); err != nil {
				zap.L().Warn("failed to delete aged voice reply",
					zap.String("publicId", asset.PublicID),
					zap.Error(err))
				continue
			}
			deleted++
		}

		cursor = res.NextCursor
		if cursor == "" {
			break
		}
	}

	zap.L().Info("voice reply cleanup completed",
		zap.Int("deleted", deleted),
		zap.Time("cutoff", cutoff))
	return deleted, nil
}

// audioPublicID builds a collision-safe identifier from the sender and the
// upload time. The sender part keeps only characters safe for a path.
func audioPublicID(userID string, now time.Time) string {
	return fmt.Sprintf("%s_%s_%s",
		sanitizeUserID(userID),
		now.Format("20060102_150405"),
		uuid.NewString()[:8])
}

func sanitizeUserID(userID string) string {
	userID = strings.TrimPrefix(userID, "whatsapp:")
	var b strings.Builder
	for _, r := range userID {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		}
		if b.Len() >= 20 {
			break
		}
	}
	return b.String()
}
