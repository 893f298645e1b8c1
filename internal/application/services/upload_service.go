package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/bekkerfineart/gallery/internal/domain/entities"
	"github.com/bekkerfineart/gallery/internal/infrastructure/logger"
	"github.com/bekkerfineart/gallery/internal/infrastructure/metrics"
	"github.com/bekkerfineart/gallery/internal/ports"
)

// Storage backends reported by the upload endpoint
const (
	StorageCloudinary     = "cloudinary"
	StorageLocalBase64    = "local-base64"
	StorageFallbackBase64 = "fallback-base64"
)

// FallbackLimit is the largest file inlined as a data URL when the CDN fails
const FallbackLimit = 1024 * 1024

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/webp": true,
}

// UploadService stores artwork images on the CDN, or inline when the CDN is unavailable
type UploadService struct {
	uploader ports.ImageUploader
	maxSize  int64
	logger   *logger.Logger
}

// NewUploadService creates a new upload service. uploader may be nil when the CDN is
// not configured.
func NewUploadService(uploader ports.ImageUploader, maxSize int64, logger *logger.Logger) *UploadService {
	return &UploadService{
		uploader: uploader,
		maxSize:  maxSize,
		logger:   logger,
	}
}

// Upload validates and stores the image
func (s *UploadService) Upload(ctx context.Context, file ports.UploadFile) (*ports.UploadResponse, error) {
	contentType := strings.ToLower(strings.TrimSpace(file.ContentType))
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = strings.TrimSpace(contentType[:i])
	}
	if !allowedImageTypes[contentType] {
		return nil, entities.ErrUnsupportedFileType
	}
	if file.Size > s.maxSize {
		return nil, entities.ErrFileTooLarge
	}

	// the declared size is not trusted
	data, err := io.ReadAll(io.LimitReader(file.Body, s.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > s.maxSize {
		return nil, entities.ErrFileTooLarge
	}

	if s.uploader == nil {
		s.logger.Warnw("Image CDN not configured, storing upload inline", "filename", file.Filename)
		return s.inline(file.Filename, contentType, data, StorageLocalBase64), nil
	}

	url, err := s.uploader.Upload(ctx, file.Filename, bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, entities.ErrUploadUnavailable) && len(data) < FallbackLimit {
			s.logger.Warnw("Image CDN failed, storing small upload inline",
				"filename", file.Filename,
				"error", err.Error(),
			)
			return s.inline(file.Filename, contentType, data, StorageFallbackBase64), nil
		}
		return nil, fmt.Errorf("upload failed: %w", err)
	}

	metrics.Uploads.WithLabelValues(StorageCloudinary).Inc()
	return &ports.UploadResponse{
		Success:  true,
		URL:      url,
		Filename: file.Filename,
		Storage:  StorageCloudinary,
	}, nil
}

func (s *UploadService) inline(filename, contentType string, data []byte, storage string) *ports.UploadResponse {
	metrics.Uploads.WithLabelValues(storage).Inc()
	return &ports.UploadResponse{
		Success:  true,
		URL:      "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data),
		Filename: filename,
		Storage:  storage,
	}
}
