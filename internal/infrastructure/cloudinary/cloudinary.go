// Package cloudinary uploads artwork images to the Cloudinary CDN.
package cloudinary

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/bekkerfineart/gallery/internal/domain/entities"
	"github.com/bekkerfineart/gallery/internal/infrastructure/breaker"
	"github.com/bekkerfineart/gallery/internal/infrastructure/config"
	"github.com/bekkerfineart/gallery/internal/infrastructure/logger"
)

// Transformation applied on upload
const Transformation = "q_auto:good,f_auto"

// uploadAPI is the part of the Cloudinary SDK the uploader needs
type uploadAPI interface {
	Upload(ctx context.Context, file interface{}, params uploader.UploadParams) (*uploader.UploadResult, error)
}

// Uploader implements ports.ImageUploader on Cloudinary
type Uploader struct {
	api     uploadAPI
	folder  string
	timeout time.Duration
	cb      *gobreaker.CircuitBreaker[string]
	logger  *logger.Logger
	now     func() time.Time
}

// New creates an uploader from the configured credentials
func New(cfg config.CloudinaryConfig, log *logger.Logger) (*Uploader, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("cloudinary credentials are not configured")
	}
	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to create cloudinary client: %w", err)
	}
	return newUploader(&cld.Upload, cfg, log), nil
}

func newUploader(api uploadAPI, cfg config.CloudinaryConfig, log *logger.Logger) *Uploader {
	log = log.WithComponent("cloudinary")
	return &Uploader{
		api:     api,
		folder:  cfg.Folder,
		timeout: cfg.Timeout,
		cb:      breaker.New[string](breaker.Defaults("cloudinary"), log),
		logger:  log,
		now:     time.Now,
	}
}

// PublicID names an upload artwork-<unix millis>-<file name without extension>
func PublicID(filename string, now time.Time) string {
	base := filepath.Base(filename)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return fmt.Sprintf("artwork-%d-%s", now.UnixMilli(), name)
}

// Upload sends the image and returns its secure URL. Failures, including an open
// breaker, wrap entities.ErrUploadUnavailable.
func (u *Uploader) Upload(ctx context.Context, filename string, body io.Reader) (string, error) {
	if u.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, u.timeout)
		defer cancel()
	}

	params := uploader.UploadParams{
		Folder:         u.folder,
		PublicID:       PublicID(filename, u.now()),
		ResourceType:   "image",
		Transformation: Transformation,
	}

	url, err := u.cb.Execute(func() (string, error) {
		res, err := u.api.Upload(ctx, body, params)
		if err != nil {
			return "", err
		}
		if res.Error.Message != "" {
			return "", errors.New(res.Error.Message)
		}
		if res.SecureURL == "" {
			return "", errors.New("empty secure url in response")
		}
		return res.SecureURL, nil
	})
	if err != nil {
		u.logger.Warnw("Cloudinary upload failed", "filename", filename, "error", err.Error())
		return "", fmt.Errorf("%w: cloudinary: %v", entities.ErrUploadUnavailable, err)
	}

	u.logger.Infow("Image uploaded", "public_id", params.PublicID, "url", url)
	return url, nil
}
