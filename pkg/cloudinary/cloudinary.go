package cloudinary

import (
	"context"
	"fmt"
	"io"

	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/cloudinary/cloudinary-go/v2/config"
)

// Uploader stores images and returns their public delivery URL.
type Uploader interface {
	UploadImage(ctx context.Context, file io.Reader, folder, publicID string) (string, error)
}

// Logo delivery transformation: auto quality and format, square crop.
const (
	LogoWidth = 256
	logoEager = "q_auto,f_auto,w_256,h_256,c_fill"
)

var eagerAsyncFalse = false

// LogoURL returns the optimized delivery URL for an uploaded logo.
func LogoURL(cloudName, publicID string) string {
	return fmt.Sprintf("https://res.cloudinary.com/%s/image/upload/q_auto,f_auto,w_%d,h_%d,c_fill/%s",
		cloudName, LogoWidth, LogoWidth, publicID)
}

type client struct {
	cloudName string
	uploader  *uploader.API
}

// UploadImage uploads an image, overwriting any earlier upload under the
// same public ID, and returns the optimized URL.
func (c *client) UploadImage(ctx context.Context, file io.Reader, folder, publicID string) (string, error) {
	overwrite := true
	result, err := c.uploader.Upload(ctx, file, uploader.UploadParams{
		Folder:     folder,
		PublicID:   publicID,
		Overwrite:  &overwrite,
		Eager:      logoEager,
		EagerAsync: &eagerAsyncFalse,
	})
	if err != nil {
		return "", err
	}
	if len(result.Eager) > 0 && result.Eager[0].SecureURL != "" {
		return result.Eager[0].SecureURL, nil
	}
	if result.PublicID != "" {
		return LogoURL(c.cloudName, result.PublicID), nil
	}
	return result.SecureURL, nil
}

// NewClientFromParams builds an Uploader from Cloudinary cloud name, API key, and secret.
func NewClientFromParams(cloudName, apiKey, apiSecret string) (Uploader, error) {
	cfg, err := config.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, err
	}
	up, err := uploader.NewWithConfiguration(cfg)
	if err != nil {
		return nil, err
	}
	return &client{
		cloudName: cloudName,
		uploader:  up,
	}, nil
}
