// Package cloudinary stores course thumbnails.
package cloudinary

import (
	"context"
	"fmt"
	"io"

	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/cloudinary/cloudinary-go/v2/config"
)

// Client is what the course service needs from the media store.
type Client interface {
	UploadImage(ctx context.Context, file io.Reader, folder, publicID string) (*UploadResult, error)
	Destroy(ctx context.Context, publicID string) error
}

type UploadResult struct {
	URL          string
	ThumbnailURL string
	PublicID     string
}

const (
	CardWidth  = 640
	thumbEager = "q_auto,f_auto,w_640,h_360,c_fill"
)

var eagerAsyncFalse = false

// BuildThumbnailURL returns a delivery URL for an already uploaded public id.
func BuildThumbnailURL(cloudName, publicID string, width int) string {
	if width <= 0 {
		width = CardWidth
	}
	return fmt.Sprintf("https://res.cloudinary.com/%s/image/upload/q_auto,f_auto,w_%d,c_fill/%s",
		cloudName, width, publicID)
}

type clientImpl struct {
	cloudName string
	uploader  *uploader.API
}

// UploadImage uploads with an eager 16:9 card rendition so the catalog never waits on a resize.
func (c *clientImpl) UploadImage(ctx context.Context, file io.Reader, folder, publicID string) (*UploadResult, error) {
	result, err := c.uploader.Upload(ctx, file, uploader.UploadParams{
		Folder:     folder,
		PublicID:   publicID,
		Eager:      thumbEager,
		EagerAsync: &eagerAsyncFalse,
	})
	if err != nil {
		return nil, err
	}
	if result.Error.Message != "" {
		return nil, fmt.Errorf("cloudinary: %s", result.Error.Message)
	}
	out := &UploadResult{URL: result.SecureURL, PublicID: result.PublicID}
	if len(result.Eager) > 0 {
		out.ThumbnailURL = result.Eager[0].SecureURL
	}
	if out.ThumbnailURL == "" {
		out.ThumbnailURL = BuildThumbnailURL(c.cloudName, result.PublicID, CardWidth)
	}
	return out, nil
}

func (c *clientImpl) Destroy(ctx context.Context, publicID string) error {
	_, err := c.uploader.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
	return err
}

// NewClientFromParams builds a Client from Cloudinary cloud name, API key, and secret.
func NewClientFromParams(cloudName, apiKey, apiSecret string) (Client, error) {
	cfg, err := config.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, err
	}
	up, err := uploader.NewWithConfiguration(cfg)
	if err != nil {
		return nil, err
	}
	return &clientImpl{cloudName: cloudName, uploader: up}, nil
}
