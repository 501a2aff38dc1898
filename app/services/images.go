package services

import (
	"context"
	"fmt"
	"io"
	"path"

	"github.com/shashiranjanraj/storeadmin/app/models"
	"github.com/shashiranjanraj/storeadmin/pkg/logger"
	"github.com/shashiranjanraj/storeadmin/pkg/metrics"
	"github.com/shashiranjanraj/storeadmin/pkg/storage"
)

// ImageAPI is the part of the remote client the image manager uses.
type ImageAPI interface {
	UploadFile(ctx context.Context, filename string, r io.Reader) (string, error)
	UpdateProduct(ctx context.Context, id int64, patch models.ProductPatch) (models.Product, error)
	AddImage(ctx context.Context, in models.NewImageAttachment) (models.ImageAttachment, error)
	DeleteImage(ctx context.Context, imageID int64) error
	ListImages(ctx context.Context, productID int64) ([]models.ImageAttachment, error)
}

// File is a binary about to be uploaded.
type File struct {
	Name   string
	Reader io.Reader
}

// Close closes the reader when it is closable.
func (f File) Close() error {
	if c, ok := f.Reader.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// OpenFromDisk opens path on disk as an upload source. The caller closes
// the returned File.
func OpenFromDisk(ctx context.Context, disk storage.Disk, p string) (File, error) {
	rc, err := disk.Open(ctx, p)
	if err != nil {
		return File{}, fmt.Errorf("open %s on %s disk: %w", p, disk.Name(), err)
	}
	return File{Name: path.Base(p), Reader: rc}, nil
}

// Upload stages of an image sequence.
const (
	StageUpload = "upload"
	StageLink   = "link"
)

// UploadError reports which stage of an upload sequence failed. When Stage
// is StageLink the file was stored remotely at URL but nothing references
// it.
type UploadError struct {
	Slot  models.ImageSlot
	Stage string
	File  string
	URL   string
	Err   error
}

func (e *UploadError) Error() string {
	if e.Stage == StageLink {
		return fmt.Sprintf("%s image %q uploaded to %s but not attached: %v", e.Slot, e.File, e.URL, e.Err)
	}
	return fmt.Sprintf("%s image %q upload failed: %v", e.Slot, e.File, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// ImageManager runs upload-then-link sequences for product images.
type ImageManager struct {
	api ImageAPI
}

// NewImageManager creates an ImageManager.
func NewImageManager(api ImageAPI) *ImageManager {
	return &ImageManager{api: api}
}

// Upload stores f remotely and returns its URL without linking it.
func (m *ImageManager) Upload(ctx context.Context, f File) (string, error) {
	return m.api.UploadFile(ctx, f.Name, f.Reader)
}

// SetPrimary uploads f and makes it the product's primary image, replacing
// any previous one. The product is not touched if the upload fails.
func (m *ImageManager) SetPrimary(ctx context.Context, productID int64, f File) (string, error) {
	url, err := m.api.UploadFile(ctx, f.Name, f.Reader)
	if err != nil {
		metrics.RecordImageUpload(string(models.SlotPrimary), "upload_failed")
		return "", &UploadError{Slot: models.SlotPrimary, Stage: StageUpload, File: f.Name, Err: err}
	}

	if _, err := m.api.UpdateProduct(ctx, productID, models.ProductPatch{PrimaryImageURL: &url}); err != nil {
		metrics.RecordImageUpload(string(models.SlotPrimary), "link_failed")
		logger.WithCtx(ctx).Warn("uploaded primary image left unreferenced",
			"product_id", productID, "url", url, "error", err)
		return "", &UploadError{Slot: models.SlotPrimary, Stage: StageLink, File: f.Name, URL: url, Err: err}
	}

	metrics.RecordImageUpload(string(models.SlotPrimary), "ok")
	logger.Audit(ctx, "image.primary_set", "product_id", productID, "url", url)
	return url, nil
}

// AddGallery uploads f and appends it to the product's gallery. No
// attachment is created if the upload fails.
func (m *ImageManager) AddGallery(ctx context.Context, productID int64, f File) (models.ImageAttachment, error) {
	url, err := m.api.UploadFile(ctx, f.Name, f.Reader)
	if err != nil {
		metrics.RecordImageUpload(string(models.SlotGallery), "upload_failed")
		return models.ImageAttachment{}, &UploadError{Slot: models.SlotGallery, Stage: StageUpload, File: f.Name, Err: err}
	}

	img, err := m.api.AddImage(ctx, models.NewImageAttachment{ImageURL: url, ProductID: productID})
	if err != nil {
		metrics.RecordImageUpload(string(models.SlotGallery), "link_failed")
		logger.WithCtx(ctx).Warn("uploaded gallery image left unreferenced",
			"product_id", productID, "url", url, "error", err)
		return models.ImageAttachment{}, &UploadError{Slot: models.SlotGallery, Stage: StageLink, File: f.Name, URL: url, Err: err}
	}

	metrics.RecordImageUpload(string(models.SlotGallery), "ok")
	logger.Audit(ctx, "image.gallery_added", "product_id", productID, "image_id", img.ID, "url", url)
	return img, nil
}

// DeleteGallery removes one gallery attachment. An attachment that is
// already gone counts as deleted.
func (m *ImageManager) DeleteGallery(ctx context.Context, imageID int64) error {
	if err := m.api.DeleteImage(ctx, imageID); err != nil {
		return fmt.Errorf("delete image %d: %w", imageID, err)
	}
	logger.Audit(ctx, "image.gallery_deleted", "image_id", imageID)
	return nil
}

// ListGallery returns the product's gallery attachments.
func (m *ImageManager) ListGallery(ctx context.Context, productID int64) ([]models.ImageAttachment, error) {
	return m.api.ListImages(ctx, productID)
}
