package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	gohttp "net/http"
	"strings"

	"github.com/shashiranjanraj/storeadmin/app/models"
)

// UploadFile stores r in the remote file store and returns its public URL.
// The backend answers with a bare JSON string; a plain-text URL is accepted
// too.
func (c *RemoteClient) UploadFile(ctx context.Context, filename string, r io.Reader) (string, error) {
	const path = "/files"
	req := c.request(ctx, gohttp.MethodPost, c.baseURL, path, "files").File("file", filename, r)

	resp, err := c.sendRaw(req, gohttp.MethodPost, path)
	if err != nil {
		return "", err
	}

	var url string
	if json.Unmarshal(resp.Raw, &url) != nil {
		url = strings.TrimSpace(resp.Text())
	}
	if url == "" {
		return "", &RemoteError{
			Status:  resp.StatusCode,
			Method:  gohttp.MethodPost,
			Path:    path,
			Message: "upload returned no url",
		}
	}
	return url, nil
}

// ListImages returns the gallery attachments of a product.
func (c *RemoteClient) ListImages(ctx context.Context, productID int64) ([]models.ImageAttachment, error) {
	var out []models.ImageAttachment
	path := fmt.Sprintf("/images/product/%d", productID)
	if err := c.call(ctx, gohttp.MethodGet, path, "images", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AddImage records a gallery attachment.
func (c *RemoteClient) AddImage(ctx context.Context, in models.NewImageAttachment) (models.ImageAttachment, error) {
	var out models.ImageAttachment
	if err := c.call(ctx, gohttp.MethodPost, "/images/add", "images", in, &out); err != nil {
		return models.ImageAttachment{}, err
	}
	if out.ImageURL == "" {
		out.ImageURL = in.ImageURL
	}
	if out.ProductID == 0 {
		out.ProductID = in.ProductID
	}
	return out, nil
}

// DeleteImage removes one gallery attachment. A 404 means it is already
// gone and is not an error.
func (c *RemoteClient) DeleteImage(ctx context.Context, imageID int64) error {
	path := fmt.Sprintf("/images/%d", imageID)
	body := map[string]int64{"image_id": imageID}
	err := c.call(ctx, gohttp.MethodDelete, path, "images", body, nil)
	if IsNotFound(err) {
		return nil
	}
	return err
}
