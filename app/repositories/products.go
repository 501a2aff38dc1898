package repositories

import (
	"context"
	"fmt"
	gohttp "net/http"

	"github.com/shashiranjanraj/storeadmin/app/models"
)

// GetProduct fetches one product.
func (c *RemoteClient) GetProduct(ctx context.Context, id int64) (models.Product, error) {
	var out models.Product
	path := fmt.Sprintf("/products/%d", id)
	if err := c.call(ctx, gohttp.MethodGet, path, "products", nil, &out); err != nil {
		return models.Product{}, err
	}
	return out, nil
}

// CreateProduct adds a product and returns the stored record.
func (c *RemoteClient) CreateProduct(ctx context.Context, in models.NewProduct) (models.Product, error) {
	var out models.Product
	if err := c.call(ctx, gohttp.MethodPost, "/products/add", "products", in, &out); err != nil {
		return models.Product{}, err
	}
	if out.ID == 0 {
		return models.Product{}, &RemoteError{
			Status:  gohttp.StatusOK,
			Method:  gohttp.MethodPost,
			Path:    "/products/add",
			Message: "response carried no product id",
		}
	}
	return out, nil
}

// UpdateProduct sends the set fields of patch.
func (c *RemoteClient) UpdateProduct(ctx context.Context, id int64, patch models.ProductPatch) (models.Product, error) {
	var out models.Product
	path := fmt.Sprintf("/products/%d", id)
	if err := c.call(ctx, gohttp.MethodPut, path, "products", patch, &out); err != nil {
		return models.Product{}, err
	}
	return out, nil
}

// DeleteProduct removes a product.
func (c *RemoteClient) DeleteProduct(ctx context.Context, id int64) error {
	path := fmt.Sprintf("/products/%d", id)
	return c.call(ctx, gohttp.MethodDelete, path, "products", nil, nil)
}
