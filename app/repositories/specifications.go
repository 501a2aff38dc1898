package repositories

import (
	"context"
	"fmt"
	gohttp "net/http"

	"github.com/shashiranjanraj/storeadmin/app/models"
)

// SpecificationValues returns the values already recorded for a product.
// Records identify their definition by name only.
func (c *RemoteClient) SpecificationValues(ctx context.Context, productID int64) ([]models.SpecificationValue, error) {
	var out []models.SpecificationValue
	path := fmt.Sprintf("/p_specification/values/%d", productID)
	if err := c.call(ctx, gohttp.MethodGet, path, "p_specification", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateSpecificationValue records a new value for a product.
func (c *RemoteClient) CreateSpecificationValue(ctx context.Context, in models.NewSpecificationValue) (models.SpecificationValue, error) {
	var out models.SpecificationValue
	if err := c.call(ctx, gohttp.MethodPost, "/p_specification", "p_specification", in, &out); err != nil {
		return models.SpecificationValue{}, err
	}
	return out, nil
}

// UpdateSpecificationValue overwrites the value of an existing record.
func (c *RemoteClient) UpdateSpecificationValue(ctx context.Context, valueID int64, in models.SpecificationValueUpdate) (models.SpecificationValue, error) {
	var out models.SpecificationValue
	path := fmt.Sprintf("/p_specification/%d", valueID)
	if err := c.call(ctx, gohttp.MethodPut, path, "p_specification", in, &out); err != nil {
		return models.SpecificationValue{}, err
	}
	return out, nil
}

// DeleteSpecificationValue removes a product's value for a definition.
// A 404 means the value is already gone and is not an error.
func (c *RemoteClient) DeleteSpecificationValue(ctx context.Context, productID, specificationID int64) error {
	path := fmt.Sprintf("/p_specification/product/%d/%d", productID, specificationID)
	err := c.call(ctx, gohttp.MethodDelete, path, "p_specification", nil, nil)
	if IsNotFound(err) {
		return nil
	}
	return err
}
