package repositories

import (
	"context"
	"fmt"
	gohttp "net/http"

	"github.com/shashiranjanraj/storeadmin/app/models"
)

// ListCategories returns every category.
func (c *RemoteClient) ListCategories(ctx context.Context) ([]models.Category, error) {
	var out []models.Category
	if err := c.call(ctx, gohttp.MethodGet, "/categories", "categories", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CategorySchema returns the specification definitions of a category in
// backend order.
func (c *RemoteClient) CategorySchema(ctx context.Context, categoryID int64) ([]models.SpecificationDefinition, error) {
	var out []models.SpecificationDefinition
	path := fmt.Sprintf("/categories/values/%d", categoryID)
	if err := c.call(ctx, gohttp.MethodGet, path, "categories", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AddChildCategory creates a category under in.ParentCategoryID.
func (c *RemoteClient) AddChildCategory(ctx context.Context, in models.NewCategory) (models.Category, error) {
	var out models.Category
	if err := c.call(ctx, gohttp.MethodPost, "/categories/child/add", "categories", in, &out); err != nil {
		return models.Category{}, err
	}
	if out.Name == "" {
		out.Name = in.Name
	}
	if out.ParentCategoryID == nil {
		parent := in.ParentCategoryID
		out.ParentCategoryID = &parent
	}
	return out, nil
}

// AddSpecificationDefinition creates a specification definition for a
// category.
func (c *RemoteClient) AddSpecificationDefinition(ctx context.Context, in models.NewSpecificationDefinition) (models.SpecificationDefinition, error) {
	var out models.SpecificationDefinition
	if err := c.call(ctx, gohttp.MethodPost, "/specifications/add", "specifications", in, &out); err != nil {
		return models.SpecificationDefinition{}, err
	}
	if out.Name == "" {
		out.Name = in.Name
	}
	out.CategoryID = in.CategoryID
	return out, nil
}

// ListBrands returns every brand.
func (c *RemoteClient) ListBrands(ctx context.Context) ([]models.Brand, error) {
	var out []models.Brand
	if err := c.call(ctx, gohttp.MethodGet, "/brands", "brands", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AddBrand creates a brand.
func (c *RemoteClient) AddBrand(ctx context.Context, in models.NewBrand) (models.Brand, error) {
	var out models.Brand
	if err := c.call(ctx, gohttp.MethodPost, "/brands/add", "brands", in, &out); err != nil {
		return models.Brand{}, err
	}
	if out.Name == "" {
		out.Name = in.Name
	}
	return out, nil
}
