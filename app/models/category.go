package models

// Category is a product category. Child categories carry their parent id.
type Category struct {
	ID               int64  `json:"id"`
	Name             string `json:"name"`
	ParentCategoryID *int64 `json:"parent_category_id,omitempty"`
	IsActive         bool   `json:"is_active"`
}

// NewCategory is the payload of POST /categories/child/add.
type NewCategory struct {
	Name             string `json:"name"               validate:"required,max=100"`
	IsActive         bool   `json:"is_active"`
	NumCategory      int    `json:"num_category"`
	ParentCategoryID int64  `json:"parent_category_id" validate:"required,gt=0"`
}

// Brand is a product brand.
type Brand struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// NewBrand is the payload of POST /brands/add.
type NewBrand struct {
	Name string `json:"name" validate:"required,max=100"`
}
