package models

// Product is a catalog product as the backend returns it. JSON names follow
// the backend's wire format (brend_id, num_product, search_string, ...).
type Product struct {
	ID              int64   `json:"id"`
	Name            string  `json:"name"`
	CategoryID      int64   `json:"category_id"`
	BrandID         int64   `json:"brend_id"`
	ModelName       string  `json:"model_name"`
	Price           float64 `json:"price"`
	Discount        int     `json:"discount"`
	StockCount      int     `json:"num_product"`
	SearchKeywords  string  `json:"search_string"`
	IsSuperOffer    bool    `json:"is_super"`
	IsNew           bool    `json:"is_new"`
	IsActive        bool    `json:"is_active"`
	PrimaryImageURL string  `json:"image_link"`
}

// NewProduct is the payload of POST /products/add.
type NewProduct struct {
	Name            string  `json:"name"          validate:"required,max=255"`
	CategoryID      int64   `json:"category_id"   validate:"required,gt=0"`
	BrandID         int64   `json:"brend_id"      validate:"required,gt=0"`
	ModelName       string  `json:"model_name"    validate:"required"`
	Price           float64 `json:"price"         validate:"gte=0"`
	Discount        int     `json:"discount"      validate:"gte=0,lte=100"`
	StockCount      int     `json:"num_product"   validate:"gte=0"`
	SearchKeywords  string  `json:"search_string"`
	IsSuperOffer    bool    `json:"is_super"`
	IsNew           bool    `json:"is_new"`
	PrimaryImageURL string  `json:"image_link"`
	AuthorID        int64   `json:"author_id"`
}

// ProductPatch is a partial product update; nil fields are left untouched
// by PUT /products/{id}.
type ProductPatch struct {
	Name            *string  `json:"name,omitempty"`
	CategoryID      *int64   `json:"category_id,omitempty"`
	BrandID         *int64   `json:"brend_id,omitempty"`
	ModelName       *string  `json:"model_name,omitempty"`
	Price           *float64 `json:"price,omitempty"`
	Discount        *int     `json:"discount,omitempty"`
	StockCount      *int     `json:"num_product,omitempty"`
	SearchKeywords  *string  `json:"search_string,omitempty"`
	IsSuperOffer    *bool    `json:"is_super,omitempty"`
	IsNew           *bool    `json:"is_new,omitempty"`
	IsActive        *bool    `json:"is_active,omitempty"`
	PrimaryImageURL *string  `json:"image_link,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p ProductPatch) Empty() bool {
	return p == ProductPatch{}
}

// Apply returns a copy of prod with every set field of p written over it.
func (p ProductPatch) Apply(prod Product) Product {
	if p.Name != nil {
		prod.Name = *p.Name
	}
	if p.CategoryID != nil {
		prod.CategoryID = *p.CategoryID
	}
	if p.BrandID != nil {
		prod.BrandID = *p.BrandID
	}
	if p.ModelName != nil {
		prod.ModelName = *p.ModelName
	}
	if p.Price != nil {
		prod.Price = *p.Price
	}
	if p.Discount != nil {
		prod.Discount = *p.Discount
	}
	if p.StockCount != nil {
		prod.StockCount = *p.StockCount
	}
	if p.SearchKeywords != nil {
		prod.SearchKeywords = *p.SearchKeywords
	}
	if p.IsSuperOffer != nil {
		prod.IsSuperOffer = *p.IsSuperOffer
	}
	if p.IsNew != nil {
		prod.IsNew = *p.IsNew
	}
	if p.IsActive != nil {
		prod.IsActive = *p.IsActive
	}
	if p.PrimaryImageURL != nil {
		prod.PrimaryImageURL = *p.PrimaryImageURL
	}
	return prod
}

// Merge layers next over p: fields set in next win.
func (p ProductPatch) Merge(next ProductPatch) ProductPatch {
	if next.Name != nil {
		p.Name = next.Name
	}
	if next.CategoryID != nil {
		p.CategoryID = next.CategoryID
	}
	if next.BrandID != nil {
		p.BrandID = next.BrandID
	}
	if next.ModelName != nil {
		p.ModelName = next.ModelName
	}
	if next.Price != nil {
		p.Price = next.Price
	}
	if next.Discount != nil {
		p.Discount = next.Discount
	}
	if next.StockCount != nil {
		p.StockCount = next.StockCount
	}
	if next.SearchKeywords != nil {
		p.SearchKeywords = next.SearchKeywords
	}
	if next.IsSuperOffer != nil {
		p.IsSuperOffer = next.IsSuperOffer
	}
	if next.IsNew != nil {
		p.IsNew = next.IsNew
	}
	if next.IsActive != nil {
		p.IsActive = next.IsActive
	}
	if next.PrimaryImageURL != nil {
		p.PrimaryImageURL = next.PrimaryImageURL
	}
	return p
}
