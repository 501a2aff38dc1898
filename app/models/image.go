package models

// ImageAttachment is one gallery image of a product. The primary image is
// not an attachment; it lives on Product.PrimaryImageURL.
type ImageAttachment struct {
	ID        int64  `json:"id"`
	ImageURL  string `json:"image_link"`
	ProductID int64  `json:"product_id"`
}

// NewImageAttachment is the payload of POST /images/add.
type NewImageAttachment struct {
	ImageURL  string `json:"image_link"`
	ProductID int64  `json:"product_id"`
}

// ImageSlot names where an uploaded file ends up.
type ImageSlot string

const (
	SlotPrimary ImageSlot = "primary"
	SlotGallery ImageSlot = "gallery"
)

// Valid reports whether s is a known slot.
func (s ImageSlot) Valid() bool {
	return s == SlotPrimary || s == SlotGallery
}
