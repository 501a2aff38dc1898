package models

import "time"

// Order statuses the dashboard can set.
const (
	OrderPending    = "pending"
	OrderProcessing = "processing"
	OrderShipped    = "shipped"
	OrderDelivered  = "delivered"
	OrderCanceled   = "canceled"

	PaymentPaid = "paid"
)

// OrderStatuses lists the settable statuses in workflow order.
var OrderStatuses = []string{OrderPending, OrderProcessing, OrderShipped, OrderDelivered, OrderCanceled}

// Order is a customer order.
type Order struct {
	ID            int64       `json:"id"`
	Name          string      `json:"name"`
	Surname       string      `json:"surname"`
	PhoneNumber   string      `json:"phone_number"`
	Status        string      `json:"status"`
	PaymentStatus string      `json:"payment_status"`
	PaymentMethod string      `json:"payment_method"`
	TotalPrice    float64     `json:"total_price"`
	CreatedAt     time.Time   `json:"created_at"`
	OrderItems    []OrderItem `json:"order_items"`
}

// CustomerName is "Name Surname".
func (o Order) CustomerName() string {
	if o.Surname == "" {
		return o.Name
	}
	return o.Name + " " + o.Surname
}

// OrderItem is one line of an order.
type OrderItem struct {
	ID              int64   `json:"id"`
	ProductID       int64   `json:"product_id"`
	Quantity        int     `json:"quantity"`
	PriceAtPurchase float64 `json:"price_at_purchase"`
}

// OrderItemDetail pairs an order line with the product it refers to.
// Product.Name is "Unknown Product" when the lookup failed.
type OrderItemDetail struct {
	OrderItem
	Product Product `json:"product"`
	Found   bool    `json:"found"`
}
