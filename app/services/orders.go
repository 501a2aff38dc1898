package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/shashiranjanraj/storeadmin/app/models"
	"github.com/shashiranjanraj/storeadmin/pkg/logger"
	"github.com/shashiranjanraj/storeadmin/pkg/validate"
)

// ErrOrderNotFound is returned when no order has the requested id.
var ErrOrderNotFound = errors.New("order not found")

// UnknownProductName stands in for products whose lookup failed.
const UnknownProductName = "Unknown Product"

// OrderAPI is the part of the remote client the order service uses.
type OrderAPI interface {
	ListOrders(ctx context.Context) ([]models.Order, error)
	SetPaymentStatus(ctx context.Context, orderID int64, status string) (models.Order, error)
	SetOrderStatus(ctx context.Context, orderID int64, status string) (models.Order, error)
	GetProduct(ctx context.Context, id int64) (models.Product, error)
}

// OrderService runs the order administration operations.
type OrderService struct {
	api OrderAPI
}

// NewOrderService creates an OrderService.
func NewOrderService(api OrderAPI) *OrderService {
	return &OrderService{api: api}
}

// List returns every order.
func (s *OrderService) List(ctx context.Context) ([]models.Order, error) {
	return s.api.ListOrders(ctx)
}

// Search returns the orders whose id or "name surname" contains query,
// case-insensitively. An empty query matches everything.
func (s *OrderService) Search(ctx context.Context, query string) ([]models.Order, error) {
	orders, err := s.api.ListOrders(ctx)
	if err != nil {
		return nil, err
	}
	return FilterOrders(orders, query), nil
}

// FilterOrders applies the Search match to an in-memory list.
func FilterOrders(orders []models.Order, query string) []models.Order {
	term := strings.ToLower(strings.TrimSpace(query))
	out := make([]models.Order, 0, len(orders))
	for _, o := range orders {
		if term == "" ||
			strings.Contains(strconv.FormatInt(o.ID, 10), term) ||
			strings.Contains(strings.ToLower(o.Name+" "+o.Surname), term) {
			out = append(out, o)
		}
	}
	return out
}

// Find returns the order with id.
func (s *OrderService) Find(ctx context.Context, id int64) (models.Order, error) {
	orders, err := s.api.ListOrders(ctx)
	if err != nil {
		return models.Order{}, err
	}
	for _, o := range orders {
		if o.ID == id {
			return o, nil
		}
	}
	return models.Order{}, fmt.Errorf("order %d: %w", id, ErrOrderNotFound)
}

// ItemDetails fetches the product of every order line concurrently. A
// failed lookup degrades to an "Unknown Product" priced at purchase price.
func (s *OrderService) ItemDetails(ctx context.Context, order models.Order) []models.OrderItemDetail {
	out := make([]models.OrderItemDetail, len(order.OrderItems))
	var wg sync.WaitGroup
	for i, item := range order.OrderItems {
		wg.Add(1)
		go func(i int, item models.OrderItem) {
			defer wg.Done()
			d := models.OrderItemDetail{OrderItem: item}
			p, err := s.api.GetProduct(ctx, item.ProductID)
			if err != nil {
				logger.WithCtx(ctx).Warn("order item product lookup failed",
					"order_id", order.ID, "product_id", item.ProductID, "error", err)
				p = models.Product{ID: item.ProductID, Name: UnknownProductName, Price: item.PriceAtPurchase}
			} else {
				d.Found = true
			}
			d.Product = p
			out[i] = d
		}(i, item)
	}
	wg.Wait()
	return out
}

// MarkPaid sets the order's payment status to paid.
func (s *OrderService) MarkPaid(ctx context.Context, id int64) (models.Order, error) {
	o, err := s.api.SetPaymentStatus(ctx, id, models.PaymentPaid)
	if err != nil {
		return models.Order{}, fmt.Errorf("mark order %d paid: %w", id, err)
	}
	logger.Audit(ctx, "order.paid", "order_id", id)
	return o, nil
}

// SetStatus moves the order to one of models.OrderStatuses.
func (s *OrderService) SetStatus(ctx context.Context, id int64, status string) (models.Order, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	rule := "required,in=" + strings.Join(models.OrderStatuses, ",")
	if errs := validate.Value("status", status, rule); validate.HasErrors(errs) {
		return models.Order{}, &ValidationError{Fields: errs}
	}

	o, err := s.api.SetOrderStatus(ctx, id, status)
	if err != nil {
		return models.Order{}, fmt.Errorf("set order %d status: %w", id, err)
	}
	logger.Audit(ctx, "order.status_changed", "order_id", id, "status", status)
	return o, nil
}
