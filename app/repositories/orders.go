package repositories

import (
	"context"
	"fmt"
	gohttp "net/http"

	"github.com/shashiranjanraj/storeadmin/app/models"
)

// ListOrders returns every order.
func (c *RemoteClient) ListOrders(ctx context.Context) ([]models.Order, error) {
	var out []models.Order
	if err := c.callBase(ctx, c.ordersURL, gohttp.MethodGet, "/orders", "orders", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SetPaymentStatus changes an order's payment status and returns the
// updated order.
func (c *RemoteClient) SetPaymentStatus(ctx context.Context, orderID int64, status string) (models.Order, error) {
	path := fmt.Sprintf("/orders/%d/payment", orderID)
	return c.patchOrder(ctx, path, map[string]string{"payment_status": status})
}

// SetOrderStatus changes an order's fulfilment status and returns the
// updated order.
func (c *RemoteClient) SetOrderStatus(ctx context.Context, orderID int64, status string) (models.Order, error) {
	path := fmt.Sprintf("/orders/%d/status", orderID)
	return c.patchOrder(ctx, path, map[string]string{"status": status})
}

func (c *RemoteClient) patchOrder(ctx context.Context, path string, body map[string]string) (models.Order, error) {
	var out models.Order
	if err := c.callBase(ctx, c.ordersURL, gohttp.MethodPatch, path, "orders", body, &out); err != nil {
		return models.Order{}, err
	}
	return out, nil
}
