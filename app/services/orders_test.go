package services_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/storeadmin/app/models"
	"github.com/shashiranjanraj/storeadmin/app/services"
	"github.com/shashiranjanraj/storeadmin/pkg/testkit"
)

var sampleOrders = []models.Order{
	{ID: 101, Name: "Ann", Surname: "Lee", Status: models.OrderPending,
		OrderItems: []models.OrderItem{{ProductID: 42, Quantity: 1, PriceAtPurchase: 199}, {ProductID: 77, Quantity: 2, PriceAtPurchase: 15}}},
	{ID: 202, Name: "Bob", Surname: "Stone", Status: models.OrderShipped},
}

func TestFilterOrders(t *testing.T) {
	assert.Len(t, services.FilterOrders(sampleOrders, ""), 2)
	assert.Len(t, services.FilterOrders(sampleOrders, "ann lee"), 1)
	assert.Len(t, services.FilterOrders(sampleOrders, "STONE"), 1)
	assert.Len(t, services.FilterOrders(sampleOrders, "20"), 1)
	assert.Empty(t, services.FilterOrders(sampleOrders, "zed"))
}

func TestFind(t *testing.T) {
	s := newStack(t)
	s.api.SetOrders(sampleOrders...)

	o, err := s.orders.Find(context.Background(), 202)
	require.NoError(t, err)
	assert.Equal(t, "Bob Stone", o.CustomerName())

	_, err = s.orders.Find(context.Background(), 999)
	assert.True(t, errors.Is(err, services.ErrOrderNotFound))
}

func TestItemDetails_UnknownProductFallback(t *testing.T) {
	s := newStack(t)
	s.api.AddProduct(models.Product{ID: 42, Name: "Phone", Price: 249})

	details := s.orders.ItemDetails(context.Background(), sampleOrders[0])
	require.Len(t, details, 2)

	assert.True(t, details[0].Found)
	assert.Equal(t, "Phone", details[0].Product.Name)

	assert.False(t, details[1].Found)
	assert.Equal(t, services.UnknownProductName, details[1].Product.Name)
	assert.Equal(t, 15.0, details[1].Product.Price)
}

func TestSetStatus(t *testing.T) {
	ctx := context.Background()
	s := newStack(t)
	s.api.SetOrders(sampleOrders...)

	_, err := s.orders.SetStatus(ctx, 101, "lost")
	var ve *services.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Empty(t, s.api.Calls())

	o, err := s.orders.SetStatus(ctx, 101, "Delivered")
	require.NoError(t, err)
	assert.Equal(t, models.OrderDelivered, o.Status)
	testkit.AssertJSONBody(t, `{"status":"delivered"}`, testkit.Only(t, s.api.CallsTo(http.MethodPatch, "/orders/101/status")))
}

func TestMarkPaid(t *testing.T) {
	s := newStack(t)
	s.api.SetOrders(sampleOrders...)

	o, err := s.orders.MarkPaid(context.Background(), 202)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, o.PaymentStatus)
	testkit.AssertJSONBody(t, `{"payment_status":"paid"}`, testkit.Only(t, s.api.CallsTo(http.MethodPatch, "/orders/202/payment")))
}
