package controllers

import (
	"net/http"

	"github.com/shashiranjanraj/storeadmin/app/models"
	"github.com/shashiranjanraj/storeadmin/app/services"
	"github.com/shashiranjanraj/storeadmin/pkg/bind"
	"github.com/shashiranjanraj/storeadmin/pkg/response"
)

// OrderController exposes order administration.
type OrderController struct {
	orders *services.OrderService
}

func NewOrderController(orders *services.OrderService) *OrderController {
	return &OrderController{orders: orders}
}

type orderDetail struct {
	models.Order
	Items []models.OrderItemDetail `json:"items"`
}

// Index lists orders; ?q= filters by id or customer name.
func (c *OrderController) Index(w http.ResponseWriter, r *http.Request) {
	orders, err := c.orders.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		fail(w, r, err)
		return
	}
	response.Success(w, orders)
}

// Show returns one order with its item products.
func (c *OrderController) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	o, err := c.orders.Find(r.Context(), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	response.Success(w, orderDetail{Order: o, Items: c.orders.ItemDetails(r.Context(), o)})
}

func (c *OrderController) MarkPaid(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	o, err := c.orders.MarkPaid(r.Context(), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	response.Success(w, o)
}

func (c *OrderController) SetStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var body struct {
		Status string `json:"status"`
	}
	if _, err := bind.JSON(r, &body); err != nil {
		response.BadRequest(w, err.Error())
		return
	}
	o, err := c.orders.SetStatus(r.Context(), id, body.Status)
	if err != nil {
		fail(w, r, err)
		return
	}
	response.Success(w, o)
}
