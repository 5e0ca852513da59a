package handler

import (
	"net/http"

	tradeapp "github.com/crm/backend/internal/application/trade"
	"github.com/gin-gonic/gin"
)

// OrderHandler handles order-related API endpoints
type OrderHandler struct {
	BaseHandler
	orderService *tradeapp.OrderService
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orderService *tradeapp.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// List godoc
// @ID           listOrders
// @Summary      List orders
// @Description  Lists orders newest first. Paginated only when page_size is set.
// @Tags         orders
// @Produce      json
// @Param        customerId  query  string  false  "Owning customer ID"
// @Param        status      query  string  false  "Order status" Enums(Pending, Completed, Cancelled)
// @Param        campaignId  query  string  false  "Attributed campaign ID"
// @Param        from        query  string  false  "Earliest order date (RFC 3339 or YYYY-MM-DD)"
// @Param        to          query  string  false  "Latest order date (RFC 3339 or YYYY-MM-DD)"
// @Param        page        query  int     false  "Page number"
// @Param        page_size   query  int     false  "Page size (max 100)"
// @Success      200 {object} dto.Response{data=[]tradeapp.OrderResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /api/orders/ [get]
func (h *OrderHandler) List(c *gin.Context) {
	var filter tradeapp.OrderListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}

	orders, total, err := h.orderService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if filter.PageSize > 0 {
		h.SuccessWithMeta(c, orders, total, filter.Page, filter.PageSize)
		return
	}
	h.Success(c, orders)
}

// Create godoc
// @ID           createOrder
// @Summary      Create an order
// @Description  Creates an order for an existing customer. The total is computed from the items and added to the customer's spending.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        request  body  tradeapp.CreateOrderRequest  true  "Order creation request"
// @Success      201 {object} dto.Response{data=tradeapp.OrderResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /api/orders/createOrder [post]
func (h *OrderHandler) Create(c *gin.Context) {
	var req tradeapp.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	order, err := h.orderService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMessage(c, http.StatusCreated, order, "Order created successfully")
}

// GetByID godoc
// @ID           getOrder
// @Summary      Get an order
// @Description  Returns the order with its customer summary
// @Tags         orders
// @Produce      json
// @Param        id  path  string  true  "Order ID"
// @Success      200 {object} dto.Response{data=tradeapp.OrderResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /api/orders/{id} [get]
func (h *OrderHandler) GetByID(c *gin.Context) {
	id, ok := h.parseID(c, "order")
	if !ok {
		return
	}

	order, err := h.orderService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, order)
}

// Update godoc
// @ID           updateOrder
// @Summary      Update an order
// @Description  Replaces the items and applies the total delta to the customer's spending. Omitted status and comments are kept.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id  path  string  true  "Order ID"
// @Param        request  body  tradeapp.UpdateOrderRequest  true  "Order update request"
// @Success      200 {object} dto.Response{data=tradeapp.OrderResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /api/orders/updateOrder/{id} [put]
func (h *OrderHandler) Update(c *gin.Context) {
	id, ok := h.parseID(c, "order")
	if !ok {
		return
	}

	var req tradeapp.UpdateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	order, err := h.orderService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMessage(c, http.StatusOK, order, "Order updated successfully")
}

// Delete godoc
// @ID           deleteOrder
// @Summary      Delete an order
// @Description  Deletes the order and subtracts its total from the customer's spending
// @Tags         orders
// @Produce      json
// @Param        id  path  string  true  "Order ID"
// @Success      200 {object} dto.Response
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /api/orders/{id} [delete]
func (h *OrderHandler) Delete(c *gin.Context) {
	id, ok := h.parseID(c, "order")
	if !ok {
		return
	}

	if err := h.orderService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.Message(c, "Order deleted successfully")
}
