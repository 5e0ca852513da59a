package handler

import (
	"net/http"

	partnerapp "github.com/crm/backend/internal/application/partner"
	"github.com/gin-gonic/gin"
)

// CustomerHandler handles customer-related API endpoints
type CustomerHandler struct {
	BaseHandler
	customerService *partnerapp.CustomerService
}

// NewCustomerHandler creates a new CustomerHandler
func NewCustomerHandler(customerService *partnerapp.CustomerService) *CustomerHandler {
	return &CustomerHandler{customerService: customerService}
}

// List godoc
// @ID           listCustomers
// @Summary      List customers
// @Description  Lists customers with their orders summarized. Paginated only when page_size is set; order_by without order_dir sorts ascending.
// @Tags         customers
// @Produce      json
// @Param        search     query  string  false  "Name, email or phone substring"
// @Param        page       query  int     false  "Page number"
// @Param        page_size  query  int     false  "Page size (max 100)"
// @Param        order_by   query  string  false  "Sort column" Enums(name, email, total_spending, visits, created_at)
// @Param        order_dir  query  string  false  "Sort direction" Enums(asc, desc)
// @Success      200 {object} dto.Response{data=[]partnerapp.CustomerListResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /api/customers/ [get]
func (h *CustomerHandler) List(c *gin.Context) {
	var filter partnerapp.CustomerListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}

	customers, total, err := h.customerService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if filter.PageSize > 0 {
		h.SuccessWithMeta(c, customers, total, filter.Page, filter.PageSize)
		return
	}
	h.Success(c, customers)
}

// Create godoc
// @ID           createCustomer
// @Summary      Create a customer
// @Description  Creates a customer with zero spending and no orders
// @Tags         customers
// @Accept       json
// @Produce      json
// @Param        request  body  partnerapp.CreateCustomerRequest  true  "Customer creation request"
// @Success      201 {object} dto.Response{data=partnerapp.CustomerResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /api/customers/addCustomer [post]
func (h *CustomerHandler) Create(c *gin.Context) {
	var req partnerapp.CreateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	customer, err := h.customerService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMessage(c, http.StatusCreated, customer, "Customer created successfully")
}

// GetByID godoc
// @ID           getCustomer
// @Summary      Get a customer
// @Description  Returns the customer with its full orders
// @Tags         customers
// @Produce      json
// @Param        id           path   string  true  "Customer ID"
// @Success      200 {object} dto.Response{data=partnerapp.CustomerResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /api/customers/{id} [get]
func (h *CustomerHandler) GetByID(c *gin.Context) {
	id, ok := h.parseID(c, "customer")
	if !ok {
		return
	}

	customer, err := h.customerService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, customer)
}

// Update godoc
// @ID           updateCustomer
// @Summary      Update a customer
// @Description  Replaces the customer profile; spending and orders are not client-writable
// @Tags         customers
// @Accept       json
// @Produce      json
// @Param        id           path   string  true  "Customer ID"
// @Param        request  body  partnerapp.UpdateCustomerRequest  true  "Customer update request"
// @Success      200 {object} dto.Response{data=partnerapp.CustomerResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /api/customers/updateCustomer/{id} [put]
func (h *CustomerHandler) Update(c *gin.Context) {
	id, ok := h.parseID(c, "customer")
	if !ok {
		return
	}

	var req partnerapp.UpdateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	customer, err := h.customerService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMessage(c, http.StatusOK, customer, "Customer updated successfully")
}

// Delete godoc
// @ID           deleteCustomer
// @Summary      Delete a customer
// @Description  Deletes the customer and every order it owns
// @Tags         customers
// @Produce      json
// @Param        id           path   string  true  "Customer ID"
// @Success      200 {object} dto.Response
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /api/customers/{id} [delete]
func (h *CustomerHandler) Delete(c *gin.Context) {
	id, ok := h.parseID(c, "customer")
	if !ok {
		return
	}

	if err := h.customerService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.Message(c, "Customer deleted successfully")
}

// RecordVisit godoc
// @ID           recordCustomerVisit
// @Summary      Record a visit
// @Description  Increments visits and sets the last visit date
// @Tags         customers
// @Produce      json
// @Param        id           path   string  true  "Customer ID"
// @Success      200 {object} dto.Response{data=partnerapp.CustomerResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /api/customers/{id}/visits [post]
func (h *CustomerHandler) RecordVisit(c *gin.Context) {
	id, ok := h.parseID(c, "customer")
	if !ok {
		return
	}

	customer, err := h.customerService.RecordVisit(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, customer)
}

// Reconcile godoc
// @ID           reconcileCustomer
// @Summary      Reconcile a customer
// @Description  Recomputes the customer's order list and total spending from the stored orders
// @Tags         customers
// @Produce      json
// @Param        id           path   string  true  "Customer ID"
// @Success      200 {object} dto.Response{data=partnerapp.ReconcileResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /api/customers/{id}/reconcile [post]
func (h *CustomerHandler) Reconcile(c *gin.Context) {
	id, ok := h.parseID(c, "customer")
	if !ok {
		return
	}

	result, err := h.customerService.Reconcile(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// PreviewSegment godoc
// @ID           previewSegment
// @Summary      Preview a segment
// @Description  Evaluates segment rules against every customer
// @Tags         segments
// @Accept       json
// @Produce      json
// @Param        request  body  partnerapp.SegmentPreviewRequest  true  "Segment rules"
// @Success      200 {object} dto.Response{data=partnerapp.SegmentPreviewResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /api/segments/preview [post]
func (h *CustomerHandler) PreviewSegment(c *gin.Context) {
	var req partnerapp.SegmentPreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	preview, err := h.customerService.PreviewSegment(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, preview)
}
