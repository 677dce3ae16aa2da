package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/smetapro/contractor-backend/internal/dto"
	"github.com/smetapro/contractor-backend/internal/models"
	"github.com/smetapro/contractor-backend/internal/service"
)

type InvoiceHandler struct {
	invoices *service.InvoiceService
}

func NewInvoiceHandler(invoices *service.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoices: invoices}
}

// Create POST /api/invoices
func (h *InvoiceHandler) Create(c *gin.Context) {
	contractorID, err := currentContractorID(c)
	if err != nil {
		respondUnauthorized(c, err.Error())
		return
	}

	var req dto.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	invoice, err := h.invoices.Create(c.Request.Context(), contractorID, req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, invoice)
}

// Get GET /api/invoices/:id
func (h *InvoiceHandler) Get(c *gin.Context) {
	contractorID, err := currentContractorID(c)
	if err != nil {
		respondUnauthorized(c, err.Error())
		return
	}

	invoice, err := h.invoices.Get(c.Request.Context(), contractorID, pathUUID(c, "id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, invoice)
}

// List GET /api/invoices
func (h *InvoiceHandler) List(c *gin.Context) {
	contractorID, err := currentContractorID(c)
	if err != nil {
		respondUnauthorized(c, err.Error())
		return
	}

	limit := parseIntQuery(c, "limit", 20)
	offset := parseIntQuery(c, "offset", 0)

	invoices, err := h.invoices.List(c.Request.Context(), contractorID, c.Query("status"), limit, offset)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.ListResponse[models.Invoice]{Items: invoices, Limit: limit, Offset: offset})
}

// Cancel POST /api/invoices/:id/cancel
func (h *InvoiceHandler) Cancel(c *gin.Context) {
	contractorID, err := currentContractorID(c)
	if err != nil {
		respondUnauthorized(c, err.Error())
		return
	}

	// Тело запроса опционально: отмена допустима без примечаний.
	var req dto.CancelInvoiceRequest
	_ = c.ShouldBindJSON(&req)

	invoice, err := h.invoices.Cancel(c.Request.Context(), contractorID, pathUUID(c, "id"), req.Notes)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, invoice)
}

// Delete DELETE /api/invoices/:id
func (h *InvoiceHandler) Delete(c *gin.Context) {
	contractorID, err := currentContractorID(c)
	if err != nil {
		respondUnauthorized(c, err.Error())
		return
	}

	if err := h.invoices.Delete(c.Request.Context(), contractorID, pathUUID(c, "id")); err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}
