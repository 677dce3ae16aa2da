package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/smetapro/contractor-backend/internal/dto"
	"github.com/smetapro/contractor-backend/internal/service"
)

type PaymentHandler struct {
	payments *service.PaymentService
}

func NewPaymentHandler(payments *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// Record POST /api/invoices/:id/payments
func (h *PaymentHandler) Record(c *gin.Context) {
	contractorID, err := currentContractorID(c)
	if err != nil {
		respondUnauthorized(c, err.Error())
		return
	}

	var req dto.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	result, err := h.payments.RecordPayment(c.Request.Context(), contractorID, pathUUID(c, "id"), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// List GET /api/invoices/:id/payments
func (h *PaymentHandler) List(c *gin.Context) {
	contractorID, err := currentContractorID(c)
	if err != nil {
		respondUnauthorized(c, err.Error())
		return
	}

	payments, err := h.payments.ListPayments(c.Request.Context(), contractorID, pathUUID(c, "id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"payments": payments})
}

// Reverse POST /api/invoices/:id/payments/:paymentId/reverse
func (h *PaymentHandler) Reverse(c *gin.Context) {
	contractorID, err := currentContractorID(c)
	if err != nil {
		respondUnauthorized(c, err.Error())
		return
	}

	var req dto.ReversePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	result, err := h.payments.ReversePayment(c.Request.Context(), contractorID,
		pathUUID(c, "id"), pathUUID(c, "paymentId"), req.Reason)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Recalculate POST /api/invoices/:id/recalculate
func (h *PaymentHandler) Recalculate(c *gin.Context) {
	contractorID, err := currentContractorID(c)
	if err != nil {
		respondUnauthorized(c, err.Error())
		return
	}

	result, err := h.payments.Recalculate(c.Request.Context(), contractorID, pathUUID(c, "id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, result)
}
