package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/smetapro/contractor-backend/internal/dto"
	"github.com/smetapro/contractor-backend/internal/models"
	"github.com/smetapro/contractor-backend/internal/service"
)

type EstimateHandler struct {
	estimates *service.EstimateService
}

func NewEstimateHandler(estimates *service.EstimateService) *EstimateHandler {
	return &EstimateHandler{estimates: estimates}
}

// Create POST /api/estimates
func (h *EstimateHandler) Create(c *gin.Context) {
	contractorID, err := currentContractorID(c)
	if err != nil {
		respondUnauthorized(c, err.Error())
		return
	}

	var req dto.CreateEstimateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	estimate, err := h.estimates.Create(c.Request.Context(), contractorID, req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, estimate)
}

// Get GET /api/estimates/:id
func (h *EstimateHandler) Get(c *gin.Context) {
	contractorID, err := currentContractorID(c)
	if err != nil {
		respondUnauthorized(c, err.Error())
		return
	}

	estimate, err := h.estimates.Get(c.Request.Context(), contractorID, pathUUID(c, "id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, estimate)
}

// List GET /api/estimates
func (h *EstimateHandler) List(c *gin.Context) {
	contractorID, err := currentContractorID(c)
	if err != nil {
		respondUnauthorized(c, err.Error())
		return
	}

	limit := parseIntQuery(c, "limit", 20)
	offset := parseIntQuery(c, "offset", 0)

	estimates, err := h.estimates.List(c.Request.Context(), contractorID, c.Query("status"), limit, offset)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.ListResponse[models.Estimate]{Items: estimates, Limit: limit, Offset: offset})
}

// Update PUT /api/estimates/:id
func (h *EstimateHandler) Update(c *gin.Context) {
	contractorID, err := currentContractorID(c)
	if err != nil {
		respondUnauthorized(c, err.Error())
		return
	}

	var req dto.UpdateEstimateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	estimate, err := h.estimates.Update(c.Request.Context(), contractorID, pathUUID(c, "id"), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, estimate)
}

// Delete DELETE /api/estimates/:id
func (h *EstimateHandler) Delete(c *gin.Context) {
	contractorID, err := currentContractorID(c)
	if err != nil {
		respondUnauthorized(c, err.Error())
		return
	}

	if err := h.estimates.Delete(c.Request.Context(), contractorID, pathUUID(c, "id")); err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Send POST /api/estimates/:id/send
func (h *EstimateHandler) Send(c *gin.Context) {
	contractorID, err := currentContractorID(c)
	if err != nil {
		respondUnauthorized(c, err.Error())
		return
	}

	estimate, err := h.estimates.Send(c.Request.Context(), contractorID, pathUUID(c, "id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, estimate)
}

// Accept POST /api/estimates/:id/accept
func (h *EstimateHandler) Accept(c *gin.Context) {
	contractorID, err := currentContractorID(c)
	if err != nil {
		respondUnauthorized(c, err.Error())
		return
	}

	estimate, err := h.estimates.Accept(c.Request.Context(), contractorID, pathUUID(c, "id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, estimate)
}

// Reject POST /api/estimates/:id/reject
func (h *EstimateHandler) Reject(c *gin.Context) {
	contractorID, err := currentContractorID(c)
	if err != nil {
		respondUnauthorized(c, err.Error())
		return
	}

	var req dto.RejectEstimateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	estimate, err := h.estimates.Reject(c.Request.Context(), contractorID, pathUUID(c, "id"), req.Reason)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, estimate)
}

// Convert POST /api/estimates/:id/convert
func (h *EstimateHandler) Convert(c *gin.Context) {
	contractorID, err := currentContractorID(c)
	if err != nil {
		respondUnauthorized(c, err.Error())
		return
	}

	result, err := h.estimates.Convert(c.Request.Context(), contractorID, pathUUID(c, "id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, result)
}
