package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/smetapro/contractor-backend/internal/dto"
	"github.com/smetapro/contractor-backend/internal/models"
	"github.com/smetapro/contractor-backend/internal/service"
)

type ProjectHandler struct {
	projects *service.ProjectService
}

func NewProjectHandler(projects *service.ProjectService) *ProjectHandler {
	return &ProjectHandler{projects: projects}
}

// Get GET /api/projects/:id
func (h *ProjectHandler) Get(c *gin.Context) {
	contractorID, err := currentContractorID(c)
	if err != nil {
		respondUnauthorized(c, err.Error())
		return
	}

	project, err := h.projects.Get(c.Request.Context(), contractorID, pathUUID(c, "id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, project)
}

// List GET /api/projects
func (h *ProjectHandler) List(c *gin.Context) {
	contractorID, err := currentContractorID(c)
	if err != nil {
		respondUnauthorized(c, err.Error())
		return
	}

	limit := parseIntQuery(c, "limit", 20)
	offset := parseIntQuery(c, "offset", 0)

	projects, err := h.projects.List(c.Request.Context(), contractorID, c.Query("status"), limit, offset)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.ListResponse[models.Project]{Items: projects, Limit: limit, Offset: offset})
}
