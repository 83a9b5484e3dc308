package api

import (
	"net/http"
	"strings"

	"alcyxob/gym-admin/internal/domain"
	"alcyxob/gym-admin/internal/service"

	"github.com/gin-gonic/gin"
)

// TemplateHandler serves routine and nutrition plan templates.
type TemplateHandler struct {
	templateService service.TemplateService
}

// NewTemplateHandler creates a new TemplateHandler.
func NewTemplateHandler(templateService service.TemplateService) *TemplateHandler {
	return &TemplateHandler{templateService: templateService}
}

// CreateTemplate godoc
// @Summary Create a routine or nutrition template
// @Tags Templates
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param template body service.TemplateInput true "Template details"
// @Success 201 {object} domain.Template
// @Failure 400 {object} gin.H "Validation failed"
// @Router /templates [post]
func (h *TemplateHandler) CreateTemplate(c *gin.Context) {
	trainerID, ok := mustTrainerID(c)
	if !ok {
		return
	}
	var req service.TemplateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	template, err := h.templateService.Create(c.Request.Context(), trainerID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, template)
}

// ListTemplates godoc
// @Summary List the trainer's templates
// @Tags Templates
// @Produce json
// @Security BearerAuth
// @Param kind query string false "routine or nutrition"
// @Success 200 {array} domain.Template
// @Router /templates [get]
func (h *TemplateHandler) ListTemplates(c *gin.Context) {
	trainerID, ok := mustTrainerID(c)
	if !ok {
		return
	}
	kind, ok := kindQuery(c)
	if !ok {
		return
	}

	templates, err := h.templateService.List(c.Request.Context(), trainerID, kind)
	if err != nil {
		respondError(c, err)
		return
	}
	if templates == nil {
		templates = []domain.Template{}
	}
	c.JSON(http.StatusOK, templates)
}

func (h *TemplateHandler) GetTemplate(c *gin.Context) {
	trainerID, ok := mustTrainerID(c)
	if !ok {
		return
	}
	id, ok := pathObjectID(c, "templateId")
	if !ok {
		return
	}

	template, err := h.templateService.Get(c.Request.Context(), trainerID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, template)
}

func (h *TemplateHandler) UpdateTemplate(c *gin.Context) {
	trainerID, ok := mustTrainerID(c)
	if !ok {
		return
	}
	id, ok := pathObjectID(c, "templateId")
	if !ok {
		return
	}
	var req service.TemplateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	template, err := h.templateService.Update(c.Request.Context(), trainerID, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, template)
}

// DeleteTemplate godoc
// @Summary Delete a template
// @Tags Templates
// @Produce json
// @Security BearerAuth
// @Param templateId path string true "Template's ObjectID Hex"
// @Success 200 {object} WarningsResponse
// @Failure 409 {object} gin.H "Template still assigned"
// @Router /templates/{templateId} [delete]
func (h *TemplateHandler) DeleteTemplate(c *gin.Context) {
	trainerID, ok := mustTrainerID(c)
	if !ok {
		return
	}
	id, ok := pathObjectID(c, "templateId")
	if !ok {
		return
	}

	result, err := h.templateService.Delete(c.Request.Context(), trainerID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, WarningsResponse{Warnings: warningsOf(result.Warning)})
}

// UploadItemImage godoc
// @Summary Upload the reference image of a routine exercise
// @Tags Templates
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param templateId path string true "Template's ObjectID Hex"
// @Param itemId path string true "Item id"
// @Param file formData file true "Image (jpeg or png)"
// @Success 200 {object} domain.Template
// @Router /templates/{templateId}/items/{itemId}/image [put]
func (h *TemplateHandler) UploadItemImage(c *gin.Context) {
	trainerID, ok := mustTrainerID(c)
	if !ok {
		return
	}
	id, ok := pathObjectID(c, "templateId")
	if !ok {
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		respondError(c, service.ValidationErrors{"file": "is required"})
		return
	}
	file, err := header.Open()
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Unreadable file.")
		return
	}
	defer file.Close()

	template, err := h.templateService.UploadItemImage(c.Request.Context(), trainerID, id, c.Param("itemId"), file)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, template)
}

// kindQuery reads the optional kind filter, aborting on unknown values.
func kindQuery(c *gin.Context) (domain.TemplateKind, bool) {
	kind := domain.TemplateKind(strings.ToLower(strings.TrimSpace(c.Query("kind"))))
	if kind != "" && !kind.IsValid() {
		respondError(c, service.ValidationErrors{"kind": "must be routine or nutrition"})
		return "", false
	}
	return kind, true
}
