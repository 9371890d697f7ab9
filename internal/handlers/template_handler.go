package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"pdf-delivery-service/internal/models"
	"pdf-delivery-service/internal/repository"
	"pdf-delivery-service/internal/services"
)

// TemplateHandler serves the admin email-template endpoints.
type TemplateHandler struct {
	templates *services.TemplateService
	logger    *logrus.Logger
}

// NewTemplateHandler creates a new template handler
func NewTemplateHandler(templates *services.TemplateService, logger *logrus.Logger) *TemplateHandler {
	if logger == nil {
		logger = logrus.New()
	}
	return &TemplateHandler{templates: templates, logger: logger}
}

// List handles GET /api/templates?shop=
func (h *TemplateHandler) List(c *gin.Context) {
	shop := c.Query("shop")
	if shop == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "shop is required"})
		return
	}

	templates, err := h.templates.List(c.Request.Context(), models.NormalizeShopDomain(shop))
	if err != nil {
		h.logger.WithError(err).Error("Failed to list templates")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"templates": templates})
}

// Save handles POST /api/templates, creating or replacing the template for
// (shop, language).
func (h *TemplateHandler) Save(c *gin.Context) {
	req, ok := h.bindTemplateRequest(c)
	if !ok {
		return
	}

	template := &models.EmailTemplate{
		ID:       uuid.New(),
		Shop:     models.NormalizeShopDomain(req.Shop),
		Language: req.Language,
		Subject:  req.Subject,
		Body:     req.Template,
	}
	if err := h.templates.Save(c.Request.Context(), template); err != nil {
		h.logger.WithError(err).Error("Failed to save template")
		c.JSON(http.StatusInternalServerError, gin.H{"status": false, "message": "Server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  true,
		"message": "Template saved successfully",
		"data":    template,
	})
}

// Create handles POST /api/templates/create; unlike Save it refuses to
// overwrite an existing (shop, language) template.
func (h *TemplateHandler) Create(c *gin.Context) {
	req, ok := h.bindTemplateRequest(c)
	if !ok {
		return
	}

	template := &models.EmailTemplate{
		ID:       uuid.New(),
		Shop:     models.NormalizeShopDomain(req.Shop),
		Language: req.Language,
		Subject:  req.Subject,
		Body:     req.Template,
	}
	if err := h.templates.Create(c.Request.Context(), template); err != nil {
		if errors.Is(err, repository.ErrTemplateExists) {
			c.JSON(http.StatusConflict, gin.H{"status": false, "message": "Template already exists for this language"})
			return
		}
		h.logger.WithError(err).Error("Failed to create template")
		c.JSON(http.StatusInternalServerError, gin.H{"status": false, "message": "Server error"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"status":  true,
		"message": "Template created successfully",
		"data":    template,
	})
}

// Get handles GET /api/templates/one?shop=&language=
func (h *TemplateHandler) Get(c *gin.Context) {
	shop, language, ok := requireShopAndLanguage(c)
	if !ok {
		return
	}

	template, err := h.templates.Get(c.Request.Context(), shop, language)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get template")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}
	if template == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Template not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"template": template})
}

// Upsert handles PUT /api/templates/one?shop=&language=
func (h *TemplateHandler) Upsert(c *gin.Context) {
	shop, language, ok := requireShopAndLanguage(c)
	if !ok {
		return
	}

	var body struct {
		Subject  string `json:"subject"`
		Template string `json:"template"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid body"})
		return
	}

	template := &models.EmailTemplate{
		ID:       uuid.New(),
		Shop:     shop,
		Language: language,
		Subject:  body.Subject,
		Body:     body.Template,
	}
	if err := h.templates.Save(c.Request.Context(), template); err != nil {
		h.logger.WithError(err).Error("Failed to upsert template")
		c.JSON(http.StatusInternalServerError, gin.H{"status": false, "message": "Server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  true,
		"message": "Template saved successfully",
		"data":    template,
	})
}

// Delete handles DELETE /api/templates/one?shop=&language=
func (h *TemplateHandler) Delete(c *gin.Context) {
	shop, language, ok := requireShopAndLanguage(c)
	if !ok {
		return
	}

	if err := h.templates.Delete(c.Request.Context(), shop, language); err != nil {
		h.logger.WithError(err).Error("Failed to delete template")
		c.JSON(http.StatusInternalServerError, gin.H{"status": false, "message": "Server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": true, "message": "Template deleted successfully"})
}

func (h *TemplateHandler) bindTemplateRequest(c *gin.Context) (*models.SaveTemplateRequest, bool) {
	var req models.SaveTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid body"})
		return nil, false
	}
	if req.Shop == "" || req.Language == "" || req.Subject == "" || req.Template == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "shop, language, subject, template are required"})
		return nil, false
	}
	return &req, true
}

func requireShopAndLanguage(c *gin.Context) (shop, language string, ok bool) {
	shop = c.Query("shop")
	language = c.Query("language")
	if shop == "" || language == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "shop and language are required"})
		return "", "", false
	}
	return models.NormalizeShopDomain(shop), language, true
}
