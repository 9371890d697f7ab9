package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"pdf-delivery-service/internal/models"
	"pdf-delivery-service/internal/services"
)

// WebhookHandler receives Shopify webhook deliveries.
type WebhookHandler struct {
	orderEmails *services.OrderEmailService
	logger      *logrus.Logger
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(orderEmails *services.OrderEmailService, logger *logrus.Logger) *WebhookHandler {
	if logger == nil {
		logger = logrus.New()
	}
	return &WebhookHandler{orderEmails: orderEmails, logger: logger}
}

// OrderCreated handles POST /api/webhooks/orders/create. The shop comes from
// the X-Shopify-Shop-Domain header, or ?shop= when a caller replays a
// delivery manually.
func (h *WebhookHandler) OrderCreated(c *gin.Context) {
	rawShop := c.GetHeader("X-Shopify-Shop-Domain")
	if rawShop == "" {
		rawShop = c.Query("shop")
	}
	if rawShop == "" {
		c.JSON(http.StatusBadRequest, models.OrderWebhookResponse{
			Success: false,
			Message: "Missing shop",
		})
		return
	}
	shop := models.NormalizeShopDomain(rawShop)

	var payload models.WebhookOrder
	if err := c.ShouldBindJSON(&payload); err != nil {
		h.logger.WithError(err).Warn("Failed to parse order webhook payload")
		c.JSON(http.StatusBadRequest, models.OrderWebhookResponse{
			Success: false,
			Message: "Invalid payload",
		})
		return
	}

	response, err := h.orderEmails.Process(c.Request.Context(), shop, &payload)
	if err != nil {
		h.logger.WithError(err).WithField("shop", shop).Error("Order webhook failed")
		c.JSON(http.StatusInternalServerError, models.OrderWebhookResponse{
			Success: false,
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, response)
}

// AppUninstalled handles POST /api/webhooks/app/uninstalled. Registration
// keeps the subscription alive so the app notices removals; nothing is
// deleted here beyond logging.
func (h *WebhookHandler) AppUninstalled(c *gin.Context) {
	shop := models.NormalizeShopDomain(c.GetHeader("X-Shopify-Shop-Domain"))
	h.logger.WithField("shop", shop).Info("App uninstalled")
	c.JSON(http.StatusOK, gin.H{"success": true})
}
