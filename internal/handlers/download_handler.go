package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"pdf-delivery-service/internal/models"
	"pdf-delivery-service/internal/services"
)

// Defaults recorded on tokens minted through the public endpoint, where no
// order context is available.
const (
	adHocOrderID      = "unknown"
	adHocProductTitle = "Product Manual"
	adHocPDFName      = "manual.pdf"
)

// DownloadHandler serves the public token endpoints reached from storefront
// and checkout surfaces. Both are CORS-open.
type DownloadHandler struct {
	tokens *services.TokenService
	logger *logrus.Logger
}

// NewDownloadHandler creates a new download handler
func NewDownloadHandler(tokens *services.TokenService, logger *logrus.Logger) *DownloadHandler {
	if logger == nil {
		logger = logrus.New()
	}
	return &DownloadHandler{tokens: tokens, logger: logger}
}

// Issue handles POST /api/download. Issuance is idempotent per
// (pdfId, orderId); retried calls return the existing token.
func (h *DownloadHandler) Issue(c *gin.Context) {
	var req models.IssueTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.IssueTokenResponse{
			Success: false,
			Message: "Missing required fields",
		})
		return
	}

	if req.VariantID == "" || req.PDFID == "" {
		c.JSON(http.StatusBadRequest, models.IssueTokenResponse{
			Success: false,
			Message: "Missing required fields",
		})
		return
	}

	orderID := req.OrderID
	if orderID == "" {
		orderID = adHocOrderID
	}

	token, err := h.tokens.Issue(c.Request.Context(), req.PDFID, orderID, adHocProductTitle, adHocPDFName, models.CheckoutTokenPolicy())
	if err != nil {
		h.logger.WithError(err).Error("Failed to create download token")
		c.JSON(http.StatusInternalServerError, models.IssueTokenResponse{
			Success: false,
			Message: "Failed to create token",
		})
		return
	}

	c.JSON(http.StatusOK, models.IssueTokenResponse{
		Success: true,
		Token:   token.Token,
	})
}

// Redeem handles GET /api/download/:token and redirects to the PDF's URL.
func (h *DownloadHandler) Redeem(c *gin.Context) {
	pdf, err := h.tokens.Redeem(c.Request.Context(), c.Param("token"))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrTokenNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Invalid download link"})
		case errors.Is(err, services.ErrTokenExpired):
			c.JSON(http.StatusGone, gin.H{"error": "Download link expired"})
		case errors.Is(err, services.ErrTokenExhausted):
			c.JSON(http.StatusGone, gin.H{"error": "Download limit reached"})
		case errors.Is(err, services.ErrPDFNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Invalid PDF"})
		default:
			h.logger.WithError(err).Error("Download failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Download failed"})
		}
		return
	}

	if pdf.URL == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "Invalid PDF"})
		return
	}

	c.Redirect(http.StatusTemporaryRedirect, pdf.URL)
}
