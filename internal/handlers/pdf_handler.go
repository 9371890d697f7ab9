package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"pdf-delivery-service/internal/models"
	"pdf-delivery-service/internal/services"
)

// PDFHandler serves the admin product-PDF endpoints.
type PDFHandler struct {
	pdfs        *services.PDFService
	maxFileSize int64
	logger      *logrus.Logger
}

// NewPDFHandler creates a new PDF handler
func NewPDFHandler(pdfs *services.PDFService, maxFileSize int64, logger *logrus.Logger) *PDFHandler {
	if logger == nil {
		logger = logrus.New()
	}
	return &PDFHandler{pdfs: pdfs, maxFileSize: maxFileSize, logger: logger}
}

// replaceTarget identifies a PDF marked for replacement in an upload. The
// admin UI sends either field name.
type replaceTarget struct {
	ID    string `json:"id"`
	PDFID string `json:"pdfId"`
}

// Upload handles POST /api/product-pdfs/upload (multipart).
func (h *PDFHandler) Upload(c *gin.Context) {
	shop := requireShop(c)
	if shop == "" {
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid multipart form"})
		return
	}

	productID := c.PostForm("productId")
	variantDataRaw := c.PostForm("variantData")
	files := form.File["pdfs"]

	if productID == "" || len(files) == 0 || variantDataRaw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Missing product, variant info or files"})
		return
	}

	var variantData []models.UploadVariantMapping
	if err := json.Unmarshal([]byte(variantDataRaw), &variantData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid variantData"})
		return
	}

	var allVariants []models.UploadVariantOption
	if raw := c.PostForm("allVariants"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &allVariants); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid allVariants"})
			return
		}
	}

	var replaceIDs []string
	if raw := c.PostForm("pdfsToReplace"); raw != "" {
		var targets []replaceTarget
		if err := json.Unmarshal([]byte(raw), &targets); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid pdfsToReplace"})
			return
		}
		for _, t := range targets {
			if t.ID != "" {
				replaceIDs = append(replaceIDs, t.ID)
			} else if t.PDFID != "" {
				replaceIDs = append(replaceIDs, t.PDFID)
			}
		}
	}

	input := services.UploadInput{
		Shop:          shop,
		ProductID:     productID,
		ProductTitle:  c.PostForm("productTitle"),
		ProductImage:  c.PostForm("productImage"),
		AllVariants:   allVariants,
		ReplacePDFIDs: replaceIDs,
	}

	for i, fileHeader := range files {
		if i >= len(variantData) {
			break
		}
		if fileHeader.Size > h.maxFileSize {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"message": fmt.Sprintf("File %q exceeds the maximum allowed size", fileHeader.Filename),
			})
			return
		}

		f, err := fileHeader.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Failed to read uploaded file"})
			return
		}
		defer f.Close()

		input.Files = append(input.Files, services.UploadFile{
			Filename:    fileHeader.Filename,
			Size:        fileHeader.Size,
			ContentType: fileHeader.Header.Get("Content-Type"),
			Content:     f,
			Variant:     variantData[i],
		})
	}

	record, err := h.pdfs.Upload(c.Request.Context(), input)
	if err != nil {
		var conflict *services.VariantConflictError
		switch {
		case errors.As(err, &conflict):
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "exists": true, "message": conflict.Error()})
		case errors.Is(err, services.ErrNoValidFiles):
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "No PDF files were successfully uploaded"})
		default:
			h.logger.WithError(err).Error("Upload failed")
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Server error"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "PDF(s) uploaded successfully",
		"data":    record,
	})
}

// Update handles PUT /api/product-pdfs/:id/update (multipart) and replaces or
// adds a single PDF entry on the record.
func (h *PDFHandler) Update(c *gin.Context) {
	input := services.UpdateInput{
		RecordID:     c.Param("id"),
		PDFID:        c.PostForm("pdfId"),
		Name:         c.PostForm("name"),
		VariantID:    c.PostForm("variantId"),
		VariantTitle: c.PostForm("variantTitle"),
		VariantPrice: c.PostForm("variantPrice"),
	}

	if raw := c.PostForm("allVariants"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &input.AllVariants); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid allVariants"})
			return
		}
	}

	if fileHeader, err := c.FormFile("pdf"); err == nil {
		if fileHeader.Size > h.maxFileSize {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "File exceeds the maximum allowed size"})
			return
		}
		f, err := fileHeader.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Failed to read uploaded file"})
			return
		}
		defer f.Close()

		input.File = &services.UploadFile{
			Filename:    fileHeader.Filename,
			Size:        fileHeader.Size,
			ContentType: fileHeader.Header.Get("Content-Type"),
			Content:     f,
		}
	}

	result, err := h.pdfs.Update(c.Request.Context(), input)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrProductNotFound):
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Product PDF record not found"})
		case errors.Is(err, services.ErrFileRequired):
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "PDF replacement requires uploading a new file"})
		case errors.Is(err, services.ErrNoValidFiles):
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Only PDF files are allowed"})
		default:
			h.logger.WithError(err).Error("PDF update failed")
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to process PDF"})
		}
		return
	}

	message := "PDF added successfully"
	if result.Replaced {
		message = "PDF replaced successfully"
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": message, "data": result.Record})
}

// Delete handles DELETE /api/product-pdfs/delete.
func (h *PDFHandler) Delete(c *gin.Context) {
	var req models.DeletePDFRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Shop == "" || req.ProductID == "" || req.PDFID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Missing shop, productId or pdfId"})
		return
	}

	record, err := h.pdfs.Delete(c.Request.Context(), models.NormalizeShopDomain(req.Shop), req.ProductID, req.PDFID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrProductNotFound):
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Product PDFs not found"})
		case errors.Is(err, services.ErrPDFEntryNotFound):
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "PDF not found"})
		default:
			h.logger.WithError(err).Error("PDF delete failed")
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to delete file from storage"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "PDF deleted successfully", "data": record})
}

// Details handles GET /api/product-pdfs/details. Without ?id it lists every
// record for the shop; with ?id it returns one record, accepting both GID and
// bare product ids.
func (h *PDFHandler) Details(c *gin.Context) {
	shop := requireShop(c)
	if shop == "" {
		return
	}

	rawID := c.Query("id")
	if rawID == "" {
		records, err := h.pdfs.List(c.Request.Context(), shop)
		if err != nil {
			h.logger.WithError(err).Error("Failed to list product PDFs")
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Server error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "products": records})
		return
	}

	record, err := h.pdfs.GetDetails(c.Request.Context(), shop, rawID)
	if err != nil {
		if errors.Is(err, services.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"message": fmt.Sprintf("Product not found for ID %s", rawID),
			})
			return
		}
		h.logger.WithError(err).Error("Failed to fetch product details")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to fetch product details"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "product": record})
}

// Check handles POST /api/product-pdfs/check.
func (h *PDFHandler) Check(c *gin.Context) {
	var req models.CheckProductRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ProductID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"exists": false, "message": "Product ID is required"})
		return
	}

	shop := models.NormalizeShopDomain(req.Shop)
	if shop == "" {
		shop = requireShop(c)
		if shop == "" {
			return
		}
	}

	record, err := h.pdfs.Check(c.Request.Context(), shop, req.ProductID)
	if err != nil {
		h.logger.WithError(err).Error("Product check failed")
		c.JSON(http.StatusInternalServerError, gin.H{"exists": false, "message": "Server error"})
		return
	}

	if record == nil {
		c.JSON(http.StatusOK, gin.H{"exists": false, "message": "Product not found in database"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"exists":  true,
		"message": "Product already has PDFs attached",
		"product": record,
	})
}

// Get handles POST /api/product-pdfs/get and returns the pdfs and variants of
// one product.
func (h *PDFHandler) Get(c *gin.Context) {
	var req models.CheckProductRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ProductID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Missing productId"})
		return
	}

	shop := models.NormalizeShopDomain(req.Shop)
	if shop == "" {
		shop = requireShop(c)
		if shop == "" {
			return
		}
	}

	record, err := h.pdfs.GetDetails(c.Request.Context(), shop, req.ProductID)
	if err != nil {
		if errors.Is(err, services.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Product not found"})
			return
		}
		h.logger.WithError(err).Error("Failed to fetch product PDFs")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to fetch PDFs"})
		return
	}

	pdfs, err := record.Attachments()
	if err != nil {
		h.logger.WithError(err).Error("Failed to decode product PDFs")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to fetch PDFs"})
		return
	}
	variants, err := record.VariantList()
	if err != nil {
		h.logger.WithError(err).Error("Failed to decode product variants")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to fetch PDFs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"pdfs":     pdfs,
			"variants": variants,
			"product":  record,
		},
	})
}

// Variants handles GET /api/product-pdfs/variants, the flattened
// variant/pdf-url listing with search filters.
func (h *PDFHandler) Variants(c *gin.Context) {
	shop := requireShop(c)
	if shop == "" {
		return
	}

	listing, err := h.pdfs.Variants(c.Request.Context(), shop, c.Query("search"), c.Query("productId"), c.Query("variantId"))
	if err != nil {
		h.logger.WithError(err).Error("Failed to fetch variant data")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to fetch variant data"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    listing.Rows,
		"meta": gin.H{
			"totalProducts":    listing.TotalProducts,
			"totalVariants":    len(listing.Rows),
			"uniqueVariants":   len(listing.UniqueVariantIDs),
			"uniqueVariantIds": listing.UniqueVariantIDs,
		},
	})
}

// requireShop resolves the shop domain from form, query or header, writing a
// 400 and returning "" when absent.
func requireShop(c *gin.Context) string {
	raw := c.PostForm("shop")
	if raw == "" {
		raw = c.Query("shop")
	}
	if raw == "" {
		raw = c.GetHeader("X-Shopify-Shop-Domain")
	}
	if raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "shop is required"})
		return ""
	}
	return models.NormalizeShopDomain(raw)
}
