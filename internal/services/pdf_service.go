package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"pdf-delivery-service/internal/cache"
	"pdf-delivery-service/internal/events"
	"pdf-delivery-service/internal/models"
	"pdf-delivery-service/internal/utils"
)

const fallbackProductImage = "https://cdn.shopify.com/s/files/1/0533/2089/files/placeholder-images-image_large.png"

// PDF CRUD failure modes, mapped to HTTP statuses by the handlers.
var (
	ErrProductNotFound  = errors.New("product PDFs not found")
	ErrPDFEntryNotFound = errors.New("PDF not found")
	ErrNoValidFiles     = errors.New("no PDF files were successfully uploaded")
	ErrFileRequired     = errors.New("PDF replacement requires uploading a new file")
)

// VariantConflictError is returned when a variant already has a PDF and the
// upload does not mark it for replacement.
type VariantConflictError struct {
	VariantTitle string
}

func (e *VariantConflictError) Error() string {
	return fmt.Sprintf("PDF already exists for variant %q. Remove the old PDF before uploading a new one.", e.VariantTitle)
}

// UploadFile is one PDF file of a multipart upload, paired with the variant
// it is assigned to.
type UploadFile struct {
	Filename    string
	Size        int64
	ContentType string
	Content     io.Reader
	Variant     models.UploadVariantMapping
}

// UploadInput carries everything the upload endpoint received.
type UploadInput struct {
	Shop          string
	ProductID     string
	ProductTitle  string
	ProductImage  string
	Files         []UploadFile
	AllVariants   []models.UploadVariantOption
	ReplacePDFIDs []string
}

// UpdateInput carries a single-file replace-or-add request.
type UpdateInput struct {
	RecordID     string
	PDFID        string
	Name         string
	VariantID    string
	VariantTitle string
	VariantPrice string
	AllVariants  []models.UploadVariantOption
	File         *UploadFile
}

// UpdateResult reports whether the operation replaced an existing entry or
// added a new one.
type UpdateResult struct {
	Record   *models.ProductPDF
	Replaced bool
}

// VariantListing is the flattened variant/pdf-url view with its meta counts.
type VariantListing struct {
	Rows             []models.VariantPDFRow
	TotalProducts    int
	UniqueVariantIDs []string
}

// PDFService manages product PDF records and their stored files.
type PDFService struct {
	pdfs    models.ProductPDFRepository
	storage models.StorageProvider
	cache   cache.Cache
	events  *events.Publisher
	bucket  string
	logger  *logrus.Logger
	now     func() time.Time
}

// NewPDFService creates a new PDF service
func NewPDFService(pdfs models.ProductPDFRepository, storage models.StorageProvider, c cache.Cache, publisher *events.Publisher, bucket string, logger *logrus.Logger) *PDFService {
	if logger == nil {
		logger = logrus.New()
	}
	if c == nil {
		c = cache.NewNoOpCache()
	}
	return &PDFService{
		pdfs:    pdfs,
		storage: storage,
		cache:   c,
		events:  publisher,
		bucket:  bucket,
		logger:  logger,
		now:     time.Now,
	}
}

// canonicalProductID stores product ids in resource form so webhook lookups
// and admin lookups hit the same row regardless of which form the caller sent.
func canonicalProductID(raw string) string {
	return models.ProductGID(models.NormalizeID(raw))
}

func (s *PDFService) storagePath(productID, filename string) string {
	return fmt.Sprintf("product_%s/%d_%s", models.NormalizeID(productID), s.now().UnixMilli(), utils.SanitizeFilename(filename))
}

// Upload stores new PDF files and attaches them to a product record. Files
// listed in ReplacePDFIDs are swapped out; a variant that already has a PDF
// and is not being replaced rejects the whole upload.
func (s *PDFService) Upload(ctx context.Context, input UploadInput) (*models.ProductPDF, error) {
	productID := canonicalProductID(input.ProductID)
	productTitle := input.ProductTitle
	if productTitle == "" {
		productTitle = "Untitled Product"
	}
	productImage := input.ProductImage
	if productImage == "" {
		productImage = fallbackProductImage
	}

	var newPDFs []models.PDFAttachment
	for _, file := range input.Files {
		if !utils.IsPDF(file.Filename, file.ContentType) {
			s.logger.WithField("filename", file.Filename).Warn("Skipping non-PDF upload")
			continue
		}

		path := s.storagePath(productID, file.Filename)
		if err := s.storage.Upload(ctx, s.bucket, path, file.Content, "application/pdf"); err != nil {
			s.logger.WithError(err).WithField("path", path).Error("Failed to upload PDF file")
			continue
		}

		newPDFs = append(newPDFs, models.PDFAttachment{
			ID:           uuid.New().String(),
			Name:         fmt.Sprintf("%s - %s", productTitle, file.Variant.VariantTitle),
			Size:         utils.FormatFileSize(file.Size),
			URL:          s.storage.PublicURL(s.bucket, path),
			Path:         path,
			VariantID:    file.Variant.VariantID,
			VariantTitle: file.Variant.VariantTitle,
			VariantPrice: file.Variant.VariantPrice,
			UploadedAt:   s.now(),
		})
	}

	if len(newPDFs) == 0 {
		return nil, ErrNoValidFiles
	}

	existing, err := s.pdfs.GetByProduct(ctx, input.Shop, productID)
	if err != nil {
		return nil, err
	}

	replaceIDs := make(map[string]bool, len(input.ReplacePDFIDs))
	for _, id := range input.ReplacePDFIDs {
		replaceIDs[id] = true
	}

	var kept []models.PDFAttachment
	var replaced []models.PDFAttachment
	if existing != nil {
		current, err := existing.Attachments()
		if err != nil {
			return nil, err
		}
		for _, pdf := range current {
			if replaceIDs[pdf.ID] {
				replaced = append(replaced, pdf)
			} else {
				kept = append(kept, pdf)
			}
		}
	}

	for _, newPDF := range newPDFs {
		for _, pdf := range kept {
			if pdf.VariantID == newPDF.VariantID {
				return nil, &VariantConflictError{VariantTitle: newPDF.VariantTitle}
			}
		}
	}

	// Remove replaced files from storage; a failed delete leaves an orphaned
	// object but must not block the upload.
	for _, old := range replaced {
		s.removeStoredFile(ctx, old)
	}

	final := append(kept, newPDFs...)

	record := existing
	if record == nil {
		record = &models.ProductPDF{
			ID:        uuid.New(),
			Shop:      input.Shop,
			ProductID: productID,
		}
	}
	record.ProductTitle = productTitle
	record.ProductImage = productImage
	if len(input.Files) > 0 && input.Files[0].Variant.VariantPrice != "" {
		record.ProductPrice = input.Files[0].Variant.VariantPrice
	} else if record.ProductPrice == "" {
		record.ProductPrice = "0.00"
	}

	if err := record.SetVariants(optionsToVariants(input.AllVariants)); err != nil {
		return nil, err
	}
	if err := record.SetAttachments(final); err != nil {
		return nil, err
	}

	if err := s.pdfs.Upsert(ctx, record); err != nil {
		return nil, err
	}

	for _, pdf := range newPDFs {
		s.events.PDFUploaded(ctx, events.PDFEvent{
			Shop:      input.Shop,
			ProductID: productID,
			PDFID:     pdf.ID,
			PDFName:   pdf.Name,
			VariantID: pdf.VariantID,
		})
	}

	s.logger.WithFields(logrus.Fields{
		"shop":       input.Shop,
		"product_id": productID,
		"uploaded":   len(newPDFs),
		"replaced":   len(replaced),
	}).Info("Uploaded product PDFs")

	return record, nil
}

// Update replaces or adds a single PDF entry on an existing record. An entry
// is targeted by pdfId first, then by variantId; replacing an existing entry
// requires a new file.
func (s *PDFService) Update(ctx context.Context, input UpdateInput) (*UpdateResult, error) {
	record, err := s.pdfs.GetByID(ctx, input.RecordID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrProductNotFound
	}

	pdfs, err := record.Attachments()
	if err != nil {
		return nil, err
	}

	targetIndex := -1
	if input.PDFID != "" {
		for i := range pdfs {
			if pdfs[i].ID == input.PDFID {
				targetIndex = i
				break
			}
		}
	}
	if targetIndex == -1 {
		for i := range pdfs {
			if pdfs[i].VariantID == input.VariantID {
				targetIndex = i
				break
			}
		}
	}
	replacing := targetIndex != -1

	if replacing && input.File == nil {
		return nil, ErrFileRequired
	}

	entry := models.PDFAttachment{
		VariantID:    input.VariantID,
		VariantTitle: input.VariantTitle,
		VariantPrice: input.VariantPrice,
		UploadedAt:   s.now(),
	}
	if replacing {
		entry.ID = pdfs[targetIndex].ID
		entry.Size = pdfs[targetIndex].Size
		entry.URL = pdfs[targetIndex].URL
		entry.Path = pdfs[targetIndex].Path
	} else {
		entry.ID = uuid.New().String()
	}
	entry.Name = input.Name
	if entry.Name == "" && input.File != nil {
		entry.Name = input.File.Filename
	}
	if entry.Name == "" {
		entry.Name = "Untitled PDF"
	}

	if input.File != nil {
		if !utils.IsPDF(input.File.Filename, input.File.ContentType) {
			return nil, ErrNoValidFiles
		}

		path := s.storagePath(record.ProductID, input.File.Filename)
		if err := s.storage.Upload(ctx, s.bucket, path, input.File.Content, "application/pdf"); err != nil {
			return nil, fmt.Errorf("failed to upload PDF file: %w", err)
		}

		// Old file is removed only after the new upload succeeded.
		if replacing {
			s.removeStoredFile(ctx, pdfs[targetIndex])
		}

		entry.URL = s.storage.PublicURL(s.bucket, path)
		entry.Path = path
		entry.Size = utils.FormatFileSize(input.File.Size)
	}

	if replacing {
		pdfs[targetIndex] = entry
	} else {
		pdfs = append(pdfs, entry)
	}

	if len(input.AllVariants) > 0 {
		if err := record.SetVariants(optionsToVariants(input.AllVariants)); err != nil {
			return nil, err
		}
	}
	if err := record.SetAttachments(pdfs); err != nil {
		return nil, err
	}

	if err := s.pdfs.Update(ctx, record); err != nil {
		return nil, err
	}

	s.events.PDFUploaded(ctx, events.PDFEvent{
		Shop:      record.Shop,
		ProductID: record.ProductID,
		PDFID:     entry.ID,
		PDFName:   entry.Name,
		VariantID: entry.VariantID,
	})

	return &UpdateResult{Record: record, Replaced: replacing}, nil
}

// Delete removes one PDF entry and its stored file from a product record.
func (s *PDFService) Delete(ctx context.Context, shop, productID, pdfID string) (*models.ProductPDF, error) {
	record, err := s.pdfs.GetByProduct(ctx, shop, canonicalProductID(productID))
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrProductNotFound
	}

	pdfs, err := record.Attachments()
	if err != nil {
		return nil, err
	}

	targetIndex := -1
	for i := range pdfs {
		if pdfs[i].ID == pdfID {
			targetIndex = i
			break
		}
	}
	if targetIndex == -1 {
		return nil, ErrPDFEntryNotFound
	}

	target := pdfs[targetIndex]
	if target.Path != "" {
		if err := s.storage.Delete(ctx, s.bucket, target.Path); err != nil {
			return nil, fmt.Errorf("failed to delete file from storage: %w", err)
		}
	}

	remaining := append(pdfs[:targetIndex], pdfs[targetIndex+1:]...)
	if err := record.SetAttachments(remaining); err != nil {
		return nil, err
	}

	if err := s.pdfs.Update(ctx, record); err != nil {
		return nil, err
	}

	if err := s.cache.Delete(ctx, "pdf:"+pdfID); err != nil {
		s.logger.WithError(err).Debug("Failed to invalidate PDF cache entry")
	}

	s.events.PDFDeleted(ctx, events.PDFEvent{
		Shop:      shop,
		ProductID: record.ProductID,
		PDFID:     pdfID,
		PDFName:   target.Name,
		VariantID: target.VariantID,
	})

	return record, nil
}

// List returns all records for a shop
func (s *PDFService) List(ctx context.Context, shop string) ([]*models.ProductPDF, error) {
	return s.pdfs.List(ctx, shop)
}

// GetDetails returns the record for a product id in either GID or bare form.
func (s *PDFService) GetDetails(ctx context.Context, shop, rawID string) (*models.ProductPDF, error) {
	record, err := s.pdfs.GetByProduct(ctx, shop, canonicalProductID(rawID))
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrProductNotFound
	}
	return record, nil
}

// Check reports whether a product already has PDFs attached.
func (s *PDFService) Check(ctx context.Context, shop, productID string) (*models.ProductPDF, error) {
	return s.pdfs.GetByProduct(ctx, shop, canonicalProductID(productID))
}

// Variants returns the flattened variant/pdf-url rows for a shop, optionally
// filtered by title search, product id and variant id.
func (s *PDFService) Variants(ctx context.Context, shop, search, productID, variantID string) (*VariantListing, error) {
	if productID != "" {
		productID = canonicalProductID(productID)
	}

	records, err := s.pdfs.Search(ctx, shop, search, productID)
	if err != nil {
		return nil, err
	}

	rows := []models.VariantPDFRow{}
	seen := make(map[string]bool)
	var uniqueIDs []string
	for _, record := range records {
		pdfs, err := record.Attachments()
		if err != nil {
			return nil, err
		}
		title := record.ProductTitle
		if title == "" {
			title = "No Title"
		}
		for _, pdf := range pdfs {
			if variantID != "" && pdf.VariantID != variantID {
				continue
			}
			rows = append(rows, models.VariantPDFRow{
				ProductID:    record.ProductID,
				ProductTitle: title,
				PDFURL:       pdf.URL,
				VariantID:    pdf.VariantID,
				CreatedAt:    record.CreatedAt.Format(time.RFC3339),
				UpdatedAt:    record.UpdatedAt.Format(time.RFC3339),
			})
			if pdf.VariantID != "" && !seen[pdf.VariantID] {
				seen[pdf.VariantID] = true
				uniqueIDs = append(uniqueIDs, pdf.VariantID)
			}
		}
	}

	return &VariantListing{
		Rows:             rows,
		TotalProducts:    len(records),
		UniqueVariantIDs: uniqueIDs,
	}, nil
}

func (s *PDFService) removeStoredFile(ctx context.Context, pdf models.PDFAttachment) {
	if pdf.Path == "" {
		return
	}
	if err := s.storage.Delete(ctx, s.bucket, pdf.Path); err != nil {
		s.logger.WithError(err).WithField("path", pdf.Path).Warn("Failed to delete stored PDF file")
	}
	if err := s.cache.Delete(ctx, "pdf:"+pdf.ID); err != nil {
		s.logger.WithError(err).Debug("Failed to invalidate PDF cache entry")
	}
}

func optionsToVariants(options []models.UploadVariantOption) []models.ProductVariant {
	variants := make([]models.ProductVariant, len(options))
	for i, option := range options {
		variants[i] = models.ProductVariant{
			VariantID:    option.Value,
			VariantTitle: option.Label,
			VariantPrice: option.Price,
		}
	}
	return variants
}
