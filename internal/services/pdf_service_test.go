package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"pdf-delivery-service/internal/models"
)

func newTestPDFService(repo *fakePDFRepo, storage *fakeStorage) *PDFService {
	return NewPDFService(repo, storage, nil, nil, "pdfs", testLogger())
}

func uploadFixture(content string) UploadFile {
	return UploadFile{
		Filename:    "manual.pdf",
		Size:        int64(len(content)),
		ContentType: "application/pdf",
		Content:     strings.NewReader(content),
		Variant:     models.UploadVariantMapping{VariantID: "901", VariantTitle: "Anglais", VariantPrice: "25.00"},
	}
}

func TestUploadCreatesRecord(t *testing.T) {
	repo := &fakePDFRepo{}
	storage := newFakeStorage()
	svc := newTestPDFService(repo, storage)

	record, err := svc.Upload(context.Background(), UploadInput{
		Shop:         "demo.myshopify.com",
		ProductID:    "111",
		ProductTitle: "Coffee Manual",
		Files:        []UploadFile{uploadFixture("%PDF-1.4")},
		AllVariants: []models.UploadVariantOption{
			{Value: "901", Label: "Anglais", Price: "25.00"},
			{Value: "902", Label: "Français", Price: "25.00"},
		},
	})
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}

	if record.ProductID != "gid://shopify/Product/111" {
		t.Errorf("product id stored as %q, want GID form", record.ProductID)
	}
	pdfs, _ := record.Attachments()
	if len(pdfs) != 1 {
		t.Fatalf("attachment count = %d, want 1", len(pdfs))
	}
	if pdfs[0].Name != "Coffee Manual - Anglais" {
		t.Errorf("pdf name = %q", pdfs[0].Name)
	}
	if !strings.HasPrefix(pdfs[0].Path, "product_111/") {
		t.Errorf("storage path = %q, want product_111/ prefix", pdfs[0].Path)
	}
	if storage.objectCount() != 1 {
		t.Errorf("stored objects = %d, want 1", storage.objectCount())
	}

	variants, _ := record.VariantList()
	if !variants[0].HasPDF || variants[1].HasPDF {
		t.Errorf("hasPdf flags wrong: %+v", variants)
	}
}

func TestUploadSkipsNonPDFFiles(t *testing.T) {
	svc := newTestPDFService(&fakePDFRepo{}, newFakeStorage())

	_, err := svc.Upload(context.Background(), UploadInput{
		Shop:      "demo.myshopify.com",
		ProductID: "111",
		Files: []UploadFile{{
			Filename:    "photo.png",
			ContentType: "image/png",
			Content:     strings.NewReader("not a pdf"),
		}},
	})

	if !errors.Is(err, ErrNoValidFiles) {
		t.Errorf("expected ErrNoValidFiles, got %v", err)
	}
}

func TestUploadRejectsDuplicateVariant(t *testing.T) {
	repo := &fakePDFRepo{}
	storage := newFakeStorage()
	svc := newTestPDFService(repo, storage)
	ctx := context.Background()

	if _, err := svc.Upload(ctx, UploadInput{
		Shop:      "demo.myshopify.com",
		ProductID: "111",
		Files:     []UploadFile{uploadFixture("first")},
	}); err != nil {
		t.Fatalf("first upload failed: %v", err)
	}

	_, err := svc.Upload(ctx, UploadInput{
		Shop:      "demo.myshopify.com",
		ProductID: "111",
		Files:     []UploadFile{uploadFixture("second")},
	})

	var conflict *VariantConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected VariantConflictError, got %v", err)
	}
	if conflict.VariantTitle != "Anglais" {
		t.Errorf("conflict variant = %q", conflict.VariantTitle)
	}
}

func TestUploadReplacesMarkedPDF(t *testing.T) {
	repo := &fakePDFRepo{}
	storage := newFakeStorage()
	svc := newTestPDFService(repo, storage)
	ctx := context.Background()

	first, err := svc.Upload(ctx, UploadInput{
		Shop:      "demo.myshopify.com",
		ProductID: "111",
		Files:     []UploadFile{uploadFixture("first")},
	})
	if err != nil {
		t.Fatalf("first upload failed: %v", err)
	}
	oldPDFs, _ := first.Attachments()

	record, err := svc.Upload(ctx, UploadInput{
		Shop:          "demo.myshopify.com",
		ProductID:     "111",
		Files:         []UploadFile{uploadFixture("second")},
		ReplacePDFIDs: []string{oldPDFs[0].ID},
	})
	if err != nil {
		t.Fatalf("replacing upload failed: %v", err)
	}

	pdfs, _ := record.Attachments()
	if len(pdfs) != 1 {
		t.Fatalf("attachment count = %d, want 1 after replace", len(pdfs))
	}
	if pdfs[0].ID == oldPDFs[0].ID {
		t.Error("replacement should mint a new attachment id")
	}
	if len(storage.deleted) != 1 || !strings.Contains(storage.deleted[0], oldPDFs[0].Path) {
		t.Errorf("old file not removed from storage: %v", storage.deleted)
	}
}

func TestUpdateReplaceRequiresFile(t *testing.T) {
	repo := &fakePDFRepo{}
	svc := newTestPDFService(repo, newFakeStorage())
	ctx := context.Background()

	record, err := svc.Upload(ctx, UploadInput{
		Shop:      "demo.myshopify.com",
		ProductID: "111",
		Files:     []UploadFile{uploadFixture("first")},
	})
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	pdfs, _ := record.Attachments()

	_, err = svc.Update(ctx, UpdateInput{
		RecordID: record.ID.String(),
		PDFID:    pdfs[0].ID,
	})
	if !errors.Is(err, ErrFileRequired) {
		t.Errorf("expected ErrFileRequired, got %v", err)
	}
}

func TestUpdateAddsNewEntryWithoutFileTarget(t *testing.T) {
	repo := &fakePDFRepo{}
	storage := newFakeStorage()
	svc := newTestPDFService(repo, storage)
	ctx := context.Background()

	record, err := svc.Upload(ctx, UploadInput{
		Shop:      "demo.myshopify.com",
		ProductID: "111",
		Files:     []UploadFile{uploadFixture("first")},
	})
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}

	file := uploadFixture("second")
	file.Variant = models.UploadVariantMapping{VariantID: "902", VariantTitle: "Français"}
	result, err := svc.Update(ctx, UpdateInput{
		RecordID:     record.ID.String(),
		VariantID:    "902",
		VariantTitle: "Français",
		File:         &file,
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}

	if result.Replaced {
		t.Error("adding a new variant entry should not report a replace")
	}
	pdfs, _ := result.Record.Attachments()
	if len(pdfs) != 2 {
		t.Errorf("attachment count = %d, want 2", len(pdfs))
	}
}

func TestUpdateMissingRecord(t *testing.T) {
	svc := newTestPDFService(&fakePDFRepo{}, newFakeStorage())

	_, err := svc.Update(context.Background(), UpdateInput{RecordID: "00000000-0000-0000-0000-000000000000"})
	if !errors.Is(err, ErrProductNotFound) {
		t.Errorf("expected ErrProductNotFound, got %v", err)
	}
}

func TestDeleteRemovesEntryAndFile(t *testing.T) {
	repo := &fakePDFRepo{}
	storage := newFakeStorage()
	svc := newTestPDFService(repo, storage)
	ctx := context.Background()

	record, err := svc.Upload(ctx, UploadInput{
		Shop:      "demo.myshopify.com",
		ProductID: "111",
		Files:     []UploadFile{uploadFixture("first")},
	})
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	pdfs, _ := record.Attachments()

	updated, err := svc.Delete(ctx, "demo.myshopify.com", "111", pdfs[0].ID)
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	remaining, _ := updated.Attachments()
	if len(remaining) != 0 {
		t.Errorf("attachment count = %d after delete, want 0", len(remaining))
	}
	if storage.objectCount() != 0 {
		t.Errorf("stored objects = %d after delete, want 0", storage.objectCount())
	}
}

func TestDeleteUnknownPDF(t *testing.T) {
	repo := &fakePDFRepo{}
	svc := newTestPDFService(repo, newFakeStorage())
	ctx := context.Background()

	if _, err := svc.Delete(ctx, "demo.myshopify.com", "111", "nope"); !errors.Is(err, ErrProductNotFound) {
		t.Errorf("expected ErrProductNotFound for missing record, got %v", err)
	}

	if _, err := svc.Upload(ctx, UploadInput{
		Shop:      "demo.myshopify.com",
		ProductID: "111",
		Files:     []UploadFile{uploadFixture("first")},
	}); err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	if _, err := svc.Delete(ctx, "demo.myshopify.com", "111", "nope"); !errors.Is(err, ErrPDFEntryNotFound) {
		t.Errorf("expected ErrPDFEntryNotFound, got %v", err)
	}
}

func TestGetDetailsAcceptsBareAndGIDIds(t *testing.T) {
	repo := &fakePDFRepo{}
	svc := newTestPDFService(repo, newFakeStorage())
	ctx := context.Background()

	if _, err := svc.Upload(ctx, UploadInput{
		Shop:      "demo.myshopify.com",
		ProductID: "gid://shopify/Product/111",
		Files:     []UploadFile{uploadFixture("first")},
	}); err != nil {
		t.Fatalf("upload failed: %v", err)
	}

	for _, id := range []string{"111", "gid://shopify/Product/111"} {
		record, err := svc.GetDetails(ctx, "demo.myshopify.com", id)
		if err != nil {
			t.Errorf("GetDetails(%q) failed: %v", id, err)
			continue
		}
		if record.ProductID != "gid://shopify/Product/111" {
			t.Errorf("GetDetails(%q) returned product %q", id, record.ProductID)
		}
	}

	if _, err := svc.GetDetails(ctx, "demo.myshopify.com", "999"); !errors.Is(err, ErrProductNotFound) {
		t.Errorf("expected ErrProductNotFound, got %v", err)
	}
}

func TestVariantsListing(t *testing.T) {
	repo := &fakePDFRepo{}
	svc := newTestPDFService(repo, newFakeStorage())
	ctx := context.Background()

	file2 := uploadFixture("second")
	file2.Variant = models.UploadVariantMapping{VariantID: "902", VariantTitle: "Français"}
	if _, err := svc.Upload(ctx, UploadInput{
		Shop:      "demo.myshopify.com",
		ProductID: "111",
		Files:     []UploadFile{uploadFixture("first"), file2},
	}); err != nil {
		t.Fatalf("upload failed: %v", err)
	}

	listing, err := svc.Variants(ctx, "demo.myshopify.com", "", "", "")
	if err != nil {
		t.Fatalf("variants failed: %v", err)
	}
	if len(listing.Rows) != 2 {
		t.Errorf("row count = %d, want 2", len(listing.Rows))
	}
	if listing.TotalProducts != 1 {
		t.Errorf("total products = %d, want 1", listing.TotalProducts)
	}
	if len(listing.UniqueVariantIDs) != 2 {
		t.Errorf("unique variant ids = %v", listing.UniqueVariantIDs)
	}

	filtered, err := svc.Variants(ctx, "demo.myshopify.com", "", "", "902")
	if err != nil {
		t.Fatalf("filtered variants failed: %v", err)
	}
	if len(filtered.Rows) != 1 || filtered.Rows[0].VariantID != "902" {
		t.Errorf("variant filter returned %+v", filtered.Rows)
	}
}
