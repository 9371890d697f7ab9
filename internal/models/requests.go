package models

// OrderWebhookResponse is returned to the webhook caller.
type OrderWebhookResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message,omitempty"`
	PDFCount     int    `json:"pdfCount,omitempty"`
	TemplateUsed string `json:"templateUsed,omitempty"`
}

// IssueTokenRequest is the body of the public token issuance endpoint.
type IssueTokenRequest struct {
	VariantID string `json:"variantId"`
	PDFID     string `json:"pdfId"`
	OrderID   string `json:"orderId"`
}

// IssueTokenResponse carries the issued (or pre-existing) token.
type IssueTokenResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token,omitempty"`
	Message string `json:"message,omitempty"`
}

// SaveTemplateRequest is the body of the template upsert endpoints.
type SaveTemplateRequest struct {
	Shop     string `json:"shop"`
	Language string `json:"language"`
	Subject  string `json:"subject"`
	Template string `json:"template"`
}

// DeletePDFRequest is the body of the PDF delete endpoint.
type DeletePDFRequest struct {
	Shop      string `json:"shop"`
	ProductID string `json:"productId"`
	PDFID     string `json:"pdfId"`
}

// CheckProductRequest asks whether a product already has PDFs attached.
type CheckProductRequest struct {
	ProductID string `json:"productId"`
	Shop      string `json:"shop"`
}

// UploadVariantMapping is the per-file variant assignment sent with an upload.
type UploadVariantMapping struct {
	VariantID    string `json:"variantId"`
	VariantTitle string `json:"variantTitle"`
	VariantPrice string `json:"variantPrice"`
}

// UploadVariantOption is one entry of the full variant list sent with an
// upload; value/label/price mirror the admin UI's option shape.
type UploadVariantOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
	Price string `json:"price"`
}

// VariantPDFRow is a flattened (product, variant, pdf url) row for the
// variants listing endpoint.
type VariantPDFRow struct {
	ProductID    string `json:"productId"`
	ProductTitle string `json:"productTitle"`
	PDFURL       string `json:"pdfUrl"`
	VariantID    string `json:"variantId"`
	CreatedAt    string `json:"createdAt"`
	UpdatedAt    string `json:"updatedAt"`
}
