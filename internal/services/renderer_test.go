package services

import (
	"strings"
	"testing"

	"pdf-delivery-service/internal/models"
)

var rendererVars = EmailVars{
	ShopName:     "demo",
	CustomerName: "Ada Lovelace",
	OrderName:    "#1001",
	OrderID:      "5544332211",
	Currency:     "EUR",
	TotalAmount:  42.5,
	PDFCount:     2,
}

func TestRenderTemplateSubstitutesPlaceholders(t *testing.T) {
	template := &models.EmailTemplate{
		Subject: "Order {{order_name}} from {{SHOP}}",
		Body:    "Hello {{customer_name}}, order {{order_id}} total {{total_amount}} with {{pdf_count}} files: {{pdf_links}}",
	}

	subject, body := RenderTemplate(template, rendererVars, "<LINKS>")

	if subject != "Order #1001 from demo" {
		t.Errorf("subject = %q", subject)
	}
	for _, want := range []string{"Hello Ada Lovelace", "order 5544332211", "EUR 42.50", "2 files", "<LINKS>"} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q: %s", want, body)
		}
	}
}

func TestRenderTemplateWhitespaceInsidePlaceholders(t *testing.T) {
	template := &models.EmailTemplate{
		Subject: "{{ SHOP }} order",
		Body:    "{{  customer_name  }} / {{ pdf_links }}",
	}

	subject, body := RenderTemplate(template, rendererVars, "<LINKS>")

	if subject != "demo order" {
		t.Errorf("subject = %q", subject)
	}
	if body != "Ada Lovelace / <LINKS>" {
		t.Errorf("body = %q", body)
	}
}

func TestRenderTemplateIgnoresPlaceholderCase(t *testing.T) {
	template := &models.EmailTemplate{
		Subject: "Order {{ Order_Name }} from {{shop}}",
		Body:    "Hello {{ CUSTOMER_NAME }}, {{Pdf_Count}} files: {{PDF_LINKS}}",
	}

	subject, body := RenderTemplate(template, rendererVars, "<LINKS>")

	if subject != "Order #1001 from demo" {
		t.Errorf("subject = %q", subject)
	}
	if body != "Hello Ada Lovelace, 2 files: <LINKS>" {
		t.Errorf("body = %q", body)
	}
}

func TestRenderTemplateBlankSubjectFallsBack(t *testing.T) {
	template := &models.EmailTemplate{Subject: "   ", Body: "body"}

	subject, _ := RenderTemplate(template, rendererVars, "")

	if subject != "Your PDF is ready from demo!" {
		t.Errorf("subject = %q", subject)
	}
}

func TestRenderTemplatePDFLinksBodyOnly(t *testing.T) {
	template := &models.EmailTemplate{
		Subject: "{{pdf_links}} in subject",
		Body:    "{{pdf_links}}",
	}

	subject, body := RenderTemplate(template, rendererVars, "<LINKS>")

	// The links fragment is only valid in the body; the subject keeps the
	// literal placeholder.
	if !strings.Contains(subject, "{{pdf_links}}") {
		t.Errorf("subject should keep the raw placeholder, got %q", subject)
	}
	if body != "<LINKS>" {
		t.Errorf("body = %q", body)
	}
}

func TestDefaultSubject(t *testing.T) {
	if got := DefaultSubject("demo"); got != "Your PDF is ready from demo!" {
		t.Errorf("DefaultSubject = %q", got)
	}
}

func TestRenderPDFLinks(t *testing.T) {
	html := RenderPDFLinks([]PDFLink{
		{Name: "Manual - Anglais", ProductTitle: "Manual", VariantTitle: "Anglais", DownloadLink: "https://app.test/api/download/tok1"},
		{Name: "Manual - Default", ProductTitle: "Manual", VariantTitle: "Default", DownloadLink: "https://app.test/api/download/tok2"},
	})

	if !strings.Contains(html, "https://app.test/api/download/tok1") {
		t.Error("missing first download link")
	}
	if !strings.Contains(html, "(Anglais)") {
		t.Error("missing variant note for a named variant")
	}
	if strings.Contains(html, "(Default)") {
		t.Error("Default variant must not render a variant note")
	}
	if !strings.Contains(html, "30 days") {
		t.Error("missing expiry note")
	}
}

func TestRenderOrderSummary(t *testing.T) {
	html := RenderOrderSummary([]models.LineItem{
		{Title: "Coffee Grinder", VariantTitle: "Français", Quantity: 2, Price: "10.00"},
	}, "EUR")

	for _, want := range []string{"Coffee Grinder", "Français", "2 &times; EUR10.00", "EUR20.00"} {
		if !strings.Contains(html, want) {
			t.Errorf("summary missing %q", want)
		}
	}
}

func TestRenderDefaultEmail(t *testing.T) {
	html := RenderDefaultEmail(rendererVars, "<SUMMARY>", "<LINKS>")

	for _, want := range []string{
		"Thank You, Ada Lovelace!",
		"#1001",
		"EUR 42.50",
		"2 files",
		"<SUMMARY>",
		"<LINKS>",
		"5544332211",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("default email missing %q", want)
		}
	}

	single := rendererVars
	single.PDFCount = 1
	if !strings.Contains(RenderDefaultEmail(single, "", ""), "1 file<") {
		t.Error("singular file count should render as \"1 file\"")
	}
}
