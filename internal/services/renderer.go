package services

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"pdf-delivery-service/internal/models"
)

// EmailVars are the values substituted into template placeholders.
type EmailVars struct {
	ShopName     string
	CustomerName string
	OrderName    string
	OrderID      string
	Currency     string
	TotalAmount  float64
	PDFCount     int
}

// PDFLink is one download entry rendered into the email body.
type PDFLink struct {
	Name         string
	URL          string
	ProductTitle string
	VariantTitle string
	DownloadLink string
}

// Placeholder matching is case-insensitive and tolerates whitespace inside
// the braces, so "{{ Customer_Name }}" and "{{customer_name}}" both work.
var (
	phShop         = regexp.MustCompile(`(?i){{\s*SHOP\s*}}`)
	phCustomerName = regexp.MustCompile(`(?i){{\s*customer_name\s*}}`)
	phOrderName    = regexp.MustCompile(`(?i){{\s*order_name\s*}}`)
	phOrderID      = regexp.MustCompile(`(?i){{\s*order_id\s*}}`)
	phTotalAmount  = regexp.MustCompile(`(?i){{\s*total_amount\s*}}`)
	phPDFCount     = regexp.MustCompile(`(?i){{\s*pdf_count\s*}}`)
	phPDFLinks     = regexp.MustCompile(`(?i){{\s*pdf_links\s*}}`)
)

func substitute(s string, vars EmailVars) string {
	s = phShop.ReplaceAllString(s, vars.ShopName)
	s = phCustomerName.ReplaceAllString(s, vars.CustomerName)
	s = phOrderName.ReplaceAllString(s, vars.OrderName)
	s = phOrderID.ReplaceAllString(s, vars.OrderID)
	s = phTotalAmount.ReplaceAllString(s, fmt.Sprintf("%s %.2f", vars.Currency, vars.TotalAmount))
	s = phPDFCount.ReplaceAllString(s, strconv.Itoa(vars.PDFCount))
	return s
}

// DefaultSubject is used when the merchant template has a blank subject or
// when no template exists at all.
func DefaultSubject(shopName string) string {
	return fmt.Sprintf("Your PDF is ready from %s!", shopName)
}

// RenderTemplate substitutes placeholders into a merchant template and
// returns the final subject and HTML body. {{pdf_links}} is only valid in
// the body.
func RenderTemplate(template *models.EmailTemplate, vars EmailVars, pdfLinksHTML string) (subject, body string) {
	subject = DefaultSubject(vars.ShopName)
	if strings.TrimSpace(template.Subject) != "" {
		subject = substitute(template.Subject, vars)
	}

	body = substitute(template.Body, vars)
	body = phPDFLinks.ReplaceAllString(body, pdfLinksHTML)
	return subject, body
}

// RenderPDFLinks builds the HTML fragment with one download card per PDF.
func RenderPDFLinks(links []PDFLink) string {
	var b strings.Builder
	for i, link := range links {
		variantNote := ""
		if link.VariantTitle != "" && link.VariantTitle != "Default" {
			variantNote = fmt.Sprintf(` <span style="color: #4a5568; font-weight: 500;">(%s)</span>`, link.VariantTitle)
		}
		fmt.Fprintf(&b, `
      <div style="margin-bottom: 20px; padding: 18px; background: #ffffff; border: 1px solid #e2e8f0; border-radius: 10px; border-left: 5px solid #007bff;">
        <div style="display: flex; align-items: center; gap: 8px; margin-bottom: 6px;">
          <span style="display: inline-flex; align-items: center; justify-content: center; width: 24px; height: 24px; background: #007bff; color: white; border-radius: 50%%; font-size: 12px; font-weight: 600;">%d</span>
          <h4 style="margin: 0; color: #1a202c; font-size: 16px; font-weight: 600;">%s%s</h4>
        </div>
        <p style="margin: 0 0 12px 0; color: #718096; font-size: 14px; padding-left: 32px;"><strong style="color: #2d3748;">%s</strong></p>
        <div style="padding-left: 32px;">
          <a href="%s" style="display: inline-block; padding: 10px 20px; background: #007bff; color: white; text-decoration: none; border-radius: 6px; font-weight: 600; font-size: 14px;">Download PDF</a>
          <p style="margin: 8px 0 0 0; font-size: 12px; color: #a0aec0;">This link expires in <strong style="color: #e53e3e;">30 days</strong></p>
        </div>
      </div>`,
			i+1, link.ProductTitle, variantNote, link.Name, link.DownloadLink)
	}
	return b.String()
}

// RenderOrderSummary builds the HTML fragment listing the order's line items
// with per-line and total pricing.
func RenderOrderSummary(lineItems []models.LineItem, currency string) string {
	var b strings.Builder
	for _, li := range lineItems {
		price, _ := strconv.ParseFloat(li.Price, 64)
		variantRow := ""
		if li.VariantTitle != "" {
			variantRow = fmt.Sprintf(`<p style="margin: 0; color: #64748b; font-size: 13px;">%s</p>`, li.VariantTitle)
		}
		fmt.Fprintf(&b, `
    <div style="display: flex; justify-content: space-between; padding: 16px 0; border-bottom: 1px solid #f1f5f9;">
      <div style="flex: 1;">
        <p style="margin: 0 0 4px 0; color: #1e293b; font-size: 15px; font-weight: 500;">%s</p>
        %s
      </div>
      <div style="text-align: right; min-width: 120px;">
        <p style="margin: 0 0 4px 0; color: #475569; font-size: 13px; font-weight: 500;">%d &times; %s%.2f</p>
        <p style="margin: 0; color: #0f172a; font-size: 16px; font-weight: 600;">%s%.2f</p>
      </div>
    </div>`,
			li.Title, variantRow, li.Quantity, currency, price, currency, price*float64(li.Quantity))
	}
	return b.String()
}

// RenderDefaultEmail builds the self-contained HTML email used when the shop
// has no template.
func RenderDefaultEmail(vars EmailVars, orderSummaryHTML, pdfLinksHTML string) string {
	fileWord := "files"
	if vars.PDFCount == 1 {
		fileWord = "file"
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif; background: #f8fafc; color: #334155; line-height: 1.5;">
  <div style="max-width: 600px; margin: 0 auto; padding: 24px;">

    <div style="background: #4f46e5; border-radius: 16px; padding: 32px 24px; text-align: center; margin-bottom: 24px;">
      <h1 style="margin: 0 0 8px 0; color: white; font-size: 28px; font-weight: 700;">Thank You, %s!</h1>
      <p style="margin: 0; color: rgba(255, 255, 255, 0.9); font-size: 15px;">Order <strong>%s</strong> has been confirmed</p>
    </div>

    <div style="background: white; border-radius: 12px; margin-bottom: 24px; border: 1px solid #e2e8f0; overflow: hidden;">
      <div style="padding: 20px 24px; border-bottom: 1px solid #f1f5f9; background: #f8fafc;">
        <h2 style="margin: 0; color: #1e293b; font-size: 18px; font-weight: 600;">Order Summary</h2>
      </div>
      <div style="padding: 8px 24px;">%s</div>
      <div style="padding: 20px 24px; background: #f8fafc; border-top: 1px solid #f1f5f9;">
        <div style="display: flex; justify-content: space-between; align-items: center;">
          <span style="color: #475569; font-size: 15px; font-weight: 500;">Total Amount</span>
          <p style="margin: 0; color: #0f172a; font-size: 18px; font-weight: 600;">%s %.2f</p>
        </div>
      </div>
    </div>

    <div style="background: white; border-radius: 12px; margin-bottom: 24px; border: 1px solid #e2e8f0; overflow: hidden;">
      <div style="padding: 20px 24px; border-bottom: 1px solid #f1f5f9; display: flex; justify-content: space-between; align-items: center;">
        <h2 style="margin: 0; color: #1e293b; font-size: 18px; font-weight: 600;">Your Downloads</h2>
        <span style="background: #dcfce7; color: #059669; padding: 4px 12px; border-radius: 16px; font-size: 13px; font-weight: 600;">%d %s</span>
      </div>
      <div style="padding: 20px 24px;">%s</div>
    </div>

    <div style="background: white; border-radius: 12px; padding: 24px; margin-bottom: 24px; border: 1px solid #e2e8f0;">
      <p style="margin: 0 0 6px 0; color: #64748b; font-size: 12px; font-weight: 600; text-transform: uppercase;">Shop</p>
      <p style="margin: 0 0 16px 0; color: #1e293b; font-weight: 600; font-size: 15px;">%s</p>
      <p style="margin: 0 0 6px 0; color: #64748b; font-size: 12px; font-weight: 600; text-transform: uppercase;">Order ID</p>
      <p style="margin: 0 0 16px 0; color: #1e293b; font-weight: 600; font-size: 15px;">%s</p>
      <div style="background: #fef3c7; border-radius: 8px; padding: 16px; border-left: 4px solid #f59e0b;">
        <p style="margin: 0 0 6px 0; color: #92400e; font-size: 14px; font-weight: 600;">Important Information</p>
        <p style="margin: 0; color: #92400e; font-size: 13px; line-height: 1.4;">
          &bull; Download links expire in <strong>30 days</strong><br>
          &bull; Save files to a secure location<br>
          &bull; Contact support for assistance
        </p>
      </div>
    </div>

    <div style="text-align: center; padding-top: 24px; border-top: 1px solid #e2e8f0;">
      <p style="margin: 0 0 8px 0; color: #94a3b8; font-size: 13px;">&copy; %d %s</p>
      <p style="margin: 0; color: #cbd5e1; font-size: 12px;">This is an automated email. Please do not reply.</p>
    </div>

  </div>
</body>
</html>`,
		vars.CustomerName, vars.OrderName,
		orderSummaryHTML,
		vars.Currency, vars.TotalAmount,
		vars.PDFCount, fileWord, pdfLinksHTML,
		vars.ShopName, vars.OrderID,
		time.Now().Year(), vars.ShopName)
}
