package models

import (
	"encoding/json"
	"testing"
)

func TestCustomerEmailFallbacks(t *testing.T) {
	testCases := []struct {
		name     string
		order    WebhookOrder
		expected string
	}{
		{
			name:     "contact_email wins",
			order:    WebhookOrder{ContactEmail: "contact@example.com", Email: "top@example.com"},
			expected: "contact@example.com",
		},
		{
			name:     "customer email second",
			order:    WebhookOrder{Customer: &OrderCustomer{Email: "cust@example.com"}, Email: "top@example.com"},
			expected: "cust@example.com",
		},
		{
			name:     "top-level email third",
			order:    WebhookOrder{Email: "top@example.com"},
			expected: "top@example.com",
		},
		{
			name:     "billing address fourth",
			order:    WebhookOrder{BillingAddress: &BillingAddress{Email: "bill@example.com"}},
			expected: "bill@example.com",
		},
		{
			name:     "last resort placeholder",
			order:    WebhookOrder{},
			expected: "customer",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.order.CustomerEmail(); got != tc.expected {
				t.Errorf("CustomerEmail() = %q, want %q", got, tc.expected)
			}
		})
	}
}

func TestCustomerName(t *testing.T) {
	order := WebhookOrder{Customer: &OrderCustomer{FirstName: "Ada", LastName: "Lovelace"}}
	if got := order.CustomerName(); got != "Ada Lovelace" {
		t.Errorf("CustomerName() = %q, want %q", got, "Ada Lovelace")
	}

	order = WebhookOrder{Customer: &OrderCustomer{FirstName: "Ada"}}
	if got := order.CustomerName(); got != "Ada" {
		t.Errorf("CustomerName() = %q, want %q", got, "Ada")
	}

	order = WebhookOrder{}
	if got := order.CustomerName(); got != "Customer" {
		t.Errorf("CustomerName() = %q, want %q", got, "Customer")
	}
}

func TestResolvedCurrency(t *testing.T) {
	order := WebhookOrder{Currency: "EUR", PresentmentCurrency: "CAD"}
	if got := order.ResolvedCurrency(); got != "EUR" {
		t.Errorf("ResolvedCurrency() = %q, want EUR", got)
	}

	order = WebhookOrder{PresentmentCurrency: "CAD"}
	if got := order.ResolvedCurrency(); got != "CAD" {
		t.Errorf("ResolvedCurrency() = %q, want CAD", got)
	}

	order = WebhookOrder{}
	if got := order.ResolvedCurrency(); got != "USD" {
		t.Errorf("ResolvedCurrency() = %q, want USD", got)
	}
}

func TestTotalAmount(t *testing.T) {
	order := WebhookOrder{TotalPrice: "19.99"}
	if got := order.TotalAmount(); got != 19.99 {
		t.Errorf("TotalAmount() = %v, want 19.99", got)
	}

	order = WebhookOrder{CurrentTotalPrice: "5.50"}
	if got := order.TotalAmount(); got != 5.50 {
		t.Errorf("TotalAmount() = %v, want 5.50", got)
	}

	order = WebhookOrder{TotalPrice: "not-a-number"}
	if got := order.TotalAmount(); got != 0 {
		t.Errorf("TotalAmount() = %v, want 0", got)
	}
}

func TestWebhookOrderDecodesNumericAndStringIDs(t *testing.T) {
	// Shopify sends numeric ids; replayed payloads sometimes carry strings.
	payloads := []string{
		`{"id": 5544332211, "line_items": [{"product_id": 111, "variant_id": 222}]}`,
		`{"id": "5544332211", "line_items": [{"product_id": "111", "variant_id": "222"}]}`,
	}

	for _, raw := range payloads {
		var order WebhookOrder
		if err := json.Unmarshal([]byte(raw), &order); err != nil {
			t.Fatalf("failed to decode payload %s: %v", raw, err)
		}
		if order.ID.String() != "5544332211" {
			t.Errorf("order id = %q, want 5544332211", order.ID.String())
		}
		if order.LineItems[0].ProductID.String() != "111" {
			t.Errorf("product id = %q, want 111", order.LineItems[0].ProductID.String())
		}
		if order.LineItems[0].VariantID.String() != "222" {
			t.Errorf("variant id = %q, want 222", order.LineItems[0].VariantID.String())
		}
	}
}
